package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/service"
)

// Request payloads. Shape checks live in the validate tags; the business
// rules (password composition, due date in the future, enums) are enforced
// by the domain constructors so each violation is reported once.

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email" msg:"Invalid email format"`
	Password string `json:"password" validate:"required"       msg:"Password is required"`
}

// TaskRequest is the body of task create and update requests. Absent fields
// are nil; on update they are left untouched.
type TaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00" msg:"Due date must be an ISO 8601 date-time"`
}

// AssignTaskRequest is the body of the admin assign-task endpoint.
type AssignTaskRequest struct {
	UserID      string  `json:"userId"      validate:"required,uuid" msg:"User ID is required"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"     validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00" msg:"Due date must be an ISO 8601 date-time"`
}

// Response payloads.

// UserResponse is the public view of a user; the password hash never leaves
// the service.
type UserResponse struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int64        `json:"expiresIn"`
	User      UserResponse `json:"user"`
}

// MeResponse is returned by GET /auth/me.
type MeResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}

// DataResponse wraps a single resource. Data is serialized even when nil.
type DataResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

// TaskListResponse is returned by GET /tasks.
type TaskListResponse struct {
	Success   bool `json:"success"`
	FromCache bool `json:"fromCache"`
	Count     int  `json:"count"`
	Data      any  `json:"data"`
}

// UserListResponse is returned by GET /admin/users.
type UserListResponse struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Data    []UserResponse `json:"data"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func toAuthResponse(message string, res *service.AuthResult) AuthResponse {
	return AuthResponse{
		Success:   true,
		Message:   message,
		Token:     res.Token,
		ExpiresIn: int64(res.ExpiresIn.Seconds()),
		User:      toUserResponse(res.User),
	}
}

// draft converts a create payload into a domain draft.
func (req TaskRequest) draft() (domain.TaskDraft, error) {
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return domain.TaskDraft{}, err
	}
	return domain.TaskDraft{
		Title:       deref(req.Title),
		Description: deref(req.Description),
		Status:      domain.TaskStatus(deref(req.Status)),
		Priority:    domain.TaskPriority(deref(req.Priority)),
		DueDate:     due,
	}, nil
}

// patch converts an update payload into a domain patch.
func (req TaskRequest) patch() (domain.TaskPatch, error) {
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return domain.TaskPatch{}, err
	}
	p := domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
	}
	if req.Status != nil {
		s := domain.TaskStatus(*req.Status)
		p.Status = &s
	}
	if req.Priority != nil {
		pr := domain.TaskPriority(*req.Priority)
		p.Priority = &pr
	}
	return p, nil
}

func (req AssignTaskRequest) taskRequest() TaskRequest {
	return TaskRequest{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	}
}

func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	due, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, domain.NewValidationError("dueDate", "Due date must be an ISO 8601 date-time")
	}
	return &due, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/api/shared"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/service"
)

// AdminHandler serves the /admin endpoints. Routes are expected to sit
// behind RequireRole(admin); the services check the role again.
type AdminHandler struct {
	users service.UserService
	tasks service.TaskService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(users service.UserService, tasks service.TaskService) *AdminHandler {
	return &AdminHandler{users: users, tasks: tasks}
}

// AssignTask handles POST /admin/assign-task.
func (h *AdminHandler) AssignTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req AssignTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		HandleAPIError(w, r, domain.NewValidationError("userId", "User ID is required"))
		return
	}

	draft, err := req.taskRequest().draft()
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	task, err := h.tasks.Assign(r.Context(), actor, userID, draft)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, DataResponse{Success: true, Data: task})
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	users, err := h.users.ListUsers(r.Context(), actor)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	data := make([]UserResponse, 0, len(users))
	for _, u := range users {
		data = append(data, toUserResponse(u))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, UserListResponse{
		Success: true,
		Count:   len(data),
		Data:    data,
	})
}

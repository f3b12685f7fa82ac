package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

// Supported task statuses.
const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// TaskPriority is the relative importance of a task.
type TaskPriority string

// Supported task priorities.
const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Field limits for tasks.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
	CreatedBy   uuid.UUID    `json:"createdBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// TaskDraft holds the client-controlled fields of a task being created.
// Zero values for Status and Priority select the defaults.
type TaskDraft struct {
	Title       string
	Description string
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     *time.Time
}

// NewTask validates draft and builds a task owned by ownerID.
// now is the reference time for the due date rule.
func NewTask(ownerID uuid.UUID, draft TaskDraft, now time.Time) (*Task, error) {
	if draft.Status == "" {
		draft.Status = StatusPending
	}
	if draft.Priority == "" {
		draft.Priority = PriorityMedium
	}
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)

	verr := &ValidationError{}
	if ownerID == uuid.Nil {
		verr.Add("createdBy", "User ID is required")
	}
	validateTitle(verr, draft.Title)
	validateDescription(verr, draft.Description)
	validateStatus(verr, draft.Status)
	validatePriority(verr, draft.Priority)
	validateDueDate(verr, draft.DueDate, now)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	ts := now.UTC()
	return &Task{
		ID:          uuid.New(),
		Title:       draft.Title,
		Description: draft.Description,
		Status:      draft.Status,
		Priority:    draft.Priority,
		DueDate:     utcPtr(draft.DueDate),
		CreatedBy:   ownerID,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}, nil
}

// TaskPatch is a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *TaskPriority
	DueDate     *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil
}

// Normalize returns a copy with string fields trimmed.
func (p TaskPatch) Normalize() TaskPatch {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		p.Description = &desc
	}
	if p.DueDate != nil {
		p.DueDate = utcPtr(p.DueDate)
	}
	return p
}

// Validate checks every supplied field against the task rules.
func (p TaskPatch) Validate(now time.Time) error {
	verr := &ValidationError{}
	if p.Title != nil {
		validateTitle(verr, *p.Title)
	}
	if p.Description != nil {
		validateDescription(verr, *p.Description)
	}
	if p.Status != nil {
		validateStatus(verr, *p.Status)
	}
	if p.Priority != nil {
		validatePriority(verr, *p.Priority)
	}
	validateDueDate(verr, p.DueDate, now)
	return verr.Err()
}

// ApplyTo copies the supplied fields onto t.
func (p TaskPatch) ApplyTo(t *Task, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = utcPtr(p.DueDate)
	}
	t.UpdatedAt = now.UTC()
}

func validateTitle(verr *ValidationError, title string) {
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		verr.Add("title", "Title is required")
	case n > MaxTitleLength:
		verr.Add("title", "Title cannot be more than 100 characters")
	}
}

func validateDescription(verr *ValidationError, desc string) {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		verr.Add("description", "Description cannot be more than 500 characters")
	}
}

func validateStatus(verr *ValidationError, s TaskStatus) {
	if !s.Valid() {
		verr.Add("status", "Status must be one of: pending, in-progress, completed")
	}
}

func validatePriority(verr *ValidationError, p TaskPriority) {
	if !p.Valid() {
		verr.Add("priority", "Priority must be one of: low, medium, high")
	}
}

func validateDueDate(verr *ValidationError, due *time.Time, now time.Time) {
	if due != nil && !due.After(now) {
		verr.Add("dueDate", "Due date must be in the future")
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
)

// TaskField names a task attribute that can be filtered or sorted on.
// Values use the client-facing (JSON) names.
type TaskField string

// Queryable task fields.
const (
	FieldID          TaskField = "id"
	FieldTitle       TaskField = "title"
	FieldDescription TaskField = "description"
	FieldStatus      TaskField = "status"
	FieldPriority    TaskField = "priority"
	FieldDueDate     TaskField = "dueDate"
	FieldCreatedAt   TaskField = "createdAt"
	FieldUpdatedAt   TaskField = "updatedAt"
)

// IsTime reports whether the field holds a timestamp.
func (f TaskField) IsTime() bool {
	return f == FieldDueDate || f == FieldCreatedAt || f == FieldUpdatedAt
}

// Operator is a comparison applied by a Filter.
type Operator string

// Supported filter operators.
const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
)

// Filter restricts a task listing to rows where Field Op Value holds.
// Value is a string for text fields and a time.Time for timestamp fields.
type Filter struct {
	Field TaskField
	Op    Operator
	Value any
}

// SortField orders a task listing by one field.
type SortField struct {
	Field TaskField
	Desc  bool
}

// TaskQuery is a fully validated listing request. OwnerID is always applied
// in addition to Filters. Page is 1-based.
type TaskQuery struct {
	OwnerID uuid.UUID
	Filters []Filter
	Sort    []SortField
	Page    int
	Limit   int
}

// Offset returns the number of rows skipped before the requested page.
func (q TaskQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// TaskStore defines the interface for task data persistence.
// Every read and write other than Create is scoped to an owner, so a task
// belonging to someone else behaves exactly like a missing one.
type TaskStore interface {
	// Create saves a new task.
	Create(ctx context.Context, task *domain.Task) error

	// GetByIDForOwner retrieves a task by ID if it is owned by ownerID.
	// Returns ErrTaskNotFound otherwise.
	GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error)

	// UpdateForOwner applies patch to the task if it is owned by ownerID and
	// returns the updated task. Returns ErrTaskNotFound otherwise.
	UpdateForOwner(
		ctx context.Context,
		id, ownerID uuid.UUID,
		patch domain.TaskPatch,
		now time.Time,
	) (*domain.Task, error)

	// DeleteForOwner removes the task if it is owned by ownerID.
	// Returns ErrTaskNotFound otherwise.
	DeleteForOwner(ctx context.Context, id, ownerID uuid.UUID) error

	// List returns the page of tasks selected by q.
	List(ctx context.Context, q TaskQuery) ([]*domain.Task, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}

package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskCols = []string{
	"id", "title", "description", "status", "priority",
	"due_date", "created_by", "created_at", "updated_at",
}

func sampleTask(owner uuid.UUID) *domain.Task {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Task{
		ID:          uuid.New(),
		Title:       "Write tests",
		Description: "for the task store",
		Status:      domain.StatusPending,
		Priority:    domain.PriorityHigh,
		CreatedBy:   owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func taskRow(rows *sqlmock.Rows, t *domain.Task) *sqlmock.Rows {
	var due any
	if t.DueDate != nil {
		due = *t.DueDate
	}
	return rows.AddRow(
		t.ID.String(), t.Title, t.Description, string(t.Status), string(t.Priority),
		due, t.CreatedBy.String(), t.CreatedAt, t.UpdatedAt,
	)
}

func TestPostgresTaskStoreCreate(t *testing.T) {
	t.Parallel()

	t.Run("inserts every column", func(t *testing.T) {
		t.Parallel()
		_, tasks, mock := newMockDB(t)
		task := sampleTask(uuid.New())
		due := task.CreatedAt.Add(24 * time.Hour)
		task.DueDate = &due

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).
			WithArgs(task.ID, task.Title, task.Description, "pending", "high",
				due, task.CreatedBy, task.CreatedAt, task.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, tasks.Create(context.Background(), task))
	})

	t.Run("unknown owner", func(t *testing.T) {
		t.Parallel()
		_, tasks, mock := newMockDB(t)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).
			WillReturnError(newPgError("23503"))

		err := tasks.Create(context.Background(), sampleTask(uuid.New()))
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestPostgresTaskStoreGetByIDForOwner(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		_, tasks, mock := newMockDB(t)
		owner := uuid.New()
		task := sampleTask(owner)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND created_by = $2")).
			WithArgs(task.ID, owner).
			WillReturnRows(taskRow(sqlmock.NewRows(taskCols), task))

		got, err := tasks.GetByIDForOwner(context.Background(), task.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, task, got)
	})

	t.Run("other owner looks missing", func(t *testing.T) {
		t.Parallel()
		_, tasks, mock := newMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND created_by = $2")).
			WillReturnRows(sqlmock.NewRows(taskCols))

		_, err := tasks.GetByIDForOwner(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestPostgresTaskStoreUpdateForOwner(t *testing.T) {
	t.Parallel()

	t.Run("passes only supplied fields", func(t *testing.T) {
		t.Parallel()
		_, tasks, mock := newMockDB(t)
		owner := uuid.New()
		task := sampleTask(owner)
		now := task.CreatedAt.Add(time.Hour)

		status := domain.StatusCompleted
		patch := domain.TaskPatch{Status: &status}

		updated := *task
		updated.Status = status
		updated.UpdatedAt = now

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE tasks SET")).
			WithArgs(task.ID, owner, nil, nil, "completed", nil, nil, now).
			WillReturnRows(taskRow(sqlmock.NewRows(taskCols), &updated))

		got, err := tasks.UpdateForOwner(context.Background(), task.ID, owner, patch, now)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, got.Status)
		assert.Equal(t, now, got.UpdatedAt)
		assert.Equal(t, task.Title, got.Title)
	})

	t.Run("not owned", func(t *testing.T) {
		t.Parallel()
		_, tasks, mock := newMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE tasks SET")).
			WillReturnRows(sqlmock.NewRows(taskCols))

		title := "new"
		_, err := tasks.UpdateForOwner(context.Background(), uuid.New(), uuid.New(),
			domain.TaskPatch{Title: &title}, time.Now())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestPostgresTaskStoreDeleteForOwner(t *testing.T) {
	t.Parallel()

	t.Run("deleted", func(t *testing.T) {
		t.Parallel()
		_, tasks, mock := newMockDB(t)
		id, owner := uuid.New(), uuid.New()

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1 AND created_by = $2")).
			WithArgs(id, owner).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, tasks.DeleteForOwner(context.Background(), id, owner))
	})

	t.Run("nothing deleted", func(t *testing.T) {
		t.Parallel()
		_, tasks, mock := newMockDB(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := tasks.DeleteForOwner(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestPostgresTaskStoreList(t *testing.T) {
	t.Parallel()

	_, tasks, mock := newMockDB(t)
	owner := uuid.New()
	first, second := sampleTask(owner), sampleTask(owner)
	due := first.CreatedAt.Add(48 * time.Hour)
	second.DueDate = &due

	q := store.TaskQuery{
		OwnerID: owner,
		Filters: []store.Filter{{Field: store.FieldPriority, Op: store.OpEq, Value: "high"}},
		Page:    2,
		Limit:   2,
	}

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE created_by = $1 AND priority = $2 ORDER BY created_at DESC, id ASC LIMIT $3 OFFSET $4")).
		WithArgs(owner, "high", 2, 2).
		WillReturnRows(taskRow(taskRow(sqlmock.NewRows(taskCols), first), second))

	got, err := tasks.List(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].DueDate)
	require.NotNil(t, got[1].DueDate)
	assert.True(t, due.Equal(*got[1].DueDate))
}

package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/store"
)

// MockTaskStore implements store.TaskStore for testing. Without function
// fields it keeps tasks in memory and applies filters, sorting and paging
// the way the Postgres store does.
type MockTaskStore struct {
	CreateFn          func(ctx context.Context, task *domain.Task) error
	GetByIDForOwnerFn func(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error)
	UpdateForOwnerFn  func(ctx context.Context, id, ownerID uuid.UUID, patch domain.TaskPatch, now time.Time) (*domain.Task, error)
	DeleteForOwnerFn  func(ctx context.Context, id, ownerID uuid.UUID) error
	ListFn            func(ctx context.Context, q store.TaskQuery) ([]*domain.Task, error)

	Tasks     map[uuid.UUID]*domain.Task
	ListCalls int
	LastQuery store.TaskQuery

	mu sync.Mutex
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates a new mock store holding tasks.
func NewMockTaskStore(tasks ...*domain.Task) *MockTaskStore {
	m := &MockTaskStore{Tasks: make(map[uuid.UUID]*domain.Task)}
	for _, t := range tasks {
		m.Tasks[t.ID] = t
	}
	return m
}

// Create implements the TaskStore interface
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.Tasks[task.ID]; exists {
		return store.ErrDuplicate
	}
	cp := *task
	m.Tasks[task.ID] = &cp
	return nil
}

// GetByIDForOwner implements the TaskStore interface
func (m *MockTaskStore) GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	if m.GetByIDForOwnerFn != nil {
		return m.GetByIDForOwnerFn(ctx, id, ownerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.Tasks[id]
	if !ok || t.CreatedBy != ownerID {
		return nil, store.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

// UpdateForOwner implements the TaskStore interface
func (m *MockTaskStore) UpdateForOwner(
	ctx context.Context,
	id, ownerID uuid.UUID,
	patch domain.TaskPatch,
	now time.Time,
) (*domain.Task, error) {
	if m.UpdateForOwnerFn != nil {
		return m.UpdateForOwnerFn(ctx, id, ownerID, patch, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.Tasks[id]
	if !ok || t.CreatedBy != ownerID {
		return nil, store.ErrTaskNotFound
	}
	patch.ApplyTo(t, now)
	cp := *t
	return &cp, nil
}

// DeleteForOwner implements the TaskStore interface
func (m *MockTaskStore) DeleteForOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	if m.DeleteForOwnerFn != nil {
		return m.DeleteForOwnerFn(ctx, id, ownerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.Tasks[id]
	if !ok || t.CreatedBy != ownerID {
		return store.ErrTaskNotFound
	}
	delete(m.Tasks, id)
	return nil
}

// List implements the TaskStore interface
func (m *MockTaskStore) List(ctx context.Context, q store.TaskQuery) ([]*domain.Task, error) {
	m.mu.Lock()
	m.ListCalls++
	m.LastQuery = q
	m.mu.Unlock()

	if m.ListFn != nil {
		return m.ListFn(ctx, q)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*domain.Task
	for _, t := range m.Tasks {
		if t.CreatedBy != q.OwnerID || !matchesAll(t, q.Filters) {
			continue
		}
		cp := *t
		matched = append(matched, &cp)
	}

	order := q.Sort
	if len(order) == 0 {
		order = []store.SortField{{Field: store.FieldCreatedAt, Desc: true}}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		for _, s := range order {
			if c := compareField(matched[i], matched[j], s); c != 0 {
				return c < 0
			}
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	start := q.Offset()
	if start >= len(matched) {
		return []*domain.Task{}, nil
	}
	end := len(matched)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return matched[start:end], nil
}

// WithTx implements the TaskStore interface for transaction support
func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}

func matchesAll(t *domain.Task, filters []store.Filter) bool {
	for _, f := range filters {
		if !matches(t, f) {
			return false
		}
	}
	return true
}

func matches(t *domain.Task, f store.Filter) bool {
	if f.Field.IsTime() {
		v, ok := timeValue(t, f.Field)
		want, isTime := f.Value.(time.Time)
		if !ok || !isTime {
			// NULL never satisfies a comparison.
			return false
		}
		c := v.Compare(want)
		switch f.Op {
		case store.OpEq:
			return c == 0
		case store.OpGt:
			return c > 0
		case store.OpGte:
			return c >= 0
		case store.OpLt:
			return c < 0
		case store.OpLte:
			return c <= 0
		}
		return false
	}

	want, _ := f.Value.(string)
	return f.Op == store.OpEq && stringValue(t, f.Field) == want
}

// compareField orders a before b for s. Missing due dates sort last in
// both directions.
func compareField(a, b *domain.Task, s store.SortField) int {
	var c int
	if s.Field.IsTime() {
		av, aok := timeValue(a, s.Field)
		bv, bok := timeValue(b, s.Field)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		c = av.Compare(bv)
	} else {
		c = strings.Compare(stringValue(a, s.Field), stringValue(b, s.Field))
	}
	if s.Desc {
		c = -c
	}
	return c
}

func timeValue(t *domain.Task, f store.TaskField) (time.Time, bool) {
	switch f {
	case store.FieldDueDate:
		if t.DueDate == nil {
			return time.Time{}, false
		}
		return *t.DueDate, true
	case store.FieldCreatedAt:
		return t.CreatedAt, true
	case store.FieldUpdatedAt:
		return t.UpdatedAt, true
	}
	return time.Time{}, false
}

func stringValue(t *domain.Task, f store.TaskField) string {
	switch f {
	case store.FieldID:
		return t.ID.String()
	case store.FieldTitle:
		return t.Title
	case store.FieldDescription:
		return t.Description
	case store.FieldStatus:
		return string(t.Status)
	case store.FieldPriority:
		return string(t.Priority)
	}
	return ""
}

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/api/shared"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/mocks"
	"github.com/phrazzld/task-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFixture struct {
	router http.Handler
	tasks  *mocks.MockTaskStore
	cache  *mocks.MockCache
	sql    sqlmock.Sqlmock
	alice  *domain.User
	bob    *domain.User
	admin  *domain.User
}

// newHandlerFixture mounts the task and admin handlers on a chi router. The
// acting user is read from the X-Test-User header so each request can pick
// who it runs as.
func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &handlerFixture{
		tasks: mocks.NewMockTaskStore(),
		cache: mocks.NewMockCache(),
		sql:   mock,
		alice: &domain.User{ID: uuid.New(), Name: "Alice", Email: "alice@example.com", Role: domain.RoleUser},
		bob:   &domain.User{ID: uuid.New(), Name: "Bob", Email: "bob@example.com", Role: domain.RoleUser},
		admin: &domain.User{ID: uuid.New(), Name: "Root", Email: "root@example.com", Role: domain.RoleAdmin},
	}
	users := mocks.NewMockUserStore(f.alice, f.bob, f.admin)
	taskSvc := service.NewTaskService(f.tasks, users, db, f.cache,
		service.TaskServiceConfig{ListTTL: time.Hour, MaxPageLimit: 100}, quietLogger())
	userSvc := newUserService(users)

	byID := map[string]*domain.User{
		f.alice.ID.String(): f.alice,
		f.bob.ID.String():   f.bob,
		f.admin.ID.String(): f.admin,
	}

	tasksH := NewTaskHandler(taskSvc)
	adminH := NewAdminHandler(userSvc, taskSvc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, ok := byID[r.Header.Get("X-Test-User")]; ok {
				r = r.WithContext(shared.WithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", tasksH.List)
		r.Post("/", tasksH.Create)
		r.Get("/{id}", tasksH.Get)
		r.Put("/{id}", tasksH.Update)
		r.Delete("/{id}", tasksH.Delete)
	})
	r.Post("/admin/assign-task", adminH.AssignTask)
	r.Get("/admin/users", adminH.ListUsers)

	f.router = r
	return f
}

func (f *handlerFixture) do(t *testing.T, method, target string, body any, actor *domain.User) *httptest.ResponseRecorder {
	t.Helper()
	req := jsonRequest(t, method, target, body, nil)
	if actor != nil {
		req.Header.Set("X-Test-User", actor.ID.String())
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

type taskEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    *domain.Task `json:"data"`
}

type taskListEnvelope struct {
	Success   bool             `json:"success"`
	FromCache bool             `json:"fromCache"`
	Count     int              `json:"count"`
	Data      []map[string]any `json:"data"`
}

func (f *handlerFixture) createTask(t *testing.T, actor *domain.User, body map[string]any) *domain.Task {
	t.Helper()
	rr := f.do(t, http.MethodPost, "/tasks", body, actor)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeBody[taskEnvelope](t, rr).Data
}

func TestTaskHandler_Create(t *testing.T) {
	t.Parallel()

	due := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)

	tests := []struct {
		name        string
		payload     any
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "defaults applied",
			payload:    map[string]any{"title": "Write report"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "all fields",
			payload:    map[string]any{"title": "Ship", "description": "v1", "status": "in-progress", "priority": "high", "dueDate": due},
			wantStatus: http.StatusCreated,
		},
		{
			name:        "missing title",
			payload:     map[string]any{"description": "no title"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Title is required",
		},
		{
			name:        "past due date",
			payload:     map[string]any{"title": "Late", "dueDate": past},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Due date must be in the future",
		},
		{
			name:        "unparseable due date",
			payload:     map[string]any{"title": "Late", "dueDate": "next week"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Due date must be an ISO 8601 date-time",
		},
		{
			name:        "bad status",
			payload:     map[string]any{"title": "X", "status": "done"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Status must be one of: pending, in-progress, completed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newHandlerFixture(t)

			rr := f.do(t, http.MethodPost, "/tasks", tt.payload, f.alice)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantStatus != http.StatusCreated {
				assert.Equal(t, tt.wantMessage, decodeBody[shared.ErrorResponse](t, rr).Error.Message)
				assert.Empty(t, f.tasks.Tasks)
				return
			}

			resp := decodeBody[taskEnvelope](t, rr)
			require.NotNil(t, resp.Data)
			assert.True(t, resp.Success)
			assert.Equal(t, f.alice.ID, resp.Data.CreatedBy)
			assert.NotEmpty(t, resp.Data.Status)
			assert.NotEmpty(t, resp.Data.Priority)
		})
	}
}

func TestTaskHandler_CreateIgnoresClientOwner(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	task := f.createTask(t, f.alice, map[string]any{"title": "Mine", "createdBy": f.bob.ID.String()})
	assert.Equal(t, f.alice.ID, task.CreatedBy)
}

func TestTaskHandler_ListCachesAndProjects(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	f.createTask(t, f.alice, map[string]any{"title": "A", "priority": "high"})
	f.createTask(t, f.alice, map[string]any{"title": "B", "priority": "low"})
	f.createTask(t, f.bob, map[string]any{"title": "Bob's"})

	rr := f.do(t, http.MethodGet, "/tasks?priority=high&fields=title", nil, f.alice)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	first := decodeBody[taskListEnvelope](t, rr)
	assert.False(t, first.FromCache)
	require.Equal(t, 1, first.Count)
	assert.Equal(t, "A", first.Data[0]["title"])
	assert.Contains(t, first.Data[0], "id")
	assert.NotContains(t, first.Data[0], "priority")

	rr = f.do(t, http.MethodGet, "/tasks?fields=title&priority=high", nil, f.alice)
	require.Equal(t, http.StatusOK, rr.Code)
	second := decodeBody[taskListEnvelope](t, rr)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Data, second.Data)

	rr = f.do(t, http.MethodGet, "/tasks", nil, f.bob)
	bobs := decodeBody[taskListEnvelope](t, rr)
	require.Equal(t, 1, bobs.Count)
	assert.Equal(t, "Bob's", bobs.Data[0]["title"])
}

func TestTaskHandler_ListRejectsBadQuery(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	rr := f.do(t, http.MethodGet, "/tasks?sort=-color", nil, f.alice)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody[shared.ErrorResponse](t, rr)
	assert.Equal(t, "Unknown sort field color", body.Error.Message)
}

func TestTaskHandler_GetUpdateDelete(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)
	task := f.createTask(t, f.alice, map[string]any{"title": "Original", "description": "keep me"})
	path := "/tasks/" + task.ID.String()

	rr := f.do(t, http.MethodGet, path, nil, f.alice)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Original", decodeBody[taskEnvelope](t, rr).Data.Title)

	rr = f.do(t, http.MethodPut, path, map[string]any{"status": "completed"}, f.alice)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decodeBody[taskEnvelope](t, rr).Data
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	assert.Equal(t, "Original", updated.Title)
	assert.Equal(t, "keep me", updated.Description)

	rr = f.do(t, http.MethodPut, path, map[string]any{"title": ""}, f.alice)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodDelete, path, nil, f.alice)
	require.Equal(t, http.StatusOK, rr.Code)
	deleted := decodeBody[taskEnvelope](t, rr)
	assert.Equal(t, "Task deleted successfully", deleted.Message)
	assert.Nil(t, deleted.Data)
	assert.Contains(t, rr.Body.String(), `"data":null`)

	rr = f.do(t, http.MethodGet, path, nil, f.alice)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTaskHandler_OtherOwnersTasksAreNotFound(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)
	task := f.createTask(t, f.alice, map[string]any{"title": "Private"})
	path := "/tasks/" + task.ID.String()

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rr := f.do(t, method, path, map[string]any{"title": "Hijacked"}, f.bob)
		require.Equal(t, http.StatusNotFound, rr.Code, method)
		assert.Equal(t, "Task not found", decodeBody[shared.ErrorResponse](t, rr).Error.Message)
	}
	assert.Equal(t, "Private", f.tasks.Tasks[task.ID].Title)
}

func TestTaskHandler_MalformedID(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	rr := f.do(t, http.MethodGet, "/tasks/not-a-uuid", nil, f.alice)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Task not found", decodeBody[shared.ErrorResponse](t, rr).Error.Message)
}

func TestTaskHandler_RequiresUser(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	rr := f.do(t, http.MethodGet, "/tasks", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestTaskHandler_CacheFailureIs500(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)
	f.cache.Err = assert.AnError

	rr := f.do(t, http.MethodGet, "/tasks", nil, f.alice)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal Server Error", decodeBody[shared.ErrorResponse](t, rr).Error.Message)
}

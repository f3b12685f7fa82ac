package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/platform/cache"
	"github.com/phrazzld/task-api/internal/store"
	"golang.org/x/sync/singleflight"
)

// Default task service settings.
const (
	DefaultTaskListTTL = time.Hour
	// loadTimeout bounds a shared cache-miss load, which outlives the
	// request that started it.
	loadTimeout = 10 * time.Second
)

// TaskListResult is one page of tasks and whether it was served from cache.
type TaskListResult struct {
	Tasks     []*domain.Task
	Fields    []string
	FromCache bool
}

// TaskService exposes owner-scoped task operations. Every write invalidates
// the cached lists of the task's owner before returning.
type TaskService interface {
	// List parses params and returns the acting user's tasks, serving
	// repeated queries from the cache.
	List(ctx context.Context, actor *domain.User, params url.Values) (*TaskListResult, error)

	// Get returns a task owned by actor, or store.ErrTaskNotFound.
	Get(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Task, error)

	// Create stores a new task owned by actor.
	Create(ctx context.Context, actor *domain.User, draft domain.TaskDraft) (*domain.Task, error)

	// Update applies patch to a task owned by actor.
	Update(ctx context.Context, actor *domain.User, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)

	// Delete removes a task owned by actor.
	Delete(ctx context.Context, actor *domain.User, id uuid.UUID) error

	// Assign creates a task owned by userID. Requires the admin role.
	Assign(ctx context.Context, actor *domain.User, userID uuid.UUID, draft domain.TaskDraft) (*domain.Task, error)
}

// TaskServiceConfig holds the tunables of TaskServiceImpl.
type TaskServiceConfig struct {
	ListTTL      time.Duration
	MaxPageLimit int
}

// TaskServiceImpl implements TaskService
type TaskServiceImpl struct {
	taskStore store.TaskStore
	userStore store.UserStore
	db        store.TxBeginner
	cache     cache.Cache
	cfg       TaskServiceConfig
	loads     singleflight.Group
	now       func() time.Time
	logger    *slog.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskStore store.TaskStore,
	userStore store.UserStore,
	db store.TxBeginner,
	c cache.Cache,
	cfg TaskServiceConfig,
	logger *slog.Logger,
) *TaskServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = DefaultTaskListTTL
	}
	return &TaskServiceImpl{
		taskStore: taskStore,
		userStore: userStore,
		db:        db,
		cache:     c,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.With("component", "task_service"),
	}
}

var _ TaskService = (*TaskServiceImpl)(nil)

// List implements TaskService.
func (s *TaskServiceImpl) List(
	ctx context.Context,
	actor *domain.User,
	params url.Values,
) (*TaskListResult, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}

	req, err := ParseTaskQuery(params, actor.ID, s.cfg.MaxPageLimit)
	if err != nil {
		return nil, err
	}

	cached, found, err := s.cache.Get(ctx, req.CacheKey)
	if err != nil {
		s.logger.Error("task list cache read failed", "error", err, "user_id", actor.ID)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if found {
		var tasks []*domain.Task
		if err := json.Unmarshal(cached, &tasks); err == nil {
			return &TaskListResult{Tasks: tasks, Fields: req.Fields, FromCache: true}, nil
		}
		// A corrupt entry is treated as a miss and overwritten below.
		s.logger.Warn("discarding undecodable task list cache entry", "key", req.CacheKey)
	}

	// Concurrent misses on the same key share a single store read.
	v, err, _ := s.loads.Do(req.CacheKey, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return s.loadAndCache(loadCtx, req)
	})
	if err != nil {
		return nil, err
	}

	return &TaskListResult{Tasks: v.([]*domain.Task), Fields: req.Fields}, nil
}

func (s *TaskServiceImpl) loadAndCache(ctx context.Context, req *TaskListRequest) ([]*domain.Task, error) {
	tasks, err := s.taskStore.List(ctx, req.Query)
	if err != nil {
		s.logger.Error("failed to list tasks", "error", err, "user_id", req.Query.OwnerID)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	payload, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task list: %w", err)
	}
	if err := s.cache.Set(ctx, req.CacheKey, payload, s.cfg.ListTTL); err != nil {
		s.logger.Error("task list cache write failed", "error", err, "key", req.CacheKey)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Get implements TaskService.
func (s *TaskServiceImpl) Get(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Task, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	task, err := s.taskStore.GetByIDForOwner(ctx, id, actor.ID)
	if err != nil {
		s.logStoreError("failed to get task", err, id, actor.ID)
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// Create implements TaskService.
func (s *TaskServiceImpl) Create(
	ctx context.Context,
	actor *domain.User,
	draft domain.TaskDraft,
) (*domain.Task, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	task, err := domain.NewTask(actor.ID, draft, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		s.logger.Error("failed to create task", "error", err, "user_id", actor.ID)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	if err := s.invalidate(ctx, actor.ID); err != nil {
		return nil, err
	}

	s.logger.Debug("task created", "task_id", task.ID, "user_id", actor.ID)
	return task, nil
}

// Update implements TaskService.
func (s *TaskServiceImpl) Update(
	ctx context.Context,
	actor *domain.User,
	id uuid.UUID,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	now := s.now()
	patch = patch.Normalize()
	if err := patch.Validate(now); err != nil {
		return nil, err
	}

	task, err := s.taskStore.UpdateForOwner(ctx, id, actor.ID, patch, now)
	if err != nil {
		s.logStoreError("failed to update task", err, id, actor.ID)
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if err := s.invalidate(ctx, actor.ID); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete implements TaskService.
func (s *TaskServiceImpl) Delete(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	if err := s.taskStore.DeleteForOwner(ctx, id, actor.ID); err != nil {
		s.logStoreError("failed to delete task", err, id, actor.ID)
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return s.invalidate(ctx, actor.ID)
}

// Assign implements TaskService. The target user lookup and the insert run
// in one transaction so a user deleted in between cannot receive the task.
func (s *TaskServiceImpl) Assign(
	ctx context.Context,
	actor *domain.User,
	userID uuid.UUID,
	draft domain.TaskDraft,
) (*domain.Task, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	task, err := domain.NewTask(userID, draft, s.now())
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := s.userStore.WithTx(tx).GetByID(ctx, userID); err != nil {
			return err
		}
		return s.taskStore.WithTx(tx).Create(ctx, task)
	})
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.logger.Error("failed to assign task", "error", err, "target_user_id", userID)
		}
		return nil, fmt.Errorf("failed to assign task: %w", err)
	}
	if err := s.invalidate(ctx, userID); err != nil {
		return nil, err
	}

	s.logger.Info("task assigned",
		"task_id", task.ID,
		"target_user_id", userID,
		"admin_id", actor.ID)
	return task, nil
}

// invalidate drops every cached list of ownerID.
func (s *TaskServiceImpl) invalidate(ctx context.Context, ownerID uuid.UUID) error {
	if err := s.cache.DeleteMatching(ctx, TaskListCachePattern(ownerID)); err != nil {
		s.logger.Error("task list cache invalidation failed", "error", err, "user_id", ownerID)
		return fmt.Errorf("failed to invalidate task cache: %w", err)
	}
	return nil
}

func (s *TaskServiceImpl) logStoreError(msg string, err error, taskID, userID uuid.UUID) {
	if errors.Is(err, store.ErrTaskNotFound) {
		s.logger.Debug(msg, "error", err, "task_id", taskID, "user_id", userID)
		return
	}
	s.logger.Error(msg, "error", err, "task_id", taskID, "user_id", userID)
}

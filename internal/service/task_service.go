package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stickyasks/stickyasks-api/internal/domain"
	"github.com/stickyasks/stickyasks-api/internal/platform/cache"
	"github.com/stickyasks/stickyasks-api/internal/platform/email"
	"github.com/stickyasks/stickyasks-api/internal/redact"
	"github.com/stickyasks/stickyasks-api/internal/store"
)

// TaskService implements single-task transitions and the per-assignee
// aggregates derived from them.
type TaskService interface {
	// Start transitions an open task to started. Only the assignee may
	// start a task; any other caller gets ErrForbidden. A task that is not
	// open gets ErrInvalidTransition.
	Start(ctx context.Context, caller Identity, taskID uuid.UUID) (*domain.Task, error)

	// Complete transitions a started task to closed and returns the task
	// with its turnaround computed from the stored timestamps. Only the
	// assignee may complete; a task that was never started gets
	// ErrInvalidTransition.
	Complete(ctx context.Context, caller Identity, taskID uuid.UUID) (*domain.Task, error)

	// ListByRequest returns the tasks of a request, priority first. Only a
	// party to the request may list its tasks.
	ListByRequest(ctx context.Context, caller Identity, requestID uuid.UUID) ([]*domain.Task, error)

	// Stats returns the caller's completed-task count and average
	// turnaround.
	Stats(ctx context.Context, caller Identity) (*store.AssigneeStats, error)
}

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	requestStore store.RequestStore
	taskStore    store.TaskStore
	notifier     email.Notifier
	statsCache   cache.StatsCache
	logger       *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	requestStore store.RequestStore,
	taskStore store.TaskStore,
	notifier email.Notifier,
	statsCache cache.StatsCache,
	logger *slog.Logger,
) (TaskService, error) {
	if requestStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "requestStore cannot be nil"}
	}
	if taskStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "taskStore cannot be nil"}
	}
	if notifier == nil {
		notifier = email.NoopNotifier{}
	}
	if statsCache == nil {
		statsCache = cache.NoopStatsCache{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		requestStore: requestStore,
		taskStore:    taskStore,
		notifier:     notifier,
		statsCache:   statsCache,
		logger:       logger.With("component", "task_service"),
	}, nil
}

// Start implements TaskService.Start.
func (s *taskServiceImpl) Start(
	ctx context.Context,
	caller Identity,
	taskID uuid.UUID,
) (*domain.Task, error) {
	twr, err := s.loadForAssignee(ctx, caller, taskID)
	if err != nil {
		return nil, err
	}
	if twr.Task.Status != domain.TaskStatusOpen {
		return nil, ErrInvalidTransition
	}

	startedAt := time.Now().UTC()
	if err := s.taskStore.MarkStarted(ctx, taskID, startedAt); err != nil {
		if errors.Is(err, store.ErrStaleStatus) {
			// Raced with another transition on the same task.
			return nil, ErrInvalidTransition
		}
		s.logger.Error("failed to start task", "error", err, "task_id", taskID)
		return nil, newServiceError("start_task", "failed to start task", err)
	}

	task := twr.Task
	task.Status = domain.TaskStatusStarted
	task.StartedAt = &startedAt

	s.logger.Info("task started", "task_id", taskID)

	go func(senderEmail, title string) {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		err := s.notifier.SendTaskStarted(ctx, senderEmail, caller.Name(), caller.Email, title)
		if err != nil {
			s.logger.Warn("task-started notification failed", "error", err, "task_id", taskID)
		}
	}(twr.FromEmail, task.Title)

	return &task, nil
}

// Complete implements TaskService.Complete.
func (s *taskServiceImpl) Complete(
	ctx context.Context,
	caller Identity,
	taskID uuid.UUID,
) (*domain.Task, error) {
	twr, err := s.loadForAssignee(ctx, caller, taskID)
	if err != nil {
		return nil, err
	}
	if twr.Task.Status != domain.TaskStatusStarted {
		return nil, ErrInvalidTransition
	}

	closedAt := time.Now().UTC()
	task, err := s.taskStore.MarkCompleted(ctx, taskID, closedAt)
	if err != nil {
		if errors.Is(err, store.ErrStaleStatus) {
			return nil, ErrInvalidTransition
		}
		s.logger.Error("failed to complete task", "error", err, "task_id", taskID)
		return nil, newServiceError("complete_task", "failed to complete task", err)
	}

	turnaround, _ := task.TurnaroundMinutes()

	s.logger.Info("task completed",
		"task_id", taskID,
		"turnaround_minutes", turnaround)

	s.invalidateStats(caller.Email)

	go func(senderEmail, title string, minutes int64) {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		err := s.notifier.SendTaskCompleted(ctx, senderEmail, caller.Name(), caller.Email, title, minutes)
		if err != nil {
			s.logger.Warn("task-completed notification failed", "error", err, "task_id", taskID)
		}
	}(twr.FromEmail, task.Title, turnaround)

	return task, nil
}

// loadForAssignee fetches the task with its request parties and enforces
// that the caller is the assignee.
func (s *taskServiceImpl) loadForAssignee(
	ctx context.Context,
	caller Identity,
	taskID uuid.UUID,
) (*store.TaskWithRequest, error) {
	twr, err := s.taskStore.GetWithRequest(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		s.logger.Error("failed to load task", "error", err, "task_id", taskID)
		return nil, newServiceError("load_task", "failed to load task", err)
	}
	if !caller.Is(twr.ToEmail) {
		return nil, ErrForbidden
	}
	return twr, nil
}

// ListByRequest implements TaskService.ListByRequest.
func (s *taskServiceImpl) ListByRequest(
	ctx context.Context,
	caller Identity,
	requestID uuid.UUID,
) ([]*domain.Task, error) {
	request, err := s.requestStore.GetByID(ctx, requestID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		s.logger.Error("failed to load request", "error", err, "request_id", requestID)
		return nil, newServiceError("list_tasks", "failed to load request", err)
	}
	if !request.IsParty(caller.Email) {
		return nil, ErrForbidden
	}

	tasks, err := s.taskStore.ListByRequest(ctx, requestID)
	if err != nil {
		s.logger.Error("failed to list tasks", "error", err, "request_id", requestID)
		return nil, newServiceError("list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

// Stats implements TaskService.Stats.
func (s *taskServiceImpl) Stats(ctx context.Context, caller Identity) (*store.AssigneeStats, error) {
	if cached, err := s.statsCache.Get(ctx, caller.Email); err != nil {
		s.logger.Warn("stats cache read failed", "error", err)
	} else if cached != nil {
		return cached, nil
	}

	stats, err := s.taskStore.StatsForAssignee(ctx, caller.Email)
	if err != nil {
		s.logger.Error("failed to compute stats", "error", err)
		return nil, newServiceError("stats", "failed to compute stats", err)
	}

	if err := s.statsCache.Set(ctx, caller.Email, stats); err != nil {
		s.logger.Warn("stats cache write failed", "error", err)
	}

	return stats, nil
}

// invalidateStats drops the cached stats entry for an assignee after a
// task reaches closed status.
func (s *taskServiceImpl) invalidateStats(email string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.statsCache.Invalidate(ctx, email); err != nil {
		s.logger.Warn("stats cache invalidation failed", "error", redact.Error(err))
	}
}

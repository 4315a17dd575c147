package service

import (
	"context"
	"database/sql"
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

// notifyTimeout bounds the post-commit notification sends, which run
// detached from the request's context.
const notifyTimeout = 10 * time.Second

// TaskInput is a single task in a delegation, as supplied by the caller.
type TaskInput struct {
	Title    string
	Priority domain.TaskPriority
}

// CreateOrMergeResult reports the outcome of a delegation: the request the
// tasks landed on and whether it was created fresh or merged into an
// existing one.
type CreateOrMergeResult struct {
	Request  *domain.Request
	Tasks    []*domain.Task
	Merged   bool
	Reopened bool
}

// CloseResult reports the outcome of closing a request, including how many
// tasks the closure cascaded to.
type CloseResult struct {
	Request     *domain.Request
	TasksClosed int64
}

// RequestService implements the delegation lifecycle: creating or merging
// requests, closing them with their tasks, and listing by party.
type RequestService interface {
	// CreateOrMerge delegates tasks from the caller to a recipient email.
	// The first delegation between a pair creates a request; later
	// delegations append their tasks to the existing one, reopening it
	// first if it was closed.
	CreateOrMerge(ctx context.Context, caller Identity, toEmail string, tasks []TaskInput) (*CreateOrMergeResult, error)

	// Close closes a request and force-closes all of its unfinished tasks.
	// Only the sender or the recipient may close; closing an already
	// closed request returns ErrRequestAlreadyClosed.
	Close(ctx context.Context, caller Identity, requestID uuid.UUID) (*CloseResult, error)

	// ListReceived returns the requests addressed to the caller, most
	// recent first.
	ListReceived(ctx context.Context, caller Identity) ([]*domain.Request, error)

	// ListSent returns the requests the caller sent, most recent first.
	ListSent(ctx context.Context, caller Identity) ([]*domain.Request, error)
}

// requestServiceImpl implements the RequestService interface.
type requestServiceImpl struct {
	db           *sql.DB
	userStore    store.UserStore
	requestStore store.RequestStore
	taskStore    store.TaskStore
	notifier     email.Notifier
	statsCache   cache.StatsCache
	logger       *slog.Logger
}

// NewRequestService creates a new RequestService.
// It returns an error if any of the required dependencies are nil.
func NewRequestService(
	db *sql.DB,
	userStore store.UserStore,
	requestStore store.RequestStore,
	taskStore store.TaskStore,
	notifier email.Notifier,
	statsCache cache.StatsCache,
	logger *slog.Logger,
) (RequestService, error) {
	if db == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if userStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "userStore cannot be nil"}
	}
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

	return &requestServiceImpl{
		db:           db,
		userStore:    userStore,
		requestStore: requestStore,
		taskStore:    taskStore,
		notifier:     notifier,
		statsCache:   statsCache,
		logger:       logger.With("component", "request_service"),
	}, nil
}

// CreateOrMerge implements RequestService.CreateOrMerge.
func (s *requestServiceImpl) CreateOrMerge(
	ctx context.Context,
	caller Identity,
	toEmail string,
	taskInputs []TaskInput,
) (*CreateOrMergeResult, error) {
	toEmail = domain.NormalizeEmail(toEmail)
	if toEmail == "" || len(taskInputs) == 0 {
		return nil, ErrInvalidInput
	}
	var result CreateOrMergeResult

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		users := s.userStore.WithTx(tx)
		requests := s.requestStore.WithTx(tx)
		tasks := s.taskStore.WithTx(tx)

		sender, err := resolveOrCreateUser(ctx, users, caller.Email, caller.DisplayName, s.logger)
		if err != nil {
			return err
		}

		request, err := s.findOrCreateRequest(ctx, requests, sender.ID, toEmail, &result)
		if err != nil {
			return err
		}
		request.FromEmail = sender.Email
		result.Request = request

		result.Tasks = result.Tasks[:0]
		for _, in := range taskInputs {
			task, err := domain.NewTask(request.ID, in.Title, in.Priority)
			if err != nil {
				return err
			}
			if err := tasks.Create(ctx, task); err != nil {
				return err
			}
			result.Tasks = append(result.Tasks, task)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyTaskTitle) || errors.Is(err, domain.ErrInvalidPriority) ||
			errors.Is(err, domain.ErrInvalidEmail) {
			return nil, ErrInvalidInput
		}
		s.logger.Error("failed to create or merge request", "error", err)
		return nil, newServiceError("create_or_merge", "failed to delegate tasks", err)
	}

	s.logger.Info("tasks delegated",
		"request_id", result.Request.ID,
		"task_count", len(result.Tasks),
		"merged", result.Merged,
		"reopened", result.Reopened)

	s.notifyTasksAssigned(caller, result.Request, result.Tasks)

	return &result, nil
}

// findOrCreateRequest locates the request for the pair, reopening a closed
// one, or creates it. A concurrent creator winning the unique pair race is
// absorbed by re-reading their row.
func (s *requestServiceImpl) findOrCreateRequest(
	ctx context.Context,
	requests store.RequestStore,
	fromUserID uuid.UUID,
	toEmail string,
	result *CreateOrMergeResult,
) (*domain.Request, error) {
	request, err := requests.GetByParties(ctx, fromUserID, toEmail)
	if err == nil {
		result.Merged = true
		if request.Status == domain.RequestStatusClosed {
			if err := requests.Reopen(ctx, request.ID); err != nil {
				return nil, err
			}
			request.Status = domain.RequestStatusOpen
			request.ClosedAt = nil
			result.Reopened = true
		}
		return request, nil
	}
	if !errors.Is(err, store.ErrRequestNotFound) {
		return nil, err
	}

	request, err = domain.NewRequest(fromUserID, toEmail)
	if err != nil {
		return nil, err
	}
	if err := requests.Create(ctx, request); err != nil {
		if errors.Is(err, store.ErrRequestExists) {
			result.Merged = true
			return requests.GetByParties(ctx, fromUserID, toEmail)
		}
		return nil, err
	}
	return request, nil
}

// Close implements RequestService.Close.
func (s *requestServiceImpl) Close(
	ctx context.Context,
	caller Identity,
	requestID uuid.UUID,
) (*CloseResult, error) {
	var result CloseResult

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		requests := s.requestStore.WithTx(tx)
		tasks := s.taskStore.WithTx(tx)

		request, err := requests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if !request.IsParty(caller.Email) {
			return ErrForbidden
		}
		if request.Status == domain.RequestStatusClosed {
			return ErrRequestAlreadyClosed
		}

		closedAt := time.Now().UTC()
		if err := requests.Close(ctx, request.ID, closedAt); err != nil {
			if errors.Is(err, store.ErrStaleStatus) {
				// Lost the race to another closer; same outcome for the caller.
				return ErrRequestAlreadyClosed
			}
			return err
		}

		closed, err := tasks.CloseAllForRequest(ctx, request.ID, closedAt)
		if err != nil {
			return err
		}

		request.Status = domain.RequestStatusClosed
		request.ClosedAt = &closedAt
		result.Request = request
		result.TasksClosed = closed
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) || errors.Is(err, ErrRequestAlreadyClosed) ||
			store.IsNotFoundError(err) {
			return nil, err
		}
		s.logger.Error("failed to close request", "error", err, "request_id", requestID)
		return nil, newServiceError("close_request", "failed to close request", err)
	}

	s.logger.Info("request closed",
		"request_id", requestID,
		"tasks_closed", result.TasksClosed)

	// Force-closed tasks count toward the recipient's completed total.
	s.invalidateStats(result.Request.ToEmail)

	return &result, nil
}

// ListReceived implements RequestService.ListReceived.
func (s *requestServiceImpl) ListReceived(ctx context.Context, caller Identity) ([]*domain.Request, error) {
	requests, err := s.requestStore.ListByRecipient(ctx, caller.Email)
	if err != nil {
		s.logger.Error("failed to list received requests", "error", err)
		return nil, newServiceError("list_received", "failed to list requests", err)
	}
	return requests, nil
}

// ListSent implements RequestService.ListSent.
func (s *requestServiceImpl) ListSent(ctx context.Context, caller Identity) ([]*domain.Request, error) {
	requests, err := s.requestStore.ListBySender(ctx, caller.Email)
	if err != nil {
		s.logger.Error("failed to list sent requests", "error", err)
		return nil, newServiceError("list_sent", "failed to list requests", err)
	}
	return requests, nil
}

// notifyTasksAssigned fires the assignment notification after the commit.
// Detached from the request context so a client disconnect does not cancel
// the send.
func (s *requestServiceImpl) notifyTasksAssigned(caller Identity, request *domain.Request, tasks []*domain.Task) {
	titles := make([]string, len(tasks))
	for i, t := range tasks {
		titles[i] = t.Title
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		err := s.notifier.SendTasksAssigned(ctx, request.ToEmail, caller.Name(), caller.Email, titles)
		if err != nil {
			s.logger.Warn("tasks-assigned notification failed",
				"error", err,
				"request_id", request.ID)
		}
	}()
}

// invalidateStats drops the cached stats entry for an assignee. Best
// effort; the entry would expire on its own anyway.
func (s *requestServiceImpl) invalidateStats(email string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.statsCache.Invalidate(ctx, email); err != nil {
		s.logger.Warn("stats cache invalidation failed", "error", redact.Error(err))
	}
}

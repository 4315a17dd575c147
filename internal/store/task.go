package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/stickyasks/stickyasks-api/internal/domain"
)

// TaskWithRequest bundles a task with the parties of its parent request.
// Authorization checks on task transitions need the assignee and sender
// without a second round-trip.
type TaskWithRequest struct {
	Task          domain.Task
	ToEmail       string
	FromEmail     string
	RequestStatus domain.RequestStatus
}

// AssigneeStats aggregates completed work for one assignee email.
type AssigneeStats struct {
	// CompletedTasks counts every closed task, including tasks
	// force-closed by a request closure before being started.
	CompletedTasks int64 `json:"completed_tasks"`

	// AvgTurnaroundMinutes is the mean of per-task whole-minute turnaround
	// over tasks that were both started and closed. Nil when no such task
	// exists.
	AvgTurnaroundMinutes *float64 `json:"avg_turnaround_minutes"`
}

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns ErrInvalidEntity when the parent request does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetWithRequest retrieves a task joined with its parent request's
	// parties. Returns ErrTaskNotFound if the task does not exist.
	GetWithRequest(ctx context.Context, id uuid.UUID) (*TaskWithRequest, error)

	// MarkStarted transitions a task open → started, stamping started_at.
	// The status precondition is checked in the same conditional update
	// that performs the write; returns ErrStaleStatus when the task was
	// not open.
	MarkStarted(ctx context.Context, id uuid.UUID, startedAt time.Time) error

	// MarkCompleted transitions a task started → closed, stamping
	// closed_at, and returns the updated row so the caller can compute
	// turnaround from the stored timestamps. Returns ErrStaleStatus when
	// the task was not in started status.
	MarkCompleted(ctx context.Context, id uuid.UUID, closedAt time.Time) (*domain.Task, error)

	// CloseAllForRequest force-closes every not-yet-closed task under the
	// given request, stamping closed_at, and returns the number of tasks
	// affected. This is the cascade path of a request closure and the only
	// way a task skips the started state.
	CloseAllForRequest(ctx context.Context, requestID uuid.UUID, closedAt time.Time) (int64, error)

	// ListByRequest returns all tasks of a request ordered by priority
	// descending, then creation time ascending.
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*domain.Task, error)

	// StatsForAssignee aggregates closed tasks whose parent request is
	// addressed to the given email.
	StatsForAssignee(ctx context.Context, email string) (*AssigneeStats, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stickyasks/stickyasks-api/internal/domain"
	"github.com/stickyasks/stickyasks-api/internal/platform/logger"
	"github.com/stickyasks/stickyasks-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanTask reads one task row into a domain.Task.
func scanTask(row interface{ Scan(dest ...any) error }) (*domain.Task, error) {
	var task domain.Task
	var status string
	var startedAt, closedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.RequestID,
		&task.Title,
		&task.Priority,
		&status,
		&task.CreatedAt,
		&startedAt,
		&closedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	if startedAt.Valid {
		t := startedAt.Time
		task.StartedAt = &t
	}
	if closedAt.Valid {
		t := closedAt.Time
		task.ClosedAt = &t
	}
	return &task, nil
}

// Create implements store.TaskStore.Create
// Returns store.ErrInvalidEntity if the parent request doesn't exist
// (foreign key violation).
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, request_id, title, priority, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.RequestID,
		task.Title,
		task.Priority,
		task.Status,
		task.CreatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("task_id", task.ID.String()),
				slog.String("request_id", task.RequestID.String()))
			return fmt.Errorf("%w: request with ID %s not found",
				store.ErrInvalidEntity, task.RequestID)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return store.NewStoreError("task", "create", "failed to create task", err)
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("request_id", task.RequestID.String()))
	return nil
}

// GetWithRequest implements store.TaskStore.GetWithRequest
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetWithRequest(
	ctx context.Context,
	id uuid.UUID,
) (*store.TaskWithRequest, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT t.id, t.request_id, t.title, t.priority, t.status,
		       t.created_at, t.started_at, t.closed_at,
		       r.to_email, u.email, r.status
		FROM tasks t
		JOIN requests r ON r.id = t.request_id
		JOIN users u ON u.id = r.from_user_id
		WHERE t.id = $1
	`

	var twr store.TaskWithRequest
	var taskStatus, requestStatus string
	var startedAt, closedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&twr.Task.ID,
		&twr.Task.RequestID,
		&twr.Task.Title,
		&twr.Task.Priority,
		&taskStatus,
		&twr.Task.CreatedAt,
		&startedAt,
		&closedAt,
		&twr.ToEmail,
		&twr.FromEmail,
		&requestStatus,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task with request",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, store.NewStoreError("task", "get", "failed to get task", err)
	}

	twr.Task.Status = domain.TaskStatus(taskStatus)
	twr.RequestStatus = domain.RequestStatus(requestStatus)
	if startedAt.Valid {
		t := startedAt.Time
		twr.Task.StartedAt = &t
	}
	if closedAt.Valid {
		t := closedAt.Time
		twr.Task.ClosedAt = &t
	}

	return &twr, nil
}

// MarkStarted implements store.TaskStore.MarkStarted
// The open precondition is checked in the same update that writes the new
// status, so of two racing starters exactly one wins and the other gets
// store.ErrStaleStatus.
func (s *PostgresTaskStore) MarkStarted(
	ctx context.Context,
	id uuid.UUID,
	startedAt time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = 'started', started_at = $2
		WHERE id = $1 AND status = 'open'
	`

	result, err := s.db.ExecContext(ctx, query, id, startedAt)
	if err != nil {
		log.Error("failed to mark task started",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return store.NewStoreError("task", "update", "failed to mark task started", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return store.NewStoreError("task", "update", "failed to read update result", err)
	}

	if rowsAffected == 0 {
		log.Debug("task not open for start",
			slog.String("task_id", id.String()))
		return store.ErrStaleStatus
	}

	log.Info("task started",
		slog.String("task_id", id.String()))
	return nil
}

// MarkCompleted implements store.TaskStore.MarkCompleted
// Returns the updated row so callers can compute turnaround from the
// stored timestamps. Returns store.ErrStaleStatus when the task is not in
// started status, which also covers a concurrent request-closure cascade
// winning the race.
func (s *PostgresTaskStore) MarkCompleted(
	ctx context.Context,
	id uuid.UUID,
	closedAt time.Time,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = 'closed', closed_at = $2
		WHERE id = $1 AND status = 'started'
		RETURNING id, request_id, title, priority, status, created_at, started_at, closed_at
	`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id, closedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not started for completion",
				slog.String("task_id", id.String()))
			return nil, store.ErrStaleStatus
		}
		log.Error("failed to mark task completed",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, store.NewStoreError("task", "update", "failed to mark task completed", err)
	}

	log.Info("task completed",
		slog.String("task_id", id.String()))
	return task, nil
}

// CloseAllForRequest implements store.TaskStore.CloseAllForRequest
// Every not-yet-closed task is stamped with the same closed_at instant,
// whether it was open or started.
func (s *PostgresTaskStore) CloseAllForRequest(
	ctx context.Context,
	requestID uuid.UUID,
	closedAt time.Time,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = 'closed', closed_at = $2
		WHERE request_id = $1 AND status <> 'closed'
	`

	result, err := s.db.ExecContext(ctx, query, requestID, closedAt)
	if err != nil {
		log.Error("failed to cascade-close tasks",
			slog.String("error", err.Error()),
			slog.String("request_id", requestID.String()))
		return 0, store.NewStoreError("task", "update", "failed to cascade-close tasks", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("request_id", requestID.String()))
		return 0, store.NewStoreError("task", "update", "failed to read update result", err)
	}

	log.Info("cascade-closed tasks",
		slog.String("request_id", requestID.String()),
		slog.Int64("count", rowsAffected))
	return rowsAffected, nil
}

// ListByRequest implements store.TaskStore.ListByRequest
// Higher priority first, then oldest first.
func (s *PostgresTaskStore) ListByRequest(
	ctx context.Context,
	requestID uuid.UUID,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, request_id, title, priority, status, created_at, started_at, closed_at
		FROM tasks
		WHERE request_id = $1
		ORDER BY priority DESC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, requestID)
	if err != nil {
		log.Error("failed to query tasks by request",
			slog.String("error", err.Error()),
			slog.String("request_id", requestID.String()))
		return nil, store.NewStoreError("task", "list", "failed to list tasks", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row",
				slog.String("error", err.Error()))
			return nil, store.NewStoreError("task", "list", "failed to scan task row", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "list", "failed to read task rows", err)
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

// StatsForAssignee implements store.TaskStore.StatsForAssignee
// The count covers every closed task under requests addressed to the
// email; the average only covers tasks with both timestamps, since
// cascade-closed tasks never started. AVG over zero rows is NULL, which
// maps to a nil average instead of a division by zero.
func (s *PostgresTaskStore) StatsForAssignee(
	ctx context.Context,
	email string,
) (*store.AssigneeStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COUNT(*),
		       AVG(FLOOR(EXTRACT(EPOCH FROM (t.closed_at - t.started_at)) / 60))
		FROM tasks t
		JOIN requests r ON r.id = t.request_id
		WHERE lower(r.to_email) = lower($1) AND t.status = 'closed'
	`

	var stats store.AssigneeStats
	var avg sql.NullFloat64

	err := s.db.QueryRowContext(ctx, query, email).Scan(&stats.CompletedTasks, &avg)
	if err != nil {
		log.Error("failed to aggregate assignee stats",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "stats", "failed to aggregate stats", err)
	}

	if avg.Valid {
		v := avg.Float64
		stats.AvgTurnaroundMinutes = &v
	}

	return &stats, nil
}

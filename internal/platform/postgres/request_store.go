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

// PostgresRequestStore implements the store.RequestStore interface
// using a PostgreSQL database as the storage backend.
type PostgresRequestStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRequestStore creates a new PostgreSQL implementation of the RequestStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresRequestStore(db store.DBTX, logger *slog.Logger) *PostgresRequestStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRequestStore{
		db:     db,
		logger: logger.With(slog.String("component", "request_store")),
	}
}

// Ensure PostgresRequestStore implements store.RequestStore interface
var _ store.RequestStore = (*PostgresRequestStore)(nil)

// WithTx implements store.RequestStore.WithTx
func (s *PostgresRequestStore) WithTx(tx *sql.Tx) store.RequestStore {
	return &PostgresRequestStore{
		db:     tx,
		logger: s.logger,
	}
}

// requestColumns is the select list shared by every request query.
// The sender email comes from the users join; recipients are addressed by
// email only and may have no user row at all.
const requestColumns = `
	r.id, r.from_user_id, r.to_email, r.status, r.created_at, r.closed_at, u.email
`

// scanRequest reads one joined request row.
func scanRequest(row interface{ Scan(dest ...any) error }) (*domain.Request, error) {
	var req domain.Request
	var status string
	var closedAt sql.NullTime

	err := row.Scan(
		&req.ID,
		&req.FromUserID,
		&req.ToEmail,
		&status,
		&req.CreatedAt,
		&closedAt,
		&req.FromEmail,
	)
	if err != nil {
		return nil, err
	}

	req.Status = domain.RequestStatus(status)
	if closedAt.Valid {
		t := closedAt.Time
		req.ClosedAt = &t
	}
	return &req, nil
}

// Create implements store.RequestStore.Create
// Returns store.ErrRequestExists when the (sender, recipient) pair is
// already taken, and store.ErrInvalidEntity when the sender user row is
// missing.
func (s *PostgresRequestStore) Create(ctx context.Context, request *domain.Request) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := request.Validate(); err != nil {
		log.Warn("request validation failed during create",
			slog.String("error", err.Error()),
			slog.String("request_id", request.ID.String()))
		return err
	}

	query := `
		INSERT INTO requests (id, from_user_id, to_email, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		request.ID,
		request.FromUserID,
		request.ToEmail,
		request.Status,
		request.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			log.Debug("request pair already exists",
				slog.String("from_user_id", request.FromUserID.String()))
			return store.ErrRequestExists
		}
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during request creation",
				slog.String("request_id", request.ID.String()),
				slog.String("from_user_id", request.FromUserID.String()))
			return fmt.Errorf("%w: sender with ID %s not found",
				store.ErrInvalidEntity, request.FromUserID)
		}

		log.Error("failed to create request",
			slog.String("error", err.Error()),
			slog.String("request_id", request.ID.String()))
		return store.NewStoreError("request", "create", "failed to create request", err)
	}

	log.Info("request created successfully",
		slog.String("request_id", request.ID.String()))
	return nil
}

// GetByID implements store.RequestStore.GetByID
// Returns store.ErrRequestNotFound if the request does not exist.
func (s *PostgresRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + requestColumns + `
		FROM requests r
		JOIN users u ON u.id = r.from_user_id
		WHERE r.id = $1
	`

	req, err := scanRequest(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("request not found", slog.String("request_id", id.String()))
			return nil, store.ErrRequestNotFound
		}
		log.Error("failed to get request by ID",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()))
		return nil, store.NewStoreError("request", "get", "failed to get request", err)
	}

	return req, nil
}

// GetByParties implements store.RequestStore.GetByParties
// Returns store.ErrRequestNotFound if no request exists for the pair.
func (s *PostgresRequestStore) GetByParties(
	ctx context.Context,
	fromUserID uuid.UUID,
	toEmail string,
) (*domain.Request, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + requestColumns + `
		FROM requests r
		JOIN users u ON u.id = r.from_user_id
		WHERE r.from_user_id = $1 AND lower(r.to_email) = lower($2)
	`

	req, err := scanRequest(s.db.QueryRowContext(ctx, query, fromUserID, toEmail))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no request for pair",
				slog.String("from_user_id", fromUserID.String()))
			return nil, store.ErrRequestNotFound
		}
		log.Error("failed to get request by parties",
			slog.String("error", err.Error()),
			slog.String("from_user_id", fromUserID.String()))
		return nil, store.NewStoreError("request", "get", "failed to get request by parties", err)
	}

	return req, nil
}

// Reopen implements store.RequestStore.Reopen
// Idempotent: a request that is already open stays open.
// Returns store.ErrRequestNotFound if the request does not exist.
func (s *PostgresRequestStore) Reopen(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE requests
		SET status = 'open', closed_at = NULL
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to reopen request",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()))
		return store.NewStoreError("request", "update", "failed to reopen request", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()))
		return store.NewStoreError("request", "update", "failed to read update result", err)
	}

	if rowsAffected == 0 {
		return store.ErrRequestNotFound
	}

	log.Info("request reopened",
		slog.String("request_id", id.String()))
	return nil
}

// Close implements store.RequestStore.Close
// The status precondition is part of the update itself; a request that is
// not open yields store.ErrStaleStatus so concurrent closers cannot both
// succeed.
func (s *PostgresRequestStore) Close(ctx context.Context, id uuid.UUID, closedAt time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE requests
		SET status = 'closed', closed_at = $2
		WHERE id = $1 AND status = 'open'
	`

	result, err := s.db.ExecContext(ctx, query, id, closedAt)
	if err != nil {
		log.Error("failed to close request",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()))
		return store.NewStoreError("request", "update", "failed to close request", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()))
		return store.NewStoreError("request", "update", "failed to read update result", err)
	}

	if rowsAffected == 0 {
		log.Debug("request not open for close",
			slog.String("request_id", id.String()))
		return store.ErrStaleStatus
	}

	log.Info("request closed",
		slog.String("request_id", id.String()))
	return nil
}

// listRequests runs a joined request query and scans all rows.
func (s *PostgresRequestStore) listRequests(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.Request, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query requests",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("request", "list", "failed to list requests", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var requests []*domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			log.Error("failed to scan request row",
				slog.String("error", err.Error()))
			return nil, store.NewStoreError("request", "list", "failed to scan request row", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("request", "list", "failed to read request rows", err)
	}

	if requests == nil {
		requests = []*domain.Request{}
	}
	return requests, nil
}

// ListByRecipient implements store.RequestStore.ListByRecipient
func (s *PostgresRequestStore) ListByRecipient(
	ctx context.Context,
	email string,
) ([]*domain.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM requests r
		JOIN users u ON u.id = r.from_user_id
		WHERE lower(r.to_email) = lower($1)
		ORDER BY r.created_at DESC
	`
	return s.listRequests(ctx, query, email)
}

// ListBySender implements store.RequestStore.ListBySender
func (s *PostgresRequestStore) ListBySender(
	ctx context.Context,
	email string,
) ([]*domain.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM requests r
		JOIN users u ON u.id = r.from_user_id
		WHERE lower(u.email) = lower($1)
		ORDER BY r.created_at DESC
	`
	return s.listRequests(ctx, query, email)
}

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/stickyasks/stickyasks-api/internal/domain"
)

// RequestStore defines the interface for request persistence.
type RequestStore interface {
	// Create saves a new request to the store.
	// Returns ErrRequestExists when a request between the same sender and
	// recipient pair already exists (unique pair constraint).
	Create(ctx context.Context, request *domain.Request) error

	// GetByID retrieves a request by its unique ID with the sender's email
	// resolved. Returns ErrRequestNotFound if the request does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Request, error)

	// GetByParties retrieves the request for the ordered
	// (fromUserID, toEmail) pair, regardless of status.
	// Returns ErrRequestNotFound if no request exists for the pair.
	GetByParties(ctx context.Context, fromUserID uuid.UUID, toEmail string) (*domain.Request, error)

	// Reopen transitions a request back to open, clearing its closed_at.
	// Idempotent: reopening an already open request is not an error.
	// Returns ErrRequestNotFound if the request does not exist.
	Reopen(ctx context.Context, id uuid.UUID) error

	// Close transitions an open request to closed, stamping closed_at.
	// The status check and the write happen in a single conditional update;
	// returns ErrStaleStatus when the request was not open, so exactly one
	// of two racing closers succeeds.
	Close(ctx context.Context, id uuid.UUID, closedAt time.Time) error

	// ListByRecipient returns requests addressed to the given email,
	// most recent first.
	ListByRecipient(ctx context.Context, email string) ([]*domain.Request, error)

	// ListBySender returns requests sent by the given email, most recent first.
	ListBySender(ctx context.Context, email string) ([]*domain.Request, error)

	// WithTx returns a new RequestStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) RequestStore
}

package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/stickyasks/stickyasks-api/internal/domain"
	"github.com/stickyasks/stickyasks-api/internal/store"
)

// MockRequestStore implements store.RequestStore for testing
type MockRequestStore struct {
	// Function fields for customizable behavior
	CreateFn          func(ctx context.Context, request *domain.Request) error
	GetByIDFn         func(ctx context.Context, id uuid.UUID) (*domain.Request, error)
	GetByPartiesFn    func(ctx context.Context, fromUserID uuid.UUID, toEmail string) (*domain.Request, error)
	ReopenFn          func(ctx context.Context, id uuid.UUID) error
	CloseFn           func(ctx context.Context, id uuid.UUID, closedAt time.Time) error
	ListByRecipientFn func(ctx context.Context, email string) ([]*domain.Request, error)
	ListBySenderFn    func(ctx context.Context, email string) ([]*domain.Request, error)

	// Data for default implementation
	Requests map[uuid.UUID]*domain.Request
}

// NewMockRequestStore creates a new mock store with initialized defaults
func NewMockRequestStore() *MockRequestStore {
	return &MockRequestStore{
		Requests: make(map[uuid.UUID]*domain.Request),
	}
}

// Create implements the RequestStore interface
func (m *MockRequestStore) Create(ctx context.Context, request *domain.Request) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, request)
	}

	for _, existing := range m.Requests {
		if existing.FromUserID == request.FromUserID &&
			domain.EmailsEqual(existing.ToEmail, request.ToEmail) {
			return store.ErrRequestExists
		}
	}

	m.Requests[request.ID] = request
	return nil
}

// GetByID implements the RequestStore interface
func (m *MockRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	request, exists := m.Requests[id]
	if !exists {
		return nil, store.ErrRequestNotFound
	}
	return request, nil
}

// GetByParties implements the RequestStore interface
func (m *MockRequestStore) GetByParties(
	ctx context.Context,
	fromUserID uuid.UUID,
	toEmail string,
) (*domain.Request, error) {
	if m.GetByPartiesFn != nil {
		return m.GetByPartiesFn(ctx, fromUserID, toEmail)
	}

	for _, request := range m.Requests {
		if request.FromUserID == fromUserID && domain.EmailsEqual(request.ToEmail, toEmail) {
			return request, nil
		}
	}
	return nil, store.ErrRequestNotFound
}

// Reopen implements the RequestStore interface
func (m *MockRequestStore) Reopen(ctx context.Context, id uuid.UUID) error {
	if m.ReopenFn != nil {
		return m.ReopenFn(ctx, id)
	}

	request, exists := m.Requests[id]
	if !exists {
		return store.ErrRequestNotFound
	}
	request.Status = domain.RequestStatusOpen
	request.ClosedAt = nil
	return nil
}

// Close implements the RequestStore interface
func (m *MockRequestStore) Close(ctx context.Context, id uuid.UUID, closedAt time.Time) error {
	if m.CloseFn != nil {
		return m.CloseFn(ctx, id, closedAt)
	}

	request, exists := m.Requests[id]
	if !exists {
		return store.ErrRequestNotFound
	}
	if request.Status != domain.RequestStatusOpen {
		return store.ErrStaleStatus
	}
	request.Status = domain.RequestStatusClosed
	request.ClosedAt = &closedAt
	return nil
}

// ListByRecipient implements the RequestStore interface
func (m *MockRequestStore) ListByRecipient(ctx context.Context, email string) ([]*domain.Request, error) {
	if m.ListByRecipientFn != nil {
		return m.ListByRecipientFn(ctx, email)
	}

	var result []*domain.Request
	for _, request := range m.Requests {
		if domain.EmailsEqual(request.ToEmail, email) {
			result = append(result, request)
		}
	}
	return result, nil
}

// ListBySender implements the RequestStore interface
func (m *MockRequestStore) ListBySender(ctx context.Context, email string) ([]*domain.Request, error) {
	if m.ListBySenderFn != nil {
		return m.ListBySenderFn(ctx, email)
	}

	var result []*domain.Request
	for _, request := range m.Requests {
		if domain.EmailsEqual(request.FromEmail, email) {
			result = append(result, request)
		}
	}
	return result, nil
}

// WithTx implements the RequestStore interface. The mock has no
// transaction state, so it returns itself.
func (m *MockRequestStore) WithTx(tx *sql.Tx) store.RequestStore {
	return m
}

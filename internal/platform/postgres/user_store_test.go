package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stickyasks/stickyasks-api/internal/domain"
	"github.com/stickyasks/stickyasks-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockUserStore(t *testing.T) (*PostgresUserStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresUserStore(db, nil), mock
}

func TestUserStoreCreate_DriverErrorWrapped(t *testing.T) {
	s, mock := newMockUserStore(t)

	user, err := domain.NewUser("helper@example.com", "The Helper")
	require.NoError(t, err)

	driverErr := errors.New("connection reset by peer")
	mock.ExpectExec("INSERT INTO users").WillReturnError(driverErr)

	err = s.Create(context.Background(), user)
	require.Error(t, err)

	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "user", storeErr.Entity)
	assert.Equal(t, "create", storeErr.Operation)

	// The driver error stays reachable through Unwrap
	assert.ErrorIs(t, err, driverErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreGetByID_NotFoundStaysUnwrapped(t *testing.T) {
	s, mock := newMockUserStore(t)

	id := uuid.New()
	mock.ExpectQuery(`(?s)SELECT .+ FROM users`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "display_name", "created_at"}))

	_, err := s.GetByID(context.Background(), id)

	// Sentinels must not be hidden inside a StoreError, callers match
	// them with errors.Is
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	var storeErr *store.StoreError
	assert.False(t, errors.As(err, &storeErr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreGetByID_DriverErrorWrapped(t *testing.T) {
	s, mock := newMockUserStore(t)

	id := uuid.New()
	driverErr := errors.New("read timeout")
	mock.ExpectQuery(`(?s)SELECT .+ FROM users`).
		WithArgs(id).
		WillReturnError(driverErr)

	_, err := s.GetByID(context.Background(), id)

	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "get", storeErr.Operation)
	assert.ErrorIs(t, err, driverErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

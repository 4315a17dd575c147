package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stickyasks/stickyasks-api/internal/domain"
	"github.com/stickyasks/stickyasks-api/internal/platform/postgres"
	"github.com/stickyasks/stickyasks-api/internal/store"
	"github.com/stickyasks/stickyasks-api/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupIntegrationDB connects to the database named by TEST_DATABASE_URL and
// brings the schema up to date. Tests that call it are skipped when the
// variable is unset, so the standard suite runs without a database.
func setupIntegrationDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping database integration test. Set TEST_DATABASE_URL to run")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, db.PingContext(ctx))

	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db, "."))

	return db
}

// uniqueEmail keeps reruns against the same database from tripping over
// unique constraints.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString()[:8])
}

func TestPostgresStores_DelegationLifecycle(t *testing.T) {
	db := setupIntegrationDB(t)
	ctx := context.Background()

	users := postgres.NewPostgresUserStore(db, nil)
	requests := postgres.NewPostgresRequestStore(db, nil)
	tasks := postgres.NewPostgresTaskStore(db, nil)

	senderEmail := uniqueEmail("sender")
	helperEmail := uniqueEmail("helper")

	sender, err := domain.NewUser(senderEmail, "The Sender")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, sender))

	// Email lookups are case-insensitive
	found, err := users.GetByEmail(ctx, strings.ToUpper(senderEmail))
	require.NoError(t, err)
	assert.Equal(t, sender.ID, found.ID)

	// The pair constraint rejects a second account on the same email
	dup, err := domain.NewUser(senderEmail, "Impostor")
	require.NoError(t, err)
	assert.ErrorIs(t, users.Create(ctx, dup), store.ErrEmailExists)

	request, err := domain.NewRequest(sender.ID, helperEmail)
	require.NoError(t, err)
	require.NoError(t, requests.Create(ctx, request))

	// One request per (sender, recipient) pair
	second, err := domain.NewRequest(sender.ID, helperEmail)
	require.NoError(t, err)
	assert.ErrorIs(t, requests.Create(ctx, second), store.ErrRequestExists)

	byParties, err := requests.GetByParties(ctx, sender.ID, helperEmail)
	require.NoError(t, err)
	assert.Equal(t, request.ID, byParties.ID)

	byID, err := requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NormalizeEmail(senderEmail), byID.FromEmail)

	// Two tasks; the high priority one lists first
	low, err := domain.NewTask(request.ID, "Water the plants", domain.TaskPriorityLow)
	require.NoError(t, err)
	require.NoError(t, tasks.Create(ctx, low))
	high, err := domain.NewTask(request.ID, "Fix the door", domain.TaskPriorityHigh)
	require.NoError(t, err)
	require.NoError(t, tasks.Create(ctx, high))

	listed, err := tasks.ListByRequest(ctx, request.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, high.ID, listed[0].ID)
	assert.Equal(t, low.ID, listed[1].ID)

	// The join surfaces both parties for authorization checks
	joined, err := tasks.GetWithRequest(ctx, high.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NormalizeEmail(helperEmail), joined.ToEmail)
	assert.Equal(t, domain.NormalizeEmail(senderEmail), joined.FromEmail)

	// open -> started -> closed with a controlled 45 minute turnaround
	now := time.Now().UTC()
	require.NoError(t, tasks.MarkStarted(ctx, high.ID, now.Add(-45*time.Minute)))
	assert.ErrorIs(t, tasks.MarkStarted(ctx, high.ID, now), store.ErrStaleStatus)

	completed, err := tasks.MarkCompleted(ctx, high.ID, now)
	require.NoError(t, err)
	minutes, ok := completed.TurnaroundMinutes()
	require.True(t, ok)
	assert.Equal(t, int64(45), minutes)

	// Completing twice loses the conditional update
	_, err = tasks.MarkCompleted(ctx, high.ID, now)
	assert.ErrorIs(t, err, store.ErrStaleStatus)

	stats, err := tasks.StatsForAssignee(ctx, helperEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.CompletedTasks)
	require.NotNil(t, stats.AvgTurnaroundMinutes)
	assert.Equal(t, float64(45), *stats.AvgTurnaroundMinutes)

	// Closing the request force-closes the remaining open task
	closedAt := time.Now().UTC()
	require.NoError(t, requests.Close(ctx, request.ID, closedAt))
	assert.ErrorIs(t, requests.Close(ctx, request.ID, closedAt), store.ErrStaleStatus)

	closedCount, err := tasks.CloseAllForRequest(ctx, request.ID, closedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), closedCount)

	// The force-closed task counts toward the total but not the average
	stats, err = tasks.StatsForAssignee(ctx, helperEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.CompletedTasks)
	require.NotNil(t, stats.AvgTurnaroundMinutes)
	assert.Equal(t, float64(45), *stats.AvgTurnaroundMinutes)

	// Reopening brings the request back for new tasks
	require.NoError(t, requests.Reopen(ctx, request.ID))
	reopened, err := requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusOpen, reopened.Status)
	assert.Nil(t, reopened.ClosedAt)

	received, err := requests.ListByRecipient(ctx, helperEmail)
	require.NoError(t, err)
	require.Len(t, received, 1)

	sent, err := requests.ListBySender(ctx, senderEmail)
	require.NoError(t, err)
	require.Len(t, sent, 1)
}

func TestPostgresStores_NotFound(t *testing.T) {
	db := setupIntegrationDB(t)
	ctx := context.Background()

	users := postgres.NewPostgresUserStore(db, nil)
	requests := postgres.NewPostgresRequestStore(db, nil)
	tasks := postgres.NewPostgresTaskStore(db, nil)

	_, err := users.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	_, err = requests.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrRequestNotFound)

	_, err = tasks.GetWithRequest(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	// A task needs an existing parent request
	orphan, err := domain.NewTask(uuid.New(), "No parent", domain.TaskPriorityMedium)
	require.NoError(t, err)
	assert.ErrorIs(t, tasks.Create(ctx, orphan), store.ErrInvalidEntity)
}

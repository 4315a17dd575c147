package mocks

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/stickyasks/stickyasks-api/internal/domain"
	"github.com/stickyasks/stickyasks-api/internal/store"
)

// MockTaskStore implements store.TaskStore for testing
type MockTaskStore struct {
	// Function fields for customizable behavior
	CreateFn             func(ctx context.Context, task *domain.Task) error
	GetWithRequestFn     func(ctx context.Context, id uuid.UUID) (*store.TaskWithRequest, error)
	MarkStartedFn        func(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	MarkCompletedFn      func(ctx context.Context, id uuid.UUID, closedAt time.Time) (*domain.Task, error)
	CloseAllForRequestFn func(ctx context.Context, requestID uuid.UUID, closedAt time.Time) (int64, error)
	ListByRequestFn      func(ctx context.Context, requestID uuid.UUID) ([]*domain.Task, error)
	StatsForAssigneeFn   func(ctx context.Context, email string) (*store.AssigneeStats, error)

	// Data for default implementation. Requests supplies the joined
	// request fields for GetWithRequest.
	Tasks    map[uuid.UUID]*domain.Task
	Requests map[uuid.UUID]*domain.Request
}

// NewMockTaskStore creates a new mock store with initialized defaults
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		Tasks:    make(map[uuid.UUID]*domain.Task),
		Requests: make(map[uuid.UUID]*domain.Request),
	}
}

// Create implements the TaskStore interface
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}

	m.Tasks[task.ID] = task
	return nil
}

// GetWithRequest implements the TaskStore interface
func (m *MockTaskStore) GetWithRequest(ctx context.Context, id uuid.UUID) (*store.TaskWithRequest, error) {
	if m.GetWithRequestFn != nil {
		return m.GetWithRequestFn(ctx, id)
	}

	task, exists := m.Tasks[id]
	if !exists {
		return nil, store.ErrTaskNotFound
	}

	twr := &store.TaskWithRequest{Task: *task}
	if request, ok := m.Requests[task.RequestID]; ok {
		twr.ToEmail = request.ToEmail
		twr.FromEmail = request.FromEmail
		twr.RequestStatus = request.Status
	}
	return twr, nil
}

// MarkStarted implements the TaskStore interface
func (m *MockTaskStore) MarkStarted(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	if m.MarkStartedFn != nil {
		return m.MarkStartedFn(ctx, id, startedAt)
	}

	task, exists := m.Tasks[id]
	if !exists {
		return store.ErrTaskNotFound
	}
	if task.Status != domain.TaskStatusOpen {
		return store.ErrStaleStatus
	}
	task.Status = domain.TaskStatusStarted
	task.StartedAt = &startedAt
	return nil
}

// MarkCompleted implements the TaskStore interface
func (m *MockTaskStore) MarkCompleted(
	ctx context.Context,
	id uuid.UUID,
	closedAt time.Time,
) (*domain.Task, error) {
	if m.MarkCompletedFn != nil {
		return m.MarkCompletedFn(ctx, id, closedAt)
	}

	task, exists := m.Tasks[id]
	if !exists {
		return nil, store.ErrTaskNotFound
	}
	if task.Status != domain.TaskStatusStarted {
		return nil, store.ErrStaleStatus
	}
	task.Status = domain.TaskStatusClosed
	task.ClosedAt = &closedAt
	return task, nil
}

// CloseAllForRequest implements the TaskStore interface
func (m *MockTaskStore) CloseAllForRequest(
	ctx context.Context,
	requestID uuid.UUID,
	closedAt time.Time,
) (int64, error) {
	if m.CloseAllForRequestFn != nil {
		return m.CloseAllForRequestFn(ctx, requestID, closedAt)
	}

	var closed int64
	for _, task := range m.Tasks {
		if task.RequestID == requestID && task.Status != domain.TaskStatusClosed {
			task.Status = domain.TaskStatusClosed
			task.ClosedAt = &closedAt
			closed++
		}
	}
	return closed, nil
}

// ListByRequest implements the TaskStore interface
func (m *MockTaskStore) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*domain.Task, error) {
	if m.ListByRequestFn != nil {
		return m.ListByRequestFn(ctx, requestID)
	}

	var result []*domain.Task
	for _, task := range m.Tasks {
		if task.RequestID == requestID {
			result = append(result, task)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority > result[j].Priority
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// StatsForAssignee implements the TaskStore interface
func (m *MockTaskStore) StatsForAssignee(ctx context.Context, email string) (*store.AssigneeStats, error) {
	if m.StatsForAssigneeFn != nil {
		return m.StatsForAssigneeFn(ctx, email)
	}

	stats := &store.AssigneeStats{}
	var sum, measured int64
	for _, task := range m.Tasks {
		request, ok := m.Requests[task.RequestID]
		if !ok || !domain.EmailsEqual(request.ToEmail, email) {
			continue
		}
		if task.Status != domain.TaskStatusClosed {
			continue
		}
		stats.CompletedTasks++
		if minutes, ok := task.TurnaroundMinutes(); ok {
			sum += minutes
			measured++
		}
	}
	if measured > 0 {
		avg := float64(sum) / float64(measured)
		stats.AvgTurnaroundMinutes = &avg
	}
	return stats, nil
}

// WithTx implements the TaskStore interface. The mock has no transaction
// state, so it returns itself.
func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}

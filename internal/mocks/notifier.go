package mocks

import (
	"context"
	"sync"

	"github.com/stickyasks/stickyasks-api/internal/platform/email"
)

// MockNotifier implements email.Notifier for testing
type MockNotifier struct {
	// Function fields for customizable behavior
	SendTasksAssignedFn func(ctx context.Context, toEmail, fromName, fromEmail string, taskTitles []string) error
	SendTaskStartedFn   func(ctx context.Context, toEmail, assigneeName, assigneeEmail, taskTitle string) error
	SendTaskCompletedFn func(ctx context.Context, toEmail, assigneeName, assigneeEmail, taskTitle string, turnaroundMinutes int64) error

	// Default error for all sends
	Err error

	// Call tracking for verification. Notifications fire on detached
	// goroutines, so tracking is mutex-guarded.
	mu             sync.Mutex
	AssignedCalls  []AssignedCall
	StartedCalls   []StartedCall
	CompletedCalls []CompletedCall
}

// AssignedCall records one SendTasksAssigned invocation.
type AssignedCall struct {
	ToEmail    string
	FromName   string
	FromEmail  string
	TaskTitles []string
}

// StartedCall records one SendTaskStarted invocation.
type StartedCall struct {
	ToEmail       string
	AssigneeEmail string
	TaskTitle     string
}

// CompletedCall records one SendTaskCompleted invocation.
type CompletedCall struct {
	ToEmail           string
	AssigneeEmail     string
	TaskTitle         string
	TurnaroundMinutes int64
}

// Ensure MockNotifier implements email.Notifier
var _ email.Notifier = (*MockNotifier)(nil)

// SendTasksAssigned implements the Notifier interface
func (m *MockNotifier) SendTasksAssigned(
	ctx context.Context,
	toEmail, fromName, fromEmail string,
	taskTitles []string,
) error {
	m.mu.Lock()
	m.AssignedCalls = append(m.AssignedCalls, AssignedCall{
		ToEmail:    toEmail,
		FromName:   fromName,
		FromEmail:  fromEmail,
		TaskTitles: taskTitles,
	})
	m.mu.Unlock()

	if m.SendTasksAssignedFn != nil {
		return m.SendTasksAssignedFn(ctx, toEmail, fromName, fromEmail, taskTitles)
	}
	return m.Err
}

// SendTaskStarted implements the Notifier interface
func (m *MockNotifier) SendTaskStarted(
	ctx context.Context,
	toEmail, assigneeName, assigneeEmail, taskTitle string,
) error {
	m.mu.Lock()
	m.StartedCalls = append(m.StartedCalls, StartedCall{
		ToEmail:       toEmail,
		AssigneeEmail: assigneeEmail,
		TaskTitle:     taskTitle,
	})
	m.mu.Unlock()

	if m.SendTaskStartedFn != nil {
		return m.SendTaskStartedFn(ctx, toEmail, assigneeName, assigneeEmail, taskTitle)
	}
	return m.Err
}

// SendTaskCompleted implements the Notifier interface
func (m *MockNotifier) SendTaskCompleted(
	ctx context.Context,
	toEmail, assigneeName, assigneeEmail, taskTitle string,
	turnaroundMinutes int64,
) error {
	m.mu.Lock()
	m.CompletedCalls = append(m.CompletedCalls, CompletedCall{
		ToEmail:           toEmail,
		AssigneeEmail:     assigneeEmail,
		TaskTitle:         taskTitle,
		TurnaroundMinutes: turnaroundMinutes,
	})
	m.mu.Unlock()

	if m.SendTaskCompletedFn != nil {
		return m.SendTaskCompletedFn(ctx, toEmail, assigneeName, assigneeEmail, taskTitle, turnaroundMinutes)
	}
	return m.Err
}

// Snapshot returns copies of the recorded calls, safe to read while the
// notification goroutines may still be running.
func (m *MockNotifier) Snapshot() ([]AssignedCall, []StartedCall, []CompletedCall) {
	m.mu.Lock()
	defer m.mu.Unlock()

	assigned := append([]AssignedCall(nil), m.AssignedCalls...)
	started := append([]StartedCall(nil), m.StartedCalls...)
	completed := append([]CompletedCall(nil), m.CompletedCalls...)
	return assigned, started, completed
}

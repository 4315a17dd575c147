package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a Task.
type TaskStatus string

// Valid task statuses. A task moves open → started → closed when worked
// by its assignee; closing the parent Request force-closes it from any
// state, which is the only way a task skips "started".
const (
	TaskStatusOpen    TaskStatus = "open"
	TaskStatusStarted TaskStatus = "started"
	TaskStatusClosed  TaskStatus = "closed"
)

// TaskPriority orders tasks within a request. Higher sorts first.
type TaskPriority int

// Valid task priorities.
const (
	TaskPriorityLow    TaskPriority = 1
	TaskPriorityMedium TaskPriority = 2
	TaskPriorityHigh   TaskPriority = 3
)

// Task-specific validation errors
var (
	ErrEmptyTaskID    = errors.New("task ID cannot be empty")
	ErrEmptyTaskTitle = errors.New("task title cannot be empty")
	ErrOrphanTask     = errors.New("task must belong to a request")
)

// Task is a single work item under a Request. It inherits its assignee
// (the recipient email) from the parent Request and never moves between
// Requests.
type Task struct {
	ID        uuid.UUID    `json:"id"`
	RequestID uuid.UUID    `json:"request_id"`
	Title     string       `json:"title"`
	Priority  TaskPriority `json:"priority"`
	Status    TaskStatus   `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	StartedAt *time.Time   `json:"started_at,omitempty"`
	ClosedAt  *time.Time   `json:"closed_at,omitempty"`
}

// NewTask creates a new open Task under the given Request.
// Returns an error if validation fails.
func NewTask(requestID uuid.UUID, title string, priority TaskPriority) (*Task, error) {
	task := &Task{
		ID:        uuid.New(),
		RequestID: requestID,
		Title:     strings.TrimSpace(title),
		Priority:  priority,
		Status:    TaskStatusOpen,
		CreatedAt: time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.RequestID == uuid.Nil {
		return ErrOrphanTask
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTaskTitle
	}
	if t.Priority < TaskPriorityLow || t.Priority > TaskPriorityHigh {
		return ErrInvalidPriority
	}
	switch t.Status {
	case TaskStatusOpen, TaskStatusStarted, TaskStatusClosed:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// TurnaroundMinutes returns the whole-minute difference between the
// task's closed and started timestamps, flooring partial minutes.
// The second return is false when either timestamp is missing, which is
// the case for tasks force-closed by a request closure before they were
// ever started.
func (t *Task) TurnaroundMinutes() (int64, bool) {
	if t.StartedAt == nil || t.ClosedAt == nil {
		return 0, false
	}
	d := t.ClosedAt.Sub(*t.StartedAt)
	if d < 0 {
		return 0, true
	}
	return int64(d / time.Minute), true
}

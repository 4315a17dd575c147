// Package email provides the outbound notification dispatcher.
//
// Notifications are strictly best-effort: they fire after the triggering
// state transition has committed, run on their own deadline, and a failed
// send is logged and dropped, never surfaced to the caller.
package email

import "context"

// Notifier dispatches task lifecycle notifications to the humans on the
// other side of a delegation.
type Notifier interface {
	// SendTasksAssigned tells the recipient that the sender delegated new
	// tasks to them.
	SendTasksAssigned(ctx context.Context, toEmail, fromName, fromEmail string, taskTitles []string) error

	// SendTaskStarted tells the sender that the assignee began working on
	// a task.
	SendTaskStarted(ctx context.Context, toEmail, assigneeName, assigneeEmail, taskTitle string) error

	// SendTaskCompleted tells the sender that the assignee finished a
	// task, including how long it took.
	SendTaskCompleted(ctx context.Context, toEmail, assigneeName, assigneeEmail, taskTitle string, turnaroundMinutes int64) error
}

// NoopNotifier is used when the email feature flag is off. Every send
// succeeds without doing anything.
type NoopNotifier struct{}

// Ensure NoopNotifier implements Notifier
var _ Notifier = (*NoopNotifier)(nil)

// SendTasksAssigned implements Notifier.
func (NoopNotifier) SendTasksAssigned(context.Context, string, string, string, []string) error {
	return nil
}

// SendTaskStarted implements Notifier.
func (NoopNotifier) SendTaskStarted(context.Context, string, string, string, string) error {
	return nil
}

// SendTaskCompleted implements Notifier.
func (NoopNotifier) SendTaskCompleted(context.Context, string, string, string, string, int64) error {
	return nil
}

package email

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	sendgrid "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stickyasks/stickyasks-api/internal/config"
)

// SendGridNotifier implements Notifier on top of the SendGrid v3 API.
type SendGridNotifier struct {
	client    *sendgrid.Client
	fromEmail string
	appURL    string
	logger    *slog.Logger
}

// NewNotifier builds the notifier selected by configuration: the SendGrid
// implementation when the email feature flag is on, a no-op otherwise.
func NewNotifier(cfg config.EmailConfig, logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}

	if !cfg.Enabled {
		logger.Info("email notifications disabled")
		return NoopNotifier{}
	}

	return &SendGridNotifier{
		client:    sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromEmail: cfg.FromEmail,
		appURL:    cfg.AppURL,
		logger:    logger.With(slog.String("component", "sendgrid_notifier")),
	}
}

// Ensure SendGridNotifier implements Notifier
var _ Notifier = (*SendGridNotifier)(nil)

// send delivers one message and treats any non-2xx response as an error.
func (n *SendGridNotifier) send(ctx context.Context, toEmail, subject, text, html string) error {
	message := mail.NewSingleEmail(
		mail.NewEmail("Sticky Asks", n.fromEmail),
		subject,
		mail.NewEmail("", toEmail),
		text,
		html,
	)

	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected message: status %d", resp.StatusCode)
	}

	n.logger.Info("notification sent",
		slog.String("subject", subject))
	return nil
}

// SendTasksAssigned implements Notifier.
func (n *SendGridNotifier) SendTasksAssigned(
	ctx context.Context,
	toEmail, fromName, fromEmail string,
	taskTitles []string,
) error {
	count := len(taskTitles)
	plural := ""
	if count > 1 {
		plural = "s"
	}

	var taskList, taskListHTML strings.Builder
	for _, title := range taskTitles {
		fmt.Fprintf(&taskList, "- %s\n", title)
		fmt.Fprintf(&taskListHTML, "<li>%s</li>", title)
	}

	subject := fmt.Sprintf("%s assigned you %d new task%s", fromName, count, plural)
	text := fmt.Sprintf(
		"Hi,\n\n%s (%s) has assigned you %d new task%s:\n\n%s\nView and manage your tasks at: %s\n\n- Sticky Asks",
		fromName, fromEmail, count, plural, taskList.String(), n.appURL,
	)
	html := fmt.Sprintf(
		"<p><strong>%s</strong> (%s) has assigned you %d new task%s:</p><ul>%s</ul><p><a href=%q>View Tasks</a></p>",
		fromName, fromEmail, count, plural, taskListHTML.String(), n.appURL,
	)

	return n.send(ctx, toEmail, subject, text, html)
}

// SendTaskStarted implements Notifier.
func (n *SendGridNotifier) SendTaskStarted(
	ctx context.Context,
	toEmail, assigneeName, assigneeEmail, taskTitle string,
) error {
	subject := fmt.Sprintf("%s started working on: %s", assigneeName, taskTitle)
	text := fmt.Sprintf(
		"Hi,\n\n%s (%s) has started working on the task:\n\n%q\n\nView progress at: %s\n\n- Sticky Asks",
		assigneeName, assigneeEmail, taskTitle, n.appURL,
	)
	html := fmt.Sprintf(
		"<p><strong>%s</strong> (%s) has started working on:</p><blockquote><strong>%s</strong></blockquote><p><a href=%q>View Progress</a></p>",
		assigneeName, assigneeEmail, taskTitle, n.appURL,
	)

	return n.send(ctx, toEmail, subject, text, html)
}

// SendTaskCompleted implements Notifier.
func (n *SendGridNotifier) SendTaskCompleted(
	ctx context.Context,
	toEmail, assigneeName, assigneeEmail, taskTitle string,
	turnaroundMinutes int64,
) error {
	timeText := FormatTurnaround(turnaroundMinutes)

	subject := fmt.Sprintf("%s completed: %s", assigneeName, taskTitle)
	text := fmt.Sprintf(
		"Hi,\n\nGreat news! %s (%s) has completed the task:\n\n%q\n\nCompleted in: %s\n\nView details at: %s\n\n- Sticky Asks",
		assigneeName, assigneeEmail, taskTitle, timeText, n.appURL,
	)
	html := fmt.Sprintf(
		"<p><strong>%s</strong> (%s) has completed:</p><blockquote><strong>%s</strong><br>Completed in %s</blockquote><p><a href=%q>View Details</a></p>",
		assigneeName, assigneeEmail, taskTitle, timeText, n.appURL,
	)

	return n.send(ctx, toEmail, subject, text, html)
}

// FormatTurnaround renders a turnaround for humans: whole minutes below an
// hour, tenths of hours above.
func FormatTurnaround(minutes int64) string {
	if minutes < 60 {
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}

	hours := math.Round(float64(minutes)/60*10) / 10
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%g hours", hours)
}

package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/printdesk/printdesk/internal/invoices"
	"github.com/printdesk/printdesk/internal/notifications"
	"github.com/printdesk/printdesk/internal/quotes"
	"github.com/printdesk/printdesk/internal/tasks"
)

// Mailer delivers a single email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// UserEmails resolves delivery addresses for notification emails.
type UserEmails interface {
	EmailForUser(ctx context.Context, userID int64) (string, error)
}

// Notifier stores a notification for a user; satisfied by the
// notifications service.
type Notifier interface {
	Notify(ctx context.Context, n notifications.Notification) (notifications.Notification, error)
}

// NewNotifyEmailHandler delivers the email copy of a notification.
// Malformed payloads are dropped rather than retried.
func NewNotifyEmailHandler(mailer Mailer, users UserEmails, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload notifications.EmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		to, err := users.EmailForUser(ctx, payload.UserID)
		if err != nil {
			logger.Warn("notify email: resolve address",
				slog.Int64("user_id", payload.UserID), slog.Any("error", err))
			return asynq.SkipRetry
		}
		if err := mailer.Send(ctx, to, payload.Subject, payload.Body); err != nil {
			return fmt.Errorf("send notification email: %w", err)
		}
		logger.Info("notification email sent",
			slog.Int64("notification_id", payload.NotificationID), slog.String("to", to))
		return nil
	}
}

// InvoiceScanner collects newly-overdue invoices; satisfied by the
// invoices service.
type InvoiceScanner interface {
	OverdueScan(ctx context.Context) ([]invoices.Invoice, error)
}

// NewInvoiceOverdueScanHandler sweeps for newly-overdue invoices and
// notifies each invoice owner once.
func NewInvoiceOverdueScanHandler(scanner InvoiceScanner, notifier Notifier, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		overdue, err := scanner.OverdueScan(ctx)
		if err != nil {
			return fmt.Errorf("overdue scan: %w", err)
		}
		for _, inv := range overdue {
			if inv.OwnerID == 0 {
				continue
			}
			_, err := notifier.Notify(ctx, notifications.Notification{
				UserID: inv.OwnerID,
				Kind:   notifications.KindInvoiceOverdue,
				Title:  fmt.Sprintf("Invoice %s is overdue", inv.Number),
				Body: fmt.Sprintf("Invoice %s for %s has passed its due date.",
					inv.Number, notifications.FormatAmountCents(inv.TotalCents)),
				RelatedKind: "invoice",
				RelatedID:   inv.ID,
			})
			if err != nil {
				logger.Warn("overdue scan: notify owner",
					slog.Int64("invoice_id", inv.ID), slog.Any("error", err))
			}
		}
		logger.Info("invoice overdue scan complete", slog.Int("overdue", len(overdue)))
		return nil
	}
}

// TaskReminderSource collects due tasks; satisfied by the tasks service.
type TaskReminderSource interface {
	DueForReminder(ctx context.Context) ([]tasks.Task, error)
}

// NewTaskRemindersHandler notifies assignees of tasks due within the
// reminder window.
func NewTaskRemindersHandler(source TaskReminderSource, notifier Notifier, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		due, err := source.DueForReminder(ctx)
		if err != nil {
			return fmt.Errorf("task reminders: %w", err)
		}
		for _, task := range due {
			if task.AssigneeID == nil {
				continue
			}
			body := fmt.Sprintf("Task %q is due soon.", task.Title)
			if task.DueAt != nil {
				body = fmt.Sprintf("Task %q is due %s.", task.Title, task.DueAt.Format("Mon 2 Jan 15:04"))
			}
			_, err := notifier.Notify(ctx, notifications.Notification{
				UserID:      *task.AssigneeID,
				Kind:        notifications.KindTaskDue,
				Title:       fmt.Sprintf("Task due: %s", task.Title),
				Body:        body,
				RelatedKind: "task",
				RelatedID:   task.ID,
			})
			if err != nil {
				logger.Warn("task reminders: notify assignee",
					slog.Int64("task_id", task.ID), slog.Any("error", err))
			}
		}
		logger.Info("task reminder sweep complete", slog.Int("due", len(due)))
		return nil
	}
}

// QuoteExpirer expires stale quotes; satisfied by the quotes service.
type QuoteExpirer interface {
	ExpireStale(ctx context.Context) ([]quotes.Quote, error)
}

// NewQuoteExpireHandler marks sent quotes past validity as expired and
// notifies their owners.
func NewQuoteExpireHandler(expirer QuoteExpirer, notifier Notifier, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		expired, err := expirer.ExpireStale(ctx)
		if err != nil {
			return fmt.Errorf("quote expiry: %w", err)
		}
		for _, q := range expired {
			if q.OwnerID == 0 {
				continue
			}
			_, err := notifier.Notify(ctx, notifications.Notification{
				UserID:      q.OwnerID,
				Kind:        notifications.KindQuoteExpired,
				Title:       fmt.Sprintf("Quote expired: %s", q.Title),
				Body:        fmt.Sprintf("Quote #%d (%s) passed its validity window without a response.", q.ID, notifications.FormatAmountCents(q.TotalCents)),
				RelatedKind: "quote",
				RelatedID:   q.ID,
			})
			if err != nil {
				logger.Warn("quote expiry: notify owner",
					slog.Int64("quote_id", q.ID), slog.Any("error", err))
			}
		}
		logger.Info("quote expiry sweep complete", slog.Int("expired", len(expired)))
		return nil
	}
}

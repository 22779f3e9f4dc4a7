package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/printdesk/printdesk/internal/notifications"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskTypeNotifyEmail delivers the email copy of a notification.
	TaskTypeNotifyEmail = "notify:email"
	// TaskTypeInvoiceOverdueScan is the nightly overdue invoice sweep.
	TaskTypeInvoiceOverdueScan = "invoice:overdue_scan"
	// TaskTypeTaskReminders is the hourly due-task reminder sweep.
	TaskTypeTaskReminders = "task:reminders"
	// TaskTypeQuoteExpire is the nightly stale quote expiry sweep.
	TaskTypeQuoteExpire = "quote:expire"
)

// NewNotifyEmailTask constructs the email delivery task for a notification.
func NewNotifyEmailTask(payload notifications.EmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyEmail, data), nil
}

// NewInvoiceOverdueScanTask constructs the nightly overdue sweep task.
func NewInvoiceOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeInvoiceOverdueScan, nil)
}

// NewTaskRemindersTask constructs the hourly reminder sweep task.
func NewTaskRemindersTask() *asynq.Task {
	return asynq.NewTask(TaskTypeTaskReminders, nil)
}

// NewQuoteExpireTask constructs the nightly quote expiry task.
func NewQuoteExpireTask() *asynq.Task {
	return asynq.NewTask(TaskTypeQuoteExpire, nil)
}

// Enqueuer implements notifications.EmailEnqueuer on top of the job client.
type Enqueuer struct {
	client *Client
}

// NewEnqueuer wraps a job client for use by the notifications service.
func NewEnqueuer(client *Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueEmail queues the email copy of a notification.
func (e *Enqueuer) EnqueueEmail(ctx context.Context, p notifications.EmailPayload) error {
	_, err := e.client.EnqueueNotifyEmail(ctx, p)
	return err
}

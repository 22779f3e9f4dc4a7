package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/invoices"
	"github.com/printdesk/printdesk/internal/notifications"
	"github.com/printdesk/printdesk/internal/tasks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubNotifier struct {
	notified []notifications.Notification
	err      error
}

func (s *stubNotifier) Notify(_ context.Context, n notifications.Notification) (notifications.Notification, error) {
	if s.err != nil {
		return notifications.Notification{}, s.err
	}
	s.notified = append(s.notified, n)
	return n, nil
}

type stubMailer struct {
	sent []string
	err  error
}

func (s *stubMailer) Send(_ context.Context, to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to+"|"+subject)
	return nil
}

type stubUserEmails struct {
	emails map[int64]string
}

func (s *stubUserEmails) EmailForUser(_ context.Context, id int64) (string, error) {
	email, ok := s.emails[id]
	if !ok {
		return "", errors.New("no such user")
	}
	return email, nil
}

func TestNotifyEmailHandlerSends(t *testing.T) {
	mailer := &stubMailer{}
	users := &stubUserEmails{emails: map[int64]string{7: "ops@printdesk.example"}}
	handler := NewNotifyEmailHandler(mailer, users, testLogger())

	task, err := NewNotifyEmailTask(notifications.EmailPayload{
		NotificationID: 1, UserID: 7, Subject: "Invoice INV-2026-0001 is overdue", Body: "pay up",
	})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ops@printdesk.example|Invoice INV-2026-0001 is overdue", mailer.sent[0])
}

func TestNotifyEmailHandlerSkipsBadPayload(t *testing.T) {
	handler := NewNotifyEmailHandler(&stubMailer{}, &stubUserEmails{}, testLogger())

	err := handler(context.Background(), asynq.NewTask(TaskTypeNotifyEmail, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestNotifyEmailHandlerSkipsUnknownUser(t *testing.T) {
	mailer := &stubMailer{}
	handler := NewNotifyEmailHandler(mailer, &stubUserEmails{emails: map[int64]string{}}, testLogger())

	task, err := NewNotifyEmailTask(notifications.EmailPayload{UserID: 404, Subject: "x"})
	require.NoError(t, err)

	err = handler(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, mailer.sent)
}

func TestNotifyEmailHandlerRetriesOnSendFailure(t *testing.T) {
	mailer := &stubMailer{err: errors.New("connection refused")}
	users := &stubUserEmails{emails: map[int64]string{7: "ops@printdesk.example"}}
	handler := NewNotifyEmailHandler(mailer, users, testLogger())

	task, err := NewNotifyEmailTask(notifications.EmailPayload{UserID: 7, Subject: "x"})
	require.NoError(t, err)

	err = handler(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

type stubScanner struct {
	overdue []invoices.Invoice
}

func (s *stubScanner) OverdueScan(context.Context) ([]invoices.Invoice, error) {
	return s.overdue, nil
}

func TestInvoiceOverdueScanNotifiesOwners(t *testing.T) {
	scanner := &stubScanner{overdue: []invoices.Invoice{
		{ID: 1, Number: "INV-2026-0001", OwnerID: 7, TotalCents: 125000},
		{ID: 2, Number: "INV-2026-0002", OwnerID: 0}, // ownerless rows are skipped
	}}
	notifier := &stubNotifier{}
	handler := NewInvoiceOverdueScanHandler(scanner, notifier, testLogger())

	require.NoError(t, handler(context.Background(), NewInvoiceOverdueScanTask()))
	require.Len(t, notifier.notified, 1)
	n := notifier.notified[0]
	assert.Equal(t, int64(7), n.UserID)
	assert.Equal(t, notifications.KindInvoiceOverdue, n.Kind)
	assert.Contains(t, n.Title, "INV-2026-0001")
	assert.Contains(t, n.Body, "1,250")
	assert.Equal(t, "invoice", n.RelatedKind)
}

type stubReminders struct {
	due []tasks.Task
}

func (s *stubReminders) DueForReminder(context.Context) ([]tasks.Task, error) {
	return s.due, nil
}

func TestTaskRemindersNotifyAssignees(t *testing.T) {
	assignee := int64(3)
	due := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	source := &stubReminders{due: []tasks.Task{
		{ID: 11, Title: "Chase plate approval", AssigneeID: &assignee, DueAt: &due},
	}}
	notifier := &stubNotifier{}
	handler := NewTaskRemindersHandler(source, notifier, testLogger())

	require.NoError(t, handler(context.Background(), NewTaskRemindersTask()))
	require.Len(t, notifier.notified, 1)
	n := notifier.notified[0]
	assert.Equal(t, int64(3), n.UserID)
	assert.Equal(t, notifications.KindTaskDue, n.Kind)
	assert.Contains(t, n.Title, "Chase plate approval")
	assert.Equal(t, "task", n.RelatedKind)
	assert.Equal(t, int64(11), n.RelatedID)
}

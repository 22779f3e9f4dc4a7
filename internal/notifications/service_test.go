package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/shared"
)

type stubRepo struct {
	rows   map[int64]Notification
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{rows: map[int64]Notification{}, nextID: 1}
}

func (s *stubRepo) Create(_ context.Context, n Notification) (Notification, error) {
	n.ID = s.nextID
	s.rows[n.ID] = n
	s.nextID++
	return n, nil
}

func (s *stubRepo) ListForUser(_ context.Context, userID int64, unreadOnly bool, _ shared.Pagination) ([]Notification, error) {
	var out []Notification
	for _, n := range s.rows {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *stubRepo) MarkRead(_ context.Context, userID, id int64) error {
	n, ok := s.rows[id]
	if !ok || n.UserID != userID {
		return shared.ErrNotFound
	}
	n.IsRead = true
	s.rows[id] = n
	return nil
}

func (s *stubRepo) MarkAllRead(_ context.Context, userID int64) error {
	for id, n := range s.rows {
		if n.UserID == userID {
			n.IsRead = true
			s.rows[id] = n
		}
	}
	return nil
}

func (s *stubRepo) UnreadCount(_ context.Context, userID int64) (int64, error) {
	var count int64
	for _, n := range s.rows {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

type stubEnqueuer struct {
	payloads []EmailPayload
	err      error
}

func (s *stubEnqueuer) EnqueueEmail(_ context.Context, p EmailPayload) error {
	if s.err != nil {
		return s.err
	}
	s.payloads = append(s.payloads, p)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyQueuesEmail(t *testing.T) {
	repo := newStubRepo()
	enq := &stubEnqueuer{}
	svc := NewService(repo, enq, testLogger())

	n, err := svc.Notify(context.Background(), Notification{
		UserID: 7, Kind: KindInvoiceOverdue, Title: "Invoice INV-2026-0001 is overdue",
	})
	require.NoError(t, err)
	require.Len(t, enq.payloads, 1)
	assert.Equal(t, n.ID, enq.payloads[0].NotificationID)
	assert.Equal(t, int64(7), enq.payloads[0].UserID)
	assert.Equal(t, "Invoice INV-2026-0001 is overdue", enq.payloads[0].Subject)
}

func TestNotifySurvivesEnqueueFailure(t *testing.T) {
	repo := newStubRepo()
	enq := &stubEnqueuer{err: errors.New("redis down")}
	svc := NewService(repo, enq, testLogger())

	n, err := svc.Notify(context.Background(), Notification{UserID: 7, Kind: KindTaskDue, Title: "Task due"})
	require.NoError(t, err)
	assert.NotZero(t, n.ID)

	items, err := svc.ListForUser(context.Background(), 7, true, shared.Pagination{Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestNotifyWithoutEnqueuer(t *testing.T) {
	svc := NewService(newStubRepo(), nil, testLogger())

	_, err := svc.Notify(context.Background(), Notification{UserID: 1, Title: "hello"})
	require.NoError(t, err)
}

func TestNotifyValidation(t *testing.T) {
	svc := NewService(newStubRepo(), nil, testLogger())

	_, err := svc.Notify(context.Background(), Notification{Title: "no user"})
	require.Error(t, err)

	_, err = svc.Notify(context.Background(), Notification{UserID: 1, Title: "  "})
	require.Error(t, err)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, testLogger())

	n, err := svc.Notify(context.Background(), Notification{UserID: 1, Title: "mine"})
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), 2, n.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, svc.MarkRead(context.Background(), 1, n.ID))
	count, err := svc.UnreadCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFormatAmountCents(t *testing.T) {
	out := FormatAmountCents(1234500)
	assert.Contains(t, out, "12,345")
}

package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/printdesk/printdesk/internal/shared"
)

// RepositoryPort defines data access methods for notifications.
type RepositoryPort interface {
	Create(ctx context.Context, n Notification) (Notification, error)
	ListForUser(ctx context.Context, userID int64, unreadOnly bool, p shared.Pagination) ([]Notification, error)
	MarkRead(ctx context.Context, userID, id int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	UnreadCount(ctx context.Context, userID int64) (int64, error)
}

// EmailEnqueuer queues a notification email for asynchronous delivery.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, p EmailPayload) error
}

// Service creates and exposes user notifications. Enqueuer is optional;
// when set, each notification also queues an email task.
type Service struct {
	repo     RepositoryPort
	enqueuer EmailEnqueuer
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, enqueuer EmailEnqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, enqueuer: enqueuer, logger: logger}
}

// Notify stores a notification for a user and queues its email.
// Email enqueue failures are logged, never propagated: the inbox row is
// the source of truth.
func (s *Service) Notify(ctx context.Context, n Notification) (Notification, error) {
	if n.UserID == 0 {
		return Notification{}, errors.New("notifications: user required")
	}
	if strings.TrimSpace(n.Title) == "" {
		return Notification{}, errors.New("notifications: title required")
	}
	created, err := s.repo.Create(ctx, n)
	if err != nil {
		return Notification{}, err
	}
	if s.enqueuer != nil {
		payload := EmailPayload{
			NotificationID: created.ID,
			UserID:         created.UserID,
			Subject:        created.Title,
			Body:           created.Body,
		}
		if err := s.enqueuer.EnqueueEmail(ctx, payload); err != nil {
			s.logger.Warn("enqueue notification email",
				slog.Int64("notification_id", created.ID), slog.Any("error", err))
		}
	}
	return created, nil
}

// ListForUser returns a page of the user's notifications.
func (s *Service) ListForUser(ctx context.Context, userID int64, unreadOnly bool, p shared.Pagination) ([]Notification, error) {
	items, err := s.repo.ListForUser(ctx, userID, unreadOnly, p)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Notification{}
	}
	return items, nil
}

// MarkRead flags one of the user's notifications read.
func (s *Service) MarkRead(ctx context.Context, userID, id int64) error {
	return s.repo.MarkRead(ctx, userID, id)
}

// MarkAllRead flags all of the user's notifications read.
func (s *Service) MarkAllRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllRead(ctx, userID)
}

// UnreadCount returns the user's unread count.
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

package tasks

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/printdesk/printdesk/internal/shared"
)

// ReminderWindow is how far ahead the reminder cron looks for due tasks.
const ReminderWindow = 24 * time.Hour

// RepositoryPort defines data access methods for tasks.
type RepositoryPort interface {
	Create(ctx context.Context, in Input) (Task, error)
	Get(ctx context.Context, id int64) (Task, error)
	List(ctx context.Context, f ListFilter, p shared.Pagination) ([]Task, error)
	Update(ctx context.Context, id int64, in Input) (Task, error)
	SetDone(ctx context.Context, id int64, done bool, now time.Time) (Task, error)
	Delete(ctx context.Context, id int64) error
	DueForReminder(ctx context.Context, now time.Time, window time.Duration) ([]Task, error)
}

// Service handles task business logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

func normalize(in Input) (Input, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, errors.New("tasks: title required")
	}
	return in, nil
}

// Create validates and stores a task.
func (s *Service) Create(ctx context.Context, in Input) (Task, error) {
	in, err := normalize(in)
	if err != nil {
		return Task{}, err
	}
	return s.repo.Create(ctx, in)
}

// Get returns one task.
func (s *Service) Get(ctx context.Context, id int64) (Task, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of tasks.
func (s *Service) List(ctx context.Context, f ListFilter, p shared.Pagination) ([]Task, error) {
	return s.repo.List(ctx, f, p)
}

// Update validates and rewrites a task.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Task, error) {
	in, err := normalize(in)
	if err != nil {
		return Task{}, err
	}
	return s.repo.Update(ctx, id, in)
}

// SetDone toggles completion.
func (s *Service) SetDone(ctx context.Context, id int64, done bool) (Task, error) {
	return s.repo.SetDone(ctx, id, done, s.now())
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// DueForReminder collects open assigned tasks due within the reminder
// window; each task is returned at most once.
func (s *Service) DueForReminder(ctx context.Context) ([]Task, error) {
	return s.repo.DueForReminder(ctx, s.now(), ReminderWindow)
}

package workorders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/printdesk/printdesk/internal/shared"
)

// RepositoryPort defines data access methods for work orders.
type RepositoryPort interface {
	Create(ctx context.Context, in Input, now time.Time) (WorkOrder, error)
	Get(ctx context.Context, id int64) (WorkOrder, error)
	List(ctx context.Context, f ListFilter, p shared.Pagination) ([]WorkOrder, error)
	Update(ctx context.Context, id int64, in Input) (WorkOrder, error)
	SetStatus(ctx context.Context, id int64, status string, now time.Time) (WorkOrder, error)
}

// Service handles work order business logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

func validateInput(in Input) error {
	if in.CompanyID == 0 {
		return errors.New("workorders: company required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("workorders: title required")
	}
	if in.Quantity <= 0 {
		return errors.New("workorders: quantity must be positive")
	}
	return nil
}

// Create validates and stores a pending work order.
func (s *Service) Create(ctx context.Context, in Input) (WorkOrder, error) {
	if err := validateInput(in); err != nil {
		return WorkOrder{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	return s.repo.Create(ctx, in, s.now())
}

// Get returns one work order.
func (s *Service) Get(ctx context.Context, id int64) (WorkOrder, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of work orders.
func (s *Service) List(ctx context.Context, f ListFilter, p shared.Pagination) ([]WorkOrder, error) {
	return s.repo.List(ctx, f, p)
}

// Update rewrites the editable fields; closed orders cannot be edited.
func (s *Service) Update(ctx context.Context, id int64, in Input) (WorkOrder, error) {
	wo, err := s.repo.Get(ctx, id)
	if err != nil {
		return WorkOrder{}, err
	}
	if wo.Status == StatusCompleted || wo.Status == StatusCancelled {
		return WorkOrder{}, fmt.Errorf("%w: %s order is closed", ErrInvalidTransition, wo.Status)
	}
	if err := validateInput(in); err != nil {
		return WorkOrder{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	return s.repo.Update(ctx, id, in)
}

func (s *Service) transition(ctx context.Context, id int64, to string) (WorkOrder, error) {
	wo, err := s.repo.Get(ctx, id)
	if err != nil {
		return WorkOrder{}, err
	}
	if !CanTransition(wo.Status, to) {
		return WorkOrder{}, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, wo.Status, to)
	}
	return s.repo.SetStatus(ctx, id, to, s.now())
}

// Start moves a pending order onto the floor.
func (s *Service) Start(ctx context.Context, id int64) (WorkOrder, error) {
	return s.transition(ctx, id, StatusInProgress)
}

// Complete closes an in-progress order as done.
func (s *Service) Complete(ctx context.Context, id int64) (WorkOrder, error) {
	return s.transition(ctx, id, StatusCompleted)
}

// Cancel closes a pending or in-progress order.
func (s *Service) Cancel(ctx context.Context, id int64) (WorkOrder, error) {
	return s.transition(ctx, id, StatusCancelled)
}

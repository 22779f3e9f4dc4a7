package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/printdesk/printdesk/internal/shared"
)

// RepositoryPort defines data access methods for invoices.
type RepositoryPort interface {
	Create(ctx context.Context, in Input, totalCents int64, now time.Time) (Invoice, error)
	Get(ctx context.Context, id int64) (Invoice, error)
	List(ctx context.Context, f ListFilter, p shared.Pagination) ([]Invoice, error)
	SetStatus(ctx context.Context, id int64, status string, now time.Time) (Invoice, error)
	DueForOverdueNotice(ctx context.Context, now time.Time) ([]Invoice, error)
}

// Service handles invoice business logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// TotalCents sums the line totals of a create request.
func TotalCents(lines []LineInput) int64 {
	var total int64
	for _, l := range lines {
		total += l.Quantity * l.UnitPriceCents
	}
	return total
}

func validateInput(in Input) error {
	if in.CompanyID == 0 {
		return errors.New("invoices: company required")
	}
	if len(in.Lines) == 0 {
		return errors.New("invoices: at least one line required")
	}
	for i, l := range in.Lines {
		if strings.TrimSpace(l.Description) == "" {
			return fmt.Errorf("invoices: line %d description required", i+1)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("invoices: line %d quantity must be positive", i+1)
		}
		if l.UnitPriceCents < 0 {
			return fmt.Errorf("invoices: line %d unit price must not be negative", i+1)
		}
	}
	return nil
}

// Create validates the input, computes totals server-side, allocates the
// next INV-{year} number, and stores the draft.
func (s *Service) Create(ctx context.Context, in Input) (Invoice, error) {
	if err := validateInput(in); err != nil {
		return Invoice{}, err
	}
	return s.repo.Create(ctx, in, TotalCents(in.Lines), s.now())
}

// Get returns an invoice with lines.
func (s *Service) Get(ctx context.Context, id int64) (Invoice, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of invoices.
func (s *Service) List(ctx context.Context, f ListFilter, p shared.Pagination) ([]Invoice, error) {
	return s.repo.List(ctx, f, p)
}

func (s *Service) transition(ctx context.Context, id int64, to string) (Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if !CanTransition(inv.Status, to) {
		return Invoice{}, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, inv.Status, to)
	}
	return s.repo.SetStatus(ctx, id, to, s.now())
}

// Send moves a draft invoice to sent, stamping issued_at.
func (s *Service) Send(ctx context.Context, id int64) (Invoice, error) {
	return s.transition(ctx, id, StatusSent)
}

// RecordPayment marks a sent invoice paid, stamping paid_at.
func (s *Service) RecordPayment(ctx context.Context, id int64) (Invoice, error) {
	return s.transition(ctx, id, StatusPaid)
}

// Void cancels a draft or sent invoice.
func (s *Service) Void(ctx context.Context, id int64) (Invoice, error) {
	return s.transition(ctx, id, StatusVoid)
}

// OverdueScan collects newly-overdue invoices (each returned at most once).
func (s *Service) OverdueScan(ctx context.Context) ([]Invoice, error) {
	return s.repo.DueForOverdueNotice(ctx, s.now())
}

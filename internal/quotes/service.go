package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/printdesk/printdesk/internal/invoices"
	"github.com/printdesk/printdesk/internal/shared"
	"github.com/printdesk/printdesk/internal/workorders"
)

// RepositoryPort defines data access methods for quotes.
type RepositoryPort interface {
	Create(ctx context.Context, in Input, totalCents int64) (Quote, error)
	Get(ctx context.Context, id int64) (Quote, error)
	List(ctx context.Context, f ListFilter, p shared.Pagination) ([]Quote, error)
	SetStatus(ctx context.Context, id int64, status string, now time.Time) (Quote, error)
	LinkInvoice(ctx context.Context, quoteID, invoiceID int64) error
	LinkWorkOrder(ctx context.Context, quoteID, workOrderID int64) error
	ExpireStale(ctx context.Context, now time.Time) ([]Quote, error)
}

// InvoicePort is satisfied by the invoices service.
type InvoicePort interface {
	Create(ctx context.Context, in invoices.Input) (invoices.Invoice, error)
	Get(ctx context.Context, id int64) (invoices.Invoice, error)
}

// WorkOrderPort is satisfied by the work orders service.
type WorkOrderPort interface {
	Create(ctx context.Context, in workorders.Input) (workorders.WorkOrder, error)
	Get(ctx context.Context, id int64) (workorders.WorkOrder, error)
}

// IdempotencyPort guards conversions against concurrent duplicates.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service handles quote business logic.
type Service struct {
	repo        RepositoryPort
	invoiceSvc  InvoicePort
	workOrders  WorkOrderPort
	idempotency IdempotencyPort
	now         func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, invoiceSvc InvoicePort, workOrders WorkOrderPort, idempotency IdempotencyPort) *Service {
	return &Service{repo: repo, invoiceSvc: invoiceSvc, workOrders: workOrders, idempotency: idempotency, now: time.Now}
}

func validateInput(in Input) error {
	if in.CompanyID == 0 {
		return errors.New("quotes: company required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("quotes: title required")
	}
	if len(in.Lines) == 0 {
		return errors.New("quotes: at least one line required")
	}
	for i, l := range in.Lines {
		if strings.TrimSpace(l.Description) == "" {
			return fmt.Errorf("quotes: line %d description required", i+1)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("quotes: line %d quantity must be positive", i+1)
		}
		if l.UnitPriceCents < 0 {
			return fmt.Errorf("quotes: line %d unit price must not be negative", i+1)
		}
	}
	return nil
}

// TotalCents sums the line totals of a create request.
func TotalCents(lines []LineInput) int64 {
	var total int64
	for _, l := range lines {
		total += l.Quantity * l.UnitPriceCents
	}
	return total
}

// Create validates the input, computes the total server-side, and stores
// the draft.
func (s *Service) Create(ctx context.Context, in Input) (Quote, error) {
	if err := validateInput(in); err != nil {
		return Quote{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	return s.repo.Create(ctx, in, TotalCents(in.Lines))
}

// Get returns a quote with lines.
func (s *Service) Get(ctx context.Context, id int64) (Quote, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of quotes.
func (s *Service) List(ctx context.Context, f ListFilter, p shared.Pagination) ([]Quote, error) {
	return s.repo.List(ctx, f, p)
}

func (s *Service) transition(ctx context.Context, id int64, to string) (Quote, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	if !CanTransition(q.Status, to) {
		return Quote{}, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, q.Status, to)
	}
	return s.repo.SetStatus(ctx, id, to, s.now())
}

// Send moves a draft quote to sent.
func (s *Service) Send(ctx context.Context, id int64) (Quote, error) {
	return s.transition(ctx, id, StatusSent)
}

// Accept marks a sent quote accepted.
func (s *Service) Accept(ctx context.Context, id int64) (Quote, error) {
	return s.transition(ctx, id, StatusAccepted)
}

// Decline marks a sent quote declined.
func (s *Service) Decline(ctx context.Context, id int64) (Quote, error) {
	return s.transition(ctx, id, StatusDeclined)
}

// ConvertToInvoice turns an accepted quote into a draft invoice carrying the
// quote's lines. Idempotent: a second call returns the already-linked
// invoice instead of creating another.
func (s *Service) ConvertToInvoice(ctx context.Context, quoteID int64, dueDate *time.Time) (invoices.Invoice, error) {
	q, err := s.repo.Get(ctx, quoteID)
	if err != nil {
		return invoices.Invoice{}, err
	}
	if q.Status != StatusAccepted {
		return invoices.Invoice{}, fmt.Errorf("%w: status is %s", ErrNotAccepted, q.Status)
	}
	if q.InvoiceID != nil {
		return s.invoiceSvc.Get(ctx, *q.InvoiceID)
	}

	key := fmt.Sprintf("quote:%d:invoice", quoteID)
	if err := s.idempotency.CheckAndInsert(ctx, key, "quotes"); err != nil {
		if !errors.Is(err, shared.ErrIdempotencyConflict) {
			return invoices.Invoice{}, err
		}
		// A concurrent convert won; re-read the link.
		q, err = s.repo.Get(ctx, quoteID)
		if err != nil {
			return invoices.Invoice{}, err
		}
		if q.InvoiceID == nil {
			// The winner has not linked yet (still in flight, or it
			// crashed before LinkInvoice). Surface the conflict rather
			// than report a conversion that never happened.
			return invoices.Invoice{}, fmt.Errorf("convert quote %d to invoice: %w", quoteID, shared.ErrIdempotencyConflict)
		}
		return s.invoiceSvc.Get(ctx, *q.InvoiceID)
	}

	in := invoices.Input{
		CompanyID: q.CompanyID,
		OwnerID:   q.OwnerID,
		DueDate:   dueDate,
		Notes:     fmt.Sprintf("From quote #%d: %s", q.ID, q.Title),
	}
	for _, l := range q.Lines {
		in.Lines = append(in.Lines, invoices.LineInput{
			Description:    l.Description,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
		})
	}
	inv, err := s.invoiceSvc.Create(ctx, in)
	if err != nil {
		_ = s.idempotency.Delete(ctx, key)
		return invoices.Invoice{}, err
	}
	if err := s.repo.LinkInvoice(ctx, quoteID, inv.ID); err != nil {
		return invoices.Invoice{}, err
	}
	return inv, nil
}

// ConvertToWorkOrder turns an accepted quote into a pending work order.
// Idempotent like ConvertToInvoice.
func (s *Service) ConvertToWorkOrder(ctx context.Context, quoteID int64, dueDate *time.Time, assigneeID *int64) (workorders.WorkOrder, error) {
	q, err := s.repo.Get(ctx, quoteID)
	if err != nil {
		return workorders.WorkOrder{}, err
	}
	if q.Status != StatusAccepted {
		return workorders.WorkOrder{}, fmt.Errorf("%w: status is %s", ErrNotAccepted, q.Status)
	}
	if q.WorkOrderID != nil {
		return s.workOrders.Get(ctx, *q.WorkOrderID)
	}

	key := fmt.Sprintf("quote:%d:workorder", quoteID)
	if err := s.idempotency.CheckAndInsert(ctx, key, "quotes"); err != nil {
		if !errors.Is(err, shared.ErrIdempotencyConflict) {
			return workorders.WorkOrder{}, err
		}
		q, err = s.repo.Get(ctx, quoteID)
		if err != nil {
			return workorders.WorkOrder{}, err
		}
		if q.WorkOrderID == nil {
			return workorders.WorkOrder{}, fmt.Errorf("convert quote %d to work order: %w", quoteID, shared.ErrIdempotencyConflict)
		}
		return s.workOrders.Get(ctx, *q.WorkOrderID)
	}

	var quantity int64
	for _, l := range q.Lines {
		quantity += l.Quantity
	}
	wo, err := s.workOrders.Create(ctx, workorders.Input{
		CompanyID:  q.CompanyID,
		Title:      q.Title,
		AssigneeID: assigneeID,
		DueDate:    dueDate,
		Quantity:   quantity,
		Notes:      fmt.Sprintf("From quote #%d", q.ID),
	})
	if err != nil {
		_ = s.idempotency.Delete(ctx, key)
		return workorders.WorkOrder{}, err
	}
	if err := s.repo.LinkWorkOrder(ctx, quoteID, wo.ID); err != nil {
		return workorders.WorkOrder{}, err
	}
	return wo, nil
}

// ExpireStale transitions sent quotes past validity to expired.
func (s *Service) ExpireStale(ctx context.Context) ([]Quote, error) {
	return s.repo.ExpireStale(ctx, s.now())
}

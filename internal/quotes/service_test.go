package quotes

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/invoices"
	"github.com/printdesk/printdesk/internal/shared"
	"github.com/printdesk/printdesk/internal/workorders"
)

type stubRepo struct {
	quotes map[int64]Quote
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{quotes: map[int64]Quote{}, nextID: 1}
}

func (s *stubRepo) Create(_ context.Context, in Input, totalCents int64) (Quote, error) {
	q := Quote{
		ID: s.nextID, CompanyID: in.CompanyID, OwnerID: in.OwnerID,
		Title: in.Title, Status: StatusDraft, TotalCents: totalCents,
		ValidUntil: in.ValidUntil, Notes: in.Notes,
	}
	for i, l := range in.Lines {
		q.Lines = append(q.Lines, Line{
			ID: int64(i + 1), QuoteID: q.ID,
			Description: l.Description, Quantity: l.Quantity,
			UnitPriceCents: l.UnitPriceCents, TotalCents: l.Quantity * l.UnitPriceCents,
		})
	}
	s.quotes[q.ID] = q
	s.nextID++
	return q, nil
}

func (s *stubRepo) Get(_ context.Context, id int64) (Quote, error) {
	q, ok := s.quotes[id]
	if !ok {
		return Quote{}, shared.ErrNotFound
	}
	return q, nil
}

func (s *stubRepo) List(_ context.Context, f ListFilter, _ shared.Pagination) ([]Quote, error) {
	var out []Quote
	for _, q := range s.quotes {
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *stubRepo) SetStatus(_ context.Context, id int64, status string, now time.Time) (Quote, error) {
	q, ok := s.quotes[id]
	if !ok {
		return Quote{}, shared.ErrNotFound
	}
	q.Status = status
	if status == StatusAccepted || status == StatusDeclined {
		q.RespondedAt = &now
	}
	s.quotes[id] = q
	return q, nil
}

func (s *stubRepo) LinkInvoice(_ context.Context, quoteID, invoiceID int64) error {
	q, ok := s.quotes[quoteID]
	if !ok || q.InvoiceID != nil {
		return shared.ErrNotFound
	}
	q.InvoiceID = &invoiceID
	s.quotes[quoteID] = q
	return nil
}

func (s *stubRepo) LinkWorkOrder(_ context.Context, quoteID, workOrderID int64) error {
	q, ok := s.quotes[quoteID]
	if !ok || q.WorkOrderID != nil {
		return shared.ErrNotFound
	}
	q.WorkOrderID = &workOrderID
	s.quotes[quoteID] = q
	return nil
}

func (s *stubRepo) ExpireStale(_ context.Context, now time.Time) ([]Quote, error) {
	var out []Quote
	for id, q := range s.quotes {
		if q.Status == StatusSent && q.ValidUntil != nil && q.ValidUntil.Before(now) {
			q.Status = StatusExpired
			s.quotes[id] = q
			out = append(out, q)
		}
	}
	return out, nil
}

type stubInvoices struct {
	created  []invoices.Input
	invoices map[int64]invoices.Invoice
	nextID   int64
}

func newStubInvoices() *stubInvoices {
	return &stubInvoices{invoices: map[int64]invoices.Invoice{}, nextID: 1}
}

func (s *stubInvoices) Create(_ context.Context, in invoices.Input) (invoices.Invoice, error) {
	s.created = append(s.created, in)
	inv := invoices.Invoice{ID: s.nextID, CompanyID: in.CompanyID, Status: invoices.StatusDraft, TotalCents: invoices.TotalCents(in.Lines)}
	s.invoices[inv.ID] = inv
	s.nextID++
	return inv, nil
}

func (s *stubInvoices) Get(_ context.Context, id int64) (invoices.Invoice, error) {
	inv, ok := s.invoices[id]
	if !ok {
		return invoices.Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

type stubWorkOrders struct {
	created []workorders.Input
	orders  map[int64]workorders.WorkOrder
	nextID  int64
}

func newStubWorkOrders() *stubWorkOrders {
	return &stubWorkOrders{orders: map[int64]workorders.WorkOrder{}, nextID: 1}
}

func (s *stubWorkOrders) Create(_ context.Context, in workorders.Input) (workorders.WorkOrder, error) {
	s.created = append(s.created, in)
	wo := workorders.WorkOrder{ID: s.nextID, CompanyID: in.CompanyID, Title: in.Title, Status: workorders.StatusPending, Quantity: in.Quantity}
	s.orders[wo.ID] = wo
	s.nextID++
	return wo, nil
}

func (s *stubWorkOrders) Get(_ context.Context, id int64) (workorders.WorkOrder, error) {
	wo, ok := s.orders[id]
	if !ok {
		return workorders.WorkOrder{}, shared.ErrNotFound
	}
	return wo, nil
}

type memIdempotency struct {
	keys map[string]bool
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{keys: map[string]bool{}}
}

func (m *memIdempotency) CheckAndInsert(_ context.Context, key, module string) error {
	full := module + ":" + key
	if m.keys[full] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[full] = true
	return nil
}

func (m *memIdempotency) Delete(_ context.Context, key string) error {
	for full := range m.keys {
		if full == "quotes:"+key {
			delete(m.keys, full)
		}
	}
	return nil
}

type fixture struct {
	repo       *stubRepo
	invoices   *stubInvoices
	workOrders *stubWorkOrders
	svc        *Service
}

func newFixture() *fixture {
	repo := newStubRepo()
	inv := newStubInvoices()
	wo := newStubWorkOrders()
	return &fixture{
		repo:       repo,
		invoices:   inv,
		workOrders: wo,
		svc:        NewService(repo, inv, wo, newMemIdempotency()),
	}
}

func quoteInput() Input {
	return Input{
		CompanyID: 1,
		Title:     "Spring catalogue run",
		Lines: []LineInput{
			{Description: "catalogues", Quantity: 1000, UnitPriceCents: 150},
			{Description: "delivery", Quantity: 1, UnitPriceCents: 5000},
		},
	}
}

func (f *fixture) acceptedQuote(t *testing.T) Quote {
	t.Helper()
	q, err := f.svc.Create(context.Background(), quoteInput())
	require.NoError(t, err)
	_, err = f.svc.Send(context.Background(), q.ID)
	require.NoError(t, err)
	q, err = f.svc.Accept(context.Background(), q.ID)
	require.NoError(t, err)
	return q
}

func TestCreateComputesTotal(t *testing.T) {
	f := newFixture()

	q, err := f.svc.Create(context.Background(), quoteInput())
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, q.Status)
	assert.Equal(t, int64(1000*150+5000), q.TotalCents)
}

func TestStatusMachine(t *testing.T) {
	f := newFixture()

	q, err := f.svc.Create(context.Background(), quoteInput())
	require.NoError(t, err)

	// draft cannot be accepted directly
	_, err = f.svc.Accept(context.Background(), q.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	q, err = f.svc.Send(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, q.Status)

	q, err = f.svc.Decline(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDeclined, q.Status)
	require.NotNil(t, q.RespondedAt)

	// declined is terminal
	_, err = f.svc.Accept(context.Background(), q.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConvertRequiresAccepted(t *testing.T) {
	f := newFixture()

	q, err := f.svc.Create(context.Background(), quoteInput())
	require.NoError(t, err)

	_, err = f.svc.ConvertToInvoice(context.Background(), q.ID, nil)
	require.ErrorIs(t, err, ErrNotAccepted)

	_, err = f.svc.ConvertToWorkOrder(context.Background(), q.ID, nil, nil)
	require.ErrorIs(t, err, ErrNotAccepted)
}

func TestConvertToInvoiceCopiesLines(t *testing.T) {
	f := newFixture()
	q := f.acceptedQuote(t)

	inv, err := f.svc.ConvertToInvoice(context.Background(), q.ID, nil)
	require.NoError(t, err)
	require.Len(t, f.invoices.created, 1)
	assert.Equal(t, q.CompanyID, inv.CompanyID)
	assert.Equal(t, q.TotalCents, inv.TotalCents)
	require.Len(t, f.invoices.created[0].Lines, 2)
	assert.Equal(t, "catalogues", f.invoices.created[0].Lines[0].Description)
}

func TestConvertToInvoiceIdempotent(t *testing.T) {
	f := newFixture()
	q := f.acceptedQuote(t)

	first, err := f.svc.ConvertToInvoice(context.Background(), q.ID, nil)
	require.NoError(t, err)

	second, err := f.svc.ConvertToInvoice(context.Background(), q.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.invoices.created, 1, "second convert must not create another invoice")
}

func TestConvertConflictWithoutLinkErrors(t *testing.T) {
	// The idempotency key is already claimed but the quote carries no link
	// yet: the winning convert is still in flight, or crashed before
	// linking. The loser must surface the conflict, not report success
	// with a zero-value document.
	f := newFixture()
	q := f.acceptedQuote(t)

	idem := newMemIdempotency()
	idem.keys[fmt.Sprintf("quotes:quote:%d:invoice", q.ID)] = true
	idem.keys[fmt.Sprintf("quotes:quote:%d:workorder", q.ID)] = true
	svc := NewService(f.repo, f.invoices, f.workOrders, idem)

	_, err := svc.ConvertToInvoice(context.Background(), q.ID, nil)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	assert.Empty(t, f.invoices.created)

	_, err = svc.ConvertToWorkOrder(context.Background(), q.ID, nil, nil)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	assert.Empty(t, f.workOrders.created)
}

func TestConvertToWorkOrderIdempotent(t *testing.T) {
	f := newFixture()
	q := f.acceptedQuote(t)

	first, err := f.svc.ConvertToWorkOrder(context.Background(), q.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Spring catalogue run", first.Title)
	assert.Equal(t, int64(1001), first.Quantity)

	second, err := f.svc.ConvertToWorkOrder(context.Background(), q.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.workOrders.created, 1)
}

func TestConvertBothDirectionsIndependent(t *testing.T) {
	f := newFixture()
	q := f.acceptedQuote(t)

	inv, err := f.svc.ConvertToInvoice(context.Background(), q.ID, nil)
	require.NoError(t, err)
	wo, err := f.svc.ConvertToWorkOrder(context.Background(), q.ID, nil, nil)
	require.NoError(t, err)

	stored, err := f.svc.Get(context.Background(), q.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.InvoiceID)
	require.NotNil(t, stored.WorkOrderID)
	assert.Equal(t, inv.ID, *stored.InvoiceID)
	assert.Equal(t, wo.ID, *stored.WorkOrderID)
}

func TestExpireStale(t *testing.T) {
	f := newFixture()

	past := time.Now().Add(-time.Hour)
	in := quoteInput()
	in.ValidUntil = &past
	q, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	_, err = f.svc.Send(context.Background(), q.ID)
	require.NoError(t, err)

	expired, err := f.svc.ExpireStale(context.Background())
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, StatusExpired, expired[0].Status)

	// second run finds nothing
	expired, err = f.svc.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Empty(t, expired)
}

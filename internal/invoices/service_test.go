package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/shared"
)

type stubRepo struct {
	invoices map[int64]Invoice
	nextID   int64
	seq      int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{invoices: map[int64]Invoice{}, nextID: 1}
}

func (s *stubRepo) Create(_ context.Context, in Input, totalCents int64, now time.Time) (Invoice, error) {
	s.seq++
	inv := Invoice{
		ID:         s.nextID,
		Number:     FormatNumber(now.Year(), s.seq),
		CompanyID:  in.CompanyID,
		OwnerID:    in.OwnerID,
		Status:     StatusDraft,
		TotalCents: totalCents,
		DueDate:    in.DueDate,
		Notes:      in.Notes,
	}
	for i, l := range in.Lines {
		inv.Lines = append(inv.Lines, Line{
			ID: int64(i + 1), InvoiceID: inv.ID,
			Description: l.Description, Quantity: l.Quantity,
			UnitPriceCents: l.UnitPriceCents, TotalCents: l.Quantity * l.UnitPriceCents,
		})
	}
	s.invoices[inv.ID] = inv
	s.nextID++
	return inv, nil
}

func (s *stubRepo) Get(_ context.Context, id int64) (Invoice, error) {
	inv, ok := s.invoices[id]
	if !ok {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

func (s *stubRepo) List(_ context.Context, f ListFilter, p shared.Pagination) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range s.invoices {
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (s *stubRepo) SetStatus(_ context.Context, id int64, status string, now time.Time) (Invoice, error) {
	inv, ok := s.invoices[id]
	if !ok {
		return Invoice{}, shared.ErrNotFound
	}
	inv.Status = status
	switch status {
	case StatusSent:
		inv.IssuedAt = &now
	case StatusPaid:
		inv.PaidAt = &now
	}
	s.invoices[id] = inv
	return inv, nil
}

func (s *stubRepo) DueForOverdueNotice(_ context.Context, now time.Time) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range s.invoices {
		if inv.IsOverdue(now) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func draftInput() Input {
	return Input{
		CompanyID: 1,
		Lines: []LineInput{
			{Description: "500 business cards", Quantity: 500, UnitPriceCents: 20},
			{Description: "setup fee", Quantity: 1, UnitPriceCents: 2500},
		},
	}
}

func TestCreateComputesTotals(t *testing.T) {
	svc := NewService(newStubRepo())

	inv, err := svc.Create(context.Background(), draftInput())
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, inv.Status)
	assert.Equal(t, int64(500*20+2500), inv.TotalCents)
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, int64(10000), inv.Lines[0].TotalCents)
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	svc := NewService(newStubRepo())
	year := time.Now().Year()

	first, err := svc.Create(context.Background(), draftInput())
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), draftInput())
	require.NoError(t, err)

	assert.Equal(t, FormatNumber(year, 1), first.Number)
	assert.Equal(t, FormatNumber(year, 2), second.Number)
}

func TestCreateRejectsEmptyLines(t *testing.T) {
	svc := NewService(newStubRepo())

	_, err := svc.Create(context.Background(), Input{CompanyID: 1})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), Input{
		CompanyID: 1,
		Lines:     []LineInput{{Description: "flyers", Quantity: 0, UnitPriceCents: 10}},
	})
	require.Error(t, err)
}

func TestStatusMachine(t *testing.T) {
	svc := NewService(newStubRepo())

	inv, err := svc.Create(context.Background(), draftInput())
	require.NoError(t, err)

	// draft → paid is forbidden
	_, err = svc.RecordPayment(context.Background(), inv.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	inv, err = svc.Send(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, inv.Status)
	require.NotNil(t, inv.IssuedAt)

	// sending twice is forbidden
	_, err = svc.Send(context.Background(), inv.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	inv, err = svc.RecordPayment(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, inv.Status)
	require.NotNil(t, inv.PaidAt)

	// paid is terminal
	_, err = svc.Void(context.Background(), inv.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestVoidFromDraftAndSent(t *testing.T) {
	svc := NewService(newStubRepo())

	draft, err := svc.Create(context.Background(), draftInput())
	require.NoError(t, err)
	voided, err := svc.Void(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusVoid, voided.Status)

	other, err := svc.Create(context.Background(), draftInput())
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), other.ID)
	require.NoError(t, err)
	voided, err = svc.Void(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusVoid, voided.Status)
}

func TestEffectiveStatusOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	sentPast := Invoice{Status: StatusSent, DueDate: &past}
	assert.True(t, sentPast.IsOverdue(now))
	assert.Equal(t, "overdue", sentPast.EffectiveStatus(now))

	sentFuture := Invoice{Status: StatusSent, DueDate: &future}
	assert.False(t, sentFuture.IsOverdue(now))
	assert.Equal(t, StatusSent, sentFuture.EffectiveStatus(now))

	paidPast := Invoice{Status: StatusPaid, DueDate: &past}
	assert.False(t, paidPast.IsOverdue(now))

	draftNoDue := Invoice{Status: StatusDraft}
	assert.False(t, draftNoDue.IsOverdue(now))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "INV-2026-0001", FormatNumber(2026, 1))
	assert.Equal(t, "INV-2026-0042", FormatNumber(2026, 42))
	assert.Equal(t, "INV-2026-10001", FormatNumber(2026, 10001))
}

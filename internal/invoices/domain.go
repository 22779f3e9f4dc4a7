package invoices

import (
	"errors"
	"fmt"
	"time"
)

// Invoice statuses. Overdue is derived, never stored as the base status.
const (
	StatusDraft = "draft"
	StatusSent  = "sent"
	StatusPaid  = "paid"
	StatusVoid  = "void"
)

// ErrInvalidTransition is returned for status changes the machine forbids.
var ErrInvalidTransition = errors.New("invoices: invalid status transition")

// Line is one billed row on an invoice.
type Line struct {
	ID             int64  `json:"id"`
	InvoiceID      int64  `json:"invoice_id"`
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	TotalCents     int64  `json:"total_cents"`
}

// Invoice is a bill issued to a company.
type Invoice struct {
	ID         int64      `json:"id"`
	Number     string     `json:"number"`
	CompanyID  int64      `json:"company_id"`
	OwnerID    int64      `json:"owner_id"`
	Status     string     `json:"status"`
	TotalCents int64      `json:"total_cents"`
	IssuedAt   *time.Time `json:"issued_at,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	Notes      string     `json:"notes"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Lines      []Line     `json:"lines,omitempty"`
}

// IsOverdue reports whether a sent invoice is past its due date.
func (i Invoice) IsOverdue(now time.Time) bool {
	return i.Status == StatusSent && i.DueDate != nil && i.DueDate.Before(now)
}

// EffectiveStatus returns the stored status, or "overdue" for a sent
// invoice past its due date.
func (i Invoice) EffectiveStatus(now time.Time) string {
	if i.IsOverdue(now) {
		return "overdue"
	}
	return i.Status
}

// CanTransition reports whether moving from one stored status to another
// is allowed: draft → sent → paid|void. Void is also reachable from draft.
func CanTransition(from, to string) bool {
	switch from {
	case StatusDraft:
		return to == StatusSent || to == StatusVoid
	case StatusSent:
		return to == StatusPaid || to == StatusVoid
	default:
		return false
	}
}

// LineInput carries one line of a create request.
type LineInput struct {
	Description    string
	Quantity       int64
	UnitPriceCents int64
}

// Input carries create fields for an invoice.
type Input struct {
	CompanyID int64
	OwnerID   int64
	DueDate   *time.Time
	Notes     string
	Lines     []LineInput
}

// FormatNumber renders the canonical invoice number for a year and sequence.
func FormatNumber(year int, seq int64) string {
	return fmt.Sprintf("INV-%d-%04d", year, seq)
}

package quotes

import (
	"errors"
	"time"
)

// Quote statuses.
const (
	StatusDraft    = "draft"
	StatusSent     = "sent"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
	StatusExpired  = "expired"
)

var (
	// ErrInvalidTransition is returned for status changes the machine forbids.
	ErrInvalidTransition = errors.New("quotes: invalid status transition")
	// ErrNotAccepted is returned when converting a quote that is not accepted.
	ErrNotAccepted = errors.New("quotes: only accepted quotes can be converted")
)

// Line is one priced row on a quote.
type Line struct {
	ID             int64  `json:"id"`
	QuoteID        int64  `json:"quote_id"`
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	TotalCents     int64  `json:"total_cents"`
}

// Quote is a priced offer to a company. InvoiceID and WorkOrderID record
// what an accepted quote was converted into.
type Quote struct {
	ID          int64      `json:"id"`
	CompanyID   int64      `json:"company_id"`
	OwnerID     int64      `json:"owner_id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	TotalCents  int64      `json:"total_cents"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	InvoiceID   *int64     `json:"invoice_id,omitempty"`
	WorkOrderID *int64     `json:"work_order_id,omitempty"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Lines       []Line     `json:"lines,omitempty"`
}

// LineInput carries one line of a create request.
type LineInput struct {
	Description    string
	Quantity       int64
	UnitPriceCents int64
}

// Input carries create fields for a quote.
type Input struct {
	CompanyID  int64
	OwnerID    int64
	Title      string
	ValidUntil *time.Time
	Notes      string
	Lines      []LineInput
}

// CanTransition reports whether a status change is allowed:
// draft → sent → accepted|declined. Expiry applies only to sent quotes.
func CanTransition(from, to string) bool {
	switch from {
	case StatusDraft:
		return to == StatusSent
	case StatusSent:
		return to == StatusAccepted || to == StatusDeclined || to == StatusExpired
	default:
		return false
	}
}

package notifications

import "time"

// Notification kinds.
const (
	KindInvoiceOverdue = "invoice_overdue"
	KindTaskDue        = "task_due"
	KindQuoteAccepted  = "quote_accepted"
	KindQuoteDeclined  = "quote_declined"
	KindQuoteExpired   = "quote_expired"
)

// Notification is a per-user inbox row.
type Notification struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	IsRead      bool      `json:"is_read"`
	RelatedKind string    `json:"related_kind,omitempty"`
	RelatedID   int64     `json:"related_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// EmailPayload describes a notification email to deliver asynchronously.
type EmailPayload struct {
	NotificationID int64  `json:"notification_id"`
	UserID         int64  `json:"user_id"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
}

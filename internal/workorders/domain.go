package workorders

import (
	"errors"
	"fmt"
	"time"
)

// Work order statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// ErrInvalidTransition is returned for status changes the machine forbids.
var ErrInvalidTransition = errors.New("workorders: invalid status transition")

// WorkOrder is a print job moving through the shop floor.
type WorkOrder struct {
	ID         int64      `json:"id"`
	Number     string     `json:"number"`
	CompanyID  int64      `json:"company_id"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	AssigneeID *int64     `json:"assignee_id,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	Stock      string     `json:"stock"`
	Finish     string     `json:"finish"`
	Quantity   int64      `json:"quantity"`
	Notes      string     `json:"notes"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Input carries create/update fields for a work order.
type Input struct {
	CompanyID  int64
	Title      string
	AssigneeID *int64
	DueDate    *time.Time
	Stock      string
	Finish     string
	Quantity   int64
	Notes      string
}

// CanTransition reports whether a status change is allowed:
// pending → in_progress → completed|cancelled; pending may also be cancelled.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusInProgress || to == StatusCancelled
	case StatusInProgress:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

// FormatNumber renders the canonical work order number for a year and sequence.
func FormatNumber(year int, seq int64) string {
	return fmt.Sprintf("WO-%d-%04d", year, seq)
}

package tasks

import "time"

// Task is a to-do item, optionally pinned to another entity.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes"`
	AssigneeID  *int64     `json:"assignee_id,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	Done        bool       `json:"done"`
	DoneAt      *time.Time `json:"done_at,omitempty"`
	RelatedKind string     `json:"related_kind,omitempty"`
	RelatedID   int64      `json:"related_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Input carries create/update fields for a task.
type Input struct {
	Title       string
	Notes       string
	AssigneeID  *int64
	DueAt       *time.Time
	RelatedKind string
	RelatedID   int64
}

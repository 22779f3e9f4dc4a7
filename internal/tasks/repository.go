package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printdesk/printdesk/internal/shared"
)

const taskColumns = `id, title, notes, assignee_id, due_at, done, done_at, related_kind, related_id, created_at, updated_at`

// ListFilter narrows task listings.
type ListFilter struct {
	AssigneeID int64
	OpenOnly   bool
}

// Repository provides PostgreSQL backed persistence for tasks.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Title, &t.Notes, &t.AssigneeID, &t.DueAt, &t.Done, &t.DoneAt,
		&t.RelatedKind, &t.RelatedID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, shared.ErrNotFound
	}
	return t, err
}

// Create inserts a task.
func (r *Repository) Create(ctx context.Context, in Input) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, notes, assignee_id, due_at, done, related_kind, related_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, FALSE, $5, $6, NOW(), NOW())
		RETURNING `+taskColumns,
		in.Title, in.Notes, in.AssigneeID, in.DueAt, in.RelatedKind, in.RelatedID))
}

// Get fetches a single task.
func (r *Repository) Get(ctx context.Context, id int64) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

// List returns a filtered page of tasks ordered by due date, then id.
func (r *Repository) List(ctx context.Context, f ListFilter, p shared.Pagination) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	args := []any{}
	if f.AssigneeID != 0 {
		args = append(args, f.AssigneeID)
		query += fmt.Sprintf(" AND assignee_id = $%d", len(args))
	}
	if f.OpenOnly {
		query += ` AND done = FALSE`
	}
	args = append(args, p.PerPage, p.Offset())
	query += fmt.Sprintf(" ORDER BY due_at NULLS LAST, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Notes, &t.AssigneeID, &t.DueAt, &t.Done, &t.DoneAt,
			&t.RelatedKind, &t.RelatedID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update rewrites the editable fields of a task.
func (r *Repository) Update(ctx context.Context, id int64, in Input) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = $2, notes = $3, assignee_id = $4, due_at = $5, related_kind = $6, related_id = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+taskColumns,
		id, in.Title, in.Notes, in.AssigneeID, in.DueAt, in.RelatedKind, in.RelatedID))
}

// SetDone toggles the done flag, stamping or clearing done_at.
func (r *Repository) SetDone(ctx context.Context, id int64, done bool, now time.Time) (Task, error) {
	var doneAt any
	if done {
		doneAt = now
	}
	return scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks SET done = $2, done_at = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+taskColumns,
		id, done, doneAt))
}

// Delete removes a task.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DueForReminder returns open assigned tasks due within the window that have
// not been reminded yet, and marks them reminded.
func (r *Repository) DueForReminder(ctx context.Context, now time.Time, window time.Duration) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE tasks SET reminded_at = $1, updated_at = NOW()
		WHERE done = FALSE
		  AND assignee_id IS NOT NULL
		  AND due_at IS NOT NULL AND due_at <= $2
		  AND reminded_at IS NULL
		RETURNING `+taskColumns, now, now.Add(window))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Notes, &t.AssigneeID, &t.DueAt, &t.Done, &t.DoneAt,
			&t.RelatedKind, &t.RelatedID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

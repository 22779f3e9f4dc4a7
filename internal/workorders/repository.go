package workorders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printdesk/printdesk/internal/shared"
)

const workOrderColumns = `id, number, company_id, title, status, assignee_id, due_date, stock, finish, quantity, notes, started_at, closed_at, created_at, updated_at`

// ListFilter narrows work order listings.
type ListFilter struct {
	Status     string
	AssigneeID int64
	CompanyID  int64
}

// Repository provides PostgreSQL backed persistence for work orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanWorkOrder(row pgx.Row) (WorkOrder, error) {
	var wo WorkOrder
	err := row.Scan(&wo.ID, &wo.Number, &wo.CompanyID, &wo.Title, &wo.Status, &wo.AssigneeID,
		&wo.DueDate, &wo.Stock, &wo.Finish, &wo.Quantity, &wo.Notes,
		&wo.StartedAt, &wo.ClosedAt, &wo.CreatedAt, &wo.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return WorkOrder{}, shared.ErrNotFound
	}
	return wo, err
}

// Create inserts a work order with the next WO-{year} number.
func (r *Repository) Create(ctx context.Context, in Input, now time.Time) (WorkOrder, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return WorkOrder{}, err
	}
	defer tx.Rollback(ctx)

	var seq int64
	err = tx.QueryRow(ctx, `
		INSERT INTO work_order_counters (year, seq) VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET seq = work_order_counters.seq + 1
		RETURNING seq`, now.Year(),
	).Scan(&seq)
	if err != nil {
		return WorkOrder{}, fmt.Errorf("reserve work order number: %w", err)
	}

	wo, err := scanWorkOrder(tx.QueryRow(ctx, `
		INSERT INTO work_orders (number, company_id, title, status, assignee_id, due_date, stock, finish, quantity, notes, created_at, updated_at)
		VALUES ($1, $2, $3, 'pending', $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING `+workOrderColumns,
		FormatNumber(now.Year(), seq), in.CompanyID, in.Title, in.AssigneeID, in.DueDate,
		in.Stock, in.Finish, in.Quantity, in.Notes))
	if err != nil {
		return WorkOrder{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return WorkOrder{}, err
	}
	return wo, nil
}

// Get fetches a single work order.
func (r *Repository) Get(ctx context.Context, id int64) (WorkOrder, error) {
	return scanWorkOrder(r.pool.QueryRow(ctx,
		`SELECT `+workOrderColumns+` FROM work_orders WHERE id = $1`, id))
}

// List returns a filtered page of work orders, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter, p shared.Pagination) ([]WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.AssigneeID != 0 {
		args = append(args, f.AssigneeID)
		query += fmt.Sprintf(" AND assignee_id = $%d", len(args))
	}
	if f.CompanyID != 0 {
		args = append(args, f.CompanyID)
		query += fmt.Sprintf(" AND company_id = $%d", len(args))
	}
	args = append(args, p.PerPage, p.Offset())
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []WorkOrder
	for rows.Next() {
		var wo WorkOrder
		if err := rows.Scan(&wo.ID, &wo.Number, &wo.CompanyID, &wo.Title, &wo.Status, &wo.AssigneeID,
			&wo.DueDate, &wo.Stock, &wo.Finish, &wo.Quantity, &wo.Notes,
			&wo.StartedAt, &wo.ClosedAt, &wo.CreatedAt, &wo.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, wo)
	}
	return out, rows.Err()
}

// Update rewrites the editable fields of a work order.
func (r *Repository) Update(ctx context.Context, id int64, in Input) (WorkOrder, error) {
	return scanWorkOrder(r.pool.QueryRow(ctx, `
		UPDATE work_orders
		SET title = $2, assignee_id = $3, due_date = $4, stock = $5, finish = $6, quantity = $7, notes = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+workOrderColumns,
		id, in.Title, in.AssigneeID, in.DueDate, in.Stock, in.Finish, in.Quantity, in.Notes))
}

// SetStatus writes a new status; started_at is stamped when work begins,
// closed_at on completion or cancellation.
func (r *Repository) SetStatus(ctx context.Context, id int64, status string, now time.Time) (WorkOrder, error) {
	var started, closed any
	if status == StatusInProgress {
		started = now
	}
	if status == StatusCompleted || status == StatusCancelled {
		closed = now
	}
	return scanWorkOrder(r.pool.QueryRow(ctx, `
		UPDATE work_orders
		SET status = $2,
		    started_at = COALESCE($3, started_at),
		    closed_at = COALESCE($4, closed_at),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+workOrderColumns,
		id, status, started, closed))
}

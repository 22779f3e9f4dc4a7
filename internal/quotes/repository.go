package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printdesk/printdesk/internal/shared"
)

const quoteColumns = `id, company_id, owner_id, title, status, total_cents, valid_until, responded_at, invoice_id, work_order_id, notes, created_at, updated_at`

// ListFilter narrows quote listings.
type ListFilter struct {
	Status    string
	CompanyID int64
}

// Repository provides PostgreSQL backed persistence for quotes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanQuote(row pgx.Row) (Quote, error) {
	var q Quote
	err := row.Scan(&q.ID, &q.CompanyID, &q.OwnerID, &q.Title, &q.Status, &q.TotalCents,
		&q.ValidUntil, &q.RespondedAt, &q.InvoiceID, &q.WorkOrderID, &q.Notes, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Quote{}, shared.ErrNotFound
	}
	return q, err
}

// Create inserts the quote with its lines in one transaction.
func (r *Repository) Create(ctx context.Context, in Input, totalCents int64) (Quote, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Quote{}, err
	}
	defer tx.Rollback(ctx)

	q, err := scanQuote(tx.QueryRow(ctx, `
		INSERT INTO quotes (company_id, owner_id, title, status, total_cents, valid_until, notes, created_at, updated_at)
		VALUES ($1, $2, $3, 'draft', $4, $5, $6, NOW(), NOW())
		RETURNING `+quoteColumns,
		in.CompanyID, in.OwnerID, in.Title, totalCents, in.ValidUntil, in.Notes))
	if err != nil {
		return Quote{}, err
	}

	for _, l := range in.Lines {
		lineTotal := l.Quantity * l.UnitPriceCents
		var line Line
		err := tx.QueryRow(ctx, `
			INSERT INTO quote_lines (quote_id, description, quantity, unit_price_cents, total_cents)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, quote_id, description, quantity, unit_price_cents, total_cents`,
			q.ID, l.Description, l.Quantity, l.UnitPriceCents, lineTotal,
		).Scan(&line.ID, &line.QuoteID, &line.Description, &line.Quantity, &line.UnitPriceCents, &line.TotalCents)
		if err != nil {
			return Quote{}, err
		}
		q.Lines = append(q.Lines, line)
	}

	if err := tx.Commit(ctx); err != nil {
		return Quote{}, err
	}
	return q, nil
}

// Get fetches a quote with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (Quote, error) {
	q, err := scanQuote(r.pool.QueryRow(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if err != nil {
		return Quote{}, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, quote_id, description, quantity, unit_price_cents, total_cents
		FROM quote_lines WHERE quote_id = $1 ORDER BY id`, id)
	if err != nil {
		return Quote{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.QuoteID, &l.Description, &l.Quantity, &l.UnitPriceCents, &l.TotalCents); err != nil {
			return Quote{}, err
		}
		q.Lines = append(q.Lines, l)
	}
	return q, rows.Err()
}

// List returns a filtered page of quotes, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter, p shared.Pagination) ([]Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
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
	var out []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.ID, &q.CompanyID, &q.OwnerID, &q.Title, &q.Status, &q.TotalCents,
			&q.ValidUntil, &q.RespondedAt, &q.InvoiceID, &q.WorkOrderID, &q.Notes, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// SetStatus writes a new status; responded_at is stamped on accept/decline.
func (r *Repository) SetStatus(ctx context.Context, id int64, status string, now time.Time) (Quote, error) {
	var responded any
	if status == StatusAccepted || status == StatusDeclined {
		responded = now
	}
	return scanQuote(r.pool.QueryRow(ctx, `
		UPDATE quotes
		SET status = $2, responded_at = COALESCE($3, responded_at), updated_at = NOW()
		WHERE id = $1
		RETURNING `+quoteColumns,
		id, status, responded))
}

// LinkInvoice records the invoice an accepted quote was converted into.
// Only the first link wins.
func (r *Repository) LinkInvoice(ctx context.Context, quoteID, invoiceID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quotes SET invoice_id = $2, updated_at = NOW() WHERE id = $1 AND invoice_id IS NULL`,
		quoteID, invoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// LinkWorkOrder records the work order an accepted quote was converted into.
// Only the first link wins.
func (r *Repository) LinkWorkOrder(ctx context.Context, quoteID, workOrderID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quotes SET work_order_id = $2, updated_at = NOW() WHERE id = $1 AND work_order_id IS NULL`,
		quoteID, workOrderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExpireStale moves sent quotes past their validity window to expired and
// returns the affected quotes.
func (r *Repository) ExpireStale(ctx context.Context, now time.Time) ([]Quote, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE quotes SET status = 'expired', updated_at = NOW()
		WHERE status = 'sent' AND valid_until IS NOT NULL AND valid_until < $1
		RETURNING `+quoteColumns, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.ID, &q.CompanyID, &q.OwnerID, &q.Title, &q.Status, &q.TotalCents,
			&q.ValidUntil, &q.RespondedAt, &q.InvoiceID, &q.WorkOrderID, &q.Notes, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

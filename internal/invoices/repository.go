package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printdesk/printdesk/internal/shared"
)

const invoiceColumns = `id, number, company_id, owner_id, status, total_cents, issued_at, due_date, paid_at, notes, created_at, updated_at`

// ListFilter narrows invoice listings.
type ListFilter struct {
	Status      string
	OnlyOverdue bool
	CompanyID   int64
}

// Repository provides PostgreSQL backed persistence for invoices.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.CompanyID, &inv.OwnerID, &inv.Status, &inv.TotalCents,
		&inv.IssuedAt, &inv.DueDate, &inv.PaidAt, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, err
}

// NextNumber reserves the next sequence for the year and returns the
// formatted invoice number.
func (r *Repository) NextNumber(ctx context.Context, tx pgx.Tx, year int) (string, error) {
	var seq int64
	err := tx.QueryRow(ctx, `
		INSERT INTO invoice_counters (year, seq) VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET seq = invoice_counters.seq + 1
		RETURNING seq`, year,
	).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("reserve invoice number: %w", err)
	}
	return FormatNumber(year, seq), nil
}

// Create inserts the invoice with its lines in one transaction.
func (r *Repository) Create(ctx context.Context, in Input, totalCents int64, now time.Time) (Invoice, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Invoice{}, err
	}
	defer tx.Rollback(ctx)

	number, err := r.NextNumber(ctx, tx, now.Year())
	if err != nil {
		return Invoice{}, err
	}

	inv, err := scanInvoice(tx.QueryRow(ctx, `
		INSERT INTO invoices (number, company_id, owner_id, status, total_cents, due_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, 'draft', $4, $5, $6, NOW(), NOW())
		RETURNING `+invoiceColumns,
		number, in.CompanyID, in.OwnerID, totalCents, in.DueDate, in.Notes))
	if err != nil {
		return Invoice{}, err
	}

	for _, l := range in.Lines {
		lineTotal := l.Quantity * l.UnitPriceCents
		var line Line
		err := tx.QueryRow(ctx, `
			INSERT INTO invoice_lines (invoice_id, description, quantity, unit_price_cents, total_cents)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, invoice_id, description, quantity, unit_price_cents, total_cents`,
			inv.ID, l.Description, l.Quantity, l.UnitPriceCents, lineTotal,
		).Scan(&line.ID, &line.InvoiceID, &line.Description, &line.Quantity, &line.UnitPriceCents, &line.TotalCents)
		if err != nil {
			return Invoice{}, err
		}
		inv.Lines = append(inv.Lines, line)
	}

	if err := tx.Commit(ctx); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// Get fetches an invoice with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return Invoice{}, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, description, quantity, unit_price_cents, total_cents
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY id`, id)
	if err != nil {
		return Invoice{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Description, &l.Quantity, &l.UnitPriceCents, &l.TotalCents); err != nil {
			return Invoice{}, err
		}
		inv.Lines = append(inv.Lines, l)
	}
	return inv, rows.Err()
}

// List returns a filtered page of invoices, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter, p shared.Pagination) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.OnlyOverdue {
		query += ` AND status = 'sent' AND due_date IS NOT NULL AND due_date < NOW()`
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
	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.CompanyID, &inv.OwnerID, &inv.Status, &inv.TotalCents,
			&inv.IssuedAt, &inv.DueDate, &inv.PaidAt, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// SetStatus writes a new stored status; issued_at is stamped on send,
// paid_at on payment.
func (r *Repository) SetStatus(ctx context.Context, id int64, status string, now time.Time) (Invoice, error) {
	var issued, paid any
	if status == StatusSent {
		issued = now
	}
	if status == StatusPaid {
		paid = now
	}
	return scanInvoice(r.pool.QueryRow(ctx, `
		UPDATE invoices
		SET status = $2,
		    issued_at = COALESCE($3, issued_at),
		    paid_at = COALESCE($4, paid_at),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+invoiceColumns,
		id, status, issued, paid))
}

// DueForOverdueNotice returns sent invoices past due that have not yet been
// flagged, and marks them flagged so the nightly scan notifies once.
func (r *Repository) DueForOverdueNotice(ctx context.Context, now time.Time) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE invoices SET overdue_notified_at = $1, updated_at = NOW()
		WHERE status = 'sent' AND due_date IS NOT NULL AND due_date < $1 AND overdue_notified_at IS NULL
		RETURNING `+invoiceColumns, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.CompanyID, &inv.OwnerID, &inv.Status, &inv.TotalCents,
			&inv.IssuedAt, &inv.DueDate, &inv.PaidAt, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

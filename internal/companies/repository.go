package companies

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printdesk/printdesk/internal/shared"
)

const companyColumns = `id, name, email, phone, address, tax_id, notes, is_active, created_at, updated_at`
const contactColumns = `id, company_id, name, email, phone, role, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for companies and contacts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.TaxID, &c.Notes, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, shared.ErrNotFound
	}
	return c, err
}

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Email, &c.Phone, &c.Role, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, shared.ErrNotFound
	}
	return c, err
}

// ListCompanies returns a page of companies ordered by name.
func (r *Repository) ListCompanies(ctx context.Context, p shared.Pagination) ([]Company, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+companyColumns+` FROM companies ORDER BY name, id LIMIT $1 OFFSET $2`,
		p.PerPage, p.Offset(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.TaxID, &c.Notes, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCompany fetches a single company.
func (r *Repository) GetCompany(ctx context.Context, id int64) (Company, error) {
	return scanCompany(r.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
}

// CreateCompany inserts a company.
func (r *Repository) CreateCompany(ctx context.Context, in CompanyInput) (Company, error) {
	return scanCompany(r.pool.QueryRow(ctx, `
		INSERT INTO companies (name, email, phone, address, tax_id, notes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING `+companyColumns,
		in.Name, in.Email, in.Phone, in.Address, in.TaxID, in.Notes, in.IsActive))
}

// UpdateCompany updates a company.
func (r *Repository) UpdateCompany(ctx context.Context, id int64, in CompanyInput) (Company, error) {
	return scanCompany(r.pool.QueryRow(ctx, `
		UPDATE companies
		SET name = $2, email = $3, phone = $4, address = $5, tax_id = $6, notes = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+companyColumns,
		id, in.Name, in.Email, in.Phone, in.Address, in.TaxID, in.Notes, in.IsActive))
}

// DeleteCompany removes a company and its contacts.
func (r *Repository) DeleteCompany(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListContacts returns contacts of a company ordered by name.
func (r *Repository) ListContacts(ctx context.Context, companyID int64) ([]Contact, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE company_id = $1 ORDER BY name, id`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Email, &c.Phone, &c.Role, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateContact inserts a contact under a company.
func (r *Repository) CreateContact(ctx context.Context, companyID int64, in ContactInput) (Contact, error) {
	return scanContact(r.pool.QueryRow(ctx, `
		INSERT INTO contacts (company_id, name, email, phone, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING `+contactColumns,
		companyID, in.Name, in.Email, in.Phone, in.Role))
}

// UpdateContact updates a contact.
func (r *Repository) UpdateContact(ctx context.Context, id int64, in ContactInput) (Contact, error) {
	return scanContact(r.pool.QueryRow(ctx, `
		UPDATE contacts SET name = $2, email = $3, phone = $4, role = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+contactColumns,
		id, in.Name, in.Email, in.Phone, in.Role))
}

// DeleteContact removes a contact.
func (r *Repository) DeleteContact(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

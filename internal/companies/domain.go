package companies

import "time"

// Company is a customer of the print shop.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	TaxID     string    `json:"tax_id"`
	Notes     string    `json:"notes"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contact is a person at a company.
type Contact struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanyInput carries create/update fields for a company.
type CompanyInput struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	TaxID    string
	Notes    string
	IsActive bool
}

// ContactInput carries create/update fields for a contact.
type ContactInput struct {
	Name  string
	Email string
	Phone string
	Role  string
}

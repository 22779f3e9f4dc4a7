package companies

import (
	"context"
	"errors"
	"strings"

	"github.com/printdesk/printdesk/internal/shared"
)

// RepositoryPort defines data access methods for companies and contacts.
type RepositoryPort interface {
	ListCompanies(ctx context.Context, p shared.Pagination) ([]Company, error)
	GetCompany(ctx context.Context, id int64) (Company, error)
	CreateCompany(ctx context.Context, in CompanyInput) (Company, error)
	UpdateCompany(ctx context.Context, id int64, in CompanyInput) (Company, error)
	DeleteCompany(ctx context.Context, id int64) error
	ListContacts(ctx context.Context, companyID int64) ([]Contact, error)
	CreateContact(ctx context.Context, companyID int64, in ContactInput) (Contact, error)
	UpdateContact(ctx context.Context, id int64, in ContactInput) (Contact, error)
	DeleteContact(ctx context.Context, id int64) error
}

// Service handles company and contact business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func normalizeCompany(in CompanyInput) (CompanyInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, errors.New("companies: company name required")
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.TaxID = strings.TrimSpace(in.TaxID)
	return in, nil
}

func normalizeContact(in ContactInput) (ContactInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, errors.New("companies: contact name required")
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Role = strings.TrimSpace(in.Role)
	return in, nil
}

// ListCompanies returns a page of companies.
func (s *Service) ListCompanies(ctx context.Context, p shared.Pagination) ([]Company, error) {
	return s.repo.ListCompanies(ctx, p)
}

// GetCompany returns one company.
func (s *Service) GetCompany(ctx context.Context, id int64) (Company, error) {
	return s.repo.GetCompany(ctx, id)
}

// CreateCompany validates and inserts a company.
func (s *Service) CreateCompany(ctx context.Context, in CompanyInput) (Company, error) {
	in, err := normalizeCompany(in)
	if err != nil {
		return Company{}, err
	}
	return s.repo.CreateCompany(ctx, in)
}

// UpdateCompany validates and updates a company.
func (s *Service) UpdateCompany(ctx context.Context, id int64, in CompanyInput) (Company, error) {
	in, err := normalizeCompany(in)
	if err != nil {
		return Company{}, err
	}
	return s.repo.UpdateCompany(ctx, id, in)
}

// DeleteCompany removes a company.
func (s *Service) DeleteCompany(ctx context.Context, id int64) error {
	return s.repo.DeleteCompany(ctx, id)
}

// ListContacts returns contacts of a company, verifying the company exists.
func (s *Service) ListContacts(ctx context.Context, companyID int64) ([]Contact, error) {
	if _, err := s.repo.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	contacts, err := s.repo.ListContacts(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []Contact{}
	}
	return contacts, nil
}

// CreateContact validates and inserts a contact under a company.
func (s *Service) CreateContact(ctx context.Context, companyID int64, in ContactInput) (Contact, error) {
	if _, err := s.repo.GetCompany(ctx, companyID); err != nil {
		return Contact{}, err
	}
	in, err := normalizeContact(in)
	if err != nil {
		return Contact{}, err
	}
	return s.repo.CreateContact(ctx, companyID, in)
}

// UpdateContact validates and updates a contact.
func (s *Service) UpdateContact(ctx context.Context, id int64, in ContactInput) (Contact, error) {
	in, err := normalizeContact(in)
	if err != nil {
		return Contact{}, err
	}
	return s.repo.UpdateContact(ctx, id, in)
}

// DeleteContact removes a contact.
func (s *Service) DeleteContact(ctx context.Context, id int64) error {
	return s.repo.DeleteContact(ctx, id)
}

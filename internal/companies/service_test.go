package companies

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/shared"
)

type stubRepo struct {
	companies map[int64]Company
	contacts  map[int64]Contact
	nextID    int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{companies: map[int64]Company{}, contacts: map[int64]Contact{}, nextID: 1}
}

func (s *stubRepo) ListCompanies(_ context.Context, p shared.Pagination) ([]Company, error) {
	out := make([]Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, c)
	}
	return out, nil
}

func (s *stubRepo) GetCompany(_ context.Context, id int64) (Company, error) {
	c, ok := s.companies[id]
	if !ok {
		return Company{}, shared.ErrNotFound
	}
	return c, nil
}

func (s *stubRepo) CreateCompany(_ context.Context, in CompanyInput) (Company, error) {
	c := Company{ID: s.nextID, Name: in.Name, Email: in.Email, Phone: in.Phone, Address: in.Address, TaxID: in.TaxID, Notes: in.Notes, IsActive: in.IsActive}
	s.companies[c.ID] = c
	s.nextID++
	return c, nil
}

func (s *stubRepo) UpdateCompany(_ context.Context, id int64, in CompanyInput) (Company, error) {
	c, ok := s.companies[id]
	if !ok {
		return Company{}, shared.ErrNotFound
	}
	c.Name, c.Email, c.IsActive = in.Name, in.Email, in.IsActive
	s.companies[id] = c
	return c, nil
}

func (s *stubRepo) DeleteCompany(_ context.Context, id int64) error {
	if _, ok := s.companies[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.companies, id)
	return nil
}

func (s *stubRepo) ListContacts(_ context.Context, companyID int64) ([]Contact, error) {
	var out []Contact
	for _, c := range s.contacts {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubRepo) CreateContact(_ context.Context, companyID int64, in ContactInput) (Contact, error) {
	c := Contact{ID: s.nextID, CompanyID: companyID, Name: in.Name, Email: in.Email, Phone: in.Phone, Role: in.Role}
	s.contacts[c.ID] = c
	s.nextID++
	return c, nil
}

func (s *stubRepo) UpdateContact(_ context.Context, id int64, in ContactInput) (Contact, error) {
	c, ok := s.contacts[id]
	if !ok {
		return Contact{}, shared.ErrNotFound
	}
	c.Name, c.Email, c.Phone, c.Role = in.Name, in.Email, in.Phone, in.Role
	s.contacts[id] = c
	return c, nil
}

func (s *stubRepo) DeleteContact(_ context.Context, id int64) error {
	if _, ok := s.contacts[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.contacts, id)
	return nil
}

func TestCreateCompanyNormalizes(t *testing.T) {
	svc := NewService(newStubRepo())

	c, err := svc.CreateCompany(context.Background(), CompanyInput{
		Name:     "  Hilltop Press  ",
		Email:    " Orders@HILLTOP.example ",
		IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hilltop Press", c.Name)
	assert.Equal(t, "orders@hilltop.example", c.Email)
}

func TestCreateCompanyRequiresName(t *testing.T) {
	svc := NewService(newStubRepo())

	_, err := svc.CreateCompany(context.Background(), CompanyInput{Name: "  "})
	require.Error(t, err)
}

func TestContactsRequireExistingCompany(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	_, err := svc.CreateContact(context.Background(), 99, ContactInput{Name: "Ana"})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.ListContacts(context.Background(), 99)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestContactLifecycle(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	company, err := svc.CreateCompany(context.Background(), CompanyInput{Name: "Hilltop Press", IsActive: true})
	require.NoError(t, err)

	contact, err := svc.CreateContact(context.Background(), company.ID, ContactInput{Name: " Ana ", Email: "ANA@hilltop.example", Role: " buyer "})
	require.NoError(t, err)
	assert.Equal(t, "Ana", contact.Name)
	assert.Equal(t, "ana@hilltop.example", contact.Email)
	assert.Equal(t, "buyer", contact.Role)

	list, err := svc.ListContacts(context.Background(), company.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.DeleteContact(context.Background(), contact.ID))
	list, err = svc.ListContacts(context.Background(), company.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

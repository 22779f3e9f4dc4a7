package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/rbac"
	"github.com/printdesk/printdesk/internal/shared"
)

type stubRepo struct {
	roles       map[int64]Role
	perms       map[int64][]rbac.Permission
	setCalls    int
	lastSetIDs  []int64
	lastSetRole int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{roles: map[int64]Role{}, perms: map[int64][]rbac.Permission{}}
}

func (s *stubRepo) ListRoles(context.Context) ([]Role, error) {
	out := make([]Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, r)
	}
	return out, nil
}

func (s *stubRepo) GetRole(_ context.Context, id int64) (Role, error) {
	r, ok := s.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return r, nil
}

func (s *stubRepo) CreateRole(_ context.Context, name, description string) (Role, error) {
	id := int64(len(s.roles) + 1)
	r := Role{ID: id, Name: name, Description: description}
	s.roles[id] = r
	return r, nil
}

func (s *stubRepo) UpdateRole(_ context.Context, id int64, name, description string) (Role, error) {
	r, ok := s.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	r.Name, r.Description = name, description
	s.roles[id] = r
	return r, nil
}

func (s *stubRepo) DeleteRole(_ context.Context, id int64) error {
	if _, ok := s.roles[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.roles, id)
	return nil
}

func (s *stubRepo) ListPermissions(context.Context) ([]rbac.Permission, error) {
	return []rbac.Permission{{ID: 1, Resource: "invoices", Action: "read"}}, nil
}

func (s *stubRepo) EnsurePermission(_ context.Context, resource, action string) (rbac.Permission, error) {
	return rbac.Permission{ID: 1, Resource: resource, Action: action}, nil
}

func (s *stubRepo) RolePermissions(_ context.Context, roleID int64) ([]rbac.Permission, error) {
	return s.perms[roleID], nil
}

func (s *stubRepo) SetRolePermissions(_ context.Context, roleID int64, permissionIDs []int64) error {
	s.setCalls++
	s.lastSetRole = roleID
	s.lastSetIDs = permissionIDs
	return nil
}

func TestCreateRoleRequiresName(t *testing.T) {
	svc := NewService(newStubRepo())

	_, err := svc.CreateRole(context.Background(), "   ", "")
	require.Error(t, err)
}

func TestCreateRoleTrimsFields(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	role, err := svc.CreateRole(context.Background(), "  estimator ", " quoting staff ")
	require.NoError(t, err)
	assert.Equal(t, "estimator", role.Name)
	assert.Equal(t, "quoting staff", role.Description)
}

func TestGetRoleIncludesPermissions(t *testing.T) {
	repo := newStubRepo()
	repo.roles[3] = Role{ID: 3, Name: "estimator"}
	repo.perms[3] = []rbac.Permission{{ID: 9, Resource: "quotes", Action: "update"}}
	svc := NewService(repo)

	got, err := svc.GetRole(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "estimator", got.Name)
	require.Len(t, got.Permissions, 1)
	assert.Equal(t, "quotes", got.Permissions[0].Resource)
}

func TestGetRoleEmptyPermissionsNotNil(t *testing.T) {
	repo := newStubRepo()
	repo.roles[5] = Role{ID: 5, Name: "viewer"}
	svc := NewService(repo)

	got, err := svc.GetRole(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, got.Permissions)
	assert.Empty(t, got.Permissions)
}

func TestSetRolePermissionsChecksExistence(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	err := svc.SetRolePermissions(context.Background(), 42, []int64{1, 2})
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Zero(t, repo.setCalls)

	repo.roles[42] = Role{ID: 42, Name: "press_operator"}
	err = svc.SetRolePermissions(context.Background(), 42, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.setCalls)
	assert.Equal(t, int64(42), repo.lastSetRole)
	assert.Equal(t, []int64{1, 2}, repo.lastSetIDs)
}

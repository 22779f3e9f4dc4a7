package rbac

import (
	"fmt"
	"time"

	"github.com/printdesk/printdesk/internal/shared"
)

// Reserved role names carrying implicit grants.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
	RoleManager    = "manager"
	RoleStaff      = "staff"
)

// Role represents a named permission grouping.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission grants an action on a resource class. Either side may be the
// wildcard "*".
type Permission struct {
	ID       int64  `json:"id"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// Matches reports whether this row covers the requested pair.
func (p Permission) Matches(resource, action string) bool {
	if p.Resource != resource && p.Resource != shared.ResourceWildcard {
		return false
	}
	return p.Action == action || p.Action == shared.ActionWildcard
}

// State tracks the lifecycle of a principal's authorization data.
type State string

const (
	// StateUnloaded means no principal has been resolved yet.
	StateUnloaded State = "unloaded"
	// StateLoading means roles/permissions are being fetched.
	StateLoading State = "loading"
	// StateReady means the snapshot is usable.
	StateReady State = "ready"
)

// Snapshot is the effective authorization data for one principal. It is a
// value type: checks against it are pure and never touch storage.
type Snapshot struct {
	UserID      int64        `json:"user_id"`
	Roles       []string     `json:"roles"`
	Permissions []Permission `json:"permissions"`
	State       State        `json:"state"`
	IsAdmin     bool         `json:"is_admin"`
	IsManager   bool         `json:"is_manager"`
}

// NewSnapshot derives the admin/manager flags from the role list.
func NewSnapshot(userID int64, roles []string, perms []Permission) Snapshot {
	s := Snapshot{
		UserID:      userID,
		Roles:       roles,
		Permissions: perms,
		State:       StateReady,
	}
	for _, r := range roles {
		switch r {
		case RoleAdmin, RoleSuperAdmin:
			s.IsAdmin = true
		case RoleManager:
			s.IsManager = true
		}
	}
	return s
}

// DeniedSnapshot is the fail-closed fallback installed when a load fails:
// ready, but with nothing granted.
func DeniedSnapshot(userID int64) Snapshot {
	return Snapshot{UserID: userID, State: StateReady}
}

// Allow answers "can this principal perform action on resource". First match
// wins: admin/super_admin allow everything, manager allows everything except
// the users and roles resources, then explicit rows are consulted with
// wildcard matching. Read is evaluated like any other action; broad read
// access comes from seed data, not a code branch. Snapshots that are not
// ready deny everything.
func (s Snapshot) Allow(resource, action string) bool {
	if s.State != StateReady {
		return false
	}
	if s.IsAdmin {
		return true
	}
	if s.IsManager && resource != shared.ResourceUsers && resource != shared.ResourceRoles {
		return true
	}
	for _, p := range s.Permissions {
		if p.Matches(resource, action) {
			return true
		}
	}
	return false
}

// CanCreate reports whether create is allowed on resource.
func (s Snapshot) CanCreate(resource string) bool { return s.Allow(resource, shared.ActionCreate) }

// CanRead reports whether read is allowed on resource.
func (s Snapshot) CanRead(resource string) bool { return s.Allow(resource, shared.ActionRead) }

// CanUpdate reports whether update is allowed on resource.
func (s Snapshot) CanUpdate(resource string) bool { return s.Allow(resource, shared.ActionUpdate) }

// CanDelete reports whether delete is allowed on resource.
func (s Snapshot) CanDelete(resource string) bool { return s.Allow(resource, shared.ActionDelete) }

// DenialMessage is the user-facing reason attached to a rejected check.
func DenialMessage(resource, action string) string {
	return fmt.Sprintf("No permission to %s on %s", action, resource)
}

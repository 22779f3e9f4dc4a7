package roles

import (
	"time"

	"github.com/printdesk/printdesk/internal/rbac"
)

// Role represents a role for management.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleWithPermissions pairs a role with its granted permission rows.
type RoleWithPermissions struct {
	Role
	Permissions []rbac.Permission `json:"permissions"`
}

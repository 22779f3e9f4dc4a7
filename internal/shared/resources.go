package shared

// Protected resource classes known to the permission system. Unknown resource
// strings are legal in checks; they simply never match a seeded row.
const (
	ResourceCompanies     = "companies"
	ResourceContacts      = "contacts"
	ResourceQuotes        = "quotes"
	ResourceInvoices      = "invoices"
	ResourceWorkOrders    = "work_orders"
	ResourceTasks         = "tasks"
	ResourceNotifications = "notifications"
	ResourceUsers         = "users"
	ResourceRoles         = "roles"
)

// Standard actions. The set is extensible: an arbitrary action string is
// evaluated the same way and denied unless a row or wildcard matches.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"

	// ActionWildcard matches any action when stored on a permission row.
	ActionWildcard = "*"
	// ResourceWildcard matches any resource when stored on a permission row.
	ResourceWildcard = "*"
)

// AllResources lists every protected resource class, in seed order.
func AllResources() []string {
	return []string{
		ResourceCompanies,
		ResourceContacts,
		ResourceQuotes,
		ResourceInvoices,
		ResourceWorkOrders,
		ResourceTasks,
		ResourceNotifications,
		ResourceUsers,
		ResourceRoles,
	}
}

// StandardActions lists the four CRUD actions.
func StandardActions() []string {
	return []string{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
}

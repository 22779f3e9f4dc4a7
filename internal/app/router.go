package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/printdesk/printdesk/internal/auth"
	"github.com/printdesk/printdesk/internal/blades"
	"github.com/printdesk/printdesk/internal/companies"
	"github.com/printdesk/printdesk/internal/invoices"
	"github.com/printdesk/printdesk/internal/notifications"
	"github.com/printdesk/printdesk/internal/observability"
	"github.com/printdesk/printdesk/internal/quotes"
	"github.com/printdesk/printdesk/internal/rbac"
	"github.com/printdesk/printdesk/internal/roles"
	"github.com/printdesk/printdesk/internal/shared"
	"github.com/printdesk/printdesk/internal/tasks"
	"github.com/printdesk/printdesk/internal/users"
	"github.com/printdesk/printdesk/internal/workorders"
	"github.com/printdesk/printdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AuthHandler          *auth.Handler
	RBACHandler          *rbac.Handler
	BladesHandler        *blades.Handler
	CompaniesHandler     *companies.Handler
	QuotesHandler        *quotes.Handler
	InvoicesHandler      *invoices.Handler
	WorkOrdersHandler    *workorders.Handler
	TasksHandler         *tasks.Handler
	NotificationsHandler *notifications.Handler
	UsersHandler         *users.Handler
	RolesHandler         *roles.Handler
	JobsHandler          *jobs.Handler
}

// NewRouter constructs the chi.Router with Printdesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Hands the current session's CSRF token to browser clients; mutations
	// must echo it back in the X-CSRF-Token header.
	r.Get("/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := params.CSRFManager.EnsureToken(r.Context(), sess)
		if err != nil {
			shared.WriteJSONError(w, http.StatusInternalServerError, "csrf token unavailable")
			return
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/rbac", params.RBACHandler.MountRoutes)
	r.Route("/blades", params.BladesHandler.MountRoutes)
	r.Route("/companies", params.CompaniesHandler.MountRoutes)
	r.Route("/quotes", params.QuotesHandler.MountRoutes)
	r.Route("/invoices", params.InvoicesHandler.MountRoutes)
	r.Route("/workorders", params.WorkOrdersHandler.MountRoutes)
	r.Route("/tasks", params.TasksHandler.MountRoutes)
	r.Route("/notifications", params.NotificationsHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/roles", params.RolesHandler.MountRoutes)
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	return r
}

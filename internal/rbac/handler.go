package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printdesk/printdesk/internal/shared"
)

// Handler exposes the principal's effective snapshot for UI guards.
type Handler struct {
	logger *slog.Logger
	loader *Loader
	guard  Guard
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, loader *Loader, guard Guard) *Handler {
	return &Handler{logger: logger, loader: loader, guard: guard}
}

// MountRoutes registers rbac routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated)
		r.Get("/me", h.me)
	})
}

type resourceFlags struct {
	Create bool `json:"create"`
	Read   bool `json:"read"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

type meResponse struct {
	UserID      int64                    `json:"user_id"`
	Roles       []string                 `json:"roles"`
	Permissions []Permission             `json:"permissions"`
	IsAdmin     bool                     `json:"is_admin"`
	IsManager   bool                     `json:"is_manager"`
	State       State                    `json:"state"`
	Can         map[string]resourceFlags `json:"can"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	userID, _ := sess.UserID()
	snap := h.loader.Snapshot(r.Context(), userID)

	can := make(map[string]resourceFlags, len(shared.AllResources()))
	for _, res := range shared.AllResources() {
		can[res] = resourceFlags{
			Create: snap.CanCreate(res),
			Read:   snap.CanRead(res),
			Update: snap.CanUpdate(res),
			Delete: snap.CanDelete(res),
		}
	}

	resp := meResponse{
		UserID:      snap.UserID,
		Roles:       snap.Roles,
		Permissions: snap.Permissions,
		IsAdmin:     snap.IsAdmin,
		IsManager:   snap.IsManager,
		State:       snap.State,
		Can:         can,
	}
	if resp.Roles == nil {
		resp.Roles = []string{}
	}
	if resp.Permissions == nil {
		resp.Permissions = []Permission{}
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

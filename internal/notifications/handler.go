package notifications

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/printdesk/printdesk/internal/rbac"
	"github.com/printdesk/printdesk/internal/shared"
)

// Handler manages notification inbox endpoints. Everything is scoped to
// the session user, so authentication is the only gate.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   rbac.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.guard.RequireAuthenticated)
	r.Get("/", h.list)
	r.Get("/unread-count", h.unreadCount)
	r.Post("/{id}/read", h.markRead)
	r.Post("/read-all", h.markAllRead)
}

func sessionUserID(r *http.Request) (int64, bool) {
	return shared.UserIDFromContext(r.Context())
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(r)
	if !ok {
		shared.WriteJSONError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	q := r.URL.Query()
	page, perPage := shared.ParsePageQuery(q)
	items, err := h.service.ListForUser(r.Context(), userID, q.Get("unread") == "true", shared.Pagination{Page: page, PerPage: perPage})
	if err != nil {
		h.logger.Error("list notifications", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "list notifications failed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"notifications": items,
		"page":          page,
		"per_page":      perPage,
	})
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(r)
	if !ok {
		shared.WriteJSONError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		h.logger.Error("unread count", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "unread count failed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(r)
	if !ok {
		shared.WriteJSONError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := h.service.MarkRead(r.Context(), userID, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "notification not found")
			return
		}
		h.logger.Error("mark notification read", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "mark read failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(r)
	if !ok {
		shared.WriteJSONError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	if err := h.service.MarkAllRead(r.Context(), userID); err != nil {
		h.logger.Error("mark all notifications read", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "mark all read failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

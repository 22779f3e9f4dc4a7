package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/printdesk/printdesk/internal/rbac"
	"github.com/printdesk/printdesk/internal/shared"
)

// Handler manages role administration endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    rbac.Guard
	loader   *rbac.Loader
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Guard, loader *rbac.Loader) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, loader: loader, validate: validator.New()}
}

// MountRoutes registers role management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceRoles, shared.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/permissions", h.listPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceRoles, shared.ActionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceRoles, shared.ActionUpdate))
		r.Put("/{id}", h.update)
		r.Put("/{id}/permissions", h.setPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceRoles, shared.ActionDelete))
		r.Delete("/{id}", h.delete)
	})
}

type roleRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type setPermissionsRequest struct {
	PermissionIDs []int64 `json:"permission_ids" validate:"required,dive,gt=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "list roles failed")
		return
	}
	if roles == nil {
		roles = []Role{}
	}
	shared.WriteJSON(w, http.StatusOK, roles)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "role not found")
			return
		}
		h.logger.Error("get role", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "get role failed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "list permissions failed")
		return
	}
	if perms == nil {
		perms = []rbac.Permission{}
	}
	shared.WriteJSON(w, http.StatusOK, perms)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	role, err := h.service.CreateRole(r.Context(), req.Name, req.Description)
	if err != nil {
		h.logger.Error("create role", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "create role failed")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, role)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	var req roleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	role, err := h.service.UpdateRole(r.Context(), id, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "role not found")
			return
		}
		h.logger.Error("update role", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "update role failed")
		return
	}
	h.loader.InvalidateAll(r.Context())
	shared.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) setPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	var req setPermissionsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.SetRolePermissions(r.Context(), id, req.PermissionIDs); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "role not found")
			return
		}
		h.logger.Error("set role permissions", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "set role permissions failed")
		return
	}
	// Every holder of this role is affected; drop all cached snapshots.
	h.loader.InvalidateAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "role not found")
			return
		}
		h.logger.Error("delete role", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "delete role failed")
		return
	}
	h.loader.InvalidateAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

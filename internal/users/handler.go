package users

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

// Handler manages account administration endpoints.
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

// MountRoutes registers user management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceUsers, shared.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceUsers, shared.ActionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceUsers, shared.ActionUpdate))
		r.Put("/{id}", h.update)
		r.Post("/{id}/roles", h.assignRole)
		r.Delete("/{id}/roles/{roleID}", h.removeRole)
	})
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=200"`
	Password string `json:"password" validate:"required,min=8"`
}

type updateUserRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	IsActive bool   `json:"is_active"`
}

type assignRoleRequest struct {
	RoleID int64 `json:"role_id" validate:"required,gt=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "list users failed")
		return
	}
	if users == nil {
		users = []User{}
	}
	shared.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("get user", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "get user failed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.service.CreateUser(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.logger.Error("create user", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "create user failed")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req updateUserRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.service.UpdateUser(r.Context(), id, req.Name, req.IsActive)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("update user", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "update user failed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req assignRoleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.AssignRole(r.Context(), id, req.RoleID); err != nil {
		h.logger.Error("assign role", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "assign role failed")
		return
	}
	// The user's effective permissions changed; drop the stale snapshot.
	h.loader.Invalidate(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	roleID, err := pathID(r, "roleID")
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	if err := h.service.RemoveRole(r.Context(), id, roleID); err != nil {
		h.logger.Error("remove role", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "remove role failed")
		return
	}
	h.loader.Invalidate(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

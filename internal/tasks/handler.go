package tasks

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/printdesk/printdesk/internal/rbac"
	"github.com/printdesk/printdesk/internal/shared"
)

// Handler manages task endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    rbac.Guard
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validate: validator.New()}
}

// MountRoutes registers task routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceTasks, shared.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceTasks, shared.ActionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceTasks, shared.ActionUpdate))
		r.Put("/{id}", h.update)
		r.Post("/{id}/done", h.markDone)
		r.Post("/{id}/reopen", h.reopen)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceTasks, shared.ActionDelete))
		r.Delete("/{id}", h.delete)
	})
}

type taskRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Notes       string     `json:"notes" validate:"max=2000"`
	AssigneeID  *int64     `json:"assignee_id"`
	DueAt       *time.Time `json:"due_at"`
	RelatedKind string     `json:"related_kind" validate:"max=50"`
	RelatedID   int64      `json:"related_id"`
}

func (req taskRequest) input() Input {
	return Input{
		Title:       req.Title,
		Notes:       req.Notes,
		AssigneeID:  req.AssigneeID,
		DueAt:       req.DueAt,
		RelatedKind: req.RelatedKind,
		RelatedID:   req.RelatedID,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := shared.ParsePageQuery(q)
	filter := ListFilter{OpenOnly: q.Get("open") == "true"}
	if id, err := strconv.ParseInt(q.Get("assignee_id"), 10, 64); err == nil {
		filter.AssigneeID = id
	}
	items, err := h.service.List(r.Context(), filter, shared.Pagination{Page: page, PerPage: perPage})
	if err != nil {
		h.logger.Error("list tasks", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "list tasks failed")
		return
	}
	if items == nil {
		items = []Task{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"tasks":    items,
		"page":     page,
		"per_page": perPage,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "task not found")
			return
		}
		h.logger.Error("get task", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "get task failed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, task)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	task, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		h.logger.Error("create task", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "create task failed")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, task)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	var req taskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	task, err := h.service.Update(r.Context(), id, req.input())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "task not found")
			return
		}
		h.logger.Error("update task", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "update task failed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, task)
}

func (h *Handler) markDone(w http.ResponseWriter, r *http.Request) {
	h.setDone(w, r, true)
}

func (h *Handler) reopen(w http.ResponseWriter, r *http.Request) {
	h.setDone(w, r, false)
}

func (h *Handler) setDone(w http.ResponseWriter, r *http.Request, done bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	task, err := h.service.SetDone(r.Context(), id, done)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "task not found")
			return
		}
		h.logger.Error("set task done", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "set task done failed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, task)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "task not found")
			return
		}
		h.logger.Error("delete task", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "delete task failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

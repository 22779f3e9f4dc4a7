package workorders

import (
	"context"
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

// Handler manages work order endpoints.
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

// MountRoutes registers work order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceWorkOrders, shared.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceWorkOrders, shared.ActionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceWorkOrders, shared.ActionUpdate))
		r.Put("/{id}", h.update)
		r.Post("/{id}/start", h.start)
		r.Post("/{id}/complete", h.complete)
		r.Post("/{id}/cancel", h.cancel)
	})
}

type workOrderRequest struct {
	CompanyID  int64      `json:"company_id" validate:"required,gt=0"`
	Title      string     `json:"title" validate:"required,max=200"`
	AssigneeID *int64     `json:"assignee_id"`
	DueDate    *time.Time `json:"due_date"`
	Stock      string     `json:"stock" validate:"max=200"`
	Finish     string     `json:"finish" validate:"max=200"`
	Quantity   int64      `json:"quantity" validate:"required,gt=0"`
	Notes      string     `json:"notes" validate:"max=2000"`
}

func (req workOrderRequest) input() Input {
	return Input{
		CompanyID:  req.CompanyID,
		Title:      req.Title,
		AssigneeID: req.AssigneeID,
		DueDate:    req.DueDate,
		Stock:      req.Stock,
		Finish:     req.Finish,
		Quantity:   req.Quantity,
		Notes:      req.Notes,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := shared.ParsePageQuery(q)
	filter := ListFilter{Status: q.Get("status")}
	if id, err := strconv.ParseInt(q.Get("assignee_id"), 10, 64); err == nil {
		filter.AssigneeID = id
	}
	if id, err := strconv.ParseInt(q.Get("company_id"), 10, 64); err == nil {
		filter.CompanyID = id
	}
	items, err := h.service.List(r.Context(), filter, shared.Pagination{Page: page, PerPage: perPage})
	if err != nil {
		h.logger.Error("list work orders", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "list work orders failed")
		return
	}
	if items == nil {
		items = []WorkOrder{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"work_orders": items,
		"page":        page,
		"per_page":    perPage,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid work order id")
		return
	}
	wo, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "work order not found")
			return
		}
		h.logger.Error("get work order", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "get work order failed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, wo)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req workOrderRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	wo, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		h.logger.Error("create work order", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "create work order failed")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, wo)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid work order id")
		return
	}
	var req workOrderRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	wo, err := h.service.Update(r.Context(), id, req.input())
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			shared.WriteJSONError(w, http.StatusNotFound, "work order not found")
		case errors.Is(err, ErrInvalidTransition):
			shared.WriteJSONError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("update work order", slog.Any("error", err))
			shared.WriteJSONError(w, http.StatusInternalServerError, "update work order failed")
		}
		return
	}
	shared.WriteJSON(w, http.StatusOK, wo)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.service.Start)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.service.Complete)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.service.Cancel)
}

func (h *Handler) statusChange(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) (WorkOrder, error)) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid work order id")
		return
	}
	wo, err := fn(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			shared.WriteJSONError(w, http.StatusNotFound, "work order not found")
		case errors.Is(err, ErrInvalidTransition):
			shared.WriteJSONError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("work order status change", slog.Any("error", err))
			shared.WriteJSONError(w, http.StatusInternalServerError, "work order status change failed")
		}
		return
	}
	shared.WriteJSON(w, http.StatusOK, wo)
}

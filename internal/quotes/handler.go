package quotes

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

// Handler manages quote endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    rbac.Guard
	audit    *shared.AuditLogger
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Guard, audit *shared.AuditLogger) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, audit: audit, validate: validator.New()}
}

// MountRoutes registers quote routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceQuotes, shared.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceQuotes, shared.ActionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceQuotes, shared.ActionUpdate))
		r.Post("/{id}/send", h.send)
		r.Post("/{id}/accept", h.accept)
		r.Post("/{id}/decline", h.decline)
		r.Post("/{id}/convert/invoice", h.convertToInvoice)
		r.Post("/{id}/convert/work-order", h.convertToWorkOrder)
	})
}

type lineRequest struct {
	Description    string `json:"description" validate:"required,max=500"`
	Quantity       int64  `json:"quantity" validate:"required,gt=0"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"gte=0"`
}

type createRequest struct {
	CompanyID  int64         `json:"company_id" validate:"required,gt=0"`
	Title      string        `json:"title" validate:"required,max=200"`
	ValidUntil *time.Time    `json:"valid_until"`
	Notes      string        `json:"notes" validate:"max=2000"`
	Lines      []lineRequest `json:"lines" validate:"required,min=1,dive"`
}

type convertRequest struct {
	DueDate    *time.Time `json:"due_date"`
	AssigneeID *int64     `json:"assignee_id"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := shared.ParsePageQuery(q)
	filter := ListFilter{Status: q.Get("status")}
	if id, err := strconv.ParseInt(q.Get("company_id"), 10, 64); err == nil {
		filter.CompanyID = id
	}
	items, err := h.service.List(r.Context(), filter, shared.Pagination{Page: page, PerPage: perPage})
	if err != nil {
		h.logger.Error("list quotes", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "list quotes failed")
		return
	}
	if items == nil {
		items = []Quote{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"quotes":   items,
		"page":     page,
		"per_page": perPage,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid quote id")
		return
	}
	quote, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "quote not found")
			return
		}
		h.logger.Error("get quote", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "get quote failed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, quote)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	in := Input{CompanyID: req.CompanyID, Title: req.Title, ValidUntil: req.ValidUntil, Notes: req.Notes}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		in.OwnerID, _ = sess.UserID()
	}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, LineInput{Description: l.Description, Quantity: l.Quantity, UnitPriceCents: l.UnitPriceCents})
	}
	quote, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.logger.Error("create quote", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "create quote failed")
		return
	}
	h.recordAudit(r, "quote.created", quote.ID)
	shared.WriteJSON(w, http.StatusCreated, quote)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, "quote.sent", h.service.Send)
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, "quote.accepted", h.service.Accept)
}

func (h *Handler) decline(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, "quote.declined", h.service.Decline)
}

func (h *Handler) statusChange(w http.ResponseWriter, r *http.Request, auditAction string, fn func(ctx context.Context, id int64) (Quote, error)) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid quote id")
		return
	}
	quote, err := fn(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			shared.WriteJSONError(w, http.StatusNotFound, "quote not found")
		case errors.Is(err, ErrInvalidTransition):
			shared.WriteJSONError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("quote status change", slog.String("action", auditAction), slog.Any("error", err))
			shared.WriteJSONError(w, http.StatusInternalServerError, "quote status change failed")
		}
		return
	}
	h.recordAudit(r, auditAction, quote.ID)
	shared.WriteJSON(w, http.StatusOK, quote)
}

func (h *Handler) convertToInvoice(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.convertArgs(w, r)
	if !ok {
		return
	}
	inv, err := h.service.ConvertToInvoice(r.Context(), id, req.DueDate)
	if err != nil {
		h.convertError(w, err)
		return
	}
	h.recordAudit(r, "quote.converted_to_invoice", id)
	shared.WriteJSON(w, http.StatusOK, inv)
}

func (h *Handler) convertToWorkOrder(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.convertArgs(w, r)
	if !ok {
		return
	}
	wo, err := h.service.ConvertToWorkOrder(r.Context(), id, req.DueDate, req.AssigneeID)
	if err != nil {
		h.convertError(w, err)
		return
	}
	h.recordAudit(r, "quote.converted_to_work_order", id)
	shared.WriteJSON(w, http.StatusOK, wo)
}

func (h *Handler) convertArgs(w http.ResponseWriter, r *http.Request) (int64, convertRequest, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid quote id")
		return 0, convertRequest{}, false
	}
	var req convertRequest
	if r.ContentLength > 0 {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
			return 0, convertRequest{}, false
		}
	}
	return id, req, true
}

func (h *Handler) convertError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		shared.WriteJSONError(w, http.StatusNotFound, "quote not found")
	case errors.Is(err, ErrNotAccepted):
		shared.WriteJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		shared.WriteJSONError(w, http.StatusConflict, "conversion already in progress")
	default:
		h.logger.Error("quote convert", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "quote convert failed")
	}
}

func (h *Handler) recordAudit(r *http.Request, action string, id int64) {
	if h.audit == nil {
		return
	}
	var actorID int64
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		actorID, _ = sess.UserID()
	}
	err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "quote",
		EntityID: strconv.FormatInt(id, 10),
	})
	if err != nil {
		h.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

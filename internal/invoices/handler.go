package invoices

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

// Handler manages invoice endpoints.
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

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceInvoices, shared.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceInvoices, shared.ActionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceInvoices, shared.ActionUpdate))
		r.Post("/{id}/send", h.send)
		r.Post("/{id}/payment", h.recordPayment)
		r.Post("/{id}/void", h.void)
	})
}

type lineRequest struct {
	Description    string `json:"description" validate:"required,max=500"`
	Quantity       int64  `json:"quantity" validate:"required,gt=0"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"gte=0"`
}

type createRequest struct {
	CompanyID int64         `json:"company_id" validate:"required,gt=0"`
	DueDate   *time.Time    `json:"due_date"`
	Notes     string        `json:"notes" validate:"max=2000"`
	Lines     []lineRequest `json:"lines" validate:"required,min=1,dive"`
}

type invoiceResponse struct {
	Invoice
	EffectiveStatus string `json:"effective_status"`
}

func respond(inv Invoice, now time.Time) invoiceResponse {
	return invoiceResponse{Invoice: inv, EffectiveStatus: inv.EffectiveStatus(now)}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := shared.ParsePageQuery(q)
	filter := ListFilter{
		Status:      q.Get("status"),
		OnlyOverdue: q.Get("overdue") == "true",
	}
	if companyID, err := strconv.ParseInt(q.Get("company_id"), 10, 64); err == nil {
		filter.CompanyID = companyID
	}
	items, err := h.service.List(r.Context(), filter, shared.Pagination{Page: page, PerPage: perPage})
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "list invoices failed")
		return
	}
	now := time.Now()
	out := make([]invoiceResponse, 0, len(items))
	for _, inv := range items {
		out = append(out, respond(inv, now))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"invoices": out,
		"page":     page,
		"per_page": perPage,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "invoice not found")
			return
		}
		h.logger.Error("get invoice", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "get invoice failed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, respond(inv, time.Now()))
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
	in := Input{CompanyID: req.CompanyID, DueDate: req.DueDate, Notes: req.Notes}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		in.OwnerID, _ = sess.UserID()
	}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, LineInput{Description: l.Description, Quantity: l.Quantity, UnitPriceCents: l.UnitPriceCents})
	}
	inv, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.logger.Error("create invoice", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "create invoice failed")
		return
	}
	h.recordAudit(r, "invoice.created", inv.ID)
	shared.WriteJSON(w, http.StatusCreated, respond(inv, time.Now()))
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, "invoice.sent", h.service.Send)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, "invoice.paid", h.service.RecordPayment)
}

func (h *Handler) void(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, "invoice.voided", h.service.Void)
}

func (h *Handler) statusChange(w http.ResponseWriter, r *http.Request, auditAction string, fn func(ctx context.Context, id int64) (Invoice, error)) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}
	inv, err := fn(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			shared.WriteJSONError(w, http.StatusNotFound, "invoice not found")
		case errors.Is(err, ErrInvalidTransition):
			shared.WriteJSONError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("invoice status change", slog.String("action", auditAction), slog.Any("error", err))
			shared.WriteJSONError(w, http.StatusInternalServerError, "invoice status change failed")
		}
		return
	}
	h.recordAudit(r, auditAction, inv.ID)
	shared.WriteJSON(w, http.StatusOK, respond(inv, time.Now()))
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
		Entity:   "invoice",
		EntityID: strconv.FormatInt(id, 10),
	})
	if err != nil {
		h.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

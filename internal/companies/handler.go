package companies

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

// Handler manages company and contact endpoints.
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

// MountRoutes registers company routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceCompanies, shared.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceCompanies, shared.ActionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceCompanies, shared.ActionUpdate))
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceCompanies, shared.ActionDelete))
		r.Delete("/{id}", h.delete)
	})

	// Contacts nest under their company but carry their own resource.
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceContacts, shared.ActionRead))
		r.Get("/{id}/contacts", h.listContacts)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceContacts, shared.ActionCreate))
		r.Post("/{id}/contacts", h.createContact)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceContacts, shared.ActionUpdate))
		r.Put("/contacts/{contactID}", h.updateContact)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ResourceContacts, shared.ActionDelete))
		r.Delete("/contacts/{contactID}", h.deleteContact)
	})
}

type companyRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"max=50"`
	Address  string `json:"address" validate:"max=500"`
	TaxID    string `json:"tax_id" validate:"max=50"`
	Notes    string `json:"notes" validate:"max=2000"`
	IsActive *bool  `json:"is_active"`
}

func (req companyRequest) input() CompanyInput {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return CompanyInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		TaxID:    req.TaxID,
		Notes:    req.Notes,
		IsActive: active,
	}
}

type contactRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"max=50"`
	Role  string `json:"role" validate:"max=100"`
}

func (req contactRequest) input() ContactInput {
	return ContactInput{Name: req.Name, Email: req.Email, Phone: req.Phone, Role: req.Role}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (h *Handler) recordAudit(r *http.Request, action string, entity string, entityID int64) {
	if h.audit == nil {
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return
	}
	actorID, _ := sess.UserID()
	err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(entityID, 10),
	})
	if err != nil {
		h.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.ParsePageQuery(r.URL.Query())
	items, err := h.service.ListCompanies(r.Context(), shared.Pagination{Page: page, PerPage: perPage})
	if err != nil {
		h.logger.Error("list companies", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "list companies failed")
		return
	}
	if items == nil {
		items = []Company{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"companies": items,
		"page":      page,
		"per_page":  perPage,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid company id")
		return
	}
	company, err := h.service.GetCompany(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "company not found")
			return
		}
		h.logger.Error("get company", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "get company failed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, company)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	company, err := h.service.CreateCompany(r.Context(), req.input())
	if err != nil {
		h.logger.Error("create company", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "create company failed")
		return
	}
	h.recordAudit(r, "company.created", "company", company.ID)
	shared.WriteJSON(w, http.StatusCreated, company)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid company id")
		return
	}
	var req companyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	company, err := h.service.UpdateCompany(r.Context(), id, req.input())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "company not found")
			return
		}
		h.logger.Error("update company", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "update company failed")
		return
	}
	h.recordAudit(r, "company.updated", "company", company.ID)
	shared.WriteJSON(w, http.StatusOK, company)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid company id")
		return
	}
	if err := h.service.DeleteCompany(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "company not found")
			return
		}
		h.logger.Error("delete company", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "delete company failed")
		return
	}
	h.recordAudit(r, "company.deleted", "company", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listContacts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid company id")
		return
	}
	contacts, err := h.service.ListContacts(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "company not found")
			return
		}
		h.logger.Error("list contacts", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "list contacts failed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, contacts)
}

func (h *Handler) createContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid company id")
		return
	}
	var req contactRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	contact, err := h.service.CreateContact(r.Context(), id, req.input())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "company not found")
			return
		}
		h.logger.Error("create contact", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "create contact failed")
		return
	}
	h.recordAudit(r, "contact.created", "contact", contact.ID)
	shared.WriteJSON(w, http.StatusCreated, contact)
}

func (h *Handler) updateContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "contactID")
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid contact id")
		return
	}
	var req contactRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	contact, err := h.service.UpdateContact(r.Context(), id, req.input())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "contact not found")
			return
		}
		h.logger.Error("update contact", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "update contact failed")
		return
	}
	h.recordAudit(r, "contact.updated", "contact", contact.ID)
	shared.WriteJSON(w, http.StatusOK, contact)
}

func (h *Handler) deleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "contactID")
	if err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid contact id")
		return
	}
	if err := h.service.DeleteContact(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteJSONError(w, http.StatusNotFound, "contact not found")
			return
		}
		h.logger.Error("delete contact", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "delete contact failed")
		return
	}
	h.recordAudit(r, "contact.deleted", "contact", id)
	w.WriteHeader(http.StatusNoContent)
}

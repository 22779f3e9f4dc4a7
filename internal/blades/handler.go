package blades

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/printdesk/printdesk/internal/rbac"
	"github.com/printdesk/printdesk/internal/shared"
)

// Handler exposes the session panel stack over HTTP. All routes require an
// authenticated session but no resource permission: the stack is pure UI
// state. The client's escape-key handling maps onto the close-top endpoint.
type Handler struct {
	logger   *slog.Logger
	store    Store
	guard    rbac.Guard
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, guard rbac.Guard) *Handler {
	return &Handler{logger: logger, guard: guard, validate: validator.New()}
}

// MountRoutes registers blade routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated)
		r.Get("/", h.state)
		r.Post("/open", h.open)
		r.Post("/close-top", h.closeTop)
		r.Post("/close/{id}", h.closeAt)
		r.Post("/close-all", h.closeAll)
	})
}

type openRequest struct {
	Kind  string          `json:"kind" validate:"required"`
	Props json.RawMessage `json:"props,omitempty"`
	Label string          `json:"label,omitempty" validate:"max=200"`
	Width string          `json:"width,omitempty"`
}

type stateResponse struct {
	Panels []Panel `json:"panels"`
	Frames []Frame `json:"frames"`
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	stack := h.store.Load(shared.SessionFromContext(r.Context()))
	h.writeState(w, http.StatusOK, stack)
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := shared.SessionFromContext(r.Context())
	stack := h.store.Load(sess)

	_, err := stack.Open(Kind(req.Kind), req.Props, OpenOptions{
		Label: req.Label,
		Width: Width(req.Width),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrStackFull):
			h.logger.Warn("blade stack full, open rejected",
				slog.String("kind", req.Kind),
				slog.Int("open", stack.Len()))
			shared.WriteJSONError(w, http.StatusConflict, "panel stack is full")
		case errors.Is(err, ErrUnknownKind):
			shared.WriteJSONError(w, http.StatusBadRequest, "unknown panel kind")
		default:
			shared.WriteJSONError(w, http.StatusInternalServerError, "open panel failed")
		}
		return
	}

	if err := h.store.Save(sess, stack); err != nil {
		h.logger.Error("save blade stack", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "save panel stack failed")
		return
	}
	h.writeState(w, http.StatusCreated, stack)
}

func (h *Handler) closeTop(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(stack *Stack) {
		stack.CloseTop()
	})
}

func (h *Handler) closeAt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutate(w, r, func(stack *Stack) {
		stack.CloseAt(id)
	})
}

func (h *Handler) closeAll(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(stack *Stack) {
		stack.CloseAll()
	})
}

// mutate runs fn on the session stack and writes the resulting state. Close
// operations are idempotent: unknown ids and empty stacks are no-ops, never
// errors.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(*Stack)) {
	sess := shared.SessionFromContext(r.Context())
	stack := h.store.Load(sess)
	fn(&stack)
	if err := h.store.Save(sess, stack); err != nil {
		h.logger.Error("save blade stack", slog.Any("error", err))
		shared.WriteJSONError(w, http.StatusInternalServerError, "save panel stack failed")
		return
	}
	h.writeState(w, http.StatusOK, stack)
}

func (h *Handler) writeState(w http.ResponseWriter, status int, stack Stack) {
	shared.WriteJSON(w, status, stateResponse{Panels: stack.Panels(), Frames: stack.Frames()})
}

package rbac

import (
	"log/slog"
	"net/http"

	"github.com/printdesk/printdesk/internal/shared"
)

// Decision is the tri-state outcome of a server-side permission check.
type Decision struct {
	Allowed  bool
	Status   int
	Reason   string
	Resource string
	Action   string
}

// Guard enforces permissions at the request-handling boundary. It re-derives
// the snapshot for the session principal on every check; client-supplied
// claims are never trusted.
type Guard struct {
	Loader *Loader
	Logger *slog.Logger
}

// Check evaluates (resource, action) for the request principal.
func (g Guard) Check(r *http.Request, resource, action string) Decision {
	sess := shared.SessionFromContext(r.Context())
	userID, ok := int64(0), false
	if sess != nil {
		userID, ok = sess.UserID()
	}
	if !ok {
		return Decision{
			Status:   http.StatusUnauthorized,
			Reason:   "not logged in",
			Resource: resource,
			Action:   action,
		}
	}
	snap := g.Loader.Snapshot(r.Context(), userID)
	if !snap.Allow(resource, action) {
		return Decision{
			Status:   http.StatusForbidden,
			Reason:   DenialMessage(resource, action),
			Resource: resource,
			Action:   action,
		}
	}
	return Decision{Allowed: true, Resource: resource, Action: action}
}

// Require returns middleware rejecting requests lacking (resource, action).
// Denials are answered with a JSON body {error, resource, action} and 401 or
// 403 depending on whether a principal was resolved.
func (g Guard) Require(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := g.Check(r, resource, action)
			if !decision.Allowed {
				if g.Logger != nil {
					g.Logger.Info("permission denied",
						slog.String("resource", resource),
						slog.String("action", action),
						slog.Int("status", decision.Status),
						slog.String("path", r.URL.Path))
				}
				shared.WriteJSON(w, decision.Status, map[string]string{
					"error":    decision.Reason,
					"resource": decision.Resource,
					"action":   decision.Action,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated rejects anonymous requests without checking any
// resource permission. Used for pure UI-state endpoints.
func (g Guard) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			shared.WriteJSONError(w, http.StatusUnauthorized, "not logged in")
			return
		}
		if _, ok := sess.UserID(); !ok {
			shared.WriteJSONError(w, http.StatusUnauthorized, "not logged in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

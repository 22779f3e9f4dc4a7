package shared

import "errors"

// Sentinels shared across packages. Repositories translate pgx.ErrNoRows
// into ErrNotFound so handlers can map it to a 404 without knowing the
// storage layer.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// CSRF verification failures, distinguished so the middleware can log the
// absent-token and stale-token cases separately.
var (
	ErrCSRFTokenMissing  = errors.New("csrf token missing")
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

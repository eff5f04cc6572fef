package shared

import "errors"

// Sentinel errors for the role and menu management domain. Services wrap
// these with fmt.Errorf("...: %w", ...) and handlers map them to HTTP
// responses with errors.Is.
var (
	// ErrSecurity indicates a privilege-escalation or self-lockout guard
	// tripped. Never overridable by the caller.
	ErrSecurity = errors.New("security violation")
	// ErrNotFound indicates the requested role or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a role name collision.
	ErrAlreadyExists = errors.New("already exists")
	// ErrProtected indicates an attempt to delete or replace a built-in role.
	ErrProtected = errors.New("protected role")
	// ErrInvalidInput indicates a missing or malformed required field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPermissionDenied indicates the caller lacks the administrative
	// capability or presented an invalid anti-forgery token.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrCSRFTokenMissing occurs when no CSRF token accompanies a mutating request.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when the CSRF token does not match the session token.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

package auth

import (
	"errors"
	"fmt"
	"strings"
)

// Resolution and authorization failures. CredentialInvalid deliberately
// covers not-found, inactive and malformed credentials so callers cannot
// probe for existence.
var (
	ErrCredentialMissing = errors.New("auth: credential missing")
	ErrCredentialInvalid = errors.New("auth: credential invalid")
	ErrCredentialExpired = errors.New("auth: credential expired")
	ErrTokenInvalid      = errors.New("auth: token invalid")
	ErrTokenExpired      = errors.New("auth: token expired")

	// ErrStoreUnavailable marks transient lookup failures. Unlike the
	// credential errors above it is safe to retry and must never be
	// collapsed into ErrCredentialInvalid.
	ErrStoreUnavailable = errors.New("auth: store unavailable")
)

// Storage-level outcomes shared by Store implementations.
var (
	ErrNotFound      = errors.New("auth: not found")
	ErrAlreadyExists = errors.New("auth: already exists")
	ErrInvalidInput  = errors.New("auth: invalid input")
)

// ErrOutOfScope marks a record that exists but is outside the caller's
// tenant scope. It wraps ErrNotFound so the HTTP layer reports it as
// absence; existence must never leak across tenants as a 403.
var ErrOutOfScope = fmt.Errorf("auth: out of scope: %w", ErrNotFound)

// WeakPasswordError reports every failed strength rule at once so a caller
// can surface all of them in a single response.
type WeakPasswordError struct {
	Violations []PasswordViolation
}

func (e *WeakPasswordError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = string(v)
	}
	return fmt.Sprintf("auth: weak password: %s", strings.Join(parts, ", "))
}

package core

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable class of a core error. The HTTP
// layer maps kinds to status codes; the engine never speaks HTTP.
type ErrorKind string

const (
	ErrInvalidRequest    ErrorKind = "invalid_request"
	ErrUnauthorized      ErrorKind = "unauthorized"
	ErrNotFound          ErrorKind = "not_found"
	ErrHouseholdMismatch ErrorKind = "household_mismatch"
	ErrConflict          ErrorKind = "conflict"
	ErrProviderFailure   ErrorKind = "provider_failure"
	ErrExtractorFailure  ErrorKind = "extractor_failure"
)

// Issue points at one invalid field in a request.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error is the typed error surfaced by engine operations.
type Error struct {
	Kind    ErrorKind `json:"error"`
	Message string    `json:"message,omitempty"`
	Issues  []Issue   `json:"issues,omitempty"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NotFound reports an unknown id.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// HouseholdMismatch reports cross-household access. The transport layer
// renders it as a plain not-found so callers cannot probe for ids.
func HouseholdMismatch() *Error {
	return &Error{Kind: ErrHouseholdMismatch, Message: "not found"}
}

// InvalidRequest reports one or more field-level issues.
func InvalidRequest(issues ...Issue) *Error {
	return &Error{Kind: ErrInvalidRequest, Message: "invalid request", Issues: issues}
}

// Invalidf reports a single-issue invalid request.
func Invalidf(path, format string, args ...any) *Error {
	return InvalidRequest(Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Conflictf reports an action attempted in the wrong state.
func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a core Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

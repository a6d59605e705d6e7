package domain

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling in the
// HTTP layer without the layer knowing every concrete error type.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")

	// ErrInvalidIndex indicates a negative sibling index passed to the label codec.
	ErrInvalidIndex = errors.New("invalid sibling index")

	// ErrInvalidLabel indicates a path label containing runes outside 'a'-'z'.
	ErrInvalidLabel = errors.New("invalid path label")
)

// OrphanedSubtreeError indicates a comment append that claimed a parent path
// whose grandparent subtree does not exist. This is the "possible hack
// attempt" class: the caller fabricated a path that was never handed out.
type OrphanedSubtreeError struct {
	SubtreeID string // the claimed parent path
	Detail    string
}

func (e *OrphanedSubtreeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("orphaned subtree %q: %s", e.SubtreeID, e.Detail)
	}
	return fmt.Sprintf("orphaned subtree %q: no such ancestor", e.SubtreeID)
}

func (e *OrphanedSubtreeError) StatusCode() int { return http.StatusNotFound }

// IdentityForgeryError indicates a parent identity token that does not match
// the child identity recorded in the grandparent's comment at the claimed
// position. Callers must not retry; this is a malicious or buggy client.
type IdentityForgeryError struct {
	ParentID  uuid.UUID
	SubtreeID string
}

func (e *IdentityForgeryError) Error() string {
	return fmt.Sprintf("identity %s does not match subtree %q", e.ParentID, e.SubtreeID)
}

func (e *IdentityForgeryError) StatusCode() int { return http.StatusForbidden }

// ValidationStoreError wraps a store failure that happened while running the
// ancestry validation protocol. Distinct from the forgery class: the claim
// could not be checked at all, and the speculative node has been rolled back.
type ValidationStoreError struct {
	SubtreeID string
	Err       error
}

func (e *ValidationStoreError) Error() string {
	return fmt.Sprintf("ancestry validation of subtree %q failed: %v", e.SubtreeID, e.Err)
}

func (e *ValidationStoreError) Unwrap() error { return e.Err }

func (e *ValidationStoreError) StatusCode() int { return http.StatusServiceUnavailable }

// RollbackError reports that the compensating delete after a failed ancestry
// validation itself failed, leaving an unvalidated node behind. The original
// validation failure stays the primary cause; the rollback failure is carried
// alongside it, never swallowed.
type RollbackError struct {
	Cause    error // the validation failure that triggered the rollback
	Rollback error // the delete failure
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("%v (rollback also failed: %v)", e.Cause, e.Rollback)
}

// Unwrap exposes both causes so errors.Is/As still match the validation
// failure as well as the rollback failure.
func (e *RollbackError) Unwrap() []error { return []error{e.Cause, e.Rollback} }

func (e *RollbackError) StatusCode() int {
	var httpErr HTTPError
	if errors.As(e.Cause, &httpErr) {
		return httpErr.StatusCode()
	}
	return http.StatusInternalServerError
}

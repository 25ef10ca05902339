package forms

import (
	"errors"
	"fmt"

	"github.com/past0101/gstravel/model"
)

// Failure taxonomy of the form core. Every error is handled at the
// boundary of the action that raised it; none aborts rendering.
var (
	// ErrNoEventSelected: save attempted with no target event. The draft
	// is retained.
	ErrNoEventSelected = errors.New("forms: no event selected")

	// ErrConsentRequired: public-mode submit without the GDPR
	// acknowledgment. Distinct from field-level validation failures.
	ErrConsentRequired = errors.New("forms: consent required")

	// ErrNoForm: submit attempted while no form is configured.
	ErrNoForm = errors.New("forms: no form configured")
)

// ValidationError reports per-field failures at submit time. The
// submission is aborted and nothing is written.
type ValidationError struct {
	Fields model.FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("forms: validation failed for %d field(s)", len(e.Fields))
}

// PersistenceError wraps a rejected store call. There is no automatic
// retry; local state is preserved so the caller can retry the action.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("forms: %s: %s", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

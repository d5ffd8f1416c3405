package flow

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic checks via errors.Is().
var (
	// ErrNotFound indicates a referenced document, node or phase does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates an attempt to create an entity whose id already exists.
	ErrConflict = errors.New("conflict")

	// ErrMalformed indicates unparseable content or a missing required argument.
	ErrMalformed = errors.New("malformed input")

	// ErrValidation indicates a document that violates the format rules.
	ErrValidation = errors.New("validation failed")

	// ErrIO indicates an underlying storage failure.
	ErrIO = errors.New("storage failure")
)

// NotFoundError reports a missing entity of the given kind.
type NotFoundError struct {
	Kind string // "flow", "node", "phase", "revision"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError reports a create attempt against an existing id.
type ConflictError struct {
	Kind string
	ID   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.ID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// MalformedError reports bad input detected before any I/O.
type MalformedError struct {
	Msg string
	Err error // optional underlying cause, e.g. from json.Unmarshal
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *MalformedError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformed, e.Err}
	}
	return []error{ErrMalformed}
}

// Malformedf builds a MalformedError from a format string.
func Malformedf(format string, args ...any) error {
	return &MalformedError{Msg: fmt.Sprintf(format, args...)}
}

// ValidationError carries the full violation list of a rejected document.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "document has %d violation(s)", len(e.Violations))
	for _, v := range e.Violations {
		fmt.Fprintf(&b, "\n  - %s", v)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PatchError reports the first patch operation that cannot be applied.
// Index is zero-based within the submitted sequence.
type PatchError struct {
	Index  int
	Op     string
	Path   string
	Reason string
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch operation %d (%s %s): %s", e.Index, e.Op, e.Path, e.Reason)
}

func (e *PatchError) Unwrap() error { return ErrMalformed }

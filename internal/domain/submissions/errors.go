package submissions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrControlNotFound    = errors.New("control not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrTerminalState      = errors.New("submission is in a terminal state")
	ErrPendingControls    = errors.New("pending controls exist")
	ErrInvalidScore       = errors.New("invalid confidence score")
	ErrExternalStore      = errors.New("external store error")

	// ErrVersionConflict is returned by a record store when a conditional
	// patch loses against a concurrent writer.
	ErrVersionConflict = errors.New("version conflict")
	// ErrBlobNotFound is returned by a blob store Get for a missing key.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrOutputNotFound is returned when no analysis output exists yet.
	ErrOutputNotFound = errors.New("validation output not found")
)

// FieldError is one intake violation.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError lists every intake violation at once.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) add(field, code, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Code: code, Message: msg})
}

func (e *ValidationError) hasIssues() bool { return len(e.Fields) > 0 }

func (e *ValidationError) sort() {
	sort.SliceStable(e.Fields, func(i, j int) bool { return e.Fields[i].Field < e.Fields[j].Field })
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StoreError wraps an I/O failure from the blob, record or analysis stores.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrExternalStore, e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{ErrExternalStore, e.Err} }

// NewStoreError wraps err unless it is nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// IsDomainError reports errors that describe state, not I/O. Those are
// never retried.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrInvalidTransition, ErrControlNotFound, ErrSubmissionNotFound,
		ErrTerminalState, ErrPendingControls, ErrInvalidScore, ErrVersionConflict,
		ErrBlobNotFound, ErrOutputNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

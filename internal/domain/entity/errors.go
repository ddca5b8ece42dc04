package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy for lifecycle operations. Callers match with errors.Is
// against the sentinels; the DocumentError carries the context needed to
// render an actionable message without re-deriving it.
var (
	// ErrNotFound is returned for an unknown document number
	ErrNotFound = errors.New("document not found")

	// ErrValidation is returned for malformed input (missing field, bad quantity, inactive material)
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when an operation is illegal from the document's current status
	ErrConflict = errors.New("invalid transition")

	// ErrUnprocessable is returned when a receipt batch would overshoot an ordered quantity
	ErrUnprocessable = errors.New("unprocessable receipt")
)

// DocumentError is the typed error returned across the facade boundary. It
// names the document, the attempted operation, and the offending field or
// item number when one is known. ItemNumber is 1-based; zero means the error
// is not item-scoped.
type DocumentError struct {
	Kind       error
	DocType    DocumentType
	Number     string
	Op         string
	Field      string
	ItemNumber int
	Message    string
}

// Error renders the full context of the failure
func (e *DocumentError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.DocType, e.Op)
	if e.Number != "" {
		fmt.Fprintf(&b, " %s", e.Number)
	}
	fmt.Fprintf(&b, ": %s", e.Kind)
	if e.ItemNumber > 0 {
		fmt.Fprintf(&b, " (item %d)", e.ItemNumber)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %s)", e.Field)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	return b.String()
}

// Unwrap exposes the taxonomy sentinel for errors.Is
func (e *DocumentError) Unwrap() error {
	return e.Kind
}

// NewNotFound reports an unknown document number
func NewNotFound(docType DocumentType, number, op string) error {
	return &DocumentError{Kind: ErrNotFound, DocType: docType, Number: number, Op: op}
}

// NewValidation reports malformed input. itemNumber may be zero for
// document-level fields.
func NewValidation(docType DocumentType, number, op, field string, itemNumber int, msg string) error {
	return &DocumentError{
		Kind:       ErrValidation,
		DocType:    docType,
		Number:     number,
		Op:         op,
		Field:      field,
		ItemNumber: itemNumber,
		Message:    msg,
	}
}

// NewConflict reports an operation attempted from an illegal source status
func NewConflict(docType DocumentType, number, op, currentStatus string) error {
	return &DocumentError{
		Kind:    ErrConflict,
		DocType: docType,
		Number:  number,
		Op:      op,
		Message: fmt.Sprintf("not allowed from status %s", currentStatus),
	}
}

// NewUnprocessable reports a receipt that would exceed an ordered quantity
func NewUnprocessable(docType DocumentType, number, op string, itemNumber int, msg string) error {
	return &DocumentError{
		Kind:       ErrUnprocessable,
		DocType:    docType,
		Number:     number,
		Op:         op,
		ItemNumber: itemNumber,
		Message:    msg,
	}
}

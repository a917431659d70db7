package notes

import (
	"fmt"
	"strings"

	"github.com/tphakala/notekeeper/internal/access"
	"github.com/tphakala/notekeeper/internal/datastore/repository"
	"github.com/tphakala/notekeeper/internal/errors"
)

// Sentinel errors returned by the service.
var (
	// ErrNoteNotFound is returned when a note is absent or not visible to the caller.
	ErrNoteNotFound = repository.ErrNoteNotFound

	// ErrAuditEntryNotFound is returned when an audit entry does not exist.
	ErrAuditEntryNotFound = repository.ErrAuditEntryNotFound

	// ErrNoFieldsToUpdate is returned by Update when neither title nor content is given.
	ErrNoFieldsToUpdate = errors.NewStd("No fields provided to update")

	// ErrPermissionDenied is returned when the caller's role may not run the operation.
	ErrPermissionDenied = access.ErrPermissionDenied

	// ErrStoreBusy is returned when the database rejected the operation because
	// of lock contention. The operation can be retried.
	ErrStoreBusy = repository.ErrDatabaseBusy
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every invalid field of one request.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "Validation failed: " + strings.Join(parts, "; ")
}

// ErrorCategory lets the errors package classify validation failures.
func (e *ValidationError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryValidation
}

// add appends a field error
func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// orNil returns e when it holds at least one field error
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// notFound wraps ErrNoteNotFound with the requested id
func notFound(id uint) error {
	return errors.New(ErrNoteNotFound).
		Component("notes").
		Category(errors.CategoryNotFound).
		Context("note_id", id).
		Build()
}

// Outcome label values for note operation metrics.
const (
	OutcomeSuccess          = "success"
	OutcomeValidation       = "validation_error"
	OutcomeNothingToUpdate  = "nothing_to_update"
	OutcomePermissionDenied = "permission_denied"
	OutcomeNotFound         = "not_found"
	OutcomeBusy             = "busy"
	OutcomeError            = "error"
)

// outcomeOf classifies an operation result for metrics
func outcomeOf(err error) string {
	var validationErr *ValidationError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrNoFieldsToUpdate):
		return OutcomeNothingToUpdate
	case errors.As(err, &validationErr):
		return OutcomeValidation
	case errors.Is(err, ErrPermissionDenied):
		return OutcomePermissionDenied
	case errors.Is(err, ErrNoteNotFound), errors.Is(err, ErrAuditEntryNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrStoreBusy):
		return OutcomeBusy
	default:
		return OutcomeError
	}
}

package billing

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("billing: not found")
	ErrAlreadyExists = errors.New("billing: already exists")
	ErrInvalidInput  = errors.New("billing: invalid input")

	// Roster errors
	ErrParentNotFound  = errors.New("billing: parent not found")
	ErrStudentNotFound = errors.New("billing: student not found")
	ErrTutorNotFound   = errors.New("billing: tutor not found")

	// Session errors
	ErrSessionNotFound    = errors.New("billing: session not found")
	ErrSessionNotBillable = errors.New("billing: session not in a billable status")
	ErrSessionWrongParent = errors.New("billing: session does not belong to parent")
	ErrSessionWrongTutor  = errors.New("billing: session does not belong to tutor")
	ErrEmptySelection     = errors.New("billing: empty session selection")

	// ErrBillingConflict means a selected session was claimed by a
	// concurrent billing operation between selection and commit. The whole
	// operation fails; the caller re-selects and retries. Silently dropping
	// the conflicting session would produce a record whose total does not
	// match what the operator reviewed.
	ErrBillingConflict = errors.New("billing: session already claimed by another billing record")

	// Invoice errors
	ErrInvoiceNotFound     = errors.New("billing: invoice not found")
	ErrInvalidStatusChange = errors.New("billing: illegal status transition")

	// Pay stub errors
	ErrPayStubNotFound = errors.New("billing: pay stub not found")

	// Store errors
	ErrStoreNotReady     = errors.New("billing: store not ready")
	ErrStoreClosed       = errors.New("billing: store is closed")
	ErrTransactionFailed = errors.New("billing: transaction failed")
	ErrMigrationFailed   = errors.New("billing: migration failed")
)

// ValidationError represents an input validation failure with details.
// Input errors are rejected before any write and have no side effects.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("billing: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrParentNotFound) ||
		errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrTutorNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrPayStubNotFound)
}

// IsConflict returns true if the error is a lost billing race. The caller
// should re-select and retry; the engine never retries on its own.
func IsConflict(err error) bool {
	return errors.Is(err, ErrBillingConflict)
}

// IsInputError returns true if the error was rejected before any write.
func IsInputError(err error) bool {
	var ve ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptySelection) ||
		errors.Is(err, ErrSessionNotBillable) ||
		errors.Is(err, ErrSessionWrongParent) ||
		errors.Is(err, ErrSessionWrongTutor) ||
		errors.Is(err, ErrInvalidStatusChange)
}

// IsRetryable returns true if the error is temporary and the operation can
// be retried as-is (store hiccups). Conflicts are deliberately excluded:
// they require a fresh selection first.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}

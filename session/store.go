package session

import (
	"context"

	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
)

// Store is the session-ledger view of the storage layer.
//
// It deliberately exposes no way to change a session's billing flags or
// back-references: those fields are mutated only by the unified store's
// atomic generate and void operations.
type Store interface {
	// Put records a session fed in from the scheduling subsystem, or
	// replaces its scheduling fields. Billing fields on the stored record
	// are preserved across replacement.
	Put(ctx context.Context, s *Session) error

	Get(ctx context.Context, sessID id.SessionID) (*Session, error)
	GetMany(ctx context.Context, sessIDs []id.SessionID) ([]*Session, error)

	// ListByParent returns sessions keyed directly to the parent.
	ListByParent(ctx context.Context, parentID id.ParentID, opts ListOpts) ([]*Session, error)
	// ListByStudents returns sessions keyed through any of the students.
	ListByStudents(ctx context.Context, studentIDs []id.StudentID, opts ListOpts) ([]*Session, error)
	ListByTutor(ctx context.Context, tutorID id.TutorID, opts ListOpts) ([]*Session, error)

	// ListByInvoice and ListByPayStub query the live back-references. The
	// void path relies on these, never on a record's stored line items.
	ListByInvoice(ctx context.Context, invID id.InvoiceID) ([]*Session, error)
	ListByPayStub(ctx context.Context, stubID id.PayStubID) ([]*Session, error)
}

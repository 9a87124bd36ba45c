// Package store defines the unified storage interface for the billing engine.
package store

import (
	"context"
	"time"

	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/invoice"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/paystub"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/roster"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/session"
)

// Store is the unified storage interface for all billing entities.
// Instead of embedding the sub-interfaces, all methods are declared
// explicitly to avoid naming conflicts.
//
// The four Commit/Void methods are the only code paths anywhere in the
// system allowed to touch a session's billing flags and back-references.
// Each executes as a single all-or-nothing transaction: reads validated and
// writes applied together, or nothing at all.
type Store interface {
	// Roster methods
	CreateParent(ctx context.Context, p *roster.Parent) error
	GetParent(ctx context.Context, parentID id.ParentID) (*roster.Parent, error)
	ListParents(ctx context.Context) ([]*roster.Parent, error)
	UpdateParent(ctx context.Context, p *roster.Parent) error
	CreateStudent(ctx context.Context, s *roster.Student) error
	GetStudent(ctx context.Context, studentID id.StudentID) (*roster.Student, error)
	ListStudentsByParent(ctx context.Context, parentID id.ParentID) ([]*roster.Student, error)
	UpdateStudent(ctx context.Context, s *roster.Student) error
	CreateTutor(ctx context.Context, t *roster.Tutor) error
	GetTutor(ctx context.Context, tutorID id.TutorID) (*roster.Tutor, error)
	ListTutors(ctx context.Context) ([]*roster.Tutor, error)
	UpdateTutor(ctx context.Context, t *roster.Tutor) error

	// Session ledger methods
	PutSession(ctx context.Context, s *session.Session) error
	GetSession(ctx context.Context, sessID id.SessionID) (*session.Session, error)
	GetSessions(ctx context.Context, sessIDs []id.SessionID) ([]*session.Session, error)
	ListSessionsByParent(ctx context.Context, parentID id.ParentID, opts session.ListOpts) ([]*session.Session, error)
	ListSessionsByStudents(ctx context.Context, studentIDs []id.StudentID, opts session.ListOpts) ([]*session.Session, error)
	ListSessionsByTutor(ctx context.Context, tutorID id.TutorID, opts session.ListOpts) ([]*session.Session, error)
	ListSessionsByInvoice(ctx context.Context, invID id.InvoiceID) ([]*session.Session, error)
	ListSessionsByPayStub(ctx context.Context, stubID id.PayStubID) ([]*session.Session, error)

	// CommitInvoice atomically: re-verifies that every listed session exists,
	// is billable, and is still unbilled to its parent; claims them (flag +
	// back-reference to inv.ID); mints inv.Number from the invoice sequence;
	// and inserts the invoice. A session claimed by a concurrent operation
	// since selection fails the whole commit with ErrBillingConflict and no
	// state changes. A failed commit rolls the sequence back with it.
	CommitInvoice(ctx context.Context, inv *invoice.Invoice, sessIDs []id.SessionID) error

	// CommitPayStub is CommitInvoice for the payee track: claims the sessions
	// (paid flag + pay stub back-reference), mints stub.Sequence/stub.Number
	// from the pay stub sequence, and inserts the stub.
	CommitPayStub(ctx context.Context, stub *paystub.PayStub, sessIDs []id.SessionID) error

	// VoidInvoice atomically deletes the invoice and reverts every session
	// whose live back-reference equals invID — derived by querying the
	// ledger, never from the invoice's own line items. Returns the number of
	// sessions reverted.
	VoidInvoice(ctx context.Context, invID id.InvoiceID) (int, error)

	// VoidPayStub is VoidInvoice for the payee track.
	VoidPayStub(ctx context.Context, stubID id.PayStubID) (int, error)

	// Invoice methods
	GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error)
	ListInvoices(ctx context.Context, parentID id.ParentID, opts invoice.ListOpts) ([]*invoice.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, invID id.InvoiceID, to invoice.Status, at time.Time) error

	// Pay stub methods
	GetPayStub(ctx context.Context, stubID id.PayStubID) (*paystub.PayStub, error)
	ListPayStubs(ctx context.Context, tutorID id.TutorID, opts paystub.ListOpts) ([]*paystub.PayStub, error)
	UpdatePayStubStatus(ctx context.Context, stubID id.PayStubID, to paystub.Status, at time.Time) error

	// Lifecycle methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

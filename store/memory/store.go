// Package memory provides an in-memory store for the billing engine.
// It is the reference backend for tests and demos; all atomic operations
// are serialized under a single mutex.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	billing "github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/invoice"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/paystub"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/roster"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/session"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/store"
)

// Sequence counter names.
const (
	seqInvoice = "invoice"
	seqPayStub = "paystub"
)

// Counters start here so display numbers have a stable width.
const seqSeed = 1000

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store.
//
// Every method that touches session billing state runs under the single
// write lock, which makes each commit/void trivially all-or-nothing: state
// is only mutated after the whole read set has been validated.
type Store struct {
	mu sync.RWMutex

	parents  map[string]*roster.Parent
	students map[string]*roster.Student
	tutors   map[string]*roster.Tutor

	sessions map[string]*session.Session

	invoices map[string]*invoice.Invoice
	paystubs map[string]*paystub.PayStub

	sequences map[string]int64

	closed bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		parents:   make(map[string]*roster.Parent),
		students:  make(map[string]*roster.Student),
		tutors:    make(map[string]*roster.Tutor),
		sessions:  make(map[string]*session.Session),
		invoices:  make(map[string]*invoice.Invoice),
		paystubs:  make(map[string]*paystub.PayStub),
		sequences: make(map[string]int64),
	}
}

// ==================== Roster ====================

func (s *Store) CreateParent(_ context.Context, p *roster.Parent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.parents[p.ID.String()]; exists {
		return billing.ErrAlreadyExists
	}
	s.parents[p.ID.String()] = p
	return nil
}

func (s *Store) GetParent(_ context.Context, parentID id.ParentID) (*roster.Parent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.parents[parentID.String()]; ok {
		return p, nil
	}
	return nil, billing.ErrParentNotFound
}

func (s *Store) ListParents(_ context.Context) ([]*roster.Parent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*roster.Parent, 0, len(s.parents))
	for _, p := range s.parents {
		result = append(result, p)
	}
	return result, nil
}

func (s *Store) UpdateParent(_ context.Context, p *roster.Parent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.parents[p.ID.String()]; !exists {
		return billing.ErrParentNotFound
	}
	s.parents[p.ID.String()] = p
	return nil
}

func (s *Store) CreateStudent(_ context.Context, st *roster.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.students[st.ID.String()]; exists {
		return billing.ErrAlreadyExists
	}
	s.students[st.ID.String()] = st
	return nil
}

func (s *Store) GetStudent(_ context.Context, studentID id.StudentID) (*roster.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.students[studentID.String()]; ok {
		return st, nil
	}
	return nil, billing.ErrStudentNotFound
}

func (s *Store) ListStudentsByParent(_ context.Context, parentID id.ParentID) ([]*roster.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*roster.Student, 0)
	for _, st := range s.students {
		if st.ParentID == parentID {
			result = append(result, st)
		}
	}
	return result, nil
}

func (s *Store) UpdateStudent(_ context.Context, st *roster.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.students[st.ID.String()]; !exists {
		return billing.ErrStudentNotFound
	}
	s.students[st.ID.String()] = st
	return nil
}

func (s *Store) CreateTutor(_ context.Context, t *roster.Tutor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tutors[t.ID.String()]; exists {
		return billing.ErrAlreadyExists
	}
	s.tutors[t.ID.String()] = t
	return nil
}

func (s *Store) GetTutor(_ context.Context, tutorID id.TutorID) (*roster.Tutor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.tutors[tutorID.String()]; ok {
		return t, nil
	}
	return nil, billing.ErrTutorNotFound
}

func (s *Store) ListTutors(_ context.Context) ([]*roster.Tutor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*roster.Tutor, 0, len(s.tutors))
	for _, t := range s.tutors {
		result = append(result, t)
	}
	return result, nil
}

func (s *Store) UpdateTutor(_ context.Context, t *roster.Tutor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tutors[t.ID.String()]; !exists {
		return billing.ErrTutorNotFound
	}
	s.tutors[t.ID.String()] = t
	return nil
}

// ==================== Session Ledger ====================

// PutSession stores a clone of the session. Billing fields on an existing
// record are preserved: only the atomic commit/void operations change them.
func (s *Store) PutSession(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := sess.Clone()
	if prev, ok := s.sessions[sess.ID.String()]; ok {
		stored.BilledToParent = prev.BilledToParent
		stored.InvoiceID = prev.InvoiceID
		stored.PaidToTutor = prev.PaidToTutor
		stored.PayStubID = prev.PayStubID
	}
	s.sessions[sess.ID.String()] = stored
	return nil
}

func (s *Store) GetSession(_ context.Context, sessID id.SessionID) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, ok := s.sessions[sessID.String()]; ok {
		return sess.Clone(), nil
	}
	return nil, billing.ErrSessionNotFound
}

// GetSessions returns the requested sessions. Any missing ID fails the
// whole call.
func (s *Store) GetSessions(_ context.Context, sessIDs []id.SessionID) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*session.Session, 0, len(sessIDs))
	for _, sessID := range sessIDs {
		sess, ok := s.sessions[sessID.String()]
		if !ok {
			return nil, fmt.Errorf("%w: %s", billing.ErrSessionNotFound, sessID)
		}
		result = append(result, sess.Clone())
	}
	return result, nil
}

func (s *Store) ListSessionsByParent(_ context.Context, parentID id.ParentID, opts session.ListOpts) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*session.Session, 0)
	for _, sess := range s.sessions {
		if sess.ParentID == parentID && opts.Matches(sess) {
			result = append(result, sess.Clone())
		}
	}
	return applyWindow(result, opts.Limit, opts.Offset), nil
}

func (s *Store) ListSessionsByStudents(_ context.Context, studentIDs []id.StudentID, opts session.ListOpts) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(studentIDs))
	for _, sid := range studentIDs {
		wanted[sid.String()] = true
	}

	result := make([]*session.Session, 0)
	for _, sess := range s.sessions {
		if wanted[sess.StudentID.String()] && opts.Matches(sess) {
			result = append(result, sess.Clone())
		}
	}
	return applyWindow(result, opts.Limit, opts.Offset), nil
}

func (s *Store) ListSessionsByTutor(_ context.Context, tutorID id.TutorID, opts session.ListOpts) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*session.Session, 0)
	for _, sess := range s.sessions {
		if sess.TutorID == tutorID && opts.Matches(sess) {
			result = append(result, sess.Clone())
		}
	}
	return applyWindow(result, opts.Limit, opts.Offset), nil
}

func (s *Store) ListSessionsByInvoice(_ context.Context, invID id.InvoiceID) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*session.Session, 0)
	for _, sess := range s.sessions {
		if sess.InvoiceID == invID {
			result = append(result, sess.Clone())
		}
	}
	return result, nil
}

func (s *Store) ListSessionsByPayStub(_ context.Context, stubID id.PayStubID) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*session.Session, 0)
	for _, sess := range s.sessions {
		if sess.PayStubID == stubID {
			result = append(result, sess.Clone())
		}
	}
	return result, nil
}

// ==================== Atomic Billing Operations ====================

// CommitInvoice validates the whole read set under the write lock, then
// applies every write. Nothing is mutated before validation completes, so
// a conflict leaves no trace.
func (s *Store) CommitInvoice(_ context.Context, inv *invoice.Invoice, sessIDs []id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID.String()]; exists {
		return billing.ErrAlreadyExists
	}

	claimed := make([]*session.Session, 0, len(sessIDs))
	for _, sessID := range sessIDs {
		sess, ok := s.sessions[sessID.String()]
		if !ok {
			return fmt.Errorf("%w: %s", billing.ErrSessionNotFound, sessID)
		}
		if !sess.Billable() {
			return fmt.Errorf("%w: session %s is %s", billing.ErrSessionNotBillable, sessID, sess.Status)
		}
		if sess.BilledToParent {
			return fmt.Errorf("%w: session %s", billing.ErrBillingConflict, sessID)
		}
		claimed = append(claimed, sess)
	}

	inv.Number = invoice.FormatNumber(s.nextSequence(seqInvoice))

	for _, sess := range claimed {
		sess.BilledToParent = true
		sess.InvoiceID = inv.ID
		sess.Touch()
	}
	s.invoices[inv.ID.String()] = inv

	return nil
}

// CommitPayStub mirrors CommitInvoice on the payee track, minting the stub
// sequence inside the same critical section.
func (s *Store) CommitPayStub(_ context.Context, stub *paystub.PayStub, sessIDs []id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.paystubs[stub.ID.String()]; exists {
		return billing.ErrAlreadyExists
	}

	claimed := make([]*session.Session, 0, len(sessIDs))
	for _, sessID := range sessIDs {
		sess, ok := s.sessions[sessID.String()]
		if !ok {
			return fmt.Errorf("%w: %s", billing.ErrSessionNotFound, sessID)
		}
		if !sess.Billable() {
			return fmt.Errorf("%w: session %s is %s", billing.ErrSessionNotBillable, sessID, sess.Status)
		}
		if sess.PaidToTutor {
			return fmt.Errorf("%w: session %s", billing.ErrBillingConflict, sessID)
		}
		claimed = append(claimed, sess)
	}

	stub.SetSequence(s.nextSequence(seqPayStub))

	for _, sess := range claimed {
		sess.PaidToTutor = true
		sess.PayStubID = stub.ID
		sess.Touch()
	}
	s.paystubs[stub.ID.String()] = stub

	return nil
}

// VoidInvoice deletes the invoice and reverts every session whose live
// back-reference points at it — the stored line items are ignored.
func (s *Store) VoidInvoice(_ context.Context, invID id.InvoiceID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[invID.String()]; !exists {
		return 0, billing.ErrInvoiceNotFound
	}

	reverted := 0
	for _, sess := range s.sessions {
		if sess.InvoiceID == invID {
			sess.BilledToParent = false
			sess.InvoiceID = id.Nil
			sess.Touch()
			reverted++
		}
	}
	delete(s.invoices, invID.String())

	return reverted, nil
}

// VoidPayStub mirrors VoidInvoice on the payee track.
func (s *Store) VoidPayStub(_ context.Context, stubID id.PayStubID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.paystubs[stubID.String()]; !exists {
		return 0, billing.ErrPayStubNotFound
	}

	reverted := 0
	for _, sess := range s.sessions {
		if sess.PayStubID == stubID {
			sess.PaidToTutor = false
			sess.PayStubID = id.Nil
			sess.Touch()
			reverted++
		}
	}
	delete(s.paystubs, stubID.String())

	return reverted, nil
}

// nextSequence mints the next counter value. Callers must hold the write
// lock, which is what makes the read-modify-write atomic here.
func (s *Store) nextSequence(name string) int64 {
	current, ok := s.sequences[name]
	if !ok {
		current = seqSeed
	}
	s.sequences[name] = current + 1
	return current
}

// ==================== Invoices ====================

func (s *Store) GetInvoice(_ context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, ok := s.invoices[invID.String()]; ok {
		return inv, nil
	}
	return nil, billing.ErrInvoiceNotFound
}

func (s *Store) ListInvoices(_ context.Context, parentID id.ParentID, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*invoice.Invoice, 0)
	for _, inv := range s.invoices {
		if inv.ParentID != parentID {
			continue
		}
		if opts.Status != "" && inv.Status != opts.Status {
			continue
		}
		if !opts.Start.IsZero() && inv.IssueDate.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && inv.IssueDate.After(opts.End) {
			continue
		}
		result = append(result, inv)
	}
	return applyWindow(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateInvoiceStatus(_ context.Context, invID id.InvoiceID, to invoice.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[invID.String()]
	if !ok {
		return billing.ErrInvoiceNotFound
	}
	inv.Status = to
	inv.UpdatedAt = at
	return nil
}

// ==================== Pay Stubs ====================

func (s *Store) GetPayStub(_ context.Context, stubID id.PayStubID) (*paystub.PayStub, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if stub, ok := s.paystubs[stubID.String()]; ok {
		return stub, nil
	}
	return nil, billing.ErrPayStubNotFound
}

func (s *Store) ListPayStubs(_ context.Context, tutorID id.TutorID, opts paystub.ListOpts) ([]*paystub.PayStub, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*paystub.PayStub, 0)
	for _, stub := range s.paystubs {
		if stub.TutorID != tutorID {
			continue
		}
		if opts.Status != "" && stub.Status != opts.Status {
			continue
		}
		if !opts.Start.IsZero() && stub.IssueDate.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && stub.IssueDate.After(opts.End) {
			continue
		}
		result = append(result, stub)
	}
	return applyWindow(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdatePayStubStatus(_ context.Context, stubID id.PayStubID, to paystub.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stub, ok := s.paystubs[stubID.String()]
	if !ok {
		return billing.ErrPayStubNotFound
	}
	stub.Status = to
	stub.UpdatedAt = at
	return nil
}

// ==================== Lifecycle ====================

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return billing.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// applyWindow applies limit/offset to a result slice.
func applyWindow[T any](result []T, limit, offset int) []T {
	start := offset
	if start > len(result) {
		start = len(result)
	}
	end := start + limit
	if limit == 0 || end > len(result) {
		end = len(result)
	}
	return result[start:end]
}

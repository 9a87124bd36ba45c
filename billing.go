package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/invoice"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/paystub"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/plugin"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/roster"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/session"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/store"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/types"
)

// Engine is the billing and payroll reconciliation engine.
//
// It turns sessions into invoices and pay stubs, tracks which sessions have
// been billed or paid out, and reverses billing while keeping the session
// ledger and the billing records mutually consistent. All shared mutable
// state (session billing flags, sequence counters) is guarded exclusively by
// the store's transaction primitive; the engine holds no locks of its own.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Configuration
	now            func() time.Time
	invoiceDueDays int
}

// New creates a new billing Engine.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:          s,
		plugins:        plugin.NewRegistry(),
		logger:         slog.Default(),
		now:            time.Now,
		invoiceDueDays: 14,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock sets the time source. Used by tests to pin issue dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithInvoiceDueDays sets how many days after issue an invoice falls due.
func WithInvoiceDueDays(days int) Option {
	return func(e *Engine) {
		e.invoiceDueDays = days
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("billing engine started",
		"invoice_due_days", e.invoiceDueDays,
	)

	return nil
}

// Stop shuts down the engine.
func (e *Engine) Stop() error {
	e.plugins.EmitShutdown(context.Background())
	return e.store.Close()
}

// Renderer returns the registered statement renderer for a format, or nil.
// Renderers are read-only consumers (PDF, email) of finished records.
func (e *Engine) Renderer(format string) plugin.StatementRenderer {
	return e.plugins.GetStatementRenderer(format)
}

// ──────────────────────────────────────────────────
// Roster Management
// ──────────────────────────────────────────────────

// CreateParent registers a new payer.
func (e *Engine) CreateParent(ctx context.Context, p *roster.Parent) error {
	if p.ID.IsNil() {
		p.ID = id.NewParentID()
	}
	p.Entity = types.NewEntity()

	return e.store.CreateParent(ctx, p)
}

// GetParent retrieves a parent by ID.
func (e *Engine) GetParent(ctx context.Context, parentID id.ParentID) (*roster.Parent, error) {
	return e.store.GetParent(ctx, parentID)
}

// ListParents lists all parents.
func (e *Engine) ListParents(ctx context.Context) ([]*roster.Parent, error) {
	return e.store.ListParents(ctx)
}

// CreateStudent registers a student under an existing parent and links it
// into the parent's dependent list.
func (e *Engine) CreateStudent(ctx context.Context, s *roster.Student) error {
	if s.ParentID.IsNil() {
		return ValidationError{Field: "parent_id", Message: "required"}
	}

	parent, err := e.store.GetParent(ctx, s.ParentID)
	if err != nil {
		return err
	}

	if s.ID.IsNil() {
		s.ID = id.NewStudentID()
	}
	s.Entity = types.NewEntity()

	if err := e.store.CreateStudent(ctx, s); err != nil {
		return err
	}

	parent.StudentIDs = append(parent.StudentIDs, s.ID)
	parent.Touch()
	return e.store.UpdateParent(ctx, parent)
}

// GetStudent retrieves a student by ID.
func (e *Engine) GetStudent(ctx context.Context, studentID id.StudentID) (*roster.Student, error) {
	return e.store.GetStudent(ctx, studentID)
}

// ListStudentsForParent lists a parent's dependents.
func (e *Engine) ListStudentsForParent(ctx context.Context, parentID id.ParentID) ([]*roster.Student, error) {
	return e.store.ListStudentsByParent(ctx, parentID)
}

// SetStudentRate sets the hourly rate a student's sessions bill at for a
// subject. Takes effect on the next generation; already-issued invoices are
// untouched.
func (e *Engine) SetStudentRate(ctx context.Context, studentID id.StudentID, subject string, hourly types.Money) error {
	s, err := e.store.GetStudent(ctx, studentID)
	if err != nil {
		return err
	}

	if s.Rates == nil {
		s.Rates = roster.RateTable{}
	}
	s.Rates[subject] = hourly
	s.Touch()

	return e.store.UpdateStudent(ctx, s)
}

// CreateTutor registers a new payee.
func (e *Engine) CreateTutor(ctx context.Context, t *roster.Tutor) error {
	if t.ID.IsNil() {
		t.ID = id.NewTutorID()
	}
	t.Entity = types.NewEntity()

	return e.store.CreateTutor(ctx, t)
}

// GetTutor retrieves a tutor by ID.
func (e *Engine) GetTutor(ctx context.Context, tutorID id.TutorID) (*roster.Tutor, error) {
	return e.store.GetTutor(ctx, tutorID)
}

// ListTutors lists all tutors.
func (e *Engine) ListTutors(ctx context.Context) ([]*roster.Tutor, error) {
	return e.store.ListTutors(ctx)
}

// SetTutorPayRate sets the hourly rate a tutor's sessions pay out at for a
// subject.
func (e *Engine) SetTutorPayRate(ctx context.Context, tutorID id.TutorID, subject string, hourly types.Money) error {
	t, err := e.store.GetTutor(ctx, tutorID)
	if err != nil {
		return err
	}

	if t.PayRates == nil {
		t.PayRates = roster.RateTable{}
	}
	t.PayRates[subject] = hourly
	t.Touch()

	return e.store.UpdateTutor(ctx, t)
}

// ──────────────────────────────────────────────────
// Session Ledger
// ──────────────────────────────────────────────────

// RecordSession records a session fed in from the scheduling subsystem.
// Billing fields on the input are ignored: new sessions start unbilled, and
// replacement preserves whatever billing state the ledger already holds.
func (e *Engine) RecordSession(ctx context.Context, s *session.Session) error {
	if s.TutorID.IsNil() {
		return ValidationError{Field: "tutor_id", Message: "required"}
	}
	if s.ParentID.IsNil() && s.StudentID.IsNil() {
		return ValidationError{Field: "parent_id", Message: "session must be keyed to a parent or a student"}
	}
	if s.DurationMinutes <= 0 && s.Cost == nil {
		return ValidationError{Field: "duration_minutes", Message: "must be positive unless a fixed cost is set"}
	}

	if s.ID.IsNil() {
		s.ID = id.NewSessionID()
		s.Entity = types.NewEntity()
	}
	if s.Status == "" {
		s.Status = session.StatusScheduled
	}

	// The ledger owns these.
	s.BilledToParent = false
	s.InvoiceID = id.Nil
	s.PaidToTutor = false
	s.PayStubID = id.Nil

	if err := e.store.PutSession(ctx, s); err != nil {
		return err
	}

	e.plugins.EmitSessionRecorded(ctx, s)
	return nil
}

// GetSession retrieves a session by ID.
func (e *Engine) GetSession(ctx context.Context, sessID id.SessionID) (*session.Session, error) {
	return e.store.GetSession(ctx, sessID)
}

// ListSessionsForTutor lists a tutor's sessions, billed or not.
func (e *Engine) ListSessionsForTutor(ctx context.Context, tutorID id.TutorID, opts session.ListOpts) ([]*session.Session, error) {
	return e.store.ListSessionsByTutor(ctx, tutorID, opts)
}

// ──────────────────────────────────────────────────
// Invoice Generation
// ──────────────────────────────────────────────────

// GenerateInvoice bills the selected sessions to a parent.
//
// The selection is a set: repeated IDs count once. Every selected session
// must belong to the parent (directly or through a dependent) and still be
// unbilled: the store re-validates the whole set
// inside the commit transaction, so two operators racing over the same
// session produce exactly one invoice and one ErrBillingConflict. On
// success the invoice number is freshly minted and every session carries a
// back-reference to the new invoice.
func (e *Engine) GenerateInvoice(ctx context.Context, parentID id.ParentID, sessIDs []id.SessionID, notes string) (*invoice.Invoice, error) {
	sessIDs = dedupeSessions(sessIDs)
	if len(sessIDs) == 0 {
		return nil, ErrEmptySelection
	}

	parent, err := e.store.GetParent(ctx, parentID)
	if err != nil {
		return nil, err
	}

	selected, err := e.selectForParent(ctx, parent, sessIDs)
	if err != nil {
		return nil, err
	}

	items := make([]types.LineItem, len(selected))
	for i, bs := range selected {
		items[i] = bs.Line.Item(bs.Session.ID, bs.Description)
	}

	issued := e.now().UTC()
	inv := invoice.New(parentID, items, issued, issued.AddDate(0, 0, e.invoiceDueDays), notes)

	if err := e.store.CommitInvoice(ctx, inv, sessIDs); err != nil {
		if errors.Is(err, ErrBillingConflict) {
			e.logger.Warn("invoice generation lost billing race",
				"parent_id", parentID.String(),
				"sessions", len(sessIDs),
			)
			e.plugins.EmitBillingConflict(ctx, "invoice", parentID.String(), idStrings(sessIDs))
		}
		return nil, err
	}

	e.logger.Info("invoice generated",
		"invoice_id", inv.ID.String(),
		"number", inv.Number,
		"parent_id", parentID.String(),
		"sessions", len(items),
		"total", inv.Total.String(),
	)

	e.plugins.EmitInvoiceGenerated(ctx, inv)
	return inv, nil
}

// VoidInvoice deletes an invoice and reverts every session that references
// it. Affected sessions are re-derived from the ledger's live
// back-references, not from the invoice's own line items, so sessions
// reassigned since generation are still cleaned up and the void leaves no
// orphaned "billed" sessions behind.
func (e *Engine) VoidInvoice(ctx context.Context, invID id.InvoiceID) error {
	inv, err := e.store.GetInvoice(ctx, invID)
	if err != nil {
		return err
	}

	reverted, err := e.store.VoidInvoice(ctx, invID)
	if err != nil {
		return err
	}

	e.logger.Info("invoice voided",
		"invoice_id", invID.String(),
		"number", inv.Number,
		"sessions_reverted", reverted,
	)

	e.plugins.EmitInvoiceVoided(ctx, inv, reverted)
	return nil
}

// GetInvoice retrieves an invoice by ID.
func (e *Engine) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	return e.store.GetInvoice(ctx, invID)
}

// ListInvoices lists a parent's invoices.
func (e *Engine) ListInvoices(ctx context.Context, parentID id.ParentID, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	return e.store.ListInvoices(ctx, parentID, opts)
}

// MarkInvoiceSent transitions a draft invoice to sent.
func (e *Engine) MarkInvoiceSent(ctx context.Context, invID id.InvoiceID) error {
	return e.transitionInvoice(ctx, invID, invoice.StatusSent)
}

// MarkInvoicePaid transitions a sent or overdue invoice to paid.
func (e *Engine) MarkInvoicePaid(ctx context.Context, invID id.InvoiceID) error {
	return e.transitionInvoice(ctx, invID, invoice.StatusPaid)
}

// MarkInvoiceOverdue transitions a sent invoice to overdue.
func (e *Engine) MarkInvoiceOverdue(ctx context.Context, invID id.InvoiceID) error {
	return e.transitionInvoice(ctx, invID, invoice.StatusOverdue)
}

// MarkInvoiceCancelled transitions an invoice to cancelled. The invoice and
// its session claims remain; use VoidInvoice to release the sessions.
func (e *Engine) MarkInvoiceCancelled(ctx context.Context, invID id.InvoiceID) error {
	return e.transitionInvoice(ctx, invID, invoice.StatusCancelled)
}

func (e *Engine) transitionInvoice(ctx context.Context, invID id.InvoiceID, to invoice.Status) error {
	inv, err := e.store.GetInvoice(ctx, invID)
	if err != nil {
		return err
	}

	if !inv.Status.CanTransition(to) {
		return fmt.Errorf("%w: invoice %s → %s", ErrInvalidStatusChange, inv.Status, to)
	}

	if err := e.store.UpdateInvoiceStatus(ctx, invID, to, e.now().UTC()); err != nil {
		return err
	}

	e.plugins.EmitInvoiceStatusChanged(ctx, inv, string(inv.Status), string(to))
	return nil
}

// ──────────────────────────────────────────────────
// Pay Stub Generation
// ──────────────────────────────────────────────────

// GeneratePayStub pays the selected sessions out to a tutor.
//
// Mirrors GenerateInvoice on the payee track. The stub's sequence number is
// minted inside the commit transaction, so a failed commit rolls the counter
// back with it and committed stubs are numbered gaplessly.
func (e *Engine) GeneratePayStub(ctx context.Context, tutorID id.TutorID, sessIDs []id.SessionID, notes string) (*paystub.PayStub, error) {
	sessIDs = dedupeSessions(sessIDs)
	if len(sessIDs) == 0 {
		return nil, ErrEmptySelection
	}

	tutor, err := e.store.GetTutor(ctx, tutorID)
	if err != nil {
		return nil, err
	}

	selected, err := e.selectForTutor(ctx, tutor, sessIDs)
	if err != nil {
		return nil, err
	}

	items := make([]types.LineItem, len(selected))
	for i, bs := range selected {
		items[i] = bs.Line.Item(bs.Session.ID, bs.Description)
	}

	stub := paystub.New(tutorID, items, e.now().UTC(), notes)

	if err := e.store.CommitPayStub(ctx, stub, sessIDs); err != nil {
		if errors.Is(err, ErrBillingConflict) {
			e.logger.Warn("pay stub generation lost billing race",
				"tutor_id", tutorID.String(),
				"sessions", len(sessIDs),
			)
			e.plugins.EmitBillingConflict(ctx, "paystub", tutorID.String(), idStrings(sessIDs))
		}
		return nil, err
	}

	e.logger.Info("pay stub generated",
		"pay_stub_id", stub.ID.String(),
		"number", stub.Number,
		"tutor_id", tutorID.String(),
		"sessions", len(items),
		"total_pay", stub.TotalPay.String(),
	)

	e.plugins.EmitPayStubGenerated(ctx, stub)
	return stub, nil
}

// VoidPayStub deletes a pay stub and reverts every session that references
// it, with the same live back-reference derivation as VoidInvoice.
func (e *Engine) VoidPayStub(ctx context.Context, stubID id.PayStubID) error {
	stub, err := e.store.GetPayStub(ctx, stubID)
	if err != nil {
		return err
	}

	reverted, err := e.store.VoidPayStub(ctx, stubID)
	if err != nil {
		return err
	}

	e.logger.Info("pay stub voided",
		"pay_stub_id", stubID.String(),
		"number", stub.Number,
		"sessions_reverted", reverted,
	)

	e.plugins.EmitPayStubVoided(ctx, stub, reverted)
	return nil
}

// GetPayStub retrieves a pay stub by ID.
func (e *Engine) GetPayStub(ctx context.Context, stubID id.PayStubID) (*paystub.PayStub, error) {
	return e.store.GetPayStub(ctx, stubID)
}

// ListPayStubs lists a tutor's pay stubs.
func (e *Engine) ListPayStubs(ctx context.Context, tutorID id.TutorID, opts paystub.ListOpts) ([]*paystub.PayStub, error) {
	return e.store.ListPayStubs(ctx, tutorID, opts)
}

// MarkPayStubPaid transitions a draft pay stub to paid.
func (e *Engine) MarkPayStubPaid(ctx context.Context, stubID id.PayStubID) error {
	stub, err := e.store.GetPayStub(ctx, stubID)
	if err != nil {
		return err
	}

	if !stub.Status.CanTransition(paystub.StatusPaid) {
		return fmt.Errorf("%w: pay stub %s → %s", ErrInvalidStatusChange, stub.Status, paystub.StatusPaid)
	}

	if err := e.store.UpdatePayStubStatus(ctx, stubID, paystub.StatusPaid, e.now().UTC()); err != nil {
		return err
	}

	e.plugins.EmitPayStubStatusChanged(ctx, stub, string(stub.Status), string(paystub.StatusPaid))
	return nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func idStrings(ids []id.ID) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}

// dedupeSessions treats the selection as a set: repeated IDs keep their
// first occurrence. Without this a duplicated ID would derive two line items
// from one session, and the backends' claimed-count checks would disagree
// with the selection size.
func dedupeSessions(sessIDs []id.SessionID) []id.SessionID {
	seen := make(map[string]bool, len(sessIDs))
	out := make([]id.SessionID, 0, len(sessIDs))
	for _, sessID := range sessIDs {
		if seen[sessID.String()] {
			continue
		}
		seen[sessID.String()] = true
		out = append(out, sessID)
	}
	return out
}

// Package postgres provides a PostgreSQL-backed store for the billing
// engine, built on pgx.
//
// The atomic generate/void operations lock their read set with
// SELECT ... FOR UPDATE inside a transaction, then claim sessions with a
// guarded UPDATE. Sequence counters are single rows incremented in the
// same transaction as the record insert, so the row lock serializes
// concurrent commits and an abort rolls the counter back.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	billing "github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/invoice"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/paystub"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/roster"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/session"
	billingstore "github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/store"
)

// Sequence counter names.
const (
	seqInvoice = "invoice"
	seqPayStub = "paystub"
)

const seqSeed = 1000

// compile-time interface check
var _ billingstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via pgx.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL store on the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewPool opens a pgx connection pool for the given DSN.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, dsn)
}

// Pool returns the underlying connection pool for direct access.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Migrate applies the schema statements in order.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range Migrations {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %w", billing.ErrMigrationFailed, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ==================== Roster ====================

func (s *Store) CreateParent(ctx context.Context, p *roster.Parent) error {
	studentIDs := make([]string, len(p.StudentIDs))
	for i, sid := range p.StudentIDs {
		studentIDs[i] = sid.String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO billing_parents (id, name, email, phone, student_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID.String(), p.Name, p.Email, p.Phone, studentIDs, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return billing.ErrAlreadyExists
		}
		return fmt.Errorf("billing/postgres: create parent: %w", err)
	}
	return nil
}

func (s *Store) GetParent(ctx context.Context, parentID id.ParentID) (*roster.Parent, error) {
	rows, _ := s.pool.Query(ctx,
		`SELECT * FROM billing_parents WHERE id = $1`, parentID.String())
	r, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[parentRow])
	if err != nil {
		if isNoRows(err) {
			return nil, billing.ErrParentNotFound
		}
		return nil, fmt.Errorf("billing/postgres: get parent: %w", err)
	}
	return fromParentRow(&r)
}

func (s *Store) ListParents(ctx context.Context) ([]*roster.Parent, error) {
	rows, _ := s.pool.Query(ctx, `SELECT * FROM billing_parents ORDER BY name`)
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[parentRow])
	if err != nil {
		return nil, fmt.Errorf("billing/postgres: list parents: %w", err)
	}

	result := make([]*roster.Parent, len(collected))
	for i := range collected {
		p, err := fromParentRow(&collected[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) UpdateParent(ctx context.Context, p *roster.Parent) error {
	studentIDs := make([]string, len(p.StudentIDs))
	for i, sid := range p.StudentIDs {
		studentIDs[i] = sid.String()
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE billing_parents
		SET name = $2, email = $3, phone = $4, student_ids = $5, updated_at = $6
		WHERE id = $1
	`, p.ID.String(), p.Name, p.Email, p.Phone, studentIDs, now())
	if err != nil {
		return fmt.Errorf("billing/postgres: update parent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrParentNotFound
	}
	return nil
}

func (s *Store) CreateStudent(ctx context.Context, st *roster.Student) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO billing_students (id, parent_id, name, grade, rates, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, st.ID.String(), st.ParentID.String(), st.Name, st.Grade, toRateCents(st.Rates), st.CreatedAt, st.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return billing.ErrAlreadyExists
		}
		return fmt.Errorf("billing/postgres: create student: %w", err)
	}
	return nil
}

func (s *Store) GetStudent(ctx context.Context, studentID id.StudentID) (*roster.Student, error) {
	rows, _ := s.pool.Query(ctx,
		`SELECT * FROM billing_students WHERE id = $1`, studentID.String())
	r, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[studentRow])
	if err != nil {
		if isNoRows(err) {
			return nil, billing.ErrStudentNotFound
		}
		return nil, fmt.Errorf("billing/postgres: get student: %w", err)
	}
	return fromStudentRow(&r)
}

func (s *Store) ListStudentsByParent(ctx context.Context, parentID id.ParentID) ([]*roster.Student, error) {
	rows, _ := s.pool.Query(ctx,
		`SELECT * FROM billing_students WHERE parent_id = $1 ORDER BY name`, parentID.String())
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[studentRow])
	if err != nil {
		return nil, fmt.Errorf("billing/postgres: list students: %w", err)
	}

	result := make([]*roster.Student, len(collected))
	for i := range collected {
		st, err := fromStudentRow(&collected[i])
		if err != nil {
			return nil, err
		}
		result[i] = st
	}
	return result, nil
}

func (s *Store) UpdateStudent(ctx context.Context, st *roster.Student) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE billing_students
		SET parent_id = $2, name = $3, grade = $4, rates = $5, updated_at = $6
		WHERE id = $1
	`, st.ID.String(), st.ParentID.String(), st.Name, st.Grade, toRateCents(st.Rates), now())
	if err != nil {
		return fmt.Errorf("billing/postgres: update student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrStudentNotFound
	}
	return nil
}

func (s *Store) CreateTutor(ctx context.Context, t *roster.Tutor) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO billing_tutors (id, name, email, subjects, pay_rates, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.ID.String(), t.Name, t.Email, t.Subjects, toRateCents(t.PayRates), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return billing.ErrAlreadyExists
		}
		return fmt.Errorf("billing/postgres: create tutor: %w", err)
	}
	return nil
}

func (s *Store) GetTutor(ctx context.Context, tutorID id.TutorID) (*roster.Tutor, error) {
	rows, _ := s.pool.Query(ctx,
		`SELECT * FROM billing_tutors WHERE id = $1`, tutorID.String())
	r, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[tutorRow])
	if err != nil {
		if isNoRows(err) {
			return nil, billing.ErrTutorNotFound
		}
		return nil, fmt.Errorf("billing/postgres: get tutor: %w", err)
	}
	return fromTutorRow(&r)
}

func (s *Store) ListTutors(ctx context.Context) ([]*roster.Tutor, error) {
	rows, _ := s.pool.Query(ctx, `SELECT * FROM billing_tutors ORDER BY name`)
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[tutorRow])
	if err != nil {
		return nil, fmt.Errorf("billing/postgres: list tutors: %w", err)
	}

	result := make([]*roster.Tutor, len(collected))
	for i := range collected {
		t, err := fromTutorRow(&collected[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

func (s *Store) UpdateTutor(ctx context.Context, t *roster.Tutor) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE billing_tutors
		SET name = $2, email = $3, subjects = $4, pay_rates = $5, updated_at = $6
		WHERE id = $1
	`, t.ID.String(), t.Name, t.Email, t.Subjects, toRateCents(t.PayRates), now())
	if err != nil {
		return fmt.Errorf("billing/postgres: update tutor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrTutorNotFound
	}
	return nil
}

// ==================== Session Ledger ====================

// PutSession upserts the scheduling fields. The billing columns are absent
// from the conflict update, so only the atomic commit/void operations can
// change them.
func (s *Store) PutSession(ctx context.Context, sess *session.Session) error {
	var costCents *int64
	if sess.Cost != nil {
		cents := sess.Cost.Amount
		costCents = &cents
	}
	parentID := ""
	if !sess.ParentID.IsNil() {
		parentID = sess.ParentID.String()
	}
	studentID := ""
	if !sess.StudentID.IsNil() {
		studentID = sess.StudentID.String()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO billing_sessions (
			id, parent_id, student_id, tutor_id, subject,
			start_time, end_time, duration_minutes, status, cost_cents,
			notes, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id)
		DO UPDATE SET parent_id = EXCLUDED.parent_id,
		              student_id = EXCLUDED.student_id,
		              tutor_id = EXCLUDED.tutor_id,
		              subject = EXCLUDED.subject,
		              start_time = EXCLUDED.start_time,
		              end_time = EXCLUDED.end_time,
		              duration_minutes = EXCLUDED.duration_minutes,
		              status = EXCLUDED.status,
		              cost_cents = EXCLUDED.cost_cents,
		              notes = EXCLUDED.notes,
		              updated_at = EXCLUDED.updated_at
	`,
		sess.ID.String(), parentID, studentID, sess.TutorID.String(), sess.Subject,
		sess.StartTime, sess.EndTime, sess.DurationMinutes, string(sess.Status), costCents,
		sess.Notes, sess.CreatedAt, now(),
	)
	if err != nil {
		return fmt.Errorf("billing/postgres: put session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, sessID id.SessionID) (*session.Session, error) {
	rows, _ := s.pool.Query(ctx,
		`SELECT * FROM billing_sessions WHERE id = $1`, sessID.String())
	r, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[sessionRow])
	if err != nil {
		if isNoRows(err) {
			return nil, billing.ErrSessionNotFound
		}
		return nil, fmt.Errorf("billing/postgres: get session: %w", err)
	}
	return fromSessionRow(&r)
}

// GetSessions returns the requested sessions. Any missing ID fails the
// whole call.
func (s *Store) GetSessions(ctx context.Context, sessIDs []id.SessionID) ([]*session.Session, error) {
	found, err := s.querySessions(ctx, s.pool,
		`SELECT * FROM billing_sessions WHERE id = ANY($1)`, idStrings(sessIDs))
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*session.Session, len(found))
	for _, sess := range found {
		byID[sess.ID.String()] = sess
	}

	result := make([]*session.Session, 0, len(sessIDs))
	for _, sessID := range sessIDs {
		sess, ok := byID[sessID.String()]
		if !ok {
			return nil, fmt.Errorf("%w: %s", billing.ErrSessionNotFound, sessID)
		}
		result = append(result, sess)
	}
	return result, nil
}

func (s *Store) ListSessionsByParent(ctx context.Context, parentID id.ParentID, opts session.ListOpts) ([]*session.Session, error) {
	query, args := sessionListQuery(`parent_id = $1`, []any{parentID.String()}, opts)
	return s.querySessions(ctx, s.pool, query, args...)
}

func (s *Store) ListSessionsByStudents(ctx context.Context, studentIDs []id.StudentID, opts session.ListOpts) ([]*session.Session, error) {
	raw := make([]string, len(studentIDs))
	for i, sid := range studentIDs {
		raw[i] = sid.String()
	}
	query, args := sessionListQuery(`student_id = ANY($1)`, []any{raw}, opts)
	return s.querySessions(ctx, s.pool, query, args...)
}

func (s *Store) ListSessionsByTutor(ctx context.Context, tutorID id.TutorID, opts session.ListOpts) ([]*session.Session, error) {
	query, args := sessionListQuery(`tutor_id = $1`, []any{tutorID.String()}, opts)
	return s.querySessions(ctx, s.pool, query, args...)
}

func (s *Store) ListSessionsByInvoice(ctx context.Context, invID id.InvoiceID) ([]*session.Session, error) {
	return s.querySessions(ctx, s.pool,
		`SELECT * FROM billing_sessions WHERE invoice_id = $1 ORDER BY start_time`, invID.String())
}

func (s *Store) ListSessionsByPayStub(ctx context.Context, stubID id.PayStubID) ([]*session.Session, error) {
	return s.querySessions(ctx, s.pool,
		`SELECT * FROM billing_sessions WHERE pay_stub_id = $1 ORDER BY start_time`, stubID.String())
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *Store) querySessions(ctx context.Context, q querier, query string, args ...any) ([]*session.Session, error) {
	rows, _ := q.Query(ctx, query, args...)
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[sessionRow])
	if err != nil {
		return nil, fmt.Errorf("billing/postgres: query sessions: %w", err)
	}

	result := make([]*session.Session, len(collected))
	for i := range collected {
		sess, err := fromSessionRow(&collected[i])
		if err != nil {
			return nil, err
		}
		result[i] = sess
	}
	return result, nil
}

func sessionListQuery(where string, args []any, opts session.ListOpts) (string, []any) {
	query := `SELECT * FROM billing_sessions WHERE ` + where
	if opts.Status != "" {
		args = append(args, string(opts.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !opts.Range.Start.IsZero() {
		args = append(args, opts.Range.Start)
		query += fmt.Sprintf(" AND start_time >= $%d", len(args))
	}
	if !opts.Range.End.IsZero() {
		args = append(args, opts.Range.End)
		query += fmt.Sprintf(" AND start_time <= $%d", len(args))
	}
	query += " ORDER BY start_time"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}

// ==================== Atomic Billing Operations ====================

// CommitInvoice locks the selected sessions, verifies eligibility, mints
// the invoice number, claims the sessions, and inserts the invoice in one
// transaction. A short claim count aborts everything with
// ErrBillingConflict, sequence increment included.
func (s *Store) CommitInvoice(ctx context.Context, inv *invoice.Invoice, sessIDs []id.SessionID) error {
	return s.inTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.verifySelection(ctx, tx, sessIDs, false); err != nil {
			return err
		}

		seq, err := mintSequence(ctx, tx, seqInvoice)
		if err != nil {
			return err
		}
		inv.Number = invoice.FormatNumber(seq)

		tag, err := tx.Exec(ctx, `
			UPDATE billing_sessions
			SET billed_to_parent = TRUE, invoice_id = $1, updated_at = $2
			WHERE id = ANY($3) AND NOT billed_to_parent AND status = ANY($4)
		`, inv.ID.String(), now(), idStrings(sessIDs), billableStatuses())
		if err != nil {
			return fmt.Errorf("billing/postgres: claim sessions: %w", err)
		}
		if tag.RowsAffected() != int64(len(sessIDs)) {
			return fmt.Errorf("%w: claimed %d of %d sessions",
				billing.ErrBillingConflict, tag.RowsAffected(), len(sessIDs))
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO billing_invoices (
				id, number, parent_id, line_items, total_cents,
				status, issue_date, due_date, notes, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`,
			inv.ID.String(), inv.Number, inv.ParentID.String(), toLineItemJSON(inv.LineItems), inv.Total.Amount,
			string(inv.Status), inv.IssueDate, inv.DueDate, inv.Notes, inv.CreatedAt, inv.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("billing/postgres: insert invoice: %w", err)
		}
		return nil
	})
}

// CommitPayStub mirrors CommitInvoice on the payee track.
func (s *Store) CommitPayStub(ctx context.Context, stub *paystub.PayStub, sessIDs []id.SessionID) error {
	return s.inTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.verifySelection(ctx, tx, sessIDs, true); err != nil {
			return err
		}

		seq, err := mintSequence(ctx, tx, seqPayStub)
		if err != nil {
			return err
		}
		stub.SetSequence(seq)

		tag, err := tx.Exec(ctx, `
			UPDATE billing_sessions
			SET paid_to_tutor = TRUE, pay_stub_id = $1, updated_at = $2
			WHERE id = ANY($3) AND NOT paid_to_tutor AND status = ANY($4)
		`, stub.ID.String(), now(), idStrings(sessIDs), billableStatuses())
		if err != nil {
			return fmt.Errorf("billing/postgres: claim sessions: %w", err)
		}
		if tag.RowsAffected() != int64(len(sessIDs)) {
			return fmt.Errorf("%w: claimed %d of %d sessions",
				billing.ErrBillingConflict, tag.RowsAffected(), len(sessIDs))
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO billing_paystubs (
				id, sequence, number, tutor_id, line_items,
				total_hours, pay_cents, status, issue_date, notes, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		`,
			stub.ID.String(), stub.Sequence, stub.Number, stub.TutorID.String(), toLineItemJSON(stub.LineItems),
			stub.TotalHours, stub.TotalPay.Amount, string(stub.Status), stub.IssueDate, stub.Notes,
			stub.CreatedAt, stub.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("billing/postgres: insert pay stub: %w", err)
		}
		return nil
	})
}

// VoidInvoice reverts every session whose live back-reference points at the
// invoice, then deletes it, all in one transaction.
func (s *Store) VoidInvoice(ctx context.Context, invID id.InvoiceID) (int, error) {
	reverted := 0
	err := s.inTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM billing_invoices WHERE id = $1`, invID.String())
		if err != nil {
			return fmt.Errorf("billing/postgres: delete invoice: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return billing.ErrInvoiceNotFound
		}

		upd, err := tx.Exec(ctx, `
			UPDATE billing_sessions
			SET billed_to_parent = FALSE, invoice_id = '', updated_at = $2
			WHERE invoice_id = $1
		`, invID.String(), now())
		if err != nil {
			return fmt.Errorf("billing/postgres: revert sessions: %w", err)
		}
		reverted = int(upd.RowsAffected())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reverted, nil
}

// VoidPayStub mirrors VoidInvoice on the payee track.
func (s *Store) VoidPayStub(ctx context.Context, stubID id.PayStubID) (int, error) {
	reverted := 0
	err := s.inTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM billing_paystubs WHERE id = $1`, stubID.String())
		if err != nil {
			return fmt.Errorf("billing/postgres: delete pay stub: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return billing.ErrPayStubNotFound
		}

		upd, err := tx.Exec(ctx, `
			UPDATE billing_sessions
			SET paid_to_tutor = FALSE, pay_stub_id = '', updated_at = $2
			WHERE pay_stub_id = $1
		`, stubID.String(), now())
		if err != nil {
			return fmt.Errorf("billing/postgres: revert sessions: %w", err)
		}
		reverted = int(upd.RowsAffected())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reverted, nil
}

// verifySelection locks the selected sessions and classifies failures
// before the guarded claim so callers get a precise error instead of a
// bare short count.
func (s *Store) verifySelection(ctx context.Context, tx pgx.Tx, sessIDs []id.SessionID, payeeTrack bool) error {
	sessions, err := s.querySessions(ctx, tx,
		`SELECT * FROM billing_sessions WHERE id = ANY($1) FOR UPDATE`, idStrings(sessIDs))
	if err != nil {
		return err
	}
	if len(sessions) != len(sessIDs) {
		seen := make(map[string]bool, len(sessions))
		for _, sess := range sessions {
			seen[sess.ID.String()] = true
		}
		for _, sessID := range sessIDs {
			if !seen[sessID.String()] {
				return fmt.Errorf("%w: %s", billing.ErrSessionNotFound, sessID)
			}
		}
	}
	for _, sess := range sessions {
		if !sess.Billable() {
			return fmt.Errorf("%w: session %s is %s", billing.ErrSessionNotBillable, sess.ID, sess.Status)
		}
		claimed := sess.BilledToParent
		if payeeTrack {
			claimed = sess.PaidToTutor
		}
		if claimed {
			return fmt.Errorf("%w: session %s", billing.ErrBillingConflict, sess.ID)
		}
	}
	return nil
}

// mintSequence increments the named counter row and returns the next
// value. The row lock serializes concurrent commits of the same record
// kind; a rollback undoes the increment, keeping numbering gapless.
func mintSequence(ctx context.Context, tx pgx.Tx, name string) (int64, error) {
	var minted int64
	err := tx.QueryRow(ctx, `
		INSERT INTO billing_sequences (name, minted) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET minted = billing_sequences.minted + 1
		RETURNING minted
	`, name).Scan(&minted)
	if err != nil {
		return 0, fmt.Errorf("billing/postgres: mint %s sequence: %w", name, err)
	}
	return seqSeed + minted - 1, nil
}

func (s *Store) inTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", billing.ErrTransactionFailed, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", billing.ErrTransactionFailed, err)
	}
	return nil
}

// ==================== Invoices ====================

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	rows, _ := s.pool.Query(ctx,
		`SELECT * FROM billing_invoices WHERE id = $1`, invID.String())
	r, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[invoiceRow])
	if err != nil {
		if isNoRows(err) {
			return nil, billing.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("billing/postgres: get invoice: %w", err)
	}
	return fromInvoiceRow(&r)
}

func (s *Store) ListInvoices(ctx context.Context, parentID id.ParentID, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	args := []any{parentID.String()}
	query := `SELECT * FROM billing_invoices WHERE parent_id = $1`
	if opts.Status != "" {
		args = append(args, string(opts.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !opts.Start.IsZero() {
		args = append(args, opts.Start)
		query += fmt.Sprintf(" AND issue_date >= $%d", len(args))
	}
	if !opts.End.IsZero() {
		args = append(args, opts.End)
		query += fmt.Sprintf(" AND issue_date <= $%d", len(args))
	}
	query += " ORDER BY issue_date DESC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, _ := s.pool.Query(ctx, query, args...)
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[invoiceRow])
	if err != nil {
		return nil, fmt.Errorf("billing/postgres: list invoices: %w", err)
	}

	result := make([]*invoice.Invoice, len(collected))
	for i := range collected {
		inv, err := fromInvoiceRow(&collected[i])
		if err != nil {
			return nil, err
		}
		result[i] = inv
	}
	return result, nil
}

func (s *Store) UpdateInvoiceStatus(ctx context.Context, invID id.InvoiceID, to invoice.Status, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE billing_invoices SET status = $2, updated_at = $3 WHERE id = $1
	`, invID.String(), string(to), at)
	if err != nil {
		return fmt.Errorf("billing/postgres: update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrInvoiceNotFound
	}
	return nil
}

// ==================== Pay Stubs ====================

func (s *Store) GetPayStub(ctx context.Context, stubID id.PayStubID) (*paystub.PayStub, error) {
	rows, _ := s.pool.Query(ctx,
		`SELECT * FROM billing_paystubs WHERE id = $1`, stubID.String())
	r, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[payStubRow])
	if err != nil {
		if isNoRows(err) {
			return nil, billing.ErrPayStubNotFound
		}
		return nil, fmt.Errorf("billing/postgres: get pay stub: %w", err)
	}
	return fromPayStubRow(&r)
}

func (s *Store) ListPayStubs(ctx context.Context, tutorID id.TutorID, opts paystub.ListOpts) ([]*paystub.PayStub, error) {
	args := []any{tutorID.String()}
	query := `SELECT * FROM billing_paystubs WHERE tutor_id = $1`
	if opts.Status != "" {
		args = append(args, string(opts.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !opts.Start.IsZero() {
		args = append(args, opts.Start)
		query += fmt.Sprintf(" AND issue_date >= $%d", len(args))
	}
	if !opts.End.IsZero() {
		args = append(args, opts.End)
		query += fmt.Sprintf(" AND issue_date <= $%d", len(args))
	}
	query += " ORDER BY sequence DESC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, _ := s.pool.Query(ctx, query, args...)
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[payStubRow])
	if err != nil {
		return nil, fmt.Errorf("billing/postgres: list pay stubs: %w", err)
	}

	result := make([]*paystub.PayStub, len(collected))
	for i := range collected {
		stub, err := fromPayStubRow(&collected[i])
		if err != nil {
			return nil, err
		}
		result[i] = stub
	}
	return result, nil
}

func (s *Store) UpdatePayStubStatus(ctx context.Context, stubID id.PayStubID, to paystub.Status, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE billing_paystubs SET status = $2, updated_at = $3 WHERE id = $1
	`, stubID.String(), string(to), at)
	if err != nil {
		return fmt.Errorf("billing/postgres: update pay stub status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrPayStubNotFound
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

func idStrings(sessIDs []id.SessionID) []string {
	raw := make([]string, len(sessIDs))
	for i, sid := range sessIDs {
		raw[i] = sid.String()
	}
	return raw
}

func billableStatuses() []string {
	return []string{string(session.StatusScheduled), string(session.StatusCompleted)}
}

// isNoRows checks if an error wraps pgx.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// isDuplicate checks for a unique constraint violation.
func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

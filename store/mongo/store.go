// Package mongo provides a MongoDB-backed store for the billing engine.
//
// The atomic generate/void operations run inside multi-document
// transactions, so the deployment must be a replica set or sharded
// cluster. Sequence counters are incremented inside the same transaction
// as the record insert: an aborted commit rolls the counter back, which
// keeps numbering gapless across committed records.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	billing "github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/invoice"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/paystub"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/roster"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/session"
	billingstore "github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/store"
)

// Collection name constants.
const (
	colParents   = "billing_parents"
	colStudents  = "billing_students"
	colTutors    = "billing_tutors"
	colSessions  = "billing_sessions"
	colInvoices  = "billing_invoices"
	colPayStubs  = "billing_paystubs"
	colSequences = "billing_sequences"
)

// Sequence counter names.
const (
	seqInvoice = "invoice"
	seqPayStub = "paystub"
)

const seqSeed = 1000

// compile-time interface check
var _ billingstore.Store = (*Store)(nil)

// Store implements store.Store using the official MongoDB driver.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New creates a MongoDB store on the given database.
func New(client *mongo.Client, dbName string) *Store {
	return &Store{
		client: client,
		db:     client.Database(dbName),
	}
}

// DB returns the underlying database for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Migrate creates indexes for all billing collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.col(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("billing/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// ==================== Roster ====================

func (s *Store) CreateParent(ctx context.Context, p *roster.Parent) error {
	_, err := s.col(colParents).InsertOne(ctx, toParentModel(p))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return billing.ErrAlreadyExists
		}
		return fmt.Errorf("billing/mongo: create parent: %w", err)
	}
	return nil
}

func (s *Store) GetParent(ctx context.Context, parentID id.ParentID) (*roster.Parent, error) {
	var m parentModel
	err := s.col(colParents).FindOne(ctx, bson.M{"_id": parentID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, billing.ErrParentNotFound
		}
		return nil, fmt.Errorf("billing/mongo: get parent: %w", err)
	}
	return fromParentModel(&m)
}

func (s *Store) ListParents(ctx context.Context) ([]*roster.Parent, error) {
	cursor, err := s.col(colParents).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("billing/mongo: list parents: %w", err)
	}
	defer cursor.Close(ctx)

	var models []parentModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("billing/mongo: list parents decode: %w", err)
	}

	result := make([]*roster.Parent, len(models))
	for i := range models {
		p, err := fromParentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) UpdateParent(ctx context.Context, p *roster.Parent) error {
	m := toParentModel(p)
	m.UpdatedAt = now()

	res, err := s.col(colParents).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("billing/mongo: update parent: %w", err)
	}
	if res.MatchedCount == 0 {
		return billing.ErrParentNotFound
	}
	return nil
}

func (s *Store) CreateStudent(ctx context.Context, st *roster.Student) error {
	_, err := s.col(colStudents).InsertOne(ctx, toStudentModel(st))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return billing.ErrAlreadyExists
		}
		return fmt.Errorf("billing/mongo: create student: %w", err)
	}
	return nil
}

func (s *Store) GetStudent(ctx context.Context, studentID id.StudentID) (*roster.Student, error) {
	var m studentModel
	err := s.col(colStudents).FindOne(ctx, bson.M{"_id": studentID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, billing.ErrStudentNotFound
		}
		return nil, fmt.Errorf("billing/mongo: get student: %w", err)
	}
	return fromStudentModel(&m)
}

func (s *Store) ListStudentsByParent(ctx context.Context, parentID id.ParentID) ([]*roster.Student, error) {
	cursor, err := s.col(colStudents).Find(ctx, bson.M{"parent_id": parentID.String()},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("billing/mongo: list students: %w", err)
	}
	defer cursor.Close(ctx)

	var models []studentModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("billing/mongo: list students decode: %w", err)
	}

	result := make([]*roster.Student, len(models))
	for i := range models {
		st, err := fromStudentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = st
	}
	return result, nil
}

func (s *Store) UpdateStudent(ctx context.Context, st *roster.Student) error {
	m := toStudentModel(st)
	m.UpdatedAt = now()

	res, err := s.col(colStudents).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("billing/mongo: update student: %w", err)
	}
	if res.MatchedCount == 0 {
		return billing.ErrStudentNotFound
	}
	return nil
}

func (s *Store) CreateTutor(ctx context.Context, t *roster.Tutor) error {
	_, err := s.col(colTutors).InsertOne(ctx, toTutorModel(t))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return billing.ErrAlreadyExists
		}
		return fmt.Errorf("billing/mongo: create tutor: %w", err)
	}
	return nil
}

func (s *Store) GetTutor(ctx context.Context, tutorID id.TutorID) (*roster.Tutor, error) {
	var m tutorModel
	err := s.col(colTutors).FindOne(ctx, bson.M{"_id": tutorID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, billing.ErrTutorNotFound
		}
		return nil, fmt.Errorf("billing/mongo: get tutor: %w", err)
	}
	return fromTutorModel(&m)
}

func (s *Store) ListTutors(ctx context.Context) ([]*roster.Tutor, error) {
	cursor, err := s.col(colTutors).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("billing/mongo: list tutors: %w", err)
	}
	defer cursor.Close(ctx)

	var models []tutorModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("billing/mongo: list tutors decode: %w", err)
	}

	result := make([]*roster.Tutor, len(models))
	for i := range models {
		t, err := fromTutorModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

func (s *Store) UpdateTutor(ctx context.Context, t *roster.Tutor) error {
	m := toTutorModel(t)
	m.UpdatedAt = now()

	res, err := s.col(colTutors).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("billing/mongo: update tutor: %w", err)
	}
	if res.MatchedCount == 0 {
		return billing.ErrTutorNotFound
	}
	return nil
}

// ==================== Session Ledger ====================

// PutSession upserts the scheduling fields. Billing fields on an existing
// record are preserved: only the atomic commit/void operations touch them.
func (s *Store) PutSession(ctx context.Context, sess *session.Session) error {
	m := toSessionModel(sess)

	update := bson.M{
		"$set": bson.M{
			"parent_id":        m.ParentID,
			"student_id":       m.StudentID,
			"tutor_id":         m.TutorID,
			"subject":          m.Subject,
			"start_time":       m.StartTime,
			"end_time":         m.EndTime,
			"duration_minutes": m.DurationMinutes,
			"status":           m.Status,
			"cost_cents":       m.CostCents,
			"notes":            m.Notes,
			"updated_at":       now(),
		},
		"$setOnInsert": bson.M{
			"billed_to_parent": false,
			"paid_to_tutor":    false,
			"created_at":       m.CreatedAt,
		},
	}

	_, err := s.col(colSessions).UpdateOne(ctx, bson.M{"_id": m.ID}, update,
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("billing/mongo: put session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, sessID id.SessionID) (*session.Session, error) {
	var m sessionModel
	err := s.col(colSessions).FindOne(ctx, bson.M{"_id": sessID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, billing.ErrSessionNotFound
		}
		return nil, fmt.Errorf("billing/mongo: get session: %w", err)
	}
	return fromSessionModel(&m)
}

// GetSessions returns the requested sessions. Any missing ID fails the
// whole call.
func (s *Store) GetSessions(ctx context.Context, sessIDs []id.SessionID) ([]*session.Session, error) {
	found, err := s.findSessions(ctx, bson.M{"_id": bson.M{"$in": idStrings(sessIDs)}}, nil)
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
	filter := bson.M{"parent_id": parentID.String()}
	return s.findSessions(ctx, applySessionOpts(filter, opts), findOptsFor(opts))
}

func (s *Store) ListSessionsByStudents(ctx context.Context, studentIDs []id.StudentID, opts session.ListOpts) ([]*session.Session, error) {
	raw := make([]string, len(studentIDs))
	for i, sid := range studentIDs {
		raw[i] = sid.String()
	}
	filter := bson.M{"student_id": bson.M{"$in": raw}}
	return s.findSessions(ctx, applySessionOpts(filter, opts), findOptsFor(opts))
}

func (s *Store) ListSessionsByTutor(ctx context.Context, tutorID id.TutorID, opts session.ListOpts) ([]*session.Session, error) {
	filter := bson.M{"tutor_id": tutorID.String()}
	return s.findSessions(ctx, applySessionOpts(filter, opts), findOptsFor(opts))
}

func (s *Store) ListSessionsByInvoice(ctx context.Context, invID id.InvoiceID) ([]*session.Session, error) {
	return s.findSessions(ctx, bson.M{"invoice_id": invID.String()}, nil)
}

func (s *Store) ListSessionsByPayStub(ctx context.Context, stubID id.PayStubID) ([]*session.Session, error) {
	return s.findSessions(ctx, bson.M{"pay_stub_id": stubID.String()}, nil)
}

func (s *Store) findSessions(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]*session.Session, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = s.col(colSessions).Find(ctx, filter, opts)
	} else {
		cursor, err = s.col(colSessions).Find(ctx, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("billing/mongo: find sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var models []sessionModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("billing/mongo: find sessions decode: %w", err)
	}

	result := make([]*session.Session, len(models))
	for i := range models {
		sess, err := fromSessionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sess
	}
	return result, nil
}

func applySessionOpts(filter bson.M, opts session.ListOpts) bson.M {
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if !opts.Range.Start.IsZero() {
		st := bson.M{"$gte": opts.Range.Start}
		if !opts.Range.End.IsZero() {
			st["$lte"] = opts.Range.End
		}
		filter["start_time"] = st
	} else if !opts.Range.End.IsZero() {
		filter["start_time"] = bson.M{"$lte": opts.Range.End}
	}
	return filter
}

func findOptsFor(opts session.ListOpts) *options.FindOptionsBuilder {
	q := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	if opts.Limit > 0 {
		q = q.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.SetSkip(int64(opts.Offset))
	}
	return q
}

// ==================== Atomic Billing Operations ====================

// CommitInvoice claims the selected sessions, mints the invoice number, and
// inserts the invoice inside one transaction. The claim is a guarded
// UpdateMany: if any selected session was billed concurrently the modified
// count comes up short, the transaction aborts, and ErrBillingConflict is
// returned with nothing written — including the sequence increment.
func (s *Store) CommitInvoice(ctx context.Context, inv *invoice.Invoice, sessIDs []id.SessionID) error {
	return s.inTransaction(ctx, func(ctx context.Context) error {
		if err := s.verifySelection(ctx, sessIDs, "billed_to_parent"); err != nil {
			return err
		}

		seq, err := s.mintSequence(ctx, seqInvoice)
		if err != nil {
			return err
		}
		inv.Number = invoice.FormatNumber(seq)

		res, err := s.col(colSessions).UpdateMany(ctx,
			bson.M{
				"_id":              bson.M{"$in": idStrings(sessIDs)},
				"billed_to_parent": false,
				"status":           bson.M{"$in": billableStatuses()},
			},
			bson.M{"$set": bson.M{
				"billed_to_parent": true,
				"invoice_id":       inv.ID.String(),
				"updated_at":       now(),
			}})
		if err != nil {
			return fmt.Errorf("billing/mongo: claim sessions: %w", err)
		}
		if res.ModifiedCount != int64(len(sessIDs)) {
			return fmt.Errorf("%w: claimed %d of %d sessions",
				billing.ErrBillingConflict, res.ModifiedCount, len(sessIDs))
		}

		if _, err := s.col(colInvoices).InsertOne(ctx, toInvoiceModel(inv)); err != nil {
			return fmt.Errorf("billing/mongo: insert invoice: %w", err)
		}
		return nil
	})
}

// CommitPayStub mirrors CommitInvoice on the payee track.
func (s *Store) CommitPayStub(ctx context.Context, stub *paystub.PayStub, sessIDs []id.SessionID) error {
	return s.inTransaction(ctx, func(ctx context.Context) error {
		if err := s.verifySelection(ctx, sessIDs, "paid_to_tutor"); err != nil {
			return err
		}

		seq, err := s.mintSequence(ctx, seqPayStub)
		if err != nil {
			return err
		}
		stub.SetSequence(seq)

		res, err := s.col(colSessions).UpdateMany(ctx,
			bson.M{
				"_id":           bson.M{"$in": idStrings(sessIDs)},
				"paid_to_tutor": false,
				"status":        bson.M{"$in": billableStatuses()},
			},
			bson.M{"$set": bson.M{
				"paid_to_tutor": true,
				"pay_stub_id":   stub.ID.String(),
				"updated_at":    now(),
			}})
		if err != nil {
			return fmt.Errorf("billing/mongo: claim sessions: %w", err)
		}
		if res.ModifiedCount != int64(len(sessIDs)) {
			return fmt.Errorf("%w: claimed %d of %d sessions",
				billing.ErrBillingConflict, res.ModifiedCount, len(sessIDs))
		}

		if _, err := s.col(colPayStubs).InsertOne(ctx, toPayStubModel(stub)); err != nil {
			return fmt.Errorf("billing/mongo: insert pay stub: %w", err)
		}
		return nil
	})
}

// VoidInvoice reverts every session whose live back-reference points at the
// invoice, then deletes it, all in one transaction.
func (s *Store) VoidInvoice(ctx context.Context, invID id.InvoiceID) (int, error) {
	reverted := 0
	err := s.inTransaction(ctx, func(ctx context.Context) error {
		res, err := s.col(colInvoices).DeleteOne(ctx, bson.M{"_id": invID.String()})
		if err != nil {
			return fmt.Errorf("billing/mongo: delete invoice: %w", err)
		}
		if res.DeletedCount == 0 {
			return billing.ErrInvoiceNotFound
		}

		upd, err := s.col(colSessions).UpdateMany(ctx,
			bson.M{"invoice_id": invID.String()},
			bson.M{
				"$set":   bson.M{"billed_to_parent": false, "updated_at": now()},
				"$unset": bson.M{"invoice_id": ""},
			})
		if err != nil {
			return fmt.Errorf("billing/mongo: revert sessions: %w", err)
		}
		reverted = int(upd.ModifiedCount)
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
	err := s.inTransaction(ctx, func(ctx context.Context) error {
		res, err := s.col(colPayStubs).DeleteOne(ctx, bson.M{"_id": stubID.String()})
		if err != nil {
			return fmt.Errorf("billing/mongo: delete pay stub: %w", err)
		}
		if res.DeletedCount == 0 {
			return billing.ErrPayStubNotFound
		}

		upd, err := s.col(colSessions).UpdateMany(ctx,
			bson.M{"pay_stub_id": stubID.String()},
			bson.M{
				"$set":   bson.M{"paid_to_tutor": false, "updated_at": now()},
				"$unset": bson.M{"pay_stub_id": ""},
			})
		if err != nil {
			return fmt.Errorf("billing/mongo: revert sessions: %w", err)
		}
		reverted = int(upd.ModifiedCount)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reverted, nil
}

// verifySelection classifies failures before the guarded claim so callers
// get a precise error instead of a bare short count.
func (s *Store) verifySelection(ctx context.Context, sessIDs []id.SessionID, claimedField string) error {
	sessions, err := s.GetSessions(ctx, sessIDs)
	if err != nil {
		return err
	}
	for _, sess := range sessions {
		if !sess.Billable() {
			return fmt.Errorf("%w: session %s is %s", billing.ErrSessionNotBillable, sess.ID, sess.Status)
		}
		claimed := sess.BilledToParent
		if claimedField == "paid_to_tutor" {
			claimed = sess.PaidToTutor
		}
		if claimed {
			return fmt.Errorf("%w: session %s", billing.ErrBillingConflict, sess.ID)
		}
	}
	return nil
}

// mintSequence increments the named counter and returns the next value.
// Runs inside the caller's transaction so an abort rolls it back.
func (s *Store) mintSequence(ctx context.Context, name string) (int64, error) {
	var m sequenceModel
	err := s.col(colSequences).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"minted": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		return 0, fmt.Errorf("billing/mongo: mint %s sequence: %w", name, err)
	}
	return seqSeed + m.Minted - 1, nil
}

func (s *Store) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("%w: start session: %w", billing.ErrTransactionFailed, err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// ==================== Invoices ====================

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.col(colInvoices).FindOne(ctx, bson.M{"_id": invID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, billing.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("billing/mongo: get invoice: %w", err)
	}
	return fromInvoiceModel(&m)
}

func (s *Store) ListInvoices(ctx context.Context, parentID id.ParentID, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	filter := bson.M{"parent_id": parentID.String()}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if !opts.Start.IsZero() {
		filter["issue_date"] = bson.M{"$gte": opts.Start}
	}
	if !opts.End.IsZero() {
		if d, ok := filter["issue_date"].(bson.M); ok {
			d["$lte"] = opts.End
		} else {
			filter["issue_date"] = bson.M{"$lte": opts.End}
		}
	}

	q := options.Find().SetSort(bson.D{{Key: "issue_date", Value: -1}})
	if opts.Limit > 0 {
		q = q.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.SetSkip(int64(opts.Offset))
	}

	cursor, err := s.col(colInvoices).Find(ctx, filter, q)
	if err != nil {
		return nil, fmt.Errorf("billing/mongo: list invoices: %w", err)
	}
	defer cursor.Close(ctx)

	var models []invoiceModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("billing/mongo: list invoices decode: %w", err)
	}

	result := make([]*invoice.Invoice, len(models))
	for i := range models {
		inv, err := fromInvoiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = inv
	}
	return result, nil
}

func (s *Store) UpdateInvoiceStatus(ctx context.Context, invID id.InvoiceID, to invoice.Status, at time.Time) error {
	res, err := s.col(colInvoices).UpdateOne(ctx,
		bson.M{"_id": invID.String()},
		bson.M{"$set": bson.M{"status": string(to), "updated_at": at}})
	if err != nil {
		return fmt.Errorf("billing/mongo: update invoice status: %w", err)
	}
	if res.MatchedCount == 0 {
		return billing.ErrInvoiceNotFound
	}
	return nil
}

// ==================== Pay Stubs ====================

func (s *Store) GetPayStub(ctx context.Context, stubID id.PayStubID) (*paystub.PayStub, error) {
	var m payStubModel
	err := s.col(colPayStubs).FindOne(ctx, bson.M{"_id": stubID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, billing.ErrPayStubNotFound
		}
		return nil, fmt.Errorf("billing/mongo: get pay stub: %w", err)
	}
	return fromPayStubModel(&m)
}

func (s *Store) ListPayStubs(ctx context.Context, tutorID id.TutorID, opts paystub.ListOpts) ([]*paystub.PayStub, error) {
	filter := bson.M{"tutor_id": tutorID.String()}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if !opts.Start.IsZero() {
		filter["issue_date"] = bson.M{"$gte": opts.Start}
	}
	if !opts.End.IsZero() {
		if d, ok := filter["issue_date"].(bson.M); ok {
			d["$lte"] = opts.End
		} else {
			filter["issue_date"] = bson.M{"$lte": opts.End}
		}
	}

	q := options.Find().SetSort(bson.D{{Key: "sequence", Value: -1}})
	if opts.Limit > 0 {
		q = q.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.SetSkip(int64(opts.Offset))
	}

	cursor, err := s.col(colPayStubs).Find(ctx, filter, q)
	if err != nil {
		return nil, fmt.Errorf("billing/mongo: list pay stubs: %w", err)
	}
	defer cursor.Close(ctx)

	var models []payStubModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("billing/mongo: list pay stubs decode: %w", err)
	}

	result := make([]*paystub.PayStub, len(models))
	for i := range models {
		stub, err := fromPayStubModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = stub
	}
	return result, nil
}

func (s *Store) UpdatePayStubStatus(ctx context.Context, stubID id.PayStubID, to paystub.Status, at time.Time) error {
	res, err := s.col(colPayStubs).UpdateOne(ctx,
		bson.M{"_id": stubID.String()},
		bson.M{"$set": bson.M{"status": string(to), "updated_at": at}})
	if err != nil {
		return fmt.Errorf("billing/mongo: update pay stub status: %w", err)
	}
	if res.MatchedCount == 0 {
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all billing collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colStudents: {
			{Keys: bson.D{{Key: "parent_id", Value: 1}}},
		},
		colSessions: {
			{Keys: bson.D{{Key: "parent_id", Value: 1}, {Key: "billed_to_parent", Value: 1}, {Key: "start_time", Value: 1}}},
			{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "billed_to_parent", Value: 1}, {Key: "start_time", Value: 1}}},
			{Keys: bson.D{{Key: "tutor_id", Value: 1}, {Key: "paid_to_tutor", Value: 1}, {Key: "start_time", Value: 1}}},
			{Keys: bson.D{{Key: "invoice_id", Value: 1}}},
			{Keys: bson.D{{Key: "pay_stub_id", Value: 1}}},
		},
		colInvoices: {
			{Keys: bson.D{{Key: "parent_id", Value: 1}, {Key: "issue_date", Value: -1}}},
			{
				Keys:    bson.D{{Key: "number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colPayStubs: {
			{Keys: bson.D{{Key: "tutor_id", Value: 1}, {Key: "sequence", Value: -1}}},
			{
				Keys:    bson.D{{Key: "number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
}

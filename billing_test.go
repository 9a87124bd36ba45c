package billing_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	billing "github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/invoice"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/paystub"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/roster"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/session"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/store/memory"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/types"
)

func newTestEngine(t *testing.T, opts ...billing.Option) *billing.Engine {
	t.Helper()

	opts = append([]billing.Option{
		billing.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)

	e := billing.New(memory.New(), opts...)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start engine: %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })

	return e
}

// fixture is the standard roster: one parent, one student priced for Math,
// one tutor paid for Math.
type fixture struct {
	parent  *roster.Parent
	student *roster.Student
	tutor   *roster.Tutor
}

func seedRoster(t *testing.T, e *billing.Engine) fixture {
	t.Helper()
	ctx := context.Background()

	parent := &roster.Parent{Name: "Dana Reed", Email: "dana@example.com"}
	if err := e.CreateParent(ctx, parent); err != nil {
		t.Fatalf("create parent: %v", err)
	}

	student := &roster.Student{
		ParentID: parent.ID,
		Name:     "Alex Reed",
		Grade:    "8",
		Rates:    roster.RateTable{"Math": types.Dollars(40)},
	}
	if err := e.CreateStudent(ctx, student); err != nil {
		t.Fatalf("create student: %v", err)
	}

	tutor := &roster.Tutor{
		Name:     "Sam Okafor",
		Subjects: []string{"Math"},
		PayRates: roster.RateTable{"Math": types.Dollars(25)},
	}
	if err := e.CreateTutor(ctx, tutor); err != nil {
		t.Fatalf("create tutor: %v", err)
	}

	return fixture{parent: parent, student: student, tutor: tutor}
}

// recordSession books a 90-minute Math session for the fixture student.
func recordSession(t *testing.T, e *billing.Engine, f fixture, start time.Time) *session.Session {
	t.Helper()

	s := &session.Session{
		StudentID:       f.student.ID,
		TutorID:         f.tutor.ID,
		Subject:         "Math",
		StartTime:       start,
		EndTime:         start.Add(90 * time.Minute),
		DurationMinutes: 90,
		Status:          session.StatusCompleted,
	}
	if err := e.RecordSession(context.Background(), s); err != nil {
		t.Fatalf("record session: %v", err)
	}
	return s
}

var baseTime = time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC)

func TestRosterManagement(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := seedRoster(t, e)

	t.Run("StudentLinkedIntoParent", func(t *testing.T) {
		parent, err := e.GetParent(ctx, f.parent.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(parent.StudentIDs) != 1 || parent.StudentIDs[0] != f.student.ID {
			t.Errorf("parent.StudentIDs = %v, want [%v]", parent.StudentIDs, f.student.ID)
		}
	})

	t.Run("StudentRequiresExistingParent", func(t *testing.T) {
		err := e.CreateStudent(ctx, &roster.Student{
			ParentID: id.NewParentID(),
			Name:     "Orphan",
		})
		if !billing.IsNotFound(err) {
			t.Errorf("expected not-found error, got %v", err)
		}
	})

	t.Run("StudentRequiresParentID", func(t *testing.T) {
		err := e.CreateStudent(ctx, &roster.Student{Name: "Unlinked"})
		if !billing.IsInputError(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("SetStudentRate", func(t *testing.T) {
		if err := e.SetStudentRate(ctx, f.student.ID, "Physics", types.Dollars(45)); err != nil {
			t.Fatal(err)
		}
		s, err := e.GetStudent(ctx, f.student.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !s.Rates.Rate("Physics").Equal(types.Dollars(45)) {
			t.Errorf("Physics rate = %v, want $45.00", s.Rates.Rate("Physics"))
		}
		if !s.Rates.Rate("Math").Equal(types.Dollars(40)) {
			t.Error("existing Math rate should survive")
		}
	})

	t.Run("SetTutorPayRate", func(t *testing.T) {
		if err := e.SetTutorPayRate(ctx, f.tutor.ID, "Physics", types.Dollars(30)); err != nil {
			t.Fatal(err)
		}
		tut, err := e.GetTutor(ctx, f.tutor.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !tut.PayRates.Rate("Physics").Equal(types.Dollars(30)) {
			t.Errorf("Physics pay rate = %v, want $30.00", tut.PayRates.Rate("Physics"))
		}
	})

	t.Run("ListStudentsForParent", func(t *testing.T) {
		students, err := e.ListStudentsForParent(ctx, f.parent.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(students) != 1 {
			t.Errorf("got %d students, want 1", len(students))
		}
	})
}

func TestRecordSession(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := seedRoster(t, e)

	t.Run("RequiresTutor", func(t *testing.T) {
		err := e.RecordSession(ctx, &session.Session{
			StudentID:       f.student.ID,
			DurationMinutes: 60,
		})
		if !billing.IsInputError(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("RequiresParentOrStudent", func(t *testing.T) {
		err := e.RecordSession(ctx, &session.Session{
			TutorID:         f.tutor.ID,
			DurationMinutes: 60,
		})
		if !billing.IsInputError(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("RequiresDurationUnlessFixedCost", func(t *testing.T) {
		err := e.RecordSession(ctx, &session.Session{
			StudentID: f.student.ID,
			TutorID:   f.tutor.ID,
		})
		if !billing.IsInputError(err) {
			t.Errorf("expected validation error, got %v", err)
		}

		cost := types.Dollars(75)
		err = e.RecordSession(ctx, &session.Session{
			ParentID: f.parent.ID,
			TutorID:  f.tutor.ID,
			Cost:     &cost,
		})
		if err != nil {
			t.Errorf("fixed-cost session without duration should record: %v", err)
		}
	})

	t.Run("DefaultsToScheduled", func(t *testing.T) {
		s := &session.Session{
			StudentID:       f.student.ID,
			TutorID:         f.tutor.ID,
			DurationMinutes: 60,
			StartTime:       baseTime,
		}
		if err := e.RecordSession(ctx, s); err != nil {
			t.Fatal(err)
		}
		got, err := e.GetSession(ctx, s.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != session.StatusScheduled {
			t.Errorf("status = %q, want scheduled", got.Status)
		}
	})

	t.Run("IgnoresInputBillingFields", func(t *testing.T) {
		s := &session.Session{
			StudentID:       f.student.ID,
			TutorID:         f.tutor.ID,
			DurationMinutes: 60,
			StartTime:       baseTime,
			BilledToParent:  true,
			InvoiceID:       id.NewInvoiceID(),
		}
		if err := e.RecordSession(ctx, s); err != nil {
			t.Fatal(err)
		}
		got, err := e.GetSession(ctx, s.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.BilledToParent || !got.InvoiceID.IsNil() {
			t.Error("recorded session should start unbilled")
		}
	})

	t.Run("ReplacePreservesLedgerBillingState", func(t *testing.T) {
		s := recordSession(t, e, f, baseTime)
		inv, err := e.GenerateInvoice(ctx, f.parent.ID, []id.SessionID{s.ID}, "")
		if err != nil {
			t.Fatal(err)
		}

		// Scheduling edits re-submit the whole session, unbilled.
		edited := s.Clone()
		edited.Notes = "rescheduled room"
		edited.BilledToParent = false
		edited.InvoiceID = id.Nil
		if err := e.RecordSession(ctx, edited); err != nil {
			t.Fatal(err)
		}

		got, err := e.GetSession(ctx, s.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !got.BilledToParent || got.InvoiceID != inv.ID {
			t.Error("replacement must preserve the ledger's billing state")
		}
		if got.Notes != "rescheduled room" {
			t.Error("replacement should apply scheduling fields")
		}
	})
}

func TestListUnbilledForParent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := seedRoster(t, e)

	// Student-keyed sessions, recorded out of order.
	second := recordSession(t, e, f, baseTime.Add(48*time.Hour))
	first := recordSession(t, e, f, baseTime)

	// A one-off keyed directly to the parent.
	cost := types.Dollars(120)
	direct := &session.Session{
		ParentID:  f.parent.ID,
		TutorID:   f.tutor.ID,
		Subject:   "Evaluation",
		StartTime: baseTime.Add(24 * time.Hour),
		Cost:      &cost,
	}
	if err := e.RecordSession(ctx, direct); err != nil {
		t.Fatal(err)
	}

	// Cancelled sessions never show up.
	cancelled := &session.Session{
		StudentID:       f.student.ID,
		TutorID:         f.tutor.ID,
		Subject:         "Math",
		StartTime:       baseTime.Add(72 * time.Hour),
		DurationMinutes: 60,
		Status:          session.StatusCancelled,
	}
	if err := e.RecordSession(ctx, cancelled); err != nil {
		t.Fatal(err)
	}

	t.Run("UnionOrderedOldestFirst", func(t *testing.T) {
		unbilled, err := e.ListUnbilledForParent(ctx, f.parent.ID, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(unbilled) != 3 {
			t.Fatalf("got %d billable sessions, want 3", len(unbilled))
		}
		want := []id.SessionID{first.ID, direct.ID, second.ID}
		for i, bs := range unbilled {
			if bs.Session.ID != want[i] {
				t.Errorf("position %d: got %v, want %v", i, bs.Session.ID, want[i])
			}
		}
	})

	t.Run("PricesHourlyAndFlat", func(t *testing.T) {
		unbilled, err := e.ListUnbilledForParent(ctx, f.parent.ID, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !unbilled[0].Line.Total.Equal(types.Dollars(60)) {
			t.Errorf("hourly line total = %v, want $60.00", unbilled[0].Line.Total)
		}
		if !unbilled[1].Line.Flat || !unbilled[1].Line.Total.Equal(cost) {
			t.Errorf("direct session should price flat at %v, got %+v", cost, unbilled[1].Line)
		}
	})

	t.Run("DirectSessionFallsBackToUnknown", func(t *testing.T) {
		unbilled, err := e.ListUnbilledForParent(ctx, f.parent.ID, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(unbilled[1].Description, roster.UnknownName) {
			t.Errorf("description %q should carry the placeholder name", unbilled[1].Description)
		}
		if !strings.Contains(unbilled[0].Description, "Alex Reed") {
			t.Errorf("description %q should carry the student name", unbilled[0].Description)
		}
	})

	t.Run("RangeFilterInclusive", func(t *testing.T) {
		rng := &types.DateRange{Start: baseTime, End: baseTime.Add(24 * time.Hour)}
		unbilled, err := e.ListUnbilledForParent(ctx, f.parent.ID, rng)
		if err != nil {
			t.Fatal(err)
		}
		if len(unbilled) != 2 {
			t.Fatalf("got %d sessions in range, want 2", len(unbilled))
		}
		if unbilled[0].Session.ID != first.ID || unbilled[1].Session.ID != direct.ID {
			t.Error("range filter should keep both boundary sessions")
		}
	})

	t.Run("ListingDoesNotMutate", func(t *testing.T) {
		if _, err := e.ListUnbilledForParent(ctx, f.parent.ID, nil); err != nil {
			t.Fatal(err)
		}
		got, err := e.GetSession(ctx, first.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.BilledToParent {
			t.Error("listing must not touch the ledger")
		}
	})

	t.Run("UnknownParent", func(t *testing.T) {
		_, err := e.ListUnbilledForParent(ctx, id.NewParentID(), nil)
		if !billing.IsNotFound(err) {
			t.Errorf("expected not-found error, got %v", err)
		}
	})
}

func TestGenerateInvoice(t *testing.T) {
	clock := func() time.Time { return time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC) }
	e := newTestEngine(t, billing.WithClock(clock), billing.WithInvoiceDueDays(30))
	ctx := context.Background()
	f := seedRoster(t, e)

	a := recordSession(t, e, f, baseTime)
	b := recordSession(t, e, f, baseTime.Add(24*time.Hour))

	inv, err := e.GenerateInvoice(ctx, f.parent.ID, []id.SessionID{a.ID, b.ID}, "January tutoring")
	if err != nil {
		t.Fatalf("generate invoice: %v", err)
	}

	t.Run("Totals", func(t *testing.T) {
		if len(inv.LineItems) != 2 {
			t.Fatalf("got %d line items, want 2", len(inv.LineItems))
		}
		if !inv.Total.Equal(types.Dollars(120)) {
			t.Errorf("total = %v, want $120.00", inv.Total)
		}
		if !inv.TotalConsistent() {
			t.Error("stored total must equal the line item sum")
		}
	})

	t.Run("NumberAndDates", func(t *testing.T) {
		if inv.Number != "INV-1000" {
			t.Errorf("number = %q, want INV-1000", inv.Number)
		}
		if !inv.IssueDate.Equal(clock().UTC()) {
			t.Errorf("issue date = %v, want the pinned clock", inv.IssueDate)
		}
		if !inv.DueDate.Equal(clock().UTC().AddDate(0, 0, 30)) {
			t.Errorf("due date = %v, want issue + 30 days", inv.DueDate)
		}
		if inv.Status != invoice.StatusDraft {
			t.Errorf("status = %q, want draft", inv.Status)
		}
	})

	t.Run("SessionsCarryBackReference", func(t *testing.T) {
		for _, sessID := range []id.SessionID{a.ID, b.ID} {
			got, err := e.GetSession(ctx, sessID)
			if err != nil {
				t.Fatal(err)
			}
			if !got.BilledToParent || got.InvoiceID != inv.ID {
				t.Errorf("session %v missing invoice back-reference", sessID)
			}
			if !got.BillingConsistent() {
				t.Errorf("session %v billing state inconsistent", sessID)
			}
		}
	})

	t.Run("BilledSessionsLeaveTheListing", func(t *testing.T) {
		unbilled, err := e.ListUnbilledForParent(ctx, f.parent.ID, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(unbilled) != 0 {
			t.Errorf("got %d unbilled sessions, want 0", len(unbilled))
		}
	})

	t.Run("EmptySelection", func(t *testing.T) {
		_, err := e.GenerateInvoice(ctx, f.parent.ID, nil, "")
		if !errors.Is(err, billing.ErrEmptySelection) {
			t.Errorf("expected ErrEmptySelection, got %v", err)
		}
	})

	t.Run("DuplicateSelectionCountsOnce", func(t *testing.T) {
		s := recordSession(t, e, f, baseTime.Add(72*time.Hour))

		inv, err := e.GenerateInvoice(ctx, f.parent.ID, []id.SessionID{s.ID, s.ID, s.ID}, "")
		if err != nil {
			t.Fatalf("generate invoice: %v", err)
		}
		if len(inv.LineItems) != 1 {
			t.Errorf("got %d line items, want 1", len(inv.LineItems))
		}
		if !inv.Total.Equal(types.Dollars(60)) {
			t.Errorf("total = %v, want $60.00", inv.Total)
		}
	})

	t.Run("DoubleBilling", func(t *testing.T) {
		_, err := e.GenerateInvoice(ctx, f.parent.ID, []id.SessionID{a.ID}, "")
		if !errors.Is(err, billing.ErrBillingConflict) {
			t.Errorf("expected ErrBillingConflict, got %v", err)
		}
	})

	t.Run("WrongParent", func(t *testing.T) {
		other := &roster.Parent{Name: "Pat Singh"}
		if err := e.CreateParent(ctx, other); err != nil {
			t.Fatal(err)
		}
		s := recordSession(t, e, f, baseTime.Add(96*time.Hour))

		_, err := e.GenerateInvoice(ctx, other.ID, []id.SessionID{s.ID}, "")
		if !errors.Is(err, billing.ErrSessionWrongParent) {
			t.Errorf("expected ErrSessionWrongParent, got %v", err)
		}
	})

	t.Run("NotBillableStatus", func(t *testing.T) {
		s := recordSession(t, e, f, baseTime.Add(120*time.Hour))
		s.Status = session.StatusNoShow
		if err := e.RecordSession(ctx, s); err != nil {
			t.Fatal(err)
		}

		_, err := e.GenerateInvoice(ctx, f.parent.ID, []id.SessionID{s.ID}, "")
		if !errors.Is(err, billing.ErrSessionNotBillable) {
			t.Errorf("expected ErrSessionNotBillable, got %v", err)
		}
	})

	t.Run("MissingSession", func(t *testing.T) {
		_, err := e.GenerateInvoice(ctx, f.parent.ID, []id.SessionID{id.NewSessionID()}, "")
		if !billing.IsNotFound(err) {
			t.Errorf("expected not-found error, got %v", err)
		}
	})
}

func TestVoidInvoice(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := seedRoster(t, e)

	a := recordSession(t, e, f, baseTime)
	b := recordSession(t, e, f, baseTime.Add(24*time.Hour))

	inv, err := e.GenerateInvoice(ctx, f.parent.ID, []id.SessionID{a.ID, b.ID}, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := e.VoidInvoice(ctx, inv.ID); err != nil {
		t.Fatalf("void invoice: %v", err)
	}

	t.Run("InvoiceDeleted", func(t *testing.T) {
		_, err := e.GetInvoice(ctx, inv.ID)
		if !errors.Is(err, billing.ErrInvoiceNotFound) {
			t.Errorf("expected ErrInvoiceNotFound, got %v", err)
		}
	})

	t.Run("SessionsReverted", func(t *testing.T) {
		for _, sessID := range []id.SessionID{a.ID, b.ID} {
			got, err := e.GetSession(ctx, sessID)
			if err != nil {
				t.Fatal(err)
			}
			if got.BilledToParent || !got.InvoiceID.IsNil() {
				t.Errorf("session %v still billed after void", sessID)
			}
		}
	})

	t.Run("Rebillable", func(t *testing.T) {
		unbilled, err := e.ListUnbilledForParent(ctx, f.parent.ID, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(unbilled) != 2 {
			t.Fatalf("got %d unbilled sessions after void, want 2", len(unbilled))
		}

		again, err := e.GenerateInvoice(ctx, f.parent.ID, []id.SessionID{a.ID, b.ID}, "")
		if err != nil {
			t.Fatal(err)
		}
		if again.Number == inv.Number {
			t.Error("regenerated invoice must mint a fresh number")
		}
	})

	t.Run("VoidUnknownInvoice", func(t *testing.T) {
		err := e.VoidInvoice(ctx, id.NewInvoiceID())
		if !errors.Is(err, billing.ErrInvoiceNotFound) {
			t.Errorf("expected ErrInvoiceNotFound, got %v", err)
		}
	})
}

func TestInvoiceStatusTransitions(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := seedRoster(t, e)

	var offset time.Duration
	newInvoice := func(t *testing.T) *invoice.Invoice {
		t.Helper()
		offset += 24 * time.Hour
		s := recordSession(t, e, f, baseTime.Add(offset))
		inv, err := e.GenerateInvoice(ctx, f.parent.ID, []id.SessionID{s.ID}, "")
		if err != nil {
			t.Fatal(err)
		}
		return inv
	}

	t.Run("DraftToSentToPaid", func(t *testing.T) {
		inv := newInvoice(t)
		if err := e.MarkInvoiceSent(ctx, inv.ID); err != nil {
			t.Fatal(err)
		}
		if err := e.MarkInvoicePaid(ctx, inv.ID); err != nil {
			t.Fatal(err)
		}
		got, err := e.GetInvoice(ctx, inv.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != invoice.StatusPaid {
			t.Errorf("status = %q, want paid", got.Status)
		}
	})

	t.Run("SentToOverdueToPaid", func(t *testing.T) {
		inv := newInvoice(t)
		if err := e.MarkInvoiceSent(ctx, inv.ID); err != nil {
			t.Fatal(err)
		}
		if err := e.MarkInvoiceOverdue(ctx, inv.ID); err != nil {
			t.Fatal(err)
		}
		if err := e.MarkInvoicePaid(ctx, inv.ID); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("DraftCannotBePaid", func(t *testing.T) {
		inv := newInvoice(t)
		err := e.MarkInvoicePaid(ctx, inv.ID)
		if !errors.Is(err, billing.ErrInvalidStatusChange) {
			t.Errorf("expected ErrInvalidStatusChange, got %v", err)
		}
	})

	t.Run("PaidIsTerminal", func(t *testing.T) {
		inv := newInvoice(t)
		if err := e.MarkInvoiceSent(ctx, inv.ID); err != nil {
			t.Fatal(err)
		}
		if err := e.MarkInvoicePaid(ctx, inv.ID); err != nil {
			t.Fatal(err)
		}
		err := e.MarkInvoiceCancelled(ctx, inv.ID)
		if !errors.Is(err, billing.ErrInvalidStatusChange) {
			t.Errorf("expected ErrInvalidStatusChange, got %v", err)
		}
	})

	t.Run("DraftCancellable", func(t *testing.T) {
		inv := newInvoice(t)
		if err := e.MarkInvoiceCancelled(ctx, inv.ID); err != nil {
			t.Fatal(err)
		}
	})
}

func TestGeneratePayStub(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := seedRoster(t, e)

	a := recordSession(t, e, f, baseTime)
	b := recordSession(t, e, f, baseTime.Add(24*time.Hour))

	stub, err := e.GeneratePayStub(ctx, f.tutor.ID, []id.SessionID{a.ID, b.ID}, "January payout")
	if err != nil {
		t.Fatalf("generate pay stub: %v", err)
	}

	t.Run("Totals", func(t *testing.T) {
		// Two 90-minute sessions at $25/h.
		if !stub.TotalPay.Equal(types.Dollars(75)) {
			t.Errorf("total pay = %v, want $75.00", stub.TotalPay)
		}
		if stub.TotalHours != 3 {
			t.Errorf("total hours = %v, want 3", stub.TotalHours)
		}
	})

	t.Run("SequenceAndNumber", func(t *testing.T) {
		if stub.Sequence != 1000 {
			t.Errorf("sequence = %d, want 1000", stub.Sequence)
		}
		if stub.Number != "PS-1000" {
			t.Errorf("number = %q, want PS-1000", stub.Number)
		}
	})

	t.Run("SessionsCarryBackReference", func(t *testing.T) {
		got, err := e.GetSession(ctx, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !got.PaidToTutor || got.PayStubID != stub.ID {
			t.Error("session missing pay stub back-reference")
		}
	})

	t.Run("DuplicateSelectionCountsOnce", func(t *testing.T) {
		s := recordSession(t, e, f, baseTime.Add(96*time.Hour))

		dup, err := e.GeneratePayStub(ctx, f.tutor.ID, []id.SessionID{s.ID, s.ID}, "")
		if err != nil {
			t.Fatalf("generate pay stub: %v", err)
		}
		if len(dup.LineItems) != 1 {
			t.Errorf("got %d line items, want 1", len(dup.LineItems))
		}
		if dup.TotalHours != 1.5 {
			t.Errorf("total hours = %v, want 1.5", dup.TotalHours)
		}
	})

	t.Run("DoublePayout", func(t *testing.T) {
		_, err := e.GeneratePayStub(ctx, f.tutor.ID, []id.SessionID{a.ID}, "")
		if !errors.Is(err, billing.ErrBillingConflict) {
			t.Errorf("expected ErrBillingConflict, got %v", err)
		}
	})

	t.Run("WrongTutor", func(t *testing.T) {
		other := &roster.Tutor{Name: "Ryan Cole"}
		if err := e.CreateTutor(ctx, other); err != nil {
			t.Fatal(err)
		}
		s := recordSession(t, e, f, baseTime.Add(48*time.Hour))

		_, err := e.GeneratePayStub(ctx, other.ID, []id.SessionID{s.ID}, "")
		if !errors.Is(err, billing.ErrSessionWrongTutor) {
			t.Errorf("expected ErrSessionWrongTutor, got %v", err)
		}
	})

	t.Run("MarkPaid", func(t *testing.T) {
		if err := e.MarkPayStubPaid(ctx, stub.ID); err != nil {
			t.Fatal(err)
		}
		got, err := e.GetPayStub(ctx, stub.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != paystub.StatusPaid {
			t.Errorf("status = %q, want paid", got.Status)
		}

		err = e.MarkPayStubPaid(ctx, stub.ID)
		if !errors.Is(err, billing.ErrInvalidStatusChange) {
			t.Errorf("expected ErrInvalidStatusChange, got %v", err)
		}
	})
}

func TestVoidPayStub(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := seedRoster(t, e)

	s := recordSession(t, e, f, baseTime)
	stub, err := e.GeneratePayStub(ctx, f.tutor.ID, []id.SessionID{s.ID}, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := e.VoidPayStub(ctx, stub.ID); err != nil {
		t.Fatalf("void pay stub: %v", err)
	}

	if _, err := e.GetPayStub(ctx, stub.ID); !errors.Is(err, billing.ErrPayStubNotFound) {
		t.Errorf("expected ErrPayStubNotFound, got %v", err)
	}

	got, err := e.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PaidToTutor || !got.PayStubID.IsNil() {
		t.Error("session still marked paid after void")
	}

	unpaid, err := e.ListUnpaidForTutor(ctx, f.tutor.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(unpaid) != 1 {
		t.Errorf("got %d unpaid sessions after void, want 1", len(unpaid))
	}
}

func TestBillingTracksIndependent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := seedRoster(t, e)

	s := recordSession(t, e, f, baseTime)

	inv, err := e.GenerateInvoice(ctx, f.parent.ID, []id.SessionID{s.ID}, "")
	if err != nil {
		t.Fatal(err)
	}

	// Invoicing the parent leaves the tutor's payout track open.
	unpaid, err := e.ListUnpaidForTutor(ctx, f.tutor.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(unpaid) != 1 {
		t.Fatalf("got %d unpaid sessions, want 1", len(unpaid))
	}

	stub, err := e.GeneratePayStub(ctx, f.tutor.ID, []id.SessionID{s.ID}, "")
	if err != nil {
		t.Fatal(err)
	}

	got, err := e.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.InvoiceID != inv.ID || got.PayStubID != stub.ID {
		t.Error("both tracks should reference their records")
	}
	if !got.BillingConsistent() {
		t.Error("billing state inconsistent")
	}

	// Voiding one track leaves the other alone.
	if err := e.VoidInvoice(ctx, inv.ID); err != nil {
		t.Fatal(err)
	}
	got, err = e.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.BilledToParent {
		t.Error("invoice track should be open after void")
	}
	if !got.PaidToTutor || got.PayStubID != stub.ID {
		t.Error("voiding the invoice must not touch the payout track")
	}
}

func TestSequencesIndependentAndGapless(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := seedRoster(t, e)

	var stubs []*paystub.PayStub
	for i := 0; i < 3; i++ {
		s := recordSession(t, e, f, baseTime.Add(time.Duration(i)*24*time.Hour))
		stub, err := e.GeneratePayStub(ctx, f.tutor.ID, []id.SessionID{s.ID}, "")
		if err != nil {
			t.Fatal(err)
		}
		stubs = append(stubs, stub)
	}

	for i, stub := range stubs {
		want := int64(1000 + i)
		if stub.Sequence != want {
			t.Errorf("stub %d: sequence = %d, want %d", i, stub.Sequence, want)
		}
	}

	// A failed generation must not consume a sequence value.
	_, err := e.GeneratePayStub(ctx, f.tutor.ID, []id.SessionID{stubs[0].SessionIDs()[0]}, "")
	if !errors.Is(err, billing.ErrBillingConflict) {
		t.Fatalf("expected ErrBillingConflict, got %v", err)
	}

	s := recordSession(t, e, f, baseTime.Add(96*time.Hour))
	next, err := e.GeneratePayStub(ctx, f.tutor.ID, []id.SessionID{s.ID}, "")
	if err != nil {
		t.Fatal(err)
	}
	if next.Sequence != 1003 {
		t.Errorf("sequence after failed attempt = %d, want 1003", next.Sequence)
	}

	// Invoice numbers run on their own counter.
	inv, err := e.GenerateInvoice(ctx, f.parent.ID, []id.SessionID{recordSession(t, e, f, baseTime.Add(120*time.Hour)).ID}, "")
	if err != nil {
		t.Fatal(err)
	}
	if inv.Number != "INV-1000" {
		t.Errorf("first invoice number = %q, want INV-1000", inv.Number)
	}
}

func TestListInvoicesAndPayStubs(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := seedRoster(t, e)

	a := recordSession(t, e, f, baseTime)
	b := recordSession(t, e, f, baseTime.Add(24*time.Hour))

	invA, err := e.GenerateInvoice(ctx, f.parent.ID, []id.SessionID{a.ID}, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.GenerateInvoice(ctx, f.parent.ID, []id.SessionID{b.ID}, ""); err != nil {
		t.Fatal(err)
	}
	if err := e.MarkInvoiceSent(ctx, invA.ID); err != nil {
		t.Fatal(err)
	}

	t.Run("All", func(t *testing.T) {
		invoices, err := e.ListInvoices(ctx, f.parent.ID, invoice.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(invoices) != 2 {
			t.Errorf("got %d invoices, want 2", len(invoices))
		}
	})

	t.Run("ByStatus", func(t *testing.T) {
		invoices, err := e.ListInvoices(ctx, f.parent.ID, invoice.ListOpts{Status: invoice.StatusSent})
		if err != nil {
			t.Fatal(err)
		}
		if len(invoices) != 1 || invoices[0].ID != invA.ID {
			t.Errorf("status filter returned %d invoices", len(invoices))
		}
	})

	t.Run("PayStubs", func(t *testing.T) {
		if _, err := e.GeneratePayStub(ctx, f.tutor.ID, []id.SessionID{a.ID, b.ID}, ""); err != nil {
			t.Fatal(err)
		}
		stubs, err := e.ListPayStubs(ctx, f.tutor.ID, paystub.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(stubs) != 1 {
			t.Errorf("got %d pay stubs, want 1", len(stubs))
		}
	})
}

func TestListUnpaidForTutor(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := seedRoster(t, e)

	a := recordSession(t, e, f, baseTime)
	recordSession(t, e, f, baseTime.Add(24*time.Hour))

	t.Run("PricedAgainstPayRates", func(t *testing.T) {
		unpaid, err := e.ListUnpaidForTutor(ctx, f.tutor.ID, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(unpaid) != 2 {
			t.Fatalf("got %d unpaid sessions, want 2", len(unpaid))
		}
		if !unpaid[0].Line.Total.Equal(types.Cents(3750)) {
			t.Errorf("payout line total = %v, want $37.50", unpaid[0].Line.Total)
		}
	})

	t.Run("RangeFilter", func(t *testing.T) {
		rng := &types.DateRange{End: baseTime}
		unpaid, err := e.ListUnpaidForTutor(ctx, f.tutor.ID, rng)
		if err != nil {
			t.Fatal(err)
		}
		if len(unpaid) != 1 || unpaid[0].Session.ID != a.ID {
			t.Errorf("range filter returned %d sessions", len(unpaid))
		}
	})

	t.Run("UnknownTutor", func(t *testing.T) {
		_, err := e.ListUnpaidForTutor(ctx, id.NewTutorID(), nil)
		if !billing.IsNotFound(err) {
			t.Errorf("expected not-found error, got %v", err)
		}
	})
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	billing "github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/invoice"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/paystub"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/session"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/types"
)

var testStart = time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC)

func putSession(t *testing.T, s *Store, start time.Time, status session.Status) *session.Session {
	t.Helper()

	sess := &session.Session{
		Entity:          types.NewEntity(),
		ID:              id.NewSessionID(),
		StudentID:       id.NewStudentID(),
		TutorID:         id.NewTutorID(),
		Subject:         "Math",
		StartTime:       start,
		DurationMinutes: 60,
		Status:          status,
	}
	if err := s.PutSession(context.Background(), sess); err != nil {
		t.Fatalf("put session: %v", err)
	}
	return sess
}

func draftInvoice(sessIDs ...id.SessionID) *invoice.Invoice {
	items := make([]types.LineItem, len(sessIDs))
	for i, sessID := range sessIDs {
		items[i] = types.LineItem{
			ID:        id.NewLineItemID(),
			SessionID: sessID,
			Minutes:   60,
			Rate:      types.Dollars(40),
			Total:     types.Dollars(40),
		}
	}
	return invoice.New(id.NewParentID(), items, testStart, testStart.AddDate(0, 0, 14), "")
}

func draftPayStub(sessIDs ...id.SessionID) *paystub.PayStub {
	items := make([]types.LineItem, len(sessIDs))
	for i, sessID := range sessIDs {
		items[i] = types.LineItem{
			ID:        id.NewLineItemID(),
			SessionID: sessID,
			Minutes:   60,
			Rate:      types.Dollars(25),
			Total:     types.Dollars(25),
		}
	}
	return paystub.New(id.NewTutorID(), items, testStart, "")
}

func TestPutSessionPreservesBillingFields(t *testing.T) {
	s := New()
	ctx := context.Background()

	sess := putSession(t, s, testStart, session.StatusCompleted)
	if err := s.CommitInvoice(ctx, draftInvoice(sess.ID), []id.SessionID{sess.ID}); err != nil {
		t.Fatal(err)
	}

	// Re-submit the session as the scheduling subsystem would: unbilled.
	replacement := sess.Clone()
	replacement.Notes = "moved to the library"
	if err := s.PutSession(ctx, replacement); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.BilledToParent || got.InvoiceID.IsNil() {
		t.Error("replacement must not clear billing state")
	}
	if got.Notes != "moved to the library" {
		t.Error("replacement should apply scheduling fields")
	}
}

func TestCommitInvoice(t *testing.T) {
	t.Run("ValidatesBeforeMutating", func(t *testing.T) {
		s := New()
		ctx := context.Background()

		clean := putSession(t, s, testStart, session.StatusCompleted)
		claimed := putSession(t, s, testStart, session.StatusCompleted)
		if err := s.CommitInvoice(ctx, draftInvoice(claimed.ID), []id.SessionID{claimed.ID}); err != nil {
			t.Fatal(err)
		}

		inv := draftInvoice(clean.ID, claimed.ID)
		err := s.CommitInvoice(ctx, inv, []id.SessionID{clean.ID, claimed.ID})
		if !errors.Is(err, billing.ErrBillingConflict) {
			t.Fatalf("expected ErrBillingConflict, got %v", err)
		}

		// The conflict must leave no trace: the clean session stays
		// unbilled and the invoice is not stored.
		got, err := s.GetSession(ctx, clean.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.BilledToParent {
			t.Error("failed commit must not claim any session")
		}
		if _, err := s.GetInvoice(ctx, inv.ID); !errors.Is(err, billing.ErrInvoiceNotFound) {
			t.Error("failed commit must not store the invoice")
		}
	})

	t.Run("RejectsCancelledSession", func(t *testing.T) {
		s := New()
		sess := putSession(t, s, testStart, session.StatusCancelled)

		err := s.CommitInvoice(context.Background(), draftInvoice(sess.ID), []id.SessionID{sess.ID})
		if !errors.Is(err, billing.ErrSessionNotBillable) {
			t.Errorf("expected ErrSessionNotBillable, got %v", err)
		}
	})

	t.Run("RejectsMissingSession", func(t *testing.T) {
		s := New()
		missing := id.NewSessionID()

		err := s.CommitInvoice(context.Background(), draftInvoice(missing), []id.SessionID{missing})
		if !errors.Is(err, billing.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("FailedCommitDoesNotConsumeSequence", func(t *testing.T) {
		s := New()
		ctx := context.Background()

		cancelled := putSession(t, s, testStart, session.StatusCancelled)
		err := s.CommitInvoice(ctx, draftInvoice(cancelled.ID), []id.SessionID{cancelled.ID})
		if err == nil {
			t.Fatal("expected commit failure")
		}

		sess := putSession(t, s, testStart, session.StatusCompleted)
		inv := draftInvoice(sess.ID)
		if err := s.CommitInvoice(ctx, inv, []id.SessionID{sess.ID}); err != nil {
			t.Fatal(err)
		}
		if inv.Number != "INV-1000" {
			t.Errorf("number = %q, want INV-1000", inv.Number)
		}
	})

	t.Run("SequencesIndependentPerTrack", func(t *testing.T) {
		s := New()
		ctx := context.Background()

		a := putSession(t, s, testStart, session.StatusCompleted)
		b := putSession(t, s, testStart, session.StatusCompleted)

		inv := draftInvoice(a.ID)
		if err := s.CommitInvoice(ctx, inv, []id.SessionID{a.ID}); err != nil {
			t.Fatal(err)
		}
		inv2 := draftInvoice(b.ID)
		if err := s.CommitInvoice(ctx, inv2, []id.SessionID{b.ID}); err != nil {
			t.Fatal(err)
		}
		stub := draftPayStub(a.ID)
		if err := s.CommitPayStub(ctx, stub, []id.SessionID{a.ID}); err != nil {
			t.Fatal(err)
		}

		if inv.Number != "INV-1000" || inv2.Number != "INV-1001" {
			t.Errorf("invoice numbers = %q, %q", inv.Number, inv2.Number)
		}
		if stub.Sequence != 1000 {
			t.Errorf("pay stub sequence = %d, want 1000", stub.Sequence)
		}
	})
}

func TestCommitPayStubIgnoresInvoiceTrack(t *testing.T) {
	s := New()
	ctx := context.Background()

	sess := putSession(t, s, testStart, session.StatusCompleted)
	if err := s.CommitInvoice(ctx, draftInvoice(sess.ID), []id.SessionID{sess.ID}); err != nil {
		t.Fatal(err)
	}

	stub := draftPayStub(sess.ID)
	if err := s.CommitPayStub(ctx, stub, []id.SessionID{sess.ID}); err != nil {
		t.Fatalf("invoiced session should still be payable: %v", err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.BilledToParent || !got.PaidToTutor {
		t.Error("both tracks should be closed")
	}
}

func TestVoidInvoiceFollowsLiveBackReferences(t *testing.T) {
	s := New()
	ctx := context.Background()

	billed := putSession(t, s, testStart, session.StatusCompleted)
	inv := draftInvoice(billed.ID)
	if err := s.CommitInvoice(ctx, inv, []id.SessionID{billed.ID}); err != nil {
		t.Fatal(err)
	}

	// Simulate reference drift: a session the invoice never listed now
	// points at it, and the originally listed session was re-pointed away.
	drifted := putSession(t, s, testStart, session.StatusCompleted)
	s.mu.Lock()
	s.sessions[drifted.ID.String()].BilledToParent = true
	s.sessions[drifted.ID.String()].InvoiceID = inv.ID
	s.sessions[billed.ID.String()].InvoiceID = id.NewInvoiceID()
	s.mu.Unlock()

	reverted, err := s.VoidInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reverted != 1 {
		t.Errorf("reverted = %d, want 1 (the drifted session only)", reverted)
	}

	got, err := s.GetSession(ctx, drifted.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.BilledToParent || !got.InvoiceID.IsNil() {
		t.Error("session referencing the invoice must be reverted")
	}

	got, err = s.GetSession(ctx, billed.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.BilledToParent {
		t.Error("session re-pointed at another invoice must be left alone")
	}

	if _, err := s.GetInvoice(ctx, inv.ID); !errors.Is(err, billing.ErrInvoiceNotFound) {
		t.Error("voided invoice should be deleted")
	}
}

func TestVoidNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.VoidInvoice(ctx, id.NewInvoiceID()); !errors.Is(err, billing.ErrInvoiceNotFound) {
		t.Errorf("expected ErrInvoiceNotFound, got %v", err)
	}
	if _, err := s.VoidPayStub(ctx, id.NewPayStubID()); !errors.Is(err, billing.ErrPayStubNotFound) {
		t.Errorf("expected ErrPayStubNotFound, got %v", err)
	}
}

func TestGetSessionsMissingFailsWhole(t *testing.T) {
	s := New()
	ctx := context.Background()

	sess := putSession(t, s, testStart, session.StatusCompleted)

	_, err := s.GetSessions(ctx, []id.SessionID{sess.ID, id.NewSessionID()})
	if !errors.Is(err, billing.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestListSessionsByTutorFilters(t *testing.T) {
	s := New()
	ctx := context.Background()
	tutorID := id.NewTutorID()

	mk := func(start time.Time, status session.Status) *session.Session {
		sess := &session.Session{
			Entity:          types.NewEntity(),
			ID:              id.NewSessionID(),
			StudentID:       id.NewStudentID(),
			TutorID:         tutorID,
			StartTime:       start,
			DurationMinutes: 60,
			Status:          status,
		}
		if err := s.PutSession(ctx, sess); err != nil {
			t.Fatal(err)
		}
		return sess
	}

	mk(testStart, session.StatusCompleted)
	mk(testStart.Add(24*time.Hour), session.StatusScheduled)
	mk(testStart.Add(48*time.Hour), session.StatusCancelled)

	t.Run("ByStatus", func(t *testing.T) {
		got, err := s.ListSessionsByTutor(ctx, tutorID, session.ListOpts{Status: session.StatusScheduled})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Errorf("got %d sessions, want 1", len(got))
		}
	})

	t.Run("ByRangeInclusive", func(t *testing.T) {
		got, err := s.ListSessionsByTutor(ctx, tutorID, session.ListOpts{
			Range: types.DateRange{Start: testStart, End: testStart.Add(24 * time.Hour)},
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("got %d sessions, want 2", len(got))
		}
	})

	t.Run("OtherTutorInvisible", func(t *testing.T) {
		got, err := s.ListSessionsByTutor(ctx, id.NewTutorID(), session.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("got %d sessions, want 0", len(got))
		}
	})
}

func TestApplyWindow(t *testing.T) {
	in := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name   string
		limit  int
		offset int
		want   []int
	}{
		{"NoWindow", 0, 0, []int{1, 2, 3, 4, 5}},
		{"Limit", 2, 0, []int{1, 2}},
		{"Offset", 0, 3, []int{4, 5}},
		{"LimitAndOffset", 2, 2, []int{3, 4}},
		{"OffsetPastEnd", 0, 10, []int{}},
		{"LimitPastEnd", 10, 4, []int{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyWindow(in, tt.limit, tt.offset)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestPingAfterClose(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping on open store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx); !errors.Is(err, billing.ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed, got %v", err)
	}
}

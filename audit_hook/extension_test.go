package audithook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/invoice"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/types"
)

type captureRecorder struct {
	events []*AuditEvent
	fail   error
}

func (r *captureRecorder) Record(_ context.Context, event *AuditEvent) error {
	r.events = append(r.events, event)
	return r.fail
}

func TestInvoiceEventPayload(t *testing.T) {
	rec := &captureRecorder{}
	ext := New(rec)
	ctx := context.Background()

	issued := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	inv := invoice.New(id.NewParentID(), []types.LineItem{
		{ID: id.NewLineItemID(), SessionID: id.NewSessionID(), Total: types.Dollars(60)},
	}, issued, issued.AddDate(0, 0, 14), "")
	inv.Number = "INV-1000"

	if err := ext.OnInvoiceGenerated(ctx, inv); err != nil {
		t.Fatal(err)
	}

	if len(rec.events) != 1 {
		t.Fatalf("got %d events, want 1", len(rec.events))
	}
	evt := rec.events[0]
	if evt.Action != ActionInvoiceGenerated || evt.Resource != ResourceInvoice || evt.Category != CategoryBilling {
		t.Errorf("event classification: %+v", evt)
	}
	if evt.ResourceID != inv.ID.String() {
		t.Errorf("resource id = %q, want %q", evt.ResourceID, inv.ID)
	}
	if evt.Metadata["number"] != "INV-1000" {
		t.Errorf("metadata number = %v", evt.Metadata["number"])
	}
	if evt.Metadata["total_cents"] != int64(6000) {
		t.Errorf("metadata total_cents = %v", evt.Metadata["total_cents"])
	}
}

func TestActionFiltering(t *testing.T) {
	ctx := context.Background()

	t.Run("EnabledOnly", func(t *testing.T) {
		rec := &captureRecorder{}
		ext := New(rec, WithEnabledActions(ActionInvoiceVoided))

		if err := ext.OnInvoiceGenerated(ctx, nil); err != nil {
			t.Fatal(err)
		}
		if err := ext.OnInvoiceVoided(ctx, nil, 2); err != nil {
			t.Fatal(err)
		}

		if len(rec.events) != 1 || rec.events[0].Action != ActionInvoiceVoided {
			t.Errorf("events = %+v", rec.events)
		}
	})

	t.Run("Disabled", func(t *testing.T) {
		rec := &captureRecorder{}
		ext := New(rec, WithDisabledActions(ActionSessionRecorded))

		if err := ext.OnSessionRecorded(ctx, nil); err != nil {
			t.Fatal(err)
		}
		if err := ext.OnPayStubGenerated(ctx, nil); err != nil {
			t.Fatal(err)
		}

		if len(rec.events) != 1 || rec.events[0].Action != ActionPayStubGenerated {
			t.Errorf("events = %+v", rec.events)
		}
	})
}

func TestRecorderFailureSwallowed(t *testing.T) {
	rec := &captureRecorder{fail: errors.New("sink down")}
	ext := New(rec, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	// A broken audit sink must never fail the billing operation.
	if err := ext.OnInvoiceGenerated(context.Background(), nil); err != nil {
		t.Errorf("recorder failure must not propagate, got %v", err)
	}
}

func TestConflictRouting(t *testing.T) {
	rec := &captureRecorder{}
	ext := New(rec)
	ctx := context.Background()

	if err := ext.OnBillingConflict(ctx, "invoice", "par_1", []string{"sess_1"}); err != nil {
		t.Fatal(err)
	}
	if err := ext.OnBillingConflict(ctx, "paystub", "tut_1", []string{"sess_2"}); err != nil {
		t.Fatal(err)
	}

	if rec.events[0].Resource != ResourceInvoice || rec.events[0].Category != CategoryBilling {
		t.Errorf("invoice conflict routed to %q/%q", rec.events[0].Resource, rec.events[0].Category)
	}
	if rec.events[1].Resource != ResourcePayStub || rec.events[1].Category != CategoryPayroll {
		t.Errorf("paystub conflict routed to %q/%q", rec.events[1].Resource, rec.events[1].Category)
	}
	if rec.events[0].Outcome != OutcomeFailure {
		t.Errorf("conflict outcome = %q, want failure", rec.events[0].Outcome)
	}
}

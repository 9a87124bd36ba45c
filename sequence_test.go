package billing_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	billing "github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
)

func TestConcurrentPayStubNumbering(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := seedRoster(t, e)

	const n = 20

	sessIDs := make([]id.SessionID, n)
	for i := range sessIDs {
		s := recordSession(t, e, f, baseTime.Add(time.Duration(i)*time.Hour))
		sessIDs[i] = s.ID
	}

	var wg sync.WaitGroup
	sequences := make([]int64, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stub, err := e.GeneratePayStub(ctx, f.tutor.ID, []id.SessionID{sessIDs[i]}, "")
			if err != nil {
				errs[i] = err
				return
			}
			sequences[i] = stub.Sequence
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("generation %d failed: %v", i, err)
		}
	}

	sort.Slice(sequences, func(i, j int) bool { return sequences[i] < sequences[j] })
	for i, seq := range sequences {
		want := int64(1000 + i)
		if seq != want {
			t.Fatalf("sequences not gapless: position %d holds %d, want %d (all: %v)", i, seq, want, sequences)
		}
	}
}

func TestConcurrentInvoiceRace(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := seedRoster(t, e)

	s := recordSession(t, e, f, baseTime)

	const racers = 8

	var wg sync.WaitGroup
	errs := make([]error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.GenerateInvoice(ctx, f.parent.ID, []id.SessionID{s.ID}, "")
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, billing.ErrBillingConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if wins != 1 {
		t.Errorf("winners = %d, want exactly 1", wins)
	}
	if conflicts != racers-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, racers-1)
	}

	// The one surviving invoice must be the session's back-reference.
	got, err := e.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.BilledToParent || got.InvoiceID.IsNil() {
		t.Error("session should be billed exactly once")
	}
}

package plugin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

// recorderPlugin implements every event hook and records what it saw.
type recorderPlugin struct {
	name string

	inits           int
	shutdowns       int
	sessions        []interface{}
	invoices        []interface{}
	voidedCounts    []int
	transitions     []string
	conflictTracks  []string
	conflictParties []string

	fail error
}

func (p *recorderPlugin) Name() string { return p.name }

func (p *recorderPlugin) OnInit(context.Context, interface{}) error {
	p.inits++
	return p.fail
}

func (p *recorderPlugin) OnShutdown(context.Context) error {
	p.shutdowns++
	return p.fail
}

func (p *recorderPlugin) OnSessionRecorded(_ context.Context, sess interface{}) error {
	p.sessions = append(p.sessions, sess)
	return p.fail
}

func (p *recorderPlugin) OnInvoiceGenerated(_ context.Context, inv interface{}) error {
	p.invoices = append(p.invoices, inv)
	return p.fail
}

func (p *recorderPlugin) OnInvoiceVoided(_ context.Context, _ interface{}, reverted int) error {
	p.voidedCounts = append(p.voidedCounts, reverted)
	return p.fail
}

func (p *recorderPlugin) OnInvoiceStatusChanged(_ context.Context, _ interface{}, from, to string) error {
	p.transitions = append(p.transitions, from+"->"+to)
	return p.fail
}

func (p *recorderPlugin) OnBillingConflict(_ context.Context, track, partyID string, _ []string) error {
	p.conflictTracks = append(p.conflictTracks, track)
	p.conflictParties = append(p.conflictParties, partyID)
	return p.fail
}

// namedOnly implements nothing beyond the base interface.
type namedOnly struct{ name string }

func (p namedOnly) Name() string { return p.name }

// csvRenderer is a minimal statement renderer.
type csvRenderer struct{}

func (csvRenderer) Name() string   { return "csv-export" }
func (csvRenderer) Format() string { return "csv" }
func (csvRenderer) Render(_ context.Context, _ interface{}, w io.Writer) error {
	_, err := w.Write([]byte("number,total\n"))
	return err
}

func quietRegistry() *Registry {
	return NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegister(t *testing.T) {
	r := quietRegistry()

	p := &recorderPlugin{name: "audit"}
	if err := r.Register(p); err != nil {
		t.Fatalf("register: %v", err)
	}
	if r.Count() != 1 {
		t.Errorf("count = %d, want 1", r.Count())
	}
	if got := r.Get("audit"); got != Plugin(p) {
		t.Error("Get should return the registered plugin")
	}
	if got := r.Get("missing"); got != nil {
		t.Error("Get on an unknown name should return nil")
	}

	t.Run("DuplicateName", func(t *testing.T) {
		err := r.Register(&recorderPlugin{name: "audit"})
		if err == nil {
			t.Error("duplicate registration should fail")
		}
	})

	t.Run("List", func(t *testing.T) {
		if err := r.Register(namedOnly{name: "noop"}); err != nil {
			t.Fatal(err)
		}
		if got := len(r.List()); got != 2 {
			t.Errorf("list length = %d, want 2", got)
		}
	})
}

func TestEventDispatch(t *testing.T) {
	r := quietRegistry()
	ctx := context.Background()

	p := &recorderPlugin{name: "audit"}
	if err := r.Register(p); err != nil {
		t.Fatal(err)
	}
	// A plugin with no hooks never receives events.
	if err := r.Register(namedOnly{name: "noop"}); err != nil {
		t.Fatal(err)
	}

	r.EmitInit(ctx, "engine")
	r.EmitSessionRecorded(ctx, "sess-a")
	r.EmitSessionRecorded(ctx, "sess-b")
	r.EmitInvoiceGenerated(ctx, "inv-a")
	r.EmitInvoiceVoided(ctx, "inv-a", 3)
	r.EmitInvoiceStatusChanged(ctx, "inv-a", "draft", "sent")
	r.EmitBillingConflict(ctx, "invoice", "par_123", []string{"sess_1"})
	r.EmitShutdown(ctx)

	if p.inits != 1 || p.shutdowns != 1 {
		t.Errorf("lifecycle calls = %d/%d, want 1/1", p.inits, p.shutdowns)
	}
	if len(p.sessions) != 2 {
		t.Errorf("session events = %d, want 2", len(p.sessions))
	}
	if len(p.voidedCounts) != 1 || p.voidedCounts[0] != 3 {
		t.Errorf("voided counts = %v, want [3]", p.voidedCounts)
	}
	if len(p.transitions) != 1 || p.transitions[0] != "draft->sent" {
		t.Errorf("transitions = %v", p.transitions)
	}
	if len(p.conflictTracks) != 1 || p.conflictTracks[0] != "invoice" || p.conflictParties[0] != "par_123" {
		t.Errorf("conflict events = %v %v", p.conflictTracks, p.conflictParties)
	}
}

func TestFailingPluginDoesNotStopDispatch(t *testing.T) {
	r := quietRegistry()
	ctx := context.Background()

	bad := &recorderPlugin{name: "bad", fail: errors.New("boom")}
	good := &recorderPlugin{name: "good"}
	if err := r.Register(bad); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(good); err != nil {
		t.Fatal(err)
	}

	r.EmitInvoiceGenerated(ctx, "inv-a")

	if len(bad.invoices) != 1 || len(good.invoices) != 1 {
		t.Error("every plugin sees the event even when one fails")
	}
}

func TestStatementRenderer(t *testing.T) {
	r := quietRegistry()

	if err := r.Register(csvRenderer{}); err != nil {
		t.Fatal(err)
	}

	renderer := r.GetStatementRenderer("csv")
	if renderer == nil {
		t.Fatal("expected a csv renderer")
	}
	if r.GetStatementRenderer("pdf") != nil {
		t.Error("unknown format should return nil")
	}
}

// Package plugin provides an extensible plugin system for the billing engine.
// Plugins can hook into billing lifecycle events to extend functionality.
package plugin

import (
	"context"
	"io"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Session ledger hooks
// ──────────────────────────────────────────────────

// OnSessionRecorded is called when the scheduling feed records a session.
type OnSessionRecorded interface {
	Plugin
	OnSessionRecorded(ctx context.Context, sess interface{}) error
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceGenerated is called when an invoice is generated.
type OnInvoiceGenerated interface {
	Plugin
	OnInvoiceGenerated(ctx context.Context, inv interface{}) error
}

// OnInvoiceVoided is called when an invoice is voided. reverted is the
// number of sessions returned to unbilled state.
type OnInvoiceVoided interface {
	Plugin
	OnInvoiceVoided(ctx context.Context, inv interface{}, reverted int) error
}

// OnInvoiceStatusChanged is called on a caller-driven status transition.
type OnInvoiceStatusChanged interface {
	Plugin
	OnInvoiceStatusChanged(ctx context.Context, inv interface{}, from, to string) error
}

// ──────────────────────────────────────────────────
// Pay stub lifecycle hooks
// ──────────────────────────────────────────────────

// OnPayStubGenerated is called when a pay stub is generated.
type OnPayStubGenerated interface {
	Plugin
	OnPayStubGenerated(ctx context.Context, stub interface{}) error
}

// OnPayStubVoided is called when a pay stub is voided. reverted is the
// number of sessions returned to unpaid state.
type OnPayStubVoided interface {
	Plugin
	OnPayStubVoided(ctx context.Context, stub interface{}, reverted int) error
}

// OnPayStubStatusChanged is called on a caller-driven status transition.
type OnPayStubStatusChanged interface {
	Plugin
	OnPayStubStatusChanged(ctx context.Context, stub interface{}, from, to string) error
}

// ──────────────────────────────────────────────────
// Concurrency hooks
// ──────────────────────────────────────────────────

// OnBillingConflict is called when a generation loses the race for one of
// its selected sessions. track is "invoice" or "paystub"; partyID is the
// payer or payee the failed record was for.
type OnBillingConflict interface {
	Plugin
	OnBillingConflict(ctx context.Context, track, partyID string, sessionIDs []string) error
}

// ──────────────────────────────────────────────────
// Statement renderers
// ──────────────────────────────────────────────────

// StatementRenderer renders a finished invoice or pay stub for export.
// Renderers are read-only consumers: they never mutate billing state.
type StatementRenderer interface {
	Plugin
	Format() string // "pdf", "html", "csv", etc.
	Render(ctx context.Context, record interface{}, w io.Writer) error
}

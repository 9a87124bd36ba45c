// Package audithook bridges billing lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/invoice"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/paystub"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/plugin"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/session"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnSessionRecorded      = (*Extension)(nil)
	_ plugin.OnInvoiceGenerated     = (*Extension)(nil)
	_ plugin.OnInvoiceVoided        = (*Extension)(nil)
	_ plugin.OnInvoiceStatusChanged = (*Extension)(nil)
	_ plugin.OnPayStubGenerated     = (*Extension)(nil)
	_ plugin.OnPayStubVoided        = (*Extension)(nil)
	_ plugin.OnPayStubStatusChanged = (*Extension)(nil)
	_ plugin.OnBillingConflict      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges billing lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Session ledger hooks
// ──────────────────────────────────────────────────

// OnSessionRecorded implements plugin.OnSessionRecorded.
func (e *Extension) OnSessionRecorded(ctx context.Context, raw interface{}) error {
	var kvPairs []any
	resourceID := ""
	if sess, ok := raw.(*session.Session); ok {
		resourceID = sess.ID.String()
		kvPairs = append(kvPairs,
			"tutor_id", sess.TutorID.String(),
			"subject", sess.Subject,
			"status", string(sess.Status),
		)
	}
	return e.record(ctx, ActionSessionRecorded, SeverityInfo, OutcomeSuccess,
		ResourceSession, resourceID, CategoryScheduling, kvPairs...)
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceGenerated implements plugin.OnInvoiceGenerated.
func (e *Extension) OnInvoiceGenerated(ctx context.Context, raw interface{}) error {
	var kvPairs []any
	resourceID := ""
	if inv, ok := raw.(*invoice.Invoice); ok {
		resourceID = inv.ID.String()
		kvPairs = append(kvPairs,
			"number", inv.Number,
			"parent_id", inv.ParentID.String(),
			"total_cents", inv.Total.Amount,
			"line_items", len(inv.LineItems),
		)
	}
	return e.record(ctx, ActionInvoiceGenerated, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, resourceID, CategoryBilling, kvPairs...)
}

// OnInvoiceVoided implements plugin.OnInvoiceVoided.
func (e *Extension) OnInvoiceVoided(ctx context.Context, raw interface{}, reverted int) error {
	kvPairs := []any{"reverted_sessions", reverted}
	resourceID := ""
	if inv, ok := raw.(*invoice.Invoice); ok {
		resourceID = inv.ID.String()
		kvPairs = append(kvPairs, "number", inv.Number)
	}
	return e.record(ctx, ActionInvoiceVoided, SeverityWarning, OutcomeSuccess,
		ResourceInvoice, resourceID, CategoryBilling, kvPairs...)
}

// OnInvoiceStatusChanged implements plugin.OnInvoiceStatusChanged.
func (e *Extension) OnInvoiceStatusChanged(ctx context.Context, raw interface{}, from, to string) error {
	kvPairs := []any{"from", from, "to", to}
	resourceID := ""
	if inv, ok := raw.(*invoice.Invoice); ok {
		resourceID = inv.ID.String()
	}
	return e.record(ctx, ActionInvoiceStatusChanged, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, resourceID, CategoryBilling, kvPairs...)
}

// ──────────────────────────────────────────────────
// Pay stub lifecycle hooks
// ──────────────────────────────────────────────────

// OnPayStubGenerated implements plugin.OnPayStubGenerated.
func (e *Extension) OnPayStubGenerated(ctx context.Context, raw interface{}) error {
	var kvPairs []any
	resourceID := ""
	if stub, ok := raw.(*paystub.PayStub); ok {
		resourceID = stub.ID.String()
		kvPairs = append(kvPairs,
			"number", stub.Number,
			"tutor_id", stub.TutorID.String(),
			"pay_cents", stub.TotalPay.Amount,
			"total_hours", stub.TotalHours,
		)
	}
	return e.record(ctx, ActionPayStubGenerated, SeverityInfo, OutcomeSuccess,
		ResourcePayStub, resourceID, CategoryPayroll, kvPairs...)
}

// OnPayStubVoided implements plugin.OnPayStubVoided.
func (e *Extension) OnPayStubVoided(ctx context.Context, raw interface{}, reverted int) error {
	kvPairs := []any{"reverted_sessions", reverted}
	resourceID := ""
	if stub, ok := raw.(*paystub.PayStub); ok {
		resourceID = stub.ID.String()
		kvPairs = append(kvPairs, "number", stub.Number)
	}
	return e.record(ctx, ActionPayStubVoided, SeverityWarning, OutcomeSuccess,
		ResourcePayStub, resourceID, CategoryPayroll, kvPairs...)
}

// OnPayStubStatusChanged implements plugin.OnPayStubStatusChanged.
func (e *Extension) OnPayStubStatusChanged(ctx context.Context, raw interface{}, from, to string) error {
	kvPairs := []any{"from", from, "to", to}
	resourceID := ""
	if stub, ok := raw.(*paystub.PayStub); ok {
		resourceID = stub.ID.String()
	}
	return e.record(ctx, ActionPayStubStatusChanged, SeverityInfo, OutcomeSuccess,
		ResourcePayStub, resourceID, CategoryPayroll, kvPairs...)
}

// ──────────────────────────────────────────────────
// Concurrency hooks
// ──────────────────────────────────────────────────

// OnBillingConflict implements plugin.OnBillingConflict.
func (e *Extension) OnBillingConflict(ctx context.Context, track, partyID string, sessionIDs []string) error {
	resource := ResourceInvoice
	category := CategoryBilling
	if track == "paystub" {
		resource = ResourcePayStub
		category = CategoryPayroll
	}
	return e.record(ctx, ActionBillingConflict, SeverityWarning, OutcomeFailure,
		resource, "", category,
		"track", track,
		"party_id", partyID,
		"session_ids", sessionIDs,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

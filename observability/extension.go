// Package observability provides a metrics extension for the billing
// engine that records lifecycle event counts via an injected MetricFactory.
package observability

import (
	"context"

	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/invoice"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/paystub"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnSessionRecorded      = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceGenerated     = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceVoided        = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceStatusChanged = (*MetricsExtension)(nil)
	_ plugin.OnPayStubGenerated     = (*MetricsExtension)(nil)
	_ plugin.OnPayStubVoided        = (*MetricsExtension)(nil)
	_ plugin.OnPayStubStatusChanged = (*MetricsExtension)(nil)
	_ plugin.OnBillingConflict      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as an engine plugin to automatically track billing metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Session metrics
	SessionsRecorded Counter

	// Invoice metrics
	InvoiceGenerated Counter
	InvoiceVoided    Counter
	InvoicePaid      Counter
	InvoiceTotal     Histogram
	InvoiceLineCount Histogram

	// Pay stub metrics
	PayStubGenerated Counter
	PayStubVoided    Counter
	PayStubPaid      Counter
	PayStubTotal     Histogram
	PayStubHours     Histogram

	// Revert metrics
	SessionsReverted Counter

	// Concurrency metrics
	BillingConflicts Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Session metrics
		SessionsRecorded: factory.Counter("billing.session.recorded"),

		// Invoice metrics
		InvoiceGenerated: factory.Counter("billing.invoice.generated"),
		InvoiceVoided:    factory.Counter("billing.invoice.voided"),
		InvoicePaid:      factory.Counter("billing.invoice.paid"),
		InvoiceTotal:     factory.Histogram("billing.invoice.total_cents"),
		InvoiceLineCount: factory.Histogram("billing.invoice.line_items"),

		// Pay stub metrics
		PayStubGenerated: factory.Counter("billing.paystub.generated"),
		PayStubVoided:    factory.Counter("billing.paystub.voided"),
		PayStubPaid:      factory.Counter("billing.paystub.paid"),
		PayStubTotal:     factory.Histogram("billing.paystub.pay_cents"),
		PayStubHours:     factory.Histogram("billing.paystub.total_hours"),

		// Revert metrics
		SessionsReverted: factory.Counter("billing.session.reverted"),

		// Concurrency metrics
		BillingConflicts: factory.Counter("billing.conflict"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Session ledger hooks
// ──────────────────────────────────────────────────

// OnSessionRecorded implements plugin.OnSessionRecorded.
func (m *MetricsExtension) OnSessionRecorded(_ context.Context, _ interface{}) error {
	m.SessionsRecorded.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceGenerated implements plugin.OnInvoiceGenerated.
func (m *MetricsExtension) OnInvoiceGenerated(_ context.Context, raw interface{}) error {
	m.InvoiceGenerated.Inc()
	if inv, ok := raw.(*invoice.Invoice); ok {
		m.InvoiceTotal.Observe(float64(inv.Total.Amount))
		m.InvoiceLineCount.Observe(float64(len(inv.LineItems)))
	}
	return nil
}

// OnInvoiceVoided implements plugin.OnInvoiceVoided.
func (m *MetricsExtension) OnInvoiceVoided(_ context.Context, _ interface{}, reverted int) error {
	m.InvoiceVoided.Inc()
	m.SessionsReverted.Add(float64(reverted))
	return nil
}

// OnInvoiceStatusChanged implements plugin.OnInvoiceStatusChanged.
func (m *MetricsExtension) OnInvoiceStatusChanged(_ context.Context, _ interface{}, _, to string) error {
	if to == string(invoice.StatusPaid) {
		m.InvoicePaid.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Pay stub lifecycle hooks
// ──────────────────────────────────────────────────

// OnPayStubGenerated implements plugin.OnPayStubGenerated.
func (m *MetricsExtension) OnPayStubGenerated(_ context.Context, raw interface{}) error {
	m.PayStubGenerated.Inc()
	if stub, ok := raw.(*paystub.PayStub); ok {
		m.PayStubTotal.Observe(float64(stub.TotalPay.Amount))
		m.PayStubHours.Observe(stub.TotalHours)
	}
	return nil
}

// OnPayStubVoided implements plugin.OnPayStubVoided.
func (m *MetricsExtension) OnPayStubVoided(_ context.Context, _ interface{}, reverted int) error {
	m.PayStubVoided.Inc()
	m.SessionsReverted.Add(float64(reverted))
	return nil
}

// OnPayStubStatusChanged implements plugin.OnPayStubStatusChanged.
func (m *MetricsExtension) OnPayStubStatusChanged(_ context.Context, _ interface{}, _, to string) error {
	if to == string(paystub.StatusPaid) {
		m.PayStubPaid.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Concurrency hooks
// ──────────────────────────────────────────────────

// OnBillingConflict implements plugin.OnBillingConflict.
func (m *MetricsExtension) OnBillingConflict(_ context.Context, _, _ string, _ []string) error {
	m.BillingConflicts.Inc()
	return nil
}

package audithook

// Action constants for audit events.
const (
	// Session actions
	ActionSessionRecorded = "session.recorded"

	// Invoice actions
	ActionInvoiceGenerated     = "invoice.generated"
	ActionInvoiceVoided        = "invoice.voided"
	ActionInvoiceStatusChanged = "invoice.status_changed"

	// Pay stub actions
	ActionPayStubGenerated     = "paystub.generated"
	ActionPayStubVoided        = "paystub.voided"
	ActionPayStubStatusChanged = "paystub.status_changed"

	// Concurrency actions
	ActionBillingConflict = "billing.conflict"
)

// Resource constants for audit events.
const (
	ResourceSession = "session"
	ResourceInvoice = "invoice"
	ResourcePayStub = "paystub"
)

// Category constants for audit events.
const (
	CategoryScheduling = "scheduling"
	CategoryBilling    = "billing"
	CategoryPayroll    = "payroll"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

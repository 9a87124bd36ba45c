// Package session defines the session ledger: the authoritative record of
// bookable tutoring work units consumed by the billing engine.
package session

import (
	"time"

	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/types"
)

// Status is the lifecycle status of a session.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Session is one unit of billable/payable tutoring work.
//
// Sessions are created and edited by the scheduling subsystem; the billing
// engine only ever mutates the two billing tracks, and only through the
// store's atomic generate/void operations.
type Session struct {
	types.Entity
	ID id.SessionID `json:"id"`

	// ParentID keys the session directly to a payer. One-off billable events
	// (evaluations, registration) are booked against the parent with no
	// student attached; regular tutoring is keyed through StudentID instead.
	ParentID  id.ParentID  `json:"parent_id,omitempty"`
	StudentID id.StudentID `json:"student_id,omitempty"`
	TutorID   id.TutorID   `json:"tutor_id"`

	Subject         string    `json:"subject"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int64     `json:"duration_minutes"`
	Status          Status    `json:"status"`

	// Cost overrides rate-table pricing when set: the session bills as a
	// single flat charge of this amount.
	Cost *types.Money `json:"cost,omitempty"`

	// Billing-to-payer track. BilledToParent is true iff InvoiceID is set.
	BilledToParent bool         `json:"billed_to_parent"`
	InvoiceID      id.InvoiceID `json:"invoice_id,omitempty"`

	// Billing-to-payee track, independent of the payer track.
	// PaidToTutor is true iff PayStubID is set.
	PaidToTutor bool         `json:"paid_to_tutor"`
	PayStubID   id.PayStubID `json:"pay_stub_id,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// Billable reports whether the session's lifecycle status makes it eligible
// for billing at all. Cancelled and no-show sessions are never billed.
func (s *Session) Billable() bool {
	return s.Status == StatusScheduled || s.Status == StatusCompleted
}

// UnbilledToParent reports whether the session is still open on the payer track.
func (s *Session) UnbilledToParent() bool {
	return !s.BilledToParent
}

// UnpaidToTutor reports whether the session is still open on the payee track.
func (s *Session) UnpaidToTutor() bool {
	return !s.PaidToTutor
}

// BillingConsistent reports whether both billing tracks satisfy the
// flag-iff-reference invariant.
func (s *Session) BillingConsistent() bool {
	if s.BilledToParent != !s.InvoiceID.IsNil() {
		return false
	}
	return s.PaidToTutor == !s.PayStubID.IsNil()
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	dup := *s
	if s.Cost != nil {
		cost := *s.Cost
		dup.Cost = &cost
	}
	return &dup
}

// ListOpts filters session listings.
type ListOpts struct {
	Status Status
	Range  types.DateRange
	Limit  int
	Offset int
}

// Matches reports whether a session passes the status and date filters.
// The date filter applies to the session start time, inclusive on both ends.
func (o ListOpts) Matches(s *Session) bool {
	if o.Status != "" && s.Status != o.Status {
		return false
	}
	if !o.Range.IsZero() && !o.Range.Contains(s.StartTime) {
		return false
	}
	return true
}

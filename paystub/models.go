// Package paystub defines the payee-facing billing record.
package paystub

import (
	"fmt"
	"time"

	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/types"
)

// Status is the caller-driven pay stub lifecycle status.
type Status string

const (
	StatusDraft Status = "draft"
	StatusPaid  Status = "paid"
)

// CanTransition reports whether a status change is legal.
func (s Status) CanTransition(to Status) bool {
	return s == StatusDraft && to == StatusPaid
}

// PayStub is a payee-facing aggregation of priced sessions with a total
// payable. Its sequence number is minted atomically with its creation, so
// committed stubs are numbered gaplessly and in order.
type PayStub struct {
	types.Entity
	ID         id.PayStubID     `json:"id"`
	Sequence   int64            `json:"sequence"`
	Number     string           `json:"number"`
	TutorID    id.TutorID       `json:"tutor_id"`
	LineItems  []types.LineItem `json:"line_items"`
	TotalHours float64          `json:"total_hours"`
	TotalPay   types.Money      `json:"total_pay"`
	Status     Status           `json:"status"`
	IssueDate  time.Time        `json:"issue_date"`
	Notes      string           `json:"notes,omitempty"`
}

// New constructs a draft pay stub from a priced set of line items.
// Totals are computed here, once. The sequence number is stamped by the
// store inside the creation transaction.
func New(tutorID id.TutorID, items []types.LineItem, issueDate time.Time, notes string) *PayStub {
	return &PayStub{
		Entity:     types.NewEntity(),
		ID:         id.NewPayStubID(),
		TutorID:    tutorID,
		LineItems:  items,
		TotalHours: types.TotalHoursOf(items),
		TotalPay:   types.TotalOf(items),
		Status:     StatusDraft,
		IssueDate:  issueDate,
		Notes:      notes,
	}
}

// SetSequence stamps the minted sequence value and its display number.
func (ps *PayStub) SetSequence(seq int64) {
	ps.Sequence = seq
	ps.Number = FormatNumber(seq)
}

// TotalConsistent reports whether the stored total still equals the sum of
// the line item totals.
func (ps *PayStub) TotalConsistent() bool {
	return ps.TotalPay.Equal(types.TotalOf(ps.LineItems))
}

// SessionIDs returns the sessions the stub was generated from, in line
// order. This is a snapshot from generation time; the void path must not
// trust it over the ledger's live back-references.
func (ps *PayStub) SessionIDs() []id.SessionID {
	ids := make([]id.SessionID, len(ps.LineItems))
	for i, li := range ps.LineItems {
		ids[i] = li.SessionID
	}
	return ids
}

// FormatNumber renders a sequence value as a display pay stub number.
func FormatNumber(seq int64) string {
	return fmt.Sprintf("PS-%d", seq)
}

// ListOpts filters pay stub listings.
type ListOpts struct {
	Status Status
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}

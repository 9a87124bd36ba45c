// Package invoice defines the payer-facing billing record.
package invoice

import (
	"fmt"
	"time"

	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/types"
)

// Status is the caller-driven invoice lifecycle status. Transitions are
// orthogonal to generation and void: the engine creates invoices as Draft
// and deletes them on void, everything in between is the caller's business.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// CanTransition reports whether a status change is legal.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusDraft:
		return to == StatusSent || to == StatusCancelled
	case StatusSent:
		return to == StatusPaid || to == StatusOverdue || to == StatusCancelled
	case StatusOverdue:
		return to == StatusPaid || to == StatusCancelled
	default:
		return false
	}
}

// Invoice is a payer-facing aggregation of priced sessions with a total due.
//
// The total is fixed at construction and never recomputed: an invoice whose
// line items no longer sum to its total is corrupt, not stale.
type Invoice struct {
	types.Entity
	ID        id.InvoiceID     `json:"id"`
	Number    string           `json:"number"`
	ParentID  id.ParentID      `json:"parent_id"`
	LineItems []types.LineItem `json:"line_items"`
	Total     types.Money      `json:"total"`
	Status    Status           `json:"status"`
	IssueDate time.Time        `json:"issue_date"`
	DueDate   time.Time        `json:"due_date"`
	Notes     string           `json:"notes,omitempty"`
}

// New constructs a draft invoice from a priced set of line items.
// The total is computed here, once.
func New(parentID id.ParentID, items []types.LineItem, issueDate, dueDate time.Time, notes string) *Invoice {
	return &Invoice{
		Entity:    types.NewEntity(),
		ID:        id.NewInvoiceID(),
		ParentID:  parentID,
		LineItems: items,
		Total:     types.TotalOf(items),
		Status:    StatusDraft,
		IssueDate: issueDate,
		DueDate:   dueDate,
		Notes:     notes,
	}
}

// TotalConsistent reports whether the stored total still equals the sum of
// the line item totals.
func (inv *Invoice) TotalConsistent() bool {
	return inv.Total.Equal(types.TotalOf(inv.LineItems))
}

// SessionIDs returns the sessions the invoice was generated from, in line
// order. This is a snapshot from generation time; the void path must not
// trust it over the ledger's live back-references.
func (inv *Invoice) SessionIDs() []id.SessionID {
	ids := make([]id.SessionID, len(inv.LineItems))
	for i, li := range inv.LineItems {
		ids[i] = li.SessionID
	}
	return ids
}

// FormatNumber renders a sequence value as a display invoice number.
func FormatNumber(seq int64) string {
	return fmt.Sprintf("INV-%d", seq)
}

// ListOpts filters invoice listings.
type ListOpts struct {
	Status Status
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}

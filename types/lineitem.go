package types

import (
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
)

// LineItem is the shared line shape used by both invoices and pay stubs.
// Each line is derived 1:1 from a session; SessionID is the back-reference
// the void path uses to find what a billing record affected.
type LineItem struct {
	ID          id.LineItemID `json:"id"`
	SessionID   id.SessionID  `json:"session_id"`
	Description string        `json:"description"`
	Minutes     int64         `json:"minutes"`
	Flat        bool          `json:"flat"` // fixed-cost override: quantity displays as 1
	Rate        Money         `json:"rate"`
	Total       Money         `json:"total"`
}

// Hours returns the display quantity in hours. Flat-charge lines count as a
// single unit regardless of session duration.
func (li LineItem) Hours() float64 {
	if li.Flat {
		return 1
	}
	return float64(li.Minutes) / 60
}

// TotalOf sums the totals of a set of line items.
func TotalOf(items []LineItem) Money {
	var total Money
	for _, li := range items {
		total = total.Add(li.Total)
	}
	return total
}

// TotalHoursOf sums the display hours of a set of line items.
func TotalHoursOf(items []LineItem) float64 {
	var hours float64
	for _, li := range items {
		hours += li.Hours()
	}
	return hours
}

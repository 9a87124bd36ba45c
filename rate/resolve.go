// Package rate computes the monetary value of a single session.
//
// Resolution is pure and total: it performs no I/O and has no error cases.
// Missing rate-table entries degrade to a zero rate so that billing can
// proceed and be corrected later by fixing the table and regenerating.
package rate

import (
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/roster"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/session"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/types"
)

// Line is the resolved price of one session.
type Line struct {
	// Rate is the hourly rate, or the full charge for flat lines.
	Rate types.Money
	// Minutes is the billed duration. Zero for flat lines.
	Minutes int64
	// Flat marks a fixed-cost override: a single charge of Rate,
	// independent of duration and rate tables.
	Flat bool
	// Total is the line total: Rate prorated over Minutes, or Rate itself
	// for flat lines.
	Total types.Money
}

// Hours returns the display quantity: fractional hours, or 1 for flat lines.
func (l Line) Hours() float64 {
	if l.Flat {
		return 1
	}
	return float64(l.Minutes) / 60
}

// Resolve prices a session against a rate table.
//
// A fixed-cost override on the session wins unconditionally and bills as a
// flat charge. Otherwise the subject's hourly rate (zero when the table has
// no entry) is prorated over the session duration.
func Resolve(s *session.Session, rates roster.RateTable) Line {
	if s.Cost != nil {
		return Line{
			Rate:  *s.Cost,
			Flat:  true,
			Total: *s.Cost,
		}
	}

	hourly := rates.Rate(s.Subject)
	return Line{
		Rate:    hourly,
		Minutes: s.DurationMinutes,
		Total:   hourly.ForMinutes(s.DurationMinutes),
	}
}

// Item materializes the resolved line as a billing line item tied back to
// its originating session.
func (l Line) Item(sessID id.SessionID, description string) types.LineItem {
	return types.LineItem{
		ID:          id.NewLineItemID(),
		SessionID:   sessID,
		Description: description,
		Minutes:     l.Minutes,
		Flat:        l.Flat,
		Rate:        l.Rate,
		Total:       l.Total,
	}
}

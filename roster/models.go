// Package roster defines the people the billing engine bills and pays:
// parents (payers), their students, and tutors (payees).
package roster

import (
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/types"
)

// UnknownName is the display fallback when a party record is missing a name.
// Billing proceeds with the placeholder so an admin can fix the roster later.
const UnknownName = "Unknown"

// RateTable maps a subject key to an hourly rate. A missing subject resolves
// to a zero rate, not an error — the admin corrects the table and regenerates.
type RateTable map[string]types.Money

// Rate returns the hourly rate for a subject, zero when absent.
func (t RateTable) Rate(subject string) types.Money {
	return t[subject]
}

// Clone returns a copy of the rate table.
func (t RateTable) Clone() RateTable {
	if t == nil {
		return nil
	}
	dup := make(RateTable, len(t))
	for k, v := range t {
		dup[k] = v
	}
	return dup
}

// Parent is the party billed for tutoring.
type Parent struct {
	types.Entity
	ID         id.ParentID    `json:"id"`
	Name       string         `json:"name"`
	Email      string         `json:"email,omitempty"`
	Phone      string         `json:"phone,omitempty"`
	StudentIDs []id.StudentID `json:"student_ids,omitempty"`
}

// DisplayName returns the parent's name, or the Unknown placeholder.
func (p *Parent) DisplayName() string {
	if p == nil || p.Name == "" {
		return UnknownName
	}
	return p.Name
}

// Student is a dependent of a parent. Its rate table prices the sessions
// billed to the parent.
type Student struct {
	types.Entity
	ID       id.StudentID `json:"id"`
	ParentID id.ParentID  `json:"parent_id"`
	Name     string       `json:"name"`
	Grade    string       `json:"grade,omitempty"`
	Rates    RateTable    `json:"rates,omitempty"`
}

// DisplayName returns the student's name, or the Unknown placeholder.
func (s *Student) DisplayName() string {
	if s == nil || s.Name == "" {
		return UnknownName
	}
	return s.Name
}

// Tutor is the party paid for delivering tutoring. Its rate table prices the
// sessions paid out on pay stubs.
type Tutor struct {
	types.Entity
	ID       id.TutorID `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email,omitempty"`
	Subjects []string   `json:"subjects,omitempty"`
	PayRates RateTable  `json:"pay_rates,omitempty"`
}

// DisplayName returns the tutor's name, or the Unknown placeholder.
func (t *Tutor) DisplayName() string {
	if t == nil || t.Name == "" {
		return UnknownName
	}
	return t.Name
}

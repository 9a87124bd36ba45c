package postgres

import (
	"fmt"
	"time"

	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/invoice"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/paystub"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/roster"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/session"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/types"
)

// Nil references persist as empty strings, not NULLs, so the billing flag
// columns can be filtered with plain equality.

// ==================== Roster rows ====================

type parentRow struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Email      string    `db:"email"`
	Phone      string    `db:"phone"`
	StudentIDs []string  `db:"student_ids"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func fromParentRow(r *parentRow) (*roster.Parent, error) {
	parentID, err := id.ParseParentID(r.ID)
	if err != nil {
		return nil, fmt.Errorf("billing/postgres: parse parent id %q: %w", r.ID, err)
	}
	studentIDs := make([]id.StudentID, len(r.StudentIDs))
	for i, raw := range r.StudentIDs {
		sid, err := id.ParseStudentID(raw)
		if err != nil {
			return nil, fmt.Errorf("billing/postgres: parse student id %q: %w", raw, err)
		}
		studentIDs[i] = sid
	}
	return &roster.Parent{
		Entity:     types.Entity{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
		ID:         parentID,
		Name:       r.Name,
		Email:      r.Email,
		Phone:      r.Phone,
		StudentIDs: studentIDs,
	}, nil
}

type studentRow struct {
	ID        string           `db:"id"`
	ParentID  string           `db:"parent_id"`
	Name      string           `db:"name"`
	Grade     string           `db:"grade"`
	Rates     map[string]int64 `db:"rates"`
	CreatedAt time.Time        `db:"created_at"`
	UpdatedAt time.Time        `db:"updated_at"`
}

func fromStudentRow(r *studentRow) (*roster.Student, error) {
	studentID, err := id.ParseStudentID(r.ID)
	if err != nil {
		return nil, fmt.Errorf("billing/postgres: parse student id %q: %w", r.ID, err)
	}
	parentID, err := id.ParseParentID(r.ParentID)
	if err != nil {
		return nil, fmt.Errorf("billing/postgres: parse parent id %q: %w", r.ParentID, err)
	}
	return &roster.Student{
		Entity:   types.Entity{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
		ID:       studentID,
		ParentID: parentID,
		Name:     r.Name,
		Grade:    r.Grade,
		Rates:    fromRateCents(r.Rates),
	}, nil
}

type tutorRow struct {
	ID        string           `db:"id"`
	Name      string           `db:"name"`
	Email     string           `db:"email"`
	Subjects  []string         `db:"subjects"`
	PayRates  map[string]int64 `db:"pay_rates"`
	CreatedAt time.Time        `db:"created_at"`
	UpdatedAt time.Time        `db:"updated_at"`
}

func fromTutorRow(r *tutorRow) (*roster.Tutor, error) {
	tutorID, err := id.ParseTutorID(r.ID)
	if err != nil {
		return nil, fmt.Errorf("billing/postgres: parse tutor id %q: %w", r.ID, err)
	}
	return &roster.Tutor{
		Entity:   types.Entity{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
		ID:       tutorID,
		Name:     r.Name,
		Email:    r.Email,
		Subjects: r.Subjects,
		PayRates: fromRateCents(r.PayRates),
	}, nil
}

// Rate tables persist as a subject -> cents JSONB map.
func toRateCents(rates roster.RateTable) map[string]int64 {
	if rates == nil {
		return nil
	}
	m := make(map[string]int64, len(rates))
	for subject, rate := range rates {
		m[subject] = rate.Amount
	}
	return m
}

func fromRateCents(m map[string]int64) roster.RateTable {
	if m == nil {
		return nil
	}
	rates := make(roster.RateTable, len(m))
	for subject, cents := range m {
		rates[subject] = types.Cents(cents)
	}
	return rates
}

// ==================== Session row ====================

type sessionRow struct {
	ID              string    `db:"id"`
	ParentID        string    `db:"parent_id"`
	StudentID       string    `db:"student_id"`
	TutorID         string    `db:"tutor_id"`
	Subject         string    `db:"subject"`
	StartTime       time.Time `db:"start_time"`
	EndTime         time.Time `db:"end_time"`
	DurationMinutes int64     `db:"duration_minutes"`
	Status          string    `db:"status"`
	CostCents       *int64    `db:"cost_cents"`
	BilledToParent  bool      `db:"billed_to_parent"`
	InvoiceID       string    `db:"invoice_id"`
	PaidToTutor     bool      `db:"paid_to_tutor"`
	PayStubID       string    `db:"pay_stub_id"`
	Notes           string    `db:"notes"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func fromSessionRow(r *sessionRow) (*session.Session, error) {
	sessID, err := id.ParseSessionID(r.ID)
	if err != nil {
		return nil, fmt.Errorf("billing/postgres: parse session id %q: %w", r.ID, err)
	}
	tutorID, err := id.ParseTutorID(r.TutorID)
	if err != nil {
		return nil, fmt.Errorf("billing/postgres: parse tutor id %q: %w", r.TutorID, err)
	}

	s := &session.Session{
		Entity:          types.Entity{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
		ID:              sessID,
		TutorID:         tutorID,
		Subject:         r.Subject,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		DurationMinutes: r.DurationMinutes,
		Status:          session.Status(r.Status),
		BilledToParent:  r.BilledToParent,
		PaidToTutor:     r.PaidToTutor,
		Notes:           r.Notes,
	}
	if r.ParentID != "" {
		if s.ParentID, err = id.ParseParentID(r.ParentID); err != nil {
			return nil, fmt.Errorf("billing/postgres: parse parent id %q: %w", r.ParentID, err)
		}
	}
	if r.StudentID != "" {
		if s.StudentID, err = id.ParseStudentID(r.StudentID); err != nil {
			return nil, fmt.Errorf("billing/postgres: parse student id %q: %w", r.StudentID, err)
		}
	}
	if r.InvoiceID != "" {
		if s.InvoiceID, err = id.ParseInvoiceID(r.InvoiceID); err != nil {
			return nil, fmt.Errorf("billing/postgres: parse invoice id %q: %w", r.InvoiceID, err)
		}
	}
	if r.PayStubID != "" {
		if s.PayStubID, err = id.ParsePayStubID(r.PayStubID); err != nil {
			return nil, fmt.Errorf("billing/postgres: parse pay stub id %q: %w", r.PayStubID, err)
		}
	}
	if r.CostCents != nil {
		cost := types.Cents(*r.CostCents)
		s.Cost = &cost
	}
	return s, nil
}

// ==================== Line items (JSONB) ====================

type lineItemJSON struct {
	ID          string `json:"id"`
	SessionID   string `json:"session_id"`
	Description string `json:"description"`
	Minutes     int64  `json:"minutes"`
	Flat        bool   `json:"flat"`
	RateCents   int64  `json:"rate_cents"`
	TotalCents  int64  `json:"total_cents"`
}

func toLineItemJSON(items []types.LineItem) []lineItemJSON {
	rows := make([]lineItemJSON, len(items))
	for i, li := range items {
		rows[i] = lineItemJSON{
			ID:          li.ID.String(),
			SessionID:   li.SessionID.String(),
			Description: li.Description,
			Minutes:     li.Minutes,
			Flat:        li.Flat,
			RateCents:   li.Rate.Amount,
			TotalCents:  li.Total.Amount,
		}
	}
	return rows
}

func fromLineItemJSON(rows []lineItemJSON) ([]types.LineItem, error) {
	items := make([]types.LineItem, len(rows))
	for i, r := range rows {
		liID, err := id.ParseLineItemID(r.ID)
		if err != nil {
			return nil, fmt.Errorf("billing/postgres: parse line item id %q: %w", r.ID, err)
		}
		sessID, err := id.ParseSessionID(r.SessionID)
		if err != nil {
			return nil, fmt.Errorf("billing/postgres: parse session id %q: %w", r.SessionID, err)
		}
		items[i] = types.LineItem{
			ID:          liID,
			SessionID:   sessID,
			Description: r.Description,
			Minutes:     r.Minutes,
			Flat:        r.Flat,
			Rate:        types.Cents(r.RateCents),
			Total:       types.Cents(r.TotalCents),
		}
	}
	return items, nil
}

// ==================== Invoice row ====================

type invoiceRow struct {
	ID         string         `db:"id"`
	Number     string         `db:"number"`
	ParentID   string         `db:"parent_id"`
	LineItems  []lineItemJSON `db:"line_items"`
	TotalCents int64          `db:"total_cents"`
	Status     string         `db:"status"`
	IssueDate  time.Time      `db:"issue_date"`
	DueDate    time.Time      `db:"due_date"`
	Notes      string         `db:"notes"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func fromInvoiceRow(r *invoiceRow) (*invoice.Invoice, error) {
	invID, err := id.ParseInvoiceID(r.ID)
	if err != nil {
		return nil, fmt.Errorf("billing/postgres: parse invoice id %q: %w", r.ID, err)
	}
	parentID, err := id.ParseParentID(r.ParentID)
	if err != nil {
		return nil, fmt.Errorf("billing/postgres: parse parent id %q: %w", r.ParentID, err)
	}
	items, err := fromLineItemJSON(r.LineItems)
	if err != nil {
		return nil, err
	}
	return &invoice.Invoice{
		Entity:    types.Entity{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
		ID:        invID,
		Number:    r.Number,
		ParentID:  parentID,
		LineItems: items,
		Total:     types.Cents(r.TotalCents),
		Status:    invoice.Status(r.Status),
		IssueDate: r.IssueDate,
		DueDate:   r.DueDate,
		Notes:     r.Notes,
	}, nil
}

// ==================== Pay stub row ====================

type payStubRow struct {
	ID         string         `db:"id"`
	Sequence   int64          `db:"sequence"`
	Number     string         `db:"number"`
	TutorID    string         `db:"tutor_id"`
	LineItems  []lineItemJSON `db:"line_items"`
	TotalHours float64        `db:"total_hours"`
	PayCents   int64          `db:"pay_cents"`
	Status     string         `db:"status"`
	IssueDate  time.Time      `db:"issue_date"`
	Notes      string         `db:"notes"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func fromPayStubRow(r *payStubRow) (*paystub.PayStub, error) {
	stubID, err := id.ParsePayStubID(r.ID)
	if err != nil {
		return nil, fmt.Errorf("billing/postgres: parse pay stub id %q: %w", r.ID, err)
	}
	tutorID, err := id.ParseTutorID(r.TutorID)
	if err != nil {
		return nil, fmt.Errorf("billing/postgres: parse tutor id %q: %w", r.TutorID, err)
	}
	items, err := fromLineItemJSON(r.LineItems)
	if err != nil {
		return nil, err
	}
	return &paystub.PayStub{
		Entity:     types.Entity{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
		ID:         stubID,
		Sequence:   r.Sequence,
		Number:     r.Number,
		TutorID:    tutorID,
		LineItems:  items,
		TotalHours: r.TotalHours,
		TotalPay:   types.Cents(r.PayCents),
		Status:     paystub.Status(r.Status),
		IssueDate:  r.IssueDate,
		Notes:      r.Notes,
	}, nil
}

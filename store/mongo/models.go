package mongo

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

// ==================== Roster models ====================

type parentModel struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	Email      string    `bson:"email,omitempty"`
	Phone      string    `bson:"phone,omitempty"`
	StudentIDs []string  `bson:"student_ids,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func toParentModel(p *roster.Parent) *parentModel {
	studentIDs := make([]string, len(p.StudentIDs))
	for i, sid := range p.StudentIDs {
		studentIDs[i] = sid.String()
	}
	return &parentModel{
		ID:         p.ID.String(),
		Name:       p.Name,
		Email:      p.Email,
		Phone:      p.Phone,
		StudentIDs: studentIDs,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func fromParentModel(m *parentModel) (*roster.Parent, error) {
	parentID, err := id.ParseParentID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("billing/mongo: parse parent id %q: %w", m.ID, err)
	}
	studentIDs := make([]id.StudentID, len(m.StudentIDs))
	for i, raw := range m.StudentIDs {
		sid, err := id.ParseStudentID(raw)
		if err != nil {
			return nil, fmt.Errorf("billing/mongo: parse student id %q: %w", raw, err)
		}
		studentIDs[i] = sid
	}
	return &roster.Parent{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         parentID,
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		StudentIDs: studentIDs,
	}, nil
}

type studentModel struct {
	ID        string           `bson:"_id"`
	ParentID  string           `bson:"parent_id"`
	Name      string           `bson:"name"`
	Grade     string           `bson:"grade,omitempty"`
	Rates     map[string]int64 `bson:"rates,omitempty"`
	CreatedAt time.Time        `bson:"created_at"`
	UpdatedAt time.Time        `bson:"updated_at"`
}

func toStudentModel(st *roster.Student) *studentModel {
	return &studentModel{
		ID:        st.ID.String(),
		ParentID:  st.ParentID.String(),
		Name:      st.Name,
		Grade:     st.Grade,
		Rates:     toRateModel(st.Rates),
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
}

func fromStudentModel(m *studentModel) (*roster.Student, error) {
	studentID, err := id.ParseStudentID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("billing/mongo: parse student id %q: %w", m.ID, err)
	}
	parentID, err := id.ParseParentID(m.ParentID)
	if err != nil {
		return nil, fmt.Errorf("billing/mongo: parse parent id %q: %w", m.ParentID, err)
	}
	return &roster.Student{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       studentID,
		ParentID: parentID,
		Name:     m.Name,
		Grade:    m.Grade,
		Rates:    fromRateModel(m.Rates),
	}, nil
}

type tutorModel struct {
	ID        string           `bson:"_id"`
	Name      string           `bson:"name"`
	Email     string           `bson:"email,omitempty"`
	Subjects  []string         `bson:"subjects,omitempty"`
	PayRates  map[string]int64 `bson:"pay_rates,omitempty"`
	CreatedAt time.Time        `bson:"created_at"`
	UpdatedAt time.Time        `bson:"updated_at"`
}

func toTutorModel(t *roster.Tutor) *tutorModel {
	return &tutorModel{
		ID:        t.ID.String(),
		Name:      t.Name,
		Email:     t.Email,
		Subjects:  t.Subjects,
		PayRates:  toRateModel(t.PayRates),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func fromTutorModel(m *tutorModel) (*roster.Tutor, error) {
	tutorID, err := id.ParseTutorID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("billing/mongo: parse tutor id %q: %w", m.ID, err)
	}
	return &roster.Tutor{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       tutorID,
		Name:     m.Name,
		Email:    m.Email,
		Subjects: m.Subjects,
		PayRates: fromRateModel(m.PayRates),
	}, nil
}

// Rate tables persist as subject -> cents.
func toRateModel(rates roster.RateTable) map[string]int64 {
	if rates == nil {
		return nil
	}
	m := make(map[string]int64, len(rates))
	for subject, rate := range rates {
		m[subject] = rate.Amount
	}
	return m
}

func fromRateModel(m map[string]int64) roster.RateTable {
	if m == nil {
		return nil
	}
	rates := make(roster.RateTable, len(m))
	for subject, cents := range m {
		rates[subject] = types.Cents(cents)
	}
	return rates
}

// ==================== Session model ====================

type sessionModel struct {
	ID              string    `bson:"_id"`
	ParentID        string    `bson:"parent_id,omitempty"`
	StudentID       string    `bson:"student_id,omitempty"`
	TutorID         string    `bson:"tutor_id"`
	Subject         string    `bson:"subject"`
	StartTime       time.Time `bson:"start_time"`
	EndTime         time.Time `bson:"end_time"`
	DurationMinutes int64     `bson:"duration_minutes"`
	Status          string    `bson:"status"`
	CostCents       *int64    `bson:"cost_cents,omitempty"`
	BilledToParent  bool      `bson:"billed_to_parent"`
	InvoiceID       string    `bson:"invoice_id,omitempty"`
	PaidToTutor     bool      `bson:"paid_to_tutor"`
	PayStubID       string    `bson:"pay_stub_id,omitempty"`
	Notes           string    `bson:"notes,omitempty"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

func toSessionModel(s *session.Session) *sessionModel {
	m := &sessionModel{
		ID:              s.ID.String(),
		TutorID:         s.TutorID.String(),
		Subject:         s.Subject,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		DurationMinutes: s.DurationMinutes,
		Status:          string(s.Status),
		BilledToParent:  s.BilledToParent,
		PaidToTutor:     s.PaidToTutor,
		Notes:           s.Notes,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if !s.ParentID.IsNil() {
		m.ParentID = s.ParentID.String()
	}
	if !s.StudentID.IsNil() {
		m.StudentID = s.StudentID.String()
	}
	if !s.InvoiceID.IsNil() {
		m.InvoiceID = s.InvoiceID.String()
	}
	if !s.PayStubID.IsNil() {
		m.PayStubID = s.PayStubID.String()
	}
	if s.Cost != nil {
		cents := s.Cost.Amount
		m.CostCents = &cents
	}
	return m
}

func fromSessionModel(m *sessionModel) (*session.Session, error) {
	sessID, err := id.ParseSessionID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("billing/mongo: parse session id %q: %w", m.ID, err)
	}
	tutorID, err := id.ParseTutorID(m.TutorID)
	if err != nil {
		return nil, fmt.Errorf("billing/mongo: parse tutor id %q: %w", m.TutorID, err)
	}

	s := &session.Session{
		Entity:          types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:              sessID,
		TutorID:         tutorID,
		Subject:         m.Subject,
		StartTime:       m.StartTime,
		EndTime:         m.EndTime,
		DurationMinutes: m.DurationMinutes,
		Status:          session.Status(m.Status),
		BilledToParent:  m.BilledToParent,
		PaidToTutor:     m.PaidToTutor,
		Notes:           m.Notes,
	}
	if m.ParentID != "" {
		if s.ParentID, err = id.ParseParentID(m.ParentID); err != nil {
			return nil, fmt.Errorf("billing/mongo: parse parent id %q: %w", m.ParentID, err)
		}
	}
	if m.StudentID != "" {
		if s.StudentID, err = id.ParseStudentID(m.StudentID); err != nil {
			return nil, fmt.Errorf("billing/mongo: parse student id %q: %w", m.StudentID, err)
		}
	}
	if m.InvoiceID != "" {
		if s.InvoiceID, err = id.ParseInvoiceID(m.InvoiceID); err != nil {
			return nil, fmt.Errorf("billing/mongo: parse invoice id %q: %w", m.InvoiceID, err)
		}
	}
	if m.PayStubID != "" {
		if s.PayStubID, err = id.ParsePayStubID(m.PayStubID); err != nil {
			return nil, fmt.Errorf("billing/mongo: parse pay stub id %q: %w", m.PayStubID, err)
		}
	}
	if m.CostCents != nil {
		cost := types.Cents(*m.CostCents)
		s.Cost = &cost
	}
	return s, nil
}

// ==================== Line item model ====================

type lineItemModel struct {
	ID          string `bson:"id"`
	SessionID   string `bson:"session_id"`
	Description string `bson:"description"`
	Minutes     int64  `bson:"minutes"`
	Flat        bool   `bson:"flat"`
	RateCents   int64  `bson:"rate_cents"`
	TotalCents  int64  `bson:"total_cents"`
}

func toLineItemModels(items []types.LineItem) []lineItemModel {
	models := make([]lineItemModel, len(items))
	for i, li := range items {
		models[i] = lineItemModel{
			ID:          li.ID.String(),
			SessionID:   li.SessionID.String(),
			Description: li.Description,
			Minutes:     li.Minutes,
			Flat:        li.Flat,
			RateCents:   li.Rate.Amount,
			TotalCents:  li.Total.Amount,
		}
	}
	return models
}

func fromLineItemModels(models []lineItemModel) ([]types.LineItem, error) {
	items := make([]types.LineItem, len(models))
	for i, m := range models {
		liID, err := id.ParseLineItemID(m.ID)
		if err != nil {
			return nil, fmt.Errorf("billing/mongo: parse line item id %q: %w", m.ID, err)
		}
		sessID, err := id.ParseSessionID(m.SessionID)
		if err != nil {
			return nil, fmt.Errorf("billing/mongo: parse session id %q: %w", m.SessionID, err)
		}
		items[i] = types.LineItem{
			ID:          liID,
			SessionID:   sessID,
			Description: m.Description,
			Minutes:     m.Minutes,
			Flat:        m.Flat,
			Rate:        types.Cents(m.RateCents),
			Total:       types.Cents(m.TotalCents),
		}
	}
	return items, nil
}

// ==================== Invoice model ====================

type invoiceModel struct {
	ID         string          `bson:"_id"`
	Number     string          `bson:"number"`
	ParentID   string          `bson:"parent_id"`
	LineItems  []lineItemModel `bson:"line_items"`
	TotalCents int64           `bson:"total_cents"`
	Status     string          `bson:"status"`
	IssueDate  time.Time       `bson:"issue_date"`
	DueDate    time.Time       `bson:"due_date"`
	Notes      string          `bson:"notes,omitempty"`
	CreatedAt  time.Time       `bson:"created_at"`
	UpdatedAt  time.Time       `bson:"updated_at"`
}

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	return &invoiceModel{
		ID:         inv.ID.String(),
		Number:     inv.Number,
		ParentID:   inv.ParentID.String(),
		LineItems:  toLineItemModels(inv.LineItems),
		TotalCents: inv.Total.Amount,
		Status:     string(inv.Status),
		IssueDate:  inv.IssueDate,
		DueDate:    inv.DueDate,
		Notes:      inv.Notes,
		CreatedAt:  inv.CreatedAt,
		UpdatedAt:  inv.UpdatedAt,
	}
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	invID, err := id.ParseInvoiceID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("billing/mongo: parse invoice id %q: %w", m.ID, err)
	}
	parentID, err := id.ParseParentID(m.ParentID)
	if err != nil {
		return nil, fmt.Errorf("billing/mongo: parse parent id %q: %w", m.ParentID, err)
	}
	items, err := fromLineItemModels(m.LineItems)
	if err != nil {
		return nil, err
	}
	return &invoice.Invoice{
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:        invID,
		Number:    m.Number,
		ParentID:  parentID,
		LineItems: items,
		Total:     types.Cents(m.TotalCents),
		Status:    invoice.Status(m.Status),
		IssueDate: m.IssueDate,
		DueDate:   m.DueDate,
		Notes:     m.Notes,
	}, nil
}

// ==================== Pay stub model ====================

type payStubModel struct {
	ID         string          `bson:"_id"`
	Sequence   int64           `bson:"sequence"`
	Number     string          `bson:"number"`
	TutorID    string          `bson:"tutor_id"`
	LineItems  []lineItemModel `bson:"line_items"`
	TotalHours float64         `bson:"total_hours"`
	PayCents   int64           `bson:"pay_cents"`
	Status     string          `bson:"status"`
	IssueDate  time.Time       `bson:"issue_date"`
	Notes      string          `bson:"notes,omitempty"`
	CreatedAt  time.Time       `bson:"created_at"`
	UpdatedAt  time.Time       `bson:"updated_at"`
}

func toPayStubModel(stub *paystub.PayStub) *payStubModel {
	return &payStubModel{
		ID:         stub.ID.String(),
		Sequence:   stub.Sequence,
		Number:     stub.Number,
		TutorID:    stub.TutorID.String(),
		LineItems:  toLineItemModels(stub.LineItems),
		TotalHours: stub.TotalHours,
		PayCents:   stub.TotalPay.Amount,
		Status:     string(stub.Status),
		IssueDate:  stub.IssueDate,
		Notes:      stub.Notes,
		CreatedAt:  stub.CreatedAt,
		UpdatedAt:  stub.UpdatedAt,
	}
}

func fromPayStubModel(m *payStubModel) (*paystub.PayStub, error) {
	stubID, err := id.ParsePayStubID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("billing/mongo: parse pay stub id %q: %w", m.ID, err)
	}
	tutorID, err := id.ParseTutorID(m.TutorID)
	if err != nil {
		return nil, fmt.Errorf("billing/mongo: parse tutor id %q: %w", m.TutorID, err)
	}
	items, err := fromLineItemModels(m.LineItems)
	if err != nil {
		return nil, err
	}
	return &paystub.PayStub{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         stubID,
		Sequence:   m.Sequence,
		Number:     m.Number,
		TutorID:    tutorID,
		LineItems:  items,
		TotalHours: m.TotalHours,
		TotalPay:   types.Cents(m.PayCents),
		Status:     paystub.Status(m.Status),
		IssueDate:  m.IssueDate,
		Notes:      m.Notes,
	}, nil
}

// sequenceModel is one named counter document. The counter holds the count
// of values minted so far; display numbers are offset from the seed.
type sequenceModel struct {
	Name   string `bson:"_id"`
	Minted int64  `bson:"minted"`
}

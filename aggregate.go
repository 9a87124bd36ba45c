package billing

import (
	"context"
	"fmt"
	"sort"

	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/rate"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/roster"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/session"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/types"
)

// BillableSession is a session annotated with its resolved price, as
// presented to the operator selecting what to bill. The selection is
// default-all: the caller narrows it before generating, and narrowing never
// touches the ledger.
type BillableSession struct {
	Session     *session.Session
	Line        rate.Line
	Description string
}

// ListUnbilledForParent returns the sessions eligible for invoicing to a
// parent, priced, oldest first.
//
// Eligible means billable lifecycle status, not yet billed to the parent,
// and (when a range is given) starting within it. A parent's sessions are
// the union of sessions keyed directly to the parent and sessions keyed
// through any of the parent's students, deduplicated by identity.
func (e *Engine) ListUnbilledForParent(ctx context.Context, parentID id.ParentID, rng *types.DateRange) ([]*BillableSession, error) {
	if _, err := e.store.GetParent(ctx, parentID); err != nil {
		return nil, err
	}

	opts := session.ListOpts{}
	if rng != nil {
		opts.Range = *rng
	}

	direct, err := e.store.ListSessionsByParent(ctx, parentID, opts)
	if err != nil {
		return nil, err
	}

	students, err := e.store.ListStudentsByParent(ctx, parentID)
	if err != nil {
		return nil, err
	}

	studentIDs := make([]id.StudentID, len(students))
	byStudent := make(map[string]*roster.Student, len(students))
	for i, s := range students {
		studentIDs[i] = s.ID
		byStudent[s.ID.String()] = s
	}

	indirect, err := e.store.ListSessionsByStudents(ctx, studentIDs, opts)
	if err != nil {
		return nil, err
	}

	// A session can match both paths; keep the first occurrence.
	seen := make(map[string]bool)
	var out []*BillableSession
	for _, s := range append(direct, indirect...) {
		if seen[s.ID.String()] {
			continue
		}
		seen[s.ID.String()] = true

		if !s.Billable() || !s.UnbilledToParent() {
			continue
		}

		out = append(out, e.priceForParent(s, byStudent[s.StudentID.String()]))
	}

	sortOldestFirst(out)
	return out, nil
}

// ListUnpaidForTutor returns the sessions eligible for a tutor's pay stub,
// priced against the tutor's pay rates, oldest first.
func (e *Engine) ListUnpaidForTutor(ctx context.Context, tutorID id.TutorID, rng *types.DateRange) ([]*BillableSession, error) {
	tutor, err := e.store.GetTutor(ctx, tutorID)
	if err != nil {
		return nil, err
	}

	opts := session.ListOpts{}
	if rng != nil {
		opts.Range = *rng
	}

	sessions, err := e.store.ListSessionsByTutor(ctx, tutorID, opts)
	if err != nil {
		return nil, err
	}

	students := make(map[string]*roster.Student)
	var out []*BillableSession
	for _, s := range sessions {
		if !s.Billable() || !s.UnpaidToTutor() {
			continue
		}

		out = append(out, e.priceForTutor(ctx, s, tutor, students))
	}

	sortOldestFirst(out)
	return out, nil
}

// priceForParent resolves a session's invoice price. Sessions keyed directly
// to the parent have no student rate table; they are expected to carry a
// fixed cost and otherwise degrade to a zero rate.
func (e *Engine) priceForParent(s *session.Session, student *roster.Student) *BillableSession {
	var rates roster.RateTable
	if student != nil {
		rates = student.Rates
	}

	return &BillableSession{
		Session:     s,
		Line:        rate.Resolve(s, rates),
		Description: describe(s, student.DisplayName()),
	}
}

// priceForTutor resolves a session's payout price against the tutor's pay
// rates. students caches roster lookups across the listing.
func (e *Engine) priceForTutor(ctx context.Context, s *session.Session, tutor *roster.Tutor, students map[string]*roster.Student) *BillableSession {
	var student *roster.Student
	if !s.StudentID.IsNil() {
		key := s.StudentID.String()
		if cached, ok := students[key]; ok {
			student = cached
		} else {
			// Missing roster records degrade to the Unknown placeholder.
			student, _ = e.store.GetStudent(ctx, s.StudentID) //nolint:errcheck // data-quality degradation, not an error
			students[key] = student
		}
	}

	return &BillableSession{
		Session:     s,
		Line:        rate.Resolve(s, tutor.PayRates),
		Description: describe(s, student.DisplayName()),
	}
}

// describe builds the human-readable line description, e.g.
// "Math — Alex (Jan 5)".
func describe(s *session.Session, who string) string {
	subject := s.Subject
	if subject == "" {
		subject = "Session"
	}
	return fmt.Sprintf("%s — %s (%s)", subject, who, s.StartTime.Format("Jan 2"))
}

// sortOldestFirst orders the selection ascending by start time: the billing
// convention is to bill the oldest unbilled work first. Ties break on ID so
// repeated listings are stable.
func sortOldestFirst(items []*BillableSession) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i].Session, items[j].Session
		if a.StartTime.Equal(b.StartTime) {
			return a.ID.String() < b.ID.String()
		}
		return a.StartTime.Before(b.StartTime)
	})
}

// selectForParent re-fetches and validates an explicit session selection
// before committing an invoice. Everything here is an input check with no
// side effects; the store repeats the unbilled check atomically at commit.
func (e *Engine) selectForParent(ctx context.Context, parent *roster.Parent, sessIDs []id.SessionID) ([]*BillableSession, error) {
	sessions, err := e.store.GetSessions(ctx, sessIDs)
	if err != nil {
		return nil, err
	}

	students, err := e.store.ListStudentsByParent(ctx, parent.ID)
	if err != nil {
		return nil, err
	}
	byStudent := make(map[string]*roster.Student, len(students))
	for _, s := range students {
		byStudent[s.ID.String()] = s
	}

	selected := make([]*BillableSession, 0, len(sessions))
	for _, s := range sessions {
		owned := s.ParentID == parent.ID
		var student *roster.Student
		if !s.StudentID.IsNil() {
			if st, ok := byStudent[s.StudentID.String()]; ok {
				owned = true
				student = st
			}
		}
		if !owned {
			return nil, fmt.Errorf("%w: session %s", ErrSessionWrongParent, s.ID)
		}
		if !s.Billable() {
			return nil, fmt.Errorf("%w: session %s is %s", ErrSessionNotBillable, s.ID, s.Status)
		}
		if !s.UnbilledToParent() {
			return nil, fmt.Errorf("%w: session %s", ErrBillingConflict, s.ID)
		}

		selected = append(selected, e.priceForParent(s, student))
	}

	sortOldestFirst(selected)
	return selected, nil
}

// selectForTutor mirrors selectForParent on the payee track.
func (e *Engine) selectForTutor(ctx context.Context, tutor *roster.Tutor, sessIDs []id.SessionID) ([]*BillableSession, error) {
	sessions, err := e.store.GetSessions(ctx, sessIDs)
	if err != nil {
		return nil, err
	}

	students := make(map[string]*roster.Student)
	selected := make([]*BillableSession, 0, len(sessions))
	for _, s := range sessions {
		if s.TutorID != tutor.ID {
			return nil, fmt.Errorf("%w: session %s", ErrSessionWrongTutor, s.ID)
		}
		if !s.Billable() {
			return nil, fmt.Errorf("%w: session %s is %s", ErrSessionNotBillable, s.ID, s.Status)
		}
		if !s.UnpaidToTutor() {
			return nil, fmt.Errorf("%w: session %s", ErrBillingConflict, s.ID)
		}

		selected = append(selected, e.priceForTutor(ctx, s, tutor, students))
	}

	sortOldestFirst(selected)
	return selected, nil
}

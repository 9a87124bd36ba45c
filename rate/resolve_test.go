package rate

import (
	"testing"

	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/roster"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/session"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/types"
)

func TestResolveHourly(t *testing.T) {
	rates := roster.RateTable{
		"Math":    types.Dollars(40),
		"Physics": types.Dollars(50),
	}

	tests := []struct {
		name     string
		subject  string
		minutes  int64
		expected types.Money
	}{
		{"NinetyMinuteMath", "Math", 90, types.Dollars(60)},
		{"FullHourMath", "Math", 60, types.Dollars(40)},
		{"HalfHourPhysics", "Physics", 30, types.Dollars(25)},
		{"UnknownSubject", "Chemistry", 90, types.Cents(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &session.Session{
				ID:              id.NewSessionID(),
				Subject:         tt.subject,
				DurationMinutes: tt.minutes,
			}

			line := Resolve(s, rates)
			if line.Flat {
				t.Error("hourly session resolved as flat")
			}
			if line.Minutes != tt.minutes {
				t.Errorf("Minutes: got %d, want %d", line.Minutes, tt.minutes)
			}
			if !line.Total.Equal(tt.expected) {
				t.Errorf("Total: got %v, want %v", line.Total, tt.expected)
			}
		})
	}
}

func TestResolveFlatOverride(t *testing.T) {
	rates := roster.RateTable{"Math": types.Dollars(40)}
	cost := types.Dollars(75)

	s := &session.Session{
		ID:              id.NewSessionID(),
		Subject:         "Math",
		DurationMinutes: 90,
		Cost:            &cost,
	}

	line := Resolve(s, rates)
	if !line.Flat {
		t.Fatal("fixed-cost session should resolve as flat")
	}
	if !line.Total.Equal(cost) {
		t.Errorf("Total: got %v, want %v", line.Total, cost)
	}
	if !line.Rate.Equal(cost) {
		t.Errorf("Rate: got %v, want %v", line.Rate, cost)
	}
	if line.Minutes != 0 {
		t.Errorf("Minutes: got %d, want 0", line.Minutes)
	}
	if line.Hours() != 1 {
		t.Errorf("Hours: got %v, want 1", line.Hours())
	}
}

func TestResolveNilRateTable(t *testing.T) {
	s := &session.Session{
		ID:              id.NewSessionID(),
		Subject:         "Math",
		DurationMinutes: 60,
	}

	line := Resolve(s, nil)
	if !line.Total.IsZero() {
		t.Errorf("nil table should price to zero, got %v", line.Total)
	}
}

func TestLineHours(t *testing.T) {
	tests := []struct {
		name     string
		line     Line
		expected float64
	}{
		{"NinetyMinutes", Line{Minutes: 90}, 1.5},
		{"FullHour", Line{Minutes: 60}, 1},
		{"Flat", Line{Flat: true}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.line.Hours(); got != tt.expected {
				t.Errorf("Hours: got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestItem(t *testing.T) {
	sessID := id.NewSessionID()
	line := Line{
		Rate:    types.Dollars(40),
		Minutes: 90,
		Total:   types.Dollars(60),
	}

	item := line.Item(sessID, "Math - Alice (Jan 2)")
	if item.ID.IsNil() {
		t.Error("expected a minted line item ID")
	}
	if item.SessionID != sessID {
		t.Errorf("SessionID: got %v, want %v", item.SessionID, sessID)
	}
	if !item.Total.Equal(types.Dollars(60)) {
		t.Errorf("Total: got %v, want %v", item.Total, types.Dollars(60))
	}
}

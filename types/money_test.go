package types

import (
	"encoding/json"
	"testing"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name    string
		money   Money
		amount  int64
		display string
	}{
		{"Cents", Cents(4900), 4900, "$49.00"},
		{"Dollars", Dollars(40), 4000, "$40.00"},
		{"Zero", Cents(0), 0, "$0.00"},
		{"Negative", Cents(-250), -250, "-$2.50"},
		{"SubDollar", Cents(5), 5, "$0.05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return Cents(100).Add(Cents(200)) }, Cents(300)},
		{"Subtract", func() Money { return Cents(500).Subtract(Cents(200)) }, Cents(300)},
		{"Multiply", func() Money { return Cents(100).Multiply(3) }, Cents(300)},
		{"Negate", func() Money { return Cents(100).Negate() }, Cents(-100)},
		{"Complex", func() Money {
			return Cents(1000).Add(Cents(500)).Multiply(2).Subtract(Cents(1000))
		}, Cents(2000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMoneyForMinutes(t *testing.T) {
	tests := []struct {
		name     string
		hourly   Money
		minutes  int64
		expected Money
	}{
		{"FullHour", Dollars(40), 60, Dollars(40)},
		{"NinetyMinutes", Dollars(40), 90, Dollars(60)},
		{"HalfHour", Dollars(40), 30, Dollars(20)},
		{"TwoHours", Dollars(25), 120, Dollars(50)},
		{"FortyFiveMinutes", Dollars(40), 45, Dollars(30)},
		{"ZeroMinutes", Dollars(40), 0, Cents(0)},
		{"ZeroRate", Cents(0), 90, Cents(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.hourly.ForMinutes(tt.minutes)
			if !result.Equal(tt.expected) {
				t.Errorf("%v × %dmin: got %v, want %v", tt.hourly, tt.minutes, result, tt.expected)
			}
		})
	}
}

func TestMoneyComparisons(t *testing.T) {
	if !Cents(0).IsZero() {
		t.Error("Cents(0) should be zero")
	}
	if !Cents(100).IsPositive() {
		t.Error("Cents(100) should be positive")
	}
	if !Cents(-100).IsNegative() {
		t.Error("Cents(-100) should be negative")
	}
	if !Cents(100).LessThan(Cents(200)) {
		t.Error("100 should be less than 200")
	}
	if !Cents(200).GreaterThan(Cents(100)) {
		t.Error("200 should be greater than 100")
	}
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(Cents(6000))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Money
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !decoded.Equal(Cents(6000)) {
		t.Errorf("round-trip mismatch: got %v, want %v", decoded, Cents(6000))
	}

	// Bare integer form.
	var bare Money
	if err := json.Unmarshal([]byte("4500"), &bare); err != nil {
		t.Fatalf("Unmarshal bare int failed: %v", err)
	}
	if !bare.Equal(Cents(4500)) {
		t.Errorf("bare int: got %v, want %v", bare, Cents(4500))
	}
}

func TestSum(t *testing.T) {
	total := Sum(Cents(100), Cents(200), Cents(300))
	if !total.Equal(Cents(600)) {
		t.Errorf("Sum: got %v, want %v", total, Cents(600))
	}

	if !Sum().IsZero() {
		t.Error("empty Sum should be zero")
	}
}

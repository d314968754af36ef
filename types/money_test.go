package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"USD", USD(4900), 4900, "usd", "$49.00"},
		{"EUR", EUR(19900), 19900, "eur", "€199.00"},
		{"GBP", GBP(9900), 9900, "gbp", "£99.00"},
		{"New CAD", New(2500, "CAD"), 2500, "cad", "C$25.00"},
		{"New CHF", New(7550, "chf"), 7550, "chf", "CHF 75.50"},
		{"Zero USD", Zero("USD"), 0, "usd", "$0.00"},
		{"Negative", USD(-50000), -50000, "usd", "$-500.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
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
		{"Add", func() Money { return USD(100).Add(USD(200)) }, USD(300)},
		{"Subtract", func() Money { return USD(500).Subtract(USD(200)) }, USD(300)},
		{"Subtract below zero", func() Money { return USD(1000).Subtract(USD(1500)) }, USD(-500)},
		{"Negate", func() Money { return USD(100).Negate() }, USD(-100)},
		{"Sum", func() Money { return Sum("usd", USD(12000), USD(4000), USD(2000)) }, USD(18000)},
		{"Sum empty", func() Money { return Sum("usd") }, Zero("usd")},
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

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	_ = USD(100).Add(EUR(100))
}

func TestMoneyCheckCurrency(t *testing.T) {
	if err := USD(1).CheckCurrency(USD(2)); err != nil {
		t.Errorf("same currency: unexpected error %v", err)
	}
	if err := USD(1).CheckCurrency(EUR(2)); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("got %v, want ErrCurrencyMismatch", err)
	}
}

func TestMoneyPercent(t *testing.T) {
	tests := []struct {
		amount int64
		pct    string
		want   int64
	}{
		{12000, "100", 12000},
		{8000, "50", 4000},
		{10000, "0", 0},
		{10000, "33.33", 3333},
		{1, "50", 1},         // 0.5 rounds up
		{3, "50", 2},         // 1.5 rounds up
		{5, "10", 1},         // 0.5 rounds up
		{4, "10", 0},         // 0.4 rounds down
		{999, "33.335", 333}, // 333.01665
		{-1, "50", 0},        // -0.5 rounds towards +Inf
	}

	for _, tt := range tests {
		got := New(tt.amount, "usd").Percent(decimal.RequireFromString(tt.pct))
		if got.Amount != tt.want {
			t.Errorf("%d * %s%%: got %d, want %d", tt.amount, tt.pct, got.Amount, tt.want)
		}
		if got.Currency != "usd" {
			t.Errorf("currency changed to %q", got.Currency)
		}
	}
}

func TestMoneyPercentBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amount := rapid.Int64Range(0, 10_000_000).Draw(t, "amount")
		bp := rapid.Int64Range(0, 10000).Draw(t, "basis_points")
		pct := decimal.New(bp, -2)

		m := USD(amount)
		share := m.Percent(pct)
		if share.Amount < 0 || share.Amount > amount {
			t.Fatalf("share %d outside [0, %d] at %s%%", share.Amount, amount, pct)
		}
		if again := m.Percent(pct); again != share {
			t.Fatalf("unstable result: %v then %v", share, again)
		}
	})
}

func TestMoneyComparison(t *testing.T) {
	a, b := USD(1000), USD(1500)
	if !a.LessThan(b) {
		t.Error("1000 should be less than 1500")
	}
	if a.GreaterOrEqual(b) {
		t.Error("1000 should not be >= 1500")
	}
	if !b.GreaterOrEqual(USD(1500)) {
		t.Error("1500 should be >= 1500")
	}
	if USD(100).Equal(EUR(100)) {
		t.Error("different currencies should not be equal")
	}
}

func TestMoneyPredicates(t *testing.T) {
	if !Zero("usd").IsZero() {
		t.Error("zero should be zero")
	}
	if !USD(1).IsPositive() || USD(1).IsNegative() {
		t.Error("1 should be positive")
	}
	if !USD(-1).IsNegative() || USD(-1).IsPositive() {
		t.Error("-1 should be negative")
	}
}

func TestMoneyFormatMajor(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{12000, "120.00"},
		{-500, "-5.00"},
		{123456, "1234.56"},
	}
	for _, tt := range tests {
		if got := USD(tt.amount).FormatMajor(); got != tt.want {
			t.Errorf("FormatMajor(%d): got %s, want %s", tt.amount, got, tt.want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(USD(4900))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out["amount"].(float64) != 4900 {
		t.Errorf("amount: got %v", out["amount"])
	}
	if out["currency"] != "usd" {
		t.Errorf("currency: got %v", out["currency"])
	}
	if out["display"] != "$49.00" {
		t.Errorf("display: got %v", out["display"])
	}

	var back Money
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal Money: %v", err)
	}
	if back != USD(4900) {
		t.Errorf("round trip: got %v", back)
	}
}

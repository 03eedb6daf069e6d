package exchange

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCalculate(t *testing.T) {
	rates := Rates{
		CurrencyRUB: decimal.RequireFromString("1.00"),
		CurrencyUSD: decimal.RequireFromString("92.5058"),
	}

	tests := []struct {
		name     string
		amount   string
		currency int
		want     string
	}{
		{"identity", "1000.00", CurrencyRUB, "1000.00"},
		{"rounded", "10.01", CurrencyUSD, "925.98"},
		{"fraction", "0.01", CurrencyUSD, "0.93"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rates.Calculate(decimal.RequireFromString(tt.amount), tt.currency)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.StringFixed(2) != tt.want {
				t.Errorf("Calculate = %s, want %s", got.StringFixed(2), tt.want)
			}
		})
	}

	if _, err := rates.Calculate(decimal.NewFromInt(1), 978); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Errorf("expected ErrUnsupportedCurrency, got %v", err)
	}
}

func TestParseRates(t *testing.T) {
	rates, err := ParseRates(" 643:1.00, 840:92.5 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rates) != 2 || !rates[CurrencyUSD].Equal(decimal.RequireFromString("92.5")) {
		t.Errorf("unexpected rates %v", rates)
	}
	if rates.String() != "643:1,840:92.5" {
		t.Errorf("String() = %q", rates.String())
	}

	for _, bad := range []string{"643", "abc:1", "643:x", "643:0"} {
		if _, err := ParseRates(bad); err == nil {
			t.Errorf("ParseRates(%q) expected error", bad)
		}
	}
}

func TestParseCurrencies(t *testing.T) {
	codes, err := ParseCurrencies("643, 840")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(codes) != 2 || codes[0] != 643 || codes[1] != 840 {
		t.Errorf("unexpected codes %v", codes)
	}
	if _, err := ParseCurrencies(""); err == nil {
		t.Error("expected error for empty list")
	}
	if _, err := ParseCurrencies("643,RUB"); err == nil {
		t.Error("expected error for non numeric code")
	}
}

func TestMerge(t *testing.T) {
	base := DefaultRates()
	merged := base.Merge(Rates{CurrencyUSD: decimal.RequireFromString("90")})
	if !merged[CurrencyUSD].Equal(decimal.RequireFromString("90")) {
		t.Errorf("override not applied: %v", merged)
	}
	if !base[CurrencyUSD].Equal(decimal.RequireFromString("1")) {
		t.Error("Merge must not modify the receiver")
	}
}

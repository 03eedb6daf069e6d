// Package exchange holds the static exchange rates and the currency
// allow-list. Both are loaded once at startup and passed explicitly to the
// components that need them.
package exchange

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	CurrencyRUB = 643
	CurrencyUSD = 840
)

// ErrUnsupportedCurrency is returned for a currency with no rate
var ErrUnsupportedCurrency = errors.New("currency not supported")

// Rates maps a numeric currency code to the receiving amount per unit sent
type Rates map[int]decimal.Decimal

// DefaultCurrencies is the allow-list used when none is configured
func DefaultCurrencies() []int {
	return []int{CurrencyRUB, CurrencyUSD}
}

// DefaultRates returns a rate of 1.00 for every default currency
func DefaultRates() Rates {
	one := decimal.RequireFromString("1.00")
	return Rates{CurrencyRUB: one, CurrencyUSD: one}
}

// Calculate converts amount at the rate of currency, rounded to two places
func (r Rates) Calculate(amount decimal.Decimal, currency int) (decimal.Decimal, error) {
	rate, ok := r[currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrUnsupportedCurrency, currency)
	}
	return amount.Mul(rate).Round(2), nil
}

// Merge returns a copy of r overridden by other
func (r Rates) Merge(other Rates) Rates {
	out := make(Rates, len(r)+len(other))
	for code, rate := range r {
		out[code] = rate
	}
	for code, rate := range other {
		out[code] = rate
	}
	return out
}

// String renders the rates in the configuration format, ordered by code
func (r Rates) String() string {
	codes := make([]int, 0, len(r))
	for code := range r {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		parts = append(parts, fmt.Sprintf("%d:%s", code, r[code].String()))
	}
	return strings.Join(parts, ",")
}

// ParseRates parses "643:1.00,840:1.00"
func ParseRates(s string) (Rates, error) {
	rates := Rates{}
	for _, part := range splitList(s) {
		code, value, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid rate %q: expected code:rate", part)
		}
		c, err := strconv.Atoi(strings.TrimSpace(code))
		if err != nil {
			return nil, fmt.Errorf("invalid currency code %q: %w", code, err)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %d: %w", c, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("rate for %d must be positive", c)
		}
		rates[c] = rate
	}
	return rates, nil
}

// ParseCurrencies parses "643,840"
func ParseCurrencies(s string) ([]int, error) {
	var codes []int
	for _, part := range splitList(s) {
		code, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid currency code %q: %w", part, err)
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return nil, errors.New("no currencies configured")
	}
	return codes, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

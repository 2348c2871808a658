// Package money implements integer minor-unit arithmetic for monetary
// amounts. Amounts never cross a floating-point boundary; percentage
// products truncate toward zero.
package money

import "fmt"

// Amount is a monetary value in the minor unit of its currency
// (e.g. centavos for COP).
type Amount struct {
	Value    int64
	Currency string
}

func New(value int64, currency string) Amount {
	return Amount{Value: value, Currency: currency}
}

func (a Amount) Add(b Amount) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("currency mismatch: %s vs %s", a.Currency, b.Currency)
	}
	return Amount{Value: a.Value + b.Value, Currency: a.Currency}, nil
}

func (a Amount) Sub(b Amount) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("currency mismatch: %s vs %s", a.Currency, b.Currency)
	}
	return Amount{Value: a.Value - b.Value, Currency: a.Currency}, nil
}

// Cmp returns -1, 0 or 1. Both amounts must share a currency; comparing
// across currencies is a programming error and panics.
func (a Amount) Cmp(b Amount) int {
	if a.Currency != b.Currency {
		panic(fmt.Sprintf("money: comparing %s with %s", a.Currency, b.Currency))
	}
	switch {
	case a.Value < b.Value:
		return -1
	case a.Value > b.Value:
		return 1
	}
	return 0
}

// PercentFloor returns ⌊value*percent/100⌋ for a non-negative integer
// percentage. This matches the tax calculation: truncation toward zero,
// never half-up.
func PercentFloor(value int64, percent int64) int64 {
	return value * percent / 100
}

// InverseBase back-solves the net amount from a gross total that already
// includes tax: ⌊total*100/(100+percent)⌋.
func InverseBase(total int64, percent int64) int64 {
	return total * 100 / (100 + percent)
}

// GMF computes the Colombian financial-operations levy: 4 per 1000,
// floored. Callers decide whether the levy applies at all.
func GMF(value int64) int64 {
	return value * 4 / 1000
}

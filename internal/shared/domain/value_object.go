package domain

import (
	"errors"
	"fmt"
)

// ErrCurrencyMismatch is returned when combining amounts in different currencies.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// DefaultCurrency is the currency prices are quoted in.
const DefaultCurrency = "PEN"

// Money is an amount in minor units (cents) of a currency.
type Money struct {
	amount   int64
	currency string
}

// NewMoney creates a Money value. Negative amounts are rejected.
func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, fmt.Errorf("amount must not be negative: %d", amount)
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustMoney is NewMoney for literals known to be valid.
func MustMoney(amount int64, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Amount() int64    { return m.amount }
func (m Money) Currency() string { return m.currency }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.amount == 0
}

// Add sums two amounts of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// Equals compares amount and currency.
func (m Money) Equals(other Money) bool {
	return m.amount == other.amount && m.currency == other.currency
}

// String renders the amount with two decimals, e.g. "PEN 120.00".
func (m Money) String() string {
	return fmt.Sprintf("%s %d.%02d", m.currency, m.amount/100, m.amount%100)
}

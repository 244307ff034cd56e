package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	maxHundredths = decimal.NewFromInt(math.MaxInt64)
	minHundredths = decimal.NewFromInt(math.MinInt64)
)

// Money is an amount of currency in minor units (cents).
type Money int64

// Multiplier is a payout multiplier in hundredths, so 2.00x is 200.
type Multiplier int64

// ParseMoney parses a decimal amount such as "1000" or "12.50".
func ParseMoney(s string) (Money, error) {
	v, err := parseHundredths(s)
	return Money(v), err
}

// ParseMultiplier parses a decimal multiplier such as "2" or "1.75".
func ParseMultiplier(s string) (Multiplier, error) {
	v, err := parseHundredths(s)
	return Multiplier(v), err
}

func parseHundredths(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return hundredthsFromDecimal(d)
}

func hundredthsFromDecimal(d decimal.Decimal) (int64, error) {
	if !d.Equal(d.Truncate(2)) {
		return 0, fmt.Errorf("%s has more than two decimal places", d.String())
	}

	shifted := d.Shift(2)
	if shifted.GreaterThan(maxHundredths) || shifted.LessThan(minHundredths) {
		return 0, fmt.Errorf("%s is out of range", d.String())
	}

	return shifted.IntPart(), nil
}

func unmarshalHundredths(data []byte) (int64, error) {
	if string(data) == "null" {
		return 0, nil
	}

	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return 0, err
	}

	return hundredthsFromDecimal(d)
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MulFloor returns m scaled by x, rounded down to the cent.
func (m Money) MulFloor(x Multiplier) Money {
	return Money(m.Decimal().Mul(x.Decimal()).Shift(2).Floor().IntPart())
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	v, err := unmarshalHundredths(data)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	*m = Money(v)
	return nil
}

func (m *Money) UnmarshalText(text []byte) error {
	v, err := ParseMoney(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (x Multiplier) Decimal() decimal.Decimal {
	return decimal.New(int64(x), -2)
}

func (x Multiplier) String() string {
	return x.Decimal().StringFixed(2)
}

func (x Multiplier) MarshalJSON() ([]byte, error) {
	return []byte(x.String()), nil
}

func (x *Multiplier) UnmarshalJSON(data []byte) error {
	v, err := unmarshalHundredths(data)
	if err != nil {
		return fmt.Errorf("invalid multiplier: %w", err)
	}
	*x = Multiplier(v)
	return nil
}

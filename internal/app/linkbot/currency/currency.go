// Package currency converts yuan amounts to euro at a fixed configured rate.
package currency

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultYuanToEuroRate is used when no rate is configured.
const DefaultYuanToEuroRate = 0.12

var (
	ErrInvalidRate   = errors.New("rate must be positive")
	ErrInvalidAmount = errors.New("invalid amount")
)

// Converter is immutable; the zero value converts everything to zero.
type Converter struct {
	rate decimal.Decimal
}

func NewConverter(rate float64) (Converter, error) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return Converter{}, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	return Converter{rate: decimal.NewFromFloat(rate)}, nil
}

func (c Converter) Rate() decimal.Decimal {
	return c.rate
}

// YuanToEuro returns amount * rate without rounding.
func (c Converter) YuanToEuro(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(c.rate)
}

// YuanToEuroFloat is the float64 form of YuanToEuro.
func (c Converter) YuanToEuroFloat(amount float64) float64 {
	d, err := AmountFromFloat(amount)
	if err != nil {
		return math.NaN()
	}
	f, _ := c.YuanToEuro(d).Float64()
	return f
}

// Format renders "¥X.XX = €Y.YY", both sides rounded half away from zero to 2 places.
func (c Converter) Format(amount decimal.Decimal) string {
	return fmt.Sprintf("¥%s = €%s", amount.StringFixed(2), c.YuanToEuro(amount).StringFixed(2))
}

// ParseAmount accepts a plain decimal string such as "12.5".
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// AmountFromFloat rejects NaN and infinities, which decimal cannot represent.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrInvalidAmount, f)
	}
	return decimal.NewFromFloat(f), nil
}

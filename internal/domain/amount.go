package domain

import (
	"bytes"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary or numeric value read from the shop backend.
// Backend payloads are not trusted to be well formed: anything that is not a
// finite number (or a numeric string) decodes to an absent Amount instead of
// failing the whole document.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Value: d, Valid: true}
}

// AmountFromFloat returns an absent Amount for NaN and infinities.
func AmountFromFloat(f float64) Amount {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Amount{}
	}
	return NewAmount(decimal.NewFromFloat(f))
}

func MustAmount(s string) Amount {
	return NewAmount(decimal.RequireFromString(s))
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "" || raw == "null" {
		*a = Amount{}
		return nil
	}
	raw = strings.TrimSpace(strings.Trim(raw, `"`))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		*a = Amount{}
		return nil
	}
	*a = NewAmount(d)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteString(a.Value.String())
	return buf.Bytes(), nil
}

// Positive reports whether the amount is present and strictly above zero.
func (a Amount) Positive() bool {
	return a.Valid && a.Value.IsPositive()
}

// Or returns the value, or fallback when absent.
func (a Amount) Or(fallback decimal.Decimal) decimal.Decimal {
	if !a.Valid {
		return fallback
	}
	return a.Value
}

// Count is a whole quantity read from the backend (stock, units). Numeric
// strings are accepted, fractions are truncated, and anything unreadable or
// negative decodes to zero.
type Count int

func (c *Count) UnmarshalJSON(b []byte) error {
	var a Amount
	if err := a.UnmarshalJSON(b); err != nil || !a.Valid || a.Value.IsNegative() {
		*c = 0
		return nil
	}
	v := a.Value.IntPart()
	if v > math.MaxInt32 {
		v = math.MaxInt32
	}
	*c = Count(v)
	return nil
}

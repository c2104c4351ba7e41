package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept by every division
const Scale int32 = 8

var hundred = decimal.NewFromInt(100)

// Divide returns numerator/denominator rounded half-up to Scale digits.
// A zero denominator yields zero instead of an error.
func Divide(numerator, denominator decimal.Decimal) decimal.Decimal {
	if denominator.IsZero() {
		return decimal.Zero
	}
	return numerator.DivRound(denominator, Scale)
}

// Percentage returns part/whole*100 using Divide
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	return Divide(part, whole).Mul(hundred)
}

// CheckScale rejects a value with more than Scale fractional digits.
// Stored amounts are NUMERIC(_, 8); anything finer would be rounded silently.
// Trailing zeros do not count.
func CheckScale(name string, d decimal.Decimal) error {
	if !d.Equal(d.Round(Scale)) {
		return fmt.Errorf("%w: %s %s has more than %d decimal places", ErrInvalidArgument, name, d.String(), Scale)
	}
	return nil
}

// Timestamps is the created/updated pair carried by mutable entities
type Timestamps struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch sets UpdatedAt (and CreatedAt on first call) to now
func (t *Timestamps) Touch(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

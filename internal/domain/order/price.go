package order

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Bounds on accepted price literals. Decimal comparison and formatting cost
// grows with the exponent, so wider values are rejected up front.
const (
	maxPriceDigits   = 64
	maxPriceExponent = 64
)

// DefaultMaxPrice is the inclusive upper bound used when none is configured.
var DefaultMaxPrice = decimal.NewFromInt(2000)

// PriceValidator checks price bounds and currency precision.
type PriceValidator struct {
	max decimal.Decimal
}

// NewPriceValidator creates a PriceValidator with an inclusive maximum.
func NewPriceValidator(max decimal.Decimal) *PriceValidator {
	return &PriceValidator{max: max}
}

// Max returns the configured inclusive maximum.
func (v *PriceValidator) Max() decimal.Decimal {
	return v.max
}

// Validate runs CheckRange and CheckPrecision and returns the price
// normalized to cur.Places fractional digits.
func (v *PriceValidator) Validate(price decimal.Decimal, cur Currency) (decimal.Decimal, error) {
	if err := v.CheckRange(price); err != nil {
		return decimal.Decimal{}, err
	}
	return v.CheckPrecision(price, cur)
}

// CheckRange rejects negative prices and prices above the maximum. It does
// not depend on the currency.
func (v *PriceValidator) CheckRange(price decimal.Decimal) error {
	if price.IsNegative() {
		return &PriceError{Price: priceText(price), Reason: "price must not be negative"}
	}
	if e := price.Exponent(); e > maxPriceExponent || e < -maxPriceExponent {
		return &PriceError{Price: priceText(price), Reason: "price is out of range"}
	}
	if price.GreaterThan(v.max) {
		return &PriceError{Price: priceText(price), Reason: fmt.Sprintf("price is over %s", v.max)}
	}
	return nil
}

// CheckPrecision rejects prices with more significant fractional digits than
// cur allows. Trailing fractional zeros are not significant.
func (v *PriceValidator) CheckPrecision(price decimal.Decimal, cur Currency) (decimal.Decimal, error) {
	if n := decimalPlaces(price); n > cur.Places {
		return decimal.Decimal{}, &PriceError{
			Price:  priceText(price),
			Reason: fmt.Sprintf("%s allows %d decimal places, got %d", cur.Code, cur.Places, n),
		}
	}
	// Only zero digits are dropped, so this rescales without rounding.
	return price.Round(cur.Places), nil
}

// decimalPlaces counts significant fractional digits of d.
func decimalPlaces(d decimal.Decimal) int32 {
	if d.IsZero() {
		return 0
	}
	// String drops trailing zeros, so its exponent is minimal.
	normalized, err := decimal.NewFromString(d.String())
	if err != nil {
		return -d.Exponent()
	}
	if exp := normalized.Exponent(); exp < 0 {
		return -exp
	}
	return 0
}

// priceText renders d for error messages without expanding large exponents.
func priceText(d decimal.Decimal) string {
	if e := d.Exponent(); e > maxPriceExponent || e < -maxPriceExponent {
		return fmt.Sprintf("%de%d", d.Coefficient(), e)
	}
	return d.String()
}

package order

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Field names of the order payload.
const (
	FieldName     = "name"
	FieldPrice    = "price"
	FieldCurrency = "currency"
)

// fields lists the required payload keys in the order they are reported
// when missing.
var fields = [...]struct {
	name string
	typ  jx.Type
}{
	{FieldName, jx.String},
	{FieldPrice, jx.Number},
	{FieldCurrency, jx.String},
}

// StructureValidator checks that a payload is a JSON object carrying exactly
// the required keys with the expected primitive types.
type StructureValidator struct{}

// Validate decodes data into an Order without interpreting field values. The
// price is parsed from its JSON literal, so no precision is lost to float64.
func (StructureValidator) Validate(data []byte) (*Order, error) {
	if len(data) == 0 {
		return nil, &StructureError{Reason: "empty body"}
	}
	if !jx.Valid(data) {
		return nil, &StructureError{Reason: "body is not valid JSON"}
	}

	d := jx.DecodeBytes(data)
	if tt := d.Next(); tt != jx.Object {
		return nil, &StructureError{Reason: fmt.Sprintf("expected object, got %s", tt)}
	}

	var (
		o    Order
		seen [len(fields)]bool
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		idx := fieldIndex(key)
		if idx < 0 {
			return &StructureError{Field: key, Reason: "unknown field"}
		}
		if seen[idx] {
			return &StructureError{Field: key, Reason: "duplicate field"}
		}
		seen[idx] = true

		want := fields[idx].typ
		if got := d.Next(); got != want {
			return &StructureError{Field: key, Reason: fmt.Sprintf("expected %s, got %s", want, got)}
		}
		return decodeField(d, key, &o)
	})
	if err != nil {
		var se *StructureError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, &StructureError{Reason: err.Error()}
	}

	for i, f := range fields {
		if !seen[i] {
			return nil, &StructureError{Field: f.name, Reason: "missing field"}
		}
	}
	return &o, nil
}

func fieldIndex(key string) int {
	for i, f := range fields {
		if f.name == key {
			return i
		}
	}
	return -1
}

func decodeField(d *jx.Decoder, key string, o *Order) error {
	switch key {
	case FieldName:
		v, err := d.Str()
		if err != nil {
			return errors.Wrap(err, "decode name")
		}
		o.Name = v
	case FieldPrice:
		num, err := d.Num()
		if err != nil {
			return errors.Wrap(err, "decode price")
		}
		lit := num.String()
		o.priceLiteral = shortLiteral(lit)
		if !numberInRange(lit) {
			if !isNegativeLiteral(lit) {
				return &StructureError{Field: key, Reason: "number out of range"}
			}
			// Any negative price is rejected on its sign alone.
			o.Price = decimal.NewFromInt(-1)
			return nil
		}
		price, err := decimal.NewFromString(lit)
		if err != nil {
			return &StructureError{Field: key, Reason: "number out of range"}
		}
		o.Price = price
	case FieldCurrency:
		v, err := d.Str()
		if err != nil {
			return errors.Wrap(err, "decode currency")
		}
		o.Currency = Currency{Code: v}
	}
	return nil
}

// numberInRange reports whether a JSON number literal has at most
// maxPriceDigits mantissa digits and an exponent within maxPriceExponent.
// Larger literals are rejected before decimal arithmetic can expand them.
func numberInRange(lit string) bool {
	mantissa, exp := lit, ""
	if i := strings.IndexAny(lit, "eE"); i >= 0 {
		mantissa, exp = lit[:i], lit[i+1:]
	}

	digits := 0
	for i := 0; i < len(mantissa); i++ {
		if c := mantissa[i]; '0' <= c && c <= '9' {
			digits++
		}
	}
	if digits > maxPriceDigits {
		return false
	}
	if exp == "" {
		return true
	}

	exp = strings.TrimLeft(strings.TrimLeft(exp, "+-"), "0")
	if exp == "" {
		return true
	}
	if len(exp) > 3 {
		return false
	}
	n, err := strconv.Atoi(exp)
	return err == nil && n <= maxPriceExponent
}

func isNegativeLiteral(lit string) bool {
	if !strings.HasPrefix(lit, "-") {
		return false
	}
	mantissa, _, _ := strings.Cut(strings.ToLower(lit), "e")
	return strings.ContainsAny(mantissa, "123456789")
}

const maxLiteralText = 32

func shortLiteral(lit string) string {
	if len(lit) <= maxLiteralText {
		return lit
	}
	return lit[:maxLiteralText] + "..."
}

package order

import "github.com/go-faster/jx"

// Encode writes the canonical JSON form of o. Keys are emitted in a fixed
// order and the price keeps exactly the currency's decimal places.
func (o *Order) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field(FieldName, func(e *jx.Encoder) { e.Str(o.Name) })
		e.Field(FieldPrice, func(e *jx.Encoder) { e.RawStr(o.PriceString()) })
		e.Field(FieldCurrency, func(e *jx.Encoder) { e.Str(o.Currency.Code) })
	})
}

// MarshalJSON implements json.Marshaler.
func (o *Order) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	o.Encode(&e)
	return e.Bytes(), nil
}

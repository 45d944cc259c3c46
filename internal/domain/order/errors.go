package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Kind classifies a rejection.
type Kind string

const (
	KindStructure Kind = "structure"
	KindName      Kind = "name"
	KindPrice     Kind = "price"
	KindCurrency  Kind = "currency"
)

// Detail is implemented by every rejection error. Errors that do not
// implement Detail are infrastructure failures, not rejections.
type Detail interface {
	error
	Kind() Kind
	Message() string
}

var (
	_ Detail = (*StructureError)(nil)
	_ Detail = (*NameError)(nil)
	_ Detail = (*PriceError)(nil)
	_ Detail = (*CurrencyError)(nil)
)

// AsDetail reports whether err carries a rejection detail.
func AsDetail(err error) (Detail, bool) {
	var d Detail
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// StructureError indicates a malformed payload: bad JSON, wrong top-level
// type, missing, unknown or mistyped keys.
type StructureError struct {
	Field  string
	Reason string
}

func (e *StructureError) Kind() Kind { return KindStructure }

func (e *StructureError) Message() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *StructureError) Error() string {
	return "invalid structure: " + e.Message()
}

// NameError indicates a name that is not capitalized English.
type NameError struct {
	Name   string
	Reason string
}

func (e *NameError) Kind() Kind      { return KindName }
func (e *NameError) Message() string { return e.Reason }

func (e *NameError) Error() string {
	return fmt.Sprintf("invalid name %q: %s", e.Name, e.Reason)
}

// PriceError indicates a negative, over-limit, or over-precise price.
type PriceError struct {
	Price  string
	Reason string
}

func (e *PriceError) Kind() Kind      { return KindPrice }
func (e *PriceError) Message() string { return e.Reason }

func (e *PriceError) Error() string {
	return fmt.Sprintf("invalid price %s: %s", e.Price, e.Reason)
}

// CurrencyError indicates a currency code outside the allowed set.
type CurrencyError struct {
	Code    string
	Allowed []string
}

func (e *CurrencyError) Kind() Kind { return KindCurrency }

func (e *CurrencyError) Message() string {
	return fmt.Sprintf("currency %q is not supported, allowed: %v", e.Code, e.Allowed)
}

func (e *CurrencyError) Error() string {
	return "invalid currency: " + e.Message()
}

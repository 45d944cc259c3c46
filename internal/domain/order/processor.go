package order

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// RawValidator turns a raw payload into an Order, rejecting malformed input.
type RawValidator interface {
	Validate(data []byte) (*Order, error)
}

// Stage is one validation or transformation step. Apply may rewrite o in
// place; a returned Detail rejects the order.
type Stage interface {
	Name() string
	Apply(o *Order) error
}

// Outcome is the terminal state of processing one payload: exactly one of
// Order (accepted) and Rejection is set.
type Outcome struct {
	Order     *Order
	Rejection Detail
}

// Accepted reports whether the payload produced a canonical order.
func (o Outcome) Accepted() bool { return o.Rejection == nil }

// Processor runs a RawValidator followed by an ordered chain of stages,
// stopping at the first failure.
type Processor struct {
	structure RawValidator
	stages    []Stage
}

// NewProcessor creates a Processor running stages in the given order.
func NewProcessor(structure RawValidator, stages ...Stage) *Processor {
	return &Processor{structure: structure, stages: stages}
}

// Stages returns the stage names in execution order.
func (p *Processor) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Process validates and canonicalizes one payload. Rejections implement
// Detail; any other error is an internal failure.
func (p *Processor) Process(data []byte) (*Order, error) {
	o, err := p.structure.Validate(data)
	if err != nil {
		return nil, err
	}
	for _, s := range p.stages {
		if err := s.Apply(o); err != nil {
			if _, ok := AsDetail(err); ok {
				return nil, err
			}
			return nil, errors.Wrapf(err, "stage %s", s.Name())
		}
	}
	return o, nil
}

// Evaluate is Process with rejections folded into the Outcome. The returned
// error is non-nil only for internal failures.
func (p *Processor) Evaluate(data []byte) (Outcome, error) {
	o, err := p.Process(data)
	if err != nil {
		if d, ok := AsDetail(err); ok {
			return Outcome{Rejection: d}, nil
		}
		return Outcome{}, err
	}
	return Outcome{Order: o}, nil
}

// Config describes the standard processing chain.
type Config struct {
	Rules    Rules
	MaxPrice decimal.Decimal
	// Converter is optional; nil disables currency conversion.
	Converter *Converter
}

// NewPipeline builds the standard chain: price range, currency, price
// precision, name and, when configured, conversion. The range check runs
// first so a negative price is reported regardless of the other fields.
func NewPipeline(cfg Config) (*Processor, error) {
	if len(cfg.Rules) == 0 {
		return nil, errors.New("no currency rules")
	}
	if cfg.MaxPrice.IsNegative() {
		return nil, errors.Errorf("max price %s is negative", cfg.MaxPrice)
	}

	prices := NewPriceValidator(cfg.MaxPrice)
	stages := []Stage{
		PriceRangeStage(prices),
		CurrencyStage(NewCurrencyValidator(cfg.Rules)),
		PricePrecisionStage(prices),
		NameStage(NameValidator{}),
	}
	if cfg.Converter != nil {
		stages = append(stages, ConversionStage(cfg.Converter))
	}
	return NewProcessor(StructureValidator{}, stages...), nil
}

type stageFunc struct {
	name  string
	apply func(o *Order) error
}

func (s stageFunc) Name() string         { return s.name }
func (s stageFunc) Apply(o *Order) error { return s.apply(o) }

// PriceRangeStage rejects negative and over-limit prices.
func PriceRangeStage(v *PriceValidator) Stage {
	return stageFunc{name: "price_range", apply: func(o *Order) error {
		return withPriceLiteral(o, v.CheckRange(o.Price))
	}}
}

// withPriceLiteral reports price errors with the price as submitted.
func withPriceLiteral(o *Order, err error) error {
	var pe *PriceError
	if o.priceLiteral != "" && errors.As(err, &pe) {
		pe.Price = o.priceLiteral
	}
	return err
}

// CurrencyStage resolves the order currency and its decimal-place rule.
func CurrencyStage(v *CurrencyValidator) Stage {
	return stageFunc{name: "currency", apply: func(o *Order) error {
		cur, err := v.Validate(o.Currency.Code)
		if err != nil {
			return err
		}
		o.Currency = cur
		return nil
	}}
}

// PricePrecisionStage checks the price against the resolved currency and
// normalizes it to the currency precision. It must run after CurrencyStage.
func PricePrecisionStage(v *PriceValidator) Stage {
	return stageFunc{name: "price_precision", apply: func(o *Order) error {
		price, err := v.CheckPrecision(o.Price, o.Currency)
		if err != nil {
			return withPriceLiteral(o, err)
		}
		o.Price = price
		return nil
	}}
}

// NameStage validates and normalizes the guest name.
func NameStage(v NameValidator) Stage {
	return stageFunc{name: "name", apply: func(o *Order) error {
		name, err := v.Validate(o.Name)
		if err != nil {
			return err
		}
		o.Name = name
		return nil
	}}
}

// ConversionStage settles the order into the converter's target currency.
func ConversionStage(c *Converter) Stage {
	return stageFunc{name: "conversion", apply: func(o *Order) error {
		c.Convert(o)
		return nil
	}}
}

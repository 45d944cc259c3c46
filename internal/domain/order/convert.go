package order

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Converter settles accepted orders into a single target currency using
// fixed exchange rates.
type Converter struct {
	target Currency
	rates  map[string]decimal.Decimal
}

// NewConverter builds a Converter from "CODE:rate" pairs. Both the target and
// every source code must be present in rules.
func NewConverter(rules Rules, target string, pairs []string) (*Converter, error) {
	places, ok := rules[target]
	if !ok {
		return nil, errors.Errorf("conversion target %q is not an allowed currency", target)
	}
	c := &Converter{
		target: Currency{Code: target, Places: places},
		rates:  make(map[string]decimal.Decimal, len(pairs)),
	}
	for _, pair := range pairs {
		code, v, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			return nil, errors.Errorf("conversion rate %q: want CODE:rate", pair)
		}
		if _, ok := rules[code]; !ok {
			return nil, errors.Errorf("conversion rate %q: currency is not allowed", pair)
		}
		if code == target {
			return nil, errors.Errorf("conversion rate %q: source equals target", pair)
		}
		rate, err := decimal.NewFromString(v)
		if err != nil {
			return nil, errors.Wrapf(err, "conversion rate %q", pair)
		}
		if !rate.IsPositive() {
			return nil, errors.Errorf("conversion rate %q: must be positive", pair)
		}
		c.rates[code] = rate
	}
	return c, nil
}

// Target returns the settlement currency.
func (c *Converter) Target() Currency {
	return c.target
}

// Convert rewrites o into the target currency. Orders in currencies without a
// configured rate are left unchanged.
func (c *Converter) Convert(o *Order) {
	rate, ok := c.rates[o.Currency.Code]
	if !ok {
		return
	}
	o.Price = o.Price.Mul(rate).Round(c.target.Places)
	o.Currency = c.target
}

package order

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Order is an order flowing through the pipeline. After a successful
// Process call it is canonical: Name is normalized and Price carries exactly
// Currency.Places fractional digits.
type Order struct {
	Name     string
	Price    decimal.Decimal
	Currency Currency

	// priceLiteral is the submitted price as written, shortened for
	// error messages.
	priceLiteral string
}

// Currency is a currency code together with its decimal-place rule. Places is
// only meaningful once the currency stage has resolved the code.
type Currency struct {
	Code   string
	Places int32
}

// PriceString renders the price with the currency's fixed precision.
func (o *Order) PriceString() string {
	return o.Price.StringFixed(o.Currency.Places)
}

// Rules maps a currency code to its allowed number of decimal places.
type Rules map[string]int32

// DefaultRules returns the built-in currency rules.
func DefaultRules() Rules {
	return Rules{
		"TWD": 0,
		"USD": 2,
	}
}

// ParseRules parses "CODE:places" pairs, e.g. []string{"TWD:0", "USD:2"}.
func ParseRules(pairs []string) (Rules, error) {
	rules := make(Rules, len(pairs))
	for _, pair := range pairs {
		code, v, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || code == "" {
			return nil, errors.Errorf("currency rule %q: want CODE:places", pair)
		}
		places, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "currency rule %q", pair)
		}
		if places < 0 {
			return nil, errors.Errorf("currency rule %q: negative places", pair)
		}
		if _, dup := rules[code]; dup {
			return nil, errors.Errorf("currency rule %q: duplicate code", pair)
		}
		rules[code] = int32(places)
	}
	if len(rules) == 0 {
		return nil, errors.New("no currency rules")
	}
	return rules, nil
}

// Codes returns the configured currency codes in lexical order.
func (r Rules) Codes() []string {
	return slices.Sorted(maps.Keys(r))
}

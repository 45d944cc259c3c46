package order

// CurrencyValidator accepts only configured currency codes.
type CurrencyValidator struct {
	rules Rules
	codes []string
}

// NewCurrencyValidator creates a CurrencyValidator over the given rules.
func NewCurrencyValidator(rules Rules) *CurrencyValidator {
	return &CurrencyValidator{rules: rules, codes: rules.Codes()}
}

// Validate resolves code to its Currency rule. Matching is case-sensitive.
func (v *CurrencyValidator) Validate(code string) (Currency, error) {
	places, ok := v.rules[code]
	if !ok {
		return Currency{}, &CurrencyError{Code: code, Allowed: v.codes}
	}
	return Currency{Code: code, Places: places}, nil
}

// Codes returns the accepted currency codes.
func (v *CurrencyValidator) Codes() []string {
	return v.codes
}

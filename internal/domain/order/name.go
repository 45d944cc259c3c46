package order

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NameValidator accepts guest names made of title-cased English words
// separated by single spaces.
//
// Input is NFKD-normalized first, so compatibility forms such as full-width
// letters are folded to ASCII; accented letters decompose into a base letter
// plus a combining mark and are rejected.
type NameValidator struct{}

// Validate returns the normalized name.
func (NameValidator) Validate(name string) (string, error) {
	normalized := norm.NFKD.String(name)
	if normalized == "" {
		return "", &NameError{Name: name, Reason: "name is empty"}
	}
	for i := 0; i < len(normalized); i++ {
		if c := normalized[i]; !isLetter(c) && c != ' ' {
			return "", &NameError{Name: name, Reason: "name contains non-English characters"}
		}
	}

	words := strings.Split(normalized, " ")
	for _, w := range words {
		if w == "" {
			return "", &NameError{Name: name, Reason: "name has leading, trailing or repeated spaces"}
		}
		if !isTitle(w) {
			return "", &NameError{Name: name, Reason: "name is not capitalized"}
		}
	}
	return normalized, nil
}

func isLetter(c byte) bool {
	return isUpper(c) || isLower(c)
}

func isUpper(c byte) bool { return 'A' <= c && c <= 'Z' }
func isLower(c byte) bool { return 'a' <= c && c <= 'z' }

// isTitle reports whether w is one uppercase letter followed by lowercase ones.
func isTitle(w string) bool {
	if !isUpper(w[0]) {
		return false
	}
	for i := 1; i < len(w); i++ {
		if !isLower(w[i]) {
			return false
		}
	}
	return true
}

package normalize

import (
	"strings"
)

// CompanyNumber normalizes a company registration number for matching:
// trim, uppercase, and strip spaces, hyphens and parentheses. Leading
// zeros are significant in Companies House numbers and are preserved.
func CompanyNumber(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	var b strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '\t', '-', '(', ')':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NameKey normalizes a proprietor name for case-insensitive matching.
func NameKey(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// AddressKey normalizes a property address or postcode for
// case-insensitive substring matching.
func AddressKey(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

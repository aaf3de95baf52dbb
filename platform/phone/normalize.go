// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "NL"

// Region returns the upper-cased region when libphonenumber knows it,
// DefaultRegion otherwise.
func Region(region string) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if phonenumbers.GetSupportedRegions()[region] {
		return region
	}
	return DefaultRegion
}

// NormalizeE164 formats a phone number to E.164, reading numbers without a
// country prefix in region. If parsing fails, it returns the input with
// whitespace and common separators removed so equal numbers still compare equal.
func NormalizeE164(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, Region(region))
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return stripSeparators(trimmed)
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')', '\t':
			return -1
		}
		return r
	}, s)
}

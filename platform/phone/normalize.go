// Package phone provides phone number utilities.
package phone

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers written without a country prefix.
const DefaultRegion = "US"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	normalized, ok := TryNormalizeE164(input, DefaultRegion)
	if !ok {
		return strings.TrimSpace(input)
	}
	return normalized
}

// TryNormalizeE164 parses input using region as the default country and
// reports whether it is a valid number.
func TryNormalizeE164(input, region string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", false
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return "", false
	}
	return phonenumbers.Format(number, phonenumbers.E164), true
}

// Digits strips everything except digits. It is the fallback comparison key
// for numbers that fail to parse.
func Digits(input string) string {
	var b strings.Builder
	for _, r := range input {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchKey returns the value used to compare two phone numbers.
func MatchKey(input string) string {
	if normalized, ok := TryNormalizeE164(input, DefaultRegion); ok {
		return normalized
	}
	return Digits(input)
}

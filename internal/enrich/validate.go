package enrich

import (
	"regexp"
	"strings"
)

// emailShapeRe is a strict shape check applied after normalization. Anything
// that fails it is silently discarded, never surfaced as an error.
var emailShapeRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail reports whether s has a plausible email shape.
func IsValidEmail(s string) bool {
	return emailShapeRe.MatchString(s)
}

// IsValidURL reports whether s is an absolute http(s) URL.
func IsValidURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// isoCountryCodes is the fixed set of accepted ISO 3166-1 alpha-2 codes.
// Codes outside this set are rejected regardless of pattern confidence.
var isoCountryCodes = map[string]struct{}{
	"US": {}, "GB": {}, "CA": {}, "AU": {}, "DE": {}, "FR": {}, "IT": {}, "ES": {}, "NL": {}, "BE": {},
	"CH": {}, "AT": {}, "SE": {}, "NO": {}, "DK": {}, "FI": {}, "PL": {}, "CZ": {}, "RU": {}, "JP": {},
	"CN": {}, "IN": {}, "BR": {}, "MX": {}, "ZA": {}, "NZ": {}, "SG": {}, "HK": {}, "KR": {}, "TH": {},
}

// IsValidCountryCode reports whether code is an accepted ISO 3166-1 alpha-2
// country code.
func IsValidCountryCode(code string) bool {
	_, ok := isoCountryCodes[strings.ToUpper(code)]
	return ok
}

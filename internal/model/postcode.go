package model

import "strings"

// NormalizePostcode upper-cases a postcode, trims it, and collapses any run of
// internal whitespace to a single space ("sw1a  1aa " -> "SW1A 1AA").
func NormalizePostcode(postcode string) string {
	return strings.Join(strings.Fields(strings.ToUpper(postcode)), " ")
}

// PostcodeKey returns the compact form used for keying: upper-case with all
// whitespace removed ("SW1A 1AA" -> "SW1A1AA").
func PostcodeKey(postcode string) string {
	return strings.Join(strings.Fields(strings.ToUpper(postcode)), "")
}

// OutwardCode returns the outward half of a postcode ("SW9 8JH" -> "SW9").
// When the postcode has no space the last three characters (the inward code)
// are dropped.
func OutwardCode(postcode string) string {
	norm := NormalizePostcode(postcode)
	if i := strings.IndexByte(norm, ' '); i > 0 {
		return norm[:i]
	}
	if len(norm) > 3 {
		return norm[:len(norm)-3]
	}
	return norm
}

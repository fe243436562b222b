package model

import "strings"

const epcGrades = "GFEDCBA"

// ValidEPCRating reports whether s is a letter grade A-G or "N/A".
func ValidEPCRating(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s == EPCNotAvailable || EPCOrdinal(s) > 0
}

// EPCOrdinal maps a letter grade to its ordinal, A=7 down to G=1. Anything
// else maps to 0.
func EPCOrdinal(rating string) int {
	r := strings.ToUpper(strings.TrimSpace(rating))
	if len(r) != 1 {
		return 0
	}
	return strings.IndexByte(epcGrades, r[0]) + 1
}

// EPCGrade is the inverse of EPCOrdinal. Ordinals outside 1..7 give
// EPCNotAvailable.
func EPCGrade(ordinal int) string {
	if ordinal < 1 || ordinal > len(epcGrades) {
		return EPCNotAvailable
	}
	return epcGrades[ordinal-1 : ordinal]
}

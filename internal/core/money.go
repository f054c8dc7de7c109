// Package core defines the record model shared by the store adapters, the
// aggregation engine and the HTTP boundary.
//
// Amounts are whole currency units (the domain currency has no fractional
// unit), held as int64 to keep sums exact.
package core

import (
	"strconv"
	"strings"
)

// ParseAmount coerces a free-form amount string to a non-negative whole
// amount. Unparseable or negative input yields 0 rather than an error: the
// aggregation path must always produce a complete snapshot, so malformed
// numeric fields are absorbed at the boundary.
func ParseAmount(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	// Tolerate thousands separators from pasted display values.
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// ParseQuantity coerces a quantity string, defaulting to 1 for anything
// unusable. Quantities below 1 never occur in well-formed records.
func ParseQuantity(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 1 {
		return 1
	}
	return v
}

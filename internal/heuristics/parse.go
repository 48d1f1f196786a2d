package heuristics

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Upstream data is partial by nature: Bitquery rows routinely arrive with
// empty block times or amounts that never parsed. Every parse step returns an
// explicit ok flag and callers skip the affected row; nothing in this package
// ever aborts a batch over one malformed record.

// blockTimeLayouts covers the ISO-8601 shapes Bitquery emits.
var blockTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseBlockTime parses an ISO-8601 block time. Returns ok=false for empty
// or malformed input; the row is then invalid for all time-based logic.
func parseBlockTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range blockTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseOptionalValue parses a native-unit decimal string. An empty string is
// a valid absent value (0, ok); a non-empty unparseable string is a skip
// signal (0, !ok). Zero behaves as absent downstream either way.
func parseOptionalValue(s string) (float64, bool) {
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseFeeNative converts a smallest-unit fee string to a native-unit float.
// The exponent shift is exact; Div would round away sub-precision amounts.
// Unparseable fees are skipped, never zeroed.
func parseFeeNative(fee string) (float64, bool) {
	if fee == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(fee)
	if err != nil {
		return 0, false
	}
	f, _ := d.Shift(-18).Float64()
	return f, true
}

// equalAddress compares two hex addresses case-insensitively. Addresses are
// always matched this way; upstream checksum casing is not trusted.
func equalAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

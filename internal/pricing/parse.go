package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SkipReason explains why a raw value produced no snapshot. It is a result
// variant, not an error: callers ignore it by default and may count
// occurrences for run summaries.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipEmpty
	SkipNotANumber
	SkipNonPositive
	SkipMissingKey
	SkipNoCandidate
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipEmpty:
		return "empty"
	case SkipNotANumber:
		return "not_a_number"
	case SkipNonPositive:
		return "non_positive"
	case SkipMissingKey:
		return "missing_key"
	case SkipNoCandidate:
		return "no_candidate"
	default:
		return "unknown"
	}
}

// ParseCents extracts a positive minor-unit amount from a dirty vendor
// string. Currency symbols, thousands separators and whitespace are
// tolerated: everything except digits, one leading minus and a decimal
// point is stripped before parsing. Unparseable or non-positive input is a
// skip, never an error.
func ParseCents(raw string) (int64, SkipReason) {
	cleaned := stripNonNumeric(raw)
	if cleaned == "" || cleaned == "-" || cleaned == "." || cleaned == "-." {
		return 0, SkipEmpty
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, SkipNotANumber
	}
	cents := d.Mul(decimal.NewFromInt(100)).Round(0)
	if !cents.IsPositive() {
		return 0, SkipNonPositive
	}
	return cents.IntPart(), SkipNone
}

// stripNonNumeric keeps digits, the first decimal point and a minus sign
// only when it precedes any digit. "$1,234.56 USD" becomes "1234.56".
func stripNonNumeric(raw string) string {
	var b strings.Builder
	sawDigit := false
	sawDot := false
	sawMinus := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			sawDigit = true
		case r == '.' && !sawDot:
			b.WriteRune(r)
			sawDot = true
		case r == '-' && !sawMinus && !sawDigit:
			b.WriteRune(r)
			sawMinus = true
		}
	}
	return b.String()
}

// Package fx wraps the external currency-conversion collaborator. Rates are
// fetched by a separate job; this pipeline only consumes a pure conversion
// function.
package fx

import (
	"math"
	"strings"
)

// Converter converts a minor-unit amount between currencies. The boolean is
// false when no rate is known, in which case callers skip the row rather
// than guessing.
type Converter interface {
	Convert(amountCents int64, from, to string) (int64, bool)
}

// StaticConverter converts through a fixed rate table, keyed "FROM/TO".
// Used when rates are pinned by configuration and in tests.
type StaticConverter struct {
	rates map[string]float64
}

func NewStaticConverter(rates map[string]float64) *StaticConverter {
	normalized := make(map[string]float64, len(rates))
	for k, v := range rates {
		normalized[strings.ToUpper(k)] = v
	}
	return &StaticConverter{rates: normalized}
}

func (c *StaticConverter) Convert(amountCents int64, from, to string) (int64, bool) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return amountCents, true
	}
	rate, ok := c.rates[from+"/"+to]
	if !ok {
		return 0, false
	}
	return int64(math.Round(float64(amountCents) * rate)), true
}

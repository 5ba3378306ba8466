package pricing

import (
	"sort"
	"time"
)

// Selection strategies. priority-fallback is the only strategy implemented;
// a same-day exact-match strategy would carry a higher confidence and is a
// named extension point.
const (
	MethodPriorityFallback = "priority-fallback"

	ConfidencePriorityFallback = 60
)

// Candidate is one snapshot eligible for a day's reconciliation.
type Candidate struct {
	SnapshotID uint
	ItemID     string
	Source     Source
	PriceType  PriceType
	Condition  string
	Currency   string
	AsOfDate   time.Time
	ValueCents int64
}

// Selection is the outcome of reconciling one item for one day.
type Selection struct {
	ItemID     string
	Currency   string
	AsOfDate   time.Time
	ValueCents int64
	Confidence int
	Method     string
	// Sources holds the snapshot(s) that contributed. The current method
	// always yields exactly one; the slice leaves room for blended
	// strategies.
	Sources []Candidate
}

// Select picks the single authoritative value for targetDay from candidates.
// Callers must pre-filter candidates to the item and currency with
// asOfDate <= targetDay; future-dated observations are excluded here as a
// second line of defense since leaking one would corrupt carry-forward.
//
// Ranking, applied lexicographically: freshest asOfDate, then source
// priority, then price-type priority, then highest valueCents, then lowest
// snapshot ID. The ID tie-break covers re-ingested duplicates whose columns
// are otherwise equal, so the winner never depends on scan order.
func Select(itemID, currency string, targetDay time.Time, candidates []Candidate) (Selection, bool) {
	day := Day(targetDay)
	eligible := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ItemID != itemID || c.Currency != currency {
			continue
		}
		if Day(c.AsOfDate).After(day) {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return Selection{}, false
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		ad, bd := Day(a.AsOfDate), Day(b.AsOfDate)
		if !ad.Equal(bd) {
			return ad.After(bd)
		}
		if sa, sb := SourceRank(a.Source), SourceRank(b.Source); sa != sb {
			return sa < sb
		}
		if ta, tb := PriceTypeRank(a.PriceType), PriceTypeRank(b.PriceType); ta != tb {
			return ta < tb
		}
		if a.ValueCents != b.ValueCents {
			return a.ValueCents > b.ValueCents
		}
		return a.SnapshotID < b.SnapshotID
	})

	win := eligible[0]
	return Selection{
		ItemID:     itemID,
		Currency:   currency,
		AsOfDate:   day,
		ValueCents: win.ValueCents,
		Confidence: ConfidencePriorityFallback,
		Method:     MethodPriorityFallback,
		Sources:    []Candidate{win},
	}, true
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

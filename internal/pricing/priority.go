package pricing

// Source identifies the vendor feed an observation came from.
type Source string

const (
	SourceTCGPlayer     Source = "tcgplayer"
	SourceCardmarket    Source = "cardmarket"
	SourceCOMC          Source = "comc"
	SourcePriceCharting Source = "pricecharting"
	SourceEbay          Source = "ebay"
	SourceCardKingdom   Source = "cardkingdom"
)

// PriceType identifies the kind of observation a vendor column carries.
type PriceType string

const (
	PriceTypeMarket  PriceType = "market"
	PriceTypeTrend   PriceType = "trend"
	PriceTypeMid     PriceType = "mid"
	PriceTypeAvg7    PriceType = "avg7"
	PriceTypeAvg30   PriceType = "avg30"
	PriceTypeLow     PriceType = "low"
	PriceTypeHigh    PriceType = "high"
	PriceTypeLoose   PriceType = "loose"
	PriceTypeCIB     PriceType = "cib"
	PriceTypeNew     PriceType = "new"
	PriceTypeGraded  PriceType = "graded"
	PriceTypeFoil    PriceType = "foil"
	PriceTypeEtched  PriceType = "etched"
	PriceTypeTix     PriceType = "tix"
)

// PriorityVersion tags the ranking tables below. Bump when the ordering
// changes so materialized rows can be traced back to the ranking that
// produced them.
const PriorityVersion = 1

// sourceRank orders vendors from most to least authoritative. Lower wins.
var sourceRank = map[Source]int{
	SourceTCGPlayer:     0,
	SourceCardmarket:    1,
	SourceCOMC:          2,
	SourcePriceCharting: 3,
	SourceEbay:          4,
	SourceCardKingdom:   5,
}

// priceTypeRank prefers broad market signals over rolling averages, then
// condition buckets, then game-specific variants. Lower wins.
var priceTypeRank = map[PriceType]int{
	PriceTypeMarket: 0,
	PriceTypeTrend:  1,
	PriceTypeMid:    2,
	PriceTypeAvg7:   3,
	PriceTypeAvg30:  4,
	PriceTypeLow:    5,
	PriceTypeHigh:   6,
	PriceTypeLoose:  7,
	PriceTypeCIB:    8,
	PriceTypeNew:    9,
	PriceTypeGraded: 10,
	PriceTypeFoil:   11,
	PriceTypeEtched: 12,
	PriceTypeTix:    13,
}

const unknownRank = 1 << 20

// SourceRank returns the priority of a source. Unknown sources rank last.
func SourceRank(s Source) int {
	if r, ok := sourceRank[s]; ok {
		return r
	}
	return unknownRank
}

// PriceTypeRank returns the priority of a price type. Unknown types rank
// last, which keeps raw-column fallback observations from shadowing any
// recognized signal.
func PriceTypeRank(t PriceType) int {
	if r, ok := priceTypeRank[t]; ok {
		return r
	}
	return unknownRank
}

// KnownSources is the allow-list consulted wherever a source name enters a
// query. Alert rules and live price lookups must never pass user-supplied
// source strings through unchecked.
func KnownSources() []Source {
	return []Source{
		SourceTCGPlayer,
		SourceCardmarket,
		SourceCOMC,
		SourcePriceCharting,
		SourceEbay,
		SourceCardKingdom,
	}
}

// IsKnownSource reports whether s is on the allow-list.
func IsKnownSource(s Source) bool {
	_, ok := sourceRank[s]
	return ok
}

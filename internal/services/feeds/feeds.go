// Package feeds declares the vendor feeds the normalizer can ingest. Each
// feed is a typed mapping from the vendor's raw price columns to canonical
// price types, so adding a vendor is a registry entry, not new code paths.
package feeds

import (
	"fmt"

	"card-tracker/internal/pricing"
)

// Column maps one raw vendor column to a canonical price type, with an
// optional condition qualifier (e.g. a grading bucket).
type Column struct {
	Name      string
	Type      pricing.PriceType
	Condition string
}

// Feed describes one vendor source: where its rows land, how to join them
// to the catalog, and which columns carry prices.
type Feed struct {
	Source          pricing.Source
	Table           string
	KeyColumn       string
	UpdatedColumn   string
	DefaultCurrency string
	// Endpoint, when set, makes the feed HTTP-backed instead of
	// table-backed.
	Endpoint string
	Columns  []Column
}

var registry = map[pricing.Source]Feed{
	pricing.SourceTCGPlayer: {
		Source:          pricing.SourceTCGPlayer,
		Table:           "tcgplayer_prices",
		KeyColumn:       "item_id",
		UpdatedColumn:   "updated_at",
		DefaultCurrency: "USD",
		Columns: []Column{
			{Name: "market_price", Type: pricing.PriceTypeMarket},
			{Name: "mid_price", Type: pricing.PriceTypeMid},
			{Name: "low_price", Type: pricing.PriceTypeLow},
			{Name: "high_price", Type: pricing.PriceTypeHigh},
			{Name: "foil_market_price", Type: pricing.PriceTypeFoil},
			{Name: "etched_market_price", Type: pricing.PriceTypeEtched},
		},
	},
	pricing.SourceCardmarket: {
		Source:          pricing.SourceCardmarket,
		Table:           "cardmarket_prices",
		KeyColumn:       "item_id",
		UpdatedColumn:   "updated_at",
		DefaultCurrency: "EUR",
		Columns: []Column{
			{Name: "trend_price", Type: pricing.PriceTypeTrend},
			{Name: "avg7_price", Type: pricing.PriceTypeAvg7},
			{Name: "avg30_price", Type: pricing.PriceTypeAvg30},
			{Name: "low_price", Type: pricing.PriceTypeLow},
			{Name: "foil_trend_price", Type: pricing.PriceTypeFoil},
		},
	},
	pricing.SourceCOMC: {
		Source:          pricing.SourceCOMC,
		Table:           "comc_listings",
		KeyColumn:       "item_id",
		UpdatedColumn:   "listed_at",
		DefaultCurrency: "USD",
		Columns: []Column{
			{Name: "lowest_listing", Type: pricing.PriceTypeLow},
			{Name: "median_listing", Type: pricing.PriceTypeMid},
		},
	},
	pricing.SourcePriceCharting: {
		Source:          pricing.SourcePriceCharting,
		Table:           "pricecharting_prices",
		KeyColumn:       "item_id",
		UpdatedColumn:   "updated_at",
		DefaultCurrency: "USD",
		Columns: []Column{
			{Name: "loose_price", Type: pricing.PriceTypeLoose},
			{Name: "cib_price", Type: pricing.PriceTypeCIB},
			{Name: "new_price", Type: pricing.PriceTypeNew},
			{Name: "graded_price", Type: pricing.PriceTypeGraded, Condition: "Graded"},
			{Name: "manual_box_price", Type: pricing.PriceTypeCIB, Condition: "Manual & Box"},
		},
	},
	pricing.SourceEbay: {
		Source:          pricing.SourceEbay,
		Table:           "ebay_sold_listings",
		KeyColumn:       "item_id",
		UpdatedColumn:   "sold_at",
		DefaultCurrency: "USD",
		Columns: []Column{
			{Name: "avg_sold_price", Type: pricing.PriceTypeAvg7},
			{Name: "min_sold_price", Type: pricing.PriceTypeLow},
			{Name: "max_sold_price", Type: pricing.PriceTypeHigh},
		},
	},
	pricing.SourceCardKingdom: {
		Source:          pricing.SourceCardKingdom,
		Table:           "cardkingdom_prices",
		KeyColumn:       "item_id",
		UpdatedColumn:   "updated_at",
		DefaultCurrency: "USD",
		Columns: []Column{
			{Name: "retail_price", Type: pricing.PriceTypeNew},
			{Name: "foil_retail_price", Type: pricing.PriceTypeFoil},
		},
	},
}

// Lookup resolves a feed by source name.
func Lookup(source string) (Feed, error) {
	f, ok := registry[pricing.Source(source)]
	if !ok {
		return Feed{}, fmt.Errorf("unknown vendor source %q", source)
	}
	return f, nil
}

// All returns every registered feed, for the daemon's scheduled ingestion.
func All() []Feed {
	out := make([]Feed, 0, len(registry))
	for _, s := range pricing.KnownSources() {
		if f, ok := registry[s]; ok {
			out = append(out, f)
		}
	}
	return out
}

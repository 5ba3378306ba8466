package services

import (
	"context"
	"sort"
	"time"

	"card-tracker/internal/fx"
	"card-tracker/internal/models"
	"card-tracker/internal/pricing"

	"github.com/rs/zerolog"
)

// LatestValueReader is the valuation side's view of the daily value store.
type LatestValueReader interface {
	LatestMany(ctx context.Context, itemIDs []string, currency string) (map[string]models.DailyValue, error)
}

// HoldingReader loads a user's collection items.
type HoldingReader interface {
	ByOwner(ctx context.Context, ownerID uint) ([]models.CollectionItem, error)
}

// HoldingValuation is one holding joined to its latest price.
type HoldingValuation struct {
	Holding     models.CollectionItem `json:"holding"`
	HasPrice    bool                  `json:"has_price"`
	UnitCents   int64                 `json:"unit_cents"`
	MarketCents int64                 `json:"market_cents"`
	CostCents   int64                 `json:"cost_cents"`
	GainCents   int64                 `json:"gain_cents"`
	Currency    string                `json:"currency"`
	ValuedAt    time.Time             `json:"valued_at,omitempty"`
	PricedBy    string                `json:"priced_by,omitempty"`
}

// PortfolioValuation aggregates one owner's holdings.
type PortfolioValuation struct {
	OwnerID       uint               `json:"owner_id,omitempty"`
	Currency      string             `json:"currency"`
	Holdings      []HoldingValuation `json:"holdings"`
	MarketCents   int64              `json:"market_cents"`
	CostCents     int64              `json:"cost_cents"`
	GainCents     int64              `json:"gain_cents"`
	ROIPct        *float64           `json:"roi_pct,omitempty"`
	Top10SharePct float64            `json:"top10_share_pct"`
	Priced        int                `json:"priced"`
	Unpriced      int                `json:"unpriced"`
}

// Valuer joins holdings against the reconciled series. When an item has no
// materialized row it falls back to the freshest live observation, walking
// the source allow-list in priority order.
type Valuer struct {
	holdings     HoldingReader
	values       LatestValueReader
	observations ObservationReader
	convert      fx.Converter
	log          zerolog.Logger
}

func NewValuer(holdings HoldingReader, values LatestValueReader, observations ObservationReader, convert fx.Converter, log zerolog.Logger) *Valuer {
	return &Valuer{
		holdings:     holdings,
		values:       values,
		observations: observations,
		convert:      convert,
		log:          log,
	}
}

// Valuate values everything an owner holds, in the requested currency.
func (v *Valuer) Valuate(ctx context.Context, ownerID uint, currency string) (PortfolioValuation, error) {
	items, err := v.holdings.ByOwner(ctx, ownerID)
	if err != nil {
		return PortfolioValuation{}, err
	}
	p, err := v.ValuateHoldings(ctx, items, currency)
	if err != nil {
		return PortfolioValuation{}, err
	}
	p.OwnerID = ownerID
	return p, nil
}

// ValuateHoldings values an ad-hoc holdings set, the shape the batch query
// surface exposes to collaborators.
func (v *Valuer) ValuateHoldings(ctx context.Context, items []models.CollectionItem, currency string) (PortfolioValuation, error) {
	p := PortfolioValuation{Currency: currency}

	ids := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, it := range items {
		if !seen[it.ItemID] {
			seen[it.ItemID] = true
			ids = append(ids, it.ItemID)
		}
	}
	latest, err := v.values.LatestMany(ctx, ids, currency)
	if err != nil {
		return p, err
	}

	for _, it := range items {
		hv := v.valuateOne(ctx, it, currency, latest)
		if hv.HasPrice {
			p.Priced++
			p.MarketCents += hv.MarketCents
			p.CostCents += hv.CostCents
			p.GainCents += hv.GainCents
		} else {
			p.Unpriced++
		}
		p.Holdings = append(p.Holdings, hv)
	}

	if p.CostCents != 0 {
		roi := float64(p.GainCents) / float64(p.CostCents) * 100
		p.ROIPct = &roi
	}
	p.Top10SharePct = topShare(p.Holdings, 10, p.MarketCents)
	return p, nil
}

func (v *Valuer) valuateOne(ctx context.Context, it models.CollectionItem, currency string, latest map[string]models.DailyValue) HoldingValuation {
	hv := HoldingValuation{Holding: it, Currency: currency}

	var unit int64
	if dv, ok := latest[it.ItemID]; ok {
		unit = dv.ValueCents
		hv.ValuedAt = dv.AsOfDate
		hv.PricedBy = dv.Method
		hv.HasPrice = true
	} else if obs := v.liveFallback(ctx, it.ItemID, currency); obs != nil {
		unit = obs.ValueCents
		hv.ValuedAt = pricing.Day(obs.AsOfDate)
		hv.PricedBy = "live:" + string(obs.Source)
		hv.HasPrice = true
	}
	if !hv.HasPrice {
		return hv
	}

	cost := it.CostBasisCents
	if it.Currency != "" && it.Currency != currency {
		converted, ok := v.convert.Convert(cost, it.Currency, currency)
		if !ok {
			// No rate: value the position but leave cost out rather
			// than mixing currencies.
			v.log.Warn().
				Str("item_id", it.ItemID).
				Str("from", it.Currency).Str("to", currency).
				Msg("no conversion rate for cost basis")
			cost = 0
		} else {
			cost = converted
		}
	}

	hv.UnitCents = unit
	hv.MarketCents = unit * int64(it.Quantity)
	hv.CostCents = cost
	hv.GainCents = hv.MarketCents - hv.CostCents
	return hv
}

// liveFallback walks the allow-list in priority order for a usable
// same-currency observation.
func (v *Valuer) liveFallback(ctx context.Context, itemID, currency string) *pricing.Candidate {
	for _, source := range pricing.KnownSources() {
		obs, err := v.observations.LatestObservation(ctx, itemID, source)
		if err != nil {
			v.log.Warn().Err(err).
				Str("item_id", itemID).
				Str("source", string(source)).
				Msg("live price lookup failed")
			continue
		}
		if obs != nil && obs.Currency == currency {
			return obs
		}
	}
	return nil
}

func topShare(holdings []HoldingValuation, n int, totalCents int64) float64 {
	if totalCents <= 0 {
		return 0
	}
	values := make([]int64, 0, len(holdings))
	for _, h := range holdings {
		if h.HasPrice {
			values = append(values, h.MarketCents)
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] > values[j] })
	if len(values) > n {
		values = values[:n]
	}
	var top int64
	for _, v := range values {
		top += v
	}
	return float64(top) / float64(totalCents) * 100
}

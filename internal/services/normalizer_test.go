package services

import (
	"context"
	"testing"
	"time"

	"card-tracker/internal/models"
	"card-tracker/internal/pricing"
	"card-tracker/internal/services/feeds"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFeed = feeds.Feed{
	Source:          pricing.SourceTCGPlayer,
	Table:           "tcgplayer_prices",
	KeyColumn:       "item_id",
	UpdatedColumn:   "updated_at",
	DefaultCurrency: "USD",
	Columns: []feeds.Column{
		{Name: "market_price", Type: pricing.PriceTypeMarket},
		{Name: "foil_market_price", Type: pricing.PriceTypeFoil},
	},
}

func TestNormalizeRowTolerantParsing(t *testing.T) {
	row := feeds.RawRow{
		"item_id":           "card-123",
		"updated_at":        "2025-05-02 09:30:00",
		"market_price":      "$12.34",
		"foil_market_price": "N/A",
	}
	snaps, skips := NormalizeRow(testFeed, row, day("2025-05-04"))

	require.Len(t, snaps, 1)
	s := snaps[0]
	assert.Equal(t, "card-123", s.ItemID)
	assert.Equal(t, "tcgplayer", s.Source)
	assert.Equal(t, "market", s.PriceType)
	assert.Equal(t, int64(1234), s.ValueCents)
	assert.Equal(t, "USD", s.Currency)
	assert.Equal(t, day("2025-05-02"), s.AsOfDate, "as-of comes from the vendor timestamp, not ingestion")
	assert.Contains(t, s.RawProvenance, "market_price")

	require.Len(t, skips, 1)
	assert.Equal(t, pricing.SkipEmpty, skips[0])
}

func TestNormalizeRowDefaultsToIngestDate(t *testing.T) {
	row := feeds.RawRow{
		"item_id":      "card-123",
		"market_price": "3.00",
	}
	snaps, _ := NormalizeRow(testFeed, row, day("2025-05-04"))
	require.Len(t, snaps, 1)
	assert.Equal(t, day("2025-05-04"), snaps[0].AsOfDate)
}

func TestNormalizeRowMissingKeyYieldsNothing(t *testing.T) {
	row := feeds.RawRow{"market_price": "3.00"}
	snaps, skips := NormalizeRow(testFeed, row, day("2025-05-04"))
	assert.Empty(t, snaps)
	require.Len(t, skips, 1)
	assert.Equal(t, pricing.SkipMissingKey, skips[0])
}

func TestNormalizeRowExcludesZeroAndNegative(t *testing.T) {
	row := feeds.RawRow{
		"item_id":           "card-123",
		"market_price":      "0.00",
		"foil_market_price": "-2.50",
	}
	snaps, skips := NormalizeRow(testFeed, row, day("2025-05-04"))
	assert.Empty(t, snaps, "a price is never zero or negative; absence is omission")
	assert.Len(t, skips, 2)
}

type fakeRowSource struct {
	rows []feeds.RawRow
}

func (f *fakeRowSource) Rows(context.Context, feeds.Feed) ([]feeds.RawRow, error) {
	return f.rows, nil
}

type recordingAppender struct {
	inserted []models.PriceSnapshot
}

func (r *recordingAppender) Insert(_ context.Context, rows []models.PriceSnapshot) error {
	r.inserted = append(r.inserted, rows...)
	return nil
}

func TestNormalizerRunSummarizes(t *testing.T) {
	rows := &fakeRowSource{rows: []feeds.RawRow{
		{"item_id": "card-1", "market_price": "$5.00", "foil_market_price": "$9.99"},
		{"item_id": "card-2", "market_price": ""},
		{"market_price": "$1.00"}, // no join key
	}}
	sink := &recordingAppender{}

	summary, err := NewNormalizer(rows, sink, zerolog.Nop()).
		Run(context.Background(), testFeed, day("2025-05-04"))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 2, summary.Snapshots)
	assert.Equal(t, 1, summary.SkippedRows)
	assert.Len(t, sink.inserted, 2)
}

func TestNormalizerDriverValueShapes(t *testing.T) {
	// MySQL hands back []byte and time.Time; JSON feeds hand back float64.
	row := feeds.RawRow{
		"item_id":           []byte("card-9"),
		"updated_at":        time.Date(2025, 5, 1, 23, 0, 0, 0, time.UTC),
		"market_price":      []byte("7.25"),
		"foil_market_price": 19.5,
	}
	snaps, _ := NormalizeRow(testFeed, row, day("2025-05-04"))
	require.Len(t, snaps, 2)
	assert.Equal(t, int64(725), snaps[0].ValueCents)
	assert.Equal(t, int64(1950), snaps[1].ValueCents)
	assert.Equal(t, day("2025-05-01"), snaps[0].AsOfDate)
}

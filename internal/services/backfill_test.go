package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"card-tracker/internal/models"
	"card-tracker/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type fakeCandidates struct {
	byItem map[string][]pricing.Candidate
}

func (f *fakeCandidates) CandidatesThrough(_ context.Context, currency string, up time.Time) (map[string][]pricing.Candidate, error) {
	out := make(map[string][]pricing.Candidate)
	for item, cands := range f.byItem {
		for _, c := range cands {
			if c.Currency == currency && !pricing.Day(c.AsOfDate).After(pricing.Day(up)) {
				out[item] = append(out[item], c)
			}
		}
	}
	return out, nil
}

type fakeDailyValues struct {
	mu   sync.Mutex
	rows map[string]models.DailyValue
	errs map[string]error
}

func newFakeDailyValues() *fakeDailyValues {
	return &fakeDailyValues{rows: map[string]models.DailyValue{}}
}

func dvKey(itemID string, d time.Time, currency string) string {
	return fmt.Sprintf("%s|%s|%s", itemID, d.Format("2006-01-02"), currency)
}

func (f *fakeDailyValues) Upsert(_ context.Context, row *models.DailyValue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := dvKey(row.ItemID, row.AsOfDate, row.Currency)
	if err, ok := f.errs[key]; ok {
		return err
	}
	f.rows[key] = *row
	return nil
}

func snapshot(id uint, item string, source pricing.Source, pt pricing.PriceType, asOf string, cents int64) pricing.Candidate {
	return pricing.Candidate{
		SnapshotID: id,
		ItemID:     item,
		Source:     source,
		PriceType:  pt,
		Currency:   "USD",
		AsOfDate:   day(asOf),
		ValueCents: cents,
	}
}

func testBackfiller(snaps *fakeCandidates, values *fakeDailyValues) *Backfiller {
	return NewBackfiller(snaps, values, zerolog.Nop())
}

func TestBackfillCarryForward(t *testing.T) {
	snaps := &fakeCandidates{byItem: map[string][]pricing.Candidate{
		"item-y": {snapshot(7, "item-y", pricing.SourceTCGPlayer, pricing.PriceTypeMarket, "2025-01-01", 1000)},
	}}
	values := newFakeDailyValues()

	summary, err := testBackfiller(snaps, values).Run(context.Background(), BackfillOptions{
		Start:    day("2025-01-01"),
		End:      day("2025-01-05"),
		Currency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, summary.TotalUpserts)
	require.Len(t, values.rows, 5)

	for d := day("2025-01-01"); !d.After(day("2025-01-05")); d = d.AddDate(0, 0, 1) {
		row, ok := values.rows[dvKey("item-y", d, "USD")]
		require.True(t, ok, "missing row for %s", d.Format("2006-01-02"))
		assert.Equal(t, int64(1000), row.ValueCents)
		require.Len(t, row.SourcesUsed, 1)
		assert.Equal(t, day("2025-01-01"), row.SourcesUsed[0].AsOfDate,
			"carried-forward rows reference the original snapshot date")
	}
}

func TestBackfillIdempotence(t *testing.T) {
	snaps := &fakeCandidates{byItem: map[string][]pricing.Candidate{
		"item-a": {
			snapshot(1, "item-a", pricing.SourceTCGPlayer, pricing.PriceTypeMarket, "2025-02-01", 500),
			snapshot(2, "item-a", pricing.SourceCOMC, pricing.PriceTypeMid, "2025-02-02", 650),
		},
		"item-b": {
			snapshot(3, "item-b", pricing.SourceEbay, pricing.PriceTypeAvg7, "2025-02-01", 220),
		},
	}}
	values := newFakeDailyValues()
	opts := BackfillOptions{Start: day("2025-02-01"), End: day("2025-02-04"), Currency: "USD"}
	b := testBackfiller(snaps, values)

	_, err := b.Run(context.Background(), opts)
	require.NoError(t, err)
	first := make(map[string]models.DailyValue, len(values.rows))
	for k, v := range values.rows {
		first[k] = v
	}

	_, err = b.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, first, values.rows, "re-running an unchanged range must produce identical rows")
}

func TestBackfillIdempotentWithDuplicateSnapshots(t *testing.T) {
	// Re-ingestion leaves duplicate rows differing only in ID. Two runs
	// seeing them in opposite scan orders must still write identical rows,
	// sources_used included.
	dup1 := snapshot(11, "item-d", pricing.SourceEbay, pricing.PriceTypeAvg7, "2025-02-01", 500)
	dup2 := snapshot(12, "item-d", pricing.SourceEbay, pricing.PriceTypeAvg7, "2025-02-01", 500)
	opts := BackfillOptions{Start: day("2025-02-01"), End: day("2025-02-03"), Currency: "USD"}

	forward := newFakeDailyValues()
	_, err := testBackfiller(&fakeCandidates{byItem: map[string][]pricing.Candidate{
		"item-d": {dup1, dup2},
	}}, forward).Run(context.Background(), opts)
	require.NoError(t, err)

	reversed := newFakeDailyValues()
	_, err = testBackfiller(&fakeCandidates{byItem: map[string][]pricing.Candidate{
		"item-d": {dup2, dup1},
	}}, reversed).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, forward.rows, reversed.rows)
	row := forward.rows[dvKey("item-d", day("2025-02-01"), "USD")]
	require.Len(t, row.SourcesUsed, 1)
	assert.Equal(t, uint(11), row.SourcesUsed[0].SnapshotID)
}

func TestBackfillNoFutureLeakage(t *testing.T) {
	snaps := &fakeCandidates{byItem: map[string][]pricing.Candidate{
		"item-z": {snapshot(9, "item-z", pricing.SourceTCGPlayer, pricing.PriceTypeMarket, "2025-01-10", 9999)},
	}}
	values := newFakeDailyValues()

	summary, err := testBackfiller(snaps, values).Run(context.Background(), BackfillOptions{
		Start:    day("2025-01-01"),
		End:      day("2025-01-05"),
		Currency: "USD",
	})
	require.NoError(t, err)
	assert.Zero(t, summary.TotalUpserts)
	assert.Empty(t, values.rows, "a future-dated snapshot must not materialize earlier days")
}

func TestBackfillDryRunWritesNothing(t *testing.T) {
	snaps := &fakeCandidates{byItem: map[string][]pricing.Candidate{
		"item-a": {snapshot(1, "item-a", pricing.SourceTCGPlayer, pricing.PriceTypeMarket, "2025-03-01", 100)},
	}}
	values := newFakeDailyValues()

	summary, err := testBackfiller(snaps, values).Run(context.Background(), BackfillOptions{
		Start:    day("2025-03-01"),
		End:      day("2025-03-03"),
		Currency: "USD",
		DryRun:   true,
	})
	require.NoError(t, err)
	assert.True(t, summary.DryRun)
	assert.Equal(t, day("2025-03-01"), summary.Start)
	assert.Equal(t, day("2025-03-03"), summary.End)
	assert.Empty(t, values.rows)
}

func TestBackfillAbortsAfterFailingDay(t *testing.T) {
	snaps := &fakeCandidates{byItem: map[string][]pricing.Candidate{
		"item-a": {snapshot(1, "item-a", pricing.SourceTCGPlayer, pricing.PriceTypeMarket, "2025-04-01", 100)},
	}}
	values := newFakeDailyValues()
	values.errs = map[string]error{
		dvKey("item-a", day("2025-04-02"), "USD"): fmt.Errorf("store unreachable"),
	}

	summary, err := testBackfiller(snaps, values).Run(context.Background(), BackfillOptions{
		Start:    day("2025-04-01"),
		End:      day("2025-04-04"),
		Currency: "USD",
	})
	require.Error(t, err)
	// Day one stays committed; the failing day aborts the rest.
	_, ok := values.rows[dvKey("item-a", day("2025-04-01"), "USD")]
	assert.True(t, ok)
	_, ok = values.rows[dvKey("item-a", day("2025-04-03"), "USD")]
	assert.False(t, ok)
	require.Len(t, summary.Days, 2)
	assert.Equal(t, 1, summary.Days[0].Upserts)
	assert.Zero(t, summary.Days[1].Upserts, "a failed upsert is not counted as applied")
	assert.Equal(t, 1, summary.TotalUpserts)
}

func TestBackfillCancelledBeforeStart(t *testing.T) {
	snaps := &fakeCandidates{byItem: map[string][]pricing.Candidate{
		"item-a": {snapshot(1, "item-a", pricing.SourceTCGPlayer, pricing.PriceTypeMarket, "2025-05-01", 100)},
	}}
	values := newFakeDailyValues()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := testBackfiller(snaps, values).Run(ctx, BackfillOptions{
		Start:    day("2025-05-01"),
		End:      day("2025-05-03"),
		Currency: "USD",
	})
	require.NoError(t, err)
	assert.True(t, summary.Cancelled)
	assert.Empty(t, values.rows)
}

func TestBackfillDefaultRangeIsTrailingWindow(t *testing.T) {
	start, end, err := resolveRange(BackfillOptions{Days: 90})
	require.NoError(t, err)
	assert.Equal(t, pricing.Day(time.Now().UTC()), end)
	assert.Equal(t, end.AddDate(0, 0, -89), start)

	_, _, err = resolveRange(BackfillOptions{Start: day("2025-01-05"), End: day("2025-01-01")})
	assert.Error(t, err)
}

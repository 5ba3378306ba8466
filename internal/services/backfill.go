package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"card-tracker/internal/models"
	"card-tracker/internal/pricing"

	"github.com/rs/zerolog"
)

// CandidateReader is the read half of the snapshot store used by backfill.
type CandidateReader interface {
	CandidatesThrough(ctx context.Context, currency string, day time.Time) (map[string][]pricing.Candidate, error)
}

// DailyValueUpserter is the write half of the daily value store.
type DailyValueUpserter interface {
	Upsert(ctx context.Context, row *models.DailyValue) error
}

// BackfillOptions configures one run. An explicit Start/End pair overrides
// Days; otherwise the range is a trailing window of Days ending today UTC.
type BackfillOptions struct {
	Start    time.Time
	End      time.Time
	Days     int
	Currency string
	DryRun   bool
	Workers  int
}

// DayResult is one day's upsert counts.
type DayResult struct {
	Day     time.Time `json:"day"`
	Upserts int       `json:"upserts"`
	Skipped int       `json:"skipped"`
}

// BackfillSummary reports a whole run.
type BackfillSummary struct {
	Start        time.Time   `json:"start"`
	End          time.Time   `json:"end"`
	Currency     string      `json:"currency"`
	DryRun       bool        `json:"dry_run"`
	Days         []DayResult `json:"days,omitempty"`
	TotalUpserts int         `json:"total_upserts"`
	Cancelled    bool        `json:"cancelled,omitempty"`
}

// Backfiller materializes daily values over a date range. It re-derives
// every day from raw snapshots, so re-running an unchanged range produces
// identical rows.
type Backfiller struct {
	snapshots CandidateReader
	values    DailyValueUpserter
	log       zerolog.Logger
}

func NewBackfiller(snapshots CandidateReader, values DailyValueUpserter, log zerolog.Logger) *Backfiller {
	return &Backfiller{snapshots: snapshots, values: values, log: log}
}

// Run walks the range in ascending day order. Each day's upserts run on a
// bounded worker pool; a day that fails aborts the run after that day with
// earlier days left committed. Cancellation is honored at day boundaries
// only, so a day is never left half-applied by a clean shutdown.
func (b *Backfiller) Run(ctx context.Context, opts BackfillOptions) (BackfillSummary, error) {
	start, end, err := resolveRange(opts)
	if err != nil {
		return BackfillSummary{}, err
	}
	summary := BackfillSummary{Start: start, End: end, Currency: opts.Currency, DryRun: opts.DryRun}

	if opts.DryRun {
		b.log.Info().
			Time("start", start).Time("end", end).
			Str("currency", opts.Currency).
			Msg("dry run: no rows will be written")
		return summary, nil
	}

	b.log.Info().
		Time("start", start).Time("end", end).
		Str("currency", opts.Currency).
		Int("priority_version", pricing.PriorityVersion).
		Msg("backfill starting")

	byItem, err := b.snapshots.CandidatesThrough(ctx, opts.Currency, end)
	if err != nil {
		return summary, fmt.Errorf("failed to load snapshot candidates: %w", err)
	}
	itemIDs := make([]string, 0, len(byItem))
	for id := range byItem {
		itemIDs = append(itemIDs, id)
	}
	sort.Strings(itemIDs)

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if ctx.Err() != nil {
			summary.Cancelled = true
			b.log.Warn().Time("day", day).Msg("backfill cancelled at day boundary")
			return summary, nil
		}

		result, err := b.runDay(ctx, day, opts.Currency, itemIDs, byItem, workers)
		summary.Days = append(summary.Days, result)
		summary.TotalUpserts += result.Upserts
		if err != nil {
			return summary, fmt.Errorf("backfill aborted on %s: %w", day.Format("2006-01-02"), err)
		}

		b.log.Debug().
			Time("day", day).
			Int("upserts", result.Upserts).
			Int("skipped", result.Skipped).
			Msg("day materialized")
	}
	return summary, nil
}

func (b *Backfiller) runDay(ctx context.Context, day time.Time, currency string, itemIDs []string, byItem map[string][]pricing.Candidate, workers int) (DayResult, error) {
	result := DayResult{Day: day}

	selections := make([]pricing.Selection, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		sel, ok := pricing.Select(itemID, currency, day, byItem[itemID])
		if !ok {
			// No eligible candidate: leave any previously
			// materialized row untouched.
			result.Skipped++
			continue
		}
		selections = append(selections, sel)
	}

	// Per-item upserts are independent within a day; bound concurrency to
	// keep connection pressure on the shared store in check.
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		applied  int
	)
	sem := make(chan struct{}, workers)
	for _, sel := range selections {
		sel := sel
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			err := b.values.Upsert(ctx, toDailyValue(sel))
			mu.Lock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
			} else {
				applied++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	result.Upserts = applied
	if firstErr != nil {
		return result, firstErr
	}
	return result, nil
}

func toDailyValue(sel pricing.Selection) *models.DailyValue {
	refs := make(models.SourceRefs, 0, len(sel.Sources))
	for _, s := range sel.Sources {
		refs = append(refs, models.SourceRef{
			SnapshotID: s.SnapshotID,
			Source:     string(s.Source),
			PriceType:  string(s.PriceType),
			Condition:  s.Condition,
			ValueCents: s.ValueCents,
			AsOfDate:   pricing.Day(s.AsOfDate),
		})
	}
	return &models.DailyValue{
		ItemID:      sel.ItemID,
		AsOfDate:    sel.AsOfDate,
		Currency:    sel.Currency,
		ValueCents:  sel.ValueCents,
		Confidence:  sel.Confidence,
		Method:      sel.Method,
		SourcesUsed: refs,
	}
}

func resolveRange(opts BackfillOptions) (time.Time, time.Time, error) {
	days := opts.Days
	if days < 1 {
		days = 90
	}

	end := pricing.Day(opts.End)
	if opts.End.IsZero() {
		end = pricing.Day(time.Now().UTC())
	}
	start := pricing.Day(opts.Start)
	if opts.Start.IsZero() {
		start = end.AddDate(0, 0, -(days - 1))
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start %s is after end %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return start, end, nil
}

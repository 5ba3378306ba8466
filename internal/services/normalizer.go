package services

import (
	"context"
	"encoding/json"
	"time"

	"card-tracker/internal/models"
	"card-tracker/internal/pricing"
	"card-tracker/internal/services/feeds"

	"github.com/rs/zerolog"
)

// SnapshotAppender is the write half of the snapshot store.
type SnapshotAppender interface {
	Insert(ctx context.Context, rows []models.PriceSnapshot) error
}

// NormalizeSummary reports one ingestion run. Skips are data-quality
// tolerances, not failures.
type NormalizeSummary struct {
	Source      string         `json:"source"`
	Rows        int            `json:"rows"`
	Snapshots   int            `json:"snapshots"`
	SkippedRows int            `json:"skipped_rows"`
	Skips       map[string]int `json:"skips,omitempty"`
}

// Normalizer turns raw vendor rows into canonical snapshots. It is the
// snapshot store's sole writer and the enforcement point for the
// positive-cents invariant.
type Normalizer struct {
	rows feeds.RowSource
	sink SnapshotAppender
	log  zerolog.Logger
}

func NewNormalizer(rows feeds.RowSource, sink SnapshotAppender, log zerolog.Logger) *Normalizer {
	return &Normalizer{rows: rows, sink: sink, log: log}
}

// Run ingests one vendor feed. ingestDate is the fallback as-of date for
// rows without a usable last-updated timestamp, normally today UTC.
func (n *Normalizer) Run(ctx context.Context, feed feeds.Feed, ingestDate time.Time) (NormalizeSummary, error) {
	summary := NormalizeSummary{Source: string(feed.Source), Skips: map[string]int{}}

	rows, err := n.rows.Rows(ctx, feed)
	if err != nil {
		return summary, err
	}
	summary.Rows = len(rows)

	var batch []models.PriceSnapshot
	for _, row := range rows {
		snaps, skips := NormalizeRow(feed, row, ingestDate)
		if len(snaps) == 0 && len(skips) == 0 {
			continue
		}
		for _, reason := range skips {
			summary.Skips[reason.String()]++
			if reason == pricing.SkipMissingKey {
				summary.SkippedRows++
			}
		}
		batch = append(batch, snaps...)
	}

	if err := n.sink.Insert(ctx, batch); err != nil {
		return summary, err
	}
	summary.Snapshots = len(batch)

	n.log.Info().
		Str("source", summary.Source).
		Int("rows", summary.Rows).
		Int("snapshots", summary.Snapshots).
		Int("skipped_rows", summary.SkippedRows).
		Msg("normalization run complete")
	return summary, nil
}

type provenance struct {
	Table  string `json:"table"`
	Column string `json:"column"`
	Raw    string `json:"raw"`
}

// NormalizeRow maps one raw vendor row to zero or more snapshots. A row
// without a join key contributes nothing; a column that fails tolerant
// parsing is skipped on its own.
func NormalizeRow(feed feeds.Feed, row feeds.RawRow, ingestDate time.Time) ([]models.PriceSnapshot, []pricing.SkipReason) {
	itemID := row.String(feed.KeyColumn)
	if itemID == "" {
		return nil, []pricing.SkipReason{pricing.SkipMissingKey}
	}

	asOf := pricing.Day(ingestDate)
	if ts, ok := row.Time(feed.UpdatedColumn); ok {
		asOf = pricing.Day(ts)
	}

	var snaps []models.PriceSnapshot
	var skips []pricing.SkipReason
	for _, col := range feed.Columns {
		raw := row.String(col.Name)
		cents, reason := pricing.ParseCents(raw)
		if reason != pricing.SkipNone {
			skips = append(skips, reason)
			continue
		}
		prov, _ := json.Marshal(provenance{Table: feed.Table, Column: col.Name, Raw: raw})
		snaps = append(snaps, models.PriceSnapshot{
			ItemID:        itemID,
			Source:        string(feed.Source),
			PriceType:     string(col.Type),
			Condition:     col.Condition,
			AsOfDate:      asOf,
			Currency:      feed.DefaultCurrency,
			ValueCents:    cents,
			RawProvenance: string(prov),
		})
	}
	return snaps, skips
}

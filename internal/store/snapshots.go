package store

import (
	"context"
	"time"

	"card-tracker/internal/models"
	"card-tracker/internal/pricing"

	"gorm.io/gorm"
)

// Snapshots is the GORM-backed snapshot repository. Writes are append-only;
// the reconciliation side treats the table as read-only.
type Snapshots struct {
	db *gorm.DB
}

func NewSnapshots(db *gorm.DB) *Snapshots {
	return &Snapshots{db: db}
}

// Insert appends observation rows. Duplicates from re-ingestion are
// expected and kept as history.
func (s *Snapshots) Insert(ctx context.Context, rows []models.PriceSnapshot) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

// CandidatesThrough loads every snapshot in a currency dated on or before
// day, grouped by item. The backfill re-derives each day from this raw set
// rather than from previously materialized rows.
func (s *Snapshots) CandidatesThrough(ctx context.Context, currency string, day time.Time) (map[string][]pricing.Candidate, error) {
	var rows []models.PriceSnapshot
	err := s.db.WithContext(ctx).
		Where("currency = ? AND as_of_date <= ?", currency, pricing.Day(day)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byItem := make(map[string][]pricing.Candidate)
	for _, r := range rows {
		byItem[r.ItemID] = append(byItem[r.ItemID], toCandidate(r))
	}
	return byItem, nil
}

// LatestObservation returns the freshest observation for an item from one
// allow-listed source, breaking same-day ties by price-type priority then
// value. Returns nil when the source is unknown or nothing was observed.
func (s *Snapshots) LatestObservation(ctx context.Context, itemID string, source pricing.Source) (*pricing.Candidate, error) {
	if !pricing.IsKnownSource(source) {
		return nil, nil
	}

	// Fetch every row on the latest observation date so the tie-break sees
	// the whole day, however many price types the vendor landed.
	latest := s.db.Model(&models.PriceSnapshot{}).
		Select("MAX(as_of_date)").
		Where("item_id = ? AND source = ?", itemID, string(source))

	var rows []models.PriceSnapshot
	err := s.db.WithContext(ctx).
		Where("item_id = ? AND source = ? AND as_of_date = (?)", itemID, string(source), latest).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	best := toCandidate(rows[0])
	for _, r := range rows[1:] {
		c := toCandidate(r)
		if tr, tb := pricing.PriceTypeRank(c.PriceType), pricing.PriceTypeRank(best.PriceType); tr < tb ||
			(tr == tb && c.ValueCents > best.ValueCents) {
			best = c
		}
	}
	return &best, nil
}

func toCandidate(r models.PriceSnapshot) pricing.Candidate {
	return pricing.Candidate{
		SnapshotID: r.ID,
		ItemID:     r.ItemID,
		Source:     pricing.Source(r.Source),
		PriceType:  pricing.PriceType(r.PriceType),
		Condition:  r.Condition,
		Currency:   r.Currency,
		AsOfDate:   r.AsOfDate,
		ValueCents: r.ValueCents,
	}
}

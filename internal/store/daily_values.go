package store

import (
	"context"
	"errors"
	"time"

	"card-tracker/internal/models"
	"card-tracker/internal/pricing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailyValues is the GORM-backed daily value repository. The backfill job
// is its only writer.
type DailyValues struct {
	db *gorm.DB
}

func NewDailyValues(db *gorm.DB) *DailyValues {
	return &DailyValues{db: db}
}

// Upsert inserts or overwrites one row keyed by (item_id, as_of_date,
// currency). Each call is its own statement so concurrent per-item writers
// within a day never contend on more than their own key.
func (d *DailyValues) Upsert(ctx context.Context, row *models.DailyValue) error {
	row.AsOfDate = pricing.Day(row.AsOfDate)
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "item_id"}, {Name: "as_of_date"}, {Name: "currency"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value_cents", "confidence", "method", "sources_used", "updated_at",
		}),
	}).Create(row).Error
}

// Latest returns the most recent materialized row for an item, or nil when
// the item has never been reconciled in that currency.
func (d *DailyValues) Latest(ctx context.Context, itemID, currency string) (*models.DailyValue, error) {
	var row models.DailyValue
	err := d.db.WithContext(ctx).
		Where("item_id = ? AND currency = ?", itemID, currency).
		Order("as_of_date DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// LatestMany resolves the latest row per item for a batch of items in one
// round trip per distinct date set.
func (d *DailyValues) LatestMany(ctx context.Context, itemIDs []string, currency string) (map[string]models.DailyValue, error) {
	out := make(map[string]models.DailyValue, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	var rows []models.DailyValue
	err := d.db.WithContext(ctx).
		Where("item_id IN ? AND currency = ?", itemIDs, currency).
		Order("as_of_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	// Ascending order means the last row seen per item is the latest.
	for _, r := range rows {
		out[r.ItemID] = r
	}
	return out, nil
}

// OnDay returns the row materialized for one specific day, if any.
func (d *DailyValues) OnDay(ctx context.Context, itemID, currency string, day time.Time) (*models.DailyValue, error) {
	var row models.DailyValue
	err := d.db.WithContext(ctx).
		Where("item_id = ? AND currency = ? AND as_of_date = ?", itemID, currency, pricing.Day(day)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

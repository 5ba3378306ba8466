package models

import "time"

// PriceSnapshot is one immutable, dated price observation from one vendor
// for one catalog item. The table is append-only: re-ingestion of the same
// observation adds history rather than deduplicating, and reconciliation
// stays idempotent at the selection layer.
type PriceSnapshot struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ItemID    string `json:"item_id" gorm:"size:64;index:idx_snap_item_day;not null"`
	Source    string `json:"source" gorm:"size:32;index;not null"`
	PriceType string `json:"price_type" gorm:"size:32;not null"`
	Condition string `json:"condition,omitempty" gorm:"size:64"`
	// AsOfDate is the calendar date the observation is valid for, not the
	// ingestion time.
	AsOfDate   time.Time `json:"as_of_date" gorm:"type:date;index:idx_snap_item_day;not null"`
	Currency   string    `json:"currency" gorm:"size:3;not null"`
	ValueCents int64     `json:"value_cents" gorm:"not null"`
	// RawProvenance records the originating table/column/raw string for
	// audit only. Selection logic never reads it.
	RawProvenance string    `json:"raw_provenance,omitempty" gorm:"type:json"`
	CreatedAt     time.Time `json:"created_at"`
}

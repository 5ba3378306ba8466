package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SourceRef records one snapshot that contributed to a DailyValue. Its
// AsOfDate may be earlier than the row's own date when the value was
// carried forward.
type SourceRef struct {
	SnapshotID uint      `json:"snapshot_id"`
	Source     string    `json:"source"`
	PriceType  string    `json:"price_type"`
	Condition  string    `json:"condition,omitempty"`
	ValueCents int64     `json:"value_cents"`
	AsOfDate   time.Time `json:"as_of_date"`
}

// SourceRefs serializes to a JSON column.
type SourceRefs []SourceRef

func (s SourceRefs) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *SourceRefs) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported sources_used type %T", value)
	}
}

// DailyValue is the single reconciled price for an item on a given day in a
// given currency. Rows are created and overwritten only by the backfill
// job; every other component reads them.
type DailyValue struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	ItemID      string     `json:"item_id" gorm:"size:64;uniqueIndex:idx_dv_item_day_currency;not null"`
	AsOfDate    time.Time  `json:"as_of_date" gorm:"type:date;uniqueIndex:idx_dv_item_day_currency;not null"`
	Currency    string     `json:"currency" gorm:"size:3;uniqueIndex:idx_dv_item_day_currency;not null"`
	ValueCents  int64      `json:"value_cents" gorm:"not null"`
	Confidence  int        `json:"confidence" gorm:"not null"`
	Method      string     `json:"method" gorm:"size:32;not null"`
	SourcesUsed SourceRefs `json:"sources_used" gorm:"type:json"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

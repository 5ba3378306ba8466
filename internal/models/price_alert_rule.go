package models

import "time"

// Alert rule comparison kinds.
const (
	RuleTypeAbove = "above"
	RuleTypeBelow = "below"
)

// PriceAlertRule is a user-owned threshold watch on one item/source pair.
// The scan job only flips LastTriggeredAt; creation and deletion belong to
// the user-facing app.
type PriceAlertRule struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	UserID       uint   `json:"user_id" gorm:"index;not null"`
	Game         string `json:"game" gorm:"size:32"`
	TargetItemID string `json:"target_item_id" gorm:"size:64;index;not null"`
	// Source must match the vendor allow-list; the scanner never
	// interpolates it into a query unchecked.
	Source          string     `json:"source" gorm:"size:32;not null"`
	RuleType        string     `json:"rule_type" gorm:"size:8;not null"`
	ThresholdCents  int64      `json:"threshold_cents" gorm:"not null"`
	Active          bool       `json:"active" gorm:"index;default:true"`
	LastTriggeredAt *time.Time `json:"last_triggered_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

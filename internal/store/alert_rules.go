package store

import (
	"context"
	"time"

	"card-tracker/internal/models"

	"gorm.io/gorm"
)

// AlertRules reads user threshold rules and records trigger times. Rule
// creation belongs to the user-facing app.
type AlertRules struct {
	db *gorm.DB
}

func NewAlertRules(db *gorm.DB) *AlertRules {
	return &AlertRules{db: db}
}

func (a *AlertRules) Active(ctx context.Context) ([]models.PriceAlertRule, error) {
	var rules []models.PriceAlertRule
	err := a.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&rules).Error
	return rules, err
}

func (a *AlertRules) Touch(ctx context.Context, ruleID uint, at time.Time) error {
	return a.db.WithContext(ctx).
		Model(&models.PriceAlertRule{}).
		Where("id = ?", ruleID).
		Update("last_triggered_at", at).Error
}

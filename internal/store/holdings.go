package store

import (
	"context"

	"card-tracker/internal/models"

	"gorm.io/gorm"
)

// Holdings reads collection items for valuation. This pipeline never
// mutates them.
type Holdings struct {
	db *gorm.DB
}

func NewHoldings(db *gorm.DB) *Holdings {
	return &Holdings{db: db}
}

func (h *Holdings) ByOwner(ctx context.Context, ownerID uint) ([]models.CollectionItem, error) {
	var items []models.CollectionItem
	err := h.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

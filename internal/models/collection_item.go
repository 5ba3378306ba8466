package models

import "time"

// CollectionItem is one holding in a user's collection: a catalog item, how
// many copies, and what was paid for the lot. CostBasisCents is the total
// for the lot, not per unit.
type CollectionItem struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	OwnerID        uint      `json:"owner_id" gorm:"index;not null"`
	ItemID         string    `json:"item_id" gorm:"size:64;index;not null"`
	Game           string    `json:"game" gorm:"size:32"`
	Name           string    `json:"name" gorm:"size:255"`
	SetName        string    `json:"set_name" gorm:"size:128"`
	Grade          string    `json:"grade" gorm:"size:64"`
	Quantity       int       `json:"quantity" gorm:"default:1"`
	CostBasisCents int64     `json:"cost_basis_cents"`
	Currency       string    `json:"currency" gorm:"size:3;default:'USD'"`
	AcquiredAt     *time.Time `json:"acquired_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

package models

import "time"

// Purchase records one user buying one listing. The composite unique index
// makes the pair a storage-level invariant: concurrent purchases of the same
// listing by the same user lose at insert time instead of creating duplicates.
// PricePaid snapshots the listing price at purchase time.
type Purchase struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex:idx_purchases_user_software;not null" json:"user_id"`
	SoftwareID   uint      `gorm:"uniqueIndex:idx_purchases_user_software;not null" json:"software_id"`
	PricePaid    float64   `gorm:"not null" json:"price_paid"`
	PurchaseDate time.Time `gorm:"not null" json:"purchase_date"`
	CreatedAt    time.Time `json:"created_at"`
	User         User      `json:"-"`
	Software     Software  `json:"software"`
}

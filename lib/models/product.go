package models

import "time"

// Product is content-addressed by (CatalogID, Name, Version); URL is refreshed on re-observation.
type Product struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	CatalogID string `gorm:"uniqueIndex:idx_product_identity;not null" validate:"required"`
	Name      string `gorm:"uniqueIndex:idx_product_identity;not null" validate:"required"`
	Version   string `gorm:"uniqueIndex:idx_product_identity;not null" validate:"required"`
	URL       string `gorm:"index;not null" validate:"required,url"`
}

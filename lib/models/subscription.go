package models

import "time"

type Subscription struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	UserID        string `gorm:"uniqueIndex:idx_user_product;not null"` // Composite unique index on user & product
	ProductID     uint   `gorm:"uniqueIndex:idx_user_product;not null"`
	SelectedSizes SizeSet
	Tracking      bool `gorm:"not null;default:false"`

	Product Product
}

type Subscriptions []Subscription

package models

import "time"

// User is keyed by the opaque chat identifier of the messaging platform.
type User struct {
	ChatID    string `gorm:"primaryKey"`
	CreatedAt time.Time
}

package domain

import "time"

// User is a registered account. Rows are never updated after registration.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"size:254;not null;uniqueIndex:idx_users_email"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

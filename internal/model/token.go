package model

import (
	"time"

	"github.com/google/uuid"
)

// OutstandingToken records every refresh token handed out, so it can later
// be blacklisted and flushed once expired.
type OutstandingToken struct {
	JTI       string    `gorm:"column:jti;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type BlacklistedToken struct {
	JTI           string    `gorm:"column:jti;primaryKey"`
	ExpiresAt     time.Time `gorm:"not null;index"`
	BlacklistedAt time.Time `gorm:"autoCreateTime"`
}

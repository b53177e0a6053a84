package models

import (
	"time"

	"github.com/google/uuid"
)

// LoginToken is a single-use magic-link token. Only the SHA-256 hash of the
// plaintext is stored; the plaintext leaves the system once, inside the
// emailed link. Rows are never deleted: a consumed or expired token is inert
// by the redeemable predicate, not by cleanup.
type LoginToken struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	TokenHash string     `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

// Redeemable reports whether the token can still be consumed.
func (t *LoginToken) Redeemable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// User is created implicitly on the first login-link request. Email is the
// identity; it is stored case-folded and trimmed.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

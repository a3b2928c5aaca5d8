package models

import (
	"time"

	"github.com/google/uuid"
)

// ShareLink grants anonymous read access to one show via an opaque token.
// At most one link exists per show; the token is immutable once minted and
// deactivation only flips the flag.
type ShareLink struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ShowID    uuid.UUID `gorm:"column:show_id;type:uuid;not null;uniqueIndex"`
	Token     string    `gorm:"column:token;not null;uniqueIndex"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

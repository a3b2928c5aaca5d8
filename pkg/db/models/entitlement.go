package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/showsettle/showsettle-backend/pkg/enums"
)

// Entitlement is the authoritative access grant for a user, independent of
// where it came from. One row per user, upsert semantics; a nil ExpiresAt
// means the grant is perpetual.
type Entitlement struct {
	ID        uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID               `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Source    enums.EntitlementSource `gorm:"column:source;not null"`
	Status    enums.EntitlementStatus `gorm:"column:status;not null;default:'inactive'"`
	GrantedBy string                  `gorm:"column:granted_by"`
	GrantedAt time.Time               `gorm:"column:granted_at;not null"`
	ExpiresAt *time.Time              `gorm:"column:expires_at"`
	Metadata  json.RawMessage         `gorm:"column:metadata;type:jsonb"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Entitlement) TableName() string {
	return "user_entitlements"
}

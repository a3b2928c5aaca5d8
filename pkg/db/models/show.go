package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Show is an owned settlement record: the form inputs and the computed
// breakdown are stored side by side as versioned JSON snapshots.
type Show struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	Title     string          `gorm:"column:title;not null"`
	Inputs    json.RawMessage `gorm:"column:inputs;type:jsonb;not null"`
	Results   json.RawMessage `gorm:"column:results;type:jsonb;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

package entitlements

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/showsettle/showsettle-backend/pkg/db/models"
)

// Repository exposes entitlement persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Entitlement, error)
	Upsert(ctx context.Context, ent *models.Entitlement) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs an entitlements repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindByUserID loads the single entitlement row for a user.
func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Entitlement, error) {
	var ent models.Entitlement
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&ent).Error; err != nil {
		return nil, err
	}
	return &ent, nil
}

// Upsert atomically inserts or replaces the user's entitlement. Last writer
// wins on the user_id uniqueness constraint; there is no read-then-write
// window.
func (r *repository) Upsert(ctx context.Context, ent *models.Entitlement) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"source", "status", "granted_by", "granted_at", "expires_at", "metadata", "updated_at",
		}),
	}).Create(ent).Error
}

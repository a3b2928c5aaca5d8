package sharelinks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/showsettle/showsettle-backend/pkg/db/models"
)

// Repository exposes share link persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a share link repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new share link row.
func (r *Repository) Create(ctx context.Context, link *models.ShareLink) (*models.ShareLink, error) {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return nil, err
	}
	return link, nil
}

// FindByShowID loads the single link belonging to a show.
func (r *Repository) FindByShowID(ctx context.Context, showID uuid.UUID) (*models.ShareLink, error) {
	var link models.ShareLink
	if err := r.db.WithContext(ctx).Where("show_id = ?", showID).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// FindByToken loads a link by its opaque token. This lookup intentionally has
// no owner scoping; it serves the anonymous resolution path.
func (r *Repository) FindByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	var link models.ShareLink
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// SetActive flips the active flag on a show's link. The token itself is never
// touched.
func (r *Repository) SetActive(ctx context.Context, showID uuid.UUID, isActive bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.ShareLink{}).
		Where("show_id = ?", showID).
		Update("is_active", isActive)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

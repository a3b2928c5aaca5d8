package shows

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/showsettle/showsettle-backend/pkg/db/models"
)

// Repository exposes show persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a shows repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new show row.
func (r *Repository) Create(ctx context.Context, show *models.Show) (*models.Show, error) {
	if err := r.db.WithContext(ctx).Create(show).Error; err != nil {
		return nil, err
	}
	return show, nil
}

// FindByIDForUser loads a show only when it belongs to the given owner.
func (r *Repository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Show, error) {
	var show models.Show
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&show).Error
	if err != nil {
		return nil, err
	}
	return &show, nil
}

// FindByID loads a show regardless of owner. Reserved for the anonymous
// share-resolution path; every authenticated read goes through
// FindByIDForUser.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Show, error) {
	var show models.Show
	if err := r.db.WithContext(ctx).First(&show, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &show, nil
}

// UpdateSnapshots replaces the title and both snapshots of an owned show.
func (r *Repository) UpdateSnapshots(ctx context.Context, show *models.Show) error {
	return r.db.WithContext(ctx).
		Model(&models.Show{}).
		Where("id = ? AND user_id = ?", show.ID, show.UserID).
		Updates(map[string]any{
			"title":   show.Title,
			"inputs":  show.Inputs,
			"results": show.Results,
		}).Error
}

// List returns owner-scoped shows using cursor pagination.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.Show, error) {
	query := r.db.WithContext(ctx).Model(&models.Show{}).Where("user_id = ?", opts.userID)

	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.Show
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

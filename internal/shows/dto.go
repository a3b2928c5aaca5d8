package shows

import (
	"time"

	"github.com/google/uuid"

	"github.com/showsettle/showsettle-backend/internal/settlement"
	"github.com/showsettle/showsettle-backend/pkg/db/models"
	pkgpagination "github.com/showsettle/showsettle-backend/pkg/pagination"
)

// SaveShowRequest is the payload for creating or updating a show.
type SaveShowRequest struct {
	Title string           `json:"title" validate:"required,max=200"`
	Input settlement.Input `json:"input" validate:"required"`
}

// ShowDTO is the transport projection of a persisted show.
type ShowDTO struct {
	ID        uuid.UUID          `json:"id"`
	Title     string             `json:"title"`
	Input     *settlement.Input  `json:"input"`
	Result    *settlement.Result `json:"result"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// PublicShowDTO is the read-only projection served to anonymous share-link
// holders. It never carries the show id or owner id.
type PublicShowDTO struct {
	Title     string             `json:"title"`
	Input     *settlement.Input  `json:"input"`
	Result    *settlement.Result `json:"result"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ToPublicDTO decodes the stored snapshots into the anonymous projection,
// failing closed on malformed or unversioned rows.
func ToPublicDTO(show *models.Show) (*PublicShowDTO, error) {
	input, err := decodeInputSnapshot(show.Inputs)
	if err != nil {
		return nil, err
	}
	result, err := decodeResultSnapshot(show.Results)
	if err != nil {
		return nil, err
	}
	return &PublicShowDTO{
		Title:     show.Title,
		Input:     input,
		Result:    result,
		UpdatedAt: show.UpdatedAt,
	}, nil
}

// ListParams scopes a cursor-paginated show listing to one owner.
type ListParams struct {
	UserID uuid.UUID
	pkgpagination.Params
}

// ListResult carries one page of shows plus the cursor for the next page.
type ListResult struct {
	Items  []ListItem `json:"items"`
	Cursor string     `json:"cursor"`
}

// ListItem summarizes a show for listings without the full snapshots.
type ListItem struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listQuery struct {
	userID uuid.UUID
	limit  int
	cursor *pkgpagination.Cursor
}

func toListItem(m models.Show) ListItem {
	return ListItem{
		ID:        m.ID,
		Title:     m.Title,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

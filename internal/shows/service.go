package shows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/showsettle/showsettle-backend/internal/settlement"
	"github.com/showsettle/showsettle-backend/pkg/db/models"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
	pkgpagination "github.com/showsettle/showsettle-backend/pkg/pagination"
)

type showsRepository interface {
	Create(ctx context.Context, show *models.Show) (*models.Show, error)
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Show, error)
	UpdateSnapshots(ctx context.Context, show *models.Show) error
	List(ctx context.Context, opts listQuery) ([]models.Show, error)
}

// Service exposes create, read, update, and list semantics for shows.
type Service interface {
	CreateShow(ctx context.Context, userID uuid.UUID, req SaveShowRequest) (*ShowDTO, error)
	GetShow(ctx context.Context, userID, showID uuid.UUID) (*ShowDTO, error)
	UpdateShow(ctx context.Context, userID, showID uuid.UUID, req SaveShowRequest) (*ShowDTO, error)
	ListShows(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo showsRepository
}

// NewService builds a shows service backed by the provided repository.
func NewService(repo showsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shows repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateShow(ctx context.Context, userID uuid.UUID, req SaveShowRequest) (*ShowDTO, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}

	result, err := settlement.Compute(req.Input)
	if err != nil {
		return nil, err
	}

	inputs, results, err := encodeSnapshots(req.Input, *result)
	if err != nil {
		return nil, err
	}

	show, err := s.repo.Create(ctx, &models.Show{
		UserID:  userID,
		Title:   title,
		Inputs:  inputs,
		Results: results,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create show")
	}

	return toDTO(show, &req.Input, result), nil
}

func (s *service) GetShow(ctx context.Context, userID, showID uuid.UUID) (*ShowDTO, error) {
	show, err := s.findOwned(ctx, showID, userID)
	if err != nil {
		return nil, err
	}
	return decodeDTO(show)
}

func (s *service) UpdateShow(ctx context.Context, userID, showID uuid.UUID, req SaveShowRequest) (*ShowDTO, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}

	show, err := s.findOwned(ctx, showID, userID)
	if err != nil {
		return nil, err
	}

	result, err := settlement.Compute(req.Input)
	if err != nil {
		return nil, err
	}

	inputs, results, err := encodeSnapshots(req.Input, *result)
	if err != nil {
		return nil, err
	}

	show.Title = title
	show.Inputs = inputs
	show.Results = results
	if err := s.repo.UpdateSnapshots(ctx, show); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update show")
	}

	return toDTO(show, &req.Input, result), nil
}

func (s *service) ListShows(ctx context.Context, params ListParams) (*ListResult, error) {
	cursor, err := pkgpagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, listQuery{
		userID: params.UserID,
		limit:  pkgpagination.LimitWithBuffer(params.Limit),
		cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list shows")
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	items := make([]ListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, toListItem(row))
	}

	return &ListResult{Items: items, Cursor: nextCursor}, nil
}

func (s *service) findOwned(ctx context.Context, showID, userID uuid.UUID) (*models.Show, error) {
	show, err := s.repo.FindByIDForUser(ctx, showID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "show not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup show")
	}
	return show, nil
}

func encodeSnapshots(input settlement.Input, result settlement.Result) ([]byte, []byte, error) {
	inputs, err := encodeInputSnapshot(input)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode inputs")
	}
	results, err := encodeResultSnapshot(result)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode results")
	}
	return inputs, results, nil
}

func decodeDTO(show *models.Show) (*ShowDTO, error) {
	input, err := decodeInputSnapshot(show.Inputs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode stored inputs")
	}
	result, err := decodeResultSnapshot(show.Results)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode stored results")
	}
	return toDTO(show, input, result), nil
}

func toDTO(show *models.Show, input *settlement.Input, result *settlement.Result) *ShowDTO {
	return &ShowDTO{
		ID:        show.ID,
		Title:     show.Title,
		Input:     input,
		Result:    result,
		CreatedAt: show.CreatedAt,
		UpdatedAt: show.UpdatedAt,
	}
}

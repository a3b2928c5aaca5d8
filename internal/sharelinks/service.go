package sharelinks

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/showsettle/showsettle-backend/internal/shows"
	"github.com/showsettle/showsettle-backend/pkg/db"
	"github.com/showsettle/showsettle-backend/pkg/db/models"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
)

const tokenBytes = 32

const notFoundMessage = "share link not found"

type linksRepository interface {
	Create(ctx context.Context, link *models.ShareLink) (*models.ShareLink, error)
	FindByShowID(ctx context.Context, showID uuid.UUID) (*models.ShareLink, error)
	FindByToken(ctx context.Context, token string) (*models.ShareLink, error)
	SetActive(ctx context.Context, showID uuid.UUID, isActive bool) error
}

type showsRepository interface {
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Show, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Show, error)
}

// ShareLinkDTO is the owner-facing projection of a share link.
type ShareLinkDTO struct {
	Token     string    `json:"token"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Service mints, toggles, and anonymously resolves share links.
type Service interface {
	CreateOrGetLink(ctx context.Context, showID, ownerID uuid.UUID) (*ShareLinkDTO, error)
	Toggle(ctx context.Context, showID, ownerID uuid.UUID, isActive bool) (*ShareLinkDTO, error)
	Resolve(ctx context.Context, token string) (*shows.PublicShowDTO, error)
}

type service struct {
	links linksRepository
	shows showsRepository
}

// NewService builds a share link service backed by the provided repositories.
func NewService(links linksRepository, showsRepo showsRepository) (Service, error) {
	if links == nil {
		return nil, fmt.Errorf("share links repository is required")
	}
	if showsRepo == nil {
		return nil, fmt.Errorf("shows repository is required")
	}
	return &service{links: links, shows: showsRepo}, nil
}

func (s *service) CreateOrGetLink(ctx context.Context, showID, ownerID uuid.UUID) (*ShareLinkDTO, error) {
	if err := s.verifyOwnership(ctx, showID, ownerID); err != nil {
		return nil, err
	}

	existing, err := s.links.FindByShowID(ctx, showID)
	if err == nil {
		return toDTO(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup share link")
	}

	token, err := mintToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint share token")
	}

	link, err := s.links.Create(ctx, &models.ShareLink{
		ShowID:   showID,
		Token:    token,
		IsActive: true,
	})
	if err != nil {
		// A concurrent request may have minted the link first; the show_id
		// uniqueness constraint makes the existing token authoritative.
		if db.IsUniqueViolation(err) {
			if existing, lookupErr := s.links.FindByShowID(ctx, showID); lookupErr == nil {
				return toDTO(existing), nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create share link")
	}

	return toDTO(link), nil
}

func (s *service) Toggle(ctx context.Context, showID, ownerID uuid.UUID, isActive bool) (*ShareLinkDTO, error) {
	if err := s.verifyOwnership(ctx, showID, ownerID); err != nil {
		return nil, err
	}

	if err := s.links.SetActive(ctx, showID, isActive); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "toggle share link")
	}

	link, err := s.links.FindByShowID(ctx, showID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload share link")
	}
	return toDTO(link), nil
}

func (s *service) Resolve(ctx context.Context, token string) (*shows.PublicShowDTO, error) {
	link, err := s.links.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup share link")
	}
	// A deactivated link answers exactly like a token that never existed, so
	// that probing cannot distinguish disabled tokens from invalid ones.
	if !link.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}

	show, err := s.shows.FindByID(ctx, link.ShowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shared show")
	}

	projection, err := shows.ToPublicDTO(show)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode shared show")
	}
	return projection, nil
}

func (s *service) verifyOwnership(ctx context.Context, showID, ownerID uuid.UUID) error {
	if _, err := s.shows.FindByIDForUser(ctx, showID, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "show not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify show ownership")
	}
	return nil
}

func mintToken() (string, error) {
	bytes := make([]byte, tokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating share token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

func toDTO(link *models.ShareLink) *ShareLinkDTO {
	return &ShareLinkDTO{
		Token:     link.Token,
		IsActive:  link.IsActive,
		CreatedAt: link.CreatedAt,
	}
}

package entitlements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/showsettle/showsettle-backend/pkg/db/models"
	"github.com/showsettle/showsettle-backend/pkg/enums"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
)

type entitlementsRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Entitlement, error)
	Upsert(ctx context.Context, ent *models.Entitlement) error
}

// EntitlementDTO exposes the grant details a user may see about themselves.
type EntitlementDTO struct {
	Source    enums.EntitlementSource `json:"source"`
	Status    enums.EntitlementStatus `json:"status"`
	GrantedAt time.Time               `json:"granted_at"`
	ExpiresAt *time.Time              `json:"expires_at,omitempty"`
}

// AccessSummary pairs the resolved access decision with the underlying grant.
type AccessSummary struct {
	HasAccess   bool            `json:"has_access"`
	Entitlement *EntitlementDTO `json:"entitlement,omitempty"`
}

// GrantParams describes an administrative or reconciler-driven grant.
type GrantParams struct {
	UserID    uuid.UUID
	Source    enums.EntitlementSource
	Status    enums.EntitlementStatus
	GrantedBy string
	ExpiresAt *time.Time
	Metadata  json.RawMessage
}

// Service resolves and writes access grants. Resolution always reads fresh
// state; there is no caching between protected requests.
type Service interface {
	HasAccess(ctx context.Context, userID uuid.UUID) (bool, error)
	Summary(ctx context.Context, userID uuid.UUID) (*AccessSummary, error)
	Grant(ctx context.Context, params GrantParams) error
}

type service struct {
	repo entitlementsRepository
	now  func() time.Time
}

// NewService builds an entitlements service backed by the provided repository.
func NewService(repo entitlementsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("entitlements repository is required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// GrantsAccessAt reports whether the entitlement row grants access at the
// given instant. The stored status must be active and any expiry must lie in
// the future; a nil expiry is a perpetual grant. A stored status of expired
// never grants access regardless of dates.
func GrantsAccessAt(ent *models.Entitlement, now time.Time) bool {
	if ent == nil {
		return false
	}
	if ent.Status != enums.EntitlementStatusActive {
		return false
	}
	if ent.ExpiresAt == nil {
		return true
	}
	return ent.ExpiresAt.After(now)
}

func (s *service) HasAccess(ctx context.Context, userID uuid.UUID) (bool, error) {
	ent, err := s.fetch(ctx, userID)
	if err != nil {
		return false, err
	}
	return GrantsAccessAt(ent, s.now().UTC()), nil
}

func (s *service) Summary(ctx context.Context, userID uuid.UUID) (*AccessSummary, error) {
	ent, err := s.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &AccessSummary{HasAccess: GrantsAccessAt(ent, s.now().UTC())}
	if ent != nil {
		summary.Entitlement = &EntitlementDTO{
			Source:    ent.Source,
			Status:    ent.Status,
			GrantedAt: ent.GrantedAt,
			ExpiresAt: ent.ExpiresAt,
		}
	}
	return summary, nil
}

func (s *service) Grant(ctx context.Context, params GrantParams) error {
	if params.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !params.Source.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid entitlement source")
	}
	if !params.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid entitlement status")
	}

	ent := &models.Entitlement{
		UserID:    params.UserID,
		Source:    params.Source,
		Status:    params.Status,
		GrantedBy: params.GrantedBy,
		GrantedAt: s.now().UTC(),
		ExpiresAt: params.ExpiresAt,
		Metadata:  params.Metadata,
	}
	if err := s.repo.Upsert(ctx, ent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert entitlement")
	}
	return nil
}

func (s *service) fetch(ctx context.Context, userID uuid.UUID) (*models.Entitlement, error) {
	ent, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup entitlement")
	}
	return ent, nil
}

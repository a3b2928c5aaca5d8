package entitlements

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/showsettle/showsettle-backend/pkg/db/models"
	"github.com/showsettle/showsettle-backend/pkg/enums"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
)

func TestGrantsAccessAtMatrix(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	cases := []struct {
		name      string
		ent       *models.Entitlement
		hasAccess bool
	}{
		{name: "absent row", ent: nil, hasAccess: false},
		{
			name:      "active perpetual",
			ent:       &models.Entitlement{Status: enums.EntitlementStatusActive},
			hasAccess: true,
		},
		{
			name:      "active future expiry",
			ent:       &models.Entitlement{Status: enums.EntitlementStatusActive, ExpiresAt: &tomorrow},
			hasAccess: true,
		},
		{
			name:      "active past expiry",
			ent:       &models.Entitlement{Status: enums.EntitlementStatusActive, ExpiresAt: &yesterday},
			hasAccess: false,
		},
		{
			name:      "inactive perpetual",
			ent:       &models.Entitlement{Status: enums.EntitlementStatusInactive},
			hasAccess: false,
		},
		{
			name:      "inactive future expiry",
			ent:       &models.Entitlement{Status: enums.EntitlementStatusInactive, ExpiresAt: &tomorrow},
			hasAccess: false,
		},
		{
			name:      "expired status never grants",
			ent:       &models.Entitlement{Status: enums.EntitlementStatusExpired, ExpiresAt: &tomorrow},
			hasAccess: false,
		},
		{
			name:      "expiry exactly now",
			ent:       &models.Entitlement{Status: enums.EntitlementStatusActive, ExpiresAt: &now},
			hasAccess: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := GrantsAccessAt(tc.ent, now); got != tc.hasAccess {
				t.Fatalf("expected hasAccess=%v, got %v", tc.hasAccess, got)
			}
		})
	}
}

func TestServiceHasAccessReadsFreshState(t *testing.T) {
	repo := newStubEntitlementsRepo()
	svc := mustService(t, repo)
	userID := uuid.New()

	hasAccess, err := svc.HasAccess(context.Background(), userID)
	if err != nil {
		t.Fatalf("has access: %v", err)
	}
	if hasAccess {
		t.Fatalf("expected no access without a row")
	}

	repo.byUser[userID] = &models.Entitlement{
		UserID: userID,
		Source: enums.EntitlementSourceManualComp,
		Status: enums.EntitlementStatusActive,
	}

	hasAccess, err = svc.HasAccess(context.Background(), userID)
	if err != nil {
		t.Fatalf("has access: %v", err)
	}
	if !hasAccess {
		t.Fatalf("expected access after the row appeared")
	}
}

func TestServiceSummaryIncludesGrantDetails(t *testing.T) {
	repo := newStubEntitlementsRepo()
	svc := mustService(t, repo)
	userID := uuid.New()
	expires := time.Now().UTC().Add(time.Hour)

	repo.byUser[userID] = &models.Entitlement{
		UserID:    userID,
		Source:    enums.EntitlementSourceStripe,
		Status:    enums.EntitlementStatusActive,
		GrantedAt: time.Now().UTC().Add(-time.Hour),
		ExpiresAt: &expires,
	}

	summary, err := svc.Summary(context.Background(), userID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !summary.HasAccess {
		t.Fatalf("expected access")
	}
	if summary.Entitlement == nil || summary.Entitlement.Source != enums.EntitlementSourceStripe {
		t.Fatalf("expected stripe-sourced entitlement details, got %+v", summary.Entitlement)
	}
}

func TestServiceSummaryAbsentRow(t *testing.T) {
	svc := mustService(t, newStubEntitlementsRepo())

	summary, err := svc.Summary(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.HasAccess || summary.Entitlement != nil {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}

func TestServiceGrantUpsertsLastWriterWins(t *testing.T) {
	repo := newStubEntitlementsRepo()
	svc := mustService(t, repo)
	userID := uuid.New()

	if err := svc.Grant(context.Background(), GrantParams{
		UserID:    userID,
		Source:    enums.EntitlementSourceDevAccount,
		Status:    enums.EntitlementStatusActive,
		GrantedBy: "ops",
	}); err != nil {
		t.Fatalf("first grant: %v", err)
	}

	if err := svc.Grant(context.Background(), GrantParams{
		UserID:    userID,
		Source:    enums.EntitlementSourceStripe,
		Status:    enums.EntitlementStatusInactive,
		GrantedBy: "reconciler",
	}); err != nil {
		t.Fatalf("second grant: %v", err)
	}

	stored := repo.byUser[userID]
	if stored == nil {
		t.Fatalf("expected stored entitlement")
	}
	if stored.Source != enums.EntitlementSourceStripe || stored.Status != enums.EntitlementStatusInactive {
		t.Fatalf("expected last write to win, got %+v", stored)
	}
	if repo.upserts != 2 {
		t.Fatalf("expected 2 upserts, got %d", repo.upserts)
	}
}

func TestServiceGrantValidatesParams(t *testing.T) {
	svc := mustService(t, newStubEntitlementsRepo())

	cases := []struct {
		name   string
		params GrantParams
	}{
		{name: "missing user", params: GrantParams{Source: enums.EntitlementSourceStripe, Status: enums.EntitlementStatusActive}},
		{name: "bad source", params: GrantParams{UserID: uuid.New(), Source: "friend", Status: enums.EntitlementStatusActive}},
		{name: "bad status", params: GrantParams{UserID: uuid.New(), Source: enums.EntitlementSourceStripe, Status: "paused"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Grant(context.Background(), tc.params)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func mustService(t *testing.T, repo entitlementsRepository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

type stubEntitlementsRepo struct {
	byUser  map[uuid.UUID]*models.Entitlement
	upserts int
}

func newStubEntitlementsRepo() *stubEntitlementsRepo {
	return &stubEntitlementsRepo{byUser: map[uuid.UUID]*models.Entitlement{}}
}

func (s *stubEntitlementsRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*models.Entitlement, error) {
	if ent, ok := s.byUser[userID]; ok {
		return ent, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubEntitlementsRepo) Upsert(_ context.Context, ent *models.Entitlement) error {
	s.upserts++
	copied := *ent
	if existing, ok := s.byUser[ent.UserID]; ok {
		copied.ID = existing.ID
		copied.CreatedAt = existing.CreatedAt
	} else {
		copied.ID = uuid.New()
		copied.CreatedAt = time.Now().UTC()
	}
	copied.UpdatedAt = time.Now().UTC()
	s.byUser[ent.UserID] = &copied
	return nil
}

package sharelinks

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/showsettle/showsettle-backend/pkg/db/models"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
)

func TestServiceCreateOrGetLinkMintsHexToken(t *testing.T) {
	owner := uuid.New()
	show := seedTestShow(owner)
	svc, _ := buildTestService(t, show)

	dto, err := svc.CreateOrGetLink(context.Background(), show.ID, owner)
	if err != nil {
		t.Fatalf("create link: %v", err)
	}
	if len(dto.Token) != 64 {
		t.Fatalf("expected 64-char hex token, got %d chars", len(dto.Token))
	}
	for _, c := range dto.Token {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Fatalf("expected lowercase hex token, got %q", dto.Token)
		}
	}
	if !dto.IsActive {
		t.Fatalf("expected new link to be active")
	}
}

func TestServiceCreateOrGetLinkIsIdempotent(t *testing.T) {
	owner := uuid.New()
	show := seedTestShow(owner)
	svc, _ := buildTestService(t, show)

	first, err := svc.CreateOrGetLink(context.Background(), show.ID, owner)
	if err != nil {
		t.Fatalf("create link: %v", err)
	}
	second, err := svc.CreateOrGetLink(context.Background(), show.ID, owner)
	if err != nil {
		t.Fatalf("repeat create link: %v", err)
	}
	if first.Token != second.Token {
		t.Fatalf("expected existing token to be returned unchanged")
	}
}

func TestServiceCreateOrGetLinkRejectsNonOwner(t *testing.T) {
	owner := uuid.New()
	show := seedTestShow(owner)
	svc, _ := buildTestService(t, show)

	_, err := svc.CreateOrGetLink(context.Background(), show.ID, uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestServiceToggleFailsWithoutLink(t *testing.T) {
	owner := uuid.New()
	show := seedTestShow(owner)
	svc, _ := buildTestService(t, show)

	_, err := svc.Toggle(context.Background(), show.ID, owner, false)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestServiceTogglePreservesToken(t *testing.T) {
	owner := uuid.New()
	show := seedTestShow(owner)
	svc, _ := buildTestService(t, show)

	created, err := svc.CreateOrGetLink(context.Background(), show.ID, owner)
	if err != nil {
		t.Fatalf("create link: %v", err)
	}

	toggled, err := svc.Toggle(context.Background(), show.ID, owner, false)
	if err != nil {
		t.Fatalf("toggle link: %v", err)
	}
	if toggled.IsActive {
		t.Fatalf("expected link to be inactive")
	}
	if toggled.Token != created.Token {
		t.Fatalf("toggling must never regenerate the token")
	}
}

func TestServiceResolveReturnsPublicProjection(t *testing.T) {
	owner := uuid.New()
	show := seedTestShow(owner)
	svc, _ := buildTestService(t, show)

	link, err := svc.CreateOrGetLink(context.Background(), show.ID, owner)
	if err != nil {
		t.Fatalf("create link: %v", err)
	}

	projection, err := svc.Resolve(context.Background(), link.Token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if projection.Title != show.Title {
		t.Fatalf("expected title %q, got %q", show.Title, projection.Title)
	}
	if projection.Input == nil || projection.Result == nil {
		t.Fatalf("expected decoded snapshots in projection")
	}
}

func TestServiceResolveDeactivatedMatchesNonexistent(t *testing.T) {
	owner := uuid.New()
	show := seedTestShow(owner)
	svc, _ := buildTestService(t, show)

	link, err := svc.CreateOrGetLink(context.Background(), show.ID, owner)
	if err != nil {
		t.Fatalf("create link: %v", err)
	}
	if _, err := svc.Toggle(context.Background(), show.ID, owner, false); err != nil {
		t.Fatalf("toggle link: %v", err)
	}

	_, deactivatedErr := svc.Resolve(context.Background(), link.Token)
	_, missingErr := svc.Resolve(context.Background(), "0000000000000000000000000000000000000000000000000000000000000000")

	if deactivatedErr == nil || missingErr == nil {
		t.Fatalf("expected both resolutions to fail")
	}
	if deactivatedErr.Error() != missingErr.Error() {
		t.Fatalf("deactivated and nonexistent tokens must be indistinguishable: %q vs %q",
			deactivatedErr.Error(), missingErr.Error())
	}
	assertCode(t, deactivatedErr, pkgerrors.CodeNotFound)
	assertCode(t, missingErr, pkgerrors.CodeNotFound)
}

func buildTestService(t *testing.T, seed ...*models.Show) (Service, *stubLinksRepo) {
	t.Helper()
	links := &stubLinksRepo{byShow: map[uuid.UUID]*models.ShareLink{}}
	showsRepo := &stubShowsRepo{byID: map[uuid.UUID]*models.Show{}}
	for _, show := range seed {
		showsRepo.byID[show.ID] = show
	}
	svc, err := NewService(links, showsRepo)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, links
}

func seedTestShow(owner uuid.UUID) *models.Show {
	return &models.Show{
		ID:      uuid.New(),
		UserID:  owner,
		Title:   "Shared Night",
		Inputs:  json.RawMessage(`{"schema_version":1,"input":{"tickets_sold":200}}`),
		Results: json.RawMessage(`{"schema_version":1,"result":{}}`),
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

type stubLinksRepo struct {
	byShow map[uuid.UUID]*models.ShareLink
}

func (s *stubLinksRepo) Create(_ context.Context, link *models.ShareLink) (*models.ShareLink, error) {
	if _, ok := s.byShow[link.ShowID]; ok {
		return nil, gorm.ErrDuplicatedKey
	}
	link.ID = uuid.New()
	link.CreatedAt = time.Now().UTC()
	s.byShow[link.ShowID] = link
	return link, nil
}

func (s *stubLinksRepo) FindByShowID(_ context.Context, showID uuid.UUID) (*models.ShareLink, error) {
	if link, ok := s.byShow[showID]; ok {
		return link, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLinksRepo) FindByToken(_ context.Context, token string) (*models.ShareLink, error) {
	for _, link := range s.byShow {
		if link.Token == token {
			return link, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLinksRepo) SetActive(_ context.Context, showID uuid.UUID, isActive bool) error {
	link, ok := s.byShow[showID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	link.IsActive = isActive
	return nil
}

type stubShowsRepo struct {
	byID map[uuid.UUID]*models.Show
}

func (s *stubShowsRepo) FindByIDForUser(_ context.Context, id, userID uuid.UUID) (*models.Show, error) {
	show, ok := s.byID[id]
	if !ok || show.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return show, nil
}

func (s *stubShowsRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Show, error) {
	if show, ok := s.byID[id]; ok {
		return show, nil
	}
	return nil, gorm.ErrRecordNotFound
}

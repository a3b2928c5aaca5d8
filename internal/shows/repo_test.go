package shows

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/showsettle/showsettle-backend/pkg/db/models"
	pkgpagination "github.com/showsettle/showsettle-backend/pkg/pagination"
)

func setupShowsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	shows := `
CREATE TABLE IF NOT EXISTS shows (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  title TEXT NOT NULL,
  inputs TEXT NOT NULL,
  results TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(shows).Error)
	return db
}

func seedShow(t *testing.T, db *gorm.DB, userID uuid.UUID, title string, created time.Time) *models.Show {
	t.Helper()

	show := &models.Show{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Inputs:    json.RawMessage(`{"schema_version":1,"input":{}}`),
		Results:   json.RawMessage(`{"schema_version":1,"result":{}}`),
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, db.Create(show).Error)
	return show
}

func TestRepositoryFindByIDForUserScopesToOwner(t *testing.T) {
	db := setupShowsTestDB(t)
	repo := NewRepository(db)
	owner := uuid.New()
	show := seedShow(t, db, owner, "Mine", time.Now().UTC())

	found, err := repo.FindByIDForUser(context.Background(), show.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, show.ID, found.ID)

	_, err = repo.FindByIDForUser(context.Background(), show.ID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateSnapshotsOnlyTouchesOwnedRow(t *testing.T) {
	db := setupShowsTestDB(t)
	repo := NewRepository(db)
	owner := uuid.New()
	show := seedShow(t, db, owner, "Before", time.Now().UTC())

	show.Title = "After"
	show.Inputs = json.RawMessage(`{"schema_version":1,"input":{"tickets_sold":5}}`)
	require.NoError(t, repo.UpdateSnapshots(context.Background(), show))

	reloaded, err := repo.FindByID(context.Background(), show.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", reloaded.Title)
	assert.JSONEq(t, `{"schema_version":1,"input":{"tickets_sold":5}}`, string(reloaded.Inputs))

	// An update attempted under the wrong owner must be a silent no-op.
	stolen := *show
	stolen.UserID = uuid.New()
	stolen.Title = "Hijacked"
	require.NoError(t, repo.UpdateSnapshots(context.Background(), &stolen))

	reloaded, err = repo.FindByID(context.Background(), show.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", reloaded.Title)
}

func TestRepositoryListPaginatesNewestFirst(t *testing.T) {
	db := setupShowsTestDB(t)
	repo := NewRepository(db)
	owner := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	oldest := seedShow(t, db, owner, "Oldest", base)
	middle := seedShow(t, db, owner, "Middle", base.Add(time.Minute))
	newest := seedShow(t, db, owner, "Newest", base.Add(2*time.Minute))
	seedShow(t, db, uuid.New(), "Other owner", base.Add(3*time.Minute))

	page, err := repo.List(context.Background(), listQuery{userID: owner, limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, newest.ID, page[0].ID)
	assert.Equal(t, middle.ID, page[1].ID)

	rest, err := repo.List(context.Background(), listQuery{
		userID: owner,
		limit:  2,
		cursor: &pkgpagination.Cursor{CreatedAt: middle.CreatedAt, ID: middle.ID},
	})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, oldest.ID, rest[0].ID)
}

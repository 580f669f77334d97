//go:build integration

package repository

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pagehub/pagehub-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPool connects to a migrated database from DATABASE_URL and empties
// the tables this package owns.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE activity_logs, linked_pages, admins RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

func TestPageRepository_UpsertIsIdempotentPerPageID(t *testing.T) {
	repo := NewPageRepository(newTestPool(t))
	ctx := context.Background()

	in := model.UpsertPageInput{
		PageID: "100", PageName: "First", PageCategory: "News", PageAccessToken: "tok-1",
		PageGrouping: model.PageGrouping{DetachmentName: "North"},
	}
	first, err := repo.Upsert(ctx, in)
	require.NoError(t, err)

	in.PageName = "Renamed"
	in.PageAccessToken = "tok-2"
	second, err := repo.Upsert(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Renamed", second.PageName)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "tok-2", all[0].PageAccessToken)

	_, err = repo.FindByPageID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPageRepository_ListByFilter(t *testing.T) {
	repo := NewPageRepository(newTestPool(t))
	ctx := context.Background()

	for _, p := range []model.UpsertPageInput{
		{PageID: "1", PageName: "a", PageAccessToken: "t", PageGrouping: model.PageGrouping{DetachmentName: "North", DistrictName: "A"}},
		{PageID: "2", PageName: "b", PageAccessToken: "t", PageGrouping: model.PageGrouping{DetachmentName: "South", DistrictName: "A"}},
		{PageID: "3", PageName: "c", PageAccessToken: "t", PageGrouping: model.PageGrouping{DetachmentName: "North", DistrictName: "B"}},
	} {
		_, err := repo.Upsert(ctx, p)
		require.NoError(t, err)
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	empty, err := repo.ListByFilter(ctx, model.PageFilter{Field: model.FilterDetachmentName})
	require.NoError(t, err)
	assert.Equal(t, all, empty)

	north, err := repo.ListByFilter(ctx, model.PageFilter{Field: model.FilterDetachmentName, Value: "North"})
	require.NoError(t, err)
	require.Len(t, north, 2)
	assert.Equal(t, "1", north[0].PageID)
	assert.Equal(t, "3", north[1].PageID)

	_, err = repo.ListByFilter(ctx, model.PageFilter{Field: "page_access_token", Value: "t"})
	assert.ErrorIs(t, err, ErrInvalidFilterField)
}

func TestAdminRepository_Lifecycle(t *testing.T) {
	repo := NewAdminRepository(newTestPool(t))
	ctx := context.Background()

	admin := &model.Admin{Email: "ops@example.com", Name: "Operator", PasswordHash: "x", Role: model.RoleDistrictAdmin, IsActive: true}
	require.NoError(t, repo.Create(ctx, admin))
	assert.NotZero(t, admin.ID)

	dup := *admin
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrDuplicate)

	now := time.Now()
	require.NoError(t, repo.MarkLoggedIn(ctx, admin.ID, now))
	got, err := repo.GetByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.True(t, got.IsLoggedIn)
	require.NotNil(t, got.LastLogin)

	require.NoError(t, repo.SetResetToken(ctx, admin.ID, "tok", now.Add(time.Hour)))
	byToken, err := repo.GetByResetToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, byToken.ID)

	require.NoError(t, repo.UpdatePassword(ctx, admin.ID, "y"))
	_, err = repo.GetByResetToken(ctx, "tok")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestActivityRepository_BulkInsertAndList(t *testing.T) {
	pool := newTestPool(t)
	admins := NewAdminRepository(pool)
	repo := NewActivityRepository(pool)
	ctx := context.Background()

	admin := &model.Admin{Email: "a@example.com", Name: "Operator", PasswordHash: "x", Role: model.RoleSuperAdmin, IsActive: true}
	require.NoError(t, admins.Create(ctx, admin))

	base := time.Now().Add(-time.Minute).UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.BulkInsert(ctx, []*model.ActivityRecord{
		{AdminID: admin.ID, Action: model.ActionLogin, CreatedAt: base},
		{AdminID: admin.ID, Action: model.ActionCreatePost, Details: json.RawMessage(`{"pageIds":["1"]}`), CreatedAt: base.Add(time.Second)},
	}))
	require.NoError(t, repo.Insert(ctx, &model.ActivityRecord{AdminID: admin.ID, Action: model.ActionLogout, CreatedAt: base.Add(2 * time.Second)}))

	recs, err := repo.ListByAdmin(ctx, admin.ID, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, model.ActionLogout, recs[0].Action)
	assert.Equal(t, model.ActionCreatePost, recs[1].Action)
	assert.JSONEq(t, `{"pageIds":["1"]}`, string(recs[1].Details))
}

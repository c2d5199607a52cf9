package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"poolfinder/internal/config"
	"poolfinder/internal/db"
	"poolfinder/internal/models"
	gormrepository "poolfinder/internal/repository/gorm"
)

func newTestStore(t *testing.T) *gormrepository.Store {
	t.Helper()
	conn, err := db.Open(config.DBConfig{Driver: db.DriverSQLite, DSN: ":memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, db.AutoMigrate(conn))
	return gormrepository.New(conn.Gorm)
}

func record(name, sourceAPI, sourceID string) PoolRecord {
	rec, err := NormalizeFacility(facility(name, "서울특별시", "송파구"), nil)
	if err != nil {
		panic(err)
	}
	rec.SourceAPI = sourceAPI
	rec.SourceID = sourceID
	return rec
}

func countPools(t *testing.T, store *gormrepository.Store) int64 {
	t.Helper()
	n, err := store.CountPools(context.Background(), listAll())
	require.NoError(t, err)
	return n
}

func TestUpsert_IdempotentBySlug(t *testing.T) {
	store := newTestStore(t)
	u := &Upserter{Store: store, Logger: zap.NewNop(), Key: NaturalKeySlug}
	records := []PoolRecord{
		record("잠실 수영장", models.SourceNationalFacility, "nf_a"),
		record("송파 수영장", models.SourceNationalFacility, "nf_b"),
	}
	ctx := context.Background()

	first := u.Upsert(ctx, records)
	assert.Equal(t, UpsertResult{Inserted: 2}, first)

	second := u.Upsert(ctx, records)
	assert.Equal(t, UpsertResult{Updated: 2}, second)
	assert.EqualValues(t, 2, countPools(t, store))
}

func TestUpsert_SameSlugDifferentSourceIsDisambiguated(t *testing.T) {
	store := newTestStore(t)
	u := &Upserter{Store: store, Key: NaturalKeySourceID}
	ctx := context.Background()

	a := record("시민 수영장", models.SourceLocalData, "1111111-01")
	b := record("시민 수영장", models.SourceLocalData, "2222222-02")
	res := u.Upsert(ctx, []PoolRecord{a, b})
	assert.Equal(t, UpsertResult{Inserted: 2, Disambiguated: 1}, res)

	got, err := store.FindPoolBySource(ctx, models.SourceLocalData, "2222222-02")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "시민-수영장-222222", got.Slug)

	// Rerun: both match on source id, slugs stay as first assigned.
	res = u.Upsert(ctx, []PoolRecord{a, b})
	assert.Equal(t, UpsertResult{Updated: 2}, res)
	again, err := store.FindPoolBySource(ctx, models.SourceLocalData, "2222222-02")
	require.NoError(t, err)
	assert.Equal(t, "시민-수영장-222222", again.Slug)
	assert.EqualValues(t, 2, countPools(t, store))
}

func TestUpsert_SecondCollisionIsCountedError(t *testing.T) {
	store := newTestStore(t)
	u := &Upserter{Store: store, Key: NaturalKeySourceID}
	ctx := context.Background()

	a := record("풀", models.SourceLocalData, "abcdef-1")
	b := record("풀", models.SourceLocalData, "abcdef-2")
	c := record("풀", models.SourceLocalData, "abcdef-3")
	res := u.Upsert(ctx, []PoolRecord{a, b, c})
	// b takes 풀-abcdef, c derives the same fragment and has no further retry.
	assert.Equal(t, UpsertResult{Inserted: 2, Disambiguated: 1, Errors: 1}, res)
	assert.EqualValues(t, 2, countPools(t, store))
}

func TestUpsert_SlugModeUpdatesInPlace(t *testing.T) {
	store := newTestStore(t)
	u := &Upserter{Store: store}
	ctx := context.Background()

	rec := record("올림픽 수영장", models.SourceNationalFacility, "nf_x")
	lanes := 8
	rec.LaneCount = &lanes
	require.Equal(t, 1, u.Upsert(ctx, []PoolRecord{rec}).Inserted)
	before, err := store.FindPoolBySlug(ctx, rec.Slug)
	require.NoError(t, err)

	rec.LaneCount = nil
	rec.Phone = strPtr("02-000-0000")
	require.Equal(t, 1, u.Upsert(ctx, []PoolRecord{rec}).Updated)
	after, err := store.FindPoolBySlug(ctx, rec.Slug)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Nil(t, after.LaneCount)
	require.NotNil(t, after.Phone)
	assert.Equal(t, "02-000-0000", *after.Phone)
	assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))
}

func TestUpsert_PerRecordErrorsDoNotAbort(t *testing.T) {
	store := newTestStore(t)
	u := &Upserter{Store: store, Key: NaturalKeySourceID, MaxLoggedErrors: 1, Logger: zap.NewNop()}
	bad := record("무번호 수영장", models.SourceLocalData, "")
	empty := record("빈 슬러그", models.SourceLocalData, "x-1")
	empty.Slug = " "
	good := record("정상 수영장", models.SourceLocalData, "ok-1")

	res := u.Upsert(context.Background(), []PoolRecord{bad, empty, good})
	assert.Equal(t, UpsertResult{Inserted: 1, Errors: 2}, res)
}

func TestUpsert_NilStoreCountsEverythingAsError(t *testing.T) {
	var u *Upserter
	res := u.Upsert(context.Background(), []PoolRecord{{}, {}})
	assert.Equal(t, 2, res.Errors)
}

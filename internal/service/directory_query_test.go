package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolfinder/internal/models"
	"poolfinder/internal/repository"
	gormrepository "poolfinder/internal/repository/gorm"
)

func insertPool(t *testing.T, store *gormrepository.Store, name, slug, sido, sidoSlug, sigungu string) *models.Pool {
	t.Helper()
	p := &models.Pool{
		Name:        name,
		Slug:        slug,
		Sido:        sido,
		SidoSlug:    sidoSlug,
		Sigungu:     sigungu,
		SigunguSlug: sigungu,
		Address:     strPtr(sido + " " + sigungu + " 1"),
		IsOperating: true,
	}
	require.NoError(t, store.InsertPool(context.Background(), p))
	return p
}

func TestDirectory_RegionsMergeSpellings(t *testing.T) {
	store := newTestStore(t)
	insertPool(t, store, "a", "a", "서울특별시", "seoul", "중구")
	insertPool(t, store, "b", "b", "서울", "seoul", "종로구")
	insertPool(t, store, "c", "c", "부산광역시", "busan", "중구")
	svc := NewDirectoryQueryService(store, time.Minute, nil)

	idx, err := svc.Regions(context.Background())
	require.NoError(t, err)
	require.Len(t, idx.Regions, 2)
	assert.Equal(t, int64(3), idx.Total)
	assert.Equal(t, RegionSummary{Slug: "seoul", Name: "서울특별시", ShortName: "서울", Count: 2}, idx.Regions[0])
	assert.Len(t, idx.Sidos, 17)

	// Cached: a new row is not visible until invalidation.
	insertPool(t, store, "d", "d", "부산광역시", "busan", "남구")
	idx, err = svc.Regions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), idx.Total)
	svc.InvalidateCounts()
	idx, err = svc.Regions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), idx.Total)
}

func TestDirectory_SidoAndSigunguPages(t *testing.T) {
	store := newTestStore(t)
	insertPool(t, store, "a", "a", "서울특별시", "seoul", "중구")
	insertPool(t, store, "b", "b", "서울특별시", "seoul", "중구")
	insertPool(t, store, "c", "c", "서울특별시", "seoul", "종로구")
	svc := NewDirectoryQueryService(store, 0, nil)
	ctx := context.Background()

	page, err := svc.SidoPage(ctx, "Seoul", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, "서울특별시", page.Sido.Name)
	require.Len(t, page.Sigungus, 2)
	assert.Equal(t, "중구", page.Sigungus[0].Slug)
	assert.Equal(t, int64(2), page.Sigungus[0].Count)

	empty, err := svc.SidoPage(ctx, "jeju", 0, 0)
	require.NoError(t, err, "known sido without pools is an empty page")
	assert.Empty(t, empty.Pools)

	_, err = svc.SidoPage(ctx, "atlantis", 0, 0)
	assert.True(t, errors.Is(err, ErrNotFound))

	sg, err := svc.SigunguPage(ctx, "seoul", "종로구")
	require.NoError(t, err)
	assert.Equal(t, "종로구", sg.Sigungu.Name)
	assert.Len(t, sg.Pools, 1)

	_, err = svc.SigunguPage(ctx, "seoul", "강남구")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectory_PoolDetail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := insertPool(t, store, "시청 수영장", "시청-수영장", "서울특별시", "seoul", "중구")
	lat, lng := decimal.RequireFromString("37.5665"), decimal.RequireFromString("126.978")
	p.Lat, p.Lng = &lat, &lng
	require.NoError(t, store.UpdatePool(ctx, p))
	for i := 0; i < 6; i++ {
		insertPool(t, store, fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", i), "서울특별시", "seoul", "중구")
	}
	svc := NewDirectoryQueryService(store, 0, nil)

	detail, err := svc.PoolDetail(ctx, "시청-수영장")
	require.NoError(t, err)
	assert.Equal(t, p.ID, detail.Pool.ID)
	require.Len(t, detail.Tiles, 4)
	assert.Equal(t, "https://tile.openstreetmap.org/15/27941/12689.png", detail.Tiles[0].URL)
	assert.Contains(t, detail.KakaoURL, "37.5665,126.978")
	assert.Contains(t, detail.NaverURL, "?c=126.978,37.5665")
	assert.Len(t, detail.Nearby, 4)
	for _, n := range detail.Nearby {
		assert.NotEqual(t, p.ID, n.ID)
	}

	plain, err := svc.PoolDetail(ctx, "n0")
	require.NoError(t, err)
	assert.Empty(t, plain.Tiles)
	assert.Empty(t, plain.KakaoURL)
	assert.NotEmpty(t, plain.NaverURL)

	_, err = svc.PoolDetail(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectory_SearchFallsBackToAddress(t *testing.T) {
	store := newTestStore(t)
	insertPool(t, store, "송파 수영장", "songpa", "서울특별시", "seoul", "송파구")
	insertPool(t, store, "잠실 아쿠아", "jamsil", "서울특별시", "seoul", "송파구")
	insertPool(t, store, "부산 수영장", "busan-pool", "부산광역시", "busan", "중구")
	svc := NewDirectoryQueryService(store, 0, nil)
	ctx := context.Background()

	res, err := svc.Search(ctx, "송파")
	require.NoError(t, err)
	assert.True(t, res.AddressFallback)
	require.Len(t, res.Items, 2, "name hit plus address-only hit, deduplicated")
	assert.Equal(t, "songpa", res.Items[0].Slug)
	assert.Equal(t, "jamsil", res.Items[1].Slug)

	res, err = svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestDirectory_SearchSkipsFallbackWithEnoughNameHits(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 5; i++ {
		insertPool(t, store, fmt.Sprintf("풀 %d", i), fmt.Sprintf("p%d", i), "서울특별시", "seoul", "중구")
	}
	insertPool(t, store, "다른곳", "other", "서울특별시", "seoul", "풀구")
	svc := NewDirectoryQueryService(store, 0, nil)

	res, err := svc.Search(context.Background(), "풀")
	require.NoError(t, err)
	assert.False(t, res.AddressFallback)
	assert.Len(t, res.Items, 5)
}

func TestDirectory_PopularFreeSwimRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	a := insertPool(t, store, "a", "a", "서울특별시", "seoul", "중구")
	insertPool(t, store, "b", "b", "부산광역시", "busan", "중구")
	require.NoError(t, store.AddReview(ctx, &models.Review{PoolID: a.ID, Rating: 5}))
	official := models.ScheduleSourceOfficial
	require.NoError(t, store.ReplaceSchedules(ctx, a.ID, []models.FreeSwimSchedule{
		{DayOfWeek: 6, StartTime: "10:00", EndTime: "12:00", Source: &official},
	}))
	svc := NewDirectoryQueryService(store, 0, nil)

	popular, err := svc.PopularPools(ctx, 0)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, a.ID, popular[0].Pool.ID)
	assert.Equal(t, int64(1), popular[0].ReviewCount)

	seoul := "seoul"
	free, err := svc.FreeSwimPools(ctx, &seoul, 0)
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Len(t, free[0].Schedules, 1)

	busan := "busan"
	free, err = svc.FreeSwimPools(ctx, &busan, 0)
	require.NoError(t, err)
	assert.Empty(t, free)

	recent, err := svc.RecentPools(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	list, err := svc.ListPools(ctx, repository.ListPoolsParams{SidoSlug: &busan})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
}

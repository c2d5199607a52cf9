package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"poolfinder/internal/geo"
	"poolfinder/internal/models"
	"poolfinder/internal/region"
	"poolfinder/internal/repository"
)

var ErrNotFound = errors.New("not found")

const (
	recentPoolsLimit    = 24
	detailReviewLimit   = 20
	nearbyPoolsLimit    = 4
	searchLimit         = 40
	addressFallbackMin  = 5
	popularPoolsLimit   = 8
	regionPoolsMaxLimit = 500

	sidoCountsKey = "counts:sido"
)

type DirectoryQueryService struct {
	Repo   repository.DirectoryRepository
	Cache  *cache.Cache
	Logger *zap.Logger
}

// NewDirectoryQueryService caches region counts for ttl; ttl <= 0 disables
// the cache.
func NewDirectoryQueryService(repo repository.DirectoryRepository, ttl time.Duration, logger *zap.Logger) *DirectoryQueryService {
	svc := &DirectoryQueryService{Repo: repo, Logger: logger}
	if ttl > 0 {
		svc.Cache = cache.New(ttl, ttl*2)
	}
	return svc
}

type RegionSummary struct {
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Count     int64  `json:"count"`
}

type RegionIndex struct {
	Total   int64           `json:"total"`
	Regions []RegionSummary `json:"regions"`
	Sidos   []region.Sido   `json:"sidos"`
}

type PoolListResult struct {
	Items []models.Pool
	Total int64
}

type SidoPage struct {
	Sido     RegionSummary   `json:"sido"`
	Sigungus []RegionSummary `json:"sigungus"`
	Pools    []models.Pool   `json:"pools"`
	Total    int64           `json:"total"`
}

type SigunguPage struct {
	Sido    RegionSummary `json:"sido"`
	Sigungu RegionSummary `json:"sigungu"`
	Pools   []models.Pool `json:"pools"`
}

type PoolDetail struct {
	Pool     *models.Pool   `json:"pool"`
	Tiles    []geo.GridTile `json:"tiles,omitempty"`
	KakaoURL string         `json:"kakao_url,omitempty"`
	NaverURL string         `json:"naver_url"`
	Nearby   []models.Pool  `json:"nearby"`
}

type SearchResult struct {
	Query           string        `json:"query"`
	Items           []models.Pool `json:"items"`
	AddressFallback bool          `json:"address_fallback"`
}

// Regions returns operating pool counts per sido, merged by slug so that
// short and official spellings of one sido count once.
func (s *DirectoryQueryService) Regions(ctx context.Context) (RegionIndex, error) {
	regions, err := s.sidoCounts(ctx)
	if err != nil {
		return RegionIndex{}, err
	}
	var total int64
	for _, r := range regions {
		total += r.Count
	}
	return RegionIndex{Total: total, Regions: regions, Sidos: region.Sidos()}, nil
}

func (s *DirectoryQueryService) sidoCounts(ctx context.Context) ([]RegionSummary, error) {
	if s.Cache != nil {
		if cached, ok := s.Cache.Get(sidoCountsKey); ok {
			return cached.([]RegionSummary), nil
		}
	}
	rows, err := s.Repo.CountPoolsBySido(ctx)
	if err != nil {
		return nil, err
	}
	out := mergeRegionCounts(rows, func(slug, name string) string {
		if official, ok := region.SlugToSido(slug); ok {
			return official
		}
		return name
	})
	if s.Cache != nil {
		s.Cache.Set(sidoCountsKey, out, cache.DefaultExpiration)
	}
	return out, nil
}

func (s *DirectoryQueryService) sigunguCounts(ctx context.Context, sidoSlug string) ([]RegionSummary, error) {
	key := "counts:sigungu:" + sidoSlug
	if s.Cache != nil {
		if cached, ok := s.Cache.Get(key); ok {
			return cached.([]RegionSummary), nil
		}
	}
	rows, err := s.Repo.CountPoolsBySigungu(ctx, sidoSlug)
	if err != nil {
		return nil, err
	}
	out := mergeRegionCounts(rows, func(_, name string) string { return name })
	if s.Cache != nil {
		s.Cache.Set(key, out, cache.DefaultExpiration)
	}
	return out, nil
}

// InvalidateCounts drops cached region counts, e.g. after a sync.
func (s *DirectoryQueryService) InvalidateCounts() {
	if s != nil && s.Cache != nil {
		s.Cache.Flush()
	}
}

func mergeRegionCounts(rows []repository.RegionCount, nameFor func(slug, name string) string) []RegionSummary {
	bySlug := make(map[string]*RegionSummary, len(rows))
	order := make([]string, 0, len(rows))
	for _, r := range rows {
		slug := strings.TrimSpace(r.Slug)
		if slug == "" {
			continue
		}
		if cur, ok := bySlug[slug]; ok {
			cur.Count += r.Count
			continue
		}
		name := nameFor(slug, r.Name)
		bySlug[slug] = &RegionSummary{Slug: slug, Name: name, ShortName: region.ShortSido(name), Count: r.Count}
		order = append(order, slug)
	}
	out := make([]RegionSummary, 0, len(order))
	for _, slug := range order {
		out = append(out, *bySlug[slug])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}

// RecentPools lists the most recently updated operating pools.
func (s *DirectoryQueryService) RecentPools(ctx context.Context, limit int) ([]models.Pool, error) {
	return s.Repo.ListPools(ctx, repository.ListPoolsParams{
		Limit:         normalizeLimit(limit, recentPoolsLimit, regionPoolsMaxLimit),
		OperatingOnly: true,
		OrderBy:       "updated_at",
	})
}

func (s *DirectoryQueryService) ListPools(ctx context.Context, params repository.ListPoolsParams) (PoolListResult, error) {
	total, err := s.Repo.CountPools(ctx, params)
	if err != nil {
		return PoolListResult{}, err
	}
	items, err := s.Repo.ListPools(ctx, params)
	if err != nil {
		return PoolListResult{}, err
	}
	return PoolListResult{Items: items, Total: total}, nil
}

// SidoPage returns the pools of one sido with its sigungu breakdown.
// Unknown slugs without any pool are ErrNotFound.
func (s *DirectoryQueryService) SidoPage(ctx context.Context, sidoSlug string, limit, offset int) (SidoPage, error) {
	sidoSlug = strings.ToLower(strings.TrimSpace(sidoSlug))
	list, err := s.ListPools(ctx, repository.ListPoolsParams{
		Limit:         normalizeLimit(limit, regionPoolsMaxLimit, regionPoolsMaxLimit),
		Offset:        offset,
		SidoSlug:      &sidoSlug,
		OperatingOnly: true,
		OrderBy:       "updated_at",
	})
	if err != nil {
		return SidoPage{}, err
	}
	name, known := region.SlugToSido(sidoSlug)
	if !known {
		if len(list.Items) == 0 {
			return SidoPage{}, ErrNotFound
		}
		name = list.Items[0].Sido
	}
	sigungus, err := s.sigunguCounts(ctx, sidoSlug)
	if err != nil {
		return SidoPage{}, err
	}
	return SidoPage{
		Sido:     RegionSummary{Slug: sidoSlug, Name: name, ShortName: region.ShortSido(name), Count: list.Total},
		Sigungus: sigungus,
		Pools:    list.Items,
		Total:    list.Total,
	}, nil
}

// SigunguPage returns the pools of one sigungu. An empty sigungu is
// ErrNotFound because its display name can only come from a row.
func (s *DirectoryQueryService) SigunguPage(ctx context.Context, sidoSlug, sigunguSlug string) (SigunguPage, error) {
	sidoSlug = strings.ToLower(strings.TrimSpace(sidoSlug))
	sigunguSlug = strings.TrimSpace(sigunguSlug)
	items, err := s.Repo.ListPools(ctx, repository.ListPoolsParams{
		Limit:         regionPoolsMaxLimit,
		SidoSlug:      &sidoSlug,
		SigunguSlug:   &sigunguSlug,
		OperatingOnly: true,
		OrderBy:       "updated_at",
	})
	if err != nil {
		return SigunguPage{}, err
	}
	if len(items) == 0 {
		return SigunguPage{}, ErrNotFound
	}
	sidoName, ok := region.SlugToSido(sidoSlug)
	if !ok {
		sidoName = items[0].Sido
	}
	return SigunguPage{
		Sido:    RegionSummary{Slug: sidoSlug, Name: sidoName, ShortName: region.ShortSido(sidoName)},
		Sigungu: RegionSummary{Slug: sigunguSlug, Name: items[0].Sigungu, Count: int64(len(items))},
		Pools:   items,
	}, nil
}

// PoolDetail loads a pool with its children, map links, tile grid and up to
// four nearby pools in the same sigungu.
func (s *DirectoryQueryService) PoolDetail(ctx context.Context, slug string) (PoolDetail, error) {
	pool, err := s.Repo.GetPoolDetail(ctx, strings.TrimSpace(slug), detailReviewLimit)
	if err != nil {
		return PoolDetail{}, err
	}
	if pool == nil {
		return PoolDetail{}, ErrNotFound
	}
	detail := PoolDetail{Pool: pool}
	var latPtr, lngPtr *float64
	if pool.HasCoordinates() {
		lat := pool.Lat.InexactFloat64()
		lng := pool.Lng.InexactFloat64()
		latPtr, lngPtr = &lat, &lng
		detail.Tiles = geo.TileGrid(lat, lng, geo.DefaultZoom)
		detail.KakaoURL = geo.KakaoMapURL(pool.Name, lat, lng)
	}
	detail.NaverURL = geo.NaverMapURL(pool.Name, latPtr, lngPtr)

	nearby, err := s.Repo.ListNearbyPools(ctx, pool, nearbyPoolsLimit)
	if err != nil {
		// Nearby pools are decoration; the detail itself is still served.
		if s.Logger != nil {
			s.Logger.Warn("nearby pools lookup failed", zap.String("slug", pool.Slug), zap.Error(err))
		}
		nearby = nil
	}
	detail.Nearby = nearby
	if detail.Nearby == nil {
		detail.Nearby = []models.Pool{}
	}
	return detail, nil
}

// Search matches pool names first and falls back to addresses when fewer
// than five names match. Results are deduplicated by id.
func (s *DirectoryQueryService) Search(ctx context.Context, query string) (SearchResult, error) {
	query = strings.TrimSpace(query)
	result := SearchResult{Query: query, Items: []models.Pool{}}
	if query == "" {
		return result, nil
	}
	byName, err := s.Repo.SearchPools(ctx, repository.SearchPoolsParams{
		Query:         query,
		Field:         repository.SearchByName,
		Limit:         searchLimit,
		OperatingOnly: true,
	})
	if err != nil {
		return result, err
	}
	result.Items = append(result.Items, byName...)
	if len(byName) >= addressFallbackMin {
		return result, nil
	}

	byAddr, err := s.Repo.SearchPools(ctx, repository.SearchPoolsParams{
		Query:         query,
		Field:         repository.SearchByAddress,
		Limit:         searchLimit,
		OperatingOnly: true,
	})
	if err != nil {
		return result, err
	}
	seen := make(map[string]struct{}, len(result.Items)+len(byAddr))
	for _, p := range result.Items {
		seen[p.ID] = struct{}{}
	}
	for _, p := range byAddr {
		if len(result.Items) >= searchLimit {
			break
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		result.Items = append(result.Items, p)
		result.AddressFallback = true
	}
	return result, nil
}

func (s *DirectoryQueryService) PopularPools(ctx context.Context, limit int) ([]repository.PopularPool, error) {
	return s.Repo.ListPopularPools(ctx, normalizeLimit(limit, popularPoolsLimit, 50))
}

func (s *DirectoryQueryService) FreeSwimPools(ctx context.Context, sidoSlug *string, limit int) ([]models.Pool, error) {
	return s.Repo.ListPoolsWithFreeSwim(ctx, sidoSlug, normalizeLimit(limit, 100, regionPoolsMaxLimit))
}

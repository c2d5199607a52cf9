package gormrepository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"poolfinder/internal/models"
	"poolfinder/internal/repository"
)

func (s *Store) FindPoolBySlug(ctx context.Context, slug string) (*models.Pool, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	var item models.Pool
	err := s.db.WithContext(ctx).Where("slug = ?", slug).Limit(1).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) FindPoolBySource(ctx context.Context, sourceAPI, sourceID string) (*models.Pool, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	sourceAPI = strings.TrimSpace(sourceAPI)
	sourceID = strings.TrimSpace(sourceID)
	if sourceAPI == "" || sourceID == "" {
		return nil, nil
	}
	var item models.Pool
	err := s.db.WithContext(ctx).
		Where("source_api = ?", sourceAPI).
		Where("source_id = ?", sourceID).
		Limit(1).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) InsertPool(ctx context.Context, item *models.Pool) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return translateError(s.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error)
}

// UpdatePool overwrites every mutable column of the row identified by item.ID,
// including columns whose new value is NULL.
func (s *Store) UpdatePool(ctx context.Context, item *models.Pool) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.ID == "" {
		return errors.New("update pool: missing id")
	}
	res := s.db.WithContext(ctx).
		Model(item).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(item)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) ListPools(ctx context.Context, params repository.ListPoolsParams) ([]models.Pool, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.poolFilter(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "updated_at")
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.Pool
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountPools(ctx context.Context, params repository.ListPoolsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.poolFilter(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) poolFilter(ctx context.Context, params repository.ListPoolsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Pool{})
	if params.SidoSlug != nil && strings.TrimSpace(*params.SidoSlug) != "" {
		query = query.Where("sido_slug = ?", strings.TrimSpace(*params.SidoSlug))
	}
	if params.SigunguSlug != nil && strings.TrimSpace(*params.SigunguSlug) != "" {
		query = query.Where("sigungu_slug = ?", strings.TrimSpace(*params.SigunguSlug))
	}
	if params.OperatingOnly {
		query = query.Where("is_operating = ?", true)
	}
	return query
}

// GetPoolDetail loads a pool with its schedules, prices and the newest reviews.
func (s *Store) GetPoolDetail(ctx context.Context, slug string, reviewLimit int) (*models.Pool, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	reviewLimit = normalizeLimit(reviewLimit, 20)
	var item models.Pool
	err := s.db.WithContext(ctx).
		Preload("Schedules", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week asc").Order("start_time asc")
		}).
		Preload("Prices", func(db *gorm.DB) *gorm.DB {
			return db.Order("category asc").Order("price asc")
		}).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at desc").Limit(reviewLimit)
		}).
		Where("slug = ?", strings.TrimSpace(slug)).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SearchPools(ctx context.Context, params repository.SearchPoolsParams) ([]models.Pool, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if strings.TrimSpace(params.Query) == "" {
		return nil, nil
	}
	column := "name"
	if params.Field == repository.SearchByAddress {
		column = "address"
	}
	query := s.db.WithContext(ctx).
		Model(&models.Pool{}).
		Where("LOWER("+column+") LIKE ? ESCAPE '\\'", likePattern(params.Query))
	if params.OperatingOnly {
		query = query.Where("is_operating = ?", true)
	}
	var items []models.Pool
	if err := query.Order("name asc").Limit(normalizeLimit(params.Limit, 20)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountPoolsBySido(ctx context.Context) ([]repository.RegionCount, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []repository.RegionCount
	err := s.db.WithContext(ctx).
		Model(&models.Pool{}).
		Select("sido_slug AS slug, sido AS name, COUNT(*) AS total").
		Where("is_operating = ?", true).
		Group("sido_slug, sido").
		Order("total desc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) CountPoolsBySigungu(ctx context.Context, sidoSlug string) ([]repository.RegionCount, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []repository.RegionCount
	err := s.db.WithContext(ctx).
		Model(&models.Pool{}).
		Select("sigungu_slug AS slug, sigungu AS name, COUNT(*) AS total").
		Where("is_operating = ?", true).
		Where("sido_slug = ?", strings.TrimSpace(sidoSlug)).
		Group("sigungu_slug, sigungu").
		Order("total desc").
		Order("name asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListNearbyPools returns other operating pools in the same sigungu.
func (s *Store) ListNearbyPools(ctx context.Context, pool *models.Pool, limit int) ([]models.Pool, error) {
	if s == nil || s.db == nil || pool == nil {
		return nil, nil
	}
	var items []models.Pool
	err := s.db.WithContext(ctx).
		Model(&models.Pool{}).
		Where("sido_slug = ?", pool.SidoSlug).
		Where("sigungu_slug = ?", pool.SigunguSlug).
		Where("id <> ?", pool.ID).
		Where("is_operating = ?", true).
		Order("updated_at desc").
		Limit(normalizeLimit(limit, 4)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListPopularPools ranks operating pools by review count.
func (s *Store) ListPopularPools(ctx context.Context, limit int) ([]repository.PopularPool, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var pools []models.Pool
	err := s.db.WithContext(ctx).
		Model(&models.Pool{}).
		Where("is_operating = ?", true).
		Order("(SELECT COUNT(*) FROM reviews r WHERE r.pool_id = pools.id) desc").
		Order("updated_at desc").
		Limit(normalizeLimit(limit, 8)).
		Find(&pools).Error
	if err != nil {
		return nil, err
	}
	if len(pools) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(pools))
	for _, p := range pools {
		ids = append(ids, p.ID)
	}
	var counts []struct {
		PoolID string
		Total  int64
	}
	err = s.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("pool_id, COUNT(*) AS total").
		Where("pool_id IN ?", ids).
		Group("pool_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	byPool := make(map[string]int64, len(counts))
	for _, c := range counts {
		byPool[c.PoolID] = c.Total
	}

	out := make([]repository.PopularPool, 0, len(pools))
	for _, p := range pools {
		out = append(out, repository.PopularPool{Pool: p, ReviewCount: byPool[p.ID]})
	}
	return out, nil
}

// ListPoolsWithFreeSwim returns operating pools that publish at least one
// free-swim session, schedules ordered by weekday then start time.
func (s *Store) ListPoolsWithFreeSwim(ctx context.Context, sidoSlug *string, limit int) ([]models.Pool, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Pool{}).
		Preload("Schedules", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week asc").Order("start_time asc")
		}).
		Where("is_operating = ?", true).
		Where("EXISTS (SELECT 1 FROM free_swim_schedules fs WHERE fs.pool_id = pools.id)")
	if sidoSlug != nil && strings.TrimSpace(*sidoSlug) != "" {
		query = query.Where("sido_slug = ?", strings.TrimSpace(*sidoSlug))
	}
	var items []models.Pool
	if err := query.Order("updated_at desc").Limit(normalizeLimit(limit, 100)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

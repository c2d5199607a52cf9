package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"poolfinder/internal/models"
)

// ErrDuplicateKey is returned when a write violates a unique constraint
// (pool slug or source id). Callers test for it with errors.Is.
var ErrDuplicateKey = errors.New("duplicate key")

// PoolRepository is the natural-key lookup and write surface used by the sync.
type PoolRepository interface {
	FindPoolBySlug(ctx context.Context, slug string) (*models.Pool, error)
	FindPoolBySource(ctx context.Context, sourceAPI, sourceID string) (*models.Pool, error)
	InsertPool(ctx context.Context, item *models.Pool) error
	UpdatePool(ctx context.Context, item *models.Pool) error
}

type SyncStateRepository interface {
	GetSyncState(ctx context.Context, source string) (*models.SyncState, error)
	SaveSyncState(ctx context.Context, state *models.SyncState) error
	ListSyncStates(ctx context.Context) ([]models.SyncState, error)
}

// DirectoryRepository serves the read side of the directory.
type DirectoryRepository interface {
	ListPools(ctx context.Context, params ListPoolsParams) ([]models.Pool, error)
	CountPools(ctx context.Context, params ListPoolsParams) (int64, error)
	GetPoolDetail(ctx context.Context, slug string, reviewLimit int) (*models.Pool, error)
	SearchPools(ctx context.Context, params SearchPoolsParams) ([]models.Pool, error)
	CountPoolsBySido(ctx context.Context) ([]RegionCount, error)
	CountPoolsBySigungu(ctx context.Context, sidoSlug string) ([]RegionCount, error)
	ListNearbyPools(ctx context.Context, pool *models.Pool, limit int) ([]models.Pool, error)
	ListPopularPools(ctx context.Context, limit int) ([]PopularPool, error)
	ListPoolsWithFreeSwim(ctx context.Context, sidoSlug *string, limit int) ([]models.Pool, error)
}

// ChildRepository manages schedules, prices and reviews attached to a pool.
type ChildRepository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	ReplaceSchedules(ctx context.Context, poolID string, items []models.FreeSwimSchedule) error
	AddPrice(ctx context.Context, item *models.PoolPrice) error
	AddReview(ctx context.Context, item *models.Review) error
	DeletePool(ctx context.Context, id string) error
}

type Repository interface {
	PoolRepository
	SyncStateRepository
	DirectoryRepository
	ChildRepository
}

type ListPoolsParams struct {
	Limit         int
	Offset        int
	SidoSlug      *string
	SigunguSlug   *string
	OperatingOnly bool
	OrderBy       string
	Asc           *bool
}

// SearchField selects the column a search matches against.
type SearchField string

const (
	SearchByName    SearchField = "name"
	SearchByAddress SearchField = "address"
)

type SearchPoolsParams struct {
	Query         string
	Field         SearchField
	Limit         int
	OperatingOnly bool
}

type RegionCount struct {
	Slug  string `gorm:"column:slug" json:"slug"`
	Name  string `gorm:"column:name" json:"name"`
	Count int64  `gorm:"column:total" json:"count"`
}

type PopularPool struct {
	Pool        models.Pool `json:"pool"`
	ReviewCount int64       `json:"review_count"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PoolType string

const (
	PoolTypePublic  PoolType = "public"
	PoolTypePrivate PoolType = "private"
)

const (
	SourceNationalFacility = "national_facility"
	SourceLocalData        = "local_data"
)

type Pool struct {
	ID          string           `gorm:"primaryKey;type:uuid;comment:pool id" json:"id"`
	Name        string           `gorm:"type:text;not null;comment:facility name" json:"name"`
	Slug        string           `gorm:"type:text;not null;uniqueIndex;comment:url slug" json:"slug"`
	Type        *PoolType        `gorm:"type:text;comment:public or private operator" json:"type"`
	Indoor      *bool            `gorm:"comment:indoor facility, null when unknown" json:"indoor"`
	Sido        string           `gorm:"type:text;not null;comment:level 1 region" json:"sido"`
	SidoSlug    string           `gorm:"type:text;not null;index:idx_pools_region,priority:1" json:"sido_slug"`
	Sigungu     string           `gorm:"type:text;not null;comment:level 2 region" json:"sigungu"`
	SigunguSlug string           `gorm:"type:text;not null;index:idx_pools_region,priority:2" json:"sigungu_slug"`
	Address     *string          `gorm:"type:text" json:"address"`
	Lat         *decimal.Decimal `gorm:"type:numeric(10,7)" json:"lat"`
	Lng         *decimal.Decimal `gorm:"type:numeric(10,7)" json:"lng"`
	Phone       *string          `gorm:"type:text" json:"phone"`
	Website     *string          `gorm:"type:text" json:"website"`
	LaneCount   *int             `gorm:"comment:number of lanes" json:"lane_count"`
	PoolArea    *decimal.Decimal `gorm:"type:numeric(10,2);comment:water surface area m2" json:"pool_area"`
	PoolLength  *int             `gorm:"comment:lane length m" json:"pool_length"`
	SafetyGrade *string          `gorm:"type:text" json:"safety_grade"`
	IsOperating bool             `gorm:"not null;index" json:"is_operating"`
	SourceAPI   *string          `gorm:"type:text;uniqueIndex:idx_pools_source,priority:1" json:"source_api"`
	SourceID    *string          `gorm:"type:text;uniqueIndex:idx_pools_source,priority:2" json:"source_id"`
	CreatedAt   time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"not null;index" json:"updated_at"`

	Schedules []FreeSwimSchedule `gorm:"foreignKey:PoolID;constraint:OnDelete:CASCADE" json:"schedules,omitempty"`
	Prices    []PoolPrice        `gorm:"foreignKey:PoolID;constraint:OnDelete:CASCADE" json:"prices,omitempty"`
	Reviews   []Review           `gorm:"foreignKey:PoolID;constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
}

func (Pool) TableName() string {
	return "pools"
}

func (p *Pool) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// HasCoordinates reports whether both lat and lng are known.
func (p *Pool) HasCoordinates() bool {
	return p != nil && p.Lat != nil && p.Lng != nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScheduleSource string

const (
	ScheduleSourceCrawled    ScheduleSource = "crawled"
	ScheduleSourceUserReport ScheduleSource = "user_report"
	ScheduleSourceOfficial   ScheduleSource = "official"
)

// FreeSwimSchedule is one open-swim session. DayOfWeek follows time.Weekday (0=Sunday).
type FreeSwimSchedule struct {
	ID          string          `gorm:"primaryKey;type:uuid" json:"id"`
	PoolID      string          `gorm:"type:uuid;not null;index" json:"pool_id"`
	DayOfWeek   int             `gorm:"not null;check:chk_schedule_day,day_of_week >= 0 AND day_of_week <= 6" json:"day_of_week"`
	StartTime   string          `gorm:"type:varchar(8);not null;comment:HH:MM" json:"start_time"`
	EndTime     string          `gorm:"type:varchar(8);not null;comment:HH:MM" json:"end_time"`
	MaxCapacity *int            `json:"max_capacity"`
	Notes       *string         `gorm:"type:text" json:"notes"`
	Source      *ScheduleSource `gorm:"type:text" json:"source"`
	VerifiedAt  *time.Time      `json:"verified_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

func (FreeSwimSchedule) TableName() string {
	return "free_swim_schedules"
}

func (s *FreeSwimSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Review struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	PoolID     string    `gorm:"type:uuid;not null;index" json:"pool_id"`
	Rating     int       `gorm:"not null;check:chk_review_rating,rating >= 1 AND rating <= 5" json:"rating"`
	Content    *string   `gorm:"type:text" json:"content"`
	AuthorName *string   `gorm:"type:text" json:"author_name"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

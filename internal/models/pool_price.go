package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PoolPrice struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PoolID    string    `gorm:"type:uuid;not null;index" json:"pool_id"`
	Category  string    `gorm:"type:text;not null;comment:adult, youth, child" json:"category"`
	Period    string    `gorm:"type:text;not null;comment:single, 1 month, 3 months" json:"period"`
	Price     int       `gorm:"not null;comment:KRW" json:"price"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (PoolPrice) TableName() string {
	return "pool_prices"
}

func (p *PoolPrice) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncState records the outcome of the latest run per source.
type SyncState struct {
	Source        string         `gorm:"primaryKey;type:text" json:"source"`
	Pages         int            `gorm:"not null;default:0;comment:pages fetched in last attempt" json:"pages"`
	LastSuccessAt *time.Time     `json:"last_success_at"`
	LastAttemptAt *time.Time     `json:"last_attempt_at"`
	LastError     *string        `gorm:"type:text" json:"last_error"`
	StatsJSON     datatypes.JSON `json:"stats"`
}

func (SyncState) TableName() string {
	return "sync_state"
}

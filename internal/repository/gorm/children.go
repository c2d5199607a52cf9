package gormrepository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"poolfinder/internal/models"
)

var clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ReplaceSchedules swaps the full free-swim timetable of a pool in one transaction.
func (s *Store) ReplaceSchedules(ctx context.Context, poolID string, items []models.FreeSwimSchedule) error {
	if s == nil || s.db == nil {
		return nil
	}
	poolID = strings.TrimSpace(poolID)
	if poolID == "" {
		return errors.New("replace schedules: missing pool id")
	}
	now := time.Now().UTC()
	for i := range items {
		if err := validateSchedule(&items[i]); err != nil {
			return err
		}
		items[i].PoolID = poolID
		if items[i].UpdatedAt.IsZero() {
			items[i].UpdatedAt = now
		}
	}
	return s.InTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("pool_id = ?", poolID).Delete(&models.FreeSwimSchedule{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return translateError(tx.CreateInBatches(items, 200).Error)
	})
}

func validateSchedule(item *models.FreeSwimSchedule) error {
	if item.DayOfWeek < 0 || item.DayOfWeek > 6 {
		return fmt.Errorf("schedule day_of_week out of range: %d", item.DayOfWeek)
	}
	if !clockRe.MatchString(item.StartTime) || !clockRe.MatchString(item.EndTime) {
		return fmt.Errorf("schedule time must be HH:MM: %q-%q", item.StartTime, item.EndTime)
	}
	if item.EndTime <= item.StartTime {
		return fmt.Errorf("schedule ends before it starts: %s-%s", item.StartTime, item.EndTime)
	}
	return nil
}

func (s *Store) AddPrice(ctx context.Context, item *models.PoolPrice) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.Price < 0 {
		return fmt.Errorf("price must not be negative: %d", item.Price)
	}
	return translateError(s.db.WithContext(ctx).Create(item).Error)
}

func (s *Store) AddReview(ctx context.Context, item *models.Review) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.Rating < 1 || item.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5: %d", item.Rating)
	}
	return translateError(s.db.WithContext(ctx).Create(item).Error)
}

// DeletePool removes a pool together with its schedules, prices and reviews.
func (s *Store) DeletePool(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return nil
	}
	pool := &models.Pool{ID: strings.TrimSpace(id)}
	if pool.ID == "" {
		return errors.New("delete pool: missing id")
	}
	return s.InTx(ctx, func(tx *gorm.DB) error {
		return tx.Select(clause.Associations).Delete(pool).Error
	})
}

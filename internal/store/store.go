// Package store implements the dashboard queries on top of gorm and the
// optional Redis cache in front of them.
package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/internal/dashboard"
	"github.com/diewo77/golf-referee/internal/models"
)

var _ dashboard.Repository = (*GormRepository)(nil)

// GormRepository runs the dashboard queries against the database.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository wraps a gorm handle.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// ListEligibleCommunications returns published, unexpired communications that
// are national or belong to zoneID. A limit <= 0 returns every row.
func (r *GormRepository) ListEligibleCommunications(ctx context.Context, zoneID *uint, now time.Time, limit int) ([]models.Communication, error) {
	q := r.db.WithContext(ctx).
		Where("status = ?", models.CommunicationStatusPublished).
		Where("expires_at IS NULL OR expires_at > ?", now.UTC())
	if zoneID == nil {
		q = q.Where("zone_id IS NULL")
	} else {
		q = q.Where("zone_id IS NULL OR zone_id = ?", *zoneID)
	}
	q = q.Order("priority DESC").Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.Communication
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepository) CountAvailabilities(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Availability{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *GormRepository) CountAssignments(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Assignment{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// ListUpcomingAssignments returns the user's assignments on tournaments that
// start at or after now, newest assignment first, with tournament and club.
func (r *GormRepository) ListUpcomingAssignments(ctx context.Context, userID uint, now time.Time, limit int) ([]models.Assignment, error) {
	var out []models.Assignment
	err := r.db.WithContext(ctx).
		Select("assignments.*").
		Joins("JOIN tournaments ON tournaments.id = assignments.tournament_id AND tournaments.deleted_at IS NULL").
		Preload("Tournament.Club").
		Where("assignments.user_id = ?", userID).
		Where("tournaments.start_date >= ?", now.UTC()).
		Order("assignments.created_at DESC").
		Order("assignments.id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListRecentAvailabilities returns the user's latest availabilities with their tournament.
func (r *GormRepository) ListRecentAvailabilities(ctx context.Context, userID uint, limit int) ([]models.Availability, error) {
	var out []models.Availability
	err := r.db.WithContext(ctx).
		Preload("Tournament").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

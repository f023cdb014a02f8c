package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/internal/models"
)

// OverviewLimit bounds the lists of the admin overview.
const OverviewLimit = 10

// AdminOverview feeds the admin dashboard.
type AdminOverview struct {
	UpcomingTournaments  int64                 `json:"upcoming_tournaments"`
	Referees             int64                 `json:"referees"`
	OpenAvailabilities   int64                 `json:"open_availabilities"`
	PendingNotifications int64                 `json:"pending_notifications"`
	FailedNotifications  int64                 `json:"failed_notifications"`
	NextTournaments      []models.Tournament   `json:"next_tournaments"`
	RecentFailures       []models.Notification `json:"recent_failures"`
}

// AdminOverview aggregates counters for admins. A nil zoneID covers every
// zone (super admins and national staff).
func (r *GormRepository) AdminOverview(ctx context.Context, zoneID *uint, now time.Time) (AdminOverview, error) {
	now = now.UTC()
	db := r.db.WithContext(ctx)
	inZone := func(column string) func(*gorm.DB) *gorm.DB {
		return func(q *gorm.DB) *gorm.DB {
			if zoneID == nil {
				return q
			}
			return q.Where(column+" = ?", *zoneID)
		}
	}
	upcoming := func() *gorm.DB {
		return db.Model(&models.Tournament{}).Scopes(inZone("zone_id")).Where("start_date >= ?", now)
	}
	notifications := func(status models.NotificationStatus) *gorm.DB {
		return db.Model(&models.Notification{}).
			Joins("JOIN assignments ON assignments.id = notifications.assignment_id").
			Joins("JOIN tournaments ON tournaments.id = assignments.tournament_id").
			Scopes(inZone("tournaments.zone_id")).
			Where("notifications.status = ?", status)
	}

	o := AdminOverview{NextTournaments: []models.Tournament{}, RecentFailures: []models.Notification{}}
	steps := []func() error{
		func() error { return upcoming().Count(&o.UpcomingTournaments).Error },
		func() error {
			return db.Model(&models.User{}).Scopes(inZone("zone_id")).
				Where("role = ?", models.RoleReferee).Count(&o.Referees).Error
		},
		func() error {
			return db.Model(&models.Availability{}).
				Joins("JOIN tournaments ON tournaments.id = availabilities.tournament_id").
				Scopes(inZone("tournaments.zone_id")).
				Where("tournaments.start_date >= ?", now).
				Count(&o.OpenAvailabilities).Error
		},
		func() error {
			return notifications(models.NotificationStatusPending).Count(&o.PendingNotifications).Error
		},
		func() error {
			return notifications(models.NotificationStatusFailed).Count(&o.FailedNotifications).Error
		},
		func() error {
			return upcoming().Preload("Club").Preload("Assignments").Order("start_date ASC").Limit(OverviewLimit).Find(&o.NextTournaments).Error
		},
		func() error {
			return notifications(models.NotificationStatusFailed).
				Select("notifications.*").
				Order("notifications.updated_at DESC").
				Limit(OverviewLimit).
				Find(&o.RecentFailures).Error
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return AdminOverview{}, err
		}
	}
	return o, nil
}

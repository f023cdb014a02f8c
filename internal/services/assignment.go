// Package services holds the write-side workflows: assigning referees and
// delivering their convocations.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/internal/models"
)

// AssignmentInput is what an admin submits to assign a referee.
type AssignmentInput struct {
	UserID       uint
	TournamentID uint
	Role         string
	Notes        string
	AssignedBy   *uint
	// NotifyAt schedules the convocation; nil means as soon as possible.
	NotifyAt *time.Time
}

type AssignmentService struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewAssignmentService(db *gorm.DB, notifications *NotificationService) *AssignmentService {
	return &AssignmentService{db: db, notifications: notifications}
}

// Create stores the assignment and enqueues its convocation in one transaction.
func (s *AssignmentService) Create(ctx context.Context, in AssignmentInput) (*models.Assignment, *models.Notification, error) {
	if !models.IsAssignmentRole(in.Role) {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidRole, in.Role)
	}
	scheduledAt := s.notifications.now()
	if in.NotifyAt != nil {
		scheduledAt = *in.NotifyAt
	}
	if err := s.notifications.checkSchedule(scheduledAt); err != nil {
		return nil, nil, err
	}

	var (
		a models.Assignment
		n *models.Notification
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, in.UserID).Error; err != nil {
			return notFound("user", err)
		}
		var t models.Tournament
		if err := tx.First(&t, in.TournamentID).Error; err != nil {
			return notFound("tournament", err)
		}
		var existing int64
		if err := tx.Model(&models.Assignment{}).
			Where("user_id = ? AND tournament_id = ?", in.UserID, in.TournamentID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicate
		}
		a = models.Assignment{
			UserID:       in.UserID,
			TournamentID: in.TournamentID,
			Role:         in.Role,
			Notes:        in.Notes,
			AssignedBy:   in.AssignedBy,
		}
		// The unique index also covers removed rows: bring a removed
		// assignment back instead of inserting a second one.
		var removed models.Assignment
		err := tx.Unscoped().
			Where("user_id = ? AND tournament_id = ? AND deleted_at IS NOT NULL", in.UserID, in.TournamentID).
			First(&removed).Error
		switch {
		case err == nil:
			// A restored assignment counts as new in most-recent-first lists.
			a.ID, a.CreatedAt = removed.ID, s.notifications.now().UTC()
			if err := tx.Unscoped().Model(&removed).
				Select("deleted_at", "created_at", "role", "notes", "assigned_by").
				Updates(map[string]any{
					"deleted_at": nil, "created_at": a.CreatedAt,
					"role": a.Role, "notes": a.Notes, "assigned_by": a.AssignedBy,
				}).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&a).Error; err != nil {
				return err
			}
		default:
			return err
		}
		a.User, a.Tournament = &user, &t
		n, err = s.notifications.enqueue(tx, &a, scheduledAt)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &a, n, nil
}

// UpdateRole changes the role of an assignment. Already sent convocations
// are not re-sent automatically.
func (s *AssignmentService) UpdateRole(ctx context.Context, id uint, role, notes string) (*models.Assignment, error) {
	if !models.IsAssignmentRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(a).Updates(map[string]any{"role": role, "notes": notes}).Error
	if err != nil {
		return nil, err
	}
	a.Role, a.Notes = role, notes
	return a, nil
}

// Delete removes the assignment and drops convocations not yet sent.
func (s *AssignmentService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Assignment{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("assignment_id = ? AND status = ?", id, models.NotificationStatusPending).
			Delete(&models.Notification{}).Error
	})
}

// Get loads one assignment with its user and tournament.
func (s *AssignmentService) Get(ctx context.Context, id uint) (*models.Assignment, error) {
	var a models.Assignment
	err := s.db.WithContext(ctx).Preload("User").Preload("Tournament.Club").First(&a, id).Error
	if err != nil {
		return nil, notFound("assignment", err)
	}
	return &a, nil
}

// ListByTournament returns the tournament's assignments with users loaded.
func (s *AssignmentService) ListByTournament(ctx context.Context, tournamentID uint) ([]models.Assignment, error) {
	var out []models.Assignment
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("tournament_id = ?", tournamentID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// ListByUser returns a referee's assignments, most recent tournament first.
func (s *AssignmentService) ListByUser(ctx context.Context, userID uint) ([]models.Assignment, error) {
	var out []models.Assignment
	err := s.db.WithContext(ctx).
		Select("assignments.*").
		Joins("JOIN tournaments ON tournaments.id = assignments.tournament_id").
		Preload("Tournament.Club").
		Where("assignments.user_id = ?", userID).
		Order("tournaments.start_date DESC").
		Find(&out).Error
	return out, err
}

func notFound(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/internal/notification"
)

const (
	// ScheduleGrace tolerates clock skew between the form and the server.
	ScheduleGrace = 5 * time.Minute
	messageDomain = "golf-referee"
	// maxErrorLen matches the size of the error column.
	maxErrorLen = 1000
)

// NotificationService manages the convocation outbox.
type NotificationService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (s *NotificationService) WithClock(now func() time.Time) *NotificationService {
	s.now = now
	return s
}

func (s *NotificationService) checkSchedule(at time.Time) error {
	if at.Before(s.now().Add(-ScheduleGrace)) {
		return fmt.Errorf("%w: %s is in the past", ErrInvalidSchedule, at.Format(time.RFC3339))
	}
	return nil
}

// NewMessageID returns a globally unique Message-ID value.
func NewMessageID() string {
	return uuid.NewString() + "@" + messageDomain
}

// Enqueue schedules a convocation for an existing assignment.
func (s *NotificationService) Enqueue(ctx context.Context, assignmentID uint, scheduledAt time.Time) (*models.Notification, error) {
	if err := s.checkSchedule(scheduledAt); err != nil {
		return nil, err
	}
	var a models.Assignment
	err := s.db.WithContext(ctx).Preload("User").Preload("Tournament").First(&a, assignmentID).Error
	if err != nil {
		return nil, notFound("assignment", err)
	}
	return s.enqueue(s.db.WithContext(ctx), &a, scheduledAt)
}

// enqueue expects a.User and a.Tournament loaded.
func (s *NotificationService) enqueue(tx *gorm.DB, a *models.Assignment, scheduledAt time.Time) (*models.Notification, error) {
	if a.User == nil || a.Tournament == nil {
		return nil, fmt.Errorf("assignment %d: user and tournament must be loaded", a.ID)
	}
	n := models.Notification{
		MessageID:    NewMessageID(),
		AssignmentID: a.ID,
		Recipient:    a.User.Email,
		Subject:      notification.Subject(a.Role, a.Tournament.Name),
		Status:       models.NotificationStatusPending,
		ScheduledAt:  scheduledAt,
	}
	if err := tx.Create(&n).Error; err != nil {
		return nil, fmt.Errorf("enqueue notification: %w", err)
	}
	return &n, nil
}

// Due returns pending notifications scheduled at or before now, oldest
// first, with everything needed to compose them.
func (s *NotificationService) Due(ctx context.Context, now time.Time, limit int) ([]models.Notification, error) {
	var out []models.Notification
	err := s.db.WithContext(ctx).
		Preload("Assignment.User").
		Preload("Assignment.Tournament.Club").
		Where("status = ? AND scheduled_at <= ?", models.NotificationStatusPending, now.UTC()).
		Order("scheduled_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkSent records a successful delivery.
func (s *NotificationService) MarkSent(ctx context.Context, n *models.Notification, at time.Time, attachments []string) error {
	at = at.UTC()
	return s.db.WithContext(ctx).Model(n).
		Select("status", "sent_at", "error", "attachments").
		Updates(models.Notification{
			Status:      models.NotificationStatusSent,
			SentAt:      &at,
			Error:       "",
			Attachments: attachments,
		}).Error
}

// MarkFailed records a delivery error. Failed rows are not retried
// automatically; see Resend.
func (s *NotificationService) MarkFailed(ctx context.Context, n *models.Notification, cause error) error {
	msg := truncate(cause.Error(), maxErrorLen)
	return s.db.WithContext(ctx).Model(n).Updates(map[string]any{
		"status": models.NotificationStatusFailed,
		"error":  msg,
	}).Error
}

// Resend puts a failed notification back in the queue for immediate dispatch.
func (s *NotificationService) Resend(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, notFound("notification", err)
	}
	if n.Status != models.NotificationStatusFailed {
		return nil, fmt.Errorf("%w: status is %s", ErrNotResendable, n.Status)
	}
	now := s.now().UTC()
	err := s.db.WithContext(ctx).Model(&n).Updates(map[string]any{
		"status":       models.NotificationStatusPending,
		"error":        "",
		"scheduled_at": now,
	}).Error
	if err != nil {
		return nil, err
	}
	n.Status, n.Error, n.ScheduledAt = models.NotificationStatusPending, "", now
	return &n, nil
}

// Get loads a notification with its assignment and tournament.
func (s *NotificationService) Get(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.WithContext(ctx).Preload("Assignment.Tournament").Preload("Assignment.User").First(&n, id).Error; err != nil {
		return nil, notFound("notification", err)
	}
	return &n, nil
}

// List returns notifications by status (all when status is empty), newest
// first. A non-nil zoneID keeps only tournaments of that zone.
func (s *NotificationService) List(ctx context.Context, status models.NotificationStatus, zoneID *uint, limit int) ([]models.Notification, error) {
	q := s.db.WithContext(ctx).
		Select("notifications.*").
		Preload("Assignment.Tournament").
		Preload("Assignment.User").
		Order("notifications.id DESC").
		Limit(limit)
	if zoneID != nil {
		q = q.Joins("JOIN assignments ON assignments.id = notifications.assignment_id").
			Joins("JOIN tournaments ON tournaments.id = assignments.tournament_id").
			Where("tournaments.zone_id = ?", *zoneID)
	}
	if status != "" {
		q = q.Where("notifications.status = ?", status)
	}
	var out []models.Notification
	return out, q.Find(&out).Error
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

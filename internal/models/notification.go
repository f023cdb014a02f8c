package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationStatus tracks an outbox row through dispatch.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is an outbox row for a scheduled convocation email.
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// MessageID is a stable identifier reused as the email Message-ID.
	MessageID string `gorm:"uniqueIndex;size:64;not null" json:"message_id"`

	AssignmentID uint        `gorm:"index;not null" json:"assignment_id"`
	Assignment   *Assignment `gorm:"foreignKey:AssignmentID" json:"assignment,omitempty"`

	Recipient   string             `gorm:"size:255;not null" json:"recipient"`
	Subject     string             `gorm:"size:255" json:"subject,omitempty"`
	Status      NotificationStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ScheduledAt time.Time          `gorm:"not null;index" json:"scheduled_at"`
	SentAt      *time.Time         `json:"sent_at,omitempty"`
	Error       string             `gorm:"size:1000" json:"error,omitempty"`
	Attachments []string           `gorm:"serializer:json;type:text" json:"attachments,omitempty"`
}

// IsDue reports whether a pending notification should be dispatched at now.
func (n *Notification) IsDue(now time.Time) bool {
	return n.Status == NotificationStatusPending && !n.ScheduledAt.After(now)
}

// ZoneScope returns the zone of the loaded assignment's tournament.
func (n *Notification) ZoneScope() (uint, bool) {
	if n.Assignment == nil {
		return 0, false
	}
	return n.Assignment.ZoneScope()
}

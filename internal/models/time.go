package models

import (
	"time"

	"gorm.io/gorm"
)

// Timestamps are stored in UTC. SQLite keeps times as text, so rows written
// with mixed offsets would not compare correctly in range queries.

func utc(t *time.Time) {
	if t != nil && !t.IsZero() {
		*t = t.UTC()
	}
}

func (t *Tournament) BeforeSave(*gorm.DB) error {
	utc(&t.StartDate)
	utc(&t.EndDate)
	return nil
}

func (c *Communication) BeforeSave(*gorm.DB) error {
	utc(c.ExpiresAt)
	return nil
}

func (n *Notification) BeforeSave(*gorm.DB) error {
	utc(&n.ScheduledAt)
	utc(n.SentAt)
	return nil
}

func (a *Assignment) BeforeSave(*gorm.DB) error {
	utc(&a.CreatedAt)
	return nil
}

func (a *Availability) BeforeSave(*gorm.DB) error {
	utc(&a.CreatedAt)
	return nil
}

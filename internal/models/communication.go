package models

import (
	"time"

	"gorm.io/gorm"
)

// CommunicationStatus is the publication state of an announcement.
type CommunicationStatus string

const (
	CommunicationStatusDraft     CommunicationStatus = "draft"
	CommunicationStatusPublished CommunicationStatus = "published"
	CommunicationStatusArchived  CommunicationStatus = "archived"
)

// Communication is an announcement shown on referee dashboards.
type Communication struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Title    string              `gorm:"size:255;not null" json:"title"`
	Body     string              `gorm:"type:text" json:"body"`
	Status   CommunicationStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`
	Priority int                 `gorm:"not null;default:0" json:"priority"`

	// ZoneID nil means the communication is national.
	ZoneID    *uint      `gorm:"index" json:"zone_id,omitempty"`
	Zone      *Zone      `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	AuthorID  *uint      `json:"author_id,omitempty"`
}

// IsVisible reports whether the communication may be shown to a viewer in
// zoneID at instant now.
func (c *Communication) IsVisible(zoneID *uint, now time.Time) bool {
	if c.Status != CommunicationStatusPublished {
		return false
	}
	if c.ZoneID != nil && (zoneID == nil || *c.ZoneID != *zoneID) {
		return false
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return false
	}
	return true
}

// ExpiresOn is the last local day the communication is shown, or the zero
// time when it never expires. ExpiresAt holds the following midnight.
func (c *Communication) ExpiresOn() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.In(time.Local).AddDate(0, 0, -1)
}

// ZoneScope returns the target zone; national communications have none.
func (c *Communication) ZoneScope() (uint, bool) {
	if c.ZoneID == nil {
		return 0, false
	}
	return *c.ZoneID, true
}

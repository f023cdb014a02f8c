package models

import (
	"time"

	"gorm.io/gorm"
)

// Club hosts tournaments.
type Club struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Email     string         `gorm:"size:255" json:"email,omitempty"`
	City      string         `gorm:"size:100" json:"city,omitempty"`
	ZoneID    uint           `gorm:"index;not null" json:"zone_id"`
	Zone      *Zone          `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`
}

// ZoneScope returns the zone the club belongs to.
func (c *Club) ZoneScope() (uint, bool) {
	return c.ZoneID, c.ZoneID != 0
}

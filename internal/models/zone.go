package models

import (
	"fmt"
	"time"
)

// Zone is a regional partition (SZR) grouping users, clubs, tournaments and
// communications.
type Zone struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Code      string    `gorm:"uniqueIndex;size:20;not null" json:"code"`
}

// ZoneContactEmail returns the regional committee mailbox for a zone id.
func ZoneContactEmail(zoneID uint) string {
	return fmt.Sprintf("szr%d@federgolf.it", zoneID)
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// DateLayout is the day format used on documents and emails.
const DateLayout = "02/01/2006"

// Tournament is a competition requiring referees.
type Tournament struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	StartDate time.Time      `gorm:"not null;index" json:"start_date"`
	EndDate   time.Time      `gorm:"not null" json:"end_date"`
	Notes     string         `gorm:"type:text" json:"notes,omitempty"`

	ClubID uint  `gorm:"index;not null" json:"club_id"`
	Club   *Club `gorm:"foreignKey:ClubID" json:"club,omitempty"`
	ZoneID uint  `gorm:"index;not null" json:"zone_id"`
	Zone   *Zone `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`

	Assignments    []Assignment   `gorm:"foreignKey:TournamentID" json:"assignments,omitempty"`
	Availabilities []Availability `gorm:"foreignKey:TournamentID" json:"-"`
}

// DateRange formats the tournament days, collapsing single-day events.
func (t *Tournament) DateRange() string {
	start := t.StartDate.Format(DateLayout)
	end := t.EndDate.Format(DateLayout)
	if t.EndDate.IsZero() || start == end {
		return start
	}
	return start + " - " + end
}

// ClubName returns the hosting club name, or "" when the club is not loaded.
func (t *Tournament) ClubName() string {
	if t.Club == nil {
		return ""
	}
	return t.Club.Name
}

// ClubEmail returns the hosting club email, or "" when the club is not loaded.
func (t *Tournament) ClubEmail() string {
	if t.Club == nil {
		return ""
	}
	return t.Club.Email
}

// ZoneScope returns the zone the tournament belongs to.
func (t *Tournament) ZoneScope() (uint, bool) {
	return t.ZoneID, t.ZoneID != 0
}

// HasReferee reports whether userID is among the loaded assignments.
func (t *Tournament) HasReferee(userID uint) bool {
	for _, a := range t.Assignments {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Availability is a referee's declared willingness to officiate a tournament.
type Availability struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID       uint        `gorm:"index;not null;uniqueIndex:idx_availability_user_tournament" json:"user_id"`
	User         *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TournamentID uint        `gorm:"index;not null;uniqueIndex:idx_availability_user_tournament" json:"tournament_id"`
	Tournament   *Tournament `gorm:"foreignKey:TournamentID" json:"tournament,omitempty"`
	Notes        string      `gorm:"size:500" json:"notes,omitempty"`
}

// GetUserID implements the Ownable interface.
func (a *Availability) GetUserID() uint {
	return a.UserID
}

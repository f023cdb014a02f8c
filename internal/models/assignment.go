package models

import (
	"time"

	"gorm.io/gorm"
)

// Referee roles on a tournament, in the order used by printed documents.
const (
	AssignmentRoleDirector = "Direttore di Torneo"
	AssignmentRoleReferee  = "Arbitro"
	AssignmentRoleObserver = "Osservatore"
)

// AssignmentRoles lists the recognised assignment roles in document order.
var AssignmentRoles = []string{AssignmentRoleDirector, AssignmentRoleReferee, AssignmentRoleObserver}

// IsAssignmentRole reports whether role is one of AssignmentRoles.
func IsAssignmentRole(role string) bool {
	for _, r := range AssignmentRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Assignment binds a referee to a tournament with a role.
// Implements the Ownable interface for ownership-based authorization.
type Assignment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID       uint        `gorm:"index;not null;uniqueIndex:idx_assignment_user_tournament" json:"user_id"`
	User         *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TournamentID uint        `gorm:"index;not null;uniqueIndex:idx_assignment_user_tournament" json:"tournament_id"`
	Tournament   *Tournament `gorm:"foreignKey:TournamentID" json:"tournament,omitempty"`

	Role       string `gorm:"size:50;not null" json:"role"`
	Notes      string `gorm:"type:text" json:"notes,omitempty"`
	AssignedBy *uint  `json:"assigned_by,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (a *Assignment) GetUserID() uint {
	return a.UserID
}

// ZoneScope returns the zone of the loaded tournament.
func (a *Assignment) ZoneScope() (uint, bool) {
	if a.Tournament == nil {
		return 0, false
	}
	return a.Tournament.ZoneScope()
}

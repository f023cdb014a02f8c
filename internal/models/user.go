package models

import (
	"time"

	"gorm.io/gorm"
)

// Role values stored on users. The dashboard maps unknown values to the
// regular user experience, so the column is a free string.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleReferee    = "referee"
	RoleUser       = "user"
)

// User represents an authenticated account: administrators and referees.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Password  string         `gorm:"size:255;not null" json:"-"` // Hashed, never exposed in JSON
	Role      string         `gorm:"size:32;not null;default:'referee';index" json:"role"`

	// ZoneID scopes the user to a regional zone. Nil for national staff.
	ZoneID *uint `gorm:"index" json:"zone_id,omitempty"`
	Zone   *Zone `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`

	RefereeCode  string `gorm:"size:32" json:"referee_code,omitempty"`
	RefereeLevel string `gorm:"size:32" json:"referee_level,omitempty"`
	Phone        string `gorm:"size:50" json:"phone,omitempty"`

	Availabilities []Availability `gorm:"foreignKey:UserID" json:"-"`
	Assignments    []Assignment   `gorm:"foreignKey:UserID" json:"-"`
}

// IsAdmin reports whether the user holds one of the administrative roles.
func (u *User) IsAdmin() bool {
	return u.Role == RoleSuperAdmin || u.Role == RoleAdmin
}

// ZoneScope returns the user's zone.
func (u *User) ZoneScope() (uint, bool) {
	if u.ZoneID == nil {
		return 0, false
	}
	return *u.ZoneID, true
}

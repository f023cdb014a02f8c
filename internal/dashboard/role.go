package dashboard

import "github.com/diewo77/golf-referee/internal/models"

// Role is the closed set of account roles the dashboard knows about.
type Role string

const (
	RoleSuperAdmin Role = models.RoleSuperAdmin
	RoleAdmin      Role = models.RoleAdmin
	RoleReferee    Role = models.RoleReferee
	RoleUser       Role = models.RoleUser
)

// ParseRole maps a stored role string onto the enumeration. Unknown values
// become RoleUser.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleSuperAdmin, RoleAdmin, RoleReferee:
		return Role(s)
	default:
		return RoleUser
	}
}

// Route is the dashboard variant served to a role.
type Route int

const (
	RouteUserDashboard Route = iota
	RouteAdminRedirect
)

func (r Route) String() string {
	if r == RouteAdminRedirect {
		return "admin_redirect"
	}
	return "user_dashboard"
}

// RouteFor is total over Role: anything outside the admin set gets the user
// dashboard.
func RouteFor(role Role) Route {
	switch role {
	case RoleSuperAdmin, RoleAdmin:
		return RouteAdminRedirect
	default:
		return RouteUserDashboard
	}
}

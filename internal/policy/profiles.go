package policy

import (
	"github.com/diewo77/golf-referee/gate"
	"github.com/diewo77/golf-referee/internal/models"
)

// Resource types checked by the gate.
const (
	ResourceTournament    = "tournament"
	ResourceAssignment    = "assignment"
	ResourceAvailability  = "availability"
	ResourceCommunication = "communication"
	ResourceClub          = "club"
	ResourceZone          = "zone"
	ResourceUser          = "user"
	ResourceNotification  = "notification"
	ResourceConvocation   = "convocation"
)

func manage(resources ...string) []gate.Permission {
	var perms []gate.Permission
	for _, r := range resources {
		perms = append(perms, gate.Manage(r)...)
	}
	return perms
}

func readOnly(resource string) []gate.Permission {
	return []gate.Permission{
		gate.NewPermission(resource, gate.ActionList),
		gate.NewPermission(resource, gate.ActionView),
	}
}

// Profiles returns the role profiles. Referees and plain users share the
// same rights; unknown roles fall back to the user profile.
func Profiles() []gate.Profile {
	admin := manage(ResourceTournament, ResourceAssignment, ResourceCommunication,
		ResourceAvailability, ResourceClub, ResourceUser)
	admin = append(admin, readOnly(ResourceZone)...)
	admin = append(admin, readOnly(ResourceNotification)...)
	admin = append(admin,
		gate.NewPermission(ResourceNotification, gate.ActionSend),
		gate.NewPermission(ResourceConvocation, gate.ActionPrint),
	)

	referee := readOnly(ResourceTournament)
	referee = append(referee, gate.Manage(ResourceAvailability)...)
	referee = append(referee, gate.NewPermission(ResourceConvocation, gate.ActionPrint))

	return []gate.Profile{
		gate.NewRoleProfile(models.RoleSuperAdmin, gate.PermissionSuperAdmin),
		gate.NewRoleProfile(models.RoleAdmin, admin...),
		gate.NewRoleProfile(models.RoleReferee, referee...),
		gate.NewRoleProfile(models.RoleUser, referee...),
	}
}

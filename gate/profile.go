package gate

import (
	"context"
	"fmt"
	"sort"
)

// Profile represents a role with a set of permissions.
type Profile interface {
	Name() string
	HasPermission(permission Permission) bool
	Permissions() []Permission
}

// RoleProfile is an in-memory profile keyed by role name.
type RoleProfile struct {
	name        string
	permissions map[Permission]struct{}
}

// NewRoleProfile creates a profile with the given permissions.
func NewRoleProfile(name string, permissions ...Permission) *RoleProfile {
	p := &RoleProfile{name: name, permissions: make(map[Permission]struct{}, len(permissions))}
	for _, perm := range permissions {
		p.permissions[perm] = struct{}{}
	}
	return p
}

func (p *RoleProfile) Name() string { return p.name }

// Permissions returns the granted permissions in lexical order.
func (p *RoleProfile) Permissions() []Permission {
	perms := make([]Permission, 0, len(p.permissions))
	for perm := range p.permissions {
		perms = append(perms, perm)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}

// HasPermission checks the requested permission, honouring wildcards.
func (p *RoleProfile) HasPermission(requested Permission) bool {
	for perm := range p.permissions {
		if perm.Matches(requested) {
			return true
		}
	}
	return false
}

// ProfileResolver resolves a user to their profile.
type ProfileResolver[U any] interface {
	Resolve(ctx context.Context, user U) (Profile, error)
}

// RoleLookup returns the role name stored for a subject.
type RoleLookup[U any] func(ctx context.Context, user U) (string, error)

// RoleResolver maps subjects to a fixed set of role profiles.
type RoleResolver[U any] struct {
	lookup   RoleLookup[U]
	profiles map[string]Profile
	fallback string
}

// NewRoleResolver builds a resolver over the given profiles. Roles without a
// registered profile resolve to the fallback profile when one is set.
func NewRoleResolver[U any](lookup RoleLookup[U], fallback string, profiles ...Profile) *RoleResolver[U] {
	r := &RoleResolver[U]{lookup: lookup, profiles: make(map[string]Profile, len(profiles)), fallback: fallback}
	for _, p := range profiles {
		r.profiles[p.Name()] = p
	}
	return r
}

// Profile returns the registered profile for a role name.
func (r *RoleResolver[U]) Profile(role string) (Profile, bool) {
	p, ok := r.profiles[role]
	if !ok && r.fallback != "" {
		p, ok = r.profiles[r.fallback]
	}
	return p, ok
}

// Resolve looks up the subject's role and returns the matching profile.
func (r *RoleResolver[U]) Resolve(ctx context.Context, user U) (Profile, error) {
	role, err := r.lookup(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("lookup role: %w", err)
	}
	p, ok := r.Profile(role)
	if !ok {
		return nil, fmt.Errorf("%w: role %q", ErrNoProfile, role)
	}
	return p, nil
}

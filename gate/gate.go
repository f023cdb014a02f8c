// Package gate provides a small Gate/Policy authorization system.
//
// A Gate combines role profiles (global "resource:action" permissions) with
// optional per-resource policies such as ownership or zone checks:
//  1. the subject must be non-zero
//  2. the subject's profile must grant resource:action
//  3. when a policy is registered and a resource is given, the policy must allow
//
// The package has no dependency on domain models; U is the subject type,
// typically a uint user ID.
package gate

import (
	"context"
	"fmt"
)

// Gate is the central authorization checkpoint.
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
	policies map[string]Policy[U]
}

// New creates a gate backed by the given profile resolver.
func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver, policies: make(map[string]Policy[U])}
}

// Register adds a resource-specific policy. Overwrites any existing policy.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Profile resolves the subject's profile.
func (g *Gate[U]) Profile(ctx context.Context, user U) (Profile, error) {
	var zero U
	if user == zero {
		return nil, ErrUnauthorized
	}
	p, err := g.resolver.Resolve(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, ErrNoProfile)
	}
	return p, nil
}

// Authorize returns nil when user may perform action on resourceType, and an
// error wrapping ErrUnauthorized otherwise.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	profile, err := g.Profile(ctx, user)
	if err != nil {
		return err
	}
	perm := NewPermission(resourceType, action)
	if !profile.HasPermission(perm) {
		return fmt.Errorf("%w: %s lacks %s", ErrUnauthorized, profile.Name(), perm)
	}
	if resource != nil {
		if p, ok := g.policies[resourceType]; ok && !p.Can(ctx, user, action, resource) {
			return fmt.Errorf("%w: policy denied %s", ErrUnauthorized, perm)
		}
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}

// CanProfile checks only the profile permission, without resource policies.
// Useful for UI to show/hide buttons before a specific resource is loaded.
func (g *Gate[U]) CanProfile(ctx context.Context, user U, action Action, resourceType string) bool {
	return g.Authorize(ctx, user, action, resourceType, nil) == nil
}

// Package policy wires the gate to the application's roles, users and
// resource rules, and exposes it as HTTP middleware.
package policy

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/golf-referee/auth"
	"github.com/diewo77/golf-referee/gate"
	"github.com/diewo77/golf-referee/httpx"
	"github.com/diewo77/golf-referee/internal/models"
)

// AuthGate is the central authorization point of the application.
type AuthGate struct {
	Gate          *gate.Gate[uint]
	CacheResolver *gate.CachedResolver[uint]
	Directory     Directory
}

// NewAuthGate builds the gate: role profiles resolved through dir, cached for
// cacheTTL, plus the ownership and zone policies.
func NewAuthGate(dir Directory, cacheTTL time.Duration) *AuthGate {
	resolver := gate.NewRoleResolver[uint](Role(dir), models.RoleUser, Profiles()...)
	cached := gate.NewCachedResolver[uint](resolver, cacheTTL)
	ag := &AuthGate{
		Gate:          gate.New[uint](cached),
		CacheResolver: cached,
		Directory:     dir,
	}

	zones := NewZonePolicy(dir)
	for _, r := range []string{ResourceTournament, ResourceClub, ResourceAssignment, ResourceCommunication, ResourceUser, ResourceNotification} {
		ag.Gate.Register(r, zones)
	}
	ag.Gate.Register(ResourceAvailability, gate.All[uint](
		NewAdminBypassPolicy(NewOwnershipPolicy(), ag.isAdminID),
		zonedAvailability{zones: zones},
	))
	ag.Gate.Register(ResourceConvocation, NewConvocationPolicy(dir))
	return ag
}

// zonedAvailability applies the zone rule through the availability's
// tournament when it is loaded.
type zonedAvailability struct{ zones *ZonePolicy }

func (z zonedAvailability) Can(ctx context.Context, userID uint, action gate.Action, resource any) bool {
	av, ok := resource.(*models.Availability)
	if !ok || av.Tournament == nil {
		return true
	}
	return z.zones.Can(ctx, userID, action, av.Tournament)
}

func (ag *AuthGate) isAdminID(ctx context.Context, userID uint) bool {
	p, err := ag.Gate.Profile(ctx, userID)
	if err != nil {
		return false
	}
	return p.Name() == models.RoleSuperAdmin || p.Name() == models.RoleAdmin
}

// Authorize checks if the current user can perform an action on a resource.
// Returns nil if authorized, an error wrapping gate.ErrUnauthorized otherwise.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.Gate.Authorize(ctx, userID, action, resourceType, resource)
}

// Can is a convenience method that returns bool instead of error.
func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string, resource any) bool {
	return ag.Authorize(ctx, action, resourceType, resource) == nil
}

// CanProfile checks only profile permissions (no resource policy).
// Used by templates to show or hide links.
func (ag *AuthGate) CanProfile(ctx context.Context, action gate.Action, resourceType string) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.CanProfile(ctx, userID, action, resourceType)
}

// IsAdmin reports whether the current user holds an administrative role.
func (ag *AuthGate) IsAdmin(ctx context.Context) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	return ok && ag.isAdminID(ctx, userID)
}

// CurrentUser loads the authenticated user.
func (ag *AuthGate) CurrentUser(ctx context.Context) (*models.User, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, gate.ErrUnauthorized
	}
	return ag.Directory.User(ctx, userID)
}

// VerifyUser is the session verifier: the user must still exist.
func (ag *AuthGate) VerifyUser(ctx context.Context, userID uint) bool {
	_, err := ag.Directory.User(ctx, userID)
	return err == nil
}

// InvalidateUser clears the cached profile of a user whose role changed.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
}

// InvalidateAll clears the entire profile cache.
func (ag *AuthGate) InvalidateAll() {
	ag.CacheResolver.InvalidateAll()
}

// Forbidden writes a 403 in the client's format.
func Forbidden(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// RequirePermission returns middleware that checks a profile permission.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ag.CanProfile(r.Context(), action, resourceType) {
				Forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns middleware that only lets administrators through.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.UserIDFromContext(r.Context()); !ok {
				if httpx.WantsJSON(r) {
					httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
					return
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !ag.IsAdmin(r.Context()) {
				Forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Package dashboard decides which dashboard a user gets and builds the
// read-only view model for referees.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/golf-referee/internal/models"
)

// Entry points used by redirects.
const (
	LoginPath          = "/login"
	AdminDashboardPath = "/admin/dashboard"
)

// Limits applied to each dashboard list.
const (
	CommunicationsLimit = 5
	UpcomingLimit       = 5
	RecentLimit         = 5
)

// Viewer is the authenticated user as seen by the dashboard.
type Viewer struct {
	ID     uint
	Role   Role
	ZoneID *uint
}

// ViewerFromUser projects a persisted user.
func ViewerFromUser(u *models.User) *Viewer {
	if u == nil {
		return nil
	}
	return &Viewer{ID: u.ID, Role: ParseRole(u.Role), ZoneID: u.ZoneID}
}

// Redirect tells the HTTP layer to send the caller elsewhere.
type Redirect struct {
	Location string
}

// Stats groups the per-user counters and lists.
type Stats struct {
	AvailabilitiesCount  int64                 `json:"availabilities_count"`
	AssignmentsCount     int64                 `json:"assignments_count"`
	UpcomingTournaments  []models.Assignment   `json:"upcoming_tournaments"`
	RecentAvailabilities []models.Availability `json:"recent_availabilities"`
}

// UserDashboard is the view model rendered for referees and regular users.
type UserDashboard struct {
	ActiveCommunications []models.Communication `json:"active_communications"`
	Stats                Stats                  `json:"stats"`
}

// Result holds exactly one of Redirect or View.
type Result struct {
	Redirect *Redirect
	View     *UserDashboard
}

// Repository is the read-only query surface the aggregator needs.
type Repository interface {
	ListEligibleCommunications(ctx context.Context, zoneID *uint, now time.Time, limit int) ([]models.Communication, error)
	CountAvailabilities(ctx context.Context, userID uint) (int64, error)
	CountAssignments(ctx context.Context, userID uint) (int64, error)
	ListUpcomingAssignments(ctx context.Context, userID uint, now time.Time, limit int) ([]models.Assignment, error)
	ListRecentAvailabilities(ctx context.Context, userID uint, limit int) ([]models.Availability, error)
}

// Aggregator resolves dashboards. It holds no state besides its repository
// and is safe for concurrent use.
type Aggregator struct {
	repo Repository
}

// NewAggregator creates an aggregator reading from repo.
func NewAggregator(repo Repository) *Aggregator {
	return &Aggregator{repo: repo}
}

// Resolve returns a redirect for anonymous and admin viewers, or the user
// dashboard for everyone else.
func (a *Aggregator) Resolve(ctx context.Context, viewer *Viewer, now time.Time) (Result, error) {
	if viewer == nil {
		return Result{Redirect: &Redirect{Location: LoginPath}}, nil
	}
	if RouteFor(viewer.Role) == RouteAdminRedirect {
		return Result{Redirect: &Redirect{Location: AdminDashboardPath}}, nil
	}
	view, err := a.userDashboard(ctx, viewer, now)
	if err != nil {
		return Result{}, err
	}
	return Result{View: view}, nil
}

func (a *Aggregator) userDashboard(ctx context.Context, viewer *Viewer, now time.Time) (*UserDashboard, error) {
	comms, err := a.repo.ListEligibleCommunications(ctx, viewer.ZoneID, now, CommunicationsLimit)
	if err != nil {
		return nil, fmt.Errorf("list communications: %w", err)
	}
	availCount, err := a.repo.CountAvailabilities(ctx, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("count availabilities: %w", err)
	}
	assignCount, err := a.repo.CountAssignments(ctx, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("count assignments: %w", err)
	}
	upcoming, err := a.repo.ListUpcomingAssignments(ctx, viewer.ID, now, UpcomingLimit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming assignments: %w", err)
	}
	recent, err := a.repo.ListRecentAvailabilities(ctx, viewer.ID, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent availabilities: %w", err)
	}

	return &UserDashboard{
		ActiveCommunications: nonNil(comms),
		Stats: Stats{
			AvailabilitiesCount:  availCount,
			AssignmentsCount:     assignCount,
			UpcomingTournaments:  nonNil(upcoming),
			RecentAvailabilities: nonNil(recent),
		},
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

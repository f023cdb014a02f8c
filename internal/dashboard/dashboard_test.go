package dashboard_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/golf-referee/internal/dashboard"
	"github.com/diewo77/golf-referee/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func TestRouteFor(t *testing.T) {
	assert.Equal(t, dashboard.RouteAdminRedirect, dashboard.RouteFor(dashboard.RoleSuperAdmin))
	assert.Equal(t, dashboard.RouteAdminRedirect, dashboard.RouteFor(dashboard.RoleAdmin))
	assert.Equal(t, dashboard.RouteUserDashboard, dashboard.RouteFor(dashboard.RoleReferee))
	assert.Equal(t, dashboard.RouteUserDashboard, dashboard.RouteFor(dashboard.RoleUser))
	assert.Equal(t, dashboard.RouteUserDashboard, dashboard.RouteFor(dashboard.Role("observer")))
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, dashboard.RoleSuperAdmin, dashboard.ParseRole("super_admin"))
	assert.Equal(t, dashboard.RoleAdmin, dashboard.ParseRole("admin"))
	assert.Equal(t, dashboard.RoleReferee, dashboard.ParseRole("referee"))
	assert.Equal(t, dashboard.RoleUser, dashboard.ParseRole("user"))
	assert.Equal(t, dashboard.RoleUser, dashboard.ParseRole("national_referee"))
	assert.Equal(t, dashboard.RoleUser, dashboard.ParseRole(""))
}

func TestResolve_Anonymous(t *testing.T) {
	repo := dashboard.NewMemoryRepository()
	res, err := dashboard.NewAggregator(repo).Resolve(context.Background(), nil, now)

	require.NoError(t, err)
	require.NotNil(t, res.Redirect)
	assert.Equal(t, dashboard.LoginPath, res.Redirect.Location)
	assert.Nil(t, res.View)
	assert.Zero(t, repo.Calls())
}

func TestResolve_AdminsRedirectWithoutQueries(t *testing.T) {
	for _, role := range []dashboard.Role{dashboard.RoleSuperAdmin, dashboard.RoleAdmin} {
		t.Run(string(role), func(t *testing.T) {
			repo := dashboard.NewMemoryRepository()
			res, err := dashboard.NewAggregator(repo).Resolve(context.Background(), &dashboard.Viewer{ID: 1, Role: role}, now)

			require.NoError(t, err)
			require.NotNil(t, res.Redirect)
			assert.Equal(t, dashboard.AdminDashboardPath, res.Redirect.Location)
			assert.Nil(t, res.View)
			assert.Zero(t, repo.Calls())
		})
	}
}

func TestResolve_NonAdminRolesGetDashboard(t *testing.T) {
	for _, role := range []dashboard.Role{dashboard.RoleReferee, dashboard.RoleUser, "observer", ""} {
		t.Run(fmt.Sprintf("role=%q", role), func(t *testing.T) {
			repo := dashboard.NewMemoryRepository()
			res, err := dashboard.NewAggregator(repo).Resolve(context.Background(), &dashboard.Viewer{ID: 1, Role: role}, now)

			require.NoError(t, err)
			assert.Nil(t, res.Redirect)
			require.NotNil(t, res.View)
			assert.NotNil(t, res.View.ActiveCommunications)
			assert.NotNil(t, res.View.Stats.UpcomingTournaments)
			assert.NotNil(t, res.View.Stats.RecentAvailabilities)
			assert.Empty(t, res.View.ActiveCommunications)
		})
	}
}

func TestResolve_CommunicationEligibility(t *testing.T) {
	zone, other := uint(3), uint(4)
	repo := dashboard.NewMemoryRepository()
	repo.AddCommunications(
		models.Communication{ID: 1, Title: "global", Status: models.CommunicationStatusPublished, CreatedAt: now.Add(-time.Hour)},
		models.Communication{ID: 2, Title: "zone", Status: models.CommunicationStatusPublished, ZoneID: &zone, CreatedAt: now.Add(-time.Hour)},
		models.Communication{ID: 3, Title: "other zone", Status: models.CommunicationStatusPublished, ZoneID: &other},
		models.Communication{ID: 4, Title: "draft", Status: models.CommunicationStatusDraft},
		models.Communication{ID: 5, Title: "expired", Status: models.CommunicationStatusPublished, ExpiresAt: ptr(now.Add(-time.Minute))},
		models.Communication{ID: 6, Title: "not yet expired", Status: models.CommunicationStatusPublished, ExpiresAt: ptr(now.Add(time.Minute))},
	)

	res, err := dashboard.NewAggregator(repo).Resolve(context.Background(), &dashboard.Viewer{ID: 9, Role: dashboard.RoleReferee, ZoneID: &zone}, now)
	require.NoError(t, err)

	var ids []uint
	for _, c := range res.View.ActiveCommunications {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []uint{1, 2, 6}, ids)
}

func TestResolve_CommunicationOrderAndLimit(t *testing.T) {
	repo := dashboard.NewMemoryRepository()
	for i := 0; i < 8; i++ {
		repo.AddCommunications(models.Communication{
			ID:        uint(i + 1),
			Status:    models.CommunicationStatusPublished,
			Priority:  i % 3,
			CreatedAt: now.Add(-time.Duration(i) * time.Hour),
		})
	}

	res, err := dashboard.NewAggregator(repo).Resolve(context.Background(), &dashboard.Viewer{ID: 1, Role: dashboard.RoleUser}, now)
	require.NoError(t, err)

	comms := res.View.ActiveCommunications
	require.Len(t, comms, dashboard.CommunicationsLimit)
	for i := 1; i < len(comms); i++ {
		prev, cur := comms[i-1], comms[i]
		if prev.Priority == cur.Priority {
			assert.False(t, cur.CreatedAt.After(prev.CreatedAt), "created_at must be descending within a priority")
		} else {
			assert.Greater(t, prev.Priority, cur.Priority)
		}
	}
	// priority 2 rows (ids 3, 6) come first, newest first
	assert.Equal(t, uint(3), comms[0].ID)
	assert.Equal(t, uint(6), comms[1].ID)
}

func TestResolve_Stats(t *testing.T) {
	club := &models.Club{Name: "Circolo Golf Torino"}
	future := &models.Tournament{ID: 1, Name: "Open Torino", StartDate: now.Add(48 * time.Hour), Club: club}
	past := &models.Tournament{ID: 2, Name: "Coppa Autunno", StartDate: now.Add(-48 * time.Hour), Club: club}

	repo := dashboard.NewMemoryRepository()
	for i := 0; i < 7; i++ {
		repo.AddAssignments(models.Assignment{
			ID: uint(i + 1), UserID: 1, Tournament: future, Role: models.AssignmentRoleReferee,
			CreatedAt: now.Add(-time.Duration(i) * time.Hour),
		})
	}
	repo.AddAssignments(
		models.Assignment{ID: 100, UserID: 1, Tournament: past, CreatedAt: now},
		models.Assignment{ID: 101, UserID: 2, Tournament: future, CreatedAt: now},
	)
	for i := 0; i < 6; i++ {
		repo.AddAvailabilities(models.Availability{
			ID: uint(i + 1), UserID: 1, Tournament: future, CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}
	repo.AddAvailabilities(models.Availability{ID: 50, UserID: 2, Tournament: future})

	res, err := dashboard.NewAggregator(repo).Resolve(context.Background(), &dashboard.Viewer{ID: 1, Role: dashboard.RoleReferee}, now)
	require.NoError(t, err)
	st := res.View.Stats

	assert.EqualValues(t, 6, st.AvailabilitiesCount)
	assert.EqualValues(t, 8, st.AssignmentsCount)

	require.Len(t, st.UpcomingTournaments, dashboard.UpcomingLimit)
	assert.Equal(t, uint(1), st.UpcomingTournaments[0].ID)
	for _, a := range st.UpcomingTournaments {
		assert.NotEqual(t, uint(100), a.ID, "past tournament must be excluded")
		assert.Equal(t, "Circolo Golf Torino", a.Tournament.ClubName())
	}

	require.Len(t, st.RecentAvailabilities, dashboard.RecentLimit)
	assert.Equal(t, uint(1), st.RecentAvailabilities[0].ID)
}

type failingRepo struct{ dashboard.Repository }

func (failingRepo) ListEligibleCommunications(context.Context, *uint, time.Time, int) ([]models.Communication, error) {
	return nil, errors.New("db down")
}

func TestResolve_PropagatesStoreErrors(t *testing.T) {
	_, err := dashboard.NewAggregator(failingRepo{}).Resolve(context.Background(), &dashboard.Viewer{ID: 1, Role: dashboard.RoleReferee}, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestResolve_ConcurrentCallsAreIndependent(t *testing.T) {
	repo := dashboard.NewMemoryRepository()
	repo.AddCommunications(models.Communication{ID: 1, Status: models.CommunicationStatusPublished})
	agg := dashboard.NewAggregator(repo)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			res, err := agg.Resolve(context.Background(), &dashboard.Viewer{ID: id, Role: dashboard.RoleReferee}, now)
			assert.NoError(t, err)
			assert.Len(t, res.View.ActiveCommunications, 1)
		}(uint(i + 1))
	}
	wg.Wait()
}

func TestViewerFromUser(t *testing.T) {
	assert.Nil(t, dashboard.ViewerFromUser(nil))
	zone := uint(2)
	v := dashboard.ViewerFromUser(&models.User{ID: 5, Role: "something", ZoneID: &zone})
	assert.Equal(t, uint(5), v.ID)
	assert.Equal(t, dashboard.RoleUser, v.Role)
	assert.Equal(t, &zone, v.ZoneID)
}

package convocation_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/diewo77/golf-referee/internal/convocation"
	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/internal/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roles(sections []convocation.Section) []string {
	out := make([]string, 0, len(sections))
	for _, s := range sections {
		out = append(out, s.Role)
	}
	return out
}

func TestGroup_FixedOrderRegardlessOfInput(t *testing.T) {
	refs := []notification.Referee{
		{Name: "C", Role: models.AssignmentRoleObserver},
		{Name: "A", Role: models.AssignmentRoleReferee},
		{Name: "D", Role: models.AssignmentRoleDirector},
		{Name: "B", Role: models.AssignmentRoleReferee},
	}
	sections := convocation.Group(refs)

	assert.Equal(t, []string{"Direttore di Torneo", "Arbitro", "Osservatore"}, roles(sections))
	require.Len(t, sections[1].Referees, 2)
	assert.Equal(t, "A", sections[1].Referees[0].Name)
	assert.Equal(t, "B", sections[1].Referees[1].Name)
}

func TestGroup_OmitsEmptyAndUnknownRoles(t *testing.T) {
	refs := []notification.Referee{
		{Name: "A", Role: models.AssignmentRoleObserver},
		{Name: "X", Role: "Caddie Master"},
		{Name: "B", Role: models.AssignmentRoleDirector},
	}
	assert.Equal(t, []string{"Direttore di Torneo", "Osservatore"}, roles(convocation.Group(refs)))
	assert.Empty(t, convocation.Group(nil))
}

func TestLine(t *testing.T) {
	assert.Equal(t, "Mario Rossi (AR-042)", convocation.Line(notification.Referee{Name: "Mario Rossi", RefereeCode: "AR-042"}))
	assert.Equal(t, "Mario Rossi", convocation.Line(notification.Referee{Name: "Mario Rossi"}))
}

func TestFromTournament(t *testing.T) {
	tr := models.Tournament{
		Name:      "Open Test",
		StartDate: time.Date(2026, 11, 6, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 11, 8, 0, 0, 0, 0, time.UTC),
		ZoneID:    6,
		Club:      &models.Club{Name: "GC Verona", Email: "info@gcverona.it"},
	}
	doc := convocation.FromTournament(tr, []models.Assignment{
		{Role: models.AssignmentRoleReferee, User: &models.User{Name: "Anna Bianchi", RefereeCode: "R1"}},
		{Role: models.AssignmentRoleDirector, User: &models.User{Name: "Luca Verdi"}},
	})

	assert.Equal(t, "Open Test", doc.TournamentName)
	assert.Equal(t, "06/11/2026 - 08/11/2026", doc.TournamentDates)
	assert.Equal(t, "szr6@federgolf.it", doc.ZoneEmail)
	assert.Equal(t, "info@gcverona.it", doc.ClubEmail)
	assert.Equal(t, []string{"Direttore di Torneo", "Arbitro"}, roles(doc.Sections))
}

func TestFromBody(t *testing.T) {
	doc := convocation.FromBody(notification.Body{
		TournamentName: "Coppa",
		Referees:       []notification.Referee{{Name: "A", Role: models.AssignmentRoleReferee}},
	})
	assert.Equal(t, "Coppa", doc.TournamentName)
	assert.Equal(t, []string{"Arbitro"}, roles(doc.Sections))
}

func TestRender(t *testing.T) {
	doc := convocation.Document{
		TournamentName:  "Open Test",
		TournamentDates: "06/11/2026 - 08/11/2026",
		ClubName:        "GC Verona",
		ZoneEmail:       "szr6@federgolf.it",
		Sections: convocation.Group([]notification.Referee{
			{Name: "Anna Bianchi", Role: models.AssignmentRoleReferee, RefereeCode: "R1"},
		}),
	}
	out, err := convocation.Render(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "expected a PDF document")
}

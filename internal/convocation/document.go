// Package convocation builds the printable convocation: referees grouped by
// role in a fixed order, rendered to PDF.
package convocation

import (
	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/internal/notification"
)

// Section is one role heading with its referees.
type Section struct {
	Role     string
	Referees []notification.Referee
}

// Document is everything printed on a convocation.
type Document struct {
	TournamentName  string
	TournamentDates string
	ClubName        string
	ZoneEmail       string
	ClubEmail       string
	Sections        []Section
}

// Group orders referees by role: Direttore di Torneo, Arbitro, Osservatore.
// Roles with no referees are omitted, as are unrecognised roles. Input order
// is preserved inside a section.
func Group(referees []notification.Referee) []Section {
	byRole := make(map[string][]notification.Referee, len(models.AssignmentRoles))
	for _, r := range referees {
		byRole[r.Role] = append(byRole[r.Role], r)
	}
	sections := make([]Section, 0, len(models.AssignmentRoles))
	for _, role := range models.AssignmentRoles {
		if refs := byRole[role]; len(refs) > 0 {
			sections = append(sections, Section{Role: role, Referees: refs})
		}
	}
	return sections
}

// Line formats a referee entry: the name, plus the referee code in
// parentheses when present.
func Line(r notification.Referee) string {
	if r.RefereeCode == "" {
		return r.Name
	}
	return r.Name + " (" + r.RefereeCode + ")"
}

// FromBody builds a document from a composed notification body.
func FromBody(b notification.Body) Document {
	return Document{
		TournamentName:  b.TournamentName,
		TournamentDates: b.TournamentDates,
		ClubName:        b.ClubName,
		ZoneEmail:       b.ZoneEmail,
		ClubEmail:       b.ClubEmail,
		Sections:        Group(b.Referees),
	}
}

// FromTournament builds the document listing every assignment of t.
// Assignments are expected to have their User loaded.
func FromTournament(t models.Tournament, assignments []models.Assignment) Document {
	refs := make([]notification.Referee, 0, len(assignments))
	for _, a := range assignments {
		r := notification.Referee{Role: a.Role}
		if a.User != nil {
			r.Name, r.Email, r.RefereeCode = a.User.Name, a.User.Email, a.User.RefereeCode
		}
		refs = append(refs, r)
	}
	var zone string
	if t.ZoneID != 0 {
		zone = models.ZoneContactEmail(t.ZoneID)
	}
	return Document{
		TournamentName:  t.Name,
		TournamentDates: t.DateRange(),
		ClubName:        t.ClubName(),
		ZoneEmail:       zone,
		ClubEmail:       t.ClubEmail(),
		Sections:        Group(refs),
	}
}

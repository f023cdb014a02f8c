package notification_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/internal/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtures() (models.Assignment, models.Tournament) {
	club := &models.Club{Name: "Golf Club Parco de' Medici", Email: "segreteria@parcodemedici.it"}
	t := models.Tournament{
		ID:        10,
		Name:      "Open Test",
		StartDate: time.Date(2026, 11, 6, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 11, 8, 0, 0, 0, 0, time.UTC),
		ZoneID:    6,
		Club:      club,
	}
	a := models.Assignment{
		ID:           3,
		TournamentID: t.ID,
		Role:         models.AssignmentRoleReferee,
		User:         &models.User{Name: "Mario Rossi", Email: "mario.rossi@example.it", RefereeCode: "AR-042"},
	}
	return a, t
}

func fakeFS(existing ...string) notification.FileExists {
	set := map[string]bool{}
	for _, p := range existing {
		set[p] = true
	}
	return func(p string) bool { return set[p] }
}

func TestCompose_Subject(t *testing.T) {
	a, tr := fixtures()
	p := notification.NewComposer(fakeFS(), nil).Compose(a, tr, nil)
	assert.Equal(t, "Convocazione Arbitro - Open Test", p.Subject)
}

func TestCompose_Body(t *testing.T) {
	a, tr := fixtures()
	p := notification.NewComposer(fakeFS(), nil).Compose(a, tr, nil)

	assert.Equal(t, "Mario Rossi", p.Body.RecipientName)
	assert.Equal(t, "mario.rossi@example.it", p.Body.RecipientEmail)
	assert.Equal(t, "Open Test", p.Body.TournamentName)
	assert.Equal(t, "06/11/2026 - 08/11/2026", p.Body.TournamentDates)
	assert.Equal(t, "Golf Club Parco de' Medici", p.Body.ClubName)
	assert.Equal(t, "segreteria@parcodemedici.it", p.Body.ClubEmail)
	assert.Equal(t, "szr6@federgolf.it", p.Body.ZoneEmail)
	require.Len(t, p.Body.Referees, 1)
	assert.Equal(t, notification.Referee{
		Name: "Mario Rossi", Role: "Arbitro", Email: "mario.rossi@example.it", RefereeCode: "AR-042",
	}, p.Body.Referees[0])
}

func TestCompose_MissingAttachmentIsDropped(t *testing.T) {
	a, tr := fixtures()
	p := notification.NewComposer(fakeFS(), nil).Compose(a, tr, []string{"/tmp/missing.pdf"})

	assert.Empty(t, p.Attachments)
	assert.NotNil(t, p.Attachments)
	assert.Nil(t, p.Body.AttachmentsInfo)
}

func TestCompose_ExistingAttachment(t *testing.T) {
	a, tr := fixtures()
	path := "/var/convocazioni/convocazione-3.pdf"
	p := notification.NewComposer(fakeFS(path), nil).Compose(a, tr, []string{path, "/tmp/missing.pdf"})

	require.Len(t, p.Attachments, 1)
	assert.Equal(t, path, p.Attachments[0].Path)
	assert.Equal(t, "convocazione-3.pdf", p.Attachments[0].Name)
	assert.Equal(t, "application/pdf", p.Attachments[0].ContentType)
	assert.Equal(t, []string{"Convocazione ufficiale in formato PDF"}, p.Body.AttachmentsInfo)
}

func TestCompose_RealFilesystem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "convocazione.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	a, tr := fixtures()
	p := notification.NewComposer(nil, nil).Compose(a, tr, []string{path, filepath.Join(dir, "nope.pdf"), dir})

	require.Len(t, p.Attachments, 1)
	assert.Equal(t, path, p.Attachments[0].Path)
}

func TestCompose_MissingRelations(t *testing.T) {
	p := notification.NewComposer(fakeFS(), nil).Compose(
		models.Assignment{Role: models.AssignmentRoleObserver},
		models.Tournament{Name: "Coppa"},
		nil,
	)
	assert.Equal(t, "Convocazione Osservatore - Coppa", p.Subject)
	assert.Empty(t, p.Body.ClubName)
	assert.Empty(t, p.Body.ClubEmail)
	assert.Empty(t, p.Body.ZoneEmail)
	require.Len(t, p.Body.Referees, 1)
	assert.Equal(t, "Osservatore", p.Body.Referees[0].Role)
}

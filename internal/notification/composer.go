// Package notification assembles the convocation email sent to a referee
// when they are assigned to a tournament.
package notification

import (
	"mime"
	"os"
	"path/filepath"

	"github.com/diewo77/golf-referee/internal/models"
	"github.com/sirupsen/logrus"
)

// AttachmentDescription is listed in the email body when a PDF is attached.
const AttachmentDescription = "Convocazione ufficiale in formato PDF"

// FileExists reports whether path points at a readable file.
type FileExists func(path string) bool

// OSFileExists checks the local filesystem.
func OSFileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// Referee is one person listed on a convocation.
type Referee struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Email       string `json:"email"`
	RefereeCode string `json:"referee_code,omitempty"`
}

// Body is the data handed to the email and PDF templates.
type Body struct {
	RecipientName   string    `json:"recipient_name"`
	RecipientEmail  string    `json:"recipient_email"`
	TournamentName  string    `json:"tournament_name"`
	TournamentDates string    `json:"tournament_dates"`
	ClubName        string    `json:"club_name"`
	Referees        []Referee `json:"referees"`
	ZoneEmail       string    `json:"zone_email"`
	ClubEmail       string    `json:"club_email"`
	AttachmentsInfo []string  `json:"attachments_info"`
}

// Attachment is a file that exists at composition time.
type Attachment struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
}

// Payload is the complete outgoing notification.
type Payload struct {
	Subject     string       `json:"subject"`
	Body        Body         `json:"body"`
	Attachments []Attachment `json:"attachments"`
}

// Composer builds payloads. It never sends anything.
type Composer struct {
	exists FileExists
	log    logrus.FieldLogger
}

// NewComposer creates a composer using exists for attachment checks.
// A nil predicate falls back to OSFileExists.
func NewComposer(exists FileExists, log logrus.FieldLogger) *Composer {
	if exists == nil {
		exists = OSFileExists
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Composer{exists: exists, log: log}
}

// Subject formats the email subject for an assignment role and tournament.
func Subject(role, tournamentName string) string {
	return "Convocazione " + role + " - " + tournamentName
}

// Compose projects an assignment and its tournament into a payload. The
// caller is responsible for passing a tournament that matches the assignment.
func (c *Composer) Compose(a models.Assignment, t models.Tournament, attachmentPaths []string) Payload {
	var name, email, code string
	if a.User != nil {
		name, email, code = a.User.Name, a.User.Email, a.User.RefereeCode
	}

	attachments := make([]Attachment, 0, len(attachmentPaths))
	for _, p := range attachmentPaths {
		if !c.exists(p) {
			c.log.WithField("path", p).Debug("attachment missing, skipped")
			continue
		}
		attachments = append(attachments, newAttachment(p))
	}

	var info []string
	if len(attachments) > 0 {
		info = []string{AttachmentDescription}
	}

	return Payload{
		Subject: Subject(a.Role, t.Name),
		Body: Body{
			RecipientName:   name,
			RecipientEmail:  email,
			TournamentName:  t.Name,
			TournamentDates: t.DateRange(),
			ClubName:        t.ClubName(),
			Referees: []Referee{{
				Name:        name,
				Role:        a.Role,
				Email:       email,
				RefereeCode: code,
			}},
			ZoneEmail:       zoneEmail(t.ZoneID),
			ClubEmail:       t.ClubEmail(),
			AttachmentsInfo: info,
		},
		Attachments: attachments,
	}
}

func zoneEmail(zoneID uint) string {
	if zoneID == 0 {
		return ""
	}
	return models.ZoneContactEmail(zoneID)
}

func newAttachment(path string) Attachment {
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return Attachment{Path: path, Name: filepath.Base(path), ContentType: ct}
}

// Package mailer turns composed notifications into email and delivers them.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/golf-referee/internal/notification"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlBody = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/convocation.html"))
	textBody = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/convocation.txt"))
)

// Message is a fully rendered email.
type Message struct {
	MessageID   string
	To          []string
	Cc          []string
	Subject     string
	HTML        string
	Text        string
	Attachments []notification.Attachment
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// RenderBody renders the HTML and plain-text bodies of a convocation.
func RenderBody(b notification.Body) (html, text string, err error) {
	var hb, tb bytes.Buffer
	if err := htmlBody.Execute(&hb, b); err != nil {
		return "", "", fmt.Errorf("render html body: %w", err)
	}
	if err := textBody.Execute(&tb, b); err != nil {
		return "", "", fmt.Errorf("render text body: %w", err)
	}
	return hb.String(), tb.String(), nil
}

// Build renders a payload into a message addressed to the recipient, with
// the zone and club contacts in copy.
func Build(messageID string, p notification.Payload) (Message, error) {
	if p.Body.RecipientEmail == "" {
		return Message{}, fmt.Errorf("notification %s has no recipient", messageID)
	}
	html, text, err := RenderBody(p.Body)
	if err != nil {
		return Message{}, err
	}
	var cc []string
	for _, addr := range []string{p.Body.ZoneEmail, p.Body.ClubEmail} {
		if addr != "" && addr != p.Body.RecipientEmail {
			cc = append(cc, addr)
		}
	}
	return Message{
		MessageID:   messageID,
		To:          []string{p.Body.RecipientEmail},
		Cc:          cc,
		Subject:     p.Subject,
		HTML:        html,
		Text:        text,
		Attachments: p.Attachments,
	}, nil
}

// LogSender logs messages instead of sending them (development).
type LogSender struct {
	Log logrus.FieldLogger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	s.Log.WithFields(logrus.Fields{
		"message_id":  msg.MessageID,
		"to":          msg.To,
		"cc":          msg.Cc,
		"subject":     msg.Subject,
		"attachments": len(msg.Attachments),
	}).Info("mail not sent (log driver)")
	return nil
}

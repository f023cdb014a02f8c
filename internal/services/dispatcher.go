package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/golf-referee/internal/convocation"
	"github.com/diewo77/golf-referee/internal/mailer"
	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/internal/notification"
)

// DispatchBatch bounds how many notifications one tick sends.
const DispatchBatch = 50

// DispatchReport summarises one DispatchDue pass.
type DispatchReport struct {
	Sent   int
	Failed int
}

// Dispatcher sends due convocations. Run a single dispatcher per database:
// rows are not locked while being sent.
type Dispatcher struct {
	notifications *NotificationService
	assignments   *AssignmentService
	composer      *notification.Composer
	sender        mailer.Sender
	attachmentDir string
	log           logrus.FieldLogger
}

func NewDispatcher(
	notifications *NotificationService,
	assignments *AssignmentService,
	composer *notification.Composer,
	sender mailer.Sender,
	attachmentDir string,
	log logrus.FieldLogger,
) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		assignments:   assignments,
		composer:      composer,
		sender:        sender,
		attachmentDir: attachmentDir,
		log:           log,
	}
}

// DispatchDue sends every pending notification scheduled at or before now.
// A failed delivery marks the row failed and moves on; the returned error is
// reserved for problems reading the queue or recording results.
func (d *Dispatcher) DispatchDue(ctx context.Context, now time.Time) (DispatchReport, error) {
	var report DispatchReport
	due, err := d.notifications.Due(ctx, now, DispatchBatch)
	if err != nil {
		return report, fmt.Errorf("load due notifications: %w", err)
	}
	for i := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		n := &due[i]
		log := d.log.WithFields(logrus.Fields{"notification_id": n.ID, "message_id": n.MessageID})

		attachments, sendErr := d.deliver(ctx, n)
		if sendErr != nil {
			log.WithError(sendErr).Warn("convocation delivery failed")
			if err := d.notifications.MarkFailed(ctx, n, sendErr); err != nil {
				return report, fmt.Errorf("mark notification %d failed: %w", n.ID, err)
			}
			report.Failed++
			continue
		}
		if err := d.notifications.MarkSent(ctx, n, now, attachments); err != nil {
			return report, fmt.Errorf("mark notification %d sent: %w", n.ID, err)
		}
		log.WithField("recipient", n.Recipient).Info("convocation sent")
		report.Sent++
	}
	return report, nil
}

func (d *Dispatcher) deliver(ctx context.Context, n *models.Notification) ([]string, error) {
	a := n.Assignment
	if a == nil || a.Tournament == nil {
		return nil, errors.New("assignment or tournament no longer exists")
	}
	var paths []string
	if p, err := d.writeConvocation(ctx, a); err != nil {
		// Sent without the PDF rather than not at all.
		d.log.WithError(err).WithField("assignment_id", a.ID).Warn("convocation pdf not generated")
	} else {
		paths = append(paths, p)
		// The PDF is rebuilt on every attempt, so it is only kept for the send.
		defer func() {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				d.log.WithError(err).WithField("path", p).Warn("convocation pdf not removed")
			}
		}()
	}

	payload := d.composer.Compose(*a, *a.Tournament, paths)
	msg, err := mailer.Build(n.MessageID, payload)
	if err != nil {
		return nil, err
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(payload.Attachments))
	for _, att := range payload.Attachments {
		names = append(names, att.Name)
	}
	return names, nil
}

// writeConvocation renders the tournament convocation listing every
// assigned referee and stores it under the attachment directory.
func (d *Dispatcher) writeConvocation(ctx context.Context, a *models.Assignment) (string, error) {
	all, err := d.assignments.ListByTournament(ctx, a.TournamentID)
	if err != nil {
		return "", err
	}
	pdf, err := convocation.Render(convocation.FromTournament(*a.Tournament, all))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.attachmentDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(d.attachmentDir, fmt.Sprintf("convocazione-%d-%d.pdf", a.TournamentID, a.ID))
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Run dispatches on every tick until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	d.log.WithField("interval", interval).Info("notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.log.Info("notification dispatcher stopped")
			return
		case t := <-ticker.C:
			report, err := d.DispatchDue(ctx, t)
			if err != nil && !errors.Is(err, context.Canceled) {
				d.log.WithError(err).Error("dispatch failed")
			}
			if report.Sent+report.Failed > 0 {
				d.log.WithFields(logrus.Fields{"sent": report.Sent, "failed": report.Failed}).Info("dispatch completed")
			}
		}
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "github.com/diewo77/golf-referee/internal/logger"
	"github.com/diewo77/golf-referee/internal/mailer"
	"github.com/diewo77/golf-referee/internal/models"
	"github.com/diewo77/golf-referee/internal/notification"
)

var now = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Zone{}, &models.User{}, &models.Club{}, &models.Tournament{},
		&models.Assignment{}, &models.Availability{}, &models.Notification{},
	))
	return db
}

type world struct {
	referee    models.User
	director   models.User
	tournament models.Tournament
}

func seedWorld(t *testing.T, db *gorm.DB) world {
	t.Helper()
	zone := models.Zone{Name: "Zona 6", Code: "SZR6"}
	require.NoError(t, db.Create(&zone).Error)
	club := models.Club{Name: "Golf Club Roma", Email: "info@gcroma.it", ZoneID: zone.ID}
	require.NoError(t, db.Create(&club).Error)
	w := world{
		referee:  models.User{Email: "mario@example.it", Name: "Mario Rossi", Password: "x", Role: models.RoleReferee, RefereeCode: "R001"},
		director: models.User{Email: "anna@example.it", Name: "Anna Verdi", Password: "x", Role: models.RoleReferee},
	}
	require.NoError(t, db.Create(&w.referee).Error)
	require.NoError(t, db.Create(&w.director).Error)
	w.tournament = models.Tournament{
		Name: "Trofeo Roma", StartDate: now.Add(72 * time.Hour), EndDate: now.Add(96 * time.Hour),
		ClubID: club.ID, ZoneID: zone.ID,
	}
	require.NoError(t, db.Create(&w.tournament).Error)
	return w
}

func newServices(db *gorm.DB) (*AssignmentService, *NotificationService) {
	ns := NewNotificationService(db).WithClock(func() time.Time { return now })
	return NewAssignmentService(db, ns), ns
}

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	// files holds attachment contents read at send time, by base name.
	files map[string][]byte
	err   error
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.files == nil {
		f.files = map[string][]byte{}
	}
	for _, a := range msg.Attachments {
		data, err := os.ReadFile(a.Path)
		if err != nil {
			return err
		}
		f.files[filepath.Base(a.Path)] = data
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestCreateAssignmentEnqueuesNotification(t *testing.T) {
	db := setupDB(t)
	w := seedWorld(t, db)
	as, _ := newServices(db)

	a, n, err := as.Create(context.Background(), AssignmentInput{
		UserID: w.referee.ID, TournamentID: w.tournament.ID, Role: models.AssignmentRoleReferee,
	})
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
	require.NotNil(t, n)
	assert.Equal(t, a.ID, n.AssignmentID)
	assert.Equal(t, "mario@example.it", n.Recipient)
	assert.Equal(t, "Convocazione Arbitro - Trofeo Roma", n.Subject)
	assert.Equal(t, models.NotificationStatusPending, n.Status)
	assert.True(t, n.ScheduledAt.Equal(now))
	assert.Contains(t, n.MessageID, "@golf-referee")
}

func TestCreateAssignmentValidation(t *testing.T) {
	db := setupDB(t)
	w := seedWorld(t, db)
	as, _ := newServices(db)
	ctx := context.Background()

	_, _, err := as.Create(ctx, AssignmentInput{UserID: w.referee.ID, TournamentID: w.tournament.ID, Role: "Caddie"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, _, err = as.Create(ctx, AssignmentInput{UserID: 999, TournamentID: w.tournament.ID, Role: models.AssignmentRoleReferee})
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = as.Create(ctx, AssignmentInput{UserID: w.referee.ID, TournamentID: 999, Role: models.AssignmentRoleReferee})
	assert.ErrorIs(t, err, ErrNotFound)

	past := now.Add(-time.Hour)
	_, _, err = as.Create(ctx, AssignmentInput{UserID: w.referee.ID, TournamentID: w.tournament.ID, Role: models.AssignmentRoleReferee, NotifyAt: &past})
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	_, _, err = as.Create(ctx, AssignmentInput{UserID: w.referee.ID, TournamentID: w.tournament.ID, Role: models.AssignmentRoleReferee})
	require.NoError(t, err)
	_, _, err = as.Create(ctx, AssignmentInput{UserID: w.referee.ID, TournamentID: w.tournament.ID, Role: models.AssignmentRoleObserver})
	assert.ErrorIs(t, err, ErrDuplicate)

	var count int64
	db.Model(&models.Notification{}).Count(&count)
	assert.Equal(t, int64(1), count, "failed creates leave no outbox rows")
}

func TestEnqueueGracePeriod(t *testing.T) {
	db := setupDB(t)
	w := seedWorld(t, db)
	as, ns := newServices(db)
	ctx := context.Background()
	later := now.Add(time.Hour)
	a, _, err := as.Create(ctx, AssignmentInput{UserID: w.referee.ID, TournamentID: w.tournament.ID, Role: models.AssignmentRoleReferee, NotifyAt: &later})
	require.NoError(t, err)

	_, err = ns.Enqueue(ctx, a.ID, now.Add(-2*time.Minute))
	assert.NoError(t, err, "within grace")
	_, err = ns.Enqueue(ctx, a.ID, now.Add(-ScheduleGrace-time.Second))
	assert.ErrorIs(t, err, ErrInvalidSchedule)
	_, err = ns.Enqueue(ctx, 999, now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAssignmentDropsPendingNotifications(t *testing.T) {
	db := setupDB(t)
	w := seedWorld(t, db)
	as, _ := newServices(db)
	ctx := context.Background()
	a, _, err := as.Create(ctx, AssignmentInput{UserID: w.referee.ID, TournamentID: w.tournament.ID, Role: models.AssignmentRoleReferee})
	require.NoError(t, err)

	require.NoError(t, as.Delete(ctx, a.ID))
	var pending int64
	db.Model(&models.Notification{}).Where("status = ?", models.NotificationStatusPending).Count(&pending)
	assert.Zero(t, pending)
	assert.ErrorIs(t, as.Delete(ctx, a.ID), ErrNotFound)
}

func TestRecreateRemovedAssignment(t *testing.T) {
	db := setupDB(t)
	w := seedWorld(t, db)
	as, _ := newServices(db)
	ctx := context.Background()
	in := AssignmentInput{UserID: w.referee.ID, TournamentID: w.tournament.ID, Role: models.AssignmentRoleReferee}
	a, _, err := as.Create(ctx, in)
	require.NoError(t, err)
	require.NoError(t, db.Model(a).Update("created_at", now.Add(-48*time.Hour)).Error)
	require.NoError(t, as.Delete(ctx, a.ID))

	in.Role, in.Notes = models.AssignmentRoleObserver, "di nuovo"
	again, n, err := as.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, a.ID, again.ID)
	assert.Equal(t, again.ID, n.AssignmentID)

	stored, err := as.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentRoleObserver, stored.Role)
	assert.Equal(t, "di nuovo", stored.Notes)
	assert.True(t, stored.CreatedAt.Equal(now), stored.CreatedAt)
	assert.True(t, again.CreatedAt.Equal(now), again.CreatedAt)

	_, _, err = as.Create(ctx, in)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUpdateRole(t *testing.T) {
	db := setupDB(t)
	w := seedWorld(t, db)
	as, _ := newServices(db)
	ctx := context.Background()
	a, _, err := as.Create(ctx, AssignmentInput{UserID: w.referee.ID, TournamentID: w.tournament.ID, Role: models.AssignmentRoleReferee})
	require.NoError(t, err)

	updated, err := as.UpdateRole(ctx, a.ID, models.AssignmentRoleDirector, "capo")
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentRoleDirector, updated.Role)
	_, err = as.UpdateRole(ctx, a.ID, "Nope", "")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func newDispatcher(t *testing.T, db *gorm.DB, sender mailer.Sender) (*Dispatcher, *AssignmentService, string) {
	t.Helper()
	as, ns := newServices(db)
	dir := t.TempDir()
	d := NewDispatcher(ns, as, notification.NewComposer(nil, applog.Discard()), sender, dir, applog.Discard())
	return d, as, dir
}

func TestDispatchDueSendsConvocation(t *testing.T) {
	db := setupDB(t)
	w := seedWorld(t, db)
	sender := &fakeSender{}
	d, as, dir := newDispatcher(t, db, sender)
	ctx := context.Background()

	_, _, err := as.Create(ctx, AssignmentInput{UserID: w.director.ID, TournamentID: w.tournament.ID, Role: models.AssignmentRoleDirector, NotifyAt: ptr(now.Add(time.Hour))})
	require.NoError(t, err)
	a, _, err := as.Create(ctx, AssignmentInput{UserID: w.referee.ID, TournamentID: w.tournament.ID, Role: models.AssignmentRoleReferee})
	require.NoError(t, err)

	report, err := d.DispatchDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, DispatchReport{Sent: 1}, report)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"mario@example.it"}, msg.To)
	assert.Equal(t, []string{fmt.Sprintf("szr%d@federgolf.it", w.tournament.ZoneID), "info@gcroma.it"}, msg.Cc)
	assert.Equal(t, "Convocazione Arbitro - Trofeo Roma", msg.Subject)
	assert.Contains(t, msg.HTML, notification.AttachmentDescription)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)

	pdf := sender.files[fmt.Sprintf("convocazione-%d-%d.pdf", w.tournament.ID, a.ID)]
	require.NotEmpty(t, pdf)
	assert.Equal(t, "%PDF", string(pdf[:4]))

	// Rendered files do not outlive the delivery.
	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left)

	var n models.Notification
	require.NoError(t, db.Where("assignment_id = ?", a.ID).First(&n).Error)
	assert.Equal(t, models.NotificationStatusSent, n.Status)
	require.NotNil(t, n.SentAt)
	assert.Equal(t, []string{filepath.Base(msg.Attachments[0].Path)}, n.Attachments)

	// Already sent: nothing left until the director's slot.
	report, err = d.DispatchDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, DispatchReport{}, report)

	report, err = d.DispatchDue(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, DispatchReport{Sent: 1}, report)
}

func TestDispatchFailureAndResend(t *testing.T) {
	db := setupDB(t)
	w := seedWorld(t, db)
	sender := &fakeSender{err: errors.New("smtp: 421 try later")}
	d, as, dir := newDispatcher(t, db, sender)
	ctx := context.Background()

	_, n, err := as.Create(ctx, AssignmentInput{UserID: w.referee.ID, TournamentID: w.tournament.ID, Role: models.AssignmentRoleReferee})
	require.NoError(t, err)

	report, err := d.DispatchDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, DispatchReport{Failed: 1}, report)

	var stored models.Notification
	require.NoError(t, db.First(&stored, n.ID).Error)
	assert.Equal(t, models.NotificationStatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "421")
	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left)

	// No automatic retry.
	report, err = d.DispatchDue(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, DispatchReport{}, report)

	_, err = d.notifications.Resend(ctx, n.ID)
	require.NoError(t, err)
	_, err = d.notifications.Resend(ctx, n.ID)
	assert.ErrorIs(t, err, ErrNotResendable)
	_, err = d.notifications.Resend(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	sender.err = nil
	report, err = d.DispatchDue(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, DispatchReport{Sent: 1}, report)
	require.NoError(t, db.First(&stored, n.ID).Error)
	assert.Equal(t, models.NotificationStatusSent, stored.Status)
	assert.Empty(t, stored.Error)
}

func TestDispatchDeletedAssignmentFails(t *testing.T) {
	db := setupDB(t)
	w := seedWorld(t, db)
	sender := &fakeSender{}
	d, as, _ := newDispatcher(t, db, sender)
	ctx := context.Background()

	a, n, err := as.Create(ctx, AssignmentInput{UserID: w.referee.ID, TournamentID: w.tournament.ID, Role: models.AssignmentRoleReferee})
	require.NoError(t, err)
	// Soft-delete the assignment behind the outbox's back.
	require.NoError(t, db.Delete(&models.Assignment{}, a.ID).Error)

	report, err := d.DispatchDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, DispatchReport{Failed: 1}, report)
	assert.Empty(t, sender.sent)

	var stored models.Notification
	require.NoError(t, db.First(&stored, n.ID).Error)
	assert.Equal(t, models.NotificationStatusFailed, stored.Status)
}

func TestRunStopsOnCancel(t *testing.T) {
	db := setupDB(t)
	d, _, _ := newDispatcher(t, db, &fakeSender{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func ptr[T any](v T) *T { return &v }

func TestMarkFailedKeepsValidUTF8(t *testing.T) {
	db := setupDB(t)
	w := seedWorld(t, db)
	as, ns := newServices(db)
	ctx := context.Background()
	_, n, err := as.Create(ctx, AssignmentInput{UserID: w.referee.ID, TournamentID: w.tournament.ID, Role: models.AssignmentRoleReferee})
	require.NoError(t, err)

	// One ASCII byte shifts every "è" across the column limit.
	cause := errors.New("x" + strings.Repeat("è", maxErrorLen))
	require.NoError(t, ns.MarkFailed(ctx, n, cause))

	var stored models.Notification
	require.NoError(t, db.First(&stored, n.ID).Error)
	assert.Equal(t, models.NotificationStatusFailed, stored.Status)
	assert.True(t, utf8.ValidString(stored.Error))
	assert.LessOrEqual(t, len(stored.Error), maxErrorLen)
	assert.Equal(t, maxErrorLen-1, len(stored.Error))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc"},
		{"aè", 2, "a"},
		{"aè", 3, "aè"},
		{"€", 2, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.n), "truncate(%q, %d)", tt.in, tt.n)
	}
}

func TestDueComparesInstantsAcrossZones(t *testing.T) {
	db := setupDB(t)
	w := seedWorld(t, db)
	as, ns := newServices(db)
	ctx := context.Background()

	rome := time.FixedZone("CEST", 2*60*60)
	// 11:30 in Rome is 09:30Z, half an hour after the service clock.
	at := time.Date(2026, 6, 15, 11, 30, 0, 0, rome)
	_, n, err := as.Create(ctx, AssignmentInput{UserID: w.referee.ID, TournamentID: w.tournament.ID, Role: models.AssignmentRoleReferee, NotifyAt: &at})
	require.NoError(t, err)

	due, err := ns.Due(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = ns.Due(ctx, now.Add(45*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, n.ID, due[0].ID)

	due, err = ns.Due(ctx, time.Date(2026, 6, 15, 11, 45, 0, 0, rome), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/safetytracker/safetytracker/internal/accesscontrol"
	"github.com/safetytracker/safetytracker/internal/models"
	"github.com/safetytracker/safetytracker/internal/repositories"
	"github.com/safetytracker/safetytracker/internal/testutil"
	"github.com/safetytracker/safetytracker/internal/types"
)

type recordingPusher struct {
	mu    sync.Mutex
	users []uint
}

func (p *recordingPusher) Refresh(userIDs ...uint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, userIDs...)
}

type recordingEvents struct {
	reported []string
	changed  []string
}

func (e *recordingEvents) IncidentReported(incident models.Incident) {
	e.reported = append(e.reported, incident.Slug)
}

func (e *recordingEvents) StatusChanged(incident models.Incident, from, to types.Status) {
	e.changed = append(e.changed, string(from)+"->"+string(to))
}

// failingWriter fails for the listed recipients and delegates otherwise.
type failingWriter struct {
	next   NotificationWriter
	failed map[uint]bool
}

func (w *failingWriter) Create(ctx context.Context, n *models.Notification) error {
	if w.failed[n.UserID] {
		return errors.New("write failed")
	}
	return w.next.Create(ctx, n)
}

type fixture struct {
	db        *gorm.DB
	incidents *IncidentService
	notes     *NotificationService
	users     *UserService
	pusher    *recordingPusher
	events    *recordingEvents
	writer    *failingWriter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	gate, err := accesscontrol.NewGate()
	require.NoError(t, err)

	notificationRepo := repositories.NewNotificationRepository(db)
	userRepo := repositories.NewUserRepository(db)
	pusher := &recordingPusher{}
	events := &recordingEvents{}
	writer := &failingWriter{next: notificationRepo, failed: map[uint]bool{}}

	return &fixture{
		db: db,
		incidents: NewIncidentService(
			db,
			repositories.NewIncidentRepository(db),
			userRepo,
			repositories.NewActivityRepository(db),
			NewNotifier(writer, pusher),
			events,
			gate,
			IncidentServiceConfig{},
		),
		notes:  NewNotificationService(notificationRepo, pusher),
		users:  NewUserService(db, userRepo),
		pusher: pusher,
		events: events,
		writer: writer,
	}
}

func (f *fixture) notificationsFor(t *testing.T, userID uint, typ types.NotificationType) []models.Notification {
	t.Helper()
	var out []models.Notification
	require.NoError(t, f.db.Where("user_id = ? AND type = ?", userID, typ).Order("id").Find(&out).Error)
	return out
}

func (f *fixture) countNotifications(t *testing.T, typ types.NotificationType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Notification{}).Where("type = ?", typ).Count(&n).Error)
	return n
}

func ptr(v uint) *uint { return &v }

package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/safetytracker/safetytracker/internal/models"
	"github.com/safetytracker/safetytracker/internal/testutil"
	"github.com/safetytracker/safetytracker/internal/types"
)

func TestNotificationRepository_ReadState(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "u", types.RoleEmployee)
	other := testutil.CreateUser(t, db, "other", types.RoleEmployee)
	inc := seedIncident(t, db, "Spill", types.StatusNew, time.Now(), u, nil)

	mk := func(user *models.User) *models.Notification {
		n := &models.Notification{UserID: user.ID, IncidentID: inc.ID, Message: "m", Type: types.NotificationNewIncident}
		require.NoError(t, repo.Create(ctx, n))
		return n
	}
	a, b := mk(u), mk(u)
	o := mk(other)

	count, err := repo.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = repo.FindForUser(ctx, o.ID, u.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	require.NoError(t, repo.MarkRead(ctx, a.ID, u.ID))
	changed, err := repo.MarkAllRead(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	found, err := repo.FindForUser(ctx, b.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, found.IsRead)
	assert.Equal(t, inc.Slug, found.Incident.Slug)

	count, err = repo.UnreadCount(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/safetytracker/safetytracker/internal/models"
	"github.com/safetytracker/safetytracker/internal/testutil"
	"github.com/safetytracker/safetytracker/internal/types"
)

func newIncident(title string) *models.Incident {
	return &models.Incident{Title: title, Body: "body", Banner: "fallback.jpg", Status: types.StatusNew}
}

func TestCreateWithSlug_DuplicateTitles(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewIncidentRepository(db)
	ctx := context.Background()

	first := newIncident("Spill")
	second := newIncident("Spill")
	third := newIncident("Spill")
	require.NoError(t, repo.CreateWithSlug(ctx, first, "spill"))
	require.NoError(t, repo.CreateWithSlug(ctx, second, "spill"))
	require.NoError(t, repo.CreateWithSlug(ctx, third, "spill"))

	assert.Equal(t, "spill", first.Slug)
	assert.Equal(t, "spill-1", second.Slug)
	assert.Equal(t, "spill-2", third.Slug)

	for _, inc := range []*models.Incident{first, second, third} {
		found, err := repo.FindBySlug(ctx, inc.Slug)
		require.NoError(t, err)
		assert.Equal(t, inc.ID, found.ID)
	}
}

func TestCreateWithSlug_RetriesAfterLostRace(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewIncidentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateWithSlug(ctx, newIncident("Spill"), "spill"))

	// The first lookup misses the row a concurrent writer just inserted.
	calls := 0
	repo.takenSlugs = func(tx *gorm.DB, base string) ([]string, error) {
		calls++
		if calls == 1 {
			return nil, nil
		}
		return takenSlugs(tx, base)
	}

	inc := newIncident("Spill")
	require.NoError(t, repo.CreateWithSlug(ctx, inc, "spill"))
	assert.Equal(t, "spill-1", inc.Slug)
	assert.Equal(t, 2, calls)
}

func TestCreateWithSlug_GivesUpAfterMaxAttempts(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewIncidentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateWithSlug(ctx, newIncident("Spill"), "spill"))

	calls := 0
	repo.takenSlugs = func(tx *gorm.DB, base string) ([]string, error) {
		calls++
		return nil, nil
	}

	err := repo.CreateWithSlug(ctx, newIncident("Spill"), "spill")
	assert.ErrorIs(t, err, ErrSlugExhausted)
	assert.Equal(t, MaxSlugAttempts, calls)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func seedIncident(t *testing.T, db *gorm.DB, title string, status types.Status, created time.Time, reporter, assignee *models.User) *models.Incident {
	t.Helper()
	inc := &models.Incident{Title: title, Body: title + " details", Status: status}
	inc.CreatedAt = created
	if reporter != nil {
		inc.ReporterID = &reporter.ID
	}
	if assignee != nil {
		inc.AssignedToID = &assignee.ID
	}
	return testutil.CreateIncident(t, db, inc)
}

func titles(incidents []models.Incident) []string {
	out := make([]string, 0, len(incidents))
	for _, inc := range incidents {
		out = append(out, inc.Title)
	}
	return out
}

func TestList_Filters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewIncidentRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", types.RoleEmployee)
	bob := testutil.CreateUser(t, db, "bob", types.RoleEmployee)
	mgr := testutil.CreateUser(t, db, "mgr", types.RoleManager)

	day := func(d int, h int) time.Time { return time.Date(2024, 3, d, h, 0, 0, 0, time.Local) }

	seedIncident(t, db, "Wet floor", types.StatusResolved, day(1, 9), alice, mgr)
	seedIncident(t, db, "Broken ladder", types.StatusNew, day(2, 10), bob, nil)
	seedIncident(t, db, "Forklift near miss", types.StatusResolved, day(3, 23), alice, nil)
	seedIncident(t, db, "Loose cable", types.StatusClosed, day(4, 8), bob, mgr)

	dateFrom := day(2, 0)
	dateTo := day(3, 0)

	tests := []struct {
		name   string
		filter IncidentFilter
		want   []string
	}{
		{"no filter newest first", IncidentFilter{}, []string{"Loose cable", "Forklift near miss", "Broken ladder", "Wet floor"}},
		{"status", IncidentFilter{Status: types.StatusResolved}, []string{"Forklift near miss", "Wet floor"}},
		{"status and search", IncidentFilter{Status: types.StatusResolved, Search: "FLOOR"}, []string{"Wet floor"}},
		{"search matches body", IncidentFilter{Search: "cable details"}, []string{"Loose cable"}},
		{"reporter", IncidentFilter{ReporterID: &bob.ID}, []string{"Loose cable", "Broken ladder"}},
		{"assignee", IncidentFilter{AssignedToID: &mgr.ID}, []string{"Loose cable", "Wet floor"}},
		{"date range covers whole last day", IncidentFilter{DateFrom: &dateFrom, DateTo: &dateTo}, []string{"Forklift near miss", "Broken ladder"}},
		{"limit", IncidentFilter{Limit: 1}, []string{"Loose cable"}},
		{"no match", IncidentFilter{Status: types.StatusInProgress}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestUpdateFields_ClearsAssignee(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewIncidentRepository(db)
	ctx := context.Background()

	mgr := testutil.CreateUser(t, db, "mgr", types.RoleManager)
	inc := seedIncident(t, db, "Spill", types.StatusNew, time.Now(), nil, mgr)

	require.NoError(t, repo.UpdateFields(ctx, inc.ID, types.StatusClosed, nil))

	found, err := repo.FindByID(ctx, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusClosed, found.Status)
	assert.Nil(t, found.AssignedToID)
}

func TestCountByStatus(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewIncidentRepository(db)
	ctx := context.Background()

	seedIncident(t, db, "a", types.StatusNew, time.Now(), nil, nil)
	seedIncident(t, db, "b", types.StatusNew, time.Now(), nil, nil)
	seedIncident(t, db, "c", types.StatusClosed, time.Now(), nil, nil)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[types.StatusNew])
	assert.Equal(t, int64(0), counts[types.StatusInProgress])
	assert.Equal(t, int64(1), counts[types.StatusClosed])
	assert.Len(t, counts, len(types.Statuses))
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.False(t, IsDuplicateKeyError(nil))
	assert.True(t, IsDuplicateKeyError(gorm.ErrDuplicatedKey))
	assert.False(t, IsDuplicateKeyError(gorm.ErrRecordNotFound))
}

func TestDeletingUser_ClearsIncidentReferences(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewIncidentRepository(db)
	ctx := context.Background()

	reporter := testutil.CreateUser(t, db, "emp", types.RoleEmployee)
	mgr := testutil.CreateUser(t, db, "mgr", types.RoleManager)
	inc := testutil.CreateIncident(t, db, &models.Incident{Title: "Spill", ReporterID: &reporter.ID, AssignedToID: &mgr.ID})

	require.NoError(t, db.Delete(&models.User{}, reporter.ID).Error)
	require.NoError(t, db.Delete(&models.User{}, mgr.ID).Error)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)

	found, err := repo.FindByID(ctx, inc.ID)
	require.NoError(t, err)
	assert.Nil(t, found.ReporterID)
	assert.Nil(t, found.AssignedToID)
}

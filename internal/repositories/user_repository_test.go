package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetytracker/safetytracker/internal/models"
	"github.com/safetytracker/safetytracker/internal/testutil"
	"github.com/safetytracker/safetytracker/internal/types"
)

func TestUserRepository_Roles(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	testutil.CreateUser(t, db, "zed", types.RoleManager)
	testutil.CreateUser(t, db, "amy", types.RoleManager)
	testutil.CreateUser(t, db, "emp", types.RoleEmployee)

	orphan := &models.User{Username: "orphan", PasswordHash: "x"}
	require.NoError(t, repo.Create(ctx, orphan))

	managers, err := repo.ListByRole(ctx, types.RoleManager)
	require.NoError(t, err)
	require.Len(t, managers, 2)
	assert.Equal(t, "amy", managers[0].Username)
	assert.True(t, managers[0].IsManager())

	missing, err := repo.ListWithoutProfile(ctx)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "orphan", missing[0].Username)

	require.NoError(t, repo.UpsertRole(ctx, orphan.ID, types.RoleManager))
	require.NoError(t, repo.UpsertRole(ctx, orphan.ID, types.RoleEmployee))

	found, err := repo.FindByUsername(ctx, "orphan")
	require.NoError(t, err)
	require.NotNil(t, found.Profile)
	assert.Equal(t, types.RoleEmployee, found.Profile.Role)

	exists, err := repo.UsernameExists(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, exists)
}

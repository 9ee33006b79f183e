package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetytracker/safetytracker/internal/models"
	apperrors "github.com/safetytracker/safetytracker/internal/pkg/errors"
	"github.com/safetytracker/safetytracker/internal/types"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.Register(ctx, RegisterInput{
		Username:        "alice",
		Email:           "Alice@Example.com ",
		Password:        "s3cret-pass",
		PasswordConfirm: "s3cret-pass",
	})
	require.NoError(t, err)
	require.NotNil(t, user.Profile)
	assert.Equal(t, types.RoleEmployee, user.Profile.Role)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "/new-incident/", HomePath(user))

	_, err = f.users.Register(ctx, RegisterInput{
		Username:        "alice",
		Password:        "another-pass",
		PasswordConfirm: "another-pass",
	})
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Len(t, appErr.FieldErrors, 1)
	assert.Equal(t, "username", appErr.FieldErrors[0].Field)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.Register(context.Background(), RegisterInput{
		Username:        "bob",
		Password:        "short",
		PasswordConfirm: "different",
	})
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)

	fields := map[string]string{}
	for _, fe := range appErr.FieldErrors {
		fields[fe.Field] = fe.Code
	}
	assert.Equal(t, "min", fields["password"])
	assert.Equal(t, "eqfield", fields["password_confirm"])

	var count int64
	require.NoError(t, f.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, RegisterInput{Username: "carol", Password: "password123", PasswordConfirm: "password123"})
	require.NoError(t, err)

	user, err := f.users.Authenticate(ctx, "carol", "password123")
	require.NoError(t, err)
	assert.Equal(t, "carol", user.Username)

	_, err = f.users.Authenticate(ctx, "carol", "wrong-password")
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "__all__", appErr.FieldErrors[0].Field)

	_, err = f.users.Authenticate(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateMissingProfilesAndSetRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Create(&models.User{Username: "legacy", PasswordHash: "x"}).Error)

	fixed, err := f.users.CreateMissingProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy"}, fixed)

	fixed, err = f.users.CreateMissingProfiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, fixed)

	require.NoError(t, f.users.SetRole(ctx, "legacy", types.RoleManager))

	managers, err := f.incidents.AssigneeCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, managers, 1)
	assert.Equal(t, "legacy", managers[0].Username)
	assert.Equal(t, "/manager-dashboard/", HomePath(&managers[0]))

	assert.ErrorIs(t, f.users.SetRole(ctx, "nobody", types.RoleManager), apperrors.ErrNotFound)
	assert.ErrorIs(t, f.users.SetRole(ctx, "legacy", "admin"), apperrors.ErrValidation)
}

// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/safetytracker/safetytracker/db"
	"github.com/safetytracker/safetytracker/internal/models"
	"github.com/safetytracker/safetytracker/internal/types"
)

var dbSeq atomic.Int64

// NewDB returns a migrated, isolated in-memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", dbSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(conn))
	return conn
}

// CreateUser inserts a user with a profile of the given role. The password is "password123".
func CreateUser(t *testing.T, conn *gorm.DB, username string, role types.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		Profile:      &models.Profile{Role: role},
	}
	require.NoError(t, conn.Create(u).Error)
	return u
}

// CreateIncident inserts an incident directly, bypassing services.
func CreateIncident(t *testing.T, conn *gorm.DB, inc *models.Incident) *models.Incident {
	t.Helper()

	if inc.Slug == "" {
		inc.Slug = fmt.Sprintf("incident-%d", dbSeq.Add(1))
	}
	if inc.Body == "" {
		inc.Body = "body"
	}
	if inc.Status == "" {
		inc.Status = types.StatusNew
	}
	require.NoError(t, conn.Create(inc).Error)
	return inc
}

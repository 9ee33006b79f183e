package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "token", cfg.Auth.CookieName)
	assert.Equal(t, "/users/login/", cfg.Routes.LoginURL)
	assert.Equal(t, "/", cfg.Routes.ForbiddenRedirect)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 50, cfg.Worker.PoolSize)
	assert.Equal(t, "fallback.jpg", cfg.Incidents.DefaultBanner)
	assert.Equal(t, 10, cfg.Incidents.DashboardRecentLimit)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("ROUTES_FORBIDDEN_REDIRECT", "/denied/")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, ":8081", cfg.Server.Addr())
	assert.Equal(t, "/denied/", cfg.Routes.ForbiddenRedirect)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "url wins",
			cfg:  DatabaseConfig{URL: "postgres://u:p@db:5432/x", Host: "ignored"},
			want: "postgres://u:p@db:5432/x",
		},
		{
			name: "constructed with default sslmode",
			cfg:  DatabaseConfig{Host: "localhost", Port: 5432, User: "st", Password: "pw", Name: "st"},
			want: "postgres://st:pw@localhost:5432/st?sslmode=disable",
		},
		{
			name: "constructed with explicit sslmode",
			cfg:  DatabaseConfig{Host: "db", Port: 6432, User: "st", Password: "pw", Name: "st", SSLMode: "require"},
			want: "postgres://st:pw@db:6432/st?sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}

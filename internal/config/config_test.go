package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, ":8000", cfg.Addr())
	assert.Equal(t, BackendMemory, cfg.DataBackend)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "pgx", cfg.DatabaseDriver)
	assert.Equal(t, "bibliotheca", cfg.DBName)
	assert.Equal(t, 5, cfg.DBConnectAttempts)
	assert.Empty(t, cfg.LogLevel)
	assert.True(t, cfg.MetricsEnabled)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATA_BACKEND", "mongo")
	t.Setenv("URL_MONGO", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRY", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, BackendMongo, cfg.DataBackend)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.True(t, cfg.AuthEnabled())
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"postgres without url": {"DATA_BACKEND": "postgres", "DATABASE_URL": ""},
		"mongo without url":    {"DATA_BACKEND": "mongo", "URL_MONGO": ""},
		"unknown backend":      {"DATA_BACKEND": "cassandra"},
		"bad port":             {"HTTP_PORT": "70000"},
		"unparsable duration":  {"SHUTDOWN_TIMEOUT": "soon"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

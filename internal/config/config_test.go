package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("RESTRICTION_CACHE_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.RestrictionCacheTTL)
	assert.Contains(t, cfg.DatabaseURL(), "sslmode=disable")
	assert.True(t, cfg.HasDatabase())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("RESTRICTION_CACHE_TTL", "90s")
	t.Setenv("PRESIGN_EXPIRY", "3600")
	t.Setenv("RULES_FILE", "/etc/rules.yaml")
	t.Setenv("DB_MAX_CONNS", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6543, cfg.DBPort)
	assert.Equal(t, 90*time.Second, cfg.RestrictionCacheTTL)
	assert.Equal(t, time.Hour, cfg.PresignExpiry)
	assert.Equal(t, "/etc/rules.yaml", cfg.RulesFile)
	assert.Equal(t, 8, cfg.DBMaxConns)
	assert.Contains(t, cfg.DatabaseURL(), "@db.internal:6543/")
	assert.Contains(t, cfg.DatabaseURL(), "sslmode=require")
}

func TestGetEnvDuration_Invalid(t *testing.T) {
	t.Setenv("SOME_TTL", "soon")
	assert.Equal(t, time.Minute, getEnvDuration("SOME_TTL", time.Minute))
}

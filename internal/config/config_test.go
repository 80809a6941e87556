package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "sqlite://deadline.db")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CRON_SECRET", "cron")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, 20, cfg.PlatformFeePercent)
	assert.Equal(t, int64(100), cfg.PenaltyMin)
	assert.Equal(t, int64(10000), cfg.DepositMax)
	assert.Equal(t, time.Minute, cfg.SweepInterval.Duration)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.PushEnabled())
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CRON_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
	assert.Contains(t, err.Error(), "CRON_SECRET is required")
}

func TestEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("JWT_TTL_MINUTES", "30")
	t.Setenv("SWEEP_INTERVAL", "5m")
	t.Setenv("PENALTY_MAX", "5000")
	t.Setenv("PLATFORM_FEE_PERCENT", "10")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL.Duration)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval.Duration)
	assert.Equal(t, int64(5000), cfg.PenaltyMax)
	assert.Equal(t, 10, cfg.PlatformFeePercent)
}

func TestEnvRejectsGarbage(t *testing.T) {
	for key, value := range map[string]string{
		"JWT_TTL_MINUTES":      "-1",
		"SWEEP_INTERVAL":       "often",
		"DEPOSIT_MIN":          "ten",
		"PLATFORM_FEE_PERCENT": "150",
	} {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestTOMLFileWithEnvPrecedence(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "deadline-daddy.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
port = "7070"
app_url = "https://deadlinedaddy.example"
sweep_interval = "30s"
deposit_max = 20000

[log]
level = "debug"
file = "/var/log/deadline-daddy.log"
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "6060")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "6060", cfg.Port)
	assert.Equal(t, "https://deadlinedaddy.example", cfg.AppURL)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval.Duration)
	assert.Equal(t, int64(20000), cfg.DepositMax)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/var/log/deadline-daddy.log", cfg.Log.File)
	assert.Equal(t, 5, cfg.Log.MaxBackups)
}

func TestTOMLFileMissing(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))

	_, err := Load()
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.RemoteDriver)
	assert.Equal(t, "portal-main", cfg.DocumentID)
	assert.Equal(t, 2000, cfg.PushDebounceMS)
	assert.Equal(t, "admin", cfg.AdminUsername)
}

func TestLoadRejectsBadDriver(t *testing.T) {
	t.Setenv("REMOTE_DRIVER", "mongodb")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadParsesCSVOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://portal.example.com, https://admin.example.com")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://portal.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadTierConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	body := []byte("tiers:\n  BRONZE: 2500\n  SILVER: 6000\nlevel1Percent: 12\nlevel2Percent: 6\nminWithdrawal: 1500\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	tc, err := LoadTierConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), tc.Tiers["BRONZE"])
	assert.Equal(t, int64(12), tc.Level1Percent)
	assert.Equal(t, int64(1500), tc.MinWithdrawal)
}

func TestLoadTierConfigMissingFile(t *testing.T) {
	_, err := LoadTierConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/sirocco"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SIROCCO_API", "")

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, sirocco.PlaceholderToken, cfg.APIToken)
	assert.False(t, cfg.HasToken())
	assert.Equal(t, sirocco.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, sirocco.APIVersion, cfg.APIVersion)
	assert.Equal(t, time.Duration(0), cfg.HTTPTimeout)
	assert.Equal(t, 15*time.Minute, cfg.PollInterval)
	assert.Equal(t, 5*24*time.Hour, cfg.StorageTTL)
	assert.Equal(t, 12*time.Hour, cfg.StorageCleanupInterval)
}

func TestLoadReadsTokenFromEnvironment(t *testing.T) {
	t.Setenv("SIROCCO_API", "abcd1234efgh5678")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "20")

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.True(t, cfg.HasToken())
	assert.Equal(t, 20*time.Second, cfg.HTTPTimeout)

	sc := cfg.SiroccoConfig()
	assert.Equal(t, "abcd1234efgh5678", sc.Token)

	red := cfg.Redacted()
	assert.Equal(t, "abcd****5678", red.APIToken)
	assert.Equal(t, "abcd1234efgh5678", cfg.APIToken, "Redacted must not mutate the receiver")
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SIROCCO_BASE_URL=https://staging.example/national\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("SIROCCO_BASE_URL") })

	cfg, err := LoadFrom(envFile)
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example/national", cfg.BaseURL)
}

func TestLoadRejectsInvalidIntervals(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "0")
	_, err := LoadFrom("")
	assert.Error(t, err)
}

func TestLoadRejectsNegativeTimeout(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SECONDS", "-1")
	_, err := LoadFrom("")
	assert.Error(t, err)
}

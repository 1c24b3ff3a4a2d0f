package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "supabase", cfg.Store.Driver)
	assert.Equal(t, "en", cfg.I18n.DefaultLanguage)
	assert.Equal(t, 500, cfg.Chat.MaxMessageLength)
	assert.Equal(t, 2*time.Second, cfg.Chat.MinDelay)
	assert.Equal(t, 4*time.Second, cfg.Chat.MaxDelay)
	assert.False(t, cfg.Supabase.Configured())
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.Server.CORSOrigins())
}

func TestLoad_SupabaseEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "https://demo.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://demo.supabase.co", cfg.Supabase.URL)
	assert.Equal(t, "anon", cfg.Supabase.AnonKey)
	assert.True(t, cfg.Supabase.Configured())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("store:\n  driver: sqlite\nchat:\n  min_delay: 10ms\n  max_delay: 20ms\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 10*time.Millisecond, cfg.Chat.MinDelay)
	assert.Equal(t, 20*time.Millisecond, cfg.Chat.MaxDelay)
}

func TestServerConfig_CORS(t *testing.T) {
	cfg := ServerConfig{PublicURL: "https://advisor.example/"}
	assert.Equal(t, []string{"https://advisor.example"}, cfg.CORSOrigins())
	assert.True(t, cfg.CORSCredentials())

	cfg.AllowedOrigins = []string{"*"}
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins())
	assert.False(t, cfg.CORSCredentials(), "credentials are never sent to a wildcard origin")

	cfg.AllowedOrigins = []string{"https://a.example", "https://*.b.example"}
	assert.False(t, cfg.CORSCredentials())

	assert.False(t, ServerConfig{}.CORSCredentials())
}

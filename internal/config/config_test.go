package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, ModeStdio, cfg.Transport.Mode)
	require.Equal(t, ":memory:", cfg.DB.Path)
	require.Equal(t, 11, cfg.Replay.TotalPulses)
	require.Equal(t, 400*time.Millisecond, cfg.Replay.StepPause)
	require.Equal(t, 1500*time.Millisecond, cfg.Scan.Delay)
	require.Equal(t, cfg.Replay.DefaultTrace, cfg.SessionConfig().DefaultTrace)
	require.Equal(t, cfg.Scan.Delay, cfg.SessionConfig().ScanDelay)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
transport:
  mode: http
replay:
  total_pulses: 5
  step_pause: 50ms
scan:
  delay: 2s
artifacts:
  base_url: https://example.com/replay/
auth:
  enabled: true
  tokens:
    secret: tenant-a
`), 0o600))

	t.Setenv("TRACEREPLAY_CONFIG_PATH", path)
	t.Setenv("TRACEREPLAY_SERVER_PORT", "7070")
	t.Setenv("TRACEREPLAY_LOG_LEVEL", "debug")
	t.Setenv("TRACEREPLAY_AUTH_TOKENS", "k1:tenant-1,k2:tenant-2")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ModeHTTP, cfg.Transport.Mode)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 5, cfg.Replay.TotalPulses)
	require.Equal(t, 50*time.Millisecond, cfg.Replay.StepPause)
	require.Equal(t, 2*time.Second, cfg.Scan.Delay)
	require.Equal(t, "https://example.com/replay/", cfg.Artifacts.BaseURL)
	require.Equal(t, map[string]string{"k1": "tenant-1", "k2": "tenant-2"}, cfg.Auth.Tokens)
	require.True(t, cfg.AuthRequired())
	require.Equal(t, "0.0.0.0:7070", cfg.Addr())
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("TRACEREPLAY_CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		require.ErrorContains(t, err, "read config file")
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("TRACEREPLAY_SERVER_PORT", "eighty")
		_, err := Load()
		require.ErrorContains(t, err, "parse env")
	})

	t.Run("invalid mode", func(t *testing.T) {
		t.Setenv("TRACEREPLAY_TRANSPORT_MODE", "carrier-pigeon")
		_, err := Load()
		require.ErrorIs(t, err, ErrInvalid)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero pulses", mutate: func(c *Config) { c.Replay.TotalPulses = 0 }},
		{name: "negative pause", mutate: func(c *Config) { c.Replay.StepPause = -time.Second }},
		{name: "no artifacts", mutate: func(c *Config) { c.Artifacts = ArtifactsConfig{} }},
		{name: "bad port", mutate: func(c *Config) { c.Transport.Mode = ModeJSONRPC; c.Server.Port = 0 }},
		{name: "auth without tokens", mutate: func(c *Config) { c.Transport.Mode = ModeHTTP; c.Auth.Enabled = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}

	cfg := Default()
	cfg.Auth.Enabled = true
	require.NoError(t, cfg.Validate(), "stdio ignores auth")
	require.False(t, cfg.AuthRequired())
}

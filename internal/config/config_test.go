package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:5001", cfg.Service.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Service.Timeout)
	assert.Equal(t, "ffmpeg", cfg.Speech.Audio.RecorderCommand)
	assert.Equal(t, 16000, cfg.Speech.Audio.SampleRate)
	assert.Equal(t, "nova-2", cfg.Speech.Deepgram.Model)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.Store.Path)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
service:
  base_url: https://interview.example.com
  timeout: 10s
speech:
  audio:
    sample_rate: 48000
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://interview.example.com", cfg.Service.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Service.Timeout)
	assert.Equal(t, 48000, cfg.Speech.Audio.SampleRate)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service:\n  base_url: https://from-file\n"), 0o644))

	t.Setenv("MOCKVIEW_SERVICE_URL", "https://from-env")
	t.Setenv("MOCKVIEW_SERVICE_TIMEOUT_MS", "2500")
	t.Setenv("DEEPGRAM_API_KEY", "dg-test-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://from-env", cfg.Service.BaseURL)
	assert.Equal(t, 2500*time.Millisecond, cfg.Service.Timeout)
	assert.Equal(t, "dg-test-key", cfg.Speech.Deepgram.APIKey)
}

func TestLoadMissingFileIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:5001", cfg.Service.BaseURL)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service: [not a mapping"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.Service.BaseURL = " " }},
		{"zero timeout", func(c *Config) { c.Service.Timeout = 0 }},
		{"zero sample rate", func(c *Config) { c.Speech.Audio.SampleRate = 0 }},
		{"zero channels", func(c *Config) { c.Speech.Audio.Channels = 0 }},
		{"tiny chunk size", func(c *Config) { c.Speech.Audio.ChunkSize = 128 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaults()
			tc.mutate(&cfg)
			assert.Error(t, validate(cfg))
		})
	}
}

func TestDefaultTTSCommandFallsBack(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()

	lookPath = func(string) (string, error) { return "", os.ErrNotExist }
	assert.Equal(t, "espeak", defaultTTSCommand())

	lookPath = func(name string) (string, error) {
		if name == "espeak-ng" {
			return "/usr/bin/espeak-ng", nil
		}
		return "", os.ErrNotExist
	}
	assert.Equal(t, "espeak-ng", defaultTTSCommand())
}

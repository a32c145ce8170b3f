package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Provider != "anthropic" {
		t.Errorf("Default provider = %q, want %q", cfg.Provider, "anthropic")
	}
	if cfg.MaxWorkers != 3 {
		t.Errorf("Default maxWorkers = %d, want 3", cfg.MaxWorkers)
	}
	if cfg.MaxFileBytes != 102400 {
		t.Errorf("Default maxFileBytes = %d, want 102400", cfg.MaxFileBytes)
	}
	if cfg.Threshold != 70 {
		t.Errorf("Default threshold = %v, want 70", cfg.Threshold)
	}
	if cfg.MaxIssues != 20 {
		t.Errorf("Default maxIssues = %d, want 20", cfg.MaxIssues)
	}
	if cfg.RequestTimeout() != 30*time.Second || cfg.TaskTimeout() != 60*time.Second {
		t.Errorf("Default timeouts = %v/%v", cfg.RequestTimeout(), cfg.TaskTimeout())
	}
	if !cfg.Cache.Enabled || cfg.Cache.Backend != "file" {
		t.Errorf("Default cache = %+v", cfg.Cache)
	}
	if !cfg.Privacy.RedactSecrets {
		t.Error("Default redactSecrets should be true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestModelID(t *testing.T) {
	cfg := Default()
	cfg.Provider = "openai"
	cfg.Model = "gpt-4o"
	if got := cfg.ModelID(); got != "openai:gpt-4o" {
		t.Errorf("ModelID = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"provider", func(c *Config) { c.Provider = "cohere" }, "unknown provider"},
		{"workers", func(c *Config) { c.MaxWorkers = 0 }, "maxWorkers"},
		{"file bytes", func(c *Config) { c.MaxFileBytes = 0 }, "maxFileBytes"},
		{"threshold", func(c *Config) { c.Threshold = 101 }, "threshold"},
		{"format", func(c *Config) { c.Format = "html" }, "unknown format"},
		{"perspective", func(c *Config) { c.Perspectives = []string{"style"} }, "invalid perspectives: style"},
		{"backend", func(c *Config) { c.Cache.Backend = "redis" }, "cache backend"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log level"},
		{"task timeout", func(c *Config) { c.TaskTimeoutSeconds = 0 }, "taskTimeoutSeconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.MaxWorkers = 0
	cfg.Format = "html"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxWorkers")
	assert.Contains(t, err.Error(), "unknown format")
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFrom_Precedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `provider: openai
model: gpt-4o
maxWorkers: 5
threshold: 60
perspectives: [security]
cache:
  enabled: false
  backend: sqlite
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	t.Setenv("FACET_MODEL", "gpt-4o-mini")
	t.Setenv("FACET_MAX_WORKERS", "7")
	t.Setenv("FACET_PERSPECTIVES", "quality, performance")

	cfg, err := LoadFrom(path, map[string]any{"maxWorkers": 2})
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider, "file beats default")
	assert.Equal(t, "gpt-4o-mini", cfg.Model, "env beats file")
	assert.Equal(t, 2, cfg.MaxWorkers, "override beats env")
	assert.Equal(t, 60.0, cfg.Threshold)
	assert.Equal(t, []string{"quality", "performance"}, cfg.Perspectives)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, 20, cfg.MaxIssues, "untouched keys keep defaults")
}

func TestLoadFrom_EnvBool(t *testing.T) {
	clearEnv(t)
	t.Setenv("FACET_CACHE", "false")
	t.Setenv("FACET_REDACT_SECRETS", "false")
	cfg, err := LoadFrom("", nil)
	require.NoError(t, err)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Privacy.RedactSecrets)
}

func TestLoadFrom_BadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0o644))
	_, err := LoadFrom(path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Default()
	cfg.Model = "claude-haiku"
	cfg.Perspectives = []string{"security"}
	require.NoError(t, SaveTo(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "maxWorkers: 3"))

	loaded, err := LoadFrom(path, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("FACET_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	p, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "facet", "config.yaml"), p)

	t.Setenv("FACET_CONFIG", "/etc/facet.yaml")
	p, err = ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/facet.yaml", p)
}

func TestSetField(t *testing.T) {
	cfg := Default()
	require.NoError(t, SetField(&cfg, "maxWorkers", "8"))
	require.NoError(t, SetField(&cfg, "temperature", "0.5"))
	require.NoError(t, SetField(&cfg, "cache.enabled", "false"))
	require.NoError(t, SetField(&cfg, "perspectives", "security, quality"))

	assert.Equal(t, 8, cfg.MaxWorkers)
	assert.Equal(t, 0.5, cfg.Temperature)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, []string{"security", "quality"}, cfg.Perspectives)

	assert.ErrorIs(t, SetField(&cfg, "maxWorkers", "many"), ErrInvalid)
	assert.ErrorIs(t, SetField(&cfg, "nope", "x"), ErrInvalid)
}

func TestKeysAreSettable(t *testing.T) {
	for _, k := range Keys() {
		cfg := Default()
		val := "1"
		if strings.HasPrefix(k, "cache.enabled") || k == "privacy.redactSecrets" {
			val = "true"
		}
		assert.NoError(t, SetField(&cfg, k, val), k)
	}
}

func TestLoadFile_IgnoresEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("FACET_MODEL", "from-env")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	require.NoError(t, os.WriteFile(path, []byte("threshold: 85\n"), 0o644))
	cfg, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 85.0, cfg.Threshold)
	assert.Equal(t, Default().Model, cfg.Model)

	require.NoError(t, os.WriteFile(path, []byte("threshold: [\n"), 0o644))
	_, err = LoadFile(path)
	assert.ErrorIs(t, err, ErrInvalid)
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dshills/facet/internal/perspective"
)

// ErrInvalid marks configuration problems: bad values, unknown keys or
// selections that can never produce a review.
var ErrInvalid = errors.New("invalid configuration")

// Providers lists the accepted provider names.
var Providers = []string{"anthropic", "openai", "ollama", "lmstudio", "gemini"}

// Formats lists the accepted report formats.
var Formats = []string{"text", "json", "yaml", "markdown", "github", "table", "sarif"}

// Config is the effective facet configuration. It is built once per
// invocation and passed by value.
type Config struct {
	Provider              string        `json:"provider" yaml:"provider" mapstructure:"provider"`
	Model                 string        `json:"model" yaml:"model" mapstructure:"model"`
	Endpoint              string        `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	RequestTimeoutSeconds int           `json:"requestTimeoutSeconds" yaml:"requestTimeoutSeconds" mapstructure:"requestTimeoutSeconds"`
	TaskTimeoutSeconds    int           `json:"taskTimeoutSeconds" yaml:"taskTimeoutSeconds" mapstructure:"taskTimeoutSeconds"`
	MaxWorkers            int           `json:"maxWorkers" yaml:"maxWorkers" mapstructure:"maxWorkers"`
	MaxFileBytes          int           `json:"maxFileBytes" yaml:"maxFileBytes" mapstructure:"maxFileBytes"`
	MaxTokens             int           `json:"maxTokens" yaml:"maxTokens" mapstructure:"maxTokens"`
	Temperature           float64       `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
	Threshold             float64       `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
	MaxIssues             int           `json:"maxIssues" yaml:"maxIssues" mapstructure:"maxIssues"`
	Format                string        `json:"format" yaml:"format" mapstructure:"format"`
	Perspectives          []string      `json:"perspectives,omitempty" yaml:"perspectives,omitempty" mapstructure:"perspectives"`
	Extensions            []string      `json:"extensions" yaml:"extensions" mapstructure:"extensions"`
	Cache                 CacheConfig   `json:"cache" yaml:"cache" mapstructure:"cache"`
	Privacy               PrivacyConfig `json:"privacy" yaml:"privacy" mapstructure:"privacy"`
	Log                   LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}

// CacheConfig controls result caching.
type CacheConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`
	Dir     string `json:"dir,omitempty" yaml:"dir,omitempty" mapstructure:"dir"`
}

// PrivacyConfig controls redaction of content before it leaves the machine.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets" yaml:"redactSecrets" mapstructure:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty" yaml:"redactPaths,omitempty" mapstructure:"redactPaths"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:              "anthropic",
		Model:                 "claude-sonnet-4-20250514",
		RequestTimeoutSeconds: 30,
		TaskTimeoutSeconds:    60,
		MaxWorkers:            3,
		MaxFileBytes:          100 * 1024,
		MaxTokens:             2000,
		Temperature:           0.3,
		Threshold:             70,
		MaxIssues:             20,
		Format:                "text",
		Extensions:            []string{".py", ".js", ".ts", ".java", ".go", ".rb", ".cpp", ".c", ".cs"},
		Cache: CacheConfig{
			Enabled: true,
			Backend: "file",
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
		Log: LogConfig{Level: "warn"},
	}
}

// ModelID identifies the model for cache keys: "provider:model".
func (c Config) ModelID() string {
	return c.Provider + ":" + c.Model
}

// RequestTimeout is the per-call deadline applied to the remote endpoint.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// TaskTimeout is the deadline for one file × perspective task, including
// cache access and the remote call.
func (c Config) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutSeconds) * time.Second
}

// Validate reports every problem with c in a single ErrInvalid error.
func (c Config) Validate() error {
	var problems []string
	if !contains(Providers, c.Provider) {
		problems = append(problems, fmt.Sprintf("unknown provider %q (valid: %s)", c.Provider, strings.Join(Providers, ", ")))
	}
	if strings.TrimSpace(c.Model) == "" {
		problems = append(problems, "model must not be empty")
	}
	if c.RequestTimeoutSeconds < 1 {
		problems = append(problems, "requestTimeoutSeconds must be at least 1")
	}
	if c.TaskTimeoutSeconds < 1 {
		problems = append(problems, "taskTimeoutSeconds must be at least 1")
	}
	if c.MaxWorkers < 1 {
		problems = append(problems, "maxWorkers must be at least 1")
	}
	if c.MaxFileBytes < 1 {
		problems = append(problems, "maxFileBytes must be at least 1")
	}
	if c.MaxTokens < 1 {
		problems = append(problems, "maxTokens must be at least 1")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		problems = append(problems, "temperature must be between 0 and 2")
	}
	if c.Threshold < 0 || c.Threshold > 100 {
		problems = append(problems, "threshold must be between 0 and 100")
	}
	if c.MaxIssues < 1 {
		problems = append(problems, "maxIssues must be at least 1")
	}
	if !contains(Formats, c.Format) {
		problems = append(problems, fmt.Sprintf("unknown format %q (valid: %s)", c.Format, strings.Join(Formats, ", ")))
	}
	if _, err := perspective.Parse(c.Perspectives); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Cache.Backend != "file" && c.Cache.Backend != "sqlite" {
		problems = append(problems, fmt.Sprintf("unknown cache backend %q (valid: file, sqlite)", c.Cache.Backend))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory for facet.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "facet"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "facet"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "facet"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "facet"), nil
	default:
		return filepath.Join(home, ".config", "facet"), nil
	}
}

// ConfigPath returns the config file path. FACET_CONFIG overrides the
// default location.
func ConfigPath() (string, error) {
	if p := os.Getenv("FACET_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// envBindings maps config keys to their environment variables.
var envBindings = map[string]string{
	"provider":              "FACET_PROVIDER",
	"model":                 "FACET_MODEL",
	"endpoint":              "FACET_ENDPOINT",
	"requestTimeoutSeconds": "FACET_REQUEST_TIMEOUT",
	"taskTimeoutSeconds":    "FACET_TASK_TIMEOUT",
	"maxWorkers":            "FACET_MAX_WORKERS",
	"maxFileBytes":          "FACET_MAX_FILE_BYTES",
	"maxTokens":             "FACET_MAX_TOKENS",
	"temperature":           "FACET_TEMPERATURE",
	"threshold":             "FACET_THRESHOLD",
	"maxIssues":             "FACET_MAX_ISSUES",
	"format":                "FACET_FORMAT",
	"perspectives":          "FACET_PERSPECTIVES",
	"extensions":            "FACET_EXTENSIONS",
	"cache.enabled":         "FACET_CACHE",
	"cache.backend":         "FACET_CACHE_BACKEND",
	"cache.dir":             "FACET_CACHE_DIR",
	"privacy.redactSecrets": "FACET_REDACT_SECRETS",
	"log.level":             "FACET_LOG_LEVEL",
}

// Load builds the effective config by merging:
// defaults <- config file <- FACET_* env <- overrides.
// Override keys use the dotted names accepted by SetField.
func Load(overrides map[string]any) (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(path, overrides)
}

// LoadFrom is Load with an explicit config file path. A missing file is not
// an error.
func LoadFrom(path string, overrides map[string]any) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("%w: reading config file %s: %v", ErrInvalid, path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("checking config file: %w", err)
		}
	}

	v.SetEnvPrefix("FACET")
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	for k, val := range overrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: decoding config: %v", ErrInvalid, err)
	}
	cfg.Perspectives = splitList(cfg.Perspectives)
	cfg.Extensions = splitList(cfg.Extensions)
	cfg.Privacy.RedactPaths = splitList(cfg.Privacy.RedactPaths)
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("provider", d.Provider)
	v.SetDefault("model", d.Model)
	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("requestTimeoutSeconds", d.RequestTimeoutSeconds)
	v.SetDefault("taskTimeoutSeconds", d.TaskTimeoutSeconds)
	v.SetDefault("maxWorkers", d.MaxWorkers)
	v.SetDefault("maxFileBytes", d.MaxFileBytes)
	v.SetDefault("maxTokens", d.MaxTokens)
	v.SetDefault("temperature", d.Temperature)
	v.SetDefault("threshold", d.Threshold)
	v.SetDefault("maxIssues", d.MaxIssues)
	v.SetDefault("format", d.Format)
	v.SetDefault("perspectives", d.Perspectives)
	v.SetDefault("extensions", d.Extensions)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("privacy.redactSecrets", d.Privacy.RedactSecrets)
	v.SetDefault("privacy.redactPaths", d.Privacy.RedactPaths)
	v.SetDefault("log.level", d.Log.Level)
}

// splitList flattens comma-separated items so that env values such as
// FACET_PERSPECTIVES="security, quality" decode the same as YAML lists.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// LoadFile reads only the config file at path over the defaults, ignoring
// the environment. A missing file yields the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parsing %s: %v", ErrInvalid, path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML to the default config path.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes cfg as YAML to path, creating parent directories.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Keys lists the keys accepted by SetField.
func Keys() []string {
	return []string{
		"provider", "model", "endpoint",
		"requestTimeoutSeconds", "taskTimeoutSeconds",
		"maxWorkers", "maxFileBytes", "maxTokens", "temperature",
		"threshold", "maxIssues", "format", "perspectives", "extensions",
		"cache.enabled", "cache.backend", "cache.dir",
		"privacy.redactSecrets", "privacy.redactPaths", "log.level",
	}
}

// SetField sets a single config field by key name. List values are
// comma-separated. Returns an ErrInvalid error for unknown keys or values
// of the wrong type.
func SetField(cfg *Config, key, value string) error {
	intField := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", ErrInvalid, key)
		}
		*dst = n
		return nil
	}
	floatField := func(dst *float64) error {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", ErrInvalid, key)
		}
		*dst = f
		return nil
	}
	boolField := func(dst *bool) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", ErrInvalid, key)
		}
		*dst = b
		return nil
	}

	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "endpoint":
		cfg.Endpoint = value
	case "requestTimeoutSeconds":
		return intField(&cfg.RequestTimeoutSeconds)
	case "taskTimeoutSeconds":
		return intField(&cfg.TaskTimeoutSeconds)
	case "maxWorkers":
		return intField(&cfg.MaxWorkers)
	case "maxFileBytes":
		return intField(&cfg.MaxFileBytes)
	case "maxTokens":
		return intField(&cfg.MaxTokens)
	case "temperature":
		return floatField(&cfg.Temperature)
	case "threshold":
		return floatField(&cfg.Threshold)
	case "maxIssues":
		return intField(&cfg.MaxIssues)
	case "format":
		cfg.Format = value
	case "perspectives":
		cfg.Perspectives = splitList([]string{value})
	case "extensions":
		cfg.Extensions = splitList([]string{value})
	case "cache.enabled":
		return boolField(&cfg.Cache.Enabled)
	case "cache.backend":
		cfg.Cache.Backend = value
	case "cache.dir":
		cfg.Cache.Dir = value
	case "privacy.redactSecrets":
		return boolField(&cfg.Privacy.RedactSecrets)
	case "privacy.redactPaths":
		cfg.Privacy.RedactPaths = splitList([]string{value})
	case "log.level":
		cfg.Log.Level = value
	default:
		return fmt.Errorf("%w: unknown config key %q", ErrInvalid, key)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

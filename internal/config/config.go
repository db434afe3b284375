// Package config loads scoresheet configuration from defaults, an optional
// YAML file and SCORESHEET_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/jackzampolin/scoresheet/internal/oracle"
)

// ErrMissingAPIKey is returned when no OpenAI API key is configured.
var ErrMissingAPIKey = errors.New("openai.api_key is not set (export OPENAI_API_KEY or edit config.yaml)")

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
	reloadErr func(error)
}

// NewManager creates a new config manager and loads initial config.
// When cfgFile is empty, config.yaml is looked up in the working directory
// and then in homeDir (if set).
func NewManager(cfgFile, homeDir string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile, homeDir); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile, homeDir string) error {
	v := cm.v
	d := DefaultConfig()
	v.SetDefault("openai.api_key", d.OpenAI.APIKey)
	v.SetDefault("openai.project", d.OpenAI.Project)
	v.SetDefault("openai.base_url", d.OpenAI.BaseURL)
	v.SetDefault("openai.model", d.OpenAI.Model)
	v.SetDefault("openai.poll_interval_ms", d.OpenAI.PollIntervalMs)
	v.SetDefault("openai.max_retries", d.OpenAI.MaxRetries)
	v.SetDefault("openai.request_timeout_seconds", d.OpenAI.RequestTimeoutSeconds)
	v.SetDefault("openai.file_ready_attempts", d.OpenAI.FileReadyAttempts)
	v.SetDefault("openai.file_ready_delay_ms", d.OpenAI.FileReadyDelayMs)
	v.SetDefault("extract.categories", d.Extract.Categories)
	v.SetDefault("extract.drop_bad_numbers", d.Extract.DropBadNumbers)
	v.SetDefault("extract.preflight", d.Extract.Preflight)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("watch.debounce_ms", d.Watch.DebounceMs)
	v.SetDefault("custom_categories", []any{})

	// Environment variables with SCORESHEET_ prefix, e.g. SCORESHEET_OPENAI_MODEL
	v.SetEnvPrefix("SCORESHEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if homeDir != "" {
			v.AddConfigPath(homeDir)
		}
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	if err := ValidateCustomCategories(cm.v.Get("custom_categories")); err != nil {
		return nil, err
	}
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// File returns the config file in use, or "" when running on defaults.
func (cm *Manager) File() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// OnReloadError registers a callback for reloads that fail to parse or
// validate. The previous config stays in effect.
func (cm *Manager) OnReloadError(fn func(error)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.reloadErr = fn
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			cm.mu.RLock()
			fn := cm.reloadErr
			cm.mu.RUnlock()
			if fn != nil {
				fn(err)
			}
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ToOracleConfig converts the openai section into an oracle.Config,
// resolving ${ENV_VAR} references in secrets.
func (c *Config) ToOracleConfig() (oracle.Config, error) {
	o := c.OpenAI
	cfg := oracle.Config{
		APIKey:            ResolveEnvVars(o.APIKey),
		Project:           ResolveEnvVars(o.Project),
		Model:             o.Model,
		BaseURL:           ResolveEnvVars(o.BaseURL),
		PollInterval:      time.Duration(o.PollIntervalMs) * time.Millisecond,
		MaxRetries:        o.MaxRetries,
		RequestTimeout:    time.Duration(o.RequestTimeoutSeconds) * time.Second,
		FileReadyAttempts: o.FileReadyAttempts,
		FileReadyDelay:    time.Duration(o.FileReadyDelayMs) * time.Millisecond,
	}
	if cfg.APIKey == "" {
		return cfg, ErrMissingAPIKey
	}
	return cfg, nil
}

// HistoryPath returns the history database path, defaulting into homeDir.
func (c *Config) HistoryPath(homeDir string) string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(homeDir, "history.db")
}

// Redacted returns a copy safe to print: resolved secrets are masked,
// unresolved ${ENV_VAR} references are shown as-is.
func (c *Config) Redacted() *Config {
	out := *c
	out.OpenAI.APIKey = redact(c.OpenAI.APIKey)
	out.Extract.Categories = append([]string(nil), c.Extract.Categories...)
	out.CustomCategories = append([]CustomCategoryCfg(nil), c.CustomCategories...)
	return &out
}

func redact(secret string) string {
	if secret == "" || envPattern.MatchString(secret) {
		return secret
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:3] + "****" + secret[len(secret)-4:]
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Scoresheet configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export OPENAI_API_KEY=xxx

`)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, append(header, data...), 0o600)
}

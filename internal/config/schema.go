package config

import (
	"github.com/jackzampolin/scoresheet/internal/stats"
)

// Config holds scoresheet configuration.
// Stored at: {home}/config.yaml
type Config struct {
	OpenAI           OpenAICfg           `mapstructure:"openai" yaml:"openai" json:"openai"`
	Extract          ExtractCfg          `mapstructure:"extract" yaml:"extract" json:"extract"`
	History          HistoryCfg          `mapstructure:"history" yaml:"history" json:"history"`
	Watch            WatchCfg            `mapstructure:"watch" yaml:"watch" json:"watch"`
	CustomCategories []CustomCategoryCfg `mapstructure:"custom_categories" yaml:"custom_categories" json:"custom_categories"`
}

// OpenAICfg configures the hosted assistant.
type OpenAICfg struct {
	APIKey                string `mapstructure:"api_key" yaml:"api_key" json:"api_key"` // supports ${ENV_VAR} syntax
	Project               string `mapstructure:"project" yaml:"project" json:"project"` // supports ${ENV_VAR} syntax
	BaseURL               string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	Model                 string `mapstructure:"model" yaml:"model" json:"model"`
	PollIntervalMs        int    `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms" json:"poll_interval_ms"`
	MaxRetries            int    `mapstructure:"max_retries" yaml:"max_retries" json:"max_retries"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" yaml:"request_timeout_seconds" json:"request_timeout_seconds"` // 0 = unbounded
	FileReadyAttempts     int    `mapstructure:"file_ready_attempts" yaml:"file_ready_attempts" json:"file_ready_attempts"`
	FileReadyDelayMs      int    `mapstructure:"file_ready_delay_ms" yaml:"file_ready_delay_ms" json:"file_ready_delay_ms"`
}

// ExtractCfg sets extraction defaults; CLI flags override them.
type ExtractCfg struct {
	Categories     []string `mapstructure:"categories" yaml:"categories" json:"categories"` // empty = all
	DropBadNumbers bool     `mapstructure:"drop_bad_numbers" yaml:"drop_bad_numbers" json:"drop_bad_numbers"`
	Preflight      bool     `mapstructure:"preflight" yaml:"preflight" json:"preflight"`
}

// HistoryCfg configures the call history database.
type HistoryCfg struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" json:"path"` // default {home}/history.db
}

// WatchCfg configures the directory watcher.
type WatchCfg struct {
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms" json:"debounce_ms"`
}

// CustomCategoryCfg declares an extra category table, or replaces a built-in
// one with the same key.
type CustomCategoryCfg struct {
	Key     string      `mapstructure:"key" yaml:"key" json:"key"`
	Table   string      `mapstructure:"table" yaml:"table" json:"table"`
	Context string      `mapstructure:"context" yaml:"context,omitempty" json:"context,omitempty"`
	Columns []ColumnCfg `mapstructure:"columns" yaml:"columns" json:"columns"`
}

// ColumnCfg is one column of a custom category.
type ColumnCfg struct {
	Name string `mapstructure:"name" yaml:"name" json:"name"`
	Type string `mapstructure:"type" yaml:"type,omitempty" json:"type,omitempty"` // "number" (default) or "string"
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		OpenAI: OpenAICfg{
			APIKey:            "${OPENAI_API_KEY}",
			Project:           "${OPENAI_PROJECT}",
			Model:             "gpt-4o",
			PollIntervalMs:    1000,
			MaxRetries:        2,
			FileReadyAttempts: 30,
			FileReadyDelayMs:  1000,
		},
		Extract: ExtractCfg{
			Categories: stats.Keys(stats.Categories()),
			Preflight:  true,
		},
		History: HistoryCfg{
			Enabled: true,
		},
		Watch: WatchCfg{
			DebounceMs: 500,
		},
		CustomCategories: []CustomCategoryCfg{},
	}
}

// Category converts the config entry into a stats.Category.
func (c CustomCategoryCfg) Category() stats.Category {
	cols := make([]stats.Column, len(c.Columns))
	for i, col := range c.Columns {
		typ := stats.ColumnNumber
		if col.Type == string(stats.ColumnString) {
			typ = stats.ColumnString
		}
		cols[i] = stats.Column{Name: col.Name, Type: typ}
	}
	return stats.Category{Key: c.Key, Table: c.Table, Columns: cols, Context: c.Context}
}

// Registry returns the built-in categories extended by CustomCategories.
func (c *Config) Registry() *stats.Registry {
	extra := make([]stats.Category, len(c.CustomCategories))
	for i, cc := range c.CustomCategories {
		extra[i] = cc.Category()
	}
	return stats.NewRegistry(extra...)
}

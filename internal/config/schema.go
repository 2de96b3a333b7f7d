// Package config loads the studyfocus runtime configuration and watches
// the cycle settings file.
package config

import (
	"path/filepath"
	"time"
)

// Config is the runtime configuration read from config.yaml, environment
// variables and flags.
type Config struct {
	// UserID scopes the snapshot key and the session records.
	UserID string `yaml:"user_id" mapstructure:"user_id"`

	// DataDir holds snapshots and the session database.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// SettingsFile is the cycle settings YAML edited by the preferences window.
	SettingsFile string `yaml:"settings_file" mapstructure:"settings_file"`

	TickInterval time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`

	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Web     WebConfig     `yaml:"web" mapstructure:"web"`
	Webhook WebhookConfig `yaml:"webhook" mapstructure:"webhook"`
	Idle    IdleConfig    `yaml:"idle" mapstructure:"idle"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// WebConfig configures the HTTP control API.
type WebConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
}

// WebhookConfig configures session record delivery over HTTP. An empty
// URL disables it.
type WebhookConfig struct {
	URL        string        `yaml:"url" mapstructure:"url"`
	Secret     string        `yaml:"secret" mapstructure:"secret"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
}

// IdleConfig configures input idle detection as a foreground signal.
type IdleConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Threshold time.Duration `yaml:"threshold" mapstructure:"threshold"`
	Interval  time.Duration `yaml:"interval" mapstructure:"interval"`
}

// SnapshotDir is where the file-backed snapshot store writes.
func (cfg *Config) SnapshotDir() string {
	return filepath.Join(cfg.DataDir, "snapshots")
}

// DatabasePath is the SQLite session store location.
func (cfg *Config) DatabasePath() string {
	return filepath.Join(cfg.DataDir, "sessions.db")
}

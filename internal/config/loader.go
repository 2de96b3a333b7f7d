package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"studyfocus/internal/errclass"
)

const (
	// AppName names the per-user config directory.
	AppName = "studyfocus"
	// EnvPrefix prefixes environment overrides, e.g. STUDYFOCUS_WEB_ADDR.
	EnvPrefix = "STUDYFOCUS"
)

// DefaultDir returns the per-user configuration directory.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, AppName), nil
}

// Load reads configuration from path, or from config.yaml in dir when path
// is empty. A missing default file is not an error; a missing explicit
// file is.
func Load(path, dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v, dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("user_id", "local")
	v.SetDefault("data_dir", dir)
	v.SetDefault("settings_file", filepath.Join(dir, "settings.yaml"))
	v.SetDefault("tick_interval", "200ms")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("web.enabled", true)
	v.SetDefault("web.addr", "127.0.0.1:7425")

	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.timeout", "10s")
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("webhook.retry_delay", "1s")

	v.SetDefault("idle.enabled", false)
	v.SetDefault("idle.threshold", "5m")
	v.SetDefault("idle.interval", "5s")
}

// Validate rejects configurations the engine cannot run with.
func (cfg *Config) Validate() error {
	switch {
	case strings.TrimSpace(cfg.UserID) == "":
		return errclass.ErrConfigInvalid.WithMessage("user_id is empty")
	case cfg.DataDir == "":
		return errclass.ErrConfigInvalid.WithMessage("data_dir is empty")
	case cfg.TickInterval <= 0:
		return errclass.ErrConfigInvalid.WithMessagef("tick_interval must be positive, got %s", cfg.TickInterval)
	case cfg.Idle.Enabled && (cfg.Idle.Threshold <= 0 || cfg.Idle.Interval <= 0):
		return errclass.ErrConfigInvalid.WithMessage("idle threshold and interval must be positive")
	case cfg.Webhook.MaxRetries < 0:
		return errclass.ErrConfigInvalid.WithMessage("webhook max_retries is negative")
	}
	return nil
}

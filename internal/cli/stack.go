package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"studyfocus/internal/config"
	"studyfocus/internal/core/clock"
	"studyfocus/internal/core/model"
	"studyfocus/internal/core/pomodoro"
	"studyfocus/internal/logging"
	"studyfocus/internal/metrics"
	"studyfocus/internal/recorder"
	"studyfocus/internal/storage"
)

// flushTimeout bounds how long shutdown waits for pending session records.
const flushTimeout = 10 * time.Second

// loadConfig reads the configuration named by --config and builds the logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	dir, err := config.DefaultDir()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(configPath, dir)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, logging.Format(cfg.Log.Format))
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// stack is the engine with its storage and delivery collaborators.
type stack struct {
	cfg       *config.Config
	logger    *zap.Logger
	clock     clock.Clock
	metrics   *metrics.Registry
	snapshots *storage.SnapshotStore
	sessions  *storage.SessionStore
	engine    *pomodoro.Engine
	outcome   pomodoro.RestoreOutcome
	watcher   *config.SettingsWatcher
}

// newStack opens the session database, builds the recorder and restores
// the engine from the snapshot kept in kv. The settings file is watched
// so external edits reach the running engine.
func newStack(cfg *config.Config, kv storage.ScopedKeyValueStore, clk clock.Clock, logger *zap.Logger) (*stack, error) {
	logger = logging.OrNop(logger)
	if clk == nil {
		clk = clock.New()
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	settings, err := storage.LoadSettings(cfg.SettingsFile)
	if err != nil {
		logger.Warn("settings file unreadable, using defaults",
			zap.String("path", cfg.SettingsFile), zap.Error(err))
		settings = model.DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		logger.Warn("settings file invalid, using defaults",
			zap.String("path", cfg.SettingsFile), zap.Error(err))
		settings = model.DefaultSettings()
	}

	sessions, err := storage.OpenSessionStore(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	stores := recorder.MultiStore{sessions}
	if cfg.Webhook.URL != "" {
		stores = append(stores, recorder.NewWebhookStore(recorder.WebhookConfig{
			URL:        cfg.Webhook.URL,
			Secret:     cfg.Webhook.Secret,
			Timeout:    cfg.Webhook.Timeout,
			MaxRetries: cfg.Webhook.MaxRetries,
			RetryDelay: cfg.Webhook.RetryDelay,
		}))
	}

	registry := metrics.NewRegistry()
	snapshots := storage.NewSnapshotStore(kv, cfg.UserID, clk, logger)
	engine := pomodoro.New(settings, pomodoro.Config{
		TickInterval: cfg.TickInterval,
		Clock:        clk,
		Snapshots:    snapshots,
		Recorder:     recorder.New(stores, cfg.UserID, clk, logger),
		Logger:       logger,
		Metrics:      registry,
	})

	s := &stack{
		cfg:       cfg,
		logger:    logger,
		clock:     clk,
		metrics:   registry,
		snapshots: snapshots,
		sessions:  sessions,
		engine:    engine,
	}
	s.outcome = engine.Restore()

	if err := os.MkdirAll(filepath.Dir(cfg.SettingsFile), 0o755); err != nil {
		logger.Warn("settings dir unavailable, not watching", zap.Error(err))
		return s, nil
	}
	watcher, err := config.WatchSettings(cfg.SettingsFile, engine.UpdateSettings, logger)
	if err != nil {
		logger.Warn("settings watcher unavailable", zap.Error(err))
		return s, nil
	}
	s.watcher = watcher
	return s, nil
}

// saveSettings writes settings to the settings file and applies them. The
// watcher's reload of the same values is a no-op.
func (s *stack) saveSettings(settings model.Settings) error {
	if err := storage.SaveSettings(s.cfg.SettingsFile, settings); err != nil {
		return err
	}
	return s.engine.UpdateSettings(settings)
}

// Close drains pending session records and releases resources.
func (s *stack) Close() error {
	var errs []error
	if s.watcher != nil {
		errs = append(errs, s.watcher.Close())
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := s.engine.Flush(ctx); err != nil {
		s.logger.Warn("pending session records not delivered", zap.Error(err))
	}
	s.engine.Close()

	errs = append(errs, s.sessions.Close())
	_ = s.logger.Sync()
	return errors.Join(errs...)
}

package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"studyfocus/internal/core/model"
	"studyfocus/internal/logging"
	"studyfocus/internal/storage"
)

// SettingsWatcher reloads the settings file whenever it is written or
// replaced and hands the result to apply.
type SettingsWatcher struct {
	path    string
	apply   func(model.Settings) error
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchSettings starts watching path. The parent directory is watched so
// atomic replacements (write temp, rename) are seen.
func WatchSettings(path string, apply func(model.Settings) error, logger *zap.Logger) (*SettingsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create settings watcher: %w", err)
	}
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch settings dir: %w", err)
	}

	settingsWatcher := &SettingsWatcher{
		path:    path,
		apply:   apply,
		logger:  logging.OrNop(logger),
		watcher: watcher,
		done:    make(chan struct{}),
	}
	go settingsWatcher.run()
	return settingsWatcher, nil
}

// Close stops watching and waits for the event loop to exit.
func (w *SettingsWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *SettingsWatcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("settings watcher error", zap.Error(err))
		}
	}
}

func (w *SettingsWatcher) reload() {
	settings, err := storage.LoadSettings(w.path)
	if err != nil {
		w.logger.Warn("reload settings failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	if err := w.apply(settings); err != nil {
		w.logger.Warn("apply settings failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.logger.Info("settings reloaded",
		zap.Int("work_seconds", settings.WorkDurationSeconds),
		zap.Int("break_seconds", settings.BreakDurationSeconds),
		zap.Int("long_break_seconds", settings.LongBreakDurationSeconds),
		zap.Int("sessions_until_long_break", settings.SessionsUntilLongBreak))
}

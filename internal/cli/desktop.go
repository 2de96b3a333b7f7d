package cli

import (
	"context"
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studyfocus/internal/config"
	"studyfocus/internal/core/model"
	"studyfocus/internal/core/pomodoro"
	"studyfocus/internal/platform"
	"studyfocus/internal/ui/overlay"
	"studyfocus/internal/ui/preferences"
	"studyfocus/internal/ui/tray"
	"studyfocus/internal/web"
)

const (
	appID = "io.studyfocus.app"

	// breakOpacity is the break window background alpha.
	breakOpacity = 230
)

var errTrayUnsupported = errors.New("system tray unsupported on this platform")

var desktopCmd = &cobra.Command{
	Use:   "desktop",
	Short: "Run the timer as a system tray app",
	RunE:  runDesktop,
}

func runDesktop(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	guard, err := platform.AcquireSingleInstance(config.AppName, cfg.UserID)
	if err != nil {
		return err
	}
	defer func() {
		_ = guard.Release()
	}()

	fyneApp := app.NewWithID(appID)
	fyneApp.SetIcon(theme.MediaPlayIcon())
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		return errTrayUnsupported
	}

	// Snapshots live in the app preferences so they follow the desktop
	// profile rather than the data dir.
	s, err := newStack(cfg, platform.NewPreferencesStore(fyneApp.Preferences()), nil, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()
	engine := s.engine

	trayWindow := fyneApp.NewWindow("studyfocus")
	trayWindow.SetContent(widget.NewLabel("studyfocus is running in the system tray."))
	trayWindow.SetCloseIntercept(trayWindow.Hide)
	trayWindow.Hide()
	desktopApp.SetSystemTrayWindow(trayWindow)

	prefsWindow := preferences.New(fyneApp, engine.Settings(), s.saveSettings)
	breakWindow := overlay.New(fyneApp, breakOpacity, overlay.Actions{
		OnStart: func() { engine.Start("") },
		OnSkip: func() {
			if err := engine.ChangeMode(model.ModeWork); err != nil {
				logger.Warn("skip break", zap.Error(err))
			}
		},
	})

	trayManager := tray.New(desktopApp, tray.Callbacks{
		OnPreferences: prefsWindow.Show,
		OnToggle: func() {
			if engine.State().Running {
				engine.Pause()
			} else {
				engine.Start("")
			}
		},
		OnReset: engine.Reset,
		OnMode: func(mode model.Mode) {
			if err := engine.ChangeMode(mode); err != nil {
				logger.Warn("change mode", zap.Error(err))
			}
		},
		OnQuit: fyneApp.Quit,
	})

	manual := platform.NewManualSignal()
	unwatchManual := engine.WatchForeground(manual)
	defer unwatchManual()
	detach := attachSignals(s, platform.NewLifecycleSignal(fyneApp.Lifecycle()))
	defer detach()
	stopEvents := logEvents(engine, logger)
	defer stopEvents()

	render := func(state model.TimerState, settings model.Settings) {
		trayManager.Update(state, settings)
		breakWindow.Update(state)
		if state.Running {
			desktopApp.SetSystemTrayIcon(theme.MediaPlayIcon())
		} else {
			desktopApp.SetSystemTrayIcon(theme.MediaPauseIcon())
		}
	}
	render(engine.State(), engine.Settings())

	events := engine.Subscribe(8)
	go func() {
		for event := range events {
			settings := engine.Settings()
			fyne.Do(func() {
				render(event.State, settings)
				if event.Type == pomodoro.EventSettingsChanged {
					prefsWindow.UpdateSettings(settings)
				}
			})
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if cfg.Web.Enabled {
		server := web.NewServer(web.Options{
			Timer:      engine,
			Sessions:   s.sessions,
			Foreground: manual,
			Metrics:    s.metrics.Handler(),
			UserID:     cfg.UserID,
			Logger:     logger,
		})
		go func() {
			if err := server.Run(ctx, cfg.Web.Addr); err != nil {
				logger.Warn("control api stopped", zap.Error(err))
			}
		}()
	}

	if s.outcome == pomodoro.RestoreFresh {
		prefsWindow.Show()
	}
	fyneApp.Run()
	return nil
}

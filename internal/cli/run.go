package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studyfocus/internal/config"
	"studyfocus/internal/core/pomodoro"
	"studyfocus/internal/platform"
	"studyfocus/internal/storage"
	"studyfocus/internal/web"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the timer headless with the HTTP control API",
	RunE:  runHeadless,
}

func runHeadless(cmd *cobra.Command, args []string) error {
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

	kv, err := storage.NewFileStore(cfg.SnapshotDir())
	if err != nil {
		return err
	}
	s, err := newStack(cfg, kv, nil, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	manual := platform.NewManualSignal()
	detach := attachSignals(s, manual)
	defer detach()

	stopEvents := logEvents(s.engine, logger)
	defer stopEvents()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.Web.Enabled {
		logger.Info("control api disabled")
		<-ctx.Done()
		return nil
	}

	server := web.NewServer(web.Options{
		Timer:      s.engine,
		Sessions:   s.sessions,
		Foreground: manual,
		Metrics:    s.metrics.Handler(),
		UserID:     cfg.UserID,
		Logger:     logger,
	})
	if err := server.Run(ctx, cfg.Web.Addr); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// attachSignals connects the foreground sources to the engine: the given
// signal, process continuation and, when enabled, input idleness.
func attachSignals(s *stack, foreground pomodoro.ForegroundSignal) func() {
	var detach []func()
	if foreground != nil {
		detach = append(detach, s.engine.WatchForeground(foreground))
	}

	resume := platform.NewResumeSignal()
	detach = append(detach, s.engine.WatchForeground(resume), resume.Close)

	if s.cfg.Idle.Enabled {
		idle := platform.NewIdleSignal(platform.NewIdleProvider(), s.clock,
			s.cfg.Idle.Interval, s.cfg.Idle.Threshold, s.logger)
		unwatch := s.engine.WatchForeground(idle)
		if err := idle.Start(); err != nil {
			s.logger.Warn("idle detection unavailable", zap.Error(err))
			unwatch()
		} else {
			detach = append(detach, idle.Stop, unwatch)
		}
	}

	return func() {
		for i := len(detach) - 1; i >= 0; i-- {
			detach[i]()
		}
	}
}

// logEvents logs completions and record failures until the returned
// function is called or the engine closes.
func logEvents(engine *pomodoro.Engine, logger *zap.Logger) func() {
	events := engine.Subscribe(16)
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		for {
			select {
			case <-done:
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				switch event.Type {
				case pomodoro.EventCompleted:
					logger.Info("segment completed",
						zap.String("mode", string(event.Completed)),
						zap.String("next", string(event.State.Mode)),
						zap.Bool("auto_start", event.AutoStart))
				case pomodoro.EventRecordFailed:
					logger.Warn("session record failed",
						zap.String("session_id", event.SessionID), zap.String("error", event.Message))
				}
			}
		}
	}()
	return func() {
		close(done)
		<-exited
	}
}

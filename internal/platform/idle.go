package platform

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"studyfocus/internal/core/clock"
	"studyfocus/internal/logging"
)

// ErrIdleUnsupported indicates the host cannot report input idle time.
var ErrIdleUnsupported = errors.New("idle detection unsupported")

// IdleProvider returns the duration since last user input.
type IdleProvider interface {
	IdleDuration() (time.Duration, error)
}

// NewIdleProvider returns a platform-specific idle provider.
func NewIdleProvider() IdleProvider {
	return newIdleProvider()
}

// IdleSignal treats the user as away once input has been idle for at
// least Threshold, and back in the foreground on the next input.
type IdleSignal struct {
	signalHub

	provider  IdleProvider
	clock     clock.Clock
	interval  time.Duration
	threshold time.Duration
	logger    *zap.Logger

	active bool
	stop   chan struct{}
	done   chan struct{}
}

// NewIdleSignal polls provider every interval.
func NewIdleSignal(provider IdleProvider, clk clock.Clock, interval, threshold time.Duration, logger *zap.Logger) *IdleSignal {
	if clk == nil {
		clk = clock.New()
	}
	return &IdleSignal{
		provider:  provider,
		clock:     clk,
		interval:  interval,
		threshold: threshold,
		logger:    logging.OrNop(logger),
		active:    true,
	}
}

// Start begins polling. It returns ErrIdleUnsupported when the provider
// cannot report idle time, in which case the signal never fires.
func (idle *IdleSignal) Start() error {
	if _, err := idle.provider.IdleDuration(); errors.Is(err, ErrIdleUnsupported) {
		return err
	}
	idle.stop = make(chan struct{})
	idle.done = make(chan struct{})
	ticker := idle.clock.NewTicker(idle.interval)
	go idle.run(ticker)
	return nil
}

// Stop ends polling and waits for the poller to exit.
func (idle *IdleSignal) Stop() {
	if idle.stop == nil {
		return
	}
	close(idle.stop)
	<-idle.done
	idle.stop = nil
}

func (idle *IdleSignal) run(ticker clock.Ticker) {
	defer close(idle.done)
	defer ticker.Stop()
	for {
		select {
		case <-idle.stop:
			return
		case <-ticker.C():
			idle.check()
		}
	}
}

func (idle *IdleSignal) check() {
	duration, err := idle.provider.IdleDuration()
	if err != nil {
		idle.logger.Debug("idle check failed", zap.Error(err))
		return
	}
	active := duration < idle.threshold
	if active == idle.active {
		return
	}
	idle.active = active
	idle.emit(active)
}

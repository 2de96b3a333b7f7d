package platform

import "sync"

// signalHub fans foreground transitions out to subscribers.
type signalHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(active bool)
}

// Subscribe registers fn and returns a function that removes it.
func (hub *signalHub) Subscribe(fn func(active bool)) func() {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.subs == nil {
		hub.subs = make(map[int]func(active bool))
	}
	id := hub.nextID
	hub.nextID++
	hub.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			hub.mu.Lock()
			delete(hub.subs, id)
			hub.mu.Unlock()
		})
	}
}

func (hub *signalHub) emit(active bool) {
	hub.mu.Lock()
	subs := make([]func(active bool), 0, len(hub.subs))
	for _, fn := range hub.subs {
		subs = append(subs, fn)
	}
	hub.mu.Unlock()

	for _, fn := range subs {
		fn(active)
	}
}

// ManualSignal is a foreground signal driven by explicit calls, such as
// the HTTP control API.
type ManualSignal struct {
	signalHub

	mu     sync.Mutex
	active bool
}

// NewManualSignal returns a signal that starts in the foreground.
func NewManualSignal() *ManualSignal {
	return &ManualSignal{active: true}
}

// Set reports a foreground state. Repeated values are not re-emitted.
func (signal *ManualSignal) Set(active bool) {
	signal.mu.Lock()
	changed := signal.active != active
	signal.active = active
	signal.mu.Unlock()
	if changed {
		signal.emit(active)
	}
}

// Active returns the last state passed to Set.
func (signal *ManualSignal) Active() bool {
	signal.mu.Lock()
	defer signal.mu.Unlock()
	return signal.active
}

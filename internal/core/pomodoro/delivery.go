package pomodoro

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"studyfocus/internal/recorder"
)

const deliveryTimeout = 30 * time.Second

type delivery struct {
	partial    *recorder.Partial
	completion *recorder.Completion
}

// deliveryQueue hands session records to the recorder in FIFO order on a
// single goroutine so store latency never holds the engine lock.
type deliveryQueue struct {
	engine *Engine

	mu     sync.Mutex
	cond   *sync.Cond
	items  []delivery
	closed bool
	// idle is non-nil while work is pending and closed when the queue drains.
	idle chan struct{}
	done chan struct{}
}

func newDeliveryQueue(engine *Engine) *deliveryQueue {
	queue := &deliveryQueue{
		engine: engine,
		done:   make(chan struct{}),
	}
	queue.cond = sync.NewCond(&queue.mu)
	go queue.loop()
	return queue
}

func (queue *deliveryQueue) push(item delivery) {
	queue.mu.Lock()
	defer queue.mu.Unlock()
	if queue.closed {
		return
	}
	if queue.idle == nil {
		queue.idle = make(chan struct{})
	}
	queue.items = append(queue.items, item)
	queue.cond.Signal()
}

func (queue *deliveryQueue) flush(ctx context.Context) error {
	queue.mu.Lock()
	idle := queue.idle
	queue.mu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops accepting records and waits for queued ones to be delivered.
func (queue *deliveryQueue) close() {
	queue.mu.Lock()
	queue.closed = true
	queue.cond.Broadcast()
	queue.mu.Unlock()
	<-queue.done
}

func (queue *deliveryQueue) loop() {
	defer close(queue.done)
	for {
		queue.mu.Lock()
		for len(queue.items) == 0 && !queue.closed {
			queue.cond.Wait()
		}
		if len(queue.items) == 0 {
			queue.mu.Unlock()
			return
		}
		item := queue.items[0]
		queue.items = queue.items[1:]
		queue.mu.Unlock()

		queue.deliver(item)

		queue.mu.Lock()
		if len(queue.items) == 0 && queue.idle != nil {
			close(queue.idle)
			queue.idle = nil
		}
		queue.mu.Unlock()
	}
}

func (queue *deliveryQueue) deliver(item delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	rec := queue.engine.config.Recorder
	switch {
	case item.partial != nil:
		minutes, err := rec.RecordPartial(ctx, *item.partial)
		queue.engine.ackPartial(item.partial.SessionID, minutes, err)
	case item.completion != nil:
		err := rec.RecordCompletion(ctx, *item.completion)
		queue.engine.ackCompletion(item.completion.SessionID, err)
	}
}

func (engine *Engine) dispatchPartialLocked(partial recorder.Partial) {
	if engine.deliveries == nil {
		return
	}
	engine.deliveries.push(delivery{partial: &partial})
}

func (engine *Engine) dispatchCompletionLocked(completion recorder.Completion) {
	if engine.deliveries == nil {
		return
	}
	engine.deliveries.push(delivery{completion: &completion})
}

// ackPartial applies a partial-record acknowledgement. The watermark only
// moves for the segment that is still current.
func (engine *Engine) ackPartial(sessionID string, minutes int, err error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	current := engine.state.SessionID == sessionID
	if err != nil {
		engine.metrics.RecordFailure("partial")
		engine.logger.Warn("record partial session failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		if current {
			engine.partialInFlight = engine.state.RecordedMinutes
		}
		engine.emitLocked(Event{Type: EventRecordFailed, SessionID: sessionID, Message: err.Error()})
		return
	}
	engine.metrics.RecordPartial()
	if !current || minutes <= engine.state.RecordedMinutes {
		return
	}
	engine.state.RecordedMinutes = minutes
	if !engine.closed {
		engine.persistLocked()
	}
}

func (engine *Engine) ackCompletion(sessionID string, err error) {
	if err == nil {
		return
	}
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.metrics.RecordFailure("completion")
	engine.logger.Warn("record session completion failed",
		zap.String("session_id", sessionID),
		zap.Error(err))
	engine.emitLocked(Event{Type: EventRecordFailed, SessionID: sessionID, Message: err.Error()})
}

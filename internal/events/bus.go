// Package events implements the in-process publish/subscribe channel between
// the feedback engine and its consumers. Listeners are first-class handles so
// removal works by identity even when the same function is registered twice.
package events

import (
	"sync"

	"go.uber.org/zap"

	"codecoach/internal/logging"
)

// Event names emitted by the feedback engine.
const (
	EventMatches = "matches"
	EventReset   = "reset"
)

// Listener is a registered (event, function) pair. The pointer returned by
// On is the removal token; holding it is the only way to unsubscribe.
type Listener struct {
	event string
	fn    func(payload interface{})
}

// Event returns the event name this listener is registered on.
func (l *Listener) Event() string { return l.event }

// Bus dispatches payloads to listeners in registration order. A panicking
// listener is isolated: it never reaches the emitter or starves later
// listeners on the same event.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]*Listener
	log       *zap.Logger
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[string][]*Listener),
		log:       logging.Get(logging.CategoryEvents),
	}
}

// On registers fn for event and returns its handle.
func (b *Bus) On(event string, fn func(payload interface{})) *Listener {
	l := &Listener{event: event, fn: fn}
	b.mu.Lock()
	b.listeners[event] = append(b.listeners[event], l)
	b.mu.Unlock()
	return l
}

// Off removes exactly the listener behind the given handle. Other listeners
// on the same event, including duplicates of the same function, stay active.
// Unknown or already-removed handles are a no-op.
func (b *Bus) Off(l *Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	regs := b.listeners[l.event]
	for i, reg := range regs {
		if reg == l {
			b.listeners[l.event] = append(regs[:i], regs[i+1:]...)
			return
		}
	}
}

// Emit invokes all listeners currently registered for event, in registration
// order. The listener set is snapshotted before dispatch, so listeners that
// subscribe or unsubscribe during the emit see the change only on the next
// emit.
func (b *Bus) Emit(event string, payload interface{}) {
	b.mu.RLock()
	regs := make([]*Listener, len(b.listeners[event]))
	copy(regs, b.listeners[event])
	b.mu.RUnlock()

	for _, l := range regs {
		b.invoke(event, l, payload)
	}
}

func (b *Bus) invoke(event string, l *Listener, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn("listener panicked",
				zap.String("event", event),
				zap.Any("panic", r))
		}
	}()
	l.fn(payload)
}

// ListenerCount reports how many listeners are registered for event.
func (b *Bus) ListenerCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[event])
}

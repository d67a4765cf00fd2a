package broadcast

import (
	"sync"

	"go.uber.org/zap"
)

// DataSourceBroadcaster owns the process-wide "use synthetic data" switch
// and notifies every subscriber when it flips. It is an explicit, injectable
// object: consumers hold a reference and subscribe, nothing reads ambient
// global state.
type DataSourceBroadcaster struct {
	mu           sync.RWMutex
	useSynthetic bool
	subscribers  map[int]func()
	nextID       int
	logger       *zap.Logger
}

// NewDataSourceBroadcaster creates a broadcaster with the toggle off
func NewDataSourceBroadcaster(logger *zap.Logger) *DataSourceBroadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataSourceBroadcaster{
		subscribers: make(map[int]func()),
		logger:      logger,
	}
}

// Enabled returns the current toggle value. Callers must read it at
// decision time rather than caching it across changes.
func (b *DataSourceBroadcaster) Enabled() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.useSynthetic
}

// SetEnabled sets the toggle and synchronously notifies all current
// subscribers. Every subscriber is called exactly once per change; no
// ordering is guaranteed across subscribers. A no-op when the value is
// unchanged.
func (b *DataSourceBroadcaster) SetEnabled(value bool) {
	b.mu.Lock()
	if b.useSynthetic == value {
		b.mu.Unlock()
		return
	}
	b.useSynthetic = value

	callbacks := make([]func(), 0, len(b.subscribers))
	for _, cb := range b.subscribers {
		callbacks = append(callbacks, cb)
	}
	b.mu.Unlock()

	b.logger.Info("data source toggle flipped",
		zap.Bool("useSynthetic", value),
		zap.Int("subscribers", len(callbacks)),
	)

	for _, cb := range callbacks {
		b.deliver(cb)
	}
}

// Subscribe registers a callback invoked once per toggle change and returns
// an unsubscribe function. Unsubscribing is idempotent and safe to call
// after the broadcaster has no further changes to deliver.
func (b *DataSourceBroadcaster) Subscribe(callback func()) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = callback
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
}

// SubscriberCount reports how many callbacks are currently registered
func (b *DataSourceBroadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// deliver isolates subscriber failures: a panicking callback is logged and
// must not prevent delivery to the remaining subscribers.
func (b *DataSourceBroadcaster) deliver(callback func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("data source subscriber panicked", zap.Any("panic", r))
		}
	}()
	callback()
}

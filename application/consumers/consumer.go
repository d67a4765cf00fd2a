package consumers

import (
	"context"
	"sync"

	"lorekeeper-backend/application/broadcast"
	"lorekeeper-backend/application/reconcile"

	"go.uber.org/zap"
)

// FetchFunc loads the live dataset for one entity type
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// GenerateFunc lazily produces the synthetic fallback dataset
type GenerateFunc[T any] func() []T

// Consumer owns the reconciled view of one entity type for one UI surface.
// Each consumer fetches independently, passes the result through the
// reconciler against the toggle value current at that moment, and
// re-reconciles whenever the broadcaster announces a flip. There is no
// request de-duplication across consumers; duplicate fetches are wasteful
// but never incorrect because reconciliation is pure per invocation.
type Consumer[T any] struct {
	name        string
	fetch       FetchFunc[T]
	generate    GenerateFunc[T]
	broadcaster *broadcast.DataSourceBroadcaster
	logger      *zap.Logger

	mu          sync.Mutex
	data        []T
	metadata    reconcile.Metadata
	err         error
	loading     bool
	closed      bool
	generation  uint64
	filter      func(T) bool
	unsubscribe func()
	baseCtx     context.Context
}

// NewConsumer creates a consumer; it is inert until Start is called
func NewConsumer[T any](name string, fetch FetchFunc[T], generate GenerateFunc[T], broadcaster *broadcast.DataSourceBroadcaster, logger *zap.Logger) *Consumer[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer[T]{
		name:        name,
		fetch:       fetch,
		generate:    generate,
		broadcaster: broadcaster,
		logger:      logger,
		data:        []T{},
	}
}

// Start subscribes to the broadcaster and runs the initial fetch. The
// subscription is released by Close; a consumer that never closes leaks
// its callback and keeps refreshing state nobody observes.
func (c *Consumer[T]) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.baseCtx = ctx
	c.unsubscribe = c.broadcaster.Subscribe(c.onToggle)
	c.mu.Unlock()

	return c.Refetch(ctx)
}

// Refetch re-runs fetch and reconciliation. The toggle is read when the
// decision is made, never from a cached snapshot. A fetch that resolves
// after Close, or after a newer Refetch has started, is discarded without
// touching state; the generation counter keeps a slow fetch from
// overwriting a fresher result.
func (c *Consumer[T]) Refetch(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.generation++
	generation := c.generation
	c.loading = true
	c.mu.Unlock()

	real, fetchErr := c.fetch(ctx)

	// Toggle value current at reconciliation time, not at call time.
	useSynthetic := c.broadcaster.Enabled()

	var synthetic []T
	if useSynthetic && c.generate != nil {
		synthetic = c.generate()
	}

	result, err := reconcile.ReconcileFetch(real, fetchErr, synthetic, useSynthetic)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || generation != c.generation {
		return nil
	}
	c.loading = false

	if err != nil {
		c.err = err
		c.logger.Warn("consumer fetch failed",
			zap.String("consumer", c.name),
			zap.Error(err),
		)
		return err
	}

	if c.filter != nil {
		result = reconcile.Filter(result, c.filter)
	}

	c.data = result.Data
	c.metadata = result.Metadata
	c.err = nil
	return nil
}

// AfterMutation refetches when a mutation succeeded; on failure the prior
// reconciled state is left untouched and the error is returned for display
func (c *Consumer[T]) AfterMutation(ctx context.Context, mutationErr error) error {
	if mutationErr != nil {
		return mutationErr
	}
	return c.Refetch(ctx)
}

// SetFilter installs a post-filter applied after every reconciliation,
// uniformly over real and synthetic data
func (c *Consumer[T]) SetFilter(keep func(T) bool) {
	c.mu.Lock()
	c.filter = keep
	c.mu.Unlock()
}

// Snapshot returns the current reconciled view
func (c *Consumer[T]) Snapshot() ([]T, reconcile.Metadata, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := make([]T, len(c.data))
	copy(data, c.data)
	return data, c.metadata, c.loading, c.err
}

// Close unsubscribes from the broadcaster and marks the consumer torn
// down. Safe to call more than once.
func (c *Consumer[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (c *Consumer[T]) onToggle() {
	c.mu.Lock()
	ctx := c.baseCtx
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := c.Refetch(ctx); err != nil {
		c.logger.Warn("refetch after toggle flip failed",
			zap.String("consumer", c.name),
			zap.Error(err),
		)
	}
}

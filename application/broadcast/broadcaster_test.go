package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDataSourceBroadcaster_Enabled(t *testing.T) {
	b := NewDataSourceBroadcaster(zap.NewNop())

	assert.False(t, b.Enabled(), "toggle starts off")

	b.SetEnabled(true)
	assert.True(t, b.Enabled())

	b.SetEnabled(false)
	assert.False(t, b.Enabled())
}

func TestDataSourceBroadcaster_NotifiesOncePerChange(t *testing.T) {
	b := NewDataSourceBroadcaster(zap.NewNop())

	calls := 0
	b.Subscribe(func() { calls++ })

	b.SetEnabled(true)
	assert.Equal(t, 1, calls)

	// Setting the same value again must not re-notify.
	b.SetEnabled(true)
	assert.Equal(t, 1, calls)

	b.SetEnabled(false)
	assert.Equal(t, 2, calls)
}

func TestDataSourceBroadcaster_MultipleSubscribers(t *testing.T) {
	b := NewDataSourceBroadcaster(zap.NewNop())

	first := 0
	second := 0
	b.Subscribe(func() { first++ })
	b.Subscribe(func() { second++ })

	b.SetEnabled(true)

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, 2, b.SubscriberCount())
}

func TestDataSourceBroadcaster_Unsubscribe(t *testing.T) {
	b := NewDataSourceBroadcaster(zap.NewNop())

	calls := 0
	unsubscribe := b.Subscribe(func() { calls++ })

	b.SetEnabled(true)
	unsubscribe()
	b.SetEnabled(false)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.SubscriberCount())

	// Unsubscribing again is harmless.
	unsubscribe()
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestDataSourceBroadcaster_PanickingSubscriberIsolated(t *testing.T) {
	b := NewDataSourceBroadcaster(zap.NewNop())

	delivered := 0
	b.Subscribe(func() { panic("subscriber bug") })
	b.Subscribe(func() { delivered++ })

	assert.NotPanics(t, func() { b.SetEnabled(true) })
	assert.Equal(t, 1, delivered)
	assert.True(t, b.Enabled(), "toggle still flipped despite the panic")
}

func TestDataSourceBroadcaster_SubscribeDuringDelivery(t *testing.T) {
	// A subscriber added while a change is being delivered only hears
	// about subsequent changes.
	b := NewDataSourceBroadcaster(zap.NewNop())

	lateCalls := 0
	b.Subscribe(func() {
		b.Subscribe(func() { lateCalls++ })
	})

	b.SetEnabled(true)
	assert.Equal(t, 0, lateCalls)

	b.SetEnabled(false)
	assert.Equal(t, 1, lateCalls)
}

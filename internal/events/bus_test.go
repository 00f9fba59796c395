package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus(4)
	a := bus.Subscribe()
	b := bus.Subscribe()

	n := bus.Publish(Event{Kind: RecordsChanged})
	assert.Equal(t, 2, n)

	evt := <-a
	require.Equal(t, RecordsChanged, evt.Kind)
	evt = <-b
	require.Equal(t, RecordsChanged, evt.Kind)
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus(1)
	_ = bus.Subscribe()

	assert.Equal(t, 1, bus.Publish(Event{Kind: CommentsChanged}))
	// Buffer is full now and nobody is draining; publish must not block.
	assert.Equal(t, 0, bus.Publish(Event{Kind: CommentsChanged}))
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus(4)
	assert.Equal(t, 0, bus.Publish(Event{Kind: SyncState, Detail: "idle"}))
}

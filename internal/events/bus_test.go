package events

import (
	"testing"
	"time"

	"github.com/gookit/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishPeerAdded(t *testing.T) {
	bus := NewBus(nil)

	var received *PeerEvent
	bus.Subscribe(EventPeerAdded, event.ListenerFunc(func(e event.Event) error {
		if p, ok := e.Get("payload").(PeerEvent); ok {
			received = &p
		}
		return nil
	}))

	err := bus.PublishPeerAdded("alice", "10.8.0.2", "pubkey", false)
	require.NoError(t, err)
	require.NotNil(t, received)
	assert.Equal(t, "alice", received.Identity)
	assert.Equal(t, "10.8.0.2", received.Address)
	assert.False(t, received.Reused)
	assert.NotEmpty(t, received.EventID)
	assert.WithinDuration(t, time.Now(), received.Timestamp, time.Second)
}

func TestBus_DistinctEventIDs(t *testing.T) {
	bus := NewBus(nil)

	ids := make(map[string]bool)
	bus.Subscribe(EventPeerRevoked, event.ListenerFunc(func(e event.Event) error {
		p := e.Get("payload").(PeerEvent)
		ids[p.EventID] = true
		return nil
	}))

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.PublishPeerRevoked("alice", "10.8.0.2", "pubkey"))
	}
	assert.Len(t, ids, 3)
}

func TestBus_ServerEvents(t *testing.T) {
	bus := NewBus(nil)

	var installed *ServerEvent
	bus.Subscribe(EventServerInstalled, event.ListenerFunc(func(e event.Event) error {
		if p, ok := e.Get("payload").(ServerEvent); ok {
			installed = &p
		}
		return nil
	}))

	require.NoError(t, bus.PublishServerInstalled("wg0", "server-pub"))
	require.NotNil(t, installed)
	assert.Equal(t, "wg0", installed.Interface)
	assert.Equal(t, "server-pub", installed.PublicKey)
}

func TestBus_NoListenersIsFine(t *testing.T) {
	bus := NewBus(nil)
	assert.NoError(t, bus.PublishPeerPurged("ghost", "10.8.0.9", "pubkey"))
	assert.NoError(t, bus.PublishInterfaceRestarted("wg0"))
}

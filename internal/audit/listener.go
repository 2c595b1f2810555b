package audit

import (
	"context"

	"github.com/gookit/event"

	"github.com/DanilaBaxBax/wg-manager/internal/events"
)

// SubscribeAll wires the store to every lifecycle event on the bus.
func SubscribeAll(bus *events.Bus, store *Store) {
	peerListener := event.ListenerFunc(func(e event.Event) error {
		p, ok := e.Get("payload").(events.PeerEvent)
		if !ok {
			return nil
		}
		return store.Record(context.Background(), Entry{
			EventID:    p.EventID,
			EventType:  e.Name(),
			Identity:   p.Identity,
			Address:    p.Address,
			PublicKey:  p.PublicKey,
			OccurredAt: p.Timestamp,
		})
	})
	serverListener := event.ListenerFunc(func(e event.Event) error {
		p, ok := e.Get("payload").(events.ServerEvent)
		if !ok {
			return nil
		}
		return store.Record(context.Background(), Entry{
			EventID:    p.EventID,
			EventType:  e.Name(),
			PublicKey:  p.PublicKey,
			Detail:     p.Interface,
			OccurredAt: p.Timestamp,
		})
	})

	bus.Subscribe(events.EventPeerAdded, peerListener)
	bus.Subscribe(events.EventPeerRevoked, peerListener)
	bus.Subscribe(events.EventPeerPurged, peerListener)
	bus.Subscribe(events.EventServerInstalled, serverListener)
	bus.Subscribe(events.EventInterfaceRestarted, serverListener)
}

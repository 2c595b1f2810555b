package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/event"

	"github.com/DanilaBaxBax/wg-manager/pkg/logger"
)

// Bus wraps the gookit event manager for peer lifecycle events. Listeners
// run synchronously; the audit log subscribes here so every mutation is
// recorded before the command returns.
type Bus struct {
	mgr    *event.Manager
	logger *logger.Logger
}

// NewBus creates an event bus.
func NewBus(log *logger.Logger) *Bus {
	if log == nil {
		log = logger.NewDevelopment("events")
	}
	return &Bus{
		mgr:    event.NewManager("wg-manager"),
		logger: log,
	}
}

// Subscribe registers a listener for one event name.
func (b *Bus) Subscribe(name string, listener event.Listener) {
	b.mgr.On(name, listener, event.Normal)
}

func (b *Bus) fire(name string, payload any) error {
	err, _ := b.mgr.Fire(name, event.M{"payload": payload})
	if err != nil {
		b.logger.Error("failed to publish event", "event", name, "error", err)
		return fmt.Errorf("failed to publish %s: %w", name, err)
	}
	return nil
}

// PublishPeerAdded publishes a peer.added event.
func (b *Bus) PublishPeerAdded(identity, address, publicKey string, reused bool) error {
	payload := PeerEvent{
		EventID:   uuid.New().String(),
		Identity:  identity,
		Address:   address,
		PublicKey: publicKey,
		Reused:    reused,
		Timestamp: time.Now(),
	}
	b.logger.Debug("publishing peer added event", "identity", identity, "address", address, "reused", reused)
	return b.fire(EventPeerAdded, payload)
}

// PublishPeerRevoked publishes a peer.revoked event.
func (b *Bus) PublishPeerRevoked(identity, address, publicKey string) error {
	payload := PeerEvent{
		EventID:   uuid.New().String(),
		Identity:  identity,
		Address:   address,
		PublicKey: publicKey,
		Timestamp: time.Now(),
	}
	b.logger.Debug("publishing peer revoked event", "identity", identity)
	return b.fire(EventPeerRevoked, payload)
}

// PublishPeerPurged publishes a peer.purged event.
func (b *Bus) PublishPeerPurged(identity, address, publicKey string) error {
	payload := PeerEvent{
		EventID:   uuid.New().String(),
		Identity:  identity,
		Address:   address,
		PublicKey: publicKey,
		Timestamp: time.Now(),
	}
	b.logger.Debug("publishing peer purged event", "identity", identity)
	return b.fire(EventPeerPurged, payload)
}

// PublishServerInstalled publishes a server.installed event.
func (b *Bus) PublishServerInstalled(iface, publicKey string) error {
	payload := ServerEvent{
		EventID:   uuid.New().String(),
		Interface: iface,
		PublicKey: publicKey,
		Timestamp: time.Now(),
	}
	b.logger.Debug("publishing server installed event", "interface", iface)
	return b.fire(EventServerInstalled, payload)
}

// PublishInterfaceRestarted publishes an interface.restarted event.
func (b *Bus) PublishInterfaceRestarted(iface string) error {
	payload := ServerEvent{
		EventID:   uuid.New().String(),
		Interface: iface,
		Timestamp: time.Now(),
	}
	b.logger.Debug("publishing interface restarted event", "interface", iface)
	return b.fire(EventInterfaceRestarted, payload)
}

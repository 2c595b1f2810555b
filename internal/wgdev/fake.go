package wgdev

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DanilaBaxBax/wg-manager/internal/wgconf"
)

// Fake is an in-memory Device plus Lifecycle used by tests. It mirrors the
// kernel's behavior: operations against a down interface fail with
// ErrDeviceNotFound, AddPeer upserts, RemovePeer tolerates absence.
type Fake struct {
	mu        sync.Mutex
	iface     string
	publicKey string
	up        bool
	peers     map[string]PeerStatus

	// FailNext, when set, makes the next mutating call return this error.
	FailNext error
}

// NewFake creates a fake device for the named interface, initially down.
func NewFake(iface, publicKey string) *Fake {
	return &Fake{
		iface:     iface,
		publicKey: publicKey,
		peers:     make(map[string]PeerStatus),
	}
}

func (f *Fake) takeFailure() error {
	err := f.FailNext
	f.FailNext = nil
	return err
}

func (f *Fake) Info(ctx context.Context) (*Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.up {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, f.iface)
	}
	return &Info{Name: f.iface, PublicKey: f.publicKey, ListenPort: 51820}, nil
}

func (f *Fake) Peers(ctx context.Context) ([]PeerStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.up {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, f.iface)
	}
	out := make([]PeerStatus, 0, len(f.peers))
	for _, p := range f.peers {
		out = append(out, p)
	}
	return out, nil
}

func (f *Fake) AddPeer(ctx context.Context, rec *wgconf.PeerRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	if !f.up {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, f.iface)
	}
	f.peers[rec.PublicKey] = PeerStatus{
		PublicKey:           rec.PublicKey,
		AllowedIPs:          []string{rec.HostCIDR()},
		PersistentKeepalive: 25 * time.Second,
	}
	return nil
}

func (f *Fake) RemovePeer(ctx context.Context, publicKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	if !f.up {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, f.iface)
	}
	delete(f.peers, publicKey)
	return nil
}

func (f *Fake) Up(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	f.up = true
	return nil
}

func (f *Fake) Down(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	f.up = false
	f.peers = make(map[string]PeerStatus)
	return nil
}

func (f *Fake) Restart(ctx context.Context) error {
	if err := f.Down(ctx); err != nil {
		return err
	}
	return f.Up(ctx)
}

// IsUp reports the fake's interface state.
func (f *Fake) IsUp() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.up
}

// SetHandshake marks a live peer as recently connected.
func (f *Fake) SetHandshake(publicKey string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.peers[publicKey]; ok {
		p.LatestHandshake = at
		f.peers[publicKey] = p
	}
}

// HasPeer reports whether the public key is in the live table.
func (f *Fake) HasPeer(publicKey string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.peers[publicKey]
	return ok
}

// Package wgdev talks to the live WireGuard tunnel: the kernel peer table
// through the wgctrl netlink client, and interface lifecycle through wg-quick.
package wgdev

import (
	"context"
	"errors"
	"time"

	"github.com/DanilaBaxBax/wg-manager/internal/wgconf"
)

var (
	// ErrDeviceNotFound means the interface does not exist in the kernel,
	// typically because wg-quick up was never run or the tunnel is down.
	ErrDeviceNotFound = errors.New("wireguard device not found")
)

// Info describes the live interface.
type Info struct {
	Name       string
	PublicKey  string
	ListenPort int
}

// PeerStatus is one row of the live peer table.
type PeerStatus struct {
	PublicKey           string
	Endpoint            string
	AllowedIPs          []string
	LatestHandshake     time.Time
	ReceiveBytes        int64
	TransmitBytes       int64
	PersistentKeepalive time.Duration
}

// Active reports whether the peer completed a handshake recently enough to
// be considered connected. WireGuard rotates session keys every two minutes
// and tears down idle sessions after three.
func (p PeerStatus) Active() bool {
	return !p.LatestHandshake.IsZero() && time.Since(p.LatestHandshake) < 3*time.Minute
}

// Device manipulates the live peer table of one WireGuard interface.
type Device interface {
	// Info returns the interface description, or ErrDeviceNotFound when the
	// interface is not present in the kernel.
	Info(ctx context.Context) (*Info, error)

	// Peers returns the current live peer table.
	Peers(ctx context.Context) ([]PeerStatus, error)

	// AddPeer installs the record into the live peer table with the peer's
	// host address as its allowed route. Adding a peer whose public key is
	// already present updates it in place.
	AddPeer(ctx context.Context, rec *wgconf.PeerRecord) error

	// RemovePeer removes the peer with the given public key. Removing a key
	// that is not in the table is not an error.
	RemovePeer(ctx context.Context, publicKey string) error
}

// Lifecycle brings the interface itself up and down.
type Lifecycle interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
	Restart(ctx context.Context) error
}

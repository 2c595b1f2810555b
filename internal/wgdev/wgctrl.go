package wgdev

import (
	"context"
	"fmt"
	"net"
	"os"

	"golang.zx2c4.com/wireguard/wgctrl"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"github.com/DanilaBaxBax/wg-manager/internal/wgconf"
	"github.com/DanilaBaxBax/wg-manager/pkg/logger"
)

// Controller is the wgctrl-backed Device implementation. It opens a fresh
// netlink client per call; the manager is a short-lived CLI process and the
// client is cheap to create.
type Controller struct {
	iface  string
	logger *logger.Logger
}

// NewController creates a Device bound to the named interface.
func NewController(iface string, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.NewDevelopment("wgdev")
	}
	return &Controller{iface: iface, logger: log}
}

func (c *Controller) withClient(fn func(*wgctrl.Client) error) error {
	client, err := wgctrl.New()
	if err != nil {
		return fmt.Errorf("failed to open wireguard control client: %w", err)
	}
	defer client.Close()
	return fn(client)
}

func (c *Controller) device(client *wgctrl.Client) (*wgtypes.Device, error) {
	dev, err := client.Device(c.iface)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, c.iface)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query device %s: %w", c.iface, err)
	}
	return dev, nil
}

func (c *Controller) Info(ctx context.Context) (*Info, error) {
	var info *Info
	err := c.withClient(func(client *wgctrl.Client) error {
		dev, err := c.device(client)
		if err != nil {
			return err
		}
		info = &Info{
			Name:       dev.Name,
			PublicKey:  dev.PublicKey.String(),
			ListenPort: dev.ListenPort,
		}
		return nil
	})
	return info, err
}

func (c *Controller) Peers(ctx context.Context) ([]PeerStatus, error) {
	var peers []PeerStatus
	err := c.withClient(func(client *wgctrl.Client) error {
		dev, err := c.device(client)
		if err != nil {
			return err
		}
		peers = make([]PeerStatus, 0, len(dev.Peers))
		for _, p := range dev.Peers {
			status := PeerStatus{
				PublicKey:           p.PublicKey.String(),
				LatestHandshake:     p.LastHandshakeTime,
				ReceiveBytes:        p.ReceiveBytes,
				TransmitBytes:       p.TransmitBytes,
				PersistentKeepalive: p.PersistentKeepaliveInterval,
			}
			if p.Endpoint != nil {
				status.Endpoint = p.Endpoint.String()
			}
			for _, ipnet := range p.AllowedIPs {
				status.AllowedIPs = append(status.AllowedIPs, ipnet.String())
			}
			peers = append(peers, status)
		}
		return nil
	})
	return peers, err
}

func (c *Controller) AddPeer(ctx context.Context, rec *wgconf.PeerRecord) error {
	publicKey, err := wgtypes.ParseKey(rec.PublicKey)
	if err != nil {
		return fmt.Errorf("invalid peer public key: %w", err)
	}
	presharedKey, err := wgtypes.ParseKey(rec.PresharedKey)
	if err != nil {
		return fmt.Errorf("invalid preshared key: %w", err)
	}
	_, hostNet, err := net.ParseCIDR(rec.HostCIDR())
	if err != nil {
		return fmt.Errorf("invalid peer address %q: %w", rec.Address, err)
	}

	return c.withClient(func(client *wgctrl.Client) error {
		if _, err := c.device(client); err != nil {
			return err
		}
		cfg := wgtypes.Config{
			Peers: []wgtypes.PeerConfig{{
				PublicKey:         publicKey,
				PresharedKey:      &presharedKey,
				ReplaceAllowedIPs: true,
				AllowedIPs:        []net.IPNet{*hostNet},
			}},
		}
		if err := client.ConfigureDevice(c.iface, cfg); err != nil {
			return fmt.Errorf("failed to add peer to %s: %w", c.iface, err)
		}
		c.logger.Debug("added live peer", "interface", c.iface, "public_key", rec.PublicKey, "address", rec.Address)
		return nil
	})
}

func (c *Controller) RemovePeer(ctx context.Context, publicKeyStr string) error {
	publicKey, err := wgtypes.ParseKey(publicKeyStr)
	if err != nil {
		return fmt.Errorf("invalid peer public key: %w", err)
	}

	return c.withClient(func(client *wgctrl.Client) error {
		dev, err := c.device(client)
		if err != nil {
			return err
		}

		// Removing an absent key is a no-op, not an error; revocation must
		// converge even when the live table already lost the peer.
		present := false
		for _, p := range dev.Peers {
			if p.PublicKey == publicKey {
				present = true
				break
			}
		}
		if !present {
			c.logger.Debug("peer already absent from live table", "interface", c.iface, "public_key", publicKeyStr)
			return nil
		}

		cfg := wgtypes.Config{
			Peers: []wgtypes.PeerConfig{{
				PublicKey: publicKey,
				Remove:    true,
			}},
		}
		if err := client.ConfigureDevice(c.iface, cfg); err != nil {
			return fmt.Errorf("failed to remove peer from %s: %w", c.iface, err)
		}
		c.logger.Debug("removed live peer", "interface", c.iface, "public_key", publicKeyStr)
		return nil
	})
}

package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanilaBaxBax/wg-manager/internal/alloc"
	"github.com/DanilaBaxBax/wg-manager/internal/registry"
	"github.com/DanilaBaxBax/wg-manager/internal/wgconf"
	"github.com/DanilaBaxBax/wg-manager/pkg/crypto"
)

// AddOptions control the add operation.
type AddOptions struct {
	// Address requests an explicit host address instead of the allocator's
	// lowest-free pick.
	Address string

	// IPv6 extends the peer's routes with the IPv6 default route.
	IPv6 bool

	// QR renders the qr.png artifact alongside the config.
	QR bool
}

// AddResult reports the provisioned (or reused) record.
type AddResult struct {
	Record     *wgconf.PeerRecord
	Importable string
	Reused     bool
}

// Add provisions a peer. Adding an identity that already exists is a reuse,
// not a regenerate: the stored config is normalized in place and the QR
// artifact restored if missing; keys and address are never rotated.
func (m *Manager) Add(ctx context.Context, identity string, opts AddOptions) (*AddResult, error) {
	if !registry.ValidIdentity(identity) {
		return nil, fmt.Errorf("%w: %q", registry.ErrInvalidIdentity, identity)
	}

	var result *AddResult
	err := m.withLock(func() error {
		profile, err := m.loadProfile()
		if err != nil {
			return err
		}
		if err := m.ensureRunning(ctx); err != nil {
			return err
		}

		if m.reg.Exists(identity) {
			result, err = m.reuse(ctx, identity, opts)
			return err
		}
		result, err = m.provision(ctx, identity, profile, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// reuse is the idempotent path for an already-provisioned identity.
func (m *Manager) reuse(ctx context.Context, identity string, opts AddOptions) (*AddResult, error) {
	log := m.logger.WithIdentity(identity)
	log.Info("identity already provisioned, reusing record")

	rec, err := m.reg.Read(identity)
	if err != nil {
		return nil, err
	}
	importable, err := m.reg.Importable(identity)
	if err != nil {
		return nil, err
	}
	// Rewrite normalized; stored configs from older runs may carry stray
	// line endings.
	if err := m.reg.WriteImportable(identity, importable); err != nil {
		return nil, err
	}
	if opts.QR {
		if _, err := m.reg.QR(identity); errors.Is(err, registry.ErrNotFound) {
			png, err := renderQR(importable)
			if err != nil {
				return nil, err
			}
			if err := m.reg.WriteQR(identity, png); err != nil {
				return nil, err
			}
			log.Info("regenerated missing QR artifact")
		}
	}

	// Converge the live table; after a reboot the record may not be live.
	if err := m.rec.PushPeer(ctx, rec); err != nil {
		return nil, err
	}
	if err := m.bus.PublishPeerAdded(identity, rec.Address, rec.PublicKey, true); err != nil {
		return nil, err
	}
	return &AddResult{Record: rec, Importable: importable, Reused: true}, nil
}

// provision creates a brand-new peer record and pushes it live.
func (m *Manager) provision(ctx context.Context, identity string, profile *wgconf.ServerProfile, opts AddOptions) (*AddResult, error) {
	log := m.logger.WithIdentity(identity)

	address, err := m.pickAddress(profile.Subnet, opts.Address)
	if err != nil {
		return nil, err
	}

	keys, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate peer keys: %w", err)
	}
	psk, err := crypto.GeneratePresharedKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate preshared key: %w", err)
	}

	rec := &wgconf.PeerRecord{
		Identity:     identity,
		Address:      address,
		PrivateKey:   keys.PrivateKey,
		PublicKey:    keys.PublicKey,
		PresharedKey: psk,
		WantIPv6:     opts.IPv6,
	}
	importable, err := wgconf.RenderPeerImportable(rec, profile)
	if err != nil {
		return nil, err
	}
	art := registry.Artifacts{
		Importable: importable,
		Stanza:     wgconf.RenderPeerStanza(rec),
	}

	if err := m.reg.Create(identity, rec, art); err != nil {
		return nil, err
	}
	if err := m.rec.PushPeer(ctx, rec); err != nil {
		m.rollback(ctx, identity, rec, false)
		return nil, err
	}

	// Final gate: the rendered config has to survive the strict parser.
	// A failure here rolls the whole add back rather than leaving a peer
	// the client cannot import.
	if err := wgconf.ValidatePeerImportable(importable); err != nil {
		m.rollback(ctx, identity, rec, true)
		return nil, err
	}

	if opts.QR {
		png, err := renderQR(importable)
		if err != nil {
			return nil, err
		}
		if err := m.reg.WriteQR(identity, png); err != nil {
			return nil, err
		}
	}

	log.Info("peer provisioned", "address", address, "ipv6", opts.IPv6)
	if err := m.bus.PublishPeerAdded(identity, address, rec.PublicKey, false); err != nil {
		return nil, err
	}
	return &AddResult{Record: rec, Importable: importable}, nil
}

// pickAddress resolves the peer address: the caller's explicit choice after
// uniqueness and range checks, or the allocator's lowest free host. Revoked
// records still claim their address until purged.
func (m *Manager) pickAddress(subnet, explicit string) (string, error) {
	assigned, err := m.assignedAddresses()
	if err != nil {
		return "", err
	}

	if explicit != "" {
		ok, err := alloc.Contains(subnet, explicit)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: %s not usable in %s", ErrAddressOutOfRange, explicit, subnet)
		}
		if assigned[explicit] {
			return "", fmt.Errorf("%w: %s", ErrAddressInUse, explicit)
		}
		return explicit, nil
	}

	return alloc.NextFreeAddress(subnet, assigned)
}

func (m *Manager) assignedAddresses() (map[string]bool, error) {
	summaries, err := m.reg.List()
	if err != nil {
		return nil, err
	}
	assigned := make(map[string]bool, len(summaries))
	for _, s := range summaries {
		assigned[s.Address] = true
	}
	return assigned, nil
}

// rollback undoes a partially committed add.
func (m *Manager) rollback(ctx context.Context, identity string, rec *wgconf.PeerRecord, pushed bool) {
	log := m.logger.WithIdentity(identity)
	log.Warn("rolling back failed add")

	if pushed {
		if err := m.rec.RemovePeer(ctx, rec.PublicKey); err != nil {
			log.ErrorCtx(ctx, "rollback: failed to remove live peer", err)
		}
	}
	if err := m.reg.Delete(identity); err != nil {
		log.ErrorCtx(ctx, "rollback: failed to delete registry entry", err)
	}
}

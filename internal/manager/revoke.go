package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanilaBaxBax/wg-manager/internal/registry"
)

// Revoke removes the peer from the live interface and the persisted server
// config. Its stored files are retained for audit and recovery; the address
// stays claimed until an explicit purge.
func (m *Manager) Revoke(ctx context.Context, identity string) error {
	return m.withLock(func() error {
		if !m.conf.Exists() {
			return fmt.Errorf("%w: run install first", ErrNotInstalled)
		}
		rec, err := m.reg.Read(identity)
		if err != nil {
			return err
		}

		if err := m.rec.RemovePeer(ctx, rec.PublicKey); err != nil {
			return err
		}

		m.logger.WithIdentity(identity).Info("peer revoked, files retained", "address", rec.Address)
		return m.bus.PublishPeerRevoked(identity, rec.Address, rec.PublicKey)
	})
}

// Purge hard-deletes a peer: live entry, persisted config block and the
// stored files. After a purge the identity's address is reclaimable by the
// allocator.
func (m *Manager) Purge(ctx context.Context, identity string) error {
	return m.withLock(func() error {
		if !m.conf.Exists() {
			return fmt.Errorf("%w: run install first", ErrNotInstalled)
		}
		rec, err := m.reg.Read(identity)
		if err != nil {
			return err
		}

		if err := m.rec.RemovePeer(ctx, rec.PublicKey); err != nil {
			return err
		}
		if err := m.reg.Delete(identity); err != nil && !errors.Is(err, registry.ErrNotFound) {
			return err
		}

		m.logger.WithIdentity(identity).Info("peer purged, address reclaimable", "address", rec.Address)
		return m.bus.PublishPeerPurged(identity, rec.Address, rec.PublicKey)
	})
}

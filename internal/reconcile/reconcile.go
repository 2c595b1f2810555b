// Package reconcile keeps the persisted server config and the live peer
// table in agreement. The config file is the system of record; the live
// table is converged towards it.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanilaBaxBax/wg-manager/internal/wgconf"
	"github.com/DanilaBaxBax/wg-manager/internal/wgdev"
	"github.com/DanilaBaxBax/wg-manager/pkg/logger"
)

// Reconciler applies peer mutations to both the live interface and the
// persisted server config, in that order, so a failed kernel update never
// leaves a config entry for a peer that was never installed.
type Reconciler struct {
	conf   *File
	dev    wgdev.Device
	logger *logger.Logger
}

// New creates a Reconciler over the given config file and device.
func New(conf *File, dev wgdev.Device, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.NewDevelopment("reconcile")
	}
	return &Reconciler{conf: conf, dev: dev, logger: log}
}

// PushPeer installs the record into the live table, then appends its stanza
// to the persisted config. A stanza already present is left alone.
func (r *Reconciler) PushPeer(ctx context.Context, rec *wgconf.PeerRecord) error {
	if err := r.dev.AddPeer(ctx, rec); err != nil {
		return fmt.Errorf("failed to install peer %s: %w", rec.Identity, err)
	}

	doc, err := r.conf.Load()
	if err != nil {
		return err
	}
	present := false
	for _, key := range doc.PeerPublicKeys() {
		if key == rec.PublicKey {
			present = true
			break
		}
	}
	if !present {
		doc.AppendPeer(rec)
		if err := r.conf.Save(doc); err != nil {
			return err
		}
	}

	r.logger.Info("peer reconciled into config and live table", "identity", rec.Identity, "address", rec.Address)
	return nil
}

// RemovePeer removes the public key from the live table and the persisted
// config. A peer missing from either side is tolerated; removal converges.
// A down interface only skips the live half.
func (r *Reconciler) RemovePeer(ctx context.Context, publicKey string) error {
	if err := r.dev.RemovePeer(ctx, publicKey); err != nil {
		if !errors.Is(err, wgdev.ErrDeviceNotFound) {
			return fmt.Errorf("failed to remove live peer: %w", err)
		}
		r.logger.Debug("interface down, removing peer from config only", "public_key", publicKey)
	}

	doc, err := r.conf.Load()
	if err != nil {
		return err
	}
	if doc.RemovePeerByPublicKey(publicKey) {
		if err := r.conf.Save(doc); err != nil {
			return err
		}
	}

	r.logger.Info("peer removed from config and live table", "public_key", publicKey)
	return nil
}

// Drift describes the disagreement between the persisted config and the
// live peer table, as sets of public keys.
type Drift struct {
	OnlyPersisted []string // in the config file but not live
	OnlyLive      []string // live but not in the config file
}

// InSync reports whether both sides agree.
func (d *Drift) InSync() bool {
	return len(d.OnlyPersisted) == 0 && len(d.OnlyLive) == 0
}

// Diff compares the persisted config's peer set against the live table.
func (r *Reconciler) Diff(ctx context.Context) (*Drift, error) {
	doc, err := r.conf.Load()
	if err != nil {
		return nil, err
	}
	persisted := make(map[string]bool)
	for _, key := range doc.PeerPublicKeys() {
		persisted[key] = true
	}

	peers, err := r.dev.Peers(ctx)
	if err != nil {
		return nil, err
	}
	live := make(map[string]bool)
	for _, p := range peers {
		live[p.PublicKey] = true
	}

	drift := &Drift{}
	for _, key := range doc.PeerPublicKeys() {
		if !live[key] {
			drift.OnlyPersisted = append(drift.OnlyPersisted, key)
		}
	}
	for _, p := range peers {
		if !persisted[p.PublicKey] {
			drift.OnlyLive = append(drift.OnlyLive, p.PublicKey)
		}
	}
	return drift, nil
}

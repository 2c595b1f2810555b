package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanilaBaxBax/wg-manager/internal/wgconf"
	"github.com/DanilaBaxBax/wg-manager/internal/wgdev"
	"github.com/DanilaBaxBax/wg-manager/pkg/crypto"
)

func newRecord(t *testing.T, identity, addr string) *wgconf.PeerRecord {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	psk, err := crypto.GeneratePresharedKey()
	require.NoError(t, err)
	return &wgconf.PeerRecord{
		Identity:     identity,
		Address:      addr,
		PrivateKey:   kp.PrivateKey,
		PublicKey:    kp.PublicKey,
		PresharedKey: psk,
	}
}

func newConfigFile(t *testing.T) *File {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	profile := &wgconf.ServerProfile{
		Interface:  "wg0",
		ListenPort: 51820,
		PrivateKey: kp.PrivateKey,
		PublicKey:  kp.PublicKey,
		Subnet:     "10.8.0.0/24",
	}
	text, err := wgconf.RenderServerInterface(profile)
	require.NoError(t, err)

	f := NewFile(filepath.Join(t.TempDir(), "wg0.conf"))
	require.NoError(t, f.WriteText(text))
	return f
}

func upDevice(t *testing.T) *wgdev.Fake {
	t.Helper()
	dev := wgdev.NewFake("wg0", "server-pub")
	require.NoError(t, dev.Up(context.Background()))
	return dev
}

func TestReconciler_PushPeer(t *testing.T) {
	ctx := context.Background()
	conf := newConfigFile(t)
	dev := upDevice(t)
	r := New(conf, dev, nil)

	rec := newRecord(t, "alice", "10.8.0.2")
	require.NoError(t, r.PushPeer(ctx, rec))

	assert.True(t, dev.HasPeer(rec.PublicKey))
	doc, err := conf.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{rec.PublicKey}, doc.PeerPublicKeys())

	drift, err := r.Diff(ctx)
	require.NoError(t, err)
	assert.True(t, drift.InSync())
}

func TestReconciler_PushPeerLiveFailureLeavesConfigUntouched(t *testing.T) {
	ctx := context.Background()
	conf := newConfigFile(t)
	dev := upDevice(t)
	r := New(conf, dev, nil)

	rec := newRecord(t, "alice", "10.8.0.2")
	dev.FailNext = errors.New("netlink: no buffer space")
	require.Error(t, r.PushPeer(ctx, rec))

	doc, err := conf.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.PeerPublicKeys())
}

func TestReconciler_PushPeerIdempotent(t *testing.T) {
	ctx := context.Background()
	conf := newConfigFile(t)
	r := New(conf, upDevice(t), nil)

	rec := newRecord(t, "alice", "10.8.0.2")
	require.NoError(t, r.PushPeer(ctx, rec))
	require.NoError(t, r.PushPeer(ctx, rec))

	doc, err := conf.Load()
	require.NoError(t, err)
	assert.Len(t, doc.PeerPublicKeys(), 1, "stanza is not duplicated")
}

func TestReconciler_RemovePeer(t *testing.T) {
	ctx := context.Background()
	conf := newConfigFile(t)
	dev := upDevice(t)
	r := New(conf, dev, nil)

	alice := newRecord(t, "alice", "10.8.0.2")
	bob := newRecord(t, "bob", "10.8.0.3")
	require.NoError(t, r.PushPeer(ctx, alice))
	require.NoError(t, r.PushPeer(ctx, bob))

	require.NoError(t, r.RemovePeer(ctx, alice.PublicKey))
	assert.False(t, dev.HasPeer(alice.PublicKey))
	assert.True(t, dev.HasPeer(bob.PublicKey))

	doc, err := conf.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{bob.PublicKey}, doc.PeerPublicKeys())

	// Converges when called again.
	require.NoError(t, r.RemovePeer(ctx, alice.PublicKey))
}

func TestReconciler_RemovePeerWithInterfaceDown(t *testing.T) {
	ctx := context.Background()
	conf := newConfigFile(t)
	dev := upDevice(t)
	r := New(conf, dev, nil)

	rec := newRecord(t, "alice", "10.8.0.2")
	require.NoError(t, r.PushPeer(ctx, rec))
	require.NoError(t, dev.Down(ctx))

	require.NoError(t, r.RemovePeer(ctx, rec.PublicKey), "config edit proceeds when interface is down")
	doc, err := conf.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.PeerPublicKeys())
}

func TestReconciler_DiffReportsDrift(t *testing.T) {
	ctx := context.Background()
	conf := newConfigFile(t)
	dev := upDevice(t)
	r := New(conf, dev, nil)

	persisted := newRecord(t, "persisted-only", "10.8.0.2")
	doc, err := conf.Load()
	require.NoError(t, err)
	doc.AppendPeer(persisted)
	require.NoError(t, conf.Save(doc))

	liveOnly := newRecord(t, "live-only", "10.8.0.3")
	require.NoError(t, dev.AddPeer(ctx, liveOnly))

	drift, err := r.Diff(ctx)
	require.NoError(t, err)
	assert.False(t, drift.InSync())
	assert.Equal(t, []string{persisted.PublicKey}, drift.OnlyPersisted)
	assert.Equal(t, []string{liveOnly.PublicKey}, drift.OnlyLive)
}

func TestFile_SaveIsAtomicAndRestrictive(t *testing.T) {
	conf := newConfigFile(t)
	info, err := os.Stat(conf.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(conf.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

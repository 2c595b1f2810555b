package wgdev

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanilaBaxBax/wg-manager/internal/wgconf"
	"github.com/DanilaBaxBax/wg-manager/pkg/crypto"
)

func fakeRecord(t *testing.T, identity, addr string) *wgconf.PeerRecord {
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

func TestFake_DownInterfaceRejectsOperations(t *testing.T) {
	ctx := context.Background()
	dev := NewFake("wg0", "server-pub")

	_, err := dev.Info(ctx)
	assert.True(t, errors.Is(err, ErrDeviceNotFound))

	_, err = dev.Peers(ctx)
	assert.True(t, errors.Is(err, ErrDeviceNotFound))

	err = dev.AddPeer(ctx, fakeRecord(t, "alice", "10.8.0.2"))
	assert.True(t, errors.Is(err, ErrDeviceNotFound))
}

func TestFake_PeerTableLifecycle(t *testing.T) {
	ctx := context.Background()
	dev := NewFake("wg0", "server-pub")
	require.NoError(t, dev.Up(ctx))

	rec := fakeRecord(t, "alice", "10.8.0.2")
	require.NoError(t, dev.AddPeer(ctx, rec))
	assert.True(t, dev.HasPeer(rec.PublicKey))

	peers, err := dev.Peers(ctx)
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, []string{"10.8.0.2/32"}, peers[0].AllowedIPs)

	// Removing twice converges without error.
	require.NoError(t, dev.RemovePeer(ctx, rec.PublicKey))
	require.NoError(t, dev.RemovePeer(ctx, rec.PublicKey))
	assert.False(t, dev.HasPeer(rec.PublicKey))
}

func TestFake_DownClearsPeers(t *testing.T) {
	ctx := context.Background()
	dev := NewFake("wg0", "server-pub")
	require.NoError(t, dev.Up(ctx))
	require.NoError(t, dev.AddPeer(ctx, fakeRecord(t, "alice", "10.8.0.2")))

	require.NoError(t, dev.Down(ctx))
	assert.False(t, dev.IsUp())

	require.NoError(t, dev.Up(ctx))
	peers, err := dev.Peers(ctx)
	require.NoError(t, err)
	assert.Empty(t, peers)
}

func TestPeerStatus_Active(t *testing.T) {
	assert.False(t, PeerStatus{}.Active(), "no handshake means inactive")
	assert.True(t, PeerStatus{LatestHandshake: time.Now().Add(-time.Minute)}.Active())
	assert.False(t, PeerStatus{LatestHandshake: time.Now().Add(-10 * time.Minute)}.Active())
}

package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanilaBaxBax/wg-manager/internal/events"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "audit.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RecordAndQuery(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Record(ctx, Entry{
		EventID:    "evt-1",
		EventType:  events.EventPeerAdded,
		Identity:   "alice",
		Address:    "10.8.0.2",
		PublicKey:  "pub-alice",
		OccurredAt: now,
	}))
	require.NoError(t, store.Record(ctx, Entry{
		EventID:    "evt-2",
		EventType:  events.EventPeerRevoked,
		Identity:   "alice",
		Address:    "10.8.0.2",
		PublicKey:  "pub-alice",
		OccurredAt: now.Add(time.Minute),
	}))

	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, events.EventPeerRevoked, recent[0].EventType, "newest first")

	history, err := store.ForIdentity(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, events.EventPeerAdded, history[0].EventType, "oldest first")
}

func TestStore_DuplicateEventIDIgnored(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	entry := Entry{
		EventID:    "evt-dup",
		EventType:  events.EventPeerAdded,
		Identity:   "alice",
		OccurredAt: time.Now(),
	}
	require.NoError(t, store.Record(ctx, entry))
	require.NoError(t, store.Record(ctx, entry))

	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestStore_SchemaIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.db")

	first, err := NewStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, first.Record(context.Background(), Entry{
		EventID: "evt-1", EventType: events.EventServerInstalled, OccurredAt: time.Now(),
	}))
	require.NoError(t, first.Close())

	second, err := NewStore(path, nil)
	require.NoError(t, err)
	defer second.Close()

	recent, err := second.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1, "reopening keeps existing rows")
}

func TestSubscribeAll_RecordsBusEvents(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	bus := events.NewBus(nil)
	SubscribeAll(bus, store)

	require.NoError(t, bus.PublishPeerAdded("alice", "10.8.0.2", "pub-alice", false))
	require.NoError(t, bus.PublishPeerRevoked("alice", "10.8.0.2", "pub-alice"))
	require.NoError(t, bus.PublishServerInstalled("wg0", "server-pub"))

	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	history, err := store.ForIdentity(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, events.EventPeerAdded, history[0].EventType)
	assert.Equal(t, events.EventPeerRevoked, history[1].EventType)
}

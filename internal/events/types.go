// Package events defines the lifecycle events published by the peer manager
// and the bus they travel on. This is the single source of truth for event
// definitions.
package events

import "time"

// Peer lifecycle events.
const (
	EventPeerAdded   = "peer.added"
	EventPeerRevoked = "peer.revoked"
	EventPeerPurged  = "peer.purged"
)

// Server lifecycle events.
const (
	EventServerInstalled    = "server.installed"
	EventInterfaceRestarted = "interface.restarted"
)

// PeerEvent is the payload for all peer lifecycle events.
type PeerEvent struct {
	EventID   string    `json:"event_id"`
	Identity  string    `json:"identity"`
	Address   string    `json:"address"`
	PublicKey string    `json:"public_key"`
	Reused    bool      `json:"reused,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ServerEvent is the payload for server lifecycle events.
type ServerEvent struct {
	EventID   string    `json:"event_id"`
	Interface string    `json:"interface"`
	PublicKey string    `json:"public_key,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

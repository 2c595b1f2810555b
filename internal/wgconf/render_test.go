package wgconf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanilaBaxBax/wg-manager/pkg/crypto"
)

func testProfile(t *testing.T) *ServerProfile {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return &ServerProfile{
		Interface:       "wg0",
		ListenPort:      51820,
		PrivateKey:      kp.PrivateKey,
		PublicKey:       kp.PublicKey,
		Subnet:          "10.8.0.0/24",
		DNS:             []string{"1.1.1.1", "8.8.8.8"},
		Endpoint:        "203.0.113.10",
		EgressInterface: "eth0",
	}
}

func testRecord(t *testing.T, identity, addr string, ipv6 bool) *PeerRecord {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	psk, err := crypto.GeneratePresharedKey()
	require.NoError(t, err)
	return &PeerRecord{
		Identity:     identity,
		Address:      addr,
		PrivateKey:   kp.PrivateKey,
		PublicKey:    kp.PublicKey,
		PresharedKey: psk,
		WantIPv6:     ipv6,
	}
}

func TestServerProfile_Address(t *testing.T) {
	p := testProfile(t)

	addr, err := p.Address()
	require.NoError(t, err)
	assert.Equal(t, "10.8.0.1", addr)

	cidr, err := p.AddressCIDR()
	require.NoError(t, err)
	assert.Equal(t, "10.8.0.1/24", cidr)

	assert.Equal(t, "203.0.113.10:51820", p.EndpointHostPort())
}

func TestRenderServerInterface(t *testing.T) {
	p := testProfile(t)

	text, err := RenderServerInterface(p)
	require.NoError(t, err)

	doc, err := ParseDocument(text)
	require.NoError(t, err)
	iface := doc.Interface()
	require.NotNil(t, iface)

	addr, _ := iface.Get("Address")
	assert.Equal(t, "10.8.0.1/24", addr)
	port, _ := iface.Get("ListenPort")
	assert.Equal(t, "51820", port)
	pk, _ := iface.Get("PrivateKey")
	assert.Equal(t, p.PrivateKey, pk)
	assert.Empty(t, doc.Peers())

	require.NoError(t, ValidateServerConfig(text))
}

// Round-trip: the rendered importable config re-parses into the same
// address, DNS and allowed-IP fields that produced it.
func TestRenderPeerImportable_RoundTrip(t *testing.T) {
	p := testProfile(t)
	rec := testRecord(t, "alice", "10.8.0.2", false)

	text, err := RenderPeerImportable(rec, p)
	require.NoError(t, err)
	require.NoError(t, ValidatePeerImportable(text))

	doc, err := ParseDocument(text)
	require.NoError(t, err)

	iface := doc.Interface()
	addr, _ := iface.Get("Address")
	assert.Equal(t, "10.8.0.2/32", addr)
	dns, _ := iface.Get("DNS")
	assert.Equal(t, "1.1.1.1", dns, "only the first DNS entry is embedded")

	peers := doc.Peers()
	require.Len(t, peers, 1)
	allowed, _ := peers[0].Get("AllowedIPs")
	assert.Equal(t, "0.0.0.0/0", allowed)
	endpoint, _ := peers[0].Get("Endpoint")
	assert.Equal(t, "203.0.113.10:51820", endpoint)
	keepalive, _ := peers[0].Get("PersistentKeepalive")
	assert.Equal(t, "25", keepalive)
	serverPub, _ := peers[0].Get("PublicKey")
	assert.Equal(t, p.PublicKey, serverPub)
}

func TestRenderPeerImportable_IPv6Route(t *testing.T) {
	p := testProfile(t)

	with := testRecord(t, "v6", "10.8.0.3", true)
	text, err := RenderPeerImportable(with, p)
	require.NoError(t, err)
	assert.Contains(t, text, "AllowedIPs = 0.0.0.0/0, ::/0")
	require.NoError(t, ValidatePeerImportable(text))

	without := testRecord(t, "v4", "10.8.0.4", false)
	text, err = RenderPeerImportable(without, p)
	require.NoError(t, err)
	assert.Contains(t, text, "AllowedIPs = 0.0.0.0/0\n")
	assert.NotContains(t, text, "::/0")
}

func TestRenderPeerStanza(t *testing.T) {
	rec := testRecord(t, "bob", "10.8.0.5", false)

	text := RenderPeerStanza(rec)
	assert.True(t, strings.HasPrefix(text, "# bob\n[Peer]\n"))

	doc, err := ParseDocument(text)
	require.NoError(t, err)
	peers := doc.Peers()
	require.Len(t, peers, 1)

	allowed, _ := peers[0].Get("AllowedIPs")
	assert.Equal(t, "10.8.0.5/32", allowed)
	pk, _ := peers[0].Get("PublicKey")
	assert.Equal(t, rec.PublicKey, pk)
	psk, _ := peers[0].Get("PresharedKey")
	assert.Equal(t, rec.PresharedKey, psk)
}

func TestRenderPeerImportable_RequiresDNS(t *testing.T) {
	p := testProfile(t)
	p.DNS = nil

	_, err := RenderPeerImportable(testRecord(t, "x", "10.8.0.2", false), p)
	assert.Error(t, err)
}

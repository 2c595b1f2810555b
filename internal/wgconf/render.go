package wgconf

import (
	"fmt"
	"strings"
)

// PersistentKeepalive is the keepalive interval written into every peer
// config. 25 seconds traverses typical NAT/firewall idle timeouts.
const PersistentKeepalive = 25

// RenderServerInterface renders the [Interface] block of the server config.
// Peer stanzas are appended separately by the reconciler.
func RenderServerInterface(p *ServerProfile) (string, error) {
	addr, err := p.AddressCIDR()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("[Interface]\n")
	fmt.Fprintf(&b, "Address = %s\n", addr)
	fmt.Fprintf(&b, "ListenPort = %d\n", p.ListenPort)
	fmt.Fprintf(&b, "PrivateKey = %s\n", p.PrivateKey)
	return Normalize(b.String()), nil
}

// RenderPeerImportable renders the config a peer imports into its own
// client: its private key and address, the first advertised resolver, and a
// single peer block pointing everything at the server.
func RenderPeerImportable(rec *PeerRecord, p *ServerProfile) (string, error) {
	if len(p.DNS) == 0 {
		return "", fmt.Errorf("server profile has no DNS entries")
	}

	var b strings.Builder
	b.WriteString("[Interface]\n")
	fmt.Fprintf(&b, "PrivateKey = %s\n", rec.PrivateKey)
	fmt.Fprintf(&b, "Address = %s/32\n", rec.Address)
	fmt.Fprintf(&b, "DNS = %s\n", p.DNS[0])
	b.WriteString("\n[Peer]\n")
	fmt.Fprintf(&b, "PublicKey = %s\n", p.PublicKey)
	fmt.Fprintf(&b, "PresharedKey = %s\n", rec.PresharedKey)
	fmt.Fprintf(&b, "AllowedIPs = %s\n", rec.AllowedIPs())
	fmt.Fprintf(&b, "Endpoint = %s\n", p.EndpointHostPort())
	fmt.Fprintf(&b, "PersistentKeepalive = %d\n", PersistentKeepalive)
	return Normalize(b.String()), nil
}

// RenderPeerStanza renders the minimal [Peer] block recorded per peer and
// appended to the server interface config: identity comment, keys, and the
// peer's /32 host route.
func RenderPeerStanza(rec *PeerRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", rec.Identity)
	b.WriteString("[Peer]\n")
	fmt.Fprintf(&b, "PublicKey = %s\n", rec.PublicKey)
	fmt.Fprintf(&b, "PresharedKey = %s\n", rec.PresharedKey)
	fmt.Fprintf(&b, "AllowedIPs = %s\n", rec.HostCIDR())
	return Normalize(b.String())
}

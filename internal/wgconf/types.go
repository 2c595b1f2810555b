package wgconf

import (
	"fmt"
	"net"
	"strings"
)

// ServerProfile describes one managed tunnel interface: its identity, key
// material, assigned subnet and the values advertised to peers.
type ServerProfile struct {
	Interface       string   `json:"interface"`
	ListenPort      int      `json:"listen_port"`
	PrivateKey      string   `json:"-"`
	PublicKey       string   `json:"public_key"`
	Subnet          string   `json:"subnet"` // CIDR, e.g. 10.8.0.0/24
	DNS             []string `json:"dns"`
	Endpoint        string   `json:"endpoint"` // public host, port appended on render
	EgressInterface string   `json:"egress_interface"`
}

// Address returns the server's own host address: the first usable address of
// the subnet.
func (p *ServerProfile) Address() (string, error) {
	ip, ipnet, err := net.ParseCIDR(p.Subnet)
	if err != nil {
		return "", fmt.Errorf("invalid server subnet %q: %w", p.Subnet, err)
	}
	addr := ip.Mask(ipnet.Mask).To4()
	if addr == nil {
		return "", fmt.Errorf("server subnet %q is not IPv4", p.Subnet)
	}
	addr[3]++
	return addr.String(), nil
}

// AddressCIDR returns the server address with the subnet's prefix length,
// the form used on the interface's Address line.
func (p *ServerProfile) AddressCIDR() (string, error) {
	addr, err := p.Address()
	if err != nil {
		return "", err
	}
	_, ipnet, _ := net.ParseCIDR(p.Subnet)
	ones, _ := ipnet.Mask.Size()
	return fmt.Sprintf("%s/%d", addr, ones), nil
}

// EndpointHostPort returns the peer-facing endpoint as host:port.
func (p *ServerProfile) EndpointHostPort() string {
	return fmt.Sprintf("%s:%d", p.Endpoint, p.ListenPort)
}

// PeerRecord is the credential bundle and address assignment of one peer
// identity. Keys and address are immutable once the record is created.
type PeerRecord struct {
	Identity     string `json:"identity"`
	Address      string `json:"address"` // single host address, no prefix
	PrivateKey   string `json:"-"`
	PublicKey    string `json:"public_key"`
	PresharedKey string `json:"-"`
	WantIPv6     bool   `json:"want_ipv6"`
}

// AllowedIPs returns the routes pushed into the peer's importable config:
// everything over the tunnel, optionally including the IPv6 default route.
func (r *PeerRecord) AllowedIPs() string {
	if r.WantIPv6 {
		return "0.0.0.0/0, ::/0"
	}
	return "0.0.0.0/0"
}

// HostCIDR returns the peer address as a /32 host route, the form used in
// the server-side peer stanza.
func (r *PeerRecord) HostCIDR() string {
	return r.Address + "/32"
}

// ParseDNSList splits a comma-separated resolver list, dropping empty items.
func ParseDNSList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

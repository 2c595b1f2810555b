package wgconf

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/DanilaBaxBax/wg-manager/pkg/crypto"
)

// ErrValidationFailed is the sentinel wrapped by every validation error, so
// callers can errors.Is against a single value.
var ErrValidationFailed = errors.New("config validation failed")

// ValidationError describes one strict-parse violation.
type ValidationError struct {
	Section string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed: [%s] %s: %s", e.Section, e.Field, e.Message)
	}
	return fmt.Sprintf("config validation failed: [%s]: %s", e.Section, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

func violation(section, field, message string) error {
	return &ValidationError{Section: section, Field: field, Message: message}
}

var knownKeys = map[string]map[string]bool{
	"Interface": {
		"PrivateKey": true, "Address": true, "ListenPort": true,
		"DNS": true, "MTU": true,
	},
	"Peer": {
		"PublicKey": true, "PresharedKey": true, "AllowedIPs": true,
		"Endpoint": true, "PersistentKeepalive": true,
	},
}

// ValidatePeerImportable runs the strict-loader checks over a rendered
// importable peer config. It mirrors what the tunnel engine itself rejects:
// unknown sections or keys, malformed keys, addresses, endpoints.
func ValidatePeerImportable(text string) error {
	doc, err := ParseDocument(text)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrValidationFailed, err)
	}

	iface := doc.Interface()
	if iface == nil {
		return violation("Interface", "", "section missing")
	}
	peers := doc.Peers()
	if len(peers) != 1 {
		return violation("Peer", "", fmt.Sprintf("expected exactly one peer section, found %d", len(peers)))
	}
	if err := validateKnownKeys(doc); err != nil {
		return err
	}

	if err := requireKey(iface, "PrivateKey"); err != nil {
		return err
	}
	if err := requireHostAddress(iface, "Address"); err != nil {
		return err
	}
	if dns, ok := iface.Get("DNS"); ok {
		for _, entry := range ParseDNSList(dns) {
			if net.ParseIP(entry) == nil {
				return violation("Interface", "DNS", fmt.Sprintf("not an IP address: %q", entry))
			}
		}
	}

	peer := peers[0]
	if err := requireKey(peer, "PublicKey"); err != nil {
		return err
	}
	if psk, ok := peer.Get("PresharedKey"); ok && !crypto.IsValidKey(psk) {
		return violation("Peer", "PresharedKey", "malformed key")
	}
	if err := requireRouteList(peer, "AllowedIPs"); err != nil {
		return err
	}
	if err := requireEndpoint(peer); err != nil {
		return err
	}
	if ka, ok := peer.Get("PersistentKeepalive"); ok {
		if n, err := strconv.Atoi(ka); err != nil || n < 0 {
			return violation("Peer", "PersistentKeepalive", "not a non-negative integer")
		}
	}

	return nil
}

// ValidateServerConfig runs the strict-loader checks over a server interface
// config: one [Interface] section and any number of [Peer] stanzas.
func ValidateServerConfig(text string) error {
	doc, err := ParseDocument(text)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrValidationFailed, err)
	}

	iface := doc.Interface()
	if iface == nil {
		return violation("Interface", "", "section missing")
	}
	if err := validateKnownKeys(doc); err != nil {
		return err
	}

	if err := requireKey(iface, "PrivateKey"); err != nil {
		return err
	}
	if err := requireHostAddress(iface, "Address"); err != nil {
		return err
	}
	if port, ok := iface.Get("ListenPort"); ok {
		if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
			return violation("Interface", "ListenPort", "not a valid port")
		}
	}

	for _, peer := range doc.Peers() {
		if err := requireKey(peer, "PublicKey"); err != nil {
			return err
		}
		if psk, ok := peer.Get("PresharedKey"); ok && !crypto.IsValidKey(psk) {
			return violation("Peer", "PresharedKey", "malformed key")
		}
		if err := requireRouteList(peer, "AllowedIPs"); err != nil {
			return err
		}
	}

	return nil
}

func validateKnownKeys(doc *Document) error {
	for _, s := range doc.Sections {
		allowed, ok := knownKeys[s.Name]
		if !ok {
			return violation(s.Name, "", "unknown section")
		}
		for _, f := range s.Fields {
			if !allowed[f.Key] {
				return violation(s.Name, f.Key, "unknown key")
			}
		}
	}
	return nil
}

func requireKey(s *Section, field string) error {
	v, ok := s.Get(field)
	if !ok {
		return violation(s.Name, field, "missing")
	}
	if !crypto.IsValidKey(v) {
		return violation(s.Name, field, "malformed key")
	}
	return nil
}

func requireHostAddress(s *Section, field string) error {
	v, ok := s.Get(field)
	if !ok {
		return violation(s.Name, field, "missing")
	}
	if _, _, err := net.ParseCIDR(v); err != nil {
		return violation(s.Name, field, fmt.Sprintf("not an address with prefix: %q", v))
	}
	return nil
}

func requireRouteList(s *Section, field string) error {
	v, ok := s.Get(field)
	if !ok {
		return violation(s.Name, field, "missing")
	}
	for _, route := range strings.Split(v, ",") {
		route = strings.TrimSpace(route)
		if _, _, err := net.ParseCIDR(route); err != nil {
			return violation(s.Name, field, fmt.Sprintf("not a route: %q", route))
		}
	}
	return nil
}

func requireEndpoint(s *Section) error {
	v, ok := s.Get("Endpoint")
	if !ok {
		return violation(s.Name, "Endpoint", "missing")
	}
	host, port, err := net.SplitHostPort(v)
	if err != nil || host == "" {
		return violation(s.Name, "Endpoint", fmt.Sprintf("not host:port: %q", v))
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return violation(s.Name, "Endpoint", "not a valid port")
	}
	return nil
}

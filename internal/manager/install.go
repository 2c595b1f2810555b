package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DanilaBaxBax/wg-manager/internal/wgconf"
	"github.com/DanilaBaxBax/wg-manager/pkg/crypto"
)

// InstallResult reports what install did.
type InstallResult struct {
	Created   bool
	Interface string
	Address   string
	PublicKey string
}

// Install provisions the server interface. Re-running over an existing
// config is a reported no-op; server identity and keys are never silently
// overwritten.
func (m *Manager) Install(ctx context.Context) (*InstallResult, error) {
	result := &InstallResult{Interface: m.cfg.Interface}

	err := m.withLock(func() error {
		if m.conf.Exists() {
			m.logger.Info("server interface already installed, leaving it untouched")
			profile, err := m.loadProfile()
			if err != nil {
				return err
			}
			result.PublicKey = profile.PublicKey
			result.Address, _ = profile.Address()
			return nil
		}

		keys, err := crypto.GenerateKeyPair()
		if err != nil {
			return fmt.Errorf("failed to generate server keys: %w", err)
		}

		profile := &wgconf.ServerProfile{
			Interface:       m.cfg.Interface,
			ListenPort:      m.cfg.ListenPort,
			PrivateKey:      keys.PrivateKey,
			PublicKey:       keys.PublicKey,
			Subnet:          m.cfg.Subnet,
			DNS:             wgconf.ParseDNSList(m.cfg.DNS),
			Endpoint:        m.cfg.Endpoint,
			EgressInterface: m.cfg.EgressInterface,
		}
		text, err := wgconf.RenderServerInterface(profile)
		if err != nil {
			return err
		}

		if err := m.writeServerKeys(keys); err != nil {
			return err
		}
		if err := m.conf.WriteText(text); err != nil {
			return err
		}
		if err := m.writeDNSSidecar(profile.DNS); err != nil {
			return err
		}
		if err := m.forward(ctx); err != nil {
			return err
		}
		if err := m.lc.Up(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrInterfaceDown, err)
		}

		result.Created = true
		result.PublicKey = keys.PublicKey
		result.Address, _ = profile.Address()
		m.logger.Info("server interface installed", "subnet", m.cfg.Subnet, "port", m.cfg.ListenPort)
		return m.bus.PublishServerInstalled(m.cfg.Interface, keys.PublicKey)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (m *Manager) writeServerKeys(keys *crypto.KeyPair) error {
	dir := m.cfg.ServerKeyDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create server key directory: %w", err)
	}
	for name, key := range map[string]string{
		"private.key": keys.PrivateKey,
		"public.key":  keys.PublicKey,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(key+"\n"), 0o600); err != nil {
			return fmt.Errorf("failed to write server %s: %w", name, err)
		}
	}
	return nil
}

func (m *Manager) writeDNSSidecar(dns []string) error {
	line := strings.Join(dns, ",") + "\n"
	if err := os.WriteFile(m.cfg.DNSSidecarPath(), []byte(line), 0o644); err != nil {
		return fmt.Errorf("failed to write DNS sidecar: %w", err)
	}
	return nil
}

// Restart takes the interface down and back up, reloading the persisted
// config.
func (m *Manager) Restart(ctx context.Context) error {
	return m.withLock(func() error {
		if !m.conf.Exists() {
			return fmt.Errorf("%w: run install first", ErrNotInstalled)
		}
		if err := m.lc.Restart(ctx); err != nil {
			return err
		}
		m.logger.Info("interface restarted")
		return m.bus.PublishInterfaceRestarted(m.cfg.Interface)
	})
}

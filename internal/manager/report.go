package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/DanilaBaxBax/wg-manager/internal/reconcile"
	"github.com/DanilaBaxBax/wg-manager/internal/registry"
	"github.com/DanilaBaxBax/wg-manager/internal/wgconf"
	"github.com/DanilaBaxBax/wg-manager/internal/wgdev"
)

// PeerInfo is one row of the list output.
type PeerInfo struct {
	Identity  string
	Address   string
	PublicKey string
	Active    bool
}

// List returns every stored peer sorted by identity, each annotated with
// liveness from the live peer table. A down interface simply reports every
// peer inactive.
func (m *Manager) List(ctx context.Context) ([]PeerInfo, error) {
	summaries, err := m.reg.List()
	if err != nil {
		return nil, err
	}

	live := make(map[string]wgdev.PeerStatus)
	peers, err := m.dev.Peers(ctx)
	if err != nil && !errors.Is(err, wgdev.ErrDeviceNotFound) {
		return nil, err
	}
	for _, p := range peers {
		live[p.PublicKey] = p
	}

	out := make([]PeerInfo, 0, len(summaries))
	for _, s := range summaries {
		status, ok := live[s.PublicKey]
		out = append(out, PeerInfo{
			Identity:  s.Identity,
			Address:   s.Address,
			PublicKey: s.PublicKey,
			Active:    ok && status.Active(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out, nil
}

// ShowResult is the masked projection of one peer record. Raw secrets never
// appear in it.
type ShowResult struct {
	Identity   string
	Address    string
	PublicKey  string
	AllowedIPs string
	Importable string // secrets masked
}

// Show returns a peer's details with the private key and preshared secret
// masked.
func (m *Manager) Show(ctx context.Context, identity string) (*ShowResult, error) {
	rec, err := m.reg.Read(identity)
	if err != nil {
		return nil, err
	}
	importable, err := m.reg.Importable(identity)
	if err != nil {
		return nil, err
	}
	masked, err := maskSecrets(importable)
	if err != nil {
		return nil, err
	}

	return &ShowResult{
		Identity:   identity,
		Address:    rec.Address,
		PublicKey:  rec.PublicKey,
		AllowedIPs: rec.AllowedIPs(),
		Importable: masked,
	}, nil
}

// ShowQR returns the peer's QR artifact, rendering and storing it when
// missing.
func (m *Manager) ShowQR(ctx context.Context, identity string) ([]byte, error) {
	png, err := m.reg.QR(identity)
	if err == nil {
		return png, nil
	}
	if !errors.Is(err, registry.ErrNotFound) {
		return nil, err
	}

	importable, err := m.reg.Importable(identity)
	if err != nil {
		return nil, err
	}
	png, err = renderQR(importable)
	if err != nil {
		return nil, err
	}
	if err := m.reg.WriteQR(identity, png); err != nil {
		return nil, err
	}
	return png, nil
}

// Export copies the full importable config, unmodified, into destDir and
// returns the written path.
func (m *Manager) Export(ctx context.Context, identity, destDir string) (string, error) {
	importable, err := m.reg.Importable(identity)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	dest := filepath.Join(destDir, identity+".conf")
	if err := os.WriteFile(dest, []byte(importable), 0o600); err != nil {
		return "", fmt.Errorf("failed to export config: %w", err)
	}
	m.logger.WithIdentity(identity).Info("exported peer config", "path", dest)
	return dest, nil
}

// PeerLiveness is one row of the status report's live peer table, keyed
// back to a stored identity where one matches.
type PeerLiveness struct {
	Identity        string // empty for unmanaged live peers
	PublicKey       string
	Endpoint        string
	LatestHandshake time.Time
	ReceiveBytes    int64
	TransmitBytes   int64
	Active          bool
}

// StatusReport summarizes the interface, the live peers and the drift
// between persisted config and live table.
type StatusReport struct {
	Installed  bool
	Up         bool
	Interface  string
	PublicKey  string
	ListenPort int
	Stored     int
	Peers      []PeerLiveness
	Drift      *reconcile.Drift
}

// Status reports the interface and per-peer liveness.
func (m *Manager) Status(ctx context.Context) (*StatusReport, error) {
	report := &StatusReport{
		Interface: m.cfg.Interface,
		Installed: m.conf.Exists(),
	}

	summaries, err := m.reg.List()
	if err != nil {
		return nil, err
	}
	report.Stored = len(summaries)
	identityByKey := make(map[string]string, len(summaries))
	for _, s := range summaries {
		identityByKey[s.PublicKey] = s.Identity
	}

	info, err := m.dev.Info(ctx)
	if errors.Is(err, wgdev.ErrDeviceNotFound) {
		return report, nil
	}
	if err != nil {
		return nil, err
	}
	report.Up = true
	report.PublicKey = info.PublicKey
	report.ListenPort = info.ListenPort

	peers, err := m.dev.Peers(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range peers {
		report.Peers = append(report.Peers, PeerLiveness{
			Identity:        identityByKey[p.PublicKey],
			PublicKey:       p.PublicKey,
			Endpoint:        p.Endpoint,
			LatestHandshake: p.LatestHandshake,
			ReceiveBytes:    p.ReceiveBytes,
			TransmitBytes:   p.TransmitBytes,
			Active:          p.Active(),
		})
	}
	sort.Slice(report.Peers, func(i, j int) bool { return report.Peers[i].Identity < report.Peers[j].Identity })

	if report.Installed {
		report.Drift, err = m.rec.Diff(ctx)
		if err != nil {
			return nil, err
		}
	}
	return report, nil
}

// maskSecrets replaces key material values in a config with a masked form.
func maskSecrets(text string) (string, error) {
	doc, err := wgconf.ParseDocument(text)
	if err != nil {
		return "", err
	}
	for _, s := range doc.Sections {
		for _, field := range []string{"PrivateKey", "PresharedKey"} {
			if v, ok := s.Get(field); ok {
				s.Set(field, maskKey(v))
			}
		}
	}
	return doc.Serialize(), nil
}

func maskKey(key string) string {
	if len(key) < 12 {
		return "********"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

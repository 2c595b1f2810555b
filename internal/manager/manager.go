// Package manager orchestrates the peer lifecycle: install, add, revoke,
// purge and the read-only reporting commands. It owns the idempotency and
// consistency rules; the heavy lifting lives in the leaf packages.
package manager

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/skip2/go-qrcode"

	"github.com/DanilaBaxBax/wg-manager/internal/config"
	"github.com/DanilaBaxBax/wg-manager/internal/events"
	"github.com/DanilaBaxBax/wg-manager/internal/reconcile"
	"github.com/DanilaBaxBax/wg-manager/internal/registry"
	"github.com/DanilaBaxBax/wg-manager/internal/wgconf"
	"github.com/DanilaBaxBax/wg-manager/internal/wgdev"
	"github.com/DanilaBaxBax/wg-manager/pkg/crypto"
	"github.com/DanilaBaxBax/wg-manager/pkg/logger"
)

// Locker serializes mutating operations across processes.
type Locker interface {
	Lock() error
	Unlock() error
}

type flockLocker struct {
	fl *flock.Flock
}

func (l *flockLocker) Lock() error   { return l.fl.Lock() }
func (l *flockLocker) Unlock() error { return l.fl.Unlock() }

type noopLocker struct{}

func (noopLocker) Lock() error   { return nil }
func (noopLocker) Unlock() error { return nil }

// Deps are the manager's collaborators. Zero fields are filled with the
// production implementations; tests inject fakes.
type Deps struct {
	Registry         registry.Registry
	Device           wgdev.Device
	Lifecycle        wgdev.Lifecycle
	Bus              *events.Bus
	Lock             Locker
	EnableForwarding func(ctx context.Context) error
	Logger           *logger.Logger
}

// Manager implements the lifecycle operations over one tunnel interface.
type Manager struct {
	cfg     *config.Config
	reg     registry.Registry
	dev     wgdev.Device
	lc      wgdev.Lifecycle
	conf    *reconcile.File
	rec     *reconcile.Reconciler
	bus     *events.Bus
	lock    Locker
	forward func(ctx context.Context) error
	logger  *logger.Logger
}

// New creates a Manager for the configured interface.
func New(cfg *config.Config, deps Deps) *Manager {
	log := deps.Logger
	if log == nil {
		log = logger.NewDevelopment("manager")
	}
	log = log.WithInterface(cfg.Interface)

	if deps.Registry == nil {
		deps.Registry = registry.NewFS(cfg.ClientsDir, log)
	}
	if deps.Device == nil {
		deps.Device = wgdev.NewController(cfg.Interface, log)
	}
	if deps.Lifecycle == nil {
		deps.Lifecycle = wgdev.NewQuick(cfg.Interface, log)
	}
	if deps.Bus == nil {
		deps.Bus = events.NewBus(log)
	}
	if deps.Lock == nil {
		deps.Lock = &flockLocker{fl: flock.New(cfg.LockPath())}
	}
	if deps.EnableForwarding == nil {
		deps.EnableForwarding = enableIPForwarding
	}

	conf := reconcile.NewFile(cfg.InterfaceConfigPath())
	return &Manager{
		cfg:     cfg,
		reg:     deps.Registry,
		dev:     deps.Device,
		lc:      deps.Lifecycle,
		conf:    conf,
		rec:     reconcile.New(conf, deps.Device, log),
		bus:     deps.Bus,
		lock:    deps.Lock,
		forward: deps.EnableForwarding,
		logger:  log,
	}
}

// Bus exposes the lifecycle event bus so callers can attach listeners (the
// audit store subscribes through this).
func (m *Manager) Bus() *events.Bus {
	return m.bus
}

func (m *Manager) withLock(fn func() error) error {
	if err := m.lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer m.lock.Unlock()
	return fn()
}

// loadProfile rebuilds the server profile from the persisted config, the
// stored server keys and the DNS sidecar.
func (m *Manager) loadProfile() (*wgconf.ServerProfile, error) {
	if !m.conf.Exists() {
		return nil, fmt.Errorf("%w: run install first", ErrNotInstalled)
	}
	doc, err := m.conf.Load()
	if err != nil {
		return nil, err
	}
	iface := doc.Interface()
	if iface == nil {
		return nil, fmt.Errorf("server config %s has no interface section", m.conf.Path())
	}

	profile := &wgconf.ServerProfile{
		Interface:       m.cfg.Interface,
		Endpoint:        m.cfg.Endpoint,
		EgressInterface: m.cfg.EgressInterface,
	}

	addr, ok := iface.Get("Address")
	if !ok {
		return nil, fmt.Errorf("server config %s has no Address", m.conf.Path())
	}
	profile.Subnet, err = subnetOf(addr)
	if err != nil {
		return nil, err
	}
	if port, ok := iface.Get("ListenPort"); ok {
		profile.ListenPort, err = strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("server config %s has invalid ListenPort %q", m.conf.Path(), port)
		}
	} else {
		profile.ListenPort = m.cfg.ListenPort
	}
	profile.PrivateKey, ok = iface.Get("PrivateKey")
	if !ok {
		return nil, fmt.Errorf("server config %s has no PrivateKey", m.conf.Path())
	}
	profile.PublicKey, err = crypto.DerivePublicKey(profile.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("server config %s has invalid PrivateKey: %w", m.conf.Path(), err)
	}

	profile.DNS = m.readDNS()
	return profile, nil
}

// readDNS returns the sidecar DNS list, falling back to the configured one.
func (m *Manager) readDNS() []string {
	raw, err := os.ReadFile(m.cfg.DNSSidecarPath())
	if err == nil {
		if list := wgconf.ParseDNSList(strings.TrimSpace(string(raw))); len(list) > 0 {
			return list
		}
	}
	return wgconf.ParseDNSList(m.cfg.DNS)
}

// ensureRunning checks the live interface, auto-starting it when down.
func (m *Manager) ensureRunning(ctx context.Context) error {
	_, err := m.dev.Info(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, wgdev.ErrDeviceNotFound) {
		return err
	}

	m.logger.Info("interface is down, attempting to start it")
	if err := m.lc.Up(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrInterfaceDown, err)
	}
	if _, err := m.dev.Info(ctx); err != nil {
		return fmt.Errorf("%w: interface did not come up", ErrInterfaceDown)
	}
	return nil
}

// renderQR encodes an importable config as a PNG.
func renderQR(importable string) ([]byte, error) {
	png, err := qrcode.Encode(importable, qrcode.Medium, 512)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}

// subnetOf turns the interface's Address line (e.g. 10.8.0.1/24) back into
// the tunnel subnet (10.8.0.0/24).
func subnetOf(addrCIDR string) (string, error) {
	_, ipnet, err := net.ParseCIDR(addrCIDR)
	if err != nil {
		return "", fmt.Errorf("server address %q is not an address with prefix: %w", addrCIDR, err)
	}
	return ipnet.String(), nil
}

func enableIPForwarding(ctx context.Context) error {
	// Prefer the proc interface; fall back to sysctl for hosts where the
	// file is not writable directly.
	if err := os.WriteFile("/proc/sys/net/ipv4/ip_forward", []byte("1\n"), 0o644); err == nil {
		return nil
	}
	cmd := exec.CommandContext(ctx, "sysctl", "-w", "net.ipv4.ip_forward=1")
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: cannot enable packet forwarding: %v, output: %s", ErrUnsupported, err, strings.TrimSpace(string(output)))
	}
	return nil
}

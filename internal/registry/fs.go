package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DanilaBaxBax/wg-manager/internal/wgconf"
	"github.com/DanilaBaxBax/wg-manager/pkg/crypto"
	"github.com/DanilaBaxBax/wg-manager/pkg/logger"
)

const (
	privateKeyFile   = "private.key"
	publicKeyFile    = "public.key"
	presharedKeyFile = "preshared.key"
	stanzaFile       = "peer.conf"
	qrFile           = "qr.png"
)

// FS is the filesystem-backed registry: one directory per peer identity
// under the clients directory, holding the importable config, the server
// stanza fragment and the raw key files with restrictive permissions.
type FS struct {
	root   string
	logger *logger.Logger
}

// NewFS creates a filesystem registry rooted at dir.
func NewFS(dir string, log *logger.Logger) *FS {
	if log == nil {
		log = logger.NewDevelopment("registry")
	}
	return &FS{root: dir, logger: log}
}

func (r *FS) peerDir(identity string) string {
	return filepath.Join(r.root, identity)
}

func (r *FS) importablePath(identity string) string {
	return filepath.Join(r.peerDir(identity), identity+".conf")
}

// Exists reports whether the identity's directory holds an importable
// config, the authoritative marker for "peer exists".
func (r *FS) Exists(identity string) bool {
	if !ValidIdentity(identity) {
		return false
	}
	_, err := os.Stat(r.importablePath(identity))
	return err == nil
}

// Create writes the record's files. The importable config is written last,
// so a crash mid-create never leaves a directory that Exists reports true.
func (r *FS) Create(identity string, rec *wgconf.PeerRecord, art Artifacts) error {
	if !ValidIdentity(identity) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentity, identity)
	}
	if r.Exists(identity) {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, identity)
	}

	dir := r.peerDir(identity)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create peer directory: %w", err)
	}

	files := []struct {
		name    string
		content string
	}{
		{privateKeyFile, rec.PrivateKey + "\n"},
		{publicKeyFile, rec.PublicKey + "\n"},
		{presharedKeyFile, rec.PresharedKey + "\n"},
		{stanzaFile, wgconf.Normalize(art.Stanza)},
		{identity + ".conf", wgconf.Normalize(art.Importable)},
	}
	for _, f := range files {
		if err := writeFileAtomic(filepath.Join(dir, f.name), []byte(f.content), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}

	r.logger.Debug("stored peer record", "identity", identity, "dir", dir)
	return nil
}

// Read reconstructs the record from the stored files: keys from the key
// files, address and route preference from the importable config.
func (r *FS) Read(identity string) (*wgconf.PeerRecord, error) {
	if !r.Exists(identity) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, identity)
	}

	dir := r.peerDir(identity)
	rec := &wgconf.PeerRecord{Identity: identity}

	for _, kv := range []struct {
		name string
		dst  *string
	}{
		{privateKeyFile, &rec.PrivateKey},
		{publicKeyFile, &rec.PublicKey},
		{presharedKeyFile, &rec.PresharedKey},
	} {
		raw, err := os.ReadFile(filepath.Join(dir, kv.name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s for %s: %w", kv.name, identity, err)
		}
		key := strings.TrimSpace(string(raw))
		if !crypto.IsValidKey(key) {
			return nil, fmt.Errorf("stored %s for %s is not a valid key", kv.name, identity)
		}
		*kv.dst = key
	}

	text, err := r.Importable(identity)
	if err != nil {
		return nil, err
	}
	doc, err := wgconf.ParseDocument(text)
	if err != nil {
		return nil, fmt.Errorf("stored config for %s is unparseable: %w", identity, err)
	}
	iface := doc.Interface()
	if iface == nil {
		return nil, fmt.Errorf("stored config for %s has no interface section", identity)
	}
	if addr, ok := iface.Get("Address"); ok {
		rec.Address = strings.TrimSuffix(addr, "/32")
	}
	for _, peer := range doc.Peers() {
		if allowed, ok := peer.Get("AllowedIPs"); ok && strings.Contains(allowed, "::/0") {
			rec.WantIPv6 = true
		}
	}

	return rec, nil
}

// Importable returns the stored importable config, normalized on read.
func (r *FS) Importable(identity string) (string, error) {
	raw, err := os.ReadFile(r.importablePath(identity))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, identity)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read config for %s: %w", identity, err)
	}
	return wgconf.Normalize(string(raw)), nil
}

// WriteImportable rewrites the stored importable config in place.
func (r *FS) WriteImportable(identity string, text string) error {
	if !r.Exists(identity) {
		return fmt.Errorf("%w: %s", ErrNotFound, identity)
	}
	return writeFileAtomic(r.importablePath(identity), []byte(wgconf.Normalize(text)), 0o600)
}

// QR returns the stored QR artifact.
func (r *FS) QR(identity string) ([]byte, error) {
	png, err := os.ReadFile(filepath.Join(r.peerDir(identity), qrFile))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s has no QR artifact", ErrNotFound, identity)
	}
	return png, err
}

// WriteQR stores the QR artifact next to the config.
func (r *FS) WriteQR(identity string, png []byte) error {
	if !r.Exists(identity) {
		return fmt.Errorf("%w: %s", ErrNotFound, identity)
	}
	return writeFileAtomic(filepath.Join(r.peerDir(identity), qrFile), png, 0o600)
}

// List walks the clients directory and summarizes every valid peer
// directory. Order is not guaranteed; consumers sort.
func (r *FS) List() ([]Summary, error) {
	entries, err := os.ReadDir(r.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read clients directory: %w", err)
	}

	var out []Summary
	for _, e := range entries {
		if !e.IsDir() || !ValidIdentity(e.Name()) {
			continue
		}
		identity := e.Name()
		if !r.Exists(identity) {
			continue
		}
		rec, err := r.Read(identity)
		if err != nil {
			r.logger.Warn("skipping unreadable peer record", "identity", identity, "error", err)
			continue
		}
		out = append(out, Summary{
			Identity:  identity,
			Address:   rec.Address,
			PublicKey: rec.PublicKey,
		})
	}
	return out, nil
}

// Delete removes the peer directory and everything in it.
func (r *FS) Delete(identity string) error {
	if !r.Exists(identity) {
		return fmt.Errorf("%w: %s", ErrNotFound, identity)
	}
	if err := os.RemoveAll(r.peerDir(identity)); err != nil {
		return fmt.Errorf("failed to delete peer directory: %w", err)
	}
	r.logger.Info("deleted peer record", "identity", identity)
	return nil
}

// writeFileAtomic writes via a temp file in the same directory, sets
// permissions, then renames into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".wgtmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set permissions on temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move temp file into place: %w", err)
	}
	return nil
}

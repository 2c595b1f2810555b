package reconcile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/DanilaBaxBax/wg-manager/internal/wgconf"
)

// File is the persisted server config on disk, parsed and rewritten as a
// structured document. Writes go through a temp file and rename.
type File struct {
	path string
}

// NewFile binds to the config at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the bound config path.
func (f *File) Path() string {
	return f.path
}

// Exists reports whether the config file is present.
func (f *File) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Load reads and parses the config.
func (f *File) Load() (*wgconf.Document, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read server config %s: %w", f.path, err)
	}
	doc, err := wgconf.ParseDocument(string(raw))
	if err != nil {
		return nil, fmt.Errorf("server config %s: %w", f.path, err)
	}
	return doc, nil
}

// Save serializes the document back to disk with 0600 permissions.
func (f *File) Save(doc *wgconf.Document) error {
	return f.WriteText(doc.Serialize())
}

// WriteText writes raw config text, normalized, atomically.
func (f *File) WriteText(text string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".wgconf-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.WriteString(wgconf.Normalize(text)); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("failed to set permissions on temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to move config into place: %w", err)
	}
	return nil
}

package registry

import (
	"fmt"
	"sync"

	"github.com/DanilaBaxBax/wg-manager/internal/wgconf"
)

// Memory is an in-memory Registry used by tests and as a reference for the
// repository contract.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*memEntry
}

type memEntry struct {
	rec        wgconf.PeerRecord
	importable string
	stanza     string
	qr         []byte
}

// NewMemory creates an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]*memEntry)}
}

func (m *Memory) Exists(identity string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.records[identity]
	return ok
}

func (m *Memory) Create(identity string, rec *wgconf.PeerRecord, art Artifacts) error {
	if !ValidIdentity(identity) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentity, identity)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[identity]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, identity)
	}
	m.records[identity] = &memEntry{
		rec:        *rec,
		importable: wgconf.Normalize(art.Importable),
		stanza:     wgconf.Normalize(art.Stanza),
	}
	return nil
}

func (m *Memory) Read(identity string) (*wgconf.PeerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.records[identity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, identity)
	}
	rec := e.rec
	return &rec, nil
}

func (m *Memory) Importable(identity string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.records[identity]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, identity)
	}
	return e.importable, nil
}

func (m *Memory) WriteImportable(identity string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.records[identity]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, identity)
	}
	e.importable = wgconf.Normalize(text)
	return nil
}

func (m *Memory) QR(identity string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.records[identity]
	if !ok || e.qr == nil {
		return nil, fmt.Errorf("%w: %s has no QR artifact", ErrNotFound, identity)
	}
	return e.qr, nil
}

func (m *Memory) WriteQR(identity string, png []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.records[identity]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, identity)
	}
	e.qr = png
	return nil
}

func (m *Memory) List() ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.records))
	for identity, e := range m.records {
		out = append(out, Summary{
			Identity:  identity,
			Address:   e.rec.Address,
			PublicKey: e.rec.PublicKey,
		})
	}
	return out, nil
}

func (m *Memory) Delete(identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[identity]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, identity)
	}
	delete(m.records, identity)
	return nil
}

package registry

import (
	"errors"
	"regexp"

	"github.com/DanilaBaxBax/wg-manager/internal/wgconf"
)

var (
	ErrAlreadyExists   = errors.New("peer already exists")
	ErrNotFound        = errors.New("peer not found")
	ErrInvalidIdentity = errors.New("invalid peer identity")
)

// Summary is the listing projection of one stored peer.
type Summary struct {
	Identity  string
	Address   string
	PublicKey string
}

// Artifacts bundles the rendered config texts stored alongside a record.
type Artifacts struct {
	Importable string // the config the peer imports
	Stanza     string // the server-side [Peer] fragment
}

// Registry is the system of record for which peers exist. Existence of a
// record is authoritative; the live interface is reconciled against it.
type Registry interface {
	// Exists reports whether identity has a stored record.
	Exists(identity string) bool

	// Create stores a new record with its rendered artifacts. It fails with
	// ErrAlreadyExists when the identity is already present; the caller is
	// responsible for routing to the reuse path instead.
	Create(identity string, rec *wgconf.PeerRecord, art Artifacts) error

	// Read reconstructs the record from storage. Fails with ErrNotFound.
	Read(identity string) (*wgconf.PeerRecord, error)

	// Importable returns the stored importable config text.
	Importable(identity string) (string, error)

	// WriteImportable rewrites the stored importable config (used to
	// normalize a stored config in place on the reuse path).
	WriteImportable(identity string, text string) error

	// QR returns the stored QR artifact, or ErrNotFound when absent.
	QR(identity string) ([]byte, error)

	// WriteQR stores the QR artifact for an existing record.
	WriteQR(identity string, png []byte) error

	// List returns a summary per stored peer, in no guaranteed order.
	List() ([]Summary, error)

	// Delete removes the record and all its files. Fails with ErrNotFound.
	// Revoke does not call this; only an explicit purge does.
	Delete(identity string) error
}

var identityPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// ValidIdentity reports whether s is usable as a peer identity and as a
// directory name: letters, digits, underscore, hyphen, at most 32 runes.
func ValidIdentity(s string) bool {
	return identityPattern.MatchString(s)
}

package manager

import "errors"

var (
	// ErrNotInstalled means no server interface config exists yet; the
	// operator has to run install first.
	ErrNotInstalled = errors.New("server interface is not installed")

	// ErrInterfaceDown means the interface could not be brought up.
	ErrInterfaceDown = errors.New("tunnel interface is down")

	// ErrUnsupported means the host lacks a required system capability.
	ErrUnsupported = errors.New("unsupported environment")

	// ErrAddressInUse means an explicitly requested address is already
	// assigned to another peer or to the server itself.
	ErrAddressInUse = errors.New("address already assigned")

	// ErrAddressOutOfRange means an explicitly requested address is not a
	// usable host address of the tunnel subnet.
	ErrAddressOutOfRange = errors.New("address outside the tunnel subnet")
)

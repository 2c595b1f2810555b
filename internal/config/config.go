package config

import "path/filepath"

// Config holds all settings for the manager. Values come from defaults, an
// optional YAML file and WG_MANAGER_* environment variables, in that order.
type Config struct {
	// Interface is the name of the managed tunnel interface.
	Interface string `mapstructure:"interface"`

	// ListenPort is the server's WireGuard listen port.
	ListenPort int `mapstructure:"listen_port"`

	// Subnet is the CIDR assigned to the tunnel network. The server always
	// takes the first host address.
	Subnet string `mapstructure:"subnet"`

	// DNS is the comma-separated resolver list advertised to peers.
	DNS string `mapstructure:"dns"`

	// Endpoint is the public address peers connect to. Port is appended from
	// ListenPort when rendering peer configs.
	Endpoint string `mapstructure:"endpoint"`

	// EgressInterface is the interface used for outbound traffic (NAT rule
	// templating itself is out of scope, the value is recorded for it).
	EgressInterface string `mapstructure:"egress_interface"`

	// ConfigDir is where the server interface config and DNS sidecar live.
	ConfigDir string `mapstructure:"config_dir"`

	// ClientsDir holds one directory per peer identity.
	ClientsDir string `mapstructure:"clients_dir"`

	// KeysDir holds the server key material, one subdirectory per interface.
	KeysDir string `mapstructure:"keys_dir"`

	// AuditDB is the path of the sqlite lifecycle audit log.
	AuditDB string `mapstructure:"audit_db"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// InterfaceConfigPath returns the path of the server interface config file.
func (c *Config) InterfaceConfigPath() string {
	return filepath.Join(c.ConfigDir, c.Interface+".conf")
}

// DNSSidecarPath returns the path of the one-line DNS list file.
func (c *Config) DNSSidecarPath() string {
	return filepath.Join(c.ConfigDir, c.Interface+".dns")
}

// ServerKeyDir returns the directory holding this interface's server keys.
func (c *Config) ServerKeyDir() string {
	return filepath.Join(c.KeysDir, c.Interface)
}

// LockPath returns the advisory lock file guarding mutating operations.
func (c *Config) LockPath() string {
	return filepath.Join(c.ConfigDir, "."+c.Interface+".wg-manager.lock")
}

package config

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// Load loads configuration from files and environment variables.
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()
	l.setupConfigPaths()
	l.setupEnvVars()

	// Try to read config file (it's optional)
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults + env vars
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithPath loads configuration from a specific file path.
func LoadWithPath(path string) (*Config, error) {
	loader := NewLoader()
	loader.setDefaults()
	loader.setupEnvVars()

	loader.v.SetConfigFile(path)

	if err := loader.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := loader.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := loader.validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func (l *Loader) setDefaults() {
	l.v.SetDefault("interface", "wg0")
	l.v.SetDefault("listen_port", 51820)
	l.v.SetDefault("subnet", "10.8.0.0/24")
	l.v.SetDefault("dns", "1.1.1.1,8.8.8.8")
	l.v.SetDefault("endpoint", "")
	l.v.SetDefault("egress_interface", "eth0")
	l.v.SetDefault("config_dir", "/etc/wireguard")
	l.v.SetDefault("clients_dir", "/etc/wireguard/clients")
	l.v.SetDefault("keys_dir", "/etc/wireguard/keys")
	l.v.SetDefault("audit_db", "/var/lib/wg-manager/audit.db")
	l.v.SetDefault("log_level", "info")
	l.v.SetDefault("log_format", "text")
}

// setupConfigPaths configures where to search for config files.
func (l *Loader) setupConfigPaths() {
	l.v.SetConfigName("wg-manager")
	l.v.SetConfigType("yaml")

	// Search paths in priority order
	l.v.AddConfigPath("/etc/wg-manager")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}
	l.v.AddConfigPath(".")
}

// setupEnvVars configures environment variable handling.
func (l *Loader) setupEnvVars() {
	l.v.SetEnvPrefix("WG_MANAGER")
	l.v.AutomaticEnv()
}

// validate validates the configuration.
func (l *Loader) validate(cfg *Config) error {
	if cfg.Interface == "" {
		return fmt.Errorf("interface name is required")
	}

	if cfg.ListenPort < 1 || cfg.ListenPort > 65535 {
		return fmt.Errorf("listen_port must be in 1..65535, got %d", cfg.ListenPort)
	}

	if _, _, err := net.ParseCIDR(cfg.Subnet); err != nil {
		return fmt.Errorf("invalid subnet %q: %w", cfg.Subnet, err)
	}

	if cfg.DNS == "" {
		return fmt.Errorf("dns list is required")
	}

	if cfg.ConfigDir == "" || cfg.ClientsDir == "" || cfg.KeysDir == "" {
		return fmt.Errorf("config_dir, clients_dir and keys_dir are required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log_format: %s (must be text or json)", cfg.LogFormat)
	}

	return nil
}

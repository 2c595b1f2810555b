package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DanilaBaxBax/wg-manager/internal/audit"
	"github.com/DanilaBaxBax/wg-manager/internal/config"
	"github.com/DanilaBaxBax/wg-manager/internal/manager"
	"github.com/DanilaBaxBax/wg-manager/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "wg-manager",
	Short: "WireGuard peer lifecycle manager",
	Long: `wg-manager provisions and manages peers of a single WireGuard interface:
it allocates per-peer addresses, generates key material, renders configs,
and keeps the persisted server config and the live tunnel in agreement.

Run 'wg-manager install' once, then 'wg-manager add <identity>' per peer.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// fatal prints a severity-prefixed error and exits non-zero.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}

// ok prints a success status line.
func ok(format string, args ...any) {
	fmt.Printf("OK: "+format+"\n", args...)
}

// warn prints a warning status line.
func warn(format string, args ...any) {
	fmt.Printf("WARN: "+format+"\n", args...)
}

// loadConfig loads defaults, the optional config file and env overrides.
func loadConfig() *config.Config {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fatal(err)
	}
	return cfg
}

// buildLogger creates the logger the commands share.
func buildLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Config{
		Level:     logger.LogLevel(cfg.LogLevel),
		Format:    logger.OutputFormat(cfg.LogFormat),
		Component: "wg-manager",
	})
}

// buildManager wires the manager and attaches the audit log. An unusable
// audit database degrades to a warning; lifecycle commands still run.
func buildManager(cfg *config.Config, log *logger.Logger) *manager.Manager {
	mgr := manager.New(cfg, manager.Deps{Logger: log})
	store, err := audit.NewStore(cfg.AuditDB, log)
	if err != nil {
		log.Warn("audit log unavailable", "path", cfg.AuditDB, "error", err)
		return mgr
	}
	audit.SubscribeAll(mgr.Bus(), store)
	return mgr
}

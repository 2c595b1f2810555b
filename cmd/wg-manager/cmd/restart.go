package cmd

import (
	"github.com/spf13/cobra"
)

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the tunnel interface",
	Long: `Take the interface down and bring it back up, reloading the persisted
server config.

Examples:
  wg-manager restart`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		log := buildLogger(cfg)
		mgr := buildManager(cfg, log)

		if err := mgr.Restart(cmd.Context()); err != nil {
			fatal(err)
		}
		ok("%s restarted", cfg.Interface)
	},
}

func init() {
	rootCmd.AddCommand(restartCmd)
}

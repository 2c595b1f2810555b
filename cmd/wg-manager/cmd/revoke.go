package cmd

import (
	"github.com/spf13/cobra"
)

var revokeCmd = &cobra.Command{
	Use:   "revoke <identity>",
	Short: "Remove a peer from the live network",
	Long: `Remove the peer from the live interface and the persisted server config.
The peer's stored files are retained for audit and recovery; its address
stays claimed until the identity is purged.

Examples:
  wg-manager revoke alice`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		log := buildLogger(cfg)
		mgr := buildManager(cfg, log)

		if err := mgr.Revoke(cmd.Context(), args[0]); err != nil {
			fatal(err)
		}
		ok("%s revoked, files retained", args[0])
	},
}

func init() {
	rootCmd.AddCommand(revokeCmd)
}

package cmd

import (
	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge <identity>",
	Short: "Delete a peer's files and free its address",
	Long: `Hard-delete a peer: remove it from the live interface and the server
config, then delete its stored files. After a purge the identity's address
becomes reclaimable by later adds.

Examples:
  wg-manager purge alice`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		log := buildLogger(cfg)
		mgr := buildManager(cfg, log)

		if err := mgr.Purge(cmd.Context(), args[0]); err != nil {
			fatal(err)
		}
		ok("%s purged, address reclaimable", args[0])
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}

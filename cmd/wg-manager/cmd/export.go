package cmd

import (
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <identity>",
	Short: "Export a peer's importable config",
	Long: `Copy the peer's full importable config, unmodified, into a destination
directory.

Examples:
  # Export into the current directory
  wg-manager export alice

  # Export into a specific directory
  wg-manager export alice --path /home/admin/configs`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		log := buildLogger(cfg)
		mgr := buildManager(cfg, log)

		dest, _ := cmd.Flags().GetString("path")
		path, err := mgr.Export(cmd.Context(), args[0], dest)
		if err != nil {
			fatal(err)
		}
		ok("exported %s to %s", args[0], path)
	},
}

func init() {
	exportCmd.Flags().String("path", ".", "destination directory")
	rootCmd.AddCommand(exportCmd)
}

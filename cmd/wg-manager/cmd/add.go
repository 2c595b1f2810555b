package cmd

import (
	"github.com/spf13/cobra"

	"github.com/DanilaBaxBax/wg-manager/internal/manager"
)

var addCmd = &cobra.Command{
	Use:   "add <identity>",
	Short: "Provision a peer",
	Long: `Provision a peer: allocate an address, generate keys, render and store its
configs, install it into the live interface and persist the server config.

Adding an identity that already exists reuses the stored record; keys and
address are never rotated.

Examples:
  # Provision with the lowest free address
  wg-manager add alice

  # Explicit address, IPv6 routes and a QR code
  wg-manager add bob --ip 10.8.0.50 --ipv6 --qr`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		log := buildLogger(cfg)
		mgr := buildManager(cfg, log)

		opts := manager.AddOptions{}
		opts.Address, _ = cmd.Flags().GetString("ip")
		opts.IPv6, _ = cmd.Flags().GetBool("ipv6")
		opts.QR, _ = cmd.Flags().GetBool("qr")

		result, err := mgr.Add(cmd.Context(), args[0], opts)
		if err != nil {
			fatal(err)
		}
		if result.Reused {
			ok("%s already provisioned at %s, record reused", args[0], result.Record.Address)
		} else {
			ok("%s provisioned at %s", args[0], result.Record.Address)
		}
	},
}

func init() {
	addCmd.Flags().String("ip", "", "explicit host address inside the tunnel subnet")
	addCmd.Flags().Bool("ipv6", false, "route IPv6 traffic through the tunnel as well")
	addCmd.Flags().Bool("qr", false, "render a qr.png alongside the config")
	rootCmd.AddCommand(addCmd)
}

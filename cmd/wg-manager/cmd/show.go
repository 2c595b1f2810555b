package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <identity>",
	Short: "Show a peer's details",
	Long: `Show a peer's address, public key and importable config. The private key
and preshared secret are masked; use export to obtain the full config.

Examples:
  wg-manager show alice

  # Also write the QR artifact if it is missing
  wg-manager show alice --qr`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		log := buildLogger(cfg)
		mgr := buildManager(cfg, log)

		result, err := mgr.Show(cmd.Context(), args[0])
		if err != nil {
			fatal(err)
		}

		fmt.Printf("Identity:   %s\n", result.Identity)
		fmt.Printf("Address:    %s\n", result.Address)
		fmt.Printf("PublicKey:  %s\n", result.PublicKey)
		fmt.Printf("AllowedIPs: %s\n", result.AllowedIPs)
		fmt.Printf("\n%s", result.Importable)

		if wantQR, _ := cmd.Flags().GetBool("qr"); wantQR {
			if _, err := mgr.ShowQR(cmd.Context(), args[0]); err != nil {
				fatal(err)
			}
			ok("qr.png available in the peer directory")
		}
	},
}

func init() {
	showCmd.Flags().Bool("qr", false, "ensure the qr.png artifact exists")
	rootCmd.AddCommand(showCmd)
}

package cmd

import (
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Provision the server interface",
	Long: `Provision the WireGuard server interface: generate server keys, write the
interface config and DNS sidecar, enable packet forwarding and bring the
interface up.

Re-running install over an existing interface config is a no-op; server
identity and keys are never overwritten.

Examples:
  # Install with defaults (wg0, 10.8.0.0/24, port 51820)
  wg-manager install --endpoint vpn.example.com

  # Custom interface and subnet
  wg-manager install --iface wg1 --subnet 10.9.0.0/24 --port 51821 --endpoint vpn.example.com`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if iface, _ := cmd.Flags().GetString("iface"); iface != "" {
			cfg.Interface = iface
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.ListenPort = port
		}
		if subnet, _ := cmd.Flags().GetString("subnet"); subnet != "" {
			cfg.Subnet = subnet
		}
		if dns, _ := cmd.Flags().GetString("dns"); dns != "" {
			cfg.DNS = dns
		}
		if endpoint, _ := cmd.Flags().GetString("endpoint"); endpoint != "" {
			cfg.Endpoint = endpoint
		}

		log := buildLogger(cfg)
		mgr := buildManager(cfg, log)

		result, err := mgr.Install(cmd.Context())
		if err != nil {
			fatal(err)
		}
		if result.Created {
			ok("installed %s at %s, public key %s", result.Interface, result.Address, result.PublicKey)
		} else {
			ok("%s already installed, left untouched (public key %s)", result.Interface, result.PublicKey)
		}
	},
}

func init() {
	installCmd.Flags().String("iface", "", "interface name (default from config: wg0)")
	installCmd.Flags().Int("port", 0, "listen port (default from config: 51820)")
	installCmd.Flags().String("subnet", "", "tunnel subnet CIDR (default from config: 10.8.0.0/24)")
	installCmd.Flags().String("dns", "", "comma-separated DNS list advertised to peers")
	installCmd.Flags().String("endpoint", "", "public address peers connect to")
	rootCmd.AddCommand(installCmd)
}

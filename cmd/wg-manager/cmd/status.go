package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show interface and peer liveness",
	Long: `Show the server interface state and the live peer table: endpoint,
latest handshake age and transfer counters per peer, keyed back to stored
identities. Also reports drift between the persisted config and the live
table.

Examples:
  wg-manager status`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		log := buildLogger(cfg)
		mgr := buildManager(cfg, log)

		report, err := mgr.Status(cmd.Context())
		if err != nil {
			fatal(err)
		}

		if !report.Installed {
			warn("%s is not installed, run 'wg-manager install' first", report.Interface)
			return
		}
		if !report.Up {
			warn("%s is installed but down (%d peers stored)", report.Interface, report.Stored)
			return
		}

		ok("%s up, port %d, %d peers stored, %d live", report.Interface, report.ListenPort, report.Stored, len(report.Peers))
		fmt.Printf("public key: %s\n", report.PublicKey)

		if len(report.Peers) > 0 {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "IDENTITY\tENDPOINT\tHANDSHAKE\tRX\tTX")
			for _, p := range report.Peers {
				identity := p.Identity
				if identity == "" {
					identity = "(unmanaged)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
					identity, p.Endpoint, handshakeAge(p.LatestHandshake), p.ReceiveBytes, p.TransmitBytes)
			}
			w.Flush()
		}

		if report.Drift != nil && !report.Drift.InSync() {
			warn("config and live table disagree: %d only persisted, %d only live",
				len(report.Drift.OnlyPersisted), len(report.Drift.OnlyLive))
		}
	},
}

func handshakeAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return time.Since(t).Round(time.Second).String() + " ago"
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

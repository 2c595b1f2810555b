package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all provisioned peers",
	Long: `List every stored peer sorted by identity, annotated active or inactive
by joining stored public keys against the live peer table.

Examples:
  wg-manager list`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		log := buildLogger(cfg)
		mgr := buildManager(cfg, log)

		peers, err := mgr.List(cmd.Context())
		if err != nil {
			fatal(err)
		}
		if len(peers) == 0 {
			ok("no peers provisioned")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "IDENTITY\tADDRESS\tSTATE\tPUBLIC KEY")
		for _, p := range peers {
			state := "inactive"
			if p.Active {
				state = "active"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Identity, p.Address, state, p.PublicKey)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/anicka-net/ossuary/internal/contract"
	"github.com/anicka-net/ossuary/internal/output"
)

// moversCmd lists the packages whose scores moved the most.
var moversCmd = &cobra.Command{
	Use:   "movers",
	Short: "Show packages whose risk score moved the most recently.",
	Long: `Compare each package's two most recent history rows inside the window
and list the largest absolute deltas first.

Examples:
  ossuary movers --limit 10 --since 14`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		since := time.Duration(mustInt(cmd, "since")) * 24 * time.Hour
		movers, err := scorer.Movers(rootCtx, mustInt(cmd, "limit"), since)
		if err != nil {
			contract.LogFatal("Cannot query movers", err, exitCodeFor(err))
		}
		if err := output.PrintMovers(os.Stdout, movers, cfg.JSONOut); err != nil {
			contract.LogFatal("Cannot render movers", err, ExitUnresolved)
		}
	},
}

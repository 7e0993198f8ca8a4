package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anicka-net/ossuary/internal/contract"
	"github.com/anicka-net/ossuary/internal/output"
)

// historyCmd recomputes a monthly score series for one package.
var historyCmd = &cobra.Command{
	Use:   "history <package>",
	Short: "Recompute monthly historical scores for a package.",
	Long: `Recompute the score at monthly as-of cutoffs going back from now.

Each month is evaluated with full T-1 semantics: commits and metadata after
the cutoff are invisible, so the series is reproducible.

Examples:
  ossuary history colors --ecosystem npm --months 24`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, args []string) {
		eco, err := contract.ParseEcosystem(mustString(cmd, "ecosystem"))
		if err != nil {
			contract.LogFatal("Invalid ecosystem", err, ExitInput)
		}

		series, err := scorer.History(rootCtx, eco, args[0], mustInt(cmd, "months"))
		if err != nil {
			contract.LogFatal(fmt.Sprintf("Cannot compute history for %s:%s", eco, args[0]), err, exitCodeFor(err))
		}
		if err := output.PrintHistory(os.Stdout, series, cfg.JSONOut); err != nil {
			contract.LogFatal("Cannot render history", err, ExitUnresolved)
		}
	},
}

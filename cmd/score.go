package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/anicka-net/ossuary/core"
	"github.com/anicka-net/ossuary/internal/contract"
	"github.com/anicka-net/ossuary/internal/output"
)

// scoreCmd computes the governance risk score for one package.
var scoreCmd = &cobra.Command{
	Use:   "score <package>",
	Short: "Compute the governance risk score for a package.",
	Long: `Compute the 0-100 governance risk score for one package.

The pipeline resolves the upstream repository from the package registry,
mirrors its history with a blobless clone, collects forge metadata and
combines contributor concentration, activity, protective factors, sentiment
and the takeover detector into one deterministic score.

Examples:
  # Current score for an npm package
  ossuary score event-stream --ecosystem npm

  # Reproducible historical score (T-1 semantics)
  ossuary score event-stream --ecosystem npm --cutoff 2018-09-01

  # Score a repository directly
  ossuary score torvalds/linux --ecosystem github --json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, args []string) {
		eco, err := contract.ParseEcosystem(mustString(cmd, "ecosystem"))
		if err != nil {
			contract.LogFatal("Invalid ecosystem", err, ExitInput)
		}
		asOf, err := contract.ParseCutoff(mustString(cmd, "cutoff"), time.Now().UTC())
		if err != nil {
			contract.LogFatal("Invalid cutoff", err, ExitInput)
		}

		opts := core.Options{
			AsOf:    asOf,
			RepoURL: mustString(cmd, "repo-url"),
			Force:   mustBool(cmd, "force"),
		}
		score, err := scorer.Score(rootCtx, eco, args[0], opts)
		if err != nil {
			contract.LogFatal(fmt.Sprintf("Cannot score %s:%s", eco, args[0]), err, exitCodeFor(err))
		}
		if err := output.PrintScore(os.Stdout, score, cfg.JSONOut, cfg.UseColors); err != nil {
			contract.LogFatal("Cannot render score", err, ExitUnresolved)
		}
	},
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func mustBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

func mustInt(cmd *cobra.Command, name string) int {
	v, _ := cmd.Flags().GetInt(name)
	return v
}

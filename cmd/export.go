package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anicka-net/ossuary/internal/contract"
	"github.com/anicka-net/ossuary/internal/parquet"
)

// exportCmd dumps a package's score history to a Parquet file.
var exportCmd = &cobra.Command{
	Use:   "export <package>",
	Short: "Export a package's score history to Parquet.",
	Long: `Export the append-only score history of one package as a Parquet file
for downstream analytics.

Examples:
  ossuary export chalk --ecosystem npm --output-file chalk.parquet`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, args []string) {
		eco, err := contract.ParseEcosystem(mustString(cmd, "ecosystem"))
		if err != nil {
			contract.LogFatal("Invalid ecosystem", err, ExitInput)
		}

		rows, err := scorer.Store.History(rootCtx, eco, args[0], mustInt(cmd, "limit"))
		if err != nil {
			contract.LogFatal("Cannot read score history", err, exitCodeFor(err))
		}

		outFile := mustString(cmd, "output-file")
		if err := parquet.WriteScoreHistoryParquet(parquet.FromHistory(rows), outFile); err != nil {
			contract.LogFatal("Cannot write parquet file", err, ExitUnresolved)
		}
		fmt.Fprintf(os.Stdout, "Wrote %d rows to %s\n", len(rows), outFile)
	},
}

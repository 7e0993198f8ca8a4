package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anicka-net/ossuary/schema"
)

// versionCmd prints build and model version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and scoring model information.",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Fprintf(os.Stdout, "ossuary %s (commit %s, built %s)\n", version, commit, date)
		fmt.Fprintf(os.Stdout, "scoring model %s\n", schema.ModelVersion)
	},
}

// Package output renders scores, movers and history to the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"

	"github.com/anicka-net/ossuary/core"
	"github.com/anicka-net/ossuary/internal/contract"
	"github.com/anicka-net/ossuary/schema"
)

// maximum width of the evidence column before truncation.
const maxEvidenceWidth = 60

// PrintScore renders one score as JSON or as the human-readable report.
func PrintScore(w io.Writer, score *schema.Score, jsonOut bool, useColors bool) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(score)
	}

	label := contract.GetPlainLabel(score.Value)
	if useColors {
		label = contract.GetColorLabel(score.Value)
	}
	fmt.Fprintf(w, "%s %s/%s: %d (%s)\n", score.Semaphore, score.Ecosystem, score.Package, score.Value, label)
	if score.Partial {
		fmt.Fprintln(w, "   (partial: some collectors failed, treat with care)")
	}
	fmt.Fprintf(w, "\n%s\n\n", score.Explanation)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Factor", "Points", "Evidence"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	evidenceWidth := maxEvidenceWidth
	if w := TerminalWidth(0); w > 0 && w-45 < evidenceWidth {
		evidenceWidth = max(w-45, 20)
	}

	var data [][]string
	for _, entry := range score.Breakdown {
		data = append(data, []string{
			string(entry.Tag),
			fmt.Sprintf("%+d", entry.Points),
			truncate(entry.Evidence, evidenceWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	for _, rec := range score.Recommendations {
		fmt.Fprintf(w, "  - %s\n", rec)
	}
	return nil
}

// PrintMovers renders the movers query result.
func PrintMovers(w io.Writer, movers []schema.MoverRow, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(movers)
	}
	if len(movers) == 0 {
		fmt.Fprintln(w, "No movers in the window.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Package", "Ecosystem", "Prev", "Now", "Delta", "Computed"})
	var data [][]string
	for _, m := range movers {
		delta := fmt.Sprintf("%+d", m.Delta)
		if m.Delta > 0 {
			delta = contract.CriticalColor.Sprint(delta)
		} else {
			delta = contract.LowColor.Sprint(delta)
		}
		data = append(data, []string{
			m.Name,
			string(m.Ecosystem),
			strconv.Itoa(m.PrevScore),
			strconv.Itoa(m.LastScore),
			delta,
			m.ComputedAt.Format("2006-01-02 15:04"),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// PrintHistory renders a monthly score series.
func PrintHistory(w io.Writer, series []core.HistoricalPoint, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(series)
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Month", "Score", "Level"})
	var data [][]string
	for _, p := range series {
		data = append(data, []string{
			p.AsOf.Format("2006-01"),
			strconv.Itoa(p.Score),
			string(p.Level),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// TerminalWidth reports the stdout width, or the fallback when stdout is
// not a terminal.
func TerminalWidth(fallback int) int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return fallback
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

// cmd/dataclarity/output.go
package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/David-Botos/data-clarity/pkg/catalog"
	"github.com/David-Botos/data-clarity/pkg/engine"
	"github.com/David-Botos/data-clarity/pkg/matcher"
	"github.com/David-Botos/data-clarity/pkg/model"
)

func printCatalog(w io.Writer, cat *catalog.Catalog) {
	fmt.Fprintf(w, "Available actions (%d):\n", cat.Len())
	for _, action := range cat.Actions() {
		fmt.Fprintf(w, "\n  %s\n", action.ID)
		for _, phrase := range action.TriggerPhrases {
			fmt.Fprintf(w, "    - %s\n", phrase)
		}
	}

	fmt.Fprintln(w, "\nTry:")
	for _, s := range cat.Suggestions() {
		fmt.Fprintf(w, "  %s\n", s)
	}
}

func printResolve(w io.Writer, res matcher.MatchResult, ranked []matcher.Candidate) {
	if res.Matched() {
		fmt.Fprintf(w, "Action:     %s\n", res.ActionID)
		fmt.Fprintf(w, "Confidence: %.1f\n", res.Confidence)
		fmt.Fprintf(w, "Phrase:     %s\n", res.MatchedPhrase)
	} else {
		fmt.Fprintf(w, "Instruction not recognized (best confidence %.1f)\n", res.Confidence)
	}

	if len(ranked) == 0 {
		return
	}
	fmt.Fprintln(w, "\nCandidates:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range ranked {
		fmt.Fprintf(tw, "  %s\t%.1f\t%s\n", c.ActionID, c.Confidence, c.Phrase)
	}
	tw.Flush()
}

// printOverview writes the shape and missing values of a dataset
func printOverview(w io.Writer, p model.Profile) {
	fmt.Fprintln(w, "Dataset Overview")
	fmt.Fprintf(w, "Rows: %d | Columns: %d\n", p.Rows, len(p.Columns))
	fmt.Fprintf(w, "Total Missing Values: %d (%.2f%%)\n", p.TotalMissing, p.MissingPercent)
	fmt.Fprintf(w, "Columns: %s\n", strings.Join(p.ColumnNames(), ", "))

	fmt.Fprintln(w, "\nMissing Values")
	missing := p.ColumnsWithMissing()
	if len(missing) == 0 {
		fmt.Fprintln(w, "No missing values detected.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, col := range missing {
		fmt.Fprintf(tw, "  %s\t%d\n", col.Name, col.Missing)
	}
	tw.Flush()
}

// printColumn writes the missing values of one column
func printColumn(w io.Writer, col model.ColumnProfile, rows int) {
	percent := 0.0
	if rows > 0 {
		percent = float64(col.Missing) / float64(rows) * 100
	}
	fmt.Fprintf(w, "Column: %s\n", col.Name)
	fmt.Fprintf(w, "Missing: %d of %d (%.2f%%)\n", col.Missing, rows, percent)
	fmt.Fprintf(w, "Present: %d\n", col.NonMissing)
}

// printPreview writes the first n rows; missing cells are shown as <missing>
func printPreview(w io.Writer, ds *model.Dataset, n int) {
	if n <= 0 || ds.ColumnCount() == 0 {
		return
	}
	if n > ds.RowCount() {
		n = ds.RowCount()
	}

	fmt.Fprintf(w, "\nPreview (%d of %d rows)\n", n, ds.RowCount())
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(ds.ColumnNames(), "\t"))
	for i := 0; i < n; i++ {
		row := ds.Row(i)
		values := make([]string, len(row))
		for j, cell := range row {
			if cell.IsMissing() {
				values[j] = "<missing>"
			} else {
				values[j] = cell.Value
			}
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}
	tw.Flush()
}

func printOutcome(w io.Writer, out engine.Outcome) {
	switch out.Status {
	case engine.StatusApplied:
		fmt.Fprintf(w, "Applied %s (confidence %.1f): %s\n", out.ActionID, out.Confidence, out.Description)
	case engine.StatusUnrecognized:
		fmt.Fprintf(w, "Instruction not recognized: %q\n", out.Instruction)
		fmt.Fprintln(w, "Try one of:")
		for _, s := range out.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	default:
		fmt.Fprintf(w, "Failed to apply %s: %v\n", out.ActionID, out.Err)
	}
}

func printHistory(w io.Writer, history []model.ActionHistoryEntry) {
	if len(history) == 0 {
		fmt.Fprintln(w, "No actions applied yet.")
		return
	}
	fmt.Fprintln(w, "Applied actions:")
	for i, h := range history {
		fmt.Fprintf(w, "%d. %s (%s)\n", i+1, h.Description, h.Instruction)
	}
}

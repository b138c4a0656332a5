// cmd/dataclarity/commands.go
package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/data-clarity/pkg/catalog"
	"github.com/David-Botos/data-clarity/pkg/engine"
	"github.com/David-Botos/data-clarity/pkg/matcher"
	"github.com/David-Botos/data-clarity/pkg/model"
	"github.com/David-Botos/data-clarity/pkg/session"
)

func newCatalogCmd(a *app) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the cleaning actions and the phrases that trigger them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.newCatalog()
			if err != nil {
				return err
			}
			if asYAML {
				data, err := catalog.Marshal(cat)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			printCatalog(cmd.OutOrStdout(), cat)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the catalog as YAML")
	return cmd
}

func newResolveCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "resolve [instruction]",
		Short: "Show which action an instruction resolves to",
		Long: `Scores the instruction against every trigger phrase and prints the
resolved action and its confidence.

Example:
  dataclarity resolve "please drop empty rows"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.newMatcher()
			if err != nil {
				return err
			}
			instruction := strings.Join(args, " ")

			var ranked []matcher.Candidate
			if all {
				ranked = m.Rank(instruction)
			}
			printResolve(cmd.OutOrStdout(), m.Resolve(instruction), ranked)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Also print the best score of every action")
	return cmd
}

func newOverviewCmd(a *app) *cobra.Command {
	var (
		src     sourceFlags
		preview int
		column  string
	)

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show the shape and missing values of a dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.loadDataset(cmd.Context(), src)
			if err != nil {
				return err
			}
			profile := model.NewProfile(ds)
			if column != "" {
				col := profile.GetColumnByName(column)
				if col == nil {
					return fmt.Errorf("column %q not found", column)
				}
				printColumn(cmd.OutOrStdout(), *col, profile.Rows)
				return nil
			}
			printOverview(cmd.OutOrStdout(), profile)
			printPreview(cmd.OutOrStdout(), ds, preview)
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().IntVar(&preview, "preview", 5, "Number of rows to preview")
	cmd.Flags().StringVar(&column, "column", "", "Only show the missing values of this column (case-insensitive)")
	return cmd
}

func newCleanCmd(a *app) *cobra.Command {
	var (
		src          sourceFlags
		instructions []string
		threshold    float64
		fill         string
		outPath      string
		exportTable  string
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Apply cleaning instructions to a dataset",
		Long: `Applies each --instruction in order to the dataset and writes the result.

Example:
  dataclarity clean -f staff.csv \
    -i "remove duplicates" -i "fill missing values" --fill N/A \
    --out staff_clean.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(instructions) == 0 {
				return errors.New("at least one --instruction is required")
			}
			params, err := a.cleaningParams(cmd, threshold, fill)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ds, err := a.loadDataset(ctx, src)
			if err != nil {
				return err
			}

			sess, err := a.newSession(cmd, ds, session.NewMetrics(a.logger.Named("metrics"), nil))
			if err != nil {
				return err
			}
			defer sess.Close()

			w := cmd.OutOrStdout()
			var notApplied int
			for _, instruction := range instructions {
				out, err := sess.Apply(ctx, instruction, params)
				if err != nil {
					return err
				}
				printOutcome(w, out)
				if out.Status != engine.StatusApplied {
					notApplied++
				}
			}

			fmt.Fprintln(w)
			printHistory(w, sess.History())
			fmt.Fprintln(w)
			printOverview(w, sess.Overview())

			cleaned := sess.Current()
			if outPath != "" {
				if err := a.newConverter().WriteCSVFile(outPath, cleaned); err != nil {
					return err
				}
				fmt.Fprintf(w, "\nWrote %s\n", outPath)
			}
			if exportTable != "" {
				inserted, total, err := a.exportDataset(ctx, exportTable, cleaned)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "\nExported %d rows to %s (table now holds %d rows)\n", inserted, exportTable, total)
			}

			if strict && notApplied > 0 {
				return fmt.Errorf("%d of %d instructions were not applied", notApplied, len(instructions))
			}
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().StringArrayVarP(&instructions, "instruction", "i", nil, "Cleaning instruction (repeatable, applied in order)")
	cmd.Flags().Float64Var(&threshold, "threshold", model.DefaultMissingColumnThreshold, "Missing fraction above which a column is dropped")
	cmd.Flags().StringVar(&fill, "fill", model.DefaultFillValue, "Replacement for missing values")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the cleaned dataset to this CSV or TSV file")
	cmd.Flags().StringVar(&exportTable, "export-table", "", "Export the cleaned dataset to this PostgreSQL table (schema.table)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when an instruction is not recognized or not applied")
	return cmd
}

// newSession starts a session that audits to the configured backend
func (a *app) newSession(cmd *cobra.Command, ds *model.Dataset, metrics *session.Metrics) (*session.Session, error) {
	eng, err := a.newEngine()
	if err != nil {
		return nil, err
	}
	recorder, err := a.newRecorder(cmd.Context())
	if err != nil {
		return nil, err
	}

	sess, err := session.New(eng, ds,
		session.WithRecorder(recorder),
		session.WithMetrics(metrics),
		session.WithLogger(a.logger.Named("session")),
	)
	if err != nil {
		recorder.Close()
		return nil, err
	}
	a.logger.Debug("Session ready", zap.String("session", sess.ID))
	return sess, nil
}

// cmd/dataclarity/audit.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/David-Botos/data-clarity/pkg/audit"
	"github.com/David-Botos/data-clarity/pkg/config"
)

func newAuditCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the most recent audit log entries",
		Long: `Reads the configured audit backend and prints the newest entries first.

Example:
  dataclarity audit --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			entries, err := a.recentAudit(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printAudit(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

// recentAudit returns up to limit entries from the configured backend, newest first
func (a *app) recentAudit(ctx context.Context, limit int) ([]audit.Entry, error) {
	switch a.cfg.AuditBackend {
	case config.AuditBackendNone:
		return nil, errors.New("audit backend is none; nothing is recorded")
	case config.AuditBackendPostgres:
		if a.cfg.Postgres == nil {
			return nil, fmt.Errorf("audit backend postgres: %w", config.ErrNotConfigured)
		}
		rec, err := audit.OpenSQLRecorder(ctx, "pgx", a.cfg.Postgres.ConnectionString(),
			a.cfg.AuditTable, a.logger.Named("audit"))
		if err != nil {
			return nil, err
		}
		defer rec.Close()
		return rec.Recent(ctx, limit)
	default:
		all, err := audit.ReadFile(a.cfg.AuditLogPath)
		if err != nil {
			return nil, err
		}
		if len(all) > limit {
			all = all[len(all)-limit:]
		}
		entries := make([]audit.Entry, len(all))
		for i, e := range all {
			entries[len(all)-1-i] = e
		}
		return entries, nil
	}
}

func printAudit(w io.Writer, entries []audit.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No audit entries.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSESSION\tSTATUS\tACTION\tCONFIDENCE\tINSTRUCTION")
	for _, e := range entries {
		action := e.ActionID
		if action == "" {
			action = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			shortID(e.SessionID), e.Status, action, e.Confidence, e.Instruction)
	}
	tw.Flush()
}

// shortID trims a uuid to its first block for display
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// cmd/dataclarity/session.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/data-clarity/pkg/converter"
	"github.com/David-Botos/data-clarity/pkg/model"
	"github.com/David-Botos/data-clarity/pkg/session"
)

const sessionHelp = `Type a cleaning instruction, or one of:
  :history           list applied actions
  :overview          show the current dataset overview
  :reset             restore the original dataset
  :save <path>       write the current dataset to a CSV or TSV file
  :metrics [--json]  show session metrics
  :help              show this help
  :quit              end the session`

func newSessionCmd(a *app) *cobra.Command {
	var (
		src         sourceFlags
		threshold   float64
		fill        string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Clean a dataset interactively, one instruction per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := a.cleaningParams(cmd, threshold, fill)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ds, err := a.loadDataset(ctx, src)
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			sess, err := a.newSession(cmd, ds, session.NewMetrics(a.logger.Named("metrics"), registry))
			if err != nil {
				return err
			}
			defer sess.Close()

			if metricsAddr != "" {
				stop := serveMetrics(a.logger, metricsAddr, registry)
				defer stop()
			}

			return runSessionLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), sess, params, a.newConverter())
		},
	}

	src.register(cmd)
	cmd.Flags().Float64Var(&threshold, "threshold", model.DefaultMissingColumnThreshold, "Missing fraction above which a column is dropped")
	cmd.Flags().StringVar(&fill, "fill", model.DefaultFillValue, "Replacement for missing values")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

// runSessionLoop reads one instruction or command per line until :quit or EOF
func runSessionLoop(
	ctx context.Context,
	in io.Reader,
	w io.Writer,
	sess *session.Session,
	params model.CleaningParameters,
	conv *converter.Converter,
) error {
	printOverview(w, sess.Overview())
	fmt.Fprintf(w, "\n%s\n", sessionHelp)

	input := readLines(ctx, in)
	for {
		fmt.Fprint(w, "\n> ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(w)
			return ctx.Err()
		case line, ok = <-input.lines:
		}
		if !ok {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, ":") {
			out, err := sess.Apply(ctx, line, params)
			if err != nil {
				return err
			}
			printOutcome(w, out)
			continue
		}

		command, arg, _ := strings.Cut(line, " ")
		switch command {
		case ":quit", ":exit", ":q":
			fmt.Fprintln(w, "Bye.")
			return nil
		case ":history":
			printHistory(w, sess.History())
		case ":overview":
			printOverview(w, sess.Overview())
		case ":reset":
			sess.Reset()
			fmt.Fprintln(w, "Dataset reset to original.")
		case ":save":
			path := strings.TrimSpace(arg)
			if path == "" {
				fmt.Fprintln(w, "Usage: :save <path>")
				continue
			}
			if err := conv.WriteCSVFile(path, sess.Current()); err != nil {
				fmt.Fprintf(w, "Failed to save: %v\n", err)
				continue
			}
			fmt.Fprintf(w, "Saved %s\n", path)
		case ":metrics":
			if strings.TrimSpace(arg) == "--json" {
				data, err := sess.Metrics().ToJSON()
				if err != nil {
					fmt.Fprintf(w, "Failed to encode metrics: %v\n", err)
					continue
				}
				fmt.Fprintf(w, "%s\n", data)
				continue
			}
			fmt.Fprint(w, sess.Report())
		case ":help":
			fmt.Fprintln(w, sessionHelp)
		default:
			fmt.Fprintf(w, "Unknown command %s\n%s\n", command, sessionHelp)
		}
	}

	if err := input.err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// lineReader scans input on its own goroutine so a blocked read never delays
// cancellation
type lineReader struct {
	lines   <-chan string
	scanErr error
}

// readLines streams lines from in until EOF, a read error or ctx is done.
// The scanning goroutine may stay blocked on in after ctx is done.
func readLines(ctx context.Context, in io.Reader) *lineReader {
	lines := make(chan string)
	r := &lineReader{lines: lines}

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		r.scanErr = scanner.Err()
	}()

	return r
}

// err reports the scan error; valid once lines is closed
func (r *lineReader) err() error {
	return r.scanErr
}

// serveMetrics exposes /metrics and /healthz until the returned func is called
func serveMetrics(logger *zap.Logger, addr string, registry *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("Serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("Failed to stop metrics server", zap.Error(err))
		}
	}
}

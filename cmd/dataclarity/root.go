// cmd/dataclarity/root.go
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/data-clarity/pkg/audit"
	"github.com/David-Botos/data-clarity/pkg/catalog"
	"github.com/David-Botos/data-clarity/pkg/cleaner"
	"github.com/David-Botos/data-clarity/pkg/config"
	"github.com/David-Botos/data-clarity/pkg/connector"
	"github.com/David-Botos/data-clarity/pkg/converter"
	"github.com/David-Botos/data-clarity/pkg/engine"
	"github.com/David-Botos/data-clarity/pkg/logging"
	"github.com/David-Botos/data-clarity/pkg/matcher"
	"github.com/David-Botos/data-clarity/pkg/model"
)

// app carries the global flags and everything built from them
type app struct {
	verbose     bool
	catalogPath string
	envFile     string

	cfg    *config.Config
	logger *zap.Logger
}

// newRootCmd creates the root command with all subcommands attached
func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "dataclarity",
		Short: "Clean tabular data with plain-language instructions",
		Long: `dataclarity cleans tabular datasets with plain-language instructions such as
"remove rows with missing values" or "standardize column names".

Instructions are matched against a catalog of cleaning actions with fuzzy
scoring. Datasets are read from CSV files, PostgreSQL or Snowflake tables and
every instruction is written to an audit log.`,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&a.catalogPath, "catalog", "", "Action catalog YAML file (default: built-in catalog)")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "Read environment from this file instead of .env")

	rootCmd.AddCommand(newCatalogCmd(a))
	rootCmd.AddCommand(newResolveCmd(a))
	rootCmd.AddCommand(newOverviewCmd(a))
	rootCmd.AddCommand(newCleanCmd(a))
	rootCmd.AddCommand(newSessionCmd(a))
	rootCmd.AddCommand(newAuditCmd(a))

	return rootCmd
}

// setup loads configuration and initializes the logger
func (a *app) setup(cmd *cobra.Command, args []string) error {
	var envFiles []string
	if a.envFile != "" {
		envFiles = append(envFiles, a.envFile)
	}

	cfg, err := config.LoadConfig(envFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	if a.catalogPath != "" {
		cfg.CatalogPath = a.catalogPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)

	a.cfg = cfg
	a.logger = logger
	logger.Debug("Command started", zap.String("command", cmd.Name()))
	return nil
}

func (a *app) newCatalog() (*catalog.Catalog, error) {
	return catalog.LoadFile(a.cfg.CatalogPath)
}

func (a *app) newMatcher() (*matcher.Matcher, error) {
	cat, err := a.newCatalog()
	if err != nil {
		return nil, err
	}
	scorer, err := matcher.ScorerByName(a.cfg.Scorer)
	if err != nil {
		return nil, err
	}
	return matcher.New(cat,
		matcher.WithScorer(scorer),
		matcher.WithMinConfidence(a.cfg.MinConfidence),
		matcher.WithLogger(a.logger.Named("matcher")),
	), nil
}

func (a *app) newEngine() (*engine.Engine, error) {
	m, err := a.newMatcher()
	if err != nil {
		return nil, err
	}
	c, err := cleaner.NewDataCleaner(a.logger.Named("cleaner"))
	if err != nil {
		return nil, err
	}
	return engine.New(m, c, a.logger.Named("engine"))
}

// newConverter adds the configured extra null markers to the defaults
func (a *app) newConverter() *converter.Converter {
	convCfg := converter.DefaultConfig()
	convCfg.NullMarkers = append(convCfg.NullMarkers, a.cfg.ExtraNullMarkers...)
	return converter.NewConverterWithConfig(a.logger.Named("converter"), convCfg)
}

func (a *app) newFactory() *connector.ConnectorFactory {
	return connector.NewConnectorFactory(a.cfg, a.newConverter(), a.logger.Named("factory"))
}

// newRecorder opens the configured audit backend
func (a *app) newRecorder(ctx context.Context) (audit.Recorder, error) {
	switch a.cfg.AuditBackend {
	case config.AuditBackendNone:
		return audit.NopRecorder{}, nil
	case config.AuditBackendPostgres:
		if a.cfg.Postgres == nil {
			return nil, fmt.Errorf("audit backend postgres: %w", config.ErrNotConfigured)
		}
		return audit.OpenSQLRecorder(ctx, "pgx", a.cfg.Postgres.ConnectionString(),
			a.cfg.AuditTable, a.logger.Named("audit"))
	default:
		return audit.NewFileRecorder(a.cfg.AuditLogPath)
	}
}

// cleaningParams applies --threshold and --fill over the configured defaults
func (a *app) cleaningParams(cmd *cobra.Command, threshold float64, fill string) (model.CleaningParameters, error) {
	params := a.cfg.CleaningParameters()
	if cmd.Flags().Changed("threshold") {
		params.MissingColumnThreshold = threshold
	}
	if cmd.Flags().Changed("fill") {
		params.FillValue = fill
	}
	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}

// sourceFlags selects where a dataset is read from
type sourceFlags struct {
	file    string
	pgTable string
	sfTable string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.file, "file", "f", "", "CSV or TSV file to read")
	cmd.Flags().StringVar(&s.pgTable, "pg-table", "", "PostgreSQL table to read (schema.table)")
	cmd.Flags().StringVar(&s.sfTable, "sf-table", "", "Snowflake table to read (schema.table)")
}

var errNoSource = errors.New("exactly one of --file, --pg-table or --sf-table is required")

// loadDataset reads the dataset named by src
func (a *app) loadDataset(ctx context.Context, src sourceFlags) (*model.Dataset, error) {
	set := 0
	for _, v := range []string{src.file, src.pgTable, src.sfTable} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, errNoSource
	}

	switch {
	case src.file != "":
		return a.newConverter().ReadCSVFile(src.file)
	case src.pgTable != "":
		schema, table, err := connector.SplitTableName(src.pgTable)
		if err != nil {
			return nil, err
		}
		pg, err := a.newFactory().CreatePostgresConnector(ctx)
		if err != nil {
			return nil, err
		}
		defer pg.Close()
		return loadFrom(ctx, pg, schema, table)
	default:
		schema, table, err := connector.SplitTableName(src.sfTable)
		if err != nil {
			return nil, err
		}
		sf, err := a.newFactory().CreateSnowflakeConnector(ctx)
		if err != nil {
			return nil, err
		}
		defer sf.Close()
		return loadFrom(ctx, sf, schema, table)
	}
}

func loadFrom(ctx context.Context, src connector.DatasetSource, schema, table string) (*model.Dataset, error) {
	return src.LoadTable(ctx, schema, table)
}

// exportDataset writes ds to a PostgreSQL table named schema.table and returns
// the rows inserted and the rows the table holds afterwards
func (a *app) exportDataset(ctx context.Context, target string, ds *model.Dataset) (int64, int64, error) {
	schema, table, err := connector.SplitTableName(target)
	if err != nil {
		return 0, 0, err
	}
	pg, err := a.newFactory().CreatePostgresConnector(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer pg.Close()

	if err := pg.Validate(ctx); err != nil {
		return 0, 0, err
	}
	inserted, err := pg.ExportDataset(ctx, schema, table, ds)
	if err != nil {
		return inserted, 0, err
	}

	total, err := pg.CountRows(ctx, schema, table)
	if err != nil {
		return inserted, 0, err
	}
	if total < inserted {
		return inserted, total, fmt.Errorf("row count mismatch in %s: inserted %d, table has %d", target, inserted, total)
	}
	return inserted, total, nil
}

// pkg/connector/postgres.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/data-clarity/pkg/config"
	"github.com/David-Botos/data-clarity/pkg/converter"
	"github.com/David-Botos/data-clarity/pkg/model"
)

// PostgresConnector implements the DatabaseConnector interface for PostgreSQL
type PostgresConnector struct {
	db     *sql.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
	conv   *converter.Converter
}

// NewPostgresConnector creates and initializes a new PostgreSQL connector.
// A nil converter uses the default null markers.
func NewPostgresConnector(ctx context.Context, cfg *config.PostgresConfig, conv *converter.Converter) (*PostgresConnector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgres: %w", config.ErrNotConfigured)
	}
	logger := zap.L().Named("postgres-connector")
	if conv == nil {
		conv = converter.NewConverter(logger)
	}

	// Log connection attempt
	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	// Open database connection
	db, err := sql.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	// Configure connection pool
	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Verify connection
	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	connector := &PostgresConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
		conv:   conv,
	}

	LogConnectionStats(logger, cfg.Database, db)
	return connector, nil
}

// DB returns the underlying database connection
func (c *PostgresConnector) DB() *sql.DB {
	return c.db
}

// Validate verifies the PostgreSQL connection and that tables can be created
func (c *PostgresConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	c.logger.Info("Connected to PostgreSQL", zap.String("version", version))

	// Check permissions by creating a temp table
	_, err := c.ExecWithTimeout(ctx, `
		DO $$
		BEGIN
			CREATE TEMP TABLE _permission_check (id serial, test text);
			INSERT INTO _permission_check (test) VALUES ('test');
			DROP TABLE _permission_check;
		EXCEPTION WHEN OTHERS THEN
			RAISE EXCEPTION 'Permission check failed: %', SQLERRM;
		END $$;
	`, c.cfg.StatementTimeout)
	if err != nil {
		return fmt.Errorf("permission validation failed: %w", err)
	}

	c.logger.Info("PostgreSQL connection validated",
		zap.String("database", c.cfg.Database),
		zap.String("host", c.cfg.Host),
		zap.Int("port", c.cfg.Port))

	return nil
}

// Close closes the database connection
func (c *PostgresConnector) Close() error {
	c.logger.Info("Closing PostgreSQL connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db)
	return c.db.Close()
}

// ExecWithTimeout executes a statement with a timeout
func (c *PostgresConnector) ExecWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	args ...interface{},
) (sql.Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return c.db.ExecContext(ctx, query, args...)
}

// LoadTable reads schema.table into a dataset
func (c *PostgresConnector) LoadTable(ctx context.Context, schema, table string) (*model.Dataset, error) {
	fullTableName := qualifiedName(schema, table)
	ds, err := QueryDataset(ctx, c.db, c.conv, c.cfg.StatementTimeout, "SELECT * FROM "+fullTableName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", fullTableName, err)
	}

	c.logger.Info("Loaded table",
		zap.String("table", fullTableName),
		zap.Int("rows", ds.RowCount()),
		zap.Int("columns", ds.ColumnCount()))
	return ds, nil
}

// ExportDataset creates schema.table with one TEXT column per dataset column if
// needed and inserts every row. Missing cells become NULL.
func (c *PostgresConnector) ExportDataset(ctx context.Context, schema, table string, ds *model.Dataset) (int64, error) {
	if err := ds.Validate(); err != nil {
		return 0, err
	}

	if err := c.CreateTableIfNotExists(ctx, schema, table, converter.ColumnDefinitions(ds)); err != nil {
		return 0, err
	}

	inserted, err := c.BatchInsert(ctx, schema, table, ds.ColumnNames(), datasetValues(ds), 1000)
	if err != nil {
		return inserted, err
	}

	c.logger.Info("Exported dataset",
		zap.String("table", qualifiedName(schema, table)),
		zap.Int64("rows", inserted))
	return inserted, nil
}

// BatchInsert performs a bulk insert into a table
func (c *PostgresConnector) BatchInsert(
	ctx context.Context,
	schema string,
	table string,
	columns []string,
	valueRows [][]interface{},
	batchSize int,
) (int64, error) {
	if len(valueRows) == 0 || len(columns) == 0 {
		return 0, nil
	}

	if batchSize <= 0 {
		batchSize = 1000
	}
	// PostgreSQL accepts at most 65535 bind parameters per statement
	if maxRows := 65535 / len(columns); batchSize > maxRows {
		batchSize = maxRows
	}

	var totalRowsInserted int64

	// Process in batches
	for i := 0; i < len(valueRows); i += batchSize {
		end := i + batchSize
		if end > len(valueRows) {
			end = len(valueRows)
		}

		currentBatch := valueRows[i:end]
		query := buildInsertQuery(qualifiedName(schema, table), columns, len(currentBatch))

		args := make([]interface{}, 0, len(currentBatch)*len(columns))
		for _, row := range currentBatch {
			args = append(args, row...)
		}

		// Execute with timeout
		result, err := c.ExecWithTimeout(ctx, query, 30*time.Second, args...)
		if err != nil {
			return totalRowsInserted, fmt.Errorf("batch insert failed: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			c.logger.Warn("Couldn't get rows affected", zap.Error(err))
		} else {
			totalRowsInserted += rowsAffected
		}
	}

	return totalRowsInserted, nil
}

// CreateTableIfNotExists creates a table with the given column definitions if it doesn't exist
func (c *PostgresConnector) CreateTableIfNotExists(
	ctx context.Context,
	schema string,
	table string,
	columnDefs []string,
) error {
	fullTableName := qualifiedName(schema, table)

	if schema != "" {
		if _, err := c.ExecWithTimeout(ctx, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(schema), 30*time.Second); err != nil {
			return fmt.Errorf("failed to create schema %s: %w", schema, err)
		}
	}

	// Execute CREATE TABLE
	if _, err := c.ExecWithTimeout(ctx, buildCreateTableQuery(fullTableName, columnDefs), 30*time.Second); err != nil {
		return fmt.Errorf("failed to create table %s: %w", fullTableName, err)
	}

	c.logger.Debug("Table ready", zap.String("table", fullTableName))
	return nil
}

// CountRows returns the number of rows in schema.table
func (c *PostgresConnector) CountRows(ctx context.Context, schema, table string) (int64, error) {
	countCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	var count int64
	err := c.db.QueryRowContext(countCtx, "SELECT COUNT(*) FROM "+qualifiedName(schema, table)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", qualifiedName(schema, table), err)
	}
	return count, nil
}

// qualifiedName quotes schema and table; an empty schema uses the search path
func qualifiedName(schema, table string) string {
	if schema == "" {
		return pq.QuoteIdentifier(table)
	}
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}

func buildCreateTableQuery(fullTableName string, columnDefs []string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		fullTableName, strings.Join(columnDefs, ",\n\t"))
}

// buildInsertQuery builds a multi-row INSERT with $n placeholders
func buildInsertQuery(fullTableName string, columns []string, rowCount int) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pq.QuoteIdentifier(col)
	}

	placeholders := make([]string, rowCount)
	rowPlaceholders := make([]string, len(columns))
	for j := 0; j < rowCount; j++ {
		for k := range columns {
			rowPlaceholders[k] = fmt.Sprintf("$%d", j*len(columns)+k+1)
		}
		placeholders[j] = "(" + strings.Join(rowPlaceholders, ", ") + ")"
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		fullTableName, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}

// datasetValues converts rows to driver values; missing cells become nil
func datasetValues(ds *model.Dataset) [][]interface{} {
	out := make([][]interface{}, ds.RowCount())
	for r := range out {
		row := make([]interface{}, ds.ColumnCount())
		for c, col := range ds.Columns {
			if cell := col.Cells[r]; !cell.IsMissing() {
				row[c] = cell.Value
			}
		}
		out[r] = row
	}
	return out
}

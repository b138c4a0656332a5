// pkg/audit/sql.go
package audit

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// DefaultTable is the audit table used when none is configured
const DefaultTable = "data_clarity_audit"

// timestamps are stored as fixed-width UTC text so they sort the same way on every backend
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// row is the database shape of an Entry
type row struct {
	ID          string  `db:"id"`
	RecordedAt  string  `db:"recorded_at"`
	SessionID   string  `db:"session_id"`
	Instruction string  `db:"instruction"`
	Status      string  `db:"status"`
	ActionID    string  `db:"action_id"`
	Confidence  float64 `db:"confidence"`
	Description string  `db:"description"`
}

func toRow(e Entry) row {
	return row{
		ID:          e.ID,
		RecordedAt:  e.Timestamp.UTC().Format(timeLayout),
		SessionID:   e.SessionID,
		Instruction: e.Instruction,
		Status:      e.Status,
		ActionID:    e.ActionID,
		Confidence:  e.Confidence,
		Description: e.Description,
	}
}

func (r row) entry() (Entry, error) {
	ts, err := time.Parse(timeLayout, r.RecordedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid timestamp %q for entry %s: %w", r.RecordedAt, r.ID, err)
	}
	return Entry{
		ID:          r.ID,
		Timestamp:   ts,
		SessionID:   r.SessionID,
		Instruction: r.Instruction,
		Status:      r.Status,
		ActionID:    r.ActionID,
		Confidence:  r.Confidence,
		Description: r.Description,
	}, nil
}

// SQLRecorder stores entries in a database table
type SQLRecorder struct {
	db     *sqlx.DB
	table  string
	ownsDB bool
	logger *zap.Logger
}

// NewSQLRecorder records into table on an existing connection. Close leaves db open.
func NewSQLRecorder(db *sqlx.DB, table string, logger *zap.Logger) *SQLRecorder {
	if table == "" {
		table = DefaultTable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLRecorder{db: db, table: table, logger: logger}
}

// OpenSQLRecorder connects with driverName and dsn and creates the audit table.
// The recorder owns the connection.
func OpenSQLRecorder(ctx context.Context, driverName, dsn, table string, logger *zap.Logger) (*SQLRecorder, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	r := NewSQLRecorder(db, table, logger)
	r.ownsDB = true
	if err := r.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// EnsureSchema creates the audit table if it does not exist
func (r *SQLRecorder) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		recorded_at TEXT NOT NULL,
		session_id TEXT NOT NULL,
		instruction TEXT NOT NULL,
		status TEXT NOT NULL,
		action_id TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		description TEXT NOT NULL
	)`, pq.QuoteIdentifier(r.table))

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create audit table %s: %w", r.table, err)
	}

	r.logger.Debug("Audit table ready", zap.String("table", r.table))
	return nil
}

// Record inserts e
func (r *SQLRecorder) Record(ctx context.Context, e Entry) error {
	e = fill(e)

	query := fmt.Sprintf(`INSERT INTO %s
		(id, recorded_at, session_id, instruction, status, action_id, confidence, description)
		VALUES (:id, :recorded_at, :session_id, :instruction, :status, :action_id, :confidence, :description)`,
		pq.QuoteIdentifier(r.table))

	if _, err := r.db.NamedExecContext(ctx, query, toRow(e)); err != nil {
		return fmt.Errorf("failed to record audit entry %s: %w", e.ID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (r *SQLRecorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := r.db.Rebind(fmt.Sprintf(`SELECT id, recorded_at, session_id, instruction, status,
		action_id, confidence, description
		FROM %s ORDER BY recorded_at DESC, id DESC LIMIT ?`, pq.QuoteIdentifier(r.table)))

	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, rw := range rows {
		e, err := rw.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Close closes the connection if the recorder opened it
func (r *SQLRecorder) Close() error {
	if !r.ownsDB {
		return nil
	}
	return r.db.Close()
}

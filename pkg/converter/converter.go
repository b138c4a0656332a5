// pkg/converter/converter.go
package converter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/data-clarity/pkg/model"
)

// ErrEmptyInput is returned when a CSV has no header row
var ErrEmptyInput = errors.New("CSV input has no header row")

// Converter reads and writes datasets and converts driver values to cells
type Converter struct {
	logger *zap.Logger
	// Configuration options
	config Config
}

// Config provides configuration options for conversion
type Config struct {
	// Values that are read as missing cells
	NullMarkers []string
	// Whether to trim surrounding whitespace from values (headers are kept verbatim)
	TrimSpace bool
	// Field delimiter; zero means comma
	Delimiter rune
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		NullMarkers: []string{
			"", "null", "NULL", "nil", "NIL",
			"NA", "N/A", "n/a", "NaN", "nan", "None", "<NA>",
		},
		TrimSpace: false,
		Delimiter: ',',
	}
}

// NewConverter creates a new Converter with default configuration
func NewConverter(logger *zap.Logger) *Converter {
	return NewConverterWithConfig(logger, DefaultConfig())
}

// NewConverterWithConfig creates a Converter with custom configuration
func NewConverterWithConfig(logger *zap.Logger, config Config) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Delimiter == 0 {
		config.Delimiter = ','
	}
	return &Converter{
		logger: logger,
		config: config,
	}
}

// ReadCSV parses r into a dataset. The first record is the header. Rows shorter
// than the header are padded with missing cells; longer rows are an error.
func (c *Converter) ReadCSV(r io.Reader) (*model.Dataset, error) {
	reader := csv.NewReader(r)
	reader.Comma = c.config.Delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]model.Cell
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d has %d fields, header has %d", line, len(record), len(header))
		}

		row := make([]model.Cell, len(record))
		for i, raw := range record {
			row[i] = c.ParseValue(raw)
		}
		rows = append(rows, row)
	}

	ds, err := model.NewDataset(header, rows)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Read CSV",
		zap.Int("rows", ds.RowCount()),
		zap.Int("columns", ds.ColumnCount()),
		zap.Int("missing", ds.MissingCount()))
	return ds, nil
}

// ReadCSVFile reads a dataset from path. A .tsv extension switches to tab delimiters.
func (c *Converter) ReadCSVFile(path string) (*model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := c
	if DelimiterForPath(path) == '\t' && c.config.Delimiter != '\t' {
		cfg := c.config
		cfg.Delimiter = '\t'
		reader = NewConverterWithConfig(c.logger, cfg)
	}

	ds, err := reader.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// WriteCSV writes ds with a header row. Missing cells are written as empty fields.
func (c *Converter) WriteCSV(w io.Writer, ds *model.Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	writer.Comma = c.config.Delimiter

	if err := writer.Write(ds.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, ds.ColumnCount())
	for r := 0; r < ds.RowCount(); r++ {
		for i, col := range ds.Columns {
			record[i] = col.Cells[r].Value
			if col.Cells[r].IsMissing() {
				record[i] = ""
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", r+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSVFile writes ds to path, replacing any existing file
func (c *Converter) WriteCSVFile(path string, ds *model.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}

	if err := c.WriteCSV(f, ds); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// DelimiterForPath picks the field delimiter from the file name
func DelimiterForPath(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// ColumnDefinitions creates PostgreSQL column definitions for ds. Every column is
// nullable TEXT since cells carry no type information.
func ColumnDefinitions(ds *model.Dataset) []string {
	definitions := make([]string, 0, ds.ColumnCount())
	for _, col := range ds.Columns {
		definitions = append(definitions, fmt.Sprintf("%s TEXT NULL", pq.QuoteIdentifier(col.Name)))
	}
	return definitions
}

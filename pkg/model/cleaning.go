// pkg/model/cleaning.go
package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// DefaultMissingColumnThreshold is the fraction of missing cells above which a column is dropped
	DefaultMissingColumnThreshold = 0.4
	// DefaultFillValue replaces missing cells
	DefaultFillValue = "Unknown"
)

// ErrInvalidThreshold is returned when the missing column threshold is outside [0,1]
var ErrInvalidThreshold = errors.New("missing column threshold must be between 0 and 1")

// CleaningParameters are supplied by the caller for each transformation
type CleaningParameters struct {
	MissingColumnThreshold float64 // Fraction, not a percentage
	FillValue              string  // Replacement for missing cells
}

// DefaultCleaningParameters returns threshold 0.4 and fill value "Unknown"
func DefaultCleaningParameters() CleaningParameters {
	return CleaningParameters{
		MissingColumnThreshold: DefaultMissingColumnThreshold,
		FillValue:              DefaultFillValue,
	}
}

// Validate rejects thresholds outside [0,1]
func (p CleaningParameters) Validate() error {
	if math.IsNaN(p.MissingColumnThreshold) ||
		p.MissingColumnThreshold < 0 || p.MissingColumnThreshold > 1 {
		return fmt.Errorf("got %v: %w", p.MissingColumnThreshold, ErrInvalidThreshold)
	}
	return nil
}

// CleaningOperation summarizes the effect of one applied action
type CleaningOperation struct {
	ActionID       string   // Catalog action that was applied
	RowsBefore     int      // Row count of the input
	RowsAfter      int      // Row count of the output
	ColumnsBefore  int      // Column count of the input
	ColumnsAfter   int      // Column count of the output
	CellsFilled    int      // Missing cells replaced by fill_missing
	RenamedColumns int      // Column names changed by standardize_columns
	DroppedColumns []string // Column names removed by drop_missing_columns
}

// RowsRemoved returns how many rows the operation removed
func (op CleaningOperation) RowsRemoved() int {
	return op.RowsBefore - op.RowsAfter
}

// ColumnsRemoved returns how many columns the operation removed
func (op CleaningOperation) ColumnsRemoved() int {
	return op.ColumnsBefore - op.ColumnsAfter
}

// ActionHistoryEntry is one successful transformation in a session
type ActionHistoryEntry struct {
	Description string    // Human-readable effect
	ActionID    string    // Action that produced it
	Instruction string    // Instruction as typed by the user
	AppliedAt   time.Time // When it was applied
}

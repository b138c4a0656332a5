// pkg/model/dataset.go
package model

import (
	"errors"
	"fmt"
)

// ErrRaggedDataset is returned when columns do not share the same row count
var ErrRaggedDataset = errors.New("columns have different row counts")

// Cell is a single table value. Valid is false when the value is missing.
type Cell struct {
	Value string
	Valid bool
}

// Str returns a present cell holding s
func Str(s string) Cell {
	return Cell{Value: s, Valid: true}
}

// Null returns a missing cell
func Null() Cell {
	return Cell{}
}

// IsMissing reports whether the cell has no value
func (c Cell) IsMissing() bool {
	return !c.Valid
}

// Column is a named, ordered sequence of cells
type Column struct {
	Name  string
	Cells []Cell
}

// Dataset is an in-memory table of named columns.
// All columns must hold the same number of cells.
type Dataset struct {
	Columns []Column
}

// NewDataset builds a dataset from column names and row-major cells.
// Rows shorter than the header are padded with missing cells.
func NewDataset(names []string, rows [][]Cell) (*Dataset, error) {
	ds := &Dataset{Columns: make([]Column, len(names))}
	for i, name := range names {
		ds.Columns[i] = Column{Name: name, Cells: make([]Cell, 0, len(rows))}
	}

	for r, row := range rows {
		if len(row) > len(names) {
			return nil, fmt.Errorf("row %d has %d values, header has %d", r, len(row), len(names))
		}
		for i := range ds.Columns {
			cell := Null()
			if i < len(row) {
				cell = row[i]
			}
			ds.Columns[i].Cells = append(ds.Columns[i].Cells, cell)
		}
	}

	return ds, nil
}

// RowCount returns the number of rows. A dataset without columns has no rows.
func (d *Dataset) RowCount() int {
	if d == nil || len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Cells)
}

// ColumnCount returns the number of columns
func (d *Dataset) ColumnCount() int {
	if d == nil {
		return 0
	}
	return len(d.Columns)
}

// ColumnNames returns the column names in order
func (d *Dataset) ColumnNames() []string {
	names := make([]string, d.ColumnCount())
	for i, col := range d.Columns {
		names[i] = col.Name
	}
	return names
}

// Row returns the cells of row i across all columns
func (d *Dataset) Row(i int) []Cell {
	row := make([]Cell, len(d.Columns))
	for c, col := range d.Columns {
		row[c] = col.Cells[i]
	}
	return row
}

// Validate checks the equal row count invariant
func (d *Dataset) Validate() error {
	if d == nil {
		return errors.New("dataset cannot be nil")
	}
	rows := d.RowCount()
	for _, col := range d.Columns {
		if len(col.Cells) != rows {
			return fmt.Errorf("column %q has %d rows, expected %d: %w",
				col.Name, len(col.Cells), rows, ErrRaggedDataset)
		}
	}
	return nil
}

// Clone returns a deep copy that shares no cell storage with d
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{Columns: make([]Column, len(d.Columns))}
	for i, col := range d.Columns {
		cells := make([]Cell, len(col.Cells))
		copy(cells, col.Cells)
		out.Columns[i] = Column{Name: col.Name, Cells: cells}
	}
	return out
}

// Equal reports whether both datasets have the same columns, names and cells
func (d *Dataset) Equal(other *Dataset) bool {
	if d.ColumnCount() != other.ColumnCount() {
		return false
	}
	for i, col := range d.Columns {
		oc := other.Columns[i]
		if col.Name != oc.Name || len(col.Cells) != len(oc.Cells) {
			return false
		}
		for r := range col.Cells {
			if col.Cells[r] != oc.Cells[r] {
				return false
			}
		}
	}
	return true
}

// MissingCount returns the number of missing cells across all columns
func (d *Dataset) MissingCount() int {
	total := 0
	for _, col := range d.Columns {
		total += col.MissingCount()
	}
	return total
}

// MissingCount returns the number of missing cells in the column
func (c Column) MissingCount() int {
	missing := 0
	for _, cell := range c.Cells {
		if cell.IsMissing() {
			missing++
		}
	}
	return missing
}

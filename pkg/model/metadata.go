// pkg/model/metadata.go
package model

import "strings"

// Profile describes the shape and missingness of a dataset
type Profile struct {
	Rows           int             // Row count
	Columns        []ColumnProfile // Per-column summary, in dataset order
	TotalMissing   int             // Missing cells across the table
	MissingPercent float64         // TotalMissing as a percentage of all cells
}

// ColumnProfile represents missingness of a single column
type ColumnProfile struct {
	Name       string
	Missing    int
	NonMissing int
}

// NewProfile computes the profile of ds. A table with no cells reports 0% missing.
func NewProfile(ds *Dataset) Profile {
	p := Profile{
		Rows:    ds.RowCount(),
		Columns: make([]ColumnProfile, 0, ds.ColumnCount()),
	}

	for _, col := range ds.Columns {
		missing := col.MissingCount()
		p.Columns = append(p.Columns, ColumnProfile{
			Name:       col.Name,
			Missing:    missing,
			NonMissing: len(col.Cells) - missing,
		})
		p.TotalMissing += missing
	}

	totalCells := p.Rows * len(p.Columns)
	if totalCells > 0 {
		p.MissingPercent = float64(p.TotalMissing) / float64(totalCells) * 100
	}

	return p
}

// ColumnNames returns the profiled column names
func (p Profile) ColumnNames() []string {
	names := make([]string, len(p.Columns))
	for i, col := range p.Columns {
		names[i] = col.Name
	}
	return names
}

// ColumnsWithMissing returns only the columns that have at least one missing cell
func (p Profile) ColumnsWithMissing() []ColumnProfile {
	var out []ColumnProfile
	for _, col := range p.Columns {
		if col.Missing > 0 {
			out = append(out, col)
		}
	}
	return out
}

// GetColumnByName returns a column profile by name (case-insensitive, surrounding space ignored)
// Returns nil if column not found
func (p *Profile) GetColumnByName(name string) *ColumnProfile {
	normalizedName := normalizeColumnName(name)
	for i, col := range p.Columns {
		if normalizeColumnName(col.Name) == normalizedName {
			return &p.Columns[i]
		}
	}
	return nil
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

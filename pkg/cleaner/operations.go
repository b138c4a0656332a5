// pkg/cleaner/operations.go
package cleaner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/David-Botos/data-clarity/pkg/model"
)

// removeMissingRows drops every row that has at least one missing cell
func removeMissingRows(
	ds *model.Dataset,
	_ model.CleaningParameters,
	_ *model.CleaningOperation,
) (*model.Dataset, string) {
	keep := make([]int, 0, ds.RowCount())
	for r := 0; r < ds.RowCount(); r++ {
		if !rowHasMissing(ds, r) {
			keep = append(keep, r)
		}
	}

	return selectRows(ds, keep), "Removed rows with missing values"
}

// thresholdEpsilon absorbs the rounding in (1 - threshold) * rowCount so a column
// sitting exactly on the threshold is kept
const thresholdEpsilon = 1e-9

// dropMissingColumns keeps a column only if its non-missing count is at least
// (1 - threshold) * rowCount
func dropMissingColumns(
	ds *model.Dataset,
	params model.CleaningParameters,
	op *model.CleaningOperation,
) (*model.Dataset, string) {
	required := (1 - params.MissingColumnThreshold) * float64(ds.RowCount())

	out := &model.Dataset{Columns: make([]model.Column, 0, ds.ColumnCount())}
	for _, col := range ds.Columns {
		nonMissing := len(col.Cells) - col.MissingCount()
		if float64(nonMissing) < required-thresholdEpsilon {
			op.DroppedColumns = append(op.DroppedColumns, col.Name)
			continue
		}
		out.Columns = append(out.Columns, copyColumn(col))
	}

	description := fmt.Sprintf("Dropped columns with more than %.0f%% missing values",
		params.MissingColumnThreshold*100)
	return out, description
}

// removeDuplicates keeps the first occurrence of every distinct row, preserving order.
// Two missing cells compare equal.
func removeDuplicates(
	ds *model.Dataset,
	_ model.CleaningParameters,
	_ *model.CleaningOperation,
) (*model.Dataset, string) {
	seen := make(map[string]struct{}, ds.RowCount())
	keep := make([]int, 0, ds.RowCount())
	for r := 0; r < ds.RowCount(); r++ {
		key := rowKey(ds, r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, r)
	}

	return selectRows(ds, keep), "Removed duplicate rows"
}

// fillMissing replaces every missing cell with the fill value
func fillMissing(
	ds *model.Dataset,
	params model.CleaningParameters,
	op *model.CleaningOperation,
) (*model.Dataset, string) {
	out := ds.Clone()
	for c := range out.Columns {
		cells := out.Columns[c].Cells
		for r := range cells {
			if cells[r].IsMissing() {
				cells[r] = model.Str(params.FillValue)
				op.CellsFilled++
			}
		}
	}

	return out, fmt.Sprintf("Filled missing values with '%s'", params.FillValue)
}

// standardizeColumns trims, lower-cases and snake-cases every column name
func standardizeColumns(
	ds *model.Dataset,
	_ model.CleaningParameters,
	op *model.CleaningOperation,
) (*model.Dataset, string) {
	out := ds.Clone()
	for c := range out.Columns {
		name := StandardizeName(out.Columns[c].Name)
		if name != out.Columns[c].Name {
			op.RenamedColumns++
		}
		out.Columns[c].Name = name
	}

	return out, "Standardized column names"
}

// StandardizeName converts " Emp ID " to "emp_id"
func StandardizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Helper functions

func rowHasMissing(ds *model.Dataset, r int) bool {
	for _, col := range ds.Columns {
		if col.Cells[r].IsMissing() {
			return true
		}
	}
	return false
}

// rowKey encodes a row so that distinct rows never share a key
func rowKey(ds *model.Dataset, r int) string {
	var sb strings.Builder
	for _, col := range ds.Columns {
		cell := col.Cells[r]
		if cell.IsMissing() {
			sb.WriteString("-;")
			continue
		}
		sb.WriteString(strconv.Itoa(len(cell.Value)))
		sb.WriteByte(':')
		sb.WriteString(cell.Value)
		sb.WriteByte(';')
	}
	return sb.String()
}

// selectRows copies the given rows, in order, into a new dataset
func selectRows(ds *model.Dataset, rows []int) *model.Dataset {
	out := &model.Dataset{Columns: make([]model.Column, len(ds.Columns))}
	for c, col := range ds.Columns {
		cells := make([]model.Cell, len(rows))
		for i, r := range rows {
			cells[i] = col.Cells[r]
		}
		out.Columns[c] = model.Column{Name: col.Name, Cells: cells}
	}
	return out
}

func copyColumn(col model.Column) model.Column {
	cells := make([]model.Cell, len(col.Cells))
	copy(cells, col.Cells)
	return model.Column{Name: col.Name, Cells: cells}
}

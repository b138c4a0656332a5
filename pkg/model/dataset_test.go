package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatasetPadsShortRows(t *testing.T) {
	ds, err := NewDataset([]string{"a", "b"}, [][]Cell{
		{Str("1"), Str("x")},
		{Str("2")},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, ds.RowCount())
	assert.Equal(t, []Cell{Str("2"), Null()}, ds.Row(1))
	assert.NoError(t, ds.Validate())
}

func TestNewDatasetRejectsLongRows(t *testing.T) {
	_, err := NewDataset([]string{"a"}, [][]Cell{{Str("1"), Str("2")}})
	assert.Error(t, err)
}

func TestValidateRaggedColumns(t *testing.T) {
	ds := &Dataset{Columns: []Column{
		{Name: "a", Cells: []Cell{Str("1"), Str("2")}},
		{Name: "b", Cells: []Cell{Str("1")}},
	}}

	err := ds.Validate()
	assert.ErrorIs(t, err, ErrRaggedDataset)
}

func TestCloneSharesNoStorage(t *testing.T) {
	ds, err := NewDataset([]string{"a"}, [][]Cell{{Str("1")}})
	require.NoError(t, err)

	clone := ds.Clone()
	clone.Columns[0].Cells[0] = Null()
	clone.Columns[0].Name = "renamed"

	assert.Equal(t, Str("1"), ds.Columns[0].Cells[0])
	assert.Equal(t, "a", ds.Columns[0].Name)
	assert.False(t, ds.Equal(clone))
}

func TestEmptyDataset(t *testing.T) {
	ds := &Dataset{}

	assert.Equal(t, 0, ds.RowCount())
	assert.Equal(t, 0, ds.MissingCount())
	assert.Empty(t, ds.ColumnNames())
	assert.True(t, ds.Equal(&Dataset{}))
}

func TestNewProfile(t *testing.T) {
	ds, err := NewDataset([]string{"id", "Dept"}, [][]Cell{
		{Str("1"), Str("HR")},
		{Str("2"), Null()},
		{Null(), Null()},
		{Str("4"), Str("IT")},
	})
	require.NoError(t, err)

	p := NewProfile(ds)
	assert.Equal(t, 4, p.Rows)
	assert.Equal(t, 3, p.TotalMissing)
	assert.InDelta(t, 37.5, p.MissingPercent, 1e-9)
	assert.Equal(t, []string{"id", "Dept"}, p.ColumnNames())
	assert.Len(t, p.ColumnsWithMissing(), 2)

	col := p.GetColumnByName(" dept ")
	require.NotNil(t, col)
	assert.Equal(t, 2, col.Missing)
	assert.Equal(t, 2, col.NonMissing)
	assert.Nil(t, p.GetColumnByName("salary"))
}

func TestNewProfileWithoutCells(t *testing.T) {
	tests := []struct {
		name string
		ds   *Dataset
	}{
		{name: "no columns", ds: &Dataset{}},
		{name: "no rows", ds: &Dataset{Columns: []Column{{Name: "a"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProfile(tt.ds)
			assert.Equal(t, 0.0, p.MissingPercent)
			assert.Equal(t, 0, p.TotalMissing)
		})
	}
}

func TestCleaningParametersValidate(t *testing.T) {
	tests := []struct {
		threshold float64
		wantErr   bool
	}{
		{0, false},
		{0.4, false},
		{1, false},
		{-0.1, true},
		{1.5, true},
	}

	for _, tt := range tests {
		p := CleaningParameters{MissingColumnThreshold: tt.threshold, FillValue: "x"}
		err := p.Validate()
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidThreshold, "threshold %v", tt.threshold)
		} else {
			assert.NoError(t, err, "threshold %v", tt.threshold)
		}
	}
}

func TestCleaningOperationCounts(t *testing.T) {
	op := CleaningOperation{RowsBefore: 5, RowsAfter: 3, ColumnsBefore: 4, ColumnsAfter: 4}
	assert.Equal(t, 2, op.RowsRemoved())
	assert.Equal(t, 0, op.ColumnsRemoved())
}

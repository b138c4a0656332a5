package converter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/data-clarity/pkg/model"
)

func TestReadCSV(t *testing.T) {
	input := "\ufeff Emp ID ,Full Name,dept\n1,Ana,HR\n2,Ben,\n3,NA,N/A\n4,Di\n"

	ds, err := NewConverter(nil).ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{" Emp ID ", "Full Name", "dept"}, ds.ColumnNames())
	assert.Equal(t, 4, ds.RowCount())
	assert.Equal(t, []model.Cell{model.Str("1"), model.Str("Ana"), model.Str("HR")}, ds.Row(0))
	assert.True(t, ds.Columns[2].Cells[1].IsMissing())
	assert.True(t, ds.Columns[1].Cells[2].IsMissing())
	assert.True(t, ds.Columns[2].Cells[3].IsMissing(), "short rows are padded")
	assert.Equal(t, 4, ds.MissingCount())
}

func TestReadCSVErrors(t *testing.T) {
	c := NewConverter(nil)

	_, err := c.ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = c.ReadCSV(strings.NewReader("a,b\n1,2,3\n"))
	assert.ErrorContains(t, err, "line 2 has 3 fields")

	_, err = c.ReadCSV(strings.NewReader("a,b\n\"unterminated,2\n"))
	assert.Error(t, err)
}

func TestReadCSVHeaderOnly(t *testing.T) {
	ds, err := NewConverter(nil).ReadCSV(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.ColumnNames())
	assert.Equal(t, 0, ds.RowCount())
}

func TestTrimSpaceAndCustomMarkers(t *testing.T) {
	cfg := Config{NullMarkers: []string{"-"}, TrimSpace: true}
	ds, err := NewConverterWithConfig(nil, cfg).ReadCSV(strings.NewReader("a,b\n  x , - \n,y\n"))
	require.NoError(t, err)

	assert.Equal(t, model.Str("x"), ds.Columns[0].Cells[0])
	assert.True(t, ds.Columns[1].Cells[0].IsMissing())
	assert.Equal(t, model.Str(""), ds.Columns[0].Cells[1], "empty string is a value without the marker")
}

func TestWriteCSVRoundTrip(t *testing.T) {
	ds, err := model.NewDataset([]string{"id", "note"}, [][]model.Cell{
		{model.Str("1"), model.Str("has, comma")},
		{model.Str("2"), model.Null()},
		{model.Str("3"), model.Str("quote \" inside")},
	})
	require.NoError(t, err)

	c := NewConverter(nil)
	var buf bytes.Buffer
	require.NoError(t, c.WriteCSV(&buf, ds))
	assert.Equal(t, "id,note\n1,\"has, comma\"\n2,\n3,\"quote \"\" inside\"\n", buf.String())

	back, err := c.ReadCSV(&buf)
	require.NoError(t, err)
	assert.True(t, ds.Equal(back))
}

func TestWriteCSVRejectsRaggedDataset(t *testing.T) {
	ds := &model.Dataset{Columns: []model.Column{
		{Name: "a", Cells: []model.Cell{model.Null()}},
		{Name: "b"},
	}}
	assert.ErrorIs(t, NewConverter(nil).WriteCSV(&bytes.Buffer{}, ds), model.ErrRaggedDataset)
}

func TestCSVFiles(t *testing.T) {
	dir := t.TempDir()
	tsv := filepath.Join(dir, "in.tsv")
	require.NoError(t, os.WriteFile(tsv, []byte("a\tb\n1\t\n"), 0o644))

	c := NewConverter(nil)
	ds, err := c.ReadCSVFile(tsv)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.ColumnNames())
	assert.True(t, ds.Columns[1].Cells[0].IsMissing())

	out := filepath.Join(dir, "out.csv")
	require.NoError(t, c.WriteCSVFile(out, ds))
	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\n", string(written))

	_, err = c.ReadCSVFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestDelimiterForPath(t *testing.T) {
	assert.Equal(t, '\t', DelimiterForPath("DATA.TSV"))
	assert.Equal(t, ',', DelimiterForPath("data.csv"))
	assert.Equal(t, ',', DelimiterForPath("data"))
}

type label string

func (l label) String() string { return "label:" + string(l) }

func TestToCell(t *testing.T) {
	c := NewConverter(nil)
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		value interface{}
		want  model.Cell
	}{
		{"nil", nil, model.Null()},
		{"null marker", "NULL", model.Null()},
		{"empty string", "", model.Null()},
		{"string", "Ana", model.Str("Ana")},
		{"bytes", []byte("HR"), model.Str("HR")},
		{"nil bytes", []byte(nil), model.Null()},
		{"int64", int64(42), model.Str("42")},
		{"int32", int32(-7), model.Str("-7")},
		{"float64", 3.5, model.Str("3.5")},
		{"float32", float32(0.25), model.Str("0.25")},
		{"bool", true, model.Str("true")},
		{"time", ts, model.Str("2024-01-02T03:04:05Z")},
		{"stringer", label("x"), model.Str("label:x")},
		{"map", map[string]int{"a": 1}, model.Str(`{"a":1}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ToCell(tt.value))
		})
	}
}

func TestColumnDefinitions(t *testing.T) {
	ds, err := model.NewDataset([]string{"emp_id", "Full \"Name\""}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		`"emp_id" TEXT NULL`,
		`"Full ""Name""" TEXT NULL`,
	}, ColumnDefinitions(ds))
}

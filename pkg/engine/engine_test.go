package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/David-Botos/data-clarity/pkg/catalog"
	"github.com/David-Botos/data-clarity/pkg/cleaner"
	"github.com/David-Botos/data-clarity/pkg/matcher"
	"github.com/David-Botos/data-clarity/pkg/model"
)

func newEngine(t *testing.T, c *catalog.Catalog, logger *zap.Logger) *Engine {
	t.Helper()
	dc, err := cleaner.NewDataCleaner(zap.NewNop())
	require.NoError(t, err)
	e, err := New(matcher.New(c), dc, logger)
	require.NoError(t, err)
	return e
}

func employees(t *testing.T) *model.Dataset {
	t.Helper()
	ds, err := model.NewDataset([]string{"id", "name", "dept"}, [][]model.Cell{
		{model.Str("1"), model.Str("Ana"), model.Str("HR")},
		{model.Str("2"), model.Str("Ben"), model.Str("IT")},
		{model.Str("3"), model.Str("Cy"), model.Null()},
		{model.Str("4"), model.Str("Di"), model.Str("Ops")},
		{model.Str("5"), model.Str("Ed"), model.Str("IT")},
	})
	require.NoError(t, err)
	return ds
}

func TestNewRejectsMissingCollaborators(t *testing.T) {
	dc, err := cleaner.NewDataCleaner(zap.NewNop())
	require.NoError(t, err)

	_, err = New(nil, dc, nil)
	assert.Error(t, err)
	_, err = New(matcher.New(catalog.Default()), nil, nil)
	assert.Error(t, err)
}

func TestProcessDropRowsWithMissing(t *testing.T) {
	e := newEngine(t, catalog.Default(), nil)
	ds := employees(t)
	before := ds.Clone()

	out := e.Process("drop rows with missing", ds, model.DefaultCleaningParameters())

	require.Equal(t, StatusApplied, out.Status)
	assert.Equal(t, catalog.RemoveMissingRows, out.ActionID)
	assert.Equal(t, "Removed rows with missing values", out.Description)
	assert.Equal(t, 4, out.Dataset.RowCount())
	assert.Equal(t, 0, out.Dataset.Columns[2].MissingCount())
	assert.Equal(t, 1, out.Operation.RowsRemoved())
	assert.Empty(t, out.Suggestions)
	assert.True(t, ds.Equal(before))
}

func TestProcessStandardizeHeaders(t *testing.T) {
	e := newEngine(t, catalog.Default(), nil)
	ds, err := model.NewDataset([]string{" Emp ID ", "Full Name"}, nil)
	require.NoError(t, err)

	out := e.Process("standardize headers", ds, model.DefaultCleaningParameters())

	require.Equal(t, StatusApplied, out.Status)
	assert.Equal(t, 100.0, out.Confidence)
	assert.Equal(t, []string{"emp_id", "full_name"}, out.Dataset.ColumnNames())
}

func TestProcessUnrecognized(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := newEngine(t, catalog.Default(), zap.New(core))

	for _, instruction := range []string{"", "qqqq"} {
		out := e.Process(instruction, employees(t), model.DefaultCleaningParameters())

		assert.Equal(t, StatusUnrecognized, out.Status)
		assert.Equal(t, AuditWarning, out.Status.AuditStatus())
		assert.Nil(t, out.Dataset)
		assert.Empty(t, out.ActionID)
		assert.NoError(t, out.Err)
		assert.Equal(t, []string{
			"Remove rows with missing values",
			"Drop columns with more than 40% missing values",
			"Remove duplicate rows",
			"Fill missing values with 'Unknown'",
			"Standardize column names",
		}, out.Suggestions)
	}

	entries := logs.FilterMessage("Instruction not recognized").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "qqqq", entries[1].ContextMap()["instruction"])
}

func TestProcessActionWithoutTransformation(t *testing.T) {
	c, err := catalog.New([]catalog.ActionDefinition{
		{ID: "translate", TriggerPhrases: []string{"translate to french"}},
	})
	require.NoError(t, err)
	core, logs := observer.New(zapcore.WarnLevel)
	e := newEngine(t, c, zap.New(core))

	warnings := logs.FilterMessage("Catalog action has no transformation").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "translate", warnings[0].ContextMap()["action"])

	out := e.Process("translate to french", employees(t), model.DefaultCleaningParameters())

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, AuditError, out.Status.AuditStatus())
	assert.ErrorIs(t, out.Err, cleaner.ErrUnknownAction)
	assert.Nil(t, out.Dataset)
}

func TestProcessRaggedDataset(t *testing.T) {
	e := newEngine(t, catalog.Default(), nil)
	ds := &model.Dataset{Columns: []model.Column{
		{Name: "a", Cells: []model.Cell{model.Null()}},
		{Name: "b"},
	}}

	out := e.Process("fill missing", ds, model.DefaultCleaningParameters())
	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorIs(t, out.Err, model.ErrRaggedDataset)
}

func TestStatusStrings(t *testing.T) {
	tests := []struct {
		status Status
		name   string
		audit  string
	}{
		{StatusApplied, "applied", AuditSuccess},
		{StatusUnrecognized, "unrecognized", AuditWarning},
		{StatusFailed, "failed", AuditError},
		{Status(9), "unknown(9)", AuditError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.status.String())
			assert.Equal(t, tt.audit, tt.status.AuditStatus())
		})
	}
	assert.True(t, StatusApplied.Changed())
	assert.False(t, StatusUnrecognized.Changed())
}

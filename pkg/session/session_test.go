package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/data-clarity/pkg/audit"
	"github.com/David-Botos/data-clarity/pkg/catalog"
	"github.com/David-Botos/data-clarity/pkg/cleaner"
	"github.com/David-Botos/data-clarity/pkg/engine"
	"github.com/David-Botos/data-clarity/pkg/matcher"
	"github.com/David-Botos/data-clarity/pkg/model"
)

// memoryRecorder keeps entries in memory
type memoryRecorder struct {
	entries []audit.Entry
	err     error
	closed  bool
}

func (r *memoryRecorder) Record(_ context.Context, e audit.Entry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *memoryRecorder) Close() error {
	r.closed = true
	return nil
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	dc, err := cleaner.NewDataCleaner(zap.NewNop())
	require.NoError(t, err)
	e, err := engine.New(matcher.New(catalog.Default()), dc, nil)
	require.NoError(t, err)
	return e
}

func messyDataset(t *testing.T) *model.Dataset {
	t.Helper()
	ds, err := model.NewDataset([]string{" Emp ID ", "Full Name", "Dept"}, [][]model.Cell{
		{model.Str("1"), model.Str("Ana"), model.Str("HR")},
		{model.Str("2"), model.Str("Ben"), model.Null()},
		{model.Str("1"), model.Str("Ana"), model.Str("HR")},
		{model.Str("3"), model.Null(), model.Null()},
	})
	require.NoError(t, err)
	return ds
}

func TestNewValidatesInput(t *testing.T) {
	_, err := New(nil, messyDataset(t))
	assert.Error(t, err)

	ragged := &model.Dataset{Columns: []model.Column{
		{Name: "a", Cells: []model.Cell{model.Null()}},
		{Name: "b"},
	}}
	_, err = New(newEngine(t), ragged)
	assert.ErrorIs(t, err, model.ErrRaggedDataset)
}

func TestSessionKeepsOwnCopy(t *testing.T) {
	ds := messyDataset(t)
	s, err := New(newEngine(t), ds)
	require.NoError(t, err)

	ds.Columns[0].Cells[0] = model.Str("changed")
	assert.Equal(t, model.Str("1"), s.Current().Columns[0].Cells[0])
	assert.Equal(t, model.Str("1"), s.Original().Columns[0].Cells[0])
}

func TestApplyBuildsHistory(t *testing.T) {
	rec := &memoryRecorder{}
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s, err := New(newEngine(t), messyDataset(t),
		WithRecorder(rec),
		WithClock(func() time.Time { return at }))
	require.NoError(t, err)
	ctx := context.Background()
	params := model.DefaultCleaningParameters()

	out, err := s.Apply(ctx, "remove duplicates", params)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusApplied, out.Status)
	assert.Equal(t, 3, s.Current().RowCount())

	out, err = s.Apply(ctx, "qqqq", params)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusUnrecognized, out.Status)
	assert.Equal(t, 3, s.Current().RowCount())

	_, err = s.Apply(ctx, "standardize headers", params)
	require.NoError(t, err)
	assert.Equal(t, []string{"emp_id", "full_name", "dept"}, s.Current().ColumnNames())

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, "Removed duplicate rows", history[0].Description)
	assert.Equal(t, catalog.RemoveDuplicates, history[0].ActionID)
	assert.Equal(t, "remove duplicates", history[0].Instruction)
	assert.Equal(t, at, history[0].AppliedAt)
	assert.Equal(t, "Standardized column names", history[1].Description)

	require.Len(t, rec.entries, 3)
	assert.Equal(t, []string{"success", "warning", "success"},
		[]string{rec.entries[0].Status, rec.entries[1].Status, rec.entries[2].Status})
	for _, e := range rec.entries {
		assert.Equal(t, s.ID, e.SessionID)
		assert.NotEmpty(t, e.ID)
	}
	assert.Equal(t, "qqqq", rec.entries[1].Instruction)
	assert.Empty(t, rec.entries[1].ActionID)
}

func TestApplyRejectsInvalidParameters(t *testing.T) {
	rec := &memoryRecorder{}
	s, err := New(newEngine(t), messyDataset(t), WithRecorder(rec))
	require.NoError(t, err)

	params := model.CleaningParameters{MissingColumnThreshold: 1.5, FillValue: "x"}
	_, err = s.Apply(context.Background(), "drop null columns", params)

	assert.ErrorIs(t, err, model.ErrInvalidThreshold)
	assert.Empty(t, rec.entries)
	assert.Empty(t, s.History())
}

func TestApplyReportsAuditFailure(t *testing.T) {
	rec := &memoryRecorder{err: errors.New("disk full")}
	s, err := New(newEngine(t), messyDataset(t), WithRecorder(rec))
	require.NoError(t, err)

	out, err := s.Apply(context.Background(), "fill missing", model.DefaultCleaningParameters())
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, engine.StatusApplied, out.Status)
	assert.Equal(t, 0, s.Current().MissingCount())
}

func TestResetRestoresOriginal(t *testing.T) {
	s, err := New(newEngine(t), messyDataset(t))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Apply(ctx, "remove rows with missing", model.DefaultCleaningParameters())
	require.NoError(t, err)
	require.Equal(t, 2, s.Current().RowCount())

	s.Reset()

	assert.True(t, s.Current().Equal(messyDataset(t)))
	assert.Empty(t, s.History())
	assert.Equal(t, 1, s.Metrics().Snapshot().Resets)

	// The restored dataset is independent of the original
	_, err = s.Apply(ctx, "fill missing", model.DefaultCleaningParameters())
	require.NoError(t, err)
	assert.Equal(t, 3, s.Original().MissingCount())
}

func TestOverview(t *testing.T) {
	s, err := New(newEngine(t), messyDataset(t))
	require.NoError(t, err)

	p := s.Overview()
	assert.Equal(t, 4, p.Rows)
	assert.Equal(t, 3, p.TotalMissing)
	assert.Equal(t, 25.0, p.MissingPercent)

	_, err = s.Apply(context.Background(), "fill missing", model.DefaultCleaningParameters())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Overview().TotalMissing)
}

func TestCloseClosesRecorder(t *testing.T) {
	rec := &memoryRecorder{}
	s, err := New(newEngine(t), messyDataset(t), WithRecorder(rec))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.True(t, rec.closed)
}

func TestMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(nil, reg)
	s, err := New(newEngine(t), messyDataset(t), WithMetrics(m))
	require.NoError(t, err)
	ctx := context.Background()
	params := model.DefaultCleaningParameters()

	for _, instruction := range []string{"remove duplicates", "fill missing", "qqqq", "xyz"} {
		_, err := s.Apply(ctx, instruction, params)
		require.NoError(t, err)
	}

	assert.Equal(t, 4, m.Processed())
	assert.Equal(t, 50.0, m.RecognitionRate())
	snap := m.Snapshot()
	assert.Equal(t, 1, snap.RowsRemoved)
	assert.Equal(t, 3, snap.CellsFilled)
	assert.Equal(t, map[string]int{catalog.RemoveDuplicates: 1, catalog.FillMissing: 1}, snap.Actions)
	assert.Equal(t, map[string]int{"applied": 2, "unrecognized": 2}, snap.Statuses)

	// The snapshot is a copy
	snap.Actions[catalog.FillMissing] = 99
	assert.Equal(t, 1, m.Snapshot().Actions[catalog.FillMissing])

	assert.Equal(t, 2.0, testutil.ToFloat64(m.instructionsTotal.WithLabelValues("unrecognized", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.instructionsTotal.WithLabelValues("applied", catalog.FillMissing)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rowsRemovedTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.cellsFilledTotal))

	count, err := testutil.GatherAndCount(reg, "data_clarity_instruction_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetricsReportAndJSON(t *testing.T) {
	s, err := New(newEngine(t), messyDataset(t))
	require.NoError(t, err)
	_, err = s.Apply(context.Background(), "remove duplicates", model.DefaultCleaningParameters())
	require.NoError(t, err)

	report := s.Report()
	assert.Contains(t, report, "Session Metrics Report")
	assert.Contains(t, report, "- remove_duplicates: 1")
	assert.Contains(t, report, "3 rows x 3 columns")
	assert.Contains(t, report, "Recognition Rate:        100.0%")

	raw, err := s.Metrics().ToJSON()
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 1.0, decoded["instructions"])
	assert.Equal(t, map[string]interface{}{"applied": 1.0}, decoded["statuses"])
}

func TestMetricsConcurrentReaders(t *testing.T) {
	m := NewMetrics(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.RecordOutcome(engine.Outcome{Status: engine.StatusApplied, ActionID: catalog.FillMissing}, time.Millisecond)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = m.Snapshot()
				_, _ = m.ToJSON()
			}
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Equal(t, 200, snap.Instructions)
	assert.Equal(t, 200, snap.Actions[catalog.FillMissing])
}

func TestMetricsEmpty(t *testing.T) {
	m := NewMetrics(nil, nil)
	assert.Equal(t, 0, m.Processed())
	assert.Equal(t, 0.0, m.RecognitionRate())
	assert.NotContains(t, m.Report(nil), "Current Shape")
}

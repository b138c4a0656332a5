// pkg/session/metrics.go
package session

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/David-Botos/data-clarity/pkg/engine"
	"github.com/David-Botos/data-clarity/pkg/model"
)

// Metrics tracks what a session has done
type Metrics struct {
	mu             sync.Mutex
	logger         *zap.Logger
	startTime      time.Time
	statusCounts   map[engine.Status]int
	actionCounts   map[string]int
	rowsRemoved    int
	columnsRemoved int
	cellsFilled    int
	columnsRenamed int
	resets         int
	totalDuration  time.Duration

	instructionsTotal *prometheus.CounterVec
	rowsRemovedTotal  prometheus.Counter
	cellsFilledTotal  prometheus.Counter
	resetsTotal       prometheus.Counter
	duration          prometheus.Histogram
}

// MetricsSnapshot is a point-in-time copy of the session totals
type MetricsSnapshot struct {
	Duration        string         `json:"duration"`
	Instructions    int            `json:"instructions"`
	Statuses        map[string]int `json:"statuses"`
	Actions         map[string]int `json:"actions"`
	RecognitionRate float64        `json:"recognitionRate"`
	RowsRemoved     int            `json:"rowsRemoved"`
	ColumnsRemoved  int            `json:"columnsRemoved"`
	CellsFilled     int            `json:"cellsFilled"`
	ColumnsRenamed  int            `json:"columnsRenamed"`
	Resets          int            `json:"resets"`
}

// NewMetrics creates session metrics. Collectors are registered on reg unless it is nil.
func NewMetrics(logger *zap.Logger, reg prometheus.Registerer) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	return &Metrics{
		logger:       logger,
		startTime:    time.Now(),
		statusCounts: make(map[engine.Status]int),
		actionCounts: make(map[string]int),

		instructionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "data_clarity_instructions_total",
			Help: "Instructions processed, by outcome status and action",
		}, []string{"status", "action"}),
		rowsRemovedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "data_clarity_rows_removed_total",
			Help: "Rows removed by cleaning actions",
		}),
		cellsFilledTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "data_clarity_cells_filled_total",
			Help: "Missing cells replaced by fill_missing",
		}),
		resetsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "data_clarity_session_resets_total",
			Help: "Session resets to the original dataset",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "data_clarity_instruction_duration_seconds",
			Help:    "Time to resolve and apply one instruction",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
}

// RecordOutcome adds one processed instruction
func (m *Metrics) RecordOutcome(out engine.Outcome, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.statusCounts[out.Status]++
	m.totalDuration += elapsed

	action := out.ActionID
	if action == "" {
		action = "none"
	}
	m.instructionsTotal.WithLabelValues(out.Status.String(), action).Inc()
	m.duration.Observe(elapsed.Seconds())

	if out.Status != engine.StatusApplied {
		return
	}

	op := out.Operation
	m.actionCounts[out.ActionID]++
	m.rowsRemoved += op.RowsRemoved()
	m.columnsRemoved += op.ColumnsRemoved()
	m.cellsFilled += op.CellsFilled
	m.columnsRenamed += op.RenamedColumns

	m.rowsRemovedTotal.Add(float64(op.RowsRemoved()))
	m.cellsFilledTotal.Add(float64(op.CellsFilled))
}

// RecordReset counts a reset to the original dataset
func (m *Metrics) RecordReset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resets++
	m.resetsTotal.Inc()
}

// Processed returns the number of instructions seen
func (m *Metrics) Processed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed()
}

func (m *Metrics) processed() int {
	total := 0
	for _, n := range m.statusCounts {
		total += n
	}
	return total
}

// RecognitionRate returns the percentage of instructions that matched an action
func (m *Metrics) RecognitionRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recognitionRate()
}

func (m *Metrics) recognitionRate() float64 {
	recognized := m.statusCounts[engine.StatusApplied] + m.statusCounts[engine.StatusFailed]
	return getPercentage(float64(recognized), float64(m.processed()))
}

// Report creates a text summary of the session
func (m *Metrics) Report(current *model.Dataset) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, `
Session Metrics Report
======================
Duration:                %s
Instructions:            %d
Applied:                 %d
Unrecognized:            %d
Failed:                  %d
Recognition Rate:        %.1f%%
Resets:                  %d

Data Summary
------------
Rows Removed:            %d
Columns Removed:         %d
Cells Filled:            %d
Columns Renamed:         %d
`,
		formatDuration(time.Since(m.startTime)),
		m.processed(),
		m.statusCounts[engine.StatusApplied],
		m.statusCounts[engine.StatusUnrecognized],
		m.statusCounts[engine.StatusFailed],
		m.recognitionRate(),
		m.resets,
		m.rowsRemoved,
		m.columnsRemoved,
		m.cellsFilled,
		m.columnsRenamed,
	)

	if current != nil {
		fmt.Fprintf(&sb, "Current Shape:           %d rows x %d columns\n",
			current.RowCount(), current.ColumnCount())
	}

	if len(m.actionCounts) > 0 {
		sb.WriteString("\nActions\n-------\n")
		for _, id := range sortedKeys(m.actionCounts) {
			fmt.Fprintf(&sb, "- %s: %d\n", id, m.actionCounts[id])
		}
	}

	return sb.String()
}

// Snapshot copies the current totals
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := make(map[string]int, len(m.statusCounts))
	for status, n := range m.statusCounts {
		statuses[status.String()] = n
	}
	actions := make(map[string]int, len(m.actionCounts))
	for id, n := range m.actionCounts {
		actions[id] = n
	}

	return MetricsSnapshot{
		Duration:        formatDuration(time.Since(m.startTime)),
		Instructions:    m.processed(),
		Statuses:        statuses,
		Actions:         actions,
		RecognitionRate: m.recognitionRate(),
		RowsRemoved:     m.rowsRemoved,
		ColumnsRemoved:  m.columnsRemoved,
		CellsFilled:     m.cellsFilled,
		ColumnsRenamed:  m.columnsRenamed,
		Resets:          m.resets,
	}
}

// ToJSON serializes a snapshot of the metrics
func (m *Metrics) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m.Snapshot(), "", "  ")
}

// LogSummary writes the totals to the logger
func (m *Metrics) LogSummary() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Session summary",
		zap.Duration("duration", time.Since(m.startTime)),
		zap.Int("instructions", m.processed()),
		zap.Int("applied", m.statusCounts[engine.StatusApplied]),
		zap.Int("unrecognized", m.statusCounts[engine.StatusUnrecognized]),
		zap.Int("failed", m.statusCounts[engine.StatusFailed]),
		zap.Int("rowsRemoved", m.rowsRemoved),
		zap.Int("cellsFilled", m.cellsFilled))
}

// getPercentage safely calculates a percentage, avoiding division by zero
func getPercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * 100
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

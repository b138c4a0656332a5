// pkg/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/David-Botos/data-clarity/pkg/audit"
	"github.com/David-Botos/data-clarity/pkg/engine"
	"github.com/David-Botos/data-clarity/pkg/model"
)

// Session holds the caller-owned state of one cleaning session: the dataset as
// loaded, the current dataset and the history of applied actions.
type Session struct {
	ID string

	mu       sync.Mutex
	engine   *engine.Engine
	recorder audit.Recorder
	metrics  *Metrics
	logger   *zap.Logger
	original *model.Dataset
	current  *model.Dataset
	history  []model.ActionHistoryEntry
	now      func() time.Time
}

// Option configures a Session
type Option func(*Session)

// WithRecorder sets where audit entries are written
func WithRecorder(r audit.Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithMetrics shares a metrics tracker with the session
func WithMetrics(m *Metrics) Option {
	return func(s *Session) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the session logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source for history entries
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// New starts a session on ds. The session keeps its own copy of ds.
func New(e *engine.Engine, ds *model.Dataset, opts ...Option) (*Session, error) {
	if e == nil {
		return nil, errors.New("engine cannot be nil")
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	s := &Session{
		ID:       uuid.NewString(),
		engine:   e,
		recorder: audit.NopRecorder{},
		logger:   zap.NewNop(),
		original: ds.Clone(),
		current:  ds.Clone(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(s.logger, nil)
	}
	s.logger = s.logger.With(zap.String("session", s.ID))

	s.logger.Info("Started session",
		zap.Int("rows", ds.RowCount()),
		zap.Int("columns", ds.ColumnCount()))
	return s, nil
}

// Apply processes one instruction against the current dataset. A recognized and
// applied action replaces the current dataset and extends the history. Every call
// with valid parameters is audited. The returned error is reserved for invalid
// parameters and audit failures; unrecognized and failed instructions are
// reported through the outcome status.
func (s *Session) Apply(ctx context.Context, instruction string, params model.CleaningParameters) (engine.Outcome, error) {
	if err := params.Validate(); err != nil {
		return engine.Outcome{}, fmt.Errorf("invalid cleaning parameters: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	out := s.engine.Process(instruction, s.current, params)
	s.metrics.RecordOutcome(out, time.Since(start))

	if out.Status.Changed() {
		s.current = out.Dataset
		s.history = append(s.history, model.ActionHistoryEntry{
			Description: out.Description,
			ActionID:    out.ActionID,
			Instruction: instruction,
			AppliedAt:   s.now(),
		})
	}

	entry := audit.NewEntry(s.ID, instruction, out.Status.AuditStatus())
	entry.ActionID = out.ActionID
	entry.Confidence = out.Confidence
	entry.Description = out.Description
	if err := s.recorder.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record audit entry", zap.Error(err))
		return out, fmt.Errorf("failed to record audit entry: %w", err)
	}

	return out, nil
}

// Reset restores the original dataset and clears the history
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = s.original.Clone()
	s.history = nil
	s.metrics.RecordReset()

	s.logger.Info("Reset session to original dataset")
}

// Current returns a copy of the current dataset
func (s *Session) Current() *model.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Original returns a copy of the dataset the session started with
func (s *Session) Original() *model.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.original.Clone()
}

// History returns the applied actions in order
func (s *Session) History() []model.ActionHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ActionHistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// Overview profiles the current dataset
func (s *Session) Overview() model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.NewProfile(s.current)
}

// Metrics returns the session metrics tracker
func (s *Session) Metrics() *Metrics {
	return s.metrics
}

// Report summarizes the session
func (s *Session) Report() string {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	return s.metrics.Report(current)
}

// Close flushes the metrics summary and closes the audit recorder
func (s *Session) Close() error {
	s.metrics.LogSummary()
	return s.recorder.Close()
}

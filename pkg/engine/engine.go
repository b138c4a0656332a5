// pkg/engine/engine.go
package engine

import (
	"errors"

	"go.uber.org/zap"

	"github.com/David-Botos/data-clarity/pkg/cleaner"
	"github.com/David-Botos/data-clarity/pkg/matcher"
	"github.com/David-Botos/data-clarity/pkg/model"
)

// Outcome is the result of processing one instruction against a dataset
type Outcome struct {
	Status      Status
	Instruction string
	ActionID    string
	Confidence  float64
	Dataset     *model.Dataset // Nil unless Status is StatusApplied
	Description string
	Suggestions []string // Set when Status is StatusUnrecognized
	Operation   model.CleaningOperation
	Err         error // Set when Status is StatusFailed
}

// Engine resolves an instruction and applies the matching action.
// It keeps no state between calls.
type Engine struct {
	matcher *matcher.Matcher
	cleaner *cleaner.DataCleaner
	logger  *zap.Logger
}

// New creates an Engine. A nil logger disables logging.
func New(m *matcher.Matcher, c *cleaner.DataCleaner, logger *zap.Logger) (*Engine, error) {
	if m == nil {
		return nil, errors.New("matcher cannot be nil")
	}
	if c == nil {
		return nil, errors.New("cleaner cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Such actions still resolve, and fail when applied
	for _, action := range m.Catalog().Actions() {
		if !c.Supports(action.ID) {
			logger.Warn("Catalog action has no transformation", zap.String("action", action.ID))
		}
	}

	return &Engine{matcher: m, cleaner: c, logger: logger}, nil
}

// Matcher returns the matcher the engine resolves instructions with
func (e *Engine) Matcher() *matcher.Matcher {
	return e.matcher
}

// Suggestions returns the example instructions offered when nothing matches
func (e *Engine) Suggestions() []string {
	return e.matcher.Catalog().Suggestions()
}

// Process resolves instruction and, when recognized, applies the action to ds.
// ds is never modified. An unrecognized instruction is reported through the
// outcome status rather than as a failure.
func (e *Engine) Process(instruction string, ds *model.Dataset, params model.CleaningParameters) Outcome {
	match := e.matcher.Resolve(instruction)
	out := Outcome{
		Instruction: instruction,
		ActionID:    match.ActionID,
		Confidence:  match.Confidence,
	}

	if !match.Matched() {
		out.Status = StatusUnrecognized
		out.Description = "Instruction not recognized"
		out.Suggestions = e.Suggestions()
		e.logger.Warn("Instruction not recognized",
			zap.String("instruction", instruction),
			zap.Float64("confidence", match.Confidence))
		return out
	}

	result, err := e.cleaner.Run(match.ActionID, ds, params)
	if err != nil {
		out.Status = StatusFailed
		out.Err = err
		out.Description = err.Error()
		e.logger.Error("Failed to apply action",
			zap.String("instruction", instruction),
			zap.String("action", match.ActionID),
			zap.Error(err))
		return out
	}

	out.Status = StatusApplied
	out.Dataset = result.Dataset
	out.Description = result.Description
	out.Operation = result.Operation

	e.logger.Info("Processed instruction",
		zap.String("instruction", instruction),
		zap.String("action", match.ActionID),
		zap.Float64("confidence", match.Confidence),
		zap.String("description", result.Description))

	return out
}

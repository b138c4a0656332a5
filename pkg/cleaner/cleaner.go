// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/David-Botos/data-clarity/pkg/catalog"
	"github.com/David-Botos/data-clarity/pkg/model"
)

// ErrUnknownAction is returned when no transformation is registered for an action id
var ErrUnknownAction = errors.New("unknown cleaning action")

// transformFunc produces a new dataset from ds. It must not modify ds.
type transformFunc func(ds *model.Dataset, params model.CleaningParameters, op *model.CleaningOperation) (*model.Dataset, string)

// Result is the outcome of one applied action
type Result struct {
	Dataset     *model.Dataset
	Description string
	Operation   model.CleaningOperation
}

// DataCleaner applies catalog actions to datasets. It keeps no state between calls.
type DataCleaner struct {
	logger     *zap.Logger
	transforms map[string]transformFunc
}

// NewDataCleaner creates a new DataCleaner with the built-in transformations registered
func NewDataCleaner(logger *zap.Logger) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &DataCleaner{
		logger: logger,
		transforms: map[string]transformFunc{
			catalog.RemoveMissingRows:  removeMissingRows,
			catalog.DropMissingColumns: dropMissingColumns,
			catalog.RemoveDuplicates:   removeDuplicates,
			catalog.FillMissing:        fillMissing,
			catalog.StandardizeColumns: standardizeColumns,
		},
	}, nil
}

// Supports reports whether actionID has a registered transformation
func (c *DataCleaner) Supports(actionID string) bool {
	_, ok := c.transforms[actionID]
	return ok
}

// Actions returns the registered action ids in sorted order
func (c *DataCleaner) Actions() []string {
	ids := make([]string, 0, len(c.transforms))
	for id := range c.transforms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Apply runs the transformation for actionID and returns the new dataset with a
// description of its effect. The input dataset is never modified.
func (c *DataCleaner) Apply(
	actionID string,
	ds *model.Dataset,
	params model.CleaningParameters,
) (*model.Dataset, string, error) {
	result, err := c.Run(actionID, ds, params)
	if err != nil {
		return nil, "", err
	}
	return result.Dataset, result.Description, nil
}

// Run is Apply with the operation summary attached
func (c *DataCleaner) Run(
	actionID string,
	ds *model.Dataset,
	params model.CleaningParameters,
) (*Result, error) {
	transform, ok := c.transforms[actionID]
	if !ok {
		return nil, fmt.Errorf("%q: %w", actionID, ErrUnknownAction)
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("cannot apply %s: %w", actionID, err)
	}

	op := model.CleaningOperation{
		ActionID:      actionID,
		RowsBefore:    ds.RowCount(),
		ColumnsBefore: ds.ColumnCount(),
	}

	out, description := transform(ds, params, &op)
	op.RowsAfter = out.RowCount()
	op.ColumnsAfter = out.ColumnCount()

	c.logger.Info("Applied cleaning action",
		zap.String("action", actionID),
		zap.Int("rowsBefore", op.RowsBefore),
		zap.Int("rowsAfter", op.RowsAfter),
		zap.Int("columnsBefore", op.ColumnsBefore),
		zap.Int("columnsAfter", op.ColumnsAfter),
		zap.Int("cellsFilled", op.CellsFilled),
		zap.Int("renamedColumns", op.RenamedColumns))

	return &Result{Dataset: out, Description: description, Operation: op}, nil
}

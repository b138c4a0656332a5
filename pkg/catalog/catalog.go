// pkg/catalog/catalog.go
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Action identifiers of the built-in cleaning operations
const (
	RemoveMissingRows  = "remove_missing_rows"
	DropMissingColumns = "drop_missing_columns"
	RemoveDuplicates   = "remove_duplicates"
	FillMissing        = "fill_missing"
	StandardizeColumns = "standardize_columns"
)

var (
	// ErrEmptyCatalog is returned when a catalog defines no actions
	ErrEmptyCatalog = errors.New("catalog has no actions")
	// ErrDuplicateAction is returned when two definitions share an id
	ErrDuplicateAction = errors.New("duplicate action id")
	// ErrInvalidAction is returned for definitions without an id or phrases
	ErrInvalidAction = errors.New("invalid action definition")
)

// ActionDefinition maps a stable action id to the phrases that trigger it
type ActionDefinition struct {
	ID             string   `yaml:"id"`
	Suggestion     string   `yaml:"suggestion"`
	TriggerPhrases []string `yaml:"phrases"`
}

// Catalog is an ordered, immutable set of action definitions.
// Iteration order is definition order and decides score ties.
type Catalog struct {
	actions []ActionDefinition
	index   map[string]int
}

// New validates definitions and builds a catalog. Phrases are lower-cased and trimmed.
func New(defs []ActionDefinition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		actions: make([]ActionDefinition, 0, len(defs)),
		index:   make(map[string]int, len(defs)),
	}

	for i, def := range defs {
		id := strings.TrimSpace(def.ID)
		if id == "" {
			return nil, fmt.Errorf("action %d has empty id: %w", i, ErrInvalidAction)
		}
		if _, exists := c.index[id]; exists {
			return nil, fmt.Errorf("%s: %w", id, ErrDuplicateAction)
		}

		phrases := make([]string, 0, len(def.TriggerPhrases))
		for _, p := range def.TriggerPhrases {
			p = strings.ToLower(strings.TrimSpace(p))
			if p != "" {
				phrases = append(phrases, p)
			}
		}
		if len(phrases) == 0 {
			return nil, fmt.Errorf("action %s has no trigger phrases: %w", id, ErrInvalidAction)
		}

		c.index[id] = len(c.actions)
		c.actions = append(c.actions, ActionDefinition{
			ID:             id,
			Suggestion:     strings.TrimSpace(def.Suggestion),
			TriggerPhrases: phrases,
		})
	}

	return c, nil
}

// Actions returns a copy of the definitions in catalog order
func (c *Catalog) Actions() []ActionDefinition {
	out := make([]ActionDefinition, len(c.actions))
	for i, a := range c.actions {
		out[i] = ActionDefinition{
			ID:             a.ID,
			Suggestion:     a.Suggestion,
			TriggerPhrases: append([]string(nil), a.TriggerPhrases...),
		}
	}
	return out
}

// Get returns the definition with the given id
func (c *Catalog) Get(id string) (ActionDefinition, bool) {
	i, ok := c.index[id]
	if !ok {
		return ActionDefinition{}, false
	}
	return c.actions[i], true
}

// Len returns the number of actions
func (c *Catalog) Len() int {
	return len(c.actions)
}

// Suggestions returns one example instruction per action, in catalog order.
// Actions without an explicit suggestion fall back to their first phrase.
func (c *Catalog) Suggestions() []string {
	out := make([]string, 0, len(c.actions))
	for _, a := range c.actions {
		if a.Suggestion != "" {
			out = append(out, a.Suggestion)
			continue
		}
		out = append(out, a.TriggerPhrases[0])
	}
	return out
}

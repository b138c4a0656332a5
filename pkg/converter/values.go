// pkg/converter/values.go
package converter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/David-Botos/data-clarity/pkg/model"
)

// ParseValue converts a raw text field to a cell, honoring the null markers
func (c *Converter) ParseValue(raw string) model.Cell {
	if c.config.TrimSpace {
		raw = strings.TrimSpace(raw)
	}
	if c.IsNull(raw) {
		return model.Null()
	}
	return model.Str(raw)
}

// IsNull determines if a value should be treated as missing
func (c *Converter) IsNull(value interface{}) bool {
	if value == nil {
		return true
	}

	// Check string representations of NULL
	if strVal, ok := value.(string); ok {
		for _, null := range c.config.NullMarkers {
			if strVal == null {
				return true
			}
		}
	}

	return false
}

// ToCell converts a value returned by a database driver to a cell
func (c *Converter) ToCell(value interface{}) model.Cell {
	switch v := value.(type) {
	case nil:
		return model.Null()
	case string:
		return c.ParseValue(v)
	case []byte:
		if v == nil {
			return model.Null()
		}
		return c.ParseValue(string(v))
	default:
		return model.Str(toText(v))
	}
}

// toText converts a non-string value to text
func toText(value interface{}) string {
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int, int8, int16, int32, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	default:
		// Try JSON marshaling for complex types
		jsonBytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(jsonBytes)
	}
}

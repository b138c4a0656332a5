// pkg/audit/audit.go
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one processed instruction in the append-only audit log
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	SessionID   string    `json:"session_id"`
	Instruction string    `json:"instruction"`
	Status      string    `json:"status"` // success, warning or error
	ActionID    string    `json:"action,omitempty"`
	Confidence  float64   `json:"confidence"`
	Description string    `json:"description"`
}

// NewEntry creates an entry with a fresh id and the current time
func NewEntry(sessionID, instruction, status string) Entry {
	return Entry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		SessionID:   sessionID,
		Instruction: instruction,
		Status:      status,
	}
}

// Recorder persists audit entries
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

// NopRecorder discards every entry
type NopRecorder struct{}

// Record implements Recorder
func (NopRecorder) Record(context.Context, Entry) error { return nil }

// Close implements Recorder
func (NopRecorder) Close() error { return nil }

// fill assigns an id and timestamp when the caller left them empty
func fill(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return e
}

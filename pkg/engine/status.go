// pkg/engine/status.go
package engine

import "fmt"

// Status categorizes the outcome of processing one instruction
type Status int

const (
	// StatusApplied means an action was recognized and applied
	StatusApplied Status = iota
	// StatusUnrecognized means no action reached the confidence threshold.
	// It is a normal result, not a fault.
	StatusUnrecognized
	// StatusFailed means an action was recognized but could not be applied
	StatusFailed
)

// Audit status values
const (
	AuditSuccess = "success"
	AuditWarning = "warning"
	AuditError   = "error"
)

// String returns a string representation of the status
func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusUnrecognized:
		return "unrecognized"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// AuditStatus maps the status onto the audit log vocabulary
func (s Status) AuditStatus() string {
	switch s {
	case StatusApplied:
		return AuditSuccess
	case StatusUnrecognized:
		return AuditWarning
	default:
		return AuditError
	}
}

// Changed reports whether the outcome carries a new dataset
func (s Status) Changed() bool {
	return s == StatusApplied
}

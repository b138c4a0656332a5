// pkg/audit/file.go
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileRecorder appends entries to a file as JSON lines
type FileRecorder struct {
	mu   sync.Mutex
	path string
	file *os.File
	core zapcore.Core
}

// NewFileRecorder opens path for appending, creating it if needed
func NewFileRecorder(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log %s: %w", path, err)
	}

	encoderCfg := zapcore.EncoderConfig{
		// Level, message and caller keys are left empty so only entry fields are written
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(f), zapcore.InfoLevel)

	return &FileRecorder{path: path, file: f, core: core}, nil
}

// Path returns the audit log location
func (r *FileRecorder) Path() string {
	return r.path
}

// Record appends one line for e
func (r *FileRecorder) Record(_ context.Context, e Entry) error {
	e = fill(e)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return fmt.Errorf("audit log %s is closed", r.path)
	}

	fields := []zap.Field{
		zap.String("id", e.ID),
		zap.Time("timestamp", e.Timestamp),
		zap.String("session_id", e.SessionID),
		zap.String("instruction", e.Instruction),
		zap.String("status", e.Status),
	}
	if e.ActionID != "" {
		fields = append(fields, zap.String("action", e.ActionID))
	}
	fields = append(fields,
		zap.Float64("confidence", e.Confidence),
		zap.String("description", e.Description))

	entry := zapcore.Entry{Level: zapcore.InfoLevel, Time: e.Timestamp}
	if err := r.core.Write(entry, fields); err != nil {
		return fmt.Errorf("failed to write audit log %s: %w", r.path, err)
	}
	return nil
}

// Close flushes and closes the file
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	syncErr := r.core.Sync()
	err := r.file.Close()
	r.file = nil
	if err != nil {
		return err
	}
	return syncErr
}

// ReadFile parses a JSON-lines audit log written by FileRecorder
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log %s: %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("audit log %s line %d: %w", path, line, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log %s: %w", path, err)
	}

	return entries, nil
}

// Package mcplog writes one JSONL record per MCP tool call.
package mcplog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
)

// maxParamString is the longest string argument logged verbatim.
const maxParamString = 64

// alwaysSummarized are arguments that carry file contents and are never
// logged, whatever their length.
var alwaysSummarized = map[string]bool{"source": true}

// LogEntry is one JSONL line.
type LogEntry struct {
	Ts            string         `json:"ts"`
	Tool          string         `json:"tool"`
	Params        map[string]any `json:"params"`
	DurationMs    int64          `json:"duration_ms"`
	ResponseBytes int            `json:"response_bytes"`
	// IsError is set when the tool answered with an error result.
	IsError bool `json:"is_error,omitempty"`
	// Error is the Go error returned by the handler, if any.
	Error *string `json:"error"`
}

// Logger appends entries to a writer. It is safe for concurrent use.
type Logger struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	enc    *json.Encoder
}

// NewLogger opens path for appending, creating parent directories.
// An empty path returns nil, nil; a nil *Logger discards everything.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mcplog: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("mcplog: open log file: %w", err)
	}
	l := NewWriterLogger(f)
	l.closer = f
	return l, nil
}

// NewWriterLogger logs to w. Close does not close w.
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{w: w, enc: json.NewEncoder(w)}
}

// Write appends entry as one line.
func (l *Logger) Write(entry LogEntry) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(entry)
}

// Record builds the entry for a finished call that started at start and
// writes it. Log failures are returned but callers ignore them.
func (l *Logger) Record(tool string, args map[string]any, start time.Time, result *mcp.CallToolResult, callErr error) error {
	if l == nil {
		return nil
	}
	entry := LogEntry{
		Ts:            start.UTC().Format(time.RFC3339),
		Tool:          tool,
		Params:        SanitizeParams(args),
		DurationMs:    Now().Sub(start).Milliseconds(),
		ResponseBytes: ResponseBytes(result),
	}
	if result != nil {
		entry.IsError = result.IsError
	}
	if callErr != nil {
		msg := callErr.Error()
		entry.Error = &msg
	}
	return l.Write(entry)
}

// Close closes the log file opened by NewLogger.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closer.Close()
}

// SanitizeParams copies args for logging. Source payloads and strings longer
// than maxParamString become a "<key>_len" entry.
func SanitizeParams(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		s, ok := v.(string)
		if ok && (alwaysSummarized[k] || len(s) > maxParamString) {
			out[k+"_len"] = len(s)
			continue
		}
		out[k] = v
	}
	return out
}

// ResponseBytes is the encoded size of the result content, 0 for nil.
func ResponseBytes(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	b, err := json.Marshal(result.Content)
	if err != nil {
		return 0
	}
	return len(b)
}

// Now is the clock used for durations; tests replace it.
var Now = time.Now

package mcplog

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEntries(t *testing.T, data []byte) []LogEntry {
	t.Helper()
	var got []LogEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if scanner.Text() == "" {
			continue
		}
		var e LogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e), "torn line %q", scanner.Text())
		got = append(got, e)
	}
	return got
}

func TestSanitizeParams(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]any
		wantKeys []string
		wantSkip []string
	}{
		{name: "nil map returns empty", input: nil},
		{
			name:     "short string passes through",
			input:    map[string]any{"value": "p-4 flex"},
			wantKeys: []string{"value"},
		},
		{
			name:     "long string replaced with _len key",
			input:    map[string]any{"value": string(make([]byte, 200))},
			wantKeys: []string{"value_len"},
			wantSkip: []string{"value"},
		},
		{
			name:     "source is always summarized",
			input:    map[string]any{"source": "let a = 1", "filename": "a.ts"},
			wantKeys: []string{"source_len", "filename"},
			wantSkip: []string{"source"},
		},
		{
			name:     "bool and nil pass through",
			input:    map[string]any{"obfuscate": true, "extra": nil},
			wantKeys: []string{"obfuscate", "extra"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := SanitizeParams(tc.input)
			for _, k := range tc.wantKeys {
				assert.Contains(t, out, k)
			}
			for _, k := range tc.wantSkip {
				assert.NotContains(t, out, k)
			}
		})
	}
}

func TestResponseBytes(t *testing.T) {
	assert.Equal(t, 0, ResponseBytes(nil))
	assert.Greater(t, ResponseBytes(mcp.NewToolResultText(`{"output":"p-[1rem]"}`)), 0)
}

func TestRecord(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	defer func(orig func() time.Time) { Now = orig }(Now)
	Now = func() time.Time { return start.Add(42 * time.Millisecond) }

	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	require.NoError(t, l.Record("transform_class_string", map[string]any{"value": "p-4"}, start,
		mcp.NewToolResultText("ok"), nil))
	require.NoError(t, l.Record("transform_source", map[string]any{"source": "x"}, start,
		mcp.NewToolResultError("parse error"), errors.New("boom")))

	got := readEntries(t, buf.Bytes())
	require.Len(t, got, 2)

	assert.Equal(t, "2026-01-02T03:04:05Z", got[0].Ts)
	assert.Equal(t, int64(42), got[0].DurationMs)
	assert.Equal(t, "p-4", got[0].Params["value"])
	assert.False(t, got[0].IsError)
	assert.Nil(t, got[0].Error)

	assert.True(t, got[1].IsError)
	require.NotNil(t, got[1].Error)
	assert.Equal(t, "boom", *got[1].Error)
	assert.Contains(t, got[1].Params, "source_len")
}

func TestNilLoggerDiscards(t *testing.T) {
	var l *Logger
	assert.NoError(t, l.Write(LogEntry{Tool: "x"}))
	assert.NoError(t, l.Record("x", nil, time.Now(), nil, nil))
	assert.NoError(t, l.Close())
}

func TestLoggerFileConcurrency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "mcp.jsonl")

	logger, err := NewLogger(path)
	require.NoError(t, err)

	const goroutines = 50
	const writesEach = 10

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < writesEach; j++ {
				_ = logger.Write(LogEntry{Ts: time.Now().UTC().Format(time.RFC3339), Tool: "classify_class"})
			}
		}()
	}
	wg.Wait()
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, readEntries(t, data), goroutines*writesEach)
}

func TestNewLoggerEmptyPath(t *testing.T) {
	logger, err := NewLogger("")
	require.NoError(t, err)
	assert.Nil(t, logger)
}

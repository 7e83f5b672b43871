package indexer

import (
	"strings"
	"time"

	"github.com/gnana997/twtrace/pkg/parser"
)

// ScanOptions configures workspace scanning behavior.
type ScanOptions struct {
	// Include patterns (doublestar syntax, e.g. "src/**/*.{ts,tsx}").
	// If empty, every file with a supported extension is included.
	Include []string

	// Exclude patterns, matched against directories and files relative to
	// the workspace root.
	Exclude []string

	// RespectGitignore skips paths matched by the root .gitignore.
	RespectGitignore bool

	// MaxDepth limits directory traversal depth. 0 = unlimited.
	MaxDepth int

	// Workers overrides the worker count. 0 = util.PoolSize(0).
	Workers int

	// Obfuscate replaces traced classes with opaque identifiers.
	Obfuscate bool

	// Write rewrites changed sources in place.
	Write bool
}

// DefaultScanOptions returns recommended scan options.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		Include: []string{sourceGlob()},
		Exclude: []string{
			"node_modules/**",
			".git/**",
			"dist/**",
			"build/**",
			"coverage/**",
			"out/**",
			".next/**",
			".twtrace/**",
		},
		RespectGitignore: true,
	}
}

// ScanStats contains statistics about a workspace scan.
type ScanStats struct {
	FilesDiscovered int
	FilesProcessed  int
	FilesFailed     int

	// FilesChanged counts files with at least one rewritten site.
	FilesChanged int
	// FilesWritten counts files rewritten on disk (ScanOptions.Write).
	FilesWritten int

	SitesVisited int
	SitesChanged int

	// Classes is the number of distinct recognized classes in the index
	// after the scan.
	Classes int

	TotalTimeMs      int64
	DiscoveryTimeMs  int64
	ProcessingTimeMs int64
	FilesPerSecond   float64
	WorkerCount      int

	// Errors contains per-file errors (if any)
	Errors []FileError

	Cancelled bool

	StartTime time.Time
	EndTime   time.Time
}

// FileError represents an error that occurred while processing a file.
type FileError struct {
	FilePath string
	Error    error
}

// ProgressCallback is called after each file is processed or fails.
type ProgressCallback func(processed, total int, currentFile string)

// WatchOptions configures file watching behavior.
type WatchOptions struct {
	// DebounceMs is the per-file debounce delay. Default: 200ms.
	DebounceMs int

	// RebuildDebounceMs coalesces reindexed files into one rebuild
	// callback. Default: 500ms.
	RebuildDebounceMs int

	// IgnorePatterns are base-name globs ignored during watching, on top
	// of the scan excludes.
	IgnorePatterns []string
}

// DefaultWatchOptions returns recommended watch options.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		DebounceMs:        200,
		RebuildDebounceMs: 500,
		IgnorePatterns: []string{
			"*.swp",
			"*.tmp",
			"*~",
			".#*",
		},
	}
}

// WatchEvent is a reindexed or removed source file.
type WatchEvent struct {
	FilePath string

	// Op is "update" or "remove".
	Op string

	// Err is set when the file could not be reindexed; its previous
	// classes stay in the index.
	Err error

	Timestamp time.Time
}

// RebuildFunc receives the events coalesced since the previous rebuild.
type RebuildFunc func(events []WatchEvent)

// sourceGlob matches every extension the parser understands.
func sourceGlob() string {
	exts := parser.SupportedExtensions()
	for i, ext := range exts {
		exts[i] = strings.TrimPrefix(ext, ".")
	}
	return "**/*.{" + strings.Join(exts, ",") + "}"
}

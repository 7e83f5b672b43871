// Package indexer runs the file engine over a whole workspace: discovery,
// parallel transformation, the class index and watch mode.
package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/gnana997/twtrace/pkg/extract"
	"github.com/gnana997/twtrace/pkg/parser"
	"github.com/gnana997/twtrace/pkg/util"
)

// WorkspaceScanner transforms every matching file of a workspace.
//
// **Three-Phase Pipeline:**
//  1. File Discovery - walk the tree, apply include/exclude globs and .gitignore
//  2. Parallel Processing - run the engine in a worker pool
//  3. Indexing - store each file's classes in the ClassIndex
//
// **Usage:**
//
//	scanner := NewWorkspaceScanner(engine, index, logger)
//	defer scanner.Close()
//	stats, err := scanner.Scan(ctx, "/path/to/app", DefaultScanOptions(),
//	    func(done, total int, file string) {
//	        fmt.Printf("%d/%d %s\n", done, total, file)
//	    })
type WorkspaceScanner struct {
	engine *extract.Engine
	index  *ClassIndex
	cache  util.FileCache
	logger *slog.Logger
}

// ScannerOption configures a WorkspaceScanner.
type ScannerOption func(*WorkspaceScanner)

// WithFileCache replaces the default mmap file cache.
func WithFileCache(cache util.FileCache) ScannerOption {
	return func(ws *WorkspaceScanner) {
		ws.cache = cache
	}
}

// NewWorkspaceScanner creates a new workspace scanner. A nil index creates
// an empty one; a nil logger selects slog.Default().
func NewWorkspaceScanner(engine *extract.Engine, index *ClassIndex, logger *slog.Logger, opts ...ScannerOption) *WorkspaceScanner {
	if logger == nil {
		logger = slog.Default()
	}
	if index == nil {
		index = NewClassIndex(DefaultClassIndexConfig(), logger)
	}
	ws := &WorkspaceScanner{
		engine: engine,
		index:  index,
		logger: logger,
	}
	for _, opt := range opts {
		opt(ws)
	}
	if ws.cache == nil {
		ws.cache = util.NewFileCache(&util.FileCacheConfig{
			MaxMemoryMB:   util.DefaultFileCacheConfig().MaxMemoryMB,
			EnableMetrics: true,
			Logger:        logger,
		})
	}
	return ws
}

// Index returns the class index the scanner fills.
func (ws *WorkspaceScanner) Index() *ClassIndex {
	return ws.index
}

// Engine returns the file engine.
func (ws *WorkspaceScanner) Engine() *extract.Engine {
	return ws.engine
}

// Close releases the file cache.
func (ws *WorkspaceScanner) Close() error {
	return ws.cache.Close()
}

// Scan discovers and transforms every matching file under rootPath.
//
// Per-file failures (unreadable files, parse errors) are collected in
// ScanStats.Errors and never abort the scan. A cancelled ctx stops the scan
// early; the partial stats are returned together with the context error.
func (ws *WorkspaceScanner) Scan(
	ctx context.Context,
	rootPath string,
	options ScanOptions,
	progress ProgressCallback,
) (*ScanStats, error) {
	startTime := time.Now()
	stats := &ScanStats{
		StartTime: startTime,
		Errors:    make([]FileError, 0),
	}

	ws.logger.Info("starting workspace scan", "root", rootPath)

	discoveryStart := time.Now()
	files, err := ws.DiscoverFiles(rootPath, options)
	if err != nil {
		return nil, fmt.Errorf("file discovery failed: %w", err)
	}
	stats.FilesDiscovered = len(files)
	stats.DiscoveryTimeMs = time.Since(discoveryStart).Milliseconds()

	ws.logger.Info("file discovery complete",
		"files_found", len(files),
		"duration_ms", stats.DiscoveryTimeMs)

	if len(files) > 0 {
		processingStart := time.Now()
		ws.processFilesParallel(ctx, files, options, stats, progress)
		stats.ProcessingTimeMs = time.Since(processingStart).Milliseconds()
	} else {
		ws.logger.Warn("no files found matching criteria", "root", rootPath)
	}

	stats.Classes = len(ws.index.Classes())
	stats.EndTime = time.Now()
	stats.TotalTimeMs = time.Since(startTime).Milliseconds()
	if stats.ProcessingTimeMs > 0 {
		stats.FilesPerSecond = float64(stats.FilesProcessed) / (float64(stats.ProcessingTimeMs) / 1000.0)
	}

	if err := ctx.Err(); err != nil {
		stats.Cancelled = true
		ws.logger.Warn("workspace scan cancelled",
			"files_processed", stats.FilesProcessed,
			"files_discovered", stats.FilesDiscovered)
		return stats, fmt.Errorf("scan cancelled: %w", err)
	}

	ws.logger.Info("workspace scan complete",
		"files_processed", stats.FilesProcessed,
		"files_failed", stats.FilesFailed,
		"files_changed", stats.FilesChanged,
		"classes", stats.Classes,
		"duration_ms", stats.TotalTimeMs)

	return stats, nil
}

// DiscoverFiles walks rootPath and returns the matching source files in
// lexical order.
func (ws *WorkspaceScanner) DiscoverFiles(rootPath string, options ScanOptions) ([]string, error) {
	filter, err := newPathFilter(rootPath, options)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			ws.logger.Warn("walk error", "path", path, "error", err)
			return nil
		}

		rel, ok := filter.rel(path)
		if !ok {
			return nil // the root itself
		}

		if d.IsDir() {
			if filter.skipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if filter.includesFile(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// processFilesParallel runs files through a worker pool. The collector is
// started before any job is submitted so a full jobs channel can never
// block it; it exits once the pool closes both channels.
func (ws *WorkspaceScanner) processFilesParallel(
	ctx context.Context,
	files []string,
	options ScanOptions,
	stats *ScanStats,
	progress ProgressCallback,
) {
	pool := NewWorkerPool(ctx, WorkerPoolConfig{
		Workers:   options.Workers,
		Engine:    ws.engine,
		Cache:     ws.cache,
		Index:     ws.index,
		Obfuscate: options.Obfuscate,
		Logger:    ws.logger,
	})
	stats.WorkerCount = pool.numWorkers
	pool.Start()

	total := len(files)
	done := make(chan struct{})
	go func() {
		defer close(done)
		results, errs := pool.Results(), pool.Errors()
		finished := 0
		for results != nil || errs != nil {
			select {
			case r, ok := <-results:
				if !ok {
					results = nil
					continue
				}
				ws.record(r.Result, options, stats)
				finished++
				if progress != nil {
					progress(finished, total, r.FilePath)
				}

			case fe, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				ws.cache.Invalidate(fe.FilePath)
				stats.Errors = append(stats.Errors, fe)
				stats.FilesFailed++
				ws.logger.Warn("file processing failed", "file", fe.FilePath, "error", fe.Error)
				finished++
				if progress != nil {
					progress(finished, total, fe.FilePath)
				}
			}
		}
	}()

	for i, file := range files {
		if err := pool.Submit(FileJob{FilePath: file, JobID: i}); err != nil {
			ws.logger.Debug("stopped submitting jobs", "submitted", i, "error", err)
			break
		}
	}
	pool.FinishSubmitting()
	pool.Stop()
	<-done
}

// record stores one successful result and unmaps the file, so the cache
// only holds files that are in flight. Called from the collector only.
func (ws *WorkspaceScanner) record(res *extract.FileResult, options ScanOptions, stats *ScanStats) {
	ws.cache.Invalidate(res.Path)
	ws.index.Put(res)
	stats.FilesProcessed++
	stats.SitesVisited += res.Sites
	stats.SitesChanged += res.ChangedSites
	if !res.Changed {
		return
	}
	stats.FilesChanged++
	if !options.Write {
		return
	}
	written, err := WriteBack(res)
	if err != nil {
		stats.Errors = append(stats.Errors, FileError{FilePath: res.Path, Error: err})
		ws.logger.Warn("failed to write rewritten source", "file", res.Path, "error", err)
		return
	}
	if written {
		stats.FilesWritten++
	}
}

// ProcessFile re-reads and re-indexes a single file, as the watcher does
// after a change. The file's previous classes stay indexed on failure.
func (ws *WorkspaceScanner) ProcessFile(path string, options ScanOptions) (*extract.FileResult, error) {
	ws.cache.Invalidate(path)

	proc := &processor{
		engine:    ws.engine,
		cache:     ws.cache,
		index:     ws.index,
		obfuscate: options.Obfuscate,
	}
	res, _, err := proc.process(path)
	ws.cache.Invalidate(path)
	if err != nil {
		return nil, err
	}

	ws.index.Put(res)
	if options.Write && res.Changed {
		if _, err := WriteBack(res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// pathFilter applies the scan options to workspace-relative paths.
type pathFilter struct {
	root      string
	include   []string
	exclude   []string
	maxDepth  int
	gitignore *ignore.GitIgnore
}

func newPathFilter(root string, options ScanOptions) (*pathFilter, error) {
	for _, pattern := range options.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	for _, pattern := range options.Include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern: %s", pattern)
		}
	}

	f := &pathFilter{
		root:     root,
		include:  options.Include,
		exclude:  options.Exclude,
		maxDepth: options.MaxDepth,
	}
	if options.RespectGitignore {
		gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
		if err == nil {
			f.gitignore = gi
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read .gitignore: %w", err)
		}
	}
	return f, nil
}

// rel returns path relative to the root with forward slashes. It reports
// false for the root itself.
func (f *pathFilter) rel(path string) (string, bool) {
	rel, err := filepath.Rel(f.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "", false
	}
	return rel, true
}

func (f *pathFilter) skipDir(rel string) bool {
	if f.maxDepth > 0 && strings.Count(rel, "/")+1 > f.maxDepth {
		return true
	}
	if f.excluded(rel) || f.excluded(rel+"/") {
		return true
	}
	return f.gitignore != nil && (f.gitignore.MatchesPath(rel) || f.gitignore.MatchesPath(rel+"/"))
}

func (f *pathFilter) includesFile(rel string) bool {
	if parser.DialectForPath(rel) == parser.DialectUnknown {
		return false
	}
	if f.maxDepth > 0 && strings.Count(rel, "/") >= f.maxDepth {
		return false
	}
	if f.excluded(rel) {
		return false
	}
	if f.gitignore != nil && f.gitignore.MatchesPath(rel) {
		return false
	}
	if len(f.include) == 0 {
		return true
	}
	for _, pattern := range f.include {
		if m, _ := doublestar.Match(pattern, rel); m {
			return true
		}
	}
	return false
}

func (f *pathFilter) excluded(rel string) bool {
	for _, pattern := range f.exclude {
		if m, _ := doublestar.Match(pattern, rel); m {
			return true
		}
	}
	return false
}

package indexer

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// FileWatcher re-indexes changed source files and triggers coalesced
// rebuilds.
//
// **Features:**
//   - Per-file debouncing: rapid saves of one file trigger one reindex
//   - Coalesced rebuilds: reindexes within RebuildDebounceMs produce a
//     single RebuildFunc call carrying every event
//   - New directories are watched as they appear
//
// **Usage:**
//
//	watcher, err := NewFileWatcher(scanner, scanOpts, DefaultWatchOptions(), rebuild, logger)
//	if err != nil {
//	    return err
//	}
//	if err := watcher.Start(root); err != nil {
//	    return err
//	}
//	defer watcher.Stop()
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	scanner  *WorkspaceScanner
	scanOpts ScanOptions
	options  WatchOptions
	onBuild  RebuildFunc
	logger   *slog.Logger
	filter   *pathFilter

	// Per-file debouncing
	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	// Coalesced rebuilds
	rebuild   func(func())
	pending   []WatchEvent
	pendingMu sync.Mutex

	// Lifecycle
	stopChan chan struct{}
	stopped  bool
	started  bool
	mu       sync.Mutex
}

// NewFileWatcher creates a new file watcher. onRebuild may be nil.
func NewFileWatcher(
	scanner *WorkspaceScanner,
	scanOpts ScanOptions,
	options WatchOptions,
	onRebuild RebuildFunc,
	logger *slog.Logger,
) (*FileWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if options.DebounceMs <= 0 {
		options.DebounceMs = 200
	}
	if options.RebuildDebounceMs <= 0 {
		options.RebuildDebounceMs = 500
	}

	return &FileWatcher{
		watcher:        watcher,
		scanner:        scanner,
		scanOpts:       scanOpts,
		options:        options,
		onBuild:        onRebuild,
		logger:         logger,
		debounceTimers: make(map[string]*time.Timer),
		rebuild:        debounce.New(time.Duration(options.RebuildDebounceMs) * time.Millisecond),
		stopChan:       make(chan struct{}),
	}, nil
}

// Start begins watching rootPath and every non-excluded directory below it.
func (fw *FileWatcher) Start(rootPath string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.stopped {
		return fmt.Errorf("watcher already stopped")
	}
	if fw.started {
		return fmt.Errorf("watcher already started")
	}

	filter, err := newPathFilter(rootPath, fw.scanOpts)
	if err != nil {
		return err
	}
	fw.filter = filter

	if err := fw.addTree(rootPath); err != nil {
		return fmt.Errorf("failed to setup watches: %w", err)
	}
	fw.started = true

	fw.logger.Info("file watcher started", "root", rootPath)

	go fw.eventLoop()
	return nil
}

// addTree watches dir and its subdirectories.
func (fw *FileWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := fw.filter.rel(path); ok && fw.filter.skipDir(rel) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			fw.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// Stop stops the file watcher. Safe to call multiple times.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.stopped {
		return nil
	}
	fw.stopped = true
	close(fw.stopChan)

	fw.debounceMu.Lock()
	for _, timer := range fw.debounceTimers {
		timer.Stop()
	}
	fw.debounceTimers = make(map[string]*time.Timer)
	fw.debounceMu.Unlock()

	err := fw.watcher.Close()
	fw.logger.Info("file watcher stopped")
	return err
}

func (fw *FileWatcher) isStopped() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.stopped
}

func (fw *FileWatcher) eventLoop() {
	for {
		select {
		case <-fw.stopChan:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("file watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if fw.ignoredName(path) {
		return
	}
	rel, ok := fw.filter.rel(path)
	if !ok {
		return
	}

	if event.Op&fsnotify.Create == fsnotify.Create {
		if isDir(path) {
			if !fw.filter.skipDir(rel) {
				if err := fw.addTree(path); err != nil {
					fw.logger.Warn("failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}

	if !fw.filter.includesFile(rel) {
		return
	}

	fw.logger.Debug("file event", "op", event.Op.String(), "file", path)

	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		fw.debounceReindex(path)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		fw.removeFile(path)
	}
}

// debounceReindex schedules a reindex after the debounce delay. Only the
// last event of a burst for the same file triggers reindexing.
func (fw *FileWatcher) debounceReindex(path string) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	if timer, exists := fw.debounceTimers[path]; exists {
		timer.Stop()
	}

	fw.debounceTimers[path] = time.AfterFunc(
		time.Duration(fw.options.DebounceMs)*time.Millisecond,
		func() {
			fw.debounceMu.Lock()
			delete(fw.debounceTimers, path)
			fw.debounceMu.Unlock()

			fw.reindexFile(path)
		},
	)
}

func (fw *FileWatcher) reindexFile(path string) {
	if fw.isStopped() {
		return
	}

	event := WatchEvent{FilePath: path, Op: "update", Timestamp: time.Now()}
	res, err := fw.scanner.ProcessFile(path, fw.scanOpts)
	if err != nil {
		event.Err = err
		fw.logger.Warn("failed to reindex file", "file", path, "error", err)
	} else {
		fw.logger.Debug("file reindexed",
			"file", path,
			"classes", len(res.Classes),
			"changed_sites", res.ChangedSites)
	}
	fw.scheduleRebuild(event)
}

func (fw *FileWatcher) removeFile(path string) {
	fw.debounceMu.Lock()
	if timer, exists := fw.debounceTimers[path]; exists {
		timer.Stop()
		delete(fw.debounceTimers, path)
	}
	fw.debounceMu.Unlock()

	if fw.scanner.Index().Remove(path) {
		fw.logger.Debug("removed file from index", "file", path)
		fw.scheduleRebuild(WatchEvent{FilePath: path, Op: "remove", Timestamp: time.Now()})
	}
}

func (fw *FileWatcher) scheduleRebuild(event WatchEvent) {
	fw.pendingMu.Lock()
	fw.pending = append(fw.pending, event)
	fw.pendingMu.Unlock()

	fw.rebuild(fw.flush)
}

func (fw *FileWatcher) flush() {
	fw.pendingMu.Lock()
	events := fw.pending
	fw.pending = nil
	fw.pendingMu.Unlock()

	if len(events) == 0 || fw.onBuild == nil || fw.isStopped() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			fw.logger.Error("rebuild callback panicked", "panic", r)
		}
	}()
	fw.onBuild(events)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ignoredName matches the base name against the watch ignore patterns.
func (fw *FileWatcher) ignoredName(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range fw.options.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// GetStats returns file watcher statistics.
func (fw *FileWatcher) GetStats() FileWatcherStats {
	fw.debounceMu.Lock()
	pendingReindexes := len(fw.debounceTimers)
	fw.debounceMu.Unlock()

	fw.pendingMu.Lock()
	pendingEvents := len(fw.pending)
	fw.pendingMu.Unlock()

	fw.mu.Lock()
	running := fw.started && !fw.stopped
	fw.mu.Unlock()

	return FileWatcherStats{
		PendingReindexes: pendingReindexes,
		PendingEvents:    pendingEvents,
		IsRunning:        running,
	}
}

// FileWatcherStats contains file watcher statistics.
type FileWatcherStats struct {
	PendingReindexes int
	PendingEvents    int
	IsRunning        bool
}

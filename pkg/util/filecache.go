package util

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/edsrzf/mmap-go"
)

// FileCache maps source files read during a workspace pass.
//
// Workers read each file once through the cache; the watcher invalidates an
// entry when the file changes on disk or is rewritten by WriteBack.
//
// **Thread Safety:** all methods may be called concurrently. Lookups share a
// read lock; loads, invalidation and Close take the write lock.
type FileCache interface {
	// Get returns the mapped file, loading it on first access.
	Get(path string) (*MappedFile, error)

	// Read returns a private copy of the file contents. The copy stays valid
	// after the entry is invalidated or the cache is closed.
	Read(path string) ([]byte, error)

	// Invalidate unmaps path so the next Get reloads it.
	Invalidate(path string)

	// Size returns the number of cached files.
	Size() int

	Stats() FileCacheStats

	// Close unmaps every file.
	Close() error
}

// FileCacheConfig controls FileCache limits. Zero limits are unbounded.
type FileCacheConfig struct {
	MaxFiles      int
	MaxMemoryMB   int
	EnableMetrics bool
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultFileCacheConfig covers workspaces of a few thousand component files.
func DefaultFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{
		MaxFiles:      10000,
		MaxMemoryMB:   1024,
		EnableMetrics: true,
	}
}

// UnboundedFileCacheConfig disables both limits.
func UnboundedFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{EnableMetrics: true}
}

// MappedFile is one cached source file.
type MappedFile struct {
	Path string
	// Data is nil for empty files. It must not be retained after Invalidate
	// or Close; use Read for a stable copy.
	Data     mmap.MMap
	File     *os.File
	Size     int64
	MappedAt time.Time
	// fallback marks data read with os.ReadFile after mmap failed.
	fallback bool
}

// FileCacheStats reports cache activity.
type FileCacheStats struct {
	FilesLoaded   int64
	FilesCached   int
	CacheHits     int64
	CacheMisses   int64
	Invalidations int64
	MmapFailures  int64
	TotalMappedMB float64
}

// NewFileCache creates a FileCache. A nil config selects
// DefaultFileCacheConfig().
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = DefaultFileCacheConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &fileCache{
		config: config,
		logger: logger,
		files:  make(map[string]*MappedFile),
	}
}

type fileCache struct {
	config *FileCacheConfig
	logger *slog.Logger

	files map[string]*MappedFile
	mu    sync.RWMutex

	stats   FileCacheStats
	statsMu sync.Mutex
}

func (fc *fileCache) Get(path string) (*MappedFile, error) {
	fc.mu.RLock()
	if mf, ok := fc.files[path]; ok {
		fc.mu.RUnlock()
		fc.record(func(s *FileCacheStats) { s.CacheHits++ })
		return mf, nil
	}
	fc.mu.RUnlock()

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if mf, ok := fc.files[path]; ok {
		fc.record(func(s *FileCacheStats) { s.CacheHits++ })
		return mf, nil
	}
	fc.record(func(s *FileCacheStats) { s.CacheMisses++ })

	mf, err := fc.load(path)
	if err != nil {
		return nil, err
	}
	fc.files[path] = mf
	fc.record(func(s *FileCacheStats) { s.FilesLoaded++ })
	return mf, nil
}

func (fc *fileCache) Read(path string) ([]byte, error) {
	fc.mu.RLock()
	mf, ok := fc.files[path]
	if ok {
		data := append([]byte(nil), mf.Data...)
		fc.mu.RUnlock()
		fc.record(func(s *FileCacheStats) { s.CacheHits++ })
		return data, nil
	}
	fc.mu.RUnlock()

	if _, err := fc.Get(path); err != nil {
		return nil, err
	}

	// Copy under the read lock so a concurrent Invalidate cannot unmap the
	// region mid-copy.
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	mf, ok = fc.files[path]
	if !ok {
		return nil, fmt.Errorf("file %q was invalidated while reading", path)
	}
	return append([]byte(nil), mf.Data...), nil
}

// load opens and maps path. Must be called while holding mu.Lock.
func (fc *fileCache) load(path string) (*MappedFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", path, err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file %q: %w", path, err)
	}
	if err := fc.checkLimits(stat.Size()); err != nil {
		file.Close()
		return nil, err
	}

	if stat.Size() == 0 {
		return &MappedFile{Path: path, File: file, MappedAt: time.Now()}, nil
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		fc.logger.Warn("mmap failed, using fallback", "file", path, "size", stat.Size(), "error", err)
		file.Close()
		buf, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("mmap failed and fallback failed for %q: mmap error: %v, read error: %w",
				path, err, readErr)
		}
		fc.record(func(s *FileCacheStats) { s.MmapFailures++ })
		return &MappedFile{
			Path:     path,
			Data:     mmap.MMap(buf),
			Size:     int64(len(buf)),
			MappedAt: time.Now(),
			fallback: true,
		}, nil
	}

	return &MappedFile{
		Path:     path,
		Data:     data,
		File:     file,
		Size:     stat.Size(),
		MappedAt: time.Now(),
	}, nil
}

// checkLimits must be called while holding mu.Lock.
func (fc *fileCache) checkLimits(newSize int64) error {
	if fc.config.MaxFiles > 0 && len(fc.files) >= fc.config.MaxFiles {
		return fmt.Errorf("file cache limit reached: %d files (limit: %d files)",
			len(fc.files), fc.config.MaxFiles)
	}
	if fc.config.MaxMemoryMB > 0 && newSize > 0 {
		current := fc.mappedMBLocked()
		next := current + float64(newSize)/(1024*1024)
		if next >= float64(fc.config.MaxMemoryMB) {
			return fmt.Errorf("file cache memory limit reached: %.2f MB (limit: %d MB)",
				next, fc.config.MaxMemoryMB)
		}
	}
	return nil
}

func (fc *fileCache) Invalidate(path string) {
	fc.mu.Lock()
	mf, ok := fc.files[path]
	if ok {
		delete(fc.files, path)
	}
	fc.mu.Unlock()

	if !ok {
		return
	}
	if err := release(mf); err != nil {
		fc.logger.Warn("failed to release file", "path", path, "error", err)
	}
	fc.record(func(s *FileCacheStats) { s.Invalidations++ })
}

func (fc *fileCache) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return len(fc.files)
}

func (fc *fileCache) Stats() FileCacheStats {
	fc.mu.RLock()
	cached := len(fc.files)
	mapped := fc.mappedMBLocked()
	fc.mu.RUnlock()

	fc.statsMu.Lock()
	defer fc.statsMu.Unlock()
	stats := fc.stats
	stats.FilesCached = cached
	stats.TotalMappedMB = mapped
	return stats
}

// mappedMBLocked must be called while holding mu.
func (fc *fileCache) mappedMBLocked() float64 {
	var total int64
	for _, mf := range fc.files {
		total += mf.Size
	}
	return float64(total) / (1024 * 1024)
}

func (fc *fileCache) Close() error {
	fc.mu.Lock()
	files := fc.files
	fc.files = make(map[string]*MappedFile)
	fc.mu.Unlock()

	var errs []error
	for path, mf := range files {
		if err := release(mf); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}

	stats := fc.Stats()
	fc.logger.Debug("file cache closed",
		"files_loaded", stats.FilesLoaded,
		"cache_hits", stats.CacheHits,
		"invalidations", stats.Invalidations,
		"mmap_failures", stats.MmapFailures)

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

func release(mf *MappedFile) error {
	var err error
	if mf.Data != nil && !mf.fallback {
		err = mf.Data.Unmap()
	}
	if mf.File != nil {
		if cerr := mf.File.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (fc *fileCache) record(update func(*FileCacheStats)) {
	if !fc.config.EnableMetrics {
		return
	}
	fc.statsMu.Lock()
	update(&fc.stats)
	fc.statsMu.Unlock()
}

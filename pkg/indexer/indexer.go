package indexer

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/maruel/natural"
	"github.com/zeebo/blake3"

	"github.com/gnana997/twtrace/pkg/extract"
	"github.com/gnana997/twtrace/pkg/parser"
)

// FileEntry is the indexed outcome of one source file.
type FileEntry struct {
	Path string

	// Classes are the recognized classes of the file in document order.
	Classes []string

	Sites        int
	ChangedSites int

	IndexedAt time.Time
}

// ClassIndexConfig configures the class index.
type ClassIndexConfig struct {
	// MaxCachedResults bounds the content-addressed result cache.
	// Default: 1000 results
	MaxCachedResults int
}

// DefaultClassIndexConfig returns the default configuration.
func DefaultClassIndexConfig() ClassIndexConfig {
	return ClassIndexConfig{MaxCachedResults: 1000}
}

// ClassIndexStats provides statistics about the index state.
type ClassIndexStats struct {
	Files         int
	Classes       int
	CachedResults int
	CacheHits     int64
	CacheMisses   int64
	CacheHitRate  float64
	IndexedFiles  int64
}

// ClassIndex stores the recognized classes of every processed file.
//
// **Architecture:**
//   - files: path -> FileEntry, the source of truth for a build
//   - classFiles: class -> set of paths, maintained on every Put/Remove
//   - results: LRU of transform results keyed by content hash, so unchanged
//     files (editor re-saves, duplicate files) are not re-parsed
//
// **Thread Safety:** all methods are safe for concurrent use.
type ClassIndex struct {
	files      map[string]*FileEntry
	classFiles map[string]map[string]struct{}
	results    *lru.Cache[ContentKey, *extract.FileResult]

	mu sync.RWMutex

	indexedFiles atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64

	logger *slog.Logger
}

// ContentKey identifies file content under one grammar and transform mode.
type ContentKey [32]byte

// KeyFor hashes content together with the grammar it is parsed with and the
// obfuscation flag. The same bytes can parse under TSX and fail under TS.
func KeyFor(content []byte, dialect parser.Dialect, obfuscate bool) ContentKey {
	h := blake3.New()
	mode := byte(0)
	if obfuscate {
		mode = 1
	}
	_, _ = h.Write([]byte{byte(dialect), mode})
	_, _ = h.Write(content)
	var key ContentKey
	copy(key[:], h.Sum(nil))
	return key
}

// NewClassIndex creates an empty index. A nil logger selects slog.Default().
func NewClassIndex(config ClassIndexConfig, logger *slog.Logger) *ClassIndex {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxCachedResults <= 0 {
		config.MaxCachedResults = DefaultClassIndexConfig().MaxCachedResults
	}

	cache, err := lru.New[ContentKey, *extract.FileResult](config.MaxCachedResults)
	if err != nil {
		// Only possible for a non-positive size, excluded above.
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &ClassIndex{
		files:      make(map[string]*FileEntry, 256),
		classFiles: make(map[string]map[string]struct{}, 1024),
		results:    cache,
		logger:     logger,
	}
}

// Put records the classes of res, replacing any previous entry for the
// same path.
func (ci *ClassIndex) Put(res *extract.FileResult) *FileEntry {
	entry := &FileEntry{
		Path:         res.Path,
		Classes:      append([]string(nil), res.Classes...),
		Sites:        res.Sites,
		ChangedSites: res.ChangedSites,
		IndexedAt:    time.Now(),
	}

	ci.mu.Lock()
	defer ci.mu.Unlock()

	ci.removeLocked(res.Path)
	ci.files[res.Path] = entry
	for _, class := range entry.Classes {
		paths, ok := ci.classFiles[class]
		if !ok {
			paths = make(map[string]struct{}, 1)
			ci.classFiles[class] = paths
		}
		paths[res.Path] = struct{}{}
	}
	ci.indexedFiles.Add(1)
	return entry
}

// Remove drops path from the index. It reports whether the path was
// indexed.
func (ci *ClassIndex) Remove(path string) bool {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.removeLocked(path)
}

// removeLocked must be called with the write lock held.
func (ci *ClassIndex) removeLocked(path string) bool {
	old, ok := ci.files[path]
	if !ok {
		return false
	}
	for _, class := range old.Classes {
		paths := ci.classFiles[class]
		delete(paths, path)
		if len(paths) == 0 {
			delete(ci.classFiles, class)
		}
	}
	delete(ci.files, path)
	return true
}

// File returns the entry for path.
func (ci *ClassIndex) File(path string) (FileEntry, bool) {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	entry, ok := ci.files[path]
	if !ok {
		return FileEntry{}, false
	}
	return *entry, true
}

// Paths returns the indexed paths in natural order.
func (ci *ClassIndex) Paths() []string {
	ci.mu.RLock()
	paths := make([]string, 0, len(ci.files))
	for path := range ci.files {
		paths = append(paths, path)
	}
	ci.mu.RUnlock()

	sortNatural(paths)
	return paths
}

// Classes returns every distinct class: files in natural path order, then
// document order within a file. The order is stable across runs regardless
// of worker scheduling.
func (ci *ClassIndex) Classes() []string {
	paths := ci.Paths()

	ci.mu.RLock()
	defer ci.mu.RUnlock()

	agg := extract.NewAggregator()
	for _, path := range paths {
		if entry, ok := ci.files[path]; ok {
			agg.AddAll(entry.Classes)
		}
	}
	return agg.Items()
}

// Files returns the paths using class in natural order.
func (ci *ClassIndex) Files(class string) []string {
	ci.mu.RLock()
	paths := make([]string, 0, len(ci.classFiles[class]))
	for path := range ci.classFiles[class] {
		paths = append(paths, path)
	}
	ci.mu.RUnlock()

	sortNatural(paths)
	return paths
}

// Count returns the number of files using class.
func (ci *ClassIndex) Count(class string) int {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	return len(ci.classFiles[class])
}

// Len returns the number of indexed files.
func (ci *ClassIndex) Len() int {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	return len(ci.files)
}

// CachedResult returns a cached transform result for content, re-labelled
// with path.
func (ci *ClassIndex) CachedResult(key ContentKey, path string) (*extract.FileResult, bool) {
	res, ok := ci.results.Get(key)
	if !ok {
		ci.cacheMisses.Add(1)
		return nil, false
	}
	ci.cacheHits.Add(1)
	clone := *res
	clone.Path = path
	return &clone, true
}

// CacheResult remembers res for content with the given key.
func (ci *ClassIndex) CacheResult(key ContentKey, res *extract.FileResult) {
	ci.results.Add(key, res)
}

// GetStats returns current index statistics.
func (ci *ClassIndex) GetStats() ClassIndexStats {
	ci.mu.RLock()
	files := len(ci.files)
	classes := len(ci.classFiles)
	ci.mu.RUnlock()

	hits := ci.cacheHits.Load()
	misses := ci.cacheMisses.Load()
	rate := 0.0
	if hits+misses > 0 {
		rate = float64(hits) / float64(hits+misses)
	}

	return ClassIndexStats{
		Files:         files,
		Classes:       classes,
		CachedResults: ci.results.Len(),
		CacheHits:     hits,
		CacheMisses:   misses,
		CacheHitRate:  rate,
		IndexedFiles:  ci.indexedFiles.Load(),
	}
}

// Reset empties the index and the result cache.
func (ci *ClassIndex) Reset() {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	ci.files = make(map[string]*FileEntry, 256)
	ci.classFiles = make(map[string]map[string]struct{}, 1024)
	ci.results.Purge()

	ci.logger.Debug("class index reset")
}

func sortNatural(paths []string) {
	sort.Slice(paths, func(i, j int) bool { return natural.Less(paths[i], paths[j]) })
}

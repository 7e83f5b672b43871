// Package parser owns the tree-sitter grammars used to read JavaScript and
// TypeScript sources, with a lazily grown pool of parsers per dialect.
package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/gnana997/twtrace/pkg/util"
)

// Manager hands out parse trees for the supported dialects.
//
// Memory Management:
//   - Parser pools are created lazily on first use per dialect
//   - Manager owns the pools and must be closed via Close()
//   - Callers own Tree instances and must call tree.Close() after use
//
// Thread Safety:
//   - Multiple goroutines can parse the same dialect simultaneously
//   - Pool creation uses double-checked locking
//
// Example:
//
//	manager := parser.NewManager(logger)
//	defer manager.Close()
//
//	tree, err := manager.Parse([]byte(`<a className="p-4" />`), parser.DialectTSX)
//	if err != nil {
//	    return err
//	}
//	defer tree.Close()
type Manager struct {
	pools    map[Dialect]*parserPool
	poolSize int
	mutex    sync.RWMutex
	logger   *slog.Logger

	stats struct {
		parsesCalled int
	}
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPoolSize overrides the number of parsers per dialect. Zero keeps the
// CPU-based default, which matches the worker pool so workers never wait on a
// parser.
func WithPoolSize(n int) ManagerOption {
	return func(m *Manager) {
		m.poolSize = util.PoolSize(n)
	}
}

// NewManager creates a Manager. A nil logger selects slog.Default().
func NewManager(logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		pools:    make(map[Dialect]*parserPool),
		poolSize: util.PoolSize(0),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Parse parses source with the grammar of dialect.
//
// Syntax errors do not fail Parse; tree-sitter always produces a tree. Use
// FirstSyntaxError to decide whether the tree is usable.
//
// Returns a Tree that MUST be closed by the caller via tree.Close().
func (m *Manager) Parse(source []byte, dialect Dialect) (*ts.Tree, error) {
	if dialect == DialectUnknown {
		return nil, fmt.Errorf("cannot parse unknown dialect")
	}

	m.mutex.Lock()
	m.stats.parsesCalled++
	m.mutex.Unlock()

	pool, err := m.getOrCreatePool(dialect)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool for %s: %w", dialect, err)
	}

	p, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}
	tree := p.Parse(source, nil)
	pool.release(p)

	if tree == nil {
		return nil, fmt.Errorf("parser returned no tree for %s source", dialect)
	}
	return tree, nil
}

// ParseFile parses source with the dialect implied by path.
func (m *Manager) ParseFile(source []byte, path string) (*ts.Tree, error) {
	dialect := DialectForPath(path)
	if dialect == DialectUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", path)
	}
	return m.Parse(source, dialect)
}

// Close releases all parser pools. The Manager cannot be used afterwards.
func (m *Manager) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.logger.Debug("closing parser manager",
		"pools", len(m.pools),
		"parses_called", m.stats.parsesCalled)

	for _, pool := range m.pools {
		pool.close()
	}
	m.pools = make(map[Dialect]*parserPool)
	return nil
}

func (m *Manager) getOrCreatePool(dialect Dialect) (*parserPool, error) {
	m.mutex.RLock()
	pool, exists := m.pools[dialect]
	m.mutex.RUnlock()
	if exists {
		return pool, nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if pool, exists = m.pools[dialect]; exists {
		return pool, nil
	}

	grammar, err := grammarFor(dialect)
	if err != nil {
		return nil, err
	}
	pool = newParserPool(dialect, grammar, m.poolSize, m.logger)
	m.pools[dialect] = pool

	m.logger.Debug("created parser pool", "dialect", dialect.String(), "max_size", m.poolSize)
	return pool, nil
}

func grammarFor(dialect Dialect) (unsafe.Pointer, error) {
	switch dialect {
	case DialectTSX:
		return ts_typescript.LanguageTSX(), nil
	case DialectTypeScript:
		return ts_typescript.LanguageTypescript(), nil
	case DialectJavaScript:
		return ts_javascript.Language(), nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

// Stats returns parser usage counters.
func (m *Manager) Stats() Stats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	total := 0
	for _, pool := range m.pools {
		total += pool.createdCount()
	}
	return Stats{ParsersCreated: total, ParsesCalled: m.stats.parsesCalled}
}

// Stats contains parser usage counters.
type Stats struct {
	ParsersCreated int
	ParsesCalled   int
}

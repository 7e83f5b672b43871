package classes

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/twtrace/pkg/tailwind"
)

// DefaultCacheSize is the number of class strings a Transformer remembers
// when built with NewDefaultTransformer.
const DefaultCacheSize = 4096

type cacheKey struct {
	obfuscate bool
	value     string
}

// Transformer is the entry point for class attribute values.
//
// Results are memoized in an LRU cache keyed on (obfuscate, value). This is
// sound because the transform is a pure function of its input and of an
// identifier table that is stable for the lifetime of a build.
//
// **Thread Safety:** Transformer is safe for concurrent use.
type Transformer struct {
	splitter  *Splitter
	cacheSize int
	cache     *lru.Cache[cacheKey, Result]
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithCacheSize sets the memo cache size. Zero or negative disables caching.
func WithCacheSize(n int) Option {
	return func(t *Transformer) {
		t.cacheSize = n
	}
}

// NewTransformer creates a transformer over splitter. A nil splitter selects
// NewSplitter(nil, nil).
func NewTransformer(splitter *Splitter, opts ...Option) (*Transformer, error) {
	if splitter == nil {
		splitter = NewSplitter(nil, nil)
	}
	t := &Transformer{splitter: splitter}
	for _, opt := range opts {
		opt(t)
	}
	if t.cacheSize > 0 {
		cache, err := lru.New[cacheKey, Result](t.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create transform cache: %w", err)
		}
		t.cache = cache
	}
	return t, nil
}

// NewDefaultTransformer builds a cached transformer over catalog (nil for the
// bundled one) with an optional identifier table for obfuscation.
func NewDefaultTransformer(catalog *tailwind.Catalog, idents tailwind.IdentTable) (*Transformer, error) {
	classifier := tailwind.NewClassifier(catalog)
	tracer := tailwind.NewTracer(classifier.Catalog(), idents)
	return NewTransformer(NewSplitter(classifier, tracer), WithCacheSize(DefaultCacheSize))
}

// Splitter returns the underlying splitter.
func (t *Transformer) Splitter() *Splitter {
	return t.splitter
}

// Transform rewrites a class attribute value.
//
// When no token changes, Output is value byte-for-byte. Otherwise the leading
// and trailing whitespace is kept and internal whitespace runs collapse to a
// single space.
func (t *Transformer) Transform(value string, obfuscate bool) Result {
	if t.cache == nil {
		return t.splitter.SplitAndTrace(value, obfuscate)
	}

	key := cacheKey{obfuscate: obfuscate, value: value}
	if res, ok := t.cache.Get(key); ok {
		return cloneResult(res)
	}
	res := t.splitter.SplitAndTrace(value, obfuscate)
	t.cache.Add(key, res)
	return cloneResult(res)
}

// CacheLen returns the number of memoized class strings.
func (t *Transformer) CacheLen() int {
	if t.cache == nil {
		return 0
	}
	return t.cache.Len()
}

// cloneResult copies the class slice so callers cannot mutate cached entries.
func cloneResult(r Result) Result {
	if r.Classes != nil {
		r.Classes = append([]string(nil), r.Classes...)
	}
	return r
}

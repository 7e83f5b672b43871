package indexer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/twtrace/pkg/extract"
	"github.com/gnana997/twtrace/pkg/parser"
)

func result(path string, classes ...string) *extract.FileResult {
	return &extract.FileResult{Path: path, Classes: classes, Sites: 1}
}

func TestClassIndexPutAndQuery(t *testing.T) {
	ci := NewClassIndex(DefaultClassIndexConfig(), quietLogger())

	ci.Put(result("src/file10.tsx", "p-4", "flex"))
	ci.Put(result("src/file2.tsx", "flex", "bg-white"))

	assert.Equal(t, 2, ci.Len())
	assert.Equal(t, []string{"src/file2.tsx", "src/file10.tsx"}, ci.Paths())
	assert.Equal(t, []string{"flex", "bg-white", "p-4"}, ci.Classes())
	assert.Equal(t, []string{"src/file2.tsx", "src/file10.tsx"}, ci.Files("flex"))
	assert.Equal(t, 2, ci.Count("flex"))
	assert.Equal(t, 0, ci.Count("grid"))

	entry, ok := ci.File("src/file2.tsx")
	require.True(t, ok)
	assert.Equal(t, []string{"flex", "bg-white"}, entry.Classes)
	assert.False(t, entry.IndexedAt.IsZero())
}

func TestClassIndexReplaceAndRemove(t *testing.T) {
	ci := NewClassIndex(DefaultClassIndexConfig(), quietLogger())

	ci.Put(result("a.tsx", "p-4", "flex"))
	ci.Put(result("a.tsx", "grid"))
	assert.Equal(t, []string{"grid"}, ci.Classes())
	assert.Equal(t, 0, ci.Count("p-4"))

	assert.True(t, ci.Remove("a.tsx"))
	assert.False(t, ci.Remove("a.tsx"))
	assert.Empty(t, ci.Classes())
	assert.Equal(t, 0, ci.GetStats().Classes)
}

func TestClassIndexResultCache(t *testing.T) {
	ci := NewClassIndex(ClassIndexConfig{MaxCachedResults: 2}, quietLogger())

	content := []byte(`const a = "p-4 flex";`)
	key := KeyFor(content, parser.DialectTypeScript, false)
	assert.NotEqual(t, key, KeyFor(content, parser.DialectTypeScript, true))
	assert.NotEqual(t, key, KeyFor(content, parser.DialectTSX, false))

	_, ok := ci.CachedResult(key, "a.ts")
	assert.False(t, ok)

	ci.CacheResult(key, result("a.ts", "p-4", "flex"))
	hit, ok := ci.CachedResult(key, "copy/a.ts")
	require.True(t, ok)
	assert.Equal(t, "copy/a.ts", hit.Path)
	assert.Equal(t, []string{"p-4", "flex"}, hit.Classes)

	stats := ci.GetStats()
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(1), stats.CacheMisses)
	assert.Equal(t, 1, stats.CachedResults)
	assert.InDelta(t, 0.5, stats.CacheHitRate, 1e-9)

	ci.Reset()
	assert.Equal(t, 0, ci.GetStats().CachedResults)
	assert.Equal(t, 0, ci.Len())
}

func TestClassIndexConcurrentPut(t *testing.T) {
	ci := NewClassIndex(DefaultClassIndexConfig(), quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ci.Put(result(fmt.Sprintf("f%d.tsx", i), "flex", fmt.Sprintf("p-%d", i%5)))
			_ = ci.Classes()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, ci.Len())
	assert.Equal(t, 50, ci.Count("flex"))
	assert.Equal(t, int64(50), ci.GetStats().IndexedFiles)
	assert.Equal(t, "flex", ci.Classes()[0])
}

package parser

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	m := NewManager(logger)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestParseDialects(t *testing.T) {
	manager := newTestManager(t)

	testCases := []struct {
		fileName string
		dialect  Dialect
		contains string
	}{
		{"sample.tsx", DialectTSX, "jsx_element"},
		{"sample.ts", DialectTypeScript, "template_string"},
		{"sample.js", DialectJavaScript, "jsx_element"},
	}

	for _, tc := range testCases {
		t.Run(tc.fileName, func(t *testing.T) {
			source := readTestFile(t, tc.fileName)
			tree, err := manager.Parse(source, tc.dialect)
			require.NoError(t, err)
			require.NotNil(t, tree)
			defer tree.Close()

			root := tree.RootNode()
			assert.Equal(t, "program", root.Kind())
			assert.False(t, root.HasError(), "fixture should parse cleanly")
			assert.Contains(t, root.ToSexp(), tc.contains)
		})
	}
}

func TestParseFile(t *testing.T) {
	manager := newTestManager(t)

	for _, name := range []string{"sample.ts", "sample.tsx", "sample.js"} {
		t.Run(name, func(t *testing.T) {
			tree, err := manager.ParseFile(readTestFile(t, name), name)
			require.NoError(t, err)
			defer tree.Close()
			assert.Equal(t, "program", tree.RootNode().Kind())
		})
	}

	_, err := manager.ParseFile([]byte("body {}"), "style.css")
	assert.Error(t, err)
}

func TestParseUnknownDialect(t *testing.T) {
	manager := newTestManager(t)
	tree, err := manager.Parse([]byte("x"), DialectUnknown)
	assert.Error(t, err)
	assert.Nil(t, tree)
}

func TestLazyInitialization(t *testing.T) {
	manager := newTestManager(t)
	assert.Equal(t, 0, manager.Stats().ParsersCreated)

	source := []byte("const x = 1;")
	for i := 0; i < 2; i++ {
		tree, err := manager.Parse(source, DialectTypeScript)
		require.NoError(t, err)
		tree.Close()
	}
	stats := manager.Stats()
	assert.Equal(t, 1, stats.ParsersCreated, "sequential parses should reuse one parser")
	assert.Equal(t, 2, stats.ParsesCalled)

	tree, err := manager.Parse(source, DialectJavaScript)
	require.NoError(t, err)
	tree.Close()
	assert.Equal(t, 2, manager.Stats().ParsersCreated)
}

func TestCloseClearsPools(t *testing.T) {
	manager := NewManager(nil)
	for _, d := range SupportedDialects() {
		tree, err := manager.Parse([]byte("let a = 1;"), d)
		require.NoError(t, err)
		tree.Close()
	}
	require.NoError(t, manager.Close())
	assert.Empty(t, manager.pools)
}

func TestWithPoolSize(t *testing.T) {
	m := NewManager(nil, WithPoolSize(3))
	defer m.Close()
	assert.Equal(t, 3, m.poolSize)

	m2 := NewManager(nil, WithPoolSize(0))
	defer m2.Close()
	assert.GreaterOrEqual(t, m2.poolSize, 4)
}

func TestDialectForPath(t *testing.T) {
	testCases := []struct {
		path string
		want Dialect
	}{
		{"a.tsx", DialectTSX},
		{"a.TSX", DialectTSX},
		{"a.ts", DialectTypeScript},
		{"a.mts", DialectTypeScript},
		{"a.js", DialectJavaScript},
		{"a.jsx", DialectJavaScript},
		{"a.cjs", DialectJavaScript},
		{"a.css", DialectUnknown},
		{"Makefile", DialectUnknown},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, DialectForPath(tc.path), tc.path)
	}
}

func TestParseDialect(t *testing.T) {
	assert.Equal(t, DialectTSX, ParseDialect(""))
	assert.Equal(t, DialectTSX, ParseDialect("TSX"))
	assert.Equal(t, DialectTypeScript, ParseDialect("ts"))
	assert.Equal(t, DialectJavaScript, ParseDialect("jsx"))
	assert.Equal(t, DialectUnknown, ParseDialect("python"))
	assert.Equal(t, "tsx", DialectTSX.String())
	assert.Equal(t, "unknown", DialectUnknown.String())
}

func TestFirstSyntaxError(t *testing.T) {
	manager := newTestManager(t)

	source := []byte("const ok = 1;\nconst x = = 2;\n")
	tree, err := manager.Parse(source, DialectTypeScript)
	require.NoError(t, err, "syntax errors are reported through the tree, not Parse")
	defer tree.Close()

	se, found := FirstSyntaxError(tree.RootNode(), source)
	require.True(t, found)
	assert.Equal(t, 2, se.Line)
	assert.Greater(t, se.Column, 0)
	assert.Equal(t, "const x = = 2;", se.Snippet)
	assert.Contains(t, se.Error(), "2:")
}

func TestFirstSyntaxErrorCleanTree(t *testing.T) {
	manager := newTestManager(t)
	source := readTestFile(t, "sample.tsx")
	tree, err := manager.Parse(source, DialectTSX)
	require.NoError(t, err)
	defer tree.Close()

	_, found := FirstSyntaxError(tree.RootNode(), source)
	assert.False(t, found)
}

func readTestFile(t *testing.T, fileName string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", fileName))
	require.NoError(t, err, "Should be able to read test file %s", fileName)
	return data
}

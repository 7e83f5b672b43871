package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/twtrace/pkg/classes"
	"github.com/gnana997/twtrace/pkg/obfuscate"
	"github.com/gnana997/twtrace/pkg/parser"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestTransformFileFixture(t *testing.T) {
	e := newTestEngine(t, Config{})

	res, err := e.TransformFile("testdata/Card.tsx", readFixture(t, "Card.tsx"), false)
	require.NoError(t, err)

	assert.Equal(t, string(readFixture(t, "Card.expected.tsx")), string(res.Source))
	assert.Equal(t, []string{
		"bg-white", "text-gray-900", "bg-gray-900", "text-white",
		"max-w-4xl", "gap-7", "font-bold",
	}, res.Classes)
	assert.Equal(t, 4, res.Sites)
	assert.Equal(t, 4, res.ChangedSites)
	assert.True(t, res.Changed)
	assert.Equal(t, parser.DialectTSX, res.Dialect)
}

func TestTransformSourceScenarios(t *testing.T) {
	e := newTestEngine(t, Config{})

	tests := []struct {
		name    string
		src     string
		want    string
		classes []string
	}{
		{
			name:    "jsx attribute",
			src:     `const A = () => <div className="bg-white">x</div>;`,
			want:    `const A = () => <div className="bg-[#FFFFFFFF]">x</div>;`,
			classes: []string{"bg-white"},
		},
		{
			name:    "custom prefix",
			src:     `const c = "my-component bg-blue-500 text-white";`,
			want:    `const c = "my-component bg-[#3B82F6FF] text-white";`,
			classes: []string{"bg-blue-500", "text-white"},
		},
		{
			name:    "custom suffix",
			src:     `const c = "bg-blue-500 text-white my-component";`,
			want:    `const c = "bg-[#3B82F6FF] text-white my-component";`,
			classes: []string{"bg-blue-500", "text-white"},
		},
		{
			name:    "per token",
			src:     `const c = "my-component other-custom bg-blue-500";`,
			want:    `const c = "my-component other-custom bg-[#3B82F6FF]";`,
			classes: []string{"bg-blue-500"},
		},
		{
			name:    "template with substitution",
			src:     "const c = `text-${size}-xl`;",
			want:    "const c = `text-${size}-xl`;",
			classes: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.TransformSource([]byte(tt.src), false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(res.Source))
			assert.Equal(t, tt.classes, res.Classes)
			assert.Equal(t, tt.want != tt.src, res.Changed)
		})
	}
}

func TestTransformSourceParseError(t *testing.T) {
	e := newTestEngine(t, Config{})

	_, err := e.TransformFile("testdata/broken.tsx", readFixture(t, "broken.tsx"), false)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "testdata/broken.tsx", perr.Path)
	assert.Greater(t, perr.Line, 0)
	assert.Contains(t, err.Error(), "parse error in testdata/broken.tsx:")
}

func TestTransformFileUnsupportedExtension(t *testing.T) {
	e := newTestEngine(t, Config{})
	_, err := e.TransformFile("styles.css", []byte("a{}"), false)
	assert.Error(t, err)
}

func TestTransformSourceIsIdempotent(t *testing.T) {
	e := newTestEngine(t, Config{})

	first, err := e.TransformFile("Card.tsx", readFixture(t, "Card.tsx"), false)
	require.NoError(t, err)
	second, err := e.TransformFile("Card.tsx", first.Source, false)
	require.NoError(t, err)

	assert.Equal(t, string(first.Source), string(second.Source))
	assert.False(t, second.Changed)
}

func TestTransformObfuscatedWithSharedTable(t *testing.T) {
	table := obfuscate.NewTable(obfuscate.Options{Seed: 42})
	tr, err := classes.NewDefaultTransformer(nil, table)
	require.NoError(t, err)
	e := newTestEngine(t, Config{Transformer: tr})

	const files = 24
	outputs := make([]string, files)
	var wg sync.WaitGroup
	for i := 0; i < files; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := fmt.Sprintf(`const A%d = () => <div className="card bg-white gap-7">x</div>;`, i)
			res, err := e.TransformSource([]byte(src), true)
			if err != nil {
				return
			}
			outputs[i] = string(res.Source)
		}(i)
	}
	wg.Wait()

	white, ok := table.Lookup("bg-[#FFFFFFFF]")
	require.True(t, ok)
	gap, ok := table.Lookup("gap-[1.75rem]")
	require.True(t, ok)

	for i, out := range outputs {
		want := fmt.Sprintf(`const A%d = () => <div className="card %s %s">x</div>;`, i, white, gap)
		assert.Equal(t, want, out)
	}
}

func TestSharedParserManagerIsNotClosed(t *testing.T) {
	m := parser.NewManager(nil)
	defer m.Close()

	e, err := NewEngine(Config{Parsers: m})
	require.NoError(t, err)
	require.NoError(t, e.Close())

	tree, err := m.Parse([]byte("let a = 1;"), parser.DialectJavaScript)
	require.NoError(t, err)
	tree.Close()
}

func TestTransformSourceIsTSX(t *testing.T) {
	e := newTestEngine(t, Config{})
	src := []byte("const n = <number>value;\nconst c = \"bg-white p-4\";\n")

	_, err := e.TransformSource(src, false)
	var perr *ParseError
	require.True(t, errors.As(err, &perr), "angle-bracket assertions do not parse as TSX")

	res, err := e.TransformFile("cast.ts", src, false)
	require.NoError(t, err)
	assert.Equal(t, parser.DialectTypeScript, res.Dialect)
	assert.Equal(t, "const n = <number>value;\nconst c = \"bg-[#FFFFFFFF] p-[1rem]\";\n", string(res.Source))
}

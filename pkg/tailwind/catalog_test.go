package tailwind

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.NotNil(t, c)
	assert.Equal(t, 1, c.Version)
	assert.Same(t, c, DefaultCatalog(), "default catalogue should be parsed once")

	assert.True(t, c.IsKeyword("flex"))
	assert.True(t, c.IsBreakpoint("2xl"))
	assert.False(t, c.IsBreakpoint("hover"))

	fam, ok := c.Family("max-w")
	require.True(t, ok)
	assert.Equal(t, TraceRename, fam.Trace)
	assert.Equal(t, "max-width", fam.Rename)

	hex, ok := c.Color("blue-500")
	require.True(t, ok)
	assert.Equal(t, "#3b82f6", hex)

	hex, ok = c.Color("current")
	assert.True(t, ok)
	assert.Empty(t, hex)
}

func TestScaleValue(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		scale, key, want string
		ok               bool
	}{
		{"spacing", "7", "1.75rem", true},
		{"spacing", "px", "1px", true},
		{"spacing", "13", "", false},
		{"font-weight", "bold", "700", true},
		{ScaleFraction, "1/2", "50%", true},
		{ScaleFraction, "2/3", "66.666667%", true},
		{ScaleFraction, "3/3", "", false},
		{ScaleFraction, "1/7", "", false},
		{ScaleInteger, "12", "12", true},
		{ScaleInteger, "x", "", false},
		{ScaleColor, "white", "#FFFFFF", true},
		{"missing", "1", "", false},
	}
	for _, tt := range tests {
		got, ok := c.ScaleValue(tt.scale, tt.key)
		assert.Equal(t, tt.ok, ok, "%s/%s", tt.scale, tt.key)
		assert.Equal(t, tt.want, got, "%s/%s", tt.scale, tt.key)
	}
}

func TestLoadCatalogValidation(t *testing.T) {
	_, err := LoadCatalogBytes([]byte("version: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one family is required")

	bad := `
version: 1
families:
  - prefixes: [p]
    scales: [nope]
  - prefixes: [p]
    trace: rename
shades: ["50"]
palettes:
  red: ["#zzzzzz"]
`
	_, err = LoadCatalogBytes([]byte(bad))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `unknown scale "nope"`)
	assert.Contains(t, msg, `duplicate prefix "p"`)
	assert.Contains(t, msg, "rename trace needs a rename target")
	assert.Contains(t, msg, `invalid colour "#zzzzzz"`)

	_, err = LoadCatalogBytes([]byte("families: [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse catalogue")
}

func TestLoadCatalogFile(t *testing.T) {
	yaml := `
version: 2
breakpoints: [tablet]
keywords: [stack]
scales:
  space:
    "1": 4px
families:
  - prefixes: [pad]
    scales: [space]
    trace: bracket
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	c, err := LoadCatalogFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Version)

	cls := NewClassifier(c)
	assert.True(t, cls.Classify("tablet:pad-1").Recognized())
	assert.True(t, cls.Classify("stack").Recognized())
	assert.False(t, cls.Classify("flex").Recognized(), "custom catalogue replaces the default one")

	tok := cls.Classify("pad-1").Token
	require.NotNil(t, tok)
	assert.Equal(t, "pad-[4px]", NewTracer(c, nil).Trace(*tok, false).Canonical)

	_, err = LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to open catalogue"))
}

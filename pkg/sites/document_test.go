package sites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRender(t *testing.T) {
	src := []byte(`a("p-4", 'gap-7', "flex")`)
	doc := NewDocument(src, []Site{
		{Start: 3, End: 6, Text: "p-4", Delimiter: '"'},
		{Start: 10, End: 15, Text: "gap-7", Delimiter: '\''},
		{Start: 19, End: 23, Text: "flex", Delimiter: '"'},
	})

	assert.Equal(t, src, doc.Render(), "no replacements renders the input")

	require.NoError(t, doc.Replace(2, "grid"))
	require.NoError(t, doc.Replace(0, "p-[1rem]"))
	assert.Equal(t, 2, doc.Changed())
	assert.Equal(t, `a("p-[1rem]", 'gap-7', "grid")`, string(doc.Render()))

	// Replacing with the original text cancels the edit.
	require.NoError(t, doc.Replace(2, "flex"))
	assert.Equal(t, 1, doc.Changed())
	assert.Equal(t, `a("p-[1rem]", 'gap-7', "flex")`, string(doc.Render()))
}

func TestDocumentReplaceRejectsUnsafeText(t *testing.T) {
	doc := NewDocument([]byte("x"), []Site{
		{Text: "a", Delimiter: '"'},
		{Text: "b", Delimiter: '\''},
		{Text: "c", Delimiter: '`'},
	})

	assert.ErrorIs(t, doc.Replace(0, `say "hi"`), ErrUnsafeReplacement)
	assert.ErrorIs(t, doc.Replace(1, "it's"), ErrUnsafeReplacement)
	assert.ErrorIs(t, doc.Replace(2, "${x}"), ErrUnsafeReplacement)
	assert.ErrorIs(t, doc.Replace(0, `a\b`), ErrUnsafeReplacement)
	assert.NoError(t, doc.Replace(1, `content-["x"]`))
	assert.Error(t, doc.Replace(9, "x"))
}

func TestLooksLikeClasses(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"flex items-center", true},
		{"bg-white", true},
		{"md:flex", true},
		{"w-[3px]", true},
		{"p-0.5 m-1.5", true},
		{"two words", true},
		{"flex", false},
		{"x", false},
		{"", false},
		{"https://example.com", false},
		{"/api/users", false},
		{"./file", false},
		{"../file", false},
		{`a\b c`, false},
		{"Hello, world", false},
		{"Really?", false},
		{"Wow! nice", false},
		{"end of sentence.", false},
		{"key=value x-y", false},
		{"emoji 🎉-x", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, looksLikeClasses(tt.in), "%q", tt.in)
	}
}

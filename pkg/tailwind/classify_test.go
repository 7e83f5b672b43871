package tailwind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRecognized(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		token string
		base  string
		value string
		kind  ValueKind
	}{
		{"flex", "flex", "", KindKeyword},
		{"border", "border", "", KindKeyword},
		{"bg-white", "bg", "white", KindScale},
		{"bg-blue-500", "bg", "blue-500", KindScale},
		{"text-white", "text", "white", KindScale},
		{"text-lg", "text", "lg", KindFamilyKeyword},
		{"gap-7", "gap", "7", KindScale},
		{"p-0.5", "p", "0.5", KindScale},
		{"font-bold", "font", "bold", KindScale},
		{"font-mono", "font", "mono", KindFamilyKeyword},
		{"max-w-4xl", "max-w", "4xl", KindFamilyKeyword},
		{"w-1/2", "w", "1/2", KindScale},
		{"w-[3px]", "w", "[3px]", KindArbitrary},
		{"grid-cols-12", "grid-cols", "12", KindScale},
		{"gap-x-4", "gap-x", "4", KindScale},
		{"bg-red-500/[.3]", "bg", "red-500", KindScale},
		{"bg-red-500/50", "bg", "red-500", KindScale},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got := c.Classify(tt.token)
			require.True(t, got.Recognized(), "token should be recognized")
			assert.Equal(t, tt.base, got.Token.Base)
			assert.Equal(t, tt.value, got.Token.Value)
			assert.Equal(t, tt.kind, got.Token.Kind)
			assert.Equal(t, tt.token, got.Token.String(), "token should reassemble to its source text")
		})
	}
}

func TestClassifyVariantsAndImportant(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		token           string
		variants        []string
		important       bool
		importantOnBase bool
	}{
		{"hover:bg-white", []string{"hover"}, false, false},
		{"md:hover:p-4", []string{"md", "hover"}, false, false},
		{"!p-4", nil, true, false},
		{"hover:!p-4", []string{"hover"}, false, true},
		{"max-md:hidden", []string{"max-md"}, false, false},
		{"group-hover:text-white", []string{"group-hover"}, false, false},
		{"group-hover/item:underline", []string{"group-hover/item"}, false, false},
		{"peer-checked:bg-blue-500", []string{"peer-checked"}, false, false},
		{"data-[state=open]:flex", []string{"data-[state=open]"}, false, false},
		{"aria-expanded:rotate-180", []string{"aria-expanded"}, false, false},
		{"[&_svg]:w-4", []string{"[&_svg]"}, false, false},
		{"nth-3:underline", []string{"nth-3"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got := c.Classify(tt.token)
			require.True(t, got.Recognized())
			assert.Equal(t, tt.variants, got.Token.Variants)
			assert.Equal(t, tt.important, got.Token.Important)
			assert.Equal(t, tt.importantOnBase, got.Token.ImportantOnBase)
			assert.Equal(t, tt.token, got.Token.String())
		})
	}
}

func TestClassifyNegativeAndProperties(t *testing.T) {
	c := NewClassifier(nil)

	got := c.Classify("-m-4")
	require.True(t, got.Recognized())
	assert.True(t, got.Token.Negative)
	assert.Equal(t, "m", got.Token.Base)

	got = c.Classify("-translate-x-1/2")
	require.True(t, got.Recognized())
	assert.Equal(t, "translate-x", got.Token.Base)

	got = c.Classify("[mask-type:luminance]")
	require.True(t, got.Recognized())
	assert.Equal(t, KindProperty, got.Token.Kind)
	assert.Equal(t, "", got.Token.Base)
	assert.Equal(t, "[mask-type:luminance]", got.Token.String())

	got = c.Classify("bg-red-500/50")
	require.True(t, got.Recognized())
	assert.Equal(t, "red-500", got.Token.Value)
	assert.Equal(t, "50", got.Token.Modifier)

	got = c.Classify("bg-[#123456]/[.3]")
	require.True(t, got.Recognized())
	assert.Equal(t, "[.3]", got.Token.Modifier)

	got = c.Classify("hover:bg-red-500/[.3]")
	require.True(t, got.Recognized())
	assert.Equal(t, "red-500", got.Token.Value)
	assert.Equal(t, "[.3]", got.Token.Modifier)
	assert.Equal(t, KindScale, got.Token.Kind)
}

func TestClassifyUnrecognized(t *testing.T) {
	c := NewClassifier(nil)

	tokens := []string{
		"",
		"foo",
		"my-custom-class",
		"bg-notacolor",
		"gap-13",
		"-p-4",           // padding does not accept negatives
		"-bg-white",      // colours are never negative
		"-flex",          // keywords are never negative
		"hoverr:flex",    // unknown variant
		"w-[3px",         // unbalanced
		"w-[]",           // empty arbitrary value
		"text-[",         // unbalanced
		"[mask-type]",    // property without value
		"p-4/50",         // modifier on a non-colour family
		"bg-white/150",   // opacity out of range
		"<div>",          // markup
		"a{b}",           // braces
		"p-4;",           // semicolon
		"hover:",         // empty utility
		":flex",          // empty variant
		"max-w-[10px]/5", // modifier on a non-colour arbitrary
		"bg-red-500/[.3", // unbalanced opacity
		"p-4/[.3]",       // arbitrary opacity on a non-colour family
		"bg-notacolor/[.3]",
	}
	for _, tok := range tokens {
		got := c.Classify(tok)
		assert.False(t, got.Recognized(), "token %q should not be recognized", tok)
		assert.Equal(t, tok, got.Raw)
	}
}

func TestClassifyRejectsLongTokens(t *testing.T) {
	c := NewClassifier(nil)
	long := "p-4"
	for len(long) <= maxTokenLength {
		long = "hover:" + long
	}
	assert.False(t, c.Classify(long).Recognized())
}

func TestSuggest(t *testing.T) {
	c := NewClassifier(nil)

	assert.Equal(t, "flex", c.Suggest("flx"))
	assert.Equal(t, "hover:flex", c.Suggest("hover:flx"))
	assert.Equal(t, "", c.Suggest("flex"), "exact matches have no suggestion")
	assert.Equal(t, "", c.Suggest("completely-unrelated-name"))
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("flex", "flex"))
	assert.Equal(t, 1, levenshteinDistance("flx", "flex"))
	assert.Equal(t, 3, levenshteinDistance("", "abc"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
}

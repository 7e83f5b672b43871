package classes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/twtrace/pkg/tailwind"
)

func newObfuscatingTransformer(t *testing.T, idents tailwind.IdentTable, opts ...Option) *Transformer {
	t.Helper()
	classifier := tailwind.NewClassifier(nil)
	tracer := tailwind.NewTracer(nil, idents)
	tr, err := NewTransformer(NewSplitter(classifier, tracer), opts...)
	require.NoError(t, err)
	return tr
}

func TestTransformDefault(t *testing.T) {
	tr, err := NewDefaultTransformer(nil, nil)
	require.NoError(t, err)

	res := tr.Transform("bg-white", false)
	assert.Equal(t, "bg-[#FFFFFFFF]", res.Output)
	assert.Equal(t, []string{"bg-white"}, res.Classes)
	assert.True(t, res.Changed)
	assert.Equal(t, 1, tr.CacheLen())

	again := tr.Transform("bg-white", false)
	assert.Equal(t, res, again)
	assert.Equal(t, 1, tr.CacheLen(), "second call should hit the cache")
}

func TestTransformCacheReturnsCopies(t *testing.T) {
	tr, err := NewTransformer(nil, WithCacheSize(8))
	require.NoError(t, err)

	res := tr.Transform("gap-7 font-bold", false)
	require.Len(t, res.Classes, 2)
	res.Classes[0] = "mutated"

	again := tr.Transform("gap-7 font-bold", false)
	assert.Equal(t, []string{"gap-7", "font-bold"}, again.Classes)
}

func TestTransformCacheKeyIncludesObfuscate(t *testing.T) {
	tr := newObfuscatingTransformer(t, mapIdents{}, WithCacheSize(8))

	plain := tr.Transform("gap-7", false)
	obf := tr.Transform("gap-7", true)
	assert.Equal(t, "gap-[1.75rem]", plain.Output)
	assert.Equal(t, "twA", obf.Output)
	assert.Equal(t, 2, tr.CacheLen())
}

func TestTransformWithoutCache(t *testing.T) {
	tr, err := NewTransformer(nil, WithCacheSize(0))
	require.NoError(t, err)

	res := tr.Transform("max-w-4xl", false)
	assert.Equal(t, "max-width-4xl", res.Output)
	assert.Equal(t, 0, tr.CacheLen())
}

func TestTransformObfuscate(t *testing.T) {
	idents := mapIdents{}
	tr := newObfuscatingTransformer(t, idents)

	res := tr.Transform("my-component bg-white hover:bg-white", true)
	assert.Equal(t, "my-component twA hover:twA", res.Output)
	assert.Equal(t, []string{"bg-white", "hover:bg-white"}, res.Classes, "classes keep their original text")
	assert.Equal(t, TierCustomPrefix, res.Tier)
	assert.Equal(t, "twA", idents["bg-[#FFFFFFFF]"])
}

type brokenIdents struct{}

func (brokenIdents) GetOrAssign(string) (string, error) {
	return "", assert.AnError
}

func TestTransformObfuscateFailureIsPassthrough(t *testing.T) {
	tr := newObfuscatingTransformer(t, brokenIdents{})

	res := tr.Transform("flex bg-white", true)
	assert.Equal(t, "flex bg-white", res.Output)
	assert.False(t, res.Changed)
	assert.Equal(t, []string{"flex", "bg-white"}, res.Classes)
}

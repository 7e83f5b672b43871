package obfuscate

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrAssignIsStable(t *testing.T) {
	table := NewTable(Options{Seed: 1337})

	a, err := table.GetOrAssign("bg-[#FFFFFFFF]")
	require.NoError(t, err)
	b, err := table.GetOrAssign("bg-[#FFFFFFFF]")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, DefaultPrefix))
	assert.Len(t, a, len(DefaultPrefix)+DefaultMinLength)
	assert.Equal(t, 1, table.Len())
}

func TestIdentifiersDependOnSeedOnly(t *testing.T) {
	one := NewTable(Options{Seed: 1})
	two := NewTable(Options{Seed: 1})
	other := NewTable(Options{Seed: 2})

	x, _ := one.GetOrAssign("gap-[1.75rem]")
	y, _ := two.GetOrAssign("gap-[1.75rem]")
	z, _ := other.GetOrAssign("gap-[1.75rem]")

	assert.Equal(t, x, y, "same seed should give the same identifier")
	assert.NotEqual(t, x, z)
}

func TestCollisionsAreExtended(t *testing.T) {
	// A one character suffix guarantees collisions among many names.
	table := NewTable(Options{Prefix: "c", MinLength: 1})

	seen := make(map[string]string)
	for i := 0; i < 500; i++ {
		name := fmt.Sprintf("p-[%dpx]", i)
		id, err := table.GetOrAssign(name)
		require.NoError(t, err)
		if prev, dup := seen[id]; dup {
			t.Fatalf("identifier %q assigned to %q and %q", id, prev, name)
		}
		seen[id] = name
	}
	assert.Equal(t, 500, table.Len())
}

func TestConcurrentGetOrAssign(t *testing.T) {
	table := NewTable(Options{Seed: 7})
	names := make([]string, 200)
	for i := range names {
		names[i] = fmt.Sprintf("w-[%dpx]", i)
	}

	const goroutines = 16
	results := make([]map[string]string, goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			local := make(map[string]string, len(names))
			for _, n := range names {
				id, err := table.GetOrAssign(n)
				if err != nil {
					return
				}
				local[n] = id
			}
			results[g] = local
		}(g)
	}
	wg.Wait()

	for g := 1; g < goroutines; g++ {
		assert.Equal(t, results[0], results[g], "goroutine %d saw different identifiers", g)
	}
	assert.Equal(t, len(names), table.Len())
}

func TestClose(t *testing.T) {
	table := NewTable(Options{})
	id, err := table.GetOrAssign("flex")
	require.NoError(t, err)
	require.NoError(t, table.Close())

	_, err = table.GetOrAssign("flex")
	assert.ErrorIs(t, err, ErrTableClosed)

	got, ok := table.Lookup("flex")
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestEmptyNameIsRejected(t *testing.T) {
	_, err := NewTable(Options{}).GetOrAssign("")
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	src := NewTable(Options{Seed: 99})
	a, _ := src.GetOrAssign("bg-[#FFFFFFFF]")
	b, _ := src.GetOrAssign("max-width-4xl")

	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf))
	assert.Contains(t, buf.String(), `"mappings"`)

	// A table with a different seed keeps the saved identifiers.
	dst := NewTable(Options{Seed: 1})
	require.NoError(t, dst.Load(bytes.NewReader(buf.Bytes())))

	got, err := dst.GetOrAssign("bg-[#FFFFFFFF]")
	require.NoError(t, err)
	assert.Equal(t, a, got)
	got, _ = dst.GetOrAssign("max-width-4xl")
	assert.Equal(t, b, got)
	assert.Equal(t, map[string]string{"bg-[#FFFFFFFF]": a, "max-width-4xl": b}, dst.Snapshot())
}

func TestLoadConflicts(t *testing.T) {
	table := NewTable(Options{})
	id, _ := table.GetOrAssign("flex")

	err := table.Load(strings.NewReader(`{"mappings": {"flex": "twOTHER"}}`))
	assert.ErrorContains(t, err, "already mapped")

	err = table.Load(strings.NewReader(fmt.Sprintf(`{"mappings": {"grid": %q}}`, id)))
	assert.ErrorContains(t, err, "assigned to both")

	err = table.Load(strings.NewReader(`not json`))
	assert.ErrorContains(t, err, "failed to decode identifier table")
}

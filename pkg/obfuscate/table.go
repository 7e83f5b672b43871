// Package obfuscate assigns short, stable, opaque class identifiers to
// canonical Tailwind utilities.
//
// Identifiers are derived from a seeded BLAKE3 hash of the canonical name, so
// two builds with the same seed agree without sharing state. A mapping can
// still be saved and loaded to pin identifiers across catalogue changes.
package obfuscate

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/zeebo/blake3"
)

// ErrTableClosed is returned by GetOrAssign after Close.
var ErrTableClosed = errors.New("obfuscate: table is closed")

const (
	// DefaultPrefix starts every identifier so it is a valid CSS class name.
	DefaultPrefix = "tw"
	// DefaultMinLength is the shortest hash suffix handed out.
	DefaultMinLength = 5

	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// Options configures a Table.
type Options struct {
	Prefix    string
	Seed      uint64
	MinLength int
}

// Table is a race-free get-or-assign identifier table.
//
// **Thread Safety:** all methods are safe for concurrent use. Lookups of known
// names only touch a concurrent map shard; first assignments additionally
// serialize on the reverse index so colliding names are extended
// deterministically.
type Table struct {
	prefix    string
	seed      uint64
	minLength int

	ids cmap.ConcurrentMap[string, string]

	mu     sync.Mutex
	owners map[string]string // identifier -> canonical

	closed atomic.Bool
}

// NewTable creates an empty table.
func NewTable(opts Options) *Table {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinLength
	}
	return &Table{
		prefix:    opts.Prefix,
		seed:      opts.Seed,
		minLength: opts.MinLength,
		ids:       cmap.New[string](),
		owners:    make(map[string]string),
	}
}

// GetOrAssign returns the identifier for canonical, assigning one on first use.
func (t *Table) GetOrAssign(canonical string) (string, error) {
	if t.closed.Load() {
		return "", ErrTableClosed
	}
	if canonical == "" {
		return "", fmt.Errorf("obfuscate: empty class name")
	}
	if id, ok := t.ids.Get(canonical); ok {
		return id, nil
	}

	id := t.ids.Upsert(canonical, "", func(exist bool, inMap, _ string) string {
		if exist {
			return inMap
		}
		return t.assign(canonical)
	})
	return id, nil
}

// assign picks the shortest free identifier for canonical. It runs under the
// map shard lock for canonical.
func (t *Table) assign(canonical string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	for round := uint64(0); ; round++ {
		digest := encode(t.hash(canonical, round))
		for n := t.minLength; n <= len(digest); n++ {
			id := t.prefix + digest[:n]
			if owner, taken := t.owners[id]; !taken || owner == canonical {
				t.owners[id] = canonical
				return id
			}
		}
	}
}

func (t *Table) hash(canonical string, round uint64) uint64 {
	buf := make([]byte, 16, 16+len(canonical))
	binary.LittleEndian.PutUint64(buf[:8], t.seed)
	binary.LittleEndian.PutUint64(buf[8:], round)
	buf = append(buf, canonical...)
	sum := blake3.Sum256(buf)
	return binary.LittleEndian.Uint64(sum[:8])
}

// encode renders n in base62, zero-padded to 11 digits so every hash yields
// the same number of candidate lengths.
func encode(n uint64) string {
	var out [11]byte
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = alphabet[n%62]
		n /= 62
	}
	return string(out[:])
}

// Lookup returns the identifier already assigned to canonical.
func (t *Table) Lookup(canonical string) (string, bool) {
	return t.ids.Get(canonical)
}

// Len returns the number of assigned identifiers.
func (t *Table) Len() int {
	return t.ids.Count()
}

// Snapshot returns a copy of the canonical -> identifier mapping.
func (t *Table) Snapshot() map[string]string {
	return t.ids.Items()
}

// Close makes further assignments fail with ErrTableClosed. Existing
// mappings remain readable through Lookup and Snapshot.
func (t *Table) Close() error {
	t.closed.Store(true)
	return nil
}

type tableFile struct {
	Prefix   string            `json:"prefix"`
	Seed     uint64            `json:"seed"`
	Mappings map[string]string `json:"mappings"`
}

// Save writes the mapping as JSON.
func (t *Table) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tableFile{Prefix: t.prefix, Seed: t.seed, Mappings: t.Snapshot()}); err != nil {
		return fmt.Errorf("failed to encode identifier table: %w", err)
	}
	return nil
}

// Load merges a mapping written by Save. Entries already present with the
// same identifier are ignored; an identifier claimed by a different name, or a
// name already mapped elsewhere, is an error and nothing is merged.
//
// Load is meant to run before the table is shared between goroutines.
func (t *Table) Load(r io.Reader) error {
	var file tableFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return fmt.Errorf("failed to decode identifier table: %w", err)
	}

	for canonical, id := range file.Mappings {
		if existing, ok := t.ids.Get(canonical); ok && existing != id {
			return fmt.Errorf("class %q is already mapped to %q, file has %q", canonical, existing, id)
		}
	}

	// The reverse index is never held while touching map shards.
	t.mu.Lock()
	for canonical, id := range file.Mappings {
		if owner, ok := t.owners[id]; ok && owner != canonical {
			t.mu.Unlock()
			return fmt.Errorf("identifier %q is assigned to both %q and %q", id, owner, canonical)
		}
	}
	for canonical, id := range file.Mappings {
		t.owners[id] = canonical
	}
	t.mu.Unlock()

	for canonical, id := range file.Mappings {
		t.ids.Set(canonical, id)
	}
	return nil
}

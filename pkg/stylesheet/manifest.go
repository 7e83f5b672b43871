package stylesheet

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/maruel/natural"
)

// DefaultTopClasses is the number of entries in ManifestStats.TopClasses.
const DefaultTopClasses = 10

// ClassSource exposes per-class usage; *indexer.ClassIndex implements it.
type ClassSource interface {
	Classes() []string
	Files(class string) []string
}

// Manifest describes one build: which classes were found where, what they
// became, and how complete the generated stylesheet is.
type Manifest struct {
	Metadata ManifestMetadata         `json:"metadata"`
	Classes  map[string]ManifestClass `json:"classes"`
	// Mappings is the opaque identifier table (canonical -> id).
	Mappings map[string]string `json:"mappings,omitempty"`
	Stats    ManifestStats     `json:"stats"`
}

// ManifestMetadata identifies the build.
type ManifestMetadata struct {
	Tool        string    `json:"tool"`
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	Root        string    `json:"root,omitempty"`
	Obfuscated  bool      `json:"obfuscated"`
	Stylesheet  string    `json:"stylesheet,omitempty"`
}

// ManifestClass is one recognized class.
type ManifestClass struct {
	Canonical string   `json:"canonical"`
	Output    string   `json:"output"`
	Files     []string `json:"files"`
	Count     int      `json:"count"`
}

// ManifestStats summarizes the build.
type ManifestStats struct {
	Files      int          `json:"files"`
	Classes    int          `json:"classes"`
	Missing    []string     `json:"missing,omitempty"`
	TopClasses []ClassCount `json:"top_classes"`
}

// ClassCount is a class and the number of files using it.
type ClassCount struct {
	Class string `json:"class"`
	Count int    `json:"count"`
}

// NewManifest assembles a manifest from the class usage of a build and its
// stylesheet result. File paths are made relative to meta.Root when
// possible. mappings may be nil.
func NewManifest(meta ManifestMetadata, src ClassSource, build *BuildResult, mappings map[string]string) *Manifest {
	m := &Manifest{
		Metadata: meta,
		Classes:  make(map[string]ManifestClass),
		Mappings: mappings,
	}

	files := make(map[string]struct{})
	var counts []ClassCount
	for _, class := range src.Classes() {
		paths := src.Files(class)
		rel := make([]string, len(paths))
		for i, p := range paths {
			rel[i] = relativeTo(meta.Root, p)
			files[p] = struct{}{}
		}

		entry := ManifestClass{Canonical: class, Output: class, Files: rel, Count: len(paths)}
		if build != nil {
			if c, ok := build.Canonicals[class]; ok {
				entry.Canonical = c
			}
			if out, ok := build.Outputs[class]; ok {
				entry.Output = out
			}
		}
		m.Classes[class] = entry
		counts = append(counts, ClassCount{Class: class, Count: len(paths)})
	}

	if build != nil {
		m.Stats.Missing = build.Missing
	}

	m.Stats.Files = len(files)
	m.Stats.Classes = len(m.Classes)
	m.Stats.TopClasses = topClasses(counts, DefaultTopClasses)
	return m
}

// topClasses orders by count, ties in natural order, and keeps n.
func topClasses(counts []ClassCount, n int) []ClassCount {
	sorted := append([]ClassCount(nil), counts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return natural.Less(sorted[i].Class, sorted[j].Class)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func relativeTo(root, path string) string {
	if root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Write encodes the manifest as indented JSON.
func (m *Manifest) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return nil
}

// WriteFile writes the manifest to path, creating parent directories.
func (m *Manifest) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	if err := m.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadManifest decodes a manifest written by Write.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

// Package tailwind classifies Tailwind CSS utility tokens and traces them to
// their canonical form.
//
// The concrete utility grammar (variant names, families, value scales and the
// colour palette) lives in a Catalog, loaded from YAML. The bundled catalogue
// is available through DefaultCatalog; callers can swap in their own with
// LoadCatalog.
package tailwind

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gnana997/twtrace/catalogs"
)

// Trace rules a family can declare.
const (
	TraceNone    = ""
	TraceBracket = "bracket"
	TraceRename  = "rename"
)

// Built-in scales that are computed rather than listed.
const (
	ScaleColor    = "color"
	ScaleFraction = "fraction"
	ScaleInteger  = "integer"
)

// Family describes one utility prefix and the values it accepts.
type Family struct {
	Prefix   string
	Scales   []string
	Keywords map[string]struct{}
	Bare     bool
	Negative bool
	Closed   bool
	Trace    string
	Rename   string
}

// HasScale reports whether the family accepts values from the named scale.
func (f *Family) HasScale(name string) bool {
	for _, s := range f.Scales {
		if s == name {
			return true
		}
	}
	return false
}

// Catalog is the utility/value table consulted by the Classifier and Tracer.
// A Catalog is immutable once built and safe for concurrent use.
type Catalog struct {
	Version int

	breakpoints map[string]struct{}
	variants    map[string]struct{}
	open        map[string]struct{}
	composable  map[string]struct{}
	numeric     map[string]struct{}
	keywords    map[string]struct{}
	families    map[string]*Family
	scales      map[string]map[string]string
	colors      map[string]string
}

type catalogFile struct {
	Version     int      `yaml:"version"`
	Breakpoints []string `yaml:"breakpoints"`
	Variants    struct {
		Names      []string `yaml:"names"`
		Open       []string `yaml:"open"`
		Composable []string `yaml:"composable"`
		Numeric    []string `yaml:"numeric"`
	} `yaml:"variants"`
	Keywords []string                     `yaml:"keywords"`
	Scales   map[string]map[string]string `yaml:"scales"`
	Families []familySpec                 `yaml:"families"`
	Colors   map[string]string            `yaml:"colors"`
	Shades   []string                     `yaml:"shades"`
	Palettes map[string][]string          `yaml:"palettes"`
}

type familySpec struct {
	Prefixes []string `yaml:"prefixes"`
	Scales   []string `yaml:"scales"`
	Keywords []string `yaml:"keywords"`
	Bare     bool     `yaml:"bare"`
	Negative bool     `yaml:"negative"`
	Closed   bool     `yaml:"closed"`
	Trace    string   `yaml:"trace"`
	Rename   string   `yaml:"rename"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// DefaultCatalog returns the embedded catalogue. It is parsed once per process.
func DefaultCatalog() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = LoadCatalogBytes(catalogs.TailwindYAML)
	})
	if defaultErr != nil {
		// The embedded asset is covered by tests; a failure here is a build defect.
		panic(fmt.Sprintf("tailwind: embedded catalogue is invalid: %v", defaultErr))
	}
	return defaultCatalog
}

// LoadCatalogFile reads a catalogue from a YAML file on disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalogue: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadCatalog decodes and validates a catalogue from r.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue: %w", err)
	}
	return LoadCatalogBytes(data)
}

// LoadCatalogBytes decodes and validates a catalogue from raw YAML.
func LoadCatalogBytes(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue: %w", err)
	}
	if errs := file.validate(); len(errs) > 0 {
		return nil, fmt.Errorf("catalogue validation failed: %w", errors.Join(errs...))
	}
	return file.build(), nil
}

func (f *catalogFile) validate() []error {
	var errs []error

	if len(f.Families) == 0 {
		errs = append(errs, fmt.Errorf("at least one family is required"))
	}

	seen := make(map[string]bool)
	for i, fam := range f.Families {
		if len(fam.Prefixes) == 0 {
			errs = append(errs, fmt.Errorf("families[%d]: prefixes are required", i))
		}
		for _, p := range fam.Prefixes {
			if p == "" || strings.ContainsAny(p, "[]:/ ") {
				errs = append(errs, fmt.Errorf("families[%d]: invalid prefix %q", i, p))
				continue
			}
			if seen[p] {
				errs = append(errs, fmt.Errorf("families[%d]: duplicate prefix %q", i, p))
			}
			seen[p] = true
		}
		for _, s := range fam.Scales {
			switch s {
			case ScaleColor, ScaleFraction, ScaleInteger:
			default:
				if _, ok := f.Scales[s]; !ok {
					errs = append(errs, fmt.Errorf("families[%d]: unknown scale %q", i, s))
				}
			}
		}
		switch fam.Trace {
		case TraceNone, TraceBracket:
		case TraceRename:
			if fam.Rename == "" {
				errs = append(errs, fmt.Errorf("families[%d]: rename trace needs a rename target", i))
			}
		default:
			errs = append(errs, fmt.Errorf("families[%d]: unknown trace rule %q", i, fam.Trace))
		}
	}

	for name, hexes := range f.Palettes {
		if len(hexes) != len(f.Shades) {
			errs = append(errs, fmt.Errorf("palette %q: has %d shades, want %d", name, len(hexes), len(f.Shades)))
		}
		for _, h := range hexes {
			if _, ok := parseHex(h); !ok {
				errs = append(errs, fmt.Errorf("palette %q: invalid colour %q", name, h))
			}
		}
	}
	for name, h := range f.Colors {
		if h == "" {
			continue
		}
		if _, ok := parseHex(h); !ok {
			errs = append(errs, fmt.Errorf("colour %q: invalid value %q", name, h))
		}
	}

	return errs
}

func (f *catalogFile) build() *Catalog {
	c := &Catalog{
		Version:     f.Version,
		breakpoints: toSet(f.Breakpoints),
		variants:    toSet(f.Variants.Names),
		open:        toSet(f.Variants.Open),
		composable:  toSet(f.Variants.Composable),
		numeric:     toSet(f.Variants.Numeric),
		keywords:    toSet(f.Keywords),
		families:    make(map[string]*Family),
		scales:      make(map[string]map[string]string, len(f.Scales)),
		colors:      make(map[string]string),
	}

	for name, values := range f.Scales {
		c.scales[name] = values
	}

	for _, spec := range f.Families {
		for _, prefix := range spec.Prefixes {
			c.families[prefix] = &Family{
				Prefix:   prefix,
				Scales:   spec.Scales,
				Keywords: toSet(spec.Keywords),
				Bare:     spec.Bare,
				Negative: spec.Negative,
				Closed:   spec.Closed,
				Trace:    spec.Trace,
				Rename:   spec.Rename,
			}
		}
	}

	for name, h := range f.Colors {
		c.colors[name] = h
	}
	for name, hexes := range f.Palettes {
		for i, shade := range f.Shades {
			c.colors[name+"-"+shade] = hexes[i]
		}
	}

	return c
}

// Family returns the family registered under prefix.
func (c *Catalog) Family(prefix string) (*Family, bool) {
	f, ok := c.families[prefix]
	return f, ok
}

// IsKeyword reports whether name is a standalone keyword utility.
func (c *Catalog) IsKeyword(name string) bool {
	_, ok := c.keywords[name]
	return ok
}

// IsBreakpoint reports whether name is a responsive breakpoint.
func (c *Catalog) IsBreakpoint(name string) bool {
	_, ok := c.breakpoints[name]
	return ok
}

// ScaleValue returns the canonical CSS value for key in the named scale.
// Built-in scales are resolved as well.
func (c *Catalog) ScaleValue(scale, key string) (string, bool) {
	switch scale {
	case ScaleColor:
		h, ok := c.colors[key]
		return h, ok
	case ScaleFraction:
		return fractionPercent(key)
	case ScaleInteger:
		if isDigits(key) {
			return key, true
		}
		return "", false
	}
	values, ok := c.scales[scale]
	if !ok {
		return "", false
	}
	v, ok := values[key]
	return v, ok
}

// Color returns the hex literal for a palette colour. The returned string is
// empty for colours with no literal value (current, inherit).
func (c *Catalog) Color(name string) (string, bool) {
	h, ok := c.colors[name]
	return h, ok
}

// Prefixes returns every family prefix. Order is unspecified.
func (c *Catalog) Prefixes() []string {
	out := make([]string, 0, len(c.families))
	for p := range c.families {
		out = append(out, p)
	}
	return out
}

// Keywords returns every standalone keyword utility. Order is unspecified.
func (c *Catalog) Keywords() []string {
	out := make([]string, 0, len(c.keywords))
	for k := range c.keywords {
		out = append(out, k)
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

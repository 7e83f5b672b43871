// Package extract runs the class-string transformer over whole source files:
// parse, visit the class-list sites, rewrite them and collect the recognized
// classes.
package extract

import (
	"fmt"
	"log/slog"

	"github.com/gnana997/twtrace/pkg/classes"
	"github.com/gnana997/twtrace/pkg/parser"
	"github.com/gnana997/twtrace/pkg/sites"
)

// FileResult is the outcome of transforming one file.
type FileResult struct {
	Path    string
	Dialect parser.Dialect
	// Source is the rewritten file, or the input when nothing changed.
	Source []byte
	// Classes lists recognized classes, deduplicated in document order.
	Classes []string
	// Sites is the number of class-list sites visited.
	Sites int
	// ChangedSites is the number of sites whose text was replaced.
	ChangedSites int
	Changed      bool
}

// Config configures an Engine.
type Config struct {
	// Transformer defaults to a cached transformer over the bundled catalogue.
	Transformer *classes.Transformer
	// Parsers is shared with the caller when set; otherwise the engine owns
	// one and closes it in Close.
	Parsers *parser.Manager
	Sites   sites.Options
	Logger  *slog.Logger
}

// Engine transforms whole source files.
//
// **Thread Safety:** TransformSource and TransformFile may be called from
// many goroutines; the parser pool and transformer are shared.
type Engine struct {
	parsers     *parser.Manager
	ownsParsers bool
	transformer *classes.Transformer
	siteOpts    sites.Options
	logger      *slog.Logger
}

// NewEngine creates an engine from cfg.
func NewEngine(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	transformer := cfg.Transformer
	if transformer == nil {
		var err error
		transformer, err = classes.NewDefaultTransformer(nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create transformer: %w", err)
		}
	}

	e := &Engine{
		parsers:     cfg.Parsers,
		transformer: transformer,
		siteOpts:    cfg.Sites,
		logger:      logger,
	}
	if e.parsers == nil {
		e.parsers = parser.NewManager(logger)
		e.ownsParsers = true
	}
	return e, nil
}

// Transformer returns the class-string transformer the engine uses.
func (e *Engine) Transformer() *classes.Transformer {
	return e.transformer
}

// TransformSource rewrites unnamed source, parsed as TSX. TSX rejects the
// `<T>expr` type assertions of plain TypeScript, so such sources are a
// ParseError here; use TransformFile with a .ts name for them.
func (e *Engine) TransformSource(source []byte, obfuscate bool) (*FileResult, error) {
	return e.transform("", parser.DialectTSX, source, obfuscate)
}

// TransformFile rewrites source using the grammar implied by path.
func (e *Engine) TransformFile(path string, source []byte, obfuscate bool) (*FileResult, error) {
	dialect := parser.DialectForPath(path)
	if dialect == parser.DialectUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", path)
	}
	return e.transform(path, dialect, source, obfuscate)
}

func (e *Engine) transform(path string, dialect parser.Dialect, source []byte, obfuscate bool) (*FileResult, error) {
	tree, err := e.parsers.Parse(source, dialect)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", displayPath(path), err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if se, bad := parser.FirstSyntaxError(root, source); bad {
		return nil, &ParseError{Path: path, SyntaxError: se}
	}

	rw := sites.Rewrite(root, source, e.transformer, obfuscate, e.siteOpts)

	agg := NewAggregator()
	for _, s := range rw.Sites {
		agg.AddAll(s.Classes)
		if s.Dropped {
			e.logger.Warn("kept class string that cannot be rewritten safely",
				"path", displayPath(path),
				"line", s.Site.Line,
				"column", s.Site.Column)
		}
	}

	res := &FileResult{
		Path:         path,
		Dialect:      dialect,
		Source:       rw.Source,
		Classes:      agg.Items(),
		Sites:        len(rw.Sites),
		ChangedSites: rw.ChangedSites(),
	}
	res.Changed = res.ChangedSites > 0

	e.logger.Debug("transformed source",
		"path", displayPath(path),
		"dialect", dialect.String(),
		"sites", res.Sites,
		"changed_sites", res.ChangedSites,
		"classes", len(res.Classes),
		"skipped_templates", rw.Stats.SkippedTemplates)

	return res, nil
}

// Close releases the parser pool when the engine owns it.
func (e *Engine) Close() error {
	if e.ownsParsers {
		return e.parsers.Close()
	}
	return nil
}

func displayPath(path string) string {
	if path == "" {
		return "<source>"
	}
	return path
}

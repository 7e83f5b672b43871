package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gnana997/twtrace/pkg/extract"
	"github.com/gnana997/twtrace/pkg/htmlscan"
	"github.com/gnana997/twtrace/pkg/indexer"
	"github.com/gnana997/twtrace/pkg/stylesheet"
	"github.com/gnana997/twtrace/pkg/util"
)

// extractFlags are shared by extract and watch.
type extractFlags struct {
	commonFlags
	obfuscate      bool
	minify         bool
	outputCSS      string
	outputManifest string
	workers        int
}

func (f *extractFlags) register(fs *flag.FlagSet) {
	f.commonFlags.register(fs)
	fs.BoolVar(&f.obfuscate, "obfuscate", false, "replace utilities with opaque identifiers")
	fs.BoolVar(&f.minify, "minify", false, "minify the stylesheet")
	fs.StringVar(&f.outputCSS, "output-css", "", "stylesheet path (default from config)")
	fs.StringVar(&f.outputManifest, "output-manifest", "", "manifest path (default from config)")
	fs.IntVar(&f.workers, "workers", 0, "worker count (default: CPU based)")
}

// runExtract scans the workspace, then writes the stylesheet and manifest.
func runExtract(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var flags extractFlags
	flags.register(fs)
	write := fs.Bool("write", false, "rewrite changed sources in place")
	dryRun := fs.Bool("dry-run", false, "report what would change without writing anything")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := newApp(flags.commonFlags, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "twtrace: %v\n", err)
		return 1
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b := newBuilder(a, flags)
	defer b.close()

	opts := b.scanOptions()
	opts.Write = *write && !*dryRun
	stats, err := b.scanner.Scan(ctx, a.root, opts, nil)
	if err != nil {
		fmt.Fprintf(stderr, "twtrace: %v\n", err)
		return 1
	}
	for _, fe := range stats.Errors {
		fmt.Fprintf(stderr, "twtrace: %s: %v\n", fe.FilePath, fe.Error)
	}

	if *dryRun {
		pages, err := b.scanHTML()
		if err != nil {
			fmt.Fprintf(stderr, "twtrace: %v\n", err)
			return 1
		}
		src := newWorkspaceClasses(b.index, pages)
		fmt.Fprintf(stdout, "files: %d scanned, %d would change, %d failed\n",
			stats.FilesProcessed, stats.FilesChanged, stats.FilesFailed)
		fmt.Fprintf(stdout, "classes: %d\n", len(src.Classes()))
		fmt.Fprintf(stdout, "stylesheet: %s (not written)\n", b.cssPath)
		return exitStatus(stats)
	}

	res, err := b.build(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "twtrace: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "files: %d scanned, %d changed, %d written, %d failed\n",
		stats.FilesProcessed, stats.FilesChanged, stats.FilesWritten, stats.FilesFailed)
	fmt.Fprintf(stdout, "classes: %d (%d without rules)\n", len(res.Canonical), len(res.Missing))
	fmt.Fprintf(stdout, "stylesheet: %s\n", b.cssPath)
	fmt.Fprintf(stdout, "manifest: %s\n", b.manifestPath)
	return exitStatus(stats)
}

func exitStatus(stats *indexer.ScanStats) int {
	if stats.FilesFailed > 0 {
		return 1
	}
	return 0
}

// builder turns the class index into the stylesheet and manifest.
type builder struct {
	app          *app
	index        *indexer.ClassIndex
	scanner      *indexer.WorkspaceScanner
	obfuscate    bool
	minify       bool
	workers      int
	cssPath      string
	manifestPath string
}

func newBuilder(a *app, flags extractFlags) *builder {
	index := indexer.NewClassIndex(indexer.DefaultClassIndexConfig(), a.logger)
	// Cache metrics are only worth logging at debug level.
	cacheCfg := util.DefaultFileCacheConfig()
	cacheCfg.EnableMetrics = a.logger.Enabled(context.Background(), slog.LevelDebug)
	cacheCfg.Logger = a.logger
	return &builder{
		app:          a,
		index:        index,
		scanner:      indexer.NewWorkspaceScanner(a.engine, index, a.logger, indexer.WithFileCache(util.NewFileCache(cacheCfg))),
		obfuscate:    flags.obfuscate || a.cfg.Obfuscation.Enabled,
		minify:       flags.minify || a.cfg.Minify,
		workers:      flags.workers,
		cssPath:      resolvePath(a.root, firstNonEmpty(flags.outputCSS, a.cfg.OutputCSS)),
		manifestPath: resolvePath(a.root, firstNonEmpty(flags.outputManifest, a.cfg.OutputManifest)),
	}
}

func (b *builder) close() {
	if err := b.scanner.Close(); err != nil {
		b.app.logger.Warn("failed to close scanner", "error", err)
	}
}

func (b *builder) scanOptions() indexer.ScanOptions {
	opts := indexer.DefaultScanOptions()
	if len(b.app.cfg.Content) > 0 {
		opts.Include = b.app.cfg.Content
	}
	opts.Exclude = append(opts.Exclude, b.app.cfg.Exclude...)
	opts.Workers = b.workers
	opts.Obfuscate = b.obfuscate

	// Never scan our own outputs.
	for _, out := range []string{b.cssPath, b.manifestPath} {
		if rel, err := filepath.Rel(b.app.root, out); err == nil {
			opts.Exclude = append(opts.Exclude, filepath.ToSlash(rel))
		}
	}
	return opts
}

func (b *builder) scanHTML() ([]*htmlscan.Page, error) {
	if len(b.app.cfg.HTML) == 0 {
		return nil, nil
	}
	paths, err := htmlscan.Glob(b.app.root, b.app.cfg.HTML)
	if err != nil {
		return nil, err
	}
	pages := make([]*htmlscan.Page, 0, len(paths))
	for _, path := range paths {
		page, err := htmlscan.ExtractFile(path, b.app.engine.Transformer())
		if err != nil {
			b.app.logger.Warn("skipping html page", "path", path, "error", err)
			continue
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// build generates the stylesheet for the current index and writes the
// stylesheet, manifest and identifier table.
func (b *builder) build(ctx context.Context) (*stylesheet.BuildResult, error) {
	pages, err := b.scanHTML()
	if err != nil {
		return nil, err
	}
	src := newWorkspaceClasses(b.index, pages)

	res, err := stylesheet.Build(ctx, newGenerator(b.app), b.app.engine.Transformer(), src.Classes(), stylesheet.BuildOptions{
		Obfuscate: b.obfuscate,
		Assemble: stylesheet.AssembleOptions{
			Minify: b.minify,
			Header: "Generated by twtrace " + version + ". Do not edit.",
		},
		Logger: b.app.logger,
	})
	if err != nil {
		return nil, err
	}

	if err := writeFile(b.cssPath, []byte(res.CSS)); err != nil {
		return nil, err
	}

	var mappings map[string]string
	if b.obfuscate {
		mappings = b.app.table.Snapshot()
	}
	manifest := stylesheet.NewManifest(stylesheet.ManifestMetadata{
		Tool:        "twtrace",
		Version:     version,
		GeneratedAt: time.Now().UTC(),
		Root:        b.app.root,
		Obfuscated:  b.obfuscate,
		Stylesheet:  filepath.ToSlash(relOrAbs(b.app.root, b.cssPath)),
	}, src, res, mappings)
	if err := manifest.WriteFile(b.manifestPath); err != nil {
		return nil, err
	}

	if b.obfuscate {
		if err := b.app.saveMappings(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func relOrAbs(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}

// workspaceClasses merges the class index with classes found in HTML pages.
type workspaceClasses struct {
	order []string
	files map[string][]string
}

func newWorkspaceClasses(index *indexer.ClassIndex, pages []*htmlscan.Page) *workspaceClasses {
	agg := extract.NewAggregator()
	files := make(map[string][]string)

	agg.AddAll(index.Classes())
	for _, class := range index.Classes() {
		files[class] = index.Files(class)
	}
	for _, page := range pages {
		agg.AddAll(page.Classes)
		for _, class := range page.Classes {
			files[class] = append(files[class], page.Path)
		}
	}
	return &workspaceClasses{order: agg.Items(), files: files}
}

func (w *workspaceClasses) Classes() []string {
	return w.order
}

func (w *workspaceClasses) Files(class string) []string {
	return w.files[class]
}

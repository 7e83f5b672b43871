package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gnana997/twtrace/pkg/classes"
	"github.com/gnana997/twtrace/pkg/extract"
	"github.com/gnana997/twtrace/pkg/obfuscate"
	"github.com/gnana997/twtrace/pkg/stylesheet"
	"github.com/gnana997/twtrace/pkg/tailwind"
	"github.com/gnana997/twtrace/pkg/util"
)

// commonFlags are accepted by every workspace command.
type commonFlags struct {
	root      string
	config    string
	logLevel  string
	logFormat string

	// stdoutReserved downgrades the pretty log format to text.
	stdoutReserved bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.root, "root", ".", "workspace root")
	fs.StringVar(&c.config, "config", "", "config file (default: <root>/"+defaultConfigPath+")")
	fs.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&c.logFormat, "log-format", "", "text, json or pretty")
}

// app is the shared state of one command run.
type app struct {
	root   string
	cfg    ProjectConfig
	logger *slog.Logger
	table  *obfuscate.Table
	engine *extract.Engine
}

// newGenerator builds the stylesheet generator. Replaceable for testing.
var newGenerator = func(a *app) stylesheet.Generator {
	return &stylesheet.CLIGenerator{
		Command:   a.cfg.TailwindCLI,
		Preflight: a.cfg.preflight(),
		Dir:       a.root,
		Logger:    a.logger,
	}
}

// newApp loads the config, the catalogue and the identifier table.
func newApp(flags commonFlags, stderr io.Writer) (*app, error) {
	root, err := filepath.Abs(flags.root)
	if err != nil {
		return nil, fmt.Errorf("invalid root: %w", err)
	}
	cfg, err := loadProjectConfig(root, flags.config)
	if err != nil {
		return nil, err
	}

	format := util.ParseFormat(firstNonEmpty(flags.logFormat, cfg.Log.Format))
	if format == util.FormatPretty && flags.stdoutReserved {
		format = util.FormatText
	}
	logger := util.NewLogger(util.LoggerConfig{
		Level:  util.LogLevel(firstNonEmpty(flags.logLevel, cfg.Log.Level)),
		Format: format,
		Output: stderr,
	})

	var catalog *tailwind.Catalog
	if cfg.Catalog != "" {
		catalog, err = tailwind.LoadCatalogFile(resolvePath(root, cfg.Catalog))
		if err != nil {
			return nil, err
		}
	}

	table := obfuscate.NewTable(obfuscate.Options{
		Prefix: cfg.Obfuscation.Prefix,
		Seed:   cfg.Obfuscation.Seed,
	})
	if err := loadMappings(table, resolvePath(root, cfg.Obfuscation.MappingFile)); err != nil {
		return nil, err
	}

	transformer, err := classes.NewDefaultTransformer(catalog, table)
	if err != nil {
		return nil, err
	}
	engine, err := extract.NewEngine(extract.Config{Transformer: transformer, Logger: logger})
	if err != nil {
		return nil, err
	}

	return &app{root: root, cfg: cfg, logger: logger, table: table, engine: engine}, nil
}

func (a *app) close() {
	if err := a.engine.Close(); err != nil {
		a.logger.Warn("failed to close engine", "error", err)
	}
}

// loadMappings merges a persisted identifier table; a missing file is fine.
func loadMappings(table *obfuscate.Table, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open mapping file: %w", err)
	}
	defer f.Close()
	if err := table.Load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// saveMappings persists the identifier table when a mapping file is set.
func (a *app) saveMappings() error {
	path := resolvePath(a.root, a.cfg.Obfuscation.MappingFile)
	if path == "" || a.table.Len() == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create mapping directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create mapping file: %w", err)
	}
	if err := a.table.Save(f); err != nil {
		f.Close()
		return err
	}
	a.logger.Debug("saved identifier table", "path", path, "entries", a.table.Len())
	return f.Close()
}

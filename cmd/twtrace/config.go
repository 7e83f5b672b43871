package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gnana997/twtrace/pkg/obfuscate"
)

// defaultConfigPath is relative to the workspace root.
const defaultConfigPath = ".twtrace/config.yaml"

// ProjectConfig holds the contents of .twtrace/config.yaml.
type ProjectConfig struct {
	Content        []string          `yaml:"content"`
	Exclude        []string          `yaml:"exclude"`
	OutputCSS      string            `yaml:"output_css"`
	OutputManifest string            `yaml:"output_manifest"`
	Minify         bool              `yaml:"minify"`
	Preflight      *bool             `yaml:"preflight"`
	Catalog        string            `yaml:"catalog"`
	Obfuscation    ObfuscationConfig `yaml:"obfuscation"`
	HTML           []string          `yaml:"html"`
	TailwindCLI    string            `yaml:"tailwind_cli"`
	Log            LogConfig         `yaml:"log"`
}

// ObfuscationConfig configures the opaque identifier table.
type ObfuscationConfig struct {
	Enabled bool   `yaml:"enabled"`
	Prefix  string `yaml:"prefix"`
	Seed    uint64 `yaml:"seed"`
	// MappingFile persists the table so identifiers are stable across builds.
	MappingFile string `yaml:"mapping_file"`
}

// LogConfig configures diagnostics.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// MCPFile receives the JSONL call log of `twtrace serve`.
	MCPFile string `yaml:"mcp_file"`
}

func defaultProjectConfig() ProjectConfig {
	preflight := true
	return ProjectConfig{
		OutputCSS:      "dist/tailwind.css",
		OutputManifest: "dist/tailwind-manifest.json",
		Preflight:      &preflight,
		Obfuscation: ObfuscationConfig{
			Prefix: obfuscate.DefaultPrefix,
			Seed:   1337,
		},
		TailwindCLI: "tailwindcss",
		Log:         LogConfig{Level: "info", Format: "text"},
	}
}

// loadProjectConfig reads the config file at path (relative paths resolve
// against root) and fills unset fields with defaults. A missing file is not
// an error unless the path was given explicitly.
func loadProjectConfig(root, path string) (ProjectConfig, error) {
	cfg := defaultProjectConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	var file ProjectConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg.merge(file)
	return cfg, nil
}

// merge overlays the non-zero fields of file.
func (c *ProjectConfig) merge(file ProjectConfig) {
	if len(file.Content) > 0 {
		c.Content = file.Content
	}
	c.Exclude = append(c.Exclude, file.Exclude...)
	c.OutputCSS = firstNonEmpty(file.OutputCSS, c.OutputCSS)
	c.OutputManifest = firstNonEmpty(file.OutputManifest, c.OutputManifest)
	c.Minify = c.Minify || file.Minify
	if file.Preflight != nil {
		c.Preflight = file.Preflight
	}
	c.Catalog = firstNonEmpty(file.Catalog, c.Catalog)
	c.Obfuscation.Enabled = c.Obfuscation.Enabled || file.Obfuscation.Enabled
	c.Obfuscation.Prefix = firstNonEmpty(file.Obfuscation.Prefix, c.Obfuscation.Prefix)
	if file.Obfuscation.Seed != 0 {
		c.Obfuscation.Seed = file.Obfuscation.Seed
	}
	c.Obfuscation.MappingFile = firstNonEmpty(file.Obfuscation.MappingFile, c.Obfuscation.MappingFile)
	if len(file.HTML) > 0 {
		c.HTML = file.HTML
	}
	c.TailwindCLI = firstNonEmpty(file.TailwindCLI, c.TailwindCLI)
	c.Log.Level = firstNonEmpty(file.Log.Level, c.Log.Level)
	c.Log.Format = firstNonEmpty(file.Log.Format, c.Log.Format)
	c.Log.MCPFile = firstNonEmpty(file.Log.MCPFile, c.Log.MCPFile)
}

// preflight reports whether Tailwind's base layer is generated.
func (c ProjectConfig) preflight() bool {
	return c.Preflight == nil || *c.Preflight
}

// firstNonEmpty implements the flag -> config -> default chain.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolvePath makes a config-relative path absolute against root.
func resolvePath(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

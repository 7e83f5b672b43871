// Package stylesheet turns the recognized classes of a build into a
// stylesheet: it drives the external rule generator, renames selectors for
// obfuscated builds, minifies, checks coverage and writes the manifest.
package stylesheet

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Generator produces CSS rules for canonical class names. Rule synthesis
// is not done here; implementations delegate to a real Tailwind build.
type Generator interface {
	Generate(ctx context.Context, classes []string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, classes []string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, classes []string) (string, error) {
	return f(ctx, classes)
}

// CLIGenerator runs the tailwindcss executable over a temporary content
// file that lists the classes, one per line.
type CLIGenerator struct {
	// Command is the executable. Default: "tailwindcss".
	Command string
	// Args are passed before the generated --input/--output/--content flags.
	Args []string
	// InputCSS replaces the generated entry stylesheet.
	InputCSS string
	// Preflight includes Tailwind's base layer in the generated entry.
	Preflight bool
	// Dir is the working directory, so a project tailwind.config.js applies.
	Dir    string
	Logger *slog.Logger
}

// Generate writes the content and entry files to a temporary directory,
// runs the command and returns the CSS it produced.
func (g *CLIGenerator) Generate(ctx context.Context, classes []string) (string, error) {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	command := g.Command
	if command == "" {
		command = "tailwindcss"
	}

	tmp, err := os.MkdirTemp("", "twtrace-css-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	contentPath := filepath.Join(tmp, "classes.txt")
	if err := os.WriteFile(contentPath, []byte(strings.Join(classes, "\n")+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write content file: %w", err)
	}
	inputPath := filepath.Join(tmp, "input.css")
	if err := os.WriteFile(inputPath, []byte(g.entry()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write input stylesheet: %w", err)
	}
	outputPath := filepath.Join(tmp, "output.css")

	args := append([]string(nil), g.Args...)
	args = append(args,
		"--input", inputPath,
		"--output", outputPath,
		"--content", contentPath,
	)
	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Dir = g.Dir

	logger.Debug("running css generator", "command", command, "classes", len(classes))
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run %s: %w\nstdout: %s\nstderr: %s",
			command, err, stdout.String(), stderr.String())
	}

	out, err := os.ReadFile(outputPath)
	if err != nil {
		return "", fmt.Errorf("generator produced no output: %w", err)
	}
	return string(out), nil
}

func (g *CLIGenerator) entry() string {
	if g.InputCSS != "" {
		return g.InputCSS
	}
	var b strings.Builder
	if g.Preflight {
		b.WriteString("@tailwind base;\n")
	}
	b.WriteString("@tailwind components;\n@tailwind utilities;\n")
	return b.String()
}

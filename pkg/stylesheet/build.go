package stylesheet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gnana997/twtrace/pkg/classes"
)

// ClassTransformer is the class-string entry point; *classes.Transformer
// implements it.
type ClassTransformer interface {
	Transform(value string, obfuscate bool) classes.Result
}

// BuildOptions configures Build.
type BuildOptions struct {
	Obfuscate bool
	Assemble  AssembleOptions
	Logger    *slog.Logger
}

// BuildResult is a generated stylesheet and the names it was keyed on.
type BuildResult struct {
	CSS string
	// Canonical holds the canonical name of every input class, in input
	// order, deduplicated. These are the names passed to the generator.
	Canonical []string
	// Canonicals maps each input class to its canonical name.
	Canonicals map[string]string
	// Outputs maps each input class to the name it has in rewritten sources.
	Outputs map[string]string
	// Renamed maps canonical names to opaque identifiers for obfuscated
	// builds.
	Renamed map[string]string
	// Missing lists output names without any rule in CSS.
	Missing []string
}

// Build canonicalizes classes, asks gen for their rules, renames selectors
// to opaque identifiers when obfuscating, and assembles the stylesheet.
func Build(ctx context.Context, gen Generator, t ClassTransformer, classList []string, opts BuildOptions) (*BuildResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	res := &BuildResult{
		Canonicals: make(map[string]string, len(classList)),
		Outputs:    make(map[string]string, len(classList)),
		Renamed:    make(map[string]string),
	}
	seen := make(map[string]struct{}, len(classList))
	for _, class := range classList {
		canonical := t.Transform(class, false).Output
		output := canonical
		if opts.Obfuscate {
			output = t.Transform(class, true).Output
			if output != canonical {
				res.Renamed[canonical] = output
			}
		}
		res.Canonicals[class] = canonical
		res.Outputs[class] = output
		if _, ok := seen[canonical]; !ok {
			seen[canonical] = struct{}{}
			res.Canonical = append(res.Canonical, canonical)
		}
	}

	generated, err := gen.Generate(ctx, res.Canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to generate rules: %w", err)
	}

	renamed, err := RenameClasses(generated, res.Renamed)
	if err != nil {
		return nil, err
	}

	present, err := SelectorClasses(renamed)
	if err != nil {
		return nil, err
	}
	res.Missing = missing(res.Canonical, res.Renamed, present)
	if len(res.Missing) > 0 {
		logger.Warn("classes without generated rules", "count", len(res.Missing), "first", res.Missing[0])
	}

	res.CSS, err = Assemble(renamed, opts.Assemble)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Coverage reports which of names have no rule in the stylesheet.
func Coverage(stylesheet string, names []string) ([]string, error) {
	present, err := SelectorClasses(stylesheet)
	if err != nil {
		return nil, err
	}
	return missing(names, nil, present), nil
}

func missing(names []string, renamed map[string]string, present []string) []string {
	have := make(map[string]struct{}, len(present))
	for _, p := range present {
		have[p] = struct{}{}
	}
	var out []string
	for _, name := range names {
		if to, ok := renamed[name]; ok {
			name = to
		}
		if _, ok := have[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

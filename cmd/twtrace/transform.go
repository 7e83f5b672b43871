package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gnana997/twtrace/pkg/extract"
	"github.com/gnana997/twtrace/pkg/indexer"
)

// runTransform rewrites stdin to stdout, or the named files. With --write
// files are rewritten in place; otherwise their new contents go to stdout.
func runTransform(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("transform", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	obf := fs.Bool("obfuscate", false, "replace utilities with opaque identifiers")
	filename := fs.String("filename", "", "name used to pick the grammar for stdin (default: TSX)")
	write := fs.Bool("write", false, "rewrite files in place")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := newApp(common, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "twtrace: %v\n", err)
		return 1
	}
	defer a.close()
	obfuscating := *obf || a.cfg.Obfuscation.Enabled

	status := 0
	if fs.NArg() == 0 {
		status = transformStdin(a, stdin, stdout, stderr, *filename, obfuscating)
	} else {
		for _, path := range fs.Args() {
			if err := transformPath(a, path, stdout, *write, obfuscating); err != nil {
				fmt.Fprintf(stderr, "twtrace: %v\n", err)
				status = 1
			}
		}
	}

	if obfuscating {
		if err := a.saveMappings(); err != nil {
			fmt.Fprintf(stderr, "twtrace: %v\n", err)
			status = 1
		}
	}
	return status
}

func transformStdin(a *app, stdin io.Reader, stdout, stderr io.Writer, filename string, obfuscating bool) int {
	src, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintf(stderr, "twtrace: failed to read stdin: %v\n", err)
		return 1
	}

	var res *extract.FileResult
	if filename == "" {
		res, err = a.engine.TransformSource(src, obfuscating)
	} else {
		res, err = a.engine.TransformFile(filename, src, obfuscating)
	}
	if err != nil {
		var perr *extract.ParseError
		if errors.As(err, &perr) {
			// Unparseable input passes through untouched.
			_, _ = stdout.Write(src)
		}
		fmt.Fprintf(stderr, "twtrace: %v\n", err)
		return 1
	}
	_, _ = stdout.Write(res.Source)
	return 0
}

func transformPath(a *app, path string, stdout io.Writer, write, obfuscating bool) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	res, err := a.engine.TransformFile(path, src, obfuscating)
	if err != nil {
		return err
	}

	if !write {
		_, err := stdout.Write(res.Source)
		return err
	}
	written, err := indexer.WriteBack(res)
	if err != nil {
		return err
	}
	if written {
		a.logger.Info("rewrote file", "path", path, "changed_sites", res.ChangedSites)
	}
	return nil
}

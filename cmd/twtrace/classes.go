package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/gnana997/twtrace/pkg/htmlscan"
)

// runClasses prints the recognized classes of stdin, one per line, in
// first-occurrence order.
func runClasses(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("classes", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	filename := fs.String("filename", "", "name used to pick the grammar (default: TSX)")
	html := fs.Bool("html", false, "read stdin as an HTML page")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := newApp(common, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "twtrace: %v\n", err)
		return 1
	}
	defer a.close()

	var found []string
	if *html {
		page, err := htmlscan.ExtractClasses(stdin, a.engine.Transformer())
		if err != nil {
			fmt.Fprintf(stderr, "twtrace: %v\n", err)
			return 1
		}
		found = page.Classes
	} else {
		src, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "twtrace: failed to read stdin: %v\n", err)
			return 1
		}
		name := *filename
		if name == "" {
			name = "stdin.tsx"
		}
		res, err := a.engine.TransformFile(name, src, false)
		if err != nil {
			fmt.Fprintf(stderr, "twtrace: %v\n", err)
			return 1
		}
		found = res.Classes
	}

	for _, class := range found {
		fmt.Fprintln(stdout, class)
	}
	return 0
}

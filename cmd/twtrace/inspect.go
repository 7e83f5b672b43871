package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/gnana997/twtrace/pkg/classes"
	"github.com/gnana997/twtrace/pkg/tailwind"
)

const maxWidth = 80

// runInspect explains tokens, or with --string a whole class string.
func runInspect(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	asString := fs.Bool("string", false, "treat the arguments as one class string")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: twtrace inspect [--string] <class>...")
		return 2
	}

	a, err := newApp(common, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "twtrace: %v\n", err)
		return 1
	}
	defer a.close()

	tr := a.engine.Transformer()
	if *asString {
		value := strings.Join(fs.Args(), " ")
		printClassString(stdout, value, tr.Transform(value, false))
		return 0
	}

	classifier := tr.Splitter().Classifier()
	for i, token := range fs.Args() {
		if i > 0 {
			fmt.Fprintln(stdout)
		}
		printToken(stdout, classifier, tr, token)
	}
	return 0
}

// printToken prints a human-readable breakdown of one token.
func printToken(w io.Writer, classifier *tailwind.Classifier, tr *classes.Transformer, token string) {
	c := classifier.Classify(token)
	if !c.Recognized() {
		fmt.Fprintf(w, "%s  [not a utility]\n", token)
		if s := classifier.Suggest(token); s != "" {
			fmt.Fprintf(w, "  did you mean  %s\n", s)
		}
		return
	}

	tok := c.Token
	fmt.Fprintf(w, "%s  [%s]\n", token, tok.Kind)

	rows := [][2]string{
		{"canonical", tr.Transform(token, false).Output},
		{"variants", strings.Join(tok.Variants, " ")},
		{"family", tok.Base},
		{"value", tok.Value},
		{"scale", tok.Scale},
		{"modifier", tok.Modifier},
	}
	if tok.Negative {
		rows = append(rows, [2]string{"negative", "yes"})
	}
	if tok.Important || tok.ImportantOnBase {
		rows = append(rows, [2]string{"important", "yes"})
	}
	printRows(w, rows)
}

// printClassString prints the tier decision and output for a class string.
func printClassString(w io.Writer, value string, res classes.Result) {
	fmt.Fprintf(w, "tier  %s\n", res.Tier)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input")
	printWrapped(w, value, 2, maxWidth)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output")
	printWrapped(w, res.Output, 2, maxWidth)
	fmt.Fprintln(w)
	if len(res.Classes) == 0 {
		fmt.Fprintln(w, "Classes  (none)")
		return
	}
	fmt.Fprintln(w, "Classes")
	printWrapped(w, strings.Join(res.Classes, " "), 2, maxWidth)
}

// printRows prints non-empty label/value rows with aligned values.
func printRows(w io.Writer, rows [][2]string) {
	labelW := 0
	for _, r := range rows {
		if r[1] != "" && len(r[0]) > labelW {
			labelW = len(r[0])
		}
	}
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(w, "  %-*s  %s\n", labelW, r[0], r[1])
	}
}

// printWrapped prints text word-wrapped at width with the given left indent.
func printWrapped(w io.Writer, text string, indent, width int) {
	words := strings.Fields(text)
	prefix := strings.Repeat(" ", indent)
	line := prefix
	for _, word := range words {
		if len(line)+len(word)+1 > width && line != prefix {
			fmt.Fprintln(w, line)
			line = prefix + word
		} else if line == prefix {
			line += word
		} else {
			line += " " + word
		}
	}
	if line != prefix {
		fmt.Fprintln(w, line)
	}
}

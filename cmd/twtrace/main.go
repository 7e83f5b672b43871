package main

import (
	"fmt"
	"io"
	"os"
)

const version = "0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches a command and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	command, rest := args[0], args[1:]
	switch command {
	case "transform":
		return runTransform(rest, stdin, stdout, stderr)
	case "classes":
		return runClasses(rest, stdin, stdout, stderr)
	case "extract":
		return runExtract(rest, stdout, stderr)
	case "watch":
		return runWatch(rest, stdout, stderr)
	case "inspect":
		return runInspect(rest, stdout, stderr)
	case "serve":
		return runServe(rest, stderr)
	case "setup":
		return runSetup(rest, stdin, stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "twtrace %s\n", version)
		return 0
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", command)
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: twtrace <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  transform  Rewrite class strings in source (stdin or files)")
	fmt.Fprintln(w, "  classes    List the Tailwind classes used by source on stdin")
	fmt.Fprintln(w, "  extract    Scan the workspace and write the stylesheet and manifest")
	fmt.Fprintln(w, "  watch      Rebuild the stylesheet when sources change")
	fmt.Fprintln(w, "  inspect    Explain how class tokens are parsed and rewritten")
	fmt.Fprintln(w, "  serve      Start the MCP server on stdio")
	fmt.Fprintln(w, "  setup      Register the MCP server with installed AI agents")
	fmt.Fprintln(w, "  version    Print version")
	fmt.Fprintln(w, "  help       Show this help message")
}

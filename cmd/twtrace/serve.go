package main

import (
	"flag"
	"fmt"
	"io"

	mcpserver "github.com/gnana997/twtrace/pkg/mcp"
	"github.com/gnana997/twtrace/pkg/mcplog"
)

// runServe serves MCP on stdio. Diagnostics go to stderr only.
func runServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	logFile := fs.String("log-file", "", "append a JSONL record per tool call to this file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	// The pretty handler writes to stdout, which carries the protocol.
	common.stdoutReserved = true

	a, err := newApp(common, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "twtrace: %v\n", err)
		return 1
	}
	defer a.close()

	callLog, err := mcplog.NewLogger(resolvePath(a.root, firstNonEmpty(*logFile, a.cfg.Log.MCPFile)))
	if err != nil {
		fmt.Fprintf(stderr, "twtrace: %v\n", err)
		return 1
	}
	defer callLog.Close()

	srv := mcpserver.NewServer(a.engine, callLog, version)
	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintf(stderr, "server error: %v\n", err)
		return 1
	}
	return 0
}

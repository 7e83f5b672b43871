package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gnana997/twtrace/pkg/indexer"
)

// runWatch builds once, then rebuilds the stylesheet and manifest whenever
// sources change. Sources are never rewritten in watch mode.
func runWatch(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var flags extractFlags
	flags.register(fs)
	debounceMs := fs.Int("debounce", 0, "rebuild debounce in milliseconds")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := newApp(flags.commonFlags, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "twtrace: %v\n", err)
		return 1
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := newBuilder(a, flags)
	defer b.close()

	if err := watch(ctx, b, *debounceMs, stdout); err != nil {
		fmt.Fprintf(stderr, "twtrace: %v\n", err)
		return 1
	}
	return 0
}

// watch runs until ctx is done.
func watch(ctx context.Context, b *builder, debounceMs int, stdout io.Writer) error {
	opts := b.scanOptions()
	stats, err := b.scanner.Scan(ctx, b.app.root, opts, nil)
	if err != nil {
		return err
	}
	res, err := b.build(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "built %s: %d files, %d classes\n", b.cssPath, stats.FilesProcessed, len(res.Canonical))

	watchOpts := indexer.DefaultWatchOptions()
	if debounceMs > 0 {
		watchOpts.RebuildDebounceMs = debounceMs
	}

	rebuild := func(events []indexer.WatchEvent) {
		res, err := b.build(ctx)
		if err != nil {
			b.app.logger.Error("rebuild failed", "error", err)
			return
		}
		fmt.Fprintf(stdout, "rebuilt %s after %d changes: %d classes\n", b.cssPath, len(events), len(res.Canonical))
	}

	fw, err := indexer.NewFileWatcher(b.scanner, opts, watchOpts, rebuild, b.app.logger)
	if err != nil {
		return err
	}
	if err := fw.Start(b.app.root); err != nil {
		return err
	}
	b.app.logger.Info("watching for changes", "root", b.app.root)

	<-ctx.Done()
	return fw.Stop()
}

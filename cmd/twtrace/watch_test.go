package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchRebuildsOnChange(t *testing.T) {
	stubGenerator(t)
	root := sampleProject(t, "")

	a, err := newApp(commonFlags{root: root}, io.Discard)
	require.NoError(t, err)
	defer a.close()
	b := newBuilder(a, extractFlags{})
	defer b.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &lockedBuffer{}
	done := make(chan error, 1)
	go func() { done <- watch(ctx, b, 50, out) }()

	cssPath := filepath.Join(root, "dist", "tailwind.css")
	readCSS := func() string {
		data, _ := os.ReadFile(cssPath)
		return string(data)
	}

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "built ")
	}, 10*time.Second, 20*time.Millisecond)
	assert.Contains(t, readCSS(), `.px-\[1rem\]`)
	assert.NotContains(t, readCSS(), "1.75rem")

	// Keep touching the file until the watcher is up and has rebuilt.
	newFile := filepath.Join(root, "src", "Gap.tsx")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(newFile, []byte(`export const G = () => <i className="gap-7">x</i>;`), 0o644)
		return strings.Contains(readCSS(), `gap-\[1\.75rem\]`)
	}, 15*time.Second, 300*time.Millisecond)
	assert.Contains(t, out.String(), "rebuilt ")

	src, err := os.ReadFile(newFile)
	require.NoError(t, err)
	assert.Contains(t, string(src), `className="gap-7"`, "watch never rewrites sources")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

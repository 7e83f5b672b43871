// Package htmlscan collects Tailwind classes from static HTML pages. Pages
// are only read; class attributes in HTML are never rewritten.
package htmlscan

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/PuerkitoBio/goquery"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/twtrace/pkg/classes"
)

// ClassTransformer is satisfied by *classes.Transformer.
type ClassTransformer interface {
	Transform(value string, obfuscate bool) classes.Result
}

// Page is the result of scanning one HTML document.
type Page struct {
	Path string
	// Classes are the recognized classes, deduplicated in document order.
	Classes []string
	// Elements is the number of elements carrying a class attribute.
	Elements int
}

// ExtractClasses runs every class attribute of the document through t and
// returns the recognized classes in document order.
func ExtractClasses(r io.Reader, t ClassTransformer) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	page := &Page{}
	seen := make(map[string]struct{})
	doc.Find("[class]").Each(func(_ int, s *goquery.Selection) {
		value, ok := s.Attr("class")
		if !ok {
			return
		}
		page.Elements++
		for _, class := range t.Transform(value, false).Classes {
			if _, dup := seen[class]; dup {
				continue
			}
			seen[class] = struct{}{}
			page.Classes = append(page.Classes, class)
		}
	})
	return page, nil
}

// ExtractFile scans the HTML file at path.
func ExtractFile(path string, t ClassTransformer) (*Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	page, err := ExtractClasses(f, t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	page.Path = path
	return page, nil
}

// Glob expands doublestar patterns relative to root and returns the
// matching regular files as sorted absolute paths.
func Glob(root string, patterns []string) ([]string, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid html pattern: %q", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := fs.Stat(fsys, m)
			if err != nil || info.IsDir() {
				continue
			}
			abs := filepath.Join(root, filepath.FromSlash(m))
			if _, ok := seen[abs]; !ok {
				seen[abs] = struct{}{}
				out = append(out, abs)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

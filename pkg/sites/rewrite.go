package sites

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/twtrace/pkg/classes"
)

// ClassTransformer is the class-string entry point the visitor calls.
// *classes.Transformer implements it.
type ClassTransformer interface {
	Transform(value string, obfuscate bool) classes.Result
}

// SiteResult is the outcome for one visited site.
type SiteResult struct {
	Site    Site
	Output  string
	Classes []string
	Changed bool
	Tier    classes.Tier
	// Dropped is set when a changed output could not be written back safely;
	// the site keeps its original text.
	Dropped bool
}

// Result is the outcome of rewriting one program.
type Result struct {
	// Source is the rewritten program; it is the input buffer when no site
	// changed.
	Source []byte
	Sites  []SiteResult
	Stats  Stats
}

// ChangedSites counts sites whose text was replaced.
func (r Result) ChangedSites() int {
	n := 0
	for _, s := range r.Sites {
		if s.Changed && !s.Dropped {
			n++
		}
	}
	return n
}

// Rewrite visits every site under root in document order, runs its text
// through t and replaces the text of changed sites.
func Rewrite(root *ts.Node, source []byte, t ClassTransformer, obfuscate bool, opts Options) Result {
	found, stats := Collect(root, source, opts)
	doc := NewDocument(source, found)

	results := make([]SiteResult, 0, len(found))
	for i := 0; i < doc.Len(); i++ {
		h := Handle(i)
		site := doc.Site(h)
		res := t.Transform(site.Text, obfuscate)
		sr := SiteResult{
			Site:    site,
			Output:  res.Output,
			Classes: res.Classes,
			Changed: res.Changed,
			Tier:    res.Tier,
		}
		if res.Changed {
			if err := doc.Replace(h, res.Output); err != nil {
				sr.Dropped = true
				sr.Output = site.Text
			}
		}
		results = append(results, sr)
	}

	return Result{Source: doc.Render(), Sites: results, Stats: stats}
}

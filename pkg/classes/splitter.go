package classes

import (
	"strings"
	"unicode"

	"github.com/gnana997/twtrace/pkg/tailwind"
)

// Result is the outcome of transforming one class string.
type Result struct {
	// Output is the transformed string, or the input byte-for-byte when
	// nothing changed.
	Output string
	// Classes lists the original text of every recognized token, deduplicated
	// in first-occurrence order.
	Classes []string
	// Changed reports Output != input.
	Changed bool
	// Tier is the strategy that produced Output.
	Tier Tier
}

// GroupOptimizer collapses traced tokens that share a common arbitrary-value
// target. It only ever sees the output of TierWhole and must preserve the
// relative order of the tokens it keeps.
type GroupOptimizer interface {
	Optimize(tokens []string) []string
}

// Splitter applies the fallback tiers to a class string.
// It holds no mutable state and is safe for concurrent use.
type Splitter struct {
	classifier *tailwind.Classifier
	tracer     *tailwind.Tracer
	optimizer  GroupOptimizer
}

// SplitterOption configures a Splitter.
type SplitterOption func(*Splitter)

// WithGroupOptimizer installs a TierWhole group optimizer.
func WithGroupOptimizer(opt GroupOptimizer) SplitterOption {
	return func(s *Splitter) {
		s.optimizer = opt
	}
}

// NewSplitter creates a splitter. Nil classifier or tracer select the ones
// built on the default catalogue, without an identifier table.
func NewSplitter(classifier *tailwind.Classifier, tracer *tailwind.Tracer, opts ...SplitterOption) *Splitter {
	if classifier == nil {
		classifier = tailwind.NewClassifier(nil)
	}
	if tracer == nil {
		tracer = tailwind.NewTracer(classifier.Catalog(), nil)
	}
	s := &Splitter{classifier: classifier, tracer: tracer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classifier returns the classifier the splitter consults.
func (s *Splitter) Classifier() *tailwind.Classifier {
	return s.classifier
}

// split holds one tokenized class string while a strategy runs.
type split struct {
	tokens  []string
	classes []tailwind.Classification
}

// SplitAndTrace transforms value with the first tier whose precondition
// holds. Empty and whitespace-only input is returned unchanged.
func (s *Splitter) SplitAndTrace(value string, obfuscate bool) Result {
	tokens := strings.FieldsFunc(value, unicode.IsSpace)
	if len(tokens) == 0 {
		return Result{Output: value, Tier: TierNone}
	}

	sp := split{tokens: tokens, classes: make([]tailwind.Classification, len(tokens))}
	recognized := make([]bool, len(tokens))
	for i, tok := range tokens {
		sp.classes[i] = s.classifier.Classify(tok)
		recognized[i] = sp.classes[i].Recognized()
	}

	tier := selectTier(recognized)

	var out []string
	var changed bool
	switch tier {
	case TierWhole:
		out, changed = s.traceWhole(sp, obfuscate)
	case TierCustomPrefix:
		out, changed = s.traceExcept(sp, 0, obfuscate)
	case TierCustomSuffix:
		out, changed = s.traceExcept(sp, len(tokens)-1, obfuscate)
	default:
		out, changed = s.tracePerToken(sp, obfuscate)
	}

	res := Result{Output: value, Classes: recognizedOriginals(sp), Tier: tier}
	if !changed {
		return res
	}
	res.Output = rebuild(value, out)
	res.Changed = res.Output != value
	return res
}

// traceWhole traces every token and hands the result to the group optimizer.
func (s *Splitter) traceWhole(sp split, obfuscate bool) ([]string, bool) {
	out, changed := s.tracePerToken(sp, obfuscate)
	if s.optimizer == nil {
		return out, changed
	}
	optimized := s.optimizer.Optimize(append([]string(nil), out...))
	if !equalStrings(optimized, out) {
		return optimized, true
	}
	return out, changed
}

// traceExcept keeps the token at skip verbatim and traces the rest.
func (s *Splitter) traceExcept(sp split, skip int, obfuscate bool) ([]string, bool) {
	out := make([]string, len(sp.tokens))
	changed := false
	for i, tok := range sp.tokens {
		if i == skip {
			out[i] = tok
			continue
		}
		traced := s.tracer.Trace(*sp.classes[i].Token, obfuscate)
		out[i] = traced.Canonical
		changed = changed || traced.Changed
	}
	return out, changed
}

// tracePerToken traces recognized tokens and passes the rest through.
func (s *Splitter) tracePerToken(sp split, obfuscate bool) ([]string, bool) {
	out := make([]string, len(sp.tokens))
	changed := false
	for i, tok := range sp.tokens {
		if !sp.classes[i].Recognized() {
			out[i] = tok
			continue
		}
		traced := s.tracer.Trace(*sp.classes[i].Token, obfuscate)
		out[i] = traced.Canonical
		changed = changed || traced.Changed
	}
	return out, changed
}

func recognizedOriginals(sp split) []string {
	var classes []string
	seen := make(map[string]struct{}, len(sp.tokens))
	for i, tok := range sp.tokens {
		if !sp.classes[i].Recognized() {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		classes = append(classes, tok)
	}
	return classes
}

// rebuild joins tokens with single spaces, keeping the leading and trailing
// whitespace of the original value.
func rebuild(original string, tokens []string) string {
	trimmedLeft := strings.TrimLeftFunc(original, unicode.IsSpace)
	leading := original[:len(original)-len(trimmedLeft)]
	trimmed := strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)
	trailing := trimmedLeft[len(trimmed):]
	return leading + strings.Join(tokens, " ") + trailing
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

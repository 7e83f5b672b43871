// Package sites finds the string literals of a parsed JavaScript or
// TypeScript program that hold class lists, and rewrites them in place.
//
// Rewriting works on byte ranges of the original source: only the content
// between a literal's delimiters is replaced, so every other byte of the file
// (quotes, JSX structure, formatting, comments) is preserved and positions
// outside changed literals stay valid.
package sites

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Kind tags the syntactic position of a site.
type Kind int

const (
	// KindJSXAttribute is a string given to a JSX attribute, directly or
	// through an expression container.
	KindJSXAttribute Kind = iota
	// KindStringLiteral is any other string literal.
	KindStringLiteral
	// KindArrayElement is a string element of an array literal.
	KindArrayElement
	// KindObjectValue is a string value of an object property.
	KindObjectValue
	// KindObjectKey is a string key of an object property (clsx-style maps).
	KindObjectKey
	// KindTemplateString is a template literal without substitutions.
	KindTemplateString
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindJSXAttribute:
		return "jsx-attribute"
	case KindStringLiteral:
		return "string"
	case KindArrayElement:
		return "array-element"
	case KindObjectValue:
		return "object-value"
	case KindObjectKey:
		return "object-key"
	case KindTemplateString:
		return "template"
	default:
		return "unknown"
	}
}

// Site is one literal holding class-list text.
type Site struct {
	Kind Kind
	// Start and End delimit the literal's content, excluding its delimiters.
	Start, End uint
	// Text is the literal content as written.
	Text string
	// Delimiter is the quote character of the literal.
	Delimiter byte
	// Forced marks class attributes and class properties, which are always
	// transformed; other sites passed the class-list heuristic.
	Forced bool
	// Line and Column locate the literal, 1-based.
	Line, Column int
}

// DefaultClassNames are the attribute and property names whose values are
// always class lists.
var DefaultClassNames = []string{"class", "className"}

// Options tunes site discovery.
type Options struct {
	// ClassNames overrides DefaultClassNames.
	ClassNames []string
	// ObjectKeys also treats string keys of object literals as sites, as in
	// clsx({"bg-white": isLight}).
	ObjectKeys bool
}

// Stats counts what discovery saw besides the sites themselves.
type Stats struct {
	Strings           int // string and template literals visited
	SkippedTemplates  int // templates skipped for containing substitutions
	SkippedEscapes    int // literals skipped for escape sequences or entities
	SkippedNonClasses int // literals rejected by the heuristic
	SkippedStructural int // module specifiers, directives, literal types, keys
}

// Collect returns every site under root in document order.
func Collect(root *ts.Node, source []byte, opts Options) ([]Site, Stats) {
	names := opts.ClassNames
	if len(names) == 0 {
		names = DefaultClassNames
	}
	c := &collector{
		source:     source,
		opts:       opts,
		classNames: make(map[string]struct{}, len(names)),
	}
	for _, n := range names {
		c.classNames[n] = struct{}{}
	}
	if root != nil {
		c.walk(root)
	}
	return c.sites, c.stats
}

type collector struct {
	source     []byte
	opts       Options
	classNames map[string]struct{}
	sites      []Site
	stats      Stats
}

func (c *collector) walk(n *ts.Node) {
	switch n.Kind() {
	case "template_string":
		c.stats.Strings++
		if hasChild(n, "template_substitution") {
			// Nothing inside, including strings in the substitutions, is visited.
			c.stats.SkippedTemplates++
			return
		}
		c.consider(n, KindTemplateString)
		return
	case "string":
		c.stats.Strings++
		c.consider(n, KindStringLiteral)
		return
	}

	for i := uint(0); i < n.ChildCount(); i++ {
		c.walk(n.Child(i))
	}
}

func (c *collector) consider(n *ts.Node, kind Kind) {
	ctxKind, forced, ok := c.context(n)
	if !ok {
		c.stats.SkippedStructural++
		return
	}
	if kind != KindTemplateString {
		kind = ctxKind
	}

	if !plainLiteral(n) {
		c.stats.SkippedEscapes++
		return
	}
	start, end := n.StartByte()+1, n.EndByte()-1
	if end < start {
		return
	}
	text := string(c.source[start:end])
	if strings.Contains(text, `\`) {
		c.stats.SkippedEscapes++
		return
	}
	if !forced && !looksLikeClasses(text) {
		c.stats.SkippedNonClasses++
		return
	}

	pos := n.StartPosition()
	c.sites = append(c.sites, Site{
		Kind:      kind,
		Start:     start,
		End:       end,
		Text:      text,
		Delimiter: c.source[n.StartByte()],
		Forced:    forced,
		Line:      int(pos.Row) + 1,
		Column:    int(pos.Column) + 1,
	})
}

// context classifies a literal by its parent. ok is false for positions that
// never hold class lists.
func (c *collector) context(n *ts.Node) (kind Kind, forced bool, ok bool) {
	parent := n.Parent()
	if parent == nil {
		return KindStringLiteral, false, true
	}

	switch parent.Kind() {
	case "import_statement", "export_statement", "import_require_clause",
		"external_module_reference", "expression_statement", "literal_type":
		return 0, false, false

	case "arguments":
		if call := parent.Parent(); call != nil && isModuleCall(call, c.source) {
			return 0, false, false
		}
		return KindStringLiteral, false, true

	case "jsx_attribute":
		return KindJSXAttribute, c.isClassName(jsxAttributeName(parent, c.source)), true

	case "jsx_expression":
		if attr := parent.Parent(); attr != nil && attr.Kind() == "jsx_attribute" {
			return KindJSXAttribute, c.isClassName(jsxAttributeName(attr, c.source)), true
		}
		return KindStringLiteral, false, true

	case "array":
		return KindArrayElement, false, true

	case "pair":
		if key := parent.ChildByFieldName("key"); key != nil && key.StartByte() == n.StartByte() {
			if !c.opts.ObjectKeys {
				return 0, false, false
			}
			return KindObjectKey, false, true
		}
		return KindObjectValue, c.isClassName(propertyName(parent, c.source)), true
	}

	return KindStringLiteral, false, true
}

func (c *collector) isClassName(name string) bool {
	_, ok := c.classNames[name]
	return ok
}

// isModuleCall reports require("x") and import("x").
func isModuleCall(call *ts.Node, source []byte) bool {
	if call.Kind() != "call_expression" {
		return false
	}
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return false
	}
	return fn.Kind() == "import" || (fn.Kind() == "identifier" && fn.Utf8Text(source) == "require")
}

func jsxAttributeName(attr *ts.Node, source []byte) string {
	if attr.ChildCount() == 0 {
		return ""
	}
	name := attr.Child(0)
	if name.Kind() != "property_identifier" {
		return ""
	}
	return name.Utf8Text(source)
}

// propertyName returns the key of a pair when it is an identifier or a plain
// string.
func propertyName(pair *ts.Node, source []byte) string {
	key := pair.ChildByFieldName("key")
	if key == nil {
		return ""
	}
	switch key.Kind() {
	case "property_identifier":
		return key.Utf8Text(source)
	case "string":
		text := key.Utf8Text(source)
		if len(text) >= 2 {
			return text[1 : len(text)-1]
		}
	}
	return ""
}

// plainLiteral reports a literal made only of delimiters and raw fragments.
func plainLiteral(n *ts.Node) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		switch n.Child(i).Kind() {
		case "string_fragment", `"`, `'`, "`":
		default:
			return false
		}
	}
	return true
}

func hasChild(n *ts.Node, kind string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		if n.Child(i).Kind() == kind {
			return true
		}
	}
	return false
}

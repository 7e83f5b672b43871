package parser

import (
	"bytes"
	"fmt"

	ts "github.com/tree-sitter/go-tree-sitter"
)

const maxSnippet = 80

// SyntaxError locates the first ERROR or MISSING node of a tree.
// Line and Column are 1-based; Column counts bytes.
type SyntaxError struct {
	Line    int
	Column  int
	Missing string // expected token for MISSING nodes
	Snippet string // source line of the error, truncated
}

func (e SyntaxError) Error() string {
	if e.Missing != "" {
		return fmt.Sprintf("%d:%d: missing %q", e.Line, e.Column, e.Missing)
	}
	return fmt.Sprintf("%d:%d: unexpected syntax near %q", e.Line, e.Column, e.Snippet)
}

// FirstSyntaxError returns the first error node in document order.
func FirstSyntaxError(root *ts.Node, source []byte) (SyntaxError, bool) {
	if root == nil || !root.HasError() {
		return SyntaxError{}, false
	}
	node := firstErrorNode(root)
	if node == nil {
		// HasError with no locatable node; report the root.
		node = root
	}

	pos := node.StartPosition()
	se := SyntaxError{
		Line:    int(pos.Row) + 1,
		Column:  int(pos.Column) + 1,
		Snippet: lineAt(source, node.StartByte()),
	}
	if node.IsMissing() {
		se.Missing = node.Kind()
	}
	return se, true
}

func firstErrorNode(node *ts.Node) *ts.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

func lineAt(source []byte, offset uint) string {
	if int(offset) > len(source) {
		return ""
	}
	start := bytes.LastIndexByte(source[:offset], '\n') + 1
	end := bytes.IndexByte(source[offset:], '\n')
	if end < 0 {
		end = len(source)
	} else {
		end += int(offset)
	}
	line := bytes.TrimSpace(source[start:end])
	if len(line) > maxSnippet {
		line = line[:maxSnippet]
	}
	return string(line)
}

package parser

import (
	"path/filepath"
	"strings"
)

// Dialect is a source grammar the manager can parse.
type Dialect int

const (
	// DialectTSX is TypeScript with JSX. It is the default for unnamed input
	// because it accepts most component code.
	DialectTSX Dialect = iota
	// DialectTypeScript is plain TypeScript, where "<T>x" is a type assertion.
	DialectTypeScript
	// DialectJavaScript covers .js and .jsx; the grammar handles JSX itself.
	DialectJavaScript
	// DialectUnknown marks unsupported files.
	DialectUnknown
)

// String returns the dialect name.
func (d Dialect) String() string {
	switch d {
	case DialectTSX:
		return "tsx"
	case DialectTypeScript:
		return "typescript"
	case DialectJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// DialectForPath picks the grammar for a file from its extension.
func DialectForPath(path string) Dialect {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx":
		return DialectTSX
	case ".ts", ".mts", ".cts":
		return DialectTypeScript
	case ".js", ".jsx", ".mjs", ".cjs":
		return DialectJavaScript
	default:
		return DialectUnknown
	}
}

// ParseDialect converts a dialect name, as accepted on the command line.
func ParseDialect(name string) Dialect {
	switch strings.ToLower(name) {
	case "tsx", "":
		return DialectTSX
	case "typescript", "ts":
		return DialectTypeScript
	case "javascript", "js", "jsx":
		return DialectJavaScript
	default:
		return DialectUnknown
	}
}

// SupportedDialects lists every dialect with a grammar.
func SupportedDialects() []Dialect {
	return []Dialect{DialectTSX, DialectTypeScript, DialectJavaScript}
}

// SupportedExtensions lists the file extensions DialectForPath recognizes.
func SupportedExtensions() []string {
	return []string{".tsx", ".ts", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}
}

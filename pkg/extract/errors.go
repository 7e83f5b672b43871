package extract

import (
	"fmt"

	"github.com/gnana997/twtrace/pkg/parser"
)

// ParseError reports a source file that does not parse. It is the only
// failure the engine returns for well-formed input; no sites are rewritten
// for such a file.
type ParseError struct {
	Path string
	parser.SyntaxError
}

func (e *ParseError) Error() string {
	path := e.Path
	if path == "" {
		path = "<source>"
	}
	return fmt.Sprintf("parse error in %s:%s", path, e.SyntaxError.Error())
}

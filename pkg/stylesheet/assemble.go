package stylesheet

import (
	"fmt"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
)

const cssMediaType = "text/css"

// AssembleOptions controls the final stylesheet text.
type AssembleOptions struct {
	Minify bool
	// Header is written as a leading comment when non-empty.
	Header string
}

// Assemble minifies css when asked and prepends the header comment.
func Assemble(stylesheet string, opts AssembleOptions) (string, error) {
	out := stylesheet
	if opts.Minify {
		m := minify.New()
		m.AddFunc(cssMediaType, css.Minify)
		minified, err := m.String(cssMediaType, stylesheet)
		if err != nil {
			return "", fmt.Errorf("failed to minify stylesheet: %w", err)
		}
		out = minified
	}

	if opts.Header == "" {
		return out, nil
	}
	header := "/* " + strings.ReplaceAll(opts.Header, "*/", "* /") + " */"
	if opts.Minify {
		return header + out, nil
	}
	return header + "\n" + out, nil
}

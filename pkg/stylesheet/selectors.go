package stylesheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// RenameClasses rewrites class selectors whose unescaped name is a key of
// renames. Everything else is copied token by token.
func RenameClasses(stylesheet string, renames map[string]string) (string, error) {
	if len(renames) == 0 {
		return stylesheet, nil
	}

	lexer := css.NewLexer(parse.NewInputString(stylesheet))
	var out bytes.Buffer
	out.Grow(len(stylesheet))

	dot := false
	for {
		tt, data := lexer.Next()
		if tt == css.ErrorToken {
			if err := lexer.Err(); err != nil && !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("failed to read stylesheet: %w", err)
			}
			return out.String(), nil
		}

		if dot && tt == css.IdentToken {
			if to, ok := renames[unescapeIdent(string(data))]; ok {
				out.WriteString(escapeIdent(to))
				dot = false
				continue
			}
		}
		dot = tt == css.DelimToken && len(data) == 1 && data[0] == '.'
		out.Write(data)
	}
}

// SelectorClasses lists the class names used in rule selectors, unescaped,
// in first-occurrence order.
func SelectorClasses(stylesheet string) ([]string, error) {
	p := css.NewParser(parse.NewInputString(stylesheet), false)

	seen := make(map[string]struct{})
	var names []string
	for {
		gt, _, _ := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := p.Err(); err != nil && !errors.Is(err, io.EOF) {
				return names, fmt.Errorf("failed to parse stylesheet: %w", err)
			}
			return names, nil

		case css.BeginRulesetGrammar, css.QualifiedRuleGrammar:
			values := p.Values()
			for i := 0; i+1 < len(values); i++ {
				v := values[i]
				if v.TokenType != css.DelimToken || string(v.Data) != "." {
					continue
				}
				next := values[i+1]
				if next.TokenType != css.IdentToken {
					continue
				}
				name := unescapeIdent(string(next.Data))
				if _, ok := seen[name]; !ok {
					seen[name] = struct{}{}
					names = append(names, name)
				}
			}
		}
	}
}

// escapeIdent escapes a class name for use after "." in a selector.
func escapeIdent(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r >= 0x80:
			b.WriteRune(r)
		case r == '-':
			if i == 0 && len(name) == 1 {
				b.WriteString(`\-`)
			} else {
				b.WriteRune(r)
			}
		case r >= '0' && r <= '9':
			if i == 0 || (i == 1 && name[0] == '-') {
				b.WriteString(`\` + strconv.FormatInt(int64(r), 16) + " ")
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}

// unescapeIdent resolves CSS escapes: "\" + 1-6 hex digits with an optional
// trailing space, or "\" + any other character.
func unescapeIdent(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		j := i + 1
		for j < len(s) && j-i <= 6 && isHex(s[j]) {
			j++
		}
		if j == i+1 {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		code, _ := strconv.ParseUint(s[i+1:j], 16, 32)
		b.WriteRune(rune(code))
		if j < len(s) && s[j] == ' ' {
			j++
		}
		i = j - 1
	}
	return b.String()
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

package tailwind

import "strings"

// maxTokenLength bounds the tokens the classifier will consider.
const maxTokenLength = 100

// Classification is the result of classifying one token. Token is nil when
// the text is not a Tailwind utility; that is a normal outcome, not an error.
type Classification struct {
	Raw   string
	Token *ClassToken
}

// Recognized reports whether the token matched the utility grammar.
func (c Classification) Recognized() bool {
	return c.Token != nil
}

// Classifier decides whether single tokens are Tailwind utilities.
// It is pure and safe for concurrent use.
type Classifier struct {
	catalog *Catalog
}

// NewClassifier creates a classifier over catalog. A nil catalog selects
// DefaultCatalog.
func NewClassifier(catalog *Catalog) *Classifier {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Classifier{catalog: catalog}
}

// Catalog returns the catalogue the classifier consults.
func (c *Classifier) Catalog() *Catalog {
	return c.catalog
}

// Classify parses token against the catalogue.
//
// Any parse failure (unknown variant, unknown prefix or value, unbalanced
// brackets) yields an unrecognized Classification holding the original text.
func (c *Classifier) Classify(token string) Classification {
	miss := Classification{Raw: token}
	if !plausibleToken(token) {
		return miss
	}

	tok := &ClassToken{Raw: token}
	rest := token
	if strings.HasPrefix(rest, "!") {
		tok.Important = true
		rest = rest[1:]
	}

	segments := splitTopLevel(rest, ':')
	if len(segments) == 0 {
		return miss
	}
	for _, v := range segments[:len(segments)-1] {
		if !c.validVariant(v) {
			return miss
		}
	}
	if len(segments) > 1 {
		tok.Variants = segments[:len(segments)-1]
	}

	utility := segments[len(segments)-1]
	if strings.HasPrefix(utility, "!") && !tok.Important {
		tok.ImportantOnBase = true
		utility = utility[1:]
	}
	if !c.classifyUtility(tok, utility) {
		return miss
	}
	return Classification{Raw: token, Token: tok}
}

// plausibleToken rejects text that can never be a class name.
func plausibleToken(token string) bool {
	if token == "" || len(token) > maxTokenLength {
		return false
	}
	for i := 0; i < len(token); i++ {
		switch token[i] {
		case ' ', '\t', '\n', '\r', '\f', '\v', '<', '>', '{', '}', ';', '"', '`', '\\':
			return false
		}
	}
	return true
}

func (c *Classifier) validVariant(v string) bool {
	if v == "" {
		return false
	}
	if _, ok := c.catalog.variants[v]; ok {
		return true
	}
	if c.catalog.IsBreakpoint(v) || isArbitrary(v) {
		return true
	}

	// Prefixed variants. Dashes inside an arbitrary group never split.
	limit := len(v)
	if i := strings.IndexByte(v, '['); i >= 0 {
		limit = i
	}
	for i := limit - 1; i > 0; i-- {
		if v[i] != '-' {
			continue
		}
		prefix, rest := v[:i], v[i+1:]
		if rest == "" {
			continue
		}
		switch {
		case prefix == "max" || prefix == "min":
			if c.catalog.IsBreakpoint(rest) || isArbitrary(rest) {
				return true
			}
		case has(c.catalog.open, prefix):
			return true
		case has(c.catalog.numeric, prefix):
			if isDigits(rest) || isArbitrary(rest) {
				return true
			}
		case has(c.catalog.composable, prefix):
			if prefix == "group" || prefix == "peer" {
				rest = stripGroupName(rest)
			}
			if rest != "" && (isArbitrary(rest) || c.validVariant(rest)) {
				return true
			}
		}
	}
	return false
}

// stripGroupName removes a "/name" suffix from a group or peer variant.
func stripGroupName(s string) string {
	i := strings.LastIndexByte(s, '/')
	if i < 0 || strings.LastIndexByte(s, ']') > i {
		return s
	}
	name := s[i+1:]
	if name == "" {
		return ""
	}
	for j := 0; j < len(name); j++ {
		ch := name[j]
		if !(ch == '-' || ch == '_' || ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z') {
			return ""
		}
	}
	return s[:i]
}

func (c *Classifier) classifyUtility(tok *ClassToken, u string) bool {
	if u == "" {
		return false
	}
	if u[0] == '[' {
		return classifyProperty(tok, u)
	}
	if u[0] == '-' {
		tok.Negative = true
		u = u[1:]
		if u == "" {
			return false
		}
	}

	if !tok.Negative && c.catalog.IsKeyword(u) {
		tok.Base = u
		tok.Kind = KindKeyword
		return true
	}
	if fam, ok := c.catalog.Family(u); ok && fam.Bare && !tok.Negative {
		tok.Base = u
		tok.Kind = KindKeyword
		return true
	}

	// "prefix-[value]" is an arbitrary value; a bracket elsewhere (as in the
	// opacity of "bg-red-500/[.3]") is left to the family match below.
	if open := strings.IndexByte(u, '['); open > 0 && u[open-1] == '-' {
		return c.classifyArbitrary(tok, u, open)
	}

	for i := len(u) - 1; i > 0; i-- {
		if u[i] != '-' {
			continue
		}
		fam, ok := c.catalog.Family(u[:i])
		if !ok {
			continue
		}
		if c.matchValue(tok, fam, u[i+1:]) {
			tok.Base = fam.Prefix
			return true
		}
	}
	return false
}

// classifyProperty handles "[property:value]".
func classifyProperty(tok *ClassToken, u string) bool {
	if tok.Negative || !isArbitrary(u) {
		return false
	}
	parts := splitTopLevel(u[1:len(u)-1], ':')
	if len(parts) < 2 || parts[0] == "" || parts[len(parts)-1] == "" {
		return false
	}
	prop := strings.TrimLeft(parts[0], "-")
	if prop == "" || !(prop[0] >= 'a' && prop[0] <= 'z' || prop[0] >= 'A' && prop[0] <= 'Z') {
		return false
	}
	for i := 0; i < len(prop); i++ {
		ch := prop[i]
		if !(ch == '-' || ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z') {
			return false
		}
	}
	tok.Value = u
	tok.Kind = KindProperty
	return true
}

// classifyArbitrary handles "prefix-[value]" with an optional "/modifier".
func (c *Classifier) classifyArbitrary(tok *ClassToken, u string, open int) bool {
	if open < 2 || u[open-1] != '-' {
		return false
	}
	fam, ok := c.catalog.Family(u[:open-1])
	if !ok || fam.Closed {
		return false
	}
	if tok.Negative && !fam.Negative {
		return false
	}
	end := matchingBracket(u, open)
	if end < 0 || end == open+1 {
		return false
	}
	if rest := u[end+1:]; rest != "" {
		if rest[0] != '/' || !fam.HasScale(ScaleColor) || !validModifier(rest[1:]) {
			return false
		}
		tok.Modifier = rest[1:]
	}
	tok.Base = fam.Prefix
	tok.Value = u[open : end+1]
	tok.Kind = KindArbitrary
	return true
}

func (c *Classifier) matchValue(tok *ClassToken, fam *Family, value string) bool {
	if value == "" {
		return false
	}
	if _, ok := fam.Keywords[value]; ok {
		if tok.Negative {
			return false
		}
		tok.Value = value
		tok.Kind = KindFamilyKeyword
		return true
	}
	if tok.Negative && !fam.Negative {
		return false
	}
	for _, scale := range fam.Scales {
		if scale == ScaleColor {
			if tok.Negative {
				continue
			}
			if c.matchColor(tok, value) {
				return true
			}
			continue
		}
		if _, ok := c.catalog.ScaleValue(scale, value); ok {
			tok.Value = value
			tok.Kind = KindScale
			tok.Scale = scale
			return true
		}
	}
	return false
}

func (c *Classifier) matchColor(tok *ClassToken, value string) bool {
	name, mod := value, ""
	if _, ok := c.catalog.Color(value); !ok {
		i := strings.LastIndexByte(value, '/')
		if i < 0 {
			return false
		}
		name, mod = value[:i], value[i+1:]
		if !validModifier(mod) {
			return false
		}
		if _, ok := c.catalog.Color(name); !ok {
			return false
		}
	}
	tok.Value = name
	tok.Modifier = mod
	tok.Kind = KindScale
	tok.Scale = ScaleColor
	return true
}

func validModifier(mod string) bool {
	if isArbitrary(mod) {
		return true
	}
	_, ok := opacityModifier(mod)
	return ok
}

func has(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

package tailwind

// IdentTable assigns short opaque identifiers to canonical class names.
//
// Implementations must be idempotent and race-free: the same canonical name
// always yields the same identifier within one table.
type IdentTable interface {
	GetOrAssign(canonical string) (string, error)
}

// TracedClass is the tracer's output for one recognized token.
type TracedClass struct {
	// Original is the token text as written.
	Original string
	// Canonical is the rewritten token, identical to Original on a tracer miss.
	Canonical string
	// Changed reports Canonical != Original.
	Changed bool
	// Obfuscated reports that Canonical carries an opaque identifier.
	Obfuscated bool
}

// Tracer canonicalizes recognized tokens and optionally obfuscates them.
// It is safe for concurrent use when its IdentTable is.
type Tracer struct {
	catalog *Catalog
	idents  IdentTable
}

// NewTracer creates a tracer. A nil catalog selects DefaultCatalog; idents may
// be nil, in which case obfuscation requests are tracer misses.
func NewTracer(catalog *Catalog, idents IdentTable) *Tracer {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Tracer{catalog: catalog, idents: idents}
}

// Trace produces the canonical form of tok.
//
// Canonicalization is always applied. With obfuscate set, the canonical
// utility is additionally replaced by the identifier the IdentTable assigns;
// a table failure leaves the token exactly as written.
func (t *Tracer) Trace(tok ClassToken, obfuscate bool) TracedClass {
	original := tok.String()
	if tok.Raw != "" {
		original = tok.Raw
	}

	utility := t.CanonicalUtility(tok)
	out := TracedClass{Original: original}

	if obfuscate {
		if t.idents == nil {
			out.Canonical = original
			return out
		}
		id, err := t.idents.GetOrAssign(utility)
		if err != nil || id == "" {
			out.Canonical = original
			return out
		}
		out.Canonical = tok.Wrap(id)
		out.Obfuscated = true
	} else {
		out.Canonical = tok.Wrap(utility)
	}

	out.Changed = out.Canonical != original
	return out
}

// CanonicalUtility returns the canonical utility part of tok, without variants
// or important markers. Tokens without a canonical mapping come back verbatim.
func (t *Tracer) CanonicalUtility(tok ClassToken) string {
	if tok.Kind == KindKeyword || tok.Kind == KindProperty {
		return tok.Utility()
	}
	fam, ok := t.catalog.Family(tok.Base)
	if !ok {
		return tok.Utility()
	}

	switch fam.Trace {
	case TraceRename:
		renamed := tok
		renamed.Base = fam.Rename
		return renamed.Utility()

	case TraceBracket:
		if tok.Kind != KindScale {
			return tok.Utility()
		}
		value, ok := t.literalValue(tok)
		if !ok {
			return tok.Utility()
		}
		bracketed := tok
		bracketed.Value = "[" + value + "]"
		bracketed.Modifier = ""
		return bracketed.Utility()
	}

	return tok.Utility()
}

// literalValue resolves the scale value of tok to a CSS literal.
func (t *Tracer) literalValue(tok ClassToken) (string, bool) {
	if tok.Scale != ScaleColor {
		return t.catalog.ScaleValue(tok.Scale, tok.Value)
	}

	hex, ok := t.catalog.Color(tok.Value)
	if !ok || hex == "" {
		return "", false
	}
	c, ok := parseHex(hex)
	if !ok {
		return "", false
	}
	if tok.Modifier != "" {
		pct, ok := opacityModifier(tok.Modifier)
		if !ok {
			// arbitrary opacity has no literal form
			return "", false
		}
		c = c.withOpacity(pct)
	}
	return c.literal(), true
}

package tailwind

import "strings"

// ValueKind tells how the utility part of a token matched the catalogue.
type ValueKind int

const (
	// KindKeyword is a standalone utility such as "flex" or a bare family such as "border".
	KindKeyword ValueKind = iota
	// KindFamilyKeyword is a family with a named keyword value, e.g. "bg-cover".
	KindFamilyKeyword
	// KindScale is a family with a value drawn from a scale, e.g. "gap-7" or "bg-white".
	KindScale
	// KindArbitrary is a family with a bracketed value, e.g. "w-[3px]".
	KindArbitrary
	// KindProperty is an arbitrary property, e.g. "[mask-type:luminance]".
	KindProperty
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindKeyword:
		return "keyword"
	case KindFamilyKeyword:
		return "family-keyword"
	case KindScale:
		return "scale"
	case KindArbitrary:
		return "arbitrary"
	case KindProperty:
		return "property"
	default:
		return "unknown"
	}
}

// ClassToken is a recognized Tailwind class split into its parts.
//
// String reassembles the parts and always reproduces Raw for tokens built by
// the Classifier.
type ClassToken struct {
	Raw string

	// Important is a leading "!" before any variant ("!hover:p-4").
	Important bool
	// ImportantOnBase is a "!" between the variants and the utility ("hover:!p-4").
	ImportantOnBase bool

	// Variants are stored verbatim without their trailing ':' and in source order.
	Variants []string

	Negative bool
	// Base is the family prefix, the keyword utility, or empty for arbitrary properties.
	Base string
	// Value is the suffix after "Base-", or the bracketed property for KindProperty.
	Value string
	// Modifier is the part after '/' on colour utilities ("50" in "bg-red-500/50").
	Modifier string

	Kind  ValueKind
	Scale string
}

// Utility returns the token without variants and important markers.
func (t ClassToken) Utility() string {
	var b strings.Builder
	if t.Negative {
		b.WriteByte('-')
	}
	b.WriteString(t.Base)
	if t.Value != "" {
		if t.Base != "" {
			b.WriteByte('-')
		}
		b.WriteString(t.Value)
	}
	if t.Modifier != "" {
		b.WriteByte('/')
		b.WriteString(t.Modifier)
	}
	return b.String()
}

// Wrap places utility back inside the token's variants and important markers.
func (t ClassToken) Wrap(utility string) string {
	var b strings.Builder
	if t.Important {
		b.WriteByte('!')
	}
	for _, v := range t.Variants {
		b.WriteString(v)
		b.WriteByte(':')
	}
	if t.ImportantOnBase {
		b.WriteByte('!')
	}
	b.WriteString(utility)
	return b.String()
}

// String reassembles the token.
func (t ClassToken) String() string {
	return t.Wrap(t.Utility())
}

// splitTopLevel splits s on sep, ignoring separators nested in [] or ().
// Returns nil when brackets are unbalanced.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
			if depth < 0 {
				return nil
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil
	}
	return append(parts, s[start:])
}

// matchingBracket returns the index of the ']' closing the '[' at open, or -1.
func matchingBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// isArbitrary reports whether s is a non-empty, balanced "[...]" group.
func isArbitrary(s string) bool {
	return len(s) > 2 && s[0] == '[' && matchingBracket(s, 0) == len(s)-1
}

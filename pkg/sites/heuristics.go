package sites

import "strings"

// looksLikeClasses decides whether a free-standing string is worth handing to
// the transformer. Class attributes and class properties bypass it.
func looksLikeClasses(value string) bool {
	if len(value) < 2 {
		return false
	}
	for _, p := range []string{"http://", "https://", "/", "./", "../"} {
		if strings.HasPrefix(value, p) {
			return false
		}
	}
	if strings.Contains(value, `\`) {
		return false
	}

	// Sentence punctuation. Decimal steps like p-0.5 or scale-1.5 are allowed.
	if strings.Contains(value, ".") && !strings.Contains(value, "0.") && !strings.Contains(value, "1.") {
		return false
	}
	if strings.ContainsAny(value, "!?,") {
		return false
	}

	for _, r := range value {
		if !isClassRune(r) {
			return false
		}
	}
	return strings.ContainsAny(value, "-:[] ")
}

func isClassRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '\t', r == '\n', r == '\r':
		return true
	}
	return strings.ContainsRune("-_:[]()/#%.", r)
}

package tailwind

import (
	"sort"
	"strings"
)

// maxSuggestDistance is the largest edit distance Suggest will report.
const maxSuggestDistance = 3

// Suggest returns the known utility closest to an unrecognized token, or ""
// when nothing is close enough. Variants on the token are kept on the
// suggestion. Intended for diagnostics only.
func (c *Classifier) Suggest(token string) string {
	rest := token
	prefix := ""
	if parts := splitTopLevel(token, ':'); len(parts) > 1 {
		rest = parts[len(parts)-1]
		prefix = strings.TrimSuffix(token, rest)
	}
	if rest == "" {
		return ""
	}

	best := ""
	bestDist := maxSuggestDistance + 1
	for _, candidate := range c.suggestionCandidates() {
		d := levenshteinDistance(rest, candidate)
		if d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if best == "" || best == rest {
		return ""
	}
	return prefix + best
}

// suggestionCandidates lists keywords and one example per family value,
// sorted so ties resolve deterministically.
func (c *Classifier) suggestionCandidates() []string {
	out := c.catalog.Keywords()
	for _, prefix := range c.catalog.Prefixes() {
		fam, _ := c.catalog.Family(prefix)
		if fam.Bare {
			out = append(out, prefix)
		}
		for kw := range fam.Keywords {
			out = append(out, prefix+"-"+kw)
		}
		for _, scale := range fam.Scales {
			switch scale {
			case ScaleColor:
				out = append(out, prefix+"-white", prefix+"-black")
			case ScaleFraction:
				out = append(out, prefix+"-1/2")
			case ScaleInteger:
				out = append(out, prefix+"-1")
			default:
				for key := range c.catalog.scales[scale] {
					out = append(out, prefix+"-"+key)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

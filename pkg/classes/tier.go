// Package classes turns whole class attribute values into their canonical
// form using the four-tier fallback strategy.
//
// A class string can mix Tailwind utilities with custom class names in any
// position. The tier decision is a pure function of which tokens the
// Classifier recognized; the chosen strategy then traces recognized tokens and
// leaves everything else verbatim, always in source order.
package classes

// Tier identifies the strategy used for one class string.
type Tier int

const (
	// TierNone means the input held no tokens.
	TierNone Tier = iota
	// TierWhole means every token was recognized.
	TierWhole
	// TierCustomPrefix means only the first token was unrecognized.
	TierCustomPrefix
	// TierCustomSuffix means only the last token was unrecognized.
	TierCustomSuffix
	// TierPerToken is the unconditional fallback.
	TierPerToken
)

// String returns a short name for the tier.
func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierWhole:
		return "whole"
	case TierCustomPrefix:
		return "custom-prefix"
	case TierCustomSuffix:
		return "custom-suffix"
	case TierPerToken:
		return "per-token"
	default:
		return "unknown"
	}
}

// selectTier picks the first tier whose precondition holds for the given
// per-token recognition flags.
//
// Tiers 2 and 3 need at least one recognized token besides the custom one, so
// a lone unrecognized token falls through to TierPerToken.
func selectTier(recognized []bool) Tier {
	n := len(recognized)
	if n == 0 {
		return TierNone
	}

	misses := 0
	for _, ok := range recognized {
		if !ok {
			misses++
		}
	}

	switch {
	case misses == 0:
		return TierWhole
	case misses == 1 && n >= 2 && !recognized[0]:
		return TierCustomPrefix
	case misses == 1 && n >= 2 && !recognized[n-1]:
		return TierCustomSuffix
	default:
		return TierPerToken
	}
}

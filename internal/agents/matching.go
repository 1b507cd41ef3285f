package agents

import "strings"

// normalizeSKU lowercases and strips separators so cosmetic SKU variants
// from different marketplaces compare equal.
func normalizeSKU(sku string) string {
	s := strings.ToLower(strings.TrimSpace(sku))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// nameSimilarity returns a token-level Dice coefficient between two product
// names in [0,1].
func nameSimilarity(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for tok := range ta {
		if tb[tok] {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ta)+len(tb))
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ".,()[]{}~!?\"'")
		if len(tok) > 1 {
			set[tok] = true
		}
	}
	return set
}

// similarityConfidence maps a name-similarity ratio in [0.5, 1] into a
// mapping confidence in [0.5, 0.9]. Ratios below 0.5 are not trusted at all.
func similarityConfidence(ratio float64) float64 {
	if ratio < 0.5 {
		return 0
	}
	return 0.5 + (ratio-0.5)*0.8
}

package entitlement

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	phoneticThreshold = 0.70
	fuzzyThreshold    = 0.85
)

// MatchProduct picks the product whose name or reference name sounds most
// like spoken. A Double Metaphone overlap admits a candidate at a lower
// Jaro-Winkler score than a purely textual match.
func MatchProduct(spoken string, products []Product) (Product, bool) {
	spoken = strings.ToLower(strings.TrimSpace(spoken))
	if spoken == "" || len(products) == 0 {
		return Product{}, false
	}
	spokenTokens := strings.Fields(spoken)
	spokenCodes := metaphoneCodes(spokenTokens)

	var (
		best         Product
		bestScore    float64
		bestPhonetic bool
		found        bool
	)
	for _, p := range products {
		for _, label := range []string{p.Name, strings.ReplaceAll(p.ReferenceName, "_", " ")} {
			label = strings.ToLower(strings.TrimSpace(label))
			if label == "" {
				continue
			}
			tokens := strings.Fields(label)
			score := similarity(spokenTokens, tokens, spoken, label)
			phonetic := overlaps(spokenCodes, metaphoneCodes(tokens))

			switch {
			case phonetic && score >= phoneticThreshold:
				if !bestPhonetic || score > bestScore {
					best, bestScore, bestPhonetic, found = p, score, true, true
				}
			case !bestPhonetic && score >= fuzzyThreshold && score > bestScore:
				best, bestScore, found = p, score, true
			}
		}
	}
	return best, found
}

func metaphoneCodes(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func overlaps(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

func similarity(inputTokens, labelTokens []string, input, label string) float64 {
	score := matchr.JaroWinkler(input, label, false)
	if len(inputTokens) > 1 || len(labelTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(inputTokens, ""), strings.Join(labelTokens, ""), false); s > score {
			score = s
		}
	}
	return score
}

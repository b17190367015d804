package matcher

import (
	"strings"
	"unicode"
)

// minTokenSimilarity is the per-token score below which two tokens are
// treated as unrelated rather than as a weak fuzzy hit.
const minTokenSimilarity = 0.75

// NameSimilarity scores two free-text names in [0,1]. Exact matches after
// normalization score 1.0. Otherwise the score is the weaker direction of
// a token-level comparison, so extraneous words on either side pull the
// score down while shared leading tokens keep it up.
func NameSimilarity(a, b string) float64 {
	na := normalizeText(a)
	nb := normalizeText(b)

	if na == "" || nb == "" {
		return 0.0
	}

	if na == nb {
		return 1.0
	}

	tokensA := strings.Fields(na)
	tokensB := strings.Fields(nb)

	forward := directionalTokenScore(tokensA, tokensB)
	backward := directionalTokenScore(tokensB, tokensA)

	if forward < backward {
		return forward
	}
	return backward
}

// directionalTokenScore scores how well every token of `from` is covered by
// some token of `to`. Tokens are weighted by position: the leading token of
// a name carries the identity (company core name, product noun), trailing
// tokens are qualifiers.
func directionalTokenScore(from, to []string) float64 {
	var weightSum, scoreSum float64

	for i, token := range from {
		weight := 1.0 / float64(i+1)
		weightSum += weight

		best := 0.0
		for _, candidate := range to {
			sim := tokenSimilarity(token, candidate)
			if sim > best {
				best = sim
			}
		}
		scoreSum += weight * best
	}

	if weightSum == 0 {
		return 0.0
	}
	return scoreSum / weightSum
}

// tokenSimilarity compares two single tokens, discarding weak fuzzy hits
func tokenSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	sim := jaroWinkler(a, b)
	if sim < minTokenSimilarity {
		return 0.0
	}
	return sim
}

// normalizeText lowercases, strips punctuation, and collapses whitespace
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}

// jaroWinkler calculates the Jaro-Winkler similarity between two strings,
// boosting the Jaro score for a shared prefix of up to four characters
func jaroWinkler(s, t string) float64 {
	if s == t {
		return 1.0
	}

	a := []rune(s)
	b := []rune(t)

	j := jaro(a, b)

	prefixLen := 0
	maxPrefix := 4
	for i := 0; i < len(a) && i < len(b) && i < maxPrefix; i++ {
		if a[i] != b[i] {
			break
		}
		prefixLen++
	}

	const scalingFactor = 0.1
	return j + float64(prefixLen)*scalingFactor*(1.0-j)
}

// jaro calculates the Jaro similarity between two rune sequences
func jaro(a, b []rune) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	matchDist := maxInt(len(a), len(b))/2 - 1
	if matchDist < 0 {
		matchDist = 0
	}

	aMatches := make([]bool, len(a))
	bMatches := make([]bool, len(b))

	matches := 0
	for i := 0; i < len(a); i++ {
		start := maxInt(0, i-matchDist)
		end := minInt(len(b), i+matchDist+1)

		for j := start; j < end; j++ {
			if bMatches[j] || a[i] != b[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := 0; i < len(a); i++ {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	t := float64(transpositions) / 2

	return (m/float64(len(a)) + m/float64(len(b)) + (m-t)/m) / 3
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

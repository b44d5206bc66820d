package extract

import (
	"regexp"
	"strings"
)

var reNonWord = regexp.MustCompile(`[^\w\s]`)

// Similarity scores how alike two free-text product titles are, in [0,1].
// Either title empty (after normalization) scores 0.
//
// Both titles are lowercased, stripped of non-word punctuation, split on
// whitespace, and reduced to their sets of words longer than two characters
// (shorter words are too common to discriminate). A word counts as a match
// when some word of the other title contains it or is contained by it —
// bidirectional substring containment, which tolerates pluralization,
// truncation and minor variants. Matches are counted from both sides and
// the larger count is divided by the larger word-set size, keeping the
// score symmetric.
//
// This is a containment heuristic, not Jaccard or edit distance: exact
// scores are only reproducible against this definition.
func Similarity(a, b string) float64 {
	wa := titleWords(a)
	wb := titleWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	denom := len(wa)
	if len(wb) > denom {
		denom = len(wb)
	}

	// Count matches from each side and keep the larger: the relation per
	// word pair is symmetric but the per-set counts are not (one word can
	// absorb several containments from the other set), and score(a,b)
	// must equal score(b,a).
	forward := countMatches(wa, wb)
	backward := countMatches(wb, wa)
	if backward > forward {
		forward = backward
	}
	return float64(forward) / float64(denom)
}

// countMatches reports how many words of a are contained by, or contain,
// some word of b.
func countMatches(a, b map[string]struct{}) int {
	matches := 0
	for w := range a {
		for v := range b {
			if strings.Contains(w, v) || strings.Contains(v, w) {
				matches++
				break
			}
		}
	}
	return matches
}

// titleWords normalizes a title into its set of discriminative words.
func titleWords(s string) map[string]struct{} {
	s = reNonWord.ReplaceAllString(strings.ToLower(s), "")
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len(w) > 2 {
			set[w] = struct{}{}
		}
	}
	return set
}

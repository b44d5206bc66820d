package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
)

// Fingerprint computes a 64-bit SimHash of a listing title.
//
// Titles are lowercased and tokenized on whitespace; features are the word
// unigrams plus adjacent-word bigrams, so reordered titles ("case iphone 13"
// vs "iphone 13 case") land further apart than titles that differ by a
// single word. Marketplaces repeat the same listing as sponsored and organic
// results with near-identical titles, which is what this is tuned to catch.
func Fingerprint(title string) uint64 {
	words := strings.Fields(strings.ToLower(title))
	if len(words) == 0 {
		return 0
	}

	features := make([]string, 0, 2*len(words))
	features = append(features, words...)
	for i := 0; i+1 < len(words); i++ {
		features = append(features, words[i]+"_"+words[i+1])
	}

	var vector [64]int
	for _, f := range features {
		h := fnv.New64a()
		h.Write([]byte(f))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}

	return fingerprint
}

// Distance returns the Hamming distance between two SimHash fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar returns true if the Hamming distance between two fingerprints
// is less than or equal to the threshold.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

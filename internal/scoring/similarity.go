package scoring

import "math"

// similarityRatio reports how alike two already-normalized strings are as a
// symmetric ratio in [0,1] derived from edit distance: 1.0 for identical
// strings, 0 when either is empty. The matcher treats ratios at or above the
// fuzzy threshold as evidence that two skill spellings name the same thing.
func similarityRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	dist := levenshteinDistance(a, b)
	denom := max(len([]rune(a)), len([]rune(b)))
	return math.Max(0, 1-float64(dist)/float64(denom))
}

// levenshteinDistance computes the edit distance between two strings, counting
// runes rather than bytes. Two-row dynamic programming keeps memory at
// O(min(len(a), len(b))).
func levenshteinDistance(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) < len(br) {
		ar, br = br, ar
	}
	if len(br) == 0 {
		return len(ar)
	}
	prev := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}
	curr := make([]int, len(br)+1)
	for i, ca := range ar {
		curr[0] = i + 1
		for j, cb := range br {
			ins := curr[j] + 1
			del := prev[j+1] + 1
			sub := prev[j]
			if ca != cb {
				sub++
			}
			curr[j+1] = min(ins, del, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}

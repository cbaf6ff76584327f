package exchange

import "math/rand"

// derangement returns a uniformly random permutation of [0,n) with no fixed
// point, by shuffling and resampling whenever any index maps to itself.
//
// Rejection is cheap: the fixed-point-free fraction of permutations tends to
// 1/e, so the expected number of shuffles is under three regardless of n.
// A rotation shortcut (recipient i-1 for sender i) is NOT acceptable here:
// it is only uniform over cycles, and index arithmetic over an already
// shuffled slice is exactly the kind of pairing that silently self-pairs or
// double-pairs when the list order changes.
//
// Callers must ensure n >= 2; no derangement of a single element exists.
func derangement(rng *rand.Rand, n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}

	for {
		rng.Shuffle(n, func(i, j int) {
			p[i], p[j] = p[j], p[i]
		})
		if !hasFixedPoint(p) {
			return p
		}
	}
}

func hasFixedPoint(p []int) bool {
	for i, v := range p {
		if i == v {
			return true
		}
	}
	return false
}

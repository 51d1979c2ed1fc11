// Package sampling implements deterministic reservoir sampling for
// down-sampling read rows to a pileup's height budget.
package sampling

import (
	"iter"
	"math/rand"
)

// Reservoir draws a uniform sample of at most k items from seq using the
// classic algorithm R: the first k items fill the reservoir, after which the
// n-th item replaces a random slot with probability k/n. With a fixed-seed
// rng the selection is reproducible for a given input order.
func Reservoir[T any](seq iter.Seq[T], k int, rng *rand.Rand) []T {
	if k <= 0 {
		return nil
	}
	sample := make([]T, 0, k)
	n := 0
	for item := range seq {
		if len(sample) < k {
			sample = append(sample, item)
		} else if j := rng.Intn(n + 1); j < k {
			sample[j] = item
		}
		n++
	}
	return sample
}

// ------------------------------------------------------
// Nearust - Candidate Verification
// Confirms candidate pairs with banded edit distance
// ------------------------------------------------------

package symdel

import (
	"sync"

	"github.com/yutanagano/nearust/pkg/collection"
	"github.com/yutanagano/nearust/pkg/levenshtein"
)

// verifyCandidates computes the exact edit distance of every candidate pair
// and keeps those within k. Candidates arrive sorted and unique; the batch
// layout preserves that order, so the surviving rows form the final,
// canonically ordered match set.
func verifyCandidates(cands []uint64, q, r *collection.Collection, k, workers int) *Matches {
	dists := make([]uint8, len(cands))
	hits := make([]bool, len(cands))

	chunk := (len(cands) + workers - 1) / workers
	if chunk < 1 {
		chunk = 1
	}

	var wg sync.WaitGroup
	for lo := 0; lo < len(cands); lo += chunk {
		hi := lo + chunk
		if hi > len(cands) {
			hi = len(cands)
		}

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()

			for c := lo; c < hi; c++ {
				i, j := unpackPair(cands[c])
				d, ok := levenshtein.BoundedDistance(q.At(int(i)), r.At(int(j)), k)
				if !ok {
					continue
				}
				dists[c] = uint8(d)
				hits[c] = true
			}
		}(lo, hi)
	}
	wg.Wait()

	n := 0
	for _, hit := range hits {
		if hit {
			n++
		}
	}

	m := &Matches{
		I: make([]uint32, 0, n),
		J: make([]uint32, 0, n),
		D: make([]uint8, 0, n),
	}
	for c, hit := range hits {
		if !hit {
			continue
		}
		i, j := unpackPair(cands[c])
		m.I = append(m.I, i)
		m.J = append(m.J, j)
		m.D = append(m.D, dists[c])
	}
	return m
}

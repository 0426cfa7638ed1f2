// ------------------------------------------------------
// Nearust - Deletion Variant Enumerator
// Generates the deletion neighbourhood of a byte string
// ------------------------------------------------------

package variant

import (
	"bytes"
	"math"
	"sort"
)

// MaxDeletions is the largest supported deletion bound.
const MaxDeletions = math.MaxUint8

// Enumerate returns the deletion neighbourhood of s for bound k: every
// distinct byte sequence obtainable by deleting between 0 and k positions,
// sorted lexicographically, together with the minimum number of deletions
// that produces each. The empty string yields its single empty variant.
func Enumerate(s []byte, k int) ([][]byte, []uint8) {
	var (
		arena []byte
		recs  []Record
	)
	arena, recs = appendVariants(arena, recs, s, 0, k)

	sort.Slice(recs, func(i, j int) bool {
		ri, rj := recs[i], recs[j]
		if c := bytes.Compare(arena[ri.off:ri.off+ri.n], arena[rj.off:rj.off+rj.n]); c != 0 {
			return c < 0
		}
		return ri.Dels < rj.Dels
	})

	variants := make([][]byte, 0, len(recs))
	dels := make([]uint8, 0, len(recs))
	for _, r := range recs {
		v := arena[r.off : r.off+r.n]
		if len(variants) > 0 && bytes.Equal(variants[len(variants)-1], v) {
			continue
		}
		variants = append(variants, v)
		dels = append(dels, r.Dels)
	}

	return variants, dels
}

// NumVariants returns |Δₖ(s)| before deduplication for a string of length n:
// the sum of n-choose-d for d = 0 … min(k, n). Saturates at MaxInt.
func NumVariants(n, k int) int {
	if k > n {
		k = n
	}

	total := 0
	for d := 0; d <= k; d++ {
		c := binomial(n, d)
		if c == math.MaxInt || total > math.MaxInt-c {
			return math.MaxInt
		}
		total += c
	}
	return total
}

// binomial computes n choose d, saturating at MaxInt.
func binomial(n, d int) int {
	if d > n-d {
		d = n - d
	}
	c := 1
	for i := 0; i < d; i++ {
		if c > math.MaxInt/(n-i) {
			return math.MaxInt
		}
		c = c * (n - i) / (i + 1)
	}
	return c
}

// appendVariants writes every deletion variant of s (0 … k deletions) into
// the arena and record list, tagged with the source index. Duplicate byte
// sequences are emitted as-is; the table build deduplicates globally,
// keeping the minimum deletion count. Effective deletions are capped at
// len(s): deleting everything collapses s to the single empty variant.
func appendVariants(arena []byte, recs []Record, s []byte, source uint32, k int) ([]byte, []Record) {
	n := len(s)

	// Zero deletions: the string itself.
	arena, recs = appendRecord(arena, recs, s, nil, source, 0)

	maxDels := k
	if maxDels > n {
		maxDels = n
	}

	var idx [MaxDeletions]int
	for d := 1; d <= maxDels; d++ {
		// Enumerate all size-d position subsets in lexicographic order.
		for i := 0; i < d; i++ {
			idx[i] = i
		}
		for {
			arena, recs = appendRecord(arena, recs, s, idx[:d], source, uint8(d))

			// Advance to the next combination.
			i := d - 1
			for i >= 0 && idx[i] == n-d+i {
				i--
			}
			if i < 0 {
				break
			}
			idx[i]++
			for j := i + 1; j < d; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}

	return arena, recs
}

// appendRecord writes one variant of s, skipping the positions in del
// (sorted ascending), and appends its record.
func appendRecord(arena []byte, recs []Record, s []byte, del []int, source uint32, dels uint8) ([]byte, []Record) {
	off := len(arena)

	prev := 0
	for _, p := range del {
		arena = append(arena, s[prev:p]...)
		prev = p + 1
	}
	arena = append(arena, s[prev:]...)

	recs = append(recs, Record{
		off:    off,
		n:      len(arena) - off,
		Source: source,
		Dels:   dels,
	})
	return arena, recs
}

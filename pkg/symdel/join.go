// ------------------------------------------------------
// Nearust - Sort-Merge Join
// Recovers candidate pairs from sorted variant tables
// ------------------------------------------------------

package symdel

import (
	"bytes"
	"sort"
	"sync"

	"github.com/yutanagano/nearust/pkg/variant"
)

// packPair encodes a candidate (i, j) as a single integer so the candidate
// stream can be sorted and deduplicated without a comparator indirection.
func packPair(i, j uint32) uint64 {
	return uint64(i)<<32 | uint64(j)
}

func unpackPair(p uint64) (uint32, uint32) {
	return uint32(p >> 32), uint32(p)
}

// selfJoin emits every candidate pair (i, j), i < j, of source strings that
// share at least one variant in t, considering only records with at most
// maxDel deletions. Partitions run in parallel; the returned stream is
// sorted and deduplicated.
func selfJoin(t *variant.Table, maxDel, workers int) []uint64 {
	parts := make([][]uint64, variant.NumBuckets)

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for b := 0; b < variant.NumBuckets; b++ {
		lo, hi := t.Bucket(b)
		if hi-lo < 2 {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(b, lo, hi int) {
			defer wg.Done()
			defer func() { <-sem }()

			var out []uint64
			var run []uint32

			i := lo
			for i < hi {
				j := i + 1
				v := t.Bytes(i)
				for j < hi && bytes.Equal(t.Bytes(j), v) {
					j++
				}

				run = run[:0]
				for r := i; r < j; r++ {
					if rec := t.At(r); int(rec.Dels) <= maxDel {
						run = append(run, rec.Source)
					}
				}

				// Upper triangle of the run; sources are ascending and
				// unique within a run, so x < y holds by construction.
				for x := 0; x < len(run); x++ {
					for y := x + 1; y < len(run); y++ {
						out = append(out, packPair(run[x], run[y]))
					}
				}

				i = j
			}
			parts[b] = out
		}(b, lo, hi)
	}
	wg.Wait()

	return mergeCandidates(parts)
}

// crossJoin emits every candidate pair (i, j) where string i of table a and
// string j of table b share at least one variant, considering only records
// within the per-side deletion bounds. Both tables are bucketed on the same
// leading-byte scheme, so partitions pair up directly.
func crossJoin(a, b *variant.Table, maxDelA, maxDelB, workers int) []uint64 {
	parts := make([][]uint64, variant.NumBuckets)

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for p := 0; p < variant.NumBuckets; p++ {
		aLo, aHi := a.Bucket(p)
		bLo, bHi := b.Bucket(p)
		if aHi-aLo == 0 || bHi-bLo == 0 {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(p, ai, aHi, bi, bHi int) {
			defer wg.Done()
			defer func() { <-sem }()

			var out []uint64
			var runA, runB []uint32

			for ai < aHi && bi < bHi {
				cmp := bytes.Compare(a.Bytes(ai), b.Bytes(bi))
				if cmp < 0 {
					ai++
					continue
				}
				if cmp > 0 {
					bi++
					continue
				}

				v := a.Bytes(ai)

				runA = runA[:0]
				for ai < aHi && bytes.Equal(a.Bytes(ai), v) {
					if rec := a.At(ai); int(rec.Dels) <= maxDelA {
						runA = append(runA, rec.Source)
					}
					ai++
				}

				runB = runB[:0]
				for bi < bHi && bytes.Equal(b.Bytes(bi), v) {
					if rec := b.At(bi); int(rec.Dels) <= maxDelB {
						runB = append(runB, rec.Source)
					}
					bi++
				}

				for _, x := range runA {
					for _, y := range runB {
						out = append(out, packPair(x, y))
					}
				}
			}
			parts[p] = out
		}(p, aLo, aHi, bLo, bHi)
	}
	wg.Wait()

	return mergeCandidates(parts)
}

// mergeCandidates concatenates per-partition candidate streams, sorts the
// result, and collapses duplicates (pairs discovered through more than one
// shared variant). The sorted order is the final (i, j) output order.
func mergeCandidates(parts [][]uint64) []uint64 {
	total := 0
	for _, p := range parts {
		total += len(p)
	}

	merged := make([]uint64, 0, total)
	for _, p := range parts {
		merged = append(merged, p...)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })

	w := 0
	for i, p := range merged {
		if i > 0 && p == merged[w-1] {
			continue
		}
		merged[w] = p
		w++
	}
	return merged[:w]
}

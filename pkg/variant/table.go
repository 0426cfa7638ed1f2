// ------------------------------------------------------
// Nearust - Variant Table
// Sorted deletion-variant records over a packed arena
// ------------------------------------------------------

package variant

import (
	"bytes"
	"sort"
	"sync"

	"github.com/yutanagano/nearust/pkg/collection"
)

// NumBuckets is the number of leading-byte partitions a table is split
// into: one per possible first byte, plus one for the empty variant.
// Bucket boundaries double as the partition scheme for parallel sorting
// and for the merge-join.
const NumBuckets = 257

// Record locates one deletion variant in a table arena and carries its
// provenance: the index of the originating string and the number of
// deletions applied.
type Record struct {
	off    int
	n      int
	Source uint32
	Dels   uint8
}

// Table is a variant table: deletion-variant records sorted by
// (variant bytes, source index), deduplicated per (variant, source) with
// the minimum deletion count retained. Equal variant bytes form contiguous
// runs listing their sources in ascending order. A Table is immutable after
// Build and safe for concurrent use.
type Table struct {
	arena   []byte
	recs    []Record
	buckets [NumBuckets + 1]int
}

// Build constructs the variant table for a collection at deletion bound k.
// Variant generation runs in parallel across workers goroutines; the sort
// runs in parallel across leading-byte buckets.
func Build(coll *collection.Collection, k, workers int) *Table {
	if workers < 1 {
		workers = 1
	}
	n := coll.Len()
	if workers > n {
		workers = n
	}

	t := &Table{}
	if n == 0 {
		return t
	}

	// Phase 1: generate variants into per-worker buffers.
	type chunk struct {
		arena []byte
		recs  []Record
	}
	chunks := make([]chunk, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := n * w / workers
		hi := n * (w + 1) / workers

		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()

			est := 0
			for i := lo; i < hi; i++ {
				est += NumVariants(coll.StrLen(i), k)
			}
			if est < 0 || est > 1<<20 {
				est = 1 << 20
			}

			c := chunk{recs: make([]Record, 0, est)}
			for i := lo; i < hi; i++ {
				c.arena, c.recs = appendVariants(c.arena, c.recs, coll.At(i), uint32(i), k)
			}
			chunks[w] = c
		}(w, lo, hi)
	}
	wg.Wait()

	// Phase 2: concatenate worker buffers into the global arena.
	totalBytes, totalRecs := 0, 0
	for _, c := range chunks {
		totalBytes += len(c.arena)
		totalRecs += len(c.recs)
	}

	t.arena = make([]byte, 0, totalBytes)
	t.recs = make([]Record, 0, totalRecs)
	for _, c := range chunks {
		base := len(t.arena)
		t.arena = append(t.arena, c.arena...)
		for _, r := range c.recs {
			r.off += base
			t.recs = append(t.recs, r)
		}
	}

	t.sortRecords(workers)
	t.dedupRecords(workers)

	return t
}

// sortRecords orders the record array by (variant bytes, source, dels) using
// a counting pass on the leading byte followed by a per-bucket comparator
// sort. Bucket boundaries are retained for join partitioning.
func (t *Table) sortRecords(workers int) {
	var counts [NumBuckets]int
	for _, r := range t.recs {
		counts[t.bucketKey(r)]++
	}

	var cursors [NumBuckets]int
	pos := 0
	for b := 0; b < NumBuckets; b++ {
		t.buckets[b] = pos
		cursors[b] = pos
		pos += counts[b]
	}
	t.buckets[NumBuckets] = pos

	scattered := make([]Record, len(t.recs))
	for _, r := range t.recs {
		b := t.bucketKey(r)
		scattered[cursors[b]] = r
		cursors[b]++
	}
	t.recs = scattered

	// Sort each bucket independently; the bucket order already reflects the
	// leading byte, so concatenated buckets are globally sorted.
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for b := 0; b < NumBuckets; b++ {
		lo, hi := t.buckets[b], t.buckets[b+1]
		if hi-lo < 2 {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(recs []Record) {
			defer wg.Done()
			defer func() { <-sem }()

			sort.Slice(recs, func(i, j int) bool {
				ri, rj := recs[i], recs[j]
				if c := bytes.Compare(t.arena[ri.off:ri.off+ri.n], t.arena[rj.off:rj.off+rj.n]); c != 0 {
					return c < 0
				}
				if ri.Source != rj.Source {
					return ri.Source < rj.Source
				}
				return ri.Dels < rj.Dels
			})
		}(t.recs[lo:hi])
	}
	wg.Wait()
}

// dedupRecords removes duplicate (variant bytes, source) records. The sort
// placed the minimum deletion count first within each duplicate group, so
// keeping the first occurrence retains it. Buckets deduplicate in parallel
// and are compacted serially afterwards.
func (t *Table) dedupRecords(workers int) {
	var kept [NumBuckets]int

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for b := 0; b < NumBuckets; b++ {
		lo, hi := t.buckets[b], t.buckets[b+1]
		if hi-lo == 0 {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(b int, recs []Record) {
			defer wg.Done()
			defer func() { <-sem }()

			w := 1
			for i := 1; i < len(recs); i++ {
				prev := recs[w-1]
				cur := recs[i]
				if cur.Source == prev.Source && cur.n == prev.n &&
					bytes.Equal(t.arena[cur.off:cur.off+cur.n], t.arena[prev.off:prev.off+prev.n]) {
					continue
				}
				recs[w] = cur
				w++
			}
			kept[b] = w
		}(b, t.recs[lo:hi])
	}
	wg.Wait()

	pos := 0
	for b := 0; b < NumBuckets; b++ {
		lo := t.buckets[b]
		n := kept[b]
		copy(t.recs[pos:pos+n], t.recs[lo:lo+n])
		t.buckets[b] = pos
		pos += n
	}
	t.buckets[NumBuckets] = pos
	t.recs = t.recs[:pos]
}

// bucketKey maps a record to its leading-byte partition; the empty variant
// sorts before everything else in its own bucket.
func (t *Table) bucketKey(r Record) int {
	if r.n == 0 {
		return 0
	}
	return 1 + int(t.arena[r.off])
}

// Len returns the number of records in the table.
func (t *Table) Len() int {
	return len(t.recs)
}

// At returns record i.
func (t *Table) At(i int) Record {
	return t.recs[i]
}

// Bytes returns the variant bytes of record i, backed by the table arena.
func (t *Table) Bytes(i int) []byte {
	r := t.recs[i]
	return t.arena[r.off : r.off+r.n]
}

// Bucket returns the [lo, hi) record range of leading-byte partition b.
func (t *Table) Bucket(b int) (lo, hi int) {
	return t.buckets[b], t.buckets[b+1]
}

// ArenaBytes returns the total size of the variant arena.
func (t *Table) ArenaBytes() int {
	return len(t.arena)
}

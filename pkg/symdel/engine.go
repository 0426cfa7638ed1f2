// ------------------------------------------------------
// Nearust - Symdel Engine
// Orchestrates variant generation, join, and verification
// ------------------------------------------------------

package symdel

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/yutanagano/nearust/pkg/collection"
	"github.com/yutanagano/nearust/pkg/variant"
)

// Engine coordinates the symdel pipeline across a worker pool. An Engine is
// stateless between calls apart from its accumulated statistics and safe
// for concurrent use.
type Engine struct {
	workers int

	// Run statistics — updated atomically.
	tableRecords   atomic.Int64
	candidatePairs atomic.Int64
	matchedPairs   atomic.Int64
}

// Stats is a snapshot of engine counters accumulated across runs.
type Stats struct {
	TableRecords   int64 `json:"table_records"`
	CandidatePairs int64 `json:"candidate_pairs"`
	MatchedPairs   int64 `json:"matched_pairs"`
}

// NewEngine creates an engine with the given worker count; zero or negative
// means one worker per CPU core.
func NewEngine(workers int) *Engine {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Engine{workers: workers}
}

// Workers returns the configured worker count.
func (e *Engine) Workers() int {
	return e.workers
}

// GetStats returns a snapshot of the engine counters.
func (e *Engine) GetStats() Stats {
	return Stats{
		TableRecords:   e.tableRecords.Load(),
		CandidatePairs: e.candidatePairs.Load(),
		MatchedPairs:   e.matchedPairs.Load(),
	}
}

// Within finds all pairs (i, j), i < j, of strings in coll whose edit
// distance is at most k. Cancellation is polled at phase boundaries.
func (e *Engine) Within(ctx context.Context, coll *collection.Collection, k int) (*Matches, error) {
	if err := validateBound(k); err != nil {
		return nil, err
	}
	if coll.Len() == 0 {
		return &Matches{}, nil
	}

	table := variant.Build(coll, k, e.workers)
	e.tableRecords.Add(int64(table.Len()))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cands := selfJoin(table, k, e.workers)
	table = nil // the variant arena is the dominant allocation; drop it before verification
	e.candidatePairs.Add(int64(len(cands)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := verifyCandidates(cands, coll, coll, k, e.workers)
	e.matchedPairs.Add(int64(m.Len()))
	return m, nil
}

// Cross finds all pairs (i, j) where string i of query and string j of ref
// are at most k edits apart.
func (e *Engine) Cross(ctx context.Context, query, ref *collection.Collection, k int) (*Matches, error) {
	if err := validateBound(k); err != nil {
		return nil, err
	}
	if query.Len() == 0 || ref.Len() == 0 {
		return &Matches{}, nil
	}

	qTable := variant.Build(query, k, e.workers)
	rTable := variant.Build(ref, k, e.workers)
	e.tableRecords.Add(int64(qTable.Len() + rTable.Len()))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cands := crossJoin(qTable, rTable, k, k, e.workers)
	qTable, rTable = nil, nil // drop both arenas before verification
	e.candidatePairs.Add(int64(len(cands)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := verifyCandidates(cands, query, ref, k, e.workers)
	e.matchedPairs.Add(int64(m.Len()))
	return m, nil
}

// Neighbours is a convenience wrapper around Engine.Within for string
// slices, using one worker per CPU core. Indices are 0-based.
func Neighbours(query []string, k int) (*Matches, error) {
	coll, err := collection.FromStrings(query)
	if err != nil {
		return nil, err
	}
	return NewEngine(0).Within(context.Background(), coll, k)
}

// NeighboursCross is a convenience wrapper around Engine.Cross for string
// slices. Row indices refer to query, column indices to reference.
func NeighboursCross(query, reference []string, k int) (*Matches, error) {
	q, err := collection.FromStrings(query)
	if err != nil {
		return nil, err
	}
	r, err := collection.FromStrings(reference)
	if err != nil {
		return nil, err
	}
	return NewEngine(0).Cross(context.Background(), q, r, k)
}

// ------------------------------------------------------
// Nearust - Cached Reference
// Memoised variant table for repeated queries
// ------------------------------------------------------

package symdel

import (
	"context"

	"github.com/yutanagano/nearust/pkg/collection"
	"github.com/yutanagano/nearust/pkg/variant"
)

// CachedReference holds a precomputed variant table for a reference
// collection, built at bound kstar. Any query with k <= kstar is serviced
// from the cached table: records with more than k deletions are skipped
// during the join, which reconstructs exactly the table a fresh build at k
// would produce. A CachedReference is immutable and safe for concurrent use.
type CachedReference struct {
	coll   *collection.Collection
	table  *variant.Table
	kstar  int
	engine *Engine
}

// NewCachedReference precomputes the variant table for coll at bound kstar
// using the given engine's worker pool.
func (e *Engine) NewCachedReference(coll *collection.Collection, kstar int) (*CachedReference, error) {
	if err := validateBound(kstar); err != nil {
		return nil, err
	}

	table := variant.Build(coll, kstar, e.workers)
	e.tableRecords.Add(int64(table.Len()))

	return &CachedReference{
		coll:   coll,
		table:  table,
		kstar:  kstar,
		engine: e,
	}, nil
}

// NewCachedReference builds a cached reference from a string slice with one
// worker per CPU core.
func NewCachedReference(reference []string, kstar int) (*CachedReference, error) {
	coll, err := collection.FromStrings(reference)
	if err != nil {
		return nil, err
	}
	return NewEngine(0).NewCachedReference(coll, kstar)
}

// MaxDistance returns the construction-time bound kstar.
func (c *CachedReference) MaxDistance() int {
	return c.kstar
}

// Collection returns the reference collection the cache was built from.
func (c *CachedReference) Collection() *collection.Collection {
	return c.coll
}

// checkBound validates a query bound against the cache construction bound.
func (c *CachedReference) checkBound(k int) error {
	if err := validateBound(k); err != nil {
		return err
	}
	if k > c.kstar {
		return &BoundExceedsCacheError{Got: k, Limit: c.kstar}
	}
	return nil
}

// QueryWithin finds all pairs within the cached reference at bound k <= kstar.
func (c *CachedReference) QueryWithin(ctx context.Context, k int) (*Matches, error) {
	if err := c.checkBound(k); err != nil {
		return nil, err
	}
	if c.coll.Len() == 0 {
		return &Matches{}, nil
	}

	e := c.engine
	cands := selfJoin(c.table, k, e.workers)
	e.candidatePairs.Add(int64(len(cands)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := verifyCandidates(cands, c.coll, c.coll, k, e.workers)
	e.matchedPairs.Add(int64(m.Len()))
	return m, nil
}

// Query finds all cross-set pairs between query and the cached reference at
// bound k <= kstar. The query-side variant table is built fresh at k.
func (c *CachedReference) Query(ctx context.Context, query *collection.Collection, k int) (*Matches, error) {
	if err := c.checkBound(k); err != nil {
		return nil, err
	}
	if query.Len() == 0 || c.coll.Len() == 0 {
		return &Matches{}, nil
	}

	e := c.engine
	qTable := variant.Build(query, k, e.workers)
	e.tableRecords.Add(int64(qTable.Len()))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cands := crossJoin(qTable, c.table, k, k, e.workers)
	qTable = nil // only the cached table is retained beyond the join
	e.candidatePairs.Add(int64(len(cands)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := verifyCandidates(cands, query, c.coll, k, e.workers)
	e.matchedPairs.Add(int64(m.Len()))
	return m, nil
}

// QueryCached finds all cross-set pairs between another cached reference
// (acting as the query side) and this one, reusing both tables. The bound
// must not exceed either construction bound.
func (c *CachedReference) QueryCached(ctx context.Context, query *CachedReference, k int) (*Matches, error) {
	if err := c.checkBound(k); err != nil {
		return nil, err
	}
	if k > query.kstar {
		return nil, &BoundExceedsCacheError{Got: k, Limit: query.kstar}
	}
	if query.coll.Len() == 0 || c.coll.Len() == 0 {
		return &Matches{}, nil
	}

	e := c.engine
	cands := crossJoin(query.table, c.table, k, k, e.workers)
	e.candidatePairs.Add(int64(len(cands)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := verifyCandidates(cands, query.coll, c.coll, k, e.workers)
	e.matchedPairs.Add(int64(m.Len()))
	return m, nil
}

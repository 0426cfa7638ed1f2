package symdel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yutanagano/nearust/pkg/collection"
	"github.com/yutanagano/nearust/pkg/symdel"
)

var (
	testQuery = []string{"fizz", "fuzz", "buzz", "izzy", "lofi"}
	testRef   = []string{"file", "tofu", "fizz"}
)

// expectMatches fails the test unless m equals the given parallel arrays.
func expectMatches(t *testing.T, m *symdel.Matches, i, j []uint32, d []uint8) {
	t.Helper()

	if m.Len() != len(i) {
		t.Fatalf("got %d pairs %v/%v/%v, want %d", m.Len(), m.I, m.J, m.D, len(i))
	}
	for row := range i {
		if m.I[row] != i[row] || m.J[row] != j[row] || m.D[row] != d[row] {
			t.Fatalf("row %d = (%d, %d, %d), want (%d, %d, %d)",
				row, m.I[row], m.J[row], m.D[row], i[row], j[row], d[row])
		}
	}
}

func TestNeighboursWithinDistanceOne(t *testing.T) {
	m, err := symdel.Neighbours([]string{"fizz", "fuzz", "buzz"}, 1)
	if err != nil {
		t.Fatalf("Neighbours: %v", err)
	}
	expectMatches(t, m, []uint32{0, 1}, []uint32{1, 2}, []uint8{1, 1})
}

func TestNeighboursWithinDistanceTwo(t *testing.T) {
	m, err := symdel.Neighbours([]string{"fizz", "fuzz", "buzz"}, 2)
	if err != nil {
		t.Fatalf("Neighbours: %v", err)
	}
	expectMatches(t, m, []uint32{0, 0, 1}, []uint32{1, 2, 2}, []uint8{1, 2, 1})
}

func TestNeighboursWithinNoPairBeyondBound(t *testing.T) {
	m, err := symdel.Neighbours([]string{"foo", "bar", "baz"}, 1)
	if err != nil {
		t.Fatalf("Neighbours: %v", err)
	}
	expectMatches(t, m, []uint32{1}, []uint32{2}, []uint8{1})
}

func TestNeighboursCross(t *testing.T) {
	m, err := symdel.NeighboursCross(
		[]string{"fizz", "fuzz", "buzz"},
		[]string{"fooo", "barr", "bazz", "buzz"},
		1,
	)
	if err != nil {
		t.Fatalf("NeighboursCross: %v", err)
	}
	expectMatches(t, m, []uint32{1, 2, 2}, []uint32{3, 2, 3}, []uint8{1, 1, 0})
}

// TestNeighboursEmptyStringRecords verifies empty strings participate like
// any other record.
func TestNeighboursEmptyStringRecords(t *testing.T) {
	m, err := symdel.Neighbours([]string{"", "a", "ab"}, 1)
	if err != nil {
		t.Fatalf("Neighbours: %v", err)
	}
	expectMatches(t, m, []uint32{0, 1}, []uint32{1, 2}, []uint8{1, 1})
}

func TestNeighboursWithinLargerSet(t *testing.T) {
	m, err := symdel.Neighbours(testQuery, 1)
	if err != nil {
		t.Fatalf("Neighbours: %v", err)
	}
	expectMatches(t, m, []uint32{0, 1}, []uint32{1, 2}, []uint8{1, 1})

	m, err = symdel.Neighbours(testQuery, 2)
	if err != nil {
		t.Fatalf("Neighbours: %v", err)
	}
	expectMatches(t, m, []uint32{0, 0, 0, 1}, []uint32{1, 2, 3, 2}, []uint8{1, 2, 2, 1})
}

func TestNeighboursCrossLargerSet(t *testing.T) {
	m, err := symdel.NeighboursCross(testQuery, testRef, 1)
	if err != nil {
		t.Fatalf("NeighboursCross: %v", err)
	}
	expectMatches(t, m, []uint32{0, 1}, []uint32{2, 2}, []uint8{0, 1})

	m, err = symdel.NeighboursCross(testQuery, testRef, 2)
	if err != nil {
		t.Fatalf("NeighboursCross: %v", err)
	}
	expectMatches(t, m,
		[]uint32{0, 0, 1, 2, 3, 4},
		[]uint32{0, 2, 2, 2, 2, 1},
		[]uint8{2, 0, 1, 2, 2, 2})
}

// TestNeighboursZeroBound verifies only exact duplicates match at k=0.
func TestNeighboursZeroBound(t *testing.T) {
	m, err := symdel.Neighbours([]string{"aa", "ab", "aa", "aa"}, 0)
	if err != nil {
		t.Fatalf("Neighbours: %v", err)
	}
	expectMatches(t, m, []uint32{0, 0, 2}, []uint32{2, 3, 3}, []uint8{0, 0, 0})
}

func TestNeighboursEmptyInput(t *testing.T) {
	m, err := symdel.Neighbours(nil, 2)
	if err != nil {
		t.Fatalf("Neighbours: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("got %d pairs, want 0", m.Len())
	}
}

func TestNeighboursCrossEmptySide(t *testing.T) {
	m, err := symdel.NeighboursCross([]string{"abc"}, nil, 2)
	if err != nil {
		t.Fatalf("NeighboursCross: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("got %d pairs, want 0", m.Len())
	}
}

func TestInvalidBound(t *testing.T) {
	var boundErr *symdel.InvalidBoundError

	_, err := symdel.Neighbours([]string{"a"}, -1)
	if !errors.As(err, &boundErr) {
		t.Errorf("k=-1: got %v, want InvalidBoundError", err)
	}

	_, err = symdel.Neighbours([]string{"a"}, 256)
	if !errors.As(err, &boundErr) {
		t.Errorf("k=256: got %v, want InvalidBoundError", err)
	}
}

// TestMonotonicityInBound verifies the result at bound k is a subset of the
// result at bound k+1.
func TestMonotonicityInBound(t *testing.T) {
	input := []string{"fizz", "fuzz", "buzz", "izzy", "lofi", "fizzy", "bu", ""}

	for k := 0; k < 3; k++ {
		smaller, err := symdel.Neighbours(input, k)
		if err != nil {
			t.Fatalf("Neighbours(k=%d): %v", k, err)
		}
		larger, err := symdel.Neighbours(input, k+1)
		if err != nil {
			t.Fatalf("Neighbours(k=%d): %v", k+1, err)
		}

		pairs := make(map[uint64]uint8, larger.Len())
		for row := 0; row < larger.Len(); row++ {
			pairs[uint64(larger.I[row])<<32|uint64(larger.J[row])] = larger.D[row]
		}
		for row := 0; row < smaller.Len(); row++ {
			d, ok := pairs[uint64(smaller.I[row])<<32|uint64(smaller.J[row])]
			if !ok || d != smaller.D[row] {
				t.Errorf("k=%d pair (%d, %d, %d) missing or changed at k=%d",
					k, smaller.I[row], smaller.J[row], smaller.D[row], k+1)
			}
		}
	}
}

// TestCanonicality verifies ordering, uniqueness, and reflexive exclusion on
// a clustered input.
func TestCanonicality(t *testing.T) {
	input := []string{"aaa", "aab", "aba", "baa", "abb", "bab", "bba", "bbb"}

	m, err := symdel.Neighbours(input, 2)
	if err != nil {
		t.Fatalf("Neighbours: %v", err)
	}

	for row := 0; row < m.Len(); row++ {
		if m.I[row] >= m.J[row] {
			t.Errorf("row %d: i=%d not below j=%d", row, m.I[row], m.J[row])
		}
		if row == 0 {
			continue
		}
		prevKey := uint64(m.I[row-1])<<32 | uint64(m.J[row-1])
		curKey := uint64(m.I[row])<<32 | uint64(m.J[row])
		if curKey <= prevKey {
			t.Errorf("row %d not strictly ascending: (%d,%d) after (%d,%d)",
				row, m.I[row], m.J[row], m.I[row-1], m.J[row-1])
		}
	}
}

func TestEngineWithinCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	coll, err := collection.FromStrings(testQuery)
	if err != nil {
		t.Fatalf("FromStrings: %v", err)
	}

	_, err = symdel.NewEngine(2).Within(ctx, coll, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestEngineStats(t *testing.T) {
	engine := symdel.NewEngine(2)

	coll, err := collection.FromStrings(testQuery)
	if err != nil {
		t.Fatalf("FromStrings: %v", err)
	}
	if _, err := engine.Within(context.Background(), coll, 1); err != nil {
		t.Fatalf("Within: %v", err)
	}

	stats := engine.GetStats()
	if stats.TableRecords == 0 {
		t.Error("TableRecords not recorded")
	}
	if stats.CandidatePairs == 0 {
		t.Error("CandidatePairs not recorded")
	}
	if stats.MatchedPairs != 2 {
		t.Errorf("MatchedPairs = %d, want 2", stats.MatchedPairs)
	}
}

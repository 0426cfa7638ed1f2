// ------------------------------------------------------
// Nearust - Match Set
// Sparse triplet form of the verified neighbour pairs
// ------------------------------------------------------

package symdel

// Matches holds verified neighbour pairs as three parallel arrays: string
// indices I and J and their edit distances D. Rows are unique and sorted
// lexicographically by (I, J). For within-set searches I < J on every row;
// for cross-set searches I indexes the query and J the reference.
type Matches struct {
	I []uint32
	J []uint32
	D []uint8
}

// Len returns the number of matched pairs.
func (m *Matches) Len() int {
	return len(m.I)
}

// Shift returns a copy of m with base added to every index, for hosts that
// number records from something other than zero.
func (m *Matches) Shift(base uint32) *Matches {
	out := &Matches{
		I: make([]uint32, len(m.I)),
		J: make([]uint32, len(m.J)),
		D: make([]uint8, len(m.D)),
	}
	for i := range m.I {
		out.I[i] = m.I[i] + base
		out.J[i] = m.J[i] + base
	}
	copy(out.D, m.D)
	return out
}

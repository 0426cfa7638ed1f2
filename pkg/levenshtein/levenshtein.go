// ------------------------------------------------------
// Nearust - Levenshtein Distance
// Byte-exact banded implementation for pair verification
// ------------------------------------------------------

package levenshtein

// Distance returns the Levenshtein edit distance between two byte strings.
// Uses dynamic programming with space optimization.
func Distance(a, b []byte) int {
	// Skip the longest common prefix and suffix; edits never touch them.
	for len(a) > 0 && len(b) > 0 && a[0] == b[0] {
		a = a[1:]
		b = b[1:]
	}
	for len(a) > 0 && len(b) > 0 && a[len(a)-1] == b[len(b)-1] {
		a = a[:len(a)-1]
		b = b[:len(b)-1]
	}

	la := len(a)
	lb := len(b)

	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	// Swap to ensure b is shorter (optimization)
	if la < lb {
		a, b = b, a
		la, lb = lb, la
	}

	// Use two rolling rows (O(min(m,n)) space)
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)

	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i

		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			// Minimum of insert, delete, replace
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}

		prev, curr = curr, prev
	}

	return prev[lb]
}

// BoundedDistance computes the Levenshtein distance between a and b restricted
// to a band of width 2k+1 around the diagonal. It returns (d, true) when
// d <= k and (0, false) otherwise. The computation exits early as soon as
// every cell in the current band row exceeds k.
func BoundedDistance(a, b []byte, k int) (int, bool) {
	if k < 0 {
		return 0, false
	}

	for len(a) > 0 && len(b) > 0 && a[0] == b[0] {
		a = a[1:]
		b = b[1:]
	}
	for len(a) > 0 && len(b) > 0 && a[len(a)-1] == b[len(b)-1] {
		a = a[:len(a)-1]
		b = b[:len(b)-1]
	}

	la := len(a)
	lb := len(b)

	if la > lb {
		a, b = b, a
		la, lb = lb, la
	}

	// Cells outside the band can never bring the distance back within k.
	if lb-la > k {
		return 0, false
	}
	if la == 0 {
		return lb, true
	}

	// inf marks a cell outside the band or already beyond the bound.
	inf := k + 1

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)

	for j := 0; j <= lb; j++ {
		if j <= k {
			prev[j] = j
		} else {
			prev[j] = inf
		}
	}

	for i := 1; i <= la; i++ {
		lo := i - k
		if lo < 1 {
			lo = 1
		}
		hi := i + k
		if hi > lb {
			hi = lb
		}

		if i <= k {
			curr[0] = i
		} else {
			curr[0] = inf
		}
		if lo > 1 {
			curr[lo-1] = inf
		}

		rowMin := inf
		for j := lo; j <= hi; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			d := min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if d > inf {
				d = inf
			}

			curr[j] = d
			if d < rowMin {
				rowMin = d
			}
		}
		if hi < lb {
			curr[hi+1] = inf
		}

		if rowMin > k {
			return 0, false
		}

		prev, curr = curr, prev
	}

	if prev[lb] > k {
		return 0, false
	}
	return prev[lb], true
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

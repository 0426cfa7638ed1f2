// ------------------------------------------------------
// Nearust - String Collection
// Packed byte storage for bulk string inputs
// ------------------------------------------------------

package collection

import (
	"bufio"
	"fmt"
	"io"
	"math"
)

// MaxStrings is the largest number of strings a collection may hold;
// string indices are 32-bit unsigned integers.
const MaxStrings = math.MaxUint32

// Collection is an immutable, ordered sequence of byte strings stored in a
// single contiguous buffer. String i occupies buf[offsets[i]:offsets[i+1]].
// A Collection is read-only after construction and safe for concurrent use.
type Collection struct {
	buf     []byte
	offsets []int
}

// FromStrings builds a collection from a slice of strings.
// Returns an error if the slice holds more than MaxStrings entries.
func FromStrings(strings []string) (*Collection, error) {
	if uint64(len(strings)) > MaxStrings {
		return nil, &OverflowError{Count: len(strings)}
	}

	total := 0
	for _, s := range strings {
		total += len(s)
	}

	c := &Collection{
		buf:     make([]byte, 0, total),
		offsets: make([]int, 1, len(strings)+1),
	}

	for _, s := range strings {
		c.buf = append(c.buf, s...)
		c.offsets = append(c.offsets, len(c.buf))
	}

	return c, nil
}

// ReadLines builds a collection from newline-terminated records read from r.
// Each line is one byte string; the final record may omit its trailing
// newline. A trailing "\r" is stripped so CRLF input behaves like LF input.
func ReadLines(r io.Reader) (*Collection, error) {
	c := &Collection{offsets: make([]int, 1, 1024)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), math.MaxInt32)

	for scanner.Scan() {
		if uint64(c.Len()) == MaxStrings {
			return nil, &OverflowError{Count: c.Len() + 1}
		}
		c.buf = append(c.buf, scanner.Bytes()...)
		c.offsets = append(c.offsets, len(c.buf))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input lines: %w", err)
	}

	return c, nil
}

// Len returns the number of strings in the collection.
func (c *Collection) Len() int {
	return len(c.offsets) - 1
}

// At returns string i as a byte slice backed by the collection buffer.
// The slice must not be modified.
func (c *Collection) At(i int) []byte {
	return c.buf[c.offsets[i]:c.offsets[i+1]]
}

// StrLen returns the length of string i without slicing.
func (c *Collection) StrLen(i int) int {
	return c.offsets[i+1] - c.offsets[i]
}

// TotalBytes returns the combined length of all strings.
func (c *Collection) TotalBytes() int {
	return len(c.buf)
}

// OverflowError reports a collection that exceeds the 32-bit index space.
type OverflowError struct {
	Count int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("collection must not hold more than %d strings, got %d", MaxStrings, e.Count)
}

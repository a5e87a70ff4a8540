package equations

import (
	"slices"
	"strconv"
	"strings"
)

// Pair is a bracket around operands Left through Right-1. Within a
// Structure, every pair spans at least two operands.
type Pair struct {
	Left, Right int
}

func (p Pair) String() string {
	return "(" + strconv.Itoa(p.Left) + "," + strconv.Itoa(p.Right) + ")"
}

// comparePairs orders pairs by left edge. Of two pairs sharing a left edge,
// the wider comes first, so that a pair precedes the pairs it contains.
func comparePairs(p, q Pair) int {
	if p.Left != q.Left {
		return p.Left - q.Left
	}
	return q.Right - p.Right
}

// Structure is a set of well-nested bracket pairs. The zero Structure is the
// empty set, meaning no brackets.
type Structure struct {
	pairs []Pair
	key   string
}

// NewStructure creates a structure from a list of pairs. Duplicates are
// removed.
func NewStructure(pairs ...Pair) Structure {
	p := slices.Clone(pairs)
	slices.SortFunc(p, comparePairs)
	p = slices.Compact(p)
	var b strings.Builder
	for _, v := range p {
		b.WriteString(v.String())
	}
	return Structure{pairs: p, key: b.String()}
}

// Pairs returns the pairs in s, ordered by left edge with outer pairs first.
func (s Structure) Pairs() []Pair {
	return slices.Clone(s.pairs)
}

// Len returns the number of pairs in s.
func (s Structure) Len() int {
	return len(s.pairs)
}

// Has returns whether p is in s.
func (s Structure) Has(p Pair) bool {
	_, ok := slices.BinarySearchFunc(s.pairs, p, comparePairs)
	return ok
}

// Key returns a string which is equal for equal structures.
func (s Structure) Key() string {
	return s.key
}

func (s Structure) String() string {
	return "{" + s.key + "}"
}

func (s Structure) union(t Structure) Structure {
	if len(t.pairs) == 0 {
		return s
	}
	if len(s.pairs) == 0 {
		return t
	}
	return NewStructure(append(slices.Clone(s.pairs), t.pairs...)...)
}

// compareStructures orders structures by size, then pair by pair.
func compareStructures(s, t Structure) int {
	if len(s.pairs) != len(t.pairs) {
		return len(s.pairs) - len(t.pairs)
	}
	return slices.CompareFunc(s.pairs, t.pairs, comparePairs)
}

type rangeKey struct {
	start, length int
}

// Brackets returns every distinct way to bracket n operands, including no
// brackets at all. No structure brackets all n operands together. The result
// is ordered by number of pairs and then by the pairs themselves. It is
// shared with other callers and must not be modified.
func (c *Cache) Brackets(n int) []Structure {
	if n < 0 {
		n = 0
	}
	return c.brackets(0, n)
}

// brackets returns the structures over the operands in [start, start+length).
func (c *Cache) brackets(start, length int) []Structure {
	key := rangeKey{start, length}
	if v, ok := c.get(c.structs, key); ok {
		return v.([]Structure)
	}
	r := c.enumerate(start, length)
	c.add(c.structs, key, r)
	return r
}

func (c *Cache) enumerate(start, length int) []Structure {
	r := []Structure{{}}
	seen := map[string]bool{"": true}
	if length < 3 {
		// Any split of fewer than three operands is into one group or into
		// single operands, neither of which brackets anything.
		return r
	}
	// Each mask picks the gaps at which to split the range into contiguous
	// groups. Zero splits and splits at every gap are both useless.
	full := 1<<(length-1) - 1
	for mask := 1; mask < full; mask++ {
		combos := []Structure{{}}
		left := start
		for i := 0; i < length; i++ {
			if i < length-1 && mask&(1<<i) == 0 {
				continue
			}
			right := start + i + 1
			if right-left >= 2 {
				combos = product(combos, c.group(left, right))
			}
			left = right
		}
		for _, s := range combos {
			if !seen[s.key] {
				seen[s.key] = true
				r = append(r, s)
			}
		}
	}
	slices.SortFunc(r, compareStructures)
	return r
}

// group returns the alternatives for one group of a split: the group's own
// bracket, alone or together with any bracketing of its inside.
func (c *Cache) group(left, right int) []Structure {
	outer := NewStructure(Pair{left, right})
	alts := []Structure{outer}
	if right-left < 3 {
		return alts
	}
	for _, sub := range c.brackets(left, right-left) {
		if sub.Len() != 0 {
			alts = append(alts, outer.union(sub))
		}
	}
	return alts
}

// product unions every structure in a with every structure in b.
func product(a, b []Structure) []Structure {
	r := make([]Structure, 0, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			r = append(r, x.union(y))
		}
	}
	return r
}

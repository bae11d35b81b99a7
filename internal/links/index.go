package links

import "sort"

// LinkIndex maps a source path to the destinations it links to and the number
// of occurrences of each link. Iteration helpers return sorted paths so that
// every pass over the same snapshot visits edges in the same order.
type LinkIndex map[string]map[string]int

// Has reports whether path has an entry in the index.
func (li LinkIndex) Has(path string) bool {
	_, ok := li[path]
	return ok
}

// HasEdge reports whether src links to dest.
func (li LinkIndex) HasEdge(src, dest string) bool {
	_, ok := li[src][dest]
	return ok
}

// Sources returns every source path in the index.
func (li LinkIndex) Sources() []string {
	return sortedKeys(li)
}

// EdgesFrom returns the destinations of path.
func (li LinkIndex) EdgesFrom(path string) []string {
	return sortedKeys(li[path])
}

// Count returns how many times src links to dest.
func (li LinkIndex) Count(src, dest string) int {
	return li[src][dest]
}

// Reverse builds the inverse adjacency of the index.
func (li LinkIndex) Reverse() ReverseIndex {
	rev := make(ReverseIndex)
	for _, src := range li.Sources() {
		for _, dest := range li.EdgesFrom(src) {
			rev[dest] = append(rev[dest], src)
		}
	}
	return rev
}

// Clone returns a deep copy of the index.
func (li LinkIndex) Clone() LinkIndex {
	if li == nil {
		return nil
	}
	cloned := make(LinkIndex, len(li))
	for src, dests := range li {
		inner := make(map[string]int, len(dests))
		for dest, n := range dests {
			inner[dest] = n
		}
		cloned[src] = inner
	}
	return cloned
}

// ReverseIndex maps a destination to the sorted sources linking to it.
type ReverseIndex map[string][]string

// EdgesTo returns the sources linking to path.
func (r ReverseIndex) EdgesTo(path string) []string {
	return r[path]
}

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

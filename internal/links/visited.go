package links

// Visited records paths already placed in an output group during one
// aggregation. A nil *Visited is inactive: every check passes and nothing is
// recorded.
type Visited struct {
	seen map[string]struct{}
}

// NewVisited returns an empty, active visitation context.
func NewVisited() *Visited {
	return &Visited{seen: make(map[string]struct{})}
}

// Active reports whether duplicate suppression is on.
func (v *Visited) Active() bool {
	return v != nil
}

// Has reports whether path was already recorded.
func (v *Visited) Has(path string) bool {
	if v == nil {
		return false
	}
	_, ok := v.seen[path]
	return ok
}

// Mark records path.
func (v *Visited) Mark(path string) {
	if v == nil {
		return
	}
	v.seen[path] = struct{}{}
}

// Claim records path and reports whether it was free. The first caller wins.
func (v *Visited) Claim(path string) bool {
	if v == nil {
		return true
	}
	if v.Has(path) {
		return false
	}
	v.Mark(path)
	return true
}

// Len returns the number of recorded paths.
func (v *Visited) Len() int {
	if v == nil {
		return 0
	}
	return len(v.seen)
}

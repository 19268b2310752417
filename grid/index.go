package grid

// Index is an immutable bijection between entity names and dense integer
// positions [0, n). It is the single source of truth for the ordering of
// every caller-visible vector: a vector "indexed by branches" uses the
// branch Index positions, and so on.
//
// An Index never changes after construction; derived objects may hold it
// without copying.
type Index struct {
	keys []string
	pos  map[string]int
}

// NewIndex builds an Index over keys in the given order.
// Duplicate keys return ErrDuplicateName.
//
// Time Complexity: O(n)
func NewIndex(keys []string) (*Index, error) {
	pos := make(map[string]int, len(keys))
	own := make([]string, len(keys))
	for i, k := range keys {
		if _, dup := pos[k]; dup {
			return nil, ErrDuplicateName
		}
		pos[k] = i
		own[i] = k
	}

	return &Index{keys: own, pos: pos}, nil
}

// Position returns the dense position of name, and whether name is indexed.
//
// Time Complexity: O(1)
func (ix *Index) Position(name string) (int, bool) {
	i, ok := ix.pos[name]

	return i, ok
}

// Name returns the key stored at position i. It panics when i is out of
// range, matching slice semantics.
func (ix *Index) Name(i int) string { return ix.keys[i] }

// Len returns the number of indexed keys.
func (ix *Index) Len() int { return len(ix.keys) }

// Keys returns a copy of the ordered key slice.
//
// Time Complexity: O(n)
func (ix *Index) Keys() []string {
	out := make([]string, len(ix.keys))
	copy(out, ix.keys)

	return out
}

// Drop derives a new Index with name removed, preserving the relative order
// of the remaining keys. The receiver is unchanged. Returns ErrUnknownBus
// when name is not indexed (Drop exists to eliminate the reference bus).
//
// Time Complexity: O(n)
func (ix *Index) Drop(name string) (*Index, error) {
	if _, ok := ix.pos[name]; !ok {
		return nil, ErrUnknownBus
	}
	keys := make([]string, 0, len(ix.keys)-1)
	for _, k := range ix.keys {
		if k != name {
			keys = append(keys, k)
		}
	}

	return NewIndex(keys)
}

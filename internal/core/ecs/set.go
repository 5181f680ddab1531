package ecs

// entitySet is an insertion-ordered set of entity ids. Remove swaps the last
// element into the hole, so order stays deterministic but is not preserved
// across removals.
type entitySet struct {
	items []EntityID
	pos   map[EntityID]int
}

func newEntitySet() *entitySet {
	return &entitySet{pos: make(map[EntityID]int)}
}

func (s *entitySet) Add(id EntityID) bool {
	if _, ok := s.pos[id]; ok {
		return false
	}
	s.pos[id] = len(s.items)
	s.items = append(s.items, id)
	return true
}

func (s *entitySet) Remove(id EntityID) bool {
	i, ok := s.pos[id]
	if !ok {
		return false
	}
	last := len(s.items) - 1
	moved := s.items[last]
	s.items[i] = moved
	s.pos[moved] = i
	s.items = s.items[:last]
	delete(s.pos, id)
	return true
}

func (s *entitySet) Has(id EntityID) bool {
	_, ok := s.pos[id]
	return ok
}

func (s *entitySet) Len() int { return len(s.items) }

// Items exposes the backing slice. The set must not change while it is ranged over.
func (s *entitySet) Items() []EntityID { return s.items }

func (s *entitySet) Clear() {
	s.items = s.items[:0]
	clear(s.pos)
}

// bitset records per-system eligibility for one entity, bit i = system i.
type bitset []uint64

func (b bitset) has(i int) bool {
	w := i >> 6
	return w < len(b) && b[w]&(1<<uint(i&63)) != 0
}

func (b *bitset) set(i int) {
	w := i >> 6
	for w >= len(*b) {
		*b = append(*b, 0)
	}
	(*b)[w] |= 1 << uint(i&63)
}

func (b bitset) unset(i int) {
	w := i >> 6
	if w < len(b) {
		b[w] &^= 1 << uint(i&63)
	}
}

func (b bitset) empty() bool {
	for _, w := range b {
		if w != 0 {
			return false
		}
	}
	return true
}

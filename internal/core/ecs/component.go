package ecs

// Component is a data record tagged with a type identifier. The engine never
// looks inside a component; it only routes it by Type().
type Component interface {
	Type() string
}

type storeSlot struct {
	id        EntityID
	component Component
}

// ComponentStore holds the committed component of one type for every entity
// that has one. Slots are indexed by entity index; the stored id guards against
// stale generations reusing the slot.
type ComponentStore struct {
	slots []storeSlot
	count int
}

func NewComponentStore() *ComponentStore {
	return &ComponentStore{
		slots: make([]storeSlot, 0, 256),
	}
}

func (s *ComponentStore) Put(c Component, id EntityID) {
	idx := int(id.Index())
	if idx >= len(s.slots) {
		grown := make([]storeSlot, idx+1, max(2*len(s.slots), idx+1))
		copy(grown, s.slots)
		s.slots = grown
	}
	if s.slots[idx].component == nil {
		s.count++
	}
	s.slots[idx] = storeSlot{id: id, component: c}
}

func (s *ComponentStore) Get(id EntityID) (Component, bool) {
	idx := int(id.Index())
	if idx >= len(s.slots) {
		return nil, false
	}
	slot := s.slots[idx]
	if slot.component == nil || slot.id != id {
		return nil, false
	}
	return slot.component, true
}

func (s *ComponentStore) Has(id EntityID) bool {
	_, ok := s.Get(id)
	return ok
}

func (s *ComponentStore) Remove(id EntityID) {
	if !s.Has(id) {
		return
	}
	s.slots[id.Index()] = storeSlot{}
	s.count--
}

func (s *ComponentStore) Len() int {
	return s.count
}

func (s *ComponentStore) Each(fn func(EntityID, Component)) {
	for _, slot := range s.slots {
		if slot.component != nil {
			fn(slot.id, slot.component)
		}
	}
}

package ecs

import "fmt"

// MaxComponentTypes is the signature bit width. Each component type owns one bit.
const MaxComponentTypes = 64

// Signature is a bitmask of component type flags.
type Signature uint64

// Contains reports whether every bit of req is set in s.
func (s Signature) Contains(req Signature) bool {
	return s&req == req
}

// Registry maps component type tags to their flag and store, in registration
// order, and supports bulk cleanup on entity destroy.
type Registry struct {
	types  []string
	index  map[string]int
	stores []*ComponentStore
}

func NewRegistry(componentTypes []string) (*Registry, error) {
	if len(componentTypes) > MaxComponentTypes {
		return nil, fmt.Errorf("%w: %d component types exceed the limit of %d",
			ErrConstruction, len(componentTypes), MaxComponentTypes)
	}
	r := &Registry{
		types:  make([]string, 0, len(componentTypes)),
		index:  make(map[string]int, len(componentTypes)),
		stores: make([]*ComponentStore, 0, len(componentTypes)),
	}
	for _, t := range componentTypes {
		if _, dup := r.index[t]; dup {
			return nil, fmt.Errorf("%w: component type %q duplicates", ErrConstruction, t)
		}
		r.index[t] = len(r.types)
		r.types = append(r.types, t)
		r.stores = append(r.stores, NewComponentStore())
	}
	return r, nil
}

// Len returns the number of registered component types.
func (r *Registry) Len() int { return len(r.types) }

// Types returns the registered tags in registration order.
func (r *Registry) Types() []string {
	return append([]string(nil), r.types...)
}

func (r *Registry) Index(typ string) (int, bool) {
	i, ok := r.index[typ]
	return i, ok
}

// Flag returns the single-bit flag assigned to typ.
func (r *Registry) Flag(typ string) (Signature, bool) {
	i, ok := r.index[typ]
	if !ok {
		return 0, false
	}
	return Signature(1) << uint(i), true
}

// Store returns the component store for typ.
func (r *Registry) Store(typ string) (*ComponentStore, bool) {
	i, ok := r.index[typ]
	if !ok {
		return nil, false
	}
	return r.stores[i], true
}

// SignatureOf ORs the flags of the given tags. Unknown tags are an error.
func (r *Registry) SignatureOf(types []string) (Signature, error) {
	var sig Signature
	for _, t := range types {
		flag, ok := r.Flag(t)
		if !ok {
			return 0, fmt.Errorf("component type %q: %w", t, ErrNotFound)
		}
		sig |= flag
	}
	return sig, nil
}

// RemoveMasked deletes id from every store whose flag is set in mask.
func (r *Registry) RemoveMasked(id EntityID, mask Signature) {
	for i, s := range r.stores {
		if mask&(Signature(1)<<uint(i)) != 0 {
			s.Remove(id)
		}
	}
}

// RemoveAll clears the given entity from every registered component store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, s := range r.stores {
		s.Remove(id)
	}
}

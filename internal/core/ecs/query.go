package ecs

import "fmt"

// Each calls fn for every live entity whose committed signature holds all of
// types. It walks the smallest of the requested stores and checks the
// signature for the rest. fn must not destroy or purge entities directly;
// staged calls are fine.
func (e *Engine) Each(types []string, fn func(EntityHandle)) error {
	required, err := e.registry.SignatureOf(types)
	if err != nil {
		return err
	}
	if len(types) == 0 {
		for _, rec := range e.records {
			if rec != nil && rec.alive {
				fn(e.handle(rec.id))
			}
		}
		return nil
	}

	var smallest *ComponentStore
	for _, t := range types {
		s, _ := e.registry.Store(t)
		if smallest == nil || s.Len() < smallest.Len() {
			smallest = s
		}
	}
	var ids []EntityID
	smallest.Each(func(id EntityID, _ Component) {
		if rec, ok := e.record(id); ok && rec.signature.Contains(required) {
			ids = append(ids, id)
		}
	})
	for _, id := range ids {
		fn(e.handle(id))
	}
	return nil
}

// Get returns the committed component of typ on h asserted to T.
func Get[T Component](h EntityHandle, typ string) (T, bool) {
	var zero T
	c, err := h.GetComponentOfType(typ)
	if err != nil || c == nil {
		return zero, false
	}
	v, ok := c.(T)
	return v, ok
}

// MustGet is Get for callers that treat a missing component as a bug, such as
// a system reading one of its own required types.
func MustGet[T Component](h EntityHandle, typ string) (T, error) {
	v, ok := Get[T](h, typ)
	if !ok {
		return v, fmt.Errorf("%w: entity %s lacks required component %q", ErrInvariantViolation, h.ID(), typ)
	}
	return v, nil
}

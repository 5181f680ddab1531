package ecs

import "fmt"

// ComponentTypes returns the registered component tags in flag order.
func (e *Engine) ComponentTypes() []string {
	return e.registry.Types()
}

// AddComponentToEntity stages c for id. Stores and signatures change at the
// next commit; a later add of the same type before then replaces it.
func (e *Engine) AddComponentToEntity(c Component, id EntityID) error {
	if c == nil {
		return fmt.Errorf("add nil component to entity %s: %w", id, ErrIllegalOperation)
	}
	idx, ok := e.registry.Index(c.Type())
	if !ok {
		return fmt.Errorf("component type %q: %w", c.Type(), ErrNotFound)
	}
	rec, err := e.mustRecord(id)
	if err != nil {
		return err
	}
	if rec.adds == nil {
		rec.adds = make([]Component, e.registry.Len())
	}
	rec.adds[idx] = c
	e.addQueue.Add(id)
	return nil
}

// RemoveComponentFromEntityOfType stages removal of typ from id. Removal is
// committed after this tick's Remove callbacks.
func (e *Engine) RemoveComponentFromEntityOfType(typ string, id EntityID) error {
	flag, ok := e.registry.Flag(typ)
	if !ok {
		return fmt.Errorf("component type %q: %w", typ, ErrNotFound)
	}
	rec, err := e.mustRecord(id)
	if err != nil {
		return err
	}
	rec.removes |= flag
	e.removeQueue.Add(id)
	return nil
}

// HasComponentOfType reports committed state only.
func (e *Engine) HasComponentOfType(typ string, id EntityID) (bool, error) {
	store, ok := e.registry.Store(typ)
	if !ok {
		return false, fmt.Errorf("component type %q: %w", typ, ErrNotFound)
	}
	if _, err := e.mustRecord(id); err != nil {
		return false, err
	}
	return store.Has(id), nil
}

// GetComponentOfType returns the committed component, or nil when id has none.
func (e *Engine) GetComponentOfType(typ string, id EntityID) (Component, error) {
	store, ok := e.registry.Store(typ)
	if !ok {
		return nil, fmt.Errorf("component type %q: %w", typ, ErrNotFound)
	}
	if _, err := e.mustRecord(id); err != nil {
		return nil, err
	}
	c, _ := store.Get(id)
	return c, nil
}

// GetSignatureOfEntity returns the committed signature of id.
func (e *Engine) GetSignatureOfEntity(id EntityID) (Signature, error) {
	rec, err := e.mustRecord(id)
	if err != nil {
		return 0, err
	}
	return rec.signature, nil
}

// FlagOfComponentType returns the bit assigned to typ at construction.
func (e *Engine) FlagOfComponentType(typ string) (Signature, error) {
	flag, ok := e.registry.Flag(typ)
	if !ok {
		return 0, fmt.Errorf("component type %q: %w", typ, ErrNotFound)
	}
	return flag, nil
}

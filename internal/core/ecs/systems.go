package ecs

import "fmt"

func (e *Engine) HasSystemOfType(typ string) bool {
	_, ok := e.byType[typ]
	return ok
}

func (e *Engine) GetSystemOfType(typ string) (System, error) {
	st, err := e.systemState(typ)
	if err != nil {
		return nil, err
	}
	return st.system, nil
}

// SystemTypes returns the system tags in registration order.
func (e *Engine) SystemTypes() []string {
	out := make([]string, len(e.systems))
	for i, st := range e.systems {
		out[i] = st.system.Type()
	}
	return out
}

// IsSystemActive reports the committed state: whether the system currently
// receives Add, Update and Remove callbacks.
func (e *Engine) IsSystemActive(typ string) (bool, error) {
	st, err := e.systemState(typ)
	if err != nil {
		return false, err
	}
	return st.active, nil
}

// ActivateSystemOfType requests an activation edge. Enter fires at the start
// of the next tick unless an inactivation cancels the request first.
func (e *Engine) ActivateSystemOfType(typ string) error {
	st, err := e.systemState(typ)
	if err != nil {
		return err
	}
	st.desired = true
	return nil
}

// InactivateSystemOfType requests a deactivation edge. Exit fires after the
// Remove phase of the current or next tick.
func (e *Engine) InactivateSystemOfType(typ string) error {
	st, err := e.systemState(typ)
	if err != nil {
		return err
	}
	st.desired = false
	return nil
}

func (e *Engine) systemState(typ string) (*systemState, error) {
	st, ok := e.byType[typ]
	if !ok {
		return nil, fmt.Errorf("system type %q: %w", typ, ErrNotFound)
	}
	return st, nil
}

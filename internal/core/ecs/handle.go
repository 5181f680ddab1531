package ecs

// EntityHandle binds one entity to the engine for system callbacks. It holds no
// state beyond the id; every call goes through the engine's staged API.
type EntityHandle struct {
	id     EntityID
	engine *Engine
}

func (h EntityHandle) ID() EntityID { return h.id }

func (h EntityHandle) IsActive() bool {
	return h.engine.IsEntityActive(h.id)
}

func (h EntityHandle) HasComponentOfType(typ string) (bool, error) {
	return h.engine.HasComponentOfType(typ, h.id)
}

func (h EntityHandle) GetComponentOfType(typ string) (Component, error) {
	return h.engine.GetComponentOfType(typ, h.id)
}

func (h EntityHandle) AddComponent(c Component) error {
	return h.engine.AddComponentToEntity(c, h.id)
}

func (h EntityHandle) RemoveComponentOfType(typ string) error {
	return h.engine.RemoveComponentFromEntityOfType(typ, h.id)
}

func (h EntityHandle) Activate() error {
	return h.engine.ActivateEntity(h.id)
}

func (h EntityHandle) Inactivate() error {
	return h.engine.InactivateEntity(h.id)
}

func (h EntityHandle) Destroy() error {
	return h.engine.DestroyEntity(h.id)
}

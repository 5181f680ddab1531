package event

// Event names shared by the built-in systems.
const (
	// EntitySpawned carries (ecs.EntityID child, ecs.EntityID spawner).
	EntitySpawned = "entity.spawned"
	// EntityExpired carries (ecs.EntityID).
	EntityExpired = "entity.expired"
)

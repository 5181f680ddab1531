package ecs

import "time"

// System is a behavior unit. The engine matches entities against the
// required component types and drives the lifecycle callbacks each tick.
type System interface {
	Type() string
	RequiredComponentTypes() []string

	// Enter fires once per activation edge, Exit once per deactivation edge.
	Enter()
	Exit()

	// Add fires when an entity becomes eligible, Remove when it stops being
	// eligible. Update fires every tick in between.
	Add(e EntityHandle)
	Remove(e EntityHandle)
	Update(e EntityHandle, dt time.Duration)
}

// Handler receives the arguments passed to EventBus.Emit.
type Handler = func(args ...any)

// EventBus is the cross-system notification channel. Ids returned by On and
// Once are valid for exactly one Off.
type EventBus interface {
	On(event string, h Handler) string
	Once(event string, h Handler) string
	Off(id string)
	Emit(event string, args ...any)
}

// EntityFactory creates an entity under parent (Nil means the root entity)
// with the given name (empty means the entity id).
type EntityFactory func(parent EntityID, name string) (EntityHandle, error)

// SystemConstructor builds a system. args are the SystemSpec arguments.
type SystemConstructor func(create EntityFactory, bus EventBus, args ...any) (System, error)

// SystemSpec registers one system. Specs are registered in slice order, which
// is also the callback order within every tick phase.
type SystemSpec struct {
	Type string
	New  SystemConstructor
	Args []any
}

// SystemBase supplies no-op lifecycle callbacks and the entity/event helpers
// every system gets. Embed it and override what you need.
type SystemBase struct {
	create     EntityFactory
	bus        EventBus
	handlerIDs []string
}

// NewSystemBase binds the base to the factory and bus handed to a constructor.
func NewSystemBase(create EntityFactory, bus EventBus) SystemBase {
	return SystemBase{create: create, bus: bus}
}

func (SystemBase) Enter()                             {}
func (SystemBase) Exit()                              {}
func (SystemBase) Add(EntityHandle)                   {}
func (SystemBase) Remove(EntityHandle)                {}
func (SystemBase) Update(EntityHandle, time.Duration) {}

// CreateEntity creates an entity through the engine's staged API.
func (b *SystemBase) CreateEntity(parent EntityID, name string) (EntityHandle, error) {
	return b.create(parent, name)
}

// OnEvent subscribes h and remembers the id for OffAllEventHandlers.
func (b *SystemBase) OnEvent(event string, h Handler) string {
	id := b.bus.On(event, h)
	b.handlerIDs = append(b.handlerIDs, id)
	return id
}

// OnceEvent subscribes h for a single delivery.
func (b *SystemBase) OnceEvent(event string, h Handler) string {
	id := b.bus.Once(event, h)
	b.handlerIDs = append(b.handlerIDs, id)
	return id
}

func (b *SystemBase) OffEventHandler(id string) {
	b.bus.Off(id)
	for i, hid := range b.handlerIDs {
		if hid == id {
			b.handlerIDs = append(b.handlerIDs[:i], b.handlerIDs[i+1:]...)
			break
		}
	}
}

// OffAllEventHandlers drops every subscription made through this base.
func (b *SystemBase) OffAllEventHandlers() {
	for _, id := range b.handlerIDs {
		b.bus.Off(id)
	}
	b.handlerIDs = b.handlerIDs[:0]
}

func (b *SystemBase) EmitEvent(event string, args ...any) {
	b.bus.Emit(event, args...)
}

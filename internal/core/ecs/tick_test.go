package ecs_test

import (
	"testing"
	"time"

	"github.com/l1jgo/hecs/internal/core/ecs"
	"github.com/l1jgo/hecs/internal/core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddComponentLifecycleOverTenTicks(t *testing.T) {
	e := newEngine(t, []string{"A"}, recorderSpec("S", "A"))
	sys := systemOf(t, e, "S")
	id, _ := e.CreateEntity(ecs.Nil, "")
	a := comp("A")
	require.NoError(t, e.AddComponentToEntity(a, id))

	has, err := e.HasComponentOfType("A", id)
	require.NoError(t, err)
	assert.False(t, has, "staged component is not visible before commit")

	tick(t, e, 1)
	assert.Equal(t, 1, sys.count("enter"))
	assert.Equal(t, 1, sys.count("add"))
	assert.Equal(t, 1, sys.count("update"))

	tick(t, e, 9)
	assert.Equal(t, 1, sys.count("enter"))
	assert.Equal(t, 1, sys.count("add"))
	assert.Equal(t, 10, sys.count("update"))
	assert.Zero(t, sys.count("remove"))
	assert.Zero(t, sys.count("exit"))

	got, err := e.GetComponentOfType("A", id)
	require.NoError(t, err)
	assert.Same(t, a, got)
}

func TestAddThenRemoveBeforeFirstTick(t *testing.T) {
	e := newEngine(t, []string{"A"}, recorderSpec("S", "A"))
	sys := systemOf(t, e, "S")
	id, _ := e.CreateEntity(ecs.Nil, "")
	require.NoError(t, e.AddComponentToEntity(comp("A"), id))
	require.NoError(t, e.RemoveComponentFromEntityOfType("A", id))

	tick(t, e, 10)

	has, err := e.HasComponentOfType("A", id)
	require.NoError(t, err)
	assert.False(t, has)
	got, err := e.GetComponentOfType("A", id)
	require.NoError(t, err)
	assert.Nil(t, got)
	sig, _ := e.GetSignatureOfEntity(id)
	assert.Zero(t, sig)

	assert.Equal(t, 1, sys.count("add"))
	assert.Equal(t, 1, sys.count("update"))
	assert.Equal(t, 1, sys.count("remove"))
	assert.Equal(t, []string{"enter", "add:" + id.String(), "update:" + id.String(), "remove:" + id.String()}, sys.log)
}

func TestAddFiresOnceWhenAllRequiredArePresent(t *testing.T) {
	e := newEngine(t, []string{"A", "B", "C"}, recorderSpec("S", "A", "B"))
	sys := systemOf(t, e, "S")
	id, _ := e.CreateEntity(ecs.Nil, "")

	require.NoError(t, e.AddComponentToEntity(comp("A"), id))
	tick(t, e, 2)
	assert.Zero(t, sys.count("add"))
	assert.Zero(t, sys.count("update"))

	require.NoError(t, e.AddComponentToEntity(comp("B"), id))
	require.NoError(t, e.AddComponentToEntity(comp("C"), id))
	tick(t, e, 3)
	assert.Equal(t, 1, sys.count("add"))
	assert.Equal(t, 3, sys.count("update"))
	assert.Equal(t, "add:"+id.String(), sys.log[1], "add precedes the first update")
}

func TestRemovingRequiredComponentStopsUpdates(t *testing.T) {
	e := newEngine(t, []string{"A", "B"}, recorderSpec("S", "A"))
	sys := systemOf(t, e, "S")
	id, _ := e.CreateEntity(ecs.Nil, "")
	require.NoError(t, e.AddComponentToEntity(comp("A"), id))
	require.NoError(t, e.AddComponentToEntity(comp("B"), id))
	tick(t, e, 2)
	require.Equal(t, 2, sys.count("update"))

	// removing an irrelevant component keeps membership
	require.NoError(t, e.RemoveComponentFromEntityOfType("B", id))
	tick(t, e, 1)
	assert.Zero(t, sys.count("remove"))
	assert.Equal(t, 3, sys.count("update"))

	require.NoError(t, e.RemoveComponentFromEntityOfType("A", id))
	tick(t, e, 1)
	assert.Equal(t, 1, sys.count("remove"))
	assert.Equal(t, 4, sys.count("update"), "update still runs in the tick the removal commits")

	tick(t, e, 5)
	assert.Equal(t, 1, sys.count("remove"))
	assert.Equal(t, 4, sys.count("update"))

	// re-adding brings it back
	require.NoError(t, e.AddComponentToEntity(comp("A"), id))
	tick(t, e, 1)
	assert.Equal(t, 2, sys.count("add"))
	assert.Equal(t, 5, sys.count("update"))
}

func TestRemoveCallbackStillSeesComponent(t *testing.T) {
	e := newEngine(t, []string{"A"}, recorderSpec("S", "A"))
	sys := systemOf(t, e, "S")
	id, _ := e.CreateEntity(ecs.Nil, "")
	require.NoError(t, e.AddComponentToEntity(comp("A"), id))
	tick(t, e, 1)

	var seen bool
	sys.onRemove = func(h ecs.EntityHandle) {
		seen, _ = h.HasComponentOfType("A")
	}
	require.NoError(t, e.RemoveComponentFromEntityOfType("A", id))
	tick(t, e, 1)
	assert.True(t, seen)
	has, _ := e.HasComponentOfType("A", id)
	assert.False(t, has)
}

func TestDestroyWithoutComponentsCallsNothing(t *testing.T) {
	e := newEngine(t, []string{"A"}, recorderSpec("S", "A"))
	sys := systemOf(t, e, "S")
	id, _ := e.CreateEntity(ecs.Nil, "")
	require.NoError(t, e.DestroyEntity(id))
	assert.True(t, e.HasEntity(id), "destroy is staged until the tick commits")

	tick(t, e, 10)
	assert.False(t, e.HasEntity(id))
	assert.False(t, e.IsEntityActive(id))
	assert.Equal(t, 1, sys.count("enter"))
	assert.Zero(t, sys.count("add"))
	assert.Zero(t, sys.count("update"))
	assert.Zero(t, sys.count("remove"))
}

func TestDestroyCascadesChildrenFirst(t *testing.T) {
	e := newEngine(t, []string{"A"}, recorderSpec("S", "A"))
	sys := systemOf(t, e, "S")
	parent, _ := e.CreateEntity(ecs.Nil, "parent")
	child, _ := e.CreateEntity(parent, "child")
	grandchild, _ := e.CreateEntity(child, "grandchild")
	for _, id := range []ecs.EntityID{parent, child, grandchild} {
		require.NoError(t, e.AddComponentToEntity(comp("A"), id))
	}
	before := e.EntityCount()

	var removed []ecs.EntityID
	sys.onRemove = func(h ecs.EntityHandle) { removed = append(removed, h.ID()) }
	require.NoError(t, e.DestroyEntity(parent))
	tick(t, e, 1)

	for _, id := range []ecs.EntityID{parent, child, grandchild} {
		assert.False(t, e.HasEntity(id))
	}
	assert.Equal(t, before-3, e.EntityCount())
	assert.Equal(t, 3, sys.count("add"))
	assert.Equal(t, 3, sys.count("update"))
	assert.Equal(t, 3, sys.count("remove"))
	assert.Equal(t, []ecs.EntityID{grandchild, child, parent}, removed)

	_, err := e.GetChildOfEntityByName("parent", e.RootEntity())
	assert.ErrorIs(t, err, ecs.ErrNotFound)

	tick(t, e, 5)
	assert.Equal(t, 3, sys.count("update"))
}

func TestDestroyedSlotIsRecycledWithNewIdentity(t *testing.T) {
	e := newEngine(t, []string{"A"})
	old, _ := e.CreateEntity(ecs.Nil, "")
	require.NoError(t, e.AddComponentToEntity(comp("A"), old))
	require.NoError(t, e.DestroyEntity(old))
	tick(t, e, 1)

	fresh, _ := e.CreateEntity(ecs.Nil, "")
	assert.Equal(t, old.Index(), fresh.Index())
	assert.NotEqual(t, old, fresh)
	has, err := e.HasComponentOfType("A", fresh)
	require.NoError(t, err)
	assert.False(t, has)
	_, err = e.HasComponentOfType("A", old)
	assert.ErrorIs(t, err, ecs.ErrNotFound)
}

func TestChildCreatedAfterDestroyIsDetached(t *testing.T) {
	e := newEngine(t, nil)
	parent, _ := e.CreateEntity(ecs.Nil, "parent")
	require.NoError(t, e.DestroyEntity(parent))
	late, _ := e.CreateEntity(parent, "late")
	tick(t, e, 1)

	assert.False(t, e.HasEntity(parent))
	require.True(t, e.HasEntity(late))
	p, _ := e.GetParentOfEntity(late)
	assert.Equal(t, ecs.Nil, p)
}

func TestMutationsDuringUpdateApplyNextTick(t *testing.T) {
	e := newEngine(t, []string{"A", "B"}, recorderSpec("S", "A"), recorderSpec("T", "B"))
	s := systemOf(t, e, "S")
	tSys := systemOf(t, e, "T")
	id, _ := e.CreateEntity(ecs.Nil, "")
	require.NoError(t, e.AddComponentToEntity(comp("A"), id))

	s.onUpdate = func(h ecs.EntityHandle, _ time.Duration) {
		has, err := h.HasComponentOfType("B")
		require.NoError(t, err)
		if !has {
			require.NoError(t, h.AddComponent(comp("B")))
		}
	}
	tick(t, e, 1)
	has, _ := e.HasComponentOfType("B", id)
	assert.False(t, has, "add requested during update waits for the next commit")
	assert.Zero(t, tSys.count("add"))

	tick(t, e, 1)
	has, _ = e.HasComponentOfType("B", id)
	assert.True(t, has)
	assert.Equal(t, 1, tSys.count("add"))
	assert.Equal(t, 1, tSys.count("update"))
}

func TestRemoveDuringUpdateCommitsSameTick(t *testing.T) {
	e := newEngine(t, []string{"A"}, recorderSpec("S", "A"))
	s := systemOf(t, e, "S")
	id, _ := e.CreateEntity(ecs.Nil, "")
	require.NoError(t, e.AddComponentToEntity(comp("A"), id))
	s.onUpdate = func(h ecs.EntityHandle, _ time.Duration) {
		require.NoError(t, h.RemoveComponentOfType("A"))
	}

	tick(t, e, 1)
	assert.Equal(t, 1, s.count("update"))
	assert.Equal(t, 1, s.count("remove"))
	has, _ := e.HasComponentOfType("A", id)
	assert.False(t, has)
}

func TestDestroyDuringUpdateCommitsSameTick(t *testing.T) {
	e := newEngine(t, []string{"A"}, recorderSpec("S", "A"))
	s := systemOf(t, e, "S")
	id, _ := e.CreateEntity(ecs.Nil, "")
	require.NoError(t, e.AddComponentToEntity(comp("A"), id))
	s.onUpdate = func(h ecs.EntityHandle, _ time.Duration) {
		require.NoError(t, h.Destroy())
	}

	tick(t, e, 1)
	assert.False(t, e.HasEntity(id))
	assert.Equal(t, 1, s.count("remove"))
}

func TestUpdateMembershipIsFixedForTheTick(t *testing.T) {
	e := newEngine(t, []string{"A"}, recorderSpec("S", "A"), recorderSpec("T", "A"))
	s := systemOf(t, e, "S")
	tSys := systemOf(t, e, "T")
	first, _ := e.CreateEntity(ecs.Nil, "")
	require.NoError(t, e.AddComponentToEntity(comp("A"), first))

	var spawned ecs.EntityHandle
	s.onUpdate = func(h ecs.EntityHandle, _ time.Duration) {
		if !spawned.ID().IsNil() {
			return
		}
		var err error
		spawned, err = s.CreateEntity(ecs.Nil, "spawned")
		require.NoError(t, err)
		require.NoError(t, spawned.AddComponent(comp("A")))
	}
	tick(t, e, 1)
	assert.Equal(t, 1, tSys.count("update"), "entity spawned mid-tick is not updated this tick")

	tick(t, e, 1)
	assert.Equal(t, 3, tSys.count("update"))
	assert.Equal(t, 2, tSys.count("add"))
}

func TestSystemStartsInactiveUntilFirstTick(t *testing.T) {
	e := newEngine(t, []string{"A"}, recorderSpec("S", "A"))
	active, err := e.IsSystemActive("S")
	require.NoError(t, err)
	assert.False(t, active)

	tick(t, e, 1)
	active, _ = e.IsSystemActive("S")
	assert.True(t, active)
}

func TestSystemActivationEdgesAndReplay(t *testing.T) {
	e := newEngine(t, []string{"A"}, recorderSpec("S", "A"))
	sys := systemOf(t, e, "S")
	id, _ := e.CreateEntity(ecs.Nil, "")
	require.NoError(t, e.AddComponentToEntity(comp("A"), id))
	tick(t, e, 2)
	require.Equal(t, 1, sys.count("add"))

	require.NoError(t, e.InactivateSystemOfType("S"))
	require.NoError(t, e.InactivateSystemOfType("S"))
	tick(t, e, 1)
	assert.Equal(t, 1, sys.count("exit"))
	assert.Equal(t, 3, sys.count("update"), "exit fires after this tick's update")

	// entity joining while the system is out
	other, _ := e.CreateEntity(ecs.Nil, "")
	require.NoError(t, e.AddComponentToEntity(comp("A"), other))
	tick(t, e, 3)
	assert.Equal(t, 3, sys.count("update"))
	assert.Equal(t, 1, sys.count("exit"))

	require.NoError(t, e.ActivateSystemOfType("S"))
	require.NoError(t, e.ActivateSystemOfType("S"))
	tick(t, e, 1)
	assert.Equal(t, 2, sys.count("enter"))
	assert.Equal(t, 3, sys.count("add"), "reactivation replays add for every eligible entity")
	assert.Equal(t, 5, sys.count("update"))
	assert.Zero(t, sys.count("remove"))
}

func TestSystemEdgeCancelledBeforeTick(t *testing.T) {
	e := newEngine(t, nil, recorderSpec("S"))
	sys := systemOf(t, e, "S")
	tick(t, e, 1)

	require.NoError(t, e.InactivateSystemOfType("S"))
	require.NoError(t, e.ActivateSystemOfType("S"))
	tick(t, e, 2)
	assert.Equal(t, 1, sys.count("enter"))
	assert.Zero(t, sys.count("exit"))
}

func TestSystemInactivatedBeforeFirstTickNeverEnters(t *testing.T) {
	e := newEngine(t, []string{"A"}, recorderSpec("S", "A"))
	sys := systemOf(t, e, "S")
	id, _ := e.CreateEntity(ecs.Nil, "")
	require.NoError(t, e.AddComponentToEntity(comp("A"), id))
	require.NoError(t, e.InactivateSystemOfType("S"))

	tick(t, e, 3)
	assert.Zero(t, sys.count("enter"))
	assert.Zero(t, sys.count("exit"))
	assert.Zero(t, sys.count("add"))
	assert.Zero(t, sys.count("update"))
}

func TestSystemsRunInRegistrationOrder(t *testing.T) {
	e := newEngine(t, []string{"A"}, recorderSpec("S1", "A"), recorderSpec("S2", "A"))
	var order []string
	systemOf(t, e, "S1").onEnter = func() { order = append(order, "enter S1") }
	systemOf(t, e, "S2").onEnter = func() { order = append(order, "enter S2") }
	systemOf(t, e, "S1").onUpdate = func(ecs.EntityHandle, time.Duration) { order = append(order, "update S1") }
	systemOf(t, e, "S2").onUpdate = func(ecs.EntityHandle, time.Duration) { order = append(order, "update S2") }
	systemOf(t, e, "S1").onAdd = func(ecs.EntityHandle) { order = append(order, "add S1") }
	systemOf(t, e, "S2").onAdd = func(ecs.EntityHandle) { order = append(order, "add S2") }

	id, _ := e.CreateEntity(ecs.Nil, "")
	require.NoError(t, e.AddComponentToEntity(comp("A"), id))
	tick(t, e, 1)
	assert.Equal(t, []string{"enter S1", "enter S2", "add S1", "add S2", "update S1", "update S2"}, order)
}

func TestSystemWithoutRequirementsSeesEveryEntity(t *testing.T) {
	e := newEngine(t, []string{"A"}, recorderSpec("All"))
	sys := systemOf(t, e, "All")
	id, _ := e.CreateEntity(ecs.Nil, "")
	tick(t, e, 1)
	// root plus the new entity
	assert.Equal(t, 2, sys.count("add"))

	require.NoError(t, e.DestroyEntity(id))
	tick(t, e, 1)
	assert.Equal(t, 1, sys.count("remove"), "destroyed entities leave systems that require nothing")
}

func TestSystemWithoutRequirementsSeesEntitiesCreatedLater(t *testing.T) {
	e := newEngine(t, []string{"A"}, recorderSpec("All"))
	sys := systemOf(t, e, "All")
	tick(t, e, 1)
	require.Equal(t, 1, sys.count("add"), "root only")

	late, err := e.CreateEntity(ecs.Nil, "late")
	require.NoError(t, err)
	tick(t, e, 3)

	lateAdds, lateUpdates := 0, 0
	for _, entry := range sys.log {
		switch entry {
		case "add:" + late.String():
			lateAdds++
		case "update:" + late.String():
			lateUpdates++
		}
	}
	assert.Equal(t, 1, lateAdds)
	assert.Equal(t, 3, lateUpdates)
	assert.Zero(t, sys.count("remove"))
}

func TestEntityCreatedDuringUpdateJoinsNextTick(t *testing.T) {
	e := newEngine(t, nil, recorderSpec("All"))
	sys := systemOf(t, e, "All")
	var child ecs.EntityID
	sys.onUpdate = func(h ecs.EntityHandle, _ time.Duration) {
		if h.ID() == e.RootEntity() && child.IsNil() {
			made, err := sys.CreateEntity(ecs.Nil, "child")
			require.NoError(t, err)
			child = made.ID()
		}
	}

	tick(t, e, 1)
	assert.NotContains(t, sys.log, "add:"+child.String())
	tick(t, e, 1)
	assert.Contains(t, sys.log, "add:"+child.String())
	assert.Contains(t, sys.log, "update:"+child.String())
}

func TestInactiveEntityLeavesAndRejoinsSystems(t *testing.T) {
	e := newEngine(t, []string{"A"}, recorderSpec("S", "A"))
	sys := systemOf(t, e, "S")
	parent, _ := e.CreateEntity(ecs.Nil, "p")
	child, _ := e.CreateEntity(parent, "c")
	require.NoError(t, e.AddComponentToEntity(comp("A"), parent))
	require.NoError(t, e.AddComponentToEntity(comp("A"), child))
	tick(t, e, 1)
	require.Equal(t, 2, sys.count("add"))

	require.NoError(t, e.InactivateEntity(parent))
	tick(t, e, 1)
	assert.Equal(t, 2, sys.count("remove"))
	assert.Equal(t, 4, sys.count("update"), "inactivation commits after the update phase")

	tick(t, e, 2)
	assert.Equal(t, 4, sys.count("update"))

	require.NoError(t, e.ActivateEntity(parent))
	tick(t, e, 1)
	assert.Equal(t, 4, sys.count("add"))
	assert.Equal(t, 6, sys.count("update"))
}

func TestInactiveEntityDoesNotJoinOnComponentAdd(t *testing.T) {
	e := newEngine(t, []string{"A"}, recorderSpec("S", "A"))
	sys := systemOf(t, e, "S")
	id, _ := e.CreateEntity(ecs.Nil, "")
	require.NoError(t, e.InactivateEntity(id))
	require.NoError(t, e.AddComponentToEntity(comp("A"), id))
	tick(t, e, 2)
	assert.Zero(t, sys.count("add"))
	has, _ := e.HasComponentOfType("A", id)
	assert.True(t, has)
}

func TestEntityHandleForwardsToEngine(t *testing.T) {
	e := newEngine(t, []string{"A"})
	id, _ := e.CreateEntity(ecs.Nil, "")
	h, err := e.Handle(id)
	require.NoError(t, err)

	require.NoError(t, h.AddComponent(comp("A")))
	tick(t, e, 1)
	has, err := h.HasComponentOfType("A")
	require.NoError(t, err)
	assert.True(t, has)
	c, ok := ecs.Get[*testComponent](h, "A")
	require.True(t, ok)
	assert.Equal(t, "A", c.Type())

	require.NoError(t, h.Inactivate())
	assert.False(t, h.IsActive())
	require.NoError(t, h.Activate())
	assert.True(t, h.IsActive())

	require.NoError(t, h.RemoveComponentOfType("A"))
	tick(t, e, 1)
	_, err = ecs.MustGet[*testComponent](h, "A")
	assert.ErrorIs(t, err, ecs.ErrInvariantViolation)

	require.NoError(t, h.Destroy())
	tick(t, e, 1)
	assert.False(t, e.HasEntity(h.ID()))
}

func TestEachMatchesCommittedSignatures(t *testing.T) {
	e := newEngine(t, []string{"A", "B"})
	ab, _ := e.CreateEntity(ecs.Nil, "")
	onlyA, _ := e.CreateEntity(ecs.Nil, "")
	require.NoError(t, e.AddComponentToEntity(comp("A"), ab))
	require.NoError(t, e.AddComponentToEntity(comp("B"), ab))
	require.NoError(t, e.AddComponentToEntity(comp("A"), onlyA))

	var got []ecs.EntityID
	require.NoError(t, e.Each([]string{"A", "B"}, func(h ecs.EntityHandle) { got = append(got, h.ID()) }))
	assert.Empty(t, got, "nothing is committed yet")

	tick(t, e, 1)
	require.NoError(t, e.Each([]string{"A", "B"}, func(h ecs.EntityHandle) { got = append(got, h.ID()) }))
	assert.Equal(t, []ecs.EntityID{ab}, got)

	assert.ErrorIs(t, e.Each([]string{"Z"}, func(ecs.EntityHandle) {}), ecs.ErrNotFound)
}

type statsSink struct{ ticks []ecs.TickStats }

func (s *statsSink) ObserveTick(st ecs.TickStats) { s.ticks = append(s.ticks, st) }

func TestObserverReceivesTickStats(t *testing.T) {
	sink := &statsSink{}
	e, err := ecs.New([]string{"A"}, []ecs.SystemSpec{recorderSpec("S", "A")}, event.NewBus(), ecs.WithObserver(sink))
	require.NoError(t, err)
	id, _ := e.CreateEntity(ecs.Nil, "")
	require.NoError(t, e.AddComponentToEntity(comp("A"), id))
	require.NoError(t, e.DestroyEntity(id))

	tick(t, e, 2)
	require.Len(t, sink.ticks, 2)
	first := sink.ticks[0]
	assert.Equal(t, uint64(1), first.Tick)
	assert.Equal(t, 1, first.Entered)
	assert.Equal(t, 1, first.Added)
	assert.Equal(t, 1, first.Updated)
	assert.Equal(t, 1, first.Removed)
	assert.Equal(t, 1, first.Destroyed)
	assert.Equal(t, 1, first.Entities, "only the root remains")
	assert.Zero(t, sink.ticks[1].Added)
}

func TestSystemBaseEventHelpers(t *testing.T) {
	bus := event.NewBus()
	base := ecs.NewSystemBase(nil, bus)
	var got []any
	base.OnEvent("ping", func(args ...any) { got = append(got, args...) })
	base.OnceEvent("ping", func(args ...any) { got = append(got, "once") })
	base.EmitEvent("ping", 1)
	base.EmitEvent("ping", 2)
	assert.Equal(t, []any{1, "once", 2}, got)

	base.OffAllEventHandlers()
	base.EmitEvent("ping", 3)
	assert.Equal(t, []any{1, "once", 2}, got)
	assert.Zero(t, bus.Handlers("ping"))
}

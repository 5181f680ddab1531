package ecs_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/l1jgo/hecs/internal/core/ecs"
	"github.com/l1jgo/hecs/internal/core/event"
	"github.com/stretchr/testify/require"
)

type testComponent struct {
	typ   string
	value int
}

func (c *testComponent) Type() string { return c.typ }

func comp(typ string) *testComponent { return &testComponent{typ: typ} }

// recorder counts lifecycle callbacks and can run hooks inside them.
type recorder struct {
	ecs.SystemBase
	typ      string
	required []string

	log    []string
	counts map[string]int

	onEnter  func()
	onAdd    func(h ecs.EntityHandle)
	onUpdate func(h ecs.EntityHandle, dt time.Duration)
	onRemove func(h ecs.EntityHandle)
}

func (r *recorder) Type() string                     { return r.typ }
func (r *recorder) RequiredComponentTypes() []string { return r.required }

func (r *recorder) note(callback string, id ecs.EntityID) {
	r.counts[callback]++
	if id.IsNil() {
		r.log = append(r.log, callback)
		return
	}
	r.log = append(r.log, fmt.Sprintf("%s:%s", callback, id))
}

func (r *recorder) Enter() {
	r.note("enter", ecs.Nil)
	if r.onEnter != nil {
		r.onEnter()
	}
}

func (r *recorder) Exit() { r.note("exit", ecs.Nil) }

func (r *recorder) Add(h ecs.EntityHandle) {
	r.note("add", h.ID())
	if r.onAdd != nil {
		r.onAdd(h)
	}
}

func (r *recorder) Update(h ecs.EntityHandle, dt time.Duration) {
	r.note("update", h.ID())
	if r.onUpdate != nil {
		r.onUpdate(h, dt)
	}
}

func (r *recorder) Remove(h ecs.EntityHandle) {
	r.note("remove", h.ID())
	if r.onRemove != nil {
		r.onRemove(h)
	}
}

func (r *recorder) count(callback string) int { return r.counts[callback] }

func recorderSpec(typ string, required ...string) ecs.SystemSpec {
	return ecs.SystemSpec{
		Type: typ,
		New: func(create ecs.EntityFactory, bus ecs.EventBus, _ ...any) (ecs.System, error) {
			return &recorder{
				SystemBase: ecs.NewSystemBase(create, bus),
				typ:        typ,
				required:   required,
				counts:     make(map[string]int),
			}, nil
		},
	}
}

func newEngine(t *testing.T, componentTypes []string, specs ...ecs.SystemSpec) *ecs.Engine {
	t.Helper()
	e, err := ecs.New(componentTypes, specs, event.NewBus())
	require.NoError(t, err)
	return e
}

func systemOf(t *testing.T, e *ecs.Engine, typ string) *recorder {
	t.Helper()
	sys, err := e.GetSystemOfType(typ)
	require.NoError(t, err)
	r, ok := sys.(*recorder)
	require.True(t, ok)
	return r
}

func tick(t *testing.T, e *ecs.Engine, n int) {
	t.Helper()
	for range n {
		require.NoError(t, e.Update(time.Second))
	}
}

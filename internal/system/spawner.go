package system

import (
	"math"
	"strconv"
	"time"

	"github.com/l1jgo/hecs/internal/component"
	"github.com/l1jgo/hecs/internal/core/ecs"
	"github.com/l1jgo/hecs/internal/core/event"
	"go.uber.org/zap"
)

// goldenAngle spreads successive children evenly around the spawner.
const goldenAngle = math.Pi * (3 - 2.23606797749979) // pi * (3 - sqrt 5)

// SpawnerSystem creates a child entity under each spawner every Interval.
// Children carry a copy of the spawner's Transform, an outward Velocity and a
// Lifetime, so Motion and Lifetime pick them up on the next tick.
type SpawnerSystem struct {
	ecs.SystemBase
	log *zap.Logger
}

func NewSpawnerSystem(create ecs.EntityFactory, bus ecs.EventBus, args ...any) (ecs.System, error) {
	return &SpawnerSystem{
		SystemBase: ecs.NewSystemBase(create, bus),
		log:        loggerArg(args),
	}, nil
}

func (s *SpawnerSystem) Type() string { return TypeSpawner }

func (s *SpawnerSystem) RequiredComponentTypes() []string {
	return []string{component.TypeSpawner, component.TypeTransform}
}

func (s *SpawnerSystem) Update(e ecs.EntityHandle, dt time.Duration) {
	sp, err := ecs.MustGet[*component.Spawner](e, component.TypeSpawner)
	if err != nil {
		s.log.Error("spawner update", zap.Error(err))
		return
	}
	if sp.Interval <= 0 {
		return
	}
	origin, err := ecs.MustGet[*component.Transform](e, component.TypeTransform)
	if err != nil {
		s.log.Error("spawner update", zap.Error(err))
		return
	}

	sp.Elapsed += dt
	for sp.Elapsed >= sp.Interval {
		if sp.Limit > 0 && sp.Spawned >= sp.Limit {
			sp.Elapsed = 0
			return
		}
		sp.Elapsed -= sp.Interval
		if err := s.spawn(e, sp, origin); err != nil {
			s.log.Error("spawn child", zap.Stringer("spawner", e.ID()), zap.Error(err))
			return
		}
	}
}

func (s *SpawnerSystem) spawn(e ecs.EntityHandle, sp *component.Spawner, origin *component.Transform) error {
	child, err := s.CreateEntity(e.ID(), "spawn-"+strconv.Itoa(sp.Spawned))
	if err != nil {
		return err
	}
	angle := float64(sp.Spawned) * goldenAngle
	sp.Spawned++

	for _, c := range []ecs.Component{
		&component.Transform{X: origin.X, Y: origin.Y},
		&component.Velocity{X: sp.Speed * math.Cos(angle), Y: sp.Speed * math.Sin(angle)},
		&component.Lifetime{Remaining: sp.ChildLifetime},
	} {
		if err := child.AddComponent(c); err != nil {
			return err
		}
	}
	s.EmitEvent(event.EntitySpawned, child.ID(), e.ID())
	return nil
}

package system

import (
	"time"

	"github.com/l1jgo/hecs/internal/component"
	"github.com/l1jgo/hecs/internal/core/ecs"
	"go.uber.org/zap"
)

// MotionSystem integrates Velocity into Transform every tick.
type MotionSystem struct {
	ecs.SystemBase
	log *zap.Logger
}

func NewMotionSystem(create ecs.EntityFactory, bus ecs.EventBus, args ...any) (ecs.System, error) {
	return &MotionSystem{
		SystemBase: ecs.NewSystemBase(create, bus),
		log:        loggerArg(args),
	}, nil
}

func (s *MotionSystem) Type() string { return TypeMotion }

func (s *MotionSystem) RequiredComponentTypes() []string {
	return []string{component.TypeTransform, component.TypeVelocity}
}

func (s *MotionSystem) Update(e ecs.EntityHandle, dt time.Duration) {
	t, err := ecs.MustGet[*component.Transform](e, component.TypeTransform)
	if err != nil {
		s.log.Error("motion update", zap.Error(err))
		return
	}
	v, err := ecs.MustGet[*component.Velocity](e, component.TypeVelocity)
	if err != nil {
		s.log.Error("motion update", zap.Error(err))
		return
	}
	sec := dt.Seconds()
	t.X += v.X * sec
	t.Y += v.Y * sec
}

package system

import (
	"time"

	"github.com/l1jgo/hecs/internal/component"
	"github.com/l1jgo/hecs/internal/core/ecs"
	"github.com/l1jgo/hecs/internal/core/event"
	"go.uber.org/zap"
)

// LifetimeSystem counts Lifetime down and destroys the entity on expiry.
// The destroy is staged, so the entity (and its subtree) is purged at the
// end of the tick it expires in.
type LifetimeSystem struct {
	ecs.SystemBase
	log *zap.Logger
}

func NewLifetimeSystem(create ecs.EntityFactory, bus ecs.EventBus, args ...any) (ecs.System, error) {
	return &LifetimeSystem{
		SystemBase: ecs.NewSystemBase(create, bus),
		log:        loggerArg(args),
	}, nil
}

func (s *LifetimeSystem) Type() string { return TypeLifetime }

func (s *LifetimeSystem) RequiredComponentTypes() []string {
	return []string{component.TypeLifetime}
}

func (s *LifetimeSystem) Update(e ecs.EntityHandle, dt time.Duration) {
	l, err := ecs.MustGet[*component.Lifetime](e, component.TypeLifetime)
	if err != nil {
		s.log.Error("lifetime update", zap.Error(err))
		return
	}
	l.Remaining -= dt
	if l.Remaining > 0 {
		return
	}
	s.EmitEvent(event.EntityExpired, e.ID())
	if err := e.Destroy(); err != nil {
		s.log.Error("destroy expired entity", zap.Stringer("entity", e.ID()), zap.Error(err))
	}
}

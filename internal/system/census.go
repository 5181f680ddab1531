package system

import (
	"github.com/l1jgo/hecs/internal/core/ecs"
	"github.com/l1jgo/hecs/internal/core/event"
	"go.uber.org/zap"
)

// CensusSystem requires nothing, so every active entity passes through it.
// It tracks membership through Add/Remove and counts spawn and expiry events
// while active.
type CensusSystem struct {
	ecs.SystemBase
	log *zap.Logger

	live    int
	spawned int
	expired int
}

func NewCensusSystem(create ecs.EntityFactory, bus ecs.EventBus, args ...any) (ecs.System, error) {
	return &CensusSystem{
		SystemBase: ecs.NewSystemBase(create, bus),
		log:        loggerArg(args),
	}, nil
}

func (s *CensusSystem) Type() string                     { return TypeCensus }
func (s *CensusSystem) RequiredComponentTypes() []string { return nil }

func (s *CensusSystem) Enter() {
	s.live = 0
	s.OnEvent(event.EntitySpawned, func(...any) { s.spawned++ })
	s.OnEvent(event.EntityExpired, func(...any) { s.expired++ })
}

func (s *CensusSystem) Exit() {
	s.OffAllEventHandlers()
	s.log.Info("census",
		zap.Int("live", s.live),
		zap.Int("spawned", s.spawned),
		zap.Int("expired", s.expired))
}

func (s *CensusSystem) Add(ecs.EntityHandle)    { s.live++ }
func (s *CensusSystem) Remove(ecs.EntityHandle) { s.live-- }

func (s *CensusSystem) Live() int    { return s.live }
func (s *CensusSystem) Spawned() int { return s.spawned }
func (s *CensusSystem) Expired() int { return s.expired }

package system

import (
	"fmt"
	"sort"

	"github.com/l1jgo/hecs/internal/core/ecs"
	"go.uber.org/zap"
)

// Type tags of the built-in systems.
const (
	TypeMotion   = "motion"
	TypeLifetime = "lifetime"
	TypeSpawner  = "spawner"
	TypeCensus   = "census"
)

var builtins = map[string]ecs.SystemConstructor{
	TypeMotion:   NewMotionSystem,
	TypeLifetime: NewLifetimeSystem,
	TypeSpawner:  NewSpawnerSystem,
	TypeCensus:   NewCensusSystem,
}

// Builtin returns the constructor registered under name.
func Builtin(name string) (ecs.SystemConstructor, error) {
	ctor, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("builtin system %q: %w", name, ecs.ErrNotFound)
	}
	return ctor, nil
}

// BuiltinNames lists the registered built-in systems, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// loggerArg picks the first *zap.Logger out of constructor args.
func loggerArg(args []any) *zap.Logger {
	for _, a := range args {
		if l, ok := a.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return zap.NewNop()
}

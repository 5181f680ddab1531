package component

import "time"

// Type tags of the built-in components.
const (
	TypeTransform = "transform"
	TypeVelocity  = "velocity"
	TypeLifetime  = "lifetime"
	TypeSpawner   = "spawner"
)

// Builtin lists the built-in tags in the order the daemon registers them.
var Builtin = []string{TypeTransform, TypeVelocity, TypeLifetime, TypeSpawner}

// Transform is a 2D position. Pure data; systems mutate it in place.
type Transform struct {
	X, Y float64
}

func (*Transform) Type() string { return TypeTransform }

// Velocity is in units per second.
type Velocity struct {
	X, Y float64
}

func (*Velocity) Type() string { return TypeVelocity }

// Lifetime counts down to expiry.
type Lifetime struct {
	Remaining time.Duration
}

func (*Lifetime) Type() string { return TypeLifetime }

// Spawner emits a child entity every Interval.
type Spawner struct {
	Interval      time.Duration
	ChildLifetime time.Duration
	Speed         float64
	Limit         int // 0 = unlimited

	Elapsed time.Duration
	Spawned int
}

func (*Spawner) Type() string { return TypeSpawner }

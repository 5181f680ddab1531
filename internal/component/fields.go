package component

import "time"

// Fielded is a component whose numeric fields are addressable by name.
// Scripts read and write components only through this interface.
type Fielded interface {
	Type() string
	Get(field string) (float64, bool)
	Set(field string, v float64) bool
}

// New returns a zero component for tag: the built-in struct for built-in
// tags, a Data otherwise.
func New(tag string) Fielded {
	switch tag {
	case TypeTransform:
		return &Transform{}
	case TypeVelocity:
		return &Velocity{}
	case TypeLifetime:
		return &Lifetime{}
	case TypeSpawner:
		return &Spawner{}
	default:
		return NewData(tag)
	}
}

func (t *Transform) Get(field string) (float64, bool) { return getXY(t.X, t.Y, field) }
func (t *Transform) Set(field string, v float64) bool { return setXY(&t.X, &t.Y, field, v) }

func (v *Velocity) Get(field string) (float64, bool)   { return getXY(v.X, v.Y, field) }
func (v *Velocity) Set(field string, val float64) bool { return setXY(&v.X, &v.Y, field, val) }

func getXY(x, y float64, field string) (float64, bool) {
	switch field {
	case "x":
		return x, true
	case "y":
		return y, true
	}
	return 0, false
}

func setXY(x, y *float64, field string, v float64) bool {
	switch field {
	case "x":
		*x = v
	case "y":
		*y = v
	default:
		return false
	}
	return true
}

// Durations are exposed in seconds.

func (l *Lifetime) Get(field string) (float64, bool) {
	if field == "remaining" {
		return l.Remaining.Seconds(), true
	}
	return 0, false
}

func (l *Lifetime) Set(field string, v float64) bool {
	if field != "remaining" {
		return false
	}
	l.Remaining = seconds(v)
	return true
}

func (s *Spawner) Get(field string) (float64, bool) {
	switch field {
	case "interval":
		return s.Interval.Seconds(), true
	case "child_lifetime":
		return s.ChildLifetime.Seconds(), true
	case "speed":
		return s.Speed, true
	case "limit":
		return float64(s.Limit), true
	case "spawned":
		return float64(s.Spawned), true
	}
	return 0, false
}

func (s *Spawner) Set(field string, v float64) bool {
	switch field {
	case "interval":
		s.Interval = seconds(v)
	case "child_lifetime":
		s.ChildLifetime = seconds(v)
	case "speed":
		s.Speed = v
	case "limit":
		s.Limit = int(v)
	default:
		return false
	}
	return true
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

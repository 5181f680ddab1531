package ecs

import "errors"

var (
	// ErrConstruction reports an invalid engine configuration, such as a
	// duplicated component or system type tag.
	ErrConstruction = errors.New("ecs: construction error")

	// ErrNotFound reports a reference to an unknown entity, parent, system or
	// component type.
	ErrNotFound = errors.New("ecs: not found")

	// ErrIllegalOperation reports a call the engine refuses, such as
	// destroying the root entity.
	ErrIllegalOperation = errors.New("ecs: illegal operation")

	// ErrInvariantViolation reports broken internal bookkeeping. It is not a
	// caller error and the engine does not recover from it.
	ErrInvariantViolation = errors.New("ecs: invariant violation")
)

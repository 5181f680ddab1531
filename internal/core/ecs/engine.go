package ecs

import (
	"fmt"
	"sort"

	coresys "github.com/l1jgo/hecs/internal/core/system"
	"go.uber.org/zap"
)

type entityRecord struct {
	id        EntityID
	alive     bool
	active    bool
	signature Signature
	name      string
	parent    EntityID
	children  map[string]EntityID
	eligible  bitset

	adds     []Component // staged additions, indexed by component type
	removes  Signature   // staged removals not yet drained
	removing Signature   // removals drained this tick, committed at PhaseCommitRemove
}

type systemState struct {
	system   System
	index    int
	required Signature
	active   bool // committed: receives callbacks
	desired  bool // requested: an edge fires when it differs from active

	toAdd    *entitySet
	toUpdate *entitySet
	toRemove *entitySet
}

// Engine owns every registry and drives the tick. It is not safe for
// concurrent use; all calls must come from the goroutine running Update.
type Engine struct {
	log      *zap.Logger
	observer TickObserver

	pool     *EntityPool
	registry *Registry
	records  []*entityRecord
	root     EntityID
	live     int

	systems []*systemState
	byType  map[string]*systemState

	addQueue        *entitySet
	removeQueue     *entitySet
	activateQueue   *entitySet
	inactivateQueue *entitySet
	destroyQueue    *entitySet

	// drained during a tick
	touched     *entitySet
	activated   *entitySet
	removing    *entitySet
	inactivated *entitySet
	destroying  *entitySet
	lost        *entitySet

	phases [coresys.NumPhases]phaseFunc
	tick   uint64
	stats  TickStats
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithObserver receives a TickStats summary after every completed tick.
func WithObserver(o TickObserver) Option {
	return func(e *Engine) { e.observer = o }
}

// New builds an engine over a closed set of component types and an ordered
// list of systems. Flags are assigned in componentTypes order. Every system
// starts inactive with a pending activation, so Enter fires on the first Update.
func New(componentTypes []string, specs []SystemSpec, bus EventBus, opts ...Option) (*Engine, error) {
	if bus == nil {
		return nil, fmt.Errorf("%w: event bus is nil", ErrConstruction)
	}
	registry, err := NewRegistry(componentTypes)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		if _, dup := seen[spec.Type]; dup {
			return nil, fmt.Errorf("%w: system type %q duplicates", ErrConstruction, spec.Type)
		}
		if spec.New == nil {
			return nil, fmt.Errorf("%w: system type %q has no constructor", ErrConstruction, spec.Type)
		}
		seen[spec.Type] = struct{}{}
	}

	e := &Engine{
		log:             zap.NewNop(),
		pool:            NewEntityPool(),
		registry:        registry,
		records:         make([]*entityRecord, 1, 1024),
		systems:         make([]*systemState, 0, len(specs)),
		byType:          make(map[string]*systemState, len(specs)),
		addQueue:        newEntitySet(),
		removeQueue:     newEntitySet(),
		activateQueue:   newEntitySet(),
		inactivateQueue: newEntitySet(),
		destroyQueue:    newEntitySet(),
		touched:         newEntitySet(),
		activated:       newEntitySet(),
		removing:        newEntitySet(),
		inactivated:     newEntitySet(),
		destroying:      newEntitySet(),
		lost:            newEntitySet(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.phases = e.phaseTable()
	e.root = e.allocate("")

	create := func(parent EntityID, name string) (EntityHandle, error) {
		id, err := e.CreateEntity(parent, name)
		if err != nil {
			return EntityHandle{}, err
		}
		return e.handle(id), nil
	}
	for i, spec := range specs {
		sys, err := spec.New(create, bus, spec.Args...)
		if err != nil {
			return nil, fmt.Errorf("%w: system %q: %w", ErrConstruction, spec.Type, err)
		}
		if sys == nil {
			return nil, fmt.Errorf("%w: system %q constructor returned nil", ErrConstruction, spec.Type)
		}
		if sys.Type() != spec.Type {
			return nil, fmt.Errorf("%w: system registered as %q reports type %q", ErrConstruction, spec.Type, sys.Type())
		}
		required, err := registry.SignatureOf(sys.RequiredComponentTypes())
		if err != nil {
			return nil, fmt.Errorf("%w: system %q: %w", ErrConstruction, spec.Type, err)
		}
		st := &systemState{
			system:   sys,
			index:    i,
			required: required,
			desired:  true,
			toAdd:    newEntitySet(),
			toUpdate: newEntitySet(),
			toRemove: newEntitySet(),
		}
		e.systems = append(e.systems, st)
		e.byType[spec.Type] = st
	}

	e.log.Info("ecs engine ready",
		zap.Int("component_types", registry.Len()),
		zap.Int("systems", len(e.systems)),
		zap.Stringer("root", e.root))
	return e, nil
}

func (e *Engine) handle(id EntityID) EntityHandle {
	return EntityHandle{id: id, engine: e}
}

// Handle returns a handle for id, or ErrNotFound.
func (e *Engine) Handle(id EntityID) (EntityHandle, error) {
	if _, err := e.mustRecord(id); err != nil {
		return EntityHandle{}, err
	}
	return e.handle(id), nil
}

func (e *Engine) record(id EntityID) (*entityRecord, bool) {
	if !e.pool.Alive(id) {
		return nil, false
	}
	idx := int(id.Index())
	if idx >= len(e.records) || e.records[idx] == nil || e.records[idx].id != id {
		return nil, false
	}
	return e.records[idx], true
}

func (e *Engine) mustRecord(id EntityID) (*entityRecord, error) {
	rec, ok := e.record(id)
	if !ok {
		return nil, fmt.Errorf("entity %s: %w", id, ErrNotFound)
	}
	return rec, nil
}

// internalRecord looks up an entity the engine already knows is alive.
func (e *Engine) internalRecord(id EntityID) (*entityRecord, error) {
	rec, ok := e.record(id)
	if !ok {
		return nil, fmt.Errorf("%w: no record for entity %s", ErrInvariantViolation, id)
	}
	return rec, nil
}

// allocate reserves a slot and seeds a detached, active record with signature 0.
func (e *Engine) allocate(name string) EntityID {
	id := e.pool.Create()
	if name == "" {
		name = id.String()
	}
	rec := &entityRecord{
		id:       id,
		alive:    true,
		active:   true,
		name:     name,
		children: make(map[string]EntityID),
	}
	idx := int(id.Index())
	for idx >= len(e.records) {
		e.records = append(e.records, nil)
	}
	e.records[idx] = rec
	e.live++
	return id
}

func (e *Engine) RootEntity() EntityID { return e.root }

func (e *Engine) HasEntity(id EntityID) bool {
	_, ok := e.record(id)
	return ok
}

func (e *Engine) IsEntityActive(id EntityID) bool {
	rec, ok := e.record(id)
	return ok && rec.active
}

// EntityCount returns the number of live entities, root included.
func (e *Engine) EntityCount() int { return e.live }

// CreateEntity allocates an entity under parent (Nil means the root) named
// name (empty means the entity id). The entity is live immediately; its
// components arrive through the staged API and it joins eligible systems on
// the next tick.
func (e *Engine) CreateEntity(parent EntityID, name string) (EntityID, error) {
	if parent == Nil {
		parent = e.root
	}
	if _, err := e.mustRecord(parent); err != nil {
		return Nil, fmt.Errorf("create entity: parent: %w", err)
	}
	id := e.allocate(name)
	if err := e.link(parent, id); err != nil {
		return Nil, err
	}
	// Signature 0 already satisfies systems that require nothing; step 3 of
	// the next tick tests the new entity against them.
	e.activateQueue.Add(id)
	return id, nil
}

// DestroyEntity stages id and all its descendants, children first. Bookkeeping
// is purged at the end of the next tick.
func (e *Engine) DestroyEntity(id EntityID) error {
	if id == e.root {
		return fmt.Errorf("destroy root entity: %w", ErrIllegalOperation)
	}
	rec, err := e.mustRecord(id)
	if err != nil {
		return err
	}
	return e.stageDestroy(rec)
}

func (e *Engine) stageDestroy(rec *entityRecord) error {
	for _, childID := range sortedChildren(rec) {
		child, err := e.internalRecord(childID)
		if err != nil {
			return err
		}
		if err := e.stageDestroy(child); err != nil {
			return err
		}
	}
	e.destroyQueue.Add(rec.id)
	return nil
}

func (e *Engine) ActivateEntity(id EntityID) error {
	rec, err := e.mustRecord(id)
	if err != nil {
		return err
	}
	return e.setActive(rec, true)
}

func (e *Engine) InactivateEntity(id EntityID) error {
	rec, err := e.mustRecord(id)
	if err != nil {
		return err
	}
	return e.setActive(rec, false)
}

func (e *Engine) setActive(rec *entityRecord, active bool) error {
	if rec.active != active {
		rec.active = active
		if active {
			e.activateQueue.Add(rec.id)
		} else {
			e.inactivateQueue.Add(rec.id)
		}
	}
	for _, childID := range sortedChildren(rec) {
		child, err := e.internalRecord(childID)
		if err != nil {
			return err
		}
		if err := e.setActive(child, active); err != nil {
			return err
		}
	}
	return nil
}

// GetParentOfEntity returns the parent of id, Nil when detached.
func (e *Engine) GetParentOfEntity(id EntityID) (EntityID, error) {
	rec, err := e.mustRecord(id)
	if err != nil {
		return Nil, err
	}
	return rec.parent, nil
}

func (e *Engine) GetNameOfEntity(id EntityID) (string, error) {
	rec, err := e.mustRecord(id)
	if err != nil {
		return "", err
	}
	return rec.name, nil
}

// SetNameOfEntity renames id and re-keys it in its parent's children.
func (e *Engine) SetNameOfEntity(name string, id EntityID) error {
	if name == "" {
		return fmt.Errorf("rename entity %s to empty name: %w", id, ErrIllegalOperation)
	}
	rec, err := e.mustRecord(id)
	if err != nil {
		return err
	}
	if rec.name == name {
		return nil
	}
	parent := rec.parent
	if err := e.link(Nil, id); err != nil {
		return err
	}
	rec.name = name
	return e.link(parent, id)
}

// GetChildrenOfEntity returns the children of id ordered by name.
func (e *Engine) GetChildrenOfEntity(id EntityID) ([]EntityID, error) {
	rec, err := e.mustRecord(id)
	if err != nil {
		return nil, err
	}
	return sortedChildren(rec), nil
}

func (e *Engine) GetChildOfEntityByName(name string, id EntityID) (EntityID, error) {
	rec, err := e.mustRecord(id)
	if err != nil {
		return Nil, err
	}
	child, ok := rec.children[name]
	if !ok {
		return Nil, fmt.Errorf("child %q of entity %s: %w", name, id, ErrNotFound)
	}
	return child, nil
}

// SetParentOfEntity moves id under parent, or detaches it when parent is Nil.
// A same-named child already under parent is replaced and detached.
func (e *Engine) SetParentOfEntity(parent, id EntityID) error {
	if _, err := e.mustRecord(id); err != nil {
		return err
	}
	if parent != Nil {
		if _, err := e.mustRecord(parent); err != nil {
			return fmt.Errorf("set parent: %w", err)
		}
	}
	if id == e.root && parent != Nil {
		return fmt.Errorf("reparent root entity: %w", ErrIllegalOperation)
	}
	for p := parent; p != Nil; {
		if p == id {
			return fmt.Errorf("parent %s is a descendant of %s: %w", parent, id, ErrIllegalOperation)
		}
		prec, err := e.internalRecord(p)
		if err != nil {
			return err
		}
		p = prec.parent
	}
	return e.link(parent, id)
}

func (e *Engine) AddChildToEntity(child, id EntityID) error {
	return e.SetParentOfEntity(id, child)
}

// RemoveChildFromEntity detaches child, which must currently be a child of id.
func (e *Engine) RemoveChildFromEntity(child, id EntityID) error {
	crec, err := e.mustRecord(child)
	if err != nil {
		return err
	}
	if _, err := e.mustRecord(id); err != nil {
		return err
	}
	if crec.parent != id {
		return fmt.Errorf("entity %s is not the parent of %s: %w", id, child, ErrIllegalOperation)
	}
	return e.SetParentOfEntity(Nil, child)
}

// link rewires the parent pointer of id. The former parent's entry is dropped
// first, then id is inserted under its name in the new parent, then the
// pointer is updated.
func (e *Engine) link(parent, id EntityID) error {
	rec, err := e.internalRecord(id)
	if err != nil {
		return err
	}
	if rec.parent != Nil {
		old, err := e.internalRecord(rec.parent)
		if err != nil {
			return err
		}
		if old.children[rec.name] == id {
			delete(old.children, rec.name)
		}
	}
	if parent != Nil {
		prec, err := e.internalRecord(parent)
		if err != nil {
			return err
		}
		if prev, ok := prec.children[rec.name]; ok && prev != id {
			e.log.Warn("child name collision, previous child detached",
				zap.Stringer("parent", parent),
				zap.String("name", rec.name),
				zap.Stringer("previous", prev),
				zap.Stringer("child", id))
			if prevRec, ok := e.record(prev); ok {
				prevRec.parent = Nil
			}
		}
		prec.children[rec.name] = id
	}
	rec.parent = parent
	return nil
}

func sortedChildren(rec *entityRecord) []EntityID {
	names := make([]string, 0, len(rec.children))
	for name := range rec.children {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]EntityID, len(names))
	for i, name := range names {
		out[i] = rec.children[name]
	}
	return out
}

package ecs

import (
	"fmt"
	"time"

	coresys "github.com/l1jgo/hecs/internal/core/system"
	"go.uber.org/zap"
)

// TickStats summarizes one completed tick.
type TickStats struct {
	Tick     uint64
	Duration time.Duration
	Phases   [coresys.NumPhases]time.Duration

	Entered   int
	Exited    int
	Added     int
	Updated   int
	Removed   int
	Destroyed int
	Entities  int
}

// TickObserver receives a summary after every tick that completes.
type TickObserver interface {
	ObserveTick(stats TickStats)
}

type phaseFunc func(dt time.Duration) error

func (e *Engine) phaseTable() [coresys.NumPhases]phaseFunc {
	return [coresys.NumPhases]phaseFunc{
		coresys.PhaseEnter:        e.enterPhase,
		coresys.PhaseCommitAdd:    e.commitAddPhase,
		coresys.PhaseGain:         e.gainPhase,
		coresys.PhaseAdd:          e.addPhase,
		coresys.PhaseUpdate:       e.updatePhase,
		coresys.PhaseLoss:         e.lossPhase,
		coresys.PhaseRemove:       e.removePhase,
		coresys.PhaseCommitRemove: e.commitRemovePhase,
		coresys.PhaseExit:         e.exitPhase,
		coresys.PhaseDestroy:      e.destroyPhase,
		coresys.PhaseClear:        e.clearPhase,
	}
}

// Update runs one tick. Mutations requested by callbacks are staged: a request
// made before a phase drains its queue lands in this tick, anything later waits
// for the next one. A phase error aborts the tick and leaves it partially
// applied.
func (e *Engine) Update(dt time.Duration) error {
	start := time.Now()
	e.tick++
	e.stats = TickStats{Tick: e.tick}
	for p, run := range e.phases {
		t0 := time.Now()
		if err := run(dt); err != nil {
			return fmt.Errorf("tick %d phase %s: %w", e.tick, coresys.Phase(p), err)
		}
		e.stats.Phases[p] = time.Since(t0)
	}
	e.stats.Duration = time.Since(start)
	e.stats.Entities = e.live
	if e.observer != nil {
		e.observer.ObserveTick(e.stats)
	}
	return nil
}

// eligible reports whether rec, with signature sig, satisfies st.
func eligible(rec *entityRecord, sig Signature, st *systemState) bool {
	return rec.alive && rec.active && sig.Contains(st.required)
}

func (e *Engine) enterPhase(time.Duration) error {
	for _, st := range e.systems {
		if !st.desired || st.active {
			continue
		}
		st.system.Enter()
		st.active = true
		e.stats.Entered++
		// Replay Add for entities that became eligible while the system was out.
		for _, rec := range e.records {
			if rec == nil || !rec.alive || rec.eligible.has(st.index) {
				continue
			}
			if eligible(rec, rec.signature, st) {
				rec.eligible.set(st.index)
				st.toAdd.Add(rec.id)
			}
		}
	}
	return nil
}

func (e *Engine) commitAddPhase(time.Duration) error {
	e.addQueue, e.touched = e.touched, e.addQueue
	for _, id := range e.touched.Items() {
		rec, err := e.internalRecord(id)
		if err != nil {
			return err
		}
		for i, c := range rec.adds {
			if c == nil {
				continue
			}
			e.registry.stores[i].Put(c, id)
			rec.signature |= Signature(1) << uint(i)
			rec.adds[i] = nil
		}
	}
	return nil
}

func (e *Engine) gainPhase(time.Duration) error {
	e.activateQueue, e.activated = e.activated, e.activateQueue
	for _, set := range []*entitySet{e.touched, e.activated} {
		for _, id := range set.Items() {
			rec, err := e.internalRecord(id)
			if err != nil {
				return err
			}
			for _, st := range e.systems {
				if !st.active || rec.eligible.has(st.index) {
					continue
				}
				if eligible(rec, rec.signature, st) {
					rec.eligible.set(st.index)
					st.toAdd.Add(id)
				}
			}
		}
	}
	e.touched.Clear()
	e.activated.Clear()
	return nil
}

func (e *Engine) addPhase(time.Duration) error {
	for _, st := range e.systems {
		if !st.active {
			continue
		}
		for _, id := range st.toAdd.Items() {
			st.system.Add(e.handle(id))
			e.stats.Added++
		}
		for _, id := range st.toAdd.Items() {
			st.toUpdate.Add(id)
		}
		st.toAdd.Clear()
	}
	return nil
}

func (e *Engine) updatePhase(dt time.Duration) error {
	for _, st := range e.systems {
		if !st.active {
			continue
		}
		for _, id := range st.toUpdate.Items() {
			st.system.Update(e.handle(id), dt)
			e.stats.Updated++
		}
	}
	return nil
}

func (e *Engine) lossPhase(time.Duration) error {
	e.removeQueue, e.removing = e.removing, e.removeQueue
	e.inactivateQueue, e.inactivated = e.inactivated, e.inactivateQueue
	e.destroyQueue, e.destroying = e.destroying, e.destroyQueue

	for _, id := range e.removing.Items() {
		rec, err := e.internalRecord(id)
		if err != nil {
			return err
		}
		rec.removing = rec.removes
		rec.removes = 0
		e.lost.Add(id)
	}
	for _, id := range e.inactivated.Items() {
		e.lost.Add(id)
	}
	for _, id := range e.destroying.Items() {
		e.lost.Add(id)
	}

	for _, id := range e.lost.Items() {
		rec, err := e.internalRecord(id)
		if err != nil {
			return err
		}
		if rec.eligible.empty() {
			continue
		}
		next := rec.signature &^ rec.removing
		// Destroyed and inactive entities leave every system, including
		// those that require nothing.
		gone := e.destroying.Has(id) || !rec.active
		for _, st := range e.systems {
			if !rec.eligible.has(st.index) || (!gone && eligible(rec, next, st)) {
				continue
			}
			rec.eligible.unset(st.index)
			if !st.active {
				return fmt.Errorf("%w: inactive system %q holds entity %s", ErrInvariantViolation, st.system.Type(), id)
			}
			st.toRemove.Add(id)
		}
	}
	return nil
}

func (e *Engine) removePhase(time.Duration) error {
	for _, st := range e.systems {
		if !st.active {
			continue
		}
		for _, id := range st.toRemove.Items() {
			st.system.Remove(e.handle(id))
			e.stats.Removed++
		}
		for _, id := range st.toRemove.Items() {
			st.toUpdate.Remove(id)
		}
		st.toRemove.Clear()
	}
	return nil
}

func (e *Engine) commitRemovePhase(time.Duration) error {
	for _, id := range e.removing.Items() {
		rec, err := e.internalRecord(id)
		if err != nil {
			return err
		}
		mask := rec.removing & rec.signature
		e.registry.RemoveMasked(id, mask)
		rec.signature ^= mask
		rec.removing = 0
	}
	for _, id := range e.destroying.Items() {
		rec, err := e.internalRecord(id)
		if err != nil {
			return err
		}
		e.registry.RemoveMasked(id, rec.signature)
		rec.signature = 0
	}
	return nil
}

func (e *Engine) exitPhase(time.Duration) error {
	for _, st := range e.systems {
		if st.desired || !st.active {
			continue
		}
		st.system.Exit()
		st.active = false
		e.stats.Exited++
		// Membership is dropped; the next Enter replays Add.
		for _, rec := range e.records {
			if rec != nil {
				rec.eligible.unset(st.index)
			}
		}
		st.toAdd.Clear()
		st.toUpdate.Clear()
		st.toRemove.Clear()
	}
	return nil
}

func (e *Engine) destroyPhase(time.Duration) error {
	for _, id := range e.destroying.Items() {
		rec, err := e.internalRecord(id)
		if err != nil {
			return err
		}
		if err := e.link(Nil, id); err != nil {
			return err
		}
		for _, childID := range sortedChildren(rec) {
			child, err := e.internalRecord(childID)
			if err != nil {
				return err
			}
			child.parent = Nil
			e.log.Debug("orphan detached from destroyed parent",
				zap.Stringer("parent", id), zap.Stringer("child", childID))
		}
		e.purge(rec)
		e.stats.Destroyed++
		e.log.Debug("entity destroyed", zap.Stringer("entity", id), zap.String("name", rec.name))
	}
	return nil
}

// purge drops every trace of rec and releases its slot.
func (e *Engine) purge(rec *entityRecord) {
	id := rec.id
	e.registry.RemoveAll(id)
	for _, q := range []*entitySet{e.addQueue, e.removeQueue, e.activateQueue, e.inactivateQueue, e.destroyQueue} {
		q.Remove(id)
	}
	for _, st := range e.systems {
		st.toAdd.Remove(id)
		st.toUpdate.Remove(id)
		st.toRemove.Remove(id)
	}
	rec.alive = false
	rec.children = nil
	rec.adds = nil
	rec.eligible = nil
	e.records[id.Index()] = nil
	e.pool.Destroy(id)
	e.live--
}

func (e *Engine) clearPhase(time.Duration) error {
	e.removing.Clear()
	e.inactivated.Clear()
	e.destroying.Clear()
	e.lost.Clear()
	return nil
}

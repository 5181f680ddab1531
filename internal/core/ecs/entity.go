package ecs

import (
	"fmt"
	"strconv"
	"strings"
)

// EntityID encodes a 32-bit slot index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on destroy to invalidate stale refs.
type EntityID uint64

// Nil is the null entity reference. Slot 0 is reserved so no live entity is Nil.
const Nil EntityID = 0

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsNil() bool        { return id == Nil }

// String renders the id as "index.generation". It is also the default entity name.
func (id EntityID) String() string {
	return strconv.FormatUint(uint64(id.Index()), 10) + "." + strconv.FormatUint(uint64(id.Generation()), 10)
}

// ParseEntityID is the inverse of String.
func ParseEntityID(s string) (EntityID, error) {
	idx, gen, ok := strings.Cut(s, ".")
	if !ok {
		return Nil, fmt.Errorf("parse entity id %q: missing generation", s)
	}
	i, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return Nil, fmt.Errorf("parse entity id %q: %w", s, err)
	}
	g, err := strconv.ParseUint(gen, 10, 32)
	if err != nil {
		return Nil, fmt.Errorf("parse entity id %q: %w", s, err)
	}
	return NewEntityID(uint32(i), uint32(g)), nil
}

// EntityPool manages entity allocation with generational indices and a free list.
type EntityPool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
}

func NewEntityPool() *EntityPool {
	return &EntityPool{
		generations: make([]uint32, 1, 1024),
		freeList:    make([]uint32, 0, 256),
		nextIndex:   1,
	}
}

func (p *EntityPool) Create() EntityID {
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return NewEntityID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 0)
	}
	return NewEntityID(idx, p.generations[idx])
}

func (p *EntityPool) Alive(id EntityID) bool {
	idx := id.Index()
	if idx == 0 || idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == id.Generation()
}

func (p *EntityPool) Destroy(id EntityID) {
	if !p.Alive(id) {
		return // already destroyed (stale reference)
	}
	idx := id.Index()
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
}

// Cap returns the number of slots ever handed out, including the reserved slot 0.
func (p *EntityPool) Cap() int {
	return int(p.nextIndex)
}

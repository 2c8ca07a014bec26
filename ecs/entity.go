package ecs

import "fmt"

// Entity is a handle to one animated actor in a World. The low 32 bits are
// a slot id, the high 32 bits the generation the slot had when the handle
// was issued. Destroying an entity bumps its slot's generation, so stale
// handles stop matching.
type Entity uint64

// NoEntity is the zero handle; no World ever issues it.
const NoEntity Entity = 0

type entityID uint32
type generation uint32

const entityIDBits = 32

func makeEntity(id entityID, gen generation) Entity {
	return Entity(uint64(gen)<<entityIDBits | uint64(id))
}

func (e Entity) id() entityID { return entityID(uint32(e)) }

func (e Entity) generation() generation { return generation(uint32(uint64(e) >> entityIDBits)) }

// String renders the handle as "slot.generation", the form used in logs.
func (e Entity) String() string {
	if e == NoEntity {
		return "none"
	}
	return fmt.Sprintf("%d.%d", e.id(), e.generation())
}

// Valid reports whether e could have been issued by a World. It says nothing
// about whether the entity is still alive; use IsAlive for that.
func (e Entity) Valid() bool { return e.id() != 0 }

package ecs

import "github.com/milk9111/animgraph/ecs/component"

// store is the type-erased view of a SparseSet the world needs to clean up
// destroyed entities.
type store interface {
	removeID(id entityID) bool
	Len() int
}

// World owns entities, their components and the per-tick event queue.
type World struct {
	entities entityStore
	stores   map[component.ComponentID]store
	events   EventQueue
	tick     uint64
}

// NewWorld creates an empty ECS world.
func NewWorld() *World {
	return &World{stores: map[component.ComponentID]store{}}
}

// CreateEntity allocates a new entity.
func CreateEntity(w *World) Entity {
	return w.entities.create()
}

// DestroyEntity kills e and drops its components. It returns false for a
// dead or stale handle.
func DestroyEntity(w *World, e Entity) bool {
	if !w.entities.destroy(e) {
		return false
	}
	for _, s := range w.stores {
		s.removeID(e.id())
	}
	return true
}

// IsAlive reports whether an entity handle is valid.
func IsAlive(w *World, e Entity) bool {
	return w.entities.isAlive(e)
}

// Entities lists the live entities in id order.
func Entities(w *World) []Entity {
	return w.entities.entities()
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

// Tick is the number of completed scheduler updates.
func (w *World) Tick() uint64 { return w.tick }

func (w *World) endTick() {
	w.events.flush()
	w.tick++
}

func storeFor[T any](w *World, kind component.ComponentKind[T], create bool) *SparseSet[T] {
	if w == nil || !kind.Valid() {
		return nil
	}
	if s, ok := w.stores[kind.ID()]; ok {
		typed, _ := s.(*SparseSet[T])
		return typed
	}
	if !create {
		return nil
	}
	if w.stores == nil {
		w.stores = map[component.ComponentID]store{}
	}
	s := &SparseSet[T]{}
	w.stores[kind.ID()] = s
	return s
}

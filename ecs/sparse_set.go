package ecs

// SparseSet is a cache-friendly storage for one component type keyed by
// entity id. Values are stored by pointer so systems mutate them in place.
type SparseSet[T any] struct {
	denseEntities []Entity
	denseValues   []*T
	sparse        []int
}

// Has reports whether e (id and generation) has a value in the set.
func (s *SparseSet[T]) Has(e Entity) bool {
	if s == nil {
		return false
	}
	idx, ok := s.index(e.id())
	return ok && s.denseEntities[idx] == e
}

func (s *SparseSet[T]) index(id entityID) (int, bool) {
	if id == 0 || int(id) > len(s.sparse) {
		return 0, false
	}
	idx := s.sparse[id-1]
	if idx < 0 || idx >= len(s.denseEntities) || s.denseEntities[idx].id() != id {
		return 0, false
	}
	return idx, true
}

// Get returns the value for e, or nil.
func (s *SparseSet[T]) Get(e Entity) *T {
	if !s.Has(e) {
		return nil
	}
	return s.denseValues[s.sparse[e.id()-1]]
}

// Set inserts or replaces the value for e. A stale generation of the same id
// is overwritten.
func (s *SparseSet[T]) Set(e Entity, v *T) {
	id := e.id()
	if s == nil || id == 0 {
		return
	}
	for int(id) > len(s.sparse) {
		s.sparse = append(s.sparse, -1)
	}
	if idx, ok := s.index(id); ok {
		s.denseEntities[idx] = e
		s.denseValues[idx] = v
		return
	}
	s.denseEntities = append(s.denseEntities, e)
	s.denseValues = append(s.denseValues, v)
	s.sparse[id-1] = len(s.denseEntities) - 1
}

// Remove deletes whatever value is stored under e's id.
func (s *SparseSet[T]) Remove(e Entity) bool {
	if s == nil {
		return false
	}
	return s.removeID(e.id())
}

func (s *SparseSet[T]) removeID(id entityID) bool {
	idx, ok := s.index(id)
	if !ok {
		return false
	}
	last := len(s.denseEntities) - 1
	moved := s.denseEntities[last]

	s.denseEntities[idx] = moved
	s.denseValues[idx] = s.denseValues[last]
	s.sparse[moved.id()-1] = idx

	s.denseEntities[last] = 0
	s.denseValues[last] = nil
	s.denseEntities = s.denseEntities[:last]
	s.denseValues = s.denseValues[:last]
	s.sparse[id-1] = -1
	return true
}

// Entities returns the dense entity list.
func (s *SparseSet[T]) Entities() []Entity {
	if s == nil {
		return nil
	}
	return s.denseEntities
}

// Values returns the dense value list.
func (s *SparseSet[T]) Values() []*T {
	if s == nil {
		return nil
	}
	return s.denseValues
}

func (s *SparseSet[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.denseEntities)
}

package ecs

// member is the part of a SparseSet a query needs.
type member interface {
	Has(e Entity) bool
}

// intersect keeps the entities of ents that are also in set. The result is
// a fresh slice so callbacks may add or remove components.
func intersect(ents []Entity, set member) []Entity {
	out := make([]Entity, 0, len(ents))
	for _, e := range ents {
		if set.Has(e) {
			out = append(out, e)
		}
	}
	return out
}

package ecs

import (
	"fmt"

	"github.com/milk9111/animgraph/ecs/component"
)

func Add[T any](w *World, e Entity, kind component.ComponentKind[T], value *T) error {
	if !kind.Valid() {
		return component.ErrInvalidComponentKind
	}
	if value == nil {
		return fmt.Errorf("%w: %s", component.ErrNilComponent, kind.Name())
	}
	if !IsAlive(w, e) {
		return fmt.Errorf("%w: %s on %s", component.ErrEntityNotAlive, kind.Name(), e)
	}
	storeFor(w, kind, true).Set(e, value)
	return nil
}

func Remove[T any](w *World, e Entity, kind component.ComponentKind[T]) bool {
	s := storeFor(w, kind, false)
	if !s.Has(e) {
		return false
	}
	return s.Remove(e)
}

func Has[T any](w *World, e Entity, kind component.ComponentKind[T]) bool {
	return storeFor(w, kind, false).Has(e)
}

func Get[T any](w *World, e Entity, kind component.ComponentKind[T]) (*T, bool) {
	v := storeFor(w, kind, false).Get(e)
	return v, v != nil
}

// ForEach visits every live entity with a T.
func ForEach[T any](w *World, kind component.ComponentKind[T], fn func(Entity, *T)) {
	s := storeFor(w, kind, false)
	if s == nil {
		return
	}
	ents := append([]Entity(nil), s.Entities()...)
	for _, e := range ents {
		if v := s.Get(e); v != nil && IsAlive(w, e) {
			fn(e, v)
		}
	}
}

func ForEach2[A, B any](w *World, ka component.ComponentKind[A], kb component.ComponentKind[B], fn func(Entity, *A, *B)) {
	sa, sb := storeFor(w, ka, false), storeFor(w, kb, false)
	if sa == nil || sb == nil {
		return
	}
	for _, e := range intersect(sa.Entities(), sb) {
		a, b := sa.Get(e), sb.Get(e)
		if a != nil && b != nil && IsAlive(w, e) {
			fn(e, a, b)
		}
	}
}

func ForEach3[A, B, C any](w *World, ka component.ComponentKind[A], kb component.ComponentKind[B], kc component.ComponentKind[C], fn func(Entity, *A, *B, *C)) {
	sa, sb, sc := storeFor(w, ka, false), storeFor(w, kb, false), storeFor(w, kc, false)
	if sa == nil || sb == nil || sc == nil {
		return
	}
	for _, e := range intersect(intersect(sa.Entities(), sb), sc) {
		a, b, c := sa.Get(e), sb.Get(e), sc.Get(e)
		if a != nil && b != nil && c != nil && IsAlive(w, e) {
			fn(e, a, b, c)
		}
	}
}

func ForEach4[A, B, C, D any](w *World, ka component.ComponentKind[A], kb component.ComponentKind[B], kc component.ComponentKind[C], kd component.ComponentKind[D], fn func(Entity, *A, *B, *C, *D)) {
	sa, sb, sc, sd := storeFor(w, ka, false), storeFor(w, kb, false), storeFor(w, kc, false), storeFor(w, kd, false)
	if sa == nil || sb == nil || sc == nil || sd == nil {
		return
	}
	for _, e := range intersect(intersect(intersect(sa.Entities(), sb), sc), sd) {
		a, b, c, d := sa.Get(e), sb.Get(e), sc.Get(e), sd.Get(e)
		if a != nil && b != nil && c != nil && d != nil && IsAlive(w, e) {
			fn(e, a, b, c, d)
		}
	}
}

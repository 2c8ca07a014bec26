package system

import (
	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
)

// AnimationSystem advances every animator by a fixed step.
type AnimationSystem struct {
	DT float64
}

func NewAnimationSystem(dt float64) *AnimationSystem {
	return &AnimationSystem{DT: dt}
}

func (s *AnimationSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach(w, component.AnimatorComponent.Kind(), func(e ecs.Entity, a *component.Animator) {
		if a.Player == nil {
			return
		}
		a.Player.Animate(s.DT)
		if a.Character != nil {
			a.Character.Tick(s.DT)
		}
	})
}

package system

import (
	"log"

	"github.com/milk9111/animgraph/anim"
	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
)

// FootstepSystem drains footstep events into per-entity counters.
type FootstepSystem struct {
	Logger *log.Logger
}

func NewFootstepSystem() *FootstepSystem {
	return &FootstepSystem{}
}

func (s *FootstepSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	for _, evt := range w.Events().Drain(ecs.EventFootstep) {
		fe, ok := evt.Data.(ecs.FootstepEvent)
		if !ok {
			continue
		}
		steps, ok := ecs.Get(w, fe.Entity, component.FootstepsComponent.Kind())
		if !ok {
			steps = &component.Footsteps{}
			if err := ecs.Add(w, fe.Entity, component.FootstepsComponent.Kind(), steps); err != nil {
				continue
			}
		}
		if fe.Side == anim.FootLeft {
			steps.Left++
		} else {
			steps.Right++
		}
		steps.Last = fe.Side
		steps.Tick = w.Tick()
		if s.Logger != nil {
			s.Logger.Printf("footstep: entity=%s side=%s", fe.Entity, fe.Side)
		}
	}
}

package system

import (
	"log"

	"github.com/milk9111/animgraph/common"
	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
)

// BlendSystem moves blend parameters towards their targets at a bounded
// rate and pushes them into the entity's mixers.
type BlendSystem struct {
	DT     float64
	Logger *log.Logger
}

func NewBlendSystem(dt float64) *BlendSystem {
	return &BlendSystem{DT: dt}
}

func (s *BlendSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach2(w, component.AnimatorComponent.Kind(), component.BlendParamComponent.Kind(), func(e ecs.Entity, a *component.Animator, bp *component.BlendParam) {
		if a.Library == nil || bp.Mixer == "" {
			return
		}
		m, ok := a.Library.Mixer(a.BodySet, bp.Mixer)
		if !ok {
			s.logf("blend: entity=%s unknown mixer %s/%s", e, a.BodySet, bp.Mixer)
			return
		}
		step := bp.Rate * s.DT
		if bp.Rate <= 0 {
			step = 1
		}

		if m.Blend() != nil {
			bp.Position = common.MoveTowards(bp.Position, bp.Target, step)
			m.SetBlendPosition(bp.Position)
			bp.Position = m.Blend().Position()
			return
		}

		for name, target := range bp.Weights {
			wt, ok := a.Library.Weight(a.BodySet, name)
			if !ok {
				continue
			}
			wt.AnimateTowardsValue(target, step)
		}
	})
}

func (s *BlendSystem) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

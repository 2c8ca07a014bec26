package system

import (
	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
)

// ScriptEmitSystem records the values scripts emitted this tick.
type ScriptEmitSystem struct{}

func NewScriptEmitSystem() *ScriptEmitSystem {
	return &ScriptEmitSystem{}
}

func (s *ScriptEmitSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	for _, evt := range w.Events().Drain(ecs.EventScriptEmit) {
		se, ok := evt.Data.(ecs.ScriptEmitEvent)
		if !ok {
			continue
		}
		emits, ok := ecs.Get(w, se.Entity, component.ScriptEmitsComponent.Kind())
		if !ok {
			emits = &component.ScriptEmits{Values: map[string]any{}}
			if err := ecs.Add(w, se.Entity, component.ScriptEmitsComponent.Kind(), emits); err != nil {
				continue
			}
		}
		emits.Values[se.Name] = se.Arg
		emits.Count++
	}
}

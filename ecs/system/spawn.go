package system

import (
	"fmt"

	"github.com/milk9111/animgraph/actor"
	"github.com/milk9111/animgraph/anim"
	"github.com/milk9111/animgraph/animset"
	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
)

// AnimatedSpec describes a character entity to spawn.
type AnimatedSpec struct {
	Character *actor.Character
	Registry  *animset.Registry
	BodySet   string
	Layer     int
	Resolve   animset.SourceResolver
	Initial   string
}

// SpawnAnimated creates an entity with its own node graph, a bound player
// and the character's footsteps and script emits routed into the world
// event queue.
func SpawnAnimated(w *ecs.World, spec AnimatedSpec) (ecs.Entity, *component.Animator, error) {
	if spec.Character == nil || spec.Registry == nil {
		return 0, nil, fmt.Errorf("system: spawn needs a character and a registry")
	}
	layer := anim.NewLayer(spec.Layer, spec.BodySet)
	lib, err := spec.Registry.Instantiate(layer, spec.Resolve)
	if err != nil {
		return 0, nil, err
	}

	player := anim.NewPlayer(spec.Character.Name, lib)
	player.Logger = spec.Character.Logger
	player.SetCharacter(spec.Character)
	if err := player.BindAnimationLayer(layer, spec.Character.Rig); err != nil {
		return 0, nil, err
	}

	e := ecs.CreateEntity(w)
	spec.Character.OnFootstep = func(side anim.FootSide) {
		w.Events().Push(ecs.Event{Type: ecs.EventFootstep, Data: ecs.FootstepEvent{Entity: e, Side: side}})
	}
	spec.Character.OnEmit = func(src anim.Source, name string, arg any) {
		w.Events().Push(ecs.Event{Type: ecs.EventScriptEmit, Data: ecs.ScriptEmitEvent{
			Entity: e,
			Source: src.SourceName(),
			Name:   name,
			Arg:    arg,
		}})
	}

	a := &component.Animator{
		Player:    player,
		Character: spec.Character,
		Library:   lib,
		BodySet:   spec.BodySet,
	}
	if err := ecs.Add(w, e, component.AnimatorComponent.Kind(), a); err != nil {
		return 0, nil, err
	}
	if spec.Initial != "" {
		if err := player.Play(spec.Character, spec.BodySet, spec.Initial); err != nil {
			return e, a, err
		}
	}
	return e, a, nil
}

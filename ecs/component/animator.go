package component

import (
	"github.com/milk9111/animgraph/actor"
	"github.com/milk9111/animgraph/anim"
	"github.com/milk9111/animgraph/animset"
)

// Animator ties a player to the character it animates.
type Animator struct {
	Player    *anim.Player
	Character *actor.Character
	Library   *animset.Library
	BodySet   string
}

var AnimatorComponent = NewComponent[Animator]()

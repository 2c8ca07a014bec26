package component

import "github.com/milk9111/animgraph/anim"

// Footsteps counts the footstep markers an entity's animation fired.
type Footsteps struct {
	Left  int
	Right int
	Last  anim.FootSide
	Tick  uint64
}

var FootstepsComponent = NewComponent[Footsteps]()

package component

// BlendParam steers one mixer of an entity's library. Blend trees follow
// Position towards Target; mixers with named weights move each weight
// towards its entry in Weights. Rate is in units per second.
type BlendParam struct {
	Mixer    string
	Target   float64
	Position float64
	Rate     float64
	Weights  map[string]float64
}

var BlendParamComponent = NewComponent[BlendParam]()

package anim

// Layer is the binding context a node graph belongs to. A player only plays
// nodes of the layer it is bound to.
type Layer struct {
	Index int
	Name  string
}

func NewLayer(index int, name string) *Layer {
	return &Layer{Index: index, Name: name}
}

// Add moves nodes, and the children of any mixers among them, into l.
func (l *Layer) Add(nodes ...Node) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		n.base().layer = l
		if m, ok := n.(*Mixer); ok {
			l.Add(m.children...)
		}
	}
}

// Owns reports whether n belongs to l.
func (l *Layer) Owns(n Node) bool {
	return l != nil && n != nil && n.Layer() == l
}

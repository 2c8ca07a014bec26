package actor

import "github.com/milk9111/animgraph/script"

// Item is a grabbable prop. Its script runs Function events it authored
// while a character holds it.
type Item struct {
	Name   string
	Script *script.Runtime
}

func NewItem(name string, rt *script.Runtime) *Item {
	return &Item{Name: name, Script: rt}
}

func (i *Item) SourceName() string { return i.Name }

// Grabber is a hand or socket that holds at most one item.
type Grabber struct {
	Name string
	held *Item
}

func (g *Grabber) Grab(item *Item) *Item {
	prev := g.held
	g.held = item
	return prev
}

func (g *Grabber) Release() *Item {
	prev := g.held
	g.held = nil
	return prev
}

func (g *Grabber) Held() *Item { return g.held }

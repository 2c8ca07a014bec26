package actor

import (
	"errors"
	"fmt"
	"log"

	"github.com/milk9111/animgraph/anim"
	"github.com/milk9111/animgraph/script"
)

var ErrNoScript = errors.New("actor: source has no script")

// ScriptError is a reported script failure.
type ScriptError struct {
	Source string
	Err    error
}

func (e ScriptError) Error() string { return fmt.Sprintf("%s: %v", e.Source, e.Err) }

func (e ScriptError) Unwrap() error { return e.Err }

// Character is the stock anim.Character: a rig, a voice, grabbers and a
// script for its own Function events.
type Character struct {
	Name     string
	Rig      *Rig
	Voice    *Voice
	Grabbers []*Grabber
	Script   *script.Runtime
	Logger   *log.Logger

	OnFootstep func(side anim.FootSide)
	OnEmit     func(source anim.Source, name string, arg any)

	errs []ScriptError
}

var _ anim.Character = (*Character)(nil)

func NewCharacter(name string, rig *Rig, rt *script.Runtime) *Character {
	return &Character{
		Name:     name,
		Rig:      rig,
		Voice:    NewVoice(),
		Grabbers: []*Grabber{{Name: "l_hand"}, {Name: "r_hand"}},
		Script:   rt,
	}
}

func (c *Character) SourceName() string { return c.Name }

func (c *Character) Speaking() bool { return c.Voice != nil && c.Voice.Speaking() }

func (c *Character) PlayVoice(group string) {
	if c.Voice == nil {
		return
	}
	c.Voice.Play(group)
}

func (c *Character) Footstep(side anim.FootSide) {
	if c.OnFootstep != nil {
		c.OnFootstep(side)
	}
}

// Grabber returns the grabber named name.
func (c *Character) Grabber(name string) (*Grabber, bool) {
	for _, g := range c.Grabbers {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

func (c *Character) Holds(item anim.Source) bool {
	if item == nil {
		return false
	}
	for _, g := range c.Grabbers {
		if h := g.Held(); h != nil && anim.Source(h) == item {
			return true
		}
	}
	return false
}

// CallFunction runs name on the script of source: the character's own
// script when source is nil or the character, otherwise the item's.
func (c *Character) CallFunction(source anim.Source, name string, arg int) error {
	rt, label := c.Script, c.Name
	if source != nil && source != anim.Source(c) {
		item, ok := source.(*Item)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoScript, source.SourceName())
		}
		rt, label = item.Script, item.Name
	}
	if rt == nil {
		return fmt.Errorf("%w: %s", ErrNoScript, label)
	}
	return rt.Call(name, arg, &host{c: c, source: source})
}

func (c *Character) ReportScriptError(source anim.Source, err error) {
	name := c.Name
	if source != nil {
		name = source.SourceName()
	}
	c.errs = append(c.errs, ScriptError{Source: name, Err: err})
	c.logf("actor: %s: script error from %s: %v", c.Name, name, err)
}

// ScriptErrors returns the reported script failures.
func (c *Character) ScriptErrors() []ScriptError {
	return append([]ScriptError(nil), c.errs...)
}

// Tick advances the character's timers.
func (c *Character) Tick(dt float64) {
	if c.Voice != nil {
		c.Voice.Tick(dt)
	}
}

func (c *Character) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// host routes script side effects back to the character.
type host struct {
	c      *Character
	source anim.Source
}

func (h *host) PlayVoice(group string)      { h.c.PlayVoice(group) }
func (h *host) Footstep(side anim.FootSide) { h.c.Footstep(side) }

func (h *host) Emit(name string, arg any) {
	if h.c.OnEmit == nil {
		return
	}
	src := h.source
	if src == nil {
		src = h.c
	}
	h.c.OnEmit(src, name, arg)
}

func (h *host) Logf(format string, args ...any) { h.c.logf(format, args...) }

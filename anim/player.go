package anim

import (
	"errors"
	"log"

	"github.com/milk9111/animgraph/common"
)

var (
	ErrNilLayer         = errors.New("anim: layer is nil")
	ErrNilRig           = errors.New("anim: rig is nil")
	ErrNilState         = errors.New("anim: state is nil")
	ErrAlreadyPlaying   = errors.New("anim: state is already playing")
	ErrForeignLayer     = errors.New("anim: state belongs to another layer")
	ErrUnbound          = errors.New("anim: player is not bound to a layer")
	ErrTransitionTarget = errors.New("anim: transitions cannot be played directly")
	ErrNoLibrary        = errors.New("anim: player has no library")
)

// Transform is an externally owned skeletal target.
type Transform interface {
	SetLocalPosition(Vec3)
	SetLocalRotation(Quat)
}

// Rig supplies the targets a layer's samples are written to.
type Rig interface {
	Transforms() map[string]Transform
	BlendShapes() []string
	SetBlendShapeWeight(index int, weight float64)
}

type binding struct {
	transform Transform
	shape     int
}

// Player drives one layer of a character: it chooses the active node, reads
// it once per tick and writes the samples into the bound rig.
type Player struct {
	Name    string
	Library Library
	Logger  *log.Logger

	// OnModifyAnimation runs after the pose is applied and before OnAnimate;
	// it is the place for corrective adjustments.
	OnModifyAnimation func(p *Player)
	OnAnimate         func(p *Player)
	OnAnimationChange func(layerIndex int)

	layer       *Layer
	rig         Rig
	character   Character
	ctx         *Context
	transforms  map[uint32]Transform
	blendShapes map[uint32]int

	current Node
	last    Node
	active  Node

	bindings     []binding
	targetLoopsB int
}

func NewPlayer(name string, lib Library) *Player {
	return &Player{Name: name, Library: lib, ctx: NewContext()}
}

// SetCharacter sets the receiver of events fired by this player.
func (p *Player) SetCharacter(c Character) {
	p.character = c
	if p.ctx != nil {
		p.ctx.Target = c
	}
}

func (p *Player) Character() Character { return p.character }

// BindAnimationLayer attaches the player to layer and rig with a fresh
// context. The active state, if any, is re-bound to the new rig.
func (p *Player) BindAnimationLayer(layer *Layer, rig Rig) error {
	if layer == nil {
		return ErrNilLayer
	}
	if rig == nil {
		return ErrNilRig
	}
	p.layer = layer
	p.rig = rig
	p.ctx = NewContext()
	p.ctx.Target = p.character

	p.transforms = map[uint32]Transform{}
	for name, tr := range rig.Transforms() {
		if tr != nil {
			p.transforms[BindHash(name)] = tr
		}
	}
	p.blendShapes = map[uint32]int{}
	for i, name := range rig.BlendShapes() {
		p.blendShapes[BindHash(name)] = i
	}

	if p.active != nil {
		if t, ok := p.active.(*Transition); ok && !t.Done() {
			p.ctx.Insert(t)
		}
		p.SetActiveState(p.active)
	}
	return nil
}

// Unbind detaches the player from its layer and rig.
func (p *Player) Unbind() {
	p.Stop()
	p.layer = nil
	p.rig = nil
	p.transforms = nil
	p.blendShapes = nil
}

func (p *Player) Bound() bool { return p.layer != nil && p.rig != nil }

func (p *Player) Layer() *Layer { return p.layer }

func (p *Player) Context() *Context { return p.ctx }

func (p *Player) Current() Node { return p.current }

func (p *Player) Last() Node { return p.last }

func (p *Player) Active() Node { return p.active }

// Play looks up an animation by body set and key and plays it with its
// authored transition time. Failures are logged and leave playback as is.
func (p *Player) Play(source Source, bodySet, key string) error {
	return p.playKey(source, bodySet, key, 0, false)
}

// PlayWithTransition is Play with an explicit cross-fade duration.
func (p *Player) PlayWithTransition(source Source, bodySet, key string, transition float64) error {
	return p.playKey(source, bodySet, key, transition, true)
}

func (p *Player) playKey(source Source, bodySet, key string, transition float64, override bool) error {
	if p.Library == nil {
		p.logf("anim: %s: no library to look up %s/%s", p.Name, bodySet, key)
		return ErrNoLibrary
	}
	n, err := p.Library.Lookup(bodySet, key)
	if err != nil {
		p.logf("anim: %s: %v", p.Name, err)
		return err
	}
	if p.ctx == nil {
		return p.play(n, transition, override)
	}
	prev := p.ctx.Source
	p.ctx.Source = source
	if err := p.play(n, transition, override); err != nil {
		p.ctx.Source = prev
		return err
	}
	return nil
}

// PlayNode plays n with its authored transition time.
func (p *Player) PlayNode(n Node) error {
	return p.play(n, 0, false)
}

// PlayNodeWithTransition plays n with an explicit cross-fade duration.
func (p *Player) PlayNodeWithTransition(n Node, transition float64) error {
	return p.play(n, transition, true)
}

func (p *Player) play(n Node, transition float64, override bool) error {
	if n == nil {
		p.logf("anim: %s: play called with a nil state", p.Name)
		return ErrNilState
	}
	if _, ok := n.(*Transition); ok {
		p.logf("anim: %s: cannot play transition %q directly", p.Name, n.Name())
		return ErrTransitionTarget
	}
	if p.layer == nil {
		p.logf("anim: %s: cannot play %q, player is not bound", p.Name, n.Name())
		return ErrUnbound
	}
	if n == p.current {
		p.logf("anim: %s: %q is already playing", p.Name, n.Name())
		return ErrAlreadyPlaying
	}
	if !p.layer.Owns(n) {
		p.logf("anim: %s: %q is not assigned to layer %q", p.Name, n.Name(), p.layer.Name)
		return ErrForeignLayer
	}

	p.last = p.current
	p.current = n
	p.targetLoopsB = 0
	n.Reset()

	if p.active == nil {
		p.ctx.Reset()
		p.SetActiveState(n)
	} else {
		d := n.TransitionTime()
		if override {
			d = transition
		}
		t := NewTransition(p.active, n, d)
		p.ctx.Insert(t)
		p.SetActiveState(t)
	}

	p.ctx.Speed.Remove(p.pauseKey())
	if p.OnAnimationChange != nil {
		p.OnAnimationChange(p.layer.Index)
	}
	return nil
}

// SetActiveState makes n the evaluated node and resolves its bindings.
// Samples whose bind hash is missing from the rig stay unbound.
func (p *Player) SetActiveState(n Node) {
	p.active = n
	if n == nil {
		p.bindings = nil
		return
	}
	samples := n.Samples()
	p.bindings = make([]binding, len(samples))
	for i, s := range samples {
		b := binding{shape: -1}
		if s.Kind == ChannelBlendShape {
			if idx, ok := p.blendShapes[s.BindHash]; ok {
				b.shape = idx
			}
		} else if tr, ok := p.transforms[s.BindHash]; ok {
			b.transform = tr
		}
		p.bindings[i] = b
	}
}

// Animate runs one tick of dt seconds.
func (p *Player) Animate(dt float64) {
	if !p.Bound() || p.active == nil {
		return
	}
	if p.ctx.Speed.Value() != 0 {
		p.ctx.BeginTick(dt)
		p.active.Read(p.ctx)
	}
	p.apply()

	if p.OnModifyAnimation != nil {
		p.OnModifyAnimation(p)
	}
	if p.OnAnimate != nil {
		p.OnAnimate(p)
	}

	if next := p.ctx.takePending(); next != nil {
		p.SetActiveState(next)
	}
	if p.current == nil {
		return
	}

	p.ctx.Main = PlaybackState{
		NormalizedTime: p.current.NormalizedTime(),
		LoopsB:         p.current.Loops(),
	}
	loops := p.ctx.Main.LoopsB
	if loops < p.targetLoopsB {
		p.targetLoopsB = loops
		return
	}
	if loops == p.targetLoopsB {
		return
	}
	p.targetLoopsB = loops
	if next := p.current.NextState(); next != nil && next != p.current {
		_ = p.play(next, 0, false)
	}
}

func (p *Player) apply() {
	samples := p.active.Samples()
	for i, b := range p.bindings {
		if i >= len(samples) {
			break
		}
		s := samples[i]
		if !s.Set {
			continue
		}
		switch s.Kind {
		case ChannelPosition:
			if b.transform != nil {
				b.transform.SetLocalPosition(s.Vec)
			}
		case ChannelRotation:
			if b.transform != nil {
				b.transform.SetLocalRotation(s.Rot)
			}
		case ChannelBlendShape:
			if b.shape >= 0 {
				p.rig.SetBlendShapeWeight(b.shape, s.Scalar)
			}
		}
	}
}

// TransitionNormTime is the progress of the live transition, or 1 when the
// player is not transitioning.
func (p *Player) TransitionNormTime() float64 {
	if t, ok := p.active.(*Transition); ok {
		return t.Ratio()
	}
	return 1
}

// SampleCurve blends the previous state's curve, held where that state
// stopped, into the current state's live curve by the transition progress.
func (p *Player) SampleCurve(hash uint32, def float64) float64 {
	cur, hasCur := sampleNodeCurve(p.current, hash)
	ratio := p.TransitionNormTime()
	if ratio >= 1 || p.last == nil {
		if hasCur {
			return cur
		}
		return def
	}
	prev, hasPrev := sampleNodeCurve(p.last, hash)
	if !hasCur && !hasPrev {
		return def
	}
	if !hasCur {
		cur = def
	}
	if !hasPrev {
		prev = def
	}
	return common.Lerp(prev, cur, ratio)
}

// SampleCurveNamed is SampleCurve keyed by curve name.
func (p *Player) SampleCurveNamed(name string, def float64) float64 {
	return p.SampleCurve(BindHash(name), def)
}

func sampleNodeCurve(n Node, hash uint32) (float64, bool) {
	if n == nil {
		return 0, false
	}
	c, ok := n.Curve(hash)
	if !ok {
		return 0, false
	}
	return c.Sample(n.NormalizedTime()), true
}

// Stop drops every state. The player stays bound but idle until the next
// Play.
func (p *Player) Stop() {
	p.current = nil
	p.last = nil
	p.active = nil
	p.bindings = nil
	p.targetLoopsB = 0
	if p.ctx != nil {
		p.ctx.Reset()
	}
}

// Pause freezes playback in place; the next Play or Resume continues it.
func (p *Player) Pause() {
	if p.ctx == nil {
		return
	}
	p.ctx.Speed.Set(p.pauseKey(), 0)
}

func (p *Player) Resume() {
	if p.ctx == nil {
		return
	}
	p.ctx.Speed.Remove(p.pauseKey())
}

func (p *Player) Paused() bool {
	return p.ctx != nil && p.ctx.Speed.Has(p.pauseKey())
}

func (p *Player) pauseKey() string {
	if p.Name == "" {
		return "player"
	}
	return p.Name
}

func (p *Player) logf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

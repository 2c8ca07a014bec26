package anim

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrNoChildren        = errors.New("anim: mixer needs at least one child")
	ErrNilChild          = errors.New("anim: mixer child is nil")
	ErrTransitionChild   = errors.New("anim: transitions cannot be mixer children")
	ErrChildWeightLength = errors.New("anim: mixer children and weights differ in length")
	ErrSharedChild       = errors.New("anim: node appears more than once under a mixer")
)

// Node is one playable animation state. The set of implementations is closed:
// *Single, *Mixer and *Transition.
type Node interface {
	Name() string
	// Read advances the node by ctx.DeltaTime and refreshes Samples.
	Read(ctx *Context)
	// Samples returns the output slots. The layout is fixed for the node's
	// lifetime; only values change between reads.
	Samples() []Sample
	// Reset rewinds the node's playback clock.
	Reset()
	NormalizedTime() float64
	Loops() int
	Curve(hash uint32) (*Curve, bool)
	NextState() Node
	TransitionTime() float64
	Layer() *Layer

	base() *nodeBase
}

type nodeBase struct {
	name       string
	next       Node
	transition float64
	layer      *Layer
	curves     map[uint32]*Curve
}

func (b *nodeBase) base() *nodeBase { return b }

func (b *nodeBase) Name() string { return b.name }

// NextState is the auto-chain successor. Nil or the node itself means the
// node keeps looping.
func (b *nodeBase) NextState() Node { return b.next }

// TransitionTime is the authored cross-fade duration used when this node is
// played without an explicit one.
func (b *nodeBase) TransitionTime() float64 { return b.transition }

func (b *nodeBase) Layer() *Layer { return b.layer }

func (b *nodeBase) Curve(hash uint32) (*Curve, bool) {
	c, ok := b.curves[hash]
	return c, ok
}

// SetNextState sets n's auto-chain successor.
func SetNextState(n, next Node) {
	if n == nil {
		return
	}
	if _, ok := next.(*Transition); ok {
		return
	}
	n.base().next = next
}

// SetTransitionTime sets n's default cross-fade duration.
func SetTransitionTime(n Node, d float64) {
	if n == nil {
		return
	}
	n.base().transition = math.Max(0, d)
}

// SetCurve attaches a named scalar curve to n.
func SetCurve(n Node, name string, c *Curve) {
	if n == nil || c == nil {
		return
	}
	b := n.base()
	if b.curves == nil {
		b.curves = map[uint32]*Curve{}
	}
	b.curves[BindHash(name)] = c
}

// Single plays one clip.
type Single struct {
	nodeBase
	clip    *Clip
	time    float64
	loops   int
	samples []Sample
}

func NewSingle(clip *Clip) *Single {
	if clip == nil {
		clip = &Clip{}
	}
	s := &Single{
		nodeBase: nodeBase{name: clip.Name},
		clip:     clip,
		samples:  make([]Sample, len(clip.Tracks)),
	}
	clip.SortEvents()
	for name, c := range clip.Curves {
		SetCurve(s, name, c)
	}
	for i, tr := range clip.Tracks {
		s.samples[i] = Sample{Bind: tr.Bind, BindHash: BindHash(tr.Bind), Kind: tr.Kind, Rot: IdentityQuat}
	}
	s.sample()
	return s
}

func (s *Single) Clip() *Clip { return s.clip }

func (s *Single) Samples() []Sample { return s.samples }

func (s *Single) NormalizedTime() float64 { return s.time }

func (s *Single) Loops() int { return s.loops }

func (s *Single) Reset() {
	s.time = 0
	s.loops = 0
	s.sample()
}

func (s *Single) Read(ctx *Context) {
	speed := ctx.Speed.Value()
	if s.clip.Duration > 0 && speed != 0 && ctx.DeltaTime != 0 {
		prev := s.time
		delta := speed * ctx.DeltaTime / s.clip.Duration
		next := prev + delta
		wraps := math.Floor(next)
		next -= wraps
		if wraps > 0 {
			s.loops += int(wraps)
		}
		s.time = next
		if ctx.primary {
			s.fireCrossed(ctx, prev, delta)
		}
	}
	s.sample()
}

func (s *Single) sample() {
	for i := range s.clip.Tracks {
		s.clip.Tracks[i].sampleInto(s.time, &s.samples[i])
	}
}

// fireCrossed fires every event passed while moving delta from prev, at most
// once each, in the order playback reached them.
func (s *Single) fireCrossed(ctx *Context, prev, delta float64) {
	end := prev + delta
	type crossing struct {
		ev   Event
		dist float64
	}
	var crossed []crossing
	for _, ev := range s.clip.Events {
		p := ev.Position
		var n, dist float64
		if delta > 0 {
			n = math.Floor(end-p) - math.Floor(prev-p)
			dist = p - prev
		} else {
			n = math.Ceil(prev-p) - math.Ceil(end-p)
			dist = prev - p
		}
		if n <= 0 {
			continue
		}
		crossed = append(crossed, crossing{ev: ev, dist: dist - math.Floor(dist)})
	}
	sort.SliceStable(crossed, func(i, j int) bool {
		return crossed[i].dist < crossed[j].dist
	})
	for _, c := range crossed {
		ctx.fire(c.ev)
	}
}

// Mixer blends its children by weight.
type Mixer struct {
	nodeBase
	children   []Node
	weights    []*Weight
	blend      *WeightManager1D
	samples    []Sample
	totals     []float64
	childSlots [][]int
}

// NewMixer builds a mixer driven by externally owned weights.
func NewMixer(name string, children []Node, weights []*Weight) (*Mixer, error) {
	if len(children) == 0 {
		return nil, ErrNoChildren
	}
	if len(children) != len(weights) {
		return nil, ErrChildWeightLength
	}
	layouts := make([][]Sample, len(children))
	for i, c := range children {
		if c == nil {
			return nil, ErrNilChild
		}
		if _, ok := c.(*Transition); ok {
			return nil, ErrTransitionChild
		}
		if weights[i] == nil {
			return nil, ErrNilWeight
		}
		layouts[i] = c.Samples()
	}
	if n := sharedNode(children); n != nil {
		return nil, fmt.Errorf("%w: %s under %s", ErrSharedChild, n.Name(), name)
	}
	samples, index := unionSlots(layouts...)
	m := &Mixer{
		nodeBase: nodeBase{name: name},
		children: append([]Node(nil), children...),
		weights:  append([]*Weight(nil), weights...),
		samples:  samples,
		totals:   make([]float64, len(samples)),
	}
	m.childSlots = make([][]int, len(children))
	for i, layout := range layouts {
		m.childSlots[i] = make([]int, len(layout))
		for j, s := range layout {
			m.childSlots[i][j] = index[s.key()]
		}
	}
	m.mix()
	return m, nil
}

// sharedNode returns the first node reachable from more than one child, or
// through the same child twice. Each reachable node is read once per tick.
func sharedNode(children []Node) Node {
	seen := map[Node]bool{}
	var walk func(n Node) Node
	walk = func(n Node) Node {
		if seen[n] {
			return n
		}
		seen[n] = true
		if m, ok := n.(*Mixer); ok {
			for _, c := range m.children {
				if dup := walk(c); dup != nil {
					return dup
				}
			}
		}
		return nil
	}
	for _, c := range children {
		if dup := walk(c); dup != nil {
			return dup
		}
	}
	return nil
}

// NewBlendTree builds a mixer whose weights are distributed by a
// WeightManager1D over positions.
func NewBlendTree(name string, children []Node, positions []float64) (*Mixer, error) {
	weights := make([]*Weight, len(children))
	for i := range weights {
		weights[i] = &Weight{}
	}
	blend, err := NewWeightManager1D(weights, positions)
	if err != nil {
		return nil, err
	}
	m, err := NewMixer(name, children, weights)
	if err != nil {
		return nil, err
	}
	m.blend = blend
	m.mix()
	return m, nil
}

func (m *Mixer) Children() []Node { return append([]Node(nil), m.children...) }

func (m *Mixer) Weights() []*Weight { return append([]*Weight(nil), m.weights...) }

// Blend returns the 1-D distributor, or nil for externally weighted mixers.
func (m *Mixer) Blend() *WeightManager1D { return m.blend }

// SetBlendPosition forwards to the blend tree distributor if there is one.
func (m *Mixer) SetBlendPosition(p float64) {
	m.blend.SetPosition(p)
}

func (m *Mixer) Samples() []Sample { return m.samples }

func (m *Mixer) Reset() {
	for _, c := range m.children {
		c.Reset()
	}
	m.mix()
}

func (m *Mixer) NormalizedTime() float64 {
	return m.children[m.driver()].NormalizedTime()
}

func (m *Mixer) Loops() int {
	return m.children[m.driver()].Loops()
}

// driver is the highest-weight child; it owns the mixer's clock and events.
func (m *Mixer) driver() int {
	best := 0
	for i, w := range m.weights {
		if w.Value > m.weights[best].Value {
			best = i
		}
	}
	return best
}

// Read advances every child, weighted or not, so that children stay in
// phase when their weight changes.
func (m *Mixer) Read(ctx *Context) {
	driver := m.driver()
	for i, c := range m.children {
		ctx.withPrimary(i == driver, func() { c.Read(ctx) })
	}
	m.mix()
}

func (m *Mixer) mix() {
	for i := range m.samples {
		s := &m.samples[i]
		s.Vec, s.Rot, s.Scalar, s.Set = Vec3{}, IdentityQuat, 0, false
		m.totals[i] = 0
	}
	for i, c := range m.children {
		w := m.weights[i].Value
		if w <= 0 {
			continue
		}
		for j, cs := range c.Samples() {
			if !cs.Set {
				continue
			}
			k := m.childSlots[i][j]
			out := &m.samples[k]
			total := m.totals[k] + w
			switch cs.Kind {
			case ChannelRotation:
				if !out.Set {
					out.Rot = cs.Rot
				} else {
					out.Rot = Slerp(out.Rot, cs.Rot, w/total)
				}
			case ChannelBlendShape:
				out.Scalar += cs.Scalar * w
			default:
				out.Vec = out.Vec.Add(cs.Vec.Scale(w))
			}
			m.totals[k] = total
			out.Set = true
		}
	}
	for i := range m.samples {
		s := &m.samples[i]
		total := m.totals[i]
		if !s.Set || total == 1 || s.Kind == ChannelRotation {
			continue
		}
		s.Scalar /= total
		s.Vec = s.Vec.Scale(1 / total)
	}
}

// Transition cross-fades from a frozen pose of one node into another live
// node. It only ever exists as a player's active state.
type Transition struct {
	nodeBase
	from     Node
	to       Node
	duration float64
	elapsed  float64
	done     bool
	fromPose []Sample
	samples  []Sample
	fromIdx  []int
	toIdx    []int
}

func NewTransition(from, to Node, duration float64) *Transition {
	t := &Transition{
		from:     from,
		to:       to,
		duration: math.Max(0, duration),
	}
	var fromLayout, toLayout []Sample
	if from != nil {
		fromLayout = from.Samples()
		t.fromPose = append([]Sample(nil), fromLayout...)
		t.name = from.Name()
	}
	if to != nil {
		toLayout = to.Samples()
		t.name += "->" + to.Name()
		t.layer = to.Layer()
	}
	var index map[slotKey]int
	t.samples, index = unionSlots(fromLayout, toLayout)
	t.fromIdx = make([]int, len(t.samples))
	t.toIdx = make([]int, len(t.samples))
	for i := range t.samples {
		t.fromIdx[i], t.toIdx[i] = -1, -1
	}
	for j, s := range fromLayout {
		t.fromIdx[index[s.key()]] = j
	}
	for j, s := range toLayout {
		t.toIdx[index[s.key()]] = j
	}
	t.blend()
	return t
}

func (t *Transition) From() Node { return t.from }

func (t *Transition) To() Node { return t.to }

func (t *Transition) Duration() float64 { return t.duration }

func (t *Transition) Elapsed() float64 { return t.elapsed }

// Ratio is the blend progress in [0,1].
func (t *Transition) Ratio() float64 {
	if t.duration <= 0 {
		if t.done {
			return 1
		}
		return math.Min(1, t.elapsed)
	}
	return math.Min(1, t.elapsed/t.duration)
}

func (t *Transition) Done() bool { return t.done }

func (t *Transition) Samples() []Sample { return t.samples }

func (t *Transition) Reset() {
	t.elapsed = 0
	t.done = false
	t.blend()
}

func (t *Transition) NormalizedTime() float64 {
	if t.to == nil {
		return 0
	}
	return t.to.NormalizedTime()
}

func (t *Transition) Loops() int {
	if t.to == nil {
		return 0
	}
	return t.to.Loops()
}

func (t *Transition) Curve(hash uint32) (*Curve, bool) {
	if t.to == nil {
		return nil, false
	}
	return t.to.Curve(hash)
}

// Read advances the fade by the unscaled delta and the destination by a
// normal read. Once the fade is complete the context is told to activate the
// destination.
func (t *Transition) Read(ctx *Context) {
	t.elapsed += math.Abs(ctx.DeltaTime)
	if t.duration <= 0 {
		t.done = true
	}
	if t.to != nil {
		t.to.Read(ctx)
	}
	t.blend()
	if t.Ratio() >= 1 {
		t.done = true
		ctx.complete(t)
	}
}

func (t *Transition) blend() {
	ratio := t.Ratio()
	var toSamples []Sample
	if t.to != nil {
		toSamples = t.to.Samples()
	}
	for i := range t.samples {
		out := &t.samples[i]
		fi, ti := t.fromIdx[i], t.toIdx[i]
		var from, to *Sample
		if fi >= 0 && t.fromPose[fi].Set {
			from = &t.fromPose[fi]
		}
		if ti >= 0 && toSamples[ti].Set {
			to = &toSamples[ti]
		}
		switch {
		case from != nil && to != nil:
			b := blendSample(*from, *to, ratio)
			out.Vec, out.Rot, out.Scalar, out.Set = b.Vec, b.Rot, b.Scalar, true
		case from != nil:
			out.Vec, out.Rot, out.Scalar, out.Set = from.Vec, from.Rot, from.Scalar, ratio < 1
		case to != nil:
			out.Vec, out.Rot, out.Scalar, out.Set = to.Vec, to.Rot, to.Scalar, true
		default:
			out.Set = false
		}
	}
}

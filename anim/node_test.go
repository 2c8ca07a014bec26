package anim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tick(ctx *Context, n Node, dt float64) {
	ctx.BeginTick(dt)
	n.Read(ctx)
}

func TestSingleAdvancesAndLoops(t *testing.T) {
	s := NewSingle(rampClip("walk", 2, "hips"))
	ctx := NewContext()

	tick(ctx, s, 0.5)
	assert.InDelta(t, 0.25, s.NormalizedTime(), 1e-9)
	got, ok := sampleFor(s, "hips", ChannelPosition)
	require.True(t, ok)
	assert.InDelta(t, 0.25, got.Vec.X, 1e-9)

	tick(ctx, s, 1.75)
	assert.InDelta(t, 0.125, s.NormalizedTime(), 1e-9)
	assert.Equal(t, 1, s.Loops())

	s.Reset()
	assert.Zero(t, s.NormalizedTime())
	assert.Zero(t, s.Loops())
}

func TestSingleHonoursSpeed(t *testing.T) {
	s := NewSingle(rampClip("walk", 1, "hips"))
	ctx := NewContext()

	ctx.Speed.Set("slowmo", 0.5)
	tick(ctx, s, 0.5)
	assert.InDelta(t, 0.25, s.NormalizedTime(), 1e-9)

	ctx.Speed.Set("pause", 0)
	tick(ctx, s, 0.5)
	assert.InDelta(t, 0.25, s.NormalizedTime(), 1e-9)

	ctx.Speed.Remove("pause")
	ctx.Speed.Set("slowmo", -1)
	tick(ctx, s, 0.5)
	assert.InDelta(t, 0.75, s.NormalizedTime(), 1e-9, "reverse playback wraps backwards")
	assert.Zero(t, s.Loops())
}

func TestSingleFiresCrossedEvents(t *testing.T) {
	c := newFakeCharacter("kid")
	clip := rampClip("walk", 1, "hips")
	clip.Events = []Event{
		NewEvent(EventFootstep, 0.75, "", 1, nil),
		NewEvent(EventFootstep, 0.25, "", 0, nil),
	}
	s := NewSingle(clip)
	ctx := NewContext()
	ctx.Target = c

	tick(ctx, s, 0.2)
	assert.Empty(t, c.steps)

	tick(ctx, s, 0.1)
	assert.Equal(t, []FootSide{FootLeft}, c.steps)

	// 0.3 -> 1.1 wraps: right foot at 0.75 then nothing new at 0.25 yet
	tick(ctx, s, 0.8)
	assert.Equal(t, []FootSide{FootLeft, FootRight}, c.steps)

	// 0.1 -> 0.3 crosses the left foot again after the wrap
	tick(ctx, s, 0.2)
	assert.Equal(t, []FootSide{FootLeft, FootRight, FootLeft}, c.steps)

	// a whole loop in one tick fires each marker once, in playback order
	tick(ctx, s, 1)
	assert.Equal(t, []FootSide{FootLeft, FootRight, FootLeft, FootRight, FootLeft}, c.steps)
	assert.Len(t, ctx.Fired(), 2)
}

func TestSingleFiresBackwards(t *testing.T) {
	c := newFakeCharacter("kid")
	clip := rampClip("walk", 1, "hips")
	clip.Events = []Event{NewEvent(EventFootstep, 0.5, "", 0, nil)}
	s := NewSingle(clip)
	ctx := NewContext()
	ctx.Target = c
	ctx.Speed.Set("rewind", -1)

	tick(ctx, s, 0.4)
	assert.Empty(t, c.steps)
	tick(ctx, s, 0.2)
	assert.Len(t, c.steps, 1)
}

func newPair(t *testing.T, weights ...float64) (*Mixer, []*Weight) {
	t.Helper()
	a := NewSingle(constClip("a", 1, Vec3{}, "hips"))
	b := NewSingle(constClip("b", 1, Vec3{X: 2}, "hips"))
	ws := []*Weight{NewWeight(weights[0]), NewWeight(weights[1])}
	m, err := NewMixer("pair", []Node{a, b}, ws)
	require.NoError(t, err)
	return m, ws
}

func TestMixerBlendsLinearChannels(t *testing.T) {
	cases := []struct {
		name string
		wa   float64
		wb   float64
		want float64
	}{
		{"only_a", 1, 0, 0},
		{"only_b", 0, 1, 2},
		{"half", 0.5, 0.5, 1},
		{"quarter", 0.75, 0.25, 0.5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m, _ := newPair(t, c.wa, c.wb)
			tick(NewContext(), m, 0.1)
			got, ok := sampleFor(m, "hips", ChannelPosition)
			require.True(t, ok)
			assert.True(t, got.Set)
			assert.Equal(t, Vec3{X: c.want}, got.Vec)
		})
	}
}

func TestMixerBlendsRotations(t *testing.T) {
	qa := QuatFromEuler(0, 0, 0)
	qb := QuatFromEuler(0, 90, 0)
	a := NewSingle(&Clip{Name: "a", Duration: 1, Tracks: []Track{NewTrack("head", ChannelRotation, TrackKey{Rot: qa})}})
	b := NewSingle(&Clip{Name: "b", Duration: 1, Tracks: []Track{NewTrack("head", ChannelRotation, TrackKey{Rot: qb})}})
	ws := []*Weight{NewWeight(1), NewWeight(0)}
	m, err := NewMixer("look", []Node{a, b}, ws)
	require.NoError(t, err)
	ctx := NewContext()

	tick(ctx, m, 0.1)
	got, _ := sampleFor(m, "head", ChannelRotation)
	assert.Equal(t, a.Samples()[0].Rot, got.Rot)

	ws[0].Value, ws[1].Value = 0, 1
	tick(ctx, m, 0.1)
	got, _ = sampleFor(m, "head", ChannelRotation)
	assert.Equal(t, b.Samples()[0].Rot, got.Rot)

	ws[0].Value, ws[1].Value = 0.5, 0.5
	tick(ctx, m, 0.1)
	got, _ = sampleFor(m, "head", ChannelRotation)
	want := QuatFromEuler(0, 45, 0)
	assert.InDelta(t, 1, math.Abs(got.Rot.Dot(want)), 1e-9)
}

func TestMixerAdvancesZeroWeightChildren(t *testing.T) {
	a := NewSingle(rampClip("a", 1, "hips"))
	b := NewSingle(rampClip("b", 1, "hips"))
	ws := []*Weight{NewWeight(1), NewWeight(0)}
	m, err := NewMixer("pair", []Node{a, b}, ws)
	require.NoError(t, err)

	tick(NewContext(), m, 0.3)
	assert.InDelta(t, 0.3, a.NormalizedTime(), 1e-9)
	assert.InDelta(t, 0.3, b.NormalizedTime(), 1e-9)
}

func TestMixerEventsComeFromDriver(t *testing.T) {
	c := newFakeCharacter("kid")
	ca := rampClip("a", 1, "hips")
	ca.Events = []Event{NewEvent(EventFootstep, 0.2, "", 0, nil)}
	cb := rampClip("b", 1, "hips")
	cb.Events = []Event{NewEvent(EventFootstep, 0.2, "", 1, nil)}
	ws := []*Weight{NewWeight(0.3), NewWeight(0.7)}
	m, err := NewMixer("pair", []Node{NewSingle(ca), NewSingle(cb)}, ws)
	require.NoError(t, err)

	ctx := NewContext()
	ctx.Target = c
	tick(ctx, m, 0.5)
	assert.Equal(t, []FootSide{FootRight}, c.steps)
}

func TestMixerDisjointChannels(t *testing.T) {
	a := NewSingle(constClip("a", 1, Vec3{X: 1}, "hips"))
	b := NewSingle(constClip("b", 1, Vec3{Y: 1}, "tail"))
	m, err := NewMixer("mixed", []Node{a, b}, []*Weight{NewWeight(1), NewWeight(0)})
	require.NoError(t, err)
	tick(NewContext(), m, 0.1)

	hips, _ := sampleFor(m, "hips", ChannelPosition)
	tail, _ := sampleFor(m, "tail", ChannelPosition)
	assert.True(t, hips.Set)
	assert.False(t, tail.Set, "no weighted child drives the tail")
}

func TestMixerCurvesFollowDriver(t *testing.T) {
	a := NewSingle(rampClip("a", 1, "hips"))
	b := NewSingle(rampClip("b", 4, "hips"))
	ws := []*Weight{NewWeight(0), NewWeight(1)}
	m, err := NewMixer("pair", []Node{a, b}, ws)
	require.NoError(t, err)
	SetCurve(m, "emotion", NewCurve(Key{0, 0}, Key{1, 1}))

	tick(NewContext(), m, 1)
	assert.InDelta(t, 0.25, m.NormalizedTime(), 1e-9)
	c, ok := m.Curve(BindHash("emotion"))
	require.True(t, ok)
	assert.InDelta(t, 0.25, c.Sample(m.NormalizedTime()), 1e-9)
}

func TestBlendTreeScenario(t *testing.T) {
	idle := NewSingle(constClip("idle", 1, Vec3{}, "hips"))
	walk := NewSingle(constClip("walk", 1, Vec3{X: 1}, "hips"))
	run := NewSingle(constClip("run", 1, Vec3{X: 2}, "hips"))
	m, err := NewBlendTree("locomotion", []Node{idle, walk, run}, []float64{0, 1, 2})
	require.NoError(t, err)

	m.SetBlendPosition(1.5)
	assert.InDeltaSlice(t, []float64{0, 0.5, 0.5}, weightValues(m.Weights()), 1e-9)
	tick(NewContext(), m, 0.1)
	got, _ := sampleFor(m, "hips", ChannelPosition)
	assert.InDelta(t, 1.5, got.Vec.X, 1e-9)

	m.SetBlendPosition(0)
	assert.InDeltaSlice(t, []float64{1, 0, 0}, weightValues(m.Weights()), 1e-9)
}

func TestNewMixerValidation(t *testing.T) {
	a := NewSingle(constClip("a", 1, Vec3{}, "hips"))
	_, err := NewMixer("empty", nil, nil)
	assert.ErrorIs(t, err, ErrNoChildren)
	_, err = NewMixer("short", []Node{a}, nil)
	assert.ErrorIs(t, err, ErrChildWeightLength)
	_, err = NewMixer("nil", []Node{nil}, []*Weight{NewWeight(1)})
	assert.ErrorIs(t, err, ErrNilChild)
	_, err = NewMixer("trans", []Node{NewTransition(a, a, 1)}, []*Weight{NewWeight(1)})
	assert.ErrorIs(t, err, ErrTransitionChild)
}

func TestTransitionBlend(t *testing.T) {
	from := NewSingle(constClip("from", 1, Vec3{X: 4}, "hips"))
	to := NewSingle(constClip("to", 1, Vec3{X: 8}, "hips"))
	tr := NewTransition(from, to, 1)
	ctx := NewContext()

	tick(ctx, tr, 0)
	got, _ := sampleFor(tr, "hips", ChannelPosition)
	assert.Equal(t, 4.0, got.Vec.X)
	assert.Zero(t, tr.Ratio())

	tick(ctx, tr, 0.25)
	got, _ = sampleFor(tr, "hips", ChannelPosition)
	assert.InDelta(t, 5, got.Vec.X, 1e-9)
	assert.Nil(t, ctx.takePending())

	tick(ctx, tr, 1)
	got, _ = sampleFor(tr, "hips", ChannelPosition)
	assert.Equal(t, 8.0, got.Vec.X)
	assert.True(t, tr.Done())
	assert.Equal(t, Node(to), ctx.takePending())
}

func TestTransitionFreezesFrom(t *testing.T) {
	from := NewSingle(rampClip("from", 1, "hips"))
	ctx := NewContext()
	tick(ctx, from, 0.5)

	to := NewSingle(constClip("to", 1, Vec3{X: 10}, "hips"))
	tr := NewTransition(from, to, 2)
	tick(ctx, tr, 0)
	tick(ctx, tr, 0)
	got, _ := sampleFor(tr, "hips", ChannelPosition)
	assert.InDelta(t, 0.5, got.Vec.X, 1e-9)
	assert.InDelta(t, 0.5, from.NormalizedTime(), 1e-9)
}

func TestTransitionZeroDuration(t *testing.T) {
	from := NewSingle(constClip("from", 1, Vec3{X: 4}, "hips"))
	to := NewSingle(constClip("to", 1, Vec3{X: 8}, "hips"))
	tr := NewTransition(from, to, 0)
	ctx := NewContext()
	tick(ctx, tr, 0.01)
	assert.Equal(t, 1.0, tr.Ratio())
	got, _ := sampleFor(tr, "hips", ChannelPosition)
	assert.Equal(t, 8.0, got.Vec.X)
}

func TestMixerRejectsSharedNodes(t *testing.T) {
	walk := NewSingle(rampClip("walk", 1, "hips"))
	run := NewSingle(rampClip("run", 1, "hips"))
	loco, err := NewBlendTree("loco", []Node{walk, run}, []float64{0, 1})
	require.NoError(t, err)

	_, err = NewBlendTree("outer", []Node{loco, walk}, []float64{0, 1})
	assert.ErrorIs(t, err, ErrSharedChild)

	_, err = NewMixer("twice", []Node{walk, walk}, []*Weight{{}, {}})
	assert.ErrorIs(t, err, ErrSharedChild)

	_, err = NewMixer("nested", []Node{loco, loco}, []*Weight{{}, {}})
	assert.ErrorIs(t, err, ErrSharedChild)

	other := NewSingle(rampClip("other", 1, "hips"))
	outer, err := NewBlendTree("outer", []Node{loco, other}, []float64{0, 1})
	require.NoError(t, err)
	ctx := NewContext()
	tick(ctx, outer, 0.1)
	assert.InDelta(t, 0.1, walk.NormalizedTime(), 1e-9, "each leaf advances once per tick")
}

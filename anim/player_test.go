package anim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type playerFixture struct {
	player *Player
	layer  *Layer
	rig    *fakeRig
	lib    *MapLibrary
	log    interface{ String() string }
}

func newPlayerFixture(t *testing.T) *playerFixture {
	t.Helper()
	logger, buf := quietLogger()
	lib := NewMapLibrary()
	p := NewPlayer("kid", lib)
	p.Logger = logger
	layer := NewLayer(0, "body")
	rig := newFakeRig([]string{"hips", "head"}, "smile")
	require.NoError(t, p.BindAnimationLayer(layer, rig))
	return &playerFixture{player: p, layer: layer, rig: rig, lib: lib, log: buf}
}

func (f *playerFixture) single(clip *Clip) *Single {
	s := NewSingle(clip)
	f.layer.Add(s)
	f.lib.Add("kid", clip.Name, s)
	return s
}

func TestBindAnimationLayerRejectsNil(t *testing.T) {
	p := NewPlayer("kid", nil)
	assert.ErrorIs(t, p.BindAnimationLayer(nil, newFakeRig(nil)), ErrNilLayer)
	assert.ErrorIs(t, p.BindAnimationLayer(NewLayer(0, "body"), nil), ErrNilRig)
	assert.False(t, p.Bound())
}

func TestPlayFirstStateActivatesDirectly(t *testing.T) {
	f := newPlayerFixture(t)
	idle := f.single(constClip("idle", 1, Vec3{X: 3}, "hips"))

	require.NoError(t, f.player.Play(nil, "kid", "idle"))
	assert.Equal(t, Node(idle), f.player.Current())
	assert.Equal(t, Node(idle), f.player.Active())
	assert.Equal(t, 1.0, f.player.TransitionNormTime())

	f.player.Animate(0.1)
	assert.Equal(t, Vec3{X: 3}, f.rig.bones["hips"].pos)
}

func TestPlaySameStateIsNoop(t *testing.T) {
	f := newPlayerFixture(t)
	idle := f.single(constClip("idle", 1, Vec3{}, "hips"))

	require.NoError(t, f.player.PlayNode(idle))
	active := f.player.Active()
	assert.ErrorIs(t, f.player.PlayNode(idle), ErrAlreadyPlaying)
	assert.Equal(t, active, f.player.Active())
	assert.Nil(t, f.player.Last())
}

func TestPlayRejectsBadStates(t *testing.T) {
	f := newPlayerFixture(t)
	idle := f.single(constClip("idle", 1, Vec3{}, "hips"))
	require.NoError(t, f.player.PlayNode(idle))

	assert.ErrorIs(t, f.player.PlayNode(nil), ErrNilState)
	assert.Equal(t, Node(idle), f.player.Current())

	foreign := NewSingle(constClip("wave", 1, Vec3{}, "hips"))
	NewLayer(1, "arms").Add(foreign)
	assert.ErrorIs(t, f.player.PlayNode(foreign), ErrForeignLayer)

	orphan := NewSingle(constClip("orphan", 1, Vec3{}, "hips"))
	assert.ErrorIs(t, f.player.PlayNode(orphan), ErrForeignLayer)

	assert.ErrorIs(t, f.player.Play(nil, "kid", "nope"), ErrNotFound)
	assert.Equal(t, Node(idle), f.player.Current())
	assert.Contains(t, f.log.String(), "nope")
}

func TestPlayOnUnboundPlayer(t *testing.T) {
	logger, _ := quietLogger()
	p := NewPlayer("kid", nil)
	p.Logger = logger
	idle := NewSingle(constClip("idle", 1, Vec3{}, "hips"))
	assert.ErrorIs(t, p.PlayNode(idle), ErrUnbound)
	assert.ErrorIs(t, p.Play(nil, "kid", "idle"), ErrNoLibrary)
	p.Animate(0.1)
	assert.Nil(t, p.Current())
}

func TestPlayCrossFades(t *testing.T) {
	f := newPlayerFixture(t)
	idle := f.single(constClip("idle", 1, Vec3{X: 0}, "hips"))
	walk := f.single(constClip("walk", 1, Vec3{X: 4}, "hips"))
	SetTransitionTime(walk, 1)

	var changes []int
	f.player.OnAnimationChange = func(layer int) { changes = append(changes, layer) }

	require.NoError(t, f.player.PlayNode(idle))
	f.player.Animate(0.1)
	require.NoError(t, f.player.PlayNode(walk))
	assert.Equal(t, []int{0, 0}, changes)
	assert.Equal(t, Node(idle), f.player.Last())

	tr, ok := f.player.Active().(*Transition)
	require.True(t, ok)
	assert.Equal(t, Node(walk), tr.To())

	f.player.Animate(0.5)
	assert.InDelta(t, 0.5, f.player.TransitionNormTime(), 1e-9)
	assert.InDelta(t, 2, f.rig.bones["hips"].pos.X, 1e-9)

	f.player.Animate(0.5)
	assert.Equal(t, 4.0, f.rig.bones["hips"].pos.X)
	assert.Equal(t, Node(walk), f.player.Active())
	assert.Equal(t, 1.0, f.player.TransitionNormTime())
	assert.Empty(t, f.player.Context().Transitions())
}

func TestPlayWithTransitionOverridesDuration(t *testing.T) {
	f := newPlayerFixture(t)
	idle := f.single(constClip("idle", 1, Vec3{}, "hips"))
	walk := f.single(constClip("walk", 1, Vec3{X: 4}, "hips"))
	SetTransitionTime(walk, 10)

	require.NoError(t, f.player.PlayNode(idle))
	require.NoError(t, f.player.PlayWithTransition(namedSource("ui"), "kid", "walk", 0.5))
	tr := f.player.Active().(*Transition)
	assert.Equal(t, 0.5, tr.Duration())
	assert.Equal(t, Source(namedSource("ui")), f.player.Context().Source)
}

func TestFailedPlayKeepsSource(t *testing.T) {
	f := newPlayerFixture(t)
	f.single(constClip("idle", 1, Vec3{}, "hips"))
	stray := NewSingle(constClip("stray", 1, Vec3{}, "hips"))
	f.lib.Add("kid", "stray", stray)
	kid := newFakeCharacter("kid")

	require.NoError(t, f.player.Play(kid, "kid", "idle"))
	require.Equal(t, Source(kid), f.player.Context().Source)

	tests := []struct {
		name string
		key  string
		want error
	}{
		{"already playing", "idle", ErrAlreadyPlaying},
		{"foreign layer", "stray", ErrForeignLayer},
		{"missing key", "backflip", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.player.Play(namedSource("cup"), "kid", tt.key)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, Source(kid), f.player.Context().Source)
		})
	}
}

func TestNestedTransitions(t *testing.T) {
	f := newPlayerFixture(t)
	a := f.single(constClip("a", 1, Vec3{X: 0}, "hips"))
	b := f.single(constClip("b", 1, Vec3{X: 4}, "hips"))
	c := f.single(constClip("c", 1, Vec3{X: 8}, "hips"))
	SetTransitionTime(b, 1)
	SetTransitionTime(c, 1)

	require.NoError(t, f.player.PlayNode(a))
	require.NoError(t, f.player.PlayNode(b))
	f.player.Animate(0.5)
	require.NoError(t, f.player.PlayNode(c))
	assert.Len(t, f.player.Context().Transitions(), 2)

	outer := f.player.Active().(*Transition)
	_, nested := outer.From().(*Transition)
	assert.True(t, nested)

	f.player.Animate(1)
	assert.Equal(t, Node(c), f.player.Active())
	assert.Empty(t, f.player.Context().Transitions())
	assert.Equal(t, 8.0, f.rig.bones["hips"].pos.X)
}

func TestAutoChain(t *testing.T) {
	f := newPlayerFixture(t)
	idle := f.single(constClip("idle", 1, Vec3{}, "hips"))
	jump := f.single(constClip("jump", 0.5, Vec3{Y: 1}, "hips"))
	SetNextState(jump, idle)
	SetNextState(idle, idle)
	SetTransitionTime(idle, 0.2)

	changes := 0
	f.player.OnAnimationChange = func(int) { changes++ }

	require.NoError(t, f.player.PlayNode(jump))
	for i := 0; i < 4; i++ {
		f.player.Animate(0.1)
	}
	assert.Equal(t, Node(jump), f.player.Current())

	for i := 0; i < 40; i++ {
		f.player.Animate(0.1)
	}
	assert.Equal(t, Node(idle), f.player.Current())
	assert.Equal(t, 2, changes, "idle is entered exactly once")
	assert.Greater(t, idle.Loops(), 1)
}

func TestPauseAndResume(t *testing.T) {
	f := newPlayerFixture(t)
	walk := f.single(rampClip("walk", 1, "hips"))
	idle := f.single(constClip("idle", 1, Vec3{}, "hips"))

	require.NoError(t, f.player.PlayNode(walk))
	f.player.Animate(0.25)
	f.player.Pause()
	assert.True(t, f.player.Paused())
	f.player.Animate(0.25)
	assert.InDelta(t, 0.25, walk.NormalizedTime(), 1e-9)

	f.player.Resume()
	f.player.Animate(0.25)
	assert.InDelta(t, 0.5, walk.NormalizedTime(), 1e-9)

	f.player.Pause()
	require.NoError(t, f.player.PlayNode(idle))
	assert.False(t, f.player.Paused(), "a new play clears the pause")
}

func TestStop(t *testing.T) {
	f := newPlayerFixture(t)
	walk := f.single(rampClip("walk", 1, "hips"))
	require.NoError(t, f.player.PlayNode(walk))
	f.player.Animate(0.25)
	before := f.rig.bones["hips"].sets

	f.player.Stop()
	f.player.Animate(0.25)
	assert.Nil(t, f.player.Current())
	assert.Nil(t, f.player.Active())
	assert.Equal(t, before, f.rig.bones["hips"].sets)

	require.NoError(t, f.player.PlayNode(walk))
	assert.Equal(t, Node(walk), f.player.Active(), "first play after stop activates directly")
}

func TestBindingsSkipMissingTargets(t *testing.T) {
	f := newPlayerFixture(t)
	clip := &Clip{Name: "face", Duration: 1, Tracks: []Track{
		NewTrack("head", ChannelRotation, TrackKey{Rot: QuatFromEuler(0, 30, 0)}),
		NewTrack("tail", ChannelPosition, TrackKey{Vec: Vec3{X: 1}}),
		NewTrack("smile", ChannelBlendShape, TrackKey{Scalar: 0.7}),
		NewTrack("frown", ChannelBlendShape, TrackKey{Scalar: 0.2}),
		NewTrack("hips", ChannelScale, TrackKey{Vec: Vec3{X: 5, Y: 5, Z: 5}}),
	}}
	face := f.single(clip)

	require.NoError(t, f.player.PlayNode(face))
	assert.NotPanics(t, func() { f.player.Animate(0.1) })
	assert.InDelta(t, 1, f.rig.bones["head"].rot.Dot(QuatFromEuler(0, 30, 0)), 1e-9)
	assert.Equal(t, []float64{0.7}, f.rig.weights)
	assert.Zero(t, f.rig.bones["hips"].sets, "scale is never applied")
}

func TestRebindKeepsActiveState(t *testing.T) {
	f := newPlayerFixture(t)
	idle := f.single(constClip("idle", 1, Vec3{X: 2}, "hips"))
	require.NoError(t, f.player.PlayNode(idle))

	other := newFakeRig([]string{"hips"})
	require.NoError(t, f.player.BindAnimationLayer(f.layer, other))
	f.player.Animate(0.1)
	assert.Equal(t, Vec3{X: 2}, other.bones["hips"].pos)
}

func TestCallbacksOrder(t *testing.T) {
	f := newPlayerFixture(t)
	idle := f.single(constClip("idle", 1, Vec3{X: 2}, "hips"))
	require.NoError(t, f.player.PlayNode(idle))

	var order []string
	f.player.OnModifyAnimation = func(p *Player) {
		order = append(order, "modify")
		assert.Equal(t, Vec3{X: 2}, f.rig.bones["hips"].pos, "pose is applied first")
	}
	f.player.OnAnimate = func(*Player) { order = append(order, "animate") }
	f.player.Animate(0.1)
	assert.Equal(t, []string{"modify", "animate"}, order)
}

func TestSampleCurve(t *testing.T) {
	f := newPlayerFixture(t)
	sad := f.single(constClip("sad", 1, Vec3{}, "hips"))
	happy := f.single(constClip("happy", 1, Vec3{}, "hips"))
	SetCurve(sad, "emotion", NewConstantCurve(0))
	SetCurve(happy, "emotion", NewConstantCurve(1))
	SetTransitionTime(happy, 1)

	assert.Equal(t, 0.3, f.player.SampleCurveNamed("emotion", 0.3), "nothing playing")

	require.NoError(t, f.player.PlayNode(sad))
	assert.Equal(t, 0.0, f.player.SampleCurveNamed("emotion", 0.3))
	assert.Equal(t, 0.3, f.player.SampleCurveNamed("missing", 0.3))

	require.NoError(t, f.player.PlayNode(happy))
	f.player.Animate(0.25)
	assert.InDelta(t, 0.25, f.player.SampleCurveNamed("emotion", 0.3), 1e-9)

	f.player.Animate(1)
	assert.Equal(t, 1.0, f.player.SampleCurveNamed("emotion", 0.3))
}

func TestEventsReachCharacter(t *testing.T) {
	f := newPlayerFixture(t)
	c := newFakeCharacter("kid")
	f.player.SetCharacter(c)

	clip := constClip("wave", 1, Vec3{}, "hips")
	clip.Events = []Event{NewEvent(EventFunction, 0.5, "wave", 0, nil)}
	f.single(clip)

	require.NoError(t, f.player.Play(c, "kid", "wave"))
	f.player.Animate(0.6)
	assert.Equal(t, []string{"wave"}, c.calls)
}

func TestSpeedOverrides(t *testing.T) {
	var s Speed
	assert.Equal(t, 1.0, s.Value())
	s.Set("slowmo", 0.5)
	s.Set("haste", 3)
	assert.InDelta(t, 1.5, s.Value(), 1e-9)
	s.Set("pause", 0)
	assert.Zero(t, s.Value())
	s.Remove("pause")
	assert.InDelta(t, 1.5, s.Value(), 1e-9)
}

package animset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/animgraph/anim"
)

type testSource string

func (s testSource) SourceName() string { return string(s) }

func instantiateKid(t *testing.T, layer *anim.Layer, resolve SourceResolver) *Library {
	t.Helper()
	reg, err := LoadDefaults()
	require.NoError(t, err)
	lib, err := reg.Instantiate(layer, resolve)
	require.NoError(t, err)
	return lib
}

func TestInstantiateBuildsGraph(t *testing.T) {
	layer := anim.NewLayer(0, "body")
	lib := instantiateKid(t, layer, nil)

	assert.Equal(t, []string{"kid"}, lib.BodySets())
	assert.Equal(t, []string{"drink", "idle", "jump", "locomotion", "mood", "run", "walk"}, lib.Keys("kid"))

	for _, key := range lib.Keys("kid") {
		n, err := lib.Lookup("kid", key)
		require.NoError(t, err, key)
		assert.True(t, layer.Owns(n), key)
	}

	jump, err := lib.Lookup("kid", "jump")
	require.NoError(t, err)
	loco, err := lib.Lookup("kid", "locomotion")
	require.NoError(t, err)
	assert.Same(t, loco, jump.NextState())
	assert.InDelta(t, 0.1, jump.TransitionTime(), 1e-9)

	idle, err := lib.Lookup("kid", "idle")
	require.NoError(t, err)
	assert.Same(t, idle, idle.NextState())
}

func TestInstantiateBlendTree(t *testing.T) {
	lib := instantiateKid(t, anim.NewLayer(0, "body"), nil)

	m, ok := lib.Mixer("kid", "locomotion")
	require.True(t, ok)
	require.NotNil(t, m.Blend())
	assert.Equal(t, []float64{0, 1, 2}, m.Blend().Positions())

	m.SetBlendPosition(1.5)
	ws := m.Weights()
	assert.InDelta(t, 0, ws[0].Value, 1e-9)
	assert.InDelta(t, 0.5, ws[1].Value, 1e-9)
	assert.InDelta(t, 0.5, ws[2].Value, 1e-9)

	_, ok = lib.Mixer("kid", "walk")
	assert.False(t, ok)
}

func TestInstantiateNamedWeights(t *testing.T) {
	lib := instantiateKid(t, anim.NewLayer(0, "body"), nil)

	m, ok := lib.Mixer("kid", "mood")
	require.True(t, ok)
	assert.Nil(t, m.Blend())

	calm, ok := lib.Weight("kid", "calm")
	require.True(t, ok)
	cheer, ok := lib.Weight("kid", "cheer")
	require.True(t, ok)

	ws := m.Weights()
	assert.Same(t, calm, ws[0])
	assert.Same(t, cheer, ws[1])
	assert.Equal(t, 1.0, calm.Value)
	assert.Equal(t, 0.0, cheer.Value)

	_, ok = lib.Weight("kid", "grumpy")
	assert.False(t, ok)
}

func TestSeededMixerPosesWithoutBlendTargets(t *testing.T) {
	layer := anim.NewLayer(0, "body")
	lib := instantiateKid(t, layer, nil)

	p := anim.NewPlayer("kid", lib)
	hips := &stubTransform{}
	rig := &stubRig{transforms: map[string]anim.Transform{"hips": hips}}
	require.NoError(t, p.BindAnimationLayer(layer, rig))
	require.NoError(t, p.Play(nil, "kid", "mood"))

	p.Animate(0.1)
	assert.Greater(t, hips.pos.Y, 0.9, "calm starts at full weight")
}

func TestInstantiateIsPerLayer(t *testing.T) {
	a := instantiateKid(t, anim.NewLayer(0, "a"), nil)
	b := instantiateKid(t, anim.NewLayer(1, "b"), nil)

	na, err := a.Lookup("kid", "walk")
	require.NoError(t, err)
	nb, err := b.Lookup("kid", "walk")
	require.NoError(t, err)

	assert.NotSame(t, na, nb)
	assert.Equal(t, 0, na.Layer().Index)
	assert.Equal(t, 1, nb.Layer().Index)
}

func TestInstantiateResolvesEventSources(t *testing.T) {
	cup := testSource("cup")
	lib := instantiateKid(t, anim.NewLayer(0, "body"), func(name string) anim.Source {
		if name == "cup" {
			return cup
		}
		return nil
	})

	n, err := lib.Lookup("kid", "drink")
	require.NoError(t, err)
	single, ok := n.(*anim.Single)
	require.True(t, ok)
	require.Len(t, single.Clip().Events, 1)
	ev := single.Clip().Events[0]
	assert.Equal(t, anim.EventFunction, ev.Type)
	assert.Equal(t, "sip", ev.Param1)
	assert.Equal(t, cup, ev.Source)

	n, err = lib.Lookup("kid", "wave")
	require.NoError(t, err)
	assert.Nil(t, n.(*anim.Single).Clip().Events[0].Source)
}

func TestLookupSuggestions(t *testing.T) {
	lib := instantiateKid(t, anim.NewLayer(0, "body"), nil)

	tests := []struct {
		name    string
		bodySet string
		key     string
		contain string
	}{
		{name: "typo", bodySet: "kid", key: "wallk", contain: "did you mean walk"},
		{name: "case", bodySet: "kid", key: "Jump", contain: "did you mean jump"},
		{name: "body set typo", bodySet: "kidd", key: "walk", contain: "did you mean kid"},
		{name: "nothing close", bodySet: "kid", key: "backflip", contain: "kid/backflip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lib.Lookup(tt.bodySet, tt.key)
			require.Error(t, err)
			assert.ErrorIs(t, err, anim.ErrNotFound)
			assert.Contains(t, err.Error(), tt.contain)
		})
	}

	var missing *Library
	_, err := missing.Lookup("kid", "walk")
	assert.ErrorIs(t, err, anim.ErrNotFound)
}

func TestSuggestRanking(t *testing.T) {
	got := suggest("ru", []string{"run", "rub", "idle", "r"})
	assert.Equal(t, []string{"r", "rub", "run"}, got)
	assert.Empty(t, suggest("zzzzzz", []string{"idle", "walk"}))
}

func TestInstantiateMixerCycle(t *testing.T) {
	spec := &SetSpec{
		BodySet: "loop",
		Clips:   []ClipSpec{{Name: "idle", Duration: 1}},
		Mixers: []MixerSpec{
			{Name: "a", Children: []string{"idle", "b"}, Weights: []string{"x", "y"}},
			{Name: "b", Children: []string{"idle", "a"}, Weights: []string{"x", "y"}},
		},
	}
	reg := NewRegistry()
	assert.ErrorIs(t, reg.Register(spec), ErrMixerCycle)

	reg.sets[spec.BodySet] = spec
	_, err := reg.Instantiate(anim.NewLayer(0, "body"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMixerCycle)
}

func TestInstantiatedPlayback(t *testing.T) {
	layer := anim.NewLayer(0, "body")
	lib := instantiateKid(t, layer, nil)

	p := anim.NewPlayer("kid", lib)
	rig := &stubRig{transforms: map[string]anim.Transform{"hips": &stubTransform{}}}
	require.NoError(t, p.BindAnimationLayer(layer, rig))
	require.NoError(t, p.Play(nil, "kid", "idle"))

	p.Animate(0.1)
	hips := rig.transforms["hips"].(*stubTransform)
	assert.Greater(t, hips.pos.Y, 0.9)
}

type stubTransform struct {
	pos anim.Vec3
	rot anim.Quat
}

func (s *stubTransform) SetLocalPosition(v anim.Vec3) { s.pos = v }
func (s *stubTransform) SetLocalRotation(q anim.Quat) { s.rot = q }

type stubRig struct {
	transforms map[string]anim.Transform
}

func (r *stubRig) Transforms() map[string]anim.Transform { return r.transforms }
func (r *stubRig) BlendShapes() []string                 { return nil }
func (r *stubRig) SetBlendShapeWeight(int, float64)      {}

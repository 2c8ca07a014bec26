package anim

import (
	"bytes"
	"errors"
	"log"
)

type fakeTransform struct {
	pos  Vec3
	rot  Quat
	sets int
}

func (f *fakeTransform) SetLocalPosition(v Vec3) { f.pos = v; f.sets++ }

func (f *fakeTransform) SetLocalRotation(q Quat) { f.rot = q; f.sets++ }

type fakeRig struct {
	bones   map[string]*fakeTransform
	shapes  []string
	weights []float64
}

func newFakeRig(bones []string, shapes ...string) *fakeRig {
	r := &fakeRig{bones: map[string]*fakeTransform{}, shapes: shapes, weights: make([]float64, len(shapes))}
	for _, b := range bones {
		r.bones[b] = &fakeTransform{rot: IdentityQuat}
	}
	return r
}

func (r *fakeRig) Transforms() map[string]Transform {
	out := make(map[string]Transform, len(r.bones))
	for k, v := range r.bones {
		out[k] = v
	}
	return out
}

func (r *fakeRig) BlendShapes() []string { return r.shapes }

func (r *fakeRig) SetBlendShapeWeight(i int, w float64) { r.weights[i] = w }

type namedSource string

func (s namedSource) SourceName() string { return string(s) }

type fakeCharacter struct {
	name      string
	speaking  bool
	voices    []string
	steps     []FootSide
	calls     []string
	held      map[Source]bool
	callErr   error
	panicWith any
	errs      []error
}

func newFakeCharacter(name string) *fakeCharacter {
	return &fakeCharacter{name: name, held: map[Source]bool{}}
}

func (c *fakeCharacter) SourceName() string { return c.name }

func (c *fakeCharacter) Speaking() bool { return c.speaking }

func (c *fakeCharacter) PlayVoice(group string) {
	c.voices = append(c.voices, group)
	c.speaking = true
}

func (c *fakeCharacter) Footstep(side FootSide) { c.steps = append(c.steps, side) }

func (c *fakeCharacter) Holds(item Source) bool { return c.held[item] }

func (c *fakeCharacter) CallFunction(src Source, name string, arg int) error {
	if c.panicWith != nil {
		panic(c.panicWith)
	}
	c.calls = append(c.calls, name)
	return c.callErr
}

func (c *fakeCharacter) ReportScriptError(src Source, err error) { c.errs = append(c.errs, err) }

var errScript = errors.New("script failed")

// constClip is a clip whose tracks hold one value for its whole length.
func constClip(name string, duration float64, pos Vec3, bones ...string) *Clip {
	c := &Clip{Name: name, Duration: duration}
	for _, b := range bones {
		c.Tracks = append(c.Tracks, NewTrack(b, ChannelPosition, TrackKey{Time: 0, Vec: pos}))
	}
	return c
}

// rampClip moves bone from x=0 at the start to x=1 at the end.
func rampClip(name string, duration float64, bone string) *Clip {
	return &Clip{
		Name:     name,
		Duration: duration,
		Tracks: []Track{NewTrack(bone, ChannelPosition,
			TrackKey{Time: 0, Vec: Vec3{}},
			TrackKey{Time: 1, Vec: Vec3{X: 1}},
		)},
	}
}

func quietLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.New(&buf, "", 0), &buf
}

func sampleFor(n Node, bind string, kind ChannelKind) (Sample, bool) {
	h := BindHash(bind)
	for _, s := range n.Samples() {
		if s.BindHash == h && s.Kind == kind {
			return s, true
		}
	}
	return Sample{}, false
}

package animset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/milk9111/animgraph/anim"
)

// SourceResolver maps an authored event source name (an item id) to the
// runtime source. Returning nil leaves the event unattributed.
type SourceResolver func(name string) anim.Source

// Library is one layer's instantiated node graphs, keyed by body set and
// state name. Nodes hold playback cursors, so each player gets its own.
type Library struct {
	layer   *anim.Layer
	nodes   map[string]map[string]anim.Node
	weights map[string]map[string]*anim.Weight
}

var _ anim.Library = (*Library)(nil)

func newLibrary(layer *anim.Layer) *Library {
	return &Library{
		layer:   layer,
		nodes:   map[string]map[string]anim.Node{},
		weights: map[string]map[string]*anim.Weight{},
	}
}

func (l *Library) Layer() *anim.Layer { return l.layer }

// Lookup implements anim.Library. Misses carry the closest known keys.
func (l *Library) Lookup(bodySet, key string) (anim.Node, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: %s/%s", anim.ErrNotFound, bodySet, key)
	}
	if n, ok := l.nodes[bodySet][key]; ok {
		return n, nil
	}
	if _, ok := l.nodes[bodySet]; !ok {
		if s := suggest(bodySet, l.BodySets()); len(s) > 0 {
			return nil, fmt.Errorf("%w: body set %q (did you mean %s?)", anim.ErrNotFound, bodySet, strings.Join(s, ", "))
		}
		return nil, fmt.Errorf("%w: body set %q", anim.ErrNotFound, bodySet)
	}
	if s := l.Suggest(bodySet, key); len(s) > 0 {
		return nil, fmt.Errorf("%w: %s/%s (did you mean %s?)", anim.ErrNotFound, bodySet, key, strings.Join(s, ", "))
	}
	return nil, fmt.Errorf("%w: %s/%s", anim.ErrNotFound, bodySet, key)
}

// Mixer returns the mixer named key.
func (l *Library) Mixer(bodySet, key string) (*anim.Mixer, bool) {
	n, ok := l.nodes[bodySet][key]
	if !ok {
		return nil, false
	}
	m, ok := n.(*anim.Mixer)
	return m, ok
}

// Weight returns a named mixer weight declared by the set.
func (l *Library) Weight(bodySet, name string) (*anim.Weight, bool) {
	w, ok := l.weights[bodySet][name]
	return w, ok
}

// Keys lists the state names of a body set.
func (l *Library) Keys(bodySet string) []string {
	out := make([]string, 0, len(l.nodes[bodySet]))
	for k := range l.nodes[bodySet] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (l *Library) BodySets() []string {
	out := make([]string, 0, len(l.nodes))
	for k := range l.nodes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Suggest returns up to three keys of bodySet close to key.
func (l *Library) Suggest(bodySet, key string) []string {
	return suggest(key, l.Keys(bodySet))
}

func suggest(in string, candidates []string) []string {
	type scored struct {
		key  string
		dist int
	}
	in = strings.ToLower(strings.TrimSpace(in))
	var hits []scored
	for _, c := range candidates {
		dist := levenshtein.ComputeDistance(in, strings.ToLower(c))
		if dist > levenshteinLimit(len(c)) {
			continue
		}
		hits = append(hits, scored{key: c, dist: dist})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].key < hits[j].key
	})
	out := make([]string, 0, 3)
	for _, h := range hits {
		if len(out) == 3 {
			break
		}
		out = append(out, h.key)
	}
	return out
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// instantiate builds fresh nodes for spec into l.
func (l *Library) instantiate(spec *SetSpec, resolve SourceResolver) error {
	nodes := map[string]anim.Node{}
	weights := map[string]*anim.Weight{}

	for _, cs := range spec.Clips {
		clip := &anim.Clip{Name: cs.Name, Duration: cs.Duration, Curves: map[string]*anim.Curve{}}
		for _, ts := range cs.Tracks {
			clip.Tracks = append(clip.Tracks, ts.build())
		}
		for _, es := range cs.Events {
			clip.Events = append(clip.Events, es.build(resolve))
		}
		for name, c := range cs.Curves {
			clip.Curves[name] = c.build()
		}
		single := anim.NewSingle(clip)
		anim.SetTransitionTime(single, cs.Transition)
		nodes[cs.Name] = single
	}

	mixers := map[string]MixerSpec{}
	for _, ms := range spec.Mixers {
		mixers[ms.Name] = ms
	}
	building := map[string]bool{}
	var build func(name string) (anim.Node, error)
	build = func(name string) (anim.Node, error) {
		if n, ok := nodes[name]; ok {
			return n, nil
		}
		ms, ok := mixers[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownState, name)
		}
		if building[name] {
			return nil, fmt.Errorf("%w: %s", ErrMixerCycle, name)
		}
		building[name] = true
		defer delete(building, name)

		children := make([]anim.Node, 0, len(ms.Children))
		for _, child := range ms.Children {
			n, err := build(child)
			if err != nil {
				return nil, err
			}
			children = append(children, n)
		}

		var m *anim.Mixer
		var err error
		if len(ms.Positions) == len(ms.Children) {
			m, err = anim.NewBlendTree(ms.Name, children, ms.Positions)
		} else {
			ws := make([]*anim.Weight, len(ms.Weights))
			for i, wn := range ms.Weights {
				w, ok := weights[wn]
				if !ok {
					w = anim.NewWeight(ms.Initial[wn])
					weights[wn] = w
				}
				ws[i] = w
			}
			m, err = anim.NewMixer(ms.Name, children, ws)
		}
		if err != nil {
			return nil, fmt.Errorf("animset: mixer %s: %w", ms.Name, err)
		}
		anim.SetTransitionTime(m, ms.Transition)
		for cname, c := range ms.Curves {
			anim.SetCurve(m, cname, c.build())
		}
		nodes[name] = m
		return m, nil
	}
	for _, ms := range spec.Mixers {
		if _, err := build(ms.Name); err != nil {
			return err
		}
	}

	for _, cs := range spec.Clips {
		if cs.Next != "" {
			anim.SetNextState(nodes[cs.Name], nodes[cs.Next])
		}
	}
	for _, ms := range spec.Mixers {
		if ms.Next != "" {
			anim.SetNextState(nodes[ms.Name], nodes[ms.Next])
		}
	}

	for _, n := range nodes {
		l.layer.Add(n)
	}
	l.nodes[spec.BodySet] = nodes
	l.weights[spec.BodySet] = weights
	return nil
}

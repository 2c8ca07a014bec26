package animset

import (
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/animgraph/anim"
)

var (
	ErrNoBodySet       = errors.New("animset: body_set is required")
	ErrDuplicateName   = errors.New("animset: duplicate state name")
	ErrUnknownState    = errors.New("animset: unknown state")
	ErrBadDuration     = errors.New("animset: clip duration must be positive")
	ErrBadChannel      = errors.New("animset: unknown channel kind")
	ErrBadEvent        = errors.New("animset: unknown event type")
	ErrMixerCycle      = errors.New("animset: mixer references itself")
	ErrMixerWeightSpec = errors.New("animset: mixer needs positions or weights for every child")
	ErrBadEase         = errors.New("animset: unknown easing")
	ErrSharedChild     = errors.New("animset: state appears more than once under a mixer")
	ErrUnknownWeight   = errors.New("animset: initial value for an undeclared weight")
)

// SetSpec is one authored body set: the clips and mixers a character of
// that body type can play.
type SetSpec struct {
	BodySet string      `yaml:"body_set"`
	Script  string      `yaml:"script"`
	Clips   []ClipSpec  `yaml:"clips"`
	Mixers  []MixerSpec `yaml:"mixers"`
}

type ClipSpec struct {
	Name       string               `yaml:"name"`
	Duration   float64              `yaml:"duration"`
	Transition float64              `yaml:"transition"`
	Next       string               `yaml:"next"`
	Curves     map[string]CurveSpec `yaml:"curves"`
	Tracks     []TrackSpec          `yaml:"tracks"`
	Events     []EventSpec          `yaml:"events"`
}

type MixerSpec struct {
	Name       string               `yaml:"name"`
	Children   []string             `yaml:"children"`
	Positions  []float64            `yaml:"positions"`
	Weights    []string             `yaml:"weights"`
	Initial    map[string]float64   `yaml:"initial"`
	Transition float64              `yaml:"transition"`
	Next       string               `yaml:"next"`
	Curves     map[string]CurveSpec `yaml:"curves"`
}

// CurveSpec is one of: explicit keys, a constant, a midpoint dip or an easing.
type CurveSpec struct {
	Keys     [][2]float64  `yaml:"keys"`
	Constant *float64      `yaml:"constant"`
	Midpoint *MidpointSpec `yaml:"midpoint"`
	Ease     *EaseSpec     `yaml:"ease"`
}

type MidpointSpec struct {
	Value  float64 `yaml:"value"`
	Smooth float64 `yaml:"smooth"`
}

type TrackSpec struct {
	Bind string    `yaml:"bind"`
	Kind string    `yaml:"kind"`
	Keys []KeySpec `yaml:"keys"`
}

// KeySpec is a keyframe. Position and scale keys use V, rotation keys use Q
// (x, y, z, w) or Euler degrees, blendshape keys use W.
type KeySpec struct {
	T     float64     `yaml:"t"`
	V     [3]float64  `yaml:"v"`
	Q     *[4]float64 `yaml:"q"`
	Euler *[3]float64 `yaml:"euler"`
	W     float64     `yaml:"w"`
}

type EventSpec struct {
	Type   string  `yaml:"type"`
	At     float64 `yaml:"at"`
	Param1 string  `yaml:"param1"`
	Param2 int     `yaml:"param2"`
	Source string  `yaml:"source"`
}

// LoadSetSpec loads and validates a body set file.
func LoadSetSpec(name string) (*SetSpec, error) {
	data, err := Load(name)
	if err != nil {
		return nil, fmt.Errorf("animset: load %s: %w", name, err)
	}
	spec, err := ParseSetSpec(data)
	if err != nil {
		return nil, fmt.Errorf("animset: %s: %w", name, err)
	}
	return spec, nil
}

// ParseSetSpec decodes and validates yaml set data.
func ParseSetSpec(data []byte) (*SetSpec, error) {
	var spec SetSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("animset: unmarshal: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate checks names, references, channel kinds and event types.
func (s *SetSpec) Validate() error {
	if s.BodySet == "" {
		return ErrNoBodySet
	}
	names := map[string]bool{}
	for _, c := range s.Clips {
		if names[c.Name] || c.Name == "" {
			return fmt.Errorf("%w: %q", ErrDuplicateName, c.Name)
		}
		names[c.Name] = true
		if c.Duration <= 0 {
			return fmt.Errorf("%w: %s", ErrBadDuration, c.Name)
		}
		for _, tr := range c.Tracks {
			if _, ok := anim.ParseChannelKind(tr.Kind); !ok {
				return fmt.Errorf("%w: %s.%s %q", ErrBadChannel, c.Name, tr.Bind, tr.Kind)
			}
		}
		for _, ev := range c.Events {
			if _, ok := anim.ParseEventType(ev.Type); !ok {
				return fmt.Errorf("%w: %s %q", ErrBadEvent, c.Name, ev.Type)
			}
		}
		if err := validateCurves(c.Name, c.Curves); err != nil {
			return err
		}
	}
	for _, m := range s.Mixers {
		if names[m.Name] || m.Name == "" {
			return fmt.Errorf("%w: %q", ErrDuplicateName, m.Name)
		}
		names[m.Name] = true
		if len(m.Positions) != len(m.Children) && len(m.Weights) != len(m.Children) {
			return fmt.Errorf("%w: %s", ErrMixerWeightSpec, m.Name)
		}
		if err := validateCurves(m.Name, m.Curves); err != nil {
			return err
		}
		for name := range m.Initial {
			if !slices.Contains(m.Weights, name) {
				return fmt.Errorf("%w: %s.%s", ErrUnknownWeight, m.Name, name)
			}
		}
	}
	for _, m := range s.Mixers {
		for _, child := range m.Children {
			if child == m.Name {
				return fmt.Errorf("%w: %s", ErrMixerCycle, m.Name)
			}
			if !names[child] {
				return fmt.Errorf("%w: %s child %q", ErrUnknownState, m.Name, child)
			}
		}
		if m.Next != "" && !names[m.Next] {
			return fmt.Errorf("%w: %s next %q", ErrUnknownState, m.Name, m.Next)
		}
	}
	for _, c := range s.Clips {
		if c.Next != "" && !names[c.Next] {
			return fmt.Errorf("%w: %s next %q", ErrUnknownState, c.Name, c.Next)
		}
	}
	return s.validateSubtrees()
}

// validateSubtrees rejects mixer cycles and any state reachable twice from
// the same mixer, which would advance its clock twice per tick.
func (s *SetSpec) validateSubtrees() error {
	children := map[string][]string{}
	for _, m := range s.Mixers {
		children[m.Name] = m.Children
	}

	done := map[string]bool{}
	path := map[string]bool{}
	var cycle func(name string) error
	cycle = func(name string) error {
		if path[name] {
			return fmt.Errorf("%w: %s", ErrMixerCycle, name)
		}
		if done[name] {
			return nil
		}
		path[name] = true
		for _, child := range children[name] {
			if err := cycle(child); err != nil {
				return err
			}
		}
		delete(path, name)
		done[name] = true
		return nil
	}
	for _, m := range s.Mixers {
		if err := cycle(m.Name); err != nil {
			return err
		}
	}

	for _, m := range s.Mixers {
		seen := map[string]bool{}
		var walk func(name string) error
		walk = func(name string) error {
			if seen[name] {
				return fmt.Errorf("%w: %s under %s", ErrSharedChild, name, m.Name)
			}
			seen[name] = true
			for _, child := range children[name] {
				if err := walk(child); err != nil {
					return err
				}
			}
			return nil
		}
		for _, child := range m.Children {
			if err := walk(child); err != nil {
				return err
			}
		}
	}
	return nil
}

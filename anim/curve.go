package anim

import (
	"sort"

	"github.com/milk9111/animgraph/common"
)

// Key is a single (position, value) pair on a Curve.
type Key struct {
	Position float64
	Value    float64
}

// Curve is a piecewise-linear scalar function over normalized time.
// Curves are immutable once built.
type Curve struct {
	keys []Key
}

// NewCurve sorts keys by position. A curve always has at least one key; an
// empty key list yields a constant zero curve.
func NewCurve(keys ...Key) *Curve {
	if len(keys) == 0 {
		return &Curve{keys: []Key{{Position: 0, Value: 0}}}
	}
	copied := append([]Key(nil), keys...)
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Position < copied[j].Position
	})
	return &Curve{keys: copied}
}

// NewConstantCurve returns a single-key curve.
func NewConstantCurve(value float64) *Curve {
	return &Curve{keys: []Key{{Position: 0, Value: value}}}
}

// NewMidpointCurve holds 1 at both edges and dips to value in the middle.
// smooth is the width of each ramp and must be in (0, 0.5]; anything else
// gives a constant curve.
func NewMidpointCurve(value, smooth float64) *Curve {
	if smooth <= 0 || smooth > 0.5 {
		return NewConstantCurve(value)
	}
	return &Curve{keys: []Key{
		{Position: 0, Value: 1},
		{Position: smooth, Value: value},
		{Position: 1 - smooth, Value: value},
		{Position: 1, Value: 1},
	}}
}

// Keys returns a copy of the curve keys.
func (c *Curve) Keys() []Key {
	if c == nil {
		return nil
	}
	return append([]Key(nil), c.keys...)
}

// Sample evaluates the curve. Positions outside the keyed range clamp to the
// nearest key; between keys the value is an unclamped lerp, so authored
// values beyond [0,1] pass through untouched.
func (c *Curve) Sample(position float64) float64 {
	if c == nil || len(c.keys) == 0 {
		return 0
	}
	first := c.keys[0]
	if position <= first.Position {
		return first.Value
	}
	last := c.keys[len(c.keys)-1]
	if position >= last.Position {
		return last.Value
	}

	upper := sort.Search(len(c.keys), func(i int) bool {
		return c.keys[i].Position > position
	})
	lower := c.keys[upper-1]
	hi := c.keys[upper]
	span := hi.Position - lower.Position
	if span <= 0 {
		return hi.Value
	}
	return common.Lerp(lower.Value, hi.Value, (position-lower.Position)/span)
}

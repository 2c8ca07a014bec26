package anim

import (
	"sort"
)

// TrackKey is one keyframe of a Track at a normalized time.
type TrackKey struct {
	Time   float64
	Vec    Vec3
	Rot    Quat
	Scalar float64
}

// Track holds the keyframes of a single channel of a single target.
type Track struct {
	Bind string
	Kind ChannelKind
	Keys []TrackKey
}

// NewTrack sorts keys by time.
func NewTrack(bind string, kind ChannelKind, keys ...TrackKey) Track {
	copied := append([]TrackKey(nil), keys...)
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Time < copied[j].Time
	})
	if kind == ChannelRotation {
		for i := range copied {
			copied[i].Rot = copied[i].Rot.Normalize()
		}
	}
	return Track{Bind: bind, Kind: kind, Keys: copied}
}

// sampleInto writes the track value at normalized time t into s.
func (tr *Track) sampleInto(t float64, s *Sample) {
	s.Set = true
	if len(tr.Keys) == 0 {
		s.Vec, s.Rot, s.Scalar = Vec3{}, IdentityQuat, 0
		return
	}
	a, b, f := tr.bracket(t)
	key := Sample{Kind: tr.Kind, Vec: a.Vec, Rot: a.Rot, Scalar: a.Scalar}
	if f > 0 {
		key = blendSample(key, Sample{Kind: tr.Kind, Vec: b.Vec, Rot: b.Rot, Scalar: b.Scalar}, f)
	}
	s.Vec, s.Rot, s.Scalar = key.Vec, key.Rot, key.Scalar
}

func (tr *Track) bracket(t float64) (TrackKey, TrackKey, float64) {
	first := tr.Keys[0]
	if t <= first.Time {
		return first, first, 0
	}
	last := tr.Keys[len(tr.Keys)-1]
	if t >= last.Time {
		return last, last, 0
	}
	upper := sort.Search(len(tr.Keys), func(i int) bool {
		return tr.Keys[i].Time > t
	})
	lo, hi := tr.Keys[upper-1], tr.Keys[upper]
	span := hi.Time - lo.Time
	if span <= 0 {
		return hi, hi, 0
	}
	return lo, hi, (t - lo.Time) / span
}

// Clip is raw authored animation data: duration in seconds, tracks, a sorted
// event timeline and named scalar curves.
type Clip struct {
	Name     string
	Duration float64
	Tracks   []Track
	Events   []Event
	Curves   map[string]*Curve
}

// SortEvents orders the event timeline by position.
func (c *Clip) SortEvents() {
	sort.SliceStable(c.Events, func(i, j int) bool {
		return c.Events[i].Position < c.Events[j].Position
	})
}

// HasDuplicateEvents reports whether two events on the timeline are equal.
func (c *Clip) HasDuplicateEvents() bool {
	for i := range c.Events {
		for j := i + 1; j < len(c.Events); j++ {
			if c.Events[i].Equal(c.Events[j]) {
				return true
			}
		}
	}
	return false
}

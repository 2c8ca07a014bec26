package anim

import (
	"hash/fnv"
	"math"

	"github.com/milk9111/animgraph/common"
)

// ChannelKind is the kind of value a sample drives.
type ChannelKind uint8

const (
	ChannelPosition ChannelKind = iota
	ChannelRotation
	// ChannelScale is sampled and blended but never applied to a target.
	ChannelScale
	ChannelBlendShape
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelPosition:
		return "position"
	case ChannelRotation:
		return "rotation"
	case ChannelScale:
		return "scale"
	case ChannelBlendShape:
		return "blendshape"
	default:
		return "unknown"
	}
}

// ParseChannelKind maps authoring names to channel kinds.
func ParseChannelKind(s string) (ChannelKind, bool) {
	switch s {
	case "position", "pos":
		return ChannelPosition, true
	case "rotation", "rot":
		return ChannelRotation, true
	case "scale":
		return ChannelScale, true
	case "blendshape", "blend_shape", "shape":
		return ChannelBlendShape, true
	default:
		return 0, false
	}
}

// BindHash is the stable key a sample uses to find its target. FNV-1a is
// only required to be stable for one binding session.
func BindHash(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return h.Sum32()
}

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func LerpVec3(a, b Vec3, t float64) Vec3 {
	return Vec3{
		X: common.Lerp(a.X, b.X, t),
		Y: common.Lerp(a.Y, b.Y, t),
		Z: common.Lerp(a.Z, b.Z, t),
	}
}

// Quat is a rotation quaternion.
type Quat struct {
	X, Y, Z, W float64
}

var IdentityQuat = Quat{W: 1}

func (q Quat) Dot(o Quat) float64 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

func (q Quat) Normalize() Quat {
	l := math.Sqrt(q.Dot(q))
	if l == 0 {
		return IdentityQuat
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	p := Quat{X: v.X, Y: v.Y, Z: v.Z}
	r := q.Mul(p).Mul(Quat{-q.X, -q.Y, -q.Z, q.W})
	return Vec3{r.X, r.Y, r.Z}
}

// QuatFromEuler builds a rotation from angles in degrees applied Z, X, then Y.
func QuatFromEuler(x, y, z float64) Quat {
	rad := math.Pi / 180
	qx := Quat{X: math.Sin(x * rad / 2), W: math.Cos(x * rad / 2)}
	qy := Quat{Y: math.Sin(y * rad / 2), W: math.Cos(y * rad / 2)}
	qz := Quat{Z: math.Sin(z * rad / 2), W: math.Cos(z * rad / 2)}
	return qy.Mul(qx).Mul(qz)
}

// Slerp interpolates along the shortest arc. t == 0 returns a and t == 1
// returns b unchanged.
func Slerp(a, b Quat, t float64) Quat {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	d := a.Dot(b)
	if d < 0 {
		b = Quat{-b.X, -b.Y, -b.Z, -b.W}
		d = -d
	}
	if d > 0.9995 {
		return Quat{
			X: common.Lerp(a.X, b.X, t),
			Y: common.Lerp(a.Y, b.Y, t),
			Z: common.Lerp(a.Z, b.Z, t),
			W: common.Lerp(a.W, b.W, t),
		}.Normalize()
	}
	theta := math.Acos(d)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin
	return Quat{
		X: a.X*wa + b.X*wb,
		Y: a.Y*wa + b.Y*wb,
		Z: a.Z*wa + b.Z*wb,
		W: a.W*wa + b.W*wb,
	}
}

// Sample is one output slot of a node: which target it drives, the channel
// kind and the value sampled this tick. Set is false when no contributing
// source wrote the slot; such slots are skipped at apply time.
type Sample struct {
	Bind     string
	BindHash uint32
	Kind     ChannelKind
	Vec      Vec3
	Rot      Quat
	Scalar   float64
	Set      bool
}

type slotKey struct {
	hash uint32
	kind ChannelKind
}

func (s Sample) key() slotKey {
	return slotKey{hash: s.BindHash, kind: s.Kind}
}

// blendSample returns lerp(a, b, t) for the channel kind of a.
func blendSample(a, b Sample, t float64) Sample {
	out := a
	switch a.Kind {
	case ChannelRotation:
		out.Rot = Slerp(a.Rot, b.Rot, t)
	case ChannelBlendShape:
		out.Scalar = common.Lerp(a.Scalar, b.Scalar, t)
	default:
		out.Vec = LerpVec3(a.Vec, b.Vec, t)
	}
	if t >= 1 {
		out.Vec, out.Rot, out.Scalar = b.Vec, b.Rot, b.Scalar
	}
	out.Set = true
	return out
}

// unionSlots merges slot layouts keeping first-seen order.
func unionSlots(layouts ...[]Sample) ([]Sample, map[slotKey]int) {
	index := map[slotKey]int{}
	var out []Sample
	for _, layout := range layouts {
		for _, s := range layout {
			k := s.key()
			if _, ok := index[k]; ok {
				continue
			}
			index[k] = len(out)
			out = append(out, Sample{Bind: s.Bind, BindHash: s.BindHash, Kind: s.Kind, Rot: IdentityQuat})
		}
	}
	return out, index
}

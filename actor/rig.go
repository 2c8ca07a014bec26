package actor

import (
	"errors"
	"fmt"

	"github.com/milk9111/animgraph/anim"
)

var (
	ErrDuplicateBone = errors.New("actor: duplicate bone")
	ErrUnknownParent = errors.New("actor: unknown parent bone")
)

// Bone is one joint of a Rig. Animation writes its local pose; Rest is the
// offset from the parent when nothing animates it.
type Bone struct {
	Name   string
	Parent int
	Rest   anim.Vec3
	Pos    anim.Vec3
	Rot    anim.Quat
	posSet bool
}

func (b *Bone) SetLocalPosition(v anim.Vec3) {
	b.Pos = v
	b.posSet = true
}

func (b *Bone) SetLocalRotation(q anim.Quat) { b.Rot = q }

// Local returns the bone's local offset, falling back to its rest offset.
func (b *Bone) Local() anim.Vec3 {
	if b.posSet {
		return b.Pos
	}
	return b.Rest
}

// ResetPose puts the bone back at rest.
func (b *Bone) ResetPose() {
	b.Pos = anim.Vec3{}
	b.Rot = anim.IdentityQuat
	b.posSet = false
}

// Rig is a bone hierarchy with named blendshapes. Bones are stored parent
// first so world poses can be evaluated in one pass.
type Rig struct {
	bones   []*Bone
	byName  map[string]int
	shapes  []string
	weights []float64
}

var _ anim.Rig = (*Rig)(nil)

func NewRig() *Rig {
	return &Rig{byName: map[string]int{}}
}

// AddBone appends a bone. parent is empty for a root.
func (r *Rig) AddBone(name, parent string, rest anim.Vec3) (*Bone, error) {
	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateBone, name)
	}
	pi := -1
	if parent != "" {
		idx, ok := r.byName[parent]
		if !ok {
			return nil, fmt.Errorf("%w: %s of %s", ErrUnknownParent, parent, name)
		}
		pi = idx
	}
	b := &Bone{Name: name, Parent: pi, Rest: rest, Rot: anim.IdentityQuat}
	r.byName[name] = len(r.bones)
	r.bones = append(r.bones, b)
	return b, nil
}

// AddBlendShape registers a blendshape and returns its index.
func (r *Rig) AddBlendShape(name string) int {
	for i, s := range r.shapes {
		if s == name {
			return i
		}
	}
	r.shapes = append(r.shapes, name)
	r.weights = append(r.weights, 0)
	return len(r.shapes) - 1
}

func (r *Rig) Bone(name string) (*Bone, bool) {
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.bones[i], true
}

func (r *Rig) Bones() []*Bone { return r.bones }

func (r *Rig) Transforms() map[string]anim.Transform {
	out := make(map[string]anim.Transform, len(r.bones))
	for _, b := range r.bones {
		out[b.Name] = b
	}
	return out
}

func (r *Rig) BlendShapes() []string { return r.shapes }

func (r *Rig) SetBlendShapeWeight(index int, weight float64) {
	if index < 0 || index >= len(r.weights) {
		return
	}
	r.weights[index] = weight
}

func (r *Rig) BlendShapeWeight(name string) float64 {
	for i, s := range r.shapes {
		if s == name {
			return r.weights[i]
		}
	}
	return 0
}

func (r *Rig) ResetPose() {
	for _, b := range r.bones {
		b.ResetPose()
	}
	for i := range r.weights {
		r.weights[i] = 0
	}
}

// Joint is a bone evaluated in model space.
type Joint struct {
	Name   string
	Parent int
	Pos    anim.Vec3
	Rot    anim.Quat
}

// WorldPose evaluates every bone in model space.
func (r *Rig) WorldPose() []Joint {
	out := make([]Joint, len(r.bones))
	for i, b := range r.bones {
		local := b.Local()
		if b.Parent < 0 {
			out[i] = Joint{Name: b.Name, Parent: -1, Pos: local, Rot: b.Rot}
			continue
		}
		p := out[b.Parent]
		out[i] = Joint{
			Name:   b.Name,
			Parent: b.Parent,
			Pos:    p.Pos.Add(p.Rot.Rotate(local)),
			Rot:    p.Rot.Mul(b.Rot).Normalize(),
		}
	}
	return out
}

// NewKidRig builds the small humanoid the bundled "kid" set animates.
func NewKidRig() *Rig {
	r := NewRig()
	must := func(name, parent string, rest anim.Vec3) {
		if _, err := r.AddBone(name, parent, rest); err != nil {
			panic(err)
		}
	}
	must("hips", "", anim.Vec3{Y: 1})
	must("spine", "hips", anim.Vec3{Y: 0.35})
	must("head", "spine", anim.Vec3{Y: 0.3})
	must("l_arm", "spine", anim.Vec3{X: -0.2, Y: 0.25})
	must("l_hand", "l_arm", anim.Vec3{Y: -0.45})
	must("r_arm", "spine", anim.Vec3{X: 0.2, Y: 0.25})
	must("r_hand", "r_arm", anim.Vec3{Y: -0.45})
	must("l_thigh", "hips", anim.Vec3{X: -0.1})
	must("l_foot", "l_thigh", anim.Vec3{Y: -0.9})
	must("r_thigh", "hips", anim.Vec3{X: 0.1})
	must("r_foot", "r_thigh", anim.Vec3{Y: -0.9})
	r.AddBlendShape("blink")
	r.AddBlendShape("smile")
	return r
}

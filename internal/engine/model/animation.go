package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Animator supplies per-frame animation transforms to the renderer.
type Animator interface {
	// FinalBoneTransforms returns skinning matrices indexed by joint.
	FinalBoneTransforms() []mgl32.Mat4
	// UnskinnedTransforms returns model-space transforms keyed by node (submesh) name.
	UnskinnedTransforms() map[string]mgl32.Mat4
}

// Pose is a fixed Animator.
type Pose struct {
	Bones []mgl32.Mat4
	Nodes map[string]mgl32.Mat4
}

// FinalBoneTransforms returns Bones.
func (p *Pose) FinalBoneTransforms() []mgl32.Mat4 { return p.Bones }

// UnskinnedTransforms returns Nodes.
func (p *Pose) UnskinnedTransforms() map[string]mgl32.Mat4 { return p.Nodes }

// RotationKey is a rotation keyframe.
type RotationKey struct {
	Time     float32
	Rotation mgl32.Quat
}

// VectorKey is a translation or scale keyframe.
type VectorKey struct {
	Time  float32
	Value mgl32.Vec3
}

// Track animates one node. Keys must be sorted by time (seconds).
type Track struct {
	Node      string
	Parent    string
	Rotations []RotationKey
	Positions []VectorKey
	Scales    []VectorKey
}

// Clip is a named set of tracks.
type Clip struct {
	Name     string
	Duration float32
	Tracks   []Track
}

// bracket finds the keys around t and the blend factor between them.
func bracket(n int, keyTime func(int) float32, t float32) (prev, next int, f float32) {
	for i := 0; i < n; i++ {
		if keyTime(i) > t {
			next = i
			break
		}
		prev = i
		next = i
	}
	if prev == next {
		return prev, next, 0
	}
	t0, t1 := keyTime(prev), keyTime(next)
	if t1 != t0 {
		f = (t - t0) / (t1 - t0)
	}
	return prev, next, f
}

// InterpolateRotation interpolates rotation keyframes at time t.
func InterpolateRotation(keys []RotationKey, t float32) mgl32.Quat {
	if len(keys) == 0 {
		return mgl32.QuatIdent()
	}
	prev, next, f := bracket(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if prev == next {
		return keys[prev].Rotation
	}
	return mgl32.QuatSlerp(keys[prev].Rotation, keys[next].Rotation, f)
}

// InterpolateVector interpolates translation or scale keyframes at time t.
func InterpolateVector(keys []VectorKey, t float32, fallback mgl32.Vec3) mgl32.Vec3 {
	if len(keys) == 0 {
		return fallback
	}
	prev, next, f := bracket(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if prev == next {
		return keys[prev].Value
	}
	a, b := keys[prev].Value, keys[next].Value
	return a.Add(b.Sub(a).Mul(f))
}

// Local returns the track's local transform: Translation * Rotation * Scale.
func (tr *Track) Local(t float32) mgl32.Mat4 {
	pos := InterpolateVector(tr.Positions, t, mgl32.Vec3{})
	rot := InterpolateRotation(tr.Rotations, t)
	scale := InterpolateVector(tr.Scales, t, mgl32.Vec3{1, 1, 1})
	return mgl32.Translate3D(pos[0], pos[1], pos[2]).
		Mul4(rot.Mat4()).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// HasAnimation reports whether a clip has any track with more than one key.
// Clips with only single keys are static poses.
func HasAnimation(c *Clip) bool {
	if c == nil || c.Duration <= 0 {
		return false
	}
	for i := range c.Tracks {
		tr := &c.Tracks[i]
		if len(tr.Rotations) > 1 || len(tr.Positions) > 1 || len(tr.Scales) > 1 {
			return true
		}
	}
	return false
}

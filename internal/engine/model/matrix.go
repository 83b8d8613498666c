package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// KeyframeAnimator plays a Clip over an optional skeleton.
// Transforms are recomputed only when the playback time changes, so a paused
// animator costs nothing per frame.
type KeyframeAnimator struct {
	Clip     *Clip
	Skeleton []Joint
	Playing  bool
	Loop     bool

	time   float32
	dirty  bool
	bones  []mgl32.Mat4
	nodes  map[string]mgl32.Mat4
	tracks map[string]*Track
	joints map[string]*Joint
}

// NewAnimator creates a playing, looping animator at time 0.
func NewAnimator(clip *Clip, skeleton []Joint) *KeyframeAnimator {
	a := &KeyframeAnimator{
		Clip:     clip,
		Skeleton: skeleton,
		Playing:  true,
		Loop:     true,
		dirty:    true,
		tracks:   make(map[string]*Track),
		joints:   make(map[string]*Joint),
	}
	if clip != nil {
		for i := range clip.Tracks {
			a.tracks[clip.Tracks[i].Node] = &clip.Tracks[i]
		}
	}
	for i := range skeleton {
		a.joints[skeleton[i].Name] = &skeleton[i]
	}
	return a
}

// Time returns the playback position in seconds.
func (a *KeyframeAnimator) Time() float32 { return a.time }

// SetTime moves the playback position.
func (a *KeyframeAnimator) SetTime(t float32) {
	if a.Clip != nil && a.Clip.Duration > 0 {
		if a.Loop {
			t = float32(math.Mod(float64(t), float64(a.Clip.Duration)))
			if t < 0 {
				t += a.Clip.Duration
			}
		} else {
			t = min(max(t, 0), a.Clip.Duration)
		}
	}
	if t != a.time {
		a.time = t
		a.dirty = true
	}
}

// Update advances playback by dt seconds while playing.
func (a *KeyframeAnimator) Update(dt float32) {
	if !a.Playing {
		return
	}
	a.SetTime(a.time + dt)
}

// FinalBoneTransforms returns the skinning palette at the current time.
func (a *KeyframeAnimator) FinalBoneTransforms() []mgl32.Mat4 {
	a.evaluate()
	return a.bones
}

// UnskinnedTransforms returns the model-space transform of every animated node by name.
func (a *KeyframeAnimator) UnskinnedTransforms() map[string]mgl32.Mat4 {
	a.evaluate()
	return a.nodes
}

func (a *KeyframeAnimator) evaluate() {
	if !a.dirty {
		return
	}
	a.dirty = false

	globals := make(map[string]mgl32.Mat4, len(a.tracks)+len(a.joints))
	for name := range a.tracks {
		a.global(name, globals, make(map[string]bool))
	}
	for name := range a.joints {
		a.global(name, globals, make(map[string]bool))
	}

	a.nodes = make(map[string]mgl32.Mat4, len(a.tracks))
	for name := range a.tracks {
		a.nodes[name] = globals[name]
	}

	a.bones = a.bones[:0]
	for i := range a.Skeleton {
		j := &a.Skeleton[i]
		a.bones = append(a.bones, globals[j.Name].Mul4(j.InverseBind))
	}
}

// global returns parent_global * local for a node, memoized in globals.
func (a *KeyframeAnimator) global(name string, globals map[string]mgl32.Mat4, visited map[string]bool) mgl32.Mat4 {
	if m, ok := globals[name]; ok {
		return m
	}
	// Cycles in malformed hierarchies resolve to identity.
	if visited[name] {
		return mgl32.Ident4()
	}
	visited[name] = true

	local := mgl32.Ident4()
	parent := ""
	if j, ok := a.joints[name]; ok {
		local = j.Rest
		parent = j.Parent
	}
	if tr, ok := a.tracks[name]; ok {
		local = tr.Local(a.time)
		if tr.Parent != "" {
			parent = tr.Parent
		}
	}

	m := local
	if parent != "" && parent != name {
		m = a.global(parent, globals, visited).Mul4(local)
	}
	globals[name] = m
	return m
}

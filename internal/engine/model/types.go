// Package model holds the meshes, models and animation sources submitted to the renderer.
package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxBonesPerModel is the size of the bone palette uploaded per skinned draw.
const MaxBonesPerModel = 100

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyBounds returns inverted bounds that any point extends.
func EmptyBounds() Bounds {
	inf := float32(math.Inf(1))
	return Bounds{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// Empty reports whether no point has been added.
func (b Bounds) Empty() bool {
	return b.Min[0] > b.Max[0]
}

// Extend grows the bounds to include p.
func (b *Bounds) Extend(p mgl32.Vec3) {
	for k := 0; k < 3; k++ {
		b.Min[k] = min(b.Min[k], p[k])
		b.Max[k] = max(b.Max[k], p[k])
	}
}

// Union grows the bounds to include o.
func (b *Bounds) Union(o Bounds) {
	if o.Empty() {
		return
	}
	b.Extend(o.Min)
	b.Extend(o.Max)
}

// Joint is one bone of a skeleton.
type Joint struct {
	Name   string
	Parent string
	// Rest is the joint's local transform when no animation track drives it.
	Rest mgl32.Mat4
	// InverseBind maps model space into the joint's bind space.
	InverseBind mgl32.Mat4
}

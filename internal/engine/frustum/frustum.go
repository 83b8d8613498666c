// Package frustum builds view frustums and tests bounding volumes against them.
//
// Tests are conservative: a volume is reported visible unless it lies entirely
// outside one plane, and a volume touching a plane counts as visible.
package frustum

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane indices.
const (
	Left = iota
	Right
	Bottom
	Top
	Near
	Far
)

// Plane is a bounding plane with its normal pointing into the frustum.
// A point x is inside when Normal.Dot(x) + D >= 0.
type Plane struct {
	Point  mgl32.Vec3
	Normal mgl32.Vec3
	D      float32
}

// Distance returns the signed distance from x to the plane, positive inside.
func (p Plane) Distance(x mgl32.Vec3) float32 {
	return p.Normal.Dot(x) + p.D
}

// Frustum is immutable once built.
type Frustum struct {
	// Corners are indexed by NDC sign bits: bit 0 x, bit 1 y, bit 2 z (0 near, 1 far).
	Corners      [8]mgl32.Vec3
	Planes       [6]Plane
	Min          mgl32.Vec3
	Max          mgl32.Vec3
	Center       mgl32.Vec3
	SphereRadius float32
}

// corner indices of three points on each plane, in Plane index order.
var planeCorners = [6][3]int{
	Left:   {0, 2, 4},
	Right:  {1, 3, 5},
	Bottom: {0, 1, 4},
	Top:    {2, 3, 6},
	Near:   {0, 1, 2},
	Far:    {4, 5, 6},
}

// Build creates the frustum of a camera from its combined view-projection matrix.
func Build(viewProj mgl32.Mat4) Frustum {
	return FromCorners(Unproject(viewProj.Inv()))
}

// Unproject returns the eight NDC cube corners transformed to world space by invViewProj.
func Unproject(invViewProj mgl32.Mat4) [8]mgl32.Vec3 {
	var corners [8]mgl32.Vec3
	for i := range corners {
		ndc := mgl32.Vec4{-1, -1, -1, 1}
		if i&1 != 0 {
			ndc[0] = 1
		}
		if i&2 != 0 {
			ndc[1] = 1
		}
		if i&4 != 0 {
			ndc[2] = 1
		}
		w := invViewProj.Mul4x1(ndc)
		corners[i] = w.Vec3().Mul(1 / w[3])
	}
	return corners
}

// Slice cuts the frustum between two fractions of its near-to-far edge length.
func Slice(corners [8]mgl32.Vec3, from, to float32) [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i := 0; i < 4; i++ {
		edge := corners[i+4].Sub(corners[i])
		out[i] = corners[i].Add(edge.Mul(from))
		out[i+4] = corners[i].Add(edge.Mul(to))
	}
	return out
}

// FromCorners builds a frustum from eight corners laid out as Unproject returns them.
func FromCorners(corners [8]mgl32.Vec3) Frustum {
	f := Frustum{Corners: corners, Min: corners[0], Max: corners[0]}

	var sum mgl32.Vec3
	for _, c := range corners {
		sum = sum.Add(c)
		f.Min = minVec(f.Min, c)
		f.Max = maxVec(f.Max, c)
	}
	f.Center = sum.Mul(1.0 / 8)

	for _, c := range corners {
		f.SphereRadius = max(f.SphereRadius, c.Sub(f.Center).Len())
	}

	for i, idx := range planeCorners {
		a, b, c := corners[idx[0]], corners[idx[1]], corners[idx[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		if n.Dot(f.Center.Sub(a)) < 0 {
			n = n.Mul(-1)
		}
		f.Planes[i] = Plane{Point: a, Normal: n, D: -n.Dot(a)}
	}
	return f
}

// ContainsBox reports whether an axis-aligned box may be visible.
func (f *Frustum) ContainsBox(boxMin, boxMax mgl32.Vec3) bool {
	for _, p := range f.Planes {
		// Corner of the box furthest along the plane normal.
		var pv mgl32.Vec3
		for k := 0; k < 3; k++ {
			if p.Normal[k] >= 0 {
				pv[k] = boxMax[k]
			} else {
				pv[k] = boxMin[k]
			}
		}
		if p.Distance(pv) < 0 {
			return false
		}
	}
	return true
}

// ContainsSphere reports whether a sphere may be visible.
func (f *Frustum) ContainsSphere(center mgl32.Vec3, radius float32) bool {
	for _, p := range f.Planes {
		if p.Distance(center) < -radius {
			return false
		}
	}
	return true
}

// TransformBox returns the axis-aligned bounds of a box after transformation by m.
func TransformBox(m mgl32.Mat4, boxMin, boxMax mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	var outMin, outMax mgl32.Vec3
	for i := 0; i < 8; i++ {
		c := boxMin
		if i&1 != 0 {
			c[0] = boxMax[0]
		}
		if i&2 != 0 {
			c[1] = boxMax[1]
		}
		if i&4 != 0 {
			c[2] = boxMax[2]
		}
		w := mgl32.TransformCoordinate(c, m)
		if i == 0 {
			outMin, outMax = w, w
			continue
		}
		outMin = minVec(outMin, w)
		outMax = maxVec(outMax, w)
	}
	return outMin, outMax
}

func minVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
}

func maxVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}

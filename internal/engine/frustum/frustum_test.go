package frustum

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func cameras() map[string]mgl32.Mat4 {
	persp := mgl32.Perspective(mgl32.DegToRad(60), 16.0/9.0, 0.1, 100)
	return map[string]mgl32.Mat4{
		"origin looking -z": persp.Mul4(mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})),
		"orbit":             persp.Mul4(mgl32.LookAtV(mgl32.Vec3{10, 8, 10}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})),
		"looking down":      persp.Mul4(mgl32.LookAtV(mgl32.Vec3{0, 30, 0}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1})),
		"ortho":             mgl32.Ortho(-20, 20, -10, 10, -50, 50).Mul4(mgl32.LookAtV(mgl32.Vec3{5, 5, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})),
	}
}

func TestOwnBoundsAreVisible(t *testing.T) {
	for name, vp := range cameras() {
		t.Run(name, func(t *testing.T) {
			f := Build(vp)
			assert.True(t, f.ContainsBox(f.Min, f.Max))
			assert.True(t, f.ContainsSphere(f.Center, f.SphereRadius))
		})
	}
}

func TestBoxOutsideEachPlaneIsCulled(t *testing.T) {
	for name, vp := range cameras() {
		t.Run(name, func(t *testing.T) {
			f := Build(vp)
			for i, p := range f.Planes {
				// Move a small box far along the outward normal of the plane.
				c := p.Point.Sub(p.Normal.Mul(1000))
				half := mgl32.Vec3{0.5, 0.5, 0.5}
				assert.False(t, f.ContainsBox(c.Sub(half), c.Add(half)), "plane %d", i)
				assert.False(t, f.ContainsSphere(c, 0.5), "plane %d", i)
			}
		})
	}
}

func TestTouchingPlaneIsVisible(t *testing.T) {
	// Unit cube frustum: world space equals NDC with z flipped, so the near plane is z = 1.
	f := Build(mgl32.Ortho(-1, 1, -1, 1, -1, 1))
	assert.InDelta(t, 1.0, f.Planes[Near].Point[2], 1e-6)

	// Box lying entirely outside the near plane except for its touching face.
	assert.True(t, f.ContainsBox(mgl32.Vec3{-0.5, -0.5, 1}, mgl32.Vec3{0.5, 0.5, 2}))
	assert.False(t, f.ContainsBox(mgl32.Vec3{-0.5, -0.5, 1.001}, mgl32.Vec3{0.5, 0.5, 2}))
	// Sphere tangent to the right plane.
	assert.True(t, f.ContainsSphere(mgl32.Vec3{2, 0, 0}, 1))
}

func TestPlanesPointInward(t *testing.T) {
	f := Build(cameras()["orbit"])
	for i, p := range f.Planes {
		assert.Greater(t, p.Distance(f.Center), float32(0), "plane %d", i)
		assert.InDelta(t, 1.0, p.Normal.Len(), 1e-4, "plane %d normal length", i)
	}
}

func TestSlice(t *testing.T) {
	corners := Unproject(cameras()["origin looking -z"].Inv())

	whole := Slice(corners, 0, 1)
	for i := range corners {
		assert.True(t, whole[i].ApproxEqualThreshold(corners[i], 1e-4), "corner %d", i)
	}

	half := Slice(corners, 0.5, 1)
	mid := corners[0].Add(corners[4]).Mul(0.5)
	assert.True(t, half[0].ApproxEqualThreshold(mid, 1e-3))
	assert.True(t, half[4].ApproxEqualThreshold(corners[4], 1e-4))
}

func TestTransformBox(t *testing.T) {
	tests := []struct {
		name    string
		m       mgl32.Mat4
		wantMin mgl32.Vec3
		wantMax mgl32.Vec3
	}{
		{"identity", mgl32.Ident4(), mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}},
		{"translate", mgl32.Translate3D(5, 0, -2), mgl32.Vec3{4, -1, -3}, mgl32.Vec3{6, 1, -1}},
		{"scale", mgl32.Scale3D(2, 3, 4), mgl32.Vec3{-2, -3, -4}, mgl32.Vec3{2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMin, gotMax := TransformBox(tt.m, mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
			assert.True(t, gotMin.ApproxEqualThreshold(tt.wantMin, 1e-5), "min: got %v, want %v", gotMin, tt.wantMin)
			assert.True(t, gotMax.ApproxEqualThreshold(tt.wantMax, 1e-5), "max: got %v, want %v", gotMax, tt.wantMax)
		})
	}

	// A 45 degree rotation about y widens the box in x and z.
	gotMin, gotMax := TransformBox(mgl32.HomogRotate3DY(mgl32.DegToRad(45)), mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
	assert.InDelta(t, -1.41421, gotMin[0], 1e-4)
	assert.InDelta(t, 1.41421, gotMax[2], 1e-4)
}

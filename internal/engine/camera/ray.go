package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a world-space ray with a normalized direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// ScreenRay converts a viewport pixel (top-left origin) to a world-space ray.
func (s Snapshot) ScreenRay(x, y, width, height float32) Ray {
	ndcX := 2*x/width - 1
	ndcY := 1 - 2*y/height // Flip Y

	inv := s.InvViewProjection()
	near := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, -1}, inv)
	far := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, 1}, inv)

	dir := far.Sub(near)
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	}
	return Ray{Origin: near, Direction: dir}
}

// IntersectPlaneY intersects the ray with the horizontal plane y = planeY.
func (r Ray) IntersectPlaneY(planeY float32) (mgl32.Vec3, bool) {
	if gomath.Abs(float64(r.Direction[1])) < 0.001 {
		return mgl32.Vec3{}, false // parallel
	}
	t := (planeY - r.Origin[1]) / r.Direction[1]
	if t < 0 {
		return mgl32.Vec3{}, false // behind the origin
	}
	return r.At(t), true
}

// IntersectBox tests the ray against an axis-aligned box and returns the entry
// distance, or the exit distance when the ray starts inside.
func (r Ray) IntersectBox(boxMin, boxMax mgl32.Vec3) (float32, bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	for i := 0; i < 3; i++ {
		if r.Direction[i] == 0 {
			if r.Origin[i] < boxMin[i] || r.Origin[i] > boxMax[i] {
				return 0, false
			}
			continue
		}
		t1 := (boxMin[i] - r.Origin[i]) / r.Direction[i]
		t2 := (boxMax[i] - r.Origin[i]) / r.Direction[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// FocusOn moves the orbit center to p, keeping distance and angles.
func (c *OrbitCamera) FocusOn(p mgl32.Vec3) {
	c.Center = p
}

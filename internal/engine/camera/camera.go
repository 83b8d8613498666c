// Package camera provides the camera snapshot consumed by the renderer and an orbit camera for the editor.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Snapshot is the camera state the renderer reads for one frame.
type Snapshot struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Position   mgl32.Vec3
	Near       float32
	Far        float32
}

// ViewProjection returns Projection * View.
func (s Snapshot) ViewProjection() mgl32.Mat4 {
	return s.Projection.Mul4(s.View)
}

// InvViewProjection returns the inverse of ViewProjection.
func (s Snapshot) InvViewProjection() mgl32.Mat4 {
	return s.ViewProjection().Inv()
}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center mgl32.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Lens
	FovY float32 // Vertical field of view, radians
	Near float32
	Far  float32

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        10.0,
		RotationX:       0.5,
		RotationY:       0.6,
		FovY:            mgl32.DegToRad(60),
		Near:            0.1,
		Far:             200.0,
		MinDistance:     1.0,
		MaxDistance:     150.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	x := c.Distance * float32(gomath.Cos(float64(c.RotationX))*gomath.Sin(float64(c.RotationY)))
	y := c.Distance * float32(gomath.Sin(float64(c.RotationX)))
	z := c.Distance * float32(gomath.Cos(float64(c.RotationX))*gomath.Cos(float64(c.RotationY)))
	return c.Center.Add(mgl32.Vec3{x, y, z})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns the perspective projection for a viewport aspect ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// Snapshot captures the camera for a viewport of the given size.
func (c *OrbitCamera) Snapshot(width, height int) Snapshot {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return Snapshot{
		View:       c.ViewMatrix(),
		Projection: c.ProjectionMatrix(aspect),
		Position:   c.Position(),
		Near:       c.Near,
		Far:        c.Far,
	}
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity
	c.RotationX = min(max(c.RotationX, c.MinPitch), c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = min(max(c.Distance, c.MinDistance), c.MaxDistance)
}

// HandlePan moves the center point in the camera's screen plane.
func (c *OrbitCamera) HandlePan(deltaX, deltaY float32) {
	view := c.ViewMatrix()
	right := mgl32.Vec3{view[0], view[4], view[8]}
	up := mgl32.Vec3{view[1], view[5], view[9]}
	speed := c.Distance * 0.002
	c.Center = c.Center.Sub(right.Mul(deltaX * speed)).Add(up.Mul(deltaY * speed))
}

// HandleMovement pans the camera center point based on keyboard input.
func (c *OrbitCamera) HandleMovement(forward, right, up float32) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * 0.01

	dirX := float32(gomath.Sin(float64(c.RotationY)))
	dirZ := float32(gomath.Cos(float64(c.RotationY)))
	rightX := float32(gomath.Cos(float64(c.RotationY)))
	rightZ := float32(-gomath.Sin(float64(c.RotationY)))

	// Negate forward so W moves "into" the scene
	c.Center[0] += (-dirX*forward + rightX*right) * speed
	c.Center[2] += (-dirZ*forward + rightZ*right) * speed
	c.Center[1] += up * speed
}

// FitToBounds adjusts the camera to view the given bounding box.
func (c *OrbitCamera) FitToBounds(boxMin, boxMax mgl32.Vec3) {
	c.Center = boxMin.Add(boxMax).Mul(0.5)
	radius := boxMax.Sub(boxMin).Len() / 2
	halfFov := float64(c.FovY) / 2
	c.Distance = radius / float32(gomath.Sin(halfFov))
	c.Distance = min(max(c.Distance, c.MinDistance), c.MaxDistance)
	c.RotationX = 0.6 // Look down at ~35 degrees
}

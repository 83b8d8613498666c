// Package lighting defines the light sources submitted to the renderer and the per-frame light queue.
package lighting

import (
	"github.com/go-gl/mathgl/mgl32"
)

// DirectionalLight is an infinitely distant light such as the sun.
// Direction points towards the light and is resolved from the owning entity's transform.
type DirectionalLight struct {
	Color       mgl32.Vec3
	Intensity   float32
	Direction   mgl32.Vec3
	CastShadows bool
	// Primary marks the shadow-casting key light used for cascades.
	Primary bool
}

// PointLight radiates in all directions from Position.
type PointLight struct {
	Position    mgl32.Vec3
	Color       mgl32.Vec3
	Intensity   float32
	Radius      float32
	Falloff     float32
	CastShadows bool
}

// SpotLight is a cone light. Cutoffs are half-angles in degrees.
type SpotLight struct {
	Position    mgl32.Vec3
	Direction   mgl32.Vec3
	Color       mgl32.Vec3
	Intensity   float32
	InnerCutoff float32
	OuterCutoff float32
	Radius      float32
}

// WorldDirection resolves the light direction of an entity: the entity's local -Y axis
// transformed as a normal, negated so it points towards the light.
func WorldDirection(transform mgl32.Mat4) mgl32.Vec3 {
	n := transform.Inv().Transpose().Mul4x1(mgl32.Vec4{0, -1, 0, 0}).Vec3()
	if n.Len() == 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	return n.Mul(-1).Normalize()
}

// WorldPosition transforms a local light position by the entity transform.
func WorldPosition(transform mgl32.Mat4, local mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(local, transform)
}

// Resolve returns the light with its direction taken from transform.
func (l DirectionalLight) Resolve(transform mgl32.Mat4) DirectionalLight {
	l.Direction = WorldDirection(transform)
	return l
}

// Resolve returns the light with its position transformed to world space.
func (l PointLight) Resolve(transform mgl32.Mat4) PointLight {
	l.Position = WorldPosition(transform, l.Position)
	return l
}

// Resolve returns the light with world-space position and direction.
func (l SpotLight) Resolve(transform mgl32.Mat4) SpotLight {
	l.Position = WorldPosition(transform, l.Position)
	l.Direction = WorldDirection(transform).Mul(-1)
	return l
}

// ColorIntensity packs colour and intensity for upload.
func ColorIntensity(c mgl32.Vec3, intensity float32) mgl32.Vec4 {
	return mgl32.Vec4{c[0], c[1], c[2], intensity}
}

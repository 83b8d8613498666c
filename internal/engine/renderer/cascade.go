package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/frustum"
	"github.com/Faultbox/prism/internal/engine/model"
)

// cascadeDepthMargin extends every cascade's depth range so casters just outside it still land in the map.
const cascadeDepthMargin = 15

// Cascade is one shadow map's light-space setup for the current frame.
type Cascade struct {
	// Split is the far end of the cascade as a fraction of [near, far].
	Split float32
	// Distance is the far end of the cascade in view-space units.
	Distance float32

	Center mgl32.Vec3
	Radius float32

	View       mgl32.Mat4
	Projection mgl32.Mat4
	ViewProj   mgl32.Mat4
	// Offset is the clip-space translation added to Projection to snap it to texels.
	Offset mgl32.Vec4
}

// CascadeSplits divides [near, far] into count slices, blending the logarithmic and uniform
// split schemes by lambda (0 uniform, 1 logarithmic). The returned fractions are increasing,
// lie in (0, 1] and end at 1.
func CascadeSplits(near, far, lambda float32, count int) []float32 {
	if count <= 0 {
		return nil
	}
	lambda = min(max(lambda, 0), 1)
	splits := make([]float32, count)
	if far <= near || near <= 0 {
		for i := range splits {
			splits[i] = float32(i+1) / float32(count)
		}
		return splits
	}
	for i := range splits {
		p := float64(i+1) / float64(count)
		logSplit := float64(near) * math.Pow(float64(far/near), p)
		uniform := float64(near) + float64(far-near)*p
		d := float64(lambda)*(logSplit-uniform) + uniform
		splits[i] = float32((d - float64(near)) / float64(far-near))
	}
	splits[count-1] = 1
	return splits
}

// SceneRadius is the distance from the origin to the farthest corner of a world-space box.
// Empty bounds yield zero.
func SceneRadius(b model.Bounds) float32 {
	if b.Empty() {
		return 0
	}
	return max(b.Min.Len(), b.Max.Len())
}

// FitCascades computes count cascades for a directional light.
// lightDir points towards the light. sceneRadius bounds every shadow caster around the
// origin; each cascade's depth range is widened so that every caster inside that sphere
// lands in the map, even when it is outside the camera frustum.
func FitCascades(cam camera.Snapshot, lightDir mgl32.Vec3, sceneRadius, lambda float32, count, size int) []Cascade {
	splits := CascadeSplits(cam.Near, cam.Far, lambda, count)
	if len(splits) == 0 {
		return nil
	}
	if lightDir.Len() == 0 {
		lightDir = mgl32.Vec3{0, 1, 0}
	}
	lightDir = lightDir.Normalize()
	up := mgl32.Vec3{0, 0, 1}
	if abs32(lightDir[2]) > 0.99 {
		up = mgl32.Vec3{0, 1, 0}
	}

	corners := frustum.Unproject(cam.InvViewProjection())
	cascades := make([]Cascade, len(splits))
	prev := float32(0)
	for i, split := range splits {
		slice := frustum.Slice(corners, prev, split)

		var center mgl32.Vec3
		for _, c := range slice {
			center = center.Add(c)
		}
		center = center.Mul(1.0 / 8)

		var radius float32
		for _, c := range slice {
			radius = max(radius, c.Sub(center).Len())
		}
		radius = float32(math.Ceil(float64(radius)))

		// Every caster lies within sceneRadius of the origin, so its distance from the
		// slice center along the light is at most sceneRadius + |center . lightDir|.
		reach := radius
		if sceneRadius > 0 {
			reach = max(radius, sceneRadius+abs32(center.Dot(lightDir)))
		}
		eye := center.Add(lightDir.Mul(reach))
		view := mgl32.LookAtV(eye, center, up)
		proj := mgl32.Ortho(-radius, radius, -radius, radius, -cascadeDepthMargin, 2*reach+cascadeDepthMargin)

		offset := texelSnap(proj.Mul4(view), size)
		proj.SetCol(3, proj.Col(3).Add(offset))

		cascades[i] = Cascade{
			Split:      split,
			Distance:   cam.Near + split*(cam.Far-cam.Near),
			Center:     center,
			Radius:     radius,
			View:       view,
			Projection: proj,
			ViewProj:   proj.Mul4(view),
			Offset:     offset,
		}
		prev = split
	}
	return cascades
}

// texelSnap returns the clip-space offset that moves the world origin onto a shadow-map texel.
func texelSnap(lightVP mgl32.Mat4, size int) mgl32.Vec4 {
	if size <= 0 {
		return mgl32.Vec4{}
	}
	half := float32(size) * 0.5
	origin := lightVP.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Mul(half)
	var offset mgl32.Vec4
	for i := 0; i < 2; i++ {
		offset[i] = (round32(origin[i]) - origin[i]) * 2 / float32(size)
	}
	return offset
}

func round32(x float32) float32 {
	return float32(math.Round(float64(x)))
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

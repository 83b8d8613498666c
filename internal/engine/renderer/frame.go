package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/frustum"
	"github.com/Faultbox/prism/internal/engine/gpu"
)

// FrameContext is the state shared by every pass for one frame.
// It is rebuilt by Renderer.Begin and is read-only for passes except Stats.
type FrameContext struct {
	Device gpu.Device

	Camera      camera.Snapshot
	ViewProj    mgl32.Mat4
	InvViewProj mgl32.Mat4
	Frustum     frustum.Frustum

	Width  int
	Height int

	Settings Settings
	Stats    *Stats

	// Front is the framebuffer the post pass presents into.
	Front gpu.Framebuffer
}

// NewFrameContext derives the per-frame camera data.
func NewFrameContext(dev gpu.Device, cam camera.Snapshot, width, height int, settings Settings, stats *Stats) *FrameContext {
	vp := cam.ViewProjection()
	return &FrameContext{
		Device:      dev,
		Camera:      cam,
		ViewProj:    vp,
		InvViewProj: vp.Inv(),
		Frustum:     frustum.Build(vp),
		Width:       max(width, 1),
		Height:      max(height, 1),
		Settings:    settings,
		Stats:       stats,
	}
}

// Visible reports whether a model-space box under transform passes the camera cull.
// Culling disabled in Settings makes everything visible.
func (ctx *FrameContext) Visible(boxMin, boxMax mgl32.Vec3, transform mgl32.Mat4) bool {
	if !ctx.Settings.FrustumCull {
		return true
	}
	wMin, wMax := frustum.TransformBox(transform, boxMin, boxMax)
	return ctx.Frustum.ContainsBox(wMin, wMax)
}

package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// OutlineColor is the selection outline colour (rgb, strength).
var OutlineColor = mgl32.Vec4{1, 0.55, 0.1, 1}

// PostPass tone maps the HDR result into the front framebuffer and draws the editor overlays.
type PostPass struct {
	dev      gpu.Device
	geometry *GeometryPass
	lighting *LightingPass

	hdr     gpu.Program
	grid    gpu.Program
	outline gpu.Program
}

// NewPostPass creates the pass. Programs are resolved by Init.
func NewPostPass(dev gpu.Device) *PostPass {
	return &PostPass{dev: dev}
}

// ID returns PostPassID.
func (p *PostPass) ID() PassID { return PostPassID }

// Dependencies lists the geometry and lighting passes.
func (p *PostPass) Dependencies() []PassID {
	return []PassID{GeometryPassID, LightingPassID}
}

// Init resolves the tone mapping and overlay programs.
func (p *PostPass) Init(g *Graph) error {
	var err error
	if p.geometry, err = Upstream[*GeometryPass](g, p, GeometryPassID); err != nil {
		return err
	}
	if p.lighting, err = Upstream[*LightingPass](g, p, LightingPassID); err != nil {
		return err
	}
	if p.hdr, err = p.dev.Program("post_hdr"); err != nil {
		return err
	}
	if p.grid, err = p.dev.Program("post_grid"); err != nil {
		return err
	}
	if p.outline, err = p.dev.Program("post_outline"); err != nil {
		return err
	}
	return nil
}

// BeginFrame is a no-op.
func (p *PostPass) BeginFrame(*FrameContext) {}

// Render tone maps into the front framebuffer and draws the grid and selection outline.
func (p *PostPass) Render(ctx *FrameContext) {
	dev := ctx.Device
	front := ctx.Front
	if front == nil {
		front = dev.DefaultFramebuffer()
	}
	gbuffer := p.geometry.GBuffer()

	front.Bind()
	front.Clear()
	dev.Disable(gpu.DepthTest)
	dev.SetDepthMask(false)
	dev.Disable(gpu.Blend)

	p.lighting.HDR().BindAttachment(gpu.Color0, 0)
	p.hdr.Bind()
	p.hdr.SetInt("uHDR", 0)
	p.hdr.SetFloat("uExposure", ctx.Settings.Exposure)
	p.hdr.SetFloat("uGamma", ctx.Settings.Gamma)
	p.hdr.SetInt("uToneMap", ctx.Settings.ToneMap.index())
	p.hdr.SetInt("uUseFXAA", boolInt(ctx.Settings.UseFXAA))
	dev.DrawFullscreen()

	if ctx.Settings.DrawGrid || (ctx.Settings.DrawOutline && p.geometry.AnySelected()) {
		dev.Enable(gpu.Blend)
		dev.SetAdditiveBlend()
	}

	if ctx.Settings.DrawGrid {
		gbuffer.BindAttachment(gpu.Depth, 0)
		p.grid.Bind()
		p.grid.SetInt("uDepth", 0)
		p.grid.SetMat4("uInvViewProj", ctx.InvViewProj)
		p.grid.SetMat4("uViewProj", ctx.ViewProj)
		dev.DrawFullscreen()
	}

	if ctx.Settings.DrawOutline && p.geometry.AnySelected() {
		gbuffer.BindAttachment(gpu.Color3, 0)
		p.outline.Bind()
		p.outline.SetInt("uIDMask", 0)
		p.outline.SetVec4("uOutlineColor", OutlineColor)
		dev.DrawFullscreen()
	}

	dev.Disable(gpu.Blend)
	dev.Enable(gpu.DepthTest)
	dev.SetDepthMask(true)
	front.Unbind()
}

// EndFrame is a no-op.
func (p *PostPass) EndFrame(*FrameContext) {}

// Shutdown is a no-op: the pass owns no GPU resources.
func (p *PostPass) Shutdown() {}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

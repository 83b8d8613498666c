package renderer

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/lighting"
)

// Texture units of the G-buffer inputs in every lighting program.
const (
	albedoUnit   = 3
	normalUnit   = 4
	materialUnit = 5
	depthUnit    = 6
)

// LightingPass accumulates ambient, directional, point and spot lighting into an HDR target,
// then draws the environment behind the geometry.
type LightingPass struct {
	dev      gpu.Device
	env      Environment
	geometry *GeometryPass
	shadow   *ShadowPass

	hdr         gpu.Framebuffer
	ambient     gpu.Program
	directional gpu.Program
	shadowed    gpu.Program
	point       gpu.Program
	spot        gpu.Program

	lights lighting.Queue
}

// NewLightingPass creates the pass. env may be nil for a black background without ambient light.
func NewLightingPass(dev gpu.Device, env Environment) *LightingPass {
	return &LightingPass{dev: dev, env: env}
}

// ID returns LightingPassID.
func (l *LightingPass) ID() PassID { return LightingPassID }

// Dependencies lists the geometry and shadow passes.
func (l *LightingPass) Dependencies() []PassID {
	return []PassID{GeometryPassID, ShadowPassID}
}

// Init creates the HDR target and resolves the lighting programs before initializing the environment.
func (l *LightingPass) Init(g *Graph) error {
	var err error
	if l.geometry, err = Upstream[*GeometryPass](g, l, GeometryPassID); err != nil {
		return err
	}
	if l.shadow, err = Upstream[*ShadowPass](g, l, ShadowPassID); err != nil {
		return err
	}
	l.hdr, err = l.dev.NewFramebuffer(gpu.FramebufferSpec{
		Width:        1,
		Height:       1,
		Color:        []gpu.TextureFormat{gpu.RGBA16F},
		DepthTexture: true,
	})
	if err != nil {
		return fmt.Errorf("hdr target: %w", err)
	}
	programs := []struct {
		dst  *gpu.Program
		name string
	}{
		{&l.ambient, "deferred_ambient"},
		{&l.directional, "deferred_directional"},
		{&l.shadowed, "deferred_directional_shadowed"},
		{&l.point, "deferred_point"},
		{&l.spot, "deferred_spot"},
	}
	for _, p := range programs {
		if *p.dst, err = l.dev.Program(p.name); err != nil {
			return err
		}
	}
	if l.env != nil {
		if err := l.env.Init(l.dev); err != nil {
			return fmt.Errorf("environment: %w", err)
		}
	}
	return nil
}

// SubmitDirectional queues a directional light. A primary light clears the primary flag
// of lights queued before it, so at most one queued light is primary.
func (l *LightingPass) SubmitDirectional(light lighting.DirectionalLight) {
	if light.Primary && light.CastShadows {
		for i := range l.lights.Directional {
			l.lights.Directional[i].Primary = false
		}
	}
	l.lights.Directional = append(l.lights.Directional, light)
}

// SubmitPoint queues a point light.
func (l *LightingPass) SubmitPoint(light lighting.PointLight) {
	l.lights.Point = append(l.lights.Point, light)
}

// SubmitSpot queues a spot light.
func (l *LightingPass) SubmitSpot(light lighting.SpotLight) {
	l.lights.Spot = append(l.lights.Spot, light)
}

// Lights returns the queue for the current frame.
func (l *LightingPass) Lights() *lighting.Queue { return &l.lights }

// BeginFrame clears the light queue and sizes the HDR target to the viewport.
func (l *LightingPass) BeginFrame(ctx *FrameContext) {
	l.lights.Reset()
	l.hdr.Resize(ctx.Width, ctx.Height)
}

// Render accumulates ambient and every queued light into the HDR target, then draws the sky.
func (l *LightingPass) Render(ctx *FrameContext) {
	dev := ctx.Device
	gbuffer := l.geometry.GBuffer()

	l.hdr.Bind()
	l.hdr.Clear()
	dev.Disable(gpu.DepthTest)
	dev.SetDepthMask(false)
	dev.Disable(gpu.Blend)

	sun := l.sunDirection()
	l.bindInputs(ctx, l.ambient, gbuffer)
	if l.env != nil {
		l.env.BindIBL(ctx, l.ambient, sun)
	} else {
		l.ambient.SetFloat("uIntensity", 0)
	}
	dev.DrawFullscreen()

	dev.Enable(gpu.Blend)
	dev.SetAdditiveBlend()

	for _, light := range l.lights.Directional {
		color := lighting.ColorIntensity(light.Color, light.Intensity)
		if light.CastShadows && light.Primary && l.shadow.HasCascades() {
			l.bindInputs(ctx, l.shadowed, gbuffer)
			l.shadowed.SetVec4("uLightColor", color)
			l.shadowed.SetVec3("uLightDirection", light.Direction)
			l.shadowed.SetMat4("uCameraView", ctx.Camera.View)
			l.shadow.BindCascades(l.shadowed)
		} else {
			l.bindInputs(ctx, l.directional, gbuffer)
			l.directional.SetVec4("uLightColor", color)
			l.directional.SetVec3("uLightDirection", light.Direction)
		}
		dev.DrawFullscreen()
	}

	for _, light := range l.lights.Point {
		l.bindInputs(ctx, l.point, gbuffer)
		l.point.SetVec4("uLightColor", lighting.ColorIntensity(light.Color, light.Intensity))
		l.point.SetVec3("uLightPosition", light.Position)
		l.point.SetVec4("uLightParams", mgl32.Vec4{float32(ctx.Width), float32(ctx.Height), light.Radius, light.Falloff})
		dev.DrawFullscreen()
	}

	for _, light := range l.lights.Spot {
		l.bindInputs(ctx, l.spot, gbuffer)
		l.spot.SetVec4("uLightColor", lighting.ColorIntensity(light.Color, light.Intensity))
		l.spot.SetVec3("uLightPosition", light.Position)
		l.spot.SetVec3("uSpotDirection", light.Direction)
		l.spot.SetVec4("uSpotParams", mgl32.Vec4{cosDegrees(light.InnerCutoff), cosDegrees(light.OuterCutoff), light.Radius, 0})
		dev.DrawFullscreen()
	}

	dev.Disable(gpu.Blend)

	// The sky is drawn at the far plane and only where the G-buffer depth is still clear.
	dev.BlitDepth(gbuffer, l.hdr)
	l.hdr.Bind()
	if l.env != nil {
		dev.Enable(gpu.DepthTest)
		dev.SetDepthFunc(gpu.DepthLessEqual)
		l.env.DrawSky(ctx, sun)
		dev.SetDepthFunc(gpu.DepthLess)
	}
	dev.Enable(gpu.DepthTest)
	dev.SetDepthMask(true)
	l.hdr.Unbind()

	l.lights.Reset()
}

func (l *LightingPass) bindInputs(ctx *FrameContext, prog gpu.Program, gbuffer gpu.Framebuffer) {
	prog.Bind()
	gbuffer.BindAttachment(gpu.Color0, albedoUnit)
	gbuffer.BindAttachment(gpu.Color1, normalUnit)
	gbuffer.BindAttachment(gpu.Color2, materialUnit)
	gbuffer.BindAttachment(gpu.Depth, depthUnit)
	prog.SetInt("uAlbedo", albedoUnit)
	prog.SetInt("uNormal", normalUnit)
	prog.SetInt("uMaterial", materialUnit)
	prog.SetInt("uDepth", depthUnit)
	prog.SetMat4("uInvViewProj", ctx.InvViewProj)
	prog.SetVec3("uCameraPosition", ctx.Camera.Position)
}

// sunDirection is the primary light's direction, else the first directional light's, else straight up.
func (l *LightingPass) sunDirection() mgl32.Vec3 {
	if p, ok := l.shadow.PrimaryLight(); ok {
		return p.Direction
	}
	if len(l.lights.Directional) > 0 {
		return l.lights.Directional[0].Direction
	}
	return mgl32.Vec3{0, 1, 0}
}

// EndFrame is a no-op.
func (l *LightingPass) EndFrame(*FrameContext) {}

// Shutdown releases the environment and the HDR target.
func (l *LightingPass) Shutdown() {
	if l.env != nil {
		l.env.Destroy()
	}
	if l.hdr != nil {
		l.hdr.Destroy()
	}
}

// HDR returns the lighting result.
func (l *LightingPass) HDR() gpu.Framebuffer { return l.hdr }

func cosDegrees(deg float32) float32 {
	return float32(math.Cos(float64(mgl32.DegToRad(deg))))
}

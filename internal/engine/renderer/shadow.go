package renderer

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/frustum"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/lighting"
	"github.com/Faultbox/prism/internal/engine/model"
)

// Cascades uniform block: mat4 uLightVP[4], vec4 uSplits, vec4 uShadowParams, vec4 uShadowBias (std140).
const (
	cascadeBlockSize  = MaxCascades*64 + 3*16
	cascadeBlockPoint = 0
	// firstCascadeUnit is the texture unit of uCascade0 in the shadowed lighting program.
	firstCascadeUnit = 7
)

// ShadowPass renders cascaded variance shadow maps for the primary directional light.
type ShadowPass struct {
	dev      gpu.Device
	geometry *GeometryPass

	cascadeBuffers [MaxCascades]gpu.Framebuffer
	effects        gpu.Framebuffer
	block          gpu.UniformBuffer
	bones          gpu.StorageBuffer
	depth          gpu.Program
	blurH          gpu.Program
	blurV          gpu.Program
	size           int

	primary     lighting.DirectionalLight
	hasPrimary  bool
	hasCascades bool
	cascades    []Cascade
	sceneBounds model.Bounds

	blockData []byte
	boneData  []byte
}

// NewShadowPass creates the pass with cascade maps of size x size texels.
func NewShadowPass(dev gpu.Device, size int) *ShadowPass {
	return &ShadowPass{dev: dev, size: max(size, 1)}
}

// ID returns ShadowPassID.
func (s *ShadowPass) ID() PassID { return ShadowPassID }

// Dependencies lists the geometry pass, which collects the shadow casters.
func (s *ShadowPass) Dependencies() []PassID { return []PassID{GeometryPassID} }

// Init creates the cascade maps and their GPU buffers, then resolves the depth and blur programs.
func (s *ShadowPass) Init(g *Graph) error {
	var err error
	if s.geometry, err = Upstream[*GeometryPass](g, s, GeometryPassID); err != nil {
		return err
	}
	spec := s.bufferSpec()
	for i := range s.cascadeBuffers {
		if s.cascadeBuffers[i], err = s.dev.NewFramebuffer(spec); err != nil {
			return fmt.Errorf("cascade %d: %w", i, err)
		}
	}
	spec.DepthTexture = false
	if s.effects, err = s.dev.NewFramebuffer(spec); err != nil {
		return fmt.Errorf("shadow effects buffer: %w", err)
	}
	if s.block, err = s.dev.NewUniformBuffer(cascadeBlockSize); err != nil {
		return fmt.Errorf("cascade block: %w", err)
	}
	if s.bones, err = s.dev.NewStorageBuffer(boneBufferSize); err != nil {
		return fmt.Errorf("shadow bone buffer: %w", err)
	}
	if s.depth, err = s.dev.Program("shadow"); err != nil {
		return err
	}
	if s.blurH, err = s.dev.Program("blur_horizontal"); err != nil {
		return err
	}
	if s.blurV, err = s.dev.Program("blur_vertical"); err != nil {
		return err
	}
	return nil
}

// bufferSpec is the moment map layout. Cleared to 1 so an empty map is fully lit.
func (s *ShadowPass) bufferSpec() gpu.FramebufferSpec {
	return gpu.FramebufferSpec{
		Width:         s.size,
		Height:        s.size,
		Color:         []gpu.TextureFormat{gpu.RGBA32F},
		DepthTexture:  true,
		ClearColor:    [4]float32{1, 1, 1, 1},
		ClampToBorder: true,
	}
}

// SetPrimaryLight designates the light that casts cascaded shadows this frame.
// Lights that do not cast shadows or are not primary are ignored. The last call wins.
func (s *ShadowPass) SetPrimaryLight(l lighting.DirectionalLight) {
	if !l.CastShadows || !l.Primary {
		return
	}
	s.primary = l
	s.hasPrimary = true
}

// PrimaryLight returns this frame's shadow-casting light.
func (s *ShadowPass) PrimaryLight() (lighting.DirectionalLight, bool) {
	return s.primary, s.hasPrimary
}

// BeginFrame drops last frame's primary light and resizes the maps when the cascade size changed.
func (s *ShadowPass) BeginFrame(ctx *FrameContext) {
	s.hasPrimary = false
	s.hasCascades = false
	s.cascades = s.cascades[:0]
	if ctx.Settings.CascadeSize > 0 && ctx.Settings.CascadeSize != s.size {
		s.size = ctx.Settings.CascadeSize
		for _, fb := range s.cascadeBuffers {
			fb.Resize(s.size, s.size)
		}
		s.effects.Resize(s.size, s.size)
	}
}

// Render fits the cascades around the casters and renders one blurred moment map per cascade.
// Maps without a cascade are cleared to fully lit.
func (s *ShadowPass) Render(ctx *FrameContext) {
	dev := ctx.Device
	casters := s.geometry.ShadowCasters()
	ctx.Stats.ShadowCasters = len(casters)

	if s.hasPrimary {
		s.sceneBounds = casterBounds(casters)
		s.cascades = FitCascades(ctx.Camera, s.primary.Direction, SceneRadius(s.sceneBounds),
			ctx.Settings.CascadeLambda, ctx.Settings.CascadeCount, s.size)
		s.hasCascades = len(s.cascades) > 0
	}
	if s.hasCascades {
		s.uploadBlock(ctx.Settings)
	}

	for i, fb := range s.cascadeBuffers {
		fb.Bind()
		dev.Enable(gpu.DepthTest)
		dev.SetDepthMask(true)
		fb.Clear()
		if !s.hasCascades || i >= len(s.cascades) {
			fb.Unbind()
			continue
		}
		s.drawCasters(dev, casters, s.cascades[i].ViewProj)
		fb.Unbind()
		s.blur(dev, fb)
	}
}

// casterBounds returns the world bounds of every caster as it is drawn: rigid
// submeshes under their per-frame node transforms, skinned models under the entity transform.
func casterBounds(casters []ShadowCaster) model.Bounds {
	b := model.EmptyBounds()
	extend := func(m mgl32.Mat4, local model.Bounds) {
		if local.Empty() {
			return
		}
		wMin, wMax := frustum.TransformBox(m, local.Min, local.Max)
		b.Extend(wMin)
		b.Extend(wMax)
	}
	for _, c := range casters {
		if c.Animator != nil && c.Model.Skinned() {
			extend(c.Transform, c.Model.Bounds)
			continue
		}
		for _, mesh := range c.Model.Meshes {
			extend(c.MeshTransform(mesh), mesh.Bounds)
		}
	}
	return b
}

func (s *ShadowPass) drawCasters(dev gpu.Device, casters []ShadowCaster, lightVP mgl32.Mat4) {
	s.depth.Bind()
	s.depth.SetMat4("uLightViewProj", lightVP)
	s.depth.SetInt("uBones", boneUnit)
	for _, c := range casters {
		skinned := c.Animator != nil && c.Model.Skinned()
		if skinned {
			s.depth.SetInt("uSkinned", 1)
			bones := c.Animator.FinalBoneTransforms()
			if len(bones) > model.MaxBonesPerModel {
				bones = bones[:model.MaxBonesPerModel]
			}
			s.boneData = appendMat4s(s.boneData[:0], bones)
			if len(s.boneData) > 0 {
				s.bones.SetData(0, s.boneData)
			}
			s.bones.Bind(boneUnit)
		} else {
			s.depth.SetInt("uSkinned", 0)
		}
		for _, mesh := range c.Model.Meshes {
			va := mesh.VertexArray(s.dev)
			if va == nil {
				continue
			}
			if skinned {
				s.depth.SetMat4("uModel", c.Transform)
			} else {
				s.depth.SetMat4("uModel", c.MeshTransform(mesh))
			}
			dev.DrawElements(va)
		}
	}
}

// blur runs the separable filter: cascade -> effects horizontally, effects -> cascade vertically.
func (s *ShadowPass) blur(dev gpu.Device, cascade gpu.Framebuffer) {
	dev.SetDepthMask(false)
	dev.Disable(gpu.DepthTest)

	s.effects.Bind()
	s.effects.Clear()
	cascade.BindAttachment(gpu.Color0, 0)
	s.blurH.Bind()
	s.blurH.SetInt("uInput", 0)
	dev.DrawFullscreen()
	s.effects.Unbind()

	cascade.Bind()
	cascade.Clear()
	s.effects.BindAttachment(gpu.Color0, 0)
	s.blurV.Bind()
	s.blurV.SetInt("uInput", 0)
	dev.DrawFullscreen()
	cascade.Unbind()

	dev.Enable(gpu.DepthTest)
	dev.SetDepthMask(true)
}

func (s *ShadowPass) uploadBlock(settings Settings) {
	buf := s.blockData[:0]
	for i := 0; i < MaxCascades; i++ {
		m := mgl32.Ident4()
		if i < len(s.cascades) {
			m = s.cascades[i].ViewProj
		}
		for _, f := range m {
			buf = appendFloat(buf, f)
		}
	}
	for i := 0; i < MaxCascades; i++ {
		d := float32(math.MaxFloat32)
		if i < len(s.cascades) {
			d = s.cascades[i].Distance
		}
		buf = appendFloat(buf, d)
	}
	for _, f := range [8]float32{
		settings.CascadeLightBleed, settings.LightSize, settings.PCFRadius, float32(len(s.cascades)),
		settings.NormalDepthBias, settings.ConstDepthBias, 0, 0,
	} {
		buf = appendFloat(buf, f)
	}
	s.blockData = buf
	s.block.SetData(0, buf)
}

// BindCascades binds the cascade maps and the cascade block for the shadowed lighting program.
func (s *ShadowPass) BindCascades(prog gpu.Program) {
	for i, fb := range s.cascadeBuffers {
		unit := uint32(firstCascadeUnit + i)
		fb.BindAttachment(gpu.Color0, unit)
		prog.SetInt(fmt.Sprintf("uCascade%d", i), int32(unit))
	}
	s.block.BindToPoint(cascadeBlockPoint)
}

// EndFrame is a no-op.
func (s *ShadowPass) EndFrame(*FrameContext) {}

// Shutdown releases every map and buffer created by Init.
func (s *ShadowPass) Shutdown() {
	for _, fb := range s.cascadeBuffers {
		if fb != nil {
			fb.Destroy()
		}
	}
	if s.effects != nil {
		s.effects.Destroy()
	}
	if s.block != nil {
		s.block.Destroy()
	}
	if s.bones != nil {
		s.bones.Destroy()
	}
}

// HasCascades reports whether cascades were computed this frame.
// When false the maps hold their clear value and must not be sampled.
func (s *ShadowPass) HasCascades() bool { return s.hasCascades }

// Cascades returns this frame's cascades, near to far.
func (s *ShadowPass) Cascades() []Cascade { return s.cascades }

// CascadeBuffer returns the moment map framebuffer of cascade i.
func (s *ShadowPass) CascadeBuffer(i int) gpu.Framebuffer { return s.cascadeBuffers[i] }

// SceneBounds returns the world-space bounds of this frame's shadow casters.
func (s *ShadowPass) SceneBounds() model.Bounds { return s.sceneBounds }

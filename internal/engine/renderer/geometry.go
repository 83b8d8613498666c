package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/material"
	"github.com/Faultbox/prism/internal/engine/model"
)

// Texture units used by the geometry programs. Material samplers occupy units 0..3.
const (
	entityUnit = 12
	boneUnit   = 13
)

const (
	initialEntityCapacity = 256
	boneBufferSize        = model.MaxBonesPerModel * 64
)

// batchKey identifies instances that can share one instanced draw.
type batchKey struct {
	vao      uint32
	material material.Handle
}

type staticBatch struct {
	key       batchKey
	va        gpu.VertexArray
	material  *material.Material
	instances []EntityData
	offset    int
}

type dynamicDraw struct {
	va        gpu.VertexArray
	material  *material.Material
	animator  model.Animator
	data      EntityData
	instances int32
	offset    int
}

// ShadowCaster is a model submitted this frame, visible or not.
type ShadowCaster struct {
	Model     *model.Model
	Transform mgl32.Mat4
	// Animator is nil for static models.
	Animator model.Animator
}

// MeshTransform returns the model-space to world transform of one submesh.
func (c ShadowCaster) MeshTransform(mesh *model.Mesh) mgl32.Mat4 {
	if c.Animator != nil && !c.Model.Skinned() {
		if local, ok := c.Animator.UnskinnedTransforms()[mesh.Name]; ok {
			return c.Transform.Mul4(local)
		}
	}
	return c.Transform.Mul4(mesh.Transform)
}

// GeometryPass fills the G-buffer from the frame's submissions.
//
// Static submeshes are batched by (vertex array, material) and drawn instanced.
// Skinned submeshes are drawn one entry at a time with their bone palette.
type GeometryPass struct {
	dev gpu.Device

	gbuffer  gpu.Framebuffer
	entities gpu.StorageBuffer
	bones    gpu.StorageBuffer
	static   gpu.Program
	skinned  gpu.Program
	fallback gpu.Texture

	frame      *FrameContext
	batches    []*staticBatch
	batchIndex map[batchKey]int
	dynamic    []dynamicDraw
	casters    []ShadowCaster
	selected   bool

	upload   []byte
	boneData []byte
}

// NewGeometryPass creates the pass. GPU resources are created by Init.
func NewGeometryPass(dev gpu.Device) *GeometryPass {
	return &GeometryPass{dev: dev, batchIndex: make(map[batchKey]int)}
}

// ID returns GeometryPassID.
func (g *GeometryPass) ID() PassID { return GeometryPassID }

// Dependencies is empty: the geometry pass reads no other pass.
func (g *GeometryPass) Dependencies() []PassID { return nil }

// Init creates every GPU resource the pass owns and resolves the geometry programs.
func (g *GeometryPass) Init(*Graph) error {
	var err error
	g.gbuffer, err = g.dev.NewFramebuffer(gpu.FramebufferSpec{
		Width:        1,
		Height:       1,
		Color:        []gpu.TextureFormat{gpu.RGBA8, gpu.RGBA16F, gpu.RGBA8, gpu.RGBA32F},
		DepthTexture: true,
	})
	if err != nil {
		return fmt.Errorf("g-buffer: %w", err)
	}
	if g.entities, err = g.dev.NewStorageBuffer(initialEntityCapacity * EntityDataSize); err != nil {
		return fmt.Errorf("entity buffer: %w", err)
	}
	if g.bones, err = g.dev.NewStorageBuffer(boneBufferSize); err != nil {
		return fmt.Errorf("bone buffer: %w", err)
	}
	if g.static, err = g.dev.Program("geometry_static"); err != nil {
		return err
	}
	if g.skinned, err = g.dev.Program("geometry_dynamic"); err != nil {
		return err
	}
	white := image.NewRGBA(image.Rect(0, 0, 1, 1))
	white.Set(0, 0, color.White)
	if g.fallback, err = g.dev.NewTexture2D(white); err != nil {
		return fmt.Errorf("fallback texture: %w", err)
	}
	return nil
}

// BeginFrame drops last frame's submissions and sizes the G-buffer to the viewport.
func (g *GeometryPass) BeginFrame(ctx *FrameContext) {
	g.frame = ctx
	g.batches = g.batches[:0]
	clear(g.batchIndex)
	g.dynamic = g.dynamic[:0]
	g.casters = g.casters[:0]
	g.selected = false
	g.gbuffer.Resize(ctx.Width, ctx.Height)
}

// Submit queues every submesh of a static model.
// Submeshes without a material or vertex array are skipped for this frame.
func (g *GeometryPass) Submit(m *model.Model, mats *material.Set, transform mgl32.Mat4, id uint32, selected bool) {
	if g.frame == nil || m == nil {
		return
	}
	g.casters = append(g.casters, ShadowCaster{Model: m, Transform: transform})
	for _, mesh := range m.Meshes {
		g.submitStatic(mesh, mats, transform.Mul4(mesh.Transform), id, selected)
	}
}

// SubmitAnimated queues an animated model. Skinned models become one dynamic draw per submesh;
// rigid animated models go through static batching with the animator's node transforms.
func (g *GeometryPass) SubmitAnimated(m *model.Model, anim model.Animator, mats *material.Set, transform mgl32.Mat4, id uint32, selected bool) {
	if anim == nil {
		g.Submit(m, mats, transform, id, selected)
		return
	}
	if g.frame == nil || m == nil {
		return
	}
	g.casters = append(g.casters, ShadowCaster{Model: m, Transform: transform, Animator: anim})

	if !m.Skinned() {
		nodes := anim.UnskinnedTransforms()
		for _, mesh := range m.Meshes {
			local, ok := nodes[mesh.Name]
			if !ok {
				local = mesh.Transform
			}
			g.submitStatic(mesh, mats, transform.Mul4(local), id, selected)
		}
		return
	}

	for _, mesh := range m.Meshes {
		mat := mats.Lookup(mesh.Name)
		if mat == nil {
			continue
		}
		va := mesh.VertexArray(g.dev)
		if va == nil {
			continue
		}
		g.frame.Stats.TrianglesSubmitted += int(va.IndexCount()) / 3
		// Bones can move vertices anywhere inside the model, so the whole model is culled.
		if !g.frame.Visible(m.Bounds.Min, m.Bounds.Max, transform) {
			continue
		}
		g.frame.Stats.Entities++
		g.selected = g.selected || selected
		g.dynamic = append(g.dynamic, dynamicDraw{
			va:        va,
			material:  mat,
			animator:  anim,
			data:      NewEntityData(transform, id, selected, mat.Block()),
			instances: 1,
		})
	}
}

func (g *GeometryPass) submitStatic(mesh *model.Mesh, mats *material.Set, world mgl32.Mat4, id uint32, selected bool) {
	mat := mats.Lookup(mesh.Name)
	if mat == nil {
		return
	}
	va := mesh.VertexArray(g.dev)
	if va == nil {
		return
	}
	g.frame.Stats.TrianglesSubmitted += int(va.IndexCount()) / 3
	if !g.frame.Visible(mesh.Bounds.Min, mesh.Bounds.Max, world) {
		return
	}
	g.frame.Stats.Entities++
	g.selected = g.selected || selected

	data := NewEntityData(world, id, selected, mat.Block())
	key := batchKey{vao: va.ID(), material: mat.Handle()}
	if i, ok := g.batchIndex[key]; ok {
		g.batches[i].instances = append(g.batches[i].instances, data)
		return
	}
	g.batchIndex[key] = len(g.batches)
	g.batches = append(g.batches, &staticBatch{
		key:       key,
		va:        va,
		material:  mat,
		instances: []EntityData{data},
	})
}

// layout packs every instance into g.upload and assigns each batch and dynamic draw its offset.
// The draw loops walk the same slices in the same order.
func (g *GeometryPass) layout() int {
	g.upload = g.upload[:0]
	count := 0
	for _, b := range g.batches {
		b.offset = count
		for _, inst := range b.instances {
			g.upload = inst.AppendTo(g.upload)
		}
		count += len(b.instances)
	}
	for i := range g.dynamic {
		d := &g.dynamic[i]
		d.offset = count
		for range d.instances {
			g.upload = d.data.AppendTo(g.upload)
		}
		count += int(d.instances)
	}
	return count
}

// Render uploads the entity blocks, then draws static batches followed by skinned draws.
func (g *GeometryPass) Render(ctx *FrameContext) {
	dev := ctx.Device
	g.gbuffer.Bind()
	dev.Enable(gpu.DepthTest)
	dev.SetDepthMask(true)
	dev.SetDepthFunc(gpu.DepthLess)
	dev.Disable(gpu.Blend)
	g.gbuffer.Clear()

	total := g.layout()
	ctx.Stats.StaticBatches = len(g.batches)
	ctx.Stats.DynamicDraws = len(g.dynamic)
	if total == 0 {
		g.gbuffer.Unbind()
		return
	}

	if g.entities.Size() < len(g.upload) {
		g.entities.Resize(max(len(g.upload), 2*g.entities.Size()))
	}
	g.entities.SetData(0, g.upload)
	g.entities.Bind(entityUnit)

	drawn := 0
	if len(g.batches) > 0 {
		g.static.Bind()
		g.static.SetMat4("uViewProj", ctx.ViewProj)
		g.static.SetInt("uEntities", entityUnit)
		for _, b := range g.batches {
			if b.offset != drawn {
				panic(fmt.Sprintf("renderer: batch offset %d does not match draw position %d", b.offset, drawn))
			}
			n := int32(len(b.instances))
			b.material.BindTextures(g.static, g.fallback)
			g.static.SetInt("uEntityOffset", int32(b.offset))
			dev.DrawElementsInstanced(b.va, n)
			g.count(ctx.Stats, b.va, n)
			drawn += int(n)
		}
	}

	if len(g.dynamic) > 0 {
		g.skinned.Bind()
		g.skinned.SetMat4("uViewProj", ctx.ViewProj)
		g.skinned.SetInt("uEntities", entityUnit)
		g.skinned.SetInt("uBones", boneUnit)
		for i := range g.dynamic {
			d := &g.dynamic[i]
			if d.offset != drawn {
				panic(fmt.Sprintf("renderer: dynamic offset %d does not match draw position %d", d.offset, drawn))
			}
			g.uploadBones(d.animator.FinalBoneTransforms())
			d.material.BindTextures(g.skinned, g.fallback)
			g.skinned.SetInt("uEntityOffset", int32(d.offset))
			dev.DrawElementsInstanced(d.va, d.instances)
			g.count(ctx.Stats, d.va, d.instances)
			drawn += int(d.instances)
		}
	}
	g.gbuffer.Unbind()
}

func (g *GeometryPass) uploadBones(bones []mgl32.Mat4) {
	if len(bones) > model.MaxBonesPerModel {
		bones = bones[:model.MaxBonesPerModel]
	}
	g.boneData = appendMat4s(g.boneData[:0], bones)
	if len(g.boneData) > 0 {
		g.bones.SetData(0, g.boneData)
	}
	g.bones.Bind(boneUnit)
}

func (g *GeometryPass) count(stats *Stats, va gpu.VertexArray, instances int32) {
	stats.DrawCalls++
	stats.Instances += int(instances)
	stats.TrianglesDrawn += int(instances) * int(va.IndexCount()) / 3
}

// EndFrame forgets the frame context.
func (g *GeometryPass) EndFrame(*FrameContext) {
	g.frame = nil
}

// Shutdown releases every resource created by Init.
func (g *GeometryPass) Shutdown() {
	if g.gbuffer != nil {
		g.gbuffer.Destroy()
	}
	if g.entities != nil {
		g.entities.Destroy()
	}
	if g.bones != nil {
		g.bones.Destroy()
	}
	if g.fallback != nil {
		g.fallback.Destroy()
		g.fallback = nil
	}
}

// GBuffer returns the G-buffer: albedo, normal, material and id mask colour attachments plus depth.
func (g *GeometryPass) GBuffer() gpu.Framebuffer { return g.gbuffer }

// ShadowCasters returns every model submitted this frame.
func (g *GeometryPass) ShadowCasters() []ShadowCaster { return g.casters }

// AnySelected reports whether a drawn submission was flagged selected.
func (g *GeometryPass) AnySelected() bool { return g.selected }

// BatchCount returns the number of static batches queued this frame.
func (g *GeometryPass) BatchCount() int { return len(g.batches) }

// DynamicCount returns the number of skinned draws queued this frame.
func (g *GeometryPass) DynamicCount() int { return len(g.dynamic) }

// FallbackTexture is the white texture bound for missing material textures.
func (g *GeometryPass) FallbackTexture() gpu.Texture { return g.fallback }

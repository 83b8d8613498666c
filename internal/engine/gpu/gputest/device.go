// Package gputest provides an in-memory gpu.Device that records every command.
// It lets render passes be tested without a graphics context.
package gputest

import (
	"fmt"
	"image"
	"maps"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// Draw is a recorded draw call.
type Draw struct {
	Program     string
	VAO         uint32
	IndexCount  int32
	Instances   int32
	Fullscreen  bool
	Framebuffer uint32
	Blend       bool
	DepthTest   bool
	// Uniforms is a snapshot of the bound program's uniforms at draw time.
	Uniforms map[string]any
	// Textures is a snapshot of texture unit bindings at draw time.
	Textures map[uint32]uint32
}

// Device records commands instead of executing them.
type Device struct {
	nextID uint32

	Log          []string
	Draws        []Draw
	Framebuffers []*Framebuffer
	Storage      []*StorageBuffer
	Uniform      []*UniformBuffer
	VertexArrays []*VertexArray
	Textures     []*Texture
	Programs     map[string]*Program
	Blits        [][2]uint32

	// FailVertexArrays makes NewVertexArray return an error.
	FailVertexArrays bool

	state      map[gpu.Capability]bool
	depthWrite bool
	depthFunc  gpu.DepthFunc
	bound      uint32
	program    *Program
	units      map[uint32]uint32
	defaultFB  *Framebuffer
}

// NewDevice creates an empty recording device.
func NewDevice() *Device {
	d := &Device{
		Programs:   make(map[string]*Program),
		state:      map[gpu.Capability]bool{gpu.DepthTest: true},
		depthWrite: true,
		units:      make(map[uint32]uint32),
	}
	d.defaultFB = &Framebuffer{dev: d, id: 0, width: 1, height: 1}
	return d
}

func (d *Device) newID() uint32 {
	d.nextID++
	return d.nextID
}

func (d *Device) logf(format string, args ...any) {
	d.Log = append(d.Log, fmt.Sprintf(format, args...))
}

// Reset clears recorded commands but keeps resources.
func (d *Device) Reset() {
	d.Log = nil
	d.Draws = nil
	d.Blits = nil
}

// IsEnabled reports whether a capability is currently enabled.
func (d *Device) IsEnabled(c gpu.Capability) bool { return d.state[c] }

// DepthWrite reports whether depth writes are enabled.
func (d *Device) DepthWrite() bool { return d.depthWrite }

// BoundFramebuffer returns the id of the bound framebuffer, 0 for the default one.
func (d *Device) BoundFramebuffer() uint32 { return d.bound }

// DrawsWith returns the recorded draws issued with the named program.
func (d *Device) DrawsWith(program string) []Draw {
	var out []Draw
	for _, dr := range d.Draws {
		if dr.Program == program {
			out = append(out, dr)
		}
	}
	return out
}

func (d *Device) NewFramebuffer(spec gpu.FramebufferSpec) (gpu.Framebuffer, error) {
	fb := &Framebuffer{
		dev:    d,
		id:     d.newID(),
		width:  max(spec.Width, 1),
		height: max(spec.Height, 1),
		spec:   spec,
		Pixels: make(map[gpu.Attachment][4]float32),
	}
	for range spec.Color {
		fb.attachments = append(fb.attachments, &Texture{dev: d, id: d.newID()})
	}
	if spec.DepthTexture {
		fb.depth = &Texture{dev: d, id: d.newID()}
	}
	d.Framebuffers = append(d.Framebuffers, fb)
	d.logf("new_framebuffer %d %dx%d", fb.id, fb.width, fb.height)
	return fb, nil
}

func (d *Device) NewStorageBuffer(size int) (gpu.StorageBuffer, error) {
	b := &StorageBuffer{dev: d, id: d.newID(), Data: make([]byte, size)}
	d.Storage = append(d.Storage, b)
	return b, nil
}

func (d *Device) NewUniformBuffer(size int) (gpu.UniformBuffer, error) {
	b := &UniformBuffer{dev: d, id: d.newID(), Data: make([]byte, size)}
	d.Uniform = append(d.Uniform, b)
	return b, nil
}

func (d *Device) NewVertexArray(vertices []gpu.Vertex, indices []uint32) (gpu.VertexArray, error) {
	if d.FailVertexArrays {
		return nil, fmt.Errorf("gputest: vertex array creation disabled")
	}
	if len(vertices) == 0 {
		return nil, gpu.ErrEmptyMesh
	}
	va := &VertexArray{dev: d, id: d.newID(), count: int32(len(indices))}
	d.VertexArrays = append(d.VertexArrays, va)
	return va, nil
}

func (d *Device) NewTexture2D(img *image.RGBA) (gpu.Texture, error) {
	t := &Texture{dev: d, id: d.newID()}
	if img != nil {
		t.Width, t.Height = img.Bounds().Dx(), img.Bounds().Dy()
	}
	d.Textures = append(d.Textures, t)
	return t, nil
}

func (d *Device) NewSolidCubemap(rgb mgl32.Vec3) (gpu.Texture, error) {
	t := &Texture{dev: d, id: d.newID(), Cubemap: true}
	d.Textures = append(d.Textures, t)
	return t, nil
}

// Program returns a recording program, creating it on first use.
func (d *Device) Program(name string) (gpu.Program, error) {
	p, ok := d.Programs[name]
	if !ok {
		p = &Program{dev: d, name: name, Uniforms: make(map[string]any)}
		d.Programs[name] = p
	}
	return p, nil
}

func (d *Device) DefaultFramebuffer() gpu.Framebuffer { return d.defaultFB }

func (d *Device) Enable(c gpu.Capability) {
	d.state[c] = true
	d.logf("enable %s", c)
}

func (d *Device) Disable(c gpu.Capability) {
	d.state[c] = false
	d.logf("disable %s", c)
}

func (d *Device) SetDepthMask(write bool) {
	d.depthWrite = write
	d.logf("depth_mask %t", write)
}

func (d *Device) SetDepthFunc(f gpu.DepthFunc) {
	d.depthFunc = f
	d.logf("depth_func %d", f)
}

func (d *Device) SetAdditiveBlend() { d.logf("blend_additive") }

func (d *Device) record(dr Draw) {
	if d.program != nil {
		dr.Program = d.program.name
		dr.Uniforms = maps.Clone(d.program.Uniforms)
	}
	dr.Framebuffer = d.bound
	dr.Blend = d.state[gpu.Blend]
	dr.DepthTest = d.state[gpu.DepthTest]
	dr.Textures = maps.Clone(d.units)
	d.Draws = append(d.Draws, dr)
}

func (d *Device) DrawElements(va gpu.VertexArray) {
	d.record(Draw{VAO: va.ID(), IndexCount: va.IndexCount(), Instances: 1})
	d.logf("draw vao=%d", va.ID())
}

func (d *Device) DrawElementsInstanced(va gpu.VertexArray, instances int32) {
	d.record(Draw{VAO: va.ID(), IndexCount: va.IndexCount(), Instances: instances})
	d.logf("draw_instanced vao=%d instances=%d", va.ID(), instances)
}

func (d *Device) DrawFullscreen() {
	d.record(Draw{Fullscreen: true, Instances: 1})
	name := ""
	if d.program != nil {
		name = d.program.name
	}
	d.logf("draw_fullscreen %s", name)
}

func (d *Device) BlitDepth(src, dst gpu.Framebuffer) {
	d.Blits = append(d.Blits, [2]uint32{src.ID(), dst.ID()})
	d.logf("blit_depth %d->%d", src.ID(), dst.ID())
}

// Framebuffer is a recorded framebuffer.
type Framebuffer struct {
	dev         *Device
	id          uint32
	width       int
	height      int
	spec        gpu.FramebufferSpec
	attachments []*Texture
	depth       *Texture

	Clears  int
	Resizes int
	// Pixels holds the values returned by ReadPixel per attachment.
	Pixels map[gpu.Attachment][4]float32
}

func (f *Framebuffer) ID() uint32 { return f.id }

func (f *Framebuffer) Bind() {
	f.dev.bound = f.id
	f.dev.logf("bind_framebuffer %d", f.id)
}

func (f *Framebuffer) Unbind() {
	f.dev.bound = 0
	f.dev.logf("unbind_framebuffer %d", f.id)
}

func (f *Framebuffer) Clear() {
	f.Clears++
	f.dev.logf("clear %d", f.id)
}

func (f *Framebuffer) Resize(width, height int) {
	if width == f.width && height == f.height {
		return
	}
	f.width, f.height = max(width, 1), max(height, 1)
	f.Resizes++
	f.dev.logf("resize_framebuffer %d %dx%d", f.id, f.width, f.height)
}

func (f *Framebuffer) Size() (int, int) { return f.width, f.height }

// ClearColor returns the clear colour the framebuffer was created with.
func (f *Framebuffer) ClearColor() [4]float32 { return f.spec.ClearColor }

func (f *Framebuffer) Attachment(att gpu.Attachment) gpu.Texture {
	if att == gpu.Depth {
		if f.depth == nil {
			return nil
		}
		return f.depth
	}
	if int(att) >= len(f.attachments) {
		return nil
	}
	return f.attachments[att]
}

func (f *Framebuffer) BindAttachment(att gpu.Attachment, unit uint32) {
	if t := f.Attachment(att); t != nil {
		t.Bind(unit)
	}
}

func (f *Framebuffer) ReadPixel(att gpu.Attachment, x, y int) [4]float32 {
	return f.Pixels[att]
}

func (f *Framebuffer) Destroy() { f.dev.logf("destroy_framebuffer %d", f.id) }

// Texture is a recorded texture.
type Texture struct {
	dev       *Device
	id        uint32
	Width     int
	Height    int
	Cubemap   bool
	Destroyed bool
}

func (t *Texture) ID() uint32 { return t.id }

func (t *Texture) Bind(unit uint32) { t.dev.units[unit] = t.id }

func (t *Texture) Destroy() { t.Destroyed = true }

// Upload is one recorded SetData call.
type Upload struct {
	Offset int
	Length int
}

// StorageBuffer keeps a byte copy of everything uploaded to it.
type StorageBuffer struct {
	dev     *Device
	id      uint32
	Data    []byte
	Resizes int
	Uploads []Upload
}

func (b *StorageBuffer) Size() int { return len(b.Data) }

func (b *StorageBuffer) Resize(size int) {
	b.Data = make([]byte, size)
	b.Resizes++
	b.dev.logf("resize_storage %d %d", b.id, size)
}

func (b *StorageBuffer) SetData(offset int, data []byte) {
	if offset+len(data) > len(b.Data) {
		panic(fmt.Sprintf("gputest: storage upload [%d:%d] overflows buffer of %d bytes",
			offset, offset+len(data), len(b.Data)))
	}
	copy(b.Data[offset:], data)
	b.Uploads = append(b.Uploads, Upload{Offset: offset, Length: len(data)})
}

func (b *StorageBuffer) Bind(unit uint32) { b.dev.units[unit] = b.id }

func (b *StorageBuffer) Destroy() {}

// UniformBuffer keeps a byte copy of its contents.
type UniformBuffer struct {
	dev   *Device
	id    uint32
	Data  []byte
	Point uint32
}

func (b *UniformBuffer) Size() int { return len(b.Data) }

func (b *UniformBuffer) SetData(offset int, data []byte) {
	if offset+len(data) > len(b.Data) {
		panic(fmt.Sprintf("gputest: uniform upload [%d:%d] overflows buffer of %d bytes",
			offset, offset+len(data), len(b.Data)))
	}
	copy(b.Data[offset:], data)
}

func (b *UniformBuffer) BindToPoint(point uint32) { b.Point = point }

func (b *UniformBuffer) Destroy() {}

// VertexArray is a recorded vertex array.
type VertexArray struct {
	dev       *Device
	id        uint32
	count     int32
	Destroyed bool
}

func (v *VertexArray) ID() uint32        { return v.id }
func (v *VertexArray) IndexCount() int32 { return v.count }
func (v *VertexArray) Bind()             {}
func (v *VertexArray) Unbind()           {}
func (v *VertexArray) Destroy()          { v.Destroyed = true }

// Program records uniform values.
type Program struct {
	dev      *Device
	name     string
	Uniforms map[string]any
}

func (p *Program) Name() string { return p.name }

func (p *Program) Bind() {
	p.dev.program = p
	p.dev.logf("use_program %s", p.name)
}

func (p *Program) SetInt(name string, v int32)       { p.Uniforms[name] = v }
func (p *Program) SetFloat(name string, v float32)   { p.Uniforms[name] = v }
func (p *Program) SetVec2(name string, v mgl32.Vec2) { p.Uniforms[name] = v }
func (p *Program) SetVec3(name string, v mgl32.Vec3) { p.Uniforms[name] = v }
func (p *Program) SetVec4(name string, v mgl32.Vec4) { p.Uniforms[name] = v }
func (p *Program) SetMat4(name string, m mgl32.Mat4) { p.Uniforms[name] = m }

// Package gpu defines the graphics resources and device commands used by the renderer.
//
// The renderer core only talks to these interfaces. The OpenGL implementation lives in
// glbackend; gputest provides a recording device for tests.
package gpu

import (
	"errors"
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrIncompleteFramebuffer is returned when a framebuffer cannot be completed by the driver.
	ErrIncompleteFramebuffer = errors.New("framebuffer incomplete")

	// ErrUnknownProgram is returned when a shader program name is not in the shader library.
	ErrUnknownProgram = errors.New("unknown shader program")

	// ErrEmptyMesh is returned when a vertex array is requested for a mesh without geometry.
	ErrEmptyMesh = errors.New("mesh has no vertices")
)

// Capability is a toggleable pipeline state.
type Capability int

const (
	DepthTest Capability = iota
	Blend
	CullFace
)

func (c Capability) String() string {
	switch c {
	case DepthTest:
		return "depth_test"
	case Blend:
		return "blend"
	case CullFace:
		return "cull_face"
	default:
		return "unknown"
	}
}

// DepthFunc selects the depth comparison.
type DepthFunc int

const (
	DepthLess DepthFunc = iota
	DepthLessEqual
)

// TextureFormat is the internal format of a colour attachment.
type TextureFormat int

const (
	RGBA8 TextureFormat = iota
	RGBA16F
	RGBA32F
)

// Attachment names a framebuffer attachment.
type Attachment int

const (
	Color0 Attachment = iota
	Color1
	Color2
	Color3
	Depth
)

// FramebufferSpec describes a framebuffer to create.
type FramebufferSpec struct {
	Width  int
	Height int
	Color  []TextureFormat
	// DepthTexture attaches a sampleable depth texture. Without it the framebuffer has no depth.
	DepthTexture bool
	ClearColor   [4]float32
	// ClampToBorder makes colour attachments sample as ClearColor outside [0,1].
	ClampToBorder bool
}

// Texture is a sampleable GPU texture.
type Texture interface {
	ID() uint32
	Bind(unit uint32)
	// Destroy releases the texture. Framebuffer attachments are released with their framebuffer.
	Destroy()
}

// Framebuffer is an offscreen render target.
type Framebuffer interface {
	ID() uint32
	// Bind makes the framebuffer current and sets the viewport to its size.
	Bind()
	Unbind()
	// Clear clears every attachment to the framebuffer's clear colour and depth 1.0.
	// The framebuffer must be bound.
	Clear()
	Resize(width, height int)
	Size() (width, height int)
	BindAttachment(att Attachment, unit uint32)
	Attachment(att Attachment) Texture
	ReadPixel(att Attachment, x, y int) [4]float32
	Destroy()
}

// StorageBuffer is a dynamically sized buffer readable from shaders with texelFetch.
// Contents are RGBA32F texels, so uploads must be multiples of 16 bytes.
type StorageBuffer interface {
	Size() int
	// Resize reallocates the buffer. Previous contents are discarded.
	Resize(size int)
	SetData(offset int, data []byte)
	Bind(unit uint32)
	Destroy()
}

// UniformBuffer is a fixed-layout uniform block.
type UniformBuffer interface {
	Size() int
	SetData(offset int, data []byte)
	BindToPoint(point uint32)
	Destroy()
}

// VertexArray is an indexed triangle mesh uploaded to the GPU.
type VertexArray interface {
	ID() uint32
	// IndexCount is the number of indices to render.
	IndexCount() int32
	Bind()
	Unbind()
	Destroy()
}

// Program is a linked shader program.
type Program interface {
	Name() string
	Bind()
	SetInt(name string, v int32)
	SetFloat(name string, v float32)
	SetVec2(name string, v mgl32.Vec2)
	SetVec3(name string, v mgl32.Vec3)
	SetVec4(name string, v mgl32.Vec4)
	SetMat4(name string, m mgl32.Mat4)
}

// Device creates resources and owns the global pipeline state.
type Device interface {
	NewFramebuffer(spec FramebufferSpec) (Framebuffer, error)
	NewStorageBuffer(size int) (StorageBuffer, error)
	NewUniformBuffer(size int) (UniformBuffer, error)
	NewVertexArray(vertices []Vertex, indices []uint32) (VertexArray, error)
	NewTexture2D(img *image.RGBA) (Texture, error)
	NewSolidCubemap(rgb mgl32.Vec3) (Texture, error)
	// Program returns the named program from the shader library.
	Program(name string) (Program, error)

	// DefaultFramebuffer is the window's presentable framebuffer.
	DefaultFramebuffer() Framebuffer

	Enable(c Capability)
	Disable(c Capability)
	SetDepthMask(write bool)
	SetDepthFunc(f DepthFunc)
	// SetAdditiveBlend configures ONE, ONE additive blending.
	SetAdditiveBlend()

	DrawElements(va VertexArray)
	DrawElementsInstanced(va VertexArray, instances int32)
	// DrawFullscreen draws a full-screen triangle with the bound program.
	DrawFullscreen()
	// BlitDepth copies the depth attachment of src into dst.
	BlitDepth(src, dst Framebuffer)
}

// Package glbackend implements gpu.Device on OpenGL 4.1 core.
//
// All methods must be called from the thread that owns the GL context.
package glbackend

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/gpu/glbackend/shaders"
	"github.com/Faultbox/prism/internal/logger"
)

// Device is the OpenGL implementation of gpu.Device.
type Device struct {
	programs      map[string]*Program
	screen        *screenFramebuffer
	fullscreenVAO uint32
	log           *zap.Logger
}

// New compiles the shader library and prepares shared GL state.
// gl.Init must have been called on the current context.
func New(width, height int) (*Device, error) {
	d := &Device{
		programs: make(map[string]*Program),
		screen:   &screenFramebuffer{width: int32(max(width, 1)), height: int32(max(height, 1))},
		log:      logger.Named("gl"),
	}

	d.log.Info("OpenGL context",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	for name, src := range shaders.Library {
		prog, err := newProgram(name, src.Vertex, src.Fragment)
		if err != nil {
			d.log.Error("shader compile failed", zap.String("program", name), zap.Error(err))
			d.Destroy()
			return nil, fmt.Errorf("compiling %s: %w", name, err)
		}
		d.programs[name] = prog
	}

	// Core profile refuses draws without a bound VAO, even when attributes come from gl_VertexID.
	gl.GenVertexArrays(1, &d.fullscreenVAO)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	return d, nil
}

// SetScreenSize updates the default framebuffer size after a window resize.
func (d *Device) SetScreenSize(width, height int) {
	d.screen.width = int32(max(width, 1))
	d.screen.height = int32(max(height, 1))
}

// Destroy releases the shader library.
func (d *Device) Destroy() {
	for _, p := range d.programs {
		p.destroy()
	}
	d.programs = map[string]*Program{}
	if d.fullscreenVAO != 0 {
		gl.DeleteVertexArrays(1, &d.fullscreenVAO)
		d.fullscreenVAO = 0
	}
}

// ReadPixels reads the first colour attachment of fb, or the window when fb is nil,
// as tightly packed bottom-up RGBA8 rows.
func (d *Device) ReadPixels(fb gpu.Framebuffer) ([]byte, int, int) {
	if fb == nil {
		fb = d.screen
	}
	w, h := fb.Size()
	pixels := make([]byte, w*h*4)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fb.ID())
	if fb.ID() != 0 {
		gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&pixels[0]))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	return pixels, w, h
}

// NewFramebuffer creates a complete framebuffer for spec.
func (d *Device) NewFramebuffer(spec gpu.FramebufferSpec) (gpu.Framebuffer, error) {
	fb, err := newFramebuffer(spec)
	if err != nil {
		d.log.Error("framebuffer creation failed", zap.Error(err))
		return nil, err
	}
	return fb, nil
}

// NewStorageBuffer creates a buffer texture of size bytes.
func (d *Device) NewStorageBuffer(size int) (gpu.StorageBuffer, error) {
	return newStorageBuffer(size), nil
}

// NewUniformBuffer creates a uniform block buffer of size bytes.
func (d *Device) NewUniformBuffer(size int) (gpu.UniformBuffer, error) {
	return newUniformBuffer(size), nil
}

// NewVertexArray uploads an indexed triangle mesh.
func (d *Device) NewVertexArray(vertices []gpu.Vertex, indices []uint32) (gpu.VertexArray, error) {
	return newVertexArray(vertices, indices)
}

// NewTexture2D uploads img with mipmaps and repeat wrapping.
func (d *Device) NewTexture2D(img *image.RGBA) (gpu.Texture, error) {
	return newTexture2D(img)
}

// NewSolidCubemap creates a 1x1 cubemap of one colour.
func (d *Device) NewSolidCubemap(rgb mgl32.Vec3) (gpu.Texture, error) {
	return newSolidCubemap(rgb), nil
}

// Program returns a program of the compiled shader library.
func (d *Device) Program(name string) (gpu.Program, error) {
	p, ok := d.programs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", gpu.ErrUnknownProgram, name)
	}
	return p, nil
}

// DefaultFramebuffer returns the window framebuffer.
func (d *Device) DefaultFramebuffer() gpu.Framebuffer { return d.screen }

func capability(c gpu.Capability) uint32 {
	switch c {
	case gpu.Blend:
		return gl.BLEND
	case gpu.CullFace:
		return gl.CULL_FACE
	default:
		return gl.DEPTH_TEST
	}
}

// Enable turns a capability on.
func (d *Device) Enable(c gpu.Capability) { gl.Enable(capability(c)) }

// Disable turns a capability off.
func (d *Device) Disable(c gpu.Capability) { gl.Disable(capability(c)) }

// SetDepthMask toggles depth writes.
func (d *Device) SetDepthMask(write bool) { gl.DepthMask(write) }

// SetDepthFunc selects the depth comparison.
func (d *Device) SetDepthFunc(f gpu.DepthFunc) {
	if f == gpu.DepthLessEqual {
		gl.DepthFunc(gl.LEQUAL)
		return
	}
	gl.DepthFunc(gl.LESS)
}

// SetAdditiveBlend configures one-one additive blending.
func (d *Device) SetAdditiveBlend() {
	gl.BlendEquation(gl.FUNC_ADD)
	gl.BlendFunc(gl.ONE, gl.ONE)
}

// DrawElements draws va once.
func (d *Device) DrawElements(va gpu.VertexArray) {
	va.Bind()
	gl.DrawElements(gl.TRIANGLES, va.IndexCount(), gl.UNSIGNED_INT, nil)
}

// DrawElementsInstanced draws instances copies of va.
func (d *Device) DrawElementsInstanced(va gpu.VertexArray, instances int32) {
	va.Bind()
	gl.DrawElementsInstanced(gl.TRIANGLES, va.IndexCount(), gl.UNSIGNED_INT, nil, instances)
}

// DrawFullscreen draws one screen-covering triangle generated from gl_VertexID.
func (d *Device) DrawFullscreen() {
	gl.BindVertexArray(d.fullscreenVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
}

// BlitDepth copies the depth of src into dst and leaves dst bound.
func (d *Device) BlitDepth(src, dst gpu.Framebuffer) {
	sw, sh := src.Size()
	dw, dh := dst.Size()
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, src.ID())
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, dst.ID())
	gl.BlitFramebuffer(0, 0, int32(sw), int32(sh), 0, 0, int32(dw), int32(dh), gl.DEPTH_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, dst.ID())
}

// ptr returns a pointer to the first byte of data, or nil for an empty slice.
func ptr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Pointer(&data[0])
}

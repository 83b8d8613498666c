package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// Framebuffer is an offscreen render target with colour and optional depth texture attachments.
type Framebuffer struct {
	fbo    uint32
	spec   gpu.FramebufferSpec
	color  []*Texture
	depth  *Texture
	width  int32
	height int32
}

func newFramebuffer(spec gpu.FramebufferSpec) (*Framebuffer, error) {
	fb := &Framebuffer{
		spec:   spec,
		width:  int32(max(spec.Width, 1)),
		height: int32(max(spec.Height, 1)),
	}
	if err := fb.create(); err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}
	return fb, nil
}

func (fb *Framebuffer) create() error {
	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)

	drawBuffers := make([]uint32, 0, len(fb.spec.Color))
	for i, format := range fb.spec.Color {
		tex := &Texture{target: gl.TEXTURE_2D}
		gl.GenTextures(1, &tex.id)
		gl.BindTexture(gl.TEXTURE_2D, tex.id)
		allocColor(format, fb.width, fb.height)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		if fb.spec.ClampToBorder {
			gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
			gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
			border := fb.spec.ClearColor
			gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])
		} else {
			gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
			gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		}
		attachment := uint32(gl.COLOR_ATTACHMENT0 + i)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachment, gl.TEXTURE_2D, tex.id, 0)
		drawBuffers = append(drawBuffers, attachment)
		fb.color = append(fb.color, tex)
	}

	if fb.spec.DepthTexture {
		fb.depth = &Texture{target: gl.TEXTURE_2D}
		gl.GenTextures(1, &fb.depth.id)
		gl.BindTexture(gl.TEXTURE_2D, fb.depth.id)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT32F, fb.width, fb.height, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, fb.depth.id, 0)
	}

	if len(drawBuffers) > 0 {
		gl.DrawBuffers(int32(len(drawBuffers)), &drawBuffers[0])
	} else {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		fb.Destroy()
		return fmt.Errorf("%w: 0x%x", gpu.ErrIncompleteFramebuffer, status)
	}
	return nil
}

func allocColor(format gpu.TextureFormat, width, height int32) {
	switch format {
	case gpu.RGBA16F:
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA16F, width, height, 0, gl.RGBA, gl.FLOAT, nil)
	case gpu.RGBA32F:
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, width, height, 0, gl.RGBA, gl.FLOAT, nil)
	default:
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	}
}

// ID returns the GL framebuffer name.
func (fb *Framebuffer) ID() uint32 { return fb.fbo }

// Bind makes this framebuffer the current render target.
func (fb *Framebuffer) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.Viewport(0, 0, fb.width, fb.height)
}

// Unbind restores the default framebuffer.
func (fb *Framebuffer) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Clear clears every colour attachment to the clear colour and depth to 1.
func (fb *Framebuffer) Clear() {
	c := fb.spec.ClearColor
	for i := range fb.color {
		gl.ClearBufferfv(gl.COLOR, int32(i), &c[0])
	}
	if fb.depth != nil {
		// Depth clears are ignored while the depth mask is off.
		gl.DepthMask(true)
		one := float32(1)
		gl.ClearBufferfv(gl.DEPTH, 0, &one)
	}
}

// Resize reallocates every attachment if the size changed.
func (fb *Framebuffer) Resize(width, height int) {
	w, h := int32(max(width, 1)), int32(max(height, 1))
	if w == fb.width && h == fb.height {
		return
	}
	fb.width, fb.height = w, h

	for i, tex := range fb.color {
		gl.BindTexture(gl.TEXTURE_2D, tex.id)
		allocColor(fb.spec.Color[i], w, h)
	}
	if fb.depth != nil {
		gl.BindTexture(gl.TEXTURE_2D, fb.depth.id)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT32F, w, h, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// Size returns the attachment size in pixels.
func (fb *Framebuffer) Size() (int, int) { return int(fb.width), int(fb.height) }

// Attachment returns the texture behind att, or nil when the framebuffer has none.
func (fb *Framebuffer) Attachment(att gpu.Attachment) gpu.Texture {
	if att == gpu.Depth {
		if fb.depth == nil {
			return nil
		}
		return fb.depth
	}
	if int(att) >= len(fb.color) {
		return nil
	}
	return fb.color[att]
}

// BindAttachment binds an attachment to a texture unit. Missing attachments are skipped.
func (fb *Framebuffer) BindAttachment(att gpu.Attachment, unit uint32) {
	if t := fb.Attachment(att); t != nil {
		t.Bind(unit)
	}
}

// ReadPixel reads one texel of an attachment. Origin is bottom-left.
func (fb *Framebuffer) ReadPixel(att gpu.Attachment, x, y int) [4]float32 {
	var px [4]float32
	if x < 0 || y < 0 || int32(x) >= fb.width || int32(y) >= fb.height {
		return px
	}

	var prevFBO int32
	gl.GetIntegerv(gl.READ_FRAMEBUFFER_BINDING, &prevFBO)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fb.fbo)

	if att == gpu.Depth {
		gl.ReadPixels(int32(x), int32(y), 1, 1, gl.DEPTH_COMPONENT, gl.FLOAT, gl.Ptr(&px[0]))
	} else if int(att) < len(fb.color) {
		gl.ReadBuffer(gl.COLOR_ATTACHMENT0 + uint32(att))
		gl.ReadPixels(int32(x), int32(y), 1, 1, gl.RGBA, gl.FLOAT, gl.Ptr(&px[0]))
	}

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(prevFBO))
	return px
}

// Destroy releases all OpenGL resources.
func (fb *Framebuffer) Destroy() {
	if fb.fbo != 0 {
		gl.DeleteFramebuffers(1, &fb.fbo)
		fb.fbo = 0
	}
	for _, tex := range fb.color {
		tex.Destroy()
	}
	fb.color = nil
	if fb.depth != nil {
		fb.depth.Destroy()
		fb.depth = nil
	}
}

// screenFramebuffer is the window's default framebuffer.
type screenFramebuffer struct {
	width  int32
	height int32
}

func (s *screenFramebuffer) ID() uint32 { return 0 }

func (s *screenFramebuffer) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, s.width, s.height)
}

func (s *screenFramebuffer) Unbind() {}

func (s *screenFramebuffer) Clear() {
	gl.DepthMask(true)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (s *screenFramebuffer) Resize(width, height int) {
	s.width, s.height = int32(max(width, 1)), int32(max(height, 1))
}

func (s *screenFramebuffer) Size() (int, int) { return int(s.width), int(s.height) }

func (s *screenFramebuffer) Attachment(gpu.Attachment) gpu.Texture { return nil }

func (s *screenFramebuffer) BindAttachment(gpu.Attachment, uint32) {}

func (s *screenFramebuffer) ReadPixel(att gpu.Attachment, x, y int) [4]float32 {
	var px [4]float32
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.ReadPixels(int32(x), int32(y), 1, 1, gl.RGBA, gl.FLOAT, gl.Ptr(&px[0]))
	return px
}

func (s *screenFramebuffer) Destroy() {}

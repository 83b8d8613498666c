package editor

import (
	"fmt"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/renderer"
)

// Viewport is the offscreen colour target the editor presents inside its viewport panel.
type Viewport struct {
	fb            gpu.Framebuffer
	width, height int
}

// Ensure creates or resizes the target. Sizes below one pixel are clamped.
func (v *Viewport) Ensure(dev gpu.Device, width, height int) error {
	width, height = max(width, 1), max(height, 1)
	if v.fb == nil {
		fb, err := dev.NewFramebuffer(gpu.FramebufferSpec{
			Width:      width,
			Height:     height,
			Color:      []gpu.TextureFormat{gpu.RGBA8},
			ClearColor: [4]float32{0, 0, 0, 1},
		})
		if err != nil {
			return fmt.Errorf("viewport target: %w", err)
		}
		v.fb = fb
	} else if width != v.width || height != v.height {
		v.fb.Resize(width, height)
	}
	v.width, v.height = width, height
	return nil
}

// Size returns the target size in pixels.
func (v *Viewport) Size() (int, int) { return v.width, v.height }

// Framebuffer returns the target, nil before Ensure.
func (v *Viewport) Framebuffer() gpu.Framebuffer { return v.fb }

// TextureID returns the GL name of the presented colour texture, zero before Ensure.
func (v *Viewport) TextureID() uint32 {
	if v.fb == nil {
		return 0
	}
	return v.fb.Attachment(gpu.Color0).ID()
}

// Render draws one editor frame into the target and unbinds it.
func (v *Viewport) Render(e *Editor, r *renderer.Renderer, dev gpu.Device, dt float32) {
	if v.fb == nil {
		return
	}
	e.Frame(r, dev, v.fb, v.width, v.height, dt)
	v.fb.Unbind()
}

// Pixel converts a position relative to the displayed image (of displayed size w x h)
// into target pixel coordinates with a top-left origin. ok is false outside the image.
func (v *Viewport) Pixel(relX, relY, w, h float32) (x, y int, ok bool) {
	if w <= 0 || h <= 0 || relX < 0 || relY < 0 || relX >= w || relY >= h {
		return 0, 0, false
	}
	x = int(relX / w * float32(v.width))
	y = int(relY / h * float32(v.height))
	return x, y, true
}

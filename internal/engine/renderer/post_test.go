package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/material"
	"github.com/Faultbox/prism/internal/engine/model"
)

func TestPostOverlays(t *testing.T) {
	cube := model.NewCube()
	_, set := materialFor(material.NewRegistry(), cube, "grey")

	t.Run("nothing selected", func(t *testing.T) {
		r, dev := newTestRenderer(t, func(s *Settings) { s.DrawGrid = false })
		r.Begin(testWidth, testHeight, testCamera())
		r.Submit(cube, set, mgl32.Ident4(), 1, false)
		r.End(nil)

		assert.Len(t, dev.DrawsWith("post_hdr"), 1)
		assert.Empty(t, dev.DrawsWith("post_grid"))
		assert.Empty(t, dev.DrawsWith("post_outline"))
	})

	t.Run("selection outline", func(t *testing.T) {
		r, dev := newTestRenderer(t)
		r.Begin(testWidth, testHeight, testCamera())
		r.Submit(model.NewCube(), set, mgl32.Ident4(), 1, true)
		front, err := dev.NewFramebuffer(gpu.FramebufferSpec{Width: testWidth, Height: testHeight, Color: []gpu.TextureFormat{gpu.RGBA8}})
		require.NoError(t, err)
		r.End(front)

		hdr := dev.DrawsWith("post_hdr")
		require.Len(t, hdr, 1)
		assert.Equal(t, front.ID(), hdr[0].Framebuffer)
		assert.Equal(t, int32(2), hdr[0].Uniforms["uToneMap"])

		outline := dev.DrawsWith("post_outline")
		require.Len(t, outline, 1)
		assert.True(t, outline[0].Blend)
		assert.Equal(t, r.GBuffer().Attachment(gpu.Color3).ID(), outline[0].Textures[0])
		assert.Len(t, dev.DrawsWith("post_grid"), 1)
	})
}

package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/engine/gpu/gputest"
	"github.com/Faultbox/prism/internal/engine/lighting"
)

func TestLightingSubpassState(t *testing.T) {
	r, dev := newTestRenderer(t)

	r.Begin(testWidth, testHeight, testCamera())
	r.SubmitDirectional(lighting.DirectionalLight{Color: mgl32.Vec3{1, 1, 1}, Intensity: 1}, mgl32.Ident4())
	r.SubmitDirectional(lighting.DirectionalLight{Color: mgl32.Vec3{0, 0, 1}, Intensity: 2}, mgl32.Ident4())
	r.SubmitPoint(lighting.PointLight{Position: mgl32.Vec3{1, 0, 0}, Color: mgl32.Vec3{1, 1, 1}, Intensity: 4, Radius: 3, Falloff: 0.5},
		mgl32.Translate3D(0, 2, 0))
	r.End(nil)

	hdr := r.lighting.HDR().(*gputest.Framebuffer).ID()

	ambient := dev.DrawsWith("deferred_ambient")
	require.Len(t, ambient, 1)
	assert.False(t, ambient[0].Blend, "ambient is the base layer")
	assert.Equal(t, hdr, ambient[0].Framebuffer)

	directional := dev.DrawsWith("deferred_directional")
	require.Len(t, directional, 2)
	for _, d := range directional {
		assert.True(t, d.Blend)
	}
	assert.Equal(t, mgl32.Vec4{0, 0, 1, 2}, directional[1].Uniforms["uLightColor"])

	point := dev.DrawsWith("deferred_point")
	require.Len(t, point, 1)
	assert.Equal(t, mgl32.Vec3{1, 2, 0}, point[0].Uniforms["uLightPosition"])
	assert.Equal(t, mgl32.Vec4{testWidth, testHeight, 3, 0.5}, point[0].Uniforms["uLightParams"])

	sky := dev.DrawsWith("sky")
	require.Len(t, sky, 1)
	assert.False(t, sky[0].Blend)
	assert.True(t, sky[0].DepthTest)
	assert.Equal(t, [][2]uint32{{r.GBuffer().ID(), hdr}}, dev.Blits)

	assert.Zero(t, r.lighting.Lights().Len(), "queues are cleared after the pass")
}

package renderer

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/engine/gpu/gputest"
)

func cubemaps(dev *gputest.Device) []*gputest.Texture {
	var out []*gputest.Texture
	for _, tex := range dev.Textures {
		if tex.Cubemap {
			out = append(out, tex)
		}
	}
	return out
}

func renderSky(r *Renderer, sunTransform mgl32.Mat4) {
	r.Begin(testWidth, testHeight, testCamera())
	r.SubmitDirectional(primarySun(), sunTransform)
	r.End(nil)
}

func TestSkyEnvironmentPreetham(t *testing.T) {
	r, dev := newTestRenderer(t, func(s *Settings) {
		s.Sky.Turbidity = 3
		s.Sky.SunSize = 2
		s.Sky.SunIntensity = 4
		s.Sky.SkyIntensity = 0.5
	})
	sunTransform := mgl32.HomogRotate3DX(mgl32.DegToRad(30))
	renderSky(r, sunTransform)

	sun := primarySun().Resolve(sunTransform).Direction
	want := NewPreetham(sun, 3)

	sky := dev.DrawsWith("sky")
	require.Len(t, sky, 1)
	u := sky[0].Uniforms
	assert.Equal(t, int32(1), u["uSkyModel"])
	zenith := u["uZenithYxy"].(mgl32.Vec3)
	for c := 0; c < 3; c++ {
		assert.InDelta(t, want.Zenith[c], zenith[c], 1e-5)
	}
	assert.Contains(t, u, "uPerez[4]")
	assert.Equal(t, float32(0.5), u["uIntensity"])
	sunParams := u["uSun"].(mgl32.Vec4)
	assert.InDelta(t, math.Cos(2*sunAngularRadius), sunParams[0], 1e-7)
	assert.Equal(t, float32(4), sunParams[1])

	ambient := dev.DrawsWith("deferred_ambient")
	require.Len(t, ambient, 1)
	assert.Equal(t, float32(0.5), ambient[0].Uniforms["uIntensity"])
	maps := cubemaps(dev)
	require.Len(t, maps, 2)
	assert.Equal(t, maps[0].ID(), ambient[0].Textures[irradianceUnit])
	assert.Equal(t, maps[1].ID(), ambient[0].Textures[prefilterUnit])
}

func TestSkyEnvironmentRebuildsAmbientWhenSunMoves(t *testing.T) {
	r, dev := newTestRenderer(t)

	renderSky(r, mgl32.HomogRotate3DX(mgl32.DegToRad(30)))
	first := cubemaps(dev)
	require.Len(t, first, 2)

	renderSky(r, mgl32.HomogRotate3DX(mgl32.DegToRad(30)))
	assert.Len(t, cubemaps(dev), 2, "an unchanged sky keeps its maps")

	renderSky(r, mgl32.HomogRotate3DX(mgl32.DegToRad(70)))
	all := cubemaps(dev)
	require.Len(t, all, 4)
	for _, tex := range first {
		assert.True(t, tex.Destroyed, "replaced maps are released")
	}
	for _, tex := range all[2:] {
		assert.False(t, tex.Destroyed)
	}
}

func TestSkyEnvironmentGradient(t *testing.T) {
	r, dev := newTestRenderer(t, func(s *Settings) { s.Sky.Model = SkyGradient })
	env := r.lighting.env.(*SkyEnvironment)

	renderSky(r, mgl32.HomogRotate3DX(mgl32.DegToRad(30)))
	renderSky(r, mgl32.HomogRotate3DX(mgl32.DegToRad(70)))

	assert.Len(t, cubemaps(dev), 2, "the gradient sky ignores the sun")
	sky := dev.DrawsWith("sky")
	require.Len(t, sky, 2)
	assert.Equal(t, int32(0), sky[1].Uniforms["uSkyModel"])
	assert.Equal(t, env.Zenith, sky[1].Uniforms["uZenith"])
	assert.Equal(t, env.Horizon, sky[1].Uniforms["uHorizon"])
}

func TestSkyEnvironmentSwitchesModel(t *testing.T) {
	r, dev := newTestRenderer(t, func(s *Settings) { s.Sky.Model = SkyGradient })
	renderSky(r, mgl32.Ident4())

	s := r.Settings()
	s.Sky.Model = SkyPreetham
	r.SetSettings(s)
	renderSky(r, mgl32.Ident4())

	maps := cubemaps(dev)
	require.Len(t, maps, 4)
	assert.True(t, maps[0].Destroyed)
	assert.Equal(t, int32(1), dev.DrawsWith("sky")[1].Uniforms["uSkyModel"])
}

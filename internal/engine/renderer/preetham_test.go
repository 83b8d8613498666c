package renderer

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func elevated(elevation, azimuth float64) mgl32.Vec3 {
	el, az := elevation*math.Pi/180, azimuth*math.Pi/180
	return mgl32.Vec3{
		float32(math.Cos(el) * math.Cos(az)),
		float32(math.Sin(el)),
		float32(math.Cos(el) * math.Sin(az)),
	}
}

func TestPreethamZenith(t *testing.T) {
	p := NewPreetham(elevated(45, 0), 2)

	assert.InDelta(t, 4.47, p.Zenith[0], 0.01, "zenith luminance in kcd/m²")
	assert.InDelta(t, 0.241, p.Zenith[1], 0.001)
	assert.InDelta(t, 0.244, p.Zenith[2], 0.001)

	up := p.Yxy(mgl32.Vec3{0, 1, 0})
	for c := 0; c < 3; c++ {
		assert.InDelta(t, p.Zenith[c], up[c], 1e-4, "looking straight up sees the zenith")
	}
	assert.Equal(t, float32(1), p.Fade)
}

func TestPreethamDaylightIsBlue(t *testing.T) {
	p := NewPreetham(elevated(60, 0), 2)
	for _, dir := range []mgl32.Vec3{{0, 1, 0}, elevated(45, 180)} {
		c := p.Radiance(dir)
		assert.Greater(t, c[2], c[1], "%v", dir)
		assert.Greater(t, c[1], c[0], "%v", dir)
	}
}

func TestPreethamBrighterTowardsSun(t *testing.T) {
	p := NewPreetham(elevated(20, 0), 2)
	towards := p.Yxy(elevated(20, 10))[0]
	away := p.Yxy(elevated(20, 180))[0]
	assert.Greater(t, towards, 3*away)
}

func TestPreethamTurbidityWhitensSky(t *testing.T) {
	dir := elevated(30, 90)
	saturation := func(turbidity float32) float32 {
		c := NewPreetham(elevated(40, 0), turbidity).Radiance(dir)
		return c[2] / c[0]
	}
	clear, hazy := saturation(2), saturation(8)
	assert.Greater(t, clear, float32(3))
	assert.Less(t, hazy, float32(1.5))
}

func TestPreethamFadesAfterSunset(t *testing.T) {
	p := NewPreetham(elevated(-20, 0), 2)
	assert.Zero(t, p.Fade)
	assert.Equal(t, mgl32.Vec3{}, p.Radiance(mgl32.Vec3{0, 1, 0}))
	assert.Equal(t, mgl32.Vec3{}, p.Ambient())

	noon := NewPreetham(mgl32.Vec3{0, 1, 0}, 2).Ambient()
	low := NewPreetham(elevated(5, 0), 2).Ambient()
	assert.Greater(t, noon[2], low[2], "the sky dims as the sun sets")
}

func TestPreethamZeroSunPointsUp(t *testing.T) {
	p := NewPreetham(mgl32.Vec3{}, 2)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, p.Sun)
}

package lighting

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float32
		want     mgl32.Vec3
	}{
		{"zenith", 0, 90, mgl32.Vec3{0, 1, 0}},
		{"horizon south", 0, 0, mgl32.Vec3{0, 0, 1}},
		{"horizon east", 90, 0, mgl32.Vec3{1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SunDirection(tt.lon, tt.lat)
			if !got.ApproxEqualThreshold(tt.want, 1e-5) {
				t.Errorf("SunDirection(%v, %v): got %v, want %v", tt.lon, tt.lat, got, tt.want)
			}
		})
	}
}

func TestSunRotationMatchesWorldDirection(t *testing.T) {
	for _, angles := range [][2]float32{{0, 45}, {135, 30}, {270, 60}} {
		got := WorldDirection(SunRotation(angles[0], angles[1]))
		want := SunDirection(angles[0], angles[1])
		assert.True(t, got.ApproxEqualThreshold(want, 1e-4), "angles %v: got %v, want %v", angles, got, want)
	}
}

func TestWorldDirection(t *testing.T) {
	tests := []struct {
		name string
		m    mgl32.Mat4
		want mgl32.Vec3
	}{
		{"identity points up", mgl32.Ident4(), mgl32.Vec3{0, 1, 0}},
		{"translation is ignored", mgl32.Translate3D(5, 6, 7), mgl32.Vec3{0, 1, 0}},
		{"rotated about x", mgl32.HomogRotate3DX(mgl32.DegToRad(90)), mgl32.Vec3{0, 0, 1}},
		{"non-uniform scale keeps unit length", mgl32.Scale3D(1, 4, 1), mgl32.Vec3{0, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WorldDirection(tt.m)
			assert.True(t, got.ApproxEqualThreshold(tt.want, 1e-5), "got %v, want %v", got, tt.want)
		})
	}
}

func TestResolve(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3)

	p := PointLight{Position: mgl32.Vec3{0, 1, 0}, Radius: 5}.Resolve(m)
	assert.Equal(t, mgl32.Vec3{1, 3, 3}, p.Position)
	assert.Equal(t, float32(5), p.Radius)

	s := SpotLight{}.Resolve(m)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, s.Position)
	assert.True(t, s.Direction.ApproxEqual(mgl32.Vec3{0, -1, 0}), "spot points down: %v", s.Direction)

	d := DirectionalLight{Direction: mgl32.Vec3{9, 9, 9}, Primary: true}.Resolve(m)
	assert.True(t, d.Direction.ApproxEqual(mgl32.Vec3{0, 1, 0}))
	assert.True(t, d.Primary)
}

func TestQueue(t *testing.T) {
	var q Queue
	q.Directional = append(q.Directional, DirectionalLight{CastShadows: true})
	q.Point = append(q.Point, PointLight{}, PointLight{})
	q.Spot = append(q.Spot, SpotLight{})

	assert.Equal(t, 4, q.Len())
	assert.False(t, q.HasPrimaryShadowCaster())

	q.Directional = append(q.Directional, DirectionalLight{CastShadows: true, Primary: true})
	assert.True(t, q.HasPrimaryShadowCaster())

	q.Reset()
	assert.Zero(t, q.Len())
	assert.False(t, q.HasPrimaryShadowCaster())
}

func TestColorIntensity(t *testing.T) {
	assert.Equal(t, mgl32.Vec4{1, 0.5, 0.25, 3}, ColorIntensity(mgl32.Vec3{1, 0.5, 0.25}, 3))
}

package renderer

import (
	"fmt"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/engine/frustum"
	"github.com/Faultbox/prism/internal/engine/model"
)

func TestCascadeSplitsAreMonotonic(t *testing.T) {
	ranges := [][2]float32{{0.1, 100}, {0.01, 1000}, {1, 2}, {0.5, 50000}}
	for _, r := range ranges {
		for _, lambda := range []float32{0, 0.25, 0.5, 0.75, 1} {
			for count := 1; count <= MaxCascades; count++ {
				name := fmt.Sprintf("near=%g far=%g lambda=%g n=%d", r[0], r[1], lambda, count)
				t.Run(name, func(t *testing.T) {
					splits := CascadeSplits(r[0], r[1], lambda, count)
					require.Len(t, splits, count)
					prev := float32(0)
					for _, s := range splits {
						assert.Greater(t, s, prev)
						assert.LessOrEqual(t, s, float32(1))
						prev = s
					}
					assert.Equal(t, float32(1), splits[count-1])
				})
			}
		}
	}
}

func TestCascadeSplitsUniformAndLogarithmic(t *testing.T) {
	uniform := CascadeSplits(1, 101, 0, 4)
	assert.InDeltaSlice(t, []float32{0.25, 0.5, 0.75, 1}, uniform, 1e-5)

	// Logarithmic splits for near=1, far=16: 2, 4, 8, 16.
	logarithmic := CascadeSplits(1, 16, 1, 4)
	assert.InDeltaSlice(t, []float32{1.0 / 15, 3.0 / 15, 7.0 / 15, 1}, logarithmic, 1e-5)
}

func TestSceneRadius(t *testing.T) {
	assert.Zero(t, SceneRadius(model.EmptyBounds()))
	b := model.Bounds{Min: mgl32.Vec3{-3, 0, 0}, Max: mgl32.Vec3{1, 4, 0}}
	assert.InDelta(t, math.Sqrt(17), SceneRadius(b), 1e-5)
}

func TestFitCascadesContainSlices(t *testing.T) {
	cam := testCamera()
	const size = 1024
	for _, sceneRadius := range []float32{0, 5, 500} {
		t.Run(fmt.Sprintf("scene radius %g", sceneRadius), func(t *testing.T) {
			cascades := FitCascades(cam, mgl32.Vec3{0.3, 1, 0.2}, sceneRadius, 0.5, 4, size)
			require.Len(t, cascades, 4)

			corners := frustum.Unproject(cam.InvViewProjection())
			prev := float32(0)
			for i, c := range cascades {
				slice := frustum.Slice(corners, prev, c.Split)
				limit := 1 + 2.0/size + 1e-3
				for _, p := range slice {
					assert.LessOrEqual(t, p.Sub(c.Center).Len(), c.Radius+1e-3, "cascade %d corner outside sphere", i)
					clip := c.ViewProj.Mul4x1(p.Vec4(1))
					assert.LessOrEqual(t, abs32(clip[0]), float32(limit), "cascade %d x", i)
					assert.LessOrEqual(t, abs32(clip[1]), float32(limit), "cascade %d y", i)
					assert.LessOrEqual(t, abs32(clip[2]), float32(1), "cascade %d z", i)
				}
				assert.InDelta(t, cam.Near+c.Split*(cam.Far-cam.Near), c.Distance, 1e-3)
				prev = c.Split
			}
		})
	}
}

func TestFitCascadesCoverSceneSphere(t *testing.T) {
	cam := testCamera()
	lightDir := mgl32.Vec3{0, 0.866, 0.5}
	const sceneRadius = 150.5
	casters := []mgl32.Vec3{
		{0, 150, 0},
		{0, -150, 0},
		{150, 0, 0},
		lightDir.Mul(sceneRadius),
		lightDir.Mul(-sceneRadius),
	}
	for i, c := range FitCascades(cam, lightDir, sceneRadius, 0.5, 4, 1024) {
		for _, p := range casters {
			z := c.ViewProj.Mul4x1(p.Vec4(1))[2]
			assert.True(t, z >= -1 && z <= 1, "cascade %d: caster %v at depth %v", i, p, z)
		}
	}
}

func TestFitCascadesSnapToTexels(t *testing.T) {
	const size = 2048
	cam := testCamera()
	for _, c := range FitCascades(cam, mgl32.Vec3{-0.4, 1, 0.3}, 20, 0.5, 4, size) {
		origin := c.ViewProj.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Mul(size / 2)
		for i := 0; i < 2; i++ {
			frac := math.Abs(float64(origin[i]) - math.Round(float64(origin[i])))
			assert.Less(t, frac, 0.05, "origin component %d is %v", i, origin[i])
		}
		assert.Zero(t, c.Offset[2])
		assert.Zero(t, c.Offset[3])
	}
}

func TestFitCascadesVerticalLight(t *testing.T) {
	cascades := FitCascades(testCamera(), mgl32.Vec3{0, 0, 1}, 10, 0.5, 2, 512)
	require.Len(t, cascades, 2)
	for _, c := range cascades {
		for _, f := range c.ViewProj {
			assert.False(t, math.IsNaN(float64(f)))
		}
	}
}

package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/gpu/gputest"
	"github.com/Faultbox/prism/internal/engine/material"
	"github.com/Faultbox/prism/internal/engine/model"
)

func TestShadowWithoutPrimaryLight(t *testing.T) {
	r, dev := newTestRenderer(t)
	cube := model.NewCube()
	_, set := materialFor(material.NewRegistry(), cube, "grey")

	sun := primarySun()
	sun.Primary = false
	r.Begin(testWidth, testHeight, testCamera())
	r.Submit(cube, set, mgl32.Ident4(), 1, false)
	r.SubmitDirectional(sun, mgl32.Ident4())
	r.End(nil)

	assert.False(t, r.shadow.HasCascades())
	assert.Empty(t, r.shadow.Cascades())
	assert.Empty(t, dev.DrawsWith("shadow"))
	assert.Empty(t, dev.DrawsWith("blur_horizontal"))
	assert.Empty(t, dev.DrawsWith("deferred_directional_shadowed"))
	assert.Len(t, dev.DrawsWith("deferred_directional"), 1)

	for i := 0; i < MaxCascades; i++ {
		fb := r.shadow.CascadeBuffer(i).(*gputest.Framebuffer)
		assert.Equal(t, 1, fb.Clears, "cascade %d cleared once", i)
		assert.Equal(t, [4]float32{1, 1, 1, 1}, fb.ClearColor())
	}
}

func TestShadowNonCastingPrimaryIsIgnored(t *testing.T) {
	r, dev := newTestRenderer(t)
	sun := primarySun()
	sun.CastShadows = false

	r.Begin(testWidth, testHeight, testCamera())
	r.SubmitDirectional(sun, mgl32.Ident4())
	r.End(nil)

	assert.False(t, r.shadow.HasCascades())
	assert.Empty(t, dev.DrawsWith("deferred_directional_shadowed"))
}

func TestShadowCascadesForPrimaryLight(t *testing.T) {
	r, dev := newTestRenderer(t)
	cube := model.NewCube()
	_, set := materialFor(material.NewRegistry(), cube, "grey")
	plane := model.NewPlane(20)
	_, planeSet := materialFor(material.NewRegistry(), plane, "floor")

	r.Begin(testWidth, testHeight, testCamera())
	r.Submit(cube, set, mgl32.Translate3D(0, 1, 0), 1, false)
	r.Submit(plane, planeSet, mgl32.Ident4(), 2, false)
	r.SubmitDirectional(primarySun(), mgl32.HomogRotate3DX(mgl32.DegToRad(30)))
	r.End(nil)

	require.True(t, r.shadow.HasCascades())
	cascades := r.shadow.Cascades()
	require.Len(t, cascades, MaxCascades)

	// Every caster is drawn into every cascade, then each cascade is blurred once per direction.
	assert.Len(t, dev.DrawsWith("shadow"), 2*MaxCascades)
	assert.Len(t, dev.DrawsWith("blur_horizontal"), MaxCascades)
	assert.Len(t, dev.DrawsWith("blur_vertical"), MaxCascades)
	for _, d := range dev.DrawsWith("blur_horizontal") {
		assert.False(t, d.DepthTest)
	}
	for i, d := range dev.DrawsWith("shadow") {
		assert.Equal(t, cascades[i/2].ViewProj, d.Uniforms["uLightViewProj"])
		assert.Equal(t, r.shadow.CascadeBuffer(i/2).(*gputest.Framebuffer).ID(), d.Framebuffer)
	}

	shadowed := dev.DrawsWith("deferred_directional_shadowed")
	require.Len(t, shadowed, 1)
	for i := 0; i < MaxCascades; i++ {
		unit := uint32(firstCascadeUnit + i)
		want := r.shadow.CascadeBuffer(i).Attachment(gpu.Color0).ID()
		assert.Equal(t, want, shadowed[0].Textures[unit])
	}
	assert.True(t, shadowed[0].Blend)

	block := r.shadow.block.(*gputest.UniformBuffer)
	require.Len(t, block.Data, cascadeBlockSize)
	assert.Equal(t, uint32(cascadeBlockPoint), block.Point)
	first, err := DecodeEntityData(block.Data)
	require.NoError(t, err)
	assert.Equal(t, cascades[0].ViewProj, first.Transform)

	scene := r.shadow.SceneBounds()
	assert.InDelta(t, -10, scene.Min[0], 1e-4)
	assert.InDelta(t, 10, scene.Max[0], 1e-4)
}

func TestShadowSceneBoundsFollowAnimatedSubmesh(t *testing.T) {
	r, dev := newTestRenderer(t)
	cube := model.NewCube()
	_, set := materialFor(material.NewRegistry(), cube, "grey")
	pose := &model.Pose{Nodes: map[string]mgl32.Mat4{"cube": mgl32.Translate3D(0, 150, 0)}}

	r.Begin(testWidth, testHeight, testCamera())
	r.SubmitAnimated(cube, pose, set, mgl32.Ident4(), 1, false)
	r.SubmitDirectional(primarySun(), mgl32.HomogRotate3DX(mgl32.DegToRad(30)))
	r.End(nil)

	scene := r.shadow.SceneBounds()
	assert.InDelta(t, 149.5, scene.Min[1], 1e-4)
	assert.InDelta(t, 150.5, scene.Max[1], 1e-4)

	// The lifted caster must land inside every cascade's depth range.
	center := mgl32.Vec4{0, 150, 0, 1}
	draws := dev.DrawsWith("shadow")
	require.Len(t, draws, MaxCascades)
	for i, c := range r.shadow.Cascades() {
		clip := c.ViewProj.Mul4x1(center)
		z := clip[2] / clip[3]
		assert.True(t, z >= -1 && z <= 1, "cascade %d: caster depth %v outside clip range", i, z)
	}
}

func TestShadowLastPrimaryWins(t *testing.T) {
	r, dev := newTestRenderer(t)
	first := primarySun()
	second := primarySun()
	second.Color = mgl32.Vec3{1, 0.5, 0}

	r.Begin(testWidth, testHeight, testCamera())
	r.SubmitDirectional(first, mgl32.Ident4())
	r.SubmitDirectional(second, mgl32.HomogRotate3DZ(mgl32.DegToRad(45)))

	queued := r.lighting.Lights().Directional
	require.Len(t, queued, 2)
	assert.False(t, queued[0].Primary)
	assert.True(t, queued[1].Primary)
	primary, ok := r.shadow.PrimaryLight()
	require.True(t, ok)
	assert.Equal(t, second.Color, primary.Color)
	r.End(nil)

	assert.Len(t, dev.DrawsWith("deferred_directional_shadowed"), 1)
	assert.Len(t, dev.DrawsWith("deferred_directional"), 1)
}

func TestShadowSkinnedCasterUploadsBones(t *testing.T) {
	r, dev := newTestRenderer(t)
	column := model.NewSkinnedColumn(6, 3)
	_, set := materialFor(material.NewRegistry(), column, "skin")
	anim := model.NewAnimator(model.SwayClip(2), column.Skeleton)

	r.Begin(testWidth, testHeight, testCamera())
	r.SubmitAnimated(column, anim, set, mgl32.Ident4(), 1, false)
	r.SubmitDirectional(primarySun(), mgl32.Ident4())
	r.End(nil)

	draws := dev.DrawsWith("shadow")
	require.Len(t, draws, MaxCascades)
	for _, d := range draws {
		assert.Equal(t, int32(1), d.Uniforms["uSkinned"])
	}
	bones := r.shadow.bones.(*gputest.StorageBuffer)
	assert.Len(t, bones.Uploads, MaxCascades)
}

func TestShadowCascadeCountSetting(t *testing.T) {
	r, dev := newTestRenderer(t, func(s *Settings) { s.CascadeCount = 2 })
	cube := model.NewCube()
	_, set := materialFor(material.NewRegistry(), cube, "grey")

	r.Begin(testWidth, testHeight, testCamera())
	r.Submit(cube, set, mgl32.Ident4(), 1, false)
	r.SubmitDirectional(primarySun(), mgl32.Ident4())
	r.End(nil)

	assert.Len(t, r.shadow.Cascades(), 2)
	assert.Len(t, dev.DrawsWith("blur_vertical"), 2)
	// Unused cascades are still cleared to fully lit.
	assert.Equal(t, 1, r.shadow.CascadeBuffer(3).(*gputest.Framebuffer).Clears)
}

func TestShadowCascadeSizeSettingResizesMaps(t *testing.T) {
	r, _ := newTestRenderer(t)
	s := r.Settings()
	s.CascadeSize = 512
	r.SetSettings(s)

	r.Begin(testWidth, testHeight, testCamera())
	r.End(nil)

	w, h := r.shadow.CascadeBuffer(0).Size()
	assert.Equal(t, 512, w)
	assert.Equal(t, 512, h)
}

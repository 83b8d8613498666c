package scene

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/engine/asset"
	"github.com/Faultbox/prism/internal/engine/lighting"
	"github.com/Faultbox/prism/internal/engine/material"
)

type textureRequest struct {
	path    string
	mat     string
	sampler material.Sampler
}

type fakeTextures struct {
	requests []textureRequest
}

func (f *fakeTextures) Request(path string, m *material.Material, s material.Sampler) {
	f.requests = append(f.requests, textureRequest{path, m.Name, s})
}

func buildScene(lib *asset.Library) *Scene {
	s := New("demo")
	floorMat := s.Materials.Create("floor")
	floorMat.Albedo = mgl32.Vec3{0.5, 0.5, 0.5}
	floorMat.Roughness = 0.9
	floorMat.TexturePaths[material.Albedo] = "textures/floor.png"
	shared := s.Materials.Create("shared")
	shared.Metallic = 1

	floor := s.CreateEntity("floor")
	floor.Renderable = &Renderable{ModelPath: "primitive:plane", Model: lib.Model("primitive:plane"), Materials: material.NewSet()}
	floor.Renderable.Materials.Attach("plane", floorMat)

	for _, name := range []string{"a", "b"} {
		e := s.CreateEntity(name)
		e.Transform.Translation = mgl32.Vec3{1, 2, 3}
		e.Transform.Rotation = mgl32.Vec3{0, 45, 0}
		e.Renderable = &Renderable{ModelPath: "primitive:cube", Model: lib.Model("primitive:cube"),
			Materials: material.NewSet(), Animation: "clip:turntable"}
		e.Renderable.Materials.Attach("cube", shared)
		e.Spin = &Spin{Axis: mgl32.Vec3{0, 1, 0}, Speed: 30}
	}

	sunEntity := s.CreateEntity("sun")
	sunEntity.DirectionalLight = sun(true)
	lamp := s.CreateEntity("lamp")
	lamp.PointLight = &lighting.PointLight{Color: mgl32.Vec3{1, 0.5, 0}, Intensity: 4, Radius: 6, Falloff: 1}
	spot := s.CreateEntity("spot")
	spot.SpotLight = &lighting.SpotLight{Direction: mgl32.Vec3{0, -1, 0}, Color: mgl32.Vec3{1, 1, 1},
		Intensity: 3, InnerCutoff: 15, OuterCutoff: 25, Radius: 10}
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	lib := asset.NewLibrary()
	orig := buildScene(lib)
	path := filepath.Join(t.TempDir(), "scenes", "demo.yaml")
	require.NoError(t, orig.Save(path))

	textures := &fakeTextures{}
	got, err := Load(path, lib, textures)
	require.NoError(t, err)

	assert.Equal(t, "demo", got.Name)
	require.Equal(t, orig.Len(), got.Len())
	assert.Equal(t, 2, got.Materials.Len(), "shared materials are stored once")
	assert.Equal(t, []textureRequest{{"textures/floor.png", "floor", material.Albedo}}, textures.requests)

	for i, want := range orig.Entities() {
		e := got.Entities()[i]
		assert.Equal(t, want.Name, e.Name)
		assert.Equal(t, want.Transform, e.Transform)
		assert.Equal(t, want.DirectionalLight, e.DirectionalLight)
		assert.Equal(t, want.PointLight, e.PointLight)
		assert.Equal(t, want.SpotLight, e.SpotLight)
		assert.Equal(t, want.Spin, e.Spin)
	}

	floor := got.Entities()[0].Renderable
	require.NotNil(t, floor)
	assert.Same(t, lib.Model("primitive:plane"), floor.Model)
	floorMat := floor.Materials.Lookup("plane")
	require.NotNil(t, floorMat)
	assert.Equal(t, float32(0.9), floorMat.Roughness)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, floorMat.Albedo)

	a, b := got.Entities()[1].Renderable, got.Entities()[2].Renderable
	assert.Same(t, a.Materials.Lookup("cube"), b.Materials.Lookup("cube"))
	assert.NotNil(t, a.Animator)
	assert.NotSame(t, a.Animator, b.Animator)
}

func TestSaveDuringPlayWritesEditState(t *testing.T) {
	lib := asset.NewLibrary()
	s := buildScene(lib)
	s.Play()
	s.Update(1)
	data, err := s.Marshal()
	require.NoError(t, err)
	s.Stop()

	got, err := Unmarshal(data, lib, nil)
	require.NoError(t, err)
	assert.Equal(t, float32(45), got.Entities()[1].Transform.Rotation[1])
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil, nil)
	assert.Error(t, err)

	tests := map[string]string{
		"bad yaml":         "name: [",
		"unknown material": "entities:\n  - name: e\n    renderable:\n      model: primitive:cube\n      materials: {cube: nope}\n",
		"unknown slot":     "materials:\n  - name: m\n    textures: {sheen: x.png}\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Unmarshal([]byte(doc), asset.NewLibrary(), nil)
			assert.Error(t, err)
		})
	}
}

func TestLoadUnknownModelStaysUnresolved(t *testing.T) {
	doc := "name: x\nentities:\n  - name: e\n    renderable:\n      model: models/hero.glb\n"
	s, err := Unmarshal([]byte(doc), asset.NewLibrary(), nil)
	require.NoError(t, err)
	r := s.Entities()[0].Renderable
	assert.Equal(t, "models/hero.glb", r.ModelPath)
	assert.Nil(t, r.Model)
}

func TestLoadKeepsLastPrimary(t *testing.T) {
	doc := `
name: suns
entities:
  - name: first
    directional_light: {color: [1, 1, 1], intensity: 1, cast_shadows: true, primary: true}
  - name: second
    directional_light: {color: [1, 1, 1], intensity: 1, cast_shadows: true, primary: true}
`
	s, err := Unmarshal([]byte(doc), nil, nil)
	require.NoError(t, err)
	assert.False(t, s.Entities()[0].DirectionalLight.Primary)
	assert.True(t, s.Entities()[1].DirectionalLight.Primary)
}

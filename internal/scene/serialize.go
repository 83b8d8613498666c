package scene

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/prism/internal/engine/asset"
	"github.com/Faultbox/prism/internal/engine/lighting"
	"github.com/Faultbox/prism/internal/engine/material"
)

// TextureLoader starts loading a material texture.
type TextureLoader interface {
	Request(path string, m *material.Material, s material.Sampler)
}

type sceneFile struct {
	Name      string         `yaml:"name"`
	Materials []materialFile `yaml:"materials,omitempty"`
	Entities  []entityFile   `yaml:"entities"`
}

type materialFile struct {
	Name      string            `yaml:"name"`
	Albedo    mgl32.Vec3        `yaml:"albedo,flow"`
	Metallic  float32           `yaml:"metallic"`
	Roughness float32           `yaml:"roughness"`
	AO        float32           `yaml:"ao"`
	Emission  float32           `yaml:"emission,omitempty"`
	Textures  map[string]string `yaml:"textures,omitempty"`
}

type transformFile struct {
	Translation mgl32.Vec3 `yaml:"translation,flow"`
	Rotation    mgl32.Vec3 `yaml:"rotation,flow"`
	Scale       mgl32.Vec3 `yaml:"scale,flow"`
}

type renderableFile struct {
	Model     string            `yaml:"model"`
	Animation string            `yaml:"animation,omitempty"`
	Materials map[string]string `yaml:"materials,omitempty"` // submesh -> material name
}

type directionalFile struct {
	Color       mgl32.Vec3 `yaml:"color,flow"`
	Intensity   float32    `yaml:"intensity"`
	CastShadows bool       `yaml:"cast_shadows"`
	Primary     bool       `yaml:"primary"`
}

type pointFile struct {
	Position    mgl32.Vec3 `yaml:"position,flow"`
	Color       mgl32.Vec3 `yaml:"color,flow"`
	Intensity   float32    `yaml:"intensity"`
	Radius      float32    `yaml:"radius"`
	Falloff     float32    `yaml:"falloff"`
	CastShadows bool       `yaml:"cast_shadows,omitempty"`
}

type spotFile struct {
	Position    mgl32.Vec3 `yaml:"position,flow"`
	Direction   mgl32.Vec3 `yaml:"direction,flow"`
	Color       mgl32.Vec3 `yaml:"color,flow"`
	Intensity   float32    `yaml:"intensity"`
	InnerCutoff float32    `yaml:"inner_cutoff"`
	OuterCutoff float32    `yaml:"outer_cutoff"`
	Radius      float32    `yaml:"radius"`
}

type spinFile struct {
	Axis  mgl32.Vec3 `yaml:"axis,flow"`
	Speed float32    `yaml:"speed"`
}

type entityFile struct {
	Name             string           `yaml:"name"`
	Transform        transformFile    `yaml:"transform"`
	Renderable       *renderableFile  `yaml:"renderable,omitempty"`
	DirectionalLight *directionalFile `yaml:"directional_light,omitempty"`
	PointLight       *pointFile       `yaml:"point_light,omitempty"`
	SpotLight        *spotFile        `yaml:"spot_light,omitempty"`
	Spin             *spinFile        `yaml:"spin,omitempty"`
}

// Save writes the scene to path as YAML. Entities are saved in their edit state
// when called during play.
func (s *Scene) Save(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Marshal encodes the scene as YAML.
func (s *Scene) Marshal() ([]byte, error) {
	entities := s.entities
	if s.playing {
		entities = make([]*Entity, len(s.snapshot))
		for i := range s.snapshot {
			entities[i] = &s.snapshot[i]
		}
	}

	f := sceneFile{Name: s.Name}
	names := make(map[*material.Material]string)
	for _, e := range entities {
		f.Entities = append(f.Entities, encodeEntity(e, &f, names))
	}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("encoding scene: %w", err)
	}
	return data, nil
}

func encodeEntity(e *Entity, f *sceneFile, names map[*material.Material]string) entityFile {
	ef := entityFile{
		Name: e.Name,
		Transform: transformFile{
			Translation: e.Transform.Translation,
			Rotation:    e.Transform.Rotation,
			Scale:       e.Transform.Scale,
		},
	}
	if r := e.Renderable; r != nil {
		rf := &renderableFile{Model: r.ModelPath, Animation: r.Animation}
		if r.Materials != nil {
			rf.Materials = make(map[string]string)
			for _, mesh := range r.Materials.Meshes() {
				m := r.Materials.Lookup(mesh)
				if m == nil {
					continue
				}
				rf.Materials[mesh] = materialName(m, f, names)
			}
		}
		ef.Renderable = rf
	}
	if l := e.DirectionalLight; l != nil {
		ef.DirectionalLight = &directionalFile{Color: l.Color, Intensity: l.Intensity, CastShadows: l.CastShadows, Primary: l.Primary}
	}
	if l := e.PointLight; l != nil {
		ef.PointLight = &pointFile{Position: l.Position, Color: l.Color, Intensity: l.Intensity,
			Radius: l.Radius, Falloff: l.Falloff, CastShadows: l.CastShadows}
	}
	if l := e.SpotLight; l != nil {
		ef.SpotLight = &spotFile{Position: l.Position, Direction: l.Direction, Color: l.Color, Intensity: l.Intensity,
			InnerCutoff: l.InnerCutoff, OuterCutoff: l.OuterCutoff, Radius: l.Radius}
	}
	if sp := e.Spin; sp != nil {
		ef.Spin = &spinFile{Axis: sp.Axis, Speed: sp.Speed}
	}
	return ef
}

// materialName records m in the file's material table once and returns its unique name.
func materialName(m *material.Material, f *sceneFile, names map[*material.Material]string) string {
	if name, ok := names[m]; ok {
		return name
	}
	name := m.Name
	if name == "" {
		name = "material"
	}
	taken := func(n string) bool {
		for _, mf := range f.Materials {
			if mf.Name == n {
				return true
			}
		}
		return false
	}
	for i := 2; taken(name); i++ {
		name = fmt.Sprintf("%s.%d", m.Name, i)
	}
	mf := materialFile{
		Name:      name,
		Albedo:    m.Albedo,
		Metallic:  m.Metallic,
		Roughness: m.Roughness,
		AO:        m.AO,
		Emission:  m.Emission,
	}
	for s := material.Sampler(0); s < material.SamplerCount; s++ {
		if p := m.TexturePaths[s]; p != "" {
			if mf.Textures == nil {
				mf.Textures = make(map[string]string)
			}
			mf.Textures[s.String()] = p
		}
	}
	f.Materials = append(f.Materials, mf)
	names[m] = name
	return name
}

// Load reads a scene file. Models are resolved through lib; unknown model paths
// stay unresolved and are not drawn. Texture loads are started on textures when non-nil.
func Load(path string, lib *asset.Library, textures TextureLoader) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading scene: %w", err)
	}
	s, err := Unmarshal(data, lib, textures)
	if err != nil {
		return nil, fmt.Errorf("loading scene %s: %w", path, err)
	}
	return s, nil
}

// Unmarshal decodes a YAML scene.
func Unmarshal(data []byte, lib *asset.Library, textures TextureLoader) (*Scene, error) {
	var f sceneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	s := New(f.Name)
	mats := make(map[string]*material.Material, len(f.Materials))
	for _, mf := range f.Materials {
		m := s.Materials.Create(mf.Name)
		m.Albedo = mf.Albedo
		m.Metallic = mf.Metallic
		m.Roughness = mf.Roughness
		m.AO = mf.AO
		m.Emission = mf.Emission
		for slot, p := range mf.Textures {
			sampler, ok := material.ParseSampler(slot)
			if !ok {
				return nil, fmt.Errorf("material %q: unknown texture slot %q", mf.Name, slot)
			}
			m.TexturePaths[sampler] = p
			if textures != nil {
				textures.Request(p, m, sampler)
			}
		}
		mats[mf.Name] = m
	}

	for _, ef := range f.Entities {
		e := s.CreateEntity(ef.Name)
		e.Transform = Transform{
			Translation: ef.Transform.Translation,
			Rotation:    ef.Transform.Rotation,
			Scale:       ef.Transform.Scale,
		}
		if rf := ef.Renderable; rf != nil {
			r := &Renderable{ModelPath: rf.Model, Animation: rf.Animation, Materials: material.NewSet()}
			for mesh, name := range rf.Materials {
				m, ok := mats[name]
				if !ok {
					return nil, fmt.Errorf("entity %q: unknown material %q", ef.Name, name)
				}
				r.Materials.Attach(mesh, m)
			}
			if lib != nil {
				r.Model = lib.Model(rf.Model)
				if rf.Animation != "" {
					r.Animator = lib.Animator(rf.Animation, r.Model)
				}
			}
			e.Renderable = r
		}
		if l := ef.DirectionalLight; l != nil {
			e.DirectionalLight = &lighting.DirectionalLight{Color: l.Color, Intensity: l.Intensity,
				CastShadows: l.CastShadows, Primary: l.Primary}
		}
		if l := ef.PointLight; l != nil {
			e.PointLight = &lighting.PointLight{Position: l.Position, Color: l.Color, Intensity: l.Intensity,
				Radius: l.Radius, Falloff: l.Falloff, CastShadows: l.CastShadows}
		}
		if l := ef.SpotLight; l != nil {
			e.SpotLight = &lighting.SpotLight{Position: l.Position, Direction: l.Direction, Color: l.Color,
				Intensity: l.Intensity, InnerCutoff: l.InnerCutoff, OuterCutoff: l.OuterCutoff, Radius: l.Radius}
		}
		if sp := ef.Spin; sp != nil {
			e.Spin = &Spin{Axis: sp.Axis, Speed: sp.Speed}
		}
	}

	// Keep only the last primary, as the editor would.
	if p, ok := lastPrimary(s); ok {
		_ = s.SetPrimaryLight(p)
	}
	return s, nil
}

func lastPrimary(s *Scene) (EntityID, bool) {
	var id EntityID
	for _, e := range s.entities {
		if e.DirectionalLight != nil && e.DirectionalLight.Primary {
			id = e.ID
		}
	}
	return id, id != 0
}

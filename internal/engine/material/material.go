// Package material defines PBR materials, their stable handles and per-mesh material sets.
package material

import (
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// Handle is a stable material identity. Zero is never issued.
type Handle uint32

// Sampler names a material texture slot. The slot index is also its texture unit.
type Sampler int

const (
	Albedo Sampler = iota
	Normal
	MetalRough
	AO
	SamplerCount
)

var samplerNames = [SamplerCount]string{"albedo", "normal", "metal_rough", "ao"}

func (s Sampler) String() string {
	if s < 0 || s >= SamplerCount {
		return "unknown"
	}
	return samplerNames[s]
}

// Uniform is the shader sampler uniform bound to the slot.
func (s Sampler) Uniform() string {
	switch s {
	case Albedo:
		return "uAlbedoMap"
	case Normal:
		return "uNormalMap"
	case MetalRough:
		return "uMetalRoughMap"
	default:
		return "uAOMap"
	}
}

// ParseSampler returns the slot with the given name.
func ParseSampler(name string) (Sampler, bool) {
	for i, n := range samplerNames {
		if n == name {
			return Sampler(i), true
		}
	}
	return 0, false
}

// Block is the packed per-instance material data:
// albedo (rgb, 1), (metallic, roughness, ao, emission), sampler flags (1 when a texture is bound).
type Block [3]mgl32.Vec4

// Material is a PBR metal/roughness material.
type Material struct {
	Name      string
	Albedo    mgl32.Vec3
	Metallic  float32
	Roughness float32
	AO        float32
	Emission  float32

	// TexturePaths are the source files of each slot, persisted with the scene.
	TexturePaths [SamplerCount]string

	handle   Handle
	textures [SamplerCount]gpu.Texture
}

// Handle returns the material's identity, zero for materials not created by a Registry.
func (m *Material) Handle() Handle { return m.handle }

// SetTexture binds a texture to a slot. A nil texture means not loaded.
func (m *Material) SetTexture(s Sampler, t gpu.Texture) {
	m.textures[s] = t
}

// Texture returns the texture in a slot, nil when absent or still loading.
func (m *Material) Texture(s Sampler) gpu.Texture {
	return m.textures[s]
}

// Block packs the material for upload.
func (m *Material) Block() Block {
	var flags mgl32.Vec4
	for s := Sampler(0); s < SamplerCount; s++ {
		if m.textures[s] != nil {
			flags[s] = 1
		}
	}
	return Block{
		{m.Albedo[0], m.Albedo[1], m.Albedo[2], 1},
		{m.Metallic, m.Roughness, m.AO, m.Emission},
		flags,
	}
}

// BindTextures binds every slot to its texture unit, substituting fallback for missing textures.
func (m *Material) BindTextures(prog gpu.Program, fallback gpu.Texture) {
	for s := Sampler(0); s < SamplerCount; s++ {
		t := m.textures[s]
		if t == nil {
			t = fallback
		}
		if t != nil {
			t.Bind(uint32(s))
		}
		prog.SetInt(s.Uniform(), int32(s))
	}
}

// Registry issues material handles. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	next      Handle
	materials map[Handle]*Material
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{materials: make(map[Handle]*Material)}
}

// Create registers a new material with default parameters.
func (r *Registry) Create(name string) *Material {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	m := &Material{
		Name:      name,
		Albedo:    mgl32.Vec3{1, 1, 1},
		Roughness: 0.5,
		AO:        1,
		handle:    r.next,
	}
	r.materials[m.handle] = m
	return m
}

// Get returns the material with the given handle, or nil.
func (r *Registry) Get(h Handle) *Material {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.materials[h]
}

// Remove forgets a material. Its handle is never reissued.
func (r *Registry) Remove(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.materials, h)
}

// Len returns the number of live materials.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.materials)
}

// Set maps submesh names to materials.
type Set struct {
	byMesh map[string]*Material
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{byMesh: make(map[string]*Material)}
}

// Attach binds a material to a submesh.
func (s *Set) Attach(mesh string, m *Material) {
	s.byMesh[mesh] = m
}

// Swap replaces the material of a submesh and returns the previous one.
func (s *Set) Swap(mesh string, m *Material) *Material {
	old := s.byMesh[mesh]
	s.byMesh[mesh] = m
	return old
}

// Lookup returns the submesh's material, or nil when none is bound.
func (s *Set) Lookup(mesh string) *Material {
	if s == nil {
		return nil
	}
	return s.byMesh[mesh]
}

// Meshes returns the bound submesh names in sorted order.
func (s *Set) Meshes() []string {
	names := make([]string, 0, len(s.byMesh))
	for name := range s.byMesh {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

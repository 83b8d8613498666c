// Package scene holds the editable entity list, its edit/play state and its YAML persistence.
package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/frustum"
	"github.com/Faultbox/prism/internal/engine/lighting"
	"github.com/Faultbox/prism/internal/engine/material"
	"github.com/Faultbox/prism/internal/engine/model"
)

// ErrEntityNotFound is returned for unknown entity ids.
var ErrEntityNotFound = errors.New("entity not found")

// EntityID identifies an entity within its scene. Zero is never issued.
type EntityID uint32

// MaxEntityID is the largest id issued. The renderer stores id+1 in a float32 channel
// for picking, which is exact only up to 2^24.
const MaxEntityID EntityID = 1<<24 - 1

// Transform is an entity's placement. Rotation is XYZ Euler angles in degrees.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Vec3
	Scale       mgl32.Vec3
}

// Identity returns a transform at the origin with unit scale.
func Identity() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// Matrix returns translation * rotation * scale.
func (t Transform) Matrix() mgl32.Mat4 {
	rot := mgl32.AnglesToQuat(
		mgl32.DegToRad(t.Rotation[0]),
		mgl32.DegToRad(t.Rotation[1]),
		mgl32.DegToRad(t.Rotation[2]),
		mgl32.XYZ,
	).Mat4()
	return mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).
		Mul4(rot).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Renderable draws a model with per-submesh materials.
type Renderable struct {
	// ModelPath is resolved through asset.Library; Model is nil until resolved.
	ModelPath string
	Model     *model.Model
	Materials *material.Set
	// Animation names a library clip; Animator is built from it.
	Animation string
	Animator  *model.KeyframeAnimator
}

// Spin rotates an entity about Axis at Speed degrees per second while playing.
type Spin struct {
	Axis  mgl32.Vec3
	Speed float32
}

// Entity is a named transform with optional components.
type Entity struct {
	ID        EntityID
	Name      string
	Transform Transform

	Renderable       *Renderable
	DirectionalLight *lighting.DirectionalLight
	PointLight       *lighting.PointLight
	SpotLight        *lighting.SpotLight
	Spin             *Spin
}

// Scene is an ordered set of entities.
type Scene struct {
	Name      string
	Materials *material.Registry

	entities []*Entity
	byID     map[EntityID]*Entity
	nextID   EntityID

	playing  bool
	snapshot []Entity
	animTime map[EntityID]float32
}

// New creates an empty scene.
func New(name string) *Scene {
	return &Scene{
		Name:      name,
		Materials: material.NewRegistry(),
		byID:      make(map[EntityID]*Entity),
	}
}

// CreateEntity appends a new entity with an identity transform.
// Ids increase monotonically; past MaxEntityID they wrap to the lowest free id.
func (s *Scene) CreateEntity(name string) *Entity {
	s.nextID = s.freeID()
	e := &Entity{ID: s.nextID, Name: name, Transform: Identity()}
	s.entities = append(s.entities, e)
	s.byID[e.ID] = e
	return e
}

func (s *Scene) freeID() EntityID {
	id := s.nextID
	for range MaxEntityID {
		id++
		if id > MaxEntityID {
			id = 1
		}
		if _, used := s.byID[id]; !used {
			return id
		}
	}
	panic("scene: entity ids exhausted")
}

// Remove deletes an entity.
func (s *Scene) Remove(id EntityID) error {
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("remove %d: %w", id, ErrEntityNotFound)
	}
	delete(s.byID, id)
	for i, e := range s.entities {
		if e.ID == id {
			s.entities = append(s.entities[:i], s.entities[i+1:]...)
			break
		}
	}
	return nil
}

// Entity returns the entity with the given id.
func (s *Scene) Entity(id EntityID) (*Entity, error) {
	e, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("entity %d: %w", id, ErrEntityNotFound)
	}
	return e, nil
}

// Entities returns the entities in creation order. The slice must not be modified.
func (s *Scene) Entities() []*Entity {
	return s.entities
}

// Len returns the number of entities.
func (s *Scene) Len() int { return len(s.entities) }

// SetPrimaryLight makes the entity's directional light the shadow-casting primary
// and clears the flag on every other directional light.
func (s *Scene) SetPrimaryLight(id EntityID) error {
	target, ok := s.byID[id]
	if !ok || target.DirectionalLight == nil {
		return fmt.Errorf("primary light %d: %w", id, ErrEntityNotFound)
	}
	for _, e := range s.entities {
		if e.DirectionalLight != nil {
			e.DirectionalLight.Primary = e == target
		}
	}
	return nil
}

// PrimaryLight returns the entity carrying the primary directional light.
func (s *Scene) PrimaryLight() (*Entity, bool) {
	for _, e := range s.entities {
		if e.DirectionalLight != nil && e.DirectionalLight.Primary {
			return e, true
		}
	}
	return nil, false
}

// Bounds returns the world-space bounds of every resolved renderable.
func (s *Scene) Bounds() model.Bounds {
	b := model.EmptyBounds()
	for _, e := range s.entities {
		r := e.Renderable
		if r == nil || r.Model == nil || r.Model.Bounds.Empty() {
			continue
		}
		lo, hi := frustum.TransformBox(e.Transform.Matrix(), r.Model.Bounds.Min, r.Model.Bounds.Max)
		b.Extend(lo)
		b.Extend(hi)
	}
	return b
}

// Raycast returns the nearest renderable whose world bounds the ray hits,
// along with the distance to its bounds.
func (s *Scene) Raycast(ray camera.Ray) (*Entity, float32, bool) {
	var nearest *Entity
	best := float32(0)
	for _, e := range s.entities {
		r := e.Renderable
		if r == nil || r.Model == nil || r.Model.Bounds.Empty() {
			continue
		}
		lo, hi := frustum.TransformBox(e.Transform.Matrix(), r.Model.Bounds.Min, r.Model.Bounds.Max)
		if d, ok := ray.IntersectBox(lo, hi); ok && (nearest == nil || d < best) {
			nearest, best = e, d
		}
	}
	return nearest, best, nearest != nil
}

// FocusPoint returns the bounds center of the nearest renderable the ray hits,
// else the ray's intersection with the ground plane y = 0.
func (s *Scene) FocusPoint(ray camera.Ray) (mgl32.Vec3, bool) {
	if e, _, ok := s.Raycast(ray); ok {
		b := e.Renderable.Model.Bounds
		return mgl32.TransformCoordinate(b.Min.Add(b.Max).Mul(0.5), e.Transform.Matrix()), true
	}
	return ray.IntersectPlaneY(0)
}

// Package editor holds the editor session: the open scene, selection, camera and
// the per-frame update that feeds the renderer.
package editor

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/engine/asset"
	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/lighting"
	"github.com/Faultbox/prism/internal/engine/material"
	"github.com/Faultbox/prism/internal/engine/renderer"
	"github.com/Faultbox/prism/internal/logger"
	"github.com/Faultbox/prism/internal/scene"
)

// StatsLogInterval throttles debug logging of frame statistics.
const StatsLogInterval = time.Second

// Picker resolves a viewport pixel to an entity id.
type Picker interface {
	PickEntity(x, y int) (uint32, bool)
}

// Editor is one editing session.
type Editor struct {
	Scene    *scene.Scene
	Library  *asset.Library
	Loader   *asset.Loader
	Camera   *camera.OrbitCamera
	Selected scene.EntityID
	// Path is the file the scene was opened from or last saved to.
	Path string
	// LogStats enables periodic debug logging of frame statistics.
	LogStats bool

	log          *zap.Logger
	lastStatsLog time.Time
	now          func() time.Time
}

// New creates an editor with the default scene.
func New(lib *asset.Library, loader *asset.Loader) *Editor {
	e := &Editor{
		Library: lib,
		Loader:  loader,
		Camera:  camera.NewOrbitCamera(),
		log:     logger.Named("editor"),
		now:     time.Now,
	}
	e.NewScene()
	return e
}

// NewScene replaces the open scene with a floor, a few primitives and a primary sun.
func (e *Editor) NewScene() {
	e.Scene = scene.New("Untitled")
	e.Path = ""
	e.Selected = 0

	floor := e.AddPrimitive("plane")
	floor.Name = "Floor"
	floor.Transform.Scale = mgl32.Vec3{2, 1, 2}

	cube := e.AddPrimitive("cube")
	cube.Transform.Translation = mgl32.Vec3{-1.5, 0.5, 0}
	cube.Spin = &scene.Spin{Axis: mgl32.Vec3{0, 1, 0}, Speed: 45}

	sphere := e.AddPrimitive("sphere")
	sphere.Transform.Translation = mgl32.Vec3{1.5, 0.5, 0}

	sun := e.AddDirectionalLight()
	sun.Transform.Rotation = mgl32.Vec3{-40, 30, 0}

	e.Selected = 0
	e.Camera.FitToBounds(mgl32.Vec3{-5, 0, -5}, mgl32.Vec3{5, 2, 5})
}

// Open loads a scene file, starting its texture loads.
func (e *Editor) Open(path string) error {
	s, err := scene.Load(path, e.Library, e.Loader)
	if err != nil {
		e.log.Error("scene load failed", zap.String("path", path), zap.Error(err))
		return err
	}
	e.Scene = s
	e.Path = path
	e.Selected = 0
	if b := s.Bounds(); !b.Empty() {
		e.Camera.FitToBounds(b.Min, b.Max)
	}
	e.log.Info("scene opened", zap.String("path", path), zap.Int("entities", s.Len()))
	return nil
}

// Save writes the scene to path, or to Path when path is empty.
func (e *Editor) Save(path string) error {
	if path == "" {
		path = e.Path
	}
	if path == "" {
		return fmt.Errorf("save scene: no path")
	}
	if err := e.Scene.Save(path); err != nil {
		e.log.Error("scene save failed", zap.String("path", path), zap.Error(err))
		return err
	}
	e.Path = path
	e.log.Info("scene saved", zap.String("path", path))
	return nil
}

// Select makes id the selected entity; zero or an unknown id clears the selection.
func (e *Editor) Select(id scene.EntityID) {
	if _, err := e.Scene.Entity(id); err != nil {
		id = 0
	}
	e.Selected = id
}

// SelectedEntity returns the selected entity, or nil.
func (e *Editor) SelectedEntity() *scene.Entity {
	if e.Selected == 0 {
		return nil
	}
	ent, err := e.Scene.Entity(e.Selected)
	if err != nil {
		return nil
	}
	return ent
}

// Pick selects the entity under viewport pixel (x, y), or clears the selection.
func (e *Editor) Pick(p Picker, x, y int) {
	id, ok := p.PickEntity(x, y)
	if !ok {
		e.Selected = 0
		return
	}
	e.Select(scene.EntityID(id))
}

// FocusAt moves the orbit center to what lies under viewport pixel (x, y): the
// center of the nearest entity hit, else the ground plane. It reports whether
// anything was hit.
func (e *Editor) FocusAt(x, y float32, width, height int) bool {
	ray := e.Camera.Snapshot(width, height).ScreenRay(x, y, float32(width), float32(height))
	p, ok := e.Scene.FocusPoint(ray)
	if ok {
		e.Camera.FocusOn(p)
	}
	return ok
}

// AddPrimitive creates an entity drawing the named built-in primitive with a fresh material
// per submesh, and selects it.
func (e *Editor) AddPrimitive(kind string) *scene.Entity {
	path := asset.PrimitivePrefix + kind
	m := e.Library.Model(path)
	ent := e.Scene.CreateEntity(title(kind))
	r := &scene.Renderable{ModelPath: path, Model: m, Materials: material.NewSet()}
	if m != nil {
		for _, mesh := range m.Meshes {
			mat := e.Scene.Materials.Create(mesh.Name)
			mat.Albedo = mgl32.Vec3{0.8, 0.8, 0.8}
			r.Materials.Attach(mesh.Name, mat)
		}
		if m.Skinned() {
			r.Animation = asset.ClipPrefix + "sway"
			r.Animator = e.Library.Animator(r.Animation, m)
		}
	}
	ent.Renderable = r
	e.Selected = ent.ID
	return ent
}

// AddDirectionalLight creates a shadow-casting sun. It becomes the primary light.
func (e *Editor) AddDirectionalLight() *scene.Entity {
	ent := e.Scene.CreateEntity("Sun")
	ent.DirectionalLight = &lighting.DirectionalLight{
		Color:       mgl32.Vec3{1, 0.96, 0.9},
		Intensity:   3,
		CastShadows: true,
	}
	_ = e.Scene.SetPrimaryLight(ent.ID)
	e.Selected = ent.ID
	return ent
}

// AddPointLight creates a point light one unit above the origin.
func (e *Editor) AddPointLight() *scene.Entity {
	ent := e.Scene.CreateEntity("Point Light")
	ent.Transform.Translation = mgl32.Vec3{0, 1, 0}
	ent.PointLight = &lighting.PointLight{Color: mgl32.Vec3{1, 1, 1}, Intensity: 5, Radius: 8, Falloff: 1}
	e.Selected = ent.ID
	return ent
}

// AddSpotLight creates a downward spot light.
func (e *Editor) AddSpotLight() *scene.Entity {
	ent := e.Scene.CreateEntity("Spot Light")
	ent.Transform.Translation = mgl32.Vec3{0, 3, 0}
	ent.SpotLight = &lighting.SpotLight{
		Direction:   mgl32.Vec3{0, -1, 0},
		Color:       mgl32.Vec3{1, 1, 1},
		Intensity:   8,
		InnerCutoff: 20,
		OuterCutoff: 30,
		Radius:      12,
	}
	e.Selected = ent.ID
	return ent
}

// DeleteSelected removes the selected entity.
func (e *Editor) DeleteSelected() error {
	if e.Selected == 0 {
		return nil
	}
	if err := e.Scene.Remove(e.Selected); err != nil {
		return err
	}
	e.Selected = 0
	return nil
}

// TogglePlay switches between edit and play state.
func (e *Editor) TogglePlay() {
	if e.Scene.Playing() {
		e.Scene.Stop()
		// Entities spawned during play are gone.
		e.Select(e.Selected)
		return
	}
	e.Scene.Play()
}

// Frame advances the scene by dt and renders it into front at the given size.
func (e *Editor) Frame(r *renderer.Renderer, dev gpu.Device, front gpu.Framebuffer, width, height int, dt float32) {
	if e.Loader != nil {
		e.Loader.Poll(dev)
	}
	e.Scene.Update(dt)

	r.Begin(width, height, e.Camera.Snapshot(width, height))
	e.Scene.Submit(r, e.Selected)
	r.End(front)

	if e.LogStats {
		e.logStats(r.Stats())
	}
}

func (e *Editor) logStats(stats renderer.Stats) {
	now := e.now()
	if now.Sub(e.lastStatsLog) < StatsLogInterval {
		return
	}
	e.lastStatsLog = now
	e.log.Debug("frame",
		zap.Int("draw_calls", stats.DrawCalls),
		zap.Int("instances", stats.Instances),
		zap.Int("triangles", stats.TrianglesDrawn),
		zap.Int("shadow_casters", stats.ShadowCasters),
		zap.Duration("frame_time", stats.FrameTime),
	)
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

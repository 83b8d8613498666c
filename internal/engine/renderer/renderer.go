// Package renderer implements the deferred rendering pipeline: a geometry pass filling a G-buffer,
// cascaded shadow maps for the primary directional light, additive HDR lighting and post-processing.
//
// A frame is driven by Begin, any number of Submit calls, and End:
//
//	r.Begin(w, h, cam.Snapshot(w, h))
//	r.Submit(model, materials, transform, id, selected)
//	r.SubmitDirectional(sun, sunTransform)
//	r.End(front)
package renderer

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/lighting"
	"github.com/Faultbox/prism/internal/engine/material"
	"github.com/Faultbox/prism/internal/engine/model"
	"github.com/Faultbox/prism/internal/logger"
)

// Renderer owns the pass graph and the per-frame context.
type Renderer struct {
	dev      gpu.Device
	settings Settings
	log      *zap.Logger

	graph    *Graph
	geometry *GeometryPass
	shadow   *ShadowPass
	lighting *LightingPass
	post     *PostPass

	stats      Stats
	frame      *FrameContext
	frameStart time.Time
}

// New builds the pipeline on dev. env may be nil.
// IMPORTANT: dev must be current on the calling goroutine; every method uses it.
func New(dev gpu.Device, settings Settings, env Environment) (*Renderer, error) {
	settings.Validate()
	r := &Renderer{
		dev:      dev,
		settings: settings,
		log:      logger.Named("renderer"),
		graph:    NewGraph(),
		geometry: NewGeometryPass(dev),
		shadow:   NewShadowPass(dev, settings.CascadeSize),
		lighting: NewLightingPass(dev, env),
		post:     NewPostPass(dev),
	}
	for _, p := range []Pass{r.geometry, r.shadow, r.lighting, r.post} {
		if err := r.graph.Add(p); err != nil {
			return nil, err
		}
	}
	if err := r.graph.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize renderer: %w", err)
	}
	r.log.Info("renderer initialized",
		zap.Int("cascades", settings.CascadeCount),
		zap.Int("cascade_size", settings.CascadeSize),
		zap.String("tone_map", string(settings.ToneMap)),
	)
	return r, nil
}

// Begin starts a frame of width x height pixels seen from cam.
func (r *Renderer) Begin(width, height int, cam camera.Snapshot) {
	r.frameStart = time.Now()
	r.stats.Reset()
	r.frame = NewFrameContext(r.dev, cam, width, height, r.settings, &r.stats)
	r.graph.BeginFrame(r.frame)
}

// Submit queues a static model. Nothing is queued outside Begin/End.
func (r *Renderer) Submit(m *model.Model, mats *material.Set, transform mgl32.Mat4, id uint32, selected bool) {
	r.geometry.Submit(m, mats, transform, id, selected)
}

// SubmitAnimated queues a model posed by anim.
func (r *Renderer) SubmitAnimated(m *model.Model, anim model.Animator, mats *material.Set, transform mgl32.Mat4, id uint32, selected bool) {
	r.geometry.SubmitAnimated(m, anim, mats, transform, id, selected)
}

// SubmitDirectional queues a directional light owned by an entity with the given transform.
// When several primary shadow casters are submitted, the last one casts the cascades.
func (r *Renderer) SubmitDirectional(light lighting.DirectionalLight, transform mgl32.Mat4) {
	if r.frame == nil {
		return
	}
	light = light.Resolve(transform)
	r.lighting.SubmitDirectional(light)
	r.shadow.SetPrimaryLight(light)
	r.stats.DirectionalLights++
}

// SubmitPoint queues a point light owned by an entity with the given transform.
func (r *Renderer) SubmitPoint(light lighting.PointLight, transform mgl32.Mat4) {
	if r.frame == nil {
		return
	}
	r.lighting.SubmitPoint(light.Resolve(transform))
	r.stats.PointLights++
}

// SubmitSpot queues a spot light owned by an entity with the given transform.
func (r *Renderer) SubmitSpot(light lighting.SpotLight, transform mgl32.Mat4) {
	if r.frame == nil {
		return
	}
	r.lighting.SubmitSpot(light.Resolve(transform))
	r.stats.SpotLights++
}

// End renders the frame into front, or into the default framebuffer when front is nil.
func (r *Renderer) End(front gpu.Framebuffer) {
	if r.frame == nil {
		return
	}
	r.frame.Front = front
	r.graph.Render(r.frame)
	r.graph.EndFrame(r.frame)
	r.frame = nil
	r.stats.FrameTime = time.Since(r.frameStart)
}

// Stats returns the counters of the last frame.
func (r *Renderer) Stats() Stats {
	s := r.stats
	s.PassTimes = append([]PassTime(nil), r.stats.PassTimes...)
	return s
}

// PickEntity returns the entity drawn at pixel (x, y) of the last frame, measured from the
// top-left corner of the viewport. ok is false for background pixels.
func (r *Renderer) PickEntity(x, y int) (id uint32, ok bool) {
	gbuffer := r.geometry.GBuffer()
	w, h := gbuffer.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return 0, false
	}
	px := gbuffer.ReadPixel(gpu.Color3, x, h-1-y)
	mask := EntityData{IDMask: mgl32.Vec4(px)}
	return mask.EntityID()
}

// Settings returns the active settings.
func (r *Renderer) Settings() Settings { return r.settings }

// SetSettings replaces the settings from the next frame on.
func (r *Renderer) SetSettings(s Settings) {
	s.Validate()
	r.settings = s
}

// GBuffer exposes the geometry pass output for editor overlays drawn after End.
func (r *Renderer) GBuffer() gpu.Framebuffer { return r.geometry.GBuffer() }

// Shutdown releases every pass's resources.
func (r *Renderer) Shutdown() {
	r.log.Info("shutting down renderer")
	r.graph.Shutdown()
}

package asset

import (
	"sort"
	"strings"
	"sync"

	"github.com/Faultbox/prism/internal/engine/model"
)

// Built-in asset path prefixes.
const (
	PrimitivePrefix = "primitive:"
	ClipPrefix      = "clip:"
)

// Library resolves model and animation paths. Models are shared between every
// entity that references the same path.
type Library struct {
	mu       sync.Mutex
	builders map[string]func() *model.Model
	models   map[string]*model.Model
}

// NewLibrary creates a library with the built-in primitives registered.
func NewLibrary() *Library {
	lib := &Library{
		builders: make(map[string]func() *model.Model),
		models:   make(map[string]*model.Model),
	}
	lib.Register(PrimitivePrefix+"cube", model.NewCube)
	lib.Register(PrimitivePrefix+"plane", func() *model.Model { return model.NewPlane(10) })
	lib.Register(PrimitivePrefix+"sphere", func() *model.Model { return model.NewSphere(32, 16) })
	lib.Register(PrimitivePrefix+"column", func() *model.Model { return model.NewSkinnedColumn(12, 8) })
	return lib
}

// Register adds a model constructor for path.
func (l *Library) Register(path string, build func() *model.Model) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.builders[path] = build
	delete(l.models, path)
}

// Model returns the model for path, or nil when the path is unknown.
// A nil model is treated as not ready by the renderer.
func (l *Library) Model(path string) *model.Model {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := l.models[path]; ok {
		return m
	}
	build, ok := l.builders[path]
	if !ok {
		return nil
	}
	m := build()
	l.models[path] = m
	return m
}

// Models returns the registered model paths in sorted order.
func (l *Library) Models() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	paths := make([]string, 0, len(l.builders))
	for p := range l.builders {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Animator builds a new animator playing clip on m. Known clips are
// "clip:turntable" (rotates every submesh) and "clip:sway" (bends a skinned column).
// It returns nil for an unknown clip or a nil model.
func (l *Library) Animator(clip string, m *model.Model) *model.KeyframeAnimator {
	if m == nil || !strings.HasPrefix(clip, ClipPrefix) {
		return nil
	}
	switch strings.TrimPrefix(clip, ClipPrefix) {
	case "turntable":
		c := &model.Clip{Name: "turntable", Duration: 4}
		for _, mesh := range m.Meshes {
			c.Tracks = append(c.Tracks, model.TurntableClip(mesh.Name, 4).Tracks...)
		}
		return model.NewAnimator(c, m.Skeleton)
	case "sway":
		if !m.Skinned() {
			return nil
		}
		return model.NewAnimator(model.SwayClip(2), m.Skeleton)
	}
	return nil
}

// Destroy releases GPU resources of every built model.
func (l *Library) Destroy() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.models {
		m.Destroy()
	}
	l.models = make(map[string]*model.Model)
}

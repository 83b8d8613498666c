package renderer

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// PassID identifies a render pass in the graph.
type PassID string

const (
	GeometryPassID PassID = "geometry"
	ShadowPassID   PassID = "shadow"
	LightingPassID PassID = "lighting"
	PostPassID     PassID = "post"
)

var (
	// ErrDuplicatePass is returned when a pass with the same ID is added twice.
	ErrDuplicatePass = errors.New("duplicate render pass")

	// ErrUnknownDependency is returned when a pass names a dependency that is not in the graph,
	// or asks for an upstream pass it did not declare.
	ErrUnknownDependency = errors.New("unknown render pass dependency")
)

// Pass is one stage of the frame pipeline.
//
// Lifecycle: Init once, then BeginFrame, Render and EndFrame every frame, then Shutdown.
// A pass owns every GPU resource it creates and only reads upstream resources through Upstream.
type Pass interface {
	ID() PassID
	// Dependencies lists the passes whose output this pass reads. They run first.
	Dependencies() []PassID
	Init(g *Graph) error
	BeginFrame(ctx *FrameContext)
	Render(ctx *FrameContext)
	EndFrame(ctx *FrameContext)
	Shutdown()
}

// Graph runs passes in insertion order. A pass can only be added after its dependencies,
// so insertion order is always a valid execution order.
type Graph struct {
	passes []Pass
	byID   map[PassID]Pass
	inited int
}

// NewGraph creates an empty pass graph.
func NewGraph() *Graph {
	return &Graph{byID: make(map[PassID]Pass)}
}

// Add appends a pass to the graph.
func (g *Graph) Add(p Pass) error {
	if _, ok := g.byID[p.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePass, p.ID())
	}
	for _, dep := range p.Dependencies() {
		if _, ok := g.byID[dep]; !ok {
			return fmt.Errorf("%w: %s depends on %s", ErrUnknownDependency, p.ID(), dep)
		}
	}
	g.passes = append(g.passes, p)
	g.byID[p.ID()] = p
	return nil
}

// Passes returns the passes in execution order.
func (g *Graph) Passes() []Pass {
	return slices.Clone(g.passes)
}

// Init initializes every pass. On failure the passes already initialized are shut down.
func (g *Graph) Init() error {
	for i, p := range g.passes {
		if err := p.Init(g); err != nil {
			for j := i - 1; j >= 0; j-- {
				g.passes[j].Shutdown()
			}
			g.inited = 0
			return fmt.Errorf("init %s pass: %w", p.ID(), err)
		}
		g.inited = i + 1
	}
	return nil
}

// BeginFrame calls BeginFrame on every pass in order.
func (g *Graph) BeginFrame(ctx *FrameContext) {
	for _, p := range g.passes {
		p.BeginFrame(ctx)
	}
}

// Render runs every pass in order and records its CPU time in ctx.Stats.
func (g *Graph) Render(ctx *FrameContext) {
	for _, p := range g.passes {
		start := time.Now()
		p.Render(ctx)
		if ctx.Stats != nil {
			ctx.Stats.addPassTime(p.ID(), time.Since(start))
		}
	}
}

// EndFrame calls EndFrame on every pass in order.
func (g *Graph) EndFrame(ctx *FrameContext) {
	for _, p := range g.passes {
		p.EndFrame(ctx)
	}
}

// Shutdown releases passes in reverse order.
func (g *Graph) Shutdown() {
	for i := g.inited - 1; i >= 0; i-- {
		g.passes[i].Shutdown()
	}
	g.inited = 0
}

// Upstream returns the pass id that from declared as a dependency, typed as T.
func Upstream[T Pass](g *Graph, from Pass, id PassID) (T, error) {
	var zero T
	if !slices.Contains(from.Dependencies(), id) {
		return zero, fmt.Errorf("%w: %s does not depend on %s", ErrUnknownDependency, from.ID(), id)
	}
	p, ok := g.byID[id]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrUnknownDependency, id)
	}
	t, ok := p.(T)
	if !ok {
		return zero, fmt.Errorf("pass %s has type %T", id, p)
	}
	return t, nil
}

package renderer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePass struct {
	id       PassID
	deps     []PassID
	initErr  error
	log      *[]string
	rendered int
}

func (p *fakePass) ID() PassID             { return p.id }
func (p *fakePass) Dependencies() []PassID { return p.deps }
func (p *fakePass) Init(*Graph) error {
	*p.log = append(*p.log, "init "+string(p.id))
	return p.initErr
}
func (p *fakePass) BeginFrame(*FrameContext) { *p.log = append(*p.log, "begin "+string(p.id)) }
func (p *fakePass) Render(*FrameContext) {
	p.rendered++
	*p.log = append(*p.log, "render "+string(p.id))
}
func (p *fakePass) EndFrame(*FrameContext) { *p.log = append(*p.log, "end "+string(p.id)) }
func (p *fakePass) Shutdown()              { *p.log = append(*p.log, "shutdown "+string(p.id)) }

func TestGraphAddRejectsDuplicates(t *testing.T) {
	var log []string
	g := NewGraph()
	require.NoError(t, g.Add(&fakePass{id: "a", log: &log}))

	err := g.Add(&fakePass{id: "a", log: &log})
	assert.ErrorIs(t, err, ErrDuplicatePass)
}

func TestGraphAddRejectsUnknownDependency(t *testing.T) {
	var log []string
	g := NewGraph()

	err := g.Add(&fakePass{id: "b", deps: []PassID{"a"}, log: &log})
	assert.ErrorIs(t, err, ErrUnknownDependency)
	assert.Empty(t, g.Passes())
}

func TestGraphRunsPassesInOrder(t *testing.T) {
	var log []string
	g := NewGraph()
	require.NoError(t, g.Add(&fakePass{id: "a", log: &log}))
	require.NoError(t, g.Add(&fakePass{id: "b", deps: []PassID{"a"}, log: &log}))
	require.NoError(t, g.Init())

	stats := &Stats{}
	ctx := &FrameContext{Stats: stats}
	g.BeginFrame(ctx)
	g.Render(ctx)
	g.EndFrame(ctx)
	g.Shutdown()

	assert.Equal(t, []string{
		"init a", "init b",
		"begin a", "begin b",
		"render a", "render b",
		"end a", "end b",
		"shutdown b", "shutdown a",
	}, log)
	require.Len(t, stats.PassTimes, 2)
	assert.Equal(t, PassID("a"), stats.PassTimes[0].Pass)
	assert.Equal(t, PassID("b"), stats.PassTimes[1].Pass)
}

func TestGraphInitFailureShutsDownInitializedPasses(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	g := NewGraph()
	require.NoError(t, g.Add(&fakePass{id: "a", log: &log}))
	require.NoError(t, g.Add(&fakePass{id: "b", log: &log}))
	require.NoError(t, g.Add(&fakePass{id: "c", initErr: boom, log: &log}))

	err := g.Init()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"init a", "init b", "init c", "shutdown b", "shutdown a"}, log)

	// Nothing is left to shut down.
	g.Shutdown()
	assert.Len(t, log, 5)
}

func TestUpstream(t *testing.T) {
	var log []string
	g := NewGraph()
	a := &fakePass{id: "a", log: &log}
	b := &fakePass{id: "b", deps: []PassID{"a"}, log: &log}
	require.NoError(t, g.Add(a))
	require.NoError(t, g.Add(b))

	t.Run("declared dependency", func(t *testing.T) {
		got, err := Upstream[*fakePass](g, b, "a")
		require.NoError(t, err)
		assert.Same(t, a, got)
	})

	t.Run("undeclared dependency", func(t *testing.T) {
		_, err := Upstream[*fakePass](g, a, "b")
		assert.ErrorIs(t, err, ErrUnknownDependency)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := Upstream[*GeometryPass](g, b, "a")
		assert.Error(t, err)
	})
}

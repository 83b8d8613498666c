package model

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/engine/gpu/gputest"
)

func TestVertexArrayIsCreatedOnce(t *testing.T) {
	dev := gputest.NewDevice()
	cube := NewCube()
	mesh := cube.Meshes[0]

	first := mesh.VertexArray(dev)
	require.NotNil(t, first)
	second := mesh.VertexArray(dev)

	assert.Same(t, first, second)
	assert.Len(t, dev.VertexArrays, 1)
	assert.Equal(t, int32(36), first.IndexCount())
}

func TestVertexArrayFailureIsNotRetried(t *testing.T) {
	dev := gputest.NewDevice()
	dev.FailVertexArrays = true
	mesh := NewCube().Meshes[0]

	assert.Nil(t, mesh.VertexArray(dev))
	dev.FailVertexArrays = false
	assert.Nil(t, mesh.VertexArray(dev))

	// Destroy clears the failure so the mesh can be uploaded again.
	mesh.Destroy()
	assert.NotNil(t, mesh.VertexArray(dev))
}

func TestVertexArrayEmptyMesh(t *testing.T) {
	dev := gputest.NewDevice()
	mesh := NewMesh("empty", nil, nil)
	assert.Nil(t, mesh.VertexArray(dev))
	assert.Empty(t, dev.VertexArrays)
	assert.False(t, New("empty", mesh).Loaded())
}

func TestPrimitiveBounds(t *testing.T) {
	tests := []struct {
		name    string
		model   *Model
		wantMin mgl32.Vec3
		wantMax mgl32.Vec3
		tris    int
	}{
		{"cube", NewCube(), mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5}, 12},
		{"plane", NewPlane(10), mgl32.Vec3{-5, 0, -5}, mgl32.Vec3{5, 0, 5}, 2},
		{"sphere", NewSphere(16, 8), mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5}, 16 * 8 * 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.model.Bounds.Min.ApproxEqualThreshold(tt.wantMin, 1e-4), "min: got %v, want %v", tt.model.Bounds.Min, tt.wantMin)
			assert.True(t, tt.model.Bounds.Max.ApproxEqualThreshold(tt.wantMax, 1e-4), "max: got %v, want %v", tt.model.Bounds.Max, tt.wantMax)
			assert.Equal(t, tt.tris, tt.model.Meshes[0].Triangles())
			assert.False(t, tt.model.Skinned())
			assert.True(t, tt.model.Loaded())
		})
	}
}

func TestTangentsAreOrthonormal(t *testing.T) {
	for _, m := range []*Model{NewCube(), NewSphere(12, 6), NewPlane(2)} {
		for i, v := range m.Meshes[0].Vertices {
			n, tan, bit := mgl32.Vec3(v.Normal), mgl32.Vec3(v.Tangent), mgl32.Vec3(v.Bitangent)
			assert.InDelta(t, 1.0, tan.Len(), 1e-3, "%s vertex %d tangent", m.Name, i)
			assert.InDelta(t, 0.0, tan.Dot(n), 1e-3, "%s vertex %d tangent.normal", m.Name, i)
			assert.InDelta(t, 0.0, bit.Dot(n), 1e-3, "%s vertex %d bitangent.normal", m.Name, i)
		}
	}
}

func TestSkinnedColumn(t *testing.T) {
	m := NewSkinnedColumn(8, 4)
	assert.True(t, m.Skinned())
	assert.Len(t, m.Skeleton, 2)

	// Without a skeleton the weights alone do not make the model GPU-skinned.
	m.Skeleton = nil
	assert.False(t, m.Skinned())
}

func TestSmoothNormals(t *testing.T) {
	verts := NewCube().Meshes[0].Vertices
	SmoothNormals(verts)
	// Every cube corner is shared by three faces: the averaged normal points along the diagonal.
	for _, v := range verts {
		p := mgl32.Vec3{v.Position[0], v.Position[1], v.Position[2]}
		assert.InDelta(t, 1.0, mgl32.Vec3(v.Normal).Dot(p.Normalize()), 1e-4)
	}
}

func TestBoundsUnionIgnoresEmpty(t *testing.T) {
	b := EmptyBounds()
	assert.True(t, b.Empty())
	b.Union(EmptyBounds())
	assert.True(t, b.Empty())
	b.Extend(mgl32.Vec3{1, 2, 3})
	assert.False(t, b.Empty())
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, b.Min)
}

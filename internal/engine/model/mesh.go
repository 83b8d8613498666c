package model

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/logger"
)

// Mesh is one submesh of a model. Materials are bound per mesh name.
type Mesh struct {
	Name     string
	Vertices []gpu.Vertex
	Indices  []uint32
	Bounds   Bounds

	// Transform places the submesh in model space.
	Transform mgl32.Mat4

	va     gpu.VertexArray
	failed bool
}

// NewMesh creates a mesh and computes its bounds.
func NewMesh(name string, vertices []gpu.Vertex, indices []uint32) *Mesh {
	m := &Mesh{Name: name, Vertices: vertices, Indices: indices, Transform: mgl32.Ident4()}
	m.Bounds = EmptyBounds()
	for _, v := range vertices {
		m.Bounds.Extend(mgl32.Vec3{v.Position[0], v.Position[1], v.Position[2]})
	}
	return m
}

// VertexArray returns the mesh's GPU vertex array, creating it on first use.
// Later calls return the cached handle without touching the device.
// It returns nil when the mesh has no geometry or creation failed; failures are not retried.
func (m *Mesh) VertexArray(dev gpu.Device) gpu.VertexArray {
	if m.va != nil || m.failed {
		return m.va
	}
	if len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return nil
	}
	va, err := dev.NewVertexArray(m.Vertices, m.Indices)
	if err != nil {
		m.failed = true
		logger.Named("model").Error("vertex array creation failed", zap.String("mesh", m.Name), zap.Error(err))
		return nil
	}
	m.va = va
	return va
}

// Triangles returns the number of triangles in the mesh.
func (m *Mesh) Triangles() int {
	return len(m.Indices) / 3
}

// Skinned reports whether any vertex carries bone weights.
func (m *Mesh) Skinned() bool {
	for _, v := range m.Vertices {
		if v.BoneWeights != [4]float32{} {
			return true
		}
	}
	return false
}

// Destroy releases the GPU vertex array. The mesh can be uploaded again afterwards.
func (m *Mesh) Destroy() {
	if m.va != nil {
		m.va.Destroy()
		m.va = nil
	}
	m.failed = false
}

// Model is a set of submeshes with an optional skeleton.
type Model struct {
	Name     string
	Meshes   []*Mesh
	Skeleton []Joint
	Bounds   Bounds

	skinned bool
}

// New creates a model from its submeshes.
func New(name string, meshes ...*Mesh) *Model {
	m := &Model{Name: name, Meshes: meshes, Bounds: EmptyBounds()}
	for _, mesh := range meshes {
		m.Bounds.Union(mesh.Bounds)
		if mesh.Skinned() {
			m.skinned = true
		}
	}
	return m
}

// Skinned reports whether the model needs bone matrices on the GPU.
func (m *Model) Skinned() bool {
	return m.skinned && len(m.Skeleton) > 0
}

// Loaded reports whether the model has any geometry.
func (m *Model) Loaded() bool {
	for _, mesh := range m.Meshes {
		if len(mesh.Vertices) > 0 {
			return true
		}
	}
	return false
}

// Destroy releases every submesh's GPU data.
func (m *Model) Destroy() {
	for _, mesh := range m.Meshes {
		mesh.Destroy()
	}
}

// SmoothNormals averages normals at shared vertex positions.
// This reduces faceted appearance on meshes built from separate faces.
func SmoothNormals(vertices []gpu.Vertex) {
	const epsilon float32 = 0.001

	posMap := make(map[[3]int32][]int)
	for i := range vertices {
		key := [3]int32{
			int32(vertices[i].Position[0] / epsilon),
			int32(vertices[i].Position[1] / epsilon),
			int32(vertices[i].Position[2] / epsilon),
		}
		posMap[key] = append(posMap[key], i)
	}

	for _, idxs := range posMap {
		if len(idxs) < 2 {
			continue
		}
		var sum mgl32.Vec3
		for _, idx := range idxs {
			sum = sum.Add(mgl32.Vec3(vertices[idx].Normal))
		}
		if sum.Len() < 0.0001 {
			continue
		}
		avg := sum.Normalize()
		for _, idx := range idxs {
			vertices[idx].Normal = avg
		}
	}
}

// ComputeTangents fills tangent and bitangent vectors from positions and UVs.
func ComputeTangents(vertices []gpu.Vertex, indices []uint32) {
	tangents := make([]mgl32.Vec3, len(vertices))
	bitangents := make([]mgl32.Vec3, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		v0, v1, v2 := vertices[i0], vertices[i1], vertices[i2]

		p0 := mgl32.Vec3{v0.Position[0], v0.Position[1], v0.Position[2]}
		e1 := mgl32.Vec3{v1.Position[0], v1.Position[1], v1.Position[2]}.Sub(p0)
		e2 := mgl32.Vec3{v2.Position[0], v2.Position[1], v2.Position[2]}.Sub(p0)
		du1, dv1 := v1.UV[0]-v0.UV[0], v1.UV[1]-v0.UV[1]
		du2, dv2 := v2.UV[0]-v0.UV[0], v2.UV[1]-v0.UV[1]

		det := du1*dv2 - du2*dv1
		if det == 0 {
			continue
		}
		r := 1 / det
		t := e1.Mul(dv2).Sub(e2.Mul(dv1)).Mul(r)
		b := e2.Mul(du1).Sub(e1.Mul(du2)).Mul(r)
		for _, idx := range [3]uint32{i0, i1, i2} {
			tangents[idx] = tangents[idx].Add(t)
			bitangents[idx] = bitangents[idx].Add(b)
		}
	}

	for i := range vertices {
		n := mgl32.Vec3(vertices[i].Normal)
		t := tangents[i]
		// Gram-Schmidt against the normal.
		t = t.Sub(n.Mul(n.Dot(t)))
		if t.Len() < 1e-6 {
			t = anyPerpendicular(n)
		}
		t = t.Normalize()
		b := n.Cross(t)
		if b.Dot(bitangents[i]) < 0 {
			b = b.Mul(-1)
		}
		vertices[i].Tangent = t
		vertices[i].Bitangent = b
	}
}

func anyPerpendicular(n mgl32.Vec3) mgl32.Vec3 {
	if abs32(n[0]) < 0.9 {
		return n.Cross(mgl32.Vec3{1, 0, 0})
	}
	return n.Cross(mgl32.Vec3{0, 1, 0})
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

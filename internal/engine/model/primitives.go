package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

func vertex(p, n mgl32.Vec3, u, v float32) gpu.Vertex {
	return gpu.Vertex{
		Position: [4]float32{p[0], p[1], p[2], 1},
		Normal:   n,
		UV:       [2]float32{u, v},
		BoneIDs:  [4]int32{-1, -1, -1, -1},
	}
}

// NewCube returns a unit cube centred on the origin.
func NewCube() *Model {
	faces := []struct {
		n, u, v mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}

	var vertices []gpu.Vertex
	var indices []uint32
	for _, f := range faces {
		base := uint32(len(vertices))
		centre := f.n.Mul(0.5)
		for _, c := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := centre.Add(f.u.Mul(c[0] * 0.5)).Add(f.v.Mul(c[1] * 0.5))
			vertices = append(vertices, vertex(p, f.n, (c[0]+1)/2, (c[1]+1)/2))
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	ComputeTangents(vertices, indices)
	return New("cube", NewMesh("cube", vertices, indices))
}

// NewPlane returns a square on the XZ plane facing +Y.
func NewPlane(size float32) *Model {
	h := size / 2
	n := mgl32.Vec3{0, 1, 0}
	vertices := []gpu.Vertex{
		vertex(mgl32.Vec3{-h, 0, h}, n, 0, 0),
		vertex(mgl32.Vec3{h, 0, h}, n, size, 0),
		vertex(mgl32.Vec3{h, 0, -h}, n, size, size),
		vertex(mgl32.Vec3{-h, 0, -h}, n, 0, size),
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	ComputeTangents(vertices, indices)
	return New("plane", NewMesh("plane", vertices, indices))
}

// NewSphere returns a UV sphere of radius 0.5.
func NewSphere(segments, rings int) *Model {
	segments = max(segments, 3)
	rings = max(rings, 2)

	var vertices []gpu.Vertex
	for r := 0; r <= rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		for s := 0; s <= segments; s++ {
			theta := 2 * math.Pi * float64(s) / float64(segments)
			n := mgl32.Vec3{
				float32(math.Sin(phi) * math.Cos(theta)),
				float32(math.Cos(phi)),
				float32(math.Sin(phi) * math.Sin(theta)),
			}
			vertices = append(vertices, vertex(n.Mul(0.5), n, float32(s)/float32(segments), float32(r)/float32(rings)))
		}
	}

	var indices []uint32
	stride := uint32(segments + 1)
	for r := uint32(0); r < uint32(rings); r++ {
		for s := uint32(0); s < uint32(segments); s++ {
			a := r*stride + s
			b := a + stride
			indices = append(indices, a, a+1, b, a+1, b+1, b)
		}
	}
	ComputeTangents(vertices, indices)
	return New("sphere", NewMesh("sphere", vertices, indices))
}

// NewSkinnedColumn returns a two-joint cylinder of height 2 whose upper half bends with joint "tip".
func NewSkinnedColumn(segments, rings int) *Model {
	segments = max(segments, 3)
	rings = max(rings, 2)
	const radius, height = 0.25, 2.0

	var vertices []gpu.Vertex
	for r := 0; r <= rings; r++ {
		y := height * float32(r) / float32(rings)
		tipWeight := min(max((y-0.5)/1.0, 0), 1)
		for s := 0; s <= segments; s++ {
			theta := 2 * math.Pi * float64(s) / float64(segments)
			n := mgl32.Vec3{float32(math.Cos(theta)), 0, float32(math.Sin(theta))}
			v := vertex(mgl32.Vec3{n[0] * radius, y, n[2] * radius}, n, float32(s)/float32(segments), y/height)
			v.BoneIDs = [4]int32{0, 1, -1, -1}
			v.BoneWeights = [4]float32{1 - tipWeight, tipWeight, 0, 0}
			vertices = append(vertices, v)
		}
	}

	var indices []uint32
	stride := uint32(segments + 1)
	for r := uint32(0); r < uint32(rings); r++ {
		for s := uint32(0); s < uint32(segments); s++ {
			a := r*stride + s
			b := a + stride
			indices = append(indices, a, b, a+1, a+1, b, b+1)
		}
	}
	ComputeTangents(vertices, indices)

	m := New("column", NewMesh("column", vertices, indices))
	m.Skeleton = []Joint{
		{Name: "root", Rest: mgl32.Ident4(), InverseBind: mgl32.Ident4()},
		{Name: "tip", Parent: "root", Rest: mgl32.Translate3D(0, 1, 0), InverseBind: mgl32.Translate3D(0, -1, 0)},
	}
	return m
}

// TurntableClip rotates one node a full turn about Y over the given period.
func TurntableClip(node string, period float32) *Clip {
	keys := make([]RotationKey, 0, 5)
	for i := 0; i <= 4; i++ {
		angle := float32(i) * math.Pi / 2
		keys = append(keys, RotationKey{
			Time:     period * float32(i) / 4,
			Rotation: mgl32.QuatRotate(angle, mgl32.Vec3{0, 1, 0}),
		})
	}
	return &Clip{
		Name:     "turntable",
		Duration: period,
		Tracks:   []Track{{Node: node, Rotations: keys}},
	}
}

// SwayClip bends the "tip" joint of NewSkinnedColumn back and forth about Z.
func SwayClip(period float32) *Clip {
	angle := mgl32.DegToRad(30)
	up := mgl32.Vec3{0, 1, 0}
	return &Clip{
		Name:     "sway",
		Duration: period,
		Tracks: []Track{{
			Node:   "tip",
			Parent: "root",
			Rotations: []RotationKey{
				{Time: 0, Rotation: mgl32.QuatRotate(-angle, mgl32.Vec3{0, 0, 1})},
				{Time: period / 2, Rotation: mgl32.QuatRotate(angle, mgl32.Vec3{0, 0, 1})},
				{Time: period, Rotation: mgl32.QuatRotate(-angle, mgl32.Vec3{0, 0, 1})},
			},
			Positions: []VectorKey{{Time: 0, Value: up}},
		}},
	}
}

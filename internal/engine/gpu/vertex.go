package gpu

import "unsafe"

// Vertex is the interleaved vertex layout shared by every mesh.
// Attribute locations: 0 position, 1 normal, 2 uv, 3 tangent, 4 bitangent, 5 bone weights, 6 bone ids.
type Vertex struct {
	Position    [4]float32
	Normal      [3]float32
	UV          [2]float32
	Tangent     [3]float32
	Bitangent   [3]float32
	BoneWeights [4]float32
	BoneIDs     [4]int32
}

// VertexSize is the stride of Vertex in bytes.
const VertexSize = int32(unsafe.Sizeof(Vertex{}))

// Attribute offsets within Vertex.
var (
	OffsetNormal      = unsafe.Offsetof(Vertex{}.Normal)
	OffsetUV          = unsafe.Offsetof(Vertex{}.UV)
	OffsetTangent     = unsafe.Offsetof(Vertex{}.Tangent)
	OffsetBitangent   = unsafe.Offsetof(Vertex{}.Bitangent)
	OffsetBoneWeights = unsafe.Offsetof(Vertex{}.BoneWeights)
	OffsetBoneIDs     = unsafe.Offsetof(Vertex{}.BoneIDs)
)

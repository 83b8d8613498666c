package glbackend

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// VertexArray owns a VAO with its interleaved vertex buffer and index buffer.
type VertexArray struct {
	vao   uint32
	vbo   uint32
	ebo   uint32
	count int32
}

func newVertexArray(vertices []gpu.Vertex, indices []uint32) (*VertexArray, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, gpu.ErrEmptyMesh
	}

	va := &VertexArray{count: int32(len(indices))}
	gl.GenVertexArrays(1, &va.vao)
	gl.BindVertexArray(va.vao)

	gl.GenBuffers(1, &va.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, va.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*int(gpu.VertexSize), unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	stride := gpu.VertexSize
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 4, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, gpu.OffsetNormal)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, gpu.OffsetUV)
	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointerWithOffset(3, 3, gl.FLOAT, false, stride, gpu.OffsetTangent)
	gl.EnableVertexAttribArray(4)
	gl.VertexAttribPointerWithOffset(4, 3, gl.FLOAT, false, stride, gpu.OffsetBitangent)
	gl.EnableVertexAttribArray(5)
	gl.VertexAttribPointerWithOffset(5, 4, gl.FLOAT, false, stride, gpu.OffsetBoneWeights)
	gl.EnableVertexAttribArray(6)
	gl.VertexAttribIPointerWithOffset(6, 4, gl.INT, stride, gpu.OffsetBoneIDs)

	gl.GenBuffers(1, &va.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, va.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return va, nil
}

// ID returns the GL vertex array name.
func (va *VertexArray) ID() uint32 { return va.vao }

// IndexCount returns the number of indices drawn per instance.
func (va *VertexArray) IndexCount() int32 { return va.count }

// Bind makes the vertex array current.
func (va *VertexArray) Bind() { gl.BindVertexArray(va.vao) }

// Unbind clears the current vertex array.
func (va *VertexArray) Unbind() { gl.BindVertexArray(0) }

// Destroy deletes the vertex array and its buffers.
func (va *VertexArray) Destroy() {
	if va.vao != 0 {
		gl.DeleteVertexArrays(1, &va.vao)
		va.vao = 0
	}
	if va.vbo != 0 {
		gl.DeleteBuffers(1, &va.vbo)
		va.vbo = 0
	}
	if va.ebo != 0 {
		gl.DeleteBuffers(1, &va.ebo)
		va.ebo = 0
	}
}

package glbackend

import (
	"github.com/go-gl/gl/v4.1-core/gl"
)

// minStorage keeps zero-sized buffers valid texture buffer sources.
const minStorage = 16

// StorageBuffer is a buffer texture holding RGBA32F texels, read in shaders with texelFetch.
type StorageBuffer struct {
	buffer  uint32
	texture uint32
	size    int
}

func newStorageBuffer(size int) *StorageBuffer {
	b := &StorageBuffer{}
	gl.GenBuffers(1, &b.buffer)
	gl.GenTextures(1, &b.texture)
	b.Resize(size)
	return b
}

// Size returns the requested size in bytes.
func (b *StorageBuffer) Size() int { return b.size }

// Resize reallocates storage. Previous contents are discarded.
func (b *StorageBuffer) Resize(size int) {
	b.size = size
	gl.BindBuffer(gl.TEXTURE_BUFFER, b.buffer)
	gl.BufferData(gl.TEXTURE_BUFFER, max(size, minStorage), nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.TEXTURE_BUFFER, 0)

	gl.BindTexture(gl.TEXTURE_BUFFER, b.texture)
	gl.TexBuffer(gl.TEXTURE_BUFFER, gl.RGBA32F, b.buffer)
	gl.BindTexture(gl.TEXTURE_BUFFER, 0)
}

// SetData writes data at a byte offset. The range must fit within Size.
func (b *StorageBuffer) SetData(offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(gl.TEXTURE_BUFFER, b.buffer)
	gl.BufferSubData(gl.TEXTURE_BUFFER, offset, len(data), ptr(data))
	gl.BindBuffer(gl.TEXTURE_BUFFER, 0)
}

// Bind binds the buffer texture to a texture unit.
func (b *StorageBuffer) Bind(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_BUFFER, b.texture)
}

// Destroy deletes the buffer and its texture view.
func (b *StorageBuffer) Destroy() {
	if b.texture != 0 {
		gl.DeleteTextures(1, &b.texture)
		b.texture = 0
	}
	if b.buffer != 0 {
		gl.DeleteBuffers(1, &b.buffer)
		b.buffer = 0
	}
}

// UniformBuffer is a std140 uniform block buffer.
type UniformBuffer struct {
	buffer uint32
	size   int
}

func newUniformBuffer(size int) *UniformBuffer {
	b := &UniformBuffer{size: size}
	gl.GenBuffers(1, &b.buffer)
	gl.BindBuffer(gl.UNIFORM_BUFFER, b.buffer)
	gl.BufferData(gl.UNIFORM_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	return b
}

// Size returns the block size in bytes.
func (b *UniformBuffer) Size() int { return b.size }

// SetData writes data at a byte offset within the block.
func (b *UniformBuffer) SetData(offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, b.buffer)
	gl.BufferSubData(gl.UNIFORM_BUFFER, offset, len(data), ptr(data))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

// BindToPoint attaches the buffer to a uniform block binding point.
func (b *UniformBuffer) BindToPoint(point uint32) {
	gl.BindBufferBase(gl.UNIFORM_BUFFER, point, b.buffer)
}

// Destroy deletes the buffer.
func (b *UniformBuffer) Destroy() {
	if b.buffer != 0 {
		gl.DeleteBuffers(1, &b.buffer)
		b.buffer = 0
	}
}

package renderer

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/material"
)

const (
	// EntityDataSize is the byte size of one packed EntityData.
	EntityDataSize = 128
	// entityTexels is the number of RGBA32F texels per entity in the storage buffer.
	entityTexels = EntityDataSize / 16
)

// ErrShortBuffer is returned when decoding fewer than EntityDataSize bytes.
var ErrShortBuffer = errors.New("entity data: short buffer")

// EntityData is the per-instance block read by the geometry shaders.
// Layout: mat4 transform (column major), vec4 id mask, material block. All float32, little endian.
type EntityData struct {
	Transform mgl32.Mat4
	// IDMask is (selected ? 1 : 0, id + 1, 0, 0). Zero id+1 means no entity.
	IDMask   mgl32.Vec4
	Material material.Block
}

// NewEntityData builds the block for one instance.
// id+1 is stored as a float32, so ids above 2^24-1 do not round-trip through EntityID.
func NewEntityData(transform mgl32.Mat4, id uint32, selected bool, block material.Block) EntityData {
	var flag float32
	if selected {
		flag = 1
	}
	return EntityData{
		Transform: transform,
		IDMask:    mgl32.Vec4{flag, float32(id) + 1, 0, 0},
		Material:  block,
	}
}

// Selected reports the selection flag.
func (e EntityData) Selected() bool { return e.IDMask[0] != 0 }

// EntityID returns the id stored in the mask and false for the no-entity sentinel.
func (e EntityData) EntityID() (uint32, bool) {
	if e.IDMask[1] < 1 {
		return 0, false
	}
	return uint32(e.IDMask[1]) - 1, true
}

// AppendTo appends the packed block to buf.
func (e EntityData) AppendTo(buf []byte) []byte {
	for _, f := range e.Transform {
		buf = appendFloat(buf, f)
	}
	for _, f := range e.IDMask {
		buf = appendFloat(buf, f)
	}
	for _, v := range e.Material {
		for _, f := range v {
			buf = appendFloat(buf, f)
		}
	}
	return buf
}

// Encode returns the packed block.
func (e EntityData) Encode() []byte {
	return e.AppendTo(make([]byte, 0, EntityDataSize))
}

// DecodeEntityData reads one packed block from the start of b.
func DecodeEntityData(b []byte) (EntityData, error) {
	var e EntityData
	if len(b) < EntityDataSize {
		return e, ErrShortBuffer
	}
	off := 0
	next := func() float32 {
		f := math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
		off += 4
		return f
	}
	for i := range e.Transform {
		e.Transform[i] = next()
	}
	for i := range e.IDMask {
		e.IDMask[i] = next()
	}
	for i := range e.Material {
		for j := range e.Material[i] {
			e.Material[i][j] = next()
		}
	}
	return e, nil
}

func appendFloat(buf []byte, f float32) []byte {
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
}

// appendMat4s packs matrices for the bone buffer.
func appendMat4s(buf []byte, ms []mgl32.Mat4) []byte {
	for _, m := range ms {
		for _, f := range m {
			buf = appendFloat(buf, f)
		}
	}
	return buf
}

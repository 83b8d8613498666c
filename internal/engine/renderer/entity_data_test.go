package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/engine/material"
)

func TestEntityDataRoundTrip(t *testing.T) {
	block := material.Block{
		{0.8, 0.1, 0.2, 1},
		{0.25, 0.75, 1, 0.5},
		{1, 0, 1, 0},
	}
	transform := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DY(0.7)).Mul4(mgl32.Scale3D(2, 2, 2))
	in := NewEntityData(transform, 41, true, block)

	raw := in.Encode()
	require.Len(t, raw, EntityDataSize)

	out, err := DecodeEntityData(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	id, ok := out.EntityID()
	assert.True(t, ok)
	assert.Equal(t, uint32(41), id)
	assert.True(t, out.Selected())
}

func TestEntityDataLayout(t *testing.T) {
	e := NewEntityData(mgl32.Ident4(), 5, false, material.Block{})
	raw := e.Encode()

	// The id mask follows the 64-byte transform.
	mask, err := DecodeEntityData(raw)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec4{0, 6, 0, 0}, mask.IDMask)
	assert.Equal(t, []byte{0, 0, 0xc0, 0x40}, raw[68:72], "id+1 as little-endian float32 6.0")
}

func TestDecodeEntityDataShortBuffer(t *testing.T) {
	_, err := DecodeEntityData(make([]byte, EntityDataSize-1))
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestEntityIDSentinel(t *testing.T) {
	_, ok := EntityData{}.EntityID()
	assert.False(t, ok)
}

func TestEntityIDExactUpTo24Bits(t *testing.T) {
	const largest = 1<<24 - 1
	id, ok := NewEntityData(mgl32.Ident4(), largest, false, material.Block{}).EntityID()
	assert.True(t, ok)
	assert.Equal(t, uint32(largest), id)
}

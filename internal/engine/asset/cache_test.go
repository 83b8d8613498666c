package asset

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/engine/gpu/gputest"
)

func TestCacheClearDestroysTextures(t *testing.T) {
	dev := gputest.NewDevice()
	c := NewCache()
	for _, path := range []string{"a.png", "b.png"} {
		tex, err := dev.NewTexture2D(image.NewRGBA(image.Rect(0, 0, 1, 1)))
		require.NoError(t, err)
		c.Set(path, tex)
	}
	_, ok := c.Get("a.png")
	require.True(t, ok)

	c.Clear()

	assert.Zero(t, c.Len())
	hits, misses := c.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
	for _, tex := range dev.Textures {
		assert.True(t, tex.Destroyed)
	}
}

package asset

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/engine/gpu/gputest"
	"github.com/Faultbox/prism/internal/engine/material"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestLoaderRequestAndPoll(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "albedo.png")
	dev := gputest.NewDevice()
	reg := material.NewRegistry()
	a, b := reg.Create("a"), reg.Create("b")

	l := NewLoader(2)
	defer l.Close()
	l.Request(path, a, material.Albedo)
	l.Request(path, b, material.Normal)

	assert.Nil(t, a.Texture(material.Albedo), "not ready before Poll")
	assert.Equal(t, path, a.TexturePaths[material.Albedo])
	assert.Equal(t, 1, l.Pending())
	assert.ErrorIs(t, l.Status(path), ErrNotReady)

	l.Wait()
	assert.Equal(t, 1, l.Poll(dev))
	require.NotNil(t, a.Texture(material.Albedo))
	assert.Same(t, a.Texture(material.Albedo), b.Texture(material.Normal))
	assert.Len(t, dev.Textures, 1, "decoded once")
	assert.Zero(t, l.Pending())
	assert.NoError(t, l.Status(path))

	// Cached textures attach immediately.
	c := reg.Create("c")
	l.Request(path, c, material.AO)
	assert.Same(t, a.Texture(material.Albedo), c.Texture(material.AO))
	hits, _ := l.Cache().Stats()
	assert.Equal(t, 1, hits)
}

func TestLoaderFailedDecode(t *testing.T) {
	dev := gputest.NewDevice()
	m := material.NewRegistry().Create("m")
	boom := errors.New("boom")

	l := NewLoader(1)
	defer l.Close()
	l.SetDecoder(func(string) (*image.RGBA, error) { return nil, boom })
	l.Request("broken.png", m, material.Albedo)
	l.Wait()

	assert.Zero(t, l.Poll(dev))
	assert.Nil(t, m.Texture(material.Albedo))
	assert.ErrorIs(t, l.Status("broken.png"), boom)

	// A failed file is not retried.
	l.Request("broken.png", m, material.Albedo)
	assert.Zero(t, l.Pending())
}

func TestLoaderReplacedRequestKeepsLatest(t *testing.T) {
	dir := t.TempDir()
	first := writePNG(t, dir, "first.png")
	second := writePNG(t, dir, "second.png")
	dev := gputest.NewDevice()
	m := material.NewRegistry().Create("m")

	l := NewLoader(2)
	defer l.Close()
	l.Request(first, m, material.Albedo)
	l.Request(second, m, material.Albedo)
	l.Wait()
	assert.Equal(t, 2, l.Poll(dev))

	want, ok := l.Cache().Get(second)
	require.True(t, ok)
	assert.Same(t, want, m.Texture(material.Albedo))
}

func TestLoaderConcurrentDecodes(t *testing.T) {
	dev := gputest.NewDevice()
	reg := material.NewRegistry()

	var mu sync.Mutex
	active, peak := 0, 0
	release := make(chan struct{})
	l := NewLoader(2)
	defer l.Close()
	l.SetDecoder(func(string) (*image.RGBA, error) {
		mu.Lock()
		active++
		peak = max(peak, active)
		mu.Unlock()
		<-release
		mu.Lock()
		active--
		mu.Unlock()
		return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
	})

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		l.Request(name, reg.Create(name), material.Albedo)
	}
	close(release)
	l.Wait()

	assert.Equal(t, 5, l.Poll(dev))
	assert.LessOrEqual(t, peak, 2)
}

func TestLoaderEmptyPathClearsSlot(t *testing.T) {
	m := material.NewRegistry().Create("m")
	m.SetTexture(material.Albedo, &gputest.Texture{})
	l := NewLoader(1)
	l.Request("", m, material.Albedo)
	assert.Nil(t, m.Texture(material.Albedo))
	assert.Zero(t, l.Pending())
}

func TestRootedDecoder(t *testing.T) {
	var got []string
	decode := Rooted("assets", func(path string) (*image.RGBA, error) {
		got = append(got, path)
		return nil, errors.New("skip")
	})

	_, _ = decode("brick.png")
	abs := filepath.Join(string(filepath.Separator), "tmp", "brick.png")
	_, _ = decode(abs)

	assert.Equal(t, []string{filepath.Join("assets", "brick.png"), abs}, got)
}

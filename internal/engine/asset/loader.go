// Package asset loads textures in the background and resolves built-in models.
package asset

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/material"
	"github.com/Faultbox/prism/internal/engine/texture"
	"github.com/Faultbox/prism/internal/logger"
)

// ErrNotReady is returned for assets that are still loading.
var ErrNotReady = errors.New("asset not ready")

// DecodeFunc decodes an image file.
type DecodeFunc func(path string) (*image.RGBA, error)

// Rooted returns a decoder that resolves relative paths against root before decoding.
func Rooted(root string, decode DecodeFunc) DecodeFunc {
	if root == "" {
		return decode
	}
	return func(path string) (*image.RGBA, error) {
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		return decode(path)
	}
}

type waiter struct {
	material *material.Material
	sampler  material.Sampler
}

type decoded struct {
	path string
	img  *image.RGBA
	err  error
}

// Loader decodes textures on worker goroutines and uploads them on the render thread.
// Request and Poll must be called from the render thread; decoding runs concurrently.
type Loader struct {
	decode DecodeFunc
	cache  *Cache
	log    *zap.Logger
	sem    chan struct{}
	wg     sync.WaitGroup

	mu       sync.Mutex
	done     []decoded
	inflight map[string]bool
	waiting  map[string][]waiter
	failed   map[string]error
}

// NewLoader creates a loader with up to workers concurrent decodes (GOMAXPROCS when <= 0).
func NewLoader(workers int) *Loader {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Loader{
		decode:   texture.Decode,
		cache:    NewCache(),
		log:      logger.Named("asset"),
		sem:      make(chan struct{}, workers),
		inflight: make(map[string]bool),
		waiting:  make(map[string][]waiter),
		failed:   make(map[string]error),
	}
}

// SetDecoder replaces the image decoder.
func (l *Loader) SetDecoder(fn DecodeFunc) {
	l.decode = fn
}

// Cache returns the uploaded texture cache.
func (l *Loader) Cache() *Cache { return l.cache }

// Request loads path into the sampler slot of m.
// A cached texture is attached immediately; otherwise the slot stays nil until Poll uploads it.
func (l *Loader) Request(path string, m *material.Material, s material.Sampler) {
	m.TexturePaths[s] = path
	if path == "" {
		m.SetTexture(s, nil)
		return
	}
	if tex, ok := l.cache.Get(path); ok {
		m.SetTexture(s, tex)
		return
	}
	m.SetTexture(s, nil)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.failed[path]; ok {
		return
	}
	l.waiting[path] = append(l.waiting[path], waiter{material: m, sampler: s})
	if l.inflight[path] {
		return
	}
	l.inflight[path] = true
	l.wg.Add(1)
	go l.work(path)
}

func (l *Loader) work(path string) {
	defer l.wg.Done()
	l.sem <- struct{}{}
	img, err := l.decode(path)
	<-l.sem

	l.mu.Lock()
	l.done = append(l.done, decoded{path: path, img: img, err: err})
	l.mu.Unlock()
}

// Poll uploads every finished decode and attaches it to the materials waiting on it.
// It returns the number of textures uploaded.
func (l *Loader) Poll(dev gpu.Device) int {
	l.mu.Lock()
	done := l.done
	l.done = nil
	l.mu.Unlock()

	uploaded := 0
	for _, d := range done {
		err := d.err
		var tex gpu.Texture
		if err == nil {
			tex, err = texture.Upload(dev, d.img)
		}

		l.mu.Lock()
		waiters := l.waiting[d.path]
		delete(l.waiting, d.path)
		delete(l.inflight, d.path)
		if err != nil {
			l.failed[d.path] = err
		}
		l.mu.Unlock()

		if err != nil {
			l.log.Error("texture load failed", zap.String("path", d.path), zap.Error(err))
			continue
		}
		l.cache.Set(d.path, tex)
		uploaded++
		for _, w := range waiters {
			// The slot may have been re-requested with another file meanwhile.
			if w.material.TexturePaths[w.sampler] == d.path {
				w.material.SetTexture(w.sampler, tex)
			}
		}
		l.log.Debug("texture uploaded", zap.String("path", d.path), zap.Int("materials", len(waiters)))
	}
	return uploaded
}

// Status reports whether path is uploaded. It returns ErrNotReady while loading
// and the decode error for files that failed.
func (l *Loader) Status(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, ok := l.failed[path]; ok {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if l.inflight[path] {
		return ErrNotReady
	}
	l.cache.mu.RLock()
	_, ok := l.cache.textures[path]
	l.cache.mu.RUnlock()
	if !ok {
		return fmt.Errorf("load %s: not requested", path)
	}
	return nil
}

// Pending returns the number of files still decoding or awaiting upload.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.inflight)
}

// Wait blocks until every started decode has finished. Results still need Poll.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// Close waits for outstanding decodes and drops all cached textures.
func (l *Loader) Close() {
	l.wg.Wait()
	l.mu.Lock()
	l.done = nil
	l.inflight = make(map[string]bool)
	l.waiting = make(map[string][]waiter)
	l.failed = make(map[string]error)
	l.mu.Unlock()
	l.cache.Clear()
}

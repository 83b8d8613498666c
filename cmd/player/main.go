// Package main plays a Prism scene in a standalone window.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/config"
	"github.com/Faultbox/prism/internal/editor"
	"github.com/Faultbox/prism/internal/engine/asset"
	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/capture"
	"github.com/Faultbox/prism/internal/engine/gpu/glbackend"
	"github.com/Faultbox/prism/internal/engine/input"
	"github.com/Faultbox/prism/internal/engine/renderer"
	"github.com/Faultbox/prism/internal/engine/texture"
	"github.com/Faultbox/prism/internal/engine/window"
	"github.com/Faultbox/prism/internal/logger"
	"github.com/Faultbox/prism/internal/scene"
)

const (
	leftButton  = uint32(1) << (sdl.BUTTON_LEFT - 1)
	rightButton = uint32(1) << (sdl.BUTTON_RIGHT - 1)

	moveSpeed = 60 // per second, scaled by orbit distance
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Prism Player ===")

	if err := run(cfg); err != nil {
		logger.Error("player error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("player closed normally")
}

func run(cfg *config.Config) error {
	win, err := window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return err
	}
	defer win.Close()

	width, height := win.DrawableSize()
	dev, err := glbackend.New(width, height)
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	defer dev.Destroy()

	r, err := renderer.New(dev, cfg.Renderer, renderer.NewSkyEnvironment())
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer r.Shutdown()

	loader := asset.NewLoader(0)
	loader.SetDecoder(asset.Rooted(cfg.Editor.AssetsRoot, texture.Decode))
	defer loader.Close()

	lib := asset.NewLibrary()
	defer lib.Destroy()

	s, err := openScene(cfg.Editor.Scene, lib, loader)
	if err != nil {
		return err
	}
	s.Play()

	cam := camera.NewOrbitCamera()
	if b := s.Bounds(); !b.Empty() {
		cam.FitToBounds(b.Min, b.Max)
	}

	shots := capture.New(cfg.Editor.Screenshots, "player")
	in := input.New()
	last := time.Now()
	for {
		if in.Update() || in.IsKeyPressed(sdl.SCANCODE_ESCAPE) {
			return nil
		}
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		for _, ev := range in.Events() {
			switch ev.Type {
			case input.EventWindowResize:
				width, height = win.DrawableSize()
				dev.SetScreenSize(width, height)
			case input.EventMouseMove:
				if ev.Buttons&leftButton != 0 {
					cam.HandleDrag(ev.DeltaX, ev.DeltaY)
				} else if ev.Buttons&rightButton != 0 {
					cam.HandlePan(ev.DeltaX, ev.DeltaY)
				}
			case input.EventMouseWheel:
				cam.HandleZoom(ev.DeltaY)
			case input.EventMouseDown:
				if ev.Button == sdl.BUTTON_MIDDLE {
					focus(s, cam, ev.MouseX, ev.MouseY, win)
				}
			}
		}
		if in.IsKeyPressed(sdl.SCANCODE_SPACE) {
			if s.Playing() {
				s.Stop()
			} else {
				s.Play()
			}
		}
		cam.HandleMovement(
			in.Axis(sdl.SCANCODE_W, sdl.SCANCODE_S)*moveSpeed*dt,
			in.Axis(sdl.SCANCODE_D, sdl.SCANCODE_A)*moveSpeed*dt,
			in.Axis(sdl.SCANCODE_E, sdl.SCANCODE_Q)*moveSpeed*dt,
		)

		loader.Poll(dev)
		s.Update(dt)

		r.Begin(width, height, cam.Snapshot(width, height))
		s.Submit(r, 0)
		r.End(nil)

		if in.IsKeyPressed(sdl.SCANCODE_F12) {
			pixels, w, h := dev.ReadPixels(nil)
			if path, err := shots.SavePixels(pixels, w, h); err != nil {
				logger.Warn("screenshot failed", zap.Error(err))
			} else {
				logger.Info("screenshot saved", zap.String("path", path))
			}
		}
		win.SwapBuffers()
	}
}

// openScene loads path, or builds the editor's default scene when path is empty.
func openScene(path string, lib *asset.Library, loader *asset.Loader) (*scene.Scene, error) {
	if path == "" {
		return editor.New(lib, loader).Scene, nil
	}
	return scene.Load(path, lib, loader)
}

// focus centers the orbit on what lies under the cursor. Mouse coordinates are
// in window points, so they are scaled to drawable pixels first.
func focus(s *scene.Scene, cam *camera.OrbitCamera, mouseX, mouseY int, win *window.Window) {
	ww, wh := win.GetSize()
	dw, dh := win.DrawableSize()
	if ww == 0 || wh == 0 {
		return
	}
	x := float32(mouseX) * float32(dw) / float32(ww)
	y := float32(mouseY) * float32(dh) / float32(wh)

	ray := cam.Snapshot(dw, dh).ScreenRay(x, y, float32(dw), float32(dh))
	if p, ok := s.FocusPoint(ray); ok {
		cam.FocusOn(p)
	}
}

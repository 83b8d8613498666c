// Package main is the entry point for the Prism scene editor.
package main

import (
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/config"
	"github.com/Faultbox/prism/internal/editor"
	"github.com/Faultbox/prism/internal/editor/ui"
	"github.com/Faultbox/prism/internal/engine/asset"
	"github.com/Faultbox/prism/internal/engine/capture"
	"github.com/Faultbox/prism/internal/engine/gpu/glbackend"
	"github.com/Faultbox/prism/internal/engine/renderer"
	"github.com/Faultbox/prism/internal/engine/texture"
	"github.com/Faultbox/prism/internal/logger"
)

func main() {
	runtime.LockOSThread()

	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	fileCfg := logger.DefaultFileConfig(cfg.Logging.LogFile)
	fileCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
	fileCfg.MaxBackups = cfg.Logging.MaxBackups
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Prism Editor ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("editor error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("editor closed normally")
}

func run(cfg *config.Config) error {
	backend, err := ui.NewBackend(cfg.Window.Title, int32(cfg.Window.Width), int32(cfg.Window.Height))
	if err != nil {
		return err
	}

	w, h := backend.GetWindowSize()
	dev, err := glbackend.New(int(w), int(h))
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

	ed := editor.New(lib, loader)
	ed.LogStats = cfg.Editor.LogStats
	if cfg.Editor.Scene != "" {
		// A broken startup scene leaves the default scene open.
		_ = ed.Open(cfg.Editor.Scene)
	}

	panels := ui.NewPanels(ed, r, dev)
	panels.ShowStats = cfg.Editor.ShowStats
	panels.Capture = capture.New(cfg.Editor.Screenshots, "viewport")
	panels.SaveSettings = func(s renderer.Settings) error {
		cfg.Renderer = s
		return cfg.Save()
	}
	panels.Quit = func() {
		r.Shutdown()
		logger.Sync()
		os.Exit(0)
	}

	backend.Run(panels.Draw)
	return nil
}

// Package config handles editor and player configuration loading and management.
package config

import "github.com/Faultbox/prism/internal/engine/renderer"

// Config holds all application settings.
type Config struct {
	Window   WindowConfig      `yaml:"window"`
	Renderer renderer.Settings `yaml:"renderer"`
	Editor   EditorConfig      `yaml:"editor"`
	Logging  LoggingConfig     `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// EditorConfig holds editor session settings.
type EditorConfig struct {
	Scene       string `yaml:"scene"`          // Scene opened at startup
	ShowStats   bool   `yaml:"show_stats"`     // Show the statistics panel
	LogStats    bool   `yaml:"log_stats"`      // Log frame statistics once per second at debug level
	AssetsRoot  string `yaml:"assets_root"`    // Directory relative texture paths resolve against
	Screenshots string `yaml:"screenshot_dir"` // Where F12 captures are written
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "Prism",
			Width:      1600,
			Height:     900,
			Fullscreen: false,
			VSync:      true,
		},
		Renderer: renderer.DefaultSettings(),
		Editor: EditorConfig{
			ShowStats:   true,
			Screenshots: "screenshots",
		},
		Logging: LoggingConfig{
			Level:      "info",
			LogFile:    "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

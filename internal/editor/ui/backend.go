// Package ui draws the editor's ImGui panels over the SDL backend.
package ui

import (
	"fmt"
	"os"

	"github.com/AllenDang/cimgui-go/backend"
	"github.com/AllenDang/cimgui-go/backend/sdlbackend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// Backend wraps the ImGui SDL backend for editor use.
type Backend struct {
	backend backend.Backend[sdlbackend.SDLWindowFlags]
	width   int32
	height  int32
}

// NewBackend creates the editor window, its GL context and the ImGui context.
func NewBackend(title string, width, height int32) (*Backend, error) {
	b := &Backend{
		width:  width,
		height: height,
	}

	var err error
	b.backend, err = backend.CreateBackend(sdlbackend.NewSDLBackend())
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	// Set up font loading hook before creating window
	b.backend.SetAfterCreateContextHook(func() {
		b.loadFont()
	})

	b.backend.SetBgColor(imgui.NewVec4(0.1, 0.1, 0.12, 1.0))
	b.backend.CreateWindow(title, int(width), int(height))

	// Initialize OpenGL
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("init opengl: %w", err)
	}

	return b, nil
}

// loadFont loads the first available system UI font, keeping ImGui's default otherwise.
func (b *Backend) loadFont() {
	fonts := imgui.CurrentIO().Fonts()

	// Try different font paths (cross-platform support)
	fontPaths := []string{
		"/System/Library/Fonts/SFNS.ttf",                    // macOS
		"/Library/Fonts/Arial Unicode.ttf",                  // macOS (older)
		"C:\\Windows\\Fonts\\segoeui.ttf",                   // Windows
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",   // Linux
		"/usr/share/fonts/TTF/DejaVuSans.ttf",               // Linux alt
		"/usr/share/fonts/noto/NotoSans-Regular.ttf",        // Linux alt
	}

	var fontPath string
	for _, path := range fontPaths {
		if _, err := os.Stat(path); err == nil {
			fontPath = path
			break
		}
	}

	if fontPath == "" {
		return
	}

	fontCfg := imgui.NewFontConfig()
	defer fontCfg.Destroy()

	fonts.AddFontFromFileTTFV(fontPath, 15.0, fontCfg, nil)
}

// Run starts the main render loop.
func (b *Backend) Run(renderFunc func()) {
	b.backend.Run(renderFunc)
}

// SetWindowTitle updates the window title.
func (b *Backend) SetWindowTitle(title string) {
	b.backend.SetWindowTitle(title)
}

// GetWindowSize returns the current window size.
func (b *Backend) GetWindowSize() (int32, int32) {
	w, h := b.backend.DisplaySize()
	if w > 0 && h > 0 {
		b.width, b.height = w, h
	}
	return b.width, b.height
}

// GetViewport returns the main viewport work area.
func (b *Backend) GetViewport() (posX, posY, width, height float32) {
	viewport := imgui.MainViewport()
	workPos := viewport.WorkPos()
	workSize := viewport.WorkSize()
	return workPos.X, workPos.Y, workSize.X, workSize.Y
}

// IsKeyPressed checks if a key was pressed this frame.
func IsKeyPressed(key imgui.Key) bool {
	return imgui.IsKeyChordPressed(imgui.KeyChord(key))
}

// IsKeyDown checks if a key is currently held down.
func IsKeyDown(key imgui.Key) bool {
	return imgui.IsKeyDown(key)
}

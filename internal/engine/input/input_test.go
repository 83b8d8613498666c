package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name  string
		event sdl.Event
		want  Event
		ok    bool
	}{
		{"quit", &sdl.QuitEvent{}, Event{Type: EventQuit}, true},
		{"resize", &sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 800, Data2: 600},
			Event{Type: EventWindowResize, Width: 800, Height: 600}, true},
		{"window focus ignored", &sdl.WindowEvent{Event: sdl.WINDOWEVENT_FOCUS_GAINED}, Event{}, false},
		{"key down", &sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_W}},
			Event{Type: EventKeyDown, Key: sdl.SCANCODE_W}, true},
		{"motion", &sdl.MouseMotionEvent{X: 10, Y: 20, XRel: 3, YRel: -2, State: 1},
			Event{Type: EventMouseMove, MouseX: 10, MouseY: 20, DeltaX: 3, DeltaY: -2, Buttons: 1}, true},
		{"button", &sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONDOWN, X: 5, Y: 6, Button: sdl.BUTTON_LEFT},
			Event{Type: EventMouseDown, MouseX: 5, MouseY: 6, Button: sdl.BUTTON_LEFT}, true},
		{"wheel", &sdl.MouseWheelEvent{Y: -1}, Event{Type: EventMouseWheel, DeltaY: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Translate(tt.event)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeldKeys(t *testing.T) {
	in := New()
	in.Handle(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_W}})
	in.Handle(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_S}})

	assert.True(t, in.IsKeyPressed(sdl.SCANCODE_W))
	assert.True(t, in.IsKeyDown(sdl.SCANCODE_S))
	assert.Zero(t, in.Axis(sdl.SCANCODE_W, sdl.SCANCODE_S))

	in.Handle(&sdl.KeyboardEvent{Type: sdl.KEYUP, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_S}})
	assert.Equal(t, float32(1), in.Axis(sdl.SCANCODE_W, sdl.SCANCODE_S))
	assert.Len(t, in.Events(), 3)
}

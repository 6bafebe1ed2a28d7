// Package input handles SDL2 input events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies a processed input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	DeltaX int // relative motion for EventMouseMove
	DeltaY int
	WheelY float32
	Button uint8
}

// Input handles all input processing.
type Input struct {
	events []Event
	held   map[uint8]bool
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
		held:   make(map[uint8]bool),
	}
}

// Update polls SDL events and converts them to viewer events.
// Returns true if the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if e, ok := i.translate(event); ok {
			i.events = append(i.events, e)
			if e.Type == EventQuit {
				return true
			}
		}
	}
	return false
}

func (i *Input) translate(event sdl.Event) (Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			return Event{Type: EventWindowResize, Width: int(e.Data1), Height: int(e.Data2)}, true
		}

	case *sdl.KeyboardEvent:
		if e.Repeat != 0 {
			return Event{}, false
		}
		if e.Type == sdl.KEYDOWN {
			return Event{Type: EventKeyDown, Key: e.Keysym.Scancode}, true
		}
		return Event{Type: EventKeyUp, Key: e.Keysym.Scancode}, true

	case *sdl.MouseMotionEvent:
		return Event{
			Type:   EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			DeltaX: int(e.XRel),
			DeltaY: int(e.YRel),
		}, true

	case *sdl.MouseButtonEvent:
		ev := Event{MouseX: int(e.X), MouseY: int(e.Y), Button: e.Button}
		if e.Type == sdl.MOUSEBUTTONDOWN {
			ev.Type = EventMouseDown
			i.held[e.Button] = true
		} else {
			ev.Type = EventMouseUp
			delete(i.held, e.Button)
		}
		return ev, true

	case *sdl.MouseWheelEvent:
		return Event{Type: EventMouseWheel, WheelY: float32(e.Y)}, true
	}
	return Event{}, false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// IsButtonHeld reports whether a mouse button is currently down.
func (i *Input) IsButtonHeld(button uint8) bool {
	return i.held[button]
}

// IsKeyHeld reports whether a key is currently down.
func IsKeyHeld(scancode sdl.Scancode) bool {
	return sdl.GetKeyboardState()[scancode] != 0
}

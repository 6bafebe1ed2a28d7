package window

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestAspect(t *testing.T) {
	tests := []struct {
		w, h int
		want float32
	}{
		{1280, 720, 1280.0 / 720.0},
		{720, 1280, 720.0 / 1280.0},
		{0, 720, 1},
		{1280, 0, 1},
	}
	for _, tt := range tests {
		if got := aspect(tt.w, tt.h); got != tt.want {
			t.Errorf("aspect(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestGLAttributes(t *testing.T) {
	find := func(attrs []glAttribute, a sdl.GLattr) (int, bool) {
		for _, x := range attrs {
			if x.attr == a {
				return x.value, true
			}
		}
		return 0, false
	}

	attrs := glAttributes(Config{})
	if v, ok := find(attrs, sdl.GL_DEPTH_SIZE); !ok || v != DefaultDepthBits {
		t.Errorf("default depth size %d, want %d", v, DefaultDepthBits)
	}
	if v, _ := find(attrs, sdl.GL_CONTEXT_MAJOR_VERSION); v != 4 {
		t.Errorf("context major version %d, want 4", v)
	}
	if v, _ := find(attrs, sdl.GL_CONTEXT_PROFILE_MASK); v != sdl.GL_CONTEXT_PROFILE_CORE {
		t.Errorf("expected core profile, got %d", v)
	}

	if v, _ := find(glAttributes(Config{DepthBits: 32}), sdl.GL_DEPTH_SIZE); v != 32 {
		t.Errorf("depth size %d, want 32", v)
	}
}

func TestWindowFlags(t *testing.T) {
	if windowFlags(Config{})&sdl.WINDOW_FULLSCREEN != 0 {
		t.Error("windowed config requested fullscreen")
	}
	f := windowFlags(Config{Fullscreen: true})
	if f&sdl.WINDOW_FULLSCREEN == 0 || f&sdl.WINDOW_OPENGL == 0 {
		t.Errorf("unexpected flags %#x", f)
	}
}

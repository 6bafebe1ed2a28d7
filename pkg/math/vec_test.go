package math

import (
	"math"
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, -2, 3}
	b := Vec3{-1, 5, 3}

	if got, want := a.Min(b), (Vec3{-1, -2, 3}); got != want {
		t.Errorf("Vec3.Min() = %v, want %v", got, want)
	}
	if got, want := a.Max(b), (Vec3{1, 5, 3}); got != want {
		t.Errorf("Vec3.Max() = %v, want %v", got, want)
	}
}

func TestVec3NormalizeZero(t *testing.T) {
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("zero vector Normalize() = %v, want zero", got)
	}
}

func TestVec3Lerp(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{10, 20, 30}
	if got, want := a.Lerp(b, 0.5), (Vec3{5, 10, 15}); got != want {
		t.Errorf("Vec3.Lerp() = %v, want %v", got, want)
	}
}

func TestIsFinite(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		want bool
	}{
		{"finite", Vec3{1, 2, 3}, true},
		{"nan", Vec3{float32(math.NaN()), 0, 0}, false},
		{"inf", Vec3{0, float32(math.Inf(1)), 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsFinite(); got != tt.want {
				t.Errorf("IsFinite(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

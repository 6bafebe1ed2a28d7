package camera

import (
	"testing"

	"github.com/Faultbox/midgard-csm/internal/csm"
	"github.com/Faultbox/midgard-csm/pkg/math"
)

func TestParamsMatchesViewMatrix(t *testing.T) {
	c := NewOrbitCamera()
	c.SetCenter(10, 2, -5)
	c.HandleDrag(120, -40)

	p := c.Params(1.0, 16.0/9.0, 0.3, 500)
	if err := p.Validate(); err != nil {
		t.Fatalf("params invalid: %v", err)
	}

	// ViewToWorld followed by the view matrix must be the identity.
	m := c.ViewMatrix().Mul(p.ViewToWorld())
	id := math.Identity()
	for i := range m {
		if d := m[i] - id[i]; d > 1e-3 || d < -1e-3 {
			t.Fatalf("view * viewToWorld element %d = %v, want %v", i, m[i], id[i])
		}
	}
}

func TestParamsCornersSurroundCenter(t *testing.T) {
	c := NewOrbitCamera()
	p := c.Params(1.0, 1.5, 1, 2*c.Distance)

	fc, err := csm.ComputeCorners(p, c.Distance, c.Distance)
	if err != nil {
		t.Fatalf("ComputeCorners failed: %v", err)
	}
	// The plane at the orbit distance is centered on the orbit center.
	if d := fc.Near[0].Add(fc.Near[2]).Scale(0.5).Distance(c.Center()); d > 1e-2 {
		t.Errorf("plane center is %v away from orbit center", d)
	}
}

func TestHandleZoomClamps(t *testing.T) {
	c := NewOrbitCamera()
	for i := 0; i < 100; i++ {
		c.HandleZoom(1)
	}
	if c.Distance != c.MinDistance {
		t.Errorf("distance = %v, want %v", c.Distance, c.MinDistance)
	}
	for i := 0; i < 100; i++ {
		c.HandleZoom(-1)
	}
	if c.Distance != c.MaxDistance {
		t.Errorf("distance = %v, want %v", c.Distance, c.MaxDistance)
	}
}

func TestHandleDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 1e6)
	if c.RotationX != c.MaxPitch {
		t.Errorf("pitch = %v, want %v", c.RotationX, c.MaxPitch)
	}
	c.HandleDrag(0, -1e6)
	if c.RotationX != c.MinPitch {
		t.Errorf("pitch = %v, want %v", c.RotationX, c.MinPitch)
	}
}

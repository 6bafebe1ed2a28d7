package csm

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/midgard-csm/pkg/math"
)

func testCamera() CameraParams {
	return CameraParams{
		Near:       0.3,
		Far:        1000,
		Aspect:     16.0 / 9.0,
		Projection: Perspective{FovY: float32(gomath.Pi / 3)},
		Rotation:   math.QuatIdentity(),
	}
}

func TestComputeCornersPerspectiveIdentity(t *testing.T) {
	cam := testCamera()
	fc, err := ComputeCorners(cam, 1, 10)
	if err != nil {
		t.Fatalf("ComputeCorners failed: %v", err)
	}
	if fc.Space != SpaceWorld {
		t.Errorf("expected world space, got %s", fc.Space)
	}

	hh := float32(gomath.Tan(gomath.Pi / 6))
	hw := hh * cam.Aspect
	want := [4]math.Vec3{
		CornerBottomLeft:  {X: -hw, Y: -hh, Z: -1},
		CornerBottomRight: {X: hw, Y: -hh, Z: -1},
		CornerTopRight:    {X: hw, Y: hh, Z: -1},
		CornerTopLeft:     {X: -hw, Y: hh, Z: -1},
	}
	for i := range want {
		assertVec(t, "near corner", fc.Near[i], want[i], 1e-5)
		assertVec(t, "far corner", fc.Far[i], want[i].Scale(10), 1e-4)
	}
}

func TestComputeCornersEdgesPassThroughEye(t *testing.T) {
	cam := testCamera()
	cam.Position = math.Vec3{X: 5, Y: 2, Z: -3}
	cam.Rotation = math.QuatFromAxisAngle(math.Vec3{X: 0.3, Y: 1, Z: 0.2}.Normalize(), 0.8)

	fc, err := ComputeCorners(cam, 2, 20)
	if err != nil {
		t.Fatalf("ComputeCorners failed: %v", err)
	}
	for i := 0; i < 4; i++ {
		// Far corner i lies on the ray from the eye through near corner i.
		nearRay := fc.Near[i].Sub(cam.Position)
		farRay := fc.Far[i].Sub(cam.Position)
		assertVec(t, "edge direction", farRay, nearRay.Scale(10), 1e-3)
	}
}

func TestComputeCornersOrthographicEdgesParallel(t *testing.T) {
	rot := math.QuatFromAxisAngle(math.Vec3{X: 1, Y: 0, Z: 0}, -0.6)
	cam := CameraParams{
		Aspect:     2,
		Projection: Orthographic{Size: 4},
		Position:   math.Vec3{X: 1, Y: 1, Z: 1},
		Rotation:   rot,
	}

	fc, err := ComputeCorners(cam, 0, 50)
	if err != nil {
		t.Fatalf("ComputeCorners failed: %v", err)
	}
	forward := rot.Forward()
	for i := 0; i < 4; i++ {
		assertVec(t, "ortho edge", fc.Far[i].Sub(fc.Near[i]), forward.Scale(50), 1e-3)
	}
	width := fc.Near[CornerBottomRight].Distance(fc.Near[CornerBottomLeft])
	height := fc.Near[CornerTopLeft].Distance(fc.Near[CornerBottomLeft])
	if !approx(width, 16, 1e-4) || !approx(height, 8, 1e-4) {
		t.Errorf("ortho plane size %vx%v, want 16x8", width, height)
	}
}

func TestComputeCornersErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CameraParams)
		near, far float32
		wantErr   error
	}{
		{"nil projection", func(c *CameraParams) { c.Projection = nil }, 1, 2, ErrInvalidCamera},
		{"zero fov", func(c *CameraParams) { c.Projection = Perspective{} }, 1, 2, ErrInvalidCamera},
		{"zero ortho size", func(c *CameraParams) { c.Projection = Orthographic{} }, 1, 2, ErrInvalidCamera},
		{"zero aspect", func(c *CameraParams) { c.Aspect = 0 }, 1, 2, ErrInvalidCamera},
		{"nan position", func(c *CameraParams) { c.Position.X = float32(gomath.NaN()) }, 1, 2, ErrInvalidCamera},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := testCamera()
			tt.mutate(&cam)
			if _, err := ComputeCorners(cam, tt.near, tt.far); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	var rangeErr *InvalidRangeError
	if _, err := ComputeCorners(testCamera(), 5, 1); !errors.As(err, &rangeErr) {
		t.Errorf("expected InvalidRangeError for inverted slice, got %v", err)
	}
}

func TestComputeCornersEqualPlanes(t *testing.T) {
	fc, err := ComputeCorners(testCamera(), 7, 7)
	if err != nil {
		t.Fatalf("ComputeCorners failed: %v", err)
	}
	if fc.Near != fc.Far {
		t.Error("expected identical near and far planes")
	}
}

func TestViewToWorldMatchesCorners(t *testing.T) {
	cam := testCamera()
	cam.Position = math.Vec3{X: -2, Y: 4, Z: 9}
	cam.Rotation = math.QuatFromAxisAngle(math.Vec3{X: 0, Y: 1, Z: 0}, 1.2)

	fc, err := ComputeCorners(cam, 3, 3)
	if err != nil {
		t.Fatalf("ComputeCorners failed: %v", err)
	}
	hw, hh := cam.Projection.HalfExtents(3, cam.Aspect)
	got := cam.ViewToWorld().TransformPoint(math.Vec3{X: hw, Y: hh, Z: -3})
	assertVec(t, "top right", got, fc.Near[CornerTopRight], 1e-4)
}

func assertVec(t *testing.T, name string, got, want math.Vec3, tol float32) {
	t.Helper()
	if !approx(got.X, want.X, tol) || !approx(got.Y, want.Y, tol) || !approx(got.Z, want.Z, tol) {
		t.Errorf("%s: got %v, want %v", name, got, want)
	}
}

package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/midgard-csm/internal/csm"
	"github.com/Faultbox/midgard-csm/pkg/math"
)

func testCamera() csm.CameraParams {
	return csm.CameraParams{
		Near:       0.3,
		Far:        100,
		Aspect:     16.0 / 9.0,
		Projection: csm.Perspective{FovY: 1},
		Position:   math.Vec3{X: 2, Y: 5, Z: 1},
		Rotation:   math.QuatFromAxisAngle(math.Vec3{Y: 1}, 0.7),
	}
}

func TestGenerateBBoxWireframeVertices(t *testing.T) {
	v := GenerateBBoxWireframeVertices(math.Vec3{X: -1, Y: -2, Z: -3}, math.Vec3{X: 1, Y: 2, Z: 3})
	if len(v) != WireframeVertexCount*3 {
		t.Fatalf("got %d floats, want %d", len(v), WireframeVertexCount*3)
	}
	for i := 0; i < len(v); i += 6 {
		// Every edge runs along exactly one axis.
		changed := 0
		for k := 0; k < 3; k++ {
			if v[i+k] != v[i+3+k] {
				changed++
			}
		}
		if changed != 1 {
			t.Errorf("edge %d changes %d axes", i/6, changed)
		}
	}
}

func TestFrustumWireframeUsesCorners(t *testing.T) {
	fc, err := csm.ComputeCorners(testCamera(), 1, 10)
	if err != nil {
		t.Fatalf("ComputeCorners failed: %v", err)
	}
	v := FrustumWireframeVertices(fc)
	if len(v) != WireframeVertexCount*3 {
		t.Fatalf("got %d floats", len(v))
	}

	pts := fc.Points()
	for i := 0; i < len(v); i += 3 {
		p := math.Vec3{X: v[i], Y: v[i+1], Z: v[i+2]}
		found := false
		for _, c := range pts {
			if c == p {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("vertex %d %+v is not a frustum corner", i/3, p)
		}
	}
}

func TestLightBoxCornersMatchFit(t *testing.T) {
	fc, err := csm.ComputeCorners(testCamera(), 5, 40)
	if err != nil {
		t.Fatalf("ComputeCorners failed: %v", err)
	}
	rot := math.QuatLookRotation(math.Vec3{X: 0.4, Y: -1, Z: 0.2}, math.Vec3{Y: 1})
	fit, err := csm.FitLightFrustum(fc, rot)
	if err != nil {
		t.Fatalf("FitLightFrustum failed: %v", err)
	}

	box, err := LightBoxCorners(fit)
	if err != nil {
		t.Fatalf("LightBoxCorners failed: %v", err)
	}
	for i, p := range box.Points() {
		l := csm.ToLightSpace(rot.Normalize(), p)
		grown := csm.Box{
			Min: fit.Box.Min.Sub(math.Vec3{X: 1e-2, Y: 1e-2, Z: 1e-2}),
			Max: fit.Box.Max.Add(math.Vec3{X: 1e-2, Y: 1e-2, Z: 1e-2}),
		}
		if !grown.Contains(l) {
			t.Errorf("box corner %d %+v outside fitted bounds %+v", i, l, fit.Box)
		}
	}
}

func TestCascadeWireframes(t *testing.T) {
	cam := testCamera()
	cascades, err := csm.Split(cam.Near, cam.Far, 3, csm.UniformSplit{})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	var slices []csm.FrustumCorners
	var fits []csm.LightFrustumFit
	for _, c := range cascades {
		fc, err := csm.ComputeCorners(cam, c.Near, c.Far)
		if err != nil {
			t.Fatalf("ComputeCorners failed: %v", err)
		}
		fit, err := csm.FitLightFrustum(fc, math.QuatIdentity())
		if err != nil {
			t.Fatalf("FitLightFrustum failed: %v", err)
		}
		slices = append(slices, fc)
		fits = append(fits, fit)
	}

	sv, bv := CascadeWireframes(slices, fits)
	if len(sv) != 3*WireframeVertexCount*3 || len(bv) != 3*WireframeVertexCount*3 {
		t.Errorf("got %d slice and %d box floats", len(sv), len(bv))
	}
}

func TestDepthImage(t *testing.T) {
	// Bottom row near, top row far.
	depth := []float32{0, 0, 1, 1}
	img, err := DepthImage(depth, 2)
	if err != nil {
		t.Fatalf("DepthImage failed: %v", err)
	}
	if img.GrayAt(0, 0).Y != 255 || img.GrayAt(1, 1).Y != 0 {
		t.Errorf("image not flipped: top=%d bottom=%d", img.GrayAt(0, 0).Y, img.GrayAt(1, 1).Y)
	}

	if _, err := DepthImage(depth, 3); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestCaptureDepth(t *testing.T) {
	dir := t.TempDir()
	sc := NewScreenshotCapture(dir, "csmview")
	sc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	path, err := sc.CaptureDepth(2, []float32{0.5, 0.5, 0.5, 0.5}, 2)
	if err != nil {
		t.Fatalf("CaptureDepth failed: %v", err)
	}
	if want := filepath.Join(dir, "csmview_cascade2_2024-05-01_12-00-00.png"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Errorf("bounds = %v", b)
	}
}

func TestCaptureFromPixelsSizeMismatch(t *testing.T) {
	sc := NewScreenshotCapture(t.TempDir(), "csmview")
	if _, err := sc.CaptureFromPixels(make([]byte, 10), 2, 2); err == nil {
		t.Error("expected size mismatch error")
	}
}

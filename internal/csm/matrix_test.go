package csm

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-csm/pkg/math"
)

func TestBuildShadowMatrixDeterministic(t *testing.T) {
	pose := LightPose{
		Position: math.Vec3{X: 12.5, Y: -3.25, Z: 7},
		Rotation: math.QuatFromAxisAngle(math.Vec3{X: 1, Y: 1, Z: 0}.Normalize(), 0.77),
	}
	proj := OrthoParams{Near: 0, Far: 140, HalfWidth: 33, HalfHeight: 21}.Matrix()

	first := BuildShadowMatrix(proj, pose)
	for i := 0; i < 100; i++ {
		if got := BuildShadowMatrix(proj, pose); got != first {
			t.Fatalf("run %d produced a different matrix", i)
		}
	}
}

func TestViewMatrixMatchesLookAt(t *testing.T) {
	rot := math.QuatLookRotation(math.Vec3{X: -1, Y: -2, Z: 0.5}, math.Vec3{Y: 1})
	pose := LightPose{Position: math.Vec3{X: 4, Y: 9, Z: -2}, Rotation: rot}

	eye := pose.Position
	center := eye.Add(rot.Forward())
	up := rot.Up()
	want := mgl32.LookAtV(
		mgl32.Vec3{eye.X, eye.Y, eye.Z},
		mgl32.Vec3{center.X, center.Y, center.Z},
		mgl32.Vec3{up.X, up.Y, up.Z},
	)

	got := pose.ViewMatrix()
	for i := 0; i < 16; i++ {
		if !approx(got[i], want[i], 1e-4) {
			t.Errorf("element %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestShadowMatrixMapsCascadeIntoClipCube(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for iter := 0; iter < 100; iter++ {
		cam := testCamera()
		cam.Rotation = randomRotation(rng)
		cam.Position = math.Vec3{X: rng.Float32() * 50, Y: rng.Float32() * 50, Z: rng.Float32() * 50}
		corners, err := ComputeCorners(cam, 1, 80)
		if err != nil {
			t.Fatalf("ComputeCorners failed: %v", err)
		}
		fit, err := FitLightFrustum(corners, randomRotation(rng))
		if err != nil {
			t.Fatalf("FitLightFrustum failed: %v", err)
		}

		m := BuildShadowMatrix(fit.Ortho.Matrix(), fit.Pose)
		for _, p := range corners.Points() {
			clip := m.TransformPoint(p)
			for _, c := range clip.Array() {
				if c < -1.001 || c > 1.001 {
					t.Fatalf("iteration %d: corner %v maps outside clip cube: %v", iter, p, clip)
				}
			}
		}
	}
}

func TestAdjustProjection(t *testing.T) {
	o := OrthoParams{Near: 0, Far: 10, HalfWidth: 5, HalfHeight: 5}
	proj := o.Matrix()

	nearPt := math.Vec3{X: 5, Y: 5, Z: 0}
	farPt := math.Vec3{X: -5, Y: -5, Z: -10}

	tests := []struct {
		name             string
		conv             DepthConvention
		nearZ, farZ, topY float32
	}{
		{"opengl", ConventionOpenGL, -1, 1, 1},
		{"webgpu", ConventionWebGPU, 0, 1, 1},
		{"vulkan", ConventionVulkan, 0, 1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := AdjustProjection(proj, tt.conv)
			n := m.TransformPoint(nearPt)
			f := m.TransformPoint(farPt)
			if !approx(n.Z, tt.nearZ, 1e-5) || !approx(f.Z, tt.farZ, 1e-5) {
				t.Errorf("depth range [%v, %v], want [%v, %v]", n.Z, f.Z, tt.nearZ, tt.farZ)
			}
			if !approx(n.Y, tt.topY, 1e-5) {
				t.Errorf("top edge y = %v, want %v", n.Y, tt.topY)
			}
		})
	}

	if AdjustProjection(proj, ConventionOpenGL) != proj {
		t.Error("OpenGL convention must leave the projection untouched")
	}
}

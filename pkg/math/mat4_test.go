package math

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())
	if result != m {
		t.Errorf("M * I should equal M, got %v", result)
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(5, 10, 15)
	if m[12] != 5 || m[13] != 10 || m[14] != 15 {
		t.Errorf("Translate: got (%f, %f, %f), want (5, 10, 15)", m[12], m[13], m[14])
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	got := m.TransformPoint(Vec3{1, 2, 3})
	if want := (Vec3{11, 22, 33}); got != want {
		t.Errorf("TransformPoint: got %v, want %v", got, want)
	}

	s := Scale(2, 2, 2)
	if got, want := s.TransformPoint(Vec3{1, 2, 3}), (Vec3{2, 4, 6}); got != want {
		t.Errorf("TransformPoint with scale: got %v, want %v", got, want)
	}
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	m := Translate(10, 20, 30)
	if got, want := m.TransformDirection(Vec3{0, 0, -1}), (Vec3{0, 0, -1}); got != want {
		t.Errorf("TransformDirection: got %v, want %v", got, want)
	}
}

func TestTranspose(t *testing.T) {
	m := Translate(1, 2, 3)
	tr := m.Transpose()
	if tr.At(3, 0) != 1 || tr.At(0, 3) != 0 || tr[7] != 2 || tr[11] != 3 {
		t.Errorf("Transpose: got %v", tr)
	}
	if tr.Transpose() != m {
		t.Error("Transpose twice should be identity operation")
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m := RigidTransform(Vec3{3, -4, 5}, QuatFromAxisAngle(Vec3{0, 1, 0}, 0.7))
	got := m.Mul(m.Inverse())
	assertMatClose(t, "M * M^-1", got, Identity(), 1e-5)
}

func TestInverseSingular(t *testing.T) {
	var zero Mat4
	if got := zero.Inverse(); got != Identity() {
		t.Errorf("singular Inverse() = %v, want identity", got)
	}
}

func TestProjectionsMatchMathGL(t *testing.T) {
	tests := []struct {
		name string
		got  Mat4
		want mgl32.Mat4
	}{
		{
			name: "perspective",
			got:  Perspective(float32(math.Pi/3), 16.0/9.0, 0.3, 1000),
			want: mgl32.Perspective(float32(math.Pi/3), 16.0/9.0, 0.3, 1000),
		},
		{
			name: "ortho",
			got:  Ortho(-12, 8, -3, 5, 0, 150),
			want: mgl32.Ortho(-12, 8, -3, 5, 0, 150),
		},
		{
			name: "look at",
			got:  LookAt(Vec3{3, 4, 5}, Vec3{0, 0, 0}, Vec3{0, 1, 0}),
			want: mgl32.LookAtV(mgl32.Vec3{3, 4, 5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertMatClose(t, tt.name, tt.got, Mat4(tt.want), 1e-5)
		})
	}
}

func TestMulMatchesMathGL(t *testing.T) {
	a := Ortho(-10, 10, -5, 5, 0, 100)
	b := RigidTransform(Vec3{1, 2, 3}, QuatFromAxisAngle(Vec3{1, 0, 0}, 0.4))
	want := mgl32.Mat4(a).Mul4(mgl32.Mat4(b))
	assertMatClose(t, "Mul", a.Mul(b), Mat4(want), 1e-5)
}

func TestRigidTransformMatchesMathGL(t *testing.T) {
	axis := Vec3{0, 1, 0}
	q := QuatFromAxisAngle(axis, 1.1)
	got := RigidTransform(Vec3{7, 8, 9}, q)

	mq := mgl32.QuatRotate(1.1, mgl32.Vec3{0, 1, 0})
	want := mgl32.Translate3D(7, 8, 9).Mul4(mq.Mat4())
	assertMatClose(t, "RigidTransform", got, Mat4(want), 1e-5)
}

func assertMatClose(t *testing.T, name string, got, want Mat4, tol float64) {
	t.Helper()
	for i := 0; i < 16; i++ {
		if math.Abs(float64(got[i]-want[i])) > tol {
			t.Errorf("%s element %d: got %v, want %v", name, i, got[i], want[i])
		}
	}
}

package csm

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/midgard-csm/pkg/math"
)

// Projection maps a camera's view volume. Implemented by Perspective and
// Orthographic.
type Projection interface {
	// HalfExtents returns the half-width and half-height of the view rectangle
	// at distance in front of the camera.
	HalfExtents(distance, aspect float32) (halfWidth, halfHeight float32)
	validate() error
}

// Perspective is a pinhole projection. FovY is the vertical field of view in radians.
type Perspective struct {
	FovY float32
}

func (p Perspective) HalfExtents(distance, aspect float32) (float32, float32) {
	hh := distance * float32(gomath.Tan(float64(p.FovY)/2))
	return hh * aspect, hh
}

func (p Perspective) validate() error {
	if !math.IsFinite(p.FovY) || p.FovY <= 0 || p.FovY >= gomath.Pi {
		return fmt.Errorf("%w: fov %g rad", ErrInvalidCamera, p.FovY)
	}
	return nil
}

// Orthographic is a parallel projection. Size is the half-height of the view
// rectangle; the half-width is Size * aspect.
type Orthographic struct {
	Size float32
}

func (o Orthographic) HalfExtents(_, aspect float32) (float32, float32) {
	return o.Size * aspect, o.Size
}

func (o Orthographic) validate() error {
	if !math.IsFinite(o.Size) || o.Size <= 0 {
		return fmt.Errorf("%w: orthographic size %g", ErrInvalidCamera, o.Size)
	}
	return nil
}

// CameraParams is a read-only snapshot of a camera for one frame.
// The camera looks down its local -Z axis with +Y up.
type CameraParams struct {
	Near       float32
	Far        float32
	Aspect     float32 // width / height
	Projection Projection
	Position   math.Vec3
	Rotation   math.Quat
}

// Validate checks the projection and transform. The depth range itself is
// checked by Split so that it surfaces as an InvalidRangeError.
func (c CameraParams) Validate() error {
	if c.Projection == nil {
		return fmt.Errorf("%w: no projection", ErrInvalidCamera)
	}
	if err := c.Projection.validate(); err != nil {
		return err
	}
	if !math.IsFinite(c.Aspect) || c.Aspect <= 0 {
		return fmt.Errorf("%w: aspect %g", ErrInvalidCamera, c.Aspect)
	}
	if !c.Position.IsFinite() || !c.Rotation.IsFinite() {
		return fmt.Errorf("%w: non-finite transform", ErrInvalidCamera)
	}
	return nil
}

// ViewToWorld returns the camera's local-to-world transform.
func (c CameraParams) ViewToWorld() math.Mat4 {
	return math.RigidTransform(c.Position, c.Rotation.Normalize())
}

// DirectionalLight is the per-frame snapshot of the shadow-casting light.
// Only the rotation matters; the light shines along its local -Z axis.
type DirectionalLight struct {
	Rotation math.Quat
	Enabled  bool
}

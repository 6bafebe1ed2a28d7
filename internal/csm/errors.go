package csm

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-csm/pkg/math"
)

var (
	ErrMissingLight       = errors.New("no directional light bound")
	ErrLightDisabled      = errors.New("directional light is disabled")
	ErrMissingCamera      = errors.New("no main camera bound")
	ErrInvalidCamera      = errors.New("invalid camera parameters")
	ErrCornerSpace        = errors.New("frustum corners are not in world space")
	ErrNonFiniteCorners   = errors.New("frustum corners contain NaN or Inf")
	ErrUnknownSplitPolicy = errors.New("unknown split policy")
)

// InvalidRangeError reports a depth range or cascade count that cannot be split.
type InvalidRangeError struct {
	Near, Far float32
	Count     int
	Reason    string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid cascade range [%g, %g] x%d: %s", e.Near, e.Far, e.Count, e.Reason)
}

// DegenerateFrustumError reports a cascade whose light-space box had zero
// extent on at least one axis and was widened to Epsilon.
type DegenerateFrustumError struct {
	Cascade int
	Size    math.Vec3 // box size before widening
}

func (e *DegenerateFrustumError) Error() string {
	return fmt.Sprintf("cascade %d light box is degenerate (size %.6g x %.6g x %.6g)",
		e.Cascade, e.Size.X, e.Size.Y, e.Size.Z)
}

// UnsupportedTextureFormatError is returned by a TargetAllocator that cannot
// create a depth target in the requested format.
type UnsupportedTextureFormatError struct {
	Format DepthFormat
}

func (e *UnsupportedTextureFormatError) Error() string {
	return fmt.Sprintf("depth format %s not supported by backend", e.Format)
}

package csm

import (
	"fmt"

	"github.com/Faultbox/midgard-csm/pkg/math"
)

// Space identifies the coordinate frame of a set of corners.
type Space int

const (
	// SpaceWorld is world space.
	SpaceWorld Space = iota
	// SpaceLight is the rotation-only frame of the directional light:
	// x right, y up, z distance along the light direction.
	SpaceLight
)

func (s Space) String() string {
	switch s {
	case SpaceWorld:
		return "world"
	case SpaceLight:
		return "light"
	default:
		return fmt.Sprintf("Space(%d)", int(s))
	}
}

// Corner indices within a FrustumCorners plane.
const (
	CornerBottomLeft = iota
	CornerBottomRight
	CornerTopRight
	CornerTopLeft
)

// FrustumCorners holds the 8 corners of a frustum slice. Near[i] and Far[i]
// share an ordering so each pair forms one of the four side edges.
type FrustumCorners struct {
	Near  [4]math.Vec3
	Far   [4]math.Vec3
	Space Space
}

// Points returns the near corners followed by the far corners.
func (fc FrustumCorners) Points() [8]math.Vec3 {
	var p [8]math.Vec3
	copy(p[:4], fc.Near[:])
	copy(p[4:], fc.Far[:])
	return p
}

// Center returns the average of the 8 corners.
func (fc FrustumCorners) Center() math.Vec3 {
	var sum math.Vec3
	for _, p := range fc.Points() {
		sum = sum.Add(p)
	}
	return sum.Scale(1.0 / 8)
}

// ComputeCorners returns the world-space corners of the slice of cam's
// frustum between nearDist and farDist, measured along the view axis.
func ComputeCorners(cam CameraParams, nearDist, farDist float32) (FrustumCorners, error) {
	if err := cam.Validate(); err != nil {
		return FrustumCorners{}, err
	}
	if !math.IsFinite(nearDist) || !math.IsFinite(farDist) || nearDist < 0 || farDist < nearDist {
		return FrustumCorners{}, &InvalidRangeError{Near: nearDist, Far: farDist, Count: 1,
			Reason: "slice distances must satisfy 0 <= near <= far"}
	}

	rot := cam.Rotation.Normalize()
	fc := FrustumCorners{Space: SpaceWorld}
	planeCorners(&fc.Near, cam, rot, nearDist)
	planeCorners(&fc.Far, cam, rot, farDist)
	return fc, nil
}

// planeCorners fills dst with the four world-space corners at distance d.
func planeCorners(dst *[4]math.Vec3, cam CameraParams, rot math.Quat, d float32) {
	hw, hh := cam.Projection.HalfExtents(d, cam.Aspect)
	local := [4]math.Vec3{
		CornerBottomLeft:  {X: -hw, Y: -hh, Z: -d},
		CornerBottomRight: {X: hw, Y: -hh, Z: -d},
		CornerTopRight:    {X: hw, Y: hh, Z: -d},
		CornerTopLeft:     {X: -hw, Y: hh, Z: -d},
	}
	for i, p := range local {
		dst[i] = cam.Position.Add(rot.Rotate(p))
	}
}

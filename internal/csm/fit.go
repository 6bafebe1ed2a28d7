package csm

import (
	"github.com/Faultbox/midgard-csm/pkg/math"
)

// Epsilon is the minimum extent of a fitted light box on any axis.
const Epsilon float32 = 1e-4

// Box is an axis-aligned bounding box.
type Box struct {
	Min math.Vec3
	Max math.Vec3
}

// BoundingBox returns the tightest box containing points.
func BoundingBox(points []math.Vec3) Box {
	if len(points) == 0 {
		return Box{}
	}
	b := Box{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b
}

// Size returns the extent on each axis.
func (b Box) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the center point of the box.
func (b Box) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Contains reports whether p lies inside the box, boundary included.
func (b Box) Contains(p math.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Corners returns the 8 box corners in FrustumCorners order, with the
// Min.Z face as the near plane.
func (b Box) Corners(space Space) FrustumCorners {
	face := func(z float32) [4]math.Vec3 {
		return [4]math.Vec3{
			CornerBottomLeft:  {X: b.Min.X, Y: b.Min.Y, Z: z},
			CornerBottomRight: {X: b.Max.X, Y: b.Min.Y, Z: z},
			CornerTopRight:    {X: b.Max.X, Y: b.Max.Y, Z: z},
			CornerTopLeft:     {X: b.Min.X, Y: b.Max.Y, Z: z},
		}
	}
	return FrustumCorners{Near: face(b.Min.Z), Far: face(b.Max.Z), Space: space}
}

// LightPose is the transform of one cascade's light camera.
type LightPose struct {
	Position math.Vec3
	Rotation math.Quat
}

// ViewMatrix returns the world-to-light-view matrix.
func (p LightPose) ViewMatrix() math.Mat4 {
	pos := p.Position
	return p.Rotation.Normalize().Conjugate().ToMat4().Mul(math.Translate(-pos.X, -pos.Y, -pos.Z))
}

// ToLightSpace maps a world point into the rotation-only light frame.
func ToLightSpace(rotation math.Quat, p math.Vec3) math.Vec3 {
	l := rotation.Conjugate().Rotate(p)
	return math.Vec3{X: l.X, Y: l.Y, Z: -l.Z}
}

// FromLightSpace is the inverse of ToLightSpace.
func FromLightSpace(rotation math.Quat, l math.Vec3) math.Vec3 {
	return rotation.Rotate(math.Vec3{X: l.X, Y: l.Y, Z: -l.Z})
}

// OrthoParams are the clip extents of a light camera.
type OrthoParams struct {
	Near       float32
	Far        float32
	HalfWidth  float32
	HalfHeight float32
}

// Aspect returns width / height.
func (o OrthoParams) Aspect() float32 {
	return o.HalfWidth / o.HalfHeight
}

// Matrix returns the naive OpenGL orthographic projection. Renderers adjust
// it for their API with AdjustProjection before returning it.
func (o OrthoParams) Matrix() math.Mat4 {
	return math.Ortho(-o.HalfWidth, o.HalfWidth, -o.HalfHeight, o.HalfHeight, o.Near, o.Far)
}

// LightFrustumFit is the light camera fitted around one cascade.
type LightFrustumFit struct {
	Pose  LightPose
	Ortho OrthoParams
	// Box is the light-space bounds of the cascade corners.
	Box Box
	// LightCorners are the cascade corners in light space.
	LightCorners FrustumCorners
	// Degenerate is set when an axis had less than Epsilon extent and was widened.
	Degenerate bool
}

// Aspect returns width / height of the fitted box.
func (f LightFrustumFit) Aspect() float32 {
	return f.Ortho.Aspect()
}

// Camera returns the fitted light as an orthographic camera, so that
// ComputeCorners(fit.Camera(), fit.Ortho.Near, fit.Ortho.Far) yields the
// light box in world space.
func (f LightFrustumFit) Camera() CameraParams {
	return CameraParams{
		Near:       f.Ortho.Near,
		Far:        f.Ortho.Far,
		Aspect:     f.Aspect(),
		Projection: Orthographic{Size: f.Ortho.HalfHeight},
		Position:   f.Pose.Position,
		Rotation:   f.Pose.Rotation,
	}
}

// FitLightFrustum fits the tightest light-space box around world-space cascade
// corners. The light camera sits on the center of the box face nearest the
// light, looking along the light direction, so its clip range is
// [0, box depth].
func FitLightFrustum(corners FrustumCorners, lightRotation math.Quat) (LightFrustumFit, error) {
	if corners.Space != SpaceWorld {
		return LightFrustumFit{}, ErrCornerSpace
	}
	rot := lightRotation.Normalize()

	local := FrustumCorners{Space: SpaceLight}
	for i := 0; i < 4; i++ {
		if !corners.Near[i].IsFinite() || !corners.Far[i].IsFinite() {
			return LightFrustumFit{}, ErrNonFiniteCorners
		}
		local.Near[i] = ToLightSpace(rot, corners.Near[i])
		local.Far[i] = ToLightSpace(rot, corners.Far[i])
	}

	pts := local.Points()
	box := BoundingBox(pts[:])
	box, degenerate := widenDegenerate(box)

	size := box.Size()
	center := box.Center()
	nearFace := math.Vec3{X: center.X, Y: center.Y, Z: box.Min.Z}

	return LightFrustumFit{
		Pose: LightPose{
			Position: FromLightSpace(rot, nearFace),
			Rotation: rot,
		},
		Ortho: OrthoParams{
			Near:       0,
			Far:        size.Z,
			HalfWidth:  size.X / 2,
			HalfHeight: size.Y / 2,
		},
		Box:          box,
		LightCorners: local,
		Degenerate:   degenerate,
	}, nil
}

// widenDegenerate grows every axis thinner than Epsilon symmetrically about
// its center.
func widenDegenerate(b Box) (Box, bool) {
	widened := false
	grow := func(lo, hi *float32) {
		if *hi-*lo >= Epsilon {
			return
		}
		c := (*lo + *hi) / 2
		*lo = c - Epsilon/2
		*hi = c + Epsilon/2
		// Large coordinates can swallow Epsilon/2 in float32.
		if *hi-*lo < Epsilon {
			*lo = c - Epsilon*max(1, abs32(c))
			*hi = c + Epsilon*max(1, abs32(c))
		}
		widened = true
	}
	grow(&b.Min.X, &b.Max.X)
	grow(&b.Min.Y, &b.Max.Y)
	grow(&b.Min.Z, &b.Max.Z)
	return b, widened
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

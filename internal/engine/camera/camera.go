// Package camera provides the orbit camera used to inspect shadow cascades.
package camera

import (
	gomath "math"

	"github.com/Faultbox/midgard-csm/internal/csm"
	"github.com/Faultbox/midgard-csm/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	CenterX, CenterY, CenterZ float32

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        60.0,
		RotationX:       0.5,
		RotationY:       0.0,
		MinDistance:     5.0,
		MaxDistance:     900.0,
		MinPitch:        0.1,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	x := c.Distance * float32(gomath.Cos(float64(c.RotationX))*gomath.Sin(float64(c.RotationY)))
	y := c.Distance * float32(gomath.Sin(float64(c.RotationX)))
	z := c.Distance * float32(gomath.Cos(float64(c.RotationX))*gomath.Cos(float64(c.RotationY)))

	return math.Vec3{
		X: c.CenterX + x,
		Y: c.CenterY + y,
		Z: c.CenterZ + z,
	}
}

// Center returns the orbit center.
func (c *OrbitCamera) Center() math.Vec3 {
	return math.Vec3{X: c.CenterX, Y: c.CenterY, Z: c.CenterZ}
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	return math.LookAt(c.Position(), c.Center(), up)
}

// Rotation returns the camera orientation: local -Z looks at the center.
func (c *OrbitCamera) Rotation() math.Quat {
	forward := c.Center().Sub(c.Position())
	return math.QuatLookRotation(forward, math.Vec3{X: 0, Y: 1, Z: 0})
}

// Params returns a snapshot of the camera for the shadow controller.
// fovY is in radians and aspect is width/height.
func (c *OrbitCamera) Params(fovY, aspect, near, far float32) csm.CameraParams {
	return csm.CameraParams{
		Near:       near,
		Far:        far,
		Aspect:     aspect,
		Projection: csm.Perspective{FovY: fovY},
		Position:   c.Position(),
		Rotation:   c.Rotation(),
	}
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity

	// Clamp pitch
	if c.RotationX < c.MinPitch {
		c.RotationX = c.MinPitch
	}
	if c.RotationX > c.MaxPitch {
		c.RotationX = c.MaxPitch
	}
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

// HandleMovement pans the camera center point based on keyboard input.
func (c *OrbitCamera) HandleMovement(forward, right, up float32) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * 0.01

	// Calculate movement direction based on current camera rotation
	dirX := float32(gomath.Sin(float64(c.RotationY)))
	dirZ := float32(gomath.Cos(float64(c.RotationY)))

	// Right direction (perpendicular to forward)
	rightX := float32(gomath.Cos(float64(c.RotationY)))
	rightZ := float32(-gomath.Sin(float64(c.RotationY)))

	// Apply movement to center point (negate forward so W moves "into" the scene)
	c.CenterX += (-dirX*forward + rightX*right) * speed
	c.CenterZ += (-dirZ*forward + rightZ*right) * speed
	c.CenterY += up * speed
}

// SetCenter sets the camera's center point.
func (c *OrbitCamera) SetCenter(x, y, z float32) {
	c.CenterX = x
	c.CenterY = y
	c.CenterZ = z
}

// FitToBounds adjusts camera to view the given bounding box.
func (c *OrbitCamera) FitToBounds(minX, minY, minZ, maxX, maxY, maxZ float32) {
	// Set center to bounds center
	c.CenterX = (minX + maxX) / 2
	c.CenterY = (minY + maxY) / 2
	c.CenterZ = (minZ + maxZ) / 2

	// Calculate distance based on size
	sizeX := maxX - minX
	sizeZ := maxZ - minZ
	maxSize := sizeX
	if sizeZ > maxSize {
		maxSize = sizeZ
	}

	c.Distance = min(max(maxSize*0.6, c.MinDistance), c.MaxDistance)

	c.RotationX = 0.6 // Look down at ~35 degrees
	c.RotationY = 0.0
}

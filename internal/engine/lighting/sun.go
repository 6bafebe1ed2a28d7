// Package lighting provides the directional sun light that casts cascaded shadows.
package lighting

import (
	"math"

	"github.com/Faultbox/midgard-csm/internal/csm"
	mathx "github.com/Faultbox/midgard-csm/pkg/math"
)

// SunDirection converts longitude/latitude angles in degrees to a unit vector
// pointing towards the sun. Longitude is rotation around Y (0-360), latitude is
// elevation from the horizon (0-90).
func SunDirection(longitude, latitude float32) mathx.Vec3 {
	lonRad := float64(longitude) * math.Pi / 180.0
	latRad := float64(latitude) * math.Pi / 180.0

	return mathx.Vec3{
		X: float32(math.Cos(latRad) * math.Sin(lonRad)),
		Y: float32(math.Sin(latRad)),
		Z: float32(math.Cos(latRad) * math.Cos(lonRad)),
	}
}

// SunRotation returns the light rotation whose forward axis points from the
// sun into the scene. A sun at the zenith keeps a stable fallback up axis.
func SunRotation(longitude, latitude float32) mathx.Quat {
	return mathx.QuatLookRotation(SunDirection(longitude, latitude).Negate(), mathx.Vec3{Y: 1})
}

// Sun is an animatable directional light.
type Sun struct {
	Longitude float32 // degrees
	Latitude  float32 // degrees
	Enabled   bool
}

// NewSun creates an enabled sun at the given angles.
func NewSun(longitude, latitude float32) *Sun {
	return &Sun{Longitude: longitude, Latitude: latitude, Enabled: true}
}

// Rotate advances the sun by the given angles in degrees. Longitude wraps to
// [0, 360) and latitude is clamped to [1, 90] so the sun stays above the horizon.
func (s *Sun) Rotate(dLon, dLat float32) {
	s.Longitude = float32(math.Mod(float64(s.Longitude+dLon), 360))
	if s.Longitude < 0 {
		s.Longitude += 360
	}
	s.Latitude = min(max(s.Latitude+dLat, 1), 90)
}

// Direction returns the unit vector the light travels along.
func (s *Sun) Direction() mathx.Vec3 {
	return SunDirection(s.Longitude, s.Latitude).Negate()
}

// Light returns the per-frame snapshot consumed by the shadow controller.
func (s *Sun) Light() csm.DirectionalLight {
	return csm.DirectionalLight{
		Rotation: SunRotation(s.Longitude, s.Latitude),
		Enabled:  s.Enabled,
	}
}

package csm

import (
	"github.com/Faultbox/midgard-csm/pkg/math"
)

// DepthConvention describes how a graphics API's clip space differs from
// OpenGL's [-1, 1] depth cube.
type DepthConvention struct {
	// ZeroToOne maps clip depth to [0, 1] (Direct3D, Metal, Vulkan, WebGPU).
	ZeroToOne bool
	// FlipY flips clip Y, for APIs whose render-to-texture origin is top-left.
	FlipY bool
}

var (
	ConventionOpenGL = DepthConvention{}
	ConventionVulkan = DepthConvention{ZeroToOne: true, FlipY: true}
	ConventionWebGPU = DepthConvention{ZeroToOne: true}
)

// AdjustProjection rewrites an OpenGL-style projection for the given convention.
// Rendering backends call this and return the result from RenderDepth.
func AdjustProjection(proj math.Mat4, conv DepthConvention) math.Mat4 {
	if conv.ZeroToOne {
		// z' = 0.5*z + 0.5*w
		remap := math.Mat4{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 0.5, 0,
			0, 0, 0.5, 1,
		}
		proj = remap.Mul(proj)
	}
	if conv.FlipY {
		proj = math.Scale(1, -1, 1).Mul(proj)
	}
	return proj
}

// BuildShadowMatrix returns the world-to-shadow-clip matrix of one cascade:
// adjustedProjection * worldToLightView. adjustedProjection must be the
// matrix the depth pass actually rendered with.
func BuildShadowMatrix(adjustedProjection math.Mat4, pose LightPose) math.Mat4 {
	return adjustedProjection.Mul(pose.ViewMatrix())
}

// Package debug provides debug visualization utilities for shadow cascades.
package debug

import (
	"github.com/Faultbox/midgard-csm/internal/csm"
	"github.com/Faultbox/midgard-csm/pkg/math"
)

// WireframeVertexCount is the number of vertices for one frustum or box
// wireframe (12 edges x 2).
const WireframeVertexCount = 24

// edges lists corner index pairs into FrustumCorners.Points().
var edges = [12][2]int{
	// Near face
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	// Far face
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	// Connecting edges
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// AppendFrustumWireframe appends line vertices for the 12 edges of fc to dst,
// format [x, y, z] per vertex.
func AppendFrustumWireframe(dst []float32, fc csm.FrustumCorners) []float32 {
	pts := fc.Points()
	for _, e := range edges {
		a, b := pts[e[0]], pts[e[1]]
		dst = append(dst, a.X, a.Y, a.Z, b.X, b.Y, b.Z)
	}
	return dst
}

// FrustumWireframeVertices returns line vertices for one frustum.
func FrustumWireframeVertices(fc csm.FrustumCorners) []float32 {
	return AppendFrustumWireframe(make([]float32, 0, WireframeVertexCount*3), fc)
}

// GenerateBBoxWireframeVertices creates line vertices for an axis-aligned box.
func GenerateBBoxWireframeVertices(min, max math.Vec3) []float32 {
	return FrustumWireframeVertices(csm.Box{Min: min, Max: max}.Corners(csm.SpaceWorld))
}

// LightBoxCorners returns the world-space corners of a fitted light box.
func LightBoxCorners(fit csm.LightFrustumFit) (csm.FrustumCorners, error) {
	return csm.ComputeCorners(fit.Camera(), fit.Ortho.Near, fit.Ortho.Far)
}

// CascadeWireframes builds line vertices for every cascade slice and every
// fitted light box. Cascades whose light box cannot be rebuilt are skipped.
func CascadeWireframes(slices []csm.FrustumCorners, fits []csm.LightFrustumFit) (sliceVerts, boxVerts []float32) {
	sliceVerts = make([]float32, 0, len(slices)*WireframeVertexCount*3)
	for _, fc := range slices {
		sliceVerts = AppendFrustumWireframe(sliceVerts, fc)
	}
	boxVerts = make([]float32, 0, len(fits)*WireframeVertexCount*3)
	for _, f := range fits {
		fc, err := LightBoxCorners(f)
		if err != nil {
			continue
		}
		boxVerts = AppendFrustumWireframe(boxVerts, fc)
	}
	return sliceVerts, boxVerts
}

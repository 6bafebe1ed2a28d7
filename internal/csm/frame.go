package csm

import (
	"github.com/Faultbox/midgard-csm/pkg/math"
)

// FrameData is the shadow state published for one frame. It is handed out by
// value with its own slices; the controller keeps no reference to them.
type FrameData struct {
	Frame     uint64
	Matrices  []math.Mat4 // world to shadow clip, per cascade
	SplitNear []float32
	SplitFar  []float32
	Textures  []TextureHandle
	Bias      float32
	Strength  float32
}

// Cascades returns the number of cascades in the frame.
func (f FrameData) Cascades() int {
	return len(f.Matrices)
}

// Clone returns a deep copy.
func (f FrameData) Clone() FrameData {
	f.Matrices = append([]math.Mat4(nil), f.Matrices...)
	f.SplitNear = append([]float32(nil), f.SplitNear...)
	f.SplitFar = append([]float32(nil), f.SplitFar...)
	f.Textures = append([]TextureHandle(nil), f.Textures...)
	return f
}

// CascadeFor returns the cascade whose range contains viewDepth, or -1 when
// the depth is outside every cascade.
func (f FrameData) CascadeFor(viewDepth float32) int {
	for i := range f.SplitFar {
		if viewDepth >= f.SplitNear[i] && viewDepth <= f.SplitFar[i] {
			return i
		}
	}
	return -1
}

// SplitFarVec4 packs the first four far distances for a vec4 uniform.
func (f FrameData) SplitFarVec4() [4]float32 {
	var v [4]float32
	copy(v[:], f.SplitFar)
	return v
}

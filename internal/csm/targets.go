package csm

import (
	"fmt"
	"strings"

	"github.com/Faultbox/midgard-csm/pkg/math"
)

// DepthFormat is the storage format of a cascade depth target.
type DepthFormat int

const (
	// DepthFormatDefault lets the backend pick; every backend must support it.
	DepthFormatDefault DepthFormat = iota
	DepthFormat16
	DepthFormat24
	DepthFormat32F
)

func (f DepthFormat) String() string {
	switch f {
	case DepthFormatDefault:
		return "default"
	case DepthFormat16:
		return "depth16"
	case DepthFormat24:
		return "depth24"
	case DepthFormat32F:
		return "depth32f"
	default:
		return fmt.Sprintf("DepthFormat(%d)", int(f))
	}
}

// ParseDepthFormat parses the names produced by DepthFormat.String.
func ParseDepthFormat(s string) (DepthFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return DepthFormatDefault, nil
	case "depth16":
		return DepthFormat16, nil
	case "depth24":
		return DepthFormat24, nil
	case "depth32f":
		return DepthFormat32F, nil
	default:
		return DepthFormatDefault, fmt.Errorf("unknown depth format %q", s)
	}
}

// TextureHandle identifies a depth target owned by the rendering backend.
type TextureHandle uint32

// TargetAllocator creates depth targets. It is called once per cascade when
// the controller is built. Unsupported formats must be reported with
// *UnsupportedTextureFormatError.
type TargetAllocator interface {
	AllocateDepthTarget(resolution int32, format DepthFormat) (TextureHandle, error)
}

// DepthRenderer renders shadow casters into target as seen by a light camera
// and returns the projection it actually used, after any API adjustment.
// It is called synchronously, once per cascade, in cascade order.
type DepthRenderer interface {
	RenderDepth(pose LightPose, ortho OrthoParams, target TextureHandle) (math.Mat4, error)
}

// Publisher receives the frame data each time a cycle completes.
type Publisher interface {
	PublishShadows(frame FrameData)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(frame FrameData)

func (f PublisherFunc) PublishShadows(frame FrameData) { f(frame) }

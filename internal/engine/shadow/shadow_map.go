// Package shadow implements the OpenGL side of cascaded shadow mapping:
// one depth-only framebuffer per cascade and the depth pass that fills it.
package shadow

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-csm/internal/csm"
)

// Map is a depth-only framebuffer for one shadow cascade.
type Map struct {
	FBO          uint32
	DepthTexture uint32
	Resolution   int32 // width = height
	Format       csm.DepthFormat
	prevViewport [4]int32
}

// internalFormat maps a depth format to the GL sized internal format.
func internalFormat(f csm.DepthFormat) (int32, bool) {
	switch f {
	case csm.DepthFormatDefault, csm.DepthFormat24:
		return gl.DEPTH_COMPONENT24, true
	case csm.DepthFormat16:
		return gl.DEPTH_COMPONENT16, true
	case csm.DepthFormat32F:
		return gl.DEPTH_COMPONENT32F, true
	default:
		return 0, false
	}
}

// NewMap creates a depth target of the given size and format. It returns an
// *csm.UnsupportedTextureFormatError when the driver rejects the format.
func NewMap(resolution int32, format csm.DepthFormat) (*Map, error) {
	ifmt, ok := internalFormat(format)
	if !ok {
		return nil, &csm.UnsupportedTextureFormatError{Format: format}
	}

	sm := &Map{
		Resolution: resolution,
		Format:     format,
	}

	gl.GenFramebuffers(1, &sm.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.FBO)

	gl.GenTextures(1, &sm.DepthTexture)
	gl.BindTexture(gl.TEXTURE_2D, sm.DepthTexture)

	// Drain stale errors so the check below only sees TexImage2D.
	for gl.GetError() != gl.NO_ERROR {
	}
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		ifmt,
		resolution,
		resolution,
		0,
		gl.DEPTH_COMPONENT,
		gl.FLOAT,
		nil,
	)
	texErr := gl.GetError()

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	// Clamp to a white border so samples outside the cascade are lit.
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	borderColor := []float32{1.0, 1.0, 1.0, 1.0}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &borderColor[0])

	// Comparison sampling for sampler2DShadow
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)

	gl.FramebufferTexture2D(
		gl.FRAMEBUFFER,
		gl.DEPTH_ATTACHMENT,
		gl.TEXTURE_2D,
		sm.DepthTexture,
		0,
	)

	// No color buffer for the depth pass
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if texErr != gl.NO_ERROR || status != gl.FRAMEBUFFER_COMPLETE {
		sm.Destroy()
		return nil, &csm.UnsupportedTextureFormatError{Format: format}
	}
	return sm, nil
}

// Bind binds the framebuffer for the depth pass and sets the viewport to the
// map resolution.
func (sm *Map) Bind() {
	gl.GetIntegerv(gl.VIEWPORT, &sm.prevViewport[0])

	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.FBO)
	gl.Viewport(0, 0, sm.Resolution, sm.Resolution)
	gl.Clear(gl.DEPTH_BUFFER_BIT)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	// Front-face culling reduces shadow acne
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.FRONT)
}

// Unbind restores the default framebuffer, the previous viewport and
// back-face culling.
func (sm *Map) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(sm.prevViewport[0], sm.prevViewport[1], sm.prevViewport[2], sm.prevViewport[3])
	gl.CullFace(gl.BACK)
}

// BindTexture binds the depth texture to the given texture unit.
func (sm *Map) BindTexture(textureUnit uint32) {
	gl.ActiveTexture(textureUnit)
	gl.BindTexture(gl.TEXTURE_2D, sm.DepthTexture)
}

// Destroy releases all GPU resources associated with this map.
func (sm *Map) Destroy() {
	if sm.FBO != 0 {
		gl.DeleteFramebuffers(1, &sm.FBO)
		sm.FBO = 0
	}
	if sm.DepthTexture != 0 {
		gl.DeleteTextures(1, &sm.DepthTexture)
		sm.DepthTexture = 0
	}
}

// IsValid returns true if the map still owns its GPU resources.
func (sm *Map) IsValid() bool {
	return sm != nil && sm.FBO != 0 && sm.DepthTexture != 0
}

// ReadDepth reads back the depth texture as normalized values, row 0 at
// the bottom. Intended for debug dumps only; it stalls the pipeline.
func (sm *Map) ReadDepth() []float32 {
	n := int(sm.Resolution) * int(sm.Resolution)
	out := make([]float32, n)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, sm.FBO)
	gl.ReadPixels(0, 0, sm.Resolution, sm.Resolution, gl.DEPTH_COMPONENT, gl.FLOAT, gl.Ptr(&out[0]))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	return out
}

// Package renderer draws the viewer scene: shadow receivers lit through the
// published cascades, and debug wireframes.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-csm/internal/csm"
	"github.com/Faultbox/midgard-csm/internal/engine/shader"
	"github.com/Faultbox/midgard-csm/internal/logger"
	"github.com/Faultbox/midgard-csm/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// View is the main camera state for one frame.
type View struct {
	View       math.Mat4
	Projection math.Mat4
	LightDir   math.Vec3 // direction the light travels
}

// Renderer handles the main-camera pass.
type Renderer struct {
	config Config

	receiver *shader.Program
	lines    *shader.Program

	lineVAO uint32
	lineVBO uint32
	lineCap int // floats the line VBO can hold

	// TintCascades colors receivers by the cascade they sample.
	TintCascades bool
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	var err error
	r.receiver, err = shader.NewProgram(shader.ReceiverVertex, shader.ReceiverFragment)
	if err != nil {
		return nil, fmt.Errorf("failed to create receiver program: %w", err)
	}
	r.lines, err = shader.NewProgram(shader.LineVertex, shader.LineFragment)
	if err != nil {
		r.receiver.Delete()
		return nil, fmt.Errorf("failed to create line program: %w", err)
	}

	gl.GenVertexArrays(1, &r.lineVAO)
	gl.GenBuffers(1, &r.lineVBO)
	gl.BindVertexArray(r.lineVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)

	logger.Debug("renderer programs created",
		zap.Uint32("receiver", r.receiver.ID),
		zap.Uint32("lines", r.lines.ID),
	)
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	if r.lineVAO != 0 {
		gl.DeleteVertexArrays(1, &r.lineVAO)
	}
	if r.lineVBO != 0 {
		gl.DeleteBuffers(1, &r.lineVBO)
	}
	r.receiver.Delete()
	r.lines.Delete()
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(r.config.Width), int32(r.config.Height))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// End finishes the current frame.
func (r *Renderer) End() {}

// DrawReceivers draws meshes lit by the sun and shadowed through frame.
// units are the texture units holding frame.Textures, in cascade order.
func (r *Renderer) DrawReceivers(v View, frame csm.FrameData, units []int32, meshes []*Mesh) {
	n := min(frame.Cascades(), len(units), shader.MaxReceiverCascades)

	r.receiver.Use()
	r.receiver.SetMat4("uViewProj", v.Projection.Mul(v.View))
	r.receiver.SetMat4("uView", v.View)
	r.receiver.SetVec3("uLightDir", v.LightDir.Normalize())
	r.receiver.SetInt("uCascadeCount", int32(n))
	r.receiver.SetFloat("uBias", frame.Bias)
	r.receiver.SetFloat("uStrength", frame.Strength)
	r.receiver.SetVec4("uSplitFar", frame.SplitFarVec4())
	if n > 0 {
		r.receiver.SetMat4Array("uShadowMatrices", frame.Matrices[:n])
	} else {
		// Nothing published yet: draw unshadowed.
		r.receiver.SetFloat("uStrength", 0)
	}
	for i := 0; i < shader.MaxReceiverCascades; i++ {
		unit := int32(0)
		if i < n {
			unit = units[i]
		}
		r.receiver.SetInt(fmt.Sprintf("uShadowMaps[%d]", i), unit)
	}
	tint := int32(0)
	if r.TintCascades {
		tint = 1
	}
	r.receiver.SetInt("uTintCascades", tint)

	for _, m := range meshes {
		r.receiver.SetMat4("uModel", m.Model())
		r.receiver.SetVec3("uBaseColor", m.Color)
		m.Draw()
	}
}

// DrawLines draws line-list vertices ([x, y, z] per vertex) in one color.
func (r *Renderer) DrawLines(v View, vertices []float32, color math.Vec3) {
	if len(vertices) == 0 {
		return
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	if len(vertices) > r.lineCap {
		r.lineCap = len(vertices)
		gl.BufferData(gl.ARRAY_BUFFER, r.lineCap*4, unsafe.Pointer(&vertices[0]), gl.DYNAMIC_DRAW)
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*4, unsafe.Pointer(&vertices[0]))
	}

	r.lines.Use()
	r.lines.SetMat4("uViewProj", v.Projection.Mul(v.View))
	r.lines.SetVec3("uColor", color)

	gl.BindVertexArray(r.lineVAO)
	gl.DrawArrays(gl.LINES, 0, int32(len(vertices)/3))
	gl.BindVertexArray(0)
}

// ReadPixels reads the default framebuffer as RGBA for screenshots.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&pixels[0]))
	return pixels, w, h
}

package shadow

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-csm/internal/csm"
	"github.com/Faultbox/midgard-csm/internal/engine/shader"
	"github.com/Faultbox/midgard-csm/pkg/math"
)

// ErrUnknownTarget is returned when RenderDepth gets a handle this renderer
// did not allocate.
var ErrUnknownTarget = errors.New("unknown depth target")

// Caster is geometry drawn into the shadow maps.
type Caster interface {
	// Model returns the caster's model matrix.
	Model() math.Mat4
	// DrawDepth issues the draw call with position at attribute 0.
	DrawDepth()
}

// Renderer owns the cascade depth targets and renders casters into them.
// It implements csm.TargetAllocator and csm.DepthRenderer for OpenGL.
type Renderer struct {
	program *shader.Program
	maps    map[csm.TextureHandle]*Map
	order   []csm.TextureHandle
	casters []Caster
	log     *zap.Logger
}

// NewRenderer compiles the depth program. A GL context must be current.
func NewRenderer(log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	prog, err := shader.NewProgram(shader.DepthVertex, shader.DepthFragment)
	if err != nil {
		return nil, fmt.Errorf("depth program: %w", err)
	}
	return &Renderer{
		program: prog,
		maps:    make(map[csm.TextureHandle]*Map),
		log:     log,
	}, nil
}

// SetCasters replaces the geometry drawn in the depth pass.
func (r *Renderer) SetCasters(casters []Caster) {
	r.casters = casters
}

// AllocateDepthTarget creates one square depth map.
func (r *Renderer) AllocateDepthTarget(resolution int32, format csm.DepthFormat) (csm.TextureHandle, error) {
	m, err := NewMap(resolution, format)
	if err != nil {
		return 0, err
	}
	h := csm.TextureHandle(m.DepthTexture)
	r.maps[h] = m
	r.order = append(r.order, h)
	r.log.Debug("depth target allocated",
		zap.Uint32("texture", m.DepthTexture),
		zap.Int32("resolution", resolution),
		zap.Stringer("format", format),
	)
	return h, nil
}

// RenderDepth draws every caster from the light camera into target and
// returns the projection it used.
func (r *Renderer) RenderDepth(pose csm.LightPose, ortho csm.OrthoParams, target csm.TextureHandle) (math.Mat4, error) {
	m, ok := r.maps[target]
	if !ok || !m.IsValid() {
		return math.Mat4{}, fmt.Errorf("%w: %d", ErrUnknownTarget, target)
	}

	proj := csm.AdjustProjection(ortho.Matrix(), csm.ConventionOpenGL)
	viewProj := proj.Mul(pose.ViewMatrix())

	m.Bind()
	r.program.Use()
	r.program.SetMat4("uLightViewProj", viewProj)
	for _, c := range r.casters {
		r.program.SetMat4("uModel", c.Model())
		c.DrawDepth()
	}
	m.Unbind()

	if code := gl.GetError(); code != gl.NO_ERROR {
		return math.Mat4{}, fmt.Errorf("depth pass: GL error 0x%x", code)
	}
	return proj, nil
}

// Map returns the depth map behind a handle.
func (r *Renderer) Map(h csm.TextureHandle) (*Map, bool) {
	m, ok := r.maps[h]
	return m, ok
}

// BindCascades binds the frame's depth textures to consecutive texture units
// starting at firstUnit (for example gl.TEXTURE1) and returns the unit
// indices for the sampler uniforms.
func (r *Renderer) BindCascades(frame csm.FrameData, firstUnit uint32) []int32 {
	units := make([]int32, 0, len(frame.Textures))
	for i, h := range frame.Textures {
		m, ok := r.maps[h]
		if !ok {
			continue
		}
		unit := firstUnit + uint32(i)
		m.BindTexture(unit)
		units = append(units, int32(unit-gl.TEXTURE0))
	}
	return units
}

// Destroy releases every depth map and the depth program.
func (r *Renderer) Destroy() {
	for _, h := range r.order {
		r.maps[h].Destroy()
	}
	clear(r.maps)
	r.order = nil
	r.program.Delete()
}

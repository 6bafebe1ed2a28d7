// Package csm computes cascaded shadow map geometry for a directional light:
// cascade splits of the main camera frustum, light cameras fitted to each
// cascade, and the world-to-shadow matrices used by the shading pass.
package csm

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-csm/pkg/math"
)

// Settings are the tuning constants of a Controller.
type Settings struct {
	Cascades    int
	Resolution  int32
	DepthFormat DepthFormat
	Bias        float32
	Strength    float32
	Policy      SplitPolicy // nil means DefaultSplitPolicy
	ParallelFit bool
}

// DefaultSettings returns four 1024x1024 cascades with the default schedule.
func DefaultSettings() Settings {
	return Settings{
		Cascades:    4,
		Resolution:  1024,
		DepthFormat: DepthFormat24,
		Bias:        0.005,
		Strength:    0.5,
		Policy:      DefaultSplitPolicy(),
	}
}

// Validate checks the settings without touching any backend.
func (s Settings) Validate() error {
	if s.Cascades < 1 {
		return &InvalidRangeError{Count: s.Cascades, Reason: "cascade count must be at least 1"}
	}
	if s.Resolution <= 0 {
		return fmt.Errorf("depth target resolution must be positive, got %d", s.Resolution)
	}
	if !math.IsFinite(s.Strength) || s.Strength < 0 || s.Strength > 1 {
		return fmt.Errorf("shadow strength %g outside [0, 1]", s.Strength)
	}
	if !math.IsFinite(s.Bias) {
		return fmt.Errorf("shadow bias %g is not finite", s.Bias)
	}
	policy := s.Policy
	if policy == nil {
		policy = DefaultSplitPolicy()
	}
	// Catches schedules that cannot produce Cascades ranges for any camera.
	if _, err := Split(1, 1000, s.Cascades, policy); err != nil {
		return fmt.Errorf("split policy %s: %w", policy.Name(), err)
	}
	return nil
}

// State is the controller's position in the per-frame cycle.
type State int

const (
	StateIdle State = iota
	StateSplitting
	StateFitting
	StateAwaitingDepthRender
	StateBuildingMatrices
	StatePublished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSplitting:
		return "splitting"
	case StateFitting:
		return "fitting"
	case StateAwaitingDepthRender:
		return "awaiting-depth-render"
	case StateBuildingMatrices:
		return "building-matrices"
	case StatePublished:
		return "published"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithPublisher registers the consumer of each completed frame.
func WithPublisher(p Publisher) Option {
	return func(c *Controller) { c.publisher = p }
}

// WithTransitionHook is called on every state change.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(c *Controller) { c.onTransition = fn }
}

// Controller runs one split, fit, render, build cycle per Update call.
// It is not safe for concurrent use.
type Controller struct {
	settings  Settings
	format    DepthFormat
	renderer  DepthRenderer
	publisher Publisher
	log       *zap.Logger

	onTransition func(from, to State)

	state   State
	frame   uint64
	targets []TextureHandle

	// cur belongs to the published frame; next is filled by the running
	// cycle and swapped in only when it publishes.
	cur, next cycleBuffers

	published    FrameData
	hasPublished bool

	// Error kinds already logged during the current failure streak.
	reported map[string]bool
}

// cycleBuffers holds the per-cascade results of one cycle.
type cycleBuffers struct {
	cascades    []Cascade
	corners     []FrustumCorners
	fits        []LightFrustumFit
	projections []math.Mat4
}

func newCycleBuffers(n int) cycleBuffers {
	return cycleBuffers{
		cascades:    make([]Cascade, 0, n),
		corners:     make([]FrustumCorners, n),
		fits:        make([]LightFrustumFit, n),
		projections: make([]math.Mat4, n),
	}
}

// NewController validates settings and allocates one depth target per cascade.
func NewController(settings Settings, alloc TargetAllocator, renderer DepthRenderer, opts ...Option) (*Controller, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if alloc == nil || renderer == nil {
		return nil, errors.New("csm: target allocator and depth renderer are required")
	}
	if settings.Policy == nil {
		settings.Policy = DefaultSplitPolicy()
	}

	n := settings.Cascades
	c := &Controller{
		settings: settings,
		format:   settings.DepthFormat,
		renderer: renderer,
		log:      zap.NewNop(),
		cur:      newCycleBuffers(n),
		next:     newCycleBuffers(n),
		targets:  make([]TextureHandle, n),
		reported: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}

	for i := range c.targets {
		h, err := c.allocate(alloc, i)
		if err != nil {
			return nil, err
		}
		c.targets[i] = h
	}

	c.log.Info("cascaded shadows ready",
		zap.Int("cascades", n),
		zap.Int32("resolution", settings.Resolution),
		zap.Stringer("format", c.format),
		zap.String("policy", settings.Policy.Name()),
	)
	return c, nil
}

// allocate creates target i, falling back to DepthFormatDefault once if the
// configured format is unsupported.
func (c *Controller) allocate(alloc TargetAllocator, i int) (TextureHandle, error) {
	h, err := alloc.AllocateDepthTarget(c.settings.Resolution, c.format)
	var unsupported *UnsupportedTextureFormatError
	if errors.As(err, &unsupported) && c.format != DepthFormatDefault {
		c.log.Warn("depth format unsupported, using default",
			zap.Stringer("requested", c.format),
			zap.Error(err),
		)
		c.format = DepthFormatDefault
		h, err = alloc.AllocateDepthTarget(c.settings.Resolution, c.format)
	}
	if err != nil {
		return 0, fmt.Errorf("allocating depth target %d: %w", i, err)
	}
	return h, nil
}

// Update runs one full cycle for the current frame. On failure the controller
// returns to StateIdle and nothing new is published. Failures before the depth
// pass keep the previous FrameData; a failed depth pass withdraws it, since
// some targets may already hold this frame's depth. The returned error only
// explains the skipped frame; it is never fatal.
func (c *Controller) Update(cam *CameraParams, light *DirectionalLight) error {
	c.frame++
	if err := c.cycle(cam, light); err != nil {
		c.abort(err)
		return err
	}
	if len(c.reported) > 0 {
		c.log.Info("shadow cycle recovered", zap.Uint64("frame", c.frame))
		clear(c.reported)
	}
	return nil
}

func (c *Controller) cycle(cam *CameraParams, light *DirectionalLight) error {
	w := &c.next

	c.transition(StateSplitting)
	if cam == nil {
		return ErrMissingCamera
	}
	if err := cam.Validate(); err != nil {
		return err
	}
	cascades, err := SplitInto(w.cascades, cam.Near, cam.Far, c.settings.Cascades, c.settings.Policy)
	if err != nil {
		return err
	}
	w.cascades = cascades
	for i, cs := range w.cascades {
		fc, err := ComputeCorners(*cam, cs.Near, cs.Far)
		if err != nil {
			return fmt.Errorf("cascade %d corners: %w", i, err)
		}
		w.corners[i] = fc
	}

	c.transition(StateFitting)
	if light == nil {
		return ErrMissingLight
	}
	if !light.Enabled {
		return ErrLightDisabled
	}
	if !light.Rotation.IsFinite() {
		return fmt.Errorf("%w: non-finite light rotation", ErrMissingLight)
	}
	if err := c.fitAll(w, light.Rotation); err != nil {
		return err
	}

	c.transition(StateAwaitingDepthRender)
	for i := range w.fits {
		proj, err := c.renderer.RenderDepth(w.fits[i].Pose, w.fits[i].Ortho, c.targets[i])
		if err != nil {
			c.withdraw()
			return fmt.Errorf("rendering cascade %d: %w", i, err)
		}
		w.projections[i] = proj
	}

	c.transition(StateBuildingMatrices)
	n := len(w.cascades)
	frame := FrameData{
		Frame:     c.frame,
		Matrices:  make([]math.Mat4, n),
		SplitNear: make([]float32, n),
		SplitFar:  make([]float32, n),
		Textures:  append([]TextureHandle(nil), c.targets...),
		Bias:      c.settings.Bias,
		Strength:  c.settings.Strength,
	}
	for i, cs := range w.cascades {
		frame.Matrices[i] = BuildShadowMatrix(w.projections[i], w.fits[i].Pose)
		frame.SplitNear[i] = cs.Near
		frame.SplitFar[i] = cs.Far
	}

	c.cur, c.next = c.next, c.cur
	c.published = frame
	c.hasPublished = true
	c.transition(StatePublished)
	if c.publisher != nil {
		c.publisher.PublishShadows(frame.Clone())
	}
	return nil
}

// withdraw drops the published frame after a failed depth pass and tells the
// publisher to shade without shadows until the next good cycle.
func (c *Controller) withdraw() {
	c.cur.cascades = c.cur.cascades[:0]
	if !c.hasPublished {
		return
	}
	c.published = FrameData{}
	c.hasPublished = false
	if c.publisher != nil {
		c.publisher.PublishShadows(FrameData{Frame: c.frame})
	}
}

// fitAll fits every cascade into w. Fitting is pure, so it may run in
// parallel; each goroutine writes only its own slot.
func (c *Controller) fitAll(w *cycleBuffers, rot math.Quat) error {
	fit := func(i int) error {
		f, err := FitLightFrustum(w.corners[i], rot)
		if err != nil {
			return fmt.Errorf("fitting cascade %d: %w", i, err)
		}
		w.fits[i] = f
		return nil
	}

	if c.settings.ParallelFit {
		var g errgroup.Group
		for i := range w.fits {
			g.Go(func() error { return fit(i) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	} else {
		for i := range w.fits {
			if err := fit(i); err != nil {
				return err
			}
		}
	}

	for i, f := range w.fits {
		if f.Degenerate {
			pts := f.LightCorners.Points()
			c.log.Debug("widened degenerate light box",
				zap.Uint64("frame", c.frame),
				zap.Error(&DegenerateFrustumError{Cascade: i, Size: BoundingBox(pts[:]).Size()}),
			)
		}
	}
	return nil
}

// abort drops the cycle and logs the reason once per failure streak.
func (c *Controller) abort(err error) {
	c.transition(StateIdle)
	kind := errorKind(err)
	if c.reported[kind] {
		return
	}
	c.reported[kind] = true
	c.log.Warn("shadow cycle skipped",
		zap.String("reason", kind),
		zap.Uint64("frame", c.frame),
		zap.Bool("has_previous", c.hasPublished),
		zap.Error(err),
	)
}

func errorKind(err error) string {
	var rangeErr *InvalidRangeError
	switch {
	case errors.Is(err, ErrMissingCamera):
		return "missing-camera"
	case errors.Is(err, ErrMissingLight):
		return "missing-light"
	case errors.Is(err, ErrLightDisabled):
		return "light-disabled"
	case errors.Is(err, ErrInvalidCamera):
		return "invalid-camera"
	case errors.As(err, &rangeErr):
		return "invalid-range"
	default:
		return "render"
	}
}

func (c *Controller) transition(to State) {
	from := c.state
	c.state = to
	if c.onTransition != nil {
		c.onTransition(from, to)
	}
}

// State returns the state reached by the last Update.
func (c *Controller) State() State {
	return c.state
}

// Frame returns the number of Update calls so far.
func (c *Controller) Frame() uint64 {
	return c.frame
}

// DepthFormat returns the format the depth targets were allocated with.
func (c *Controller) DepthFormat() DepthFormat {
	return c.format
}

// Targets returns the depth target handles in cascade order.
func (c *Controller) Targets() []TextureHandle {
	return append([]TextureHandle(nil), c.targets...)
}

// Published returns a copy of the last published frame and whether any
// frame has been published yet.
func (c *Controller) Published() (FrameData, bool) {
	if !c.hasPublished {
		return FrameData{}, false
	}
	return c.published.Clone(), true
}

// Cascades returns the cascades of the published frame, for visualization.
func (c *Controller) Cascades() []Cascade {
	return append([]Cascade(nil), c.cur.cascades...)
}

// WorldCorners returns the world-space corners of each cascade of the
// published frame, for visualization.
func (c *Controller) WorldCorners() []FrustumCorners {
	return append([]FrustumCorners(nil), c.cur.corners[:len(c.cur.cascades)]...)
}

// Fits returns the light fits of the published frame, for visualization.
func (c *Controller) Fits() []LightFrustumFit {
	return append([]LightFrustumFit(nil), c.cur.fits[:len(c.cur.cascades)]...)
}

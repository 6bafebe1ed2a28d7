// Package viewer implements the interactive cascaded shadow map viewer loop.
package viewer

import (
	"fmt"
	gomath "math"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-csm/internal/config"
	"github.com/Faultbox/midgard-csm/internal/csm"
	"github.com/Faultbox/midgard-csm/internal/engine/camera"
	"github.com/Faultbox/midgard-csm/internal/engine/debug"
	"github.com/Faultbox/midgard-csm/internal/engine/input"
	"github.com/Faultbox/midgard-csm/internal/engine/lighting"
	"github.com/Faultbox/midgard-csm/internal/engine/renderer"
	"github.com/Faultbox/midgard-csm/internal/engine/shader"
	"github.com/Faultbox/midgard-csm/internal/engine/shadow"
	"github.com/Faultbox/midgard-csm/internal/engine/window"
	"github.com/Faultbox/midgard-csm/internal/logger"
	"github.com/Faultbox/midgard-csm/pkg/math"
)

var (
	sliceColor = math.Vec3{X: 1, Y: 0.85, Z: 0.2}
	boxColor   = math.Vec3{X: 0.2, Y: 0.8, Z: 1}
)

// Viewer is the main viewer instance.
type Viewer struct {
	cfg     *config.Config
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	shadows  *shadow.Renderer
	input    *input.Input
	log      *zap.Logger

	controller *csm.Controller
	published  csm.FrameData

	camera *camera.OrbitCamera
	sun    *lighting.Sun
	meshes []*renderer.Mesh
	shots  *debug.ScreenshotCapture

	// frozen holds the camera snapshot used for splitting while the view
	// camera moves freely.
	frozen      *csm.CameraParams
	showWire    bool
	lastSummary time.Time
}

// New creates the window, GL resources, scene and shadow controller.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		cfg:      cfg,
		log:      logger.Named("viewer"),
		camera:   camera.NewOrbitCamera(),
		sun:      lighting.NewSun(float32(cfg.Light.Longitude), float32(cfg.Light.Latitude)),
		shots:    debug.NewScreenshotCapture("screenshots", "csmview"),
		showWire: true,
	}

	logger.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Int("cascades", cfg.Shadows.Cascades),
	)

	var err error
	v.window, err = window.New(window.Config{
		Title:      "CSM Viewer",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer must come after the window, since the GL context must exist.
	w, h := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{Width: w, Height: h})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.shadows, err = shadow.NewRenderer(logger.Named("shadow"))
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create shadow renderer: %w", err)
	}

	v.buildScene()

	settings, err := cfg.Shadows.Settings()
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("shadow settings: %w", err)
	}
	if settings.Cascades > shader.MaxReceiverCascades {
		v.log.Warn("receiver shader samples only the first cascades",
			zap.Int("cascades", settings.Cascades),
			zap.Int("sampled", shader.MaxReceiverCascades),
		)
	}
	v.controller, err = csm.NewController(settings, v.shadows, v.shadows,
		csm.WithLogger(logger.Named("csm")),
		csm.WithPublisher(csm.PublisherFunc(func(f csm.FrameData) { v.published = f })),
	)
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create shadow controller: %w", err)
	}

	v.input = input.New()

	logger.Info("viewer initialized successfully")
	return v, nil
}

// buildScene creates a ground plane and rows of boxes stretching away from
// the origin so every cascade has casters.
func (v *Viewer) buildScene() {
	ground := renderer.NewMesh(renderer.PlaneVertices(400), math.Vec3{X: 0.55, Y: 0.6, Z: 0.55})
	v.meshes = append(v.meshes, ground)

	box := renderer.BoxVertices()
	for row := 0; row < 12; row++ {
		for col := -3; col <= 3; col++ {
			height := 2 + float32((row*7+col*3+21)%5)*3
			m := renderer.NewMesh(box, math.Vec3{X: 0.8, Y: 0.75, Z: 0.7})
			m.Position = math.Vec3{X: float32(col) * 12, Y: height / 2, Z: -float32(row*row) * 3}
			m.Rotation = math.QuatFromAxisAngle(math.Vec3{Y: 1}, float32(row+col)*0.3)
			m.Scale = math.Vec3{X: 3, Y: height, Z: 3}
			v.meshes = append(v.meshes, m)
		}
	}

	casters := make([]shadow.Caster, len(v.meshes))
	for i, m := range v.meshes {
		casters[i] = m
	}
	v.shadows.SetCasters(casters)
	v.camera.FitToBounds(-40, 0, -400, 40, 20, 0)
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting viewer loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()

		v.update(float32(dt))
		v.render()
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps", zap.Int("count", frameCount), zap.Float64("dt_ms", dt*1000))
			v.window.SetTitle(v.title(frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			w, h := v.window.DrawableSize()
			v.renderer.Resize(w, h)
		case input.EventMouseMove:
			if v.input.IsButtonHeld(sdl.BUTTON_LEFT) {
				v.camera.HandleDrag(float32(event.DeltaX), float32(event.DeltaY))
			}
		case input.EventMouseWheel:
			v.camera.HandleZoom(event.WheelY)
		case input.EventKeyDown:
			v.handleKey(event.Key)
		}
	}
}

func (v *Viewer) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		v.running = false
	case sdl.SCANCODE_L:
		v.sun.Enabled = !v.sun.Enabled
		logger.Info("sun toggled", zap.Bool("enabled", v.sun.Enabled))
	case sdl.SCANCODE_T:
		v.renderer.TintCascades = !v.renderer.TintCascades
	case sdl.SCANCODE_C:
		v.showWire = !v.showWire
	case sdl.SCANCODE_F:
		if v.frozen != nil {
			v.frozen = nil
			logger.Info("split camera unfrozen")
		} else {
			p := v.cameraParams()
			v.frozen = &p
			logger.Info("split camera frozen", zap.Float32("x", p.Position.X), zap.Float32("z", p.Position.Z))
		}
	case sdl.SCANCODE_P:
		v.dumpDepthMaps()
	case sdl.SCANCODE_K:
		v.saveConfig()
	case sdl.SCANCODE_F12:
		pixels, w, h := v.renderer.ReadPixels()
		if path, err := v.shots.CaptureFromPixels(pixels, w, h); err != nil {
			logger.Error("screenshot failed", zap.Error(err))
		} else {
			logger.Info("screenshot saved", zap.String("path", path))
		}
	}
}

func (v *Viewer) cameraParams() csm.CameraParams {
	fov := v.cfg.Camera.FovDegrees * gomath.Pi / 180
	return v.camera.Params(fov, v.window.Aspect(), v.cfg.Camera.Near, v.cfg.Camera.Far)
}

// update moves the camera and sun and runs one shadow cycle.
func (v *Viewer) update(dt float32) {
	var fwd, right float32
	if input.IsKeyHeld(sdl.SCANCODE_W) {
		fwd++
	}
	if input.IsKeyHeld(sdl.SCANCODE_S) {
		fwd--
	}
	if input.IsKeyHeld(sdl.SCANCODE_D) {
		right++
	}
	if input.IsKeyHeld(sdl.SCANCODE_A) {
		right--
	}
	if fwd != 0 || right != 0 {
		v.camera.HandleMovement(fwd*dt*10, right*dt*10, 0)
	}

	var dLon, dLat float32
	if input.IsKeyHeld(sdl.SCANCODE_LEFT) {
		dLon -= 45 * dt
	}
	if input.IsKeyHeld(sdl.SCANCODE_RIGHT) {
		dLon += 45 * dt
	}
	if input.IsKeyHeld(sdl.SCANCODE_UP) {
		dLat += 30 * dt
	}
	if input.IsKeyHeld(sdl.SCANCODE_DOWN) {
		dLat -= 30 * dt
	}
	if dLon != 0 || dLat != 0 {
		v.sun.Rotate(dLon, dLat)
	}

	cam := v.cameraParams()
	if v.frozen != nil {
		cam = *v.frozen
	}
	light := v.sun.Light()

	// Failures are logged by the controller; the previous frame stays in use.
	if err := v.controller.Update(&cam, &light); err == nil {
		v.logSummary()
	}
}

// logSummary logs the published split distances at most every few seconds.
func (v *Viewer) logSummary() {
	if time.Since(v.lastSummary) < 5*time.Second {
		return
	}
	v.lastSummary = time.Now()
	v.log.Debug("cascades published",
		zap.Uint64("frame", v.published.Frame),
		zap.Float32s("split_near", v.published.SplitNear),
		zap.Float32s("split_far", v.published.SplitFar),
	)
}

func (v *Viewer) render() {
	v.renderer.Begin()

	view := renderer.View{
		View:       v.camera.ViewMatrix(),
		Projection: math.Perspective(v.cfg.Camera.FovDegrees*gomath.Pi/180, v.window.Aspect(), v.cfg.Camera.Near, v.cfg.Camera.Far),
		LightDir:   v.sun.Direction(),
	}

	units := v.shadows.BindCascades(v.published, gl.TEXTURE1)
	v.renderer.DrawReceivers(view, v.published, units, v.meshes)

	if v.showWire {
		slices, boxes := debug.CascadeWireframes(v.controller.WorldCorners(), v.controller.Fits())
		v.renderer.DrawLines(view, slices, sliceColor)
		v.renderer.DrawLines(view, boxes, boxColor)
	}

	v.renderer.End()
}

func (v *Viewer) title(fps int) string {
	t := fmt.Sprintf("CSM Viewer | %d fps | %d cascades", fps, v.published.Cascades())
	if v.frozen != nil {
		t += " | split camera frozen"
	}
	if !v.sun.Enabled {
		t += " | sun off"
	}
	return t
}

// saveConfig stores the current sun angles in the user config file.
func (v *Viewer) saveConfig() {
	v.cfg.Light.Longitude = int32(gomath.Round(float64(v.sun.Longitude)))
	v.cfg.Light.Latitude = int32(gomath.Round(float64(v.sun.Latitude)))
	path, err := v.cfg.Save()
	if err != nil {
		logger.Error("saving config failed", zap.Error(err))
		return
	}
	logger.Info("config saved", zap.String("path", path),
		zap.Int32("longitude", v.cfg.Light.Longitude),
		zap.Int32("latitude", v.cfg.Light.Latitude),
	)
}

// dumpDepthMaps writes every cascade depth map to a PNG.
func (v *Viewer) dumpDepthMaps() {
	for i, h := range v.controller.Targets() {
		m, ok := v.shadows.Map(h)
		if !ok {
			continue
		}
		path, err := v.shots.CaptureDepth(i, m.ReadDepth(), int(m.Resolution))
		if err != nil {
			logger.Error("depth dump failed", zap.Int("cascade", i), zap.Error(err))
			continue
		}
		logger.Info("depth map saved", zap.Int("cascade", i), zap.String("path", path))
	}
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	logger.Info("closing viewer")

	for _, m := range v.meshes {
		m.Destroy()
	}
	if v.shadows != nil {
		v.shadows.Destroy()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

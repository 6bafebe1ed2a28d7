// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-csm/internal/csm"
)

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Camera   CameraConfig   `yaml:"camera"`
	Light    LightConfig    `yaml:"light"`
	Shadows  ShadowConfig   `yaml:"shadows"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// CameraConfig holds the main camera projection.
type CameraConfig struct {
	FovDegrees float32 `yaml:"fov_degrees"`
	Near       float32 `yaml:"near"`
	Far        float32 `yaml:"far"`
}

// LightConfig holds the sun angles in degrees.
type LightConfig struct {
	Longitude int32 `yaml:"longitude"`
	Latitude  int32 `yaml:"latitude"`
}

// ShadowConfig holds cascaded shadow map settings.
type ShadowConfig struct {
	Cascades    int         `yaml:"cascades"`
	Resolution  int32       `yaml:"resolution"`
	DepthFormat string      `yaml:"depth_format"`
	Bias        float32     `yaml:"bias"`
	Strength    float32     `yaml:"strength"`
	ParallelFit bool        `yaml:"parallel_fit"`
	Split       SplitConfig `yaml:"split"`
}

// SplitConfig selects the cascade split schedule.
type SplitConfig struct {
	Policy      string    `yaml:"policy"`
	Percentages []float32 `yaml:"percentages"`
	Lambda      float32   `yaml:"lambda"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Camera: CameraConfig{
			FovDegrees: 60,
			Near:       0.3,
			Far:        1000,
		},
		Light: LightConfig{
			Longitude: 45,
			Latitude:  45,
		},
		Shadows: ShadowConfig{
			Cascades:    4,
			Resolution:  1024,
			DepthFormat: "depth24",
			Bias:        0.005,
			Strength:    0.5,
			Split: SplitConfig{
				Policy:      "percentage",
				Percentages: append([]float32(nil), csm.DefaultPercentages...),
				Lambda:      0.5,
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks that the config describes a usable viewer.
func (c *Config) Validate() error {
	var errs []error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180 {
		errs = append(errs, fmt.Errorf("camera: fov_degrees %g outside (0, 180)", c.Camera.FovDegrees))
	}
	if c.Camera.Near < 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera: need 0 <= near < far, got near=%g far=%g", c.Camera.Near, c.Camera.Far))
	}
	if err := c.Shadows.validate(c.Camera.Near, c.Camera.Far); err != nil {
		errs = append(errs, fmt.Errorf("shadows: %w", err))
	}
	return errors.Join(errs...)
}

func (s ShadowConfig) validate(near, far float32) error {
	settings, err := s.Settings()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if p, ok := settings.Policy.(csm.PercentageSplit); ok && len(p.Cumulative) != s.Cascades-1 {
		return fmt.Errorf("split: %d percentages for %d cascades, want %d",
			len(p.Cumulative), s.Cascades, s.Cascades-1)
	}
	if far > near && near >= 0 {
		// Dry run so a bad schedule fails at startup instead of every frame.
		if _, err := csm.Split(near, far, s.Cascades, settings.Policy); err != nil {
			return err
		}
	}
	return nil
}

// Settings converts the shadow section to controller settings.
func (s ShadowConfig) Settings() (csm.Settings, error) {
	format, err := csm.ParseDepthFormat(s.DepthFormat)
	if err != nil {
		return csm.Settings{}, err
	}
	policy, err := csm.NewSplitPolicy(s.Split.Policy, s.Split.Percentages, s.Split.Lambda)
	if err != nil {
		return csm.Settings{}, err
	}
	return csm.Settings{
		Cascades:    s.Cascades,
		Resolution:  s.Resolution,
		DepthFormat: format,
		Bias:        s.Bias,
		Strength:    s.Strength,
		Policy:      policy,
		ParallelFit: s.ParallelFit,
	}, nil
}

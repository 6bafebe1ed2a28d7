package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagCascades   = flag.Int("cascades", 0, "Number of shadow cascades")
	flagResolution = flag.Int("resolution", 0, "Shadow map resolution per cascade")
	flagSplit      = flag.String("split", "", "Split policy: percentage, uniform, logarithmic, practical")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagCascades > 0 {
		cfg.Shadows.Cascades = *flagCascades
		// Percentages only fit the cascade count they were written for.
		if cfg.Shadows.Split.Policy == "" || cfg.Shadows.Split.Policy == "percentage" {
			if len(cfg.Shadows.Split.Percentages) != *flagCascades-1 {
				cfg.Shadows.Split.Policy = "practical"
			}
		}
	}
	if *flagResolution > 0 {
		cfg.Shadows.Resolution = int32(*flagResolution)
	}
	if *flagSplit != "" {
		cfg.Shadows.Split.Policy = *flagSplit
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
}

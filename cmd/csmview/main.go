// Package main is the entry point for the cascaded shadow map viewer.
//
// Controls: drag to orbit, wheel to zoom, WASD to pan, arrows to move the sun,
// L toggles the sun, F freezes the split camera, T tints cascades, C toggles
// wireframes, P dumps depth maps, K saves the sun angles to the user config,
// F12 takes a screenshot.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-csm/internal/config"
	"github.com/Faultbox/midgard-csm/internal/logger"
	"github.com/Faultbox/midgard-csm/internal/viewer"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== CSM Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	v, err := viewer.New(cfg)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	defer v.Close()

	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		v.Close()
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}

// Package main is the entry point for the HelixView toolpath viewer.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/helixview/helixview/internal/config"
	"github.com/helixview/helixview/internal/gcode"
	"github.com/helixview/helixview/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== HelixView ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if config.SaveRequested() {
		if err := cfg.Save(); err != nil {
			logger.Error("failed to save config", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("config saved", zap.String("dir", config.ConfigDir()))
		return
	}

	gcodePath := flag.Arg(0)
	if gcodePath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <file.gcode>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	file, err := gcode.ParseFile(gcodePath)
	if err != nil {
		logger.Error("failed to parse g-code", zap.String("path", gcodePath), zap.Error(err))
		os.Exit(1)
	}

	// Offline mode: render one frame to PNG and exit.
	if out := config.OutputPath(); out != "" {
		if err := renderToPNG(cfg, file, out); err != nil {
			logger.Error("offline render failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("frame written", zap.String("path", out))
		return
	}

	a, err := newApp(cfg, file)
	if err != nil {
		logger.Error("failed to create viewer window", zap.Error(err))
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}

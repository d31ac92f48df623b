package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagMode       = flag.String("mode", "", "Render mode: 3d or 2d")
	flagCamera     = flag.String("camera", "", "Startup camera, e.g. az:90.5,el:4.0,zoom:15.5")
	flagShading    = flag.String("shading", "", "Shading mode: flat or smooth")
	flagDebugFaces = flag.Bool("debug-faces", false, "Color tube faces for orientation debugging")
	flagTravels    = flag.Bool("travels", false, "Show travel moves")
	flagWidth      = flag.Int("width", 0, "Viewport width")
	flagHeight     = flag.Int("height", 0, "Viewport height")
	flagOut        = flag.String("out", "", "Render one frame to this PNG file and exit")
	flagOverlay    = flag.Bool("overlay", false, "Show the camera readout overlay")
	flagSaveConfig = flag.Bool("save-config", false, "Write the effective config to the user config dir and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// OutputPath returns the PNG target for single-frame offline rendering,
// or "" for interactive mode.
func OutputPath() string {
	return *flagOut
}

// ShowOverlay reports whether the camera readout overlay was requested.
func ShowOverlay() bool {
	return *flagOverlay
}

// SaveRequested reports whether the effective config should be written
// back to the user config dir.
func SaveRequested() bool {
	return *flagSaveConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) error {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	switch *flagMode {
	case "3d":
		cfg.Graphics.Mode = Mode3D
	case "2d":
		cfg.Graphics.Mode = Mode2D
	}
	if *flagCamera != "" {
		cam, err := ParseCameraSpec(*flagCamera)
		if err != nil {
			return err
		}
		cfg.Camera = cam
	}
	switch *flagShading {
	case "flat":
		cfg.Render.SmoothShading = false
	case "smooth":
		cfg.Render.SmoothShading = true
	}
	if *flagDebugFaces {
		cfg.Render.DebugFaceColors = true
	}
	if *flagTravels {
		cfg.Render.ShowTravels = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	return nil
}

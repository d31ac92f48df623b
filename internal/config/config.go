// Package config handles viewer configuration loading and management.
package config

// RenderMode selects the toolpath rendering pipeline.
type RenderMode string

const (
	// Mode3D renders extruded ribbon geometry with lighting.
	Mode3D RenderMode = "3d"
	// Mode2D renders flat per-layer line work with depth cueing.
	Mode2D RenderMode = "2d"
)

// Config holds all viewer settings.
type Config struct {
	Graphics Graphics `yaml:"graphics"`
	Render   Render   `yaml:"render"`
	Camera   Camera   `yaml:"camera"`
	Logging  Logging  `yaml:"logging"`
}

// Graphics holds display settings.
type Graphics struct {
	Width  int        `yaml:"width"`
	Height int        `yaml:"height"`
	Mode   RenderMode `yaml:"mode"`
}

// Render holds geometry and shading settings.
type Render struct {
	SmoothShading     bool    `yaml:"smooth_shading"`
	DebugFaceColors   bool    `yaml:"debug_face_colors"`
	HeightGradient    bool    `yaml:"height_gradient"`
	ShowTravels       bool    `yaml:"show_travels"`
	ShowExtrusions    bool    `yaml:"show_extrusions"`
	FilamentColor     string  `yaml:"filament_color"`
	ToleranceMM       float32 `yaml:"tolerance_mm"`
	MinSegmentMM      float32 `yaml:"min_segment_mm"`
	EnableMerging     bool    `yaml:"enable_merging"`
	SpecularIntensity float32 `yaml:"specular_intensity"`
	SpecularShininess float32 `yaml:"specular_shininess"`
}

// Camera holds an optional startup camera override.
// When Set is true the viewer starts at the given orbit position instead of
// fitting the model bounds.
type Camera struct {
	Set       bool    `yaml:"set"`
	Azimuth   float32 `yaml:"azimuth"`
	Elevation float32 `yaml:"elevation"`
	Zoom      float32 `yaml:"zoom"`
}

// Logging holds logging settings.
type Logging struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: Graphics{
			Width:  800,
			Height: 480,
			Mode:   Mode3D,
		},
		Render: Render{
			SmoothShading:     false,
			DebugFaceColors:   false,
			HeightGradient:    false,
			ShowTravels:       false,
			ShowExtrusions:    true,
			FilamentColor:     "#00AA55",
			ToleranceMM:       0.15,
			MinSegmentMM:      0.01,
			EnableMerging:     true,
			SpecularIntensity: 0.3,
			SpecularShininess: 32,
		},
		Camera: Camera{
			Zoom: 1.0,
		},
		Logging: Logging{
			Level:   "info",
			LogFile: "",
		},
	}
}

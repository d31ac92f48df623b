// Package viewer ties the toolpath pipeline together: it owns the geometry
// builder, the orbit camera, and a lazily created raster context, and turns
// a parsed G-code file into RGBA frames ready for display or encoding.
package viewer

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/helixview/helixview/internal/config"
	"github.com/helixview/helixview/internal/gcode"
	"github.com/helixview/helixview/internal/logger"
	"github.com/helixview/helixview/internal/render/camera"
	"github.com/helixview/helixview/internal/render/geometry"
	"github.com/helixview/helixview/internal/render/tinygl"
)

const (
	defaultBackground = 0x1E1E28
	highlightBoxColor = 0xFFFF00
)

// Renderer drives 3D toolpath rendering. The raster context is created
// on the first Render call and torn down on viewport resize; if creation
// fails once, subsequent Render calls are logged no-ops.
type Renderer struct {
	width  int
	height int

	background uint32

	builder *geometry.Builder
	cam     *camera.Camera

	file *gcode.File

	showExtrusions bool
	showTravels    bool
	layerMin       int
	layerMax       int // -1 means through the last layer
	filterGen      uint64

	simplify geometry.SimplificationOptions

	highlighted []string

	specularIntensity float32
	specularShininess float32
	showOverlay       bool

	camOverride config.Camera

	ctx        *tinygl.Context
	initFailed bool

	geom          *geometry.RibbonGeometry
	geomFile      string
	geomBuildGen  uint64
	geomFilterGen uint64
	buildCount    int

	buf *DrawBuffer
}

// New builds a renderer configured from cfg. No raster resources are
// allocated until the first Render.
func New(cfg *config.Config) *Renderer {
	b := geometry.NewBuilder()
	b.SetFilamentColor(cfg.Render.FilamentColor)
	b.SetUseHeightGradient(cfg.Render.HeightGradient)
	b.SetSmoothShading(cfg.Render.SmoothShading)
	b.SetDebugFaceColors(cfg.Render.DebugFaceColors)

	r := &Renderer{
		width:      cfg.Graphics.Width,
		height:     cfg.Graphics.Height,
		background: defaultBackground,
		builder:    b,
		cam:        camera.New(),
		simplify: geometry.SimplificationOptions{
			ToleranceMM:        cfg.Render.ToleranceMM,
			MinSegmentLengthMM: cfg.Render.MinSegmentMM,
			EnableMerging:      cfg.Render.EnableMerging,
		},
		showExtrusions:    cfg.Render.ShowExtrusions,
		showTravels:       cfg.Render.ShowTravels,
		layerMax:          -1,
		specularIntensity: cfg.Render.SpecularIntensity,
		specularShininess: cfg.Render.SpecularShininess,
		// An explicit camera override implies the user is dialing in a
		// view, so the readout comes up with it.
		showOverlay: cfg.Camera.Set,
		camOverride: cfg.Camera,
	}
	return r
}

// Builder exposes the geometry builder for appearance tweaks. Any setter
// call invalidates the cached geometry through the builder's generation
// counter.
func (r *Renderer) Builder() *geometry.Builder { return r.builder }

// Camera exposes the orbit camera for interactive control.
func (r *Renderer) Camera() *camera.Camera { return r.cam }

// SetGCodeFile loads a parsed file, applies its slicer metadata to the
// builder, and fits the camera to the model bounds. A camera override
// from configuration keeps its orbit angles across file loads.
func (r *Renderer) SetGCodeFile(file *gcode.File) {
	r.file = file
	if file == nil {
		return
	}
	if file.ExtrusionWidthMM > 0 {
		r.builder.SetExtrusionWidth(file.ExtrusionWidthMM)
	}
	if file.LayerHeightMM > 0 {
		r.builder.SetLayerHeight(file.LayerHeightMM)
	}
	if len(file.ToolColors) > 0 {
		r.builder.SetToolColors(file.ToolColors)
	}

	if !file.Bounds.IsEmpty() {
		r.cam.FitToBounds(file.Bounds.Min, file.Bounds.Max)
	}
	if r.camOverride.Set {
		r.cam.SetAzimuth(r.camOverride.Azimuth)
		r.cam.SetElevation(r.camOverride.Elevation)
		r.cam.SetZoom(r.camOverride.Zoom)
	}
}

// SetViewportSize resizes the output. A matching size is a no-op;
// otherwise the raster context and draw buffer are recreated lazily on
// the next Render.
func (r *Renderer) SetViewportSize(w, h int) {
	if w == r.width && h == r.height {
		return
	}
	r.width = w
	r.height = h
	if r.ctx != nil {
		r.ctx.Close()
		r.ctx = nil
	}
	r.buf = nil
	r.initFailed = false
}

// SetShowExtrusions toggles extrusion moves in the rendered geometry.
func (r *Renderer) SetShowExtrusions(on bool) {
	if r.showExtrusions != on {
		r.showExtrusions = on
		r.filterGen++
	}
}

// SetShowTravels toggles travel moves in the rendered geometry.
func (r *Renderer) SetShowTravels(on bool) {
	if r.showTravels != on {
		r.showTravels = on
		r.filterGen++
	}
}

// SetLayerRange restricts rendering to layers [min, max] inclusive.
// max of -1 means through the last layer.
func (r *Renderer) SetLayerRange(min, max int) {
	if min < 0 {
		min = 0
	}
	if r.layerMin != min || r.layerMax != max {
		r.layerMin = min
		r.layerMax = max
		r.filterGen++
	}
}

// SetHighlightedObjects marks the named print objects for highlighting:
// their segments brighten and a wireframe box is drawn around each.
// Names that match no object are reported at render time and skipped.
func (r *Renderer) SetHighlightedObjects(names []string) {
	r.highlighted = names
	r.builder.SetHighlightedObjects(names)
}

// SetSpecular adjusts the specular material response.
func (r *Renderer) SetSpecular(intensity, shininess float32) {
	r.specularIntensity = intensity
	r.specularShininess = shininess
}

// SetShowOverlay toggles the camera readout in the output corner.
func (r *Renderer) SetShowOverlay(on bool) { r.showOverlay = on }

// SetBackground sets the clear color as 0xRRGGBB.
func (r *Renderer) SetBackground(rgb uint32) { r.background = rgb }

// BuildCount reports how many geometry builds have run, for cache
// verification.
func (r *Renderer) BuildCount() int { return r.buildCount }

// DrawBuffer returns the most recent rendered frame, or nil before the
// first successful Render.
func (r *Renderer) DrawBuffer() *DrawBuffer { return r.buf }

// Render draws the current file into the draw buffer. It returns an
// error when no file is loaded; a failed context init is logged once
// and makes Render a silent no-op so callers need no special casing.
func (r *Renderer) Render() error {
	if r.file == nil {
		return errors.New("viewer: no g-code file loaded")
	}
	if !r.ensureContext() {
		return nil
	}
	geom := r.ensureGeometry()

	r.ctx.Clear(r.background)
	aspect := float32(r.ctx.Width()) / float32(r.ctx.Height())
	r.ctx.SetCamera(r.cam.ProjectionMatrix(aspect), r.cam.ViewMatrix(), r.cam.Position())
	r.ctx.SetMaterial(r.specularIntensity, r.specularShininess)
	r.ctx.SetEmissive(false)

	r.submitGeometry(geom)
	r.drawHighlights(geom.Quant)

	if r.buf == nil {
		r.buf = newDrawBuffer(r.ctx.Width(), r.ctx.Height())
	}
	r.buf.blitABGR(r.ctx.Pixels())
	if r.showOverlay {
		r.buf.drawOverlay(r.cam.Azimuth, r.cam.Elevation, r.cam.Zoom)
	}
	return nil
}

// Close releases the raster context. The renderer stays usable; the
// next Render recreates it.
func (r *Renderer) Close() {
	if r.ctx != nil {
		r.ctx.Close()
		r.ctx = nil
	}
	r.buf = nil
	r.initFailed = false
}

func (r *Renderer) ensureContext() bool {
	if r.ctx != nil {
		return true
	}
	if r.initFailed {
		return false
	}
	ctx, err := tinygl.NewContext(r.width, r.height)
	if err != nil {
		logger.Error("raster context init failed",
			zap.Int("width", r.width),
			zap.Int("height", r.height),
			zap.Error(err))
		r.initFailed = true
		return false
	}
	r.ctx = ctx
	return true
}

// ensureGeometry rebuilds the ribbon mesh only when the file, the
// builder settings, or the segment filters changed since the last build.
func (r *Renderer) ensureGeometry() *geometry.RibbonGeometry {
	gen := r.builder.Generation()
	if r.geom != nil &&
		r.geomFile == r.file.Filename &&
		r.geomBuildGen == gen &&
		r.geomFilterGen == r.filterGen {
		return r.geom
	}
	r.geom = r.builder.Build(r.filteredFile(), r.simplify)
	r.geomFile = r.file.Filename
	r.geomBuildGen = gen
	r.geomFilterGen = r.filterGen
	r.buildCount++
	return r.geom
}

// filteredFile applies the layer range and move-type filters. When no
// filtering is active the original file is returned without copying.
func (r *Renderer) filteredFile() *gcode.File {
	lo, hi := r.layerMin, r.layerMax
	if hi < 0 || hi >= len(r.file.Layers) {
		hi = len(r.file.Layers) - 1
	}
	fullRange := lo == 0 && hi == len(r.file.Layers)-1
	if fullRange && r.showExtrusions && r.showTravels {
		return r.file
	}

	out := *r.file
	layers := make([]gcode.Layer, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		layer := r.file.Layers[i]
		segs := make([]gcode.ToolpathSegment, 0, len(layer.Segments))
		for _, s := range layer.Segments {
			if s.IsExtrusion && !r.showExtrusions {
				continue
			}
			if !s.IsExtrusion && !r.showTravels {
				continue
			}
			segs = append(segs, s)
		}
		layer.Segments = segs
		layers = append(layers, layer)
	}
	out.Layers = layers
	return &out
}

func (r *Renderer) submitGeometry(geom *geometry.RibbonGeometry) {
	if geom.IsEmpty() {
		return
	}
	scratch := make([]tinygl.StripVertex, 0, 4)
	for _, strip := range geom.Strips {
		scratch = scratch[:0]
		for _, idx := range strip {
			v := geom.Vertices[idx]
			scratch = append(scratch, tinygl.StripVertex{
				Position: geom.Quant.DequantizeVec3(v.Position),
				Normal:   geom.NormalPalette[v.NormalIndex],
				Color:    geom.ColorPalette[v.ColorIndex],
			})
		}
		r.ctx.DrawStrip(scratch)
	}
}

// drawHighlights draws emissive wireframe boxes around highlighted
// objects after the shaded geometry so they read through the lighting.
func (r *Renderer) drawHighlights(quant geometry.Quantization) {
	if len(r.highlighted) == 0 {
		return
	}
	r.ctx.SetEmissive(true)
	for _, name := range r.highlighted {
		obj, ok := r.file.Objects[name]
		if !ok {
			logger.Warn("highlighted object not found", zap.String("object", name))
			continue
		}
		edges := bboxEdges(obj.Bounds, quant)
		for i := 0; i+1 < len(edges); i += 2 {
			r.ctx.DrawLine3D(edges[i], edges[i+1], highlightBoxColor)
		}
	}
	r.ctx.SetEmissive(false)
}

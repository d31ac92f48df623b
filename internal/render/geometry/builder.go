package geometry

import (
	stdmath "math"
	"time"

	"go.uber.org/zap"

	"github.com/helixview/helixview/internal/gcode"
	"github.com/helixview/helixview/internal/logger"
	"github.com/helixview/helixview/pkg/math"
)

// TubeCap holds the 8 side-face vertex indices of one tube cross-section,
// ordered [bl_bottom, br_bottom, br_right, tr_right, tr_top, tl_top,
// tl_left, bl_left]. A segment's end cap can be reused as the next
// segment's start cap when the two connect.
type TubeCap [8]uint32

const (
	normalPaletteCap = 65536
	colorPaletteCap  = 256

	// Tube width is padded 10% so adjacent tracks overlap despite
	// quantization rounding.
	widthSafetyMargin = 1.1

	minSegmentWidth = 0.1
	maxSegmentWidth = 2.0
)

// Builder converts a parsed G-code file into RibbonGeometry. Configure it
// with the setters, then call Build. Every setter bumps an internal
// generation counter so callers can detect stale cached geometry.
type Builder struct {
	extrusionWidth float32
	travelWidth    float32
	layerHeight    float32

	smoothShading     bool
	debugFaceColors   bool
	useHeightGradient bool
	filamentColor     uint32
	toolColors        []string
	highlighted       map[string]struct{}

	generation uint64
	stats      BuildStats
}

// NewBuilder returns a Builder with standard FDM defaults.
func NewBuilder() *Builder {
	return &Builder{
		extrusionWidth: 0.4,
		travelWidth:    0.2,
		layerHeight:    0.2,
		filamentColor:  0x808080,
	}
}

// Generation returns a counter that changes whenever a setter alters
// geometry-affecting state.
func (b *Builder) Generation() uint64 {
	return b.generation
}

func (b *Builder) touch() {
	b.generation++
}

// SetFilamentColor sets the solid track color from "#RRGGBB" and disables
// the height gradient.
func (b *Builder) SetFilamentColor(hex string) {
	b.filamentColor = parseHexColor(hex)
	b.useHeightGradient = false
	b.touch()
	logger.Log.Debug("filament color set", zap.String("hex", hex))
}

// SetUseHeightGradient toggles Z-height rainbow coloring.
func (b *Builder) SetUseHeightGradient(on bool) {
	b.useHeightGradient = on
	b.touch()
}

// SetSmoothShading toggles corner-averaged normals. Flat shading gives each
// face its own normal via face-unique vertices.
func (b *Builder) SetSmoothShading(on bool) {
	b.smoothShading = on
	b.touch()
}

// SetDebugFaceColors colors each tube face distinctly for orientation
// debugging.
func (b *Builder) SetDebugFaceColors(on bool) {
	b.debugFaceColors = on
	b.touch()
}

// SetExtrusionWidth sets the default track width in mm for extrusion moves
// that carry no per-segment width.
func (b *Builder) SetExtrusionWidth(mm float32) {
	b.extrusionWidth = mm
	b.touch()
}

// SetTravelWidth sets the tube width in mm for travel moves.
func (b *Builder) SetTravelWidth(mm float32) {
	b.travelWidth = mm
	b.touch()
}

// SetLayerHeight sets the tube height in mm.
func (b *Builder) SetLayerHeight(mm float32) {
	b.layerHeight = mm
	b.touch()
}

// SetToolColors installs per-tool hex colors for multi-material prints.
func (b *Builder) SetToolColors(colors []string) {
	b.toolColors = append([]string(nil), colors...)
	b.touch()
}

// SetHighlightedObjects brightens all segments belonging to the named
// objects.
func (b *Builder) SetHighlightedObjects(names []string) {
	if len(names) == 0 {
		b.highlighted = nil
	} else {
		b.highlighted = make(map[string]struct{}, len(names))
		for _, n := range names {
			b.highlighted[n] = struct{}{}
		}
	}
	b.touch()
}

// LastStats returns statistics from the most recent Build.
func (b *Builder) LastStats() BuildStats {
	return b.stats
}

// meshState carries per-build output and palette lookup tables.
type meshState struct {
	geom         *RibbonGeometry
	normalLookup map[[3]int32]uint16
	colorLookup  map[uint32]uint8
	normalWarned bool
	colorWarned  bool
}

// Build generates ribbon geometry for every segment in the file. An empty
// file yields empty geometry.
func (b *Builder) Build(file *gcode.File, opts SimplificationOptions) *RibbonGeometry {
	start := time.Now()
	b.stats = BuildStats{}

	opts.Validate()

	logger.Log.Info("building toolpath geometry",
		zap.Float32("tolerance_mm", opts.ToleranceMM),
		zap.Bool("merging", opts.EnableMerging))

	// Tube vertices extend past segment endpoints, so the quantization
	// grid covers the model bounds plus 1.5x the widest tube. The extra
	// 50% absorbs diagonal cross-sections.
	maxTubeWidth := b.extrusionWidth
	if b.travelWidth > maxTubeWidth {
		maxTubeWidth = b.travelWidth
	}
	expanded := file.Bounds
	if expanded.IsEmpty() {
		expanded = gcode.AABB{}
	}
	expanded.Pad(maxTubeWidth * 1.5)

	st := &meshState{
		geom: &RibbonGeometry{
			Quant: ComputeQuantization(expanded),
		},
		normalLookup: map[[3]int32]uint16{},
		colorLookup:  map[uint32]uint8{},
	}

	var all []gcode.ToolpathSegment
	for i := range file.Layers {
		all = append(all, file.Layers[i].Segments...)
	}
	b.stats.InputSegments = len(all)

	segments := all
	if opts.EnableMerging {
		segments = simplifySegments(all, opts)
	}
	b.stats.OutputSegments = len(segments)
	if len(all) > 0 {
		b.stats.SimplificationRatio = 1 - float32(len(segments))/float32(len(all))
	}

	var prevEndCap *TubeCap
	var prevEndPos math.Vec3
	prevExtrusion := false
	skipped := 0

	for i := range segments {
		seg := &segments[i]

		if seg.Length() < opts.MinSegmentLengthMM {
			skipped++
			continue
		}

		// Reuse the previous end cross-section when this segment starts
		// where the last one ended and is the same move type.
		var share *TubeCap
		if prevEndCap != nil && seg.IsExtrusion == prevExtrusion {
			tolerance := b.resolveWidth(seg) * 1.5
			if seg.Start.Distance(prevEndPos) < tolerance {
				share = prevEndCap
			}
		}

		endCap := b.generateRibbon(st, seg, share)
		prevEndCap = &endCap
		prevEndPos = seg.End
		prevExtrusion = seg.IsExtrusion
	}

	if skipped > 0 {
		logger.Log.Debug("skipped degenerate segments", zap.Int("count", skipped))
	}

	geom := st.geom
	b.stats.VerticesGenerated = len(geom.Vertices)
	b.stats.TrianglesGenerated = geom.TriangleCount()
	b.stats.MemoryBytes = geom.MemoryUsage()
	b.stats.BuildDuration = time.Since(start)

	logger.Log.Debug("palette stats",
		zap.Int("normals", len(geom.NormalPalette)),
		zap.Int("colors", len(geom.ColorPalette)),
		zap.Bool("smooth_shading", b.smoothShading))

	b.stats.Log()
	return geom
}

// resolveWidth picks the tube width for a segment in mm, before the safety
// margin is applied.
func (b *Builder) resolveWidth(seg *gcode.ToolpathSegment) float32 {
	if seg.IsExtrusion {
		if seg.Width >= minSegmentWidth && seg.Width <= maxSegmentWidth {
			return seg.Width
		}
		return b.extrusionWidth
	}
	return b.travelWidth
}

// addNormal interns a normal in the palette, merging near-identical vectors
// by quantizing to 0.001 steps and renormalizing.
func (b *Builder) addNormal(st *meshState, normal math.Vec3) uint16 {
	const quantStep = 0.001
	key := [3]int32{
		int32(stdmath.Round(float64(normal.X) / quantStep)),
		int32(stdmath.Round(float64(normal.Y) / quantStep)),
		int32(stdmath.Round(float64(normal.Z) / quantStep)),
	}
	if idx, ok := st.normalLookup[key]; ok {
		return idx
	}

	quantized := math.Vec3{
		X: float32(key[0]) * quantStep,
		Y: float32(key[1]) * quantStep,
		Z: float32(key[2]) * quantStep,
	}
	if quantized.Length() > 0.0001 {
		quantized = quantized.Normalize()
	} else {
		quantized = normal
	}

	if len(st.geom.NormalPalette) >= normalPaletteCap {
		if !st.normalWarned {
			logger.Log.Warn("normal palette full, reusing last entry",
				zap.Int("cap", normalPaletteCap))
			st.normalWarned = true
		}
		return normalPaletteCap - 1
	}

	idx := uint16(len(st.geom.NormalPalette))
	st.geom.NormalPalette = append(st.geom.NormalPalette, quantized)
	st.normalLookup[key] = idx
	return idx
}

// addColor interns an 0xRRGGBB color in the palette.
func (b *Builder) addColor(st *meshState, rgb uint32) uint8 {
	if idx, ok := st.colorLookup[rgb]; ok {
		return idx
	}

	if len(st.geom.ColorPalette) >= colorPaletteCap {
		if !st.colorWarned {
			logger.Log.Warn("color palette full, reusing last entry",
				zap.Int("cap", colorPaletteCap))
			st.colorWarned = true
		}
		return colorPaletteCap - 1
	}

	idx := uint8(len(st.geom.ColorPalette))
	st.geom.ColorPalette = append(st.geom.ColorPalette, rgb)
	st.colorLookup[rgb] = idx
	return idx
}

// generateRibbon emits the rectangular tube for one segment: 8 side
// vertices per cross-section, 4 side strips, and axial-normal cap faces.
// Returns the end cross-section for possible reuse by the next segment.
func (b *Builder) generateRibbon(st *meshState, seg *gcode.ToolpathSegment, prevCap *TubeCap) TubeCap {
	geom := st.geom
	quant := geom.Quant

	width := b.resolveWidth(seg) * widthSafetyMargin
	halfWidth := width * 0.5
	halfHeight := b.layerHeight * 0.5

	direction := seg.End.Sub(seg.Start).Normalize()

	// Two perpendiculars give the rectangular cross-section: horizontal
	// from direction x up, vertical from direction x horizontal.
	up := math.Vec3{Z: 1}
	perpH := direction.Cross(up)
	if perpH.LengthSq() < 1e-6 {
		// Vertical move; any horizontal axis works.
		perpH = math.Vec3{X: 1}
	} else {
		perpH = perpH.Normalize()
	}
	perpV := direction.Cross(perpH).Normalize()

	rgb := b.segmentColor(seg, quant.MinBounds.Z, quant.MaxBounds.Z)
	if b.highlighted != nil && seg.ObjectName != "" {
		if _, ok := b.highlighted[seg.ObjectName]; ok {
			rgb = brighten(rgb)
		}
	}

	// Outward face normals.
	normalBottom := perpV.Scale(-1)
	normalRight := perpH
	normalTop := perpV
	normalLeft := perpH.Scale(-1)

	// Per-vertex normals in cap order.
	var vertexNormals [8]math.Vec3
	if b.smoothShading {
		cornerBL := normalBottom.Add(normalLeft).Normalize()
		cornerBR := normalBottom.Add(normalRight).Normalize()
		cornerTR := normalTop.Add(normalRight).Normalize()
		cornerTL := normalTop.Add(normalLeft).Normalize()
		vertexNormals = [8]math.Vec3{
			cornerBL, cornerBR, cornerBR, cornerTR,
			cornerTR, cornerTL, cornerTL, cornerBL,
		}
	} else {
		vertexNormals = [8]math.Vec3{
			normalBottom, normalBottom, normalRight, normalRight,
			normalTop, normalTop, normalLeft, normalLeft,
		}
	}

	colorIdx := b.addColor(st, rgb)
	faceColors := [6]uint8{colorIdx, colorIdx, colorIdx, colorIdx, colorIdx, colorIdx}
	if b.debugFaceColors {
		faceColors = [6]uint8{
			b.addColor(st, debugColorBottom),
			b.addColor(st, debugColorRight),
			b.addColor(st, debugColorTop),
			b.addColor(st, debugColorLeft),
			b.addColor(st, debugColorStartCap),
			b.addColor(st, debugColorEndCap),
		}
	}
	// faceColors order: bottom, right, top, left, start cap, end cap.
	sideColor := func(vertexSlot int) uint8 {
		return faceColors[vertexSlot/2]
	}

	corners := func(center math.Vec3) [4]math.Vec3 {
		h := perpH.Scale(halfWidth)
		v := perpV.Scale(halfHeight)
		return [4]math.Vec3{
			center.Sub(h).Sub(v), // bl
			center.Add(h).Sub(v), // br
			center.Add(h).Add(v), // tr
			center.Sub(h).Add(v), // tl
		}
	}
	// Cross-section corner for each of the 8 side vertex slots.
	slotCorner := [8]int{0, 1, 1, 2, 2, 3, 3, 0}

	pushRing := func(c [4]math.Vec3) TubeCap {
		var ring TubeCap
		for slot := 0; slot < 8; slot++ {
			ring[slot] = uint32(len(geom.Vertices))
			geom.Vertices = append(geom.Vertices, Vertex{
				Position:    quant.QuantizeVec3(c[slotCorner[slot]]),
				NormalIndex: b.addNormal(st, vertexNormals[slot]),
				ColorIndex:  sideColor(slot),
			})
		}
		return ring
	}

	endCorners := corners(seg.End)

	var startCap TubeCap
	if prevCap != nil {
		startCap = *prevCap
	} else {
		startCap = pushRing(corners(seg.Start))
	}
	endCap := pushRing(endCorners)

	// Cap faces get their own 4 vertices with axial normals; reusing side
	// vertices would light the flat ends with perpendicular normals.
	pushCapFace := func(c [4]math.Vec3, normal math.Vec3, color uint8) {
		normalIdx := b.addNormal(st, normal)
		base := uint32(len(geom.Vertices))
		for i := 0; i < 4; i++ {
			geom.Vertices = append(geom.Vertices, Vertex{
				Position:    quant.QuantizeVec3(c[i]),
				NormalIndex: normalIdx,
				ColorIndex:  color,
			})
		}
		// (bl, br, tr) + (bl, tr, tl)
		geom.Strips = append(geom.Strips,
			[]uint32{base, base + 1, base + 2},
			[]uint32{base, base + 2, base + 3})
	}

	triangles := 8 + 2 // four side strips + end cap
	if prevCap == nil {
		pushCapFace(corners(seg.Start), direction.Scale(-1), faceColors[4])
		triangles += 2
	}
	pushCapFace(endCorners, direction, faceColors[5])

	// Side strips: (start, end, start, end) per face, 2 triangles each.
	geom.Strips = append(geom.Strips,
		[]uint32{startCap[0], endCap[0], startCap[1], endCap[1]}, // bottom
		[]uint32{startCap[2], endCap[2], startCap[3], endCap[3]}, // right
		[]uint32{startCap[4], endCap[4], startCap[5], endCap[5]}, // top
		[]uint32{startCap[6], endCap[6], startCap[7], endCap[7]}, // left
	)

	if seg.IsExtrusion {
		geom.ExtrusionTriangles += triangles
	} else {
		geom.TravelTriangles += triangles
	}

	return endCap
}

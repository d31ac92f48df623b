package geometry

import (
	"testing"

	"github.com/helixview/helixview/internal/gcode"
)

// fileWith wraps segments into a single-layer file with correct bounds.
func fileWith(segs ...gcode.ToolpathSegment) *gcode.File {
	f := &gcode.File{
		Filename: "test.gcode",
		Bounds:   gcode.NewAABB(),
	}
	layer := gcode.Layer{ZHeight: 0.2, Bounds: gcode.NewAABB()}
	for _, s := range segs {
		layer.Segments = append(layer.Segments, s)
		if s.IsExtrusion {
			f.Bounds.Expand(s.Start)
			f.Bounds.Expand(s.End)
			layer.Bounds.Expand(s.Start)
			layer.Bounds.Expand(s.End)
		}
	}
	f.Layers = []gcode.Layer{layer}
	return f
}

func rawOptions() SimplificationOptions {
	return SimplificationOptions{ToleranceMM: 0.15, MinSegmentLengthMM: 0.01, EnableMerging: false}
}

// checkIndices fails the test if any strip or palette index is out of range.
func checkIndices(t *testing.T, g *RibbonGeometry) {
	t.Helper()
	for si, strip := range g.Strips {
		if len(strip) < 3 {
			t.Errorf("strip %d has %d indices", si, len(strip))
		}
		for _, idx := range strip {
			if int(idx) >= len(g.Vertices) {
				t.Fatalf("strip %d references vertex %d of %d", si, idx, len(g.Vertices))
			}
		}
	}
	for vi, v := range g.Vertices {
		if int(v.NormalIndex) >= len(g.NormalPalette) {
			t.Fatalf("vertex %d normal index %d of %d", vi, v.NormalIndex, len(g.NormalPalette))
		}
		if int(v.ColorIndex) >= len(g.ColorPalette) {
			t.Fatalf("vertex %d color index %d of %d", vi, v.ColorIndex, len(g.ColorPalette))
		}
	}
}

func TestBuildEmptyFile(t *testing.T) {
	g := NewBuilder().Build(&gcode.File{Bounds: gcode.NewAABB()}, rawOptions())

	if !g.IsEmpty() {
		t.Error("empty file should produce empty geometry")
	}
	if len(g.Vertices) != 0 || g.TriangleCount() != 0 {
		t.Errorf("vertices=%d triangles=%d", len(g.Vertices), g.TriangleCount())
	}
	if g.ExtrusionTriangles != 0 || g.TravelTriangles != 0 {
		t.Error("triangle counters should be zero")
	}
}

func TestBuildSingleExtrusion(t *testing.T) {
	b := NewBuilder()
	g := b.Build(fileWith(seg(0, 0, 10, 0, true)), rawOptions())

	// One isolated tube: 8 side vertices per ring x2 rings + 4 cap
	// vertices x2 caps.
	if len(g.Vertices) != 24 {
		t.Errorf("vertices = %d, want 24", len(g.Vertices))
	}
	// 4 side strips + 2 triangles per cap.
	if len(g.Strips) != 8 {
		t.Errorf("strips = %d, want 8", len(g.Strips))
	}
	if got := g.TriangleCount(); got != 12 {
		t.Errorf("triangles = %d, want 12", got)
	}
	if g.ExtrusionTriangles != 12 {
		t.Errorf("extrusion triangles = %d, want 12", g.ExtrusionTriangles)
	}
	if g.TravelTriangles != 0 {
		t.Errorf("travel triangles = %d, want 0", g.TravelTriangles)
	}

	checkIndices(t, g)

	stats := b.LastStats()
	if stats.InputSegments != 1 || stats.VerticesGenerated != 24 || stats.TrianglesGenerated != 12 {
		t.Errorf("stats mismatch: %+v", stats)
	}
}

func TestBuildTravelOnly(t *testing.T) {
	g := NewBuilder().Build(fileWith(seg(0, 0, 10, 10, false)), rawOptions())

	if g.ExtrusionTriangles != 0 {
		t.Errorf("extrusion triangles = %d, want 0", g.ExtrusionTriangles)
	}
	if g.TravelTriangles == 0 {
		t.Error("travel-only input should still produce travel triangles")
	}
	checkIndices(t, g)
}

func TestBuildSharesConnectedRings(t *testing.T) {
	// L-shaped path; the corner prevents merging, but the rings connect.
	file := fileWith(
		seg(0, 0, 10, 0, true),
		seg(10, 0, 10, 10, true),
	)
	g := NewBuilder().Build(file, rawOptions())

	// First tube is 24 vertices; the second reuses the shared ring and
	// adds only its end ring (8) and end cap (4).
	if len(g.Vertices) != 36 {
		t.Errorf("vertices = %d, want 36", len(g.Vertices))
	}
	// Second segment contributes 8 side + 2 end cap triangles.
	if got := g.TriangleCount(); got != 22 {
		t.Errorf("triangles = %d, want 22", got)
	}
	checkIndices(t, g)
}

func TestBuildDisconnectedSegmentsDoNotShare(t *testing.T) {
	file := fileWith(
		seg(0, 0, 10, 0, true),
		seg(50, 50, 60, 50, true),
	)
	g := NewBuilder().Build(file, rawOptions())

	if len(g.Vertices) != 48 {
		t.Errorf("vertices = %d, want 48", len(g.Vertices))
	}
	if got := g.TriangleCount(); got != 24 {
		t.Errorf("triangles = %d, want 24", got)
	}
}

func TestBuildTypeChangeBreaksSharing(t *testing.T) {
	file := fileWith(
		seg(0, 0, 10, 0, true),
		seg(10, 0, 20, 0, false), // travel continues from the same point
	)
	g := NewBuilder().Build(file, rawOptions())

	// No sharing across a type change; both tubes are complete.
	if len(g.Vertices) != 48 {
		t.Errorf("vertices = %d, want 48", len(g.Vertices))
	}
}

func TestBuildMergingReducesGeometry(t *testing.T) {
	b := NewBuilder()
	file := fileWith(
		seg(0, 0, 10, 0, true),
		seg(10, 0, 20, 0, true),
		seg(20, 0, 30, 0, true),
	)

	merged := b.Build(file, SimplificationOptions{
		ToleranceMM: 0.15, MinSegmentLengthMM: 0.01, EnableMerging: true,
	})
	if b.LastStats().OutputSegments != 1 {
		t.Errorf("output segments = %d, want 1", b.LastStats().OutputSegments)
	}
	if b.LastStats().SimplificationRatio < 0.6 {
		t.Errorf("ratio = %v", b.LastStats().SimplificationRatio)
	}

	raw := b.Build(file, rawOptions())
	if b.LastStats().OutputSegments != 3 {
		t.Errorf("raw output segments = %d, want 3", b.LastStats().OutputSegments)
	}
	if len(merged.Vertices) >= len(raw.Vertices) {
		t.Errorf("merged (%d) should use fewer vertices than raw (%d)",
			len(merged.Vertices), len(raw.Vertices))
	}
}

func TestBuildFlatVsSmoothNormals(t *testing.T) {
	file := fileWith(seg(0, 0, 10, 0, true))

	b := NewBuilder()
	b.SetSmoothShading(false)
	flat := b.Build(file, rawOptions())

	// Flat shading on an axis-aligned tube yields only axis-aligned
	// normals.
	for _, n := range flat.NormalPalette {
		nonZero := 0
		for _, c := range []float32{n.X, n.Y, n.Z} {
			if abs32(c) > 0.0001 {
				nonZero++
			}
		}
		if nonZero != 1 {
			t.Errorf("flat shading produced non-axis normal %v", n)
		}
	}

	b.SetSmoothShading(true)
	smooth := b.Build(file, rawOptions())

	// Smooth shading averages adjacent faces, so corner normals have two
	// components.
	found := false
	for _, n := range smooth.NormalPalette {
		nonZero := 0
		for _, c := range []float32{n.X, n.Y, n.Z} {
			if abs32(c) > 0.0001 {
				nonZero++
			}
		}
		if nonZero == 2 {
			found = true
		}
	}
	if !found {
		t.Error("smooth shading produced no corner-averaged normals")
	}
}

func TestBuildPaletteDeduplication(t *testing.T) {
	// Two parallel tubes share every normal and the single color.
	file := fileWith(
		seg(0, 0, 10, 0, true),
		seg(0, 5, 10, 5, true),
	)
	g := NewBuilder().Build(file, rawOptions())

	if len(g.ColorPalette) != 1 {
		t.Errorf("color palette = %d entries, want 1", len(g.ColorPalette))
	}
	// 4 side normals + 2 axial cap normals.
	if len(g.NormalPalette) != 6 {
		t.Errorf("normal palette = %d entries, want 6", len(g.NormalPalette))
	}
}

func TestBuildFilamentColor(t *testing.T) {
	b := NewBuilder()
	b.SetFilamentColor("#FF8800")
	g := b.Build(fileWith(seg(0, 0, 10, 0, true)), rawOptions())

	if len(g.ColorPalette) != 1 || g.ColorPalette[0] != 0xFF8800 {
		t.Errorf("palette = %#v, want [0xFF8800]", g.ColorPalette)
	}
}

func TestBuildHighlightBrightens(t *testing.T) {
	s := seg(0, 0, 10, 0, true)
	s.ObjectName = "cube_1"

	b := NewBuilder()
	b.SetFilamentColor("#202020")
	b.SetHighlightedObjects([]string{"cube_1"})
	g := b.Build(fileWith(s), rawOptions())

	// 0x20 * 1.8 = 57 = 0x39 per channel.
	if len(g.ColorPalette) != 1 || g.ColorPalette[0] != 0x393939 {
		t.Errorf("palette = %#v, want [0x393939]", g.ColorPalette)
	}
}

func TestBuildHighlightSaturates(t *testing.T) {
	s := seg(0, 0, 10, 0, true)
	s.ObjectName = "cube_1"

	b := NewBuilder()
	b.SetFilamentColor("#FFFFFF")
	b.SetHighlightedObjects([]string{"cube_1"})
	g := b.Build(fileWith(s), rawOptions())

	if g.ColorPalette[0] != 0xFFFFFF {
		t.Errorf("saturated highlight = %#06x, want 0xFFFFFF", g.ColorPalette[0])
	}
}

func TestBuildToolColorPriority(t *testing.T) {
	s := seg(0, 0, 10, 0, true)
	s.Tool = 1

	b := NewBuilder()
	b.SetFilamentColor("#101010")
	b.SetToolColors([]string{"#111111", "#22AA33"})
	g := b.Build(fileWith(s), rawOptions())

	if len(g.ColorPalette) != 1 || g.ColorPalette[0] != 0x22AA33 {
		t.Errorf("palette = %#v, want tool 1 color 0x22AA33", g.ColorPalette)
	}
}

func TestBuildHeightGradient(t *testing.T) {
	low := seg(0, 0, 10, 0, true)
	high := seg(0, 0, 10, 0, true)
	high.Start.Z = 20
	high.End.Z = 20

	b := NewBuilder()
	b.SetUseHeightGradient(true)
	g := b.Build(fileWith(low, high), rawOptions())

	if len(g.ColorPalette) != 2 {
		t.Fatalf("palette = %d entries, want 2", len(g.ColorPalette))
	}
	lowColor, highColor := g.ColorPalette[0], g.ColorPalette[1]
	if lowColor&0xFF <= lowColor>>16 {
		t.Errorf("bottom color %#06x should lean blue", lowColor)
	}
	if highColor>>16 <= highColor&0xFF {
		t.Errorf("top color %#06x should lean red", highColor)
	}
}

func TestBuildDebugFaceColors(t *testing.T) {
	b := NewBuilder()
	b.SetDebugFaceColors(true)
	g := b.Build(fileWith(seg(0, 0, 10, 0, true)), rawOptions())

	// Base color plus six distinct face colors.
	want := map[uint32]bool{
		debugColorTop: true, debugColorBottom: true,
		debugColorLeft: true, debugColorRight: true,
		debugColorStartCap: true, debugColorEndCap: true,
	}
	for _, c := range g.ColorPalette {
		delete(want, c)
	}
	if len(want) != 0 {
		t.Errorf("missing debug colors: %v (palette %#v)", want, g.ColorPalette)
	}
	checkIndices(t, g)
}

func TestBuilderGenerationCounter(t *testing.T) {
	b := NewBuilder()
	gen := b.Generation()

	b.SetSmoothShading(true)
	if b.Generation() == gen {
		t.Error("SetSmoothShading should bump the generation")
	}

	gen = b.Generation()
	b.SetFilamentColor("#112233")
	b.SetLayerHeight(0.3)
	b.SetHighlightedObjects([]string{"a"})
	if b.Generation() != gen+3 {
		t.Errorf("generation = %d, want %d", b.Generation(), gen+3)
	}
}

func TestBuildVertexPositionsWithinBounds(t *testing.T) {
	file := fileWith(seg(0, 0, 100, 100, true))
	g := NewBuilder().Build(file, rawOptions())

	// Every dequantized vertex must fall inside the expanded grid bounds.
	for _, v := range g.Vertices {
		p := g.Quant.DequantizeVec3(v.Position)
		if p.X < g.Quant.MinBounds.X-0.01 || p.X > g.Quant.MaxBounds.X+0.01 ||
			p.Y < g.Quant.MinBounds.Y-0.01 || p.Y > g.Quant.MaxBounds.Y+0.01 ||
			p.Z < g.Quant.MinBounds.Z-0.01 || p.Z > g.Quant.MaxBounds.Z+0.01 {
			t.Fatalf("vertex %v outside grid bounds", p)
		}
	}
}

func TestHeightGradientColorRamp(t *testing.T) {
	if c := heightGradientColor(0, 0, 10); c != 0x0000FF {
		t.Errorf("bottom = %#06x, want 0x0000FF", c)
	}
	if c := heightGradientColor(10, 0, 10); c != 0xFF0000 {
		t.Errorf("top = %#06x, want 0xFF0000", c)
	}
	// Degenerate range lands mid-ramp (green).
	if c := heightGradientColor(5, 5, 5); c != 0x00FF00 {
		t.Errorf("flat range = %#06x, want 0x00FF00", c)
	}
}

func TestParseHexColor(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
	}{
		{"#FF8800", 0xFF8800},
		{"26A69A", 0x26A69A},
		{"#000000", 0x000000},
		{"bogus", 0x808080},
		{"", 0x808080},
		{"#12", 0x808080},
	}
	for _, c := range cases {
		if got := parseHexColor(c.in); got != c.want {
			t.Errorf("parseHexColor(%q) = %#06x, want %#06x", c.in, got, c.want)
		}
	}
}

func TestMemoryUsageGrowsWithGeometry(t *testing.T) {
	small := NewBuilder().Build(fileWith(seg(0, 0, 10, 0, true)), rawOptions())
	large := NewBuilder().Build(fileWith(
		seg(0, 0, 10, 0, true),
		seg(0, 5, 10, 5, true),
		seg(0, 10, 10, 10, true),
	), rawOptions())

	if small.MemoryUsage() <= 0 {
		t.Error("memory usage should be positive")
	}
	if large.MemoryUsage() <= small.MemoryUsage() {
		t.Error("more geometry should report more memory")
	}
}

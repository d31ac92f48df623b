package tinygl

import (
	"testing"

	"github.com/helixview/helixview/pkg/math"
)

// frontCamera aims down the -Y axis at the origin from 100mm away.
func frontCamera(c *Context) {
	eye := math.Vec3{Y: -100}
	view := math.LookAt(eye, math.Vec3{}, math.Vec3{Z: 1})
	proj := math.Perspective(math.Radians(45), float32(c.Width())/float32(c.Height()), 1, 1000)
	c.SetCamera(proj, view, eye)
}

func countNonBackground(c *Context, background uint32) int {
	packed := packABGR(background)
	n := 0
	for _, px := range c.Pixels() {
		if px != packed {
			n++
		}
	}
	return n
}

func TestNewContextRoundsWidth(t *testing.T) {
	c, err := NewContext(803, 480)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	defer c.Close()

	if c.Width() != 800 {
		t.Errorf("width = %d, want 800", c.Width())
	}
	if c.Height() != 480 {
		t.Errorf("height = %d, want 480", c.Height())
	}
	if len(c.Pixels()) != 800*480 {
		t.Errorf("pixel buffer = %d, want %d", len(c.Pixels()), 800*480)
	}
}

func TestNewContextRejectsBadSize(t *testing.T) {
	for _, dims := range [][2]int{{0, 100}, {100, 0}, {-4, 100}, {3, 100}} {
		if _, err := NewContext(dims[0], dims[1]); err == nil {
			t.Errorf("NewContext(%d, %d) should fail", dims[0], dims[1])
		}
	}
}

func TestClearFillsColorAndDepth(t *testing.T) {
	c, err := NewContext(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Clear(0x102030)
	want := packABGR(0x102030)
	for i, px := range c.Pixels() {
		if px != want {
			t.Fatalf("pixel %d = %#08x, want %#08x", i, px, want)
		}
	}

	// After a clear, any projected geometry must pass the depth test.
	frontCamera(c)
	c.SetEmissive(true)
	c.DrawStrip(quadFacingCamera(0xFF0000))
	if countNonBackground(c, 0x102030) == 0 {
		t.Error("nothing drawn after clear")
	}
}

// quadFacingCamera is a 20x20mm square at the origin facing -Y.
func quadFacingCamera(rgb uint32) []StripVertex {
	n := math.Vec3{Y: -1}
	return []StripVertex{
		{Position: math.Vec3{X: -10, Z: -10}, Normal: n, Color: rgb},
		{Position: math.Vec3{X: 10, Z: -10}, Normal: n, Color: rgb},
		{Position: math.Vec3{X: -10, Z: 10}, Normal: n, Color: rgb},
		{Position: math.Vec3{X: 10, Z: 10}, Normal: n, Color: rgb},
	}
}

func TestDrawStripCoversCenter(t *testing.T) {
	c, err := NewContext(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Clear(0x000000)
	frontCamera(c)
	c.SetEmissive(true)
	c.DrawStrip(quadFacingCamera(0x00FF00))

	center := c.Pixels()[32*c.Width()+32]
	if got := unpackABGR(center); got != 0x00FF00 {
		t.Errorf("center pixel = %#06x, want 0x00FF00", got)
	}
}

func TestDepthTestKeepsNearerSurface(t *testing.T) {
	c, err := NewContext(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Clear(0x000000)
	frontCamera(c)
	c.SetEmissive(true)

	// Far quad (further along +Y) first, near quad second.
	far := quadFacingCamera(0xFF0000)
	for i := range far {
		far[i].Position.Y = 20
	}
	near := quadFacingCamera(0x0000FF)
	for i := range near {
		near[i].Position.Y = -20
	}

	c.DrawStrip(far)
	c.DrawStrip(near)

	if got := unpackABGR(c.Pixels()[32*c.Width()+32]); got != 0x0000FF {
		t.Errorf("center = %#06x, want near quad 0x0000FF", got)
	}

	// Drawing the far quad again must not overwrite the near one.
	c.DrawStrip(far)
	if got := unpackABGR(c.Pixels()[32*c.Width()+32]); got != 0x0000FF {
		t.Errorf("center after redraw = %#06x, want 0x0000FF", got)
	}
}

func TestBehindCameraCulled(t *testing.T) {
	c, err := NewContext(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Clear(0x000000)
	frontCamera(c)
	c.SetEmissive(true)

	behind := quadFacingCamera(0xFFFFFF)
	for i := range behind {
		behind[i].Position.Y = -500 // past the eye at Y=-100
	}
	c.DrawStrip(behind)

	if n := countNonBackground(c, 0x000000); n != 0 {
		t.Errorf("%d pixels drawn for geometry behind the camera", n)
	}
}

func TestLightingDarkensAngledFaces(t *testing.T) {
	c, err := NewContext(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	frontCamera(c)
	c.SetMaterial(0, 1) // no specular, isolate diffuse

	// Normal aligned with the key light gets full diffuse; a normal at
	// right angles to both lights gets much less.
	lit, _, _ := c.shade(math.Vec3{}, math.Vec3{X: 100, Y: 100, Z: 200}.Normalize(), 0xFFFFFF)
	dim, _, _ := c.shade(math.Vec3{}, math.Vec3{X: 1, Y: -1}.Normalize(), 0xFFFFFF)

	if lit <= dim {
		t.Errorf("aligned face (%v) should be brighter than angled face (%v)", lit, dim)
	}
	if dim < 255*0.5 {
		t.Errorf("ambient floor missing: %v", dim)
	}
}

func TestEmissiveSkipsLighting(t *testing.T) {
	c, err := NewContext(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	frontCamera(c)
	c.SetEmissive(true)
	r, g, b := c.shade(math.Vec3{}, math.Vec3{Z: 1}, 0x80FF01)
	if r != 0x80 || g != 0xFF || b != 0x01 {
		t.Errorf("emissive shade = (%v,%v,%v)", r, g, b)
	}
}

func TestSpecularAddsHighlight(t *testing.T) {
	c, err := NewContext(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	frontCamera(c)

	// Normal halfway between view and key light directions maximizes the
	// Blinn term.
	viewDir := math.Vec3{Y: -100}.Sub(math.Vec3{}).Normalize()
	keyDir := math.Vec3{X: 100, Y: 100, Z: 200}.Normalize()
	half := keyDir.Add(viewDir).Normalize()

	c.SetMaterial(0, 1)
	r0, _, _ := c.shade(math.Vec3{}, half, 0x404040)

	c.SetMaterial(0.8, 4)
	r1, _, _ := c.shade(math.Vec3{}, half, 0x404040)

	if r1 <= r0 {
		t.Errorf("specular material should brighten: %v vs %v", r1, r0)
	}
}

func TestDrawLine3D(t *testing.T) {
	c, err := NewContext(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Clear(0x000000)
	frontCamera(c)

	c.DrawLine3D(math.Vec3{X: -10}, math.Vec3{X: 10}, 0xFFFF00)

	if n := countNonBackground(c, 0x000000); n == 0 {
		t.Fatal("line drew no pixels")
	}

	// A line with an endpoint behind the camera is dropped entirely.
	c.Clear(0x000000)
	c.DrawLine3D(math.Vec3{Y: -500}, math.Vec3{X: 10}, 0xFFFF00)
	if n := countNonBackground(c, 0x000000); n != 0 {
		t.Errorf("%d pixels drawn for clipped line", n)
	}
}

func TestLineDepthBiasWinsTies(t *testing.T) {
	c, err := NewContext(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Clear(0x000000)
	frontCamera(c)
	c.SetEmissive(true)
	c.DrawStrip(quadFacingCamera(0x444444))

	// Line at the same depth as the quad surface.
	c.DrawLine3D(math.Vec3{X: -10}, math.Vec3{X: 10}, 0xFFFFFF)

	found := false
	for _, px := range c.Pixels() {
		if unpackABGR(px) == 0xFFFFFF {
			found = true
			break
		}
	}
	if !found {
		t.Error("coplanar line lost the depth tie against the surface")
	}
}

func TestBackfaceCullingToggle(t *testing.T) {
	c, err := NewContext(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	frontCamera(c)
	c.SetEmissive(true)

	quad := quadFacingCamera(0x00FFFF)

	c.Clear(0x000000)
	c.SetBackfaceCulling(true)
	c.DrawStrip(quad)
	frontPixels := countNonBackground(c, 0x000000)

	// Reverse the strip to flip every triangle's winding.
	reversed := []StripVertex{quad[1], quad[0], quad[3], quad[2]}
	c.Clear(0x000000)
	c.DrawStrip(reversed)
	backPixels := countNonBackground(c, 0x000000)

	if frontPixels == 0 && backPixels == 0 {
		t.Fatal("neither winding drew with culling on")
	}
	if frontPixels > 0 && backPixels > 0 {
		t.Error("both windings drew with culling on")
	}

	c.Clear(0x000000)
	c.SetBackfaceCulling(false)
	c.DrawStrip(reversed)
	if countNonBackground(c, 0x000000) == 0 {
		t.Error("culling off should draw either winding")
	}
}

func TestCloseIdempotent(t *testing.T) {
	c, err := NewContext(64, 64)
	if err != nil {
		t.Fatal(err)
	}

	c.Close()
	c.Close()
	if !c.Closed() {
		t.Error("context should report closed")
	}

	// Draw calls after close are no-ops, not panics.
	c.Clear(0x000000)
	c.DrawStrip(quadFacingCamera(0xFF0000))
	c.DrawLine3D(math.Vec3{}, math.Vec3{X: 1}, 0xFF0000)
}

// Package tinygl is a small software rasterizer: an RGBA framebuffer with a
// z-buffer, immediate-mode triangle strips, Gouraud shading with two fixed
// directional lights, and 3D line drawing for overlays.
package tinygl

import (
	stdmath "math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/helixview/helixview/internal/logger"
	"github.com/helixview/helixview/pkg/math"
)

// StripVertex is one input vertex for DrawStrip.
type StripVertex struct {
	Position math.Vec3
	Normal   math.Vec3
	Color    uint32 // 0xRRGGBB
}

// directionalLight shines from a fixed direction with per-term intensities.
type directionalLight struct {
	dir      math.Vec3 // unit vector from surface toward the light
	ambient  float32
	diffuse  float32
	specular bool // whether the material specular term applies
}

// Context owns the pixel and depth buffers plus all raster state. It is not
// safe for concurrent use.
type Context struct {
	width  int
	height int

	// pixels holds packed ABGR (alpha in the high byte, red in the low
	// byte); presentation code swaps channels while blitting.
	pixels []uint32
	depth  []float32

	mvp math.Mat4
	eye math.Vec3

	lights            [2]directionalLight
	specularIntensity float32
	shininess         float32
	emissive          bool
	cullBackfaces     bool
}

// NewContext allocates buffers for the given size. Width is rounded down to
// a multiple of 4; read the effective size back with Width and Height.
func NewContext(width, height int) (*Context, error) {
	width &^= 3
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("tinygl: invalid framebuffer size %dx%d", width, height)
	}

	c := &Context{
		width:             width,
		height:            height,
		pixels:            make([]uint32, width*height),
		depth:             make([]float32, width*height),
		specularIntensity: 0.3,
		shininess:         32,
	}
	c.setupLights()

	logger.Log.Debug("tinygl context created",
		zap.Int("width", width), zap.Int("height", height))
	return c, nil
}

// setupLights installs the fixed two-light rig: a key light from the upper
// front right and a dimmer fill from the opposite side.
func (c *Context) setupLights() {
	c.lights[0] = directionalLight{
		dir:      math.Vec3{X: 100, Y: 100, Z: 200}.Normalize(),
		ambient:  0.6,
		diffuse:  0.7,
		specular: true,
	}
	c.lights[1] = directionalLight{
		dir:     math.Vec3{X: -80, Y: -80, Z: 100}.Normalize(),
		diffuse: 0.5,
	}
}

// Width returns the effective (rounded) framebuffer width.
func (c *Context) Width() int { return c.width }

// Height returns the framebuffer height.
func (c *Context) Height() int { return c.height }

// Pixels returns the native ABGR buffer. The slice is only valid until the
// context is closed.
func (c *Context) Pixels() []uint32 { return c.pixels }

// SetCamera installs the projection and view transforms plus the eye point
// used for specular highlights.
func (c *Context) SetCamera(projection, view math.Mat4, eye math.Vec3) {
	c.mvp = projection.Mul(view)
	c.eye = eye
}

// SetMaterial sets the specular response applied by lights that carry a
// specular term.
func (c *Context) SetMaterial(specularIntensity, shininess float32) {
	c.specularIntensity = specularIntensity
	c.shininess = shininess
}

// SetEmissive bypasses lighting entirely; colors are drawn as given. Used
// for wireframe overlays.
func (c *Context) SetEmissive(on bool) {
	c.emissive = on
}

// SetBackfaceCulling toggles rejection of clockwise screen-space triangles.
func (c *Context) SetBackfaceCulling(on bool) {
	c.cullBackfaces = on
}

// Clear fills the color buffer with an 0xRRGGBB color and resets depth.
func (c *Context) Clear(rgb uint32) {
	if c.pixels == nil {
		return
	}
	packed := packABGR(rgb)
	c.pixels[0] = packed
	for filled := 1; filled < len(c.pixels); filled *= 2 {
		copy(c.pixels[filled:], c.pixels[:filled])
	}

	c.depth[0] = float32(stdmath.Inf(1))
	for filled := 1; filled < len(c.depth); filled *= 2 {
		copy(c.depth[filled:], c.depth[:filled])
	}
}

// Close releases the buffers. Safe to call more than once.
func (c *Context) Close() {
	c.pixels = nil
	c.depth = nil
}

// Closed reports whether Close has been called.
func (c *Context) Closed() bool {
	return c.pixels == nil
}

// packABGR converts 0xRRGGBB to the native buffer layout.
func packABGR(rgb uint32) uint32 {
	r := rgb >> 16 & 0xFF
	g := rgb >> 8 & 0xFF
	b := rgb & 0xFF
	return 0xFF000000 | b<<16 | g<<8 | r
}

// unpackABGR converts a native pixel back to 0xRRGGBB.
func unpackABGR(px uint32) uint32 {
	b := px >> 16 & 0xFF
	g := px >> 8 & 0xFF
	r := px & 0xFF
	return r<<16 | g<<8 | b
}

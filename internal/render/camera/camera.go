// Package camera provides the orbit camera used by the toolpath viewer.
package camera

import (
	gomath "math"

	"github.com/helixview/helixview/pkg/math"
)

// Orbit angles are in degrees to match the az/el/zoom values exposed on the
// command line and in the debug overlay.
const (
	minElevation = -89.0
	maxElevation = 89.0
	minZoom      = 0.1
	maxZoom      = 20.0
)

// Camera orbits a center point in print coordinates (Z up). Azimuth rotates
// around Z, elevation tilts toward the build plate, zoom scales the field of
// view.
type Camera struct {
	Center math.Vec3

	Azimuth   float32 // degrees, wraps to [0, 360)
	Elevation float32 // degrees, clamped to (-90, 90)
	Zoom      float32 // magnification, clamped to [0.1, 20]

	// Distance from center at zoom 1.
	Distance float32

	DragSensitivity float32
	ZoomSensitivity float32
}

// New returns a camera with viewer defaults: a three-quarter view from the
// front right.
func New() *Camera {
	return &Camera{
		Azimuth:         45,
		Elevation:       30,
		Zoom:            1,
		Distance:        200,
		DragSensitivity: 0.5,
		ZoomSensitivity: 0.1,
	}
}

// SetAzimuth sets the horizontal angle, wrapped to [0, 360).
func (c *Camera) SetAzimuth(deg float32) {
	c.Azimuth = wrapDegrees(deg)
}

// SetElevation sets the vertical angle, clamped short of the poles.
func (c *Camera) SetElevation(deg float32) {
	c.Elevation = math.Clamp(deg, minElevation, maxElevation)
}

// SetZoom sets the magnification, clamped to the usable range.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = math.Clamp(zoom, minZoom, maxZoom)
}

// Rotate applies a drag delta in screen pixels.
func (c *Camera) Rotate(deltaX, deltaY float32) {
	c.SetAzimuth(c.Azimuth + deltaX*c.DragSensitivity)
	c.SetElevation(c.Elevation + deltaY*c.DragSensitivity)
}

// ZoomBy applies a scroll delta; positive zooms in.
func (c *Camera) ZoomBy(delta float32) {
	c.SetZoom(c.Zoom * (1 + delta*c.ZoomSensitivity))
}

// Position returns the camera eye point in world space.
func (c *Camera) Position() math.Vec3 {
	az := float64(math.Radians(c.Azimuth))
	el := float64(math.Radians(c.Elevation))

	horiz := c.Distance * float32(gomath.Cos(el))
	return math.Vec3{
		X: c.Center.X + horiz*float32(gomath.Cos(az)),
		Y: c.Center.Y + horiz*float32(gomath.Sin(az)),
		Z: c.Center.Z + c.Distance*float32(gomath.Sin(el)),
	}
}

// ViewMatrix returns the view matrix looking at the center, Z up.
func (c *Camera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Z: 1})
}

// ProjectionMatrix returns a perspective projection whose field of view
// narrows as zoom increases.
func (c *Camera) ProjectionMatrix(aspect float32) math.Mat4 {
	fov := math.Radians(45) / c.Zoom
	near := c.Distance * 0.01
	far := c.Distance * 10
	return math.Perspective(fov, aspect, near, far)
}

// FitToBounds centers the camera on a bounding box and backs off far enough
// to see all of it at zoom 1.
func (c *Camera) FitToBounds(min, max math.Vec3) {
	c.Center = min.Add(max).Scale(0.5)

	size := max.Sub(min)
	maxSize := size.X
	if size.Y > maxSize {
		maxSize = size.Y
	}
	if size.Z > maxSize {
		maxSize = size.Z
	}

	// At 45 degree fov the whole extent fits at ~1.3x its size.
	c.Distance = maxSize * 1.3
	if c.Distance < 10 {
		c.Distance = 10
	}
	c.Zoom = 1
}

func wrapDegrees(deg float32) float32 {
	wrapped := float32(gomath.Mod(float64(deg), 360))
	if wrapped < 0 {
		wrapped += 360
	}
	return wrapped
}

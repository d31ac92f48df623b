// Package geometry turns parsed toolpaths into compact ribbon meshes: 16-bit
// quantized vertices, palette-indexed normals and colors, and 4-index
// triangle strips.
package geometry

import (
	stdmath "math"

	"go.uber.org/zap"

	"github.com/helixview/helixview/internal/gcode"
	"github.com/helixview/helixview/internal/logger"
	"github.com/helixview/helixview/pkg/math"
)

// int16 headroom: the largest quantized coordinate stays 10% below the type
// limit so tube vertices that poke past the segment bounds still fit.
const int16MaxWithHeadroom = 32767.0 * 0.9

// QuantizedVec3 is a vertex position packed to 16 bits per axis.
type QuantizedVec3 struct {
	X, Y, Z int16
}

// Quantization maps model-space millimeters to the int16 grid and back.
// Scale is in grid units per mm.
type Quantization struct {
	MinBounds math.Vec3
	MaxBounds math.Vec3
	Scale     float32
}

// ComputeQuantization derives the grid from a (pre-expanded) bounding box.
// A degenerate box falls back to 1000 units/mm so single-point models still
// quantize losslessly at micron resolution.
func ComputeQuantization(bbox gcode.AABB) Quantization {
	q := Quantization{
		MinBounds: bbox.Min,
		MaxBounds: bbox.Max,
		Scale:     1000,
	}
	if maxExtent := bbox.MaxExtent(); maxExtent > 0 {
		q.Scale = int16MaxWithHeadroom / maxExtent
	}

	logger.Log.Debug("quantization grid",
		zap.Float32("scale", q.Scale),
		zap.Float32("resolution_mm", 1.0/q.Scale))
	return q
}

// Quantize converts one coordinate to grid units, clamped to the int16 range.
func (q Quantization) Quantize(value, minBound float32) int16 {
	normalized := (value - minBound) * q.Scale
	if normalized < -32768 {
		normalized = -32768
	}
	if normalized > 32767 {
		normalized = 32767
	}
	return int16(stdmath.Round(float64(normalized)))
}

// Dequantize is the exact linear inverse of Quantize (up to rounding).
func (q Quantization) Dequantize(value int16, minBound float32) float32 {
	return float32(value)/q.Scale + minBound
}

// QuantizeVec3 packs a point into grid coordinates.
func (q Quantization) QuantizeVec3(v math.Vec3) QuantizedVec3 {
	return QuantizedVec3{
		X: q.Quantize(v.X, q.MinBounds.X),
		Y: q.Quantize(v.Y, q.MinBounds.Y),
		Z: q.Quantize(v.Z, q.MinBounds.Z),
	}
}

// DequantizeVec3 unpacks a grid point back to model space.
func (q Quantization) DequantizeVec3(v QuantizedVec3) math.Vec3 {
	return math.Vec3{
		X: q.Dequantize(v.X, q.MinBounds.X),
		Y: q.Dequantize(v.Y, q.MinBounds.Y),
		Z: q.Dequantize(v.Z, q.MinBounds.Z),
	}
}

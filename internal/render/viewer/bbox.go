package viewer

import (
	"github.com/helixview/helixview/internal/gcode"
	"github.com/helixview/helixview/internal/render/geometry"
	vmath "github.com/helixview/helixview/pkg/math"
)

// highlightPadding expands highlight boxes slightly so the wireframe
// clears the ribbon surface it surrounds.
const highlightPadding = 1.0

// bboxEdges returns the 12 wireframe edges of an axis-aligned box as
// 24 endpoints (two per edge). Corners are routed through the same
// quantization as the ribbon geometry so boxes land exactly where the
// quantized toolpath does.
func bboxEdges(box gcode.AABB, quant geometry.Quantization) []vmath.Vec3 {
	box.Pad(highlightPadding)
	lo := quant.DequantizeVec3(quant.QuantizeVec3(box.Min))
	hi := quant.DequantizeVec3(quant.QuantizeVec3(box.Max))

	corner := func(x, y, z bool) vmath.Vec3 {
		v := lo
		if x {
			v.X = hi.X
		}
		if y {
			v.Y = hi.Y
		}
		if z {
			v.Z = hi.Z
		}
		return v
	}

	c000 := corner(false, false, false)
	c100 := corner(true, false, false)
	c010 := corner(false, true, false)
	c110 := corner(true, true, false)
	c001 := corner(false, false, true)
	c101 := corner(true, false, true)
	c011 := corner(false, true, true)
	c111 := corner(true, true, true)

	return []vmath.Vec3{
		// bottom face
		c000, c100,
		c100, c110,
		c110, c010,
		c010, c000,
		// top face
		c001, c101,
		c101, c111,
		c111, c011,
		c011, c001,
		// vertical edges
		c000, c001,
		c100, c101,
		c110, c111,
		c010, c011,
	}
}
